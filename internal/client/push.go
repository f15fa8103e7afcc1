package client

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ageniuscoder/gigchat/internal/models"
)

const (
	pongWait   = 60 * time.Second
	writeWait  = 10 * time.Second
	pushBuffer = 64
)

// Push subscribes to thread rooms over the server's WebSocket endpoint. Each
// subscription owns its connection.
type Push struct {
	client *Client
	dialer *websocket.Dialer
	log    *slog.Logger
}

func NewPush(c *Client, log *slog.Logger) *Push {
	if log == nil {
		log = slog.Default()
	}
	return &Push{
		client: c,
		dialer: &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		log:    log.With("component", "push"),
	}
}

func (p *Push) wsURL() string {
	u := *p.client.base
	if u.Scheme == "https" {
		u.Scheme = "wss"
	} else {
		u.Scheme = "ws"
	}
	u.Path = p.client.base.Path + "/api/ws"
	u.RawQuery = url.Values{"token": {p.client.token}}.Encode()
	return u.String()
}

// Subscribe dials the server, joins threadKey's room and streams message and
// deletion events until ctx is done or the connection drops. It returns once
// the server has acknowledged the join, so every later publish is delivered.
func (p *Push) Subscribe(ctx context.Context, threadKey, orgID string) (<-chan models.PushEvent, error) {
	conn, resp, err := p.dialer.DialContext(ctx, p.wsURL(), nil)
	if err != nil {
		if resp != nil {
			return nil, &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		}
		return nil, fmt.Errorf("dial push: %w", err)
	}

	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	frame := models.SubscribeFrame{Type: "subscribe", ThreadKey: threadKey, OrgID: orgID}
	if err := conn.WriteJSON(frame); err != nil {
		conn.Close()
		return nil, fmt.Errorf("subscribe %s: %w", threadKey, err)
	}

	out := make(chan models.PushEvent, pushBuffer)
	stop := context.AfterFunc(ctx, func() {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
		conn.Close()
	})
	conn.SetPingHandler(func(data string) error {
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		return conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(writeWait))
	})

	if err := awaitJoin(conn, threadKey); err != nil {
		stop()
		conn.Close()
		return nil, err
	}

	go func() {
		defer close(out)
		defer stop()
		defer conn.Close()
		for {
			_ = conn.SetReadDeadline(time.Now().Add(pongWait))
			var ev models.PushEvent
			if err := conn.ReadJSON(&ev); err != nil {
				if ctx.Err() == nil {
					p.log.Debug("push connection closed", "thread", threadKey, "err", err)
				}
				return
			}
			switch ev.Type {
			case models.EventMessage, models.EventMessageDeleted:
			case models.EventError:
				p.log.Warn("push error", "thread", threadKey, "err", ev.Error)
				continue
			default:
				continue
			}
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// awaitJoin reads frames until the hub acknowledges or rejects the
// subscription to threadKey.
func awaitJoin(conn *websocket.Conn, threadKey string) error {
	_ = conn.SetReadDeadline(time.Now().Add(writeWait))
	for {
		var ev models.PushEvent
		if err := conn.ReadJSON(&ev); err != nil {
			return fmt.Errorf("await subscribe %s: %w", threadKey, err)
		}
		if ev.ThreadKey != threadKey {
			continue
		}
		switch ev.Type {
		case models.EventSubscribed:
			return nil
		case models.EventError:
			if ev.Error == "forbidden" {
				return &APIError{Status: http.StatusForbidden, Message: ev.Error}
			}
			return fmt.Errorf("subscribe %s: %s", threadKey, ev.Error)
		}
	}
}
