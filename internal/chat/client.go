package chat

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ageniuscoder/gigchat/internal/models"
	"github.com/ageniuscoder/gigchat/internal/storage"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 5120
	authTimeout    = 5 * time.Second
)

type Client struct {
	Hub    *Hub
	Conn   *websocket.Conn
	Send   chan []byte
	UserID string

	// rooms is owned by the hub goroutine.
	rooms map[string]bool
}

func newClient(h *Hub, conn *websocket.Conn, userID string) *Client {
	return &Client{
		Hub:    h,
		Conn:   conn,
		Send:   make(chan []byte, 256),
		UserID: userID,
		rooms:  make(map[string]bool),
	}
}

func (c *Client) readPump() {
	defer func() {
		select {
		case c.Hub.unregister <- c:
		case <-c.Hub.done:
		}
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		_, msg, err := c.Conn.ReadMessage()
		if err != nil {
			break
		}
		var in models.SubscribeFrame
		if err := json.Unmarshal(msg, &in); err != nil || in.ThreadKey == "" {
			c.Hub.replyErr(c, in.ThreadKey, "malformed frame")
			continue
		}
		sub := subscription{
			client:    c,
			threadKey: in.ThreadKey,
			viewer:    storage.Viewer{UserID: c.UserID, OrgID: in.OrgID},
		}
		switch in.Type {
		case "subscribe":
			c.join(sub)
		case "unsubscribe":
			select {
			case c.Hub.unsubscribe <- sub:
			case <-c.Hub.done:
				return
			}
		default:
			c.Hub.replyErr(c, in.ThreadKey, "unknown frame type "+in.Type)
		}
	}
}

func (c *Client) join(sub subscription) {
	ctx, cancel := context.WithTimeout(context.Background(), authTimeout)
	defer cancel()
	ok, err := c.Hub.Auth.CanView(ctx, sub.threadKey, sub.viewer)
	if err != nil {
		c.Hub.log.Error("authorize subscription", "user", c.UserID, "thread", sub.threadKey, "err", err)
		c.Hub.replyErr(c, sub.threadKey, "subscription failed")
		return
	}
	if !ok {
		c.Hub.replyErr(c, sub.threadKey, "forbidden")
		return
	}
	select {
	case c.Hub.subscribe <- sub:
	case <-c.Hub.done:
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			_, _ = w.Write(message)
			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
