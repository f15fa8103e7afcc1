package chat

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/ageniuscoder/gigchat/internal/metrics"
	"github.com/ageniuscoder/gigchat/internal/models"
	"github.com/ageniuscoder/gigchat/internal/storage"
)

// Authorizer decides whether a viewer may join a thread's room.
type Authorizer interface {
	CanView(ctx context.Context, threadKey string, v storage.Viewer) (bool, error)
}

type subscription struct {
	client    *Client
	threadKey string
	viewer    storage.Viewer
}

type envelope struct {
	threadKey string
	kind      string
	payload   []byte
}

type reply struct {
	client  *Client
	payload []byte
}

// Hub owns every connection and room. All maps are touched by Run only.
type Hub struct {
	Auth    Authorizer
	Metrics *metrics.Metrics
	log     *slog.Logger

	register    chan *Client
	unregister  chan *Client
	subscribe   chan subscription
	unsubscribe chan subscription
	broadcast   chan envelope
	replies     chan reply
	done        chan struct{}

	clients map[*Client]bool
	// threadKey -> subscribed clients (handles multi-tab/or multi device)
	rooms map[string]map[*Client]bool
}

func NewHub(a Authorizer, m *metrics.Metrics, log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{
		Auth:        a,
		Metrics:     m,
		log:         log.With("component", "hub"),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		subscribe:   make(chan subscription),
		unsubscribe: make(chan subscription),
		broadcast:   make(chan envelope, 64),
		replies:     make(chan reply, 64),
		done:        make(chan struct{}),
		clients:     make(map[*Client]bool),
		rooms:       make(map[string]map[*Client]bool),
	}
}

// Run serves the hub until ctx is done, then closes every connection.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				h.drop(c)
			}
			return
		case c := <-h.register:
			h.clients[c] = true
			h.gauge()
		case c := <-h.unregister:
			h.drop(c)
		case s := <-h.subscribe:
			if !h.clients[s.client] {
				continue
			}
			room := h.rooms[s.threadKey]
			if room == nil {
				room = make(map[*Client]bool)
				h.rooms[s.threadKey] = room
			}
			room[s.client] = true
			s.client.rooms[s.threadKey] = true
			h.deliver(s.client, frame(models.PushEvent{Type: models.EventSubscribed, ThreadKey: s.threadKey}))
			h.gauge()
		case s := <-h.unsubscribe:
			if !h.clients[s.client] {
				continue
			}
			h.leave(s.client, s.threadKey)
			h.deliver(s.client, frame(models.PushEvent{Type: models.EventUnsubscribed, ThreadKey: s.threadKey}))
			h.gauge()
		case r := <-h.replies:
			if h.clients[r.client] {
				h.deliver(r.client, r.payload)
			}
		case e := <-h.broadcast:
			for c := range h.rooms[e.threadKey] {
				if h.deliver(c, e.payload) && h.Metrics != nil {
					h.Metrics.PushEvents.WithLabelValues(e.kind).Inc()
				}
			}
		}
	}
}

// Publish fans ev out to every subscriber of its thread. It never blocks
// once the hub has stopped.
func (h *Hub) Publish(ev models.PushEvent) {
	select {
	case h.broadcast <- envelope{threadKey: ev.ThreadKey, kind: ev.Type, payload: frame(ev)}:
	case <-h.done:
	}
}

// MessageCreated publishes a stored or updated message.
func (h *Hub) MessageCreated(m models.Message) {
	h.Publish(models.PushEvent{Type: models.EventMessage, ThreadKey: m.ThreadKey, Message: &m})
}

// MessageDeleted publishes the removal of id from threadKey.
func (h *Hub) MessageDeleted(threadKey, id string) {
	h.Publish(models.PushEvent{Type: models.EventMessageDeleted, ThreadKey: threadKey, MessageID: id})
}

func (h *Hub) replyErr(c *Client, threadKey, msg string) {
	select {
	case h.replies <- reply{client: c, payload: frame(models.PushEvent{Type: models.EventError, ThreadKey: threadKey, Error: msg})}:
	case <-h.done:
	}
}

// deliver queues payload on c, dropping c when its buffer is full.
func (h *Hub) deliver(c *Client, payload []byte) bool {
	select {
	case c.Send <- payload:
		return true
	default:
		// slow/broken client → drop
		h.log.Warn("dropped slow client", "user", c.UserID)
		h.drop(c)
		return false
	}
}

func (h *Hub) drop(c *Client) {
	if !h.clients[c] {
		return
	}
	for key := range c.rooms {
		h.leave(c, key)
	}
	delete(h.clients, c)
	close(c.Send)
	h.gauge()
}

func (h *Hub) leave(c *Client, threadKey string) {
	delete(c.rooms, threadKey)
	if room, ok := h.rooms[threadKey]; ok {
		delete(room, c)
		if len(room) == 0 {
			delete(h.rooms, threadKey)
		}
	}
}

func (h *Hub) gauge() {
	if h.Metrics == nil {
		return
	}
	h.Metrics.Sockets.Set(float64(len(h.clients)))
	h.Metrics.Rooms.Set(float64(len(h.rooms)))
}

func frame(ev models.PushEvent) []byte {
	b, _ := json.Marshal(ev)
	return b
}
