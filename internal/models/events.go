package models

// SendRequest is the send-message boundary request. ID is chosen by the
// sender so the optimistic and authoritative copies share it.
type SendRequest struct {
	ID         string `json:"id,omitempty"`
	ThreadKey  string `json:"thread_key" binding:"required"`
	ReceiverID string `json:"receiver_id" binding:"required"`
	Content    string `json:"content" binding:"required,max=5000"`
	OrgID      string `json:"org_id,omitempty"`
	ParentID   string `json:"parent_id,omitempty"`
}

// Push event types.
const (
	EventMessage        = "message"
	EventMessageDeleted = "message_deleted"
	EventSubscribed     = "subscribed"
	EventUnsubscribed   = "unsubscribed"
	EventError          = "error"
)

// PushEvent is a frame on the push channel.
type PushEvent struct {
	Type      string   `json:"type"`
	ThreadKey string   `json:"thread_key,omitempty"`
	Message   *Message `json:"message,omitempty"`
	MessageID string   `json:"message_id,omitempty"`
	Error     string   `json:"error,omitempty"`
}

// SubscribeFrame is sent by clients to join or leave a thread's push room.
type SubscribeFrame struct {
	Type      string `json:"type"` // "subscribe" or "unsubscribe"
	ThreadKey string `json:"thread_key"`
	OrgID     string `json:"org_id,omitempty"`
}
