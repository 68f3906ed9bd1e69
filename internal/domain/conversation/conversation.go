package conversation

import (
	"context"
	"time"
)

// Status is the lifecycle state of a conversation. The same vocabulary is
// used by the inbox UI and the worker: escalation always moves a
// conversation back to StatusTodo so a human picks it up.
type Status string

const (
	StatusTodo     Status = "todo"
	StatusFollowUp Status = "follow_up"
	StatusDone     Status = "done"
)

// Sender identifies who authored a message.
type Sender string

const (
	SenderCustomer Sender = "customer"
	SenderAI       Sender = "ai"
	SenderHuman    Sender = "human"
	SenderSystem   Sender = "system"
)

const ChannelWhatsApp = "whatsapp"

// Conversation is a threaded exchange with a single contact on one channel.
type Conversation struct {
	ID               string
	WorkspaceID      string
	ContactID        string
	Channel          string
	Status           Status
	AssignedToHuman  bool
	Escalated        bool
	EscalationReason *string
	EscalatedAt      *time.Time
	LastMessageAt    *time.Time
	UnreadCount      int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Message is a single message within a conversation. ProviderMessageID is
// the channel provider's message SID and is set only for inbound messages;
// it backs the ingestion idempotency key.
type Message struct {
	ID                string
	ConversationID    string
	Content           string
	Sender            Sender
	ProviderMessageID *string
	Metadata          map[string]any
	CreatedAt         time.Time
}

// EscalationUpdate captures the field set applied when a conversation is
// handed off to a human. Both flags are always set together.
type EscalationUpdate struct {
	Reason      string
	EscalatedAt time.Time
}

// Repository provides access to conversations.
type Repository interface {
	GetByID(ctx context.Context, id string) (*Conversation, error)
	// FindOpen returns the most recent conversation for the contact on the
	// channel whose status is todo or follow_up, or nil if none exists.
	FindOpen(ctx context.Context, workspaceID, contactID, channel string) (*Conversation, error)
	Create(ctx context.Context, conv *Conversation) error
	// MarkEscalated sets escalated, assigned_to_human, the reason and
	// timestamp, and resets status to todo in a single update.
	MarkEscalated(ctx context.Context, id string, update EscalationUpdate) error
	// Touch bumps last_message_at and, for inbound messages, increments
	// unread_count.
	Touch(ctx context.Context, id string, at time.Time, bumpUnread bool) error
}

// MessageRepository provides access to messages.
type MessageRepository interface {
	GetByID(ctx context.Context, id string) (*Message, error)
	Create(ctx context.Context, msg *Message) error
	// Upsert inserts the message unless a row with the same
	// (conversation_id, provider_message_id) already exists, in which case
	// it is a no-op. Returns true when a new row was inserted.
	Upsert(ctx context.Context, msg *Message) (bool, error)
	// ListRecent returns up to limit of the newest messages in the
	// conversation, ordered oldest first.
	ListRecent(ctx context.Context, conversationID string, limit int) ([]Message, error)
}
