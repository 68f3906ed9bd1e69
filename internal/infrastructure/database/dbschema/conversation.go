package dbschema

import (
	"time"

	"gorm.io/datatypes"

	"flowcore-server/services/message-worker/internal/domain/conversation"
)

// Conversation represents the database schema for conversations
type Conversation struct {
	BaseModel
	WorkspaceID      string     `gorm:"type:uuid;index:idx_conversation_workspace_status;not null"`
	ContactID        string     `gorm:"type:uuid;index;not null"`
	Channel          string     `gorm:"type:varchar(32);not null;default:'whatsapp'"`
	Status           string     `gorm:"type:varchar(20);index:idx_conversation_workspace_status;not null;default:'todo'"`
	AssignedToHuman  bool       `gorm:"not null;default:false"`
	Escalated        bool       `gorm:"not null;default:false"`
	EscalationReason *string    `gorm:"type:varchar(64)"`
	EscalatedAt      *time.Time `gorm:"type:timestamptz"`
	LastMessageAt    *time.Time `gorm:"type:timestamptz;index"`
	UnreadCount      int        `gorm:"not null;default:0"`
}

// NewSchemaConversation creates a database schema from a domain conversation
func NewSchemaConversation(c *conversation.Conversation) *Conversation {
	return &Conversation{
		BaseModel: BaseModel{
			ID:        c.ID,
			CreatedAt: c.CreatedAt,
			UpdatedAt: c.UpdatedAt,
		},
		WorkspaceID:      c.WorkspaceID,
		ContactID:        c.ContactID,
		Channel:          c.Channel,
		Status:           string(c.Status),
		AssignedToHuman:  c.AssignedToHuman,
		Escalated:        c.Escalated,
		EscalationReason: c.EscalationReason,
		EscalatedAt:      c.EscalatedAt,
		LastMessageAt:    c.LastMessageAt,
		UnreadCount:      c.UnreadCount,
	}
}

// EtoD converts database schema to domain conversation (Entity to Domain)
func (c *Conversation) EtoD() *conversation.Conversation {
	return &conversation.Conversation{
		ID:               c.ID,
		WorkspaceID:      c.WorkspaceID,
		ContactID:        c.ContactID,
		Channel:          c.Channel,
		Status:           conversation.Status(c.Status),
		AssignedToHuman:  c.AssignedToHuman,
		Escalated:        c.Escalated,
		EscalationReason: c.EscalationReason,
		EscalatedAt:      c.EscalatedAt,
		LastMessageAt:    c.LastMessageAt,
		UnreadCount:      c.UnreadCount,
		CreatedAt:        c.CreatedAt,
		UpdatedAt:        c.UpdatedAt,
	}
}

// Message represents the database schema for messages. The partial unique
// index on (conversation_id, provider_message_id) makes webhook redelivery
// idempotent; it is created in SQL because it needs a WHERE clause.
type Message struct {
	BaseModel
	ConversationID    string  `gorm:"type:uuid;index:idx_message_conversation_created;not null"`
	Content           string  `gorm:"type:text;not null"`
	Sender            string  `gorm:"type:varchar(16);not null"`
	ProviderMessageID *string        `gorm:"type:varchar(64)"`
	Metadata          datatypes.JSON `gorm:"type:jsonb"`
}

// NewSchemaMessage creates a database schema from a domain message
func NewSchemaMessage(m *conversation.Message) *Message {
	return &Message{
		BaseModel: BaseModel{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
		},
		ConversationID:    m.ConversationID,
		Content:           m.Content,
		Sender:            string(m.Sender),
		ProviderMessageID: m.ProviderMessageID,
		Metadata:          marshalJSON(m.Metadata),
	}
}

// EtoD converts database schema to domain message (Entity to Domain)
func (m *Message) EtoD() *conversation.Message {
	return &conversation.Message{
		ID:                m.ID,
		ConversationID:    m.ConversationID,
		Content:           m.Content,
		Sender:            conversation.Sender(m.Sender),
		ProviderMessageID: m.ProviderMessageID,
		Metadata:          unmarshalJSON(m.Metadata),
		CreatedAt:         m.CreatedAt,
	}
}
