package persistence

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"flowcore-server/services/message-worker/internal/domain/conversation"
	"flowcore-server/services/message-worker/internal/infrastructure/database/dbschema"
)

// ConversationRepository implements conversation.Repository using GORM
type ConversationRepository struct {
	db *gorm.DB
}

// NewConversationRepository creates a new ConversationRepository
func NewConversationRepository(db *gorm.DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

// GetByID retrieves a conversation by ID
func (r *ConversationRepository) GetByID(ctx context.Context, id string) (*conversation.Conversation, error) {
	var row dbschema.Conversation
	err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return row.EtoD(), nil
}

// FindOpen retrieves the most recent todo or follow_up conversation for
// the contact on the channel
func (r *ConversationRepository) FindOpen(ctx context.Context, workspaceID, contactID, channel string) (*conversation.Conversation, error) {
	var row dbschema.Conversation
	err := r.db.WithContext(ctx).
		Where("workspace_id = ? AND contact_id = ? AND channel = ?", workspaceID, contactID, channel).
		Where("status IN ?", []string{string(conversation.StatusTodo), string(conversation.StatusFollowUp)}).
		Order("created_at DESC").
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return row.EtoD(), nil
}

// Create stores a new conversation
func (r *ConversationRepository) Create(ctx context.Context, conv *conversation.Conversation) error {
	return r.db.WithContext(ctx).Create(dbschema.NewSchemaConversation(conv)).Error
}

// MarkEscalated flags the conversation for human handling in one update
func (r *ConversationRepository) MarkEscalated(ctx context.Context, id string, update conversation.EscalationUpdate) error {
	return r.db.WithContext(ctx).
		Model(&dbschema.Conversation{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"escalated":         true,
			"assigned_to_human": true,
			"escalation_reason": update.Reason,
			"escalated_at":      update.EscalatedAt,
			"status":            string(conversation.StatusTodo),
		}).Error
}

// Touch bumps last_message_at and optionally the unread counter
func (r *ConversationRepository) Touch(ctx context.Context, id string, at time.Time, bumpUnread bool) error {
	updates := map[string]any{"last_message_at": at}
	if bumpUnread {
		updates["unread_count"] = gorm.Expr("unread_count + 1")
	}
	return r.db.WithContext(ctx).
		Model(&dbschema.Conversation{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// MessageRepository implements conversation.MessageRepository using GORM
type MessageRepository struct {
	db *gorm.DB
}

// NewMessageRepository creates a new MessageRepository
func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// GetByID retrieves a message by ID
func (r *MessageRepository) GetByID(ctx context.Context, id string) (*conversation.Message, error) {
	var row dbschema.Message
	err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return row.EtoD(), nil
}

// Create stores a new message
func (r *MessageRepository) Create(ctx context.Context, msg *conversation.Message) error {
	return r.db.WithContext(ctx).Create(dbschema.NewSchemaMessage(msg)).Error
}

// Upsert inserts the message unless the provider already delivered it.
// The conflict target is the partial unique index on
// (conversation_id, provider_message_id).
func (r *MessageRepository) Upsert(ctx context.Context, msg *conversation.Message) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "conversation_id"},
				{Name: "provider_message_id"},
			},
			TargetWhere: clause.Where{Exprs: []clause.Expression{
				clause.Expr{SQL: "provider_message_id IS NOT NULL"},
			}},
			DoNothing: true,
		}).
		Create(dbschema.NewSchemaMessage(msg))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ListRecent returns up to limit of the newest messages, oldest first
func (r *MessageRepository) ListRecent(ctx context.Context, conversationID string, limit int) ([]conversation.Message, error) {
	var rows []dbschema.Message
	err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]conversation.Message, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		out = append(out, *rows[i].EtoD())
	}
	return out, nil
}
