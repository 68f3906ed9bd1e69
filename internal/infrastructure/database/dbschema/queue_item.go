package dbschema

import (
	"time"

	"flowcore-server/services/message-worker/internal/domain/queue"
	"flowcore-server/services/message-worker/internal/infrastructure/database"
)

// QueueItem represents one pending unit of AI work
type QueueItem struct {
	BaseModel
	WorkspaceID    string     `gorm:"type:uuid;not null"`
	ConversationID string     `gorm:"type:uuid;index;not null"`
	MessageID      string     `gorm:"type:uuid;not null"`
	Status         string     `gorm:"type:varchar(16);index:idx_queue_status_next_attempt;not null;default:'pending'"`
	Attempts       int        `gorm:"not null;default:0"`
	MaxAttempts    int        `gorm:"not null;default:5"`
	LastError      *string    `gorm:"type:text"`
	ClaimedAt      *time.Time `gorm:"type:timestamptz"`
	NextAttemptAt  time.Time  `gorm:"type:timestamptz;index:idx_queue_status_next_attempt;not null"`
}

func (QueueItem) TableName() string {
	return database.TablePrefix + "message_queue"
}

// NewSchemaQueueItem creates a database schema from a domain queue item
func NewSchemaQueueItem(item *queue.Item) *QueueItem {
	return &QueueItem{
		BaseModel: BaseModel{
			ID:        item.ID,
			CreatedAt: item.CreatedAt,
			UpdatedAt: item.UpdatedAt,
		},
		WorkspaceID:    item.WorkspaceID,
		ConversationID: item.ConversationID,
		MessageID:      item.MessageID,
		Status:         string(item.Status),
		Attempts:       item.Attempts,
		MaxAttempts:    item.MaxAttempts,
		LastError:      item.LastError,
		ClaimedAt:      item.ClaimedAt,
		NextAttemptAt:  item.NextAttemptAt,
	}
}

// EtoD converts database schema to domain queue item (Entity to Domain)
func (q *QueueItem) EtoD() queue.Item {
	return queue.Item{
		ID:             q.ID,
		WorkspaceID:    q.WorkspaceID,
		ConversationID: q.ConversationID,
		MessageID:      q.MessageID,
		Status:         queue.Status(q.Status),
		Attempts:       q.Attempts,
		MaxAttempts:    q.MaxAttempts,
		LastError:      q.LastError,
		ClaimedAt:      q.ClaimedAt,
		NextAttemptAt:  q.NextAttemptAt,
		CreatedAt:      q.CreatedAt,
		UpdatedAt:      q.UpdatedAt,
	}
}
