package dbschema

import (
	"github.com/lib/pq"

	"flowcore-server/services/message-worker/internal/domain/interaction"
	"flowcore-server/services/message-worker/internal/infrastructure/database"
)

// AIInteraction represents one recorded AI turn for billing and analytics
type AIInteraction struct {
	BaseModel
	WorkspaceID    string         `gorm:"type:uuid;index;not null"`
	ConversationID string         `gorm:"type:uuid;index;not null"`
	Model          string         `gorm:"type:varchar(128);not null"`
	InputTokens    int            `gorm:"not null;default:0"`
	OutputTokens   int            `gorm:"not null;default:0"`
	ToolCalls      pq.StringArray `gorm:"type:text[]"`
	LatencyMS      int64          `gorm:"not null;default:0"`
}

func (AIInteraction) TableName() string {
	return database.TablePrefix + "ai_interactions"
}

// NewSchemaAIInteraction creates a database schema from a domain interaction
func NewSchemaAIInteraction(rec *interaction.Interaction) *AIInteraction {
	return &AIInteraction{
		BaseModel: BaseModel{
			ID:        rec.ID,
			CreatedAt: rec.CreatedAt,
		},
		WorkspaceID:    rec.WorkspaceID,
		ConversationID: rec.ConversationID,
		Model:          rec.Model,
		InputTokens:    rec.InputTokens,
		OutputTokens:   rec.OutputTokens,
		ToolCalls:      pq.StringArray(rec.ToolCalls),
		LatencyMS:      rec.LatencyMS,
	}
}
