package persistence

import (
	"context"

	"gorm.io/gorm"

	"flowcore-server/services/message-worker/internal/domain/interaction"
	"flowcore-server/services/message-worker/internal/infrastructure/database/dbschema"
)

// InteractionRepository implements interaction.Repository using GORM
type InteractionRepository struct {
	db *gorm.DB
}

// NewInteractionRepository creates a new InteractionRepository
func NewInteractionRepository(db *gorm.DB) *InteractionRepository {
	return &InteractionRepository{db: db}
}

// Create stores one AI interaction record
func (r *InteractionRepository) Create(ctx context.Context, rec *interaction.Interaction) error {
	return r.db.WithContext(ctx).Create(dbschema.NewSchemaAIInteraction(rec)).Error
}
