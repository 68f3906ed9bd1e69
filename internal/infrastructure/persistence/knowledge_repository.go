package persistence

import (
	"context"

	"gorm.io/gorm"

	"flowcore-server/services/message-worker/internal/domain/knowledge"
	"flowcore-server/services/message-worker/internal/infrastructure/database/dbschema"
	"flowcore-server/services/message-worker/internal/utils/functional"
)

// KnowledgeRepository implements knowledge.Repository using GORM
type KnowledgeRepository struct {
	db *gorm.DB
}

// NewKnowledgeRepository creates a new KnowledgeRepository
func NewKnowledgeRepository(db *gorm.DB) *KnowledgeRepository {
	return &KnowledgeRepository{db: db}
}

// List returns up to limit newest knowledge base entries for the workspace
func (r *KnowledgeRepository) List(ctx context.Context, workspaceID string, limit int) ([]knowledge.Entry, error) {
	var rows []dbschema.KnowledgeEntry
	err := r.db.WithContext(ctx).
		Where("workspace_id = ?", workspaceID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	return functional.Map(rows, func(row dbschema.KnowledgeEntry) knowledge.Entry {
		return *row.EtoD()
	}), nil
}
