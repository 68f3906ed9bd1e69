package persistence

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"flowcore-server/services/message-worker/internal/domain/agent"
	"flowcore-server/services/message-worker/internal/infrastructure/database/dbschema"
)

// AgentRepository implements agent.Repository using GORM
type AgentRepository struct {
	db *gorm.DB
}

// NewAgentRepository creates a new AgentRepository
func NewAgentRepository(db *gorm.DB) *AgentRepository {
	return &AgentRepository{db: db}
}

// FindActive retrieves the active agent for the workspace, or nil
func (r *AgentRepository) FindActive(ctx context.Context, workspaceID string) (*agent.Agent, error) {
	var row dbschema.Agent
	err := r.db.WithContext(ctx).
		Where("workspace_id = ? AND active = TRUE", workspaceID).
		Order("updated_at DESC").
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return row.EtoD(), nil
}
