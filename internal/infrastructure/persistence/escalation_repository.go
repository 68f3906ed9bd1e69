package persistence

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"flowcore-server/services/message-worker/internal/domain/escalation"
	"flowcore-server/services/message-worker/internal/infrastructure/database/dbschema"
)

// EscalationRulesRepository implements escalation.RulesRepository using GORM
type EscalationRulesRepository struct {
	db *gorm.DB
}

// NewEscalationRulesRepository creates a new EscalationRulesRepository
func NewEscalationRulesRepository(db *gorm.DB) *EscalationRulesRepository {
	return &EscalationRulesRepository{db: db}
}

// Get retrieves the escalation rules for the workspace, or nil when the
// workspace never configured any
func (r *EscalationRulesRepository) Get(ctx context.Context, workspaceID string) (*escalation.Rules, error) {
	var row dbschema.EscalationRule
	err := r.db.WithContext(ctx).
		Where("workspace_id = ?", workspaceID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return row.EtoD(), nil
}
