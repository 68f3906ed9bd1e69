package persistence

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"flowcore-server/services/message-worker/internal/domain/workspace"
	"flowcore-server/services/message-worker/internal/infrastructure/database/dbschema"
)

// SettingsRepository implements workspace.SettingsRepository using GORM
type SettingsRepository struct {
	db *gorm.DB
}

// NewSettingsRepository creates a new SettingsRepository
func NewSettingsRepository(db *gorm.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// GetNotificationSettings retrieves the alerting settings for the
// workspace, or nil when none were saved
func (r *SettingsRepository) GetNotificationSettings(ctx context.Context, workspaceID string) (*workspace.NotificationSettings, error) {
	var row dbschema.NotificationSettings
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

// ConnectionRepository implements workspace.ConnectionRepository using GORM
type ConnectionRepository struct {
	db *gorm.DB
}

// NewConnectionRepository creates a new ConnectionRepository
func NewConnectionRepository(db *gorm.DB) *ConnectionRepository {
	return &ConnectionRepository{db: db}
}

// GetChannelConnection retrieves the Twilio credentials for the workspace
func (r *ConnectionRepository) GetChannelConnection(ctx context.Context, workspaceID string) (*workspace.ChannelConnection, error) {
	var row dbschema.ChannelConnection
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

// MarkConnected records webhook traffic as a liveness heartbeat
func (r *ConnectionRepository) MarkConnected(ctx context.Context, workspaceID string) error {
	return r.db.WithContext(ctx).
		Model(&dbschema.ChannelConnection{}).
		Where("workspace_id = ?", workspaceID).
		Updates(map[string]any{
			"connected":    true,
			"last_seen_at": time.Now(),
		}).Error
}

// GetCalendarConnection retrieves the calendar credentials for the
// workspace, or nil when no calendar is linked
func (r *ConnectionRepository) GetCalendarConnection(ctx context.Context, workspaceID string) (*workspace.CalendarConnection, error) {
	var row dbschema.CalendarConnection
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

// AuditRepository implements workspace.AuditRepository using GORM
type AuditRepository struct {
	db *gorm.DB
}

// NewAuditRepository creates a new AuditRepository
func NewAuditRepository(db *gorm.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Insert stores one audit log entry
func (r *AuditRepository) Insert(ctx context.Context, entry *workspace.AuditLog) error {
	return r.db.WithContext(ctx).Create(dbschema.NewSchemaAuditLog(entry)).Error
}
