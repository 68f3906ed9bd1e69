package dbschema

import (
	"time"

	"gorm.io/datatypes"

	"flowcore-server/services/message-worker/internal/domain/workspace"
	"flowcore-server/services/message-worker/internal/infrastructure/database"
)

// Workspace represents the database schema for tenants
type Workspace struct {
	BaseModel
	Name string `gorm:"type:varchar(256);not null"`
	Slug string `gorm:"type:varchar(128);uniqueIndex;not null"`
}

// EtoD converts database schema to domain workspace (Entity to Domain)
func (w *Workspace) EtoD() *workspace.Workspace {
	return &workspace.Workspace{
		ID:        w.ID,
		Name:      w.Name,
		Slug:      w.Slug,
		CreatedAt: w.CreatedAt,
	}
}

// NotificationSettings represents per-workspace alerting configuration
type NotificationSettings struct {
	BaseModel
	WorkspaceID      string  `gorm:"type:uuid;uniqueIndex;not null"`
	AdminPhone       *string `gorm:"type:varchar(32)"`
	EscalationAlerts bool    `gorm:"not null;default:true"`
}

func (n *NotificationSettings) EtoD() *workspace.NotificationSettings {
	return &workspace.NotificationSettings{
		WorkspaceID:      n.WorkspaceID,
		AdminPhone:       n.AdminPhone,
		EscalationAlerts: n.EscalationAlerts,
	}
}

// ChannelConnection represents the Twilio credentials for a workspace
type ChannelConnection struct {
	BaseModel
	WorkspaceID string     `gorm:"type:uuid;uniqueIndex;not null"`
	AccountSID  string     `gorm:"type:varchar(64);not null"`
	AuthToken   string     `gorm:"type:varchar(128);not null"`
	PhoneNumber string     `gorm:"type:varchar(32);not null"`
	Mode        string     `gorm:"type:varchar(16);not null;default:'sandbox'"`
	Connected   bool       `gorm:"not null;default:false"`
	LastSeenAt  *time.Time `gorm:"type:timestamptz"`
}

func (c *ChannelConnection) EtoD() *workspace.ChannelConnection {
	return &workspace.ChannelConnection{
		WorkspaceID: c.WorkspaceID,
		AccountSID:  c.AccountSID,
		AuthToken:   c.AuthToken,
		PhoneNumber: c.PhoneNumber,
		Mode:        workspace.ChannelConnectionMode(c.Mode),
		Connected:   c.Connected,
	}
}

// CalendarConnection represents the external calendar credentials for a
// workspace
type CalendarConnection struct {
	BaseModel
	WorkspaceID string `gorm:"type:uuid;uniqueIndex;not null"`
	Provider    string `gorm:"type:varchar(32);not null;default:'google'"`
	AccessToken string `gorm:"type:text;not null"`
	CalendarID  string `gorm:"type:varchar(256);not null;default:'primary'"`
}

func (c *CalendarConnection) EtoD() *workspace.CalendarConnection {
	return &workspace.CalendarConnection{
		WorkspaceID: c.WorkspaceID,
		Provider:    c.Provider,
		AccessToken: c.AccessToken,
		CalendarID:  c.CalendarID,
	}
}

// AuditLog represents stored security and pipeline failure events
type AuditLog struct {
	BaseModel
	WorkspaceID string         `gorm:"type:uuid;index;not null"`
	EntityType  string         `gorm:"type:varchar(64);not null"`
	Action      string         `gorm:"type:varchar(64);not null"`
	Details     datatypes.JSON `gorm:"type:jsonb"`
}

// NewSchemaAuditLog creates a database schema from a domain audit entry
func NewSchemaAuditLog(entry *workspace.AuditLog) *AuditLog {
	return &AuditLog{
		BaseModel: BaseModel{
			ID:        entry.ID,
			CreatedAt: entry.CreatedAt,
		},
		WorkspaceID: entry.WorkspaceID,
		EntityType:  entry.EntityType,
		Action:      entry.Action,
		Details:     marshalJSON(entry.Details),
	}
}

func (NotificationSettings) TableName() string {
	return database.TablePrefix + "notification_settings"
}
