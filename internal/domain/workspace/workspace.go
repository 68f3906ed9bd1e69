package workspace

import (
	"context"
	"time"
)

// Workspace is a tenant. Everything the worker touches is scoped to one.
type Workspace struct {
	ID        string
	Name      string
	Slug      string
	CreatedAt time.Time
}

// NotificationSettings controls admin alerting for a workspace.
type NotificationSettings struct {
	WorkspaceID      string
	AdminPhone       *string
	EscalationAlerts bool
}

// ChannelConnectionMode selects between the provider sandbox and a
// provisioned business number.
type ChannelConnectionMode string

const (
	ModeSandbox ChannelConnectionMode = "sandbox"
	ModeLive    ChannelConnectionMode = "live"
)

// ChannelConnection holds the Twilio credentials for a workspace.
type ChannelConnection struct {
	WorkspaceID string
	AccountSID  string
	AuthToken   string
	PhoneNumber string
	Mode        ChannelConnectionMode
	Connected   bool
}

// CalendarConnection holds the external calendar credentials for a
// workspace. Absence of a connection is not an error for availability
// checks; the scheduler then consults the appointment table only.
type CalendarConnection struct {
	WorkspaceID string
	Provider    string
	AccessToken string
	CalendarID  string
}

// AuditLog records security and pipeline failures for later review.
type AuditLog struct {
	ID          string
	WorkspaceID string
	EntityType  string
	Action      string
	Details     map[string]any
	CreatedAt   time.Time
}

// SettingsRepository provides access to per-workspace settings rows.
type SettingsRepository interface {
	GetNotificationSettings(ctx context.Context, workspaceID string) (*NotificationSettings, error)
}

// ConnectionRepository provides access to channel and calendar credentials.
type ConnectionRepository interface {
	GetChannelConnection(ctx context.Context, workspaceID string) (*ChannelConnection, error)
	// MarkConnected flips the connected flag; used as a heartbeat whenever
	// the provider delivers a webhook.
	MarkConnected(ctx context.Context, workspaceID string) error
	// GetCalendarConnection returns nil without error when the workspace
	// has not linked a calendar.
	GetCalendarConnection(ctx context.Context, workspaceID string) (*CalendarConnection, error)
}

// AuditRepository records audit log entries. Write failures are logged and
// swallowed by callers; auditing never fails a request.
type AuditRepository interface {
	Insert(ctx context.Context, entry *AuditLog) error
}
