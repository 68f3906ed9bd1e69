package appointment

import (
	"context"
	"time"

	"flowcore-server/services/message-worker/internal/domain/workspace"
)

// Status is the lifecycle state of an appointment.
type Status string

const (
	StatusConfirmed   Status = "confirmed"
	StatusRescheduled Status = "rescheduled"
	StatusCancelled   Status = "cancelled"
)

const (
	DefaultDurationMinutes = 30
	SlotStepMinutes        = 30
	MaxSlotsReturned       = 10
)

// Appointment is a booked time slot for a contact.
type Appointment struct {
	ID              string
	WorkspaceID     string
	ContactID       string
	ConversationID  *string
	Title           string
	StartTime       time.Time
	EndTime         time.Time
	Status          Status
	CalendarEventID *string
	BookedBy        string
	Notes           *string
	DurationMinutes int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Overlaps reports whether the appointment intersects the half-open
// interval [start, end).
func (a *Appointment) Overlaps(start, end time.Time) bool {
	return start.Before(a.EndTime) && end.After(a.StartTime)
}

// Repository provides access to appointments.
type Repository interface {
	Create(ctx context.Context, appt *Appointment) error
	// GetByID is workspace scoped; an appointment belonging to another
	// workspace is reported as not found.
	GetByID(ctx context.Context, workspaceID, id string) (*Appointment, error)
	Reschedule(ctx context.Context, workspaceID, id string, start, end time.Time) error
	// Cancel is idempotent: cancelling an already cancelled appointment
	// succeeds.
	Cancel(ctx context.Context, workspaceID, id string) error
	// ListBetween returns non-cancelled appointments overlapping the
	// window [from, to).
	ListBetween(ctx context.Context, workspaceID string, from, to time.Time) ([]Appointment, error)
}

// BusyInterval is a blocked period from the external calendar.
type BusyInterval struct {
	Start   time.Time
	End     time.Time
	Summary string
}

// CalendarEvent is the payload for creating an external calendar event.
type CalendarEvent struct {
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
}

// CalendarClient talks to the workspace's external calendar. Implementations
// receive the connection explicitly so credentials stay per-workspace.
type CalendarClient interface {
	ListBusy(ctx context.Context, conn *workspace.CalendarConnection, from, to time.Time) ([]BusyInterval, error)
	// CreateEvent returns the provider event id.
	CreateEvent(ctx context.Context, conn *workspace.CalendarConnection, event CalendarEvent) (string, error)
}
