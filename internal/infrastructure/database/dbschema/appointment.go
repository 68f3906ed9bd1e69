package dbschema

import (
	"time"

	"flowcore-server/services/message-worker/internal/domain/appointment"
)

// Appointment represents the database schema for appointments
type Appointment struct {
	BaseModel
	WorkspaceID     string    `gorm:"type:uuid;index:idx_appointment_workspace_start;not null"`
	ContactID       string    `gorm:"type:uuid;index;not null"`
	ConversationID  *string   `gorm:"type:uuid"`
	Title           string    `gorm:"type:varchar(256);not null"`
	StartTime       time.Time `gorm:"type:timestamptz;index:idx_appointment_workspace_start;not null"`
	EndTime         time.Time `gorm:"type:timestamptz;not null"`
	Status          string    `gorm:"type:varchar(20);not null;default:'confirmed'"`
	CalendarEventID *string   `gorm:"type:varchar(128)"`
	BookedBy        string    `gorm:"type:varchar(16);not null;default:'ai'"`
	Notes           *string   `gorm:"type:text"`
	DurationMinutes int       `gorm:"not null;default:30"`
}

// NewSchemaAppointment creates a database schema from a domain appointment
func NewSchemaAppointment(a *appointment.Appointment) *Appointment {
	return &Appointment{
		BaseModel: BaseModel{
			ID:        a.ID,
			CreatedAt: a.CreatedAt,
			UpdatedAt: a.UpdatedAt,
		},
		WorkspaceID:     a.WorkspaceID,
		ContactID:       a.ContactID,
		ConversationID:  a.ConversationID,
		Title:           a.Title,
		StartTime:       a.StartTime,
		EndTime:         a.EndTime,
		Status:          string(a.Status),
		CalendarEventID: a.CalendarEventID,
		BookedBy:        a.BookedBy,
		Notes:           a.Notes,
		DurationMinutes: a.DurationMinutes,
	}
}

// EtoD converts database schema to domain appointment (Entity to Domain)
func (a *Appointment) EtoD() *appointment.Appointment {
	return &appointment.Appointment{
		ID:              a.ID,
		WorkspaceID:     a.WorkspaceID,
		ContactID:       a.ContactID,
		ConversationID:  a.ConversationID,
		Title:           a.Title,
		StartTime:       a.StartTime,
		EndTime:         a.EndTime,
		Status:          appointment.Status(a.Status),
		CalendarEventID: a.CalendarEventID,
		BookedBy:        a.BookedBy,
		Notes:           a.Notes,
		DurationMinutes: a.DurationMinutes,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
}
