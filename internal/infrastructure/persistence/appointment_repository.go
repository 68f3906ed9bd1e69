package persistence

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"flowcore-server/services/message-worker/internal/domain/appointment"
	"flowcore-server/services/message-worker/internal/infrastructure/database/dbschema"
	"flowcore-server/services/message-worker/internal/utils/functional"
)

// AppointmentRepository implements appointment.Repository using GORM
type AppointmentRepository struct {
	db *gorm.DB
}

// NewAppointmentRepository creates a new AppointmentRepository
func NewAppointmentRepository(db *gorm.DB) *AppointmentRepository {
	return &AppointmentRepository{db: db}
}

// Create stores a new appointment
func (r *AppointmentRepository) Create(ctx context.Context, appt *appointment.Appointment) error {
	return r.db.WithContext(ctx).Create(dbschema.NewSchemaAppointment(appt)).Error
}

// GetByID retrieves an appointment scoped to the workspace
func (r *AppointmentRepository) GetByID(ctx context.Context, workspaceID, id string) (*appointment.Appointment, error) {
	var row dbschema.Appointment
	err := r.db.WithContext(ctx).
		Where("id = ? AND workspace_id = ?", id, workspaceID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return row.EtoD(), nil
}

// Reschedule moves the appointment to a new window
func (r *AppointmentRepository) Reschedule(ctx context.Context, workspaceID, id string, start, end time.Time) error {
	return r.db.WithContext(ctx).
		Model(&dbschema.Appointment{}).
		Where("id = ? AND workspace_id = ?", id, workspaceID).
		Updates(map[string]any{
			"start_time": start,
			"end_time":   end,
			"status":     string(appointment.StatusRescheduled),
		}).Error
}

// Cancel marks the appointment cancelled. Cancelling an already cancelled
// or missing appointment is a no-op.
func (r *AppointmentRepository) Cancel(ctx context.Context, workspaceID, id string) error {
	return r.db.WithContext(ctx).
		Model(&dbschema.Appointment{}).
		Where("id = ? AND workspace_id = ?", id, workspaceID).
		Update("status", string(appointment.StatusCancelled)).Error
}

// ListBetween returns non-cancelled appointments overlapping [from, to)
func (r *AppointmentRepository) ListBetween(ctx context.Context, workspaceID string, from, to time.Time) ([]appointment.Appointment, error) {
	var rows []dbschema.Appointment
	err := r.db.WithContext(ctx).
		Where("workspace_id = ? AND status <> ?", workspaceID, string(appointment.StatusCancelled)).
		Where("start_time < ? AND end_time > ?", to, from).
		Order("start_time ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	return functional.Map(rows, func(row dbschema.Appointment) appointment.Appointment {
		return *row.EtoD()
	}), nil
}
