package persistence

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"flowcore-server/services/message-worker/internal/domain/contact"
	"flowcore-server/services/message-worker/internal/infrastructure/database"
	"flowcore-server/services/message-worker/internal/infrastructure/database/dbschema"
)

// ContactRepository implements contact.Repository using GORM
type ContactRepository struct {
	db *gorm.DB
}

// NewContactRepository creates a new ContactRepository
func NewContactRepository(db *gorm.DB) *ContactRepository {
	return &ContactRepository{db: db}
}

// GetByID retrieves a contact by ID
func (r *ContactRepository) GetByID(ctx context.Context, id string) (*contact.Contact, error) {
	var row dbschema.Contact
	err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return row.EtoD(), nil
}

// FindByPhone retrieves a contact by workspace and bare E.164 phone number
func (r *ContactRepository) FindByPhone(ctx context.Context, workspaceID, phone string) (*contact.Contact, error) {
	var row dbschema.Contact
	err := r.db.WithContext(ctx).
		Where("workspace_id = ? AND phone = ?", workspaceID, phone).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return row.EtoD(), nil
}

// Create stores a new contact
func (r *ContactRepository) Create(ctx context.Context, c *contact.Contact) error {
	return r.db.WithContext(ctx).Create(dbschema.NewSchemaContact(c)).Error
}

// AddTag appends the tag unless the contact already carries it
func (r *ContactRepository) AddTag(ctx context.Context, id, tag string) error {
	return r.db.WithContext(ctx).Exec(
		"UPDATE "+database.TablePrefix+"contacts SET tags = array_append(COALESCE(tags, '{}'), ?), updated_at = NOW() WHERE id = ? AND NOT (? = ANY(COALESCE(tags, '{}')))",
		tag, id, tag,
	).Error
}
