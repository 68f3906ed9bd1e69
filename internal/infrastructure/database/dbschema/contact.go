package dbschema

import (
	"github.com/lib/pq"

	"flowcore-server/services/message-worker/internal/domain/contact"
)

// Contact represents the database schema for contacts
type Contact struct {
	BaseModel
	WorkspaceID string         `gorm:"type:uuid;uniqueIndex:idx_contact_workspace_phone;not null"`
	Phone       string         `gorm:"type:varchar(32);uniqueIndex:idx_contact_workspace_phone;not null"`
	Name        *string        `gorm:"type:varchar(256)"`
	Tags        pq.StringArray `gorm:"type:text[]"`
	Source      string         `gorm:"type:varchar(32);not null;default:'whatsapp'"`
}

// NewSchemaContact creates a database schema from a domain contact
func NewSchemaContact(c *contact.Contact) *Contact {
	return &Contact{
		BaseModel: BaseModel{
			ID:        c.ID,
			CreatedAt: c.CreatedAt,
			UpdatedAt: c.UpdatedAt,
		},
		WorkspaceID: c.WorkspaceID,
		Phone:       c.Phone,
		Name:        c.Name,
		Tags:        pq.StringArray(c.Tags),
		Source:      c.Source,
	}
}

// EtoD converts database schema to domain contact (Entity to Domain)
func (c *Contact) EtoD() *contact.Contact {
	return &contact.Contact{
		ID:          c.ID,
		WorkspaceID: c.WorkspaceID,
		Phone:       c.Phone,
		Name:        c.Name,
		Tags:        []string(c.Tags),
		Source:      c.Source,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}
