package contact

import (
	"context"
	"time"
)

// Contact is a customer reachable on a messaging channel, scoped to a
// workspace. Phone is stored in bare E.164 form without provider prefixes.
type Contact struct {
	ID          string
	WorkspaceID string
	Phone       string
	Name        *string
	Tags        []string
	Source      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// DisplayName returns the contact name or a generic fallback.
func (c *Contact) DisplayName() string {
	if c.Name != nil && *c.Name != "" {
		return *c.Name
	}
	return "Customer"
}

// HasTag reports whether the contact already carries the given tag.
func (c *Contact) HasTag(tag string) bool {
	for _, t := range c.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Repository provides access to contacts.
type Repository interface {
	GetByID(ctx context.Context, id string) (*Contact, error)
	FindByPhone(ctx context.Context, workspaceID, phone string) (*Contact, error)
	Create(ctx context.Context, c *Contact) error
	// AddTag appends the tag to the contact unless it is already present.
	AddTag(ctx context.Context, id, tag string) error
}
