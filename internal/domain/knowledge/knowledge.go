package knowledge

import (
	"context"
	"time"
)

// Entry is one workspace knowledge base article injected into the prompt.
type Entry struct {
	ID          string
	WorkspaceID string
	Title       string
	Content     string
	CreatedAt   time.Time
}

// Repository provides access to knowledge base entries.
type Repository interface {
	List(ctx context.Context, workspaceID string, limit int) ([]Entry, error)
}
