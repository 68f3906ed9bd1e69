package interaction

import (
	"context"
	"time"
)

// Interaction is one AI turn recorded for billing and analytics. Exactly
// one row is written per successfully delivered reply; failed attempts are
// not recorded.
type Interaction struct {
	ID             string
	WorkspaceID    string
	ConversationID string
	Model          string
	InputTokens    int
	OutputTokens   int
	ToolCalls      []string
	LatencyMS      int64
	CreatedAt      time.Time
}

// Repository stores AI interaction telemetry.
type Repository interface {
	Create(ctx context.Context, rec *Interaction) error
}
