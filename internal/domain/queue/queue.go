package queue

import (
	"context"
	"time"
)

// Status is the lifecycle state of a queue item.
type Status string

const (
	StatusPending Status = "pending"
	StatusClaimed Status = "claimed"
	StatusDone    Status = "done"
	StatusFailed  Status = "failed"
)

// Item links an inbound message to its pending AI processing work.
type Item struct {
	ID             string
	WorkspaceID    string
	ConversationID string
	MessageID      string
	Status         Status
	Attempts       int
	MaxAttempts    int
	LastError      *string
	ClaimedAt      *time.Time
	NextAttemptAt  time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Queue is the work queue feeding the message processor. ClaimBatch must
// guarantee exclusivity: an item claimed by one worker is never returned
// to another until it is failed back to pending.
type Queue interface {
	Enqueue(ctx context.Context, item *Item) error
	ClaimBatch(ctx context.Context, batchSize int) ([]Item, error)
	Complete(ctx context.Context, id string) error
	// Fail records the error and either reschedules the item with a delay
	// or dead-letters it once the attempt cap is reached.
	Fail(ctx context.Context, id string, message string) error
	// DeadLetter marks the item failed immediately, regardless of remaining
	// attempts. Used for errors that retrying cannot fix.
	DeadLetter(ctx context.Context, id string, message string) error
	Depth(ctx context.Context) (int64, error)
}
