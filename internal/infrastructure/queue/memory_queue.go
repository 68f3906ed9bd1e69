package queue

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"flowcore-server/services/message-worker/internal/domain/queue"
	"flowcore-server/services/message-worker/internal/domain/retry"
)

// MemoryQueue implements queue.Queue in process memory. It is used in
// tests and for local development without Postgres.
type MemoryQueue struct {
	mu     sync.Mutex
	items  map[string]*queue.Item
	policy retry.Policy
	clock  func() time.Time
}

// NewMemoryQueue creates an empty in-memory queue.
func NewMemoryQueue(policy retry.Policy) *MemoryQueue {
	return &MemoryQueue{
		items:  make(map[string]*queue.Item),
		policy: policy,
		clock:  time.Now,
	}
}

// Enqueue inserts a new pending item.
func (q *MemoryQueue) Enqueue(_ context.Context, item *queue.Item) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	cp := *item
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = q.clock()
	}
	q.items[cp.ID] = &cp
	return nil
}

// ClaimBatch claims up to batchSize due pending items. Claimed items are
// not visible to other callers until failed back to pending.
func (q *MemoryQueue) ClaimBatch(_ context.Context, batchSize int) ([]queue.Item, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.clock()
	var due []*queue.Item
	for _, item := range q.items {
		if item.Status == queue.StatusPending && !item.NextAttemptAt.After(now) {
			due = append(due, item)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].CreatedAt.Before(due[j].CreatedAt) })
	if len(due) > batchSize {
		due = due[:batchSize]
	}

	claimed := make([]queue.Item, 0, len(due))
	for _, item := range due {
		item.Status = queue.StatusClaimed
		item.Attempts++
		at := now
		item.ClaimedAt = &at
		claimed = append(claimed, *item)
	}
	return claimed, nil
}

// Complete marks the item done.
func (q *MemoryQueue) Complete(_ context.Context, id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	item, ok := q.items[id]
	if !ok {
		return fmt.Errorf("queue item not found: %s", id)
	}
	item.Status = queue.StatusDone
	return nil
}

// Fail reschedules the item or dead-letters it at the attempt cap.
func (q *MemoryQueue) Fail(_ context.Context, id string, message string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	item, ok := q.items[id]
	if !ok {
		return fmt.Errorf("queue item not found: %s", id)
	}
	item.LastError = &message
	if item.Attempts >= item.MaxAttempts {
		item.Status = queue.StatusFailed
		return nil
	}
	item.Status = queue.StatusPending
	item.ClaimedAt = nil
	item.NextAttemptAt = q.clock().Add(q.policy.CalculateDelay(item.Attempts))
	return nil
}

// DeadLetter marks the item failed immediately.
func (q *MemoryQueue) DeadLetter(_ context.Context, id string, message string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	item, ok := q.items[id]
	if !ok {
		return fmt.Errorf("queue item not found: %s", id)
	}
	item.Status = queue.StatusFailed
	item.LastError = &message
	return nil
}

// Depth returns the number of pending items.
func (q *MemoryQueue) Depth(context.Context) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var count int64
	for _, item := range q.items {
		if item.Status == queue.StatusPending {
			count++
		}
	}
	return count, nil
}
