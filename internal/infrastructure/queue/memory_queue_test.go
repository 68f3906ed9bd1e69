package queue

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"flowcore-server/services/message-worker/internal/domain/queue"
	"flowcore-server/services/message-worker/internal/domain/retry"
)

func testPolicy() retry.Policy {
	return retry.Policy{
		MaxRetries:      5,
		InitialDelay:    time.Minute,
		BackoffStrategy: retry.BackoffLinear,
	}
}

func enqueueN(t *testing.T, q *MemoryQueue, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		err := q.Enqueue(context.Background(), &queue.Item{
			ID:          fmt.Sprintf("item-%d", i),
			Status:      queue.StatusPending,
			MaxAttempts: 5,
		})
		if err != nil {
			t.Fatalf("enqueue: %v", err)
		}
	}
}

func TestMemoryQueueClaimExclusivity(t *testing.T) {
	q := NewMemoryQueue(testPolicy())
	enqueueN(t, q, 50)

	var mu sync.Mutex
	seen := make(map[string]int)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				claimed, err := q.ClaimBatch(context.Background(), 5)
				if err != nil {
					t.Errorf("claim: %v", err)
					return
				}
				if len(claimed) == 0 {
					return
				}
				mu.Lock()
				for _, item := range claimed {
					seen[item.ID]++
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if len(seen) != 50 {
		t.Fatalf("expected 50 distinct claimed items, got %d", len(seen))
	}
	for id, count := range seen {
		if count != 1 {
			t.Errorf("item %s claimed %d times", id, count)
		}
	}
}

func TestMemoryQueueFailReschedulesWithDelay(t *testing.T) {
	q := NewMemoryQueue(testPolicy())
	now := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)
	q.clock = func() time.Time { return now }
	enqueueN(t, q, 1)

	claimed, err := q.ClaimBatch(context.Background(), 1)
	if err != nil || len(claimed) != 1 {
		t.Fatalf("claim: %v (%d items)", err, len(claimed))
	}
	if claimed[0].Attempts != 1 {
		t.Errorf("expected 1 attempt, got %d", claimed[0].Attempts)
	}

	if err := q.Fail(context.Background(), "item-0", "model timeout"); err != nil {
		t.Fatalf("fail: %v", err)
	}

	// Not due yet: first retry is delayed by one minute.
	claimed, _ = q.ClaimBatch(context.Background(), 1)
	if len(claimed) != 0 {
		t.Fatalf("rescheduled item claimed before its delay elapsed")
	}

	now = now.Add(61 * time.Second)
	claimed, _ = q.ClaimBatch(context.Background(), 1)
	if len(claimed) != 1 {
		t.Fatalf("item not claimable after delay")
	}
	if claimed[0].Attempts != 2 {
		t.Errorf("expected 2 attempts, got %d", claimed[0].Attempts)
	}
	if claimed[0].LastError == nil || *claimed[0].LastError != "model timeout" {
		t.Errorf("last error not recorded: %v", claimed[0].LastError)
	}
}

func TestMemoryQueueDeadLetterAtAttemptCap(t *testing.T) {
	q := NewMemoryQueue(testPolicy())
	now := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)
	q.clock = func() time.Time { return now }

	err := q.Enqueue(context.Background(), &queue.Item{
		ID:          "item-0",
		Status:      queue.StatusPending,
		MaxAttempts: 2,
	})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	for i := 0; i < 2; i++ {
		claimed, _ := q.ClaimBatch(context.Background(), 1)
		if len(claimed) != 1 {
			t.Fatalf("attempt %d: item not claimable", i+1)
		}
		if err := q.Fail(context.Background(), "item-0", "boom"); err != nil {
			t.Fatalf("fail: %v", err)
		}
		now = now.Add(10 * time.Minute)
	}

	claimed, _ := q.ClaimBatch(context.Background(), 1)
	if len(claimed) != 0 {
		t.Fatal("dead-lettered item was claimed again")
	}
	depth, _ := q.Depth(context.Background())
	if depth != 0 {
		t.Errorf("dead-lettered item still counted as pending: depth %d", depth)
	}
}

func TestMemoryQueueDeadLetterIgnoresRemainingAttempts(t *testing.T) {
	q := NewMemoryQueue(testPolicy())
	now := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)
	q.clock = func() time.Time { return now }
	enqueueN(t, q, 1)

	claimed, _ := q.ClaimBatch(context.Background(), 1)
	if len(claimed) != 1 {
		t.Fatal("item not claimable")
	}
	if err := q.DeadLetter(context.Background(), "item-0", "no active agent"); err != nil {
		t.Fatalf("dead-letter: %v", err)
	}

	now = now.Add(time.Hour)
	claimed, _ = q.ClaimBatch(context.Background(), 1)
	if len(claimed) != 0 {
		t.Fatal("dead-lettered item was claimed again")
	}
	depth, _ := q.Depth(context.Background())
	if depth != 0 {
		t.Errorf("dead-lettered item still counted as pending: depth %d", depth)
	}
}

func TestMemoryQueueCompleteRemovesFromPending(t *testing.T) {
	q := NewMemoryQueue(testPolicy())
	enqueueN(t, q, 2)

	claimed, _ := q.ClaimBatch(context.Background(), 1)
	if err := q.Complete(context.Background(), claimed[0].ID); err != nil {
		t.Fatalf("complete: %v", err)
	}

	depth, err := q.Depth(context.Background())
	if err != nil {
		t.Fatalf("depth: %v", err)
	}
	if depth != 1 {
		t.Errorf("expected depth 1, got %d", depth)
	}
}
