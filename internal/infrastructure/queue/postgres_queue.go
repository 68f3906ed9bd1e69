// Package queue provides the Postgres-backed work queue for inbound
// message processing.
package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"flowcore-server/services/message-worker/internal/domain/queue"
	"flowcore-server/services/message-worker/internal/domain/retry"
	"flowcore-server/services/message-worker/internal/infrastructure/database"
	"flowcore-server/services/message-worker/internal/infrastructure/database/dbschema"
)

// PostgresQueue implements queue.Queue on the message_queue table.
type PostgresQueue struct {
	db     *gorm.DB
	policy retry.Policy
	log    zerolog.Logger
}

// NewPostgresQueue creates a new PostgreSQL-backed queue. The policy
// controls the delay applied when a failed item is rescheduled.
func NewPostgresQueue(db *gorm.DB, policy retry.Policy, log zerolog.Logger) *PostgresQueue {
	return &PostgresQueue{
		db:     db,
		policy: policy,
		log:    log.With().Str("component", "postgres-queue").Logger(),
	}
}

// Enqueue inserts a new pending item.
func (q *PostgresQueue) Enqueue(ctx context.Context, item *queue.Item) error {
	if err := q.db.WithContext(ctx).Create(dbschema.NewSchemaQueueItem(item)).Error; err != nil {
		return fmt.Errorf("enqueue item: %w", err)
	}
	return nil
}

// ClaimBatch atomically claims up to batchSize due pending items using
// FOR UPDATE SKIP LOCKED, so concurrent workers never claim the same item.
func (q *PostgresQueue) ClaimBatch(ctx context.Context, batchSize int) ([]queue.Item, error) {
	var rows []dbschema.QueueItem

	err := q.db.WithContext(ctx).
		Raw(`UPDATE `+database.TablePrefix+`message_queue
			SET status = ?, claimed_at = NOW(), attempts = attempts + 1, updated_at = NOW()
			WHERE id IN (
				SELECT id FROM `+database.TablePrefix+`message_queue
				WHERE status = ? AND next_attempt_at <= NOW()
				ORDER BY created_at ASC
				LIMIT ?
				FOR UPDATE SKIP LOCKED
			)
			RETURNING *`,
			string(queue.StatusClaimed), string(queue.StatusPending), batchSize).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("claim batch: %w", err)
	}

	items := make([]queue.Item, 0, len(rows))
	for i := range rows {
		items = append(items, rows[i].EtoD())
	}
	return items, nil
}

// Complete marks the item done.
func (q *PostgresQueue) Complete(ctx context.Context, id string) error {
	result := q.db.WithContext(ctx).
		Model(&dbschema.QueueItem{}).
		Where("id = ?", id).
		Update("status", string(queue.StatusDone))
	if result.Error != nil {
		return fmt.Errorf("complete item: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("queue item not found: %s", id)
	}
	return nil
}

// Fail records the error and either reschedules the item with the policy
// delay or dead-letters it once attempts reach the cap.
func (q *PostgresQueue) Fail(ctx context.Context, id string, message string) error {
	var row dbschema.QueueItem
	if err := q.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return fmt.Errorf("load item: %w", err)
	}

	updates := map[string]any{"last_error": message}
	if row.Attempts >= row.MaxAttempts {
		updates["status"] = string(queue.StatusFailed)
		q.log.Warn().
			Str("queue_item_id", id).
			Int("attempts", row.Attempts).
			Str("error", message).
			Msg("queue item dead-lettered")
	} else {
		delay := q.policy.CalculateDelay(row.Attempts)
		updates["status"] = string(queue.StatusPending)
		updates["claimed_at"] = nil
		updates["next_attempt_at"] = time.Now().Add(delay)
	}

	if err := q.db.WithContext(ctx).
		Model(&dbschema.QueueItem{}).
		Where("id = ?", id).
		Updates(updates).Error; err != nil {
		return fmt.Errorf("fail item: %w", err)
	}
	return nil
}

// DeadLetter marks the item failed without consuming the remaining
// attempts. Retrying a misconfiguration only burns the budget.
func (q *PostgresQueue) DeadLetter(ctx context.Context, id string, message string) error {
	result := q.db.WithContext(ctx).
		Model(&dbschema.QueueItem{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     string(queue.StatusFailed),
			"last_error": message,
		})
	if result.Error != nil {
		return fmt.Errorf("dead-letter item: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("queue item not found: %s", id)
	}
	q.log.Warn().
		Str("queue_item_id", id).
		Str("error", message).
		Msg("queue item dead-lettered")
	return nil
}

// Depth returns the number of pending items.
func (q *PostgresQueue) Depth(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.WithContext(ctx).
		Model(&dbschema.QueueItem{}).
		Where("status = ?", string(queue.StatusPending)).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("get queue depth: %w", err)
	}
	return count, nil
}
