package work

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	id "custodia/pkg/domain"
	"custodia/pkg/platform/sentinel"
)

const notifyChannel = "checksum_work"

// PostgresQueue keeps the work items in the same database as the records,
// for deployments without Redis. Claims use FOR UPDATE SKIP LOCKED so
// concurrent consumers never block each other, and enqueues NOTIFY so idle
// consumers wake without polling.
type PostgresQueue struct {
	pool *pgxpool.Pool
}

// NewPostgres constructs a PostgreSQL-backed work queue.
func NewPostgres(pool *pgxpool.Pool) *PostgresQueue {
	return &PostgresQueue{pool: pool}
}

// Enqueue makes the record's checksum work immediately visible and wakes one
// listening consumer. Re-enqueueing a pending record keeps the existing
// entry and its lease.
func (q *PostgresQueue) Enqueue(ctx context.Context, recordID id.RecordID) error {
	_, err := q.pool.Exec(ctx, `
		INSERT INTO checksum_work (record_id, enqueued_at, visible_at, attempts)
		VALUES ($1, NOW(), NOW(), 0)
		ON CONFLICT (record_id) DO NOTHING
	`, uuid.UUID(recordID))
	if err != nil {
		return fmt.Errorf("enqueue checksum work: %w", err)
	}
	if _, err := q.pool.Exec(ctx, `SELECT pg_notify($1, $2)`, notifyChannel, recordID.String()); err != nil {
		return fmt.Errorf("notify checksum work: %w", err)
	}
	return nil
}

// Claim leases the oldest visible item for the given duration. SKIP LOCKED
// makes the read-and-lease race-free across consumers without serializing
// them.
func (q *PostgresQueue) Claim(ctx context.Context, lease time.Duration) (*Item, error) {
	var (
		rawID    uuid.UUID
		attempts int
	)
	err := q.pool.QueryRow(ctx, `
		UPDATE checksum_work
		SET visible_at = NOW() + make_interval(secs => $1), attempts = attempts + 1
		WHERE record_id = (
			SELECT record_id FROM checksum_work
			WHERE visible_at <= NOW()
			ORDER BY visible_at
			FOR UPDATE SKIP LOCKED
			LIMIT 1
		)
		RETURNING record_id, attempts
	`, lease.Seconds()).Scan(&rawID, &attempts)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("no checksum work available: %w", sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("claim checksum work: %w", err)
	}
	return &Item{RecordID: id.RecordID(rawID), Attempts: attempts}, nil
}

// Complete removes the item.
func (q *PostgresQueue) Complete(ctx context.Context, recordID id.RecordID) error {
	_, err := q.pool.Exec(ctx, `DELETE FROM checksum_work WHERE record_id = $1`, uuid.UUID(recordID))
	if err != nil {
		return fmt.Errorf("complete checksum work: %w", err)
	}
	return nil
}

// Pending counts all items, visible or leased.
func (q *PostgresQueue) Pending(ctx context.Context) (int, error) {
	var n int
	if err := q.pool.QueryRow(ctx, `SELECT COUNT(*) FROM checksum_work`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count checksum work: %w", err)
	}
	return n, nil
}

// AwaitWork blocks on a LISTEN connection until an enqueue notification
// arrives or maxWait elapses. Both outcomes return nil; the consumer polls
// Claim either way. Errors only surface for connection failures.
func (q *PostgresQueue) AwaitWork(ctx context.Context, maxWait time.Duration) error {
	conn, err := q.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire listen connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, `LISTEN `+notifyChannel); err != nil {
		return fmt.Errorf("listen for checksum work: %w", err)
	}
	defer func() {
		// Reset the connection state before returning it to the pool.
		_, _ = conn.Exec(context.Background(), `UNLISTEN `+notifyChannel)
	}()

	waitCtx, cancel := context.WithTimeout(ctx, maxWait)
	defer cancel()
	_, err = conn.Conn().WaitForNotification(waitCtx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil
		}
		return fmt.Errorf("wait for checksum work: %w", err)
	}
	return nil
}
