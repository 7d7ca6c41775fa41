package work

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	id "custodia/pkg/domain"
	"custodia/pkg/platform/sentinel"
)

const (
	// Sorted set of pending record IDs scored by visibility time.
	redisQueueKey = "checksum:work"
	// Hash of delivery attempts per record ID.
	redisAttemptsKey = "checksum:attempts"
)

// claimScript pops the oldest visible item and leases it in one atomic step:
// reading the candidate and pushing its score forward cannot interleave with
// another consumer doing the same.
var claimScript = redis.NewScript(`
local items = redis.call('ZRANGEBYSCORE', KEYS[1], '-inf', ARGV[1], 'LIMIT', 0, 1)
if #items == 0 then
	return false
end
redis.call('ZADD', KEYS[1], ARGV[2], items[1])
local attempts = redis.call('HINCRBY', KEYS[2], items[1], 1)
return {items[1], attempts}
`)

// RedisQueue is the production queue for multi-instance deployments sharing
// one Redis.
type RedisQueue struct {
	client redis.Cmdable
	clock  Clock
}

// RedisQueueOption configures a RedisQueue.
type RedisQueueOption func(*RedisQueue)

// WithRedisClock sets the clock function for testability.
func WithRedisClock(clock Clock) RedisQueueOption {
	return func(q *RedisQueue) {
		if clock != nil {
			q.clock = clock
		}
	}
}

// NewRedis constructs a Redis-backed work queue.
func NewRedis(client redis.Cmdable, opts ...RedisQueueOption) *RedisQueue {
	q := &RedisQueue{
		client: client,
		clock:  time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(q)
		}
	}
	return q
}

// Enqueue makes the record's checksum work immediately visible. ZADD NX
// keeps the existing entry when the record is already pending, so a leased
// item cannot be reset to visible by a duplicate enqueue.
func (q *RedisQueue) Enqueue(ctx context.Context, recordID id.RecordID) error {
	err := q.client.ZAddNX(ctx, redisQueueKey, redis.Z{
		Score:  float64(q.clock().Unix()),
		Member: recordID.String(),
	}).Err()
	if err != nil {
		return fmt.Errorf("enqueue checksum work: %w", err)
	}
	return nil
}

// Claim leases the oldest visible item for the given duration.
func (q *RedisQueue) Claim(ctx context.Context, lease time.Duration) (*Item, error) {
	now := q.clock()
	res, err := claimScript.Run(ctx, q.client,
		[]string{redisQueueKey, redisAttemptsKey},
		now.Unix(), now.Add(lease).Unix(),
	).Result()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("no checksum work available: %w", sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("claim checksum work: %w", err)
	}

	reply, ok := res.([]interface{})
	if !ok || len(reply) != 2 {
		return nil, fmt.Errorf("claim checksum work: unexpected reply shape %T", res)
	}
	rawID, _ := reply[0].(string)
	recordID, err := id.ParseRecordID(rawID)
	if err != nil {
		return nil, fmt.Errorf("claim checksum work: queued id is invalid: %w", err)
	}
	attempts, _ := reply[1].(int64)
	return &Item{RecordID: recordID, Attempts: int(attempts)}, nil
}

// Complete removes the item and its attempt counter.
func (q *RedisQueue) Complete(ctx context.Context, recordID id.RecordID) error {
	member := recordID.String()
	if err := q.client.ZRem(ctx, redisQueueKey, member).Err(); err != nil {
		return fmt.Errorf("complete checksum work: %w", err)
	}
	if err := q.client.HDel(ctx, redisAttemptsKey, member).Err(); err != nil {
		return fmt.Errorf("complete checksum work: %w", err)
	}
	return nil
}

// Pending counts all items, visible or leased.
func (q *RedisQueue) Pending(ctx context.Context) (int, error) {
	n, err := q.client.ZCard(ctx, redisQueueKey).Result()
	if err != nil {
		return 0, fmt.Errorf("count checksum work: %w", err)
	}
	return int(n), nil
}
