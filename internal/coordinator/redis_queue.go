package coordinator

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const defaultDispatchQueueKey = "gradecore:dispatch"

// RedisQueue is a DispatchQueue backed by a Redis list, grounded on the same
// redis.Client/redis.Options wiring the ratelimit package uses for its
// sliding-window limiter: LPush enqueues at the head, BRPop blocks the
// worker loop until an entry is available instead of polling.
type RedisQueue struct {
	client *redis.Client
	key    string
}

// NewRedisQueue connects to the Redis instance at addr and returns a queue
// storing pending submission ids under key (defaultDispatchQueueKey if
// empty).
func NewRedisQueue(addr, key string) *RedisQueue {
	if key == "" {
		key = defaultDispatchQueueKey
	}
	return &RedisQueue{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		key:    key,
	}
}

// Enqueue pushes submissionID onto the list.
func (q *RedisQueue) Enqueue(ctx context.Context, submissionID string) error {
	return q.client.LPush(ctx, q.key, submissionID).Err()
}

// Dequeue blocks until a submission id is available or ctx is cancelled.
func (q *RedisQueue) Dequeue(ctx context.Context) (string, error) {
	res, err := q.client.BRPop(ctx, 0, q.key).Result()
	if err != nil {
		return "", err
	}
	if len(res) != 2 {
		return "", fmt.Errorf("dispatch queue: unexpected BRPOP reply %v", res)
	}
	return res[1], nil
}

// Close releases the underlying Redis connection pool.
func (q *RedisQueue) Close() error {
	return q.client.Close()
}
