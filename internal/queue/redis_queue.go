// Package queue implements the blocking-pop work queue and the
// per-submission pub/sub channel on top of Redis, replacing the
// ancestor's RabbitMQ exchange/ack model: Redis BLPOP already gives
// exactly the "pop is the claim, no ack" semantics this worker needs,
// and the config surface (REDIS_URL, QUEUE_KEY) names Redis directly.
package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client is redis.Cmdable rather than *redis.Client so unit tests can
// point it at a miniredis instance or any compatible fake.
type Client struct {
	rdb redis.Cmdable
}

// New dials a Redis endpoint and verifies connectivity with a PING,
// mirroring the ancestor's NewValkeyClient construction.
func New(redisURL string) (*Client, func() error, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	rdb := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Client{rdb: rdb}, rdb.Close, nil
}

// NewWithCmdable wraps an already-constructed redis.Cmdable (a real
// client or a miniredis-backed fake) without dialing.
func NewWithCmdable(rdb redis.Cmdable) *Client {
	return &Client{rdb: rdb}
}

// BlockingPop blocks until a job is available on queueKey or ctx is
// canceled. It wraps BLPOP with an indefinite timeout, polling in
// bounded slices so context cancellation is still observed promptly.
func (c *Client) BlockingPop(ctx context.Context, queueKey string) ([]byte, error) {
	const pollTimeout = 2 * time.Second
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		res, err := c.rdb.BLPop(ctx, pollTimeout, queueKey).Result()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("blocking pop failed: %w", err)
		}
		// BLPOP returns [key, value].
		if len(res) < 2 {
			continue
		}
		return []byte(res[1]), nil
	}
}

// Publish fire-and-forgets payload on channel. Redis PUBLISH never
// blocks on the absence of subscribers, so no special-casing is needed
// here for that requirement.
func (c *Client) Publish(ctx context.Context, channel string, payload []byte) error {
	if err := c.rdb.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish to channel %s: %w", channel, err)
	}
	return nil
}
