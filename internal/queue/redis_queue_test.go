package queue

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewWithCmdable(rdb), mr
}

func TestBlockingPopReturnsEnqueuedJob(t *testing.T) {
	c, mr := newTestClient(t)

	mr.Lpush("jobs", `{"submissionId":"s1"}`)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	payload, err := c.BlockingPop(ctx, "jobs")
	require.NoError(t, err)
	require.JSONEq(t, `{"submissionId":"s1"}`, string(payload))
}

func TestBlockingPopWaitsForJob(t *testing.T) {
	c, mr := newTestClient(t)

	go func() {
		time.Sleep(50 * time.Millisecond)
		mr.Lpush("jobs", `{"submissionId":"later"}`)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	payload, err := c.BlockingPop(ctx, "jobs")
	require.NoError(t, err)
	require.JSONEq(t, `{"submissionId":"later"}`, string(payload))
}

func TestBlockingPopRespectsCancellation(t *testing.T) {
	c, _ := newTestClient(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.BlockingPop(ctx, "jobs")
	require.Error(t, err)
}

func TestPublishDoesNotBlockWithoutSubscribers(t *testing.T) {
	c, _ := newTestClient(t)

	err := c.Publish(context.Background(), "sub-1", []byte(`{"status":"running"}`))
	require.NoError(t, err)
}
