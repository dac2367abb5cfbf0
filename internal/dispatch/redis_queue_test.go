package dispatch

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type chanQueue struct {
	ch  chan Job
	err error
}

func (q *chanQueue) Enqueue(ctx context.Context, job Job) error {
	if q.err != nil {
		return q.err
	}
	select {
	case q.ch <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func newRedisQueue(t *testing.T) (*RedisQueue, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisQueue(client, "test:dispatch", zaptest.NewLogger(t)), mr
}

func TestRedisQueue_FIFO(t *testing.T) {
	q, _ := newRedisQueue(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for i := uint64(1); i <= 3; i++ {
		require.NoError(t, q.Enqueue(ctx, Job{MessageID: i, ConversationID: 9}))
	}

	local := &chanQueue{ch: make(chan Job, 8)}
	done := make(chan error, 1)
	go func() { done <- q.Consume(ctx, local) }()

	for want := uint64(1); want <= 3; want++ {
		select {
		case job := <-local.ch:
			assert.Equal(t, want, job.MessageID)
			assert.Equal(t, uint64(9), job.ConversationID)
		case <-time.After(3 * time.Second):
			t.Fatalf("job %d not consumed", want)
		}
	}
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("consumer did not stop")
	}
}

func TestRedisQueue_SkipsMalformed(t *testing.T) {
	q, mr := newRedisQueue(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, err := mr.Lpush("test:dispatch", "{not json")
	require.NoError(t, err)
	require.NoError(t, q.Enqueue(ctx, Job{MessageID: 5, ConversationID: 1}))

	local := &chanQueue{ch: make(chan Job, 8)}
	go func() { _ = q.Consume(ctx, local) }()

	select {
	case job := <-local.ch:
		assert.Equal(t, uint64(5), job.MessageID)
	case <-time.After(3 * time.Second):
		t.Fatal("valid job not consumed")
	}
}

func TestRedisQueue_RequeuesWhenLocalClosed(t *testing.T) {
	q, mr := newRedisQueue(t)
	ctx := context.Background()
	require.NoError(t, q.Enqueue(ctx, Job{MessageID: 1, ConversationID: 1}))

	err := q.Consume(ctx, &chanQueue{err: ErrQueueClosed})
	require.NoError(t, err)

	items, err := mr.List("test:dispatch")
	require.NoError(t, err)
	assert.Len(t, items, 1)
}
