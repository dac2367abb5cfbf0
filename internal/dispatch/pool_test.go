package dispatch

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestPool_PerConversationOrder(t *testing.T) {
	var (
		mu   sync.Mutex
		seen = map[uint64][]uint64{}
	)
	p := NewPool(3, 4, func(_ context.Context, job Job) error {
		mu.Lock()
		seen[job.ConversationID] = append(seen[job.ConversationID], job.MessageID)
		mu.Unlock()
		return nil
	}, zaptest.NewLogger(t))
	p.Start(context.Background())

	ctx := context.Background()
	var id uint64
	for round := 0; round < 20; round++ {
		for conv := uint64(1); conv <= 5; conv++ {
			id++
			require.NoError(t, p.Enqueue(ctx, Job{MessageID: id, ConversationID: conv}))
		}
	}
	p.Stop()

	require.Len(t, seen, 5)
	for conv, ids := range seen {
		require.Len(t, ids, 20, "conversation %d", conv)
		for i := 1; i < len(ids); i++ {
			assert.Less(t, ids[i-1], ids[i], "conversation %d out of order", conv)
		}
	}
}

func TestPool_StopDrainsAndRejects(t *testing.T) {
	var (
		mu    sync.Mutex
		count int
	)
	p := NewPool(2, 16, func(context.Context, Job) error {
		mu.Lock()
		count++
		mu.Unlock()
		return nil
	}, zaptest.NewLogger(t))
	p.Start(context.Background())

	for i := uint64(1); i <= 10; i++ {
		require.NoError(t, p.Enqueue(context.Background(), Job{MessageID: i, ConversationID: i}))
	}
	p.Stop()
	p.Stop()

	assert.Equal(t, 10, count)
	err := p.Enqueue(context.Background(), Job{MessageID: 11, ConversationID: 1})
	assert.True(t, errors.Is(err, ErrQueueClosed))
}

func TestPool_SurvivesFailingJobs(t *testing.T) {
	var (
		mu   sync.Mutex
		done []uint64
	)
	p := NewPool(1, 4, func(_ context.Context, job Job) error {
		switch job.MessageID {
		case 1:
			panic("boom")
		case 2:
			return errors.New("store down")
		}
		mu.Lock()
		done = append(done, job.MessageID)
		mu.Unlock()
		return nil
	}, zaptest.NewLogger(t))
	p.Start(context.Background())
	for i := uint64(1); i <= 3; i++ {
		require.NoError(t, p.Enqueue(context.Background(), Job{MessageID: i, ConversationID: 7}))
	}
	p.Stop()
	assert.Equal(t, []uint64{3}, done)
}

func TestPool_EnqueueHonoursContext(t *testing.T) {
	block := make(chan struct{})
	p := NewPool(1, 0, func(context.Context, Job) error {
		<-block
		return nil
	}, zaptest.NewLogger(t))
	p.Start(context.Background())
	defer func() {
		close(block)
		p.Stop()
	}()

	// The first job occupies the worker; the second has nowhere to go.
	require.NoError(t, p.Enqueue(context.Background(), Job{MessageID: 1}))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := p.Enqueue(ctx, Job{MessageID: 2})
	assert.ErrorIs(t, err, context.Canceled)
}
