package dispatch

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Pool is the in-process queue. Jobs are sharded by conversation so that a
// conversation's messages are handled by one worker in submission order.
type Pool struct {
	shards  []chan Job
	handler Handler
	log     *zap.Logger

	mu     sync.RWMutex
	closed bool
	quit   chan struct{}
	once   sync.Once
	wg     sync.WaitGroup
}

func NewPool(workers, buffer int, h Handler, log *zap.Logger) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if buffer < 0 {
		buffer = 0
	}
	p := &Pool{
		shards:  make([]chan Job, workers),
		handler: h,
		log:     log,
		quit:    make(chan struct{}),
	}
	for i := range p.shards {
		p.shards[i] = make(chan Job, buffer)
	}
	return p
}

// Start launches the workers. ctx is handed to every job.
func (p *Pool) Start(ctx context.Context) {
	for i, ch := range p.shards {
		p.wg.Add(1)
		go p.work(ctx, i, ch)
	}
}

// Enqueue blocks while the conversation's shard is full.
func (p *Pool) Enqueue(ctx context.Context, job Job) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrQueueClosed
	}
	ch := p.shards[job.ConversationID%uint64(len(p.shards))]
	select {
	case ch <- job:
		return nil
	case <-p.quit:
		return ErrQueueClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop refuses new jobs and waits until the queued ones are handled.
func (p *Pool) Stop() {
	p.once.Do(func() {
		close(p.quit)
		p.mu.Lock()
		p.closed = true
		for _, ch := range p.shards {
			close(ch)
		}
		p.mu.Unlock()
	})
	p.wg.Wait()
}

func (p *Pool) work(ctx context.Context, shard int, ch <-chan Job) {
	defer p.wg.Done()
	for job := range ch {
		if err := p.run(ctx, job); err != nil {
			p.log.Error("dispatch job failed",
				zap.Int("shard", shard),
				zap.Uint64("message_id", job.MessageID),
				zap.Uint64("conversation_id", job.ConversationID),
				zap.Error(err))
		}
	}
}

func (p *Pool) run(ctx context.Context, job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return p.handler(ctx, job)
}
