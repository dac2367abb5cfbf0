package dispatch

import (
	"context"
	"time"

	"github.com/brrowapp/brrow-backend/internal/model"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

const maxRetryDelay = 30 * time.Second

// Supervisor runs a dispatch and then retries its failed_retryable attempts
// with exponential backoff. Attempts still failing after MaxRetries rounds
// end as failed_permanent.
type Supervisor struct {
	dispatcher *Dispatcher
	maxRetries uint64
	baseDelay  time.Duration
	log        *zap.Logger
}

func NewSupervisor(d *Dispatcher, maxRetries uint64, baseDelay time.Duration, log *zap.Logger) *Supervisor {
	if baseDelay <= 0 {
		baseDelay = time.Second
	}
	return &Supervisor{dispatcher: d, maxRetries: maxRetries, baseDelay: baseDelay, log: log}
}

func (s *Supervisor) backoff() retry.Backoff {
	b := retry.NewExponential(s.baseDelay)
	b = retry.WithCappedDuration(maxRetryDelay, b)
	return retry.WithMaxRetries(s.maxRetries, b)
}

// Deliver dispatches n and returns the final state of every attempt it
// created. Attempts sent before a store error are still retried; the error is
// returned afterwards.
func (s *Supervisor) Deliver(ctx context.Context, n Notice, recipients []string) ([]model.DeliveryAttempt, error) {
	attempts, err := s.dispatcher.Dispatch(ctx, n, recipients)

	pending := retryable(attempts)
	b := s.backoff()
	for len(pending) > 0 {
		delay, stop := b.Next()
		if stop {
			break
		}
		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			s.log.Warn("retries interrupted", zap.Uint64("message_id", n.Message.ID), zap.Error(ctx.Err()))
			merge(attempts, s.dispatcher.Abandon(context.WithoutCancel(ctx), pending))
			return attempts, err
		case <-t.C:
		}
		updated := s.dispatcher.Retry(ctx, n, pending)
		merge(attempts, updated)
		pending = retryable(updated)
	}
	if len(pending) > 0 {
		merge(attempts, s.dispatcher.Abandon(ctx, pending))
	}
	return attempts, err
}

func retryable(list []model.DeliveryAttempt) []model.DeliveryAttempt {
	var out []model.DeliveryAttempt
	for _, a := range list {
		if a.Status == model.DeliveryFailedRetryable {
			out = append(out, a)
		}
	}
	return out
}

func merge(dst, updates []model.DeliveryAttempt) {
	byID := make(map[string]model.DeliveryAttempt, len(updates))
	for _, a := range updates {
		byID[a.ID] = a
	}
	for i := range dst {
		if a, ok := byID[dst[i].ID]; ok {
			dst[i] = a
		}
	}
}
