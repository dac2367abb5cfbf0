package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/brrowapp/brrow-backend/internal/logctx"
	"github.com/brrowapp/brrow-backend/internal/model"
	"github.com/brrowapp/brrow-backend/internal/push"
	"github.com/brrowapp/brrow-backend/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const errRetriesExhausted = "retries exhausted"

type Options struct {
	DeviceConcurrency int
	PushTimeout       time.Duration
	BodyLimit         int
	// DeviceTTL hides devices not seen for longer than this. Zero disables it.
	DeviceTTL time.Duration
}

func (o Options) withDefaults() Options {
	if o.DeviceConcurrency <= 0 {
		o.DeviceConcurrency = 8
	}
	if o.PushTimeout <= 0 {
		o.PushTimeout = 5 * time.Second
	}
	if o.BodyLimit <= 0 {
		o.BodyLimit = push.DefaultBodyLimit
	}
	return o
}

// Notice is a message ready to be pushed.
type Notice struct {
	Message    *model.Message
	SenderName string
	Category   model.Category
}

// Dispatcher turns approved recipients into one delivery attempt per device.
type Dispatcher struct {
	devices  repository.DeviceRepository
	attempts repository.DeliveryRepository
	provider push.Provider
	log      *zap.Logger
	metrics  *Metrics
	opts     Options
	now      func() time.Time
}

func NewDispatcher(devices repository.DeviceRepository, attempts repository.DeliveryRepository, provider push.Provider, metrics *Metrics, log *zap.Logger, opts Options) *Dispatcher {
	return &Dispatcher{
		devices:  devices,
		attempts: attempts,
		provider: provider,
		log:      log,
		metrics:  metrics,
		opts:     opts.withDefaults(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

type delivery struct {
	attempt *model.DeliveryAttempt
	device  model.Device
}

// Dispatch sends n to every active device of the recipients. Devices that
// already have an attempt for this message are skipped, so calling it again
// with the same arguments sends nothing new. Provider failures are recorded
// per attempt; an error is returned only when the store is unusable.
//
// Devices are resolved for every recipient before any attempt is claimed, and
// attempts claimed before a failing claim are still sent, so no claimed row is
// left queued by an error return.
func (d *Dispatcher) Dispatch(ctx context.Context, n Notice, recipients []string) ([]model.DeliveryAttempt, error) {
	if n.Message == nil {
		return nil, errors.New("dispatch: nil message")
	}
	var seenAfter time.Time
	if d.opts.DeviceTTL > 0 {
		seenAfter = d.now().Add(-d.opts.DeviceTTL)
	}

	resolved := make([][]model.Device, len(recipients))
	for i, uid := range recipients {
		devices, err := d.devices.ActiveByUser(ctx, uid, seenAfter)
		if err != nil {
			return nil, fmt.Errorf("resolve devices for %s: %w", uid, err)
		}
		resolved[i] = devices
	}

	var (
		out      []model.DeliveryAttempt
		pending  []delivery
		claimErr error
	)
claim:
	for i, uid := range recipients {
		if len(resolved[i]) == 0 {
			a := d.newAttempt(n, uid, nil)
			a.Status = model.DeliveryNoDevice
			claimed, err := d.attempts.Claim(ctx, a)
			if err != nil {
				claimErr = fmt.Errorf("record no-device attempt: %w", err)
				break claim
			}
			if claimed {
				d.metrics.attempts.WithLabelValues(string(a.Status)).Inc()
				out = append(out, *a)
			}
			continue
		}
		for _, dev := range resolved[i] {
			a := d.newAttempt(n, uid, &dev)
			claimed, err := d.attempts.Claim(ctx, a)
			if err != nil {
				claimErr = fmt.Errorf("claim attempt: %w", err)
				break claim
			}
			if !claimed {
				continue
			}
			pending = append(pending, delivery{attempt: a, device: dev})
		}
	}

	payload := push.MessagePayload(n.Message, n.SenderName, n.Category, d.opts.BodyLimit)
	d.sendAll(ctx, payload, pending)
	for _, p := range pending {
		out = append(out, *p.attempt)
	}
	return out, claimErr
}

// Retry re-sends the given failed_retryable attempts. Devices deactivated in
// the meantime are given up on.
func (d *Dispatcher) Retry(ctx context.Context, n Notice, attempts []model.DeliveryAttempt) []model.DeliveryAttempt {
	var pending []delivery
	out := make([]model.DeliveryAttempt, 0, len(attempts))
	for i := range attempts {
		a := attempts[i]
		if a.Status != model.DeliveryFailedRetryable {
			out = append(out, a)
			continue
		}
		dev, err := d.devices.FindByID(ctx, a.DeviceID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			// Left retryable; the next round looks the device up again.
			d.log.Warn("load device for retry", logctx.Fields(ctx,
				zap.String("attempt_id", a.ID),
				zap.Uint64("device_id", a.DeviceID),
				zap.Error(err))...)
			out = append(out, a)
			continue
		}
		if err != nil || !dev.Active {
			a.Status = model.DeliveryFailedPermanent
			a.LastError = "device no longer active"
			d.save(ctx, &a)
			out = append(out, a)
			continue
		}
		pending = append(pending, delivery{attempt: &a, device: *dev})
	}
	payload := push.MessagePayload(n.Message, n.SenderName, n.Category, d.opts.BodyLimit)
	d.sendAll(ctx, payload, pending)
	for _, p := range pending {
		out = append(out, *p.attempt)
	}
	return out
}

// Abandon marks attempts permanently failed once retries are used up.
func (d *Dispatcher) Abandon(ctx context.Context, attempts []model.DeliveryAttempt) []model.DeliveryAttempt {
	out := make([]model.DeliveryAttempt, len(attempts))
	for i, a := range attempts {
		a.Status = model.DeliveryFailedPermanent
		a.LastError = errRetriesExhausted
		d.save(ctx, &a)
		d.log.Warn("push delivery abandoned",
			zap.String("attempt_id", a.ID),
			zap.Uint64("message_id", a.MessageID),
			zap.String("recipient", a.RecipientUID),
			zap.Uint64("device_id", a.DeviceID),
			zap.Int("tries", a.Tries))
		out[i] = a
	}
	return out
}

func (d *Dispatcher) newAttempt(n Notice, uid string, dev *model.Device) *model.DeliveryAttempt {
	a := &model.DeliveryAttempt{
		MessageID:      n.Message.ID,
		ConversationID: n.Message.ConversationID,
		RecipientUID:   uid,
		Category:       n.Category,
		Status:         model.DeliveryQueued,
	}
	if dev != nil {
		a.DeviceID = dev.ID
		a.Platform = dev.Platform
	}
	return a
}

// sendAll fans the provider calls out with bounded concurrency. Every
// goroutine writes only its own attempt.
func (d *Dispatcher) sendAll(ctx context.Context, payload push.Payload, pending []delivery) {
	var g errgroup.Group
	g.SetLimit(d.opts.DeviceConcurrency)
	for i := range pending {
		p := pending[i]
		g.Go(func() error {
			d.deliver(ctx, payload, p.attempt, &p.device)
			return nil
		})
	}
	_ = g.Wait()
}

func (d *Dispatcher) deliver(ctx context.Context, payload push.Payload, a *model.DeliveryAttempt, dev *model.Device) {
	callCtx, cancel := context.WithTimeout(ctx, d.opts.PushTimeout)
	start := time.Now()
	res := d.provider.Send(callCtx, push.TargetFor(dev), payload)
	cancel()
	d.metrics.providerLatency.WithLabelValues(string(dev.Platform), res.Outcome.String()).Observe(time.Since(start).Seconds())

	a.Tries++
	a.LastError = ""
	if res.Err != nil {
		a.LastError = res.Err.Error()
	}
	switch res.Outcome {
	case push.Accepted:
		a.Status = model.DeliverySent
		a.ProviderMessageID = res.ProviderMessageID
	case push.InvalidToken:
		a.Status = model.DeliveryFailedPermanent
		if err := d.devices.Deactivate(context.WithoutCancel(ctx), dev.ID, d.now()); err != nil {
			d.log.Error("deactivate device", logctx.Fields(ctx, zap.Uint64("device_id", dev.ID), zap.Error(err))...)
		} else {
			d.log.Info("device token unregistered; deactivated", logctx.Fields(ctx,
				zap.Uint64("device_id", dev.ID),
				zap.String("recipient", a.RecipientUID),
				zap.String("platform", string(dev.Platform)))...)
		}
	case push.Transient:
		a.Status = model.DeliveryFailedRetryable
		d.log.Debug("push transient failure", logctx.Fields(ctx,
			zap.String("attempt_id", a.ID),
			zap.Uint64("device_id", dev.ID),
			zap.Error(res.Err))...)
	default:
		a.Status = model.DeliveryFailedPermanent
		d.log.Error("push rejected",
			zap.String("attempt_id", a.ID),
			zap.Uint64("message_id", a.MessageID),
			zap.Uint64("conversation_id", a.ConversationID),
			zap.String("recipient", a.RecipientUID),
			zap.Uint64("device_id", dev.ID),
			zap.String("platform", string(dev.Platform)),
			zap.Int("tries", a.Tries),
			zap.Error(res.Err))
	}
	d.save(ctx, a)
}

func (d *Dispatcher) save(ctx context.Context, a *model.DeliveryAttempt) {
	// Outcomes are recorded even when the job is being cancelled.
	if err := d.attempts.Update(context.WithoutCancel(ctx), a); err != nil {
		d.log.Error("record delivery attempt",
			zap.String("attempt_id", a.ID),
			zap.String("status", string(a.Status)),
			zap.Error(err))
	}
	d.metrics.attempts.WithLabelValues(string(a.Status)).Inc()
}
