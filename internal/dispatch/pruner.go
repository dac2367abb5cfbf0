package dispatch

import (
	"context"
	"time"

	"github.com/brrowapp/brrow-backend/internal/repository"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Pruner deletes delivery attempts older than the retention period on a cron
// schedule.
type Pruner struct {
	attempts  repository.DeliveryRepository
	retention time.Duration
	cron      *cron.Cron
	log       *zap.Logger
	now       func() time.Time
}

func NewPruner(attempts repository.DeliveryRepository, retention time.Duration, log *zap.Logger) *Pruner {
	return &Pruner{
		attempts:  attempts,
		retention: retention,
		cron:      cron.New(cron.WithLocation(time.UTC)),
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (p *Pruner) Start(schedule string) error {
	if _, err := p.cron.AddFunc(schedule, func() {
		if _, err := p.Prune(context.Background()); err != nil {
			p.log.Error("prune delivery attempts", zap.Error(err))
		}
	}); err != nil {
		return err
	}
	p.cron.Start()
	return nil
}

// Stop waits for a running prune to finish.
func (p *Pruner) Stop() {
	<-p.cron.Stop().Done()
}

func (p *Pruner) Prune(ctx context.Context) (int64, error) {
	if p.retention <= 0 {
		return 0, nil
	}
	cutoff := p.now().Add(-p.retention)
	n, err := p.attempts.PruneBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	p.log.Info("pruned delivery attempts", zap.Int64("deleted", n), zap.Time("cutoff", cutoff))
	return n, nil
}
