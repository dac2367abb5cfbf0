package push

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DryRun accepts every push and only logs it. Local development only.
type DryRun struct {
	log *zap.Logger
}

func NewDryRun(log *zap.Logger) *DryRun {
	return &DryRun{log: log}
}

func (d *DryRun) Send(_ context.Context, t Target, p Payload) Result {
	id := "dry-run-" + uuid.NewString()
	d.log.Info("push (dry run)",
		zap.String("platform", string(t.Platform)),
		zap.String("title", p.Title),
		zap.String("body", p.Body),
		zap.Any("data", p.Data),
		zap.String("provider_message_id", id))
	return Result{Outcome: Accepted, ProviderMessageID: id}
}
