package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/brrowapp/brrow-backend/internal/logctx"
	"github.com/brrowapp/brrow-backend/internal/model"
	"github.com/brrowapp/brrow-backend/internal/preference"
	"github.com/brrowapp/brrow-backend/internal/push"
	"github.com/brrowapp/brrow-backend/internal/repository"
	"go.uber.org/zap"
)

// Processor turns a stored message into notifications: it resolves current
// recipients, runs the preference gate, writes in-app history and pushes to
// devices.
type Processor struct {
	convs         repository.ConversationRepository
	users         repository.UserRepository
	prefs         repository.PreferenceRepository
	notifications repository.NotificationRepository
	gate          *preference.Gate
	supervisor    *Supervisor
	metrics       *Metrics
	log           *zap.Logger
	bodyLimit     int
	now           func() time.Time
}

type ProcessorDeps struct {
	Conversations repository.ConversationRepository
	Users         repository.UserRepository
	Preferences   repository.PreferenceRepository
	Notifications repository.NotificationRepository
	Gate          *preference.Gate
	Supervisor    *Supervisor
	Metrics       *Metrics
	Log           *zap.Logger
	BodyLimit     int
}

func NewProcessor(d ProcessorDeps) *Processor {
	limit := d.BodyLimit
	if limit <= 0 {
		limit = push.DefaultBodyLimit
	}
	return &Processor{
		convs:         d.Conversations,
		users:         d.Users,
		prefs:         d.Preferences,
		notifications: d.Notifications,
		gate:          d.Gate,
		supervisor:    d.Supervisor,
		metrics:       d.Metrics,
		log:           d.Log,
		bodyLimit:     limit,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// CategoryFor maps a chat message to its notification category.
func CategoryFor(t model.MessageType) model.Category {
	if t == model.MessageTypeSystem {
		return model.CategorySystem
	}
	return model.CategoryMessage
}

// Process handles one job. Messages or conversations that no longer exist are
// skipped without error.
func (p *Processor) Process(ctx context.Context, job Job) error {
	ctx = logctx.WithJob(ctx, job.MessageID, job.ConversationID)
	msg, err := p.convs.FindMessage(ctx, job.MessageID)
	if errors.Is(err, repository.ErrNotFound) {
		p.metrics.jobs.WithLabelValues("skipped").Inc()
		p.log.Info("message gone; skipping notifications", logctx.Fields(ctx)...)
		return nil
	}
	if err != nil {
		p.metrics.jobs.WithLabelValues("error").Inc()
		return fmt.Errorf("load message: %w", err)
	}
	participants, err := p.convs.Participants(ctx, msg.ConversationID)
	if errors.Is(err, repository.ErrNotFound) {
		p.metrics.jobs.WithLabelValues("skipped").Inc()
		p.log.Info("conversation deleted; skipping notifications", logctx.Fields(ctx)...)
		return nil
	}
	if err != nil {
		p.metrics.jobs.WithLabelValues("error").Inc()
		return fmt.Errorf("load participants: %w", err)
	}

	uids := make([]string, 0, len(participants))
	for _, pt := range participants {
		uids = append(uids, pt.UserUID)
	}
	users, err := p.users.FindMany(ctx, append(uids, msg.SenderUID))
	if err != nil {
		p.metrics.jobs.WithLabelValues("error").Inc()
		return fmt.Errorf("load users: %w", err)
	}

	category := CategoryFor(msg.Type)
	n := Notice{Message: msg, SenderName: users[msg.SenderUID].DisplayName, Category: category}
	now := p.now()

	var approved []string
	for _, pt := range participants {
		if pt.UserUID == msg.SenderUID {
			continue
		}
		prefs, err := p.prefs.Get(ctx, pt.UserUID)
		if err != nil {
			p.metrics.jobs.WithLabelValues("error").Inc()
			return fmt.Errorf("load preferences for %s: %w", pt.UserUID, err)
		}
		d := p.gate.Decide(prefs, preference.Candidate{
			RecipientUID:      pt.UserUID,
			Category:          category,
			ConversationMuted: pt.Muted,
			LocalTime:         preference.LocalTime(now, users[pt.UserUID].Timezone),
		})
		p.metrics.decisions.WithLabelValues(string(d.Reason)).Inc()
		if !d.Deliver {
			p.log.Debug("notification suppressed", logctx.Fields(ctx,
				zap.String("recipient", pt.UserUID),
				zap.String("reason", string(d.Reason)))...)
			continue
		}
		p.record(ctx, n, pt.UserUID)
		approved = append(approved, pt.UserUID)
	}
	if len(approved) == 0 {
		p.metrics.jobs.WithLabelValues("ok").Inc()
		return nil
	}

	attempts, err := p.supervisor.Deliver(ctx, n, approved)
	if err != nil {
		p.metrics.jobs.WithLabelValues("error").Inc()
		return fmt.Errorf("dispatch message %d: %w", msg.ID, err)
	}
	p.metrics.jobs.WithLabelValues("ok").Inc()
	p.log.Info("message dispatched", logctx.Fields(ctx,
		zap.Int("recipients", len(approved)),
		zap.Any("outcomes", summarize(attempts)))...)
	return nil
}

// record writes the in-app history entry. History is best effort; a failure
// does not hold back the push.
func (p *Processor) record(ctx context.Context, n Notice, uid string) {
	payload := push.MessagePayload(n.Message, n.SenderName, n.Category, p.bodyLimit)
	msgID, convID := n.Message.ID, n.Message.ConversationID
	err := p.notifications.Create(ctx, &model.Notification{
		UserUID:        uid,
		Type:           n.Category,
		Title:          payload.Title,
		Body:           payload.Body,
		ConversationID: &convID,
		MessageID:      &msgID,
	})
	if err != nil {
		p.log.Warn("record notification", logctx.Fields(ctx, zap.String("recipient", uid), zap.Error(err))...)
	}
}

func summarize(attempts []model.DeliveryAttempt) map[model.DeliveryStatus]int {
	out := make(map[model.DeliveryStatus]int)
	for _, a := range attempts {
		out[a.Status]++
	}
	return out
}
