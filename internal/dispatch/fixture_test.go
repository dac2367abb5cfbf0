package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/brrowapp/brrow-backend/internal/dbtest"
	"github.com/brrowapp/brrow-backend/internal/model"
	"github.com/brrowapp/brrow-backend/internal/preference"
	"github.com/brrowapp/brrow-backend/internal/push"
	"github.com/brrowapp/brrow-backend/internal/repository"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// fakeProvider answers from a per-token script. The last scripted outcome
// repeats; unscripted tokens are accepted.
type fakeProvider struct {
	mu     sync.Mutex
	script map[string][]push.Outcome
	calls  map[string]int
	delay  time.Duration

	inflight    atomic.Int32
	maxInflight atomic.Int32
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{script: map[string][]push.Outcome{}, calls: map[string]int{}}
}

func (f *fakeProvider) on(token string, outcomes ...push.Outcome) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.script[token] = outcomes
}

func (f *fakeProvider) callCount(token string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[token]
}

func (f *fakeProvider) Send(ctx context.Context, t push.Target, _ push.Payload) push.Result {
	cur := f.inflight.Add(1)
	defer f.inflight.Add(-1)
	for {
		m := f.maxInflight.Load()
		if cur <= m || f.maxInflight.CompareAndSwap(m, cur) {
			break
		}
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return push.Result{Outcome: push.Transient, Err: ctx.Err()}
		}
	}

	f.mu.Lock()
	n := f.calls[t.Token]
	f.calls[t.Token]++
	seq := f.script[t.Token]
	f.mu.Unlock()

	outcome := push.Accepted
	if len(seq) > 0 {
		outcome = seq[min(n, len(seq)-1)]
	}
	if outcome == push.Accepted {
		return push.Result{Outcome: outcome, ProviderMessageID: fmt.Sprintf("pm-%s-%d", t.Token, n)}
	}
	return push.Result{Outcome: outcome, Err: errors.New(outcome.String())}
}

type fixture struct {
	convs         repository.ConversationRepository
	devices       repository.DeviceRepository
	deliveries    repository.DeliveryRepository
	users         repository.UserRepository
	prefs         repository.PreferenceRepository
	notifications repository.NotificationRepository

	provider   *fakeProvider
	dispatcher *Dispatcher
	supervisor *Supervisor
	processor  *Processor
}

func newFixture(t *testing.T, opts Options, maxRetries uint64) *fixture {
	t.Helper()
	gdb := dbtest.Open(t)
	log := zaptest.NewLogger(t)
	metrics := NewMetrics(prometheus.NewRegistry())
	gate, err := preference.NewGate([]string{"transaction"})
	require.NoError(t, err)

	f := &fixture{
		convs:         repository.NewConversationRepository(gdb),
		devices:       repository.NewDeviceRepository(gdb),
		deliveries:    repository.NewDeliveryRepository(gdb),
		users:         repository.NewUserRepository(gdb),
		prefs:         repository.NewPreferenceRepository(gdb),
		notifications: repository.NewNotificationRepository(gdb),
		provider:      newFakeProvider(),
	}
	f.dispatcher = NewDispatcher(f.devices, f.deliveries, f.provider, metrics, log, opts)
	f.supervisor = NewSupervisor(f.dispatcher, maxRetries, time.Millisecond, log)
	f.processor = NewProcessor(ProcessorDeps{
		Conversations: f.convs,
		Users:         f.users,
		Preferences:   f.prefs,
		Notifications: f.notifications,
		Gate:          gate,
		Supervisor:    f.supervisor,
		Metrics:       metrics,
		Log:           log,
	})
	return f
}

func (f *fixture) device(t *testing.T, uid, token string) *model.Device {
	t.Helper()
	d, err := f.devices.Register(context.Background(), &model.Device{
		UserUID:  uid,
		Token:    token,
		Platform: model.PlatformAndroid,
	})
	require.NoError(t, err)
	return d
}

func (f *fixture) conversation(t *testing.T, uids ...string) *model.Conversation {
	t.Helper()
	cv, err := f.convs.Create(context.Background(), "", uids)
	require.NoError(t, err)
	return cv
}

func (f *fixture) message(t *testing.T, convID uint64, sender, body string) *model.Message {
	t.Helper()
	msg, err := f.convs.AppendMessage(context.Background(), convID, sender, model.MessageTypeText, body)
	require.NoError(t, err)
	return msg
}

func byDevice(attempts []model.DeliveryAttempt) map[uint64]model.DeliveryAttempt {
	out := make(map[uint64]model.DeliveryAttempt, len(attempts))
	for _, a := range attempts {
		out[a.DeviceID] = a
	}
	return out
}

// flakyDevices fails lookups on demand: ActiveByUser for the listed users and
// FindByID while findErrs is positive. Each failure is used up once.
type flakyDevices struct {
	repository.DeviceRepository

	mu         sync.Mutex
	lookupErrs map[string]int
	findErrs   int
}

var errStoreBlip = errors.New("store blip")

func (r *flakyDevices) ActiveByUser(ctx context.Context, uid string, seenAfter time.Time) ([]model.Device, error) {
	r.mu.Lock()
	if r.lookupErrs[uid] > 0 {
		r.lookupErrs[uid]--
		r.mu.Unlock()
		return nil, errStoreBlip
	}
	r.mu.Unlock()
	return r.DeviceRepository.ActiveByUser(ctx, uid, seenAfter)
}

func (r *flakyDevices) FindByID(ctx context.Context, id uint64) (*model.Device, error) {
	r.mu.Lock()
	if r.findErrs > 0 {
		r.findErrs--
		r.mu.Unlock()
		return nil, errStoreBlip
	}
	r.mu.Unlock()
	return r.DeviceRepository.FindByID(ctx, id)
}

// withFlakyDevices rebuilds the dispatcher and supervisor over a device
// repository that wraps the fixture's real one and can be made to fail.
func (f *fixture) withFlakyDevices(t *testing.T, maxRetries uint64) *flakyDevices {
	t.Helper()
	flaky := &flakyDevices{DeviceRepository: f.devices, lookupErrs: map[string]int{}}
	log := zaptest.NewLogger(t)
	f.dispatcher = NewDispatcher(flaky, f.deliveries, f.provider, NewMetrics(prometheus.NewRegistry()), log, Options{})
	f.supervisor = NewSupervisor(f.dispatcher, maxRetries, time.Millisecond, log)
	return flaky
}
