package notification

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/jkoskela/vocalis/internal/conf"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeProvider struct {
	mu     sync.Mutex
	sent   []PublishEvent
	err    error
	notify chan struct{}
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{notify: make(chan struct{}, dispatchQueueSize)}
}

func (f *fakeProvider) GetName() string      { return "fake" }
func (f *fakeProvider) IsEnabled() bool      { return true }
func (f *fakeProvider) ValidateConfig() error { return nil }

func (f *fakeProvider) Send(_ context.Context, event *PublishEvent) error {
	f.mu.Lock()
	f.sent = append(f.sent, *event)
	f.mu.Unlock()
	f.notify <- struct{}{}
	return f.err
}

func (f *fakeProvider) sentEvents() []PublishEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]PublishEvent, len(f.sent))
	copy(out, f.sent)
	return out
}

func waitDelivery(t *testing.T, f *fakeProvider) {
	t.Helper()
	select {
	case <-f.notify:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for delivery")
	}
}

func newTestDispatcher(providers ...Provider) *Dispatcher {
	d := NewDispatcher(&conf.Settings{})
	d.providers = providers
	return d
}

func TestDispatchDeliversToProvider(t *testing.T) {
	fake := newFakeProvider()
	d := newTestDispatcher(fake)
	d.Start()
	defer d.Stop()

	event := PublishEvent{
		FeedbackID:   "fb-1",
		EmployeeID:   "emp-1",
		SessionTitle: "Q3 Review",
		ManagerName:  "Dana",
	}
	d.Dispatch(event)
	waitDelivery(t, fake)

	sent := fake.sentEvents()
	require.Len(t, sent, 1)
	assert.Equal(t, "fb-1", sent[0].FeedbackID)
	assert.Contains(t, sent[0].Title(), "Q3 Review")
	assert.Contains(t, sent[0].Body(), "Dana")
}

func TestDispatchProviderFailureIsSwallowed(t *testing.T) {
	fake := newFakeProvider()
	fake.err = errors.New("unreachable")
	d := newTestDispatcher(fake)
	d.Start()
	defer d.Stop()

	// Must not panic or block; the failure is log-only.
	d.Dispatch(PublishEvent{FeedbackID: "fb-2"})
	waitDelivery(t, fake)
}

func TestDispatchNeverBlocksWhenQueueFull(t *testing.T) {
	d := newTestDispatcher(newFakeProvider())
	// Not started: nothing drains the queue.

	done := make(chan struct{})
	go func() {
		for i := 0; i < dispatchQueueSize*2; i++ {
			d.Dispatch(PublishEvent{FeedbackID: "fb"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Dispatch blocked on a full queue")
	}
}

func TestStopTerminatesWorker(t *testing.T) {
	d := newTestDispatcher(newFakeProvider())
	d.Start()
	d.Stop()
	// Double stop is safe.
	d.Stop()
}

func TestNewDispatcherSkipsInvalidProvider(t *testing.T) {
	settings := &conf.Settings{}
	settings.Notification.Push.Enabled = true
	settings.Notification.Push.DefaultTimeout = 5 * time.Second
	settings.Notification.Push.Providers = []conf.PushProviderConfig{
		{Name: "broken", Enabled: true, URLs: nil}, // no URLs
		{Name: "disabled", Enabled: false, URLs: []string{"logger://"}},
	}

	d := NewDispatcher(settings)
	assert.Empty(t, d.providers)
}

func TestShoutrrrValidateConfig(t *testing.T) {
	t.Run("disabled provider passes", func(t *testing.T) {
		p := NewShoutrrrProvider("p", false, nil, 0)
		assert.NoError(t, p.ValidateConfig())
	})

	t.Run("enabled without URLs fails", func(t *testing.T) {
		p := NewShoutrrrProvider("p", true, nil, 0)
		assert.Error(t, p.ValidateConfig())
	})

	t.Run("send before validate fails", func(t *testing.T) {
		p := NewShoutrrrProvider("p", true, []string{"logger://"}, 0)
		err := p.Send(context.Background(), &PublishEvent{})
		assert.Error(t, err)
	})

	t.Run("default name applied", func(t *testing.T) {
		p := NewShoutrrrProvider("  ", true, nil, 0)
		assert.Equal(t, "shoutrrr", p.GetName())
	})
}
