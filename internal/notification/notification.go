// Package notification delivers publish notifications to the employee's
// channels. Dispatch is fire-and-forget: the publish transition never waits
// for delivery and delivery failures are logged on the notification logger
// only, never propagated to the caller.
package notification

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jkoskela/vocalis/internal/conf"
	"github.com/jkoskela/vocalis/internal/logging"
)

// PublishEvent is the payload delivered when feedback is published.
type PublishEvent struct {
	FeedbackID   string
	EmployeeID   string
	SessionTitle string
	ManagerName  string
}

// Title renders the notification title.
func (e *PublishEvent) Title() string {
	return fmt.Sprintf("New feedback: %s", e.SessionTitle)
}

// Body renders the notification body.
func (e *PublishEvent) Body() string {
	return fmt.Sprintf("%s has published performance feedback for session %q. Feedback ID: %s.",
		e.ManagerName, e.SessionTitle, e.FeedbackID)
}

// Provider defines an external push delivery backend.
// Providers should be safe for concurrent use.
type Provider interface {
	GetName() string
	ValidateConfig() error
	Send(ctx context.Context, event *PublishEvent) error
	IsEnabled() bool
}

const dispatchQueueSize = 64

// Dispatcher fans publish events out to enabled providers from a background
// goroutine. The queue is bounded; when it is full events are dropped with a
// log line rather than blocking the publish transition.
type Dispatcher struct {
	providers []Provider
	queue     chan PublishEvent
	log       *slog.Logger
	timeout   time.Duration

	cancel  context.CancelFunc
	wg      sync.WaitGroup
	startMu sync.Mutex
	started bool
}

// NewDispatcher builds a dispatcher from notification settings. Providers
// that fail config validation are skipped with a warning.
func NewDispatcher(settings *conf.Settings) *Dispatcher {
	log := logging.ForService("notification")

	d := &Dispatcher{
		queue:   make(chan PublishEvent, dispatchQueueSize),
		log:     log,
		timeout: settings.Notification.Push.DefaultTimeout,
	}

	if !settings.Notification.Push.Enabled {
		return d
	}

	for _, pc := range settings.Notification.Push.Providers {
		prov := NewShoutrrrProvider(pc.Name, pc.Enabled, pc.URLs, d.timeout)
		if err := prov.ValidateConfig(); err != nil {
			log.Warn("push provider config invalid, skipping", "name", pc.Name, "error", err)
			continue
		}
		if prov.IsEnabled() {
			d.providers = append(d.providers, prov)
		}
	}

	return d
}

// Start launches the background delivery goroutine. Safe to call once.
func (d *Dispatcher) Start() {
	d.startMu.Lock()
	defer d.startMu.Unlock()
	if d.started {
		return
	}
	d.started = true

	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case event := <-d.queue:
				d.deliver(ctx, &event)
			}
		}
	}()
}

// Stop terminates the delivery goroutine. Queued events are dropped.
func (d *Dispatcher) Stop() {
	d.startMu.Lock()
	defer d.startMu.Unlock()
	if !d.started {
		return
	}
	d.started = false
	d.cancel()
	d.wg.Wait()
}

// Dispatch enqueues an event without blocking. The caller's transition has
// already committed by the time this runs; nothing here can fail it.
func (d *Dispatcher) Dispatch(event PublishEvent) {
	select {
	case d.queue <- event:
	default:
		d.log.Warn("notification queue full, dropping event", "feedback_id", event.FeedbackID)
	}
}

func (d *Dispatcher) deliver(ctx context.Context, event *PublishEvent) {
	if len(d.providers) == 0 {
		d.log.Debug("no push providers configured, notification not delivered",
			"feedback_id", event.FeedbackID)
		return
	}

	sendCtx := ctx
	if d.timeout > 0 {
		var cancel context.CancelFunc
		sendCtx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	for _, prov := range d.providers {
		if err := prov.Send(sendCtx, event); err != nil {
			d.log.Error("push delivery failed",
				"provider", prov.GetName(),
				"feedback_id", event.FeedbackID,
				"error", err)
			continue
		}
		d.log.Info("publish notification delivered",
			"provider", prov.GetName(),
			"feedback_id", event.FeedbackID)
	}
}
