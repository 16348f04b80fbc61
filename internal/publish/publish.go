// Package publish implements the feedback publication state machine:
// draft edits, the publish transition with its audit snapshot, and the
// time-limited undo that reverses a publish.
package publish

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jkoskela/vocalis/internal/conf"
	"github.com/jkoskela/vocalis/internal/datastore"
	"github.com/jkoskela/vocalis/internal/errors"
	"github.com/jkoskela/vocalis/internal/logging"
	"github.com/jkoskela/vocalis/internal/notification"
	"github.com/jkoskela/vocalis/internal/observability/metrics"
)

// Notifier receives publish events for delivery outside the transaction.
type Notifier interface {
	Dispatch(event notification.PublishEvent)
}

// Manager drives feedback through the draft/published states. All
// multi-write transitions run inside a single datastore transaction;
// notification delivery happens after commit and cannot fail a transition.
type Manager struct {
	ds       datastore.Interface
	settings *conf.Settings
	notifier Notifier
	metrics  *metrics.PublishMetrics
	log      *slog.Logger

	// now is swapped out in tests to step through the undo window.
	now func() time.Time
}

// NewManager builds a publication manager. notifier and m may be nil.
func NewManager(ds datastore.Interface, settings *conf.Settings, notifier Notifier, m *metrics.PublishMetrics) *Manager {
	return &Manager{
		ds:       ds,
		settings: settings,
		notifier: notifier,
		metrics:  m,
		log:      logging.ForService("publish"),
		now:      time.Now,
	}
}

// load fetches a feedback entry and its owning session, enforcing that
// managerID owns the session.
func (m *Manager) load(feedbackID, managerID string) (datastore.FeedbackEntry, datastore.Session, error) {
	entry, err := m.ds.GetFeedback(feedbackID)
	if err != nil {
		return datastore.FeedbackEntry{}, datastore.Session{}, err
	}
	session, err := m.ds.GetSession(entry.SessionID)
	if err != nil {
		return datastore.FeedbackEntry{}, datastore.Session{}, err
	}
	if session.ManagerID != managerID {
		return datastore.FeedbackEntry{}, datastore.Session{},
			errors.Newf("manager %s does not own session %s", managerID, session.ID).
				Component("publish").
				Category(errors.CategoryAuthorization).
				Context("feedback_id", feedbackID).
				Build()
	}
	return entry, session, nil
}

func validateTone(tone string) error {
	if tone != "" && !conf.ValidTone(tone) {
		return errors.Newf("unknown tone %q", tone).
			Component("publish").
			Category(errors.CategoryValidation).
			Build()
	}
	return nil
}

// Save updates the editable text and tone of a draft. No audit entry is
// written; only the publish transition is audited.
func (m *Manager) Save(feedbackID, managerID, text, tone string) (datastore.FeedbackEntry, error) {
	if err := validateTone(tone); err != nil {
		return datastore.FeedbackEntry{}, err
	}
	entry, _, err := m.load(feedbackID, managerID)
	if err != nil {
		return datastore.FeedbackEntry{}, err
	}
	if entry.IsPublished {
		return datastore.FeedbackEntry{}, errors.Newf("feedback %s is published and cannot be edited", feedbackID).
			Component("publish").
			Category(errors.CategoryState).
			Build()
	}

	if text != "" {
		entry.FinalFeedback = text
	}
	if tone != "" {
		entry.SelectedTone = tone
	}
	if err := m.ds.UpdateFeedback(&entry); err != nil {
		return datastore.FeedbackEntry{}, err
	}
	return entry, nil
}

// Approve publishes a draft. The previous content and tone are snapshotted
// into an audit entry so the action can be reversed for the duration of the
// undo window. Any final edits passed in text/tone are applied atomically
// with the transition.
func (m *Manager) Approve(feedbackID, managerID, text, tone string) (datastore.FeedbackAudit, error) {
	if err := validateTone(tone); err != nil {
		return datastore.FeedbackAudit{}, err
	}
	entry, session, err := m.load(feedbackID, managerID)
	if err != nil {
		return datastore.FeedbackAudit{}, err
	}
	if entry.IsPublished {
		return datastore.FeedbackAudit{}, errors.Newf("feedback %s is already published", feedbackID).
			Component("publish").
			Category(errors.CategoryState).
			Context("session_id", session.ID).
			Build()
	}

	now := m.now()
	undoUntil := now.Add(m.settings.Feedback.UndoWindow)

	audit := datastore.FeedbackAudit{
		ID:              uuid.NewString(),
		FeedbackID:      entry.ID,
		Action:          datastore.ActionPublished,
		PreviousContent: entry.FinalFeedback,
		PreviousTone:    entry.SelectedTone,
		PerformedBy:     managerID,
		CanUndoUntil:    &undoUntil,
		CreatedAt:       now,
	}

	if text != "" {
		entry.FinalFeedback = text
	}
	if tone != "" {
		entry.SelectedTone = tone
	}
	audit.NewContent = entry.FinalFeedback
	audit.NewTone = entry.SelectedTone

	entry.IsPublished = true
	entry.PublishedAt = &now

	err = m.ds.Transaction(func(tx datastore.Interface) error {
		if err := tx.UpdateFeedback(&entry); err != nil {
			return err
		}
		if err := tx.UpdateSessionStatus(session.ID, datastore.StatusPublished); err != nil {
			return err
		}
		return tx.SaveAudit(&audit)
	})
	if err != nil {
		return datastore.FeedbackAudit{}, err
	}

	m.metrics.RecordTransition(datastore.ActionPublished)
	m.log.Info("feedback published",
		"feedback_id", entry.ID,
		"session_id", session.ID,
		"manager_id", managerID,
		"undo_until", undoUntil)

	if m.notifier != nil {
		m.notifier.Dispatch(notification.PublishEvent{
			FeedbackID:   entry.ID,
			EmployeeID:   session.EmployeeID,
			SessionTitle: session.Title,
			ManagerName:  session.ManagerName,
		})
	}
	return audit, nil
}

// Undo reverses a publish identified by its audit entry. The window is
// checked lazily at call time; an expired or already-undone publish is
// refused without touching the record. On success the feedback text and
// tone are restored from the snapshot, the session returns to draft, and a
// compensating unpublish entry joins the trail.
func (m *Manager) Undo(auditID, managerID string) (datastore.FeedbackEntry, error) {
	audit, err := m.ds.GetAudit(auditID)
	if err != nil {
		return datastore.FeedbackEntry{}, err
	}
	if audit.Action != datastore.ActionPublished {
		m.metrics.RecordUndoRejection("not_published")
		return datastore.FeedbackEntry{}, errors.Newf("audit %s is not a publish action", auditID).
			Component("publish").
			Category(errors.CategoryValidation).
			Build()
	}
	if audit.IsUndone {
		m.metrics.RecordUndoRejection("already_undone")
		return datastore.FeedbackEntry{}, errors.Newf("publish %s has already been undone", auditID).
			Component("publish").
			Category(errors.CategoryState).
			Build()
	}
	// Only the most recent non-undone publish may be reversed.
	if latest, lerr := m.ds.LatestPublishAudit(audit.FeedbackID); lerr == nil && latest.ID != audit.ID {
		m.metrics.RecordUndoRejection("superseded")
		return datastore.FeedbackEntry{}, errors.Newf("publish %s is not the most recent for feedback %s", auditID, audit.FeedbackID).
			Component("publish").
			Category(errors.CategoryState).
			Build()
	}
	now := m.now()
	if !audit.Undoable(now) {
		m.metrics.RecordUndoRejection("expired")
		return datastore.FeedbackEntry{}, errors.Newf("undo window for publish %s has expired", auditID).
			Component("publish").
			Category(errors.CategoryState).
			Context("can_undo_until", audit.CanUndoUntil).
			Build()
	}

	entry, session, err := m.load(audit.FeedbackID, managerID)
	if err != nil {
		return datastore.FeedbackEntry{}, err
	}

	entry.FinalFeedback = audit.PreviousContent
	entry.SelectedTone = audit.PreviousTone
	entry.IsPublished = false
	entry.PublishedAt = nil

	audit.IsUndone = true

	compensating := datastore.FeedbackAudit{
		ID:              uuid.NewString(),
		FeedbackID:      entry.ID,
		Action:          datastore.ActionUnpublished,
		PreviousContent: audit.NewContent,
		NewContent:      audit.PreviousContent,
		PreviousTone:    audit.NewTone,
		NewTone:         audit.PreviousTone,
		PerformedBy:     managerID,
		CreatedAt:       now,
	}

	err = m.ds.Transaction(func(tx datastore.Interface) error {
		if err := tx.UpdateFeedback(&entry); err != nil {
			return err
		}
		if err := tx.RevertSessionToDraft(session.ID); err != nil {
			return err
		}
		if err := tx.UpdateAudit(&audit); err != nil {
			return err
		}
		return tx.SaveAudit(&compensating)
	})
	if err != nil {
		return datastore.FeedbackEntry{}, err
	}

	m.metrics.RecordTransition(datastore.ActionUnpublished)
	m.log.Info("publish undone",
		"feedback_id", entry.ID,
		"audit_id", auditID,
		"manager_id", managerID)
	return entry, nil
}
