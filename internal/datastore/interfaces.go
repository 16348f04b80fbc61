// interfaces.go: this code defines the interface for the database operations
package datastore

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// Interface abstracts the underlying database implementation and defines the
// operations the pipeline, state machine, and API use.
type Interface interface {
	Open() error
	Close() error

	// sessions
	SaveSession(session *Session) error
	GetSession(id string) (Session, error)
	UpdateSessionStatus(id, status string) error
	RevertSessionToDraft(id string) error
	SetSessionTranscript(id, transcript string) error

	// feedback entries
	SaveFeedback(entry *FeedbackEntry) error
	GetFeedback(id string) (FeedbackEntry, error)
	GetFeedbackBySession(sessionID string) (FeedbackEntry, error)
	UpdateFeedback(entry *FeedbackEntry) error

	// audit trail
	SaveAudit(audit *FeedbackAudit) error
	UpdateAudit(audit *FeedbackAudit) error
	GetAudit(id string) (FeedbackAudit, error)
	LatestPublishAudit(feedbackID string) (FeedbackAudit, error)
	GetAuditsForFeedback(feedbackID string) ([]FeedbackAudit, error)

	// state transitions needing multiple writes
	Transaction(fn func(tx Interface) error) error
}

// DataStore implements Interface using a GORM database.
type DataStore struct {
	DB *gorm.DB // GORM database instance
}

// Open and Close satisfy Interface for transaction handles; the concrete
// store (e.g. SQLiteStore) shadows them with real lifecycle management.
func (ds *DataStore) Open() error { return nil }

// Close satisfies Interface for transaction handles.
func (ds *DataStore) Close() error { return nil }

// ErrRecordNotFound is returned when a lookup matches no row.
var ErrRecordNotFound = gorm.ErrRecordNotFound

// IsNotFound reports whether err is a missing-record error from any store method.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// SaveSession inserts or updates a session.
func (ds *DataStore) SaveSession(session *Session) error {
	if err := ds.DB.Save(session).Error; err != nil {
		return newDatabaseError(err, "save_session", session.ID)
	}
	return nil
}

// GetSession retrieves a session by its ID, with its feedback entry preloaded.
func (ds *DataStore) GetSession(id string) (Session, error) {
	var session Session
	if err := ds.DB.Preload("Feedback").First(&session, "id = ?", id).Error; err != nil {
		return Session{}, lookupError(err, "get_session", id)
	}
	return session, nil
}

// UpdateSessionStatus moves a session to a new status, enforcing the strict
// forward progression. Invalid steps fail before touching the database.
func (ds *DataStore) UpdateSessionStatus(id, status string) error {
	var session Session
	if err := ds.DB.Select("id", "status").First(&session, "id = ?", id).Error; err != nil {
		return lookupError(err, "update_session_status", id)
	}
	if !CanAdvance(session.Status, status) {
		return newStateError(session.Status, status, id)
	}
	if err := ds.DB.Model(&Session{}).Where("id = ?", id).
		Updates(map[string]any{"status": status, "updated_at": time.Now()}).Error; err != nil {
		return newDatabaseError(err, "update_session_status", id)
	}
	return nil
}

// RevertSessionToDraft returns a published session to draft. This is the
// only permitted backwards transition and exists solely for publish undo.
func (ds *DataStore) RevertSessionToDraft(id string) error {
	var session Session
	if err := ds.DB.Select("id", "status").First(&session, "id = ?", id).Error; err != nil {
		return lookupError(err, "revert_session_to_draft", id)
	}
	if session.Status != StatusPublished {
		return newStateError(session.Status, StatusDraft, id)
	}
	if err := ds.DB.Model(&Session{}).Where("id = ?", id).
		Updates(map[string]any{"status": StatusDraft, "updated_at": time.Now()}).Error; err != nil {
		return newDatabaseError(err, "revert_session_to_draft", id)
	}
	return nil
}

// SetSessionTranscript records the transcript produced by the pipeline.
// The transcript is set exactly once; a second write is refused.
func (ds *DataStore) SetSessionTranscript(id, transcript string) error {
	var session Session
	if err := ds.DB.Select("id", "transcript").First(&session, "id = ?", id).Error; err != nil {
		return lookupError(err, "set_session_transcript", id)
	}
	if session.Transcript != "" {
		return newConflictError("transcript already set", id)
	}
	if err := ds.DB.Model(&Session{}).Where("id = ?", id).
		Updates(map[string]any{"transcript": transcript, "updated_at": time.Now()}).Error; err != nil {
		return newDatabaseError(err, "set_session_transcript", id)
	}
	return nil
}

// SaveFeedback inserts a new feedback entry.
func (ds *DataStore) SaveFeedback(entry *FeedbackEntry) error {
	if err := ds.DB.Create(entry).Error; err != nil {
		return newDatabaseError(err, "save_feedback", entry.ID)
	}
	return nil
}

// GetFeedback retrieves a feedback entry by its ID.
func (ds *DataStore) GetFeedback(id string) (FeedbackEntry, error) {
	var entry FeedbackEntry
	if err := ds.DB.First(&entry, "id = ?", id).Error; err != nil {
		return FeedbackEntry{}, lookupError(err, "get_feedback", id)
	}
	return entry, nil
}

// GetFeedbackBySession retrieves the feedback entry belonging to a session.
func (ds *DataStore) GetFeedbackBySession(sessionID string) (FeedbackEntry, error) {
	var entry FeedbackEntry
	if err := ds.DB.First(&entry, "session_id = ?", sessionID).Error; err != nil {
		return FeedbackEntry{}, lookupError(err, "get_feedback_by_session", sessionID)
	}
	return entry, nil
}

// UpdateFeedback persists changes to an existing feedback entry.
func (ds *DataStore) UpdateFeedback(entry *FeedbackEntry) error {
	if err := ds.DB.Save(entry).Error; err != nil {
		return newDatabaseError(err, "update_feedback", entry.ID)
	}
	return nil
}

// SaveAudit inserts an audit trail entry.
func (ds *DataStore) SaveAudit(audit *FeedbackAudit) error {
	if err := ds.DB.Create(audit).Error; err != nil {
		return newDatabaseError(err, "save_audit", audit.ID)
	}
	return nil
}

// UpdateAudit persists changes to an existing audit entry, normally only
// the undone flag.
func (ds *DataStore) UpdateAudit(audit *FeedbackAudit) error {
	if err := ds.DB.Save(audit).Error; err != nil {
		return newDatabaseError(err, "update_audit", audit.ID)
	}
	return nil
}

// GetAudit retrieves an audit entry by its ID.
func (ds *DataStore) GetAudit(id string) (FeedbackAudit, error) {
	var audit FeedbackAudit
	if err := ds.DB.First(&audit, "id = ?", id).Error; err != nil {
		return FeedbackAudit{}, lookupError(err, "get_audit", id)
	}
	return audit, nil
}

// LatestPublishAudit returns the most recent non-undone publish entry for a
// feedback record. Undo is only valid against this entry.
func (ds *DataStore) LatestPublishAudit(feedbackID string) (FeedbackAudit, error) {
	var audit FeedbackAudit
	err := ds.DB.Where("feedback_id = ? AND action = ? AND is_undone = ?",
		feedbackID, ActionPublished, false).
		Order("created_at DESC").
		First(&audit).Error
	if err != nil {
		return FeedbackAudit{}, lookupError(err, "latest_publish_audit", feedbackID)
	}
	return audit, nil
}

// GetAuditsForFeedback returns the full audit trail for a feedback entry,
// newest first.
func (ds *DataStore) GetAuditsForFeedback(feedbackID string) ([]FeedbackAudit, error) {
	var audits []FeedbackAudit
	if err := ds.DB.Where("feedback_id = ?", feedbackID).
		Order("created_at DESC").Find(&audits).Error; err != nil {
		return nil, newDatabaseError(err, "get_audits_for_feedback", feedbackID)
	}
	return audits, nil
}

// Transaction runs fn inside a single database transaction. The Interface
// passed to fn issues all writes through the transaction handle.
func (ds *DataStore) Transaction(fn func(tx Interface) error) error {
	return ds.DB.Transaction(func(tx *gorm.DB) error {
		return fn(&DataStore{DB: tx})
	})
}
