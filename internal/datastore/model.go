// model.go this code defines the data model for the application
package datastore

import (
	"strings"
	"time"
)

// Session status values. A session moves strictly forward through these;
// published can return to draft only via an undo inside the undo window.
const (
	StatusPending    = "pending"
	StatusRecording  = "recording"
	StatusProcessing = "processing"
	StatusDraft      = "draft"
	StatusPublished  = "published"
)

// Audit actions recorded in FeedbackAudit.
const (
	ActionPublished   = "published"
	ActionUnpublished = "unpublished"
)

// Recording modes for a session.
const (
	RecordingModeFull        = "full"
	RecordingModePerQuestion = "per_question"
)

// statusOrder maps each status to its position in the forward progression.
var statusOrder = map[string]int{
	StatusPending:    0,
	StatusRecording:  1,
	StatusProcessing: 2,
	StatusDraft:      3,
	StatusPublished:  4,
}

// ValidStatus reports whether s is a recognized session status.
func ValidStatus(s string) bool {
	_, ok := statusOrder[s]
	return ok
}

// CanAdvance reports whether a session may move from one status to the next.
// Only single forward steps are allowed; the published→draft reversal is
// handled by the publish state machine, not here.
func CanAdvance(from, to string) bool {
	fo, ok1 := statusOrder[from]
	to2, ok2 := statusOrder[to]
	if !ok1 || !ok2 {
		return false
	}
	return to2 == fo+1
}

// Session represents one feedback conversation: who it is about, who runs
// it, and the transcript produced by the pipeline.
type Session struct {
	ID            string `gorm:"primaryKey;type:varchar(36)"`
	Title         string
	Status        string `gorm:"index:idx_sessions_status;type:varchar(20)"`
	EmployeeID    string `gorm:"index:idx_sessions_employee;type:varchar(36)"`
	EmployeeName  string
	EmployeeRole  string
	ManagerID     string `gorm:"index:idx_sessions_manager;type:varchar(36)"`
	ManagerName   string
	PriorSummary  string `gorm:"type:text"` // summary of the previous review cycle, fed to the synthesizer
	Transcript    string `gorm:"type:text"`
	AudioRef      string // opaque reference to the stored recording
	RecordingMode string `gorm:"type:varchar(20)"` // "full" or "per_question"
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Feedback *FeedbackEntry `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE"` // one feedback entry per session
}

// FeedbackEntry is the persisted feedback document for a session. AIDraft
// holds the original assembled markdown; FinalFeedback is the editable text
// that gets published.
type FeedbackEntry struct {
	ID             string `gorm:"primaryKey;type:varchar(36)"`
	SessionID      string `gorm:"uniqueIndex;not null;type:varchar(36)"`
	AIDraft        string `gorm:"type:text"`
	FinalFeedback  string `gorm:"type:text"`
	CompetencyTags string `gorm:"type:text"` // comma-separated, derived from competency names at assembly
	Sentiment      float64
	HasBias        bool
	FairnessScore  float64
	SelectedTone   string `gorm:"type:varchar(20)"`
	IsPublished    bool
	PublishedAt    *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time

	Audits []FeedbackAudit `gorm:"foreignKey:FeedbackID;constraint:OnDelete:CASCADE"`
}

// Tags returns the competency tags as a slice.
func (f *FeedbackEntry) Tags() []string {
	if f.CompetencyTags == "" {
		return nil
	}
	return strings.Split(f.CompetencyTags, ",")
}

// SetTags stores the competency tags from a slice.
func (f *FeedbackEntry) SetTags(tags []string) {
	f.CompetencyTags = strings.Join(tags, ",")
}

// FeedbackAudit records one publish or unpublish action against a feedback
// entry, with enough state to reverse a publish inside the undo window.
type FeedbackAudit struct {
	ID              string `gorm:"primaryKey;type:varchar(36)"`
	FeedbackID      string `gorm:"index;not null;type:varchar(36)"`
	Action          string `gorm:"type:varchar(20)"` // "published" or "unpublished"
	PreviousContent string `gorm:"type:text"`
	NewContent      string `gorm:"type:text"`
	PreviousTone    string `gorm:"type:varchar(20)"`
	NewTone         string `gorm:"type:varchar(20)"`
	PerformedBy     string `gorm:"type:varchar(36)"`
	CanUndoUntil    *time.Time
	IsUndone        bool
	CreatedAt       time.Time `gorm:"index"`
}

// Undoable reports whether the entry can still be reversed at time now.
func (a *FeedbackAudit) Undoable(now time.Time) bool {
	return a.Action == ActionPublished && !a.IsUndone &&
		a.CanUndoUntil != nil && now.Before(*a.CanUndoUntil)
}
