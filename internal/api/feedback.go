package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/jkoskela/vocalis/internal/datastore"
	"github.com/jkoskela/vocalis/internal/errors"
)

// FeedbackResponse is the feedback shape returned to clients.
type FeedbackResponse struct {
	ID             string     `json:"id"`
	SessionID      string     `json:"sessionId"`
	AIDraft        string     `json:"aiDraft"`
	FinalFeedback  string     `json:"finalFeedback"`
	CompetencyTags []string   `json:"competencyTags"`
	Sentiment      float64    `json:"sentiment"`
	HasBias        bool       `json:"hasBias"`
	FairnessScore  float64    `json:"fairnessScore"`
	SelectedTone   string     `json:"selectedTone"`
	IsPublished    bool       `json:"isPublished"`
	PublishedAt    *time.Time `json:"publishedAt,omitempty"`
}

func feedbackResponse(entry *datastore.FeedbackEntry) FeedbackResponse {
	return FeedbackResponse{
		ID:             entry.ID,
		SessionID:      entry.SessionID,
		AIDraft:        entry.AIDraft,
		FinalFeedback:  entry.FinalFeedback,
		CompetencyTags: entry.Tags(),
		Sentiment:      entry.Sentiment,
		HasBias:        entry.HasBias,
		FairnessScore:  entry.FairnessScore,
		SelectedTone:   entry.SelectedTone,
		IsPublished:    entry.IsPublished,
		PublishedAt:    entry.PublishedAt,
	}
}

// GetFeedback returns a feedback entry. Reads go through a short-lived
// cache; every write path invalidates the entry.
func (c *Controller) GetFeedback(ctx echo.Context) error {
	id := ctx.Param("id")

	if cached, found := c.feedbackCache.Get(id); found {
		if entry, ok := cached.(datastore.FeedbackEntry); ok {
			if err := c.authorizeFeedback(ctx, &entry); err != nil {
				return c.HandleError(ctx, err)
			}
			return ctx.JSON(http.StatusOK, feedbackResponse(&entry))
		}
	}

	entry, err := c.DS.GetFeedback(id)
	if err != nil {
		return c.HandleError(ctx, err)
	}
	if err := c.authorizeFeedback(ctx, &entry); err != nil {
		return c.HandleError(ctx, err)
	}
	c.feedbackCache.SetDefault(id, entry)
	return ctx.JSON(http.StatusOK, feedbackResponse(&entry))
}

// SaveDraftRequest carries a manager's edits to the draft.
type SaveDraftRequest struct {
	FinalFeedback string `json:"finalFeedback"`
	Tone          string `json:"tone"`
}

// SaveDraft updates the editable text and tone of an unpublished draft.
func (c *Controller) SaveDraft(ctx echo.Context) error {
	var req SaveDraftRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, errors.New(err).
			Component("api").
			Category(errors.CategoryValidation).
			Build())
	}

	id := ctx.Param("id")
	entry, err := c.Publisher.Save(id, managerID(ctx), req.FinalFeedback, req.Tone)
	if err != nil {
		return c.HandleError(ctx, err)
	}
	c.feedbackCache.Delete(id)
	return ctx.JSON(http.StatusOK, feedbackResponse(&entry))
}

// PublishRequest optionally applies final edits with the publish.
type PublishRequest struct {
	FinalFeedback string `json:"finalFeedback"`
	Tone          string `json:"tone"`
}

// PublishResponse returns the audit entry so clients can offer undo.
type PublishResponse struct {
	AuditID      string     `json:"auditId"`
	FeedbackID   string     `json:"feedbackId"`
	PublishedAt  time.Time  `json:"publishedAt"`
	CanUndoUntil *time.Time `json:"canUndoUntil"`
}

// PublishFeedback performs the draft-to-published transition.
func (c *Controller) PublishFeedback(ctx echo.Context) error {
	var req PublishRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, errors.New(err).
			Component("api").
			Category(errors.CategoryValidation).
			Build())
	}

	id := ctx.Param("id")
	audit, err := c.Publisher.Approve(id, managerID(ctx), req.FinalFeedback, req.Tone)
	if err != nil {
		return c.HandleError(ctx, err)
	}
	c.feedbackCache.Delete(id)
	return ctx.JSON(http.StatusOK, PublishResponse{
		AuditID:      audit.ID,
		FeedbackID:   audit.FeedbackID,
		PublishedAt:  audit.CreatedAt,
		CanUndoUntil: audit.CanUndoUntil,
	})
}

// UndoPublish reverses a publish identified by its audit ID, inside the
// undo window.
func (c *Controller) UndoPublish(ctx echo.Context) error {
	entry, err := c.Publisher.Undo(ctx.Param("id"), managerID(ctx))
	if err != nil {
		return c.HandleError(ctx, err)
	}
	c.feedbackCache.Delete(entry.ID)
	return ctx.JSON(http.StatusOK, feedbackResponse(&entry))
}

// authorizeFeedback checks that the calling manager owns the session the
// feedback belongs to.
func (c *Controller) authorizeFeedback(ctx echo.Context, entry *datastore.FeedbackEntry) error {
	session, err := c.DS.GetSession(entry.SessionID)
	if err != nil {
		return err
	}
	if session.ManagerID != managerID(ctx) {
		return errors.Newf("manager %s does not own feedback %s", managerID(ctx), entry.ID).
			Component("api").
			Category(errors.CategoryAuthorization).
			Build()
	}
	return nil
}
