package api

import (
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/jkoskela/vocalis/internal/datastore"
	"github.com/jkoskela/vocalis/internal/errors"
	"github.com/jkoskela/vocalis/internal/pipeline"
	"github.com/jkoskela/vocalis/internal/transcribe"
)

// CreateSessionRequest is the intake payload for a new feedback session.
type CreateSessionRequest struct {
	Title         string `json:"title"`
	EmployeeID    string `json:"employeeId"`
	EmployeeName  string `json:"employeeName"`
	EmployeeRole  string `json:"employeeRole"`
	ManagerName   string `json:"managerName"`
	PriorSummary  string `json:"priorSummary"`
	RecordingMode string `json:"recordingMode"`
}

// SessionResponse is the session shape returned to clients.
type SessionResponse struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Status        string    `json:"status"`
	EmployeeID    string    `json:"employeeId"`
	EmployeeName  string    `json:"employeeName"`
	EmployeeRole  string    `json:"employeeRole"`
	ManagerID     string    `json:"managerId"`
	ManagerName   string    `json:"managerName"`
	RecordingMode string    `json:"recordingMode"`
	Transcript    string    `json:"transcript,omitempty"`
	FeedbackID    string    `json:"feedbackId,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

func sessionResponse(s *datastore.Session) SessionResponse {
	resp := SessionResponse{
		ID:            s.ID,
		Title:         s.Title,
		Status:        s.Status,
		EmployeeID:    s.EmployeeID,
		EmployeeName:  s.EmployeeName,
		EmployeeRole:  s.EmployeeRole,
		ManagerID:     s.ManagerID,
		ManagerName:   s.ManagerName,
		RecordingMode: s.RecordingMode,
		Transcript:    s.Transcript,
		CreatedAt:     s.CreatedAt,
	}
	if s.Feedback != nil {
		resp.FeedbackID = s.Feedback.ID
	}
	return resp
}

// CreateSession registers a new session in pending status, owned by the
// calling manager.
func (c *Controller) CreateSession(ctx echo.Context) error {
	var req CreateSessionRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, errors.New(err).
			Component("api").
			Category(errors.CategoryValidation).
			Build())
	}
	if req.Title == "" || req.EmployeeID == "" || req.EmployeeName == "" {
		return c.HandleError(ctx, errors.Newf("title, employeeId and employeeName are required").
			Component("api").
			Category(errors.CategoryValidation).
			Build())
	}
	mode := req.RecordingMode
	if mode == "" {
		mode = datastore.RecordingModeFull
	}
	if mode != datastore.RecordingModeFull && mode != datastore.RecordingModePerQuestion {
		return c.HandleError(ctx, errors.Newf("unknown recording mode %q", mode).
			Component("api").
			Category(errors.CategoryValidation).
			Build())
	}

	session := &datastore.Session{
		ID:            uuid.NewString(),
		Title:         req.Title,
		Status:        datastore.StatusPending,
		EmployeeID:    req.EmployeeID,
		EmployeeName:  req.EmployeeName,
		EmployeeRole:  req.EmployeeRole,
		ManagerID:     managerID(ctx),
		ManagerName:   req.ManagerName,
		PriorSummary:  req.PriorSummary,
		RecordingMode: mode,
	}
	if err := c.DS.SaveSession(session); err != nil {
		return c.HandleError(ctx, err)
	}

	c.apiLogger.Info("session created",
		"session_id", session.ID,
		"manager_id", session.ManagerID,
		"recording_mode", mode)
	return ctx.JSON(http.StatusCreated, sessionResponse(session))
}

// GetSession returns a session owned by the calling manager.
func (c *Controller) GetSession(ctx echo.Context) error {
	session, err := c.ownedSession(ctx, ctx.Param("id"))
	if err != nil {
		return c.HandleError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, sessionResponse(&session))
}

// AdvanceSession moves a session one step forward, typically pending to
// recording when the manager starts speaking.
func (c *Controller) AdvanceSession(ctx echo.Context) error {
	var req struct {
		Status string `json:"status"`
	}
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, errors.New(err).
			Component("api").
			Category(errors.CategoryValidation).
			Build())
	}
	if !datastore.ValidStatus(req.Status) {
		return c.HandleError(ctx, errors.Newf("unknown status %q", req.Status).
			Component("api").
			Category(errors.CategoryValidation).
			Build())
	}

	session, err := c.ownedSession(ctx, ctx.Param("id"))
	if err != nil {
		return c.HandleError(ctx, err)
	}
	if err := c.DS.UpdateSessionStatus(session.ID, req.Status); err != nil {
		return c.HandleError(ctx, err)
	}
	session.Status = req.Status
	return ctx.JSON(http.StatusOK, sessionResponse(&session))
}

// maxUploadBytes bounds a single recording upload.
const maxUploadBytes = 64 << 20

// ProcessSession accepts the session recording as multipart form data and
// runs the processing pipeline. Full mode expects a single "audio" file;
// per-question mode expects repeated "question" values with matching
// "answer" files in the same order.
func (c *Controller) ProcessSession(ctx echo.Context) error {
	req := pipeline.Request{
		SessionID: ctx.Param("id"),
		ManagerID: managerID(ctx),
		Tone:      ctx.FormValue("tone"),
	}

	form, err := ctx.MultipartForm()
	if err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return c.HandleError(ctx, errors.New(err).
			Component("api").
			Category(errors.CategoryValidation).
			Build())
	}
	if form != nil {
		if files := form.File["audio"]; len(files) > 0 {
			data, name, err := readUpload(files[0])
			if err != nil {
				return c.HandleError(ctx, err)
			}
			req.Audio = data
			req.Filename = name
		}
		questions := form.Value["question"]
		answers := form.File["answer"]
		if len(questions) > 0 {
			if len(questions) != len(answers) {
				return c.HandleError(ctx, errors.Newf("got %d questions but %d answer recordings", len(questions), len(answers)).
					Component("api").
					Category(errors.CategoryValidation).
					Build())
			}
			for i, q := range questions {
				data, name, err := readUpload(answers[i])
				if err != nil {
					return c.HandleError(ctx, err)
				}
				req.Questions = append(req.Questions, transcribe.QuestionRecording{
					Question: q,
					Audio:    data,
					Filename: name,
				})
			}
		}
	}

	out, err := c.Processor.ProcessSession(ctx.Request().Context(), req)
	if err != nil {
		return c.HandleError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, out)
}

func readUpload(fh *multipart.FileHeader) ([]byte, string, error) {
	if fh.Size > maxUploadBytes {
		return nil, "", errors.Newf("upload %q exceeds the %d byte limit", fh.Filename, maxUploadBytes).
			Component("api").
			Category(errors.CategoryValidation).
			Build()
	}
	f, err := fh.Open()
	if err != nil {
		return nil, "", errors.New(err).
			Component("api").
			Category(errors.CategoryValidation).
			Build()
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(io.LimitReader(f, maxUploadBytes+1))
	if err != nil {
		return nil, "", errors.New(err).
			Component("api").
			Category(errors.CategoryGeneric).
			Build()
	}
	return data, fh.Filename, nil
}

// ownedSession loads a session and verifies the caller owns it.
func (c *Controller) ownedSession(ctx echo.Context, id string) (datastore.Session, error) {
	session, err := c.DS.GetSession(id)
	if err != nil {
		return datastore.Session{}, err
	}
	if session.ManagerID != managerID(ctx) {
		return datastore.Session{}, errors.Newf("manager %s does not own session %s", managerID(ctx), id).
			Component("api").
			Category(errors.CategoryAuthorization).
			Build()
	}
	return session, nil
}
