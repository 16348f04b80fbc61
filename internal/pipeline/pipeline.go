// Package pipeline orchestrates a full processing run for a recorded
// session: transcription, feature extraction, draft synthesis, the fairness
// audit with its single remediation rewrite, and assembly into the
// persisted draft.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jkoskela/vocalis/internal/assemble"
	"github.com/jkoskela/vocalis/internal/conf"
	"github.com/jkoskela/vocalis/internal/datastore"
	"github.com/jkoskela/vocalis/internal/errors"
	"github.com/jkoskela/vocalis/internal/extract"
	"github.com/jkoskela/vocalis/internal/fairness"
	"github.com/jkoskela/vocalis/internal/logging"
	"github.com/jkoskela/vocalis/internal/observability/metrics"
	"github.com/jkoskela/vocalis/internal/provider"
	"github.com/jkoskela/vocalis/internal/synth"
	"github.com/jkoskela/vocalis/internal/transcribe"
)

// Request describes one processing run. In full recording mode Audio holds
// the whole recording; in per-question mode Questions carries the ordered
// answers instead.
type Request struct {
	SessionID string
	ManagerID string
	Audio     []byte
	Filename  string
	Questions []transcribe.QuestionRecording
	Tone      string
}

// Output is the result the caller gets back after a run.
type Output struct {
	DraftID       string              `json:"draftId"`
	DraftText     string              `json:"draftText"`
	Transcript    string              `json:"transcript"`
	ExtractedData extract.Features    `json:"extractedData"`
	BiasCheck     fairness.Assessment `json:"biasCheck"`
	FairnessScore float64             `json:"fairnessScore"`
	Degraded      bool                `json:"degraded"`
	DegradedNotes []string            `json:"degradedNotes,omitempty"`
}

// Processor wires the stages together over a shared provider client.
type Processor struct {
	ds          datastore.Interface
	settings    *conf.Settings
	transcriber *transcribe.Adapter
	synthesizer *synth.Synthesizer
	auditor     *fairness.Auditor
	metrics     *metrics.PipelineMetrics
	log         *slog.Logger
}

// New builds a processor. client may be nil when no provider is configured;
// transcription then degrades and synthesis fails with a provider error.
func New(ds datastore.Interface, settings *conf.Settings, client provider.Client, m *metrics.PipelineMetrics) *Processor {
	return &Processor{
		ds:          ds,
		settings:    settings,
		transcriber: transcribe.New(client),
		synthesizer: synth.New(client),
		auditor:     fairness.New(client, settings.Feedback.FairnessThreshold),
		metrics:     m,
		log:         logging.ForService("pipeline"),
	}
}

// ProcessSession runs the pipeline for one session. All validation and
// authorization happens before any external call is made; a run that fails
// validation never touches the provider.
func (p *Processor) ProcessSession(ctx context.Context, req Request) (Output, error) {
	start := time.Now()

	session, tone, err := p.validate(req)
	if err != nil {
		return Output{}, err
	}

	if session.Status == datastore.StatusRecording {
		if err := p.ds.UpdateSessionStatus(session.ID, datastore.StatusProcessing); err != nil {
			return Output{}, err
		}
	}

	var notes []string

	// A retried run reuses the transcript from the failed attempt; the
	// transcript column is write-once.
	transcript := session.Transcript
	if transcript == "" {
		tr := p.transcriber.Transcribe(ctx, req.Audio, req.Filename, session.RecordingMode, req.Questions)
		transcript = tr.Text
		if tr.Degraded {
			p.metrics.RecordFallback("transcription")
			notes = append(notes, "transcription: "+tr.Reason)
			p.log.Warn("transcription degraded", "session_id", session.ID, "reason", tr.Reason)
		}
		if err := p.ds.SetSessionTranscript(session.ID, transcript); err != nil {
			return Output{}, err
		}
	}

	features := extract.Extract(transcript)

	synthReq := synth.Request{
		Transcript: transcript,
		Meta: synth.Metadata{
			EmployeeName: session.EmployeeName,
			EmployeeRole: session.EmployeeRole,
			PriorSummary: session.PriorSummary,
		},
		Features: features,
		Tone:     tone,
	}
	draftRes, err := p.synthesizer.Generate(ctx, synthReq)
	if err != nil {
		p.metrics.RecordRun("error", time.Since(start).Seconds())
		return Output{}, err
	}
	if draftRes.Degraded {
		p.metrics.RecordFallback("synthesis")
		notes = append(notes, "synthesis: "+draftRes.Reason)
	}
	draft := draftRes.Draft

	assessment := p.auditor.Audit(ctx, draft)
	if assessment.Degraded {
		p.metrics.RecordFallback("fairness")
		notes = append(notes, "fairness: "+assessment.Reason)
	}

	// At most one remediation rewrite. The rewrite is accepted as-is; a
	// failed rewrite keeps the flagged draft and its audit verdict.
	if assessment.CombinedHasBias && p.synthesizer.HasProvider() {
		p.metrics.RecordRemediation()
		rewriteReq := synthReq
		rewriteReq.RewriteInstruction = synth.RewriteInstruction(assessment.Issues())
		rewritten, rerr := p.synthesizer.Generate(ctx, rewriteReq)
		switch {
		case rerr != nil:
			p.log.Warn("remediation rewrite failed, keeping flagged draft",
				"session_id", session.ID, "error", rerr)
		case rewritten.Degraded:
			p.log.Warn("remediation rewrite degraded, keeping flagged draft",
				"session_id", session.ID, "reason", rewritten.Reason)
		default:
			draft = rewritten.Draft
			p.log.Info("remediation rewrite applied",
				"session_id", session.ID, "issues", assessment.Issues())
		}
	}

	rendered := assemble.Render(draft)

	entry := datastore.FeedbackEntry{
		ID:            uuid.NewString(),
		SessionID:     session.ID,
		AIDraft:       rendered,
		FinalFeedback: rendered,
		Sentiment:     features.Sentiment.Score,
		HasBias:       assessment.CombinedHasBias,
		FairnessScore: assessment.AIFairnessScore,
		SelectedTone:  tone,
	}
	entry.SetTags(assemble.CompetencyTags(draft))

	if err := p.ds.SaveFeedback(&entry); err != nil {
		p.metrics.RecordRun("error", time.Since(start).Seconds())
		return Output{}, err
	}
	if err := p.ds.UpdateSessionStatus(session.ID, datastore.StatusDraft); err != nil {
		return Output{}, err
	}

	outcome := "ok"
	if len(notes) > 0 {
		outcome = "degraded"
	}
	p.metrics.RecordRun(outcome, time.Since(start).Seconds())
	p.log.Info("pipeline run complete",
		"session_id", session.ID,
		"draft_id", entry.ID,
		"outcome", outcome,
		"has_bias", assessment.CombinedHasBias,
		"fairness_score", assessment.AIFairnessScore,
		"duration", time.Since(start))

	return Output{
		DraftID:       entry.ID,
		DraftText:     rendered,
		Transcript:    transcript,
		ExtractedData: features,
		BiasCheck:     assessment,
		FairnessScore: assessment.AIFairnessScore,
		Degraded:      len(notes) > 0,
		DegradedNotes: notes,
	}, nil
}

// validate loads the session and checks everything that must hold before
// external calls: ownership, tone, processable status, and that no draft
// exists yet.
func (p *Processor) validate(req Request) (datastore.Session, string, error) {
	tone := req.Tone
	if tone == "" {
		tone = p.settings.Feedback.DefaultTone
	}
	if tone == "" {
		tone = conf.ToneNeutral
	}
	if !conf.ValidTone(tone) {
		return datastore.Session{}, "", errors.Newf("unknown tone %q", tone).
			Component("pipeline").
			Category(errors.CategoryValidation).
			Build()
	}

	session, err := p.ds.GetSession(req.SessionID)
	if err != nil {
		return datastore.Session{}, "", err
	}
	if session.ManagerID != req.ManagerID {
		return datastore.Session{}, "", errors.Newf("manager %s does not own session %s", req.ManagerID, session.ID).
			Component("pipeline").
			Category(errors.CategoryAuthorization).
			SessionContext(session.ID, session.Status).
			Build()
	}
	// Recording is the normal entry point; processing is allowed so an
	// interrupted run can be retried.
	if session.Status != datastore.StatusRecording && session.Status != datastore.StatusProcessing {
		return datastore.Session{}, "", errors.Newf("session %s is %s, not ready for processing", session.ID, session.Status).
			Component("pipeline").
			Category(errors.CategoryState).
			SessionContext(session.ID, session.Status).
			Build()
	}
	if _, err := p.ds.GetFeedbackBySession(session.ID); err == nil {
		return datastore.Session{}, "", errors.Newf("session %s already has a draft", session.ID).
			Component("pipeline").
			Category(errors.CategoryConflict).
			SessionContext(session.ID, session.Status).
			Build()
	} else if !errors.IsNotFound(err) {
		return datastore.Session{}, "", err
	}
	return session, tone, nil
}
