package synth

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jkoskela/vocalis/internal/errors"
	"github.com/jkoskela/vocalis/internal/extract"
	"github.com/jkoskela/vocalis/internal/logging"
	"github.com/jkoskela/vocalis/internal/provider"
)

// Request is one generation call. RewriteInstruction is empty on the first
// pass and set by the remediation loop.
type Request struct {
	Transcript         string
	Meta               Metadata
	Features           extract.Features
	Tone               string
	RewriteInstruction string
}

// Synthesizer generates structured feedback drafts.
type Synthesizer struct {
	client provider.Client
	log    *slog.Logger
}

// New creates a synthesizer. The client may be nil; Generate then fails and
// HasProvider reports false so the remediation loop knows to skip rewrites.
func New(client provider.Client) *Synthesizer {
	return &Synthesizer{
		client: client,
		log:    logging.ForService("synth"),
	}
}

// HasProvider reports whether a generative model is available.
func (s *Synthesizer) HasProvider() bool {
	return s.client != nil
}

// Generate produces a feedback draft. Transient provider failures and
// unparseable responses degrade to the deterministic fallback; only two
// conditions surface as errors: no provider configured at all, and quota
// exhaustion on this primary path.
func (s *Synthesizer) Generate(ctx context.Context, req Request) (Result, error) {
	if s.client == nil {
		return Result{}, errors.Newf("no generative provider configured").
			Component("synth").
			Category(errors.CategoryProvider).
			Build()
	}

	prompt := buildPrompt(req.Transcript, req.Meta, req.Features, req.Tone, req.RewriteInstruction)

	raw, err := s.client.Complete(ctx, systemPrompt, prompt)
	if err != nil {
		if provider.IsQuotaExhausted(err) {
			return Result{}, err
		}
		s.log.Warn("model call failed, using fallback draft", "error", err)
		return Result{
			Draft:    fallbackDraft(req.Meta, req.Features),
			Degraded: true,
			Reason:   fmt.Sprintf("provider error: %v", err),
		}, nil
	}

	draft, parseErr := parseDraft(raw)
	if parseErr != nil {
		s.log.Warn("model response not parseable, using fallback draft", "error", parseErr)
		return Result{
			Draft:    fallbackDraft(req.Meta, req.Features),
			Degraded: true,
			Reason:   fmt.Sprintf("parse error: %v", parseErr),
		}, nil
	}

	return Result{Draft: draft}, nil
}

// parseDraft extracts the first balanced JSON object from the model text and
// unmarshals it into the draft schema.
func parseDraft(raw string) (Draft, error) {
	obj := ExtractJSONObject(raw)
	if obj == "" {
		return Draft{}, errors.Newf("no JSON object in model response").
			Component("synth").
			Category(errors.CategoryParse).
			Build()
	}

	var draft Draft
	if err := json.Unmarshal([]byte(obj), &draft); err != nil {
		return Draft{}, errors.New(err).
			Component("synth").
			Category(errors.CategoryParse).
			Build()
	}

	draft.normalize()
	return draft, nil
}
