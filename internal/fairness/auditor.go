// Package fairness runs the bias audit over a generated draft: a fixed
// lexicon scan and a model-based fairness score, combined into a single
// verdict that decides whether the remediation loop fires.
package fairness

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jkoskela/vocalis/internal/logging"
	"github.com/jkoskela/vocalis/internal/provider"
	"github.com/jkoskela/vocalis/internal/synth"
)

// OptimisticFairnessScore is assumed when the AI scorer cannot be reached.
// The failure is absorbed, never surfaced.
const OptimisticFairnessScore = 0.8

// DefaultRemediationThreshold is the fairness score below which remediation
// fires even without lexicon hits.
const DefaultRemediationThreshold = 0.7

// Assessment is the combined outcome of both checks.
type Assessment struct {
	LexiconHits     []string `json:"lexiconHits"`
	AIFairnessScore float64  `json:"aiFairnessScore"`
	AIIssues        []string `json:"aiIssues"`
	CombinedHasBias bool     `json:"combinedHasBias"`

	// Degraded is set when the AI scorer failed and the optimistic
	// default was substituted.
	Degraded bool   `json:"-"`
	Reason   string `json:"-"`
}

// Issues returns the union of lexicon hits and AI-reported issues, for the
// remediation rewrite instruction.
func (a *Assessment) Issues() []string {
	seen := make(map[string]bool)
	var issues []string
	for _, hit := range a.LexiconHits {
		issue := fmt.Sprintf("loaded term %q", hit)
		if !seen[issue] {
			seen[issue] = true
			issues = append(issues, issue)
		}
	}
	for _, issue := range a.AIIssues {
		if issue != "" && !seen[issue] {
			seen[issue] = true
			issues = append(issues, issue)
		}
	}
	return issues
}

// Auditor runs fairness checks against drafts.
type Auditor struct {
	client    provider.Client
	threshold float64
	log       *slog.Logger
}

// New creates an auditor. A nil client disables the AI scorer; the lexicon
// scan still runs and the optimistic default score is used.
func New(client provider.Client, threshold float64) *Auditor {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultRemediationThreshold
	}
	return &Auditor{
		client:    client,
		threshold: threshold,
		log:       logging.ForService("fairness"),
	}
}

// Audit runs both checks over the serialized draft. The two checks are
// independent and order-independent; either can contribute to the verdict.
func (a *Auditor) Audit(ctx context.Context, draft synth.Draft) Assessment {
	serialized := serializeDraft(draft)

	assessment := Assessment{
		LexiconHits: scanLexicon(serialized),
		AIIssues:    []string{},
	}

	score, issues, err := a.scoreWithModel(ctx, serialized)
	if err != nil {
		a.log.Warn("AI fairness scorer unavailable, assuming optimistic default", "error", err)
		assessment.AIFairnessScore = OptimisticFairnessScore
		assessment.Degraded = true
		assessment.Reason = fmt.Sprintf("fairness scorer failed: %v", err)
	} else {
		assessment.AIFairnessScore = score
		assessment.AIIssues = issues
	}

	assessment.CombinedHasBias = len(assessment.LexiconHits) > 0 ||
		assessment.AIFairnessScore < a.threshold

	return assessment
}

const scorerSystemPrompt = `You are a fairness reviewer for workplace performance feedback.
Score how fair and unbiased the given feedback is. Respond with a single JSON
object: {"fairness": <number between 0 and 1>, "issues": ["specific problems found"]}.`

type scorerResponse struct {
	Fairness float64  `json:"fairness"`
	Issues   []string `json:"issues"`
}

func (a *Auditor) scoreWithModel(ctx context.Context, serialized string) (float64, []string, error) {
	if a.client == nil {
		return 0, nil, fmt.Errorf("no provider configured")
	}

	raw, err := a.client.Complete(ctx, scorerSystemPrompt, "Feedback to review:\n"+serialized)
	if err != nil {
		return 0, nil, err
	}

	obj := synth.ExtractJSONObject(raw)
	if obj == "" {
		return 0, nil, fmt.Errorf("no JSON object in scorer response")
	}

	var parsed scorerResponse
	if err := json.Unmarshal([]byte(obj), &parsed); err != nil {
		return 0, nil, fmt.Errorf("scorer response invalid json: %w", err)
	}

	if parsed.Fairness < 0 {
		parsed.Fairness = 0
	} else if parsed.Fairness > 1 {
		parsed.Fairness = 1
	}
	if parsed.Issues == nil {
		parsed.Issues = []string{}
	}
	return parsed.Fairness, parsed.Issues, nil
}

// serializeDraft flattens the draft into the text both checks scan.
func serializeDraft(draft synth.Draft) string {
	var sb strings.Builder
	sb.WriteString(draft.Summary)
	for _, s := range draft.Strengths {
		sb.WriteString("\n")
		sb.WriteString(s)
	}
	for _, s := range draft.Improvements {
		sb.WriteString("\n")
		sb.WriteString(s)
	}
	for _, c := range draft.Competencies {
		fmt.Fprintf(&sb, "\n%s: %s", c.Name, c.Evidence)
	}
	for _, s := range draft.LearningRecommendations {
		sb.WriteString("\n")
		sb.WriteString(s)
	}
	sb.WriteString("\n")
	sb.WriteString(draft.GrowthPath.ShortTerm)
	sb.WriteString("\n")
	sb.WriteString(draft.GrowthPath.MidTerm)
	sb.WriteString("\n")
	sb.WriteString(draft.GrowthPath.LongTerm)
	for _, m := range draft.GrowthPath.Milestones {
		sb.WriteString("\n")
		sb.WriteString(m)
	}
	return sb.String()
}
