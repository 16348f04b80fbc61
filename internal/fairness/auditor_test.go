package fairness

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	verrors "github.com/jkoskela/vocalis/internal/errors"
	"github.com/jkoskela/vocalis/internal/synth"
)

type scriptedClient struct {
	response string
	err      error
	calls    int
}

func (c *scriptedClient) Complete(ctx context.Context, system, user string) (string, error) {
	c.calls++
	if c.err != nil {
		return "", c.err
	}
	return c.response, nil
}

func (c *scriptedClient) Transcribe(ctx context.Context, audio []byte, filename string) (string, error) {
	return "", verrors.NewStd("not implemented")
}

func draftWithSummary(summary string) synth.Draft {
	return synth.Draft{
		Summary:      summary,
		Strengths:    []string{"Solid delivery"},
		Improvements: []string{"More documentation"},
	}
}

func TestLexiconHitForcesBiasVerdict(t *testing.T) {
	t.Parallel()

	client := &scriptedClient{response: `{"fairness": 0.95, "issues": []}`}
	a := New(client, DefaultRemediationThreshold)

	assessment := a.Audit(t.Context(), draftWithSummary("She can be quite bossy in meetings."))

	assert.Equal(t, []string{"bossy"}, assessment.LexiconHits)
	assert.True(t, assessment.CombinedHasBias, "any lexicon hit must set the combined verdict")
	assert.InDelta(t, 0.95, assessment.AIFairnessScore, 1e-9)
}

func TestLowFairnessScoreTriggersWithoutLexiconHit(t *testing.T) {
	t.Parallel()

	client := &scriptedClient{response: `{"fairness": 0.4, "issues": ["unsupported generalizations"]}`}
	a := New(client, DefaultRemediationThreshold)

	assessment := a.Audit(t.Context(), draftWithSummary("Consistently delivers on commitments."))

	assert.Empty(t, assessment.LexiconHits)
	assert.True(t, assessment.CombinedHasBias)
	assert.Equal(t, []string{"unsupported generalizations"}, assessment.AIIssues)
}

func TestCleanDraftPasses(t *testing.T) {
	t.Parallel()

	client := &scriptedClient{response: `{"fairness": 0.9, "issues": []}`}
	a := New(client, DefaultRemediationThreshold)

	assessment := a.Audit(t.Context(), draftWithSummary("Consistently delivers on commitments."))

	assert.False(t, assessment.CombinedHasBias)
	assert.False(t, assessment.Degraded)
}

func TestScorerFailureDefaultsOptimistically(t *testing.T) {
	t.Parallel()

	client := &scriptedClient{err: verrors.NewStd("rate limited")}
	a := New(client, DefaultRemediationThreshold)

	assessment := a.Audit(t.Context(), draftWithSummary("Consistently delivers on commitments."))

	assert.InDelta(t, OptimisticFairnessScore, assessment.AIFairnessScore, 1e-9)
	assert.Empty(t, assessment.AIIssues)
	assert.True(t, assessment.Degraded, "fallback must be distinguishable from real output")
	assert.False(t, assessment.CombinedHasBias, "optimistic default sits above the threshold")
}

func TestScorerGarbageDefaultsOptimistically(t *testing.T) {
	t.Parallel()

	client := &scriptedClient{response: "no json here"}
	a := New(client, DefaultRemediationThreshold)

	assessment := a.Audit(t.Context(), draftWithSummary("Fine work."))
	assert.InDelta(t, OptimisticFairnessScore, assessment.AIFairnessScore, 1e-9)
	assert.True(t, assessment.Degraded)
}

func TestNilClientStillScansLexicon(t *testing.T) {
	t.Parallel()

	a := New(nil, DefaultRemediationThreshold)
	assessment := a.Audit(t.Context(), draftWithSummary("A great culture fit for the team."))

	assert.Equal(t, []string{"culture fit"}, assessment.LexiconHits)
	assert.True(t, assessment.CombinedHasBias)
	assert.True(t, assessment.Degraded)
}

func TestScoreClamped(t *testing.T) {
	t.Parallel()

	client := &scriptedClient{response: `{"fairness": 1.7, "issues": []}`}
	a := New(client, DefaultRemediationThreshold)

	assessment := a.Audit(t.Context(), draftWithSummary("Fine."))
	assert.Equal(t, 1.0, assessment.AIFairnessScore)
}

func TestLexiconScanCaseInsensitive(t *testing.T) {
	t.Parallel()

	hits := scanLexicon("He found her ABRASIVE and Emotional at times.")
	assert.Equal(t, []string{"abrasive", "emotional"}, hits)
}

func TestIssuesUnion(t *testing.T) {
	t.Parallel()

	a := Assessment{
		LexiconHits: []string{"bossy"},
		AIIssues:    []string{"tone imbalance", ""},
	}
	issues := a.Issues()
	assert.Equal(t, []string{`loaded term "bossy"`, "tone imbalance"}, issues)
}

func TestChecksAreOrderIndependent(t *testing.T) {
	t.Parallel()

	// same draft, scorer succeeding vs failing, lexicon result identical
	biased := draftWithSummary("Something of a diversity hire success story.")

	ok := New(&scriptedClient{response: `{"fairness": 0.9, "issues": []}`}, 0.7).Audit(t.Context(), biased)
	failed := New(&scriptedClient{err: verrors.NewStd("down")}, 0.7).Audit(t.Context(), biased)

	assert.Equal(t, ok.LexiconHits, failed.LexiconHits)
	assert.True(t, ok.CombinedHasBias)
	assert.True(t, failed.CombinedHasBias)
}
