package synth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jkoskela/vocalis/internal/conf"
	verrors "github.com/jkoskela/vocalis/internal/errors"
	"github.com/jkoskela/vocalis/internal/extract"
)

const validModelResponse = `Here is the structured feedback you asked for:
` + "```json" + `
{
  "summary": "Dana had a strong quarter.",
  "strengths": ["Shipped the migration", "Unblocked teammates", "Clear writing"],
  "improvements": ["Estimate more conservatively", "Delegate more", "Raise risks earlier"],
  "competencies": [
    {"name": "Communication", "rating": 4, "evidence": "Clear design docs"},
    {"name": "Execution", "rating": 5, "evidence": "Migration landed early"},
    {"name": "Collaboration", "rating": 4, "evidence": "Paired with juniors"},
    {"name": "Ownership", "rating": 4, "evidence": "Ran the incident review"}
  ],
  "learningRecommendations": ["Systems design course", "Mentoring workshop"],
  "growthPath": {
    "shortTerm": "Lead the next migration",
    "midTerm": "Own a service area",
    "longTerm": "Tech lead role",
    "milestones": ["Q1 scope agreed", "Mid-year check"]
  }
}
` + "```" + `
Let me know if you need changes.`

type scriptedClient struct {
	response string
	err      error
	prompts  []string
}

func (c *scriptedClient) Complete(ctx context.Context, system, user string) (string, error) {
	c.prompts = append(c.prompts, user)
	if c.err != nil {
		return "", c.err
	}
	return c.response, nil
}

func (c *scriptedClient) Transcribe(ctx context.Context, audio []byte, filename string) (string, error) {
	return "", verrors.NewStd("not implemented")
}

func testRequest() Request {
	return Request{
		Transcript: "Dana completed the 'Atlas' migration and improved deploy times.",
		Meta:       Metadata{EmployeeName: "Dana", EmployeeRole: "Backend Engineer"},
		Features:   extract.Extract("Dana completed the 'Atlas' migration and improved deploy times."),
		Tone:       conf.ToneAppreciative,
	}
}

func TestGenerateParsesModelResponse(t *testing.T) {
	t.Parallel()

	s := New(&scriptedClient{response: validModelResponse})
	res, err := s.Generate(t.Context(), testRequest())
	require.NoError(t, err)

	assert.False(t, res.Degraded)
	assert.Equal(t, "Dana had a strong quarter.", res.Draft.Summary)
	assert.Len(t, res.Draft.Strengths, 3)
	assert.Len(t, res.Draft.Competencies, 4)
	assert.Equal(t, "Lead the next migration", res.Draft.GrowthPath.ShortTerm)
}

func TestGenerateFallsBackOnProviderError(t *testing.T) {
	t.Parallel()

	s := New(&scriptedClient{err: verrors.NewStd("connection reset")})
	res, err := s.Generate(t.Context(), testRequest())
	require.NoError(t, err, "transient provider errors are absorbed")

	assert.True(t, res.Degraded)
	assert.Contains(t, res.Reason, "provider error")
	assertCompleteDraft(t, res.Draft)
}

func TestGenerateFallsBackOnUnparseableResponse(t *testing.T) {
	t.Parallel()

	s := New(&scriptedClient{response: "I'm sorry, I can't produce JSON today."})
	res, err := s.Generate(t.Context(), testRequest())
	require.NoError(t, err, "parse failures are absorbed")

	assert.True(t, res.Degraded)
	assert.Contains(t, res.Reason, "parse error")
	assertCompleteDraft(t, res.Draft)
}

func TestGenerateSurfacesQuotaExhaustion(t *testing.T) {
	t.Parallel()

	quotaErr := verrors.Newf("429 too many requests").Category(verrors.CategoryProviderQuota).Build()
	s := New(&scriptedClient{err: quotaErr})

	_, err := s.Generate(t.Context(), testRequest())
	require.Error(t, err)
	assert.True(t, verrors.IsCategory(err, verrors.CategoryProviderQuota))
}

func TestGenerateNoProviderSurfaces(t *testing.T) {
	t.Parallel()

	s := New(nil)
	assert.False(t, s.HasProvider())

	_, err := s.Generate(t.Context(), testRequest())
	require.Error(t, err)
	assert.True(t, verrors.IsCategory(err, verrors.CategoryProvider))
}

func TestRewriteInstructionIncludedInPrompt(t *testing.T) {
	t.Parallel()

	client := &scriptedClient{response: validModelResponse}
	s := New(client)

	req := testRequest()
	req.RewriteInstruction = RewriteInstruction([]string{"gendered language", "culture fit"})
	_, err := s.Generate(t.Context(), req)
	require.NoError(t, err)

	require.Len(t, client.prompts, 1)
	assert.Contains(t, client.prompts[0], "gendered language")
	assert.Contains(t, client.prompts[0], "culture fit")
}

func TestFallbackDraftUsesFeatures(t *testing.T) {
	t.Parallel()

	features := extract.Extract("Sam implemented caching quickly and reduced latency by 40%.")
	draft := fallbackDraft(Metadata{EmployeeName: "Sam"}, features)

	require.Len(t, draft.Strengths, 3)
	assert.Contains(t, draft.Strengths[0], "implemented caching")
	assertCompleteDraft(t, draft)
}

func TestFallbackDraftEmptyFeatures(t *testing.T) {
	t.Parallel()

	draft := fallbackDraft(Metadata{}, extract.Extract(""))
	assertCompleteDraft(t, draft)
	assert.Len(t, draft.Strengths, 3)
	assert.Contains(t, draft.Summary, "The employee")
}

// assertCompleteDraft checks the invariant that every required key of the
// schema is populated, even on the fallback path.
func assertCompleteDraft(t *testing.T, d Draft) {
	t.Helper()
	assert.NotEmpty(t, d.Summary)
	assert.NotNil(t, d.Strengths)
	assert.NotNil(t, d.Improvements)
	assert.NotNil(t, d.Competencies)
	assert.NotNil(t, d.LearningRecommendations)
	assert.NotNil(t, d.GrowthPath.Milestones)
	assert.NotEmpty(t, d.GrowthPath.ShortTerm)
	assert.NotEmpty(t, d.GrowthPath.MidTerm)
	assert.NotEmpty(t, d.GrowthPath.LongTerm)
}

func TestExtractJSONObject(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare object", `{"a":1}`, `{"a":1}`},
		{"prose around", `sure: {"a":1} hope that helps`, `{"a":1}`},
		{"nested braces", `{"a":{"b":2}}`, `{"a":{"b":2}}`},
		{"brace inside string", `{"a":"}"}`, `{"a":"}"}`},
		{"escaped quote", `{"a":"say \"hi\" {"}`, `{"a":"say \"hi\" {"}`},
		{"unbalanced", `{"a":1`, ""},
		{"no object", `nothing here`, ""},
		{"first of two", `{"a":1}{"b":2}`, `{"a":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ExtractJSONObject(tt.in))
		})
	}
}
