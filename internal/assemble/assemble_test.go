package assemble

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jkoskela/vocalis/internal/synth"
)

func sampleDraft() synth.Draft {
	return synth.Draft{
		Summary:      "A strong quarter overall.",
		Strengths:    []string{"Shipped the migration", "Unblocked teammates"},
		Improvements: []string{"Estimate more conservatively"},
		Competencies: []synth.Competency{
			{Name: "Communication", Rating: 4, Evidence: "Clear design docs"},
			{Name: "", Rating: 3, Evidence: "should be skipped"},
			{Name: "Execution", Rating: 5, Evidence: "Landed early"},
		},
		LearningRecommendations: []string{"Systems design course"},
		GrowthPath: synth.GrowthPath{
			ShortTerm:  "Lead the next migration",
			MidTerm:    "Own a service area",
			LongTerm:   "Tech lead role",
			Milestones: []string{"Q1 scope agreed", "Mid-year check"},
		},
	}
}

func TestRenderSectionOrder(t *testing.T) {
	t.Parallel()

	md := Render(sampleDraft())

	sections := []string{
		"## Summary",
		"## Strengths",
		"## Areas for Improvement",
		"## Competency Assessment",
		"## Learning Recommendations",
		"## Growth Path",
	}
	last := -1
	for _, section := range sections {
		idx := strings.Index(md, section)
		require.GreaterOrEqual(t, idx, 0, "missing section %q", section)
		assert.Greater(t, idx, last, "section %q out of order", section)
		last = idx
	}
}

func TestRenderContent(t *testing.T) {
	t.Parallel()

	md := Render(sampleDraft())

	assert.Contains(t, md, "A strong quarter overall.")
	assert.Contains(t, md, "- Shipped the migration")
	assert.Contains(t, md, "- **Communication** (4/5): Clear design docs")
	assert.Contains(t, md, "- **Short term**: Lead the next migration")
	assert.Contains(t, md, "1. Q1 scope agreed")
	assert.NotContains(t, md, "should be skipped", "nameless competencies are dropped")
}

func TestRenderDeterministic(t *testing.T) {
	t.Parallel()

	d := sampleDraft()
	first := Render(d)
	for i := 0; i < 3; i++ {
		assert.Equal(t, first, Render(d))
	}
}

func TestRenderEmptyDraft(t *testing.T) {
	t.Parallel()

	md := Render(synth.Draft{})
	// headers survive even when the draft is empty
	assert.Contains(t, md, "## Summary")
	assert.Contains(t, md, "## Growth Path")
}

func TestCompetencyTags(t *testing.T) {
	t.Parallel()

	tags := CompetencyTags(sampleDraft())
	assert.Equal(t, []string{"Communication", "Execution"}, tags)
}

func TestCompetencyTagsTrimsWhitespaceNames(t *testing.T) {
	t.Parallel()

	tags := CompetencyTags(synth.Draft{Competencies: []synth.Competency{
		{Name: "  "},
		{Name: " Ownership "},
	}})
	assert.Equal(t, []string{"Ownership"}, tags)
}

func TestCompetencyTagsEmpty(t *testing.T) {
	t.Parallel()

	assert.Empty(t, CompetencyTags(synth.Draft{}))
}
