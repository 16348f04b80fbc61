package extract

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmptyTranscript(t *testing.T) {
	t.Parallel()

	for _, transcript := range []string{"", "   ", "\n\t"} {
		f := Extract(transcript)
		assert.Empty(t, f.Entities)
		assert.Empty(t, f.Actions)
		assert.Empty(t, f.Results)
		assert.Zero(t, f.Sentiment.Score)
		assert.Equal(t, "neutral", f.Sentiment.Label)
	}
}

func TestPhoenixScenario(t *testing.T) {
	t.Parallel()

	f := Extract("Team completed the 'Phoenix' project and increased throughput by 20%.")

	assert.Contains(t, f.Entities, "Phoenix")

	foundCompleted := false
	for _, a := range f.Actions {
		if strings.Contains(a, "completed") {
			foundCompleted = true
		}
	}
	assert.True(t, foundCompleted, "actions should include a phrase containing 'completed', got %v", f.Actions)

	assert.Equal(t, "positive", f.Sentiment.Label)
}

func TestEntities(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		transcript string
		want       []string
	}{
		{
			name:       "double quoted",
			transcript: `She drove the "Atlas migration" end to end.`,
			want:       []string{"Atlas migration"},
		},
		{
			name:       "named project pattern",
			transcript: "Work on project Borealis and task Vanguard went smoothly.",
			want:       []string{"Borealis", "Vanguard"},
		},
		{
			name:       "lowercase name not matched",
			transcript: "The project deadline slipped.",
			want:       nil,
		},
		{
			name:       "duplicates removed",
			transcript: `'Phoenix' again, 'Phoenix' always, project Phoenix forever.`,
			want:       []string{"Phoenix"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Extract(tt.transcript).Entities)
		})
	}
}

func TestEntitiesCapped(t *testing.T) {
	t.Parallel()

	var sb strings.Builder
	for i := 0; i < 15; i++ {
		fmt.Fprintf(&sb, "'Entity%d' ", i)
	}
	f := Extract(sb.String())
	assert.Len(t, f.Entities, MaxItems)
}

func TestActions(t *testing.T) {
	t.Parallel()

	f := Extract("He has delivered the billing revamp and was mentored by senior staff. She implemented caching across three services.")

	require.NotEmpty(t, f.Actions)
	joined := strings.Join(f.Actions, " | ")
	assert.Contains(t, joined, "delivered the billing revamp")
	assert.Contains(t, joined, "implemented caching across three")
}

func TestActionContextCappedAtThreeWords(t *testing.T) {
	t.Parallel()

	f := Extract("They completed one two three four five.")
	require.Len(t, f.Actions, 1)
	assert.Equal(t, "completed one two three", f.Actions[0])
}

func TestResults(t *testing.T) {
	t.Parallel()

	f := Extract("The refactor resulted in faster deploys, and the new tests reduced regressions. This achieved a stable release train.")

	assert.Contains(t, f.Results, "faster deploys")
	assert.Contains(t, f.Results, "regressions")
	assert.Contains(t, f.Results, "a stable release train")
}

func TestSentimentClamped(t *testing.T) {
	t.Parallel()

	positive := strings.Repeat("excellent great outstanding improved achieved successful ", 10)
	f := Extract(positive)
	assert.Equal(t, 1.0, f.Sentiment.Score)
	assert.Equal(t, "positive", f.Sentiment.Label)

	negative := strings.Repeat("poor bad weak missed failed late ", 10)
	f = Extract(negative)
	assert.Equal(t, -1.0, f.Sentiment.Score)
	assert.Equal(t, "negative", f.Sentiment.Label)
}

func TestSentimentNeutralOnBalance(t *testing.T) {
	t.Parallel()

	f := Extract("The release was good but the rollout had a problem.")
	assert.Equal(t, "neutral", f.Sentiment.Label)
	assert.Zero(t, f.Sentiment.Score)
}

func TestExtractIsDeterministic(t *testing.T) {
	t.Parallel()

	transcript := "Sam led the 'Helios' initiative, improved onboarding, and reduced churn by 5%."
	first := Extract(transcript)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Extract(transcript))
	}
}
