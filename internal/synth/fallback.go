package synth

import (
	"fmt"

	"github.com/jkoskela/vocalis/internal/extract"
)

// fallbackDraft builds a deterministic draft directly from the extracted
// features and a generic template. Used whenever the model's output cannot
// be obtained or parsed; every required key is always populated.
func fallbackDraft(meta Metadata, features extract.Features) Draft {
	name := meta.EmployeeName
	if name == "" {
		name = "The employee"
	}

	draft := Draft{
		Summary: fmt.Sprintf(
			"%s received feedback in this session. The overall sentiment of the conversation was %s. This draft was generated from extracted highlights because the writing assistant was unavailable; please review and edit before publishing.",
			name, features.Sentiment.Label),
		Strengths:    fallbackStrengths(features),
		Improvements: []string{
			"Continue developing consistency in day-to-day execution.",
			"Look for opportunities to share context with the wider team.",
			"Set aside time for deliberate skill development.",
		},
		Competencies: fallbackCompetencies(features),
		LearningRecommendations: []string{
			"Discuss a development focus with your manager for the next cycle.",
			"Identify one skill from this review to practice deliberately.",
		},
		GrowthPath: GrowthPath{
			ShortTerm: "Act on the improvement areas highlighted in this review.",
			MidTerm:   "Take ownership of a larger piece of work that stretches current skills.",
			LongTerm:  "Grow toward the next level of scope and responsibility in the current role.",
			Milestones: []string{
				"Agree on concrete goals in the next 1:1",
				"Mid-cycle check-in on progress",
				"Revisit this plan at the next review",
			},
		},
	}
	draft.normalize()
	return draft
}

func fallbackStrengths(features extract.Features) []string {
	var strengths []string
	for _, action := range features.Actions {
		strengths = append(strengths, fmt.Sprintf("Demonstrated initiative: %s.", action))
		if len(strengths) == 3 {
			return strengths
		}
	}
	for _, result := range features.Results {
		strengths = append(strengths, fmt.Sprintf("Delivered measurable outcomes: %s.", result))
		if len(strengths) == 3 {
			return strengths
		}
	}
	generic := []string{
		"Engaged constructively in the feedback conversation.",
		"Maintained steady contributions through the review period.",
		"Showed commitment to the team's goals.",
	}
	for _, g := range generic {
		if len(strengths) == 3 {
			break
		}
		strengths = append(strengths, g)
	}
	return strengths
}

func fallbackCompetencies(features extract.Features) []Competency {
	evidence := "Based on the recorded session."
	if len(features.Actions) > 0 {
		evidence = fmt.Sprintf("Transcript highlights: %s.", features.Actions[0])
	}
	return []Competency{
		{Name: "Communication", Rating: 3, Evidence: evidence},
		{Name: "Execution", Rating: 3, Evidence: evidence},
		{Name: "Collaboration", Rating: 3, Evidence: evidence},
		{Name: "Ownership", Rating: 3, Evidence: evidence},
	}
}
