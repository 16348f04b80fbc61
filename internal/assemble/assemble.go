// Package assemble deterministically renders a structured feedback draft
// into canonical markdown and derives the competency tag list. The rendered
// markdown is the persisted value for both the AI draft and the editable
// final text.
package assemble

import (
	"fmt"
	"strings"

	"github.com/jkoskela/vocalis/internal/synth"
)

// Render produces the canonical markdown document for a draft.
// Sections appear in fixed order; empty sections are still emitted with
// their headers so edits keep a stable shape.
func Render(draft synth.Draft) string {
	var sb strings.Builder

	sb.WriteString("## Summary\n\n")
	sb.WriteString(draft.Summary)
	sb.WriteString("\n")

	writeListSection(&sb, "Strengths", draft.Strengths)
	writeListSection(&sb, "Areas for Improvement", draft.Improvements)

	sb.WriteString("\n## Competency Assessment\n\n")
	for _, c := range draft.Competencies {
		if c.Name == "" {
			continue
		}
		fmt.Fprintf(&sb, "- **%s** (%d/5): %s\n", c.Name, c.Rating, c.Evidence)
	}

	writeListSection(&sb, "Learning Recommendations", draft.LearningRecommendations)

	sb.WriteString("\n## Growth Path\n\n")
	fmt.Fprintf(&sb, "- **Short term**: %s\n", draft.GrowthPath.ShortTerm)
	fmt.Fprintf(&sb, "- **Mid term**: %s\n", draft.GrowthPath.MidTerm)
	fmt.Fprintf(&sb, "- **Long term**: %s\n", draft.GrowthPath.LongTerm)
	if len(draft.GrowthPath.Milestones) > 0 {
		sb.WriteString("\nMilestones:\n")
		for _, m := range draft.GrowthPath.Milestones {
			fmt.Fprintf(&sb, "1. %s\n", m)
		}
	}

	return sb.String()
}

// CompetencyTags derives the tag list from the draft's competency names,
// filtering out empty names. Tags are never independently edited.
func CompetencyTags(draft synth.Draft) []string {
	var tags []string
	for _, c := range draft.Competencies {
		if name := strings.TrimSpace(c.Name); name != "" {
			tags = append(tags, name)
		}
	}
	return tags
}

func writeListSection(sb *strings.Builder, title string, items []string) {
	sb.WriteString("\n## ")
	sb.WriteString(title)
	sb.WriteString("\n\n")
	for _, item := range items {
		fmt.Fprintf(sb, "- %s\n", item)
	}
}
