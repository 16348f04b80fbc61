package synth

import (
	"fmt"
	"strings"

	"github.com/jkoskela/vocalis/internal/conf"
	"github.com/jkoskela/vocalis/internal/extract"
)

const systemPrompt = `You are an experienced HR writing assistant. You turn a manager's spoken
performance feedback into a structured, fair, and specific written review.
Respond with a single JSON object and nothing else.`

var toneInstructions = map[string]string{
	conf.ToneAppreciative:  "Use an appreciative tone: lead with accomplishments and express genuine recognition.",
	conf.ToneDevelopmental: "Use a developmental tone: focus on growth opportunities framed constructively.",
	conf.ToneNeutral:       "Use a neutral, professional tone: balanced and matter-of-fact.",
}

// buildPrompt renders the single user prompt for a generation request. The
// rewrite instruction is appended only on the remediation pass.
func buildPrompt(transcript string, meta Metadata, features extract.Features, tone, rewriteInstruction string) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Employee: %s (%s)\n", meta.EmployeeName, meta.EmployeeRole)
	if meta.PriorSummary != "" {
		fmt.Fprintf(&sb, "Previous review summary: %s\n", meta.PriorSummary)
	}
	sb.WriteString("\nTranscript of the manager's spoken feedback:\n")
	sb.WriteString(transcript)
	sb.WriteString("\n\nSignals extracted from the transcript:\n")
	fmt.Fprintf(&sb, "- Mentioned work items: %s\n", orNone(features.Entities))
	fmt.Fprintf(&sb, "- Observed actions: %s\n", orNone(features.Actions))
	fmt.Fprintf(&sb, "- Reported outcomes: %s\n", orNone(features.Results))
	fmt.Fprintf(&sb, "- Overall sentiment: %s (%.2f)\n", features.Sentiment.Label, features.Sentiment.Score)

	sb.WriteString("\n")
	sb.WriteString(toneInstructions[tone])
	sb.WriteString("\n\nReturn a JSON object with exactly these keys:\n")
	sb.WriteString(`{
  "summary": "two to three sentence overview",
  "strengths": ["exactly 3 strengths grounded in the transcript"],
  "improvements": ["exactly 3 areas for improvement"],
  "competencies": [{"name": "...", "rating": 1-5, "evidence": "..."}],
  "learningRecommendations": ["2 to 3 concrete recommendations"],
  "growthPath": {"shortTerm": "...", "midTerm": "...", "longTerm": "...", "milestones": ["..."]}
}`)
	sb.WriteString("\nProvide 4 to 5 competencies. Ratings are integers from 1 to 5.\n")

	if rewriteInstruction != "" {
		sb.WriteString("\nIMPORTANT: ")
		sb.WriteString(rewriteInstruction)
		sb.WriteString("\n")
	}

	return sb.String()
}

// RewriteInstruction builds the remediation instruction from the union of
// lexicon terms and model-reported fairness issues.
func RewriteInstruction(issues []string) string {
	if len(issues) == 0 {
		return "Rewrite the feedback to remove any biased, loaded, or non-inclusive language while keeping the same structure, tone, and factual content."
	}
	return fmt.Sprintf(
		"A fairness review flagged the following issues: %s. Rewrite the feedback to resolve them while keeping the same structure, tone, and factual content.",
		strings.Join(issues, "; "))
}

func orNone(items []string) string {
	if len(items) == 0 {
		return "none detected"
	}
	return strings.Join(items, ", ")
}
