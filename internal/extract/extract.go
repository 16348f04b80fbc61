// Package extract pulls structured features out of a transcript with fixed
// heuristics: pattern-based entity, action, and result extraction plus
// lexicon sentiment scoring. Everything here is pure and deterministic.
package extract

import (
	"regexp"
	"strings"
)

// MaxItems caps each extracted list.
const MaxItems = 10

// Sentiment label thresholds on the normalized score.
const (
	positiveThreshold = 0.2
	negativeThreshold = -0.2
)

// Sentiment is a normalized lexicon score with a coarse label.
type Sentiment struct {
	Score float64 `json:"score"` // within [-1, 1]
	Label string  `json:"label"` // positive, neutral, or negative
}

// Features holds everything the extractor found in a transcript.
type Features struct {
	Entities  []string  `json:"entities"`
	Actions   []string  `json:"actions"`
	Results   []string  `json:"results"`
	Sentiment Sentiment `json:"sentiment"`
}

var (
	// quoted substrings, single or double
	quotedRe = regexp.MustCompile(`["']([^"']+)["']`)

	// "project Phoenix", "task Atlas", "initiative Northstar"
	namedWorkRe = regexp.MustCompile(`(?:project|task|initiative)\s+([A-Z][A-Za-z0-9_-]*)`)

	// optional auxiliary verb, a fixed action verb, then up to three context words
	actionRe = regexp.MustCompile(`(?i)\b(?:(?:has|have|had|was|were|is|are)\s+)?(completed|delivered|implemented|launched|led|managed|improved|developed|created|designed|built|organized|resolved|mentored|coordinated)((?:\s+[A-Za-z0-9'%-]+){0,3})`)

	// clauses following outcome markers, up to the end of the clause
	resultRe = regexp.MustCompile(`(?i)\b(?:resulted in|achieved|led to|increased|decreased|improved|reduced)\s+([^.,;!?]+)`)
)

var positiveWords = []string{
	"excellent", "great", "good", "outstanding", "impressive", "strong",
	"improved", "increased", "achieved", "successful", "exceeded",
	"delivered", "reliable", "proactive", "effective", "efficient",
	"thorough", "consistent", "collaborative", "innovative",
}

var negativeWords = []string{
	"poor", "bad", "weak", "missed", "failed", "late", "decreased",
	"declined", "problem", "issue", "concern", "struggled", "inconsistent",
	"unreliable", "ineffective", "delayed", "confused", "frustrated",
}

// Extract runs all heuristic passes over a transcript. An empty transcript
// yields empty lists and a neutral zero sentiment.
func Extract(transcript string) Features {
	if strings.TrimSpace(transcript) == "" {
		return Features{Sentiment: Sentiment{Label: "neutral"}}
	}

	return Features{
		Entities:  extractEntities(transcript),
		Actions:   extractActions(transcript),
		Results:   extractResults(transcript),
		Sentiment: scoreSentiment(transcript),
	}
}

func extractEntities(transcript string) []string {
	var entities []string

	for _, m := range quotedRe.FindAllStringSubmatch(transcript, -1) {
		entities = append(entities, strings.TrimSpace(m[1]))
	}
	for _, m := range namedWorkRe.FindAllStringSubmatch(transcript, -1) {
		entities = append(entities, m[1])
	}

	return dedupeAndCap(entities)
}

func extractActions(transcript string) []string {
	var actions []string

	for _, m := range actionRe.FindAllStringSubmatch(transcript, -1) {
		phrase := m[1] + m[2]
		actions = append(actions, strings.TrimSpace(phrase))
	}

	return dedupeAndCap(actions)
}

func extractResults(transcript string) []string {
	var results []string

	for _, m := range resultRe.FindAllStringSubmatch(transcript, -1) {
		results = append(results, strings.TrimSpace(m[1]))
	}

	if len(results) > MaxItems {
		results = results[:MaxItems]
	}
	return results
}

// scoreSentiment counts lexicon hits, normalizes by dividing by 10, and
// clamps to [-1, 1]. The label is decided on the raw hit balance so a single
// clear hit is enough to leave neutral.
func scoreSentiment(transcript string) Sentiment {
	lower := strings.ToLower(transcript)

	sum := 0.0
	for _, w := range positiveWords {
		sum += float64(strings.Count(lower, w))
	}
	for _, w := range negativeWords {
		sum -= float64(strings.Count(lower, w))
	}

	label := "neutral"
	switch {
	case sum > positiveThreshold:
		label = "positive"
	case sum < negativeThreshold:
		label = "negative"
	}

	score := sum / 10
	if score > 1 {
		score = 1
	} else if score < -1 {
		score = -1
	}

	return Sentiment{Score: score, Label: label}
}

// dedupeAndCap removes duplicates preserving first occurrence order and
// truncates to MaxItems.
func dedupeAndCap(items []string) []string {
	seen := make(map[string]bool, len(items))
	var out []string
	for _, item := range items {
		if item == "" || seen[item] {
			continue
		}
		seen[item] = true
		out = append(out, item)
		if len(out) == MaxItems {
			break
		}
	}
	return out
}
