package fairness

import "strings"

// biasLexicon is the fixed list of biased or loaded terms scanned for in
// drafts. Matching is case-insensitive substring matching over the
// serialized draft.
var biasLexicon = []string{
	"abrasive",
	"aggressive",
	"articulate for",
	"bossy",
	"bubbly",
	"culture fit",
	"digital native",
	"diversity hire",
	"emotional",
	"feisty",
	"hysterical",
	"low energy",
	"manpower",
	"maternal",
	"mothering",
	"nagging",
	"not a team player type",
	"old-fashioned",
	"oversensitive",
	"shrill",
	"spinster",
	"young and energetic",
}

// scanLexicon returns the lexicon terms found in the text, in lexicon order.
func scanLexicon(text string) []string {
	lower := strings.ToLower(text)
	var hits []string
	for _, term := range biasLexicon {
		if strings.Contains(lower, term) {
			hits = append(hits, term)
		}
	}
	return hits
}
