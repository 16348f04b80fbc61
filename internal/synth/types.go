// Package synth builds the structured feedback draft: it prompts the
// generative model with the transcript, employee metadata, extracted
// features, and tone, parses the fixed JSON schema out of the response, and
// substitutes a deterministic template when the model cannot be used.
package synth

// Competency is one assessed competency with supporting evidence.
type Competency struct {
	Name     string `json:"name"`
	Rating   int    `json:"rating"` // 1-5
	Evidence string `json:"evidence"`
}

// GrowthPath lays out development horizons with concrete milestones.
type GrowthPath struct {
	ShortTerm  string   `json:"shortTerm"`
	MidTerm    string   `json:"midTerm"`
	LongTerm   string   `json:"longTerm"`
	Milestones []string `json:"milestones"`
}

// Draft is the fixed schema the model must return. Every field is always
// present after normalization, possibly empty, so downstream stages never
// branch on missing keys.
type Draft struct {
	Summary                 string       `json:"summary"`
	Strengths               []string     `json:"strengths"`
	Improvements            []string     `json:"improvements"`
	Competencies            []Competency `json:"competencies"`
	LearningRecommendations []string     `json:"learningRecommendations"`
	GrowthPath              GrowthPath   `json:"growthPath"`
}

// Metadata describes the employee the feedback is about.
type Metadata struct {
	EmployeeName string
	EmployeeRole string
	PriorSummary string
}

// Result carries the draft plus degradation tagging so callers can tell
// genuine model output from the templated fallback.
type Result struct {
	Draft    Draft
	Degraded bool
	Reason   string
}

// normalize guarantees that no slice field is nil.
func (d *Draft) normalize() {
	if d.Strengths == nil {
		d.Strengths = []string{}
	}
	if d.Improvements == nil {
		d.Improvements = []string{}
	}
	if d.Competencies == nil {
		d.Competencies = []Competency{}
	}
	if d.LearningRecommendations == nil {
		d.LearningRecommendations = []string{}
	}
	if d.GrowthPath.Milestones == nil {
		d.GrowthPath.Milestones = []string{}
	}
}
