// Package score evaluates composed prompts against heuristic quality rules.
package score

import (
	"strings"

	"researchd/internal/pattern"
)

// Rule identifiers reported in findings.
const (
	RuleMinLength        = "min_length"
	RuleSlotResolution   = "slot_resolution"
	RulePatternDiversity = "pattern_diversity"
	RuleForbiddenContent = "forbidden_content"
	RuleTagUtilization   = "tag_utilization"
)

// Rule weights sum to 1.0.
const (
	weightMinLength        = 0.25
	weightSlotResolution   = 0.15
	weightPatternDiversity = 0.20
	weightForbiddenContent = 0.20
	weightTagUtilization   = 0.20
)

// tagUtilizationFloor is the consumed/supplied ratio at which the
// utilization rule passes.
const tagUtilizationFloor = 0.75

// defaultForbidden are meta-talk markers that indicate tool leakage into
// the prompt text.
var defaultForbidden = []string{
	"as a prompt engineer",
	"in this prompt",
	"this prompt should",
}

// Finding is one rule evaluation inside a Result.
type Finding struct {
	RuleID string  `json:"rule_id"`
	Pass   bool    `json:"pass"`
	Weight float64 `json:"weight"`
}

// Result is the outcome of scoring one composed prompt. It is advisory:
// the scorer never persists or discards anything.
type Result struct {
	Score    float64   `json:"score"`
	Accepted bool      `json:"accepted"`
	Findings []Finding `json:"findings"`
}

// Options configures a Scorer. Zero values fall back to policy defaults.
type Options struct {
	LengthFloor int
	Threshold   float64
	Forbidden   []string
}

// Scorer applies the heuristic rule set.
type Scorer struct {
	lengthFloor int
	threshold   float64
	forbidden   []string
}

func NewScorer(opts Options) *Scorer {
	s := &Scorer{
		lengthFloor: opts.LengthFloor,
		threshold:   opts.Threshold,
		forbidden:   opts.Forbidden,
	}
	if s.lengthFloor <= 0 {
		s.lengthFloor = 64
	}
	if s.threshold <= 0 {
		s.threshold = 0.6
	}
	if len(s.forbidden) == 0 {
		s.forbidden = defaultForbidden
	}
	return s
}

// Score evaluates the composed prompt. The minimum-length rule is a hard
// gate: below the floor the score is forced to 0 and the prompt rejected
// regardless of the other rules.
func (s *Scorer) Score(p *pattern.ComposedPrompt) Result {
	lengthOK := len(p.Text) >= s.lengthFloor
	diversityOK := distinctCategories(p.Categories) >= 2
	forbiddenOK := !containsForbidden(p.Text, s.forbidden)
	utilizationOK := utilizationRatio(p) >= tagUtilizationFloor

	findings := []Finding{
		{RuleID: RuleMinLength, Pass: lengthOK, Weight: weightMinLength},
		// Composer validation already rejected unresolved slots.
		{RuleID: RuleSlotResolution, Pass: true, Weight: weightSlotResolution},
		{RuleID: RulePatternDiversity, Pass: diversityOK, Weight: weightPatternDiversity},
		{RuleID: RuleForbiddenContent, Pass: forbiddenOK, Weight: weightForbiddenContent},
		{RuleID: RuleTagUtilization, Pass: utilizationOK, Weight: weightTagUtilization},
	}

	if !lengthOK {
		return Result{Score: 0, Accepted: false, Findings: findings}
	}

	total := 0.0
	for _, f := range findings {
		if f.Pass {
			total += f.Weight
		}
	}
	return Result{
		Score:    total,
		Accepted: total >= s.threshold,
		Findings: findings,
	}
}

// Threshold returns the configured acceptance threshold.
func (s *Scorer) Threshold() float64 {
	return s.threshold
}

func distinctCategories(categories []string) int {
	seen := make(map[string]struct{}, len(categories))
	for _, c := range categories {
		if c = strings.TrimSpace(c); c != "" {
			seen[c] = struct{}{}
		}
	}
	return len(seen)
}

func containsForbidden(text string, forbidden []string) bool {
	lower := strings.ToLower(text)
	for _, marker := range forbidden {
		if strings.Contains(lower, strings.ToLower(marker)) {
			return true
		}
	}
	return false
}

func utilizationRatio(p *pattern.ComposedPrompt) float64 {
	if len(p.Tags) == 0 {
		return 1
	}
	return float64(len(p.UsedTags)) / float64(len(p.Tags))
}
