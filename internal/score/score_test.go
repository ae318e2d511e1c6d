package score

import (
	"strings"
	"testing"

	"researchd/internal/pattern"
)

func composed(text string, categories []string, tags map[string]string, used []string) *pattern.ComposedPrompt {
	return &pattern.ComposedPrompt{
		Text:       text,
		Categories: categories,
		Tags:       tags,
		UsedTags:   used,
	}
}

func TestShortPromptHardGate(t *testing.T) {
	s := NewScorer(Options{LengthFloor: 64})
	res := s.Score(composed("too short", []string{"a", "b"}, map[string]string{"x": "1"}, []string{"x"}))
	if res.Score != 0 {
		t.Fatalf("Score = %v, want 0", res.Score)
	}
	if res.Accepted {
		t.Fatal("short prompt must be rejected")
	}
	for _, f := range res.Findings {
		if f.RuleID == RuleMinLength && f.Pass {
			t.Fatal("min_length finding should fail")
		}
	}
}

func TestAcceptedAboveThreshold(t *testing.T) {
	s := NewScorer(Options{})
	text := strings.Repeat("Work through the subject step by step. ", 5)
	res := s.Score(composed(text, []string{"reasoning_structure", "verification"},
		map[string]string{"topic": "x", "rules": "y"}, []string{"topic", "rules"}))
	if res.Score != 1.0 {
		t.Fatalf("Score = %v, want 1.0", res.Score)
	}
	if !res.Accepted {
		t.Fatal("expected accepted")
	}
	if len(res.Findings) != 5 {
		t.Fatalf("findings = %d, want 5", len(res.Findings))
	}
}

func TestWeightsSumToOne(t *testing.T) {
	s := NewScorer(Options{})
	res := s.Score(composed(strings.Repeat("x", 100), []string{"a", "b"},
		map[string]string{"t": "1"}, []string{"t"}))
	sum := 0.0
	for _, f := range res.Findings {
		sum += f.Weight
	}
	if sum < 0.999 || sum > 1.001 {
		t.Fatalf("weights sum = %v, want 1.0", sum)
	}
}

func TestForbiddenContentPenalized(t *testing.T) {
	s := NewScorer(Options{})
	clean := strings.Repeat("Summarize the document faithfully. ", 4)
	dirty := clean + " As a prompt engineer, in this prompt I will..."

	resClean := s.Score(composed(clean, []string{"a", "b"}, map[string]string{"t": "1"}, []string{"t"}))
	resDirty := s.Score(composed(dirty, []string{"a", "b"}, map[string]string{"t": "1"}, []string{"t"}))
	if resDirty.Score >= resClean.Score {
		t.Fatalf("forbidden content not penalized: %v >= %v", resDirty.Score, resClean.Score)
	}
}

func TestSingleCategoryLosesDiversityWeight(t *testing.T) {
	s := NewScorer(Options{})
	text := strings.Repeat("Explain the approach in detail. ", 4)
	one := s.Score(composed(text, []string{"a"}, map[string]string{"t": "1"}, []string{"t"}))
	two := s.Score(composed(text, []string{"a", "b"}, map[string]string{"t": "1"}, []string{"t"}))
	if two.Score-one.Score < 0.19 || two.Score-one.Score > 0.21 {
		t.Fatalf("diversity weight delta = %v, want 0.20", two.Score-one.Score)
	}
}

func TestLowTagUtilizationRejected(t *testing.T) {
	s := NewScorer(Options{})
	text := strings.Repeat("Explain the approach in detail. ", 4)
	tags := map[string]string{"a": "1", "b": "2", "c": "3", "d": "4"}
	res := s.Score(composed(text, []string{"x", "y"}, tags, []string{"a"}))
	for _, f := range res.Findings {
		if f.RuleID == RuleTagUtilization && f.Pass {
			t.Fatal("utilization 1/4 should fail the rule")
		}
	}
}
