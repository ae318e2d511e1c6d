package llm

import (
	"time"

	"researchd/internal/domain"
)

// CostTier classifies a model profile by relative price and capability.
type CostTier string

const (
	TierLow  CostTier = "low"
	TierHigh CostTier = "high"
)

// CostPolicy is the caller's stance on spend. Economy forces the low tier
// and disables escalation; Default follows the per-task routing table.
type CostPolicy string

const (
	PolicyDefault CostPolicy = "default"
	PolicyEconomy CostPolicy = "economy"
)

// Profile is a static model configuration. All cost-tier decisions key off
// profiles; callers never pick providers directly.
type Profile struct {
	Provider    string
	Model       string
	Tier        CostTier
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// Route is the dispatch plan for one task type.
type Route struct {
	Primary   Profile
	Secondary *Profile
	Escalate  bool
}

// temperatureFor returns the sampling temperature preset for a task.
// Summaries stay low for coherence; proofs are deterministic; prompt
// generation runs warmer.
func temperatureFor(task domain.TaskType) float64 {
	switch task {
	case domain.TaskMathProof:
		return 0.0
	case domain.TaskShortSummary, domain.TaskLongSummary, domain.TaskResearchSummary:
		return 0.6
	case domain.TaskPromptDraft, domain.TaskPromptBuilder:
		return 0.7
	default:
		return 0.6
	}
}

// escalatable tasks may fail over to the high tier after the low tier is
// exhausted. Document-analysis tasks start on the high tier already.
func escalatable(task domain.TaskType) bool {
	switch task {
	case domain.TaskShortSummary, domain.TaskPromptDraft:
		return true
	default:
		return false
	}
}

// tierFor maps a task to its primary cost tier: light prompt work runs on
// the low tier, document analysis on the high tier.
func tierFor(task domain.TaskType) CostTier {
	switch task {
	case domain.TaskLongSummary, domain.TaskResearchSummary, domain.TaskMathProof:
		return TierHigh
	default:
		return TierLow
	}
}
