package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"researchd/internal/domain"
)

type scriptedProvider struct {
	name  string
	calls int
	fn    func(call int, req CompletionRequest) (string, error)
}

func (p *scriptedProvider) Name() string {
	return p.name
}

func (p *scriptedProvider) Complete(_ context.Context, req CompletionRequest) (string, error) {
	p.calls++
	return p.fn(p.calls, req)
}

func noSleep(context.Context, time.Duration) error {
	return nil
}

func testRouter(low, high Provider) (*Router, *scriptedProvider, *scriptedProvider) {
	lowP := low.(*scriptedProvider)
	highP := high.(*scriptedProvider)
	r := NewRouter(RouterOptions{
		Providers:   []Provider{low, high},
		LowProfile:  Profile{Provider: lowP.name, Model: "free-model", Tier: TierLow, MaxTokens: 2048},
		HighProfile: Profile{Provider: highP.name, Model: "big-model", Tier: TierHigh, MaxTokens: 8192},
		MaxRetries:  2,
		BackoffBase: time.Millisecond,
		Logger:      zerolog.Nop(),
		Sleep:       noSleep,
	})
	return r, lowP, highP
}

func transientErr(provider string) error {
	return &ProviderError{Provider: provider, Status: 503, Message: "overloaded", Transient: true}
}

func TestDispatchSuccessFirstTry(t *testing.T) {
	low := &scriptedProvider{name: "lo", fn: func(int, CompletionRequest) (string, error) { return "ok", nil }}
	high := &scriptedProvider{name: "hi", fn: func(int, CompletionRequest) (string, error) { return "ok", nil }}
	r, lowP, highP := testRouter(low, high)

	out, err := r.Dispatch(context.Background(), domain.TaskPromptBuilder, Payload{Prompt: "p"}, PolicyDefault)
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if out.Text != "ok" || out.Provider != "lo" {
		t.Fatalf("out = %+v", out)
	}
	if lowP.calls != 1 || highP.calls != 0 {
		t.Fatalf("calls lo=%d hi=%d", lowP.calls, highP.calls)
	}
}

func TestPrimaryRetriedExactlyThreeTimes(t *testing.T) {
	// long_summary routes to the high tier with no secondary and no
	// escalation target above it: initial + 2 retries, then failure.
	low := &scriptedProvider{name: "lo", fn: func(int, CompletionRequest) (string, error) { return "", transientErr("lo") }}
	high := &scriptedProvider{name: "hi", fn: func(int, CompletionRequest) (string, error) { return "", transientErr("hi") }}
	r, _, highP := testRouter(low, high)

	_, err := r.Dispatch(context.Background(), domain.TaskLongSummary, Payload{Prompt: "p"}, PolicyDefault)
	if err == nil {
		t.Fatal("expected error")
	}
	if highP.calls != 3 {
		t.Fatalf("high-tier attempts = %d, want 3 (initial + 2 retries)", highP.calls)
	}
	var genErr *GenerationError
	if !errors.As(err, &genErr) || !genErr.Transient {
		t.Fatalf("err = %v, want transient GenerationError", err)
	}
}

func TestPermanentErrorNotRetried(t *testing.T) {
	low := &scriptedProvider{name: "lo", fn: func(int, CompletionRequest) (string, error) { return "ok", nil }}
	high := &scriptedProvider{name: "hi", fn: func(int, CompletionRequest) (string, error) {
		return "", &ProviderError{Provider: "hi", Status: 401, Message: "bad key"}
	}}
	r, _, highP := testRouter(low, high)

	_, err := r.Dispatch(context.Background(), domain.TaskMathProof, Payload{Prompt: "p"}, PolicyDefault)
	if err == nil {
		t.Fatal("expected error")
	}
	if highP.calls != 1 {
		t.Fatalf("attempts = %d, want 1 for a permanent error", highP.calls)
	}
	var genErr *GenerationError
	if !errors.As(err, &genErr) || genErr.Transient {
		t.Fatalf("err = %v, want permanent GenerationError", err)
	}
}

func TestEscalationAfterLowTierExhausted(t *testing.T) {
	low := &scriptedProvider{name: "lo", fn: func(int, CompletionRequest) (string, error) { return "", transientErr("lo") }}
	high := &scriptedProvider{name: "hi", fn: func(int, CompletionRequest) (string, error) { return "escalated", nil }}
	r, lowP, highP := testRouter(low, high)

	out, err := r.Dispatch(context.Background(), domain.TaskShortSummary, Payload{Prompt: "p"}, PolicyDefault)
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if lowP.calls != 3 {
		t.Fatalf("low attempts = %d, want 3", lowP.calls)
	}
	if highP.calls != 1 || out.Provider != "hi" {
		t.Fatalf("escalation missing: high=%d provider=%s", highP.calls, out.Provider)
	}
}

func TestEconomyPolicyBlocksEscalation(t *testing.T) {
	low := &scriptedProvider{name: "lo", fn: func(int, CompletionRequest) (string, error) { return "", transientErr("lo") }}
	high := &scriptedProvider{name: "hi", fn: func(int, CompletionRequest) (string, error) { return "ok", nil }}
	r, lowP, highP := testRouter(low, high)

	_, err := r.Dispatch(context.Background(), domain.TaskLongSummary, Payload{Prompt: "p"}, PolicyEconomy)
	if err == nil {
		t.Fatal("expected error")
	}
	if lowP.calls != 3 || highP.calls != 0 {
		t.Fatalf("calls lo=%d hi=%d, economy must stay on the low tier", lowP.calls, highP.calls)
	}
}

func TestSameTierSecondaryFailover(t *testing.T) {
	low := &scriptedProvider{name: "lo", fn: func(int, CompletionRequest) (string, error) { return "", transientErr("lo") }}
	second := &scriptedProvider{name: "lo2", fn: func(int, CompletionRequest) (string, error) { return "fallback", nil }}
	high := &scriptedProvider{name: "hi", fn: func(int, CompletionRequest) (string, error) { return "ok", nil }}

	r := NewRouter(RouterOptions{
		Providers:   []Provider{low, second, high},
		LowProfile:  Profile{Provider: "lo", Model: "free", Tier: TierLow},
		HighProfile: Profile{Provider: "hi", Model: "big", Tier: TierHigh},
		SecondaryFor: map[CostTier]Profile{
			TierLow: {Provider: "lo2", Model: "free-b", Tier: TierLow},
		},
		MaxRetries:  2,
		BackoffBase: time.Millisecond,
		Logger:      zerolog.Nop(),
		Sleep:       noSleep,
	})

	out, err := r.Dispatch(context.Background(), domain.TaskPromptBuilder, Payload{Prompt: "p"}, PolicyDefault)
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if out.Text != "fallback" || out.Provider != "lo2" {
		t.Fatalf("out = %+v, want secondary result", out)
	}
	if low.calls != 3 || second.calls != 1 || high.calls != 0 {
		t.Fatalf("calls lo=%d lo2=%d hi=%d", low.calls, second.calls, high.calls)
	}
}

func TestTemperaturePresetApplied(t *testing.T) {
	var seen float64
	high := &scriptedProvider{name: "hi", fn: func(_ int, req CompletionRequest) (string, error) {
		seen = req.Temperature
		return "ok", nil
	}}
	low := &scriptedProvider{name: "lo", fn: func(int, CompletionRequest) (string, error) { return "ok", nil }}
	r, _, _ := testRouter(low, high)

	if _, err := r.Dispatch(context.Background(), domain.TaskMathProof, Payload{Prompt: "p"}, PolicyDefault); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if seen != 0.0 {
		t.Fatalf("math_proof temperature = %v, want 0.0", seen)
	}
}
