// Package llm routes generation work to model providers by cost tier,
// with retry, failover and optional escalation. It is the only package
// that crosses the boundary to external model providers.
package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"researchd/internal/domain"
)

// Provider is one external generation capability.
type Provider interface {
	Name() string
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// CompletionRequest carries one chat-completion call.
type CompletionRequest struct {
	Model       string
	System      string
	Prompt      string
	Temperature float64
	MaxTokens   int
}

// Payload is the router input: an optional system framing plus the prompt
// text. The router never interprets either.
type Payload struct {
	System string
	Prompt string
}

// Output is a successful dispatch: raw text plus dispatch metadata.
type Output struct {
	Text           string
	Provider       string
	Model          string
	TokensEstimate int
}

// RouterOptions wires a Router.
type RouterOptions struct {
	Providers   []Provider
	LowProfile  Profile
	HighProfile Profile
	// SecondaryFor maps a tier to an optional same-tier fallback profile.
	SecondaryFor map[CostTier]Profile
	MaxRetries   int
	BackoffBase  time.Duration
	Logger       zerolog.Logger
	// Sleep is replaceable in tests. Defaults to a context-aware wait.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Router maps (task type, cost policy) to a model profile and executes the
// dispatch plan.
type Router struct {
	providers   map[string]Provider
	low         Profile
	high        Profile
	secondaries map[CostTier]Profile
	maxRetries  int
	backoffBase time.Duration
	logger      zerolog.Logger
	sleep       func(ctx context.Context, d time.Duration) error
}

func NewRouter(opts RouterOptions) *Router {
	providers := make(map[string]Provider, len(opts.Providers))
	for _, p := range opts.Providers {
		providers[p.Name()] = p
	}
	r := &Router{
		providers:   providers,
		low:         opts.LowProfile,
		high:        opts.HighProfile,
		secondaries: opts.SecondaryFor,
		maxRetries:  opts.MaxRetries,
		backoffBase: opts.BackoffBase,
		logger:      opts.Logger,
		sleep:       opts.Sleep,
	}
	if r.maxRetries < 0 {
		r.maxRetries = 0
	}
	if r.backoffBase <= 0 {
		r.backoffBase = 500 * time.Millisecond
	}
	if r.sleep == nil {
		r.sleep = waitCtx
	}
	return r
}

// Dispatch executes the task payload against the routed profile chain:
// primary with retries, then a same-tier secondary if configured, then the
// high tier when the task permits escalation. Permanent provider errors
// abort the chain immediately.
func (r *Router) Dispatch(ctx context.Context, task domain.TaskType, payload Payload, policy CostPolicy) (*Output, error) {
	route := r.route(task, policy)

	chain := []Profile{route.Primary}
	if route.Secondary != nil {
		chain = append(chain, *route.Secondary)
	}
	if route.Escalate && route.Primary.Tier != TierHigh {
		escalated := r.high
		escalated.Temperature = route.Primary.Temperature
		chain = append(chain, escalated)
	}

	var lastErr error
	for _, profile := range chain {
		out, err := r.attempt(ctx, task, profile, payload)
		if err == nil {
			return out, nil
		}
		lastErr = err
		if !IsTransient(err) {
			return nil, &GenerationError{Task: string(task), Transient: false, Err: err}
		}
		r.logger.Warn().
			Str("task", string(task)).
			Str("provider", profile.Provider).
			Str("model", profile.Model).
			Err(err).
			Msg("profile exhausted, failing over")
	}
	return nil, &GenerationError{Task: string(task), Transient: true, Err: lastErr}
}

// route resolves the profile chain for a task under a cost policy.
func (r *Router) route(task domain.TaskType, policy CostPolicy) Route {
	tier := tierFor(task)
	if policy == PolicyEconomy {
		tier = TierLow
	}

	primary := r.low
	if tier == TierHigh {
		primary = r.high
	}
	primary.Temperature = temperatureFor(task)

	route := Route{Primary: primary}
	if sec, ok := r.secondaries[primary.Tier]; ok {
		sec.Temperature = primary.Temperature
		route.Secondary = &sec
	}
	if policy != PolicyEconomy {
		route.Escalate = escalatable(task)
	}
	return route
}

// attempt runs one profile: the initial call plus up to maxRetries retries
// with exponential backoff, each under the profile timeout.
func (r *Router) attempt(ctx context.Context, task domain.TaskType, profile Profile, payload Payload) (*Output, error) {
	provider, ok := r.providers[profile.Provider]
	if !ok {
		return nil, fmt.Errorf("no provider registered for %q", profile.Provider)
	}

	var lastErr error
	for try := 0; try <= r.maxRetries; try++ {
		if try > 0 {
			backoff := r.backoffBase << (try - 1)
			if err := r.sleep(ctx, backoff); err != nil {
				return nil, err
			}
		}

		callCtx := ctx
		var cancel context.CancelFunc
		if profile.Timeout > 0 {
			callCtx, cancel = context.WithTimeout(ctx, profile.Timeout)
		}
		text, err := provider.Complete(callCtx, CompletionRequest{
			Model:       profile.Model,
			System:      payload.System,
			Prompt:      payload.Prompt,
			Temperature: profile.Temperature,
			MaxTokens:   profile.MaxTokens,
		})
		if cancel != nil {
			cancel()
		}
		if err == nil {
			return &Output{
				Text:           text,
				Provider:       provider.Name(),
				Model:          profile.Model,
				TokensEstimate: estimateTokens(text),
			}, nil
		}
		lastErr = err
		if !IsTransient(err) {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		r.logger.Debug().
			Str("task", string(task)).
			Str("provider", profile.Provider).
			Int("try", try+1).
			Err(err).
			Msg("transient provider failure")
	}
	return nil, lastErr
}

// estimateTokens approximates the token count of generated text. Four
// characters per token is close enough for cost accounting.
func estimateTokens(text string) int {
	return (len(text) + 3) / 4
}

func waitCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
