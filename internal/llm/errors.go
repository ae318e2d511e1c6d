package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ProviderError classifies a failed provider call. Transient failures are
// retried by the router; permanent failures surface immediately.
type ProviderError struct {
	Provider  string
	Status    int
	Message   string
	Transient bool
}

func (e *ProviderError) Error() string {
	kind := "permanent"
	if e.Transient {
		kind = "transient"
	}
	return fmt.Sprintf("%s: %s error (status %d): %s", e.Provider, kind, e.Status, e.Message)
}

// classifyStatus maps an HTTP status to retryability. Rate limits,
// timeouts and server errors are transient; auth and malformed requests
// are not.
func classifyStatus(status int) bool {
	switch {
	case status == 408 || status == 429:
		return true
	case status >= 500:
		return true
	default:
		return false
	}
}

// IsTransient reports whether err should be retried under router policy.
// Network errors and deadline expiry count as transient; context
// cancellation does not.
func IsTransient(err error) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Transient
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne)
}

// GenerationError is the terminal routing failure surfaced to callers
// after retries and failover are exhausted.
type GenerationError struct {
	Task      string
	Transient bool
	Err       error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed for task %s: %v", e.Task, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}
