// Package resilience wraps sony/gobreaker/v2 with logging and defaults.
// Used by the Broker Adapter (per-broker breaker) and the Tool Gateway
// (per-tool breaker).
package resilience

import (
	"context"
	"fmt"
	"time"

	"github.com/sony/gobreaker/v2"

	"tradegate/internal/observability"
)

// CircuitBreakerConfig configures a CircuitBreaker.
type CircuitBreakerConfig struct {
	Name        string
	MaxRequests uint32
	Interval    time.Duration
	Timeout     time.Duration
	MaxFailures uint32

	// ReadyToTrip overrides the default trip condition. Callers that need
	// the breaker to open solely on a consecutive-failure count (no
	// request-volume/ratio component) should set this explicitly rather
	// than rely on the default, which also trips early on a bursty
	// failure ratio.
	ReadyToTrip func(counts gobreaker.Counts) bool
}

// DefaultConfig returns sensible defaults for a circuit breaker named name.
func DefaultConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:        name,
		MaxRequests: 3,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
		MaxFailures: 5,
	}
}

// ConsecutiveFailuresTrip returns a ReadyToTrip func that opens the
// breaker only once ConsecutiveFailures reaches maxFailures, ignoring
// request volume and failure ratio entirely.
func ConsecutiveFailuresTrip(maxFailures uint32) func(counts gobreaker.Counts) bool {
	return func(counts gobreaker.Counts) bool {
		return counts.ConsecutiveFailures >= maxFailures
	}
}

// CircuitBreaker wraps gobreaker with structured logging on state change.
type CircuitBreaker struct {
	cb   *gobreaker.CircuitBreaker[any]
	name string
}

// NewCircuitBreaker builds a breaker from config, logging state transitions
// through internal/observability rather than a plain log.Printf.
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	readyToTrip := config.ReadyToTrip
	if readyToTrip == nil {
		readyToTrip = func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && (counts.ConsecutiveFailures >= config.MaxFailures || failureRatio >= 0.6)
		}
	}
	settings := gobreaker.Settings{
		Name:        config.Name,
		MaxRequests: config.MaxRequests,
		Interval:    config.Interval,
		Timeout:     config.Timeout,
		ReadyToTrip: readyToTrip,
		OnStateChange: func(name string, from, to gobreaker.State) {
			observability.LogEvent(context.Background(), "warn", "circuit_breaker_state_change", map[string]any{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			})
		},
	}
	return &CircuitBreaker{cb: gobreaker.NewCircuitBreaker[any](settings), name: config.Name}
}

// Execute runs fn under circuit breaker protection.
func (cb *CircuitBreaker) Execute(fn func() (any, error)) (any, error) {
	result, err := cb.cb.Execute(fn)
	if err != nil {
		return nil, fmt.Errorf("circuit breaker %s: %w", cb.name, err)
	}
	return result, nil
}

// ExecuteWithContext runs fn under circuit breaker protection, failing fast
// if ctx is already done.
func (cb *CircuitBreaker) ExecuteWithContext(ctx context.Context, fn func() (any, error)) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return cb.Execute(fn)
}

// State returns the breaker's current state.
func (cb *CircuitBreaker) State() gobreaker.State { return cb.cb.State() }

// Name returns the breaker's configured name.
func (cb *CircuitBreaker) Name() string { return cb.name }
