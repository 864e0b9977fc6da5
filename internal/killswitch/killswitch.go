// Package killswitch implements the process-wide trading halt flag:
// every write path consults it before acting, and activation/release is
// itself audited. The flag is an explicit activate/release contract with
// persisted and environment-override backing, not an automatic
// loss-streak trip.
package killswitch

import (
	"context"
	"fmt"
	"sync"

	"tradegate/internal/audit"
	"tradegate/internal/contracts"
	"tradegate/internal/coreerr"
)

// Store persists the kill switch's enabled/reason/actor state. A
// *sql.DB-backed implementation and an in-memory one both satisfy
// this; see postgres_store.go and memory_store.go.
type Store interface {
	Load(ctx context.Context) (enabled bool, reason string, actor string, err error)
	Save(ctx context.Context, enabled bool, reason string, actor string) error
}

// Switch is the process-wide halt flag. EnvOverride, when true, forces
// Enabled to report true for the life of the process regardless of
// stored state — "environment wins".
type Switch struct {
	mu    sync.Mutex
	store Store
	audit *audit.Logger

	envOverride bool
	envReason   string

	enabled bool
	reason  string
	actor   string
}

// New loads initial state from store and applies an optional environment
// override (KILL_SWITCH_ENABLED/KILL_SWITCH_REASON at startup).
func New(ctx context.Context, store Store, auditLogger *audit.Logger, envOverride bool, envReason string) (*Switch, error) {
	enabled, reason, actor, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("killswitch: load initial state: %w", err)
	}
	return &Switch{
		store:       store,
		audit:       auditLogger,
		envOverride: envOverride,
		envReason:   envReason,
		enabled:     enabled,
		reason:      reason,
		actor:       actor,
	}, nil
}

// IsEnabled reports whether trading is currently halted.
func (s *Switch) IsEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.envOverride || s.enabled
}

// Status returns the enabled flag, reason, and actor (actor is
// "environment" when the environment override is in force).
func (s *Switch) Status() (enabled bool, reason string, actor string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.envOverride {
		return true, s.envReason, "environment"
	}
	return s.enabled, s.reason, s.actor
}

// Activate halts trading. actor and reason are both required and are
// persisted alongside the flag.
func (s *Switch) Activate(ctx context.Context, reason, actor string) error {
	if reason == "" || actor == "" {
		return coreerr.Validationf("killswitch: activate requires both reason and actor")
	}
	s.mu.Lock()
	s.enabled = true
	s.reason = reason
	s.actor = actor
	s.mu.Unlock()

	if err := s.store.Save(ctx, true, reason, actor); err != nil {
		return fmt.Errorf("killswitch: persist activation: %w", err)
	}
	if s.audit != nil {
		_, _ = s.audit.Log(ctx, contracts.EventKillSwitchActivated, map[string]any{
			"reason": reason,
			"actor":  actor,
		})
	}
	return nil
}

// Release clears the halt. It has no effect on the environment override,
// which can only be cleared by restarting the process without it set.
func (s *Switch) Release(ctx context.Context, actor string) error {
	if actor == "" {
		return coreerr.Validationf("killswitch: release requires an actor")
	}
	s.mu.Lock()
	s.enabled = false
	s.reason = ""
	s.actor = actor
	s.mu.Unlock()

	if err := s.store.Save(ctx, false, "", actor); err != nil {
		return fmt.Errorf("killswitch: persist release: %w", err)
	}
	if s.audit != nil {
		_, _ = s.audit.Log(ctx, contracts.EventKillSwitchReleased, map[string]any{
			"actor": actor,
		})
	}
	return nil
}

// CheckOrFail returns a KILL_SWITCH_ACTIVE policy error if the switch is
// enabled, naming op in the error reason. Every write path must call
// this before acting.
func (s *Switch) CheckOrFail(op string) error {
	if !s.IsEnabled() {
		return nil
	}
	_, reason, _ := s.Status()
	return coreerr.Policyf("KILL_SWITCH_ACTIVE: %s is blocked while the kill switch is enabled (%s)", op, reason).
		WithRules("KS")
}
