package risk

import (
	"context"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"tradegate/internal/observability"
)

// PolicyStore holds the live Policy behind an atomic pointer so readers
// never observe a partially-applied reload.
type PolicyStore struct {
	ptr atomic.Pointer[Policy]
}

// NewPolicyStore seeds the store with an initial policy.
func NewPolicyStore(initial Policy) *PolicyStore {
	s := &PolicyStore{}
	s.ptr.Store(&initial)
	return s
}

// Current returns the currently active policy.
func (s *PolicyStore) Current() Policy {
	return *s.ptr.Load()
}

func (s *PolicyStore) swap(p Policy) {
	s.ptr.Store(&p)
}

// WatchPolicyFile watches path's directory (surviving editors that
// replace-via-rename) and reloads the policy into store on change,
// debounced by 250ms. A policy that fails to parse or validate is
// logged and discarded; the previous policy remains active.
func WatchPolicyFile(ctx context.Context, path string, store *PolicyStore) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return err
	}

	go func() {
		defer watcher.Close()
		var debounce *time.Timer
		reload := func() {
			policy, err := LoadPolicy(path)
			if err != nil {
				observability.LogEvent(ctx, "error", "risk_policy_reload_failed", map[string]any{"error": err.Error()})
				return
			}
			store.swap(policy)
			observability.LogEvent(ctx, "info", "risk_policy_reloaded", map[string]any{"path": path})
		}

		for {
			select {
			case <-ctx.Done():
				if debounce != nil {
					debounce.Stop()
				}
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != filepath.Clean(path) {
					continue
				}
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(250*time.Millisecond, reload)
			case watchErr, ok := <-watcher.Errors:
				if !ok {
					return
				}
				observability.LogEvent(ctx, "error", "risk_policy_watch_error", map[string]any{"error": watchErr.Error()})
			}
		}
	}()

	return nil
}
