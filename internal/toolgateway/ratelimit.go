package toolgateway

import (
	"sync"
	"time"
)

// RateLimitConfig holds the three independent per-minute budgets:
// per-tool, per-session, and global.
type RateLimitConfig struct {
	PerToolPerMinute    int
	PerSessionPerMinute int
	GlobalPerMinute     int
}

// DefaultRateLimitConfig returns the gateway's stated defaults.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{PerToolPerMinute: 60, PerSessionPerMinute: 100, GlobalPerMinute: 1000}
}

type bucket struct {
	mu        sync.Mutex
	count     int
	resetTime time.Time
}

func (b *bucket) allow(now time.Time, limit int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if now.After(b.resetTime) {
		b.count = 0
		b.resetTime = now.Add(time.Minute)
	}
	if b.count >= limit {
		return false
	}
	b.count++
	return true
}

// RateLimiter tracks three independent minute-windowed counters: one per
// tool name, one per session id, and one global. A stale-bucket cleanup
// goroutine mirrors the codebase's 10-minute sweep convention.
type RateLimiter struct {
	config RateLimitConfig

	mu        sync.RWMutex
	perTool   map[string]*bucket
	perSession map[string]*bucket
	global    *bucket
}

// NewRateLimiter builds a RateLimiter and starts its cleanup goroutine.
func NewRateLimiter(config RateLimitConfig) *RateLimiter {
	rl := &RateLimiter{
		config:     config,
		perTool:    make(map[string]*bucket),
		perSession: make(map[string]*bucket),
		global:     &bucket{resetTime: time.Now().Add(time.Minute)},
	}
	go rl.cleanup()
	return rl
}

// Allow checks, in order, the global, per-session, and per-tool budgets.
// The first dimension to refuse determines the returned reason.
func (rl *RateLimiter) Allow(toolName, sessionID string) (bool, string) {
	now := time.Now()

	if !rl.global.allow(now, rl.config.GlobalPerMinute) {
		return false, "global"
	}

	sessionBucket := rl.getOrCreate(&rl.perSession, sessionID, now)
	if !sessionBucket.allow(now, rl.config.PerSessionPerMinute) {
		return false, "session"
	}

	toolBucket := rl.getOrCreate(&rl.perTool, toolName, now)
	if !toolBucket.allow(now, rl.config.PerToolPerMinute) {
		return false, "tool"
	}

	return true, ""
}

func (rl *RateLimiter) getOrCreate(m *map[string]*bucket, key string, now time.Time) *bucket {
	rl.mu.RLock()
	b, ok := (*m)[key]
	rl.mu.RUnlock()
	if ok {
		return b
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if b, ok := (*m)[key]; ok {
		return b
	}
	b = &bucket{resetTime: now.Add(time.Minute)}
	(*m)[key] = b
	return b
}

func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		now := time.Now()
		rl.sweep(&rl.perTool, now)
		rl.sweep(&rl.perSession, now)
	}
}

func (rl *RateLimiter) sweep(m *map[string]*bucket, now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for key, b := range *m {
		b.mu.Lock()
		stale := now.After(b.resetTime)
		b.mu.Unlock()
		if stale {
			delete(*m, key)
		}
	}
}
