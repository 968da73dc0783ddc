package worker

import (
	"context"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/time/rate"
)

// SpawnLimiter throttles process spawns per command.
// Each command (keyed by its base name) draws from its own token bucket.
type SpawnLimiter struct {
	limiters     map[string]*rate.Limiter
	mu           sync.RWMutex
	defaultRate  rate.Limit
	defaultBurst int
}

// NewSpawnLimiter creates a limiter allowing spawnsPerSecond per command.
// A non-positive rate disables throttling.
func NewSpawnLimiter(spawnsPerSecond float64, burst int) *SpawnLimiter {
	if burst <= 0 {
		burst = 4
	}

	limit := rate.Inf
	if spawnsPerSecond > 0 {
		limit = rate.Limit(spawnsPerSecond)
	}

	return &SpawnLimiter{
		limiters:     make(map[string]*rate.Limiter),
		defaultRate:  limit,
		defaultBurst: burst,
	}
}

// Wait blocks until command may be spawned or ctx is done
func (l *SpawnLimiter) Wait(ctx context.Context, command string) error {
	return l.getLimiter(commandKey(command)).Wait(ctx)
}

// SetCommandRate sets a custom spawn rate for a specific command
func (l *SpawnLimiter) SetCommandRate(command string, spawnsPerSecond float64, burst int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if burst <= 0 {
		burst = l.defaultBurst
	}

	limit := rate.Inf
	if spawnsPerSecond > 0 {
		limit = rate.Limit(spawnsPerSecond)
	}
	l.limiters[commandKey(command)] = rate.NewLimiter(limit, burst)
}

// getLimiter returns the limiter for a command key
func (l *SpawnLimiter) getLimiter(key string) *rate.Limiter {
	l.mu.RLock()
	limiter, exists := l.limiters[key]
	l.mu.RUnlock()

	if exists {
		return limiter
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// Double-check after acquiring write lock
	if limiter, exists := l.limiters[key]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(l.defaultRate, l.defaultBurst)
	l.limiters[key] = limiter

	return limiter
}

// commandKey normalizes "/usr/bin/git" and "git" onto the same bucket
func commandKey(command string) string {
	return strings.ToLower(filepath.Base(strings.TrimSpace(command)))
}
