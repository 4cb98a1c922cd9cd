package rate

import (
	"context"
	"sync"
	"time"

	xrate "golang.org/x/time/rate"
)

// Config defines rate limiting parameters for one destination.
type Config struct {
	RequestsPerSecond float64
	Burst             int
}

// Manager hands out one token-bucket limiter per key (typically the destination name).
type Manager struct {
	mu       sync.RWMutex
	limiters map[string]*xrate.Limiter
	defaults Config
	custom   map[string]Config
}

// NewManager creates a Manager using defaults for keys without an override.
func NewManager(defaults Config) *Manager {
	return &Manager{
		limiters: make(map[string]*xrate.Limiter),
		defaults: defaults,
		custom:   make(map[string]Config),
	}
}

// Configure sets the limits for key. It replaces any limiter already created for key.
func (m *Manager) Configure(key string, cfg Config) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.custom[key] = cfg
	delete(m.limiters, key)
}

// Limiter returns the limiter for key, creating it on first use.
func (m *Manager) Limiter(key string) *xrate.Limiter {
	m.mu.RLock()
	if lim, ok := m.limiters[key]; ok {
		m.mu.RUnlock()
		return lim
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()
	if lim, ok := m.limiters[key]; ok {
		return lim
	}
	cfg, ok := m.custom[key]
	if !ok {
		cfg = m.defaults
	}
	lim := newLimiter(cfg)
	m.limiters[key] = lim
	return lim
}

// Allow reports whether a request for key may proceed now.
func (m *Manager) Allow(key string) bool {
	return m.Limiter(key).Allow()
}

// Wait blocks until key has a token or ctx is done.
func (m *Manager) Wait(ctx context.Context, key string) error {
	return m.Limiter(key).Wait(ctx)
}

func newLimiter(cfg Config) *xrate.Limiter {
	if cfg.RequestsPerSecond <= 0 {
		return xrate.NewLimiter(xrate.Inf, 0)
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}
	return xrate.NewLimiter(xrate.Every(time.Duration(float64(time.Second)/cfg.RequestsPerSecond)), burst)
}
