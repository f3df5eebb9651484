// Package presence caches user-presence probes so the speech pipeline can
// gate every utterance without hammering the underlying detector.
package presence

import (
	"context"
	"sync"
	"time"

	"github.com/Unity-Lab-AI/cora/internal/domain"
	"github.com/Unity-Lab-AI/cora/internal/logger"
)

// DefaultTTL is how long a probe result stays fresh.
const DefaultTTL = 5 * time.Second

// Option configures a Gate.
type Option func(*Gate)

// WithTTL overrides the cache lifetime.
func WithTTL(d time.Duration) Option {
	return func(g *Gate) { g.ttl = d }
}

// WithClock injects a time source for tests.
func WithClock(now func() time.Time) Option {
	return func(g *Gate) { g.now = now }
}

// Gate wraps a PresenceDetector with a short-lived cache. When the
// detector is nil or errors, the gate assumes the user is present —
// dropping speech on a broken sensor is worse than occasionally talking
// to an empty room.
type Gate struct {
	detector domain.PresenceDetector
	log      *logger.Logger
	ttl      time.Duration
	now      func() time.Time

	mu        sync.Mutex
	cached    bool
	checkedAt time.Time
	hasResult bool
}

// New builds a presence gate around detector. A nil detector yields a
// gate that always reports present.
func New(detector domain.PresenceDetector, log *logger.Logger, opts ...Option) *Gate {
	g := &Gate{
		detector: detector,
		log:      log,
		ttl:      DefaultTTL,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Present reports whether the user is around, serving from cache when the
// last probe is still fresh.
func (g *Gate) Present(ctx context.Context) bool {
	if g.detector == nil {
		return true
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.hasResult && g.now().Sub(g.checkedAt) < g.ttl {
		return g.cached
	}

	present, err := g.detector.Present(ctx)
	if err != nil {
		g.log.Debug("presence: probe failed, assuming present: %v", err)
		present = true
	}

	g.cached = present
	g.checkedAt = g.now()
	g.hasResult = true
	return present
}

// Invalidate drops the cached result so the next call probes again.
func (g *Gate) Invalidate() {
	g.mu.Lock()
	g.hasResult = false
	g.mu.Unlock()
}
