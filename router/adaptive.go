package router

import (
	"math"
	"sync"
	"time"

	"github.com/sashank1508/IDIOMS/query"
)

// PopularityTracker holds a decaying access score per key pattern. It
// is an explicit object owned by one AdaptiveRouter, not a process-wide
// singleton: spec.md §9 flags the source's singleton popularity
// tracker as something a reimplementation should restate as an
// injected object, and this is that restatement.
type PopularityTracker struct {
	mu    sync.Mutex
	now   func() time.Time
	entry map[string]*popularityEntry
}

type popularityEntry struct {
	score      float64
	lastAccess time.Time
}

// NewPopularityTracker returns an empty tracker using time.Now for its
// clock.
func NewPopularityTracker() *PopularityTracker {
	return &PopularityTracker{now: time.Now, entry: make(map[string]*popularityEntry)}
}

// recordAccess decays keyPattern's score by the elapsed time since its
// last access, increments it per the access-boost rule, and returns
// the post-update score together with whether it currently exceeds
// threshold.
func (p *PopularityTracker) recordAccess(keyPattern string, decay, threshold float64) (score float64, overThreshold bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	e, ok := p.entry[keyPattern]
	if !ok {
		e = &popularityEntry{lastAccess: now}
		p.entry[keyPattern] = e
	}

	hours := now.Sub(e.lastAccess).Hours()
	e.score *= math.Exp(-decay * hours)

	if e.score > threshold {
		e.score += 1.0 * (1 + math.Log10(e.score/threshold))
	} else {
		e.score += 1.0
	}
	e.lastAccess = now

	return e.score, e.score > threshold
}

// AdaptiveConfig controls the popularity-driven replication adjuster.
type AdaptiveConfig struct {
	// Decay is the exponential decay rate applied per hour of
	// inactivity.
	Decay float64
	// Threshold is the score above which a key pattern is considered
	// "hot" and earns extra replicas.
	Threshold float64
	// MaxReplication caps the extra replicas a hot key pattern can
	// earn on top of the base router's replication factor.
	MaxReplication int
}

// DefaultAdaptiveConfig mirrors the constants used by the source's
// popularity tracker.
func DefaultAdaptiveConfig() AdaptiveConfig {
	return AdaptiveConfig{Decay: 0.05, Threshold: 10.0, MaxReplication: 8}
}

// AdaptiveRouter wraps a base Router, perturbing the effective
// replication factor of Exact/Suffix queries by how popular their key
// pattern has been recently. Every other query shape, and Remap,
// Exclude, Include, SaveMapping and LoadMapping, are delegated to the
// base Router unchanged. This wrapper is optional per spec.md §4.8; an
// implementation may route directly through Router instead.
type AdaptiveRouter struct {
	base     *Router
	tracker  *PopularityTracker
	cfg      AdaptiveConfig
	baseReplicationFactor int
}

// NewAdaptiveRouter wraps base with tracker under cfg.
func NewAdaptiveRouter(base *Router, tracker *PopularityTracker, cfg AdaptiveConfig) *AdaptiveRouter {
	return &AdaptiveRouter{base: base, tracker: tracker, cfg: cfg, baseReplicationFactor: base.ReplicationFactor()}
}

// Destinations computes the destination set for kp, recording a
// popularity access and using the resulting effective replication
// factor for Exact/Suffix shapes.
func (a *AdaptiveRouter) Destinations(kp query.Pattern) []int {
	if kp.Shape != query.Exact && kp.Shape != query.Suffix {
		return a.base.Destinations(kp)
	}

	score, over := a.tracker.recordAccess(kp.Literal, a.cfg.Decay, a.cfg.Threshold)

	factor := a.baseReplicationFactor
	if over {
		factor += int(math.Floor(math.Log10(score / a.cfg.Threshold)))
		if factor > a.baseReplicationFactor+a.cfg.MaxReplication {
			factor = a.baseReplicationFactor + a.cfg.MaxReplication
		}
	}
	if factor < 1 {
		factor = 1
	}

	return a.base.DestinationsWithFactor(kp, factor)
}

// Base returns the wrapped Router, for operations the wrapper doesn't
// perturb (Remap, Exclude, Include, SaveMapping, LoadMapping).
func (a *AdaptiveRouter) Base() *Router { return a.base }
