package router

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sashank1508/IDIOMS/query"
)

func TestAdaptiveRouterDelegatesNonExactShapes(t *testing.T) {
	base := New(4, 0.1)
	a := NewAdaptiveRouter(base, NewPopularityTracker(), DefaultAdaptiveConfig())

	want := base.Destinations(query.Pattern{Shape: query.Wildcard})
	got := a.Destinations(query.Pattern{Shape: query.Wildcard})
	require.ElementsMatch(t, want, got)
}

func TestAdaptiveRouterIncreasesReplicationForHotKey(t *testing.T) {
	base := New(20, 0.1)
	tracker := NewPopularityTracker()
	cfg := AdaptiveConfig{Decay: 0.0, Threshold: 2.0, MaxReplication: 8}
	a := NewAdaptiveRouter(base, tracker, cfg)

	pattern := query.Pattern{Shape: query.Exact, Literal: "hot-key"}

	var last []int
	for i := 0; i < 20; i++ {
		last = a.Destinations(pattern)
	}

	baseline := base.Destinations(pattern)
	require.GreaterOrEqual(t, len(last), len(baseline))
}

func TestAdaptiveRouterBaseReturnsWrappedRouter(t *testing.T) {
	base := New(4, 0.1)
	a := NewAdaptiveRouter(base, NewPopularityTracker(), DefaultAdaptiveConfig())
	require.Same(t, base, a.Base())
}

func TestPopularityTrackerDecaysOverTime(t *testing.T) {
	tr := NewPopularityTracker()
	now := time.Now()
	tr.now = func() time.Time { return now }

	score1, _ := tr.recordAccess("k", 1.0, 100.0)

	now = now.Add(24 * time.Hour)
	score2, _ := tr.recordAccess("k", 1.0, 100.0)

	// After 24 hours of decay at rate 1.0/hour, the prior score should
	// have decayed to a negligible amount before the access boost is
	// added back in, so score2 should not simply be score1+1.
	require.NotEqual(t, score1+1, score2)
}
