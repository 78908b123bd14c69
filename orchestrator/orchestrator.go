// Package orchestrator implements the client-side core of spec.md
// §4.7: create_md_index, delete_md_index and md_search. It computes
// destination partitions through a Router, fans requests out over a
// Transport, and unions query results into a sorted slice. No
// per-partition write failure is surfaced, and a partition that
// cannot be reached for a read reduces recall rather than failing the
// whole query, per spec.md §7.
package orchestrator

import (
	"context"
	"errors"
	"strconv"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/sashank1508/IDIOMS/ids"
	"github.com/sashank1508/IDIOMS/query"
	"github.com/sashank1508/IDIOMS/transport"
)

var errNoRemapper = errors.New("orchestrator: no remapper configured")

// Router is the subset of router.Router (and router.AdaptiveRouter)
// the orchestrator depends on.
type Router interface {
	Destinations(kp query.Pattern) []int
}

// Remapper is the subset of router.Router needed to serve Remap.
type Remapper interface {
	Remap(newNumPartitions int) int
}

// Logger receives warnings about partial failures. Orchestrator never
// fails a request because of them; a nil Logger drops them.
type Logger interface {
	Warnf(format string, args ...interface{})
}

type noopLogger struct{}

func (noopLogger) Warnf(string, ...interface{}) {}

// Orchestrator is the client-side core binding a Router to a
// Transport.
type Orchestrator struct {
	router    Router
	transport transport.Transport
	remapper  Remapper
	logger    Logger

	remapGroup singleflight.Group
}

// New returns an Orchestrator routing through router and dispatching
// over t. remapper may be nil if Remap will never be called; logger
// may be nil to discard partial-failure warnings.
func New(router Router, t transport.Transport, remapper Remapper, logger Logger) *Orchestrator {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Orchestrator{router: router, transport: t, remapper: remapper, logger: logger}
}

// CreateMDIndex routes (key, value, objectID) to every destination
// partition for an Exact(key) pattern and inserts it there,
// concurrently. A partition that could not be reached keeps its prior
// state; there is no all-or-nothing guarantee across replicas.
func (o *Orchestrator) CreateMDIndex(ctx context.Context, key, value string, objectID int64) {
	destinations := o.router.Destinations(query.Pattern{Shape: query.Exact, Literal: key})
	env := transport.Envelope{
		Type:        transport.TypeCreateIndex,
		CreateIndex: &transport.CreateIndex{Key: key, Value: value, ObjectID: objectID},
	}
	o.fanOutWrite(ctx, destinations, env)
}

// DeleteMDIndex routes (key, value, objectID) the same way as
// CreateMDIndex and deletes it on every destination partition.
func (o *Orchestrator) DeleteMDIndex(ctx context.Context, key, value string, objectID int64) {
	destinations := o.router.Destinations(query.Pattern{Shape: query.Exact, Literal: key})
	env := transport.Envelope{
		Type:        transport.TypeDeleteIndex,
		DeleteIndex: &transport.DeleteIndex{Key: key, Value: value, ObjectID: objectID},
	}
	o.fanOutWrite(ctx, destinations, env)
}

func (o *Orchestrator) fanOutWrite(ctx context.Context, destinations []int, env transport.Envelope) {
	g, ctx := errgroup.WithContext(ctx)
	for _, p := range destinations {
		p := p
		g.Go(func() error {
			if _, err := o.transport.Send(ctx, p, env); err != nil {
				o.logger.Warnf("orchestrator: write to partition %d failed: %v", p, err)
			}
			return nil
		})
	}
	_ = g.Wait()
}

// MDSearch parses query, computes destination partitions from its
// key-side pattern, fans the query out concurrently, and returns the
// union of every reachable partition's matches, sorted ascending.
// md_search never fails outright: an unreachable partition is simply
// absent from the union.
func (o *Orchestrator) MDSearch(ctx context.Context, rawQuery string) []int64 {
	parsed := query.Parse(rawQuery)
	destinations := o.router.Destinations(parsed.Key)

	results := make([]ids.Set, len(destinations))
	g, ctx := errgroup.WithContext(ctx)
	for i, p := range destinations {
		i, p := i, p
		g.Go(func() error {
			resp, err := o.transport.Send(ctx, p, transport.Envelope{
				Type:  transport.TypeQuery,
				Query: &transport.Query{QueryStr: rawQuery},
			})
			if err != nil {
				o.logger.Warnf("orchestrator: query on partition %d failed: %v", p, err)
				return nil
			}
			if resp.Type != transport.TypeResponse || resp.Response == nil {
				return nil
			}
			set := ids.New()
			for _, id := range resp.Response.ObjectIDs {
				set.Add(id)
			}
			results[i] = set
			return nil
		})
	}
	_ = g.Wait()

	union := ids.New()
	for _, set := range results {
		if set != nil {
			union.Union(set)
		}
	}
	return union.Sorted()
}

// Remap rebuilds the router's partition assignment for newNumPartitions
// partitions, deduplicating concurrent callers observing the same
// change so they don't race to rebuild the ring twice. It returns the
// migration-plan vnode count reported by Router.Remap.
func (o *Orchestrator) Remap(newNumPartitions int) (int, error) {
	if o.remapper == nil {
		return 0, errNoRemapper
	}
	key := strconv.Itoa(newNumPartitions)
	v, err, _ := o.remapGroup.Do(key, func() (interface{}, error) {
		return o.remapper.Remap(newNumPartitions), nil
	})
	if err != nil {
		return 0, err
	}
	return v.(int), nil
}
