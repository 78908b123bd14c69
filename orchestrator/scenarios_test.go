package orchestrator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sashank1508/IDIOMS/partition"
	"github.com/sashank1508/IDIOMS/partitionserver"
	"github.com/sashank1508/IDIOMS/query"
	"github.com/sashank1508/IDIOMS/router"
	"github.com/sashank1508/IDIOMS/transport"
)

// newScenarioOrchestrator builds a 4-partition, suffix-mode-on cluster,
// the fixed setup every S1-S5 scenario shares.
func newScenarioOrchestrator(t *testing.T) *Orchestrator {
	r := router.New(4, 0.1)
	local := transport.NewLocal()
	for id := 0; id < 4; id++ {
		p := partition.New(id, t.TempDir(), true, partition.Config{})
		local.Register(id, partitionserver.New(p, r))
	}
	return New(r, local, r, nil)
}

func TestScenarioS1ExactMatch(t *testing.T) {
	o := newScenarioOrchestrator(t)
	ctx := context.Background()

	o.CreateMDIndex(ctx, "StageX", "100.00", 1001)
	o.CreateMDIndex(ctx, "StageX", "300.00", 1002)

	require.Equal(t, []int64{1002}, o.MDSearch(ctx, "StageX=300.00"))
}

func TestScenarioS2PrefixKeyWildcardValue(t *testing.T) {
	o := newScenarioOrchestrator(t)
	ctx := context.Background()

	o.CreateMDIndex(ctx, "StageX", "100.00", 1001)
	o.CreateMDIndex(ctx, "StageX", "300.00", 1002)
	o.CreateMDIndex(ctx, "StageY", "200.00", 1001)
	o.CreateMDIndex(ctx, "StageZ", "50.00", 1001)
	o.CreateMDIndex(ctx, "StageY", "400.00", 1002)
	o.CreateMDIndex(ctx, "StageZ", "75.00", 1002)

	require.Equal(t, []int64{1001, 1002}, o.MDSearch(ctx, "Stage*=*"))
}

func TestScenarioS3SuffixKeyInfixValue(t *testing.T) {
	o := newScenarioOrchestrator(t)
	ctx := context.Background()

	o.CreateMDIndex(ctx, "FILE_PATH", "/data/488nm.tif", 1001)
	o.CreateMDIndex(ctx, "FILE_PATH", "/data/561nm.tif", 1002)

	require.Equal(t, []int64{1001, 1002}, o.MDSearch(ctx, "*PATH=*tif"))
}

func TestScenarioS4InfixKeyInfixValue(t *testing.T) {
	o := newScenarioOrchestrator(t)
	ctx := context.Background()

	o.CreateMDIndex(ctx, "FILE_PATH", "/data/488nm.tif", 1001)
	o.CreateMDIndex(ctx, "FILE_PATH", "/data/561nm.tif", 1002)
	o.CreateMDIndex(ctx, "AUXILIARY_FILE", "/data/488nm_metadata.json", 1001)

	require.Equal(t, []int64{1001}, o.MDSearch(ctx, "*FILE*=*metadata*"))
}

func TestScenarioS5PrefixKeySuffixValue(t *testing.T) {
	o := newScenarioOrchestrator(t)
	ctx := context.Background()

	o.CreateMDIndex(ctx, "StageX", "100.00", 1001)
	o.CreateMDIndex(ctx, "StageX", "300.00", 1002)
	o.CreateMDIndex(ctx, "StageY", "200.00", 1001)
	o.CreateMDIndex(ctx, "StageZ", "50.00", 1001)
	o.CreateMDIndex(ctx, "StageY", "400.00", 1002)
	o.CreateMDIndex(ctx, "StageZ", "75.00", 1002)

	require.Equal(t, []int64{1001, 1002}, o.MDSearch(ctx, "Stage*=*00"))
}

func TestPropertyRoutingCoverage(t *testing.T) {
	// Every partition that actually holds a matching triple must be
	// among the router's destinations for that query, and that
	// partition must report CanHandle for it.
	r := router.New(4, 0.1)
	local := transport.NewLocal()
	partitions := make(map[int]*partition.Partition)
	for id := 0; id < 4; id++ {
		p := partition.New(id, t.TempDir(), true, partition.Config{})
		partitions[id] = p
		local.Register(id, partitionserver.New(p, r))
	}
	o := New(r, local, r, nil)

	keys := []string{"StageX", "StageY", "StageZ", "FILE_PATH", "AUXILIARY_FILE", "name", "owner"}
	for i, k := range keys {
		o.CreateMDIndex(context.Background(), k, "v", int64(i+1))
	}

	var queries []string
	for _, k := range keys {
		// Exercise all five key-side shapes, not just Exact, since
		// write-routing (always Exact) and query-routing diverge for
		// Prefix/Suffix/Infix/Wildcard.
		queries = append(queries,
			k,              // Exact
			k[:3]+"*",      // Prefix
			"*"+k[3:],      // Suffix
			"*"+k[1:4]+"*", // Infix
			"*",            // Wildcard
		)
	}

	for _, k := range queries {
		raw := k + "=v"
		parsed := query.Parse(raw)
		dests := make(map[int]bool)
		for _, d := range r.Destinations(parsed.Key) {
			dests[d] = true
		}
		for id, p := range partitions {
			if p.CanHandle(raw) {
				require.True(t, dests[id], "partition %d can handle %q but is not a destination", id, raw)
			}
		}
	}
}
