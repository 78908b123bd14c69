package router

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sashank1508/IDIOMS/query"
)

func TestNewBuildsFullVirtualNodeDirectory(t *testing.T) {
	r := New(4, 0.1)
	require.Equal(t, 4, r.NumPartitions())
	require.GreaterOrEqual(t, r.ReplicationFactor(), 1)
	require.Len(t, r.virtualNodes, NumVirtualNodes)
}

func TestPartitionForIsDeterministic(t *testing.T) {
	r := New(4, 0.1)
	require.Equal(t, r.PartitionFor("name"), r.PartitionFor("name"))
}

func TestPartitionForInRange(t *testing.T) {
	r := New(4, 0.1)
	for _, key := range []string{"name", "size", "owner", "xyz123"} {
		p := r.PartitionFor(key)
		require.GreaterOrEqual(t, p, 0)
		require.Less(t, p, 4)
	}
}

func TestVirtualNodeForPrefixFitsWithinKey(t *testing.T) {
	r := New(4, 0.1)
	vn := r.VirtualNodeFor("size")
	require.True(t, len("size") >= len(vn.Prefix))
}

func TestDestinationsWildcardReturnsEveryPartition(t *testing.T) {
	r := New(4, 0.1)
	dests := r.Destinations(query.Pattern{Shape: query.Wildcard})
	require.ElementsMatch(t, []int{0, 1, 2, 3}, dests)
}

func TestDestinationsExactIncludesPrimary(t *testing.T) {
	r := New(4, 0.1)
	primary := r.PartitionFor("name")
	dests := r.Destinations(query.Pattern{Shape: query.Exact, Literal: "name"})
	require.Equal(t, primary, dests[0])
	require.LessOrEqual(t, len(dests), r.ReplicationFactor()+1)
}

func TestDestinationsAreDeduplicated(t *testing.T) {
	r := New(4, 0.1)
	dests := r.Destinations(query.Pattern{Shape: query.Exact, Literal: "name"})
	seen := make(map[int]bool)
	for _, p := range dests {
		require.False(t, seen[p])
		seen[p] = true
	}
}

func TestDestinationsPrefixIsNeverEmpty(t *testing.T) {
	r := New(4, 0.1)
	// The empty-prefix vnode always matches every literal, so a prefix
	// query never reaches the all-partitions fallback; this literal is
	// answered by the "z" and empty-prefix vnodes, and the test asserts
	// only that the result is non-empty.
	dests := r.Destinations(query.Pattern{Shape: query.Prefix, Literal: "zzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzz"})
	require.NotEmpty(t, dests)
}

func TestExcludeRemovesPartitionFromDestinations(t *testing.T) {
	r := New(4, 0.1)
	r.Exclude(0)
	dests := r.Destinations(query.Pattern{Shape: query.Wildcard})
	require.NotContains(t, dests, 0)

	r.Include(0)
	dests = r.Destinations(query.Pattern{Shape: query.Wildcard})
	require.Contains(t, dests, 0)
}

func TestRemapChangesPartitionCount(t *testing.T) {
	r := New(4, 0.1)
	r.Remap(8)
	require.Equal(t, 8, r.NumPartitions())
	dests := r.Destinations(query.Pattern{Shape: query.Wildcard})
	require.Len(t, dests, 8)
}

func TestRemapClearsExclusions(t *testing.T) {
	r := New(4, 0.1)
	r.Exclude(0)
	r.Remap(4)
	dests := r.Destinations(query.Pattern{Shape: query.Wildcard})
	require.Contains(t, dests, 0)
}

func TestSaveAndLoadMappingRoundTrip(t *testing.T) {
	r := New(4, 0.1)
	path := filepath.Join(t.TempDir(), "mapping.txt")
	require.NoError(t, r.SaveMapping(path))

	r2 := New(4, 0.1)
	require.NoError(t, r2.LoadMapping(path))
	require.Equal(t, r.ReplicationFactor(), r2.ReplicationFactor())

	for _, key := range []string{"name", "size", "owner"} {
		require.Equal(t, r.PartitionFor(key), r2.PartitionFor(key))
	}
}

func TestLoadMappingRejectsPartitionCountMismatch(t *testing.T) {
	r := New(4, 0.1)
	path := filepath.Join(t.TempDir(), "mapping.txt")
	require.NoError(t, r.SaveMapping(path))

	r2 := New(8, 0.1)
	err := r2.LoadMapping(path)
	require.Error(t, err)
}

func TestLoadMappingRejectsBadHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.txt")
	require.NoError(t, os.WriteFile(path, []byte("NOT_A_MAPPING\n"), 0o644))

	r := New(4, 0.1)
	err := r.LoadMapping(path)
	require.Error(t, err)
}
