package trie

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValueTrieSearchExact(t *testing.T) {
	vt := NewValueTrie(false)
	vt.Insert("large", 1)
	vt.Insert("large", 2)
	vt.Insert("small", 3)

	require.Equal(t, []int64{1, 2}, vt.SearchExact("large").Sorted())
	require.Equal(t, []int64{3}, vt.SearchExact("small").Sorted())
	require.Empty(t, vt.SearchExact("medium"))
}

func TestValueTrieInsertIsIdempotent(t *testing.T) {
	vt := NewValueTrie(false)
	vt.Insert("large", 1)
	vt.Insert("large", 1)
	require.Equal(t, []int64{1}, vt.SearchExact("large").Sorted())
}

func TestValueTriePrefix(t *testing.T) {
	vt := NewValueTrie(false)
	vt.Insert("large", 1)
	vt.Insert("largest", 2)
	vt.Insert("small", 3)

	require.ElementsMatch(t, []int64{1, 2}, vt.SearchPrefix("large").Sorted())
	require.Empty(t, vt.SearchPrefix("tiny"))
}

func TestValueTrieSuffixModeOff(t *testing.T) {
	vt := NewValueTrie(false)
	vt.InsertSuffixMode("photograph", 1)

	// Without suffix mode, only the full value's own terminal exists,
	// but SearchSuffix still finds it by scanning fullValue.
	require.Equal(t, []int64{1}, vt.SearchSuffix("graph").Sorted())
	require.Empty(t, vt.SearchExact("graph"))
}

func TestValueTrieSuffixModeOn(t *testing.T) {
	vt := NewValueTrie(true)
	vt.InsertSuffixMode("photograph", 1)

	require.Equal(t, []int64{1}, vt.SearchSuffix("graph").Sorted())
	require.Equal(t, []int64{1}, vt.SearchExact("graph").Sorted())
	require.Equal(t, []int64{1}, vt.SearchExact("photograph").Sorted())
}

func TestValueTrieInfix(t *testing.T) {
	vt := NewValueTrie(false)
	vt.Insert("photograph", 1)
	vt.Insert("biography", 2)

	require.ElementsMatch(t, []int64{1, 2}, vt.SearchInfix("graph").Sorted())
	require.Empty(t, vt.SearchInfix("xyz"))
}

func TestValueTrieCollectAll(t *testing.T) {
	vt := NewValueTrie(false)
	vt.Insert("a", 1)
	vt.Insert("b", 2)
	require.ElementsMatch(t, []int64{1, 2}, vt.CollectAll().Sorted())
}
