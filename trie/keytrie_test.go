package trie

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKeyTrieInsertAndSearchExact(t *testing.T) {
	kt := NewKeyTrie(false)
	vt := kt.InsertKey("size")
	vt.Insert("large", 1)

	got := kt.SearchExact("size")
	require.NotNil(t, got)
	require.Equal(t, []int64{1}, got.SearchExact("large").Sorted())
	require.Nil(t, kt.SearchExact("missing"))
}

func TestKeyTrieInsertKeyIsIdempotent(t *testing.T) {
	kt := NewKeyTrie(false)
	vt1 := kt.InsertKey("size")
	vt2 := kt.InsertKey("size")
	require.Same(t, vt1, vt2)
}

func TestKeyTriePrefix(t *testing.T) {
	kt := NewKeyTrie(false)
	kt.InsertKey("size")
	kt.InsertKey("sizeable")
	kt.InsertKey("color")

	require.Len(t, kt.SearchPrefix("size"), 2)
	require.Len(t, kt.SearchPrefix("col"), 1)
	require.Empty(t, kt.SearchPrefix("nope"))
}

func TestKeyTrieSuffixModeSharingDoesNotLeakIntoExact(t *testing.T) {
	kt := NewKeyTrie(true)
	sizeVT := kt.InsertKeySuffixMode("size")
	sizeVT.InsertSuffixMode("large", 1)

	erasureVT := kt.InsertKeySuffixMode("erasure")
	erasureVT.InsertSuffixMode("rs6", 2)

	// "erasure" ends in "ure", not "size"; this is just a sanity check
	// that two unrelated keys each own their own ValueTrie.
	require.NotSame(t, sizeVT, erasureVT)

	// SearchExact("size") must return only size's own ValueTrie, never
	// a handle contributed by some other key whose suffix happens to
	// land on the same path.
	got := kt.SearchExact("size")
	require.Same(t, sizeVT, got)
	require.Equal(t, []int64{1}, got.SearchExact("large").Sorted())
}

func TestKeyTrieSuffixModeFindsKeyBySuffix(t *testing.T) {
	kt := NewKeyTrie(true)
	vt := kt.InsertKeySuffixMode("filesize")
	vt.InsertSuffixMode("large", 1)

	results := kt.SearchSuffix("size")
	require.Len(t, results, 1)
	require.Same(t, vt, results[0])
}

func TestKeyTrieSuffixModeDistinctOwnersAtSamePath(t *testing.T) {
	// "size" is a suffix of both "filesize" and "size" itself; "size"
	// owns its ValueTrie at the "size" path and "filesize" adds a
	// non-owning handle there, so each keeps its own ValueTrie rather
	// than silently sharing one.
	kt := NewKeyTrie(true)
	sizeVT := kt.InsertKeySuffixMode("size")
	sizeVT.InsertSuffixMode("small", 1)

	fileSizeVT := kt.InsertKeySuffixMode("filesize")
	fileSizeVT.InsertSuffixMode("large", 2)

	require.NotSame(t, sizeVT, fileSizeVT)

	bySuffix := kt.SearchSuffix("size")
	require.Len(t, bySuffix, 2)

	require.Equal(t, []int64{1}, sizeVT.SearchExact("small").Sorted())
	require.Equal(t, []int64{2}, fileSizeVT.SearchExact("large").Sorted())
}

func TestKeyTrieInfix(t *testing.T) {
	kt := NewKeyTrie(false)
	kt.InsertKey("filesize")
	kt.InsertKey("colorspace")

	require.Len(t, kt.SearchInfix("size"), 1)
	require.Len(t, kt.SearchInfix("e"), 2)
}

func TestKeyTrieAll(t *testing.T) {
	kt := NewKeyTrie(false)
	kt.InsertKey("a")
	kt.InsertKey("b")
	require.Len(t, kt.All(), 2)
}
