package trie

import (
	"strings"

	"github.com/sashank1508/IDIOMS/ids"
)

// valueTrieNode is one byte-step of a ValueTrie. objectIDs is only
// populated when isTerminal is true; fullValue records the complete
// value as originally inserted so suffix/infix search (and the
// ancestor walk back to the original string) can recover it even when
// this node sits on a suffix path rather than the full-value path.
type valueTrieNode struct {
	children     map[byte]*valueTrieNode
	isTerminal   bool
	objectIDs    ids.Set
	fullValue    string
	hasFullValue bool
}

func newValueTrieNode() *valueTrieNode {
	return &valueTrieNode{children: make(map[byte]*valueTrieNode)}
}

// ValueTrie is the second-level trie over values for one key: it owns
// its node tree outright (no shared ownership between nodes — each
// child is reachable from exactly one parent) so the whole tree is
// freed in O(n) when the ValueTrie itself is dropped.
type ValueTrie struct {
	root       *valueTrieNode
	suffixMode bool
}

// NewValueTrie returns an empty ValueTrie. suffixMode controls whether
// InsertSuffixMode also indexes every suffix of a value.
func NewValueTrie(suffixMode bool) *ValueTrie {
	return &ValueTrie{root: newValueTrieNode(), suffixMode: suffixMode}
}

// Insert records that objectID carries this value, without touching
// suffixes regardless of suffixMode. Idempotent per (value, objectID).
func (t *ValueTrie) Insert(value string, objectID int64) {
	t.insert(value, objectID, value)
}

func (t *ValueTrie) insert(value string, objectID int64, fullValue string) {
	node := t.root
	for i := 0; i < len(value); i++ {
		c := value[i]
		child, ok := node.children[c]
		if !ok {
			child = newValueTrieNode()
			node.children[c] = child
		}
		node = child
	}
	node.isTerminal = true
	if node.objectIDs == nil {
		node.objectIDs = ids.New()
	}
	node.objectIDs.Add(objectID)
	if !node.hasFullValue {
		node.fullValue = fullValue
		node.hasFullValue = true
	}
}

// InsertSuffixMode inserts value normally, and, when the trie is in
// suffix mode, additionally inserts every proper non-empty suffix of
// value, so that SearchExact on a suffix finds the object. Every
// terminal reached this way records the original, complete value as
// its fullValue unless an earlier insert already set one there.
func (t *ValueTrie) InsertSuffixMode(value string, objectID int64) {
	t.insert(value, objectID, value)
	if !t.suffixMode {
		return
	}
	for i := 1; i < len(value); i++ {
		t.insert(value[i:], objectID, value)
	}
}

// SearchExact returns the object IDs recorded at the exact value,
// or an empty set if the value was never inserted.
func (t *ValueTrie) SearchExact(value string) ids.Set {
	node := t.root
	for i := 0; i < len(value); i++ {
		child, ok := node.children[value[i]]
		if !ok {
			return ids.New()
		}
		node = child
	}
	if !node.isTerminal {
		return ids.New()
	}
	return node.objectIDs
}

// SearchPrefix walks the byte path for prefix, then unions every
// terminal's object IDs found anywhere in the subtree below it. A '*'
// byte within prefix (never produced by the parser, but accepted here
// for robustness) descends into every child instead of one.
func (t *ValueTrie) SearchPrefix(prefix string) ids.Set {
	out := ids.New()
	var walk func(node *valueTrieNode, i int)
	walk = func(node *valueTrieNode, i int) {
		if i == len(prefix) {
			collectAll(node, out)
			return
		}
		c := prefix[i]
		if c == '*' {
			for _, child := range node.children {
				walk(child, i+1)
			}
			return
		}
		if child, ok := node.children[c]; ok {
			walk(child, i+1)
		}
	}
	walk(t.root, 0)
	return out
}

// SearchSuffix returns the object IDs of every value ending in suffix.
// It scans every terminal's stored fullValue, in suffix mode or not.
func (t *ValueTrie) SearchSuffix(suffix string) ids.Set {
	out := ids.New()
	visit(t.root, func(n *valueTrieNode) {
		if n.hasFullValue && strings.HasSuffix(n.fullValue, suffix) {
			out.Union(n.objectIDs)
		}
	})
	return out
}

// SearchInfix returns the object IDs of every value containing infix
// as a substring, by the same full scan as SearchSuffix.
func (t *ValueTrie) SearchInfix(infix string) ids.Set {
	out := ids.New()
	visit(t.root, func(n *valueTrieNode) {
		if n.hasFullValue && strings.Contains(n.fullValue, infix) {
			out.Union(n.objectIDs)
		}
	})
	return out
}

// CollectAll returns every object ID indexed anywhere in the trie.
func (t *ValueTrie) CollectAll() ids.Set {
	out := ids.New()
	collectAll(t.root, out)
	return out
}

func collectAll(node *valueTrieNode, out ids.Set) {
	if node.isTerminal {
		out.Union(node.objectIDs)
	}
	for _, child := range node.children {
		collectAll(child, out)
	}
}

func visit(node *valueTrieNode, f func(*valueTrieNode)) {
	if node.isTerminal {
		f(node)
	}
	for _, child := range node.children {
		visit(child, f)
	}
}
