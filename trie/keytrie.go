package trie

import "strings"

// keyHandle binds a ValueTrie to the full key string that owns it. A
// keyTrieNode carries one handle for the key actually inserted at its
// path (if any) plus zero or more handles contributed by other keys
// whose suffix happens to terminate at the same path. Handles are
// non-owning: the ValueTrie they point at is allocated and owned
// exactly once, by the key whose own path it sits on.
type keyHandle struct {
	vt      *ValueTrie
	fullKey string
}

type keyTrieNode struct {
	children map[byte]*keyTrieNode
	own      *ValueTrie
	ownKey   string
	handles  []keyHandle
}

func newKeyTrieNode() *keyTrieNode {
	return &keyTrieNode{children: make(map[byte]*keyTrieNode)}
}

func (n *keyTrieNode) isTerminal() bool {
	return n.own != nil || len(n.handles) > 0
}

// KeyTrie is the first-level trie over keys: each key that has been
// inserted owns exactly one ValueTrie, allocated once at its terminal
// node. KeyTrie owns its node tree outright, mirroring ValueTrie.
type KeyTrie struct {
	root       *keyTrieNode
	suffixMode bool
}

// NewKeyTrie returns an empty KeyTrie. suffixMode controls whether
// InsertKeySuffixMode also indexes every suffix of a key.
func NewKeyTrie(suffixMode bool) *KeyTrie {
	return &KeyTrie{root: newKeyTrieNode(), suffixMode: suffixMode}
}

func (t *KeyTrie) walk(path string) *keyTrieNode {
	node := t.root
	for i := 0; i < len(path); i++ {
		c := path[i]
		child, ok := node.children[c]
		if !ok {
			child = newKeyTrieNode()
			node.children[c] = child
		}
		node = child
	}
	return node
}

// InsertKey walks/extends the byte path for key, allocating its
// ValueTrie on first touch, and returns a stable handle to it.
// Idempotent: reinserting the same key returns the same ValueTrie.
func (t *KeyTrie) InsertKey(key string) *ValueTrie {
	node := t.walk(key)
	if node.own == nil {
		node.own = NewValueTrie(false)
		node.ownKey = key
	}
	return node.own
}

// InsertKeySuffixMode behaves like InsertKey, and, when the trie is in
// suffix mode, additionally walks every proper non-empty suffix of key
// and attaches a non-owning handle back to key's own ValueTrie at each
// suffix's terminal node. The returned handle is always the one for
// the full key.
func (t *KeyTrie) InsertKeySuffixMode(key string) *ValueTrie {
	node := t.walk(key)
	if node.own == nil {
		node.own = NewValueTrie(true)
		node.ownKey = key
	}
	vt := node.own
	if !t.suffixMode {
		return vt
	}
	for i := 1; i < len(key); i++ {
		snode := t.walk(key[i:])
		attached := false
		for _, h := range snode.handles {
			if h.vt == vt {
				attached = true
				break
			}
		}
		if !attached {
			snode.handles = append(snode.handles, keyHandle{vt: vt, fullKey: key})
		}
	}
	return vt
}

// SearchExact returns the ValueTrie of the key literally inserted at
// this path, or nil if no such key was ever inserted. It never returns
// a handle contributed by another key's suffix: exact match is about
// the literal key, not about keys it happens to be a suffix of.
func (t *KeyTrie) SearchExact(key string) *ValueTrie {
	node := t.root
	for i := 0; i < len(key); i++ {
		child, ok := node.children[key[i]]
		if !ok {
			return nil
		}
		node = child
	}
	return node.own
}

// SearchPrefix walks the byte path for prefix, then collects every
// ValueTrie handle (own and suffix-contributed) anywhere in the
// subtree below it. A '*' byte within prefix descends into every
// child instead of one, mirroring ValueTrie.SearchPrefix.
func (t *KeyTrie) SearchPrefix(prefix string) []*ValueTrie {
	var out []*ValueTrie
	var walk func(node *keyTrieNode, i int)
	walk = func(node *keyTrieNode, i int) {
		if i == len(prefix) {
			collectAllValueTries(node, &out)
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

// SearchSuffix returns the ValueTrie of every key ending in suffix,
// once per key. It scans every inserted key's own terminal and its
// stored key, in suffix mode or not; suffix-mode handles are not
// consulted.
func (t *KeyTrie) SearchSuffix(suffix string) []*ValueTrie {
	var out []*ValueTrie
	visitKeyTerminals(t.root, func(vt *ValueTrie, fullKey string) {
		if strings.HasSuffix(fullKey, suffix) {
			out = append(out, vt)
		}
	})
	return out
}

// SearchInfix returns the ValueTrie of every key containing infix as
// a substring, once per key, by the same full scan as SearchSuffix.
func (t *KeyTrie) SearchInfix(infix string) []*ValueTrie {
	var out []*ValueTrie
	visitKeyTerminals(t.root, func(vt *ValueTrie, fullKey string) {
		if strings.Contains(fullKey, infix) {
			out = append(out, vt)
		}
	})
	return out
}

// All returns every ValueTrie indexed by the trie.
func (t *KeyTrie) All() []*ValueTrie {
	var out []*ValueTrie
	collectAllValueTries(t.root, &out)
	return out
}

func collectAllValueTries(node *keyTrieNode, out *[]*ValueTrie) {
	if node.own != nil {
		*out = append(*out, node.own)
	}
	for _, h := range node.handles {
		*out = append(*out, h.vt)
	}
	for _, child := range node.children {
		collectAllValueTries(child, out)
	}
}

func visitKeyTerminals(node *keyTrieNode, f func(vt *ValueTrie, fullKey string)) {
	if node.own != nil {
		f(node.own, node.ownKey)
	}
	for _, child := range node.children {
		visitKeyTerminals(child, f)
	}
}
