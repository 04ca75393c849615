// Package cdxfilter streams gzipped CDX files through a SURT/URL whitelist
// and writes the matching lines to parallel output paths, grounded on
// cdx_toolkit's filter_cdx/matcher.py and filter_cdx/path_utils.py.
package cdxfilter

import "strings"

// Matcher reports whether a SURT key is present in some whitelist.
// Two implementations (Trie, Tuple) are interchangeable; both are built
// from the same prefix list and behave identically.
type Matcher interface {
	Matches(surt string) bool
}

// trieNode is one node of a prefix trie keyed by byte.
type trieNode struct {
	children map[byte]*trieNode
	terminal bool
}

// TrieMatcher matches a SURT against a set of prefixes via a byte trie.
type TrieMatcher struct {
	root *trieNode
}

// NewTrieMatcher builds a TrieMatcher from prefixes.
func NewTrieMatcher(prefixes []string) *TrieMatcher {
	root := &trieNode{children: make(map[byte]*trieNode)}
	for _, p := range prefixes {
		node := root
		for i := 0; i < len(p); i++ {
			b := p[i]
			child, ok := node.children[b]
			if !ok {
				child = &trieNode{children: make(map[byte]*trieNode)}
				node.children[b] = child
			}
			node = child
		}
		node.terminal = true
	}
	return &TrieMatcher{root: root}
}

// Matches walks s, returning true the moment any visited node is flagged
// as the end of a whitelisted prefix.
func (m *TrieMatcher) Matches(s string) bool {
	node := m.root
	if node.terminal {
		return true
	}
	for i := 0; i < len(s); i++ {
		child, ok := node.children[s[i]]
		if !ok {
			return false
		}
		node = child
		if node.terminal {
			return true
		}
	}
	return false
}

// TupleMatcher matches a SURT by testing strings.HasPrefix against a fixed
// list of prefixes. Chosen for simplicity over trie speed on small
// whitelists; behavior is identical to TrieMatcher.
type TupleMatcher struct {
	prefixes []string
}

// NewTupleMatcher builds a TupleMatcher from prefixes.
func NewTupleMatcher(prefixes []string) *TupleMatcher {
	cp := make([]string, len(prefixes))
	copy(cp, prefixes)
	return &TupleMatcher{prefixes: cp}
}

// Matches reports whether s starts with any whitelisted prefix.
func (m *TupleMatcher) Matches(s string) bool {
	for _, p := range m.prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
