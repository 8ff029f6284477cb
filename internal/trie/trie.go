// Package trie implements a generic arena-backed prefix trie used
// bidirectionally: forward walks decode a byte (or character) sequence
// into a payload (longest-prefix-with-payload match), and reverse walks
// find the key sequence that encodes a given payload.
package trie

// node is one arena entry. index is this node's own position in the
// owning Trie's nodes slice; children lists child node indices. value
// carries the payload once a key sequence terminates here; ok reports
// whether value is actually set (the zero value of V is not
// distinguishable from "unset" otherwise).
type node[K comparable, V any] struct {
	index    int
	key      K
	children []int
	value    V
	ok       bool
}

// Trie is a prefix trie keyed by a sequence of K, storing a payload V at
// the node reached by that sequence. The zero Trie is not usable; use
// New.
type Trie[K comparable, V comparable] struct {
	nodes []node[K, V]
}

// New returns an empty Trie with only its root node.
func New[K comparable, V comparable]() *Trie[K, V] {
	t := &Trie[K, V]{}
	t.nodes = append(t.nodes, node[K, V]{index: 0})
	return t
}

// Empty reports whether the trie holds only its root (no entries
// inserted).
func (t *Trie[K, V]) Empty() bool {
	return len(t.nodes) == 1
}

func (t *Trie[K, V]) findChild(nodeIndex int, key K) int {
	for _, child := range t.nodes[nodeIndex].children {
		if t.nodes[child].key == key {
			return child
		}
	}
	return -1
}

// Insert walks or creates the edge path for keys and sets value at the
// terminal node. Re-inserting the same key sequence overwrites value.
func (t *Trie[K, V]) Insert(keys []K, value V) {
	nodeIndex := 0
	for _, key := range keys {
		next := t.findChild(nodeIndex, key)
		if next < 0 {
			next = len(t.nodes)
			t.nodes[nodeIndex].children = append(t.nodes[nodeIndex].children, next)
			t.nodes = append(t.nodes, node[K, V]{index: next, key: key})
		}
		nodeIndex = next
	}
	t.nodes[nodeIndex].value = value
	t.nodes[nodeIndex].ok = true
}

// Find performs longest-prefix-with-payload matching: it consumes keys
// from the front of seq, descending the trie, and returns the payload of
// the deepest node with a value that lies on the consumed path, along
// with the number of symbols consumed to reach it. If no prefix of seq
// carries a payload, ok is false and consumed is 0.
func (t *Trie[K, V]) Find(seq []K) (value V, consumed int, ok bool) {
	nodeIndex := 0
	bestConsumed := 0
	var best V
	bestOK := false

	for i, key := range seq {
		next := t.findChild(nodeIndex, key)
		if next < 0 {
			break
		}
		nodeIndex = next
		if t.nodes[nodeIndex].ok {
			best = t.nodes[nodeIndex].value
			bestConsumed = i + 1
			bestOK = true
		}
	}

	return best, bestConsumed, bestOK
}

// ReverseFind returns the key sequence (root to node, in order) for the
// first node in preorder whose value equals target. ok is false if no
// node carries that value. When multiple paths carry the same payload
// (legitimate for some destination control codes), the choice among them
// is fixed but otherwise unspecified — callers must not depend on which
// is returned, per the trie's documented invariant.
func (t *Trie[K, V]) ReverseFind(target V) (keys []K, ok bool) {
	idx := t.reverseFindPreorder(0, target)
	if idx < 0 {
		return nil, false
	}
	return t.pathTo(idx), true
}

func (t *Trie[K, V]) reverseFindPreorder(nodeIndex int, target V) int {
	n := &t.nodes[nodeIndex]
	if n.ok && n.value == target {
		return nodeIndex
	}
	for _, child := range n.children {
		if found := t.reverseFindPreorder(child, target); found >= 0 {
			return found
		}
	}
	return -1
}

// pathTo recomputes the key sequence from the root to nodeIndex. The
// trie stores no parent pointers (per the design note: arena tables here
// run to hundreds of entries, so a linear "who owns this child" scan is
// an acceptable cost), so the parent of each node on the path is found
// by scanning the arena for the node that lists it as a child.
func (t *Trie[K, V]) pathTo(nodeIndex int) []K {
	var reversed []K
	for nodeIndex != 0 {
		reversed = append(reversed, t.nodes[nodeIndex].key)
		nodeIndex = t.parentOf(nodeIndex)
	}
	for i, j := 0, len(reversed)-1; i < j; i, j = i+1, j-1 {
		reversed[i], reversed[j] = reversed[j], reversed[i]
	}
	return reversed
}

func (t *Trie[K, V]) parentOf(nodeIndex int) int {
	for i := range t.nodes {
		for _, child := range t.nodes[i].children {
			if child == nodeIndex {
				return i
			}
		}
	}
	return 0
}
