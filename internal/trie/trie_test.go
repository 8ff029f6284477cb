package trie_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/felixjones/ffretarget/internal/trie"
)

func TestTrie_Empty(t *testing.T) {
	tr := trie.New[byte, string]()
	require.True(t, tr.Empty())

	tr.Insert([]byte{0x01}, "x")
	require.False(t, tr.Empty())
}

func TestTrie_LongestPrefixMatch(t *testing.T) {
	tr := trie.New[byte, string]()
	tr.Insert([]byte("a"), "A")
	tr.Insert([]byte("ab"), "B")

	value, consumed, ok := tr.Find([]byte("ab"))
	require.True(t, ok)
	require.Equal(t, "B", value)
	require.Equal(t, 2, consumed)

	value, consumed, ok = tr.Find([]byte("ac"))
	require.True(t, ok)
	require.Equal(t, "A", value)
	require.Equal(t, 1, consumed)
}

func TestTrie_FindNoMatch(t *testing.T) {
	tr := trie.New[byte, string]()
	tr.Insert([]byte("a"), "A")

	_, _, ok := tr.Find([]byte("z"))
	require.False(t, ok)
}

func TestTrie_ReverseFind(t *testing.T) {
	tr := trie.New[byte, string]()
	tr.Insert([]byte{0x01}, "`01`")
	tr.Insert([]byte{0x02}, "`02`")

	keys, ok := tr.ReverseFind("`01`")
	require.True(t, ok)
	require.Equal(t, []byte{0x01}, keys)
}

func TestTrie_ReverseFindRoundTrip(t *testing.T) {
	tr := trie.New[byte, string]()
	entries := map[string][]byte{
		"alpha": {0x01, 0x02},
		"beta":  {0x03},
		"gamma": {0x04, 0x05, 0x06},
	}
	for value, key := range entries {
		tr.Insert(key, value)
	}

	for value, key := range entries {
		keys, ok := tr.ReverseFind(value)
		require.True(t, ok)
		require.Equal(t, key, keys)

		found, consumed, ok := tr.Find(keys)
		require.True(t, ok)
		require.Equal(t, value, found)
		require.Equal(t, len(key), consumed)
	}
}

func TestTrie_ReverseFindMissing(t *testing.T) {
	tr := trie.New[byte, string]()
	tr.Insert([]byte{0x01}, "present")

	_, ok := tr.ReverseFind("absent")
	require.False(t, ok)
}
