// Package chartable parses the character-table text format — line-based,
// "HH[HH...]=value" where the left side is an even-length hex string (the
// key's bytes) and the right side is the literal UTF-8 token value — into
// a trie.Trie usable for both forward decode and reverse encode.
package chartable

import (
	"bufio"
	"encoding/hex"
	"errors"
	"io"
	"strings"

	"github.com/felixjones/ffretarget/internal/trie"
)

// ErrInvalidCharTable is returned when a character table has no usable
// entries (empty or every line malformed).
var ErrInvalidCharTable = errors.New("chartable: empty or malformed character table")

// Table is a byte-sequence <-> token trie built from a character-table
// file, usable for forward decode (Find, longest-prefix) and reverse
// encode (ReverseFind) in either direction, since keys are bytes and the
// payload is the token string.
type Table = trie.Trie[byte, string]

// Read parses lines of the form "HH[HH...]=value" from r into a Table.
// Lines that are empty, lack an '=', have an odd-length or non-hex key
// are silently skipped, matching the original reader's tolerance for
// stray/commented lines. Returns ErrInvalidCharTable if the result has
// no entries.
func Read(r io.Reader) (*Table, error) {
	tbl := trie.New[byte, string]()

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}

		splitPos := strings.IndexByte(line, '=')
		if splitPos < 0 {
			continue
		}

		keyStr := line[:splitPos]
		if keyStr == "" || len(keyStr)%2 != 0 || !isHex(keyStr) {
			continue
		}

		key, err := hex.DecodeString(keyStr)
		if err != nil {
			continue
		}

		value := line[splitPos+1:]
		tbl.Insert(key, value)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if tbl.Empty() {
		return nil, ErrInvalidCharTable
	}

	return tbl, nil
}

func isHex(s string) bool {
	for _, c := range s {
		isDigit := c >= '0' && c <= '9'
		isLower := c >= 'a' && c <= 'f'
		isUpper := c >= 'A' && c <= 'F'
		if !isDigit && !isLower && !isUpper {
			return false
		}
	}
	return true
}
