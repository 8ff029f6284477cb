// Package translate walks reconstructed source ROM bytes through a
// source character table, re-encodes each decoded token through a
// destination character table, and splits the resulting destination
// byte stream into per-line token strings on the terminator token.
package translate

import (
	"bytes"

	"github.com/felixjones/ffretarget/internal/diag"
	"github.com/felixjones/ffretarget/internal/trie"
)

// terminateToken is the payload value both tables use for the line
// terminator.
const terminateToken = "`00`"

// PackedLines walks src from address through end (both inclusive)
// through sourceTable (bytes -> token, longest-prefix-with-payload) and,
// for each decoded token, reverse-looks-up its destination byte sequence
// in destTable (destTable maps destination byte sequences to their token
// text, as chartable.Read builds it, so ReverseFind on the token text
// yields the bytes). The resulting
// destination byte stream is split on the terminator token into one
// packed byte array per terminator, each retaining its trailing
// terminator byte(s). Missing source-side mappings are reported to sink
// and the offending bytes are skipped — never fatal. Decoding these
// packed byte arrays back into literal token-string lines is
// mutator.NewState's job, mirroring the original's text_mutator
// constructor.
func PackedLines(src []byte, address, end int, sourceTable *trie.Trie[byte, string], destTable *trie.Trie[byte, string], sink *diag.Sink) [][]byte {
	var out bytes.Buffer
	var lines [][]byte

	pos := address
	for pos <= end && pos < len(src) {
		value, consumed, ok := sourceTable.Find(src[pos:])
		if !ok {
			if sink != nil {
				sink.MissingCode(pos, src[pos:pos+1])
			}
			pos++
			continue
		}

		destBytes, destOK := destTable.ReverseFind(value)
		if !destOK {
			if sink != nil {
				sink.MissingCode(pos, src[pos:pos+consumed])
			}
			pos += consumed
			continue
		}

		out.Write(destBytes)
		pos += consumed

		if value == terminateToken {
			line := make([]byte, out.Len())
			copy(line, out.Bytes())
			lines = append(lines, line)
			out.Reset()
		}
	}

	if out.Len() > 0 {
		line := make([]byte, out.Len())
		copy(line, out.Bytes())
		lines = append(lines, line)
	}

	return lines
}
