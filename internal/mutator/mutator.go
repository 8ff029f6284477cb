// Package mutator owns the decoded destination-token lines and applies
// the scripted find/replace, name-casing, and pixel-width-aware reflow
// pipeline against them, in the order the original's text_mutator
// constructor and member functions impose.
package mutator

import (
	"strings"

	"github.com/felixjones/ffretarget/internal/cart"
	"github.com/felixjones/ffretarget/internal/diag"
	"github.com/felixjones/ffretarget/internal/trie"
)

const (
	terminateToken       = "`00`"
	newlineToken         = "`01`"
	playerNameToken      = "`02`"
	gilToken             = "`10`"
	itemNameToken        = "`11`"
	abilityNameToken     = "`12`"
	enforcedNewlineToken = "`nl`"
	boxBreakToken        = "`bx`"
)

// State owns the mutator's decoded lines and dialog hints, and applies
// the §4.6 pipeline in the order the caller invokes it — ordering is
// load-bearing (mark_dialog before dialog_reflow; reflow before the
// post-reflow target_find_replace) and is the caller's responsibility,
// not State's.
type State struct {
	Lines       []string
	DialogMarks map[int][]string

	destTable *trie.Trie[byte, string]
	font      *cart.Font
	sink      *diag.Sink
	tuning    Tuning

	bartzAdvance   int
	gilAdvance     int
	itemAdvance    int
	abilityAdvance int
}

// NewState decodes each packed destination-byte line (as produced by
// translate.PackedLines) into its literal token-string form by walking
// it through destTable, and precomputes the placeholder advances the
// reflow passes need from font — mirroring the original's text_mutator
// constructor. itemAdvance and abilityAdvance are supplied by the
// caller, each the maximum pixel-width over a caller-chosen range of
// destination-table strings (see cart.MaxTextWidth). tuning supplies the
// reflow geometry (DefaultTuning if the caller has no YAML override).
func NewState(packedLines [][]byte, destTable *trie.Trie[byte, string], font *cart.Font, itemAdvance, abilityAdvance int, tuning Tuning, sink *diag.Sink) *State {
	lines := make([]string, len(packedLines))
	for i, packed := range packedLines {
		lines[i] = decodeTokens(packed, destTable, i, sink)
	}

	return &State{
		Lines:          lines,
		DialogMarks:    make(map[int][]string),
		destTable:      destTable,
		font:           font,
		sink:           sink,
		tuning:         tuning,
		bartzAdvance:   tuning.BartzMultiplier * maxGlyphAdvance(destTable, font, "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"),
		gilAdvance:     tuning.GilMultiplier * maxGlyphAdvance(destTable, font, "0123456789"),
		itemAdvance:    itemAdvance,
		abilityAdvance: abilityAdvance,
	}
}

func decodeTokens(packed []byte, table *trie.Trie[byte, string], lineIndex int, sink *diag.Sink) string {
	var sb strings.Builder
	for i := 0; i < len(packed); {
		value, consumed, ok := table.Find(packed[i:])
		if !ok {
			if sink != nil {
				sink.MissingCode(lineIndex, packed[i:i+1])
			}
			i++
			continue
		}
		sb.WriteString(value)
		i += consumed
	}
	return sb.String()
}

// maxGlyphAdvance reverse-looks-up each byte of chars as a single-byte
// token in table and returns the largest font advance among the codes
// found, skipping characters the table cannot represent as a lone
// code (multi-byte destination encodings of ASCII letters are not
// expected, but the guard keeps this total).
func maxGlyphAdvance(table *trie.Trie[byte, string], font *cart.Font, chars string) int {
	max := 0
	for i := 0; i < len(chars); i++ {
		keys, ok := table.ReverseFind(string(chars[i]))
		if !ok || len(keys) != 1 {
			continue
		}
		code := int(keys[0])
		if code < len(font.Glyphs) && int(font.Glyphs[code].Advance) > max {
			max = int(font.Glyphs[code].Advance)
		}
	}
	return max
}

// Encode re-encodes every line back into destination bytes by
// reverse-looking-up each token through destTable — the inverse of the
// byte-to-token decode NewState performs. A token with no destination
// encoding is reported to sink and skipped, never fatal, mirroring
// translate.PackedLines's treatment of missing source-side mappings.
func (s *State) Encode() [][]byte {
	out := make([][]byte, len(s.Lines))
	for i, line := range s.Lines {
		var buf []byte
		for _, tok := range tokenize(line) {
			keys, ok := s.destTable.ReverseFind(tok)
			if !ok {
				if s.sink != nil {
					s.sink.MissingCode(i, []byte(tok))
				}
				continue
			}
			buf = append(buf, keys...)
		}
		out[i] = buf
	}
	return out
}

// MarkDialog records that the next dialog_reflow of line should treat
// every occurrence of needle as a dialog boundary hint.
func (s *State) MarkDialog(line int, needle string) {
	s.DialogMarks[line] = append(s.DialogMarks[line], needle)
}

// FindReplace performs a global, case-insensitive, whole-word-guarded
// find/replace across every line, recasing replacement to match the
// casing of the substring actually matched.
func (s *State) FindReplace(needle, replacement string) {
	if needle == "" {
		return
	}
	lowerNeedle := asciiToLower(needle)
	lastAlpha := lastAlphabetOffset(needle)

	for i, line := range s.Lines {
		s.Lines[i] = findReplaceLine(line, lowerNeedle, replacement, lastAlpha)
	}
}

func findReplaceLine(line, lowerNeedle, replacement string, lastAlpha int) string {
	if lowerNeedle == "" {
		return line
	}
	lowerLine := asciiToLower(line)

	var out strings.Builder
	pos := 0
	for pos <= len(line) {
		idx := strings.Index(lowerLine[pos:], lowerNeedle)
		if idx < 0 {
			out.WriteString(line[pos:])
			return out.String()
		}
		start := pos + idx
		if !wholeWordBoundary(line, start, lastAlpha) {
			out.WriteString(line[pos : start+1])
			pos = start + 1
			continue
		}

		matched := line[start : start+len(lowerNeedle)]
		out.WriteString(line[pos:start])
		out.WriteString(transformCasing(replacement, matched))
		pos = start + len(lowerNeedle)
	}
	return out.String()
}

// TargetFindReplace performs a case-sensitive, whole-word-guarded edit
// on line i only. If needle is empty, replacement is prepended to the
// line unconditionally. Reports whether any replacement occurred,
// emitting a NoReplacement diagnostic via sink when it did not.
func (s *State) TargetFindReplace(i int, needle, replacement string) bool {
	if i < 0 || i >= len(s.Lines) {
		return false
	}

	if needle == "" {
		s.Lines[i] = replacement + s.Lines[i]
		return true
	}

	line := s.Lines[i]
	lastAlpha := lastAlphabetOffset(needle)

	var out strings.Builder
	pos := 0
	replaced := false
	for pos <= len(line) {
		idx := strings.Index(line[pos:], needle)
		if idx < 0 {
			out.WriteString(line[pos:])
			break
		}
		start := pos + idx
		if !wholeWordBoundary(line, start, lastAlpha) {
			out.WriteString(line[pos : start+1])
			pos = start + 1
			continue
		}

		out.WriteString(line[pos:start])
		out.WriteString(replacement)
		pos = start + len(needle)
		replaced = true
	}

	s.Lines[i] = out.String()
	if !replaced && s.sink != nil {
		s.sink.NoReplacement(i, needle)
	}
	return replaced
}

// NameCase performs a global, case-insensitive, whole-word-guarded
// replace of every occurrence of name with its Name-Case form, except
// where the existing match is already name-cased or all-upper.
func (s *State) NameCase(name string) {
	if name == "" {
		return
	}
	lowerNeedle := asciiToLower(name)
	lastAlpha := lastAlphabetOffset(name)
	replacement := nameCasing(name)

	for i, line := range s.Lines {
		s.Lines[i] = nameCaseLine(line, lowerNeedle, replacement, lastAlpha)
	}
}

func nameCaseLine(line, lowerNeedle, replacement string, lastAlpha int) string {
	lowerLine := asciiToLower(line)

	var out strings.Builder
	pos := 0
	for pos <= len(line) {
		idx := strings.Index(lowerLine[pos:], lowerNeedle)
		if idx < 0 {
			out.WriteString(line[pos:])
			return out.String()
		}
		start := pos + idx
		if !wholeWordBoundary(line, start, lastAlpha) {
			out.WriteString(line[pos : start+1])
			pos = start + 1
			continue
		}

		matched := line[start : start+len(lowerNeedle)]
		out.WriteString(line[pos:start])
		if isNameCase(matched) {
			out.WriteString(matched)
		} else {
			out.WriteString(replacement)
		}
		pos = start + len(lowerNeedle)
	}
	return out.String()
}
