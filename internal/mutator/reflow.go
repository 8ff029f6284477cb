package mutator

import (
	"math"
	"regexp"
	"strings"
	"unicode/utf8"
)

// controlTokenPattern is exactly the control-code syntax from §3's
// glossary: a backtick, 2-4 alphanumerics, a closing backtick.
var controlTokenPattern = regexp.MustCompile("^`[0-9a-zA-Z]{2,4}`")

// noDialogStart is the sentinel "no more spans" start value; it is
// numerically greater than any valid end, so callers must test
// start > end, not equality, per the design note on find_dialog.
const noDialogStart = math.MaxInt

// tokenize splits s into its token sequence: each backtick-delimited
// control code (` + 2-4 alphanumerics + `) is one token; everything
// else is split rune by rune.
func tokenize(s string) []string {
	var tokens []string
	for i := 0; i < len(s); {
		tok, next := tokenAt(s, i)
		if tok == "" {
			break
		}
		tokens = append(tokens, tok)
		i = next
	}
	return tokens
}

// tokenAt returns the single token starting at byte offset pos in s,
// and the offset just past it.
func tokenAt(s string, pos int) (string, int) {
	if pos >= len(s) {
		return "", pos
	}
	if s[pos] == '`' {
		if m := controlTokenPattern.FindString(s[pos:]); m != "" {
			return m, pos + len(m)
		}
	}
	_, size := utf8.DecodeRuneInString(s[pos:])
	return s[pos : pos+size], pos + size
}

func isControlToken(tok string) bool {
	return len(tok) >= 4 && tok[0] == '`' && tok[len(tok)-1] == '`'
}

func isPlaceholderToken(tok string) bool {
	switch tok {
	case playerNameToken, gilToken, itemNameToken, abilityNameToken:
		return true
	}
	return false
}

// tokenAdvance returns the pixel advance for one token: a placeholder
// uses its precomputed width, a literal character is reverse-looked-up
// in the destination table to find its font glyph, and any other
// control code contributes no width.
func (s *State) tokenAdvance(tok string) int {
	switch tok {
	case playerNameToken:
		return s.bartzAdvance
	case gilToken:
		return s.gilAdvance
	case itemNameToken:
		return s.itemAdvance
	case abilityNameToken:
		return s.abilityAdvance
	}
	if isControlToken(tok) {
		return 0
	}

	keys, ok := s.destTable.ReverseFind(tok)
	if !ok {
		return 0
	}
	width := 0
	for _, k := range keys {
		if int(k) < len(s.font.Glyphs) {
			width += int(s.font.Glyphs[k].Advance)
		}
	}
	return width
}

func (s *State) measureTokens(tokens []string) int {
	width := 0
	for _, tok := range tokens {
		width += s.tokenAdvance(tok)
	}
	return width
}

// removeLines erases every `01`/`nl` token from span, inserting a `bx`
// at every fourth removal (counted from count) when the span does not
// end with `00`. After all removals, a trailing `01` is appended unless
// the span already ends with `00` or `bx`. Returns the transformed
// tokens and the updated removal count.
func removeLines(span []string, count int) ([]string, int) {
	endsWithTerminator := len(span) > 0 && span[len(span)-1] == terminateToken

	out := make([]string, 0, len(span))
	for _, tok := range span {
		if tok == newlineToken || tok == enforcedNewlineToken {
			count++
			if count%4 == 0 && !endsWithTerminator {
				out = append(out, boxBreakToken)
			}
			continue
		}
		out = append(out, tok)
	}

	if len(out) == 0 || (out[len(out)-1] != terminateToken && out[len(out)-1] != boxBreakToken) {
		out = append(out, newlineToken)
	}

	return out, count
}

func isSentenceTerminal(tok string) bool {
	return tok == "." || tok == "!" || tok == "?"
}

func isAlnumToken(tok string) bool {
	if len(tok) != 1 {
		return false
	}
	c := tok[0]
	return isAlphabetic(c) || (c >= '0' && c <= '9')
}

// grammarLine inserts `01` just after every sentence-terminal (`.` not
// itself preceded by `.`, or `!`, or `?`) that is followed by a `"` or
// an alphanumeric token — i.e. by more sentence content, not the close
// of an already-broken ellipsis or quote.
func grammarLine(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for i, tok := range tokens {
		out = append(out, tok)

		if !isSentenceTerminal(tok) {
			continue
		}
		if tok == "." && i > 0 && tokens[i-1] == "." {
			continue
		}
		if i+1 >= len(tokens) {
			continue
		}

		next := tokens[i+1]
		if next == `"` || isAlnumToken(next) {
			out = append(out, newlineToken)
		}
	}
	return out
}

func isNonAlphanumericToken(tok string) bool {
	if tok == "" {
		return true
	}
	if len(tok) == 1 {
		c := tok[0]
		return !(isAlphabetic(c) || (c >= '0' && c <= '9'))
	}
	return true
}

// removeWhitespace strips leading spaces, collapses runs of spaces to
// one, and deletes a space that is: adjacent to a non-placeholder
// control code; flanked by non-alphanumerics when neither side is a
// colon; or immediately follows a run of two periods.
func removeWhitespace(tokens []string) []string {
	start := 0
	for start < len(tokens) && tokens[start] == " " {
		start++
	}
	tokens = tokens[start:]

	out := make([]string, 0, len(tokens))
	for i, tok := range tokens {
		if tok != " " {
			out = append(out, tok)
			continue
		}
		if len(out) > 0 && out[len(out)-1] == " " {
			continue
		}

		var prev, next string
		if len(out) > 0 {
			prev = out[len(out)-1]
		}
		if i+1 < len(tokens) {
			next = tokens[i+1]
		}

		if (isControlToken(prev) && !isPlaceholderToken(prev)) || (isControlToken(next) && !isPlaceholderToken(next)) {
			continue
		}
		if n := len(out); n >= 2 && out[n-1] == "." && out[n-2] == "." {
			continue
		}
		if isNonAlphanumericToken(prev) && isNonAlphanumericToken(next) && prev != ":" && next != ":" {
			continue
		}

		out = append(out, tok)
	}
	return out
}

// dialogStartBeforeColon walks backward from colonPos over the speaker
// tag immediately preceding a ':' — either a single `02` placeholder
// token, or a run of spaces and alphabetic characters — and returns the
// byte offset where the tag begins.
func dialogStartBeforeColon(s string, colonPos int) int {
	if colonPos >= len(playerNameToken) && s[colonPos-len(playerNameToken):colonPos] == playerNameToken {
		return colonPos - len(playerNameToken)
	}
	i := colonPos
	for i > 0 {
		c := s[i-1]
		if c == ' ' || isAlphabetic(c) {
			i--
			continue
		}
		break
	}
	return i
}

// dialogEnd scans forward from pos, passing over everything until it
// reaches a `00` (returning just past it, clamped to len(s)) or a `01`
// (returning just before the speaker tag of the next ':', if any, else
// the `01`'s own position).
func dialogEnd(s string, pos int) int {
	i := pos
	for i < len(s) {
		tok, next := tokenAt(s, i)
		switch tok {
		case terminateToken:
			end := i + 4
			if end > len(s) {
				end = len(s)
			}
			return end
		case newlineToken:
			colon := strings.IndexByte(s[i:], ':')
			if colon < 0 {
				return i
			}
			return dialogStartBeforeColon(s, i+colon) - 1
		default:
			i = next
		}
	}
	return i
}

// findDialog looks for the next dialog span starting at or after
// prevEnd. The sentinel (noDialogStart, 0) signals "no more spans".
func findDialog(s string, prevEnd int, marks []string) (start, end int) {
	pos := prevEnd
	if pos < 0 {
		pos = 0
	}

	if pos < len(s) && isUpperByte(s[pos]) {
		return pos, dialogEnd(s, pos+1)
	}

	if pos <= len(s) {
		if colon := strings.IndexByte(s[pos:], ':'); colon >= 0 {
			colonPos := pos + colon
			start := dialogStartBeforeColon(s, colonPos)
			return start, dialogEnd(s, start+1)
		}
	}

	if len(marks) == 0 {
		return noDialogStart, 0
	}

	bestIdx, bestPos := -1, -1
	for idx, needle := range marks {
		if needle == "" {
			continue
		}
		if p := strings.Index(s[pos:], needle); p >= 0 {
			absolute := pos + p
			if bestPos < 0 || absolute < bestPos {
				bestPos, bestIdx = absolute, idx
			}
		}
	}
	if bestIdx < 0 {
		return noDialogStart, 0
	}

	afterNeedle := bestPos + len(marks[bestIdx])
	end = dialogEnd(s, afterNeedle)

	for idx, needle := range marks {
		if idx == bestIdx || needle == "" {
			continue
		}
		if p := strings.Index(s[afterNeedle:], needle); p >= 0 {
			if nextPos := afterNeedle + p; nextPos-5 < end {
				end = nextPos - 5
			}
		}
	}

	return bestPos, end
}

func hasDialogSpan(line string, marks []string) bool {
	start, end := findDialog(line, 0, marks)
	return start <= end
}

// expandBoxBreaks replaces every `bx` with (3 - row) copies of `01`,
// where row is a 0-based counter (mod 4) of `01`s seen so far, reset to
// 0 at each `bx`.
func expandBoxBreaks(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	row := 0
	for _, tok := range tokens {
		switch tok {
		case newlineToken:
			out = append(out, tok)
			row = (row + 1) % 4
		case boxBreakToken:
			for k := 0; k < 3-row; k++ {
				out = append(out, newlineToken)
			}
			row = 0
		default:
			out = append(out, tok)
		}
	}
	return out
}

// wrapDialogLine applies the pixel-width-aware word wrap described in
// §4.6.5 across an entire mutated line: it walks tokens accumulating
// advance per physical row (line_widths[row mod 4, clamped]), and when
// the running width exceeds the row's budget it backs up to the most
// recent space and turns it into a `01`, deleting a directly preceding
// space (leading-space-on-new-line suppression).
func (s *State) wrapDialogLine(line string) string {
	tokens := tokenize(line)

	out := make([]string, 0, len(tokens))
	width := 0
	row := 0
	lastSpaceAt := -1
	lastSpaceWidth := 0

	for _, tok := range tokens {
		switch tok {
		case newlineToken:
			out = append(out, tok)
			width, lastSpaceAt = 0, -1
			row = (row + 1) % 4
			continue
		case boxBreakToken:
			for k := 0; k < 3-row; k++ {
				out = append(out, newlineToken)
			}
			width, lastSpaceAt, row = 0, -1, 0
			continue
		}

		out = append(out, tok)
		width += s.tokenAdvance(tok)
		if tok == " " {
			lastSpaceAt, lastSpaceWidth = len(out)-1, width
		}

		limit := s.tuning.lineWidth(row)
		if width > limit && lastSpaceAt >= 0 {
			out[lastSpaceAt] = newlineToken
			width -= lastSpaceWidth
			row = (row + 1) % 4
			if lastSpaceAt > 0 && out[lastSpaceAt-1] == " " {
				out = append(out[:lastSpaceAt-1], out[lastSpaceAt:]...)
			}
			lastSpaceAt = -1
		}
	}

	return strings.Join(out, "")
}

// DialogReflow applies the §4.6.5 pipeline to every line: repeatedly
// locates dialog spans via find_dialog, runs remove_lines,
// grammar_line, and remove_whitespace over each span (the `bx`-insertion
// count is per-line, reset at the start of each line), lowers every
// `nl` to `01`, then word-wraps the whole line against the dialog box's
// line widths.
func (s *State) DialogReflow() {
	for i, line := range s.Lines {
		marks := s.DialogMarks[i]
		removed := 0
		prevEnd := 0

		// The span search is bounded by line length: each iteration
		// either advances prevEnd past the span it just handled or
		// terminates, so this guards against a pathological find_dialog
		// result that fails to make forward progress.
		for guard := 0; guard <= len(line)+1; guard++ {
			start, end := findDialog(line, prevEnd, marks)
			if start > end {
				break
			}
			if end > len(line) {
				end = len(line)
			}
			if start >= end {
				next := end + 1
				if next <= prevEnd || next > len(line) {
					break
				}
				prevEnd = next
				continue
			}

			spanTokens := tokenize(line[start:end])
			spanTokens, removed = removeLines(spanTokens, removed)
			spanTokens = grammarLine(spanTokens)
			spanTokens = removeWhitespace(spanTokens)

			replacement := strings.Join(spanTokens, "")
			line = line[:start] + replacement + line[end:]

			next := start + len(replacement)
			if next <= prevEnd {
				break
			}
			prevEnd = next
		}

		line = strings.ReplaceAll(line, enforcedNewlineToken, newlineToken)
		s.Lines[i] = s.wrapDialogLine(line)
	}
}

func countLeadingSpaceRun(row []string) int {
	n := 0
	for _, tok := range row {
		if tok != " " {
			break
		}
		n++
	}
	return n
}

func trimSpaceTokens(row []string) []string {
	start := 0
	for start < len(row) && row[start] == " " {
		start++
	}
	end := len(row)
	for end > start && row[end-1] == " " {
		end--
	}
	return row[start:end]
}

// TextReflow handles lines with no dialog span: it detects per-physical-row
// alignment by counting the spaces at the start of each row (a row that
// starts with more than two spaces marks the following row as centered), then
// re-emits each row with centering leading-spaces inserted where marked,
// applying the same `bx` expansion dialog_reflow uses.
func (s *State) TextReflow() {
	for i, line := range s.Lines {
		if hasDialogSpan(line, s.DialogMarks[i]) {
			continue
		}
		s.Lines[i] = s.reflowNonDialogLine(line)
	}
}

func (s *State) reflowNonDialogLine(line string) string {
	tokens := expandBoxBreaks(tokenize(line))

	var rows [][]string
	var cur []string
	for _, tok := range tokens {
		if tok == newlineToken {
			rows = append(rows, cur)
			cur = nil
			continue
		}
		cur = append(cur, tok)
	}
	rows = append(rows, cur)

	centered := make([]bool, len(rows))
	for r, row := range rows {
		if countLeadingSpaceRun(row) > 2 && r+1 < len(rows) {
			centered[r+1] = true
		}
	}

	spaceAdvance := s.tokenAdvance(" ")
	if spaceAdvance == 0 {
		spaceAdvance = 1
	}

	for r, row := range rows {
		if !centered[r] {
			continue
		}
		trimmed := trimSpaceTokens(row)
		width := s.measureTokens(trimmed)
		limit := s.tuning.lineWidth(r)
		pad := (limit - width) / spaceAdvance / 2
		if pad < 0 {
			pad = 0
		}

		padded := make([]string, 0, pad+len(trimmed))
		for k := 0; k < pad; k++ {
			padded = append(padded, " ")
		}
		rows[r] = append(padded, trimmed...)
	}

	var out []string
	for r, row := range rows {
		if r > 0 {
			out = append(out, newlineToken)
		}
		out = append(out, row...)
	}
	return strings.Join(out, "")
}
