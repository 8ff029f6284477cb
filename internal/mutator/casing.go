package mutator

// isAlphabetic reports whether b is one of the 52 ASCII letters a-zA-Z —
// the same fixed alphabet the original's both_alphabet() enumerates.
// Multi-byte UTF-8 payload characters are never alphabetic under this
// definition, matching the original's char-by-char semantics.
func isAlphabetic(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isUpperByte(b byte) bool {
	return b >= 'A' && b <= 'Z'
}

func isLowerByte(b byte) bool {
	return b >= 'a' && b <= 'z'
}

// isAllUpper reports whether s contains no lowercase ASCII letters and at
// least one uppercase ASCII letter. Non-letter bytes (digits,
// punctuation, UTF-8 continuation bytes) do not disqualify a match.
func isAllUpper(s string) bool {
	hasUpper := false
	for i := 0; i < len(s); i++ {
		if isLowerByte(s[i]) {
			return false
		}
		hasUpper = hasUpper || isUpperByte(s[i])
	}
	return hasUpper
}

// isAllLower reports whether s contains no uppercase ASCII letters and at
// least one lowercase ASCII letter.
func isAllLower(s string) bool {
	hasLower := false
	for i := 0; i < len(s); i++ {
		if isUpperByte(s[i]) {
			return false
		}
		hasLower = hasLower || isLowerByte(s[i])
	}
	return hasLower
}

// isNameCase reports whether s is already in "Xxxxx" form: either
// all-upper (treated as already-cased per the original), or its first
// byte is uppercase and no other byte in s is uppercase.
func isNameCase(s string) bool {
	if isAllUpper(s) {
		return true
	}
	if s == "" || !isUpperByte(s[0]) {
		return false
	}
	for i := 1; i < len(s); i++ {
		if isUpperByte(s[i]) {
			return false
		}
	}
	return true
}

func asciiToLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if isUpperByte(c) {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

func asciiToUpper(s string) string {
	b := []byte(s)
	for i, c := range b {
		if isLowerByte(c) {
			b[i] = c - ('a' - 'A')
		}
	}
	return string(b)
}

// transformCasing recases in to follow the casing pattern of model: all
// of in upper-cased if model is all-upper, all lower-cased if model is
// all-lower, otherwise in is returned unchanged except its first byte is
// upper-cased when model's first byte is uppercase.
func transformCasing(in, model string) string {
	switch {
	case isAllUpper(model):
		return asciiToUpper(in)
	case isAllLower(model):
		return asciiToLower(in)
	default:
		b := []byte(in)
		if len(model) > 0 && isUpperByte(model[0]) && len(b) > 0 {
			b[0] = asciiUpperByte(b[0])
		}
		return string(b)
	}
}

func asciiUpperByte(b byte) byte {
	if isLowerByte(b) {
		return b - ('a' - 'A')
	}
	return b
}

func asciiLowerByte(b byte) byte {
	if isUpperByte(b) {
		return b + ('a' - 'A')
	}
	return b
}

// nameCasing returns the Name-Case form of in: first byte uppercase,
// every other byte lowercase.
func nameCasing(in string) string {
	if in == "" {
		return in
	}
	b := []byte(in)
	b[0] = asciiUpperByte(b[0])
	for i := 1; i < len(b); i++ {
		b[i] = asciiLowerByte(b[i])
	}
	return string(b)
}

// wholeWordBoundary reports whether a match of the needle whose
// lastAlphabetOffset is lastAlpha, found starting at start in s, is
// flanked by non-alphabetic bytes (or a string edge) on both sides.
// Using lastAlpha rather than the needle's full length means trailing
// punctuation in the needle (rare, but the guard must still hold) does
// not itself need to sit on a word boundary — only the last letter
// does. See DESIGN.md for why both sides are required (an AND, not the
// literal "or" in the prose) to satisfy the stated whole-word
// invariant.
func wholeWordBoundary(s string, start, lastAlpha int) bool {
	beforeOK := start == 0 || !isAlphabetic(s[start-1])
	afterIdx := start + lastAlpha
	afterOK := afterIdx >= len(s) || !isAlphabetic(s[afterIdx])
	return beforeOK && afterOK
}

// lastAlphabetOffset returns one past the index of the last ASCII
// alphabetic byte in s, or 0 if s has none. Added to a match's start
// position, this is the index the whole-word guard checks for a
// trailing word-boundary — for a needle with no trailing punctuation
// this is simply len(s).
func lastAlphabetOffset(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if isAlphabetic(s[i]) {
			return i + 1
		}
	}
	return 0
}
