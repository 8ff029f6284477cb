// Package cart reads the destination GBA cartridge image: the embedded
// font table (variable-width glyphs) and text table (offset index +
// packed token stream), located by scanning for tagged 8-byte
// signatures, plus a supplemented header reader and a max-text-width
// helper used to derive placeholder advances.
package cart

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/felixjones/ffretarget/internal/trie"
)

var (
	// ErrNotDestinationFormat is returned when a font or text signature
	// cannot be located in the image.
	ErrNotDestinationFormat = errors.New("cart: font or text signature not found")
	// ErrUnexpectedBitDepth is returned when the font table's bit depth
	// field is not 2.
	ErrUnexpectedBitDepth = errors.New("cart: unexpected font bit depth")
)

var (
	fontSignature = [8]byte{0x00, 0x00, 0x00, 0x00, 'F', 'O', 'N', 'T'}
	textSignature = [8]byte{0x00, 0x00, 0x00, 0x00, 'T', 'E', 'X', 'T'}
)

// Glyph is one font-table entry: a variable-width bitmap and its
// rendering advance.
type Glyph struct {
	Advance byte
	Stride  byte
	Bitmap  []byte
}

// Font holds the destination font's glyph table.
type Font struct {
	Height byte
	Glyphs []Glyph
}

// TextTable holds the destination's offset index and packed token
// stream.
type TextTable struct {
	Translations byte
	TextCount    uint32 // 24-bit on the wire
	Size         uint32

	Offsets []uint32 // relative to the end of the offset array
	Data    []byte
}

// findSignature locates sig within data starting at or after from,
// returning its byte offset or -1. The original's bounded-chunk
// buffering with seek-back exists to search a stream without holding it
// all in memory; here the destination image is already fully resident
// (decoded from the IPS patch), so a direct bytes.Index suffices and is
// the idiomatic Go equivalent.
func findSignature(data []byte, sig [8]byte, from int) int {
	idx := bytes.Index(data[from:], sig[:])
	if idx < 0 {
		return -1
	}
	return from + idx
}

// FindFontTable returns the byte offset just past the FONT signature, or
// -1 if not found.
func FindFontTable(data []byte, from int) int {
	at := findSignature(data, fontSignature, from)
	if at < 0 {
		return -1
	}
	return at + len(fontSignature)
}

// FindTextTable returns the byte offset just past the TEXT signature, or
// -1 if not found.
func FindTextTable(data []byte, from int) int {
	at := findSignature(data, textSignature, from)
	if at < 0 {
		return -1
	}
	return at + len(textSignature)
}

const fontReservedBytes = 256

// ReadFontTable parses a Font starting at offset pos (as returned by
// FindFontTable), per §6: u8 height, u8 bit_depth (must be 2), u16
// glyph_count, 256 reserved bytes, then glyph_count relative u32
// offsets, each pointing (relative to the start of that offset array) to
// a glyph record: u8 advance, u8 stride, height*stride bytes of bitmap.
func ReadFontTable(data []byte, pos int) (*Font, error) {
	if pos < 0 || pos+4 > len(data) {
		return nil, fmt.Errorf("%w: truncated font header", ErrNotDestinationFormat)
	}

	height := data[pos]
	bitDepth := data[pos+1]
	if bitDepth != 2 {
		return nil, fmt.Errorf("%w: got %d, want 2", ErrUnexpectedBitDepth, bitDepth)
	}
	glyphCount := binary.LittleEndian.Uint16(data[pos+2 : pos+4])

	offsetsStart := pos + 4 + fontReservedBytes
	needed := offsetsStart + int(glyphCount)*4
	if needed > len(data) {
		return nil, fmt.Errorf("%w: truncated glyph offset table", ErrNotDestinationFormat)
	}

	font := &Font{Height: height, Glyphs: make([]Glyph, glyphCount)}

	for i := 0; i < int(glyphCount); i++ {
		relOff := binary.LittleEndian.Uint32(data[offsetsStart+i*4 : offsetsStart+i*4+4])
		glyphPos := offsetsStart + int(relOff)
		if glyphPos+2 > len(data) {
			return nil, fmt.Errorf("%w: glyph %d out of range", ErrNotDestinationFormat, i)
		}

		advance := data[glyphPos]
		stride := data[glyphPos+1]
		bitmapLen := int(height) * int(stride)
		bitmapStart := glyphPos + 2
		if bitmapStart+bitmapLen > len(data) {
			return nil, fmt.Errorf("%w: glyph %d bitmap out of range", ErrNotDestinationFormat, i)
		}

		bitmap := make([]byte, bitmapLen)
		copy(bitmap, data[bitmapStart:bitmapStart+bitmapLen])

		font.Glyphs[i] = Glyph{Advance: advance, Stride: stride, Bitmap: bitmap}
	}

	return font, nil
}

// ReadTextTable parses a TextTable starting at offset pos, per §6: u8
// translations, u24 text_count, u32 size, then text_count u32 offsets,
// then size bytes of packed data (cut short at the end of the image if
// the image holds fewer).
func ReadTextTable(data []byte, pos int) (*TextTable, error) {
	if pos < 0 || pos+8 > len(data) {
		return nil, fmt.Errorf("%w: truncated text header", ErrNotDestinationFormat)
	}

	translations := data[pos]
	textCount := uint32(data[pos+1])<<16 | uint32(data[pos+2])<<8 | uint32(data[pos+3])
	size := binary.LittleEndian.Uint32(data[pos+4 : pos+8])

	offsetsStart := pos + 8
	offsetsEnd := offsetsStart + int(textCount)*4
	if offsetsEnd > len(data) {
		return nil, fmt.Errorf("%w: truncated text offset index", ErrNotDestinationFormat)
	}

	offsets := make([]uint32, textCount)
	for i := range offsets {
		offsets[i] = binary.LittleEndian.Uint32(data[offsetsStart+i*4 : offsetsStart+i*4+4])
	}

	dataEnd := offsetsEnd + int(size)
	if dataEnd > len(data) {
		dataEnd = len(data)
	}

	return &TextTable{
		Translations: translations,
		TextCount:    textCount,
		Size:         size,
		Offsets:      offsets,
		Data:         data[offsetsEnd:dataEnd],
	}, nil
}

// String returns the decoded token stream of the i-th entry (bytes up to
// and including its terminator byte), relative to the start of tt.Data.
func (tt *TextTable) String(i int) []byte {
	start := uint32(0)
	if i > 0 {
		start = tt.Offsets[i-1]
	}
	end := tt.Offsets[i]
	if int(end) > len(tt.Data) {
		end = uint32(len(tt.Data))
	}
	return tt.Data[start:end]
}

// terminateToken is the sentinel string every trie built over the
// destination table decodes the terminator byte to.
const terminateToken = "`00`"

// MaxTextWidth measures, for each [first,last] (inclusive) index range
// of tt, the widest string (in font-advance pixels) among tt's entries,
// and returns the overall maximum across all ranges. It is the helper
// item_advance/ability_advance are meant to be computed from ("the
// maximum pixel-width over a listed range of destination-table
// strings"), supplemented from the original's gba_texts.cpp.
func MaxTextWidth(tt *TextTable, ranges [][2]int, table *trie.Trie[byte, string], font *Font) int {
	max := 0
	for _, r := range ranges {
		for i := r[0]; i <= r[1] && i < len(tt.Offsets); i++ {
			width := measureTextTableEntry(tt.String(i), table, font)
			if width > max {
				max = width
			}
		}
	}
	return max
}

func measureTextTableEntry(s []byte, table *trie.Trie[byte, string], font *Font) int {
	width := 0
	for i := 0; i < len(s); {
		value, consumed, ok := table.Find(s[i:])
		if !ok || consumed != 1 {
			i++
			continue
		}
		if value == terminateToken {
			break
		}
		code := int(s[i])
		if code < len(font.Glyphs) {
			width += int(font.Glyphs[code].Advance)
		}
		i++
	}
	return width
}
