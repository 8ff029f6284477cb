package cart_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/felixjones/ffretarget/internal/cart"
)

func buildFontImage() []byte {
	data := []byte{0x00, 0x00, 0x00, 0x00, 'F', 'O', 'N', 'T'}
	data = append(data, 0x08)       // height
	data = append(data, 0x02)       // bit depth
	data = append(data, 0x02, 0x00) // glyph count = 2
	data = append(data, make([]byte, 256)...)

	offsetsStart := len(data)
	data = append(data, 0, 0, 0, 0) // glyph 0 offset, patched below
	data = append(data, 0, 0, 0, 0) // glyph 1 offset, patched below

	glyph0Pos := len(data)
	data = append(data, 5, 1) // advance=5, stride=1
	data = append(data, make([]byte, 8)...)

	glyph1Pos := len(data)
	data = append(data, 7, 1)
	data = append(data, make([]byte, 8)...)

	data[offsetsStart] = byte(glyph0Pos - offsetsStart)
	data[offsetsStart+4] = byte(glyph1Pos - offsetsStart)

	return data
}

func TestReadFontTable(t *testing.T) {
	data := buildFontImage()
	pos := cart.FindFontTable(data, 0)
	require.GreaterOrEqual(t, pos, 0)

	font, err := cart.ReadFontTable(data, pos)
	require.NoError(t, err)
	require.Equal(t, byte(8), font.Height)
	require.Len(t, font.Glyphs, 2)
	require.Equal(t, byte(5), font.Glyphs[0].Advance)
	require.Equal(t, byte(7), font.Glyphs[1].Advance)
}

func TestReadFontTable_BadBitDepth(t *testing.T) {
	data := buildFontImage()
	pos := cart.FindFontTable(data, 0)
	data[pos+1] = 4 // corrupt bit depth

	_, err := cart.ReadFontTable(data, pos)
	require.ErrorIs(t, err, cart.ErrUnexpectedBitDepth)
}

func TestFindFontTable_NotFound(t *testing.T) {
	pos := cart.FindFontTable([]byte("no signature here"), 0)
	require.Equal(t, -1, pos)
}

func buildTextImage() []byte {
	data := []byte{0x00, 0x00, 0x00, 0x00, 'T', 'E', 'X', 'T'}
	data = append(data, 0x01)       // translations
	data = append(data, 0, 0, 2)    // text_count = 2 (24-bit BE-ish per field layout; our reader treats as three big-endian bytes)
	data = append(data, 0, 0, 0, 0) // size placeholder, patched below

	offsetsStart := len(data)
	data = append(data, 0, 0, 0, 0) // offsets[0], patched
	data = append(data, 0, 0, 0, 0) // offsets[1], patched

	payload := []byte{'h', 'i', 0x00, 'y', 'o', 0x00}
	sizeAt := offsetsStart - 4
	data[sizeAt] = byte(len(payload))
	data[sizeAt+1] = byte(len(payload) >> 8)
	data[sizeAt+2] = byte(len(payload) >> 16)
	data[sizeAt+3] = byte(len(payload) >> 24)

	data[offsetsStart] = 3
	data[offsetsStart+4] = 6

	data = append(data, payload...)
	return data
}

func TestReadTextTable(t *testing.T) {
	data := buildTextImage()
	pos := cart.FindTextTable(data, 0)
	require.GreaterOrEqual(t, pos, 0)

	tt, err := cart.ReadTextTable(data, pos)
	require.NoError(t, err)
	require.EqualValues(t, 2, tt.TextCount)
	require.Equal(t, []byte("hi\x00"), tt.String(0))
	require.Equal(t, []byte("yo\x00"), tt.String(1))
}

func TestReadHeader(t *testing.T) {
	data := make([]byte, 0xc0)
	copy(data[0xa0:], []byte("GAME TITLE12"))
	data[0xb2] = 0x96

	var sum byte
	for _, b := range data[0xa0:0xbc] {
		sum += b
	}
	data[0xbd] = -(sum + 0x19)

	h, ok := cart.ReadHeader(data)
	require.True(t, ok)
	require.True(t, h.Fixed)
	require.True(t, h.HeaderValid)
	require.False(t, h.LogoChecked)
}

func TestReadHeader_TooShort(t *testing.T) {
	_, ok := cart.ReadHeader(make([]byte, 4))
	require.False(t, ok)
}
