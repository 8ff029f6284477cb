package chartable_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/felixjones/ffretarget/internal/chartable"
)

func TestRead_Basic(t *testing.T) {
	input := "00=`00`\n01=`01`\n4142=AB\n"
	tbl, err := chartable.Read(strings.NewReader(input))
	require.NoError(t, err)

	value, consumed, ok := tbl.Find([]byte{0x00})
	require.True(t, ok)
	require.Equal(t, "`00`", value)
	require.Equal(t, 1, consumed)

	value, consumed, ok = tbl.Find([]byte{0x41, 0x42})
	require.True(t, ok)
	require.Equal(t, "AB", value)
	require.Equal(t, 2, consumed)
}

func TestRead_SkipsMalformedLines(t *testing.T) {
	input := "not a line\n=missing key\nZZ=bad hex\n1=odd length\n00=ok\n"
	tbl, err := chartable.Read(strings.NewReader(input))
	require.NoError(t, err)

	value, _, ok := tbl.Find([]byte{0x00})
	require.True(t, ok)
	require.Equal(t, "ok", value)
}

func TestRead_SkipsEmptyLines(t *testing.T) {
	input := "00=a\n\n\n01=b\n"
	tbl, err := chartable.Read(strings.NewReader(input))
	require.NoError(t, err)

	_, _, ok := tbl.Find([]byte{0x01})
	require.True(t, ok)
}

func TestRead_EmptyIsInvalid(t *testing.T) {
	_, err := chartable.Read(strings.NewReader(""))
	require.ErrorIs(t, err, chartable.ErrInvalidCharTable)
}

func TestRead_AllMalformedIsInvalid(t *testing.T) {
	_, err := chartable.Read(strings.NewReader("garbage\nmore garbage\n"))
	require.ErrorIs(t, err, chartable.ErrInvalidCharTable)
}
