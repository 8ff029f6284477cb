package ips_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/felixjones/ffretarget/internal/ips"
)

func TestDecode_Copy(t *testing.T) {
	patch := []byte{
		'P', 'A', 'T', 'C', 'H',
		0x00, 0x00, 0x00, 0x00, 0x03, 'A', 'B', 'C',
		'E', 'O', 'F',
	}

	img, _, err := ips.Decode(bytes.NewReader(patch))
	require.NoError(t, err)
	require.Equal(t, []byte("ABC"), img.Bytes())
}

func TestDecode_Fill(t *testing.T) {
	patch := []byte{
		'P', 'A', 'T', 'C', 'H',
		0x00, 0x00, 0x05, 0x00, 0x00, 0x00, 0x04, 0x2a,
		'E', 'O', 'F',
	}

	img, _, err := ips.Decode(bytes.NewReader(patch))
	require.NoError(t, err)

	want := []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0x2a, 0x2a, 0x2a, 0x2a}
	require.Equal(t, want, img.Bytes())
}

func TestDecode_NotIPS(t *testing.T) {
	_, _, err := ips.Decode(bytes.NewReader([]byte("NOTAPATCH")))
	require.ErrorIs(t, err, ips.ErrNotIPS)
}

func TestDecode_TruncatedRecord(t *testing.T) {
	patch := []byte{'P', 'A', 'T', 'C', 'H', 0x00, 0x00, 0x00, 0x00}
	_, _, err := ips.Decode(bytes.NewReader(patch))
	require.ErrorIs(t, err, ips.ErrUnexpectedEOF)
}

func TestDecode_OffsetEqualsEOFBytes(t *testing.T) {
	// Offset 0x454f46 ('E','O','F') followed by a real Copy record, then
	// the true EOF sentinel. The decoder must not mistake the offset for
	// the sentinel mid-stream.
	patch := []byte{
		'P', 'A', 'T', 'C', 'H',
		'E', 'O', 'F', 0x00, 0x01, 'Z',
		'E', 'O', 'F',
	}

	img, _, err := ips.Decode(bytes.NewReader(patch))
	require.NoError(t, err)
	require.Equal(t, byte('Z'), img.Bytes()[0x454f46])
}

func TestRoundTrip_Copy(t *testing.T) {
	w := ips.NewWriter()
	w.Seek(0x10)
	w.Write([]byte("hello world"))

	var buf bytes.Buffer
	require.NoError(t, w.Compile(&buf))

	img, _, err := ips.Decode(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Equal(t, []byte("hello world"), img.Bytes()[0x10:0x10+11])
}

func TestFillEquivalence(t *testing.T) {
	copyWriter := ips.NewWriter()
	copyWriter.Seek(5)
	copyWriter.Write(bytes.Repeat([]byte{0x2a}, 6))

	var copyBuf bytes.Buffer
	require.NoError(t, copyWriter.Compile(&copyBuf))

	patch := []byte{
		'P', 'A', 'T', 'C', 'H',
		0x00, 0x00, 0x05, 0x00, 0x00, 0x00, 0x06, 0x2a,
		'E', 'O', 'F',
	}

	copyImg, _, err := ips.Decode(bytes.NewReader(copyBuf.Bytes()))
	require.NoError(t, err)

	fillImg, _, err := ips.Decode(bytes.NewReader(patch))
	require.NoError(t, err)

	require.Equal(t, fillImg.Bytes()[5:11], copyImg.Bytes()[5:11])
}

func TestWriter_CompilesRunsAsFill(t *testing.T) {
	w := ips.NewWriter()
	w.Seek(0)
	w.Write(bytes.Repeat([]byte{0x99}, 10))

	var buf bytes.Buffer
	require.NoError(t, w.Compile(&buf))

	// PATCH(5) + offset(3) + size==0(2) + fillLen(2) + byte(1) + EOF(3)
	require.Len(t, buf.Bytes(), 5+3+2+2+1+3)
}

func TestCanonicalChecksum(t *testing.T) {
	patch := []byte{
		'P', 'A', 'T', 'C', 'H',
		0x00, 0x00, 0x00, 0x00, 0x03, 'A', 'B', 'C',
		'E', 'O', 'F',
	}

	_, sum, err := ips.Decode(bytes.NewReader(patch))
	require.NoError(t, err)
	require.Equal(t, uint32(0x9f1c9ca3), sum)
}
