package crc_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/felixjones/ffretarget/internal/crc"
)

func TestCRC32_KnownVector(t *testing.T) {
	c := crc.New()
	c.Write([]byte("123456789"))
	require.Equal(t, uint32(0xcbf43926), c.Sum())
}

func TestCRC32_Empty(t *testing.T) {
	c := crc.New()
	require.Equal(t, uint32(0), c.Sum())
}

func TestCRC32_Incremental(t *testing.T) {
	whole := crc.New()
	whole.Write([]byte("PATCHABCEOF"))

	split := crc.New()
	split.Write([]byte("PATCH"))
	split.Write([]byte("ABC"))
	split.Write([]byte("EOF"))

	require.Equal(t, whole.Sum(), split.Sum())
}

func TestCRC32_Uint24BE(t *testing.T) {
	a := crc.New()
	a.WriteUint24BE(0x010203)

	b := crc.New()
	b.Write([]byte{0x01, 0x02, 0x03})

	require.Equal(t, b.Sum(), a.Sum())
}
