// Package crc implements the streaming CRC-32/IEEE checksum used to
// validate an IPS patch against the RPGe v1.1 release, and big-endian
// integer helpers that ips.Record.WriteHash uses to feed an IPS record's
// exact on-wire encoding into the hash.
package crc

import "encoding/binary"

const (
	polynomial = 0xedb88320
	initial    = 0xffffffff
)

var table = makeTable()

func makeTable() [256]uint32 {
	var t [256]uint32
	for i := range t {
		c := uint32(i)
		for range 8 {
			if c&1 != 0 {
				c = polynomial ^ (c >> 1)
			} else {
				c = c >> 1
			}
		}
		t[i] = c
	}
	return t
}

// CRC32 is a streaming CRC-32/IEEE hash (poly 0xEDB88320, init/xor-out
// 0xFFFFFFFF, lowest-bit-first table update).
type CRC32 struct {
	value uint32
}

// New returns a CRC32 ready to accumulate bytes.
func New() *CRC32 {
	return &CRC32{value: 0}
}

// Write feeds raw bytes into the hash.
func (c *CRC32) Write(p []byte) {
	crc := initial ^ c.value
	for _, b := range p {
		crc = table[byte(crc)^b] ^ (crc >> 8)
	}
	c.value = initial ^ crc
}

// WriteUint16BE feeds a big-endian 16-bit integer into the hash.
func (c *CRC32) WriteUint16BE(v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	c.Write(b[:])
}

// WriteUint24BE feeds the low 24 bits of v, big-endian, into the hash.
// IPS record offsets are 3 bytes wide on the wire.
func (c *CRC32) WriteUint24BE(v uint32) {
	b := [3]byte{byte(v >> 16), byte(v >> 8), byte(v)}
	c.Write(b[:])
}

// Sum returns the finalized checksum.
func (c *CRC32) Sum() uint32 {
	return c.value
}
