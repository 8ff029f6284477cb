// Package ips implements the International Patching System codec: a
// decoder that reconstructs a sparse byte image from a patch stream with
// a streaming CRC-32 of the patch bytes, and a writer that buffers
// sparse writes and compiles them back into a minimal record stream.
package ips

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/felixjones/ffretarget/internal/crc"
)

var (
	// ErrNotIPS is returned when the stream does not begin with the
	// "PATCH" magic.
	ErrNotIPS = errors.New("ips: not an IPS patch (magic mismatch)")
	// ErrUnexpectedEOF is returned when the stream truncates mid-record.
	ErrUnexpectedEOF = errors.New("ips: unexpected end of stream")
)

var (
	magic    = [5]byte{'P', 'A', 'T', 'C', 'H'}
	eofMagic = [3]byte{'E', 'O', 'F'}
)

// Kind distinguishes the two IPS record shapes.
type Kind int

const (
	// Copy records carry literal payload bytes.
	Copy Kind = iota
	// Fill records carry a single byte repeated Length times.
	Fill
)

// Record is the tagged union of an IPS record: Copy carries Data (len ==
// Length), Fill carries a single repeated Value.
type Record struct {
	Kind   Kind
	Offset uint32 // 24-bit on the wire
	Length int    // payload length (Copy: len(Data); Fill: repeat count)
	Data   []byte // Copy payload
	Value  byte   // Fill byte
}

// WriteHash feeds the record's exact on-wire encoding — offset (3 BE) ‖
// size (2 BE) then either the Copy payload, or 0x0000 ‖ length (2 BE) ‖
// fill byte for Fill — into h, in the order the bytes would appear on
// the wire.
func (r Record) WriteHash(h *crc.CRC32) {
	h.WriteUint24BE(r.Offset)
	switch r.Kind {
	case Copy:
		h.WriteUint16BE(uint16(len(r.Data)))
		h.Write(r.Data)
	case Fill:
		h.WriteUint16BE(0)
		h.WriteUint16BE(uint16(r.Length))
		h.Write([]byte{r.Value})
	}
}

// Image is a sparse byte image addressed by 24-bit file offset. When a
// write lands past the current end, the gap it opens is filled with
// 0xFF, the IPS convention for newly materialized resize gaps.
type Image struct {
	data []byte
}

// Len returns the current extent of the image.
func (img *Image) Len() int {
	return len(img.data)
}

// Bytes returns the image's backing buffer. Callers must not retain it
// across further writes.
func (img *Image) Bytes() []byte {
	return img.data
}

// ensure grows the image to at least n bytes, padding new bytes with
// 0xFF.
func (img *Image) ensure(n int) {
	if n <= len(img.data) {
		return
	}
	grown := make([]byte, n)
	copy(grown, img.data)
	for i := len(img.data); i < n; i++ {
		grown[i] = 0xff
	}
	img.data = grown
}

func (img *Image) applyCopy(offset uint32, data []byte) {
	end := int(offset) + len(data)
	img.ensure(end)
	copy(img.data[offset:end], data)
}

func (img *Image) applyFill(offset uint32, length int, value byte) {
	end := int(offset) + length
	img.ensure(end)
	for i := int(offset); i < end; i++ {
		img.data[i] = value
	}
}

// Decode reads an IPS patch from r, applying each record to a freshly
// allocated Image and accumulating a streaming CRC-32 over the exact
// bytes read: the "PATCH" magic, each record's on-wire encoding, and the
// "EOF" sentinel. It returns ErrNotIPS if the magic does not match, and
// ErrUnexpectedEOF on truncation.
func Decode(r io.Reader) (*Image, uint32, error) {
	br := &byteReader{r: bufio.NewReader(r)}

	var gotMagic [5]byte
	if err := br.readFull(gotMagic[:]); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrUnexpectedEOF, err)
	}
	if gotMagic != magic {
		return nil, 0, ErrNotIPS
	}

	h := crc.New()
	h.Write(gotMagic[:])

	img := &Image{}

	for {
		var peek [3]byte
		if err := br.readFull(peek[:]); err != nil {
			return nil, 0, fmt.Errorf("%w: %v", ErrUnexpectedEOF, err)
		}

		if peek == eofMagic && br.atEOF() {
			h.Write(peek[:])
			return img, h.Sum(), nil
		}

		offset := uint32(peek[0])<<16 | uint32(peek[1])<<8 | uint32(peek[2])

		var sizeBuf [2]byte
		if err := br.readFull(sizeBuf[:]); err != nil {
			return nil, 0, fmt.Errorf("%w: %v", ErrUnexpectedEOF, err)
		}
		size := binary.BigEndian.Uint16(sizeBuf[:])

		if size != 0 {
			data := make([]byte, size)
			if err := br.readFull(data); err != nil {
				return nil, 0, fmt.Errorf("%w: %v", ErrUnexpectedEOF, err)
			}
			rec := Record{Kind: Copy, Offset: offset, Length: len(data), Data: data}
			rec.WriteHash(h)
			img.applyCopy(offset, data)
			continue
		}

		var fillLenBuf [2]byte
		if err := br.readFull(fillLenBuf[:]); err != nil {
			return nil, 0, fmt.Errorf("%w: %v", ErrUnexpectedEOF, err)
		}
		fillLen := binary.BigEndian.Uint16(fillLenBuf[:])

		var fillByte [1]byte
		if err := br.readFull(fillByte[:]); err != nil {
			return nil, 0, fmt.Errorf("%w: %v", ErrUnexpectedEOF, err)
		}

		rec := Record{Kind: Fill, Offset: offset, Length: int(fillLen), Value: fillByte[0]}
		rec.WriteHash(h)
		img.applyFill(offset, int(fillLen), fillByte[0])
	}
}

// byteReader wraps a *bufio.Reader with the peek-then-consume discipline
// IPS's ambiguous EOF-vs-offset bytes require: read 3 bytes and decide
// whether they were the sentinel (at true end of stream) or an offset
// that merely happens to equal 'E','O','F' (more record follows). Peek
// is used rather than a trial Read so the disambiguating lookahead never
// consumes a byte that belongs to the next record.
type byteReader struct {
	r *bufio.Reader
}

func (br *byteReader) readFull(p []byte) error {
	_, err := io.ReadFull(br.r, p)
	return err
}

// atEOF reports whether the underlying reader has nothing left after
// the bytes already consumed — used to disambiguate a 3-byte offset that
// happens to equal "EOF" from the real trailing sentinel.
func (br *byteReader) atEOF() bool {
	_, err := br.r.Peek(1)
	return err != nil
}
