package ips

import (
	"encoding/binary"
	"io"
)

const maxRecordLen = 65535

// entry is one flushed Writer buffer: a run of bytes destined for a
// particular offset.
type entry struct {
	offset uint32
	data   []byte
}

// Writer accumulates sparse writes at arbitrary offsets and compiles
// them into a minimal IPS record stream. Overlapping entries across
// Seek boundaries are not merged — the original writer's cross-entry
// overlap handling was left unimplemented, so this mirrors that:
// callers are responsible for writing non-overlapping ranges within a
// single Compile.
type Writer struct {
	pos     uint32
	buf     []byte
	entries []entry
}

// NewWriter returns an empty Writer positioned at offset 0.
func NewWriter() *Writer {
	return &Writer{}
}

// Seek flushes the current buffer (if any) as one entry at its starting
// offset, then repositions the write cursor to pos.
func (w *Writer) Seek(pos uint32) {
	w.flush()
	w.pos = pos
}

// Write appends p to the current buffer at the current cursor position.
func (w *Writer) Write(p []byte) {
	w.buf = append(w.buf, p...)
}

func (w *Writer) flush() {
	if len(w.buf) == 0 {
		return
	}
	w.entries = append(w.entries, entry{offset: w.pos, data: w.buf})
	w.buf = nil
}

// Compile flushes any pending buffer and writes "PATCH" ‖ records ‖
// "EOF" to out, in insertion order, coalescing each entry's bytes into
// Fill records (runs of >= 4 identical bytes, capped at 65535) and Copy
// records (everything else, capped at 65535 bytes per record) as it
// goes.
func (w *Writer) Compile(out io.Writer) error {
	w.flush()

	if _, err := out.Write(magic[:]); err != nil {
		return err
	}

	for _, e := range w.entries {
		for _, rec := range coalesce(e.offset, e.data) {
			if err := writeRecord(out, rec); err != nil {
				return err
			}
		}
	}

	_, err := out.Write(eofMagic[:])
	return err
}

// coalesce walks data left to right, offset starting at base, emitting
// Fill records for runs of four or more identical bytes and Copy records
// (capped at maxRecordLen) for everything else.
func coalesce(base uint32, data []byte) []Record {
	var records []Record
	offset := base
	i := 0

	for i < len(data) {
		runEnd := i + 1
		for runEnd < len(data) && data[runEnd] == data[i] && runEnd-i < maxRecordLen {
			runEnd++
		}
		runLen := runEnd - i

		if runLen >= 4 {
			records = append(records, Record{
				Kind:   Fill,
				Offset: offset,
				Length: runLen,
				Value:  data[i],
			})
			offset += uint32(runLen)
			i = runEnd
			continue
		}

		// Accumulate non-run bytes into the current Copy record (or
		// start a new one), splitting at maxRecordLen.
		copyStart := i
		copyOffset := offset
		j := i
		for j < len(data) && j-copyStart < maxRecordLen {
			// Stop accumulating as soon as a run of >= 4 begins, so
			// that run becomes its own Fill record on the next
			// iteration of the outer loop.
			runEnd := j + 1
			for runEnd < len(data) && data[runEnd] == data[j] && runEnd-j < 4 {
				runEnd++
			}
			if runEnd-j >= 4 {
				break
			}
			j++
		}

		records = append(records, Record{
			Kind:   Copy,
			Offset: copyOffset,
			Length: j - copyStart,
			Data:   data[copyStart:j],
		})
		offset += uint32(j - copyStart)
		i = j
	}

	return records
}

func writeRecord(out io.Writer, rec Record) error {
	var offsetBuf [3]byte
	offsetBuf[0] = byte(rec.Offset >> 16)
	offsetBuf[1] = byte(rec.Offset >> 8)
	offsetBuf[2] = byte(rec.Offset)
	if _, err := out.Write(offsetBuf[:]); err != nil {
		return err
	}

	switch rec.Kind {
	case Copy:
		var sizeBuf [2]byte
		binary.BigEndian.PutUint16(sizeBuf[:], uint16(len(rec.Data)))
		if _, err := out.Write(sizeBuf[:]); err != nil {
			return err
		}
		_, err := out.Write(rec.Data)
		return err
	case Fill:
		var zero [2]byte
		if _, err := out.Write(zero[:]); err != nil {
			return err
		}
		var lenBuf [2]byte
		binary.BigEndian.PutUint16(lenBuf[:], uint16(rec.Length))
		if _, err := out.Write(lenBuf[:]); err != nil {
			return err
		}
		_, err := out.Write([]byte{rec.Value})
		return err
	}
	return nil
}
