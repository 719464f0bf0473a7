package binary

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrTruncated is returned when a record decoder runs out of bytes.
var ErrTruncated = errors.New("truncated record")

// Encoder builds a little-endian byte record in memory. It is used for
// variable-size metadata (the catalog) whose length must be known
// before file space is allocated.
type Encoder struct {
	buf []byte
}

// NewEncoder returns an empty encoder.
func NewEncoder() *Encoder {
	return &Encoder{}
}

// Bytes returns the accumulated record.
func (e *Encoder) Bytes() []byte {
	return e.buf
}

// Len returns the current record length.
func (e *Encoder) Len() int {
	return len(e.buf)
}

// PutUint8 appends an unsigned 8-bit integer.
func (e *Encoder) PutUint8(v uint8) {
	e.buf = append(e.buf, v)
}

// PutUint16 appends an unsigned 16-bit integer.
func (e *Encoder) PutUint16(v uint16) {
	e.buf = binary.LittleEndian.AppendUint16(e.buf, v)
}

// PutUint32 appends an unsigned 32-bit integer.
func (e *Encoder) PutUint32(v uint32) {
	e.buf = binary.LittleEndian.AppendUint32(e.buf, v)
}

// PutUint64 appends an unsigned 64-bit integer.
func (e *Encoder) PutUint64(v uint64) {
	e.buf = binary.LittleEndian.AppendUint64(e.buf, v)
}

// PutBytes appends raw bytes.
func (e *Encoder) PutBytes(data []byte) {
	e.buf = append(e.buf, data...)
}

// PutString appends a length-prefixed string (uint16 length).
func (e *Encoder) PutString(s string) {
	e.PutUint16(uint16(len(s)))
	e.buf = append(e.buf, s...)
}

// PutBool appends a boolean as one byte.
func (e *Encoder) PutBool(v bool) {
	if v {
		e.PutUint8(1)
	} else {
		e.PutUint8(0)
	}
}

// Decoder walks a byte record produced by Encoder. Errors are sticky:
// after the first short read every accessor returns zero values and
// Err reports the failure.
type Decoder struct {
	buf []byte
	off int
	err error
}

// NewDecoder returns a decoder over the given record.
func NewDecoder(buf []byte) *Decoder {
	return &Decoder{buf: buf}
}

// Err returns the first decoding error, if any.
func (d *Decoder) Err() error {
	return d.err
}

// Remaining returns the number of unread bytes.
func (d *Decoder) Remaining() int {
	return len(d.buf) - d.off
}

func (d *Decoder) take(n int) []byte {
	if d.err != nil {
		return nil
	}
	if d.off+n > len(d.buf) {
		d.err = fmt.Errorf("%w: need %d bytes at offset %d of %d", ErrTruncated, n, d.off, len(d.buf))
		return nil
	}
	b := d.buf[d.off : d.off+n]
	d.off += n
	return b
}

// Uint8 reads an unsigned 8-bit integer.
func (d *Decoder) Uint8() uint8 {
	b := d.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

// Uint16 reads an unsigned 16-bit integer.
func (d *Decoder) Uint16() uint16 {
	b := d.take(2)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

// Uint32 reads an unsigned 32-bit integer.
func (d *Decoder) Uint32() uint32 {
	b := d.take(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

// Uint64 reads an unsigned 64-bit integer.
func (d *Decoder) Uint64() uint64 {
	b := d.take(8)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

// String reads a length-prefixed string.
func (d *Decoder) String() string {
	n := d.Uint16()
	b := d.take(int(n))
	if b == nil {
		return ""
	}
	return string(b)
}

// Bool reads a one-byte boolean.
func (d *Decoder) Bool() bool {
	return d.Uint8() != 0
}
