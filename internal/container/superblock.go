package container

import (
	"errors"
	"fmt"

	"github.com/ndkit/ndstore/internal/binary"
)

// ErrNotContainer is returned when no valid superblock can be located
// in a file.
var ErrNotContainer = errors.New("no valid superblock found")

const (
	magic   = "NDC1"
	version = 1

	// superblockSize is the fixed encoded size, padding included.
	superblockSize = 48

	// undefinedAddr marks a not-yet-written block address. All 1-bits,
	// as in the HDF5 container model.
	undefinedAddr = ^uint64(0)

	// minUserblock is the smallest non-zero userblock size. Userblocks
	// are powers of two so the superblock can be found by probing.
	minUserblock = 512
)

// superblock is the container's entry point: it records where the
// catalog lives and how far the file has grown. It sits directly after
// the userblock, which is why opening probes offsets 0, 512, 1024, ...
type superblock struct {
	userblock   uint64
	eof         uint64
	catalogAddr uint64
	catalogSize uint64
}

// validUserblock reports whether size is 0 or a power of two >= 512.
func validUserblock(size uint64) bool {
	if size == 0 {
		return true
	}
	return size >= minUserblock && size&(size-1) == 0
}

func (sb *superblock) encode() []byte {
	e := binary.NewEncoder()
	e.PutBytes([]byte(magic))
	e.PutUint8(version)
	e.PutUint8(0) // flags
	e.PutUint16(0)
	e.PutUint64(sb.userblock)
	e.PutUint64(sb.eof)
	e.PutUint64(sb.catalogAddr)
	e.PutUint64(sb.catalogSize)
	e.PutUint32(binary.Checksum(e.Bytes()))
	e.PutUint32(0)
	return e.Bytes()
}

// decodeSuperblock parses a candidate superblock at the given offset.
func decodeSuperblock(buf []byte, offset uint64) (*superblock, error) {
	if len(buf) < superblockSize || string(buf[:4]) != magic {
		return nil, ErrNotContainer
	}
	if got, want := binary.Checksum(buf[:40]), binary.NewDecoder(buf[40:]).Uint32(); got != want {
		return nil, fmt.Errorf("superblock checksum mismatch: got %08x, want %08x", got, want)
	}

	d := binary.NewDecoder(buf[4:])
	if v := d.Uint8(); v != version {
		return nil, fmt.Errorf("unsupported container version %d", v)
	}
	d.Uint8()
	d.Uint16()
	sb := &superblock{
		userblock:   d.Uint64(),
		eof:         d.Uint64(),
		catalogAddr: d.Uint64(),
		catalogSize: d.Uint64(),
	}
	if err := d.Err(); err != nil {
		return nil, err
	}
	if sb.userblock != offset {
		return nil, fmt.Errorf("superblock at offset %d declares userblock size %d", offset, sb.userblock)
	}
	return sb, nil
}

// findSuperblock probes the userblock offsets until a valid superblock
// turns up.
func findSuperblock(r *binary.Reader, fileSize int64) (*superblock, error) {
	offset := int64(0)
	for offset+superblockSize <= fileSize {
		buf, err := r.At(offset).ReadBytes(superblockSize)
		if err != nil {
			return nil, err
		}
		if sb, err := decodeSuperblock(buf, uint64(offset)); err == nil {
			return sb, nil
		}
		if offset == 0 {
			offset = minUserblock
		} else {
			offset *= 2
		}
	}
	return nil, ErrNotContainer
}

func (sb *superblock) writeTo(w *binary.Writer) error {
	return w.At(int64(sb.userblock)).WriteBytes(sb.encode())
}
