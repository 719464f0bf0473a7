package container

import (
	"fmt"

	"github.com/ndkit/ndstore/internal/filter"
)

// Info is the self-describing part of a dataset record: element
// encoding, current shape, growability and the chunk filter pipeline.
// The element kind code is carried through unchanged; the container
// interprets only the element size.
type Info struct {
	Kind       uint8
	ElemSize   uint32
	Shape      []uint64
	Extensible bool
	Filters    []filter.Spec
}

// Clone returns a deep copy of the info.
func (in Info) Clone() Info {
	out := in
	out.Shape = make([]uint64, len(in.Shape))
	copy(out.Shape, in.Shape)
	out.Filters = make([]filter.Spec, len(in.Filters))
	copy(out.Filters, in.Filters)
	return out
}

const (
	layoutContiguous uint8 = 0
	layoutChunked    uint8 = 1
)

// chunkEntry locates one stored chunk. raw is the unfiltered size,
// stored the byte count actually on disk after the filter pipeline.
type chunkEntry struct {
	addr   uint64
	stored uint64
	raw    uint64
}

// Object is a named entry in the container: either a group or a
// dataset. Datasets address their storage in leading-index slices: a
// slice is the contiguous row-major block selected by fixing the first
// dimension, which for chunked layout is exactly one chunk.
type Object struct {
	c      *Container
	path   string
	group  bool
	info   Info
	layout uint8

	// contiguous layout
	addr uint64
	size uint64

	// chunked layout
	chunks []chunkEntry
	pipe   *filter.Pipeline

	// unsupported marks a dataset whose stored filter pipeline this
	// build cannot decode; its record survives round trips but its
	// data is unreachable.
	unsupported bool
}

// Unsupported reports whether the dataset's encoding can be decoded by
// this build.
func (o *Object) Unsupported() bool {
	return o.unsupported
}

// IsGroup reports whether the object is a group.
func (o *Object) IsGroup() bool {
	return o.group
}

// Path returns the object's full path.
func (o *Object) Path() string {
	return o.path
}

// Info returns a copy of the dataset description.
func (o *Object) Info() Info {
	return o.info.Clone()
}

// Extensible reports whether the leading dimension can grow.
func (o *Object) Extensible() bool {
	return o.info.Extensible
}

// SliceSize returns the byte size of one leading-index slice.
func (o *Object) SliceSize() uint64 {
	n := uint64(1)
	for _, ext := range o.info.Shape[1:] {
		n *= ext
	}
	return n * uint64(o.info.ElemSize)
}

// NumSlices returns the current leading extent.
func (o *Object) NumSlices() uint64 {
	if len(o.info.Shape) == 0 {
		return 0
	}
	return o.info.Shape[0]
}

// ReadSlice reads one leading-index slice.
func (o *Object) ReadSlice(index uint64) ([]byte, error) {
	if o.group {
		return nil, fmt.Errorf("%s: object is a group", o.path)
	}
	if o.unsupported {
		return nil, fmt.Errorf("%s: unsupported filter pipeline", o.path)
	}
	if index >= o.NumSlices() {
		return nil, fmt.Errorf("%s: slice %d of %d", o.path, index, o.NumSlices())
	}

	if o.layout == layoutContiguous {
		sliceSize := o.SliceSize()
		return o.c.r.At(int64(o.addr + index*sliceSize)).ReadBytes(int(sliceSize))
	}

	ch := o.chunks[index]
	data, err := o.c.r.At(int64(ch.addr)).ReadBytes(int(ch.stored))
	if err != nil {
		return nil, fmt.Errorf("%s: reading chunk %d: %w", o.path, index, err)
	}
	if o.pipe.Empty() {
		return data, nil
	}
	out, err := o.pipe.Decode(data, int(ch.raw))
	if err != nil {
		return nil, fmt.Errorf("%s: decoding chunk %d: %w", o.path, index, err)
	}
	if uint64(len(out)) != ch.raw {
		return nil, fmt.Errorf("%s: chunk %d decoded to %d bytes, want %d", o.path, index, len(out), ch.raw)
	}
	return out, nil
}

// WriteSlice overwrites one leading-index slice in place. The storage
// never grows along the index dimension; a filtered chunk that no
// longer fits its old block gets a fresh one and the old block is
// marked free.
func (o *Object) WriteSlice(index uint64, data []byte) error {
	if o.group {
		return fmt.Errorf("%s: object is a group", o.path)
	}
	if o.unsupported {
		return fmt.Errorf("%s: unsupported filter pipeline", o.path)
	}
	if index >= o.NumSlices() {
		return fmt.Errorf("%s: slice %d of %d", o.path, index, o.NumSlices())
	}
	if uint64(len(data)) != o.SliceSize() {
		return fmt.Errorf("%s: slice is %d bytes, got %d", o.path, o.SliceSize(), len(data))
	}

	if o.layout == layoutContiguous {
		return o.c.w.At(int64(o.addr + index*o.SliceSize())).WriteBytes(data)
	}

	stored, err := o.encodeChunk(data)
	if err != nil {
		return fmt.Errorf("%s: encoding chunk %d: %w", o.path, index, err)
	}
	ch := &o.chunks[index]
	if uint64(len(stored)) > ch.stored {
		o.c.alloc.Free(ch.addr, ch.stored)
		ch.addr = o.c.alloc.Alloc(uint64(len(stored)))
	}
	if err := o.c.w.At(int64(ch.addr)).WriteBytes(stored); err != nil {
		return fmt.Errorf("%s: writing chunk %d: %w", o.path, index, err)
	}
	ch.stored = uint64(len(stored))
	ch.raw = uint64(len(data))
	o.c.dirty = true
	return nil
}

// Append grows the leading dimension by one and writes data into the
// new final slice. Only chunked objects support it.
func (o *Object) Append(data []byte) error {
	if o.group || !o.info.Extensible || o.layout != layoutChunked {
		return fmt.Errorf("%s: object is not extensible", o.path)
	}
	if o.unsupported {
		return fmt.Errorf("%s: unsupported filter pipeline", o.path)
	}
	if uint64(len(data)) != o.SliceSize() {
		return fmt.Errorf("%s: slice is %d bytes, got %d", o.path, o.SliceSize(), len(data))
	}

	stored, err := o.encodeChunk(data)
	if err != nil {
		return fmt.Errorf("%s: encoding chunk: %w", o.path, err)
	}
	addr := o.c.alloc.Alloc(uint64(len(stored)))
	if err := o.c.w.At(int64(addr)).WriteBytes(stored); err != nil {
		return fmt.Errorf("%s: writing chunk: %w", o.path, err)
	}
	o.chunks = append(o.chunks, chunkEntry{
		addr:   addr,
		stored: uint64(len(stored)),
		raw:    uint64(len(data)),
	})
	o.info.Shape[0]++
	o.c.dirty = true
	return nil
}

// ReadAll reads the whole object in row-major order.
func (o *Object) ReadAll() ([]byte, error) {
	if o.layout == layoutContiguous {
		return o.c.r.At(int64(o.addr)).ReadBytes(int(o.size))
	}

	out := make([]byte, 0, o.NumSlices()*o.SliceSize())
	for i := uint64(0); i < o.NumSlices(); i++ {
		slice, err := o.ReadSlice(i)
		if err != nil {
			return nil, err
		}
		out = append(out, slice...)
	}
	return out, nil
}

// WriteAll overwrites the whole object. The data must cover the
// current shape exactly.
func (o *Object) WriteAll(data []byte) error {
	if o.layout == layoutContiguous {
		if uint64(len(data)) != o.size {
			return fmt.Errorf("%s: object is %d bytes, got %d", o.path, o.size, len(data))
		}
		return o.c.w.At(int64(o.addr)).WriteBytes(data)
	}

	sliceSize := o.SliceSize()
	if uint64(len(data)) != o.NumSlices()*sliceSize {
		return fmt.Errorf("%s: object is %d bytes, got %d", o.path, o.NumSlices()*sliceSize, len(data))
	}
	for i := uint64(0); i < o.NumSlices(); i++ {
		if err := o.WriteSlice(i, data[i*sliceSize:(i+1)*sliceSize]); err != nil {
			return err
		}
	}
	return nil
}

func (o *Object) encodeChunk(data []byte) ([]byte, error) {
	if o.pipe.Empty() {
		return data, nil
	}
	return o.pipe.Encode(data)
}

// freeBlocks marks the object's storage unreachable. Space is only
// reclaimed by copy-compaction to a new container.
func (o *Object) freeBlocks() {
	if o.group {
		return
	}
	if o.layout == layoutContiguous {
		o.c.alloc.Free(o.addr, o.size)
		return
	}
	for _, ch := range o.chunks {
		o.c.alloc.Free(ch.addr, ch.stored)
	}
}
