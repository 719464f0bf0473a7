package container

import (
	"fmt"
	"sort"

	"github.com/ndkit/ndstore/internal/binary"
	"github.com/ndkit/ndstore/internal/filter"
)

// Catalog record flags.
const (
	flagGroup      uint8 = 1 << 0
	flagExtensible uint8 = 1 << 1
	flagChunked    uint8 = 1 << 2
)

// encodeCatalog serializes the object hierarchy, sorted by path so
// identical hierarchies produce identical bytes.
func (c *Container) encodeCatalog() []byte {
	paths := make([]string, 0, len(c.objects))
	for p := range c.objects {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	e := binary.NewEncoder()
	e.PutUint32(uint32(len(paths)))
	for _, p := range paths {
		o := c.objects[p]
		e.PutString(o.path)

		var flags uint8
		if o.group {
			flags |= flagGroup
		}
		if o.info.Extensible {
			flags |= flagExtensible
		}
		if o.layout == layoutChunked {
			flags |= flagChunked
		}
		e.PutUint8(flags)
		if o.group {
			continue
		}

		e.PutUint8(o.info.Kind)
		e.PutUint32(o.info.ElemSize)
		e.PutUint8(uint8(len(o.info.Shape)))
		for _, ext := range o.info.Shape {
			e.PutUint64(ext)
		}

		e.PutUint8(uint8(len(o.info.Filters)))
		for _, spec := range o.info.Filters {
			e.PutUint8(spec.ID)
			e.PutUint8(spec.Level)
		}

		if o.layout == layoutContiguous {
			e.PutUint64(o.addr)
			e.PutUint64(o.size)
			continue
		}
		e.PutUint64(uint64(len(o.chunks)))
		for _, ch := range o.chunks {
			e.PutUint64(ch.addr)
			e.PutUint64(ch.stored)
			e.PutUint64(ch.raw)
		}
	}
	return e.Bytes()
}

// decodeCatalog rebuilds the object hierarchy from a catalog block.
// Dataset records carrying a filter pipeline this build does not know
// are kept but marked unsupported rather than failing the open.
func (c *Container) decodeCatalog(buf []byte) error {
	if len(buf) < 4 {
		return fmt.Errorf("catalog block too small (%d bytes)", len(buf))
	}
	payload, sum := buf[:len(buf)-4], binary.NewDecoder(buf[len(buf)-4:]).Uint32()
	if got := binary.Checksum(payload); got != sum {
		return fmt.Errorf("catalog checksum mismatch: got %08x, want %08x", got, sum)
	}

	d := binary.NewDecoder(payload)
	count := d.Uint32()
	for i := uint32(0); i < count; i++ {
		p := d.String()
		flags := d.Uint8()

		o := &Object{c: c, path: p, group: flags&flagGroup != 0}
		if o.group {
			if err := d.Err(); err != nil {
				return err
			}
			c.objects[p] = o
			continue
		}

		o.info.Extensible = flags&flagExtensible != 0
		o.info.Kind = d.Uint8()
		o.info.ElemSize = d.Uint32()
		rank := d.Uint8()
		o.info.Shape = make([]uint64, rank)
		for j := range o.info.Shape {
			o.info.Shape[j] = d.Uint64()
		}

		nfilters := d.Uint8()
		o.info.Filters = make([]filter.Spec, nfilters)
		for j := range o.info.Filters {
			o.info.Filters[j] = filter.Spec{ID: d.Uint8(), Level: d.Uint8()}
		}

		if flags&flagChunked == 0 {
			o.layout = layoutContiguous
			o.addr = d.Uint64()
			o.size = d.Uint64()
		} else {
			o.layout = layoutChunked
			nchunks := d.Uint64()
			o.chunks = make([]chunkEntry, nchunks)
			for j := range o.chunks {
				o.chunks[j] = chunkEntry{addr: d.Uint64(), stored: d.Uint64(), raw: d.Uint64()}
			}
			pipe, err := filter.NewPipeline(o.info.Filters, int(o.info.ElemSize))
			if err != nil {
				o.unsupported = true
			} else {
				o.pipe = pipe
			}
		}

		if err := d.Err(); err != nil {
			return err
		}
		c.objects[p] = o
	}
	return d.Err()
}
