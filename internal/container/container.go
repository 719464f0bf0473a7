// Package container implements the persistent container format: a
// single file holding a hierarchy of named, self-describing,
// optionally chunked n-dimensional data objects, preceded by an
// optional userblock.
//
// File layout: [userblock][superblock][data and catalog blocks...].
// Data blocks are allocated append-only; the catalog (the serialized
// object hierarchy) is rewritten to a fresh block on every flush and
// the superblock is updated to point at it. Unlinked storage stays in
// the file as dead space.
package container

import (
	"fmt"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/ndkit/ndstore/internal/alloc"
	"github.com/ndkit/ndstore/internal/binary"
	"github.com/ndkit/ndstore/internal/filter"
)

// Container is an open container file. It is exclusively owned by its
// creator and provides no internal synchronization.
type Container struct {
	path     string
	f        *os.File
	r        *binary.Reader
	w        *binary.Writer
	alloc    *alloc.Allocator
	sb       *superblock
	objects  map[string]*Object
	writable bool
	dirty    bool
	closed   bool
}

// Create creates a new container file. userblock must be 0 or a power
// of two >= 512. With exclusive set, creation fails if the file
// already exists.
func Create(name string, userblock uint64, exclusive bool) (*Container, error) {
	if !validUserblock(userblock) {
		return nil, fmt.Errorf("invalid userblock size %d: must be 0 or a power of two >= %d", userblock, minUserblock)
	}

	osFlags := os.O_RDWR | os.O_CREATE | os.O_TRUNC
	if exclusive {
		osFlags = os.O_RDWR | os.O_CREATE | os.O_EXCL
	}
	f, err := os.OpenFile(name, osFlags, 0o644)
	if err != nil {
		return nil, err
	}

	w := binary.NewWriter(f)
	if err := w.WriteZeros(int64(userblock)); err != nil {
		f.Close()
		os.Remove(name)
		return nil, fmt.Errorf("writing userblock: %w", err)
	}

	sb := &superblock{
		userblock:   userblock,
		eof:         userblock + superblockSize,
		catalogAddr: undefinedAddr,
	}
	if err := sb.writeTo(w); err != nil {
		f.Close()
		os.Remove(name)
		return nil, fmt.Errorf("writing superblock: %w", err)
	}

	c := &Container{
		path:     name,
		f:        f,
		r:        binary.NewReader(f),
		w:        w,
		alloc:    alloc.New(sb.eof),
		sb:       sb,
		objects:  map[string]*Object{"/": {path: "/", group: true}},
		writable: true,
		dirty:    true,
	}
	c.objects["/"].c = c
	return c, nil
}

// Open opens an existing container file.
func Open(name string, writable bool) (*Container, error) {
	osFlags := os.O_RDONLY
	if writable {
		osFlags = os.O_RDWR
	}
	f, err := os.OpenFile(name, osFlags, 0)
	if err != nil {
		return nil, err
	}

	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}

	r := binary.NewReader(f)
	sb, err := findSuperblock(r, fi.Size())
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	c := &Container{
		path:     name,
		f:        f,
		r:        r,
		alloc:    alloc.New(sb.eof),
		sb:       sb,
		objects:  map[string]*Object{"/": {path: "/", group: true}},
		writable: writable,
	}
	c.objects["/"].c = c
	if writable {
		c.w = binary.NewWriter(f)
	}

	if sb.catalogAddr != undefinedAddr {
		buf, err := r.At(int64(sb.catalogAddr)).ReadBytes(int(sb.catalogSize))
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("reading catalog: %w", err)
		}
		if err := c.decodeCatalog(buf); err != nil {
			f.Close()
			return nil, fmt.Errorf("decoding catalog: %w", err)
		}
	}
	return c, nil
}

// Path returns the container's file path.
func (c *Container) Path() string {
	return c.path
}

// Writable reports whether the container accepts mutations.
func (c *Container) Writable() bool {
	return c.writable
}

// UserblockSize returns the reserved prefix region size.
func (c *Container) UserblockSize() uint64 {
	return c.sb.userblock
}

// Flush rewrites the catalog and superblock and syncs the file.
func (c *Container) Flush() error {
	if !c.writable || !c.dirty {
		return nil
	}

	payload := c.encodeCatalog()
	e := binary.NewEncoder()
	e.PutBytes(payload)
	e.PutUint32(binary.Checksum(payload))

	if c.sb.catalogAddr != undefinedAddr {
		c.alloc.Free(c.sb.catalogAddr, c.sb.catalogSize)
	}
	addr := c.alloc.Alloc(uint64(e.Len()))
	if err := c.w.At(int64(addr)).WriteBytes(e.Bytes()); err != nil {
		return fmt.Errorf("writing catalog: %w", err)
	}

	c.sb.catalogAddr = addr
	c.sb.catalogSize = uint64(e.Len())
	c.sb.eof = c.alloc.EOF()
	if err := c.sb.writeTo(c.w); err != nil {
		return fmt.Errorf("writing superblock: %w", err)
	}
	if err := c.f.Sync(); err != nil {
		return err
	}
	c.dirty = false
	return nil
}

// Close flushes pending metadata and releases the file.
func (c *Container) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true

	if c.writable {
		if err := c.Flush(); err != nil {
			c.f.Close()
			return err
		}
	}
	return c.f.Close()
}

// normalizePath cleans a path into its canonical absolute form.
func normalizePath(p string) string {
	if p == "" {
		return "/"
	}
	return path.Clean("/" + p)
}

// Normalize cleans a path into the canonical absolute form objects are
// keyed by.
func Normalize(p string) string {
	return normalizePath(p)
}

// Lookup finds the object at the given path.
func (c *Container) Lookup(p string) (*Object, bool) {
	o, ok := c.objects[normalizePath(p)]
	return o, ok
}

// Children returns the immediate child names of a group, sorted.
func (c *Container) Children(p string) []string {
	p = normalizePath(p)
	prefix := p + "/"
	if p == "/" {
		prefix = "/"
	}

	var names []string
	for key := range c.objects {
		if key == p || !strings.HasPrefix(key, prefix) {
			continue
		}
		rest := key[len(prefix):]
		if !strings.Contains(rest, "/") {
			names = append(names, rest)
		}
	}
	sort.Strings(names)
	return names
}

// EnsureGroup creates the group at the given path, along with any
// missing intermediate groups.
func (c *Container) EnsureGroup(p string) error {
	p = normalizePath(p)
	if p == "/" {
		return nil
	}

	parts := strings.Split(strings.TrimPrefix(p, "/"), "/")
	cur := ""
	for _, part := range parts {
		cur = cur + "/" + part
		if o, ok := c.objects[cur]; ok {
			if !o.group {
				return fmt.Errorf("%s: not a group", cur)
			}
			continue
		}
		c.objects[cur] = &Object{c: c, path: cur, group: true}
		c.dirty = true
	}
	return nil
}

// CreateDataset creates a dataset at the given path, allocating its
// storage. Extensible datasets start with a zero leading extent and
// one chunk per future slice; fixed datasets get one zero-filled
// contiguous block covering the declared shape. Filters apply to
// chunked storage only.
func (c *Container) CreateDataset(p string, info Info) (*Object, error) {
	p = normalizePath(p)
	if _, ok := c.objects[p]; ok {
		return nil, fmt.Errorf("%s: object already exists", p)
	}
	if info.ElemSize == 0 || len(info.Shape) == 0 {
		return nil, fmt.Errorf("%s: malformed dataset description", p)
	}
	if err := c.EnsureGroup(path.Dir(p)); err != nil {
		return nil, err
	}

	o := &Object{c: c, path: p, info: info.Clone()}

	if info.Extensible {
		if info.Shape[0] != 0 {
			return nil, fmt.Errorf("%s: extensible dataset must start empty", p)
		}
		o.layout = layoutChunked
		pipe, err := filter.NewPipeline(info.Filters, int(info.ElemSize))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		o.pipe = pipe
	} else {
		if len(info.Filters) > 0 {
			return nil, fmt.Errorf("%s: filters require extensible (chunked) storage", p)
		}
		o.layout = layoutContiguous
		size := uint64(info.ElemSize)
		for _, ext := range info.Shape {
			if ext == 0 {
				return nil, fmt.Errorf("%s: zero extent in fixed shape", p)
			}
			size *= ext
		}
		o.size = size
		o.addr = c.alloc.Alloc(size)
		if err := c.w.At(int64(o.addr)).WriteZeros(int64(size)); err != nil {
			return nil, fmt.Errorf("%s: initializing storage: %w", p, err)
		}
	}

	c.objects[p] = o
	c.dirty = true
	return o, nil
}

// subtree returns the paths of the object and all its descendants.
func (c *Container) subtree(p string) []string {
	prefix := p + "/"
	paths := []string{p}
	for key := range c.objects {
		if strings.HasPrefix(key, prefix) {
			paths = append(paths, key)
		}
	}
	return paths
}

// Unlink removes the object (and, for a group, its descendants) from
// the hierarchy. The storage is marked free but not reclaimed.
func (c *Container) Unlink(p string) error {
	p = normalizePath(p)
	if p == "/" {
		return fmt.Errorf("cannot unlink the root group")
	}
	if _, ok := c.objects[p]; !ok {
		return fmt.Errorf("%s: no such object", p)
	}

	for _, key := range c.subtree(p) {
		c.objects[key].freeBlocks()
		delete(c.objects, key)
	}
	c.dirty = true
	return nil
}

// Rename moves an object, creating intermediate groups for the
// destination as needed. An existing destination is overwritten.
func (c *Container) Rename(from, to string) error {
	from = normalizePath(from)
	to = normalizePath(to)
	if from == "/" || to == "/" {
		return fmt.Errorf("cannot rename the root group")
	}
	if _, ok := c.objects[from]; !ok {
		return fmt.Errorf("%s: no such object", from)
	}
	if from == to {
		return nil
	}
	if strings.HasPrefix(to, from+"/") {
		return fmt.Errorf("cannot rename %s into its own subtree %s", from, to)
	}

	if _, ok := c.objects[to]; ok {
		if err := c.Unlink(to); err != nil {
			return err
		}
	}
	if err := c.EnsureGroup(path.Dir(to)); err != nil {
		return err
	}

	for _, key := range c.subtree(from) {
		o := c.objects[key]
		delete(c.objects, key)
		o.path = to + strings.TrimPrefix(key, from)
		c.objects[o.path] = o
	}
	c.dirty = true
	return nil
}
