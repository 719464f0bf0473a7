package ndstore

import (
	"errors"
	"fmt"

	"github.com/ndkit/ndstore/internal/container"
)

// OpenFlag selects how Open binds to the container file.
type OpenFlag int

const (
	// ReadOnly opens an existing file for reading.
	ReadOnly OpenFlag = iota
	// ReadWrite opens an existing file for reading and writing.
	ReadWrite
	// Truncate creates the file, replacing any existing one.
	Truncate
	// Exclusive creates the file and fails if it already exists.
	Exclusive
)

func (f OpenFlag) String() string {
	switch f {
	case ReadOnly:
		return "read-only"
	case ReadWrite:
		return "read-write"
	case Truncate:
		return "truncate"
	case Exclusive:
		return "exclusive"
	}
	return fmt.Sprintf("OpenFlag(%d)", int(f))
}

// File is an exclusively owned handle to a container file. Datasets
// hold a non-owning back-reference to their File and must not be used
// after it is closed; every operation through a closed handle fails
// with ErrClosed. File has no internal synchronization and is not
// meant to be copied.
type File struct {
	path   string
	flag   OpenFlag
	c      *container.Container
	closed bool
}

// Open opens or creates a container file according to flag.
func Open(path string, flag OpenFlag, opts ...FileOption) (*File, error) {
	options := defaultFileOptions()
	for _, opt := range opts {
		opt(options)
	}

	var (
		c   *container.Container
		err error
	)
	switch flag {
	case ReadOnly:
		c, err = container.Open(path, false)
	case ReadWrite:
		c, err = container.Open(path, true)
	case Truncate:
		c, err = container.Create(path, options.userblock, false)
	case Exclusive:
		c, err = container.Create(path, options.userblock, true)
	default:
		return nil, fmt.Errorf("unknown open flag %d", flag)
	}
	if err != nil {
		if errors.Is(err, container.ErrNotContainer) {
			return nil, fmt.Errorf("%s: %w", path, ErrNotContainer)
		}
		return nil, err
	}

	return &File{path: path, flag: flag, c: c}, nil
}

// Close flushes pending metadata and releases the container resource.
// Closing twice is a no-op.
func (f *File) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true
	return f.c.Close()
}

// Flush writes pending metadata to disk without closing.
func (f *File) Flush() error {
	if f.closed {
		return ErrClosed
	}
	return f.c.Flush()
}

// Path returns the file path.
func (f *File) Path() string {
	return f.path
}

// Flag returns the flag the file was opened with.
func (f *File) Flag() OpenFlag {
	return f.flag
}

// UserblockSize returns the size of the reserved prefix region.
func (f *File) UserblockSize() uint64 {
	return f.c.UserblockSize()
}

// Unlink makes the object at path unreachable. The data stays in the
// file; reclaiming the space requires copying the remaining objects to
// a new container. Fails with ErrNotFound when the path is absent.
func (f *File) Unlink(path string) error {
	if f.closed {
		return ErrClosed
	}
	if !f.c.Writable() {
		return fmt.Errorf("%w: unlink %s", ErrReadOnly, path)
	}
	if _, ok := f.c.Lookup(path); !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return f.c.Unlink(path)
}

// Rename moves a dataset or group, creating intermediate groups for
// the destination as needed. An existing destination is overwritten.
// Fails with ErrNotFound when the source is absent.
func (f *File) Rename(from, to string) error {
	if f.closed {
		return ErrClosed
	}
	if !f.c.Writable() {
		return fmt.Errorf("%w: rename %s", ErrReadOnly, from)
	}
	if _, ok := f.c.Lookup(from); !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, from)
	}
	return f.c.Rename(from, to)
}

// CreateGroup creates a group at path, along with any missing
// intermediate groups.
func (f *File) CreateGroup(path string) error {
	if f.closed {
		return ErrClosed
	}
	if !f.c.Writable() {
		return fmt.Errorf("%w: create group %s", ErrReadOnly, path)
	}
	return f.c.EnsureGroup(path)
}
