// Package alloc provides space management for container file writing.
package alloc

import "sync"

// Allocator manages space allocation within a container file. It is
// append-only: blocks are handed out at the end-of-file address, and
// freed space is tracked but never reused. Reclaiming freed space
// requires copy-compaction to a new file.
type Allocator struct {
	mu sync.Mutex

	// eof is the current end-of-file address, the next allocation point.
	eof uint64

	// base is the minimum address that can be allocated, right after
	// the superblock.
	base uint64

	freed []Block
}

// Block describes a freed region.
type Block struct {
	Addr uint64
	Size uint64
}

// New creates an allocator starting at the given base address.
func New(base uint64) *Allocator {
	return &Allocator{eof: base, base: base}
}

// Alloc reserves a block of the given size and returns its address.
func (a *Allocator) Alloc(size uint64) uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	addr := a.eof
	a.eof += size
	return addr
}

// Free marks a block as unreachable. The space is not reused.
func (a *Allocator) Free(addr, size uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if size == 0 {
		return
	}
	a.freed = append(a.freed, Block{Addr: addr, Size: size})
}

// EOF returns the current end-of-file address.
func (a *Allocator) EOF() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.eof
}

// SetEOF sets the end-of-file address, used when opening an existing
// file.
func (a *Allocator) SetEOF(addr uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.eof = addr
}

// Base returns the start of allocatable space.
func (a *Allocator) Base() uint64 {
	return a.base
}

// FreedBytes returns the total number of unreachable bytes.
func (a *Allocator) FreedBytes() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	var total uint64
	for _, b := range a.freed {
		total += b.Size
	}
	return total
}
