package ndstore

import (
	"fmt"
	"sort"
)

// Set is an insertion-ordered collection of identity-tagged arrays
// that share a single element type and shape. The first insertion
// fixes the set's Dtype for its lifetime; every later insertion is
// checked against it. Ids are positive and unique within the set; the
// ordered member list and the id index are kept mechanically in sync
// on every mutation.
//
// A Set performs no I/O and provides no internal synchronization.
type Set struct {
	dtype   *Dtype
	members []*Array
	index   map[uint64]*Array
}

// NewSet starts an empty set. An empty set carries no typing
// information, so the first array of any type fixes it.
func NewSet() *Set {
	return &Set{index: make(map[uint64]*Array)}
}

// NewSetOf builds a set from the given arrays using Overwrite
// semantics: zero ids are assigned, equal non-zero ids replace.
func NewSetOf(arrays ...*Array) (*Set, error) {
	s := NewSet()
	for _, a := range arrays {
		if err := s.Overwrite(a); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Add inserts an array, sharing the caller's reference. A zero id is
// replaced by the next free id; a taken non-zero id fails with
// ErrDuplicateID. A type mismatch fails with ErrType and leaves the
// set unchanged.
func (s *Set) Add(a *Array) error {
	return s.insert(a, false)
}

// AddCopy inserts a deep copy of the array.
func (s *Set) AddCopy(a *Array) error {
	return s.insert(a.Clone(), false)
}

// Overwrite behaves like Add but silently replaces an existing id,
// preserving the member's insertion position. A zero id still triggers
// fresh-id assignment.
func (s *Set) Overwrite(a *Array) error {
	return s.insert(a, true)
}

// OverwriteCopy overwrites with a deep copy of the array.
func (s *Set) OverwriteCopy(a *Array) error {
	return s.insert(a.Clone(), true)
}

func (s *Set) insert(a *Array, overwrite bool) error {
	if err := s.checkCompatible(a); err != nil {
		return err
	}
	id := a.ID
	if id == 0 {
		id = s.NextFreeID()
	} else if _, taken := s.index[id]; taken {
		if !overwrite {
			return fmt.Errorf("%w: %d", ErrDuplicateID, id)
		}
		a.ID = id
		for i, m := range s.members {
			if m.ID == id {
				s.members[i] = a
				break
			}
		}
		s.index[id] = a
		s.updateTyping(a)
		return nil
	}
	a.ID = id
	s.members = append(s.members, a)
	s.index[id] = a
	s.updateTyping(a)
	return nil
}

// checkCompatible verifies the array against the set's fixed type.
func (s *Set) checkCompatible(a *Array) error {
	if err := a.Dtype.validate(); err != nil {
		return err
	}
	if s.dtype == nil {
		return nil
	}
	if !s.dtype.Equal(a.Dtype) {
		return fmt.Errorf("%w: set holds %s, got %s", ErrType, s.dtype, a.Dtype)
	}
	return nil
}

// updateTyping fixes the set's type on first insertion; a noop after.
func (s *Set) updateTyping(a *Array) {
	if s.dtype == nil {
		dt := a.Dtype
		s.dtype = &dt
	}
}

// Remove drops the array with the given id. Removing an absent id is a
// deliberate noop.
func (s *Set) Remove(id uint64) {
	if _, ok := s.index[id]; !ok {
		return
	}
	delete(s.index, id)
	for i, m := range s.members {
		if m.ID == id {
			s.members = append(s.members[:i], s.members[i+1:]...)
			break
		}
	}
}

// Get returns the array with the given id, or ErrIndex when absent.
func (s *Set) Get(id uint64) (*Array, error) {
	a, ok := s.index[id]
	if !ok {
		return nil, fmt.Errorf("%w: no array with id %d", ErrIndex, id)
	}
	return a, nil
}

// Ptr returns the array with the given id, or nil when absent.
func (s *Set) Ptr(id uint64) *Array {
	return s.index[id]
}

// NextFreeID returns the smallest positive id not currently in use.
func (s *Set) NextFreeID() uint64 {
	for id := uint64(1); ; id++ {
		if _, taken := s.index[id]; !taken {
			return id
		}
	}
}

// ConsolidateIDs reassigns ids 1..N to the members in insertion order
// and rewrites the index accordingly.
func (s *Set) ConsolidateIDs() {
	index := make(map[uint64]*Array, len(s.members))
	for i, m := range s.members {
		m.ID = uint64(i) + 1
		index[m.ID] = m
	}
	s.index = index
}

// Len returns the number of member arrays.
func (s *Set) Len() int {
	return len(s.members)
}

// IDs returns the member ids in insertion order.
func (s *Set) IDs() []uint64 {
	ids := make([]uint64, len(s.members))
	for i, m := range s.members {
		ids[i] = m.ID
	}
	return ids
}

// Arrays returns the members in insertion order. The arrays are the
// set's own references; the slice is the caller's.
func (s *Set) Arrays() []*Array {
	out := make([]*Array, len(s.members))
	copy(out, s.members)
	return out
}

// Index returns a copy of the id index.
func (s *Set) Index() map[uint64]*Array {
	out := make(map[uint64]*Array, len(s.index))
	for id, a := range s.index {
		out[id] = a
	}
	return out
}

// SortedIDs returns the member ids in ascending order.
func (s *Set) SortedIDs() []uint64 {
	ids := s.IDs()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Dtype returns the set's fixed type; ok is false while the set has
// never held a member.
func (s *Set) Dtype() (Dtype, bool) {
	if s.dtype == nil {
		return Dtype{}, false
	}
	return *s.dtype, true
}
