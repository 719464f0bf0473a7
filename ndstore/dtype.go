package ndstore

import (
	"fmt"
	"strings"
)

// ElementKind identifies the scalar encoding of an array's elements.
type ElementKind uint8

const (
	KindInvalid ElementKind = iota
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindUint8
	KindUint16
	KindUint32
	KindUint64
	KindFloat32
	KindFloat64
	KindComplex64
	KindComplex128
)

// Size returns the element size in bytes, or 0 for an invalid kind.
func (k ElementKind) Size() int {
	switch k {
	case KindInt8, KindUint8:
		return 1
	case KindInt16, KindUint16:
		return 2
	case KindInt32, KindUint32, KindFloat32:
		return 4
	case KindInt64, KindUint64, KindFloat64, KindComplex64:
		return 8
	case KindComplex128:
		return 16
	}
	return 0
}

// Valid reports whether k is a known element kind.
func (k ElementKind) Valid() bool {
	return k > KindInvalid && k <= KindComplex128
}

func (k ElementKind) String() string {
	switch k {
	case KindInt8:
		return "int8"
	case KindInt16:
		return "int16"
	case KindInt32:
		return "int32"
	case KindInt64:
		return "int64"
	case KindUint8:
		return "uint8"
	case KindUint16:
		return "uint16"
	case KindUint32:
		return "uint32"
	case KindUint64:
		return "uint64"
	case KindFloat32:
		return "float32"
	case KindFloat64:
		return "float64"
	case KindComplex64:
		return "complex64"
	case KindComplex128:
		return "complex128"
	}
	return "invalid"
}

// Dtype describes the element kind and shape of an array. It is a pure
// value type; two Dtypes compare without touching any storage. Scalars
// follow the rank-1, single-extent convention: shape [1].
type Dtype struct {
	Kind  ElementKind
	Shape []uint64
}

// NewDtype builds a Dtype and validates the rank ceiling and extents.
func NewDtype(kind ElementKind, shape ...uint64) (Dtype, error) {
	if !kind.Valid() {
		return Dtype{}, fmt.Errorf("%w: kind %d", ErrUnsupported, kind)
	}
	if len(shape) == 0 || len(shape) > MaxRank {
		return Dtype{}, fmt.Errorf("%w: rank %d not in 1..%d", ErrInvalidRank, len(shape), MaxRank)
	}
	for i, ext := range shape {
		if ext == 0 {
			return Dtype{}, fmt.Errorf("%w: zero extent at dimension %d", ErrInvalidRank, i)
		}
	}
	s := make([]uint64, len(shape))
	copy(s, shape)
	return Dtype{Kind: kind, Shape: s}, nil
}

// ScalarDtype returns the scalar form of the given kind (shape [1]).
func ScalarDtype(kind ElementKind) Dtype {
	return Dtype{Kind: kind, Shape: []uint64{1}}
}

// Rank returns the number of dimensions.
func (d Dtype) Rank() int {
	return len(d.Shape)
}

// IsScalar reports whether d uses the scalar convention.
func (d Dtype) IsScalar() bool {
	return len(d.Shape) == 1 && d.Shape[0] == 1
}

// NumElements returns the total number of elements.
func (d Dtype) NumElements() uint64 {
	n := uint64(1)
	for _, ext := range d.Shape {
		n *= ext
	}
	return n
}

// ByteSize returns the contiguous storage size in bytes.
func (d Dtype) ByteSize() uint64 {
	return d.NumElements() * uint64(d.Kind.Size())
}

// Equal reports exact compatibility: same kind, rank and extents.
func (d Dtype) Equal(o Dtype) bool {
	if d.Kind != o.Kind || len(d.Shape) != len(o.Shape) {
		return false
	}
	for i := range d.Shape {
		if d.Shape[i] != o.Shape[i] {
			return false
		}
	}
	return true
}

// MatchesWithLeadingDim reports whether o equals d with one extra
// leading extent prepended.
func (d Dtype) MatchesWithLeadingDim(o Dtype) bool {
	if d.Kind != o.Kind || len(o.Shape) != len(d.Shape)+1 {
		return false
	}
	for i := range d.Shape {
		if d.Shape[i] != o.Shape[i+1] {
			return false
		}
	}
	return true
}

// Compatible reports whether the two descriptors are equal or differ
// only by one leading index dimension, in either direction.
func (d Dtype) Compatible(o Dtype) bool {
	return d.Equal(o) || d.MatchesWithLeadingDim(o) || o.MatchesWithLeadingDim(d)
}

func (d Dtype) String() string {
	if len(d.Shape) == 0 {
		return d.Kind.String()
	}
	parts := make([]string, len(d.Shape))
	for i, ext := range d.Shape {
		parts[i] = fmt.Sprintf("%d", ext)
	}
	return fmt.Sprintf("%s(%s)", d.Kind, strings.Join(parts, ","))
}

// validate re-checks the invariants for descriptors built literally.
func (d Dtype) validate() error {
	_, err := NewDtype(d.Kind, d.Shape...)
	return err
}
