package ndstore

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Array is a dense, byte-contiguous, typed buffer tagged with an
// identity. Data holds little-endian element bytes and its length is
// always Dtype.ByteSize(). An ID of 0 is the "assign me the next free
// id" sentinel understood by Set.
type Array struct {
	ID    uint64
	Dtype Dtype
	Data  []byte
}

// NewArray allocates a zero-filled array of the given type.
func NewArray(dt Dtype) *Array {
	return &Array{Dtype: dt, Data: make([]byte, dt.ByteSize())}
}

// Clone returns a deep copy, including the identity tag.
func (a *Array) Clone() *Array {
	data := make([]byte, len(a.Data))
	copy(data, a.Data)
	shape := make([]uint64, len(a.Dtype.Shape))
	copy(shape, a.Dtype.Shape)
	return &Array{ID: a.ID, Dtype: Dtype{Kind: a.Dtype.Kind, Shape: shape}, Data: data}
}

// Scalar constrains the Go element types an Array transports.
type Scalar interface {
	int8 | int16 | int32 | int64 |
		uint8 | uint16 | uint32 | uint64 |
		float32 | float64 | complex64 | complex128
}

// KindOf maps a Go element type to its ElementKind.
func KindOf[T Scalar]() ElementKind {
	var z T
	switch any(z).(type) {
	case int8:
		return KindInt8
	case int16:
		return KindInt16
	case int32:
		return KindInt32
	case int64:
		return KindInt64
	case uint8:
		return KindUint8
	case uint16:
		return KindUint16
	case uint32:
		return KindUint32
	case uint64:
		return KindUint64
	case float32:
		return KindFloat32
	case float64:
		return KindFloat64
	case complex64:
		return KindComplex64
	case complex128:
		return KindComplex128
	}
	return KindInvalid
}

// FromSlice builds an array of the given shape from a typed slice. The
// slice length must match the shape's element count exactly.
func FromSlice[T Scalar](shape []uint64, data []T) (*Array, error) {
	dt, err := NewDtype(KindOf[T](), shape...)
	if err != nil {
		return nil, err
	}
	if uint64(len(data)) != dt.NumElements() {
		return nil, fmt.Errorf("%w: %d elements for shape %s", ErrType, len(data), dt)
	}
	a := NewArray(dt)
	size := dt.Kind.Size()
	for i, v := range data {
		putScalar(a.Data[i*size:], v)
	}
	return a, nil
}

// FromScalar builds a scalar array (shape [1]) holding v.
func FromScalar[T Scalar](v T) *Array {
	a := NewArray(ScalarDtype(KindOf[T]()))
	putScalar(a.Data, v)
	return a
}

// SliceOf decodes the array's elements into a typed slice. The element
// kind must match exactly; no widening or narrowing is performed.
func SliceOf[T Scalar](a *Array) ([]T, error) {
	kind := KindOf[T]()
	if a.Dtype.Kind != kind {
		return nil, fmt.Errorf("%w: array holds %s, requested %s", ErrType, a.Dtype.Kind, kind)
	}
	n := a.Dtype.NumElements()
	size := kind.Size()
	out := make([]T, n)
	for i := range out {
		out[i] = getScalar[T](a.Data[i*size:])
	}
	return out, nil
}

// ScalarValue decodes a scalar array's single element.
func ScalarValue[T Scalar](a *Array) (T, error) {
	var zero T
	if !a.Dtype.IsScalar() {
		return zero, fmt.Errorf("%w: %s is not scalar", ErrType, a.Dtype)
	}
	vals, err := SliceOf[T](a)
	if err != nil {
		return zero, err
	}
	return vals[0], nil
}

func putScalar[T Scalar](b []byte, v T) {
	switch x := any(v).(type) {
	case int8:
		b[0] = byte(x)
	case int16:
		binary.LittleEndian.PutUint16(b, uint16(x))
	case int32:
		binary.LittleEndian.PutUint32(b, uint32(x))
	case int64:
		binary.LittleEndian.PutUint64(b, uint64(x))
	case uint8:
		b[0] = x
	case uint16:
		binary.LittleEndian.PutUint16(b, x)
	case uint32:
		binary.LittleEndian.PutUint32(b, x)
	case uint64:
		binary.LittleEndian.PutUint64(b, x)
	case float32:
		binary.LittleEndian.PutUint32(b, math.Float32bits(x))
	case float64:
		binary.LittleEndian.PutUint64(b, math.Float64bits(x))
	case complex64:
		binary.LittleEndian.PutUint32(b, math.Float32bits(real(x)))
		binary.LittleEndian.PutUint32(b[4:], math.Float32bits(imag(x)))
	case complex128:
		binary.LittleEndian.PutUint64(b, math.Float64bits(real(x)))
		binary.LittleEndian.PutUint64(b[8:], math.Float64bits(imag(x)))
	}
}

func getScalar[T Scalar](b []byte) T {
	var v T
	switch any(v).(type) {
	case int8:
		v = any(int8(b[0])).(T)
	case int16:
		v = any(int16(binary.LittleEndian.Uint16(b))).(T)
	case int32:
		v = any(int32(binary.LittleEndian.Uint32(b))).(T)
	case int64:
		v = any(int64(binary.LittleEndian.Uint64(b))).(T)
	case uint8:
		v = any(b[0]).(T)
	case uint16:
		v = any(binary.LittleEndian.Uint16(b)).(T)
	case uint32:
		v = any(binary.LittleEndian.Uint32(b)).(T)
	case uint64:
		v = any(binary.LittleEndian.Uint64(b)).(T)
	case float32:
		v = any(math.Float32frombits(binary.LittleEndian.Uint32(b))).(T)
	case float64:
		v = any(math.Float64frombits(binary.LittleEndian.Uint64(b))).(T)
	case complex64:
		re := math.Float32frombits(binary.LittleEndian.Uint32(b))
		im := math.Float32frombits(binary.LittleEndian.Uint32(b[4:]))
		v = any(complex(re, im)).(T)
	case complex128:
		re := math.Float64frombits(binary.LittleEndian.Uint64(b))
		im := math.Float64frombits(binary.LittleEndian.Uint64(b[8:]))
		v = any(complex(re, im)).(T)
	}
	return v
}
