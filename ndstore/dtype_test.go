package ndstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDtype(t *testing.T) {
	dt, err := NewDtype(KindFloat64, 2, 3)
	require.NoError(t, err)
	assert.Equal(t, KindFloat64, dt.Kind)
	assert.Equal(t, []uint64{2, 3}, dt.Shape)
	assert.Equal(t, 2, dt.Rank())
	assert.Equal(t, uint64(6), dt.NumElements())
	assert.Equal(t, uint64(48), dt.ByteSize())
	assert.Equal(t, "float64(2,3)", dt.String())
}

func TestNewDtypeCopiesShape(t *testing.T) {
	shape := []uint64{4, 4}
	dt, err := NewDtype(KindInt32, shape...)
	require.NoError(t, err)

	shape[0] = 99
	assert.Equal(t, []uint64{4, 4}, dt.Shape)
}

func TestNewDtypeRejects(t *testing.T) {
	_, err := NewDtype(KindInvalid, 2)
	assert.ErrorIs(t, err, ErrUnsupported)

	_, err = NewDtype(KindFloat64)
	assert.ErrorIs(t, err, ErrInvalidRank)

	tooDeep := make([]uint64, MaxRank+1)
	for i := range tooDeep {
		tooDeep[i] = 1
	}
	_, err = NewDtype(KindFloat64, tooDeep...)
	assert.ErrorIs(t, err, ErrInvalidRank)

	_, err = NewDtype(KindFloat64, 2, 0, 2)
	assert.ErrorIs(t, err, ErrInvalidRank)
}

func TestScalarDtype(t *testing.T) {
	dt := ScalarDtype(KindFloat64)
	assert.True(t, dt.IsScalar())
	assert.Equal(t, uint64(1), dt.NumElements())
	assert.Equal(t, uint64(8), dt.ByteSize())

	vec, err := NewDtype(KindFloat64, 3)
	require.NoError(t, err)
	assert.False(t, vec.IsScalar())
}

func TestDtypeEqual(t *testing.T) {
	a, _ := NewDtype(KindFloat32, 2, 2)
	b, _ := NewDtype(KindFloat32, 2, 2)
	c, _ := NewDtype(KindFloat32, 2, 3)
	d, _ := NewDtype(KindFloat64, 2, 2)

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(d))
}

func TestMatchesWithLeadingDim(t *testing.T) {
	slice, _ := NewDtype(KindFloat64, 3, 4)
	stack, _ := NewDtype(KindFloat64, 10, 3, 4)
	other, _ := NewDtype(KindFloat64, 10, 3, 5)

	assert.True(t, slice.MatchesWithLeadingDim(stack))
	assert.False(t, stack.MatchesWithLeadingDim(slice))
	assert.False(t, slice.MatchesWithLeadingDim(other))

	// Any leading extent qualifies, including 1.
	one, _ := NewDtype(KindFloat64, 1, 3, 4)
	assert.True(t, slice.MatchesWithLeadingDim(one))
}

func TestCompatible(t *testing.T) {
	slice, _ := NewDtype(KindFloat64, 3, 4)
	stack, _ := NewDtype(KindFloat64, 10, 3, 4)

	assert.True(t, slice.Compatible(stack))
	assert.True(t, stack.Compatible(slice))
	assert.True(t, slice.Compatible(slice))

	wrongKind, _ := NewDtype(KindInt64, 10, 3, 4)
	assert.False(t, slice.Compatible(wrongKind))
}

func TestElementKindSize(t *testing.T) {
	assert.Equal(t, 1, KindInt8.Size())
	assert.Equal(t, 2, KindUint16.Size())
	assert.Equal(t, 4, KindFloat32.Size())
	assert.Equal(t, 8, KindComplex64.Size())
	assert.Equal(t, 16, KindComplex128.Size())
	assert.Equal(t, 0, KindInvalid.Size())
	assert.False(t, ElementKind(200).Valid())
}
