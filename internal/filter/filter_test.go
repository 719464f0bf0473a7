package filter

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// repetitive data compresses; random data exercises the incompressible
// path of the block codecs.
func compressible(n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = byte(i % 16)
	}
	return out
}

func incompressible(n int) []byte {
	rng := rand.New(rand.NewSource(1))
	out := make([]byte, n)
	rng.Read(out)
	return out
}

func TestShuffleRoundTrip(t *testing.T) {
	s := NewShuffle(4)
	data := compressible(64)

	enc, err := s.Encode(data)
	require.NoError(t, err)
	assert.Len(t, enc, len(data))
	assert.NotEqual(t, data, enc)

	dec, err := s.Decode(enc, len(data))
	require.NoError(t, err)
	assert.Equal(t, data, dec)
}

func TestShuffleTransposesBytePlanes(t *testing.T) {
	s := NewShuffle(2)
	enc, err := s.Encode([]byte{0xA0, 0xB0, 0xA1, 0xB1, 0xA2, 0xB2})
	require.NoError(t, err)
	assert.Equal(t, []byte{0xA0, 0xA1, 0xA2, 0xB0, 0xB1, 0xB2}, enc)
}

func TestShufflePartialTrailingElement(t *testing.T) {
	s := NewShuffle(4)
	data := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10} // 2.5 elements

	enc, err := s.Encode(data)
	require.NoError(t, err)
	dec, err := s.Decode(enc, len(data))
	require.NoError(t, err)
	assert.Equal(t, data, dec)
}

func TestCodecRoundTrips(t *testing.T) {
	specs := []Spec{
		{ID: IDDeflate, Level: 6},
		{ID: IDZstd},
		{ID: IDLZ4},
	}
	payloads := map[string][]byte{
		"compressible":   compressible(4096),
		"incompressible": incompressible(4096),
		"tiny":           {1, 2, 3},
		"empty":          {},
	}

	for _, spec := range specs {
		f, err := New(spec, 8)
		require.NoError(t, err)
		for name, data := range payloads {
			enc, err := f.Encode(data)
			require.NoError(t, err, "%d/%s", spec.ID, name)
			dec, err := f.Decode(enc, len(data))
			require.NoError(t, err, "%d/%s", spec.ID, name)
			if !bytes.Equal(data, dec) {
				t.Fatalf("filter %d corrupted %s payload", spec.ID, name)
			}
		}
	}
}

func TestCodecsActuallyCompress(t *testing.T) {
	data := compressible(4096)
	for _, spec := range []Spec{{ID: IDDeflate, Level: 6}, {ID: IDZstd}, {ID: IDLZ4}} {
		f, err := New(spec, 8)
		require.NoError(t, err)
		enc, err := f.Encode(data)
		require.NoError(t, err)
		assert.Less(t, len(enc), len(data), "filter %d", spec.ID)
	}
}

func TestNewUnknownFilter(t *testing.T) {
	_, err := New(Spec{ID: 99}, 8)
	assert.Error(t, err)
	_, err = NewPipeline([]Spec{{ID: IDShuffle}, {ID: 99}}, 8)
	assert.Error(t, err)
}

func TestPipelineOrder(t *testing.T) {
	specs := []Spec{{ID: IDShuffle}, {ID: IDZstd}}
	p, err := NewPipeline(specs, 8)
	require.NoError(t, err)
	assert.False(t, p.Empty())
	assert.Equal(t, specs, p.Specs())

	data := compressible(1024)
	enc, err := p.Encode(data)
	require.NoError(t, err)
	dec, err := p.Decode(enc, len(data))
	require.NoError(t, err)
	assert.Equal(t, data, dec)
}

func TestEmptyPipeline(t *testing.T) {
	p, err := NewPipeline(nil, 8)
	require.NoError(t, err)
	assert.True(t, p.Empty())

	data := []byte{1, 2, 3}
	enc, err := p.Encode(data)
	require.NoError(t, err)
	assert.Equal(t, data, enc)
}
