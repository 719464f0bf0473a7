package binary

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempBackingFile(t *testing.T) *os.File {
	t.Helper()
	f, err := os.Create(filepath.Join(t.TempDir(), "backing"))
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

func TestReaderWriterRoundTrip(t *testing.T) {
	f := tempBackingFile(t)
	w := NewWriter(f)
	r := NewReader(f)

	require.NoError(t, w.At(0).WriteUint32(0xDEADBEEF))
	require.NoError(t, w.WriteUint64(0x0102030405060708))
	require.NoError(t, w.WriteUint8(0x7F))
	require.NoError(t, w.WriteBytes([]byte("hello")))

	r.At(0)
	v32, err := r.ReadUint32()
	require.NoError(t, err)
	assert.Equal(t, uint32(0xDEADBEEF), v32)
	v64, err := r.ReadUint64()
	require.NoError(t, err)
	assert.Equal(t, uint64(0x0102030405060708), v64)
	v8, err := r.ReadUint8()
	require.NoError(t, err)
	assert.Equal(t, uint8(0x7F), v8)
	buf, err := r.ReadBytes(5)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), buf)
}

func TestWriterAtSeeksIndependently(t *testing.T) {
	f := tempBackingFile(t)
	w := NewWriter(f)

	require.NoError(t, w.At(100).WriteBytes([]byte{1, 2, 3}))
	require.NoError(t, w.At(0).WriteBytes([]byte{9}))

	r := NewReader(f)
	buf, err := r.At(100).ReadBytes(3)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, buf)
	buf, err = r.At(0).ReadBytes(1)
	require.NoError(t, err)
	assert.Equal(t, []byte{9}, buf)
}

func TestWriteZeros(t *testing.T) {
	f := tempBackingFile(t)
	w := NewWriter(f)

	// Larger than the internal scratch block, to exercise the loop.
	const n = 150 * 1024
	require.NoError(t, w.At(0).WriteZeros(n))
	require.NoError(t, w.WriteUint8(0xAA))

	r := NewReader(f)
	buf, err := r.At(0).ReadBytes(n + 1)
	require.NoError(t, err)
	for i := 0; i < n; i++ {
		if buf[i] != 0 {
			t.Fatalf("byte %d not zeroed: %02x", i, buf[i])
		}
	}
	assert.Equal(t, uint8(0xAA), buf[n])
}

func TestReaderShortRead(t *testing.T) {
	f := tempBackingFile(t)
	w := NewWriter(f)
	require.NoError(t, w.At(0).WriteBytes([]byte{1, 2}))

	r := NewReader(f)
	_, err := r.At(0).ReadBytes(10)
	assert.Error(t, err)
}

func TestEncoderDecoderRoundTrip(t *testing.T) {
	e := NewEncoder()
	e.PutUint8(7)
	e.PutUint16(1000)
	e.PutUint32(1 << 30)
	e.PutUint64(1 << 60)
	e.PutString("a/b/c")
	e.PutBool(true)
	e.PutBool(false)
	e.PutBytes([]byte{0xCA, 0xFE})

	d := NewDecoder(e.Bytes())
	assert.Equal(t, uint8(7), d.Uint8())
	assert.Equal(t, uint16(1000), d.Uint16())
	assert.Equal(t, uint32(1<<30), d.Uint32())
	assert.Equal(t, uint64(1<<60), d.Uint64())
	assert.Equal(t, "a/b/c", d.String())
	assert.True(t, d.Bool())
	assert.False(t, d.Bool())
	assert.Equal(t, 2, d.Remaining())
	require.NoError(t, d.Err())
}

func TestDecoderStickyError(t *testing.T) {
	d := NewDecoder([]byte{1, 2})
	d.Uint8()
	assert.Equal(t, uint64(0), d.Uint64())
	assert.ErrorIs(t, d.Err(), ErrTruncated)

	// Once tripped, later reads stay zero even if bytes remain.
	assert.Equal(t, uint8(0), d.Uint8())
	assert.ErrorIs(t, d.Err(), ErrTruncated)
}

func TestChecksum(t *testing.T) {
	a := Checksum([]byte("some catalog payload"))
	b := Checksum([]byte("some catalog payload"))
	c := Checksum([]byte("some catalog payloae"))
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Equal(t, uint32(0), Checksum(nil))
}
