package container

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndkit/ndstore/internal/filter"
)

func tempName(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "c.nds")
}

func fixedInfo(shape ...uint64) Info {
	return Info{Kind: 1, ElemSize: 8, Shape: shape}
}

func listInfo(shape ...uint64) Info {
	return Info{Kind: 1, ElemSize: 8, Shape: append([]uint64{0}, shape...), Extensible: true}
}

func bytesFor(n int, seed byte) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = seed + byte(i)
	}
	return out
}

func TestCreateOpenRoundTrip(t *testing.T) {
	name := tempName(t)

	c, err := Create(name, 0, false)
	require.NoError(t, err)
	require.NoError(t, c.EnsureGroup("/grp/sub"))
	_, err = c.CreateDataset("/grp/fixed", fixedInfo(2, 2))
	require.NoError(t, err)
	require.NoError(t, c.Close())

	c2, err := Open(name, false)
	require.NoError(t, err)
	defer c2.Close()

	o, ok := c2.Lookup("/grp/sub")
	require.True(t, ok)
	assert.True(t, o.IsGroup())

	o, ok = c2.Lookup("/grp/fixed")
	require.True(t, ok)
	assert.False(t, o.IsGroup())
	assert.Equal(t, []uint64{2, 2}, o.Info().Shape)
	assert.Equal(t, []string{"fixed", "sub"}, c2.Children("/grp"))
}

func TestFixedDatasetReadWrite(t *testing.T) {
	name := tempName(t)
	c, err := Create(name, 0, false)
	require.NoError(t, err)

	o, err := c.CreateDataset("/d", fixedInfo(3, 2))
	require.NoError(t, err)
	assert.Equal(t, uint64(16), o.SliceSize())
	assert.Equal(t, uint64(3), o.NumSlices())

	// Fixed storage starts zeroed.
	got, err := o.ReadSlice(0)
	require.NoError(t, err)
	assert.Equal(t, make([]byte, 16), got)

	row := bytesFor(16, 0x10)
	require.NoError(t, o.WriteSlice(1, row))
	got, err = o.ReadSlice(1)
	require.NoError(t, err)
	assert.Equal(t, row, got)

	_, err = o.ReadSlice(3)
	assert.Error(t, err)
	assert.Error(t, o.Append(row))
	require.NoError(t, c.Close())

	c2, err := Open(name, false)
	require.NoError(t, err)
	defer c2.Close()
	o2, ok := c2.Lookup("/d")
	require.True(t, ok)
	got, err = o2.ReadSlice(1)
	require.NoError(t, err)
	assert.Equal(t, row, got)
}

func TestChunkedAppendAndRewrite(t *testing.T) {
	name := tempName(t)
	c, err := Create(name, 0, false)
	require.NoError(t, err)

	o, err := c.CreateDataset("/d", listInfo(4))
	require.NoError(t, err)
	assert.Equal(t, uint64(32), o.SliceSize())

	for i := 0; i < 3; i++ {
		require.NoError(t, o.Append(bytesFor(32, byte(i*32))))
	}
	assert.Equal(t, uint64(3), o.NumSlices())
	assert.Equal(t, []uint64{3, 4}, o.Info().Shape)

	require.NoError(t, o.WriteSlice(1, bytesFor(32, 0xF0)))
	got, err := o.ReadSlice(1)
	require.NoError(t, err)
	assert.Equal(t, bytesFor(32, 0xF0), got)

	all, err := o.ReadAll()
	require.NoError(t, err)
	assert.Len(t, all, 96)
	assert.Equal(t, bytesFor(32, 0), all[:32])
	require.NoError(t, c.Close())

	c2, err := Open(name, true)
	require.NoError(t, err)
	defer c2.Close()
	o2, ok := c2.Lookup("/d")
	require.True(t, ok)
	assert.Equal(t, uint64(3), o2.NumSlices())
	require.NoError(t, o2.Append(bytesFor(32, 0x60)))
	got, err = o2.ReadSlice(3)
	require.NoError(t, err)
	assert.Equal(t, bytesFor(32, 0x60), got)
}

func TestExtensibleMustStartEmpty(t *testing.T) {
	c, err := Create(tempName(t), 0, false)
	require.NoError(t, err)
	defer c.Close()

	_, err = c.CreateDataset("/d", Info{Kind: 1, ElemSize: 8, Shape: []uint64{2, 4}, Extensible: true})
	assert.Error(t, err)
}

func TestFiltersRequireChunked(t *testing.T) {
	c, err := Create(tempName(t), 0, false)
	require.NoError(t, err)
	defer c.Close()

	info := fixedInfo(4)
	info.Filters = []filter.Spec{{ID: filter.IDZstd}}
	_, err = c.CreateDataset("/d", info)
	assert.Error(t, err)
}

func TestFilteredChunksPersist(t *testing.T) {
	name := tempName(t)
	c, err := Create(name, 0, false)
	require.NoError(t, err)

	info := listInfo(64)
	info.Filters = []filter.Spec{{ID: filter.IDShuffle}, {ID: filter.IDDeflate, Level: 6}}
	o, err := c.CreateDataset("/d", info)
	require.NoError(t, err)

	row := bytesFor(512, 0)
	require.NoError(t, o.Append(row))
	require.NoError(t, c.Close())

	c2, err := Open(name, false)
	require.NoError(t, err)
	defer c2.Close()
	o2, ok := c2.Lookup("/d")
	require.True(t, ok)
	assert.False(t, o2.Unsupported())
	got, err := o2.ReadSlice(0)
	require.NoError(t, err)
	assert.Equal(t, row, got)
}

func TestUnknownFilterSurvivesRoundTrip(t *testing.T) {
	name := tempName(t)
	c, err := Create(name, 0, false)
	require.NoError(t, err)
	o, err := c.CreateDataset("/d", listInfo(4))
	require.NoError(t, err)
	require.NoError(t, o.Append(bytesFor(32, 0)))

	// Forge a filter id from the future directly in the record.
	o.info.Filters = []filter.Spec{{ID: 250}}
	c.dirty = true
	require.NoError(t, c.Close())

	c2, err := Open(name, true)
	require.NoError(t, err)
	o2, ok := c2.Lookup("/d")
	require.True(t, ok)
	assert.True(t, o2.Unsupported())
	_, err = o2.ReadSlice(0)
	assert.Error(t, err)

	// The record itself must survive another write cycle untouched.
	_, err = c2.CreateDataset("/other", listInfo(4))
	require.NoError(t, err)
	require.NoError(t, c2.Close())

	c3, err := Open(name, false)
	require.NoError(t, err)
	defer c3.Close()
	o3, ok := c3.Lookup("/d")
	require.True(t, ok)
	assert.True(t, o3.Unsupported())
	assert.Equal(t, []filter.Spec{{ID: 250}}, o3.Info().Filters)
}

func TestUnlinkFreesStorage(t *testing.T) {
	c, err := Create(tempName(t), 0, false)
	require.NoError(t, err)
	defer c.Close()

	_, err = c.CreateDataset("/g/a", fixedInfo(4))
	require.NoError(t, err)
	_, err = c.CreateDataset("/g/b", fixedInfo(4))
	require.NoError(t, err)

	require.NoError(t, c.Unlink("/g"))
	_, ok := c.Lookup("/g")
	assert.False(t, ok)
	_, ok = c.Lookup("/g/a")
	assert.False(t, ok)
	assert.Equal(t, uint64(64), c.alloc.FreedBytes())

	assert.Error(t, c.Unlink("/"))
	assert.Error(t, c.Unlink("/missing"))
}

func TestRenameSubtree(t *testing.T) {
	name := tempName(t)
	c, err := Create(name, 0, false)
	require.NoError(t, err)

	o, err := c.CreateDataset("/old/deep/d", listInfo(4))
	require.NoError(t, err)
	require.NoError(t, o.Append(bytesFor(32, 7)))

	require.NoError(t, c.Rename("/old", "/fresh/spot"))
	_, ok := c.Lookup("/old/deep/d")
	assert.False(t, ok)
	moved, ok := c.Lookup("/fresh/spot/deep/d")
	require.True(t, ok)
	assert.Equal(t, "/fresh/spot/deep/d", moved.Path())
	got, err := moved.ReadSlice(0)
	require.NoError(t, err)
	assert.Equal(t, bytesFor(32, 7), got)

	assert.Error(t, c.Rename("/fresh", "/fresh/spot/inside"))
	assert.Error(t, c.Rename("/", "/x"))
	require.NoError(t, c.Close())

	c2, err := Open(name, false)
	require.NoError(t, err)
	defer c2.Close()
	_, ok = c2.Lookup("/fresh/spot/deep/d")
	assert.True(t, ok)
}

func TestRenameOverwritesDestination(t *testing.T) {
	c, err := Create(tempName(t), 0, false)
	require.NoError(t, err)
	defer c.Close()

	src, err := c.CreateDataset("/a", listInfo(4))
	require.NoError(t, err)
	require.NoError(t, src.Append(bytesFor(32, 1)))
	_, err = c.CreateDataset("/b", fixedInfo(2))
	require.NoError(t, err)

	require.NoError(t, c.Rename("/a", "/b"))
	o, ok := c.Lookup("/b")
	require.True(t, ok)
	assert.True(t, o.Extensible())
	got, err := o.ReadSlice(0)
	require.NoError(t, err)
	assert.Equal(t, bytesFor(32, 1), got)
}

func TestUserblockOffsets(t *testing.T) {
	for _, ub := range []uint64{512, 2048} {
		name := tempName(t)
		c, err := Create(name, ub, false)
		require.NoError(t, err)
		assert.Equal(t, ub, c.UserblockSize())
		_, err = c.CreateDataset("/d", fixedInfo(1))
		require.NoError(t, err)
		require.NoError(t, c.Close())

		c2, err := Open(name, false)
		require.NoError(t, err)
		assert.Equal(t, ub, c2.UserblockSize())
		require.NoError(t, c2.Close())
	}

	_, err := Create(tempName(t), 256, false)
	assert.Error(t, err)
	_, err = Create(tempName(t), 513, false)
	assert.Error(t, err)
}

func TestExclusiveCreate(t *testing.T) {
	name := tempName(t)
	c, err := Create(name, 0, true)
	require.NoError(t, err)
	require.NoError(t, c.Close())

	_, err = Create(name, 0, true)
	assert.Error(t, err)
}

func TestNormalizePaths(t *testing.T) {
	c, err := Create(tempName(t), 0, false)
	require.NoError(t, err)
	defer c.Close()

	_, err = c.CreateDataset("g//d/", fixedInfo(1))
	require.NoError(t, err)
	_, ok := c.Lookup("/g/d")
	assert.True(t, ok)
	_, ok = c.Lookup("g/d")
	assert.True(t, ok)
}

func TestCreateDatasetCollisions(t *testing.T) {
	c, err := Create(tempName(t), 0, false)
	require.NoError(t, err)
	defer c.Close()

	_, err = c.CreateDataset("/d", fixedInfo(1))
	require.NoError(t, err)
	_, err = c.CreateDataset("/d", fixedInfo(1))
	assert.Error(t, err)

	// A dataset cannot double as an intermediate group.
	_, err = c.CreateDataset("/d/child", fixedInfo(1))
	assert.Error(t, err)
}
