package filter

import (
	"fmt"

	"github.com/pierrec/lz4/v4"
)

// LZ4 implements the lz4 block compression filter. Each encoded chunk
// is prefixed with a one-byte marker: 0 means the chunk was
// incompressible and is stored raw, 1 means an lz4 block follows.
type LZ4 struct{}

// NewLZ4 creates an lz4 filter.
func NewLZ4() *LZ4 {
	return &LZ4{}
}

func (f *LZ4) ID() uint8 {
	return IDLZ4
}

func (f *LZ4) Encode(data []byte) ([]byte, error) {
	bound := lz4.CompressBlockBound(len(data))
	out := make([]byte, 1+bound)

	var c lz4.Compressor
	n, err := c.CompressBlock(data, out[1:])
	if err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}
	if n == 0 || n >= len(data) {
		// Incompressible, store raw.
		out = make([]byte, 1+len(data))
		copy(out[1:], data)
		return out, nil
	}
	out[0] = 1
	return out[:1+n], nil
}

func (f *LZ4) Decode(data []byte, rawSize int) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("lz4: empty chunk")
	}
	if data[0] == 0 {
		return data[1:], nil
	}

	out := make([]byte, rawSize)
	n, err := lz4.UncompressBlock(data[1:], out)
	if err != nil {
		return nil, fmt.Errorf("lz4 decompress: %w", err)
	}
	return out[:n], nil
}
