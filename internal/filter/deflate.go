package filter

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
)

// Deflate implements the deflate (zlib) compression filter.
type Deflate struct {
	level int
}

// NewDeflate creates a deflate filter with the given level (1-9).
func NewDeflate(level int) *Deflate {
	if level < 1 || level > 9 {
		level = 6
	}
	return &Deflate{level: level}
}

func (f *Deflate) ID() uint8 {
	return IDDeflate
}

func (f *Deflate) Encode(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw, err := zlib.NewWriterLevel(&buf, f.level)
	if err != nil {
		return nil, fmt.Errorf("zlib writer: %w", err)
	}
	if _, err := zw.Write(data); err != nil {
		return nil, fmt.Errorf("zlib compress: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("zlib flush: %w", err)
	}
	return buf.Bytes(), nil
}

func (f *Deflate) Decode(data []byte, _ int) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("zlib reader: %w", err)
	}
	defer zr.Close()

	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("zlib decompress: %w", err)
	}
	return out, nil
}
