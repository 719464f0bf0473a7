package filter

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// Zstd implements the zstd compression filter using the stateless
// EncodeAll/DecodeAll API.
type Zstd struct {
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// NewZstd creates a zstd filter at the default speed/ratio level.
func NewZstd() (*Zstd, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("zstd decoder: %w", err)
	}
	return &Zstd{enc: enc, dec: dec}, nil
}

func (f *Zstd) ID() uint8 {
	return IDZstd
}

func (f *Zstd) Encode(data []byte) ([]byte, error) {
	return f.enc.EncodeAll(data, nil), nil
}

func (f *Zstd) Decode(data []byte, _ int) ([]byte, error) {
	out, err := f.dec.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd decompress: %w", err)
	}
	return out, nil
}
