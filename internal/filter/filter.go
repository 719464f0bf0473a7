// Package filter implements the chunk filter pipeline. Filters are
// symmetric byte transforms applied to each chunk on its way to and
// from storage: a byte shuffle that groups equal byte positions to
// help the compressors, and three compression codecs (deflate, zstd,
// lz4).
package filter

import "fmt"

// Filter IDs recorded in dataset records. The on-disk id space is
// append-only: ids are never renumbered.
const (
	IDShuffle uint8 = 1
	IDDeflate uint8 = 2
	IDZstd    uint8 = 3
	IDLZ4     uint8 = 4
)

// Spec is the stored description of one pipeline stage.
type Spec struct {
	ID    uint8
	Level uint8 // deflate compression level; 0 for other filters
}

// Filter transforms chunk bytes. Decode receives the exact byte size
// the stage produced during Encode, which block codecs without an
// internal terminator (lz4) need to size their output.
type Filter interface {
	ID() uint8
	Encode(data []byte) ([]byte, error)
	Decode(data []byte, rawSize int) ([]byte, error)
}

// New builds a filter from its stored spec. elemSize configures the
// shuffle transpose width.
func New(spec Spec, elemSize int) (Filter, error) {
	switch spec.ID {
	case IDShuffle:
		return NewShuffle(elemSize), nil
	case IDDeflate:
		return NewDeflate(int(spec.Level)), nil
	case IDZstd:
		return NewZstd()
	case IDLZ4:
		return NewLZ4(), nil
	}
	return nil, fmt.Errorf("unknown filter id %d", spec.ID)
}

// Pipeline applies an ordered list of filters. Encode runs the stages
// in declaration order; Decode runs them in reverse.
type Pipeline struct {
	specs   []Spec
	filters []Filter
}

// NewPipeline creates a pipeline from stored specs. A nil or empty
// spec list yields a pass-through pipeline.
func NewPipeline(specs []Spec, elemSize int) (*Pipeline, error) {
	p := &Pipeline{specs: specs}
	for _, spec := range specs {
		f, err := New(spec, elemSize)
		if err != nil {
			return nil, err
		}
		p.filters = append(p.filters, f)
	}
	return p, nil
}

// Empty reports whether the pipeline has no stages.
func (p *Pipeline) Empty() bool {
	return len(p.filters) == 0
}

// Specs returns the stored stage descriptions.
func (p *Pipeline) Specs() []Spec {
	return p.specs
}

// Encode pushes chunk bytes through every stage in order.
func (p *Pipeline) Encode(data []byte) ([]byte, error) {
	for _, f := range p.filters {
		var err error
		data, err = f.Encode(data)
		if err != nil {
			return nil, fmt.Errorf("filter %d encode: %w", f.ID(), err)
		}
	}
	return data, nil
}

// Decode reverses Encode. rawSize is the unfiltered chunk size; each
// intermediate stage size equals it because only the final compressor
// changes the byte count.
func (p *Pipeline) Decode(data []byte, rawSize int) ([]byte, error) {
	for i := len(p.filters) - 1; i >= 0; i-- {
		f := p.filters[i]
		var err error
		data, err = f.Decode(data, rawSize)
		if err != nil {
			return nil, fmt.Errorf("filter %d decode: %w", f.ID(), err)
		}
	}
	return data, nil
}
