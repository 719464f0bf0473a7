package ndstore

import "github.com/ndkit/ndstore/internal/filter"

// FileOption configures file creation.
type FileOption func(*fileOptions)

type fileOptions struct {
	userblock uint64
}

func defaultFileOptions() *fileOptions {
	return &fileOptions{}
}

// WithUserblock reserves a byte prefix region of the given size, fixed
// at creation time. The size must be 0 or a power of two >= 512. The
// region is never touched by the storage layer. Ignored unless the
// file is being created.
func WithUserblock(size uint64) FileOption {
	return func(o *fileOptions) {
		o.userblock = size
	}
}

// DatasetOption configures dataset creation. Options have no effect
// when the dataset already exists on file; the stored settings win.
type DatasetOption func(*datasetOptions)

type datasetOptions struct {
	list       bool
	shuffle    bool
	compressor *filter.Spec
}

func defaultDatasetOptions() *datasetOptions {
	return &datasetOptions{list: true}
}

// WithList controls the list form. The default (true) allocates
// chunked, growable storage with an extra leading index dimension, one
// chunk per indexed slot. With false the dataset holds exactly the
// declared shape and can never be extended.
func WithList(list bool) DatasetOption {
	return func(o *datasetOptions) {
		o.list = list
	}
}

// WithDeflate compresses chunks with deflate at the given level (1-9).
// Level 0 turns compression off. Compression requires the list form.
func WithDeflate(level int) DatasetOption {
	return func(o *datasetOptions) {
		if level == 0 {
			o.compressor = nil
			return
		}
		if level < 1 || level > 9 {
			level = 6
		}
		o.compressor = &filter.Spec{ID: filter.IDDeflate, Level: uint8(level)}
	}
}

// WithZstd compresses chunks with zstd.
func WithZstd() DatasetOption {
	return func(o *datasetOptions) {
		o.compressor = &filter.Spec{ID: filter.IDZstd}
	}
}

// WithLZ4 compresses chunks with lz4.
func WithLZ4() DatasetOption {
	return func(o *datasetOptions) {
		o.compressor = &filter.Spec{ID: filter.IDLZ4}
	}
}

// WithShuffle enables the byte shuffle filter ahead of the compressor
// (improves compression of numeric data).
func WithShuffle() DatasetOption {
	return func(o *datasetOptions) {
		o.shuffle = true
	}
}

// filterSpecs assembles the stored pipeline: shuffle first, then the
// compressor.
func (o *datasetOptions) filterSpecs() []filter.Spec {
	var specs []filter.Spec
	if o.shuffle {
		specs = append(specs, filter.Spec{ID: filter.IDShuffle})
	}
	if o.compressor != nil {
		specs = append(specs, *o.compressor)
	}
	return specs
}
