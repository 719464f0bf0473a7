// Package ndstore implements a typed, n-dimensional array storage
// layer with two tiers: an in-memory, identity-tagged array collection
// (Set) and a persistent, chunked, self-describing container format
// (File, Dataset). Both tiers share one type contract (Dtype); neither
// performs silent type coercion.
package ndstore

import "errors"

// Common errors
var (
	ErrType          = errors.New("incompatible array type")
	ErrIndex         = errors.New("index out of range")
	ErrDuplicateID   = errors.New("id already in use")
	ErrNotExtensible = errors.New("dataset is not extensible")
	ErrNotFound      = errors.New("object not found")
	ErrNotDataset    = errors.New("object is not a dataset")
	ErrClosed        = errors.New("file is closed")
	ErrReadOnly      = errors.New("file is read-only")
	ErrInvalidRank   = errors.New("invalid rank")
	ErrUnsupported   = errors.New("unsupported element encoding")
	ErrNotContainer  = errors.New("not a container file")
)

// MaxRank is the maximum dimensionality of an in-memory array. Stored
// list datasets carry one extra leading index dimension on top of it.
const MaxRank = 8
