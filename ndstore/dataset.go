package ndstore

import (
	"fmt"
	"path"

	"github.com/ndkit/ndstore/internal/container"
)

// representation is one addressable view of a stored object: a type
// under which its bytes can be read or written, the number of slots
// visible through it, and whether it can grow.
type representation struct {
	dtype      Dtype
	count      uint64
	extensible bool

	// indexed marks the leading-index view, which addresses one slice
	// at a time; the whole-object view has count 1.
	indexed bool
}

// Dataset is bound to one named location inside a File. It keeps the
// type-compatibility vector: every shape reinterpretation under which
// the stored object can be addressed. All reads, replacements and
// appends resolve through a single selection step that matches the
// caller's type against the vector and bounds-checks the index.
//
// A Dataset holds a non-owning back-reference to its File and must not
// outlive it.
type Dataset struct {
	file *File
	path string
	obj  *container.Object

	repv   []representation
	shape0 uint64 // leading extent the vector was built for
}

// newDataset binds a Dataset to a container object and builds its
// representation vector by introspection.
func newDataset(f *File, p string, obj *container.Object) (*Dataset, error) {
	info := obj.Info()
	kind := ElementKind(info.Kind)
	if obj.Unsupported() || !kind.Valid() || uint32(kind.Size()) != info.ElemSize {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, p)
	}

	d := &Dataset{file: f, path: p, obj: obj}
	d.rebuild()
	return d, nil
}

// rebuild recomputes the representation vector. It runs at bind time
// and again whenever the leading extent has grown.
func (d *Dataset) rebuild() {
	info := d.obj.Info()
	kind := ElementKind(info.Kind)
	shape := info.Shape

	whole := make([]uint64, len(shape))
	copy(whole, shape)
	reps := []representation{{dtype: Dtype{Kind: kind, Shape: whole}, count: 1}}

	switch {
	case len(shape) >= 2:
		sub := make([]uint64, len(shape)-1)
		copy(sub, shape[1:])
		reps = append(reps, representation{
			dtype:      Dtype{Kind: kind, Shape: sub},
			count:      shape[0],
			extensible: info.Extensible,
			indexed:    true,
		})
	case len(shape) == 1 && (shape[0] != 1 || info.Extensible):
		reps = append(reps, representation{
			dtype:      ScalarDtype(kind),
			count:      shape[0],
			extensible: info.Extensible,
			indexed:    true,
		})
	}

	d.repv = reps
	d.shape0 = d.obj.NumSlices()
}

func (d *Dataset) reps() []representation {
	if d.shape0 != d.obj.NumSlices() {
		d.rebuild()
	}
	return d.repv
}

// selectRep is the chokepoint in front of every transfer: it finds the
// representation matching the destination type (ErrType when none) and
// validates the indexed position (ErrIndex when out of range).
func (d *Dataset) selectRep(index uint64, dt Dtype) (*representation, error) {
	if d.file.closed {
		return nil, ErrClosed
	}
	reps := d.reps()
	for i := range reps {
		if reps[i].dtype.Equal(dt) {
			r := &reps[i]
			if index >= r.count {
				return nil, fmt.Errorf("%w: position %d of %d in %s", ErrIndex, index, r.count, d.path)
			}
			return r, nil
		}
	}
	return nil, fmt.Errorf("%w: %s has no representation matching %s", ErrType, d.path, dt)
}

// Name returns the dataset name, the last path component.
func (d *Dataset) Name() string {
	return path.Base(d.path)
}

// Path returns the full path to this dataset.
func (d *Dataset) Path() string {
	return d.path
}

// Shape returns the stored shape, leading index dimension included.
func (d *Dataset) Shape() []uint64 {
	return d.obj.Info().Shape
}

// Extensible reports whether Append can grow this dataset.
func (d *Dataset) Extensible() bool {
	return d.obj.Extensible()
}

// Dtype returns the default compatible type: the per-slot type for
// indexed storage, the whole shape otherwise.
func (d *Dataset) Dtype() Dtype {
	reps := d.reps()
	return reps[len(reps)-1].dtype
}

// Size returns the number of objects addressable through the default
// compatible type.
func (d *Dataset) Size() uint64 {
	reps := d.reps()
	return reps[len(reps)-1].count
}

// SizeOf returns the number of objects visible through the given type,
// or ErrType when the type has no compatible representation.
func (d *Dataset) SizeOf(dt Dtype) (uint64, error) {
	if d.file.closed {
		return 0, ErrClosed
	}
	for _, r := range d.reps() {
		if r.dtype.Equal(dt) {
			return r.count, nil
		}
	}
	return 0, fmt.Errorf("%w: %s has no representation matching %s", ErrType, d.path, dt)
}

// Read transfers the bytes at the indexed position into dst. The
// destination array's type selects the representation; element kinds
// must match exactly.
func (d *Dataset) Read(index uint64, dst *Array) error {
	rep, err := d.selectRep(index, dst.Dtype)
	if err != nil {
		return err
	}

	var data []byte
	if rep.indexed {
		data, err = d.obj.ReadSlice(index)
	} else {
		data, err = d.obj.ReadAll()
	}
	if err != nil {
		return fmt.Errorf("reading %s: %w", d.path, err)
	}

	if uint64(len(dst.Data)) != rep.dtype.ByteSize() {
		dst.Data = make([]byte, rep.dtype.ByteSize())
	}
	copy(dst.Data, data)
	return nil
}

// ReadArray reads the indexed position into a freshly allocated array
// of the default compatible type.
func (d *Dataset) ReadArray(index uint64) (*Array, error) {
	a := NewArray(d.Dtype())
	if err := d.Read(index, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Replace overwrites the indexed position in place. It never grows the
// storage: a position at or past Size fails with ErrIndex.
func (d *Dataset) Replace(index uint64, a *Array) error {
	rep, err := d.selectRep(index, a.Dtype)
	if err != nil {
		return err
	}
	if !d.file.c.Writable() {
		return fmt.Errorf("%w: replace in %s", ErrReadOnly, d.path)
	}
	if uint64(len(a.Data)) != rep.dtype.ByteSize() {
		return fmt.Errorf("%w: array data is %d bytes, type %s needs %d", ErrType, len(a.Data), rep.dtype, rep.dtype.ByteSize())
	}

	if rep.indexed {
		err = d.obj.WriteSlice(index, a.Data)
	} else {
		err = d.obj.WriteAll(a.Data)
	}
	if err != nil {
		return fmt.Errorf("writing %s: %w", d.path, err)
	}
	return nil
}

// Append grows the leading dimension by one and writes the array into
// the new final slot. Fails with ErrNotExtensible unless the matched
// representation is backed by growable storage. On success the count
// of every leading-index representation advances by one.
func (d *Dataset) Append(a *Array) error {
	if d.file.closed {
		return ErrClosed
	}
	if !d.file.c.Writable() {
		return fmt.Errorf("%w: append to %s", ErrReadOnly, d.path)
	}

	var rep *representation
	reps := d.reps()
	for i := range reps {
		if reps[i].dtype.Equal(a.Dtype) {
			rep = &reps[i]
			break
		}
	}
	if rep == nil {
		return fmt.Errorf("%w: %s has no representation matching %s", ErrType, d.path, a.Dtype)
	}
	if !rep.extensible {
		return fmt.Errorf("%w: %s", ErrNotExtensible, d.path)
	}
	if uint64(len(a.Data)) != rep.dtype.ByteSize() {
		return fmt.Errorf("%w: array data is %d bytes, type %s needs %d", ErrType, len(a.Data), rep.dtype, rep.dtype.ByteSize())
	}

	if err := d.obj.Append(a.Data); err != nil {
		return fmt.Errorf("extending %s: %w", d.path, err)
	}
	return nil
}

// OpenDataset binds to the existing dataset at path. Fails with
// ErrNotFound when the path is absent and ErrNotDataset when it names
// a group.
func (f *File) OpenDataset(p string) (*Dataset, error) {
	if f.closed {
		return nil, ErrClosed
	}
	obj, ok := f.c.Lookup(p)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, p)
	}
	if obj.IsGroup() {
		return nil, fmt.Errorf("%w: %s", ErrNotDataset, p)
	}
	return newDataset(f, container.Normalize(p), obj)
}

// CreateDataset creates a dataset of the given type at path, or
// attaches to an existing one. An existing object is attached only
// when the declared type has a compatible representation; otherwise
// the call fails with ErrType and the container is left untouched.
// Options apply to newly created datasets only.
func (f *File) CreateDataset(p string, dt Dtype, opts ...DatasetOption) (*Dataset, error) {
	if f.closed {
		return nil, ErrClosed
	}
	if !f.c.Writable() {
		return nil, fmt.Errorf("%w: create %s", ErrReadOnly, p)
	}
	if err := dt.validate(); err != nil {
		return nil, err
	}

	if obj, ok := f.c.Lookup(p); ok {
		if obj.IsGroup() {
			return nil, fmt.Errorf("%w: %s", ErrNotDataset, p)
		}
		ds, err := newDataset(f, container.Normalize(p), obj)
		if err != nil {
			return nil, err
		}
		if _, err := ds.SizeOf(dt); err != nil {
			return nil, err
		}
		return ds, nil
	}

	options := defaultDatasetOptions()
	for _, opt := range opts {
		opt(options)
	}
	specs := options.filterSpecs()

	var shape []uint64
	if options.list {
		shape = append([]uint64{0}, dt.Shape...)
	} else {
		if len(specs) > 0 {
			return nil, fmt.Errorf("%s: compression requires the list form", p)
		}
		shape = dt.Shape
	}

	obj, err := f.c.CreateDataset(p, container.Info{
		Kind:       uint8(dt.Kind),
		ElemSize:   uint32(dt.Kind.Size()),
		Shape:      shape,
		Extensible: options.list,
		Filters:    specs,
	})
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", p, err)
	}
	return newDataset(f, container.Normalize(p), obj)
}

// ReadValue reads the scalar at the indexed position. The element kind
// of T must match the stored kind exactly.
func ReadValue[T Scalar](d *Dataset, index uint64) (T, error) {
	var zero T
	a := NewArray(ScalarDtype(KindOf[T]()))
	if err := d.Read(index, a); err != nil {
		return zero, err
	}
	return ScalarValue[T](a)
}

// ReplaceValue overwrites the scalar at the indexed position.
func ReplaceValue[T Scalar](d *Dataset, index uint64, v T) error {
	return d.Replace(index, FromScalar(v))
}

// AppendValue appends a scalar to an extensible dataset.
func AppendValue[T Scalar](d *Dataset, v T) error {
	return d.Append(FromScalar(v))
}
