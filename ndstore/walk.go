package ndstore

import "sort"

// WalkFunc is called once per object during a hierarchy walk. For
// groups ds is nil. A dataset that cannot be bound (for example an
// unsupported encoding) is reported with a nil ds and the bind error;
// returning that error stops the walk, returning nil skips the entry.
type WalkFunc func(path string, ds *Dataset, err error) error

// Walk visits every object under root in depth-first order, children
// in lexical order. The root group itself is not visited.
func (f *File) Walk(root string, fn WalkFunc) error {
	if f.closed {
		return ErrClosed
	}
	obj, ok := f.c.Lookup(root)
	if !ok {
		return ErrNotFound
	}
	if !obj.IsGroup() {
		return ErrNotDataset
	}
	return f.walk(obj.Path(), fn)
}

func (f *File) walk(p string, fn WalkFunc) error {
	for _, name := range f.c.Children(p) {
		child := p + "/" + name
		if p == "/" {
			child = "/" + name
		}

		obj, ok := f.c.Lookup(child)
		if !ok {
			continue
		}
		if obj.IsGroup() {
			if err := fn(child, nil, nil); err != nil {
				return err
			}
			if err := f.walk(child, fn); err != nil {
				return err
			}
			continue
		}

		ds, err := newDataset(f, child, obj)
		if err != nil {
			if err := fn(child, nil, err); err != nil {
				return err
			}
			continue
		}
		if err := fn(child, ds, nil); err != nil {
			return err
		}
	}
	return nil
}

// Index maps every readable dataset in the file by its full path.
// Datasets with encodings this build cannot decode are left out.
func (f *File) Index() (map[string]*Dataset, error) {
	if f.closed {
		return nil, ErrClosed
	}
	index := make(map[string]*Dataset)
	err := f.Walk("/", func(path string, ds *Dataset, err error) error {
		if ds != nil {
			index[path] = ds
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return index, nil
}

// Paths returns the sorted paths of every readable dataset.
func (f *File) Paths() ([]string, error) {
	index, err := f.Index()
	if err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(index))
	for p := range index {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths, nil
}
