package filter

// Shuffle implements the byte shuffle filter. It rearranges chunk
// bytes so equal byte positions of all elements sit together (all
// low bytes, then all next bytes, and so on), which compresses better
// for slowly varying numeric data.
type Shuffle struct {
	elemSize int
}

// NewShuffle creates a shuffle filter for the given element size.
func NewShuffle(elemSize int) *Shuffle {
	if elemSize < 1 {
		elemSize = 1
	}
	return &Shuffle{elemSize: elemSize}
}

func (f *Shuffle) ID() uint8 {
	return IDShuffle
}

// Encode transposes elements into byte planes. A trailing partial
// element, if any, is left in place untouched.
func (f *Shuffle) Encode(data []byte) ([]byte, error) {
	if f.elemSize <= 1 {
		return data, nil
	}

	numElems := len(data) / f.elemSize
	if numElems == 0 {
		return data, nil
	}

	out := make([]byte, len(data))
	for i := 0; i < numElems; i++ {
		for j := 0; j < f.elemSize; j++ {
			out[j*numElems+i] = data[i*f.elemSize+j]
		}
	}
	copy(out[numElems*f.elemSize:], data[numElems*f.elemSize:])
	return out, nil
}

// Decode gathers bytes from the planes back into elements.
func (f *Shuffle) Decode(data []byte, _ int) ([]byte, error) {
	if f.elemSize <= 1 {
		return data, nil
	}

	numElems := len(data) / f.elemSize
	if numElems == 0 {
		return data, nil
	}

	out := make([]byte, len(data))
	for i := 0; i < numElems; i++ {
		for j := 0; j < f.elemSize; j++ {
			out[i*f.elemSize+j] = data[j*numElems+i]
		}
	}
	copy(out[numElems*f.elemSize:], data[numElems*f.elemSize:])
	return out, nil
}
