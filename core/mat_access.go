package core

import (
	"bytes"
	"unsafe"
)

// Number is the set of Go types that back a Mat depth.
type Number interface {
	~uint8 | ~int8 | ~uint16 | ~int16 | ~uint32 | ~int32 | ~float32 | ~float64
}

// Cast reinterprets b as a slice of T without copying. Trailing bytes that
// do not fill a whole T are dropped.
func Cast[T Number](b []byte) []T {
	var zero T
	n := len(b) / int(unsafe.Sizeof(zero))
	if n == 0 {
		return nil
	}
	//nolint:gosec // zero-copy view, length derived from len(b)
	return unsafe.Slice((*T)(unsafe.Pointer(unsafe.SliceData(b))), n)
}

// AsBytes reinterprets v as its raw bytes without copying.
func AsBytes[T Number](v []T) []byte {
	if len(v) == 0 {
		return nil
	}
	var zero T
	//nolint:gosec // zero-copy view, length derived from len(v)
	return unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(v))), len(v)*int(unsafe.Sizeof(zero)))
}

// Ptr returns the bytes of the element at idx (one index per axis).
// Panics with ErrOutOfRange when an index is outside its axis.
func (m *Mat) Ptr(idx ...int) []byte {
	if len(idx) != m.Dims() {
		panic(Errorf(CodeOutOfRange, "%d indices for %d dims", len(idx), m.Dims()))
	}
	for i, v := range idx {
		if v < 0 || v >= m.shape.Size[i] {
			panic(Errorf(CodeOutOfRange, "index %d on axis %d outside [0, %d)", v, i, m.shape.Size[i]))
		}
	}
	o := m.offsetOf(idx)
	return m.buf[o : o+m.ElemSize()]
}

// PtrUnchecked returns the backing bytes starting at the element at idx. Only
// Go's own slice bounds are enforced, so an index past an axis silently lands
// in another row. Use it in hot loops whose indices are already validated.
func (m *Mat) PtrUnchecked(idx ...int) []byte {
	return m.buf[m.offsetOf(idx):]
}

// RowBytes returns the Cols()*ElemSize() bytes of row y of a 2D Mat.
func (m *Mat) RowBytes(y int) []byte {
	if m.Dims() != 2 || y < 0 || y >= m.shape.Size[0] {
		panic(Errorf(CodeOutOfRange, "row %d outside [0, %d)", y, m.Rows()))
	}
	o := m.off + y*m.shape.Step[0]
	return m.buf[o : o+m.shape.Size[1]*m.ElemSize()]
}

func checkDepthSize[T Number](m *Mat) {
	var zero T
	if int(unsafe.Sizeof(zero)) != m.ElemSize1() {
		panic(Errorf(CodeBadArg, "%T does not match depth %v", zero, m.Depth()))
	}
}

// RowOf returns row y of a 2D Mat as Cols()*Channels() values of type T.
// T must have the Mat's channel size.
func RowOf[T Number](m *Mat, y int) []T {
	checkDepthSize[T](m)
	return Cast[T](m.RowBytes(y))
}

// At returns value i of row y, where i counts channels: for a 3-channel Mat
// element x, channel c is at i = x*3 + c.
func At[T Number](m *Mat, y, i int) T {
	row := RowOf[T](m, y)
	if i < 0 || i >= len(row) {
		panic(Errorf(CodeOutOfRange, "column index %d outside [0, %d)", i, len(row)))
	}
	return row[i]
}

// Set stores v at value i of row y. See At for the index convention.
func Set[T Number](m *Mat, y, i int, v T) {
	row := RowOf[T](m, y)
	if i < 0 || i >= len(row) {
		panic(Errorf(CodeOutOfRange, "column index %d outside [0, %d)", i, len(row)))
	}
	row[i] = v
}

// AtUnchecked reads value i of row y without validating y, i or T.
func AtUnchecked[T Number](m *Mat, y, i int) T {
	var zero T
	o := m.off + y*m.shape.Step[0] + i*int(unsafe.Sizeof(zero))
	//nolint:gosec // caller guarantees the index is in bounds
	return *(*T)(unsafe.Pointer(&m.buf[o]))
}

// SetUnchecked writes value i of row y without validating y, i or T.
func SetUnchecked[T Number](m *Mat, y, i int, v T) {
	var zero T
	o := m.off + y*m.shape.Step[0] + i*int(unsafe.Sizeof(zero))
	//nolint:gosec // caller guarantees the index is in bounds
	*(*T)(unsafe.Pointer(&m.buf[o])) = v
}

// ToBytes returns a tightly packed copy of the Mat's elements.
func (m *Mat) ToBytes() []byte {
	if m.Empty() {
		return nil
	}
	out := make([]byte, m.Total()*m.ElemSize())
	dst := &Mat{typ: m.typ, shape: Shape{Size: m.shape.Size, Step: ContinuousSteps(m.shape.Size, m.ElemSize())}, buf: out, flags: flagContinuous}
	copyND(dst, m)
	return out
}

// Equal reports whether m and o have the same type, sizes and element bytes.
func (m *Mat) Equal(o *Mat) bool {
	if m.typ != o.typ || !m.shape.Equal(o.shape) {
		return false
	}
	return bytes.Equal(m.ToBytes(), o.ToBytes())
}
