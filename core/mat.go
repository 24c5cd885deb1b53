package core

import (
	"fmt"
	"slices"
	"unsafe"
)

type matFlag uint8

const (
	flagContinuous matFlag = 1 << iota
	flagSubmatrix
)

// Mat is a handle to an N-dimensional strided array of typed elements.
//
// A Mat either owns a fresh Storage (after Create), shares one with other
// Mats (after Ref or ROI slicing), or borrows caller memory (NewMatFromBytes)
// that it never frees. Views store only an offset and strides into the same
// bytes; slicing never copies pixels, so writes through any view are visible
// through all of them.
//
// A Mat header is not safe for concurrent mutation. Distinct headers sharing
// one Storage may be used and released from different goroutines.
type Mat struct {
	flags matFlag
	typ   ElemType
	shape Shape

	// buf spans the whole backing allocation, from datastart to dataend.
	// off is the byte offset of the first element of this view.
	buf []byte
	off int

	storage   *Storage
	allocator Allocator
}

// MatOption configures a Mat at construction.
type MatOption func(*Mat)

// WithAllocator makes the Mat allocate through a instead of the default allocator.
// The allocator is kept for later Create calls.
func WithAllocator(a Allocator) MatOption {
	return func(m *Mat) {
		m.allocator = a
	}
}

// NewMat allocates a rows x cols Mat of the given type. Contents are zeroed.
func NewMat(rows, cols int, typ ElemType, opts ...MatOption) (*Mat, error) {
	return NewMatND([]int{rows, cols}, typ, opts...)
}

// NewMatND allocates an N-dimensional Mat. A single size produces an Nx1 Mat.
func NewMatND(sizes []int, typ ElemType, opts ...MatOption) (*Mat, error) {
	m := &Mat{}
	for _, opt := range opts {
		opt(m)
	}
	if err := m.CreateND(sizes, typ); err != nil {
		return nil, err
	}
	return m, nil
}

// Zeros is NewMat; allocations are always zero-filled.
func Zeros(rows, cols int, typ ElemType, opts ...MatOption) (*Mat, error) {
	return NewMat(rows, cols, typ, opts...)
}

// NewMatFromBytes wraps caller-owned memory without copying. step is the row
// stride in bytes; 0 means tightly packed. The Mat never frees data.
func NewMatFromBytes(rows, cols int, typ ElemType, data []byte, step int) (*Mat, error) {
	if !typ.Valid() {
		return nil, Errorf(CodeBadArg, "invalid element type %d", int32(typ))
	}
	if rows < 0 || cols < 0 {
		return nil, Errorf(CodeBadArg, "negative size %dx%d", rows, cols)
	}
	esz := typ.ElemSize()
	minStep := cols * esz
	if step == 0 {
		step = minStep
	}
	if step < minStep {
		return nil, Errorf(CodeBadArg, "step %d below row size %d", step, minStep)
	}
	need := 0
	if rows > 0 && cols > 0 {
		need = (rows-1)*step + minStep
	}
	if len(data) < need {
		return nil, Errorf(CodeBadArg, "data has %d bytes, need %d", len(data), need)
	}
	m := &Mat{
		typ:   typ,
		shape: Shape{Size: []int{rows, cols}, Step: []int{step, esz}},
		buf:   data[:need],
	}
	m.updateContinuity()
	return m, nil
}

// Create (re)allocates m as rows x cols of type typ.
// It is a no-op when m already has exactly this shape and type.
func (m *Mat) Create(rows, cols int, typ ElemType) error {
	return m.CreateND([]int{rows, cols}, typ)
}

// CreateND (re)allocates m with the given sizes and type. Any previous storage
// is released first. On failure m is left empty.
func (m *Mat) CreateND(sizes []int, typ ElemType) error {
	if !typ.Valid() {
		return Errorf(CodeBadArg, "invalid element type %d", int32(typ))
	}
	if len(sizes) == 0 {
		return Errorf(CodeBadArg, "zero dimensions")
	}
	if len(sizes) == 1 {
		sizes = []int{sizes[0], 1}
	}
	for i, sz := range sizes {
		if sz < 0 {
			return Errorf(CodeBadArg, "negative size %d on axis %d", sz, i)
		}
	}
	if _, err := TotalBytes(sizes, typ); err != nil {
		return err
	}
	if m.buf != nil && m.typ == typ && slices.Equal(m.shape.Size, sizes) {
		return nil
	}

	m.Release()

	m.typ = typ
	m.shape = Shape{
		Size: slices.Clone(sizes),
		Step: ContinuousSteps(sizes, typ.ElemSize()),
	}
	m.flags = flagContinuous
	if m.shape.Total() == 0 {
		return nil
	}

	a := m.allocator
	if a == nil {
		a = DefaultAllocator()
	}
	s, err := a.Allocate(m.shape.Size, typ, AccessReadWrite)
	if err != nil {
		m.reset()
		return fmt.Errorf("core: create %v %v: %w", sizes, typ, err)
	}
	m.storage = s
	m.buf = s.Bytes()[:m.shape.Size[0]*m.shape.Step[0]]
	m.off = 0
	return nil
}

// Release drops this header's reference. The storage is freed when its last
// holder is released. The header becomes empty; releasing an empty Mat is a no-op.
func (m *Mat) Release() {
	if m.storage != nil {
		m.storage.Release()
	}
	m.reset()
}

func (m *Mat) reset() {
	alloc := m.allocator
	*m = Mat{allocator: alloc}
}

// Ref returns a new header sharing m's storage and view.
func (m *Mat) Ref() *Mat {
	r := &Mat{
		flags:     m.flags,
		typ:       m.typ,
		shape:     m.shape.Clone(),
		buf:       m.buf,
		off:       m.off,
		storage:   m.storage,
		allocator: m.allocator,
	}
	if r.storage != nil {
		r.storage.AddRef()
	}
	return r
}

// Clone returns a deep copy with its own storage.
func (m *Mat) Clone() (*Mat, error) {
	dst := &Mat{allocator: m.allocator}
	if err := m.CopyTo(dst); err != nil {
		return nil, err
	}
	return dst, nil
}

// CopyTo copies m into dst. dst receives fresh storage shaped like m unless
// it already owns a compatible buffer that does not alias m. Either way the
// result never shares bytes with m.
func (m *Mat) CopyTo(dst *Mat) error {
	if dst == nil {
		return Errorf(CodeBadArg, "nil destination")
	}
	if m.Empty() {
		dst.Release()
		if m.typ.Valid() && m.Dims() > 0 {
			return dst.CreateND(m.shape.Size, m.typ)
		}
		return nil
	}

	reuse := dst != m && dst.buf != nil && dst.typ == m.typ &&
		slices.Equal(dst.shape.Size, m.shape.Size) && !m.Overlaps(dst)
	target := dst
	if !reuse {
		target = &Mat{allocator: dst.allocator}
		if err := target.CreateND(m.shape.Size, m.typ); err != nil {
			return err
		}
	}

	copyND(target, m)

	if !reuse {
		dst.Release()
		*dst = *target
	}
	return nil
}

// Overlaps reports whether m and o are backed by the same bytes.
func (m *Mat) Overlaps(o *Mat) bool {
	if m.storage != nil && m.storage == o.storage {
		return true
	}
	if len(m.buf) == 0 || len(o.buf) == 0 {
		return false
	}
	return unsafe.SliceData(m.buf) == unsafe.SliceData(o.buf)
}

// copyND copies same-shaped src into dst, using whole-plane copies when both
// are continuous.
func copyND(dst, src *Mat) {
	if dst.IsContinuous() && src.IsContinuous() {
		n := src.Total() * src.ElemSize()
		copy(dst.buf[dst.off:dst.off+n], src.buf[src.off:src.off+n])
		return
	}
	rowBytes := src.shape.Size[src.Dims()-1] * src.ElemSize()
	forEachRow(src.shape.Size, func(idx []int) {
		so := src.offsetOf(idx)
		do := dst.offsetOf(idx)
		copy(dst.buf[do:do+rowBytes], src.buf[so:so+rowBytes])
	})
}

// forEachRow calls fn with the index of the first element of every innermost
// row; idx[len-1] is always 0.
func forEachRow(sizes []int, fn func(idx []int)) {
	dims := len(sizes)
	for _, sz := range sizes {
		if sz == 0 {
			return
		}
	}
	idx := make([]int, dims)
	for {
		fn(idx)
		axis := dims - 2
		for axis >= 0 {
			idx[axis]++
			if idx[axis] < sizes[axis] {
				break
			}
			idx[axis] = 0
			axis--
		}
		if axis < 0 {
			return
		}
	}
}

// offsetOf returns the byte offset into buf of the element at idx (unchecked).
func (m *Mat) offsetOf(idx []int) int {
	o := m.off
	for i, v := range idx {
		o += v * m.shape.Step[i]
	}
	return o
}

func (m *Mat) updateContinuity() {
	if m.shape.IsContinuous(m.typ.ElemSize()) {
		m.flags |= flagContinuous
	} else {
		m.flags &^= flagContinuous
	}
}

// Type returns the encoded element type.
func (m *Mat) Type() ElemType { return m.typ }

// Depth returns the channel depth.
func (m *Mat) Depth() Depth { return m.typ.Depth() }

// Channels returns the number of channels per element.
func (m *Mat) Channels() int { return m.typ.Channels() }

// ElemSize returns the size of one element in bytes.
func (m *Mat) ElemSize() int { return m.typ.ElemSize() }

// ElemSize1 returns the size of one channel in bytes.
func (m *Mat) ElemSize1() int { return m.typ.ElemSize1() }

// Dims returns the number of axes (0 for a never-created Mat).
func (m *Mat) Dims() int { return m.shape.Dims() }

// Rows returns the extent of axis 0, or 0 for an empty header.
func (m *Mat) Rows() int {
	if m.Dims() == 0 {
		return 0
	}
	return m.shape.Size[0]
}

// Cols returns the extent of axis 1, or 0 for an empty header.
func (m *Mat) Cols() int {
	if m.Dims() < 2 {
		return 0
	}
	return m.shape.Size[1]
}

// Size returns (cols, rows) of a 2D Mat.
func (m *Mat) Size() Size {
	return Size{Width: m.Cols(), Height: m.Rows()}
}

// Sizes returns a copy of the per-axis extents.
func (m *Mat) Sizes() []int { return slices.Clone(m.shape.Size) }

// Shape returns a copy of the layout.
func (m *Mat) Shape() Shape { return m.shape.Clone() }

// Step returns the byte stride of axis i.
func (m *Mat) Step(i int) int { return m.shape.Step[i] }

// Step1 returns the stride of axis i in channel units.
func (m *Mat) Step1(i int) int { return m.shape.Step[i] / m.ElemSize1() }

// Total returns the number of elements.
func (m *Mat) Total() int { return m.shape.Total() }

// IsContinuous reports whether the elements are stored without gaps.
func (m *Mat) IsContinuous() bool { return m.flags&flagContinuous != 0 }

// IsSubmatrix reports whether m is a view into a larger array.
func (m *Mat) IsSubmatrix() bool { return m.flags&flagSubmatrix != 0 }

// Empty reports whether m has no data or no elements.
func (m *Mat) Empty() bool { return m.buf == nil || m.Total() == 0 }

// Storage returns the shared storage, or nil for borrowed memory and empty Mats.
func (m *Mat) Storage() *Storage { return m.storage }

// Allocator returns the allocator m uses for Create, or nil for the default.
func (m *Mat) Allocator() Allocator { return m.allocator }

// Refcount returns the number of holders of m's storage (0 when unmanaged).
func (m *Mat) Refcount() int {
	if m.storage == nil {
		return 0
	}
	return m.storage.Refcount()
}

// Data returns the bytes from the first element of the view to the end of
// the backing allocation.
func (m *Mat) Data() []byte {
	if m.buf == nil {
		return nil
	}
	return m.buf[m.off:]
}

// Offset returns the byte offset of the view's first element within Datastart.
func (m *Mat) Offset() int { return m.off }

// Datastart returns the whole backing allocation, starting at the element
// (0, 0) reported by LocateROI.
func (m *Mat) Datastart() []byte { return m.buf }

// String describes the header, for example "Mat[4x4 8UC1]".
func (m *Mat) String() string {
	if m.Dims() == 0 {
		return "Mat[empty]"
	}
	s := "Mat["
	for i, sz := range m.shape.Size {
		if i > 0 {
			s += "x"
		}
		s += fmt.Sprint(sz)
	}
	return s + " " + m.typ.String() + "]"
}
