package core

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingAllocator records allocations and frees to detect leaks and double frees.
type countingAllocator struct {
	allocs atomic.Int64
	frees  atomic.Int64
	fail   bool
}

func (a *countingAllocator) Allocate(sizes []int, typ ElemType, _ AccessFlag) (*Storage, error) {
	if a.fail {
		return nil, Errorf(CodeNoMem, "forced failure")
	}
	n, err := TotalBytes(sizes, typ)
	if err != nil {
		return nil, err
	}
	a.allocs.Add(1)
	return NewStorage(make([]byte, n), a, 0), nil
}

func (a *countingAllocator) Deallocate(*Storage) {
	a.frees.Add(1)
}

func (a *countingAllocator) outstanding() int64 {
	return a.allocs.Load() - a.frees.Load()
}

// newSeq returns a rows x cols 8UC1 Mat holding 1, 2, 3, ... row-major.
func newSeq(t *testing.T, rows, cols int, opts ...MatOption) *Mat {
	t.Helper()
	m, err := NewMat(rows, cols, U8C1, opts...)
	require.NoError(t, err)
	for y := range rows {
		row := RowOf[uint8](m, y)
		for x := range row {
			row[x] = uint8(y*cols + x + 1)
		}
	}
	return m
}

// =============================================================================
// Create / Release
// =============================================================================

func TestCreateStepsAndSize(t *testing.T) {
	tests := []struct {
		rows, cols int
		typ        ElemType
	}{
		{1, 1, U8C1},
		{3, 5, U8C3},
		{7, 2, S16C1},
		{4, 4, F32C4},
		{2, 9, F64C3},
		{5, 3, MakeType(U32, 2)},
	}
	for _, tt := range tests {
		t.Run(tt.typ.String(), func(t *testing.T) {
			a := &countingAllocator{}
			m, err := NewMat(tt.rows, tt.cols, tt.typ, WithAllocator(a))
			require.NoError(t, err)
			defer m.Release()

			assert.GreaterOrEqual(t, m.Step(0), tt.cols*tt.typ.ElemSize())
			assert.Equal(t, tt.rows*m.Step(0), m.Storage().Len())
			assert.Equal(t, m.Channels()*m.ElemSize1(), m.ElemSize())
			assert.True(t, m.IsContinuous())
			assert.False(t, m.IsSubmatrix())
			assert.Equal(t, tt.rows*tt.cols, m.Total())
			assert.Equal(t, tt.cols*tt.typ.Channels(), m.Step1(0))
		})
	}
}

func TestCreateReleaseReturnsAllocation(t *testing.T) {
	a := &countingAllocator{}
	m, err := NewMat(2, 2, U8C1, WithAllocator(a))
	require.NoError(t, err)
	assert.Equal(t, int64(1), a.outstanding())

	m.Release()
	assert.Equal(t, int64(0), a.outstanding())
	assert.True(t, m.Empty())

	// A second release of the empty header is a no-op.
	m.Release()
	assert.Equal(t, int64(1), a.frees.Load())
}

func TestCreateSameShapeIsNoop(t *testing.T) {
	a := &countingAllocator{}
	m, err := NewMat(4, 3, F32C1, WithAllocator(a))
	require.NoError(t, err)
	defer m.Release()

	s := m.Storage()
	require.NoError(t, m.Create(4, 3, F32C1))
	assert.Same(t, s, m.Storage())
	assert.Equal(t, int64(1), a.allocs.Load())

	require.NoError(t, m.Create(5, 3, F32C1))
	assert.NotSame(t, s, m.Storage())
	assert.Equal(t, int64(2), a.allocs.Load())
	assert.Equal(t, int64(1), a.frees.Load())
}

func TestCreateInvalid(t *testing.T) {
	m := &Mat{}
	err := m.Create(2, 2, ElemType(-1))
	assert.ErrorIs(t, err, ErrBadArg)

	err = m.Create(-1, 2, U8C1)
	assert.ErrorIs(t, err, ErrBadArg)

	err = m.CreateND(nil, U8C1)
	assert.ErrorIs(t, err, ErrBadArg)
}

func TestCreateAllocationFailureLeavesEmpty(t *testing.T) {
	a := &countingAllocator{fail: true}
	m := &Mat{allocator: a}
	err := m.Create(10, 10, U8C1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoMem))
	assert.True(t, m.Empty())
	assert.Nil(t, m.Storage())
}

func TestCreateOverflow(t *testing.T) {
	_, err := NewMat(1<<40, 1<<40, MakeType(F64, 4))
	assert.ErrorIs(t, err, ErrNoMem)
}

func TestCreateND(t *testing.T) {
	m, err := NewMatND([]int{2, 3, 4}, S16C1)
	require.NoError(t, err)
	defer m.Release()

	assert.Equal(t, 3, m.Dims())
	assert.Equal(t, []int{24, 8, 2}, []int{m.Step(0), m.Step(1), m.Step(2)})
	assert.Equal(t, 24, m.Total())

	p := m.Ptr(1, 2, 3)
	p[0], p[1] = 0x34, 0x12
	assert.Equal(t, int16(0x1234), Cast[int16](m.Data()[1*24+2*8+3*2:])[0])
}

func TestCreateNDSingleAxis(t *testing.T) {
	m, err := NewMatND([]int{5}, U8C1)
	require.NoError(t, err)
	defer m.Release()
	assert.Equal(t, Size{Width: 1, Height: 5}, m.Size())
}

// =============================================================================
// Refcounting
// =============================================================================

func TestRefcountFreedExactlyOnce(t *testing.T) {
	a := &countingAllocator{}
	m, err := NewMat(8, 8, U8C1, WithAllocator(a))
	require.NoError(t, err)

	const n = 16
	refs := make([]*Mat, n)
	for i := range refs {
		refs[i] = m.Ref()
	}
	assert.Equal(t, n+1, m.Refcount())

	for _, r := range refs {
		r.Release()
	}
	assert.Equal(t, 1, m.Refcount())
	assert.Equal(t, int64(0), a.frees.Load())

	m.Release()
	assert.Equal(t, int64(1), a.frees.Load())
	assert.Equal(t, int64(0), a.outstanding())
}

func TestRefcountConcurrent(t *testing.T) {
	a := &countingAllocator{}
	m, err := NewMat(16, 16, U8C1, WithAllocator(a))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for range 32 {
		r := m.Ref()
		wg.Add(1)
		go func() {
			defer wg.Done()
			v := r.Region(Rect{X: 1, Y: 1, Width: 4, Height: 4})
			v.Release()
			r.Release()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, m.Refcount())
	m.Release()
	assert.Equal(t, int64(0), a.outstanding())
}

func TestStorageOverRelease(t *testing.T) {
	s := NewStorage(make([]byte, 4), nil, 0)
	s.Release()
	assert.Panics(t, func() { s.Release() })
}

// =============================================================================
// CopyTo / Clone
// =============================================================================

func TestCopyToIndependent(t *testing.T) {
	a := newSeq(t, 4, 5)
	defer a.Release()

	b := &Mat{}
	require.NoError(t, a.CopyTo(b))
	defer b.Release()

	assert.True(t, a.Equal(b))
	assert.NotSame(t, a.Storage(), b.Storage())

	Set[uint8](b, 0, 0, 200)
	assert.Equal(t, uint8(1), At[uint8](a, 0, 0))
}

func TestCopyToBreaksAliasing(t *testing.T) {
	a := newSeq(t, 3, 3)
	defer a.Release()

	b := a.Ref()
	require.NoError(t, a.CopyTo(b))
	defer b.Release()

	assert.NotSame(t, a.Storage(), b.Storage())
	assert.Equal(t, 1, a.Refcount())
	Set[uint8](b, 1, 1, 99)
	assert.Equal(t, uint8(5), At[uint8](a, 1, 1))
}

func TestCopyToFromROI(t *testing.T) {
	a := newSeq(t, 4, 4)
	defer a.Release()

	roi := a.Region(Rect{X: 1, Y: 1, Width: 2, Height: 2})
	defer roi.Release()
	require.False(t, roi.IsContinuous())

	c, err := roi.Clone()
	require.NoError(t, err)
	defer c.Release()

	assert.True(t, c.IsContinuous())
	assert.Equal(t, []byte{6, 7, 10, 11}, c.ToBytes())
}

// =============================================================================
// ROI
// =============================================================================

func TestRowRangeAliases(t *testing.T) {
	m := newSeq(t, 4, 4)
	defer m.Release()

	r := m.RowRange(1, 2)
	defer r.Release()
	Set[uint8](r, 0, 0, 77)
	assert.Equal(t, uint8(77), At[uint8](m, 1, 0))
	assert.Equal(t, 2, m.Refcount())
	assert.True(t, r.IsSubmatrix())
	assert.True(t, r.IsContinuous())
}

func TestRegionOffsetAndContinuity(t *testing.T) {
	m, err := NewMat(6, 8, U16C3)
	require.NoError(t, err)
	defer m.Release()

	r := m.Region(Rect{X: 2, Y: 3, Width: 4, Height: 2})
	defer r.Release()

	wantOff := 3*m.Step(0) + 2*m.ElemSize()
	assert.Equal(t, len(m.Data())-wantOff, len(r.Data()))
	assert.False(t, r.IsContinuous())
	assert.Equal(t, m.Step(0), r.Step(0))

	full := m.Region(Rect{X: 0, Y: 2, Width: 8, Height: 3})
	defer full.Release()
	assert.True(t, full.IsContinuous())
}

func TestROIPanicsOutOfRange(t *testing.T) {
	m := newSeq(t, 3, 3)
	defer m.Release()

	assert.Panics(t, func() { m.RowRange(2, 4) })
	assert.Panics(t, func() { m.ColRange(-1, 1) })
	assert.Panics(t, func() { m.Region(Rect{X: 2, Y: 2, Width: 2, Height: 1}) })
}

func TestLocateAndAdjustROI(t *testing.T) {
	m := newSeq(t, 5, 6)
	defer m.Release()

	r := m.Region(Rect{X: 2, Y: 1, Width: 3, Height: 2})
	defer r.Release()

	whole, ofs := r.LocateROI()
	assert.Equal(t, Size{Width: 6, Height: 5}, whole)
	assert.Equal(t, Point{X: 2, Y: 1}, ofs)

	grown := r.AdjustROI(1, 1, 1, 5)
	defer grown.Release()
	_, gofs := grown.LocateROI()
	assert.Equal(t, Point{X: 1, Y: 0}, gofs)
	assert.Equal(t, Size{Width: 5, Height: 4}, grown.Size())
	assert.Equal(t, uint8(2), At[uint8](grown, 0, 0))
}

func TestLocateROIBorrowed(t *testing.T) {
	data := make([]byte, 4*10)
	m, err := NewMatFromBytes(4, 6, U8C1, data, 10)
	require.NoError(t, err)
	assert.Nil(t, m.Storage())
	assert.False(t, m.IsContinuous())

	whole, ofs := m.LocateROI()
	assert.Equal(t, Size{Width: 6, Height: 4}, whole)
	assert.Equal(t, Point{}, ofs)

	m.Release()
	assert.True(t, m.Empty())
}

// =============================================================================
// Element access
// =============================================================================

func TestAtBoundsChecked(t *testing.T) {
	m, err := NewMat(2, 3, F32C1)
	require.NoError(t, err)
	defer m.Release()

	Set[float32](m, 1, 2, 1.5)
	assert.Equal(t, float32(1.5), At[float32](m, 1, 2))
	assert.Equal(t, float32(1.5), AtUnchecked[float32](m, 1, 2))

	assert.Panics(t, func() { At[float32](m, 2, 0) })
	assert.Panics(t, func() { At[float32](m, 0, 3) })
	assert.Panics(t, func() { At[float64](m, 0, 0) })
	assert.Panics(t, func() { m.Ptr(0) })
}

func TestPtrPanicsWithCode(t *testing.T) {
	m := newSeq(t, 2, 2)
	defer m.Release()

	defer func() {
		r := recover()
		err, ok := r.(error)
		require.True(t, ok)
		assert.ErrorIs(t, err, ErrOutOfRange)
	}()
	m.Ptr(5, 0)
}

func TestSetToAndConvertTo(t *testing.T) {
	m, err := NewMat(3, 4, U8C3)
	require.NoError(t, err)
	defer m.Release()

	m.SetTo(Scalar{10, 300, -5})
	assert.Equal(t, []uint8{10, 255, 0}, RowOf[uint8](m, 2)[0:3])

	f := &Mat{}
	require.NoError(t, m.ConvertTo(f, F32, 0.5, 1))
	defer f.Release()
	assert.Equal(t, F32C3, f.Type())
	assert.Equal(t, []float32{6, 128.5, 1}, RowOf[float32](f, 0)[0:3])

	back := &Mat{}
	require.NoError(t, f.ConvertTo(back, S16, 2, 0))
	defer back.Release()
	assert.Equal(t, []int16{12, 257, 2}, RowOf[int16](back, 1)[0:3])
}

func TestConvertToInPlace(t *testing.T) {
	m := newSeq(t, 2, 2)
	require.NoError(t, m.ConvertTo(m, F64, 1, 0.5))
	defer m.Release()
	assert.Equal(t, F64C1, m.Type())
	assert.Equal(t, []float64{1.5, 2.5}, RowOf[float64](m, 0))
}

func TestSaturateRounding(t *testing.T) {
	assert.Equal(t, uint8(2), SaturateU8(2.5))
	assert.Equal(t, uint8(4), SaturateU8(3.5))
	assert.Equal(t, uint8(255), SaturateU8(1e9))
	assert.Equal(t, int8(-128), SaturateS8(-1000))
	assert.Equal(t, int16(0), SaturateS16(nan()))
	assert.Equal(t, uint32(4294967295), SaturateU32(1e12))
}

func nan() float64 {
	var z float64
	return z / z
}
