package filter

import "github.com/openhl/openhl/core"

// rowSum computes horizontal box sums with a rolling window: each output
// after the first adds the value entering the window and subtracts the one
// leaving it. The sum restarts from scratch at every row.
type rowSum[S, T core.Number] struct {
	ksize  int
	anchor int
}

func (f *rowSum[S, T]) KSize() int  { return f.ksize }
func (f *rowSum[S, T]) Anchor() int { return f.anchor }

func (f *rowSum[S, T]) depths() (core.Depth, core.Depth) {
	return core.DepthOf[S](), core.DepthOf[T]()
}

func (f *rowSum[S, T]) Apply(src, dst []byte, width, cn int) {
	s := core.Cast[S](src)
	d := core.Cast[T](dst)[:width*cn]
	k := f.ksize
	tail := (k - 1) * cn

	for c := range cn {
		var sum T
		for j := range k {
			sum += T(s[c+j*cn])
		}
		d[c] = sum
		for i := c + cn; i < len(d); i += cn {
			sum += T(s[i+tail]) - T(s[i-cn])
			d[i] = sum
		}
	}
}

// columnSum computes vertical box sums over buffered row sums. The running
// sum persists across Apply calls and is rebuilt from scratch after Reset,
// so consecutive calls must see consecutive windows.
type columnSum[T, D core.Number] struct {
	ksize  int
	anchor int
	scale  float64
	sat    func(float64) D

	sum    []T
	primed bool
	rows   [][]T
}

func (f *columnSum[T, D]) KSize() int  { return f.ksize }
func (f *columnSum[T, D]) Anchor() int { return f.anchor }
func (f *columnSum[T, D]) Reset()      { f.primed = false }

func (f *columnSum[T, D]) depths() (core.Depth, core.Depth) {
	return core.DepthOf[T](), core.DepthOf[D]()
}

func (f *columnSum[T, D]) Apply(src [][]byte, dst []byte, dstStep, count, width int) {
	f.rows = castRows(f.rows, src)
	k := f.ksize

	if !f.primed {
		if cap(f.sum) < width {
			f.sum = make([]T, width)
		}
		f.sum = f.sum[:width]
		clear(f.sum)
		for j := range k - 1 {
			for i, v := range f.rows[j][:width] {
				f.sum[i] += v
			}
		}
		f.primed = true
	}
	sum := f.sum[:width]

	for r := range count {
		sp := f.rows[r+k-1][:width]
		sm := f.rows[r][:width]
		d := core.Cast[D](dst[r*dstStep:])[:width]
		if f.scale == 1 {
			for i := range d {
				s := sum[i] + sp[i]
				d[i] = f.sat(float64(s))
				sum[i] = s - sm[i]
			}
			continue
		}
		for i := range d {
			s := sum[i] + sp[i]
			d[i] = f.sat(float64(s) * f.scale)
			sum[i] = s - sm[i]
		}
	}
}

// NewRowSumFilter returns a horizontal box-sum stage from srcType into sumType.
// Supported sums: 16U from 8U, 32S from 8U/8S/16U/16S/32S, 64F from any depth.
func NewRowSumFilter(srcType, sumType core.ElemType, ksize, anchor int) (RowFilter, error) {
	if err := checkStageTypes(srcType, sumType); err != nil {
		return nil, err
	}
	anchor, err := normalizeAnchor(anchor, ksize)
	if err != nil {
		return nil, err
	}

	sd := srcType.Depth()
	switch sumType.Depth() {
	case core.U16:
		if sd == core.U8 {
			return &rowSum[uint8, uint16]{ksize: ksize, anchor: anchor}, nil
		}
	case core.S32:
		switch sd {
		case core.U8:
			return &rowSum[uint8, int32]{ksize: ksize, anchor: anchor}, nil
		case core.S8:
			return &rowSum[int8, int32]{ksize: ksize, anchor: anchor}, nil
		case core.U16:
			return &rowSum[uint16, int32]{ksize: ksize, anchor: anchor}, nil
		case core.S16:
			return &rowSum[int16, int32]{ksize: ksize, anchor: anchor}, nil
		case core.S32:
			return &rowSum[int32, int32]{ksize: ksize, anchor: anchor}, nil
		}
	case core.F64:
		switch sd {
		case core.U8:
			return &rowSum[uint8, float64]{ksize: ksize, anchor: anchor}, nil
		case core.S8:
			return &rowSum[int8, float64]{ksize: ksize, anchor: anchor}, nil
		case core.U16:
			return &rowSum[uint16, float64]{ksize: ksize, anchor: anchor}, nil
		case core.S16:
			return &rowSum[int16, float64]{ksize: ksize, anchor: anchor}, nil
		case core.S32:
			return &rowSum[int32, float64]{ksize: ksize, anchor: anchor}, nil
		case core.U32:
			return &rowSum[uint32, float64]{ksize: ksize, anchor: anchor}, nil
		case core.F32:
			return &rowSum[float32, float64]{ksize: ksize, anchor: anchor}, nil
		case core.F64:
			return &rowSum[float64, float64]{ksize: ksize, anchor: anchor}, nil
		}
	}
	return nil, core.Errorf(core.CodeUnsupportedFormat, "no row sum filter %v -> %v", srcType, sumType)
}

// NewColumnSumFilter returns a vertical box-sum stage from sumType into
// dstType that multiplies every sum by scale before saturation.
// sumType must be 16U, 32S or 64F.
func NewColumnSumFilter(sumType, dstType core.ElemType, ksize, anchor int, scale float64) (ColumnFilter, error) {
	if err := checkStageTypes(sumType, dstType); err != nil {
		return nil, err
	}
	anchor, err := normalizeAnchor(anchor, ksize)
	if err != nil {
		return nil, err
	}

	dd := dstType.Depth()
	switch sumType.Depth() {
	case core.U16:
		return newColumnSumFor[uint16](dd, ksize, anchor, scale), nil
	case core.S32:
		return newColumnSumFor[int32](dd, ksize, anchor, scale), nil
	case core.F64:
		return newColumnSumFor[float64](dd, ksize, anchor, scale), nil
	}
	return nil, core.Errorf(core.CodeUnsupportedFormat, "no column sum filter %v -> %v", sumType, dstType)
}

func newColumnSum[T, D core.Number](ksize, anchor int, scale float64) *columnSum[T, D] {
	return &columnSum[T, D]{ksize: ksize, anchor: anchor, scale: scale, sat: core.SaturateFunc[D]()}
}

func newColumnSumFor[T core.Number](dd core.Depth, ksize, anchor int, scale float64) ColumnFilter {
	switch dd {
	case core.U8:
		return newColumnSum[T, uint8](ksize, anchor, scale)
	case core.S8:
		return newColumnSum[T, int8](ksize, anchor, scale)
	case core.U16:
		return newColumnSum[T, uint16](ksize, anchor, scale)
	case core.S16:
		return newColumnSum[T, int16](ksize, anchor, scale)
	case core.S32:
		return newColumnSum[T, int32](ksize, anchor, scale)
	case core.U32:
		return newColumnSum[T, uint32](ksize, anchor, scale)
	case core.F32:
		return newColumnSum[T, float32](ksize, anchor, scale)
	default:
		return newColumnSum[T, float64](ksize, anchor, scale)
	}
}

// boxSumDepth picks the accumulator depth for a box filter over src depth sd
// with the given kernel area: 16U for small 8U windows, 32S while integer
// sums cannot overflow, 64F otherwise.
func boxSumDepth(sd core.Depth, area int) core.Depth {
	switch sd {
	case core.U8:
		if area <= 256 {
			return core.U16
		}
		if area <= 1<<23 {
			return core.S32
		}
	case core.S8:
		if area <= 1<<23 {
			return core.S32
		}
	case core.U16, core.S16:
		if area <= 1<<15 {
			return core.S32
		}
	}
	return core.F64
}
