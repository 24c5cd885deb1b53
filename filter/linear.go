package filter

import (
	"math"

	"github.com/openhl/openhl/core"
	"github.com/openhl/openhl/internal/wide"
)

// bufNumber is the set of intermediate buffer types for linear filters:
// int32 for 8-bit fixed point, float32 and float64 otherwise.
type bufNumber interface {
	~int32 | ~float32 | ~float64
}

// maxFixedBits bounds the fixed-point shift of a 32S column filter.
const maxFixedBits = 30

// linearRow convolves a row with a 1D kernel, accumulating in B.
type linearRow[S core.Number, B bufNumber] struct {
	kernel []B
	anchor int
}

func (f *linearRow[S, B]) KSize() int  { return len(f.kernel) }
func (f *linearRow[S, B]) Anchor() int { return f.anchor }

func (f *linearRow[S, B]) depths() (core.Depth, core.Depth) {
	return core.DepthOf[S](), core.DepthOf[B]()
}

func (f *linearRow[S, B]) Apply(src, dst []byte, width, cn int) {
	s := core.Cast[S](src)
	d := core.Cast[B](dst)[:width*cn]
	k := f.kernel

	if len(k) == 1 {
		k0 := k[0]
		for i := range d {
			d[i] = k0 * B(s[i])
		}
		return
	}
	for i := range d {
		var sum B
		for j, kv := range k {
			sum += kv * B(s[i+j*cn])
		}
		d[i] = sum
	}
}

// linearColumn convolves buffered rows with a 1D kernel and stores the
// saturated result. With bits > 0 the sums are fixed point and are shifted
// right by bits, rounding half up.
type linearColumn[B bufNumber, D core.Number] struct {
	kernel []B
	anchor int
	delta  B
	bits   uint
	round  int64
	sat    func(float64) D
	rows   [][]B
	sums   []float32
}

func newLinearColumn[B bufNumber, D core.Number](kernel []B, anchor int, delta B, bits uint) *linearColumn[B, D] {
	f := &linearColumn[B, D]{
		kernel: kernel,
		anchor: anchor,
		delta:  delta,
		bits:   bits,
		sat:    core.SaturateFunc[D](),
	}
	if bits > 0 {
		f.round = 1 << (bits - 1)
	}
	return f
}

func (f *linearColumn[B, D]) KSize() int  { return len(f.kernel) }
func (f *linearColumn[B, D]) Anchor() int { return f.anchor }
func (f *linearColumn[B, D]) Reset()      {}

func (f *linearColumn[B, D]) depths() (core.Depth, core.Depth) {
	return core.DepthOf[B](), core.DepthOf[D]()
}

func (f *linearColumn[B, D]) Apply(src [][]byte, dst []byte, dstStep, count, width int) {
	f.rows = castRows(f.rows, src)
	ksize := len(f.kernel)

	if f.bits == 0 && core.UseOptimized() {
		if k, ok := any(f.kernel).([]float32); ok {
			f.applyLanes(any(f.rows).([][]float32), k, dst, dstStep, count, width)
			return
		}
	}

	for r := range count {
		win := f.rows[r : r+ksize]
		d := core.Cast[D](dst[r*dstStep:])[:width]
		for i := range d {
			sum := f.delta
			for j, kv := range f.kernel {
				sum += kv * win[j][i]
			}
			if f.bits > 0 {
				d[i] = f.sat(float64((int64(sum) + f.round) >> f.bits))
			} else {
				d[i] = f.sat(float64(sum))
			}
		}
	}
}

// applyLanes is the float32 path: sums eight columns per step, then saturates.
func (f *linearColumn[B, D]) applyLanes(rows [][]float32, k []float32, dst []byte, dstStep, count, width int) {
	if cap(f.sums) < width {
		f.sums = make([]float32, width)
	}
	sums := f.sums[:width]
	delta := any(f.delta).(float32)
	for r := range count {
		wide.DotRows(sums, rows[r:r+len(k)], k, delta)
		d := core.Cast[D](dst[r*dstStep:])[:width]
		for i, v := range sums {
			d[i] = f.sat(float64(v))
		}
	}
}

// NewLinearRowFilter returns the horizontal pass of a separable convolution
// from srcType into bufType.
//
// bufType may be 32F or 64F for any source depth. An 8U source may also use a
// 32S buffer for fixed-point filtering; the kernel is then taken as integers
// already scaled by the caller.
func NewLinearRowFilter(srcType, bufType core.ElemType, kernel []float64, anchor int) (RowFilter, error) {
	if err := checkStageTypes(srcType, bufType); err != nil {
		return nil, err
	}
	anchor, err := normalizeAnchor(anchor, len(kernel))
	if err != nil {
		return nil, err
	}

	sd := srcType.Depth()
	switch bufType.Depth() {
	case core.F32:
		return newLinearRowFor(sd, kernelAs[float32](kernel), anchor), nil
	case core.F64:
		return newLinearRowFor(sd, kernelAs[float64](kernel), anchor), nil
	case core.S32:
		if sd == core.U8 {
			return &linearRow[uint8, int32]{kernel: kernelAs[int32](kernel), anchor: anchor}, nil
		}
	}
	return nil, core.Errorf(core.CodeUnsupportedFormat, "no linear row filter %v -> %v", srcType, bufType)
}

func newLinearRowFor[B bufNumber](sd core.Depth, k []B, anchor int) RowFilter {
	switch sd {
	case core.U8:
		return &linearRow[uint8, B]{kernel: k, anchor: anchor}
	case core.S8:
		return &linearRow[int8, B]{kernel: k, anchor: anchor}
	case core.U16:
		return &linearRow[uint16, B]{kernel: k, anchor: anchor}
	case core.S16:
		return &linearRow[int16, B]{kernel: k, anchor: anchor}
	case core.S32:
		return &linearRow[int32, B]{kernel: k, anchor: anchor}
	case core.U32:
		return &linearRow[uint32, B]{kernel: k, anchor: anchor}
	case core.F32:
		return &linearRow[float32, B]{kernel: k, anchor: anchor}
	default:
		return &linearRow[float64, B]{kernel: k, anchor: anchor}
	}
}

// NewLinearColumnFilter returns the vertical pass of a separable convolution
// from bufType into dstType, adding delta to every output.
//
// A 32F or 64F buffer works with any destination depth and bits must be 0.
// A 32S buffer holds fixed-point sums: the kernel is taken as pre-scaled
// integers and bits is the total right shift applied before saturation.
func NewLinearColumnFilter(bufType, dstType core.ElemType, kernel []float64, anchor int, delta float64, bits int) (ColumnFilter, error) {
	if err := checkStageTypes(bufType, dstType); err != nil {
		return nil, err
	}
	anchor, err := normalizeAnchor(anchor, len(kernel))
	if err != nil {
		return nil, err
	}
	if bits < 0 || bits > maxFixedBits {
		return nil, core.Errorf(core.CodeBadArg, "fixed-point shift %d outside [0, %d]", bits, maxFixedBits)
	}

	dd := dstType.Depth()
	switch bufType.Depth() {
	case core.F32, core.F64:
		if bits != 0 {
			return nil, core.Errorf(core.CodeBadArg, "fixed-point shift %d needs a 32S buffer, have %v", bits, bufType)
		}
		if bufType.Depth() == core.F32 {
			return newLinearColumnFor(dd, kernelAs[float32](kernel), anchor, float32(delta), 0), nil
		}
		return newLinearColumnFor(dd, kernelAs[float64](kernel), anchor, delta, 0), nil
	case core.S32:
		fixedDelta, ok := toFixed(delta, bits)
		if !ok {
			return nil, core.Errorf(core.CodeBadArg, "delta %v does not fit a 32S buffer with %d fractional bits", delta, bits)
		}
		return newLinearColumnFor(dd, kernelAs[int32](kernel), anchor, fixedDelta, uint(bits)), nil
	}
	return nil, core.Errorf(core.CodeUnsupportedFormat, "no linear column filter %v -> %v", bufType, dstType)
}

func newLinearColumnFor[B bufNumber](dd core.Depth, k []B, anchor int, delta B, bits uint) ColumnFilter {
	switch dd {
	case core.U8:
		return newLinearColumn[B, uint8](k, anchor, delta, bits)
	case core.S8:
		return newLinearColumn[B, int8](k, anchor, delta, bits)
	case core.U16:
		return newLinearColumn[B, uint16](k, anchor, delta, bits)
	case core.S16:
		return newLinearColumn[B, int16](k, anchor, delta, bits)
	case core.S32:
		return newLinearColumn[B, int32](k, anchor, delta, bits)
	case core.U32:
		return newLinearColumn[B, uint32](k, anchor, delta, bits)
	case core.F32:
		return newLinearColumn[B, float32](k, anchor, delta, bits)
	default:
		return newLinearColumn[B, float64](k, anchor, delta, bits)
	}
}

// toFixed scales v by 2^bits and rounds it, reporting whether the result
// fits in an int32.
func toFixed(v float64, bits int) (int32, bool) {
	f := math.Round(v * float64(int64(1)<<bits))
	if !(f >= math.MinInt32 && f <= math.MaxInt32) {
		return 0, false
	}
	return int32(f), true
}

// kernelAs converts kernel coefficients to B, rounding when B is an integer type.
func kernelAs[B bufNumber](k []float64) []B {
	var zero B
	_, fixed := any(zero).(int32)
	out := make([]B, len(k))
	for i, v := range k {
		if fixed {
			v = math.Round(v)
		}
		out[i] = B(v)
	}
	return out
}

// checkStageTypes validates a stage's input and output types.
func checkStageTypes(in, out core.ElemType) error {
	if !in.Valid() || !out.Valid() {
		return core.Errorf(core.CodeBadArg, "invalid element type %d -> %d", int32(in), int32(out))
	}
	if in.Channels() != out.Channels() {
		return core.Errorf(core.CodeBadArg, "channel mismatch %v -> %v", in, out)
	}
	return nil
}
