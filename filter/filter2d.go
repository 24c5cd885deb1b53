package filter

import "github.com/openhl/openhl/core"

// linearFilter2D is a direct 2D convolution over the nonzero kernel taps,
// accumulating in float64.
type linearFilter2D[S, D core.Number] struct {
	ksize  core.Size
	anchor core.Point
	taps   []core.Point
	coeffs []float64
	delta  float64
	sat    func(float64) D
	rows   [][]S
}

func (f *linearFilter2D[S, D]) KSize() core.Size   { return f.ksize }
func (f *linearFilter2D[S, D]) Anchor() core.Point { return f.anchor }
func (f *linearFilter2D[S, D]) Reset()             {}

func (f *linearFilter2D[S, D]) depths() (core.Depth, core.Depth) {
	return core.DepthOf[S](), core.DepthOf[D]()
}

func (f *linearFilter2D[S, D]) Apply(src [][]byte, dst []byte, dstStep, count, width, cn int) {
	f.rows = castRows(f.rows, src)
	n := width * cn

	for r := range count {
		win := f.rows[r:]
		d := core.Cast[D](dst[r*dstStep:])[:n]
		for i := range d {
			sum := f.delta
			for t, p := range f.taps {
				sum += f.coeffs[t] * float64(win[p.Y][i+p.X*cn])
			}
			d[i] = f.sat(sum)
		}
	}
}

// NewLinearFilter2D returns a fused 2D convolution from srcType into dstType.
// kernel must be a single-channel 32F or 64F Mat; a negative anchor
// coordinate selects the kernel center. delta is added to every output.
// All depth pairs are supported.
func NewLinearFilter2D(srcType, dstType core.ElemType, kernel *core.Mat, anchor core.Point, delta float64) (Filter2D, error) {
	if err := checkStageTypes(srcType, dstType); err != nil {
		return nil, err
	}
	if kernel == nil || kernel.Empty() || kernel.Dims() != 2 {
		return nil, core.Errorf(core.CodeBadArg, "kernel must be a non-empty 2D Mat")
	}
	if kt := kernel.Type(); kt != core.F32C1 && kt != core.F64C1 {
		return nil, core.Errorf(core.CodeUnsupportedFormat, "kernel type %v, want 32FC1 or 64FC1", kt)
	}

	ksize := kernel.Size()
	var err error
	if anchor.X, err = normalizeAnchor(anchor.X, ksize.Width); err != nil {
		return nil, err
	}
	if anchor.Y, err = normalizeAnchor(anchor.Y, ksize.Height); err != nil {
		return nil, err
	}

	var taps []core.Point
	var coeffs []float64
	for y := range ksize.Height {
		for x := range ksize.Width {
			var v float64
			if kernel.Depth() == core.F32 {
				v = float64(core.At[float32](kernel, y, x))
			} else {
				v = core.At[float64](kernel, y, x)
			}
			if v != 0 {
				taps = append(taps, core.Point{X: x, Y: y})
				coeffs = append(coeffs, v)
			}
		}
	}

	base := filter2DBase{ksize: ksize, anchor: anchor, taps: taps, coeffs: coeffs, delta: delta}
	dd := dstType.Depth()
	switch srcType.Depth() {
	case core.U8:
		return newFilter2DFor[uint8](dd, base), nil
	case core.S8:
		return newFilter2DFor[int8](dd, base), nil
	case core.U16:
		return newFilter2DFor[uint16](dd, base), nil
	case core.S16:
		return newFilter2DFor[int16](dd, base), nil
	case core.S32:
		return newFilter2DFor[int32](dd, base), nil
	case core.U32:
		return newFilter2DFor[uint32](dd, base), nil
	case core.F32:
		return newFilter2DFor[float32](dd, base), nil
	default:
		return newFilter2DFor[float64](dd, base), nil
	}
}

type filter2DBase struct {
	ksize  core.Size
	anchor core.Point
	taps   []core.Point
	coeffs []float64
	delta  float64
}

func newFilter2D[S, D core.Number](b filter2DBase) *linearFilter2D[S, D] {
	return &linearFilter2D[S, D]{
		ksize:  b.ksize,
		anchor: b.anchor,
		taps:   b.taps,
		coeffs: b.coeffs,
		delta:  b.delta,
		sat:    core.SaturateFunc[D](),
	}
}

func newFilter2DFor[S core.Number](dd core.Depth, b filter2DBase) Filter2D {
	switch dd {
	case core.U8:
		return newFilter2D[S, uint8](b)
	case core.S8:
		return newFilter2D[S, int8](b)
	case core.U16:
		return newFilter2D[S, uint16](b)
	case core.S16:
		return newFilter2D[S, int16](b)
	case core.S32:
		return newFilter2D[S, int32](b)
	case core.U32:
		return newFilter2D[S, uint32](b)
	case core.F32:
		return newFilter2D[S, float32](b)
	default:
		return newFilter2D[S, float64](b)
	}
}
