package filter

import (
	"fmt"
	"math"

	"github.com/openhl/openhl/core"
)

// Automatic banding never makes bands shorter than this.
const minBandRows = 16

// CreateBoxFilter returns an engine summing ksize windows of srcType into
// dstType, divided by the window area when normalize is set. The sums are
// accumulated at the narrowest depth that cannot overflow.
func CreateBoxFilter(srcType, dstType core.ElemType, ksize core.Size, anchor core.Point, normalize bool, border BorderType) (*FilterEngine, error) {
	if ksize.Width < 1 || ksize.Height < 1 {
		return nil, core.Errorf(core.CodeBadArg, "box kernel size %v", ksize)
	}
	if !srcType.Valid() {
		return nil, core.Errorf(core.CodeBadArg, "invalid element type %d", int32(srcType))
	}
	sumType := srcType.WithDepth(boxSumDepth(srcType.Depth(), ksize.Area()))

	row, err := NewRowSumFilter(srcType, sumType, ksize.Width, anchor.X)
	if err != nil {
		return nil, err
	}
	scale := 1.0
	if normalize {
		scale = 1 / float64(ksize.Area())
	}
	col, err := NewColumnSumFilter(sumType, dstType, ksize.Height, anchor.Y, scale)
	if err != nil {
		return nil, err
	}
	return NewFilterEngine(nil, row, col, srcType, dstType, sumType, border, border, core.Scalar{})
}

// CreateSeparableLinearFilter returns an engine convolving rows with kx and
// columns with ky, adding delta.
//
// 8U to 8U filtering with kernels that are non-negative and sum to 1 runs in
// fixed point with 8 fractional bits per pass, unless delta is too large for
// the 32S buffer. Other combinations buffer
// 64F when either end is 32S, 32U or 64F, and 32F otherwise.
func CreateSeparableLinearFilter(srcType, dstType core.ElemType, kx, ky []float64, anchor core.Point,
	delta float64, rowBorder, columnBorder BorderType, borderValue core.Scalar,
) (*FilterEngine, error) {
	if len(kx) == 0 || len(ky) == 0 {
		return nil, core.Errorf(core.CodeBadArg, "empty separable kernel %d x %d", len(kx), len(ky))
	}
	if !srcType.Valid() {
		return nil, core.Errorf(core.CodeBadArg, "invalid element type %d", int32(srcType))
	}

	sd, dd := srcType.Depth(), dstType.Depth()
	bits := 0
	var bufDepth core.Depth
	switch {
	case sd == core.U8 && dd == core.U8 && isSmoothKernel(kx) && isSmoothKernel(ky) && fixedDeltaFits(delta):
		bufDepth = core.S32
		kx = fixedPointKernel(kx, smoothBits)
		ky = fixedPointKernel(ky, smoothBits)
		bits = 2 * smoothBits
	case wideDepth(sd) || wideDepth(dd):
		bufDepth = core.F64
	default:
		bufDepth = core.F32
	}
	bufType := srcType.WithDepth(bufDepth)

	row, err := NewLinearRowFilter(srcType, bufType, kx, anchor.X)
	if err != nil {
		return nil, err
	}
	col, err := NewLinearColumnFilter(bufType, dstType, ky, anchor.Y, delta, bits)
	if err != nil {
		return nil, err
	}
	return NewFilterEngine(nil, row, col, srcType, dstType, bufType, rowBorder, columnBorder, borderValue)
}

// fixedDeltaFits reports whether delta leaves room in a 32S buffer for the
// largest 8U fixed-point sum of a smoothing kernel.
func fixedDeltaFits(delta float64) bool {
	const peak = 255 << (2 * smoothBits)
	f, ok := toFixed(delta, 2*smoothBits)
	return ok && int64(f)+peak <= math.MaxInt32 && int64(f)-peak >= math.MinInt32
}

func wideDepth(d core.Depth) bool {
	return d == core.F64 || d == core.S32 || d == core.U32
}

// CreateLinearFilter returns an engine correlating the image with a 2D
// kernel (32FC1 or 64FC1) in one fused pass.
func CreateLinearFilter(srcType, dstType core.ElemType, kernel *core.Mat, anchor core.Point,
	delta float64, rowBorder, columnBorder BorderType, borderValue core.Scalar,
) (*FilterEngine, error) {
	f2d, err := NewLinearFilter2D(srcType, dstType, kernel, anchor, delta)
	if err != nil {
		return nil, err
	}
	return NewFilterEngine(f2d, nil, nil, srcType, dstType, srcType, rowBorder, columnBorder, borderValue)
}

// CreateMorphologyFilter returns an engine eroding or dilating typ with a
// rectangular ksize structuring element.
func CreateMorphologyFilter(op MorphOp, typ core.ElemType, ksize core.Size, anchor core.Point,
	rowBorder, columnBorder BorderType, borderValue core.Scalar,
) (*FilterEngine, error) {
	row, err := NewMorphRowFilter(op, typ, ksize.Width, anchor.X)
	if err != nil {
		return nil, err
	}
	col, err := NewMorphColumnFilter(op, typ, ksize.Height, anchor.Y)
	if err != nil {
		return nil, err
	}
	return NewFilterEngine(nil, row, col, typ, typ, typ, rowBorder, columnBorder, borderValue)
}

// BoxFilter writes the (normalized, see WithNormalize) sum of every ksize
// window of src to dst at depth ddepth. dst may be src.
func BoxFilter(src, dst *core.Mat, ddepth core.Depth, ksize core.Size, opts ...Option) error {
	o := applyOptions(opts)
	dstType, err := destType(src, ddepth)
	if err != nil {
		return err
	}
	return runBands("box", src, dst, o, func() (*FilterEngine, error) {
		return CreateBoxFilter(src.Type(), dstType, ksize, o.anchor, o.normalize, o.border)
	})
}

// Blur writes the mean of every ksize window of src to dst, keeping src's type.
func Blur(src, dst *core.Mat, ksize core.Size, opts ...Option) error {
	return BoxFilter(src, dst, SameDepth, ksize, append(opts[:len(opts):len(opts)], WithNormalize(true))...)
}

// SepFilter2D convolves the rows of src with kx and the columns with ky,
// writing depth ddepth to dst.
func SepFilter2D(src, dst *core.Mat, ddepth core.Depth, kx, ky []float64, opts ...Option) error {
	o := applyOptions(opts)
	dstType, err := destType(src, ddepth)
	if err != nil {
		return err
	}
	return runBands("sepfilter2d", src, dst, o, func() (*FilterEngine, error) {
		return CreateSeparableLinearFilter(src.Type(), dstType, kx, ky, o.anchor, o.delta, o.border, o.border, o.borderValue)
	})
}

// LinearFilter correlates src with a 2D kernel (32FC1 or 64FC1), writing
// depth ddepth to dst.
func LinearFilter(src, dst *core.Mat, ddepth core.Depth, kernel *core.Mat, opts ...Option) error {
	o := applyOptions(opts)
	dstType, err := destType(src, ddepth)
	if err != nil {
		return err
	}
	return runBands("filter2d", src, dst, o, func() (*FilterEngine, error) {
		return CreateLinearFilter(src.Type(), dstType, kernel, o.anchor, o.delta, o.border, o.border, o.borderValue)
	})
}

// GaussianBlur smooths src with a separable Gaussian into dst.
//
// A non-positive sigmaY takes sigmaX. A non-positive kernel dimension is
// derived from its sigma; at least one of ksize and sigmaX must be positive.
func GaussianBlur(src, dst *core.Mat, ksize core.Size, sigmaX, sigmaY float64, opts ...Option) error {
	if src == nil {
		return core.Errorf(core.CodeBadArg, "nil source")
	}
	if sigmaY <= 0 {
		sigmaY = sigmaX
	}
	if ksize.Width <= 0 && sigmaX > 0 {
		ksize.Width = GaussianKernelSize(sigmaX, src.Depth())
	}
	if ksize.Height <= 0 && sigmaY > 0 {
		ksize.Height = GaussianKernelSize(sigmaY, src.Depth())
	}
	kx, err := GaussianKernel(ksize.Width, sigmaX)
	if err != nil {
		return fmt.Errorf("filter: gaussian: %w", err)
	}
	ky, err := GaussianKernel(ksize.Height, sigmaY)
	if err != nil {
		return fmt.Errorf("filter: gaussian: %w", err)
	}
	return SepFilter2D(src, dst, SameDepth, kx, ky, opts...)
}

// Erode replaces every pixel of src by the minimum of its ksize window,
// iterations times, into dst. The default border is BorderConstant with a
// value that never wins.
func Erode(src, dst *core.Mat, ksize core.Size, iterations int, opts ...Option) error {
	return morphology(MorphErode, src, dst, ksize, iterations, opts)
}

// Dilate replaces every pixel of src by the maximum of its ksize window,
// iterations times, into dst.
func Dilate(src, dst *core.Mat, ksize core.Size, iterations int, opts ...Option) error {
	return morphology(MorphDilate, src, dst, ksize, iterations, opts)
}

func morphology(op MorphOp, src, dst *core.Mat, ksize core.Size, iterations int, opts []Option) error {
	if src == nil || dst == nil {
		return core.Errorf(core.CodeBadArg, "nil source or destination")
	}
	if ksize.Width < 1 || ksize.Height < 1 {
		return core.Errorf(core.CodeBadArg, "%v kernel size %v", op, ksize)
	}
	o := applyOptions(opts)
	if !o.borderSet {
		o.border = BorderConstant
	}
	if !o.valueSet {
		o.borderValue = morphBorderValue(op, src.Depth())
	}
	if iterations <= 0 || ksize.Area() == 1 {
		return src.CopyTo(dst)
	}

	// n passes of a rectangle equal one pass of the rectangle grown n-1 times.
	anchor := o.anchor
	if iterations > 1 {
		ksize.Width += (iterations - 1) * (ksize.Width - 1)
		ksize.Height += (iterations - 1) * (ksize.Height - 1)
		if anchor.X >= 0 {
			anchor.X *= iterations
		}
		if anchor.Y >= 0 {
			anchor.Y *= iterations
		}
	}
	return runBands(op.String(), src, dst, o, func() (*FilterEngine, error) {
		return CreateMorphologyFilter(op, src.Type(), ksize, anchor, o.border, o.border, o.borderValue)
	})
}

func destType(src *core.Mat, ddepth core.Depth) (core.ElemType, error) {
	if src == nil {
		return 0, core.Errorf(core.CodeBadArg, "nil source")
	}
	if ddepth == SameDepth {
		return src.Type(), nil
	}
	if !ddepth.Valid() {
		return 0, core.Errorf(core.CodeBadArg, "invalid destination depth %d", ddepth)
	}
	return src.Type().WithDepth(ddepth), nil
}

// runBands filters src into dst with engines from newEngine, splitting the
// destination into disjoint row bands run on o.exec. Every band reads the
// same whole image, so the result does not depend on the band count.
func runBands(op string, src, dst *core.Mat, o options, newEngine func() (*FilterEngine, error)) error {
	if src == nil || dst == nil || src.Dims() != 2 || src.Empty() {
		return core.Errorf(core.CodeBadArg, "%s: need a non-empty 2D source and a destination", op)
	}
	if err := o.ctx.Err(); err != nil {
		return err
	}
	e, err := newEngine()
	if err != nil {
		return fmt.Errorf("filter: %s: %w", op, err)
	}

	in, whole, ofs, err := e.detach(src, dst)
	if err != nil {
		return fmt.Errorf("filter: %s: %w", op, err)
	}
	defer in.Release()

	rows := in.Rows()
	n := o.bands
	if n == 0 {
		n = min(o.exec.Workers(), rows/minBandRows)
	}
	n = min(max(n, 1), rows)
	if n == 1 {
		return e.Apply(in, dst, whole, ofs)
	}

	if in.Type() != e.SrcType() {
		return core.Errorf(core.CodeUnsupportedFormat, "%s: source type %v, engine expects %v", op, in.Type(), e.SrcType())
	}
	if err := dst.Create(rows, in.Cols(), e.DstType()); err != nil {
		return err
	}
	core.Logger().Debug("filter: bands",
		"op", op, "size", in.Size(), "whole", whole, "ofs", ofs, "bands", n, "workers", o.exec.Workers())

	return o.exec.ForRange(o.ctx, 0, rows, n, func(y0, y1 int) error {
		be := e
		if y0 != 0 {
			var err error
			if be, err = newEngine(); err != nil {
				return err
			}
		}
		sb := in.RowRange(y0, y1)
		defer sb.Release()
		db := dst.RowRange(y0, y1)
		defer db.Release()
		return be.Apply(sb, db, whole, core.Point{X: ofs.X, Y: ofs.Y + y0})
	})
}
