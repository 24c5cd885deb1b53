package filter

import (
	"fmt"
	"math"

	"github.com/openhl/openhl/core"
	"github.com/openhl/openhl/internal/wide"
)

// MorphOp selects the morphological reduction.
type MorphOp int

const (
	// MorphErode takes the minimum over the structuring element.
	MorphErode MorphOp = iota
	// MorphDilate takes the maximum over the structuring element.
	MorphDilate
)

func (op MorphOp) String() string {
	switch op {
	case MorphErode:
		return "erode"
	case MorphDilate:
		return "dilate"
	default:
		return fmt.Sprintf("MorphOp(%d)", int(op))
	}
}

type morphRow[T core.Number] struct {
	ksize  int
	anchor int
	op     MorphOp
}

func (f *morphRow[T]) KSize() int  { return f.ksize }
func (f *morphRow[T]) Anchor() int { return f.anchor }

func (f *morphRow[T]) depths() (core.Depth, core.Depth) {
	d := core.DepthOf[T]()
	return d, d
}

func (f *morphRow[T]) Apply(src, dst []byte, width, cn int) {
	s := core.Cast[T](src)
	d := core.Cast[T](dst)[:width*cn]
	for i := range d {
		v := s[i]
		for j := 1; j < f.ksize; j++ {
			if f.op == MorphErode {
				v = min(v, s[i+j*cn])
			} else {
				v = max(v, s[i+j*cn])
			}
		}
		d[i] = v
	}
}

type morphColumn[T core.Number] struct {
	ksize  int
	anchor int
	op     MorphOp
	rows   [][]T
}

func (f *morphColumn[T]) KSize() int  { return f.ksize }
func (f *morphColumn[T]) Anchor() int { return f.anchor }
func (f *morphColumn[T]) Reset()      {}

func (f *morphColumn[T]) depths() (core.Depth, core.Depth) {
	d := core.DepthOf[T]()
	return d, d
}

func (f *morphColumn[T]) Apply(src [][]byte, dst []byte, dstStep, count, width int) {
	f.rows = castRows(f.rows, src)
	if rows, ok := any(f.rows).([][]float32); ok && core.UseOptimized() {
		for r := range count {
			d := core.Cast[float32](dst[r*dstStep:])[:width]
			if f.op == MorphErode {
				wide.MinRows(d, rows[r:r+f.ksize])
			} else {
				wide.MaxRows(d, rows[r:r+f.ksize])
			}
		}
		return
	}
	for r := range count {
		d := core.Cast[T](dst[r*dstStep:])[:width]
		copy(d, f.rows[r][:width])
		for j := 1; j < f.ksize; j++ {
			row := f.rows[r+j][:width]
			if f.op == MorphErode {
				for i, v := range row {
					d[i] = min(d[i], v)
				}
			} else {
				for i, v := range row {
					d[i] = max(d[i], v)
				}
			}
		}
	}
}

// NewMorphRowFilter returns the horizontal pass of a rectangular erosion or
// dilation over typ. All depths are supported.
func NewMorphRowFilter(op MorphOp, typ core.ElemType, ksize, anchor int) (RowFilter, error) {
	if err := checkMorph(op, typ); err != nil {
		return nil, err
	}
	anchor, err := normalizeAnchor(anchor, ksize)
	if err != nil {
		return nil, err
	}
	switch typ.Depth() {
	case core.U8:
		return &morphRow[uint8]{ksize: ksize, anchor: anchor, op: op}, nil
	case core.S8:
		return &morphRow[int8]{ksize: ksize, anchor: anchor, op: op}, nil
	case core.U16:
		return &morphRow[uint16]{ksize: ksize, anchor: anchor, op: op}, nil
	case core.S16:
		return &morphRow[int16]{ksize: ksize, anchor: anchor, op: op}, nil
	case core.S32:
		return &morphRow[int32]{ksize: ksize, anchor: anchor, op: op}, nil
	case core.U32:
		return &morphRow[uint32]{ksize: ksize, anchor: anchor, op: op}, nil
	case core.F32:
		return &morphRow[float32]{ksize: ksize, anchor: anchor, op: op}, nil
	default:
		return &morphRow[float64]{ksize: ksize, anchor: anchor, op: op}, nil
	}
}

// NewMorphColumnFilter returns the vertical pass of a rectangular erosion or
// dilation over typ.
func NewMorphColumnFilter(op MorphOp, typ core.ElemType, ksize, anchor int) (ColumnFilter, error) {
	if err := checkMorph(op, typ); err != nil {
		return nil, err
	}
	anchor, err := normalizeAnchor(anchor, ksize)
	if err != nil {
		return nil, err
	}
	switch typ.Depth() {
	case core.U8:
		return &morphColumn[uint8]{ksize: ksize, anchor: anchor, op: op}, nil
	case core.S8:
		return &morphColumn[int8]{ksize: ksize, anchor: anchor, op: op}, nil
	case core.U16:
		return &morphColumn[uint16]{ksize: ksize, anchor: anchor, op: op}, nil
	case core.S16:
		return &morphColumn[int16]{ksize: ksize, anchor: anchor, op: op}, nil
	case core.S32:
		return &morphColumn[int32]{ksize: ksize, anchor: anchor, op: op}, nil
	case core.U32:
		return &morphColumn[uint32]{ksize: ksize, anchor: anchor, op: op}, nil
	case core.F32:
		return &morphColumn[float32]{ksize: ksize, anchor: anchor, op: op}, nil
	default:
		return &morphColumn[float64]{ksize: ksize, anchor: anchor, op: op}, nil
	}
}

func checkMorph(op MorphOp, typ core.ElemType) error {
	if op != MorphErode && op != MorphDilate {
		return core.Errorf(core.CodeBadArg, "unknown morphology op %v", op)
	}
	if !typ.Valid() {
		return core.Errorf(core.CodeBadArg, "invalid element type %d", int32(typ))
	}
	return nil
}

// morphBorderValue is the constant border that never wins the reduction:
// the depth maximum for erosion, the minimum for dilation.
func morphBorderValue(op MorphOp, d core.Depth) core.Scalar {
	var hi, lo float64
	switch d {
	case core.U8:
		hi, lo = math.MaxUint8, 0
	case core.S8:
		hi, lo = math.MaxInt8, math.MinInt8
	case core.U16:
		hi, lo = math.MaxUint16, 0
	case core.S16:
		hi, lo = math.MaxInt16, math.MinInt16
	case core.S32:
		hi, lo = math.MaxInt32, math.MinInt32
	case core.U32:
		hi, lo = math.MaxUint32, 0
	case core.F32:
		hi, lo = math.MaxFloat32, -math.MaxFloat32
	default:
		hi, lo = math.MaxFloat64, -math.MaxFloat64
	}
	if op == MorphErode {
		return core.ScalarAll(hi)
	}
	return core.ScalarAll(lo)
}
