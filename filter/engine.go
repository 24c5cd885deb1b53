package filter

import (
	"github.com/openhl/openhl/core"
)

type engineState uint8

const (
	stateUninitialized engineState = iota
	stateInitialized
	stateStreaming
	stateDone
)

// FilterEngine streams an image through a separable pair of stages or a
// fused 2D stage, one source row at a time.
//
// Source rows are pushed through the row stage (or copied, for a 2D stage)
// into a ring buffer holding the last few rows, with the horizontal border
// synthesized from precomputed tables. As soon as the ring holds a full
// vertical window, output rows are produced. Rows outside the image are
// taken from the ring according to the column border policy or from a
// precomputed constant row.
//
// Lifecycle: NewFilterEngine (or Init), then Start, then Proceed until every
// output row is produced. Apply and ApplyMat wrap the whole sequence. An
// engine may be restarted with Start at any time.
//
// A FilterEngine is not safe for concurrent use; use one per goroutine.
type FilterEngine struct {
	state engineState

	srcType, dstType, bufType core.ElemType
	ksize                     core.Size
	anchor                    core.Point
	rowBorder, columnBorder   BorderType
	isolated                  bool
	borderValue               core.Scalar
	constBorderValue          []byte

	rowFilter    RowFilter
	columnFilter ColumnFilter
	filter2D     Filter2D

	wholeSize core.Size
	roi       core.Rect
	dx1, dx2  int
	borderTab []int

	ringBuf        []byte
	bufStep        int
	bufRows        int
	srcRow         []byte
	constBorderRow []byte
	rows           [][]byte

	startY, startY0, endY int
	rowCount, dstY        int
}

// NewFilterEngine returns an engine for either a separable pair (f2d nil) or
// a fused 2D stage (rowFilter and columnFilter nil). See Init.
func NewFilterEngine(f2d Filter2D, rowFilter RowFilter, columnFilter ColumnFilter,
	srcType, dstType, bufType core.ElemType,
	rowBorder, columnBorder BorderType, borderValue core.Scalar,
) (*FilterEngine, error) {
	e := &FilterEngine{}
	if err := e.Init(f2d, rowFilter, columnFilter, srcType, dstType, bufType, rowBorder, columnBorder, borderValue); err != nil {
		return nil, err
	}
	return e, nil
}

// Init configures the engine. Exactly one of f2d and the rowFilter /
// columnFilter pair must be given. For a 2D stage bufType is ignored and
// the source type is buffered. The built-in stages are checked against the
// source, buffer and destination depths; an incompatible pair fails with
// ErrUnsupportedFormat here rather than when streaming.
//
// borderValue is used with BorderConstant. A border policy that cannot be
// served fails with ErrUnsupportedFormat: BorderTransparent in a direction
// the kernel extends, and BorderWrap vertically for kernels taller than one row.
func (e *FilterEngine) Init(f2d Filter2D, rowFilter RowFilter, columnFilter ColumnFilter,
	srcType, dstType, bufType core.ElemType,
	rowBorder, columnBorder BorderType, borderValue core.Scalar,
) error {
	e.state = stateUninitialized

	separable := rowFilter != nil && columnFilter != nil
	switch {
	case separable && f2d != nil:
		return core.Errorf(core.CodeBadArg, "both a separable pair and a 2D filter given")
	case !separable && f2d == nil:
		return core.Errorf(core.CodeBadArg, "need a row and column filter pair or a 2D filter")
	}
	if !separable {
		bufType = srcType
	}
	for _, t := range []core.ElemType{srcType, dstType, bufType} {
		if !t.Valid() {
			return core.Errorf(core.CodeBadArg, "invalid element type %d", int32(t))
		}
	}
	if srcType.Channels() != dstType.Channels() || srcType.Channels() != bufType.Channels() {
		return core.Errorf(core.CodeBadArg, "channel mismatch: src %v, buf %v, dst %v", srcType, bufType, dstType)
	}
	if !rowBorder.Valid() || !columnBorder.Valid() {
		return core.Errorf(core.CodeBadArg, "invalid border types %v, %v", rowBorder, columnBorder)
	}

	var ksize core.Size
	var anchor core.Point
	if separable {
		if err := checkDepths(rowFilter, srcType, bufType); err != nil {
			return err
		}
		if err := checkDepths(columnFilter, bufType, dstType); err != nil {
			return err
		}
		ksize = core.Size{Width: rowFilter.KSize(), Height: columnFilter.KSize()}
		anchor = core.Point{X: rowFilter.Anchor(), Y: columnFilter.Anchor()}
	} else {
		if err := checkDepths(f2d, srcType, dstType); err != nil {
			return err
		}
		ksize = f2d.KSize()
		anchor = f2d.Anchor()
	}
	if ksize.Width < 1 || ksize.Height < 1 ||
		anchor.X < 0 || anchor.X >= ksize.Width || anchor.Y < 0 || anchor.Y >= ksize.Height {
		return core.Errorf(core.CodeBadArg, "anchor %v outside kernel %v", anchor, ksize)
	}

	isolated := rowBorder.Isolated() || columnBorder.Isolated()
	rowBorder, columnBorder = rowBorder.Base(), columnBorder.Base()
	if (ksize.Width > 1 && rowBorder == BorderTransparent) ||
		(ksize.Height > 1 && (columnBorder == BorderTransparent || columnBorder == BorderWrap)) {
		return core.Errorf(core.CodeUnsupportedFormat, "border %v/%v with kernel %v", rowBorder, columnBorder, ksize)
	}

	*e = FilterEngine{
		state:            stateInitialized,
		srcType:          srcType,
		dstType:          dstType,
		bufType:          bufType,
		ksize:            ksize,
		anchor:           anchor,
		rowBorder:        rowBorder,
		columnBorder:     columnBorder,
		isolated:         isolated,
		borderValue:      borderValue,
		constBorderValue: core.ScalarToBytes(borderValue, srcType),
		rowFilter:        rowFilter,
		columnFilter:     columnFilter,
		filter2D:         f2d,
	}
	if !separable {
		e.rowFilter, e.columnFilter = nil, nil
	}
	return nil
}

// checkDepths validates a built-in stage against the engine's depths.
// Stages of other types are trusted.
func checkDepths(stage any, in, out core.ElemType) error {
	ts, ok := stage.(typedStage)
	if !ok {
		return nil
	}
	sin, sout := ts.depths()
	if sin != in.Depth() || sout != out.Depth() {
		return core.Errorf(core.CodeUnsupportedFormat,
			"stage %v -> %v does not fit %v -> %v", sin, sout, in.Depth(), out.Depth())
	}
	return nil
}

// IsSeparable reports whether the engine runs a row/column pair.
func (e *FilterEngine) IsSeparable() bool { return e.filter2D == nil }

// Isolated reports whether ApplyMat treats its source as the whole image.
func (e *FilterEngine) Isolated() bool { return e.isolated }

// KSize returns the kernel size.
func (e *FilterEngine) KSize() core.Size { return e.ksize }

// Anchor returns the kernel anchor.
func (e *FilterEngine) Anchor() core.Point { return e.anchor }

// SrcType returns the source element type.
func (e *FilterEngine) SrcType() core.ElemType { return e.srcType }

// DstType returns the destination element type.
func (e *FilterEngine) DstType() core.ElemType { return e.dstType }

// BufType returns the element type held in the ring buffer.
func (e *FilterEngine) BufType() core.ElemType { return e.bufType }

// StartY returns the first source row the current run reads.
func (e *FilterEngine) StartY() int { return e.startY0 }

// EndY returns one past the last source row the current run reads.
func (e *FilterEngine) EndY() int { return e.endY }

// RemainingInputRows returns how many source rows Proceed still expects.
func (e *FilterEngine) RemainingInputRows() int {
	return e.endY - e.startY - e.rowCount
}

// RemainingOutputRows returns how many destination rows are still to come.
func (e *FilterEngine) RemainingOutputRows() int {
	return e.roi.Height - e.dstY
}

// Start prepares a run over roi, a rectangle of an image of wholeSize. It
// returns the first source row the caller must feed to Proceed. Pixels of
// the whole image outside roi are read when the kernel reaches them.
//
// Start panics if the engine is uninitialized or roi is empty or not
// inside wholeSize.
func (e *FilterEngine) Start(wholeSize core.Size, roi core.Rect) int {
	if e.state == stateUninitialized {
		panic(core.Errorf(core.CodeBadState, "Start on an uninitialized FilterEngine"))
	}
	core.Assert(!wholeSize.Empty() && !roi.Empty() && roi.Within(wholeSize),
		"roi %v must be non-empty and inside %v", roi, wholeSize)

	kw, kh := e.ksize.Width, e.ksize.Height
	ax, ay := e.anchor.X, e.anchor.Y
	esz := e.srcType.ElemSize()
	bufEsz := e.bufType.ElemSize()
	cn := e.srcType.Channels()
	width1 := roi.Width + kw - 1

	e.wholeSize, e.roi = wholeSize, roi
	e.dx1 = max(ax-roi.X, 0)
	e.dx2 = max(kw-ax-1+roi.X+roi.Width-wholeSize.Width, 0)

	var widened bool
	e.startY, e.endY, widened = e.sourceRows(wholeSize, roi)
	e.bufRows = max(kh+3, 2*max(ay, kh-ay-1)+1)
	if widened {
		// Reflected taps may reach back to the first row fed; keep them all.
		e.bufRows = max(e.bufRows, e.endY-e.startY)
	}
	e.bufStep = bufEsz * roi.Width
	if !e.IsSeparable() {
		e.bufStep = bufEsz * width1
	}
	e.ringBuf = grow(e.ringBuf, e.bufStep*e.bufRows)
	if cap(e.rows) < e.bufRows {
		e.rows = make([][]byte, e.bufRows)
	}
	e.rows = e.rows[:e.bufRows]
	if e.IsSeparable() {
		e.srcRow = grow(e.srcRow, esz*width1)
	}

	if e.columnBorder == BorderConstant {
		e.constBorderRow = grow(e.constBorderRow, bufEsz*width1)
		if e.IsSeparable() {
			fillPattern(e.srcRow, e.constBorderValue)
			e.rowFilter.Apply(e.srcRow, e.constBorderRow, roi.Width, cn)
		} else {
			fillPattern(e.constBorderRow, e.constBorderValue)
		}
	}

	if e.rowBorder == BorderConstant && (e.dx1 > 0 || e.dx2 > 0) {
		halo := func(row []byte) {
			fillPattern(row[:e.dx1*esz], e.constBorderValue)
			fillPattern(row[(width1-e.dx2)*esz:width1*esz], e.constBorderValue)
		}
		if e.IsSeparable() {
			halo(e.srcRow)
		} else {
			for i := range e.bufRows {
				halo(e.ringBuf[i*e.bufStep : (i+1)*e.bufStep])
			}
		}
	}

	// Byte offsets, from the start of a whole-image row, of the pixels that
	// fill the left and right halo.
	e.borderTab = e.borderTab[:0]
	if e.rowBorder != BorderConstant {
		for i := range e.dx1 {
			p := BorderInterpolate(i-e.dx1, wholeSize.Width, e.rowBorder) * esz
			for j := range esz {
				e.borderTab = append(e.borderTab, p+j)
			}
		}
		for i := range e.dx2 {
			p := BorderInterpolate(wholeSize.Width+i, wholeSize.Width, e.rowBorder) * esz
			for j := range esz {
				e.borderTab = append(e.borderTab, p+j)
			}
		}
	}

	e.rowCount, e.dstY = 0, 0
	e.startY0 = e.startY
	if e.IsSeparable() {
		e.columnFilter.Reset()
	} else {
		e.filter2D.Reset()
	}
	e.state = stateStreaming

	core.Logger().Debug("filter: engine start",
		"roi", roi, "whole", wholeSize, "ksize", e.ksize,
		"ring_rows", e.bufRows, "ring_step", e.bufStep, "start_y", e.startY, "end_y", e.endY)
	return e.startY
}

// sourceRows returns the range of whole-image rows a run over roi reads:
// the rows the kernel slides over, widened by the rows the column border
// maps taps outside the image to. widened reports whether the border added
// rows.
func (e *FilterEngine) sourceRows(wholeSize core.Size, roi core.Rect) (startY, endY int, widened bool) {
	kh, ay := e.ksize.Height, e.anchor.Y
	first, last := roi.Y-ay, roi.Y+roi.Height+kh-ay-1
	startY, endY = max(first, 0), min(last, wholeSize.Height)
	if e.columnBorder == BorderConstant {
		return startY, endY, false
	}
	slideStart, slideEnd := startY, endY
	widen := func(v int) {
		y := BorderInterpolate(v, wholeSize.Height, e.columnBorder)
		startY, endY = min(startY, y), max(endY, y+1)
	}
	for v := first; v < min(0, last); v++ {
		widen(v)
	}
	for v := max(wholeSize.Height, first); v < last; v++ {
		widen(v)
	}
	return startY, endY, startY < slideStart || endY > slideEnd
}

// Proceed feeds up to count source rows and writes every destination row
// that becomes computable. It returns the number of destination rows written.
//
// src holds the next source row to feed, starting at column 0 of the whole
// image, followed by further rows every srcStep bytes. dst receives the next
// destination row, followed by further rows every dstStep bytes. Rows beyond
// RemainingInputRows are ignored.
//
// Proceed panics unless the engine is streaming.
func (e *FilterEngine) Proceed(src []byte, srcStep, count int, dst []byte, dstStep int) int {
	if e.state != stateStreaming {
		panic(core.Errorf(core.CodeBadState, "Proceed outside a run (state %d)", e.state))
	}

	kw, kh := e.ksize.Width, e.ksize.Height
	ax, ay := e.anchor.X, e.anchor.Y
	esz := e.srcType.ElemSize()
	cn := e.srcType.Channels()
	roi := e.roi
	bufRows := e.bufRows
	width1 := roi.Width + kw - 1
	xofs1 := min(roi.X, ax)
	srcOfs := (roi.X - xofs1) * esz
	inner := width1 - e.dx1 - e.dx2
	leftTab := e.borderTab[:min(len(e.borderTab), e.dx1*esz)]
	rightTab := e.borderTab[len(leftTab):]
	rightOfs := (width1 - e.dx2) * esz

	count = min(count, e.RemainingInputRows())
	dy := 0
	dstOfs := 0

	for {
		dcount := bufRows - ay - e.startY - e.rowCount + roi.Y
		if dcount <= 0 {
			dcount = bufRows - kh + 1
		}
		dcount = min(dcount, count)
		count -= dcount

		for ; dcount > 0; dcount-- {
			bi := (e.startY - e.startY0 + e.rowCount) % bufRows
			brow := e.ringBuf[bi*e.bufStep : (bi+1)*e.bufStep]
			row := brow
			if e.IsSeparable() {
				row = e.srcRow
			}

			e.rowCount++
			if e.rowCount > bufRows {
				e.rowCount--
				e.startY++
			}

			s := src
			copy(row[e.dx1*esz:(e.dx1+inner)*esz], s[srcOfs:srcOfs+inner*esz])
			for i, o := range leftTab {
				row[i] = s[o]
			}
			for i, o := range rightTab {
				row[rightOfs+i] = s[o]
			}

			if e.IsSeparable() {
				e.rowFilter.Apply(row, brow, roi.Width, cn)
			}
			if dcount > 1 || count > 0 {
				src = src[srcStep:]
			}
		}

		maxI := min(bufRows, roi.Height-(e.dstY+dy)+kh-1)
		i := 0
		for ; i < maxI; i++ {
			srcY := BorderInterpolate(e.dstY+dy+i+roi.Y-ay, e.wholeSize.Height, e.columnBorder)
			if srcY < 0 {
				e.rows[i] = e.constBorderRow
				continue
			}
			core.Assert(srcY >= e.startY, "source row %d already left the ring (start %d)", srcY, e.startY)
			if srcY >= e.startY+e.rowCount {
				break
			}
			bi := (srcY - e.startY0) % bufRows
			e.rows[i] = e.ringBuf[bi*e.bufStep : (bi+1)*e.bufStep]
		}
		if i < kh {
			break
		}
		i -= kh - 1

		window := e.rows[:i+kh-1]
		if e.IsSeparable() {
			e.columnFilter.Apply(window, dst[dstOfs:], dstStep, i, roi.Width*cn)
		} else {
			e.filter2D.Apply(window, dst[dstOfs:], dstStep, i, roi.Width, cn)
		}
		dy += i
		if e.dstY+dy < roi.Height {
			dstOfs += dstStep * i
		}
	}

	e.dstY += dy
	core.Assert(e.dstY <= roi.Height, "produced %d rows for a %d-row roi", e.dstY, roi.Height)
	if e.dstY == roi.Height {
		e.state = stateDone
	}
	return dy
}

// Apply filters src, the rectangle at ofs of an image of wholeSize that
// shares src's row step, into dst. dst is (re)created with src's size and
// the destination type and must not share bytes with src. The kernel may
// read pixels of the whole image around src; wholeSize and ofs are used as
// given, so callers wanting BorderIsolated semantics pass src's own size.
func (e *FilterEngine) Apply(src, dst *core.Mat, wholeSize core.Size, ofs core.Point) error {
	if e.state == stateUninitialized {
		panic(core.Errorf(core.CodeBadState, "Apply on an uninitialized FilterEngine"))
	}
	if src == nil || dst == nil || src.Dims() != 2 || src.Empty() {
		return core.Errorf(core.CodeBadArg, "need a non-empty 2D source and a destination")
	}
	if src.Type() != e.srcType {
		return core.Errorf(core.CodeUnsupportedFormat, "source type %v, engine expects %v", src.Type(), e.srcType)
	}
	if src.Overlaps(dst) {
		return core.Errorf(core.CodeBadArg, "source and destination overlap")
	}
	if err := dst.Create(src.Rows(), src.Cols(), e.dstType); err != nil {
		return err
	}

	roi := core.Rect{X: ofs.X, Y: ofs.Y, Width: src.Cols(), Height: src.Rows()}
	y := e.Start(wholeSize, roi)

	step := src.Step(0)
	start := src.Offset() + (y-ofs.Y)*step - ofs.X*src.ElemSize()
	core.Assert(start >= 0, "whole image %v at %v extends before the source buffer", wholeSize, ofs)

	e.Proceed(src.Datastart()[start:], step, e.EndY()-y, dst.Data(), dst.Step(0))
	core.Assert(e.state == stateDone, "run ended with %d rows missing", e.RemainingOutputRows())
	return nil
}

// ApplyMat filters src into dst, reading neighbors from the whole image src
// is a view of unless the border is isolated. dst may alias src: the source
// image is then copied first.
func (e *FilterEngine) ApplyMat(src, dst *core.Mat) error {
	if src == nil || dst == nil || src.Dims() != 2 {
		return core.Errorf(core.CodeBadArg, "need a 2D source and a destination")
	}
	in, whole, ofs, err := e.detach(src, dst)
	if err != nil {
		return err
	}
	defer in.Release()
	return e.Apply(in, dst, whole, ofs)
}

// detach locates src inside its whole image and, when dst shares src's
// bytes, returns a view into a private copy of that image. The returned Mat
// is a new reference the caller releases.
func (e *FilterEngine) detach(src, dst *core.Mat) (*core.Mat, core.Size, core.Point, error) {
	whole, ofs := src.Size(), core.Point{}
	if !e.isolated {
		whole, ofs = src.LocateROI()
	}
	if !src.Overlaps(dst) {
		return src.Ref(), whole, ofs, nil
	}

	var full *core.Mat
	if e.isolated {
		full = src.Ref()
	} else {
		full = src.AdjustROI(ofs.Y, whole.Height-ofs.Y-src.Rows(), ofs.X, whole.Width-ofs.X-src.Cols())
	}
	defer full.Release()

	cp, err := full.Clone()
	if err != nil {
		return nil, core.Size{}, core.Point{}, err
	}
	defer cp.Release()
	return cp.Region(core.Rect{X: ofs.X, Y: ofs.Y, Width: src.Cols(), Height: src.Rows()}), whole, ofs, nil
}

// grow returns b resized to n bytes, reusing its array when large enough.
func grow(b []byte, n int) []byte {
	if cap(b) < n {
		return make([]byte, n)
	}
	return b[:n]
}

// fillPattern tiles pattern over dst.
func fillPattern(dst, pattern []byte) {
	if len(dst) == 0 || len(pattern) == 0 {
		return
	}
	n := copy(dst, pattern)
	for n < len(dst) {
		n += copy(dst[n:], dst[:n])
	}
}
