package core

// view returns a header over the same bytes with the given extents and offset.
// The storage gains a reference.
func (m *Mat) view(sizes []int, off int) *Mat {
	v := &Mat{
		typ:       m.typ,
		shape:     Shape{Size: sizes, Step: append([]int(nil), m.shape.Step...)},
		buf:       m.buf,
		off:       off,
		storage:   m.storage,
		allocator: m.allocator,
		flags:     m.flags & flagSubmatrix,
	}
	for i, sz := range sizes {
		if sz != m.shape.Size[i] {
			v.flags |= flagSubmatrix
			break
		}
	}
	if v.Total() == 0 {
		v.buf = nil
		v.off = 0
		v.storage = nil
	}
	v.updateContinuity()
	if v.storage != nil {
		v.storage.AddRef()
	}
	return v
}

// RowRange returns a view of rows [start, end). Panics when the range is
// outside [0, Rows()].
func (m *Mat) RowRange(start, end int) *Mat {
	if m.Dims() == 0 || start < 0 || end < start || end > m.shape.Size[0] {
		panic(Errorf(CodeOutOfRange, "row range [%d, %d) outside %d rows", start, end, m.Rows()))
	}
	sizes := append([]int(nil), m.shape.Size...)
	sizes[0] = end - start
	return m.view(sizes, m.off+start*m.shape.Step[0])
}

// ColRange returns a view of columns [start, end) of a 2D Mat.
func (m *Mat) ColRange(start, end int) *Mat {
	if m.Dims() != 2 || start < 0 || end < start || end > m.shape.Size[1] {
		panic(Errorf(CodeOutOfRange, "column range [%d, %d) outside %d columns", start, end, m.Cols()))
	}
	sizes := []int{m.shape.Size[0], end - start}
	return m.view(sizes, m.off+start*m.ElemSize())
}

// Row returns a view of row y.
func (m *Mat) Row(y int) *Mat {
	return m.RowRange(y, y+1)
}

// Col returns a view of column x.
func (m *Mat) Col(x int) *Mat {
	return m.ColRange(x, x+1)
}

// Region returns a view of the rectangle r of a 2D Mat. The view's data
// starts r.Y*step[0] + r.X*elemSize bytes past m's.
func (m *Mat) Region(r Rect) *Mat {
	if m.Dims() != 2 || !r.Within(m.Size()) {
		panic(Errorf(CodeOutOfRange, "region %v outside %v", r, m.Size()))
	}
	off := m.off + r.Y*m.shape.Step[0] + r.X*m.ElemSize()
	return m.view([]int{r.Height, r.Width}, off)
}

// LocateROI reports the size of the whole 2D array m is a view of, and
// the position of m's top-left element inside it.
func (m *Mat) LocateROI() (whole Size, ofs Point) {
	if m.Dims() != 2 {
		panic(Errorf(CodeBadArg, "LocateROI needs a 2D Mat, have %d dims", m.Dims()))
	}
	if m.Empty() {
		return m.Size(), Point{}
	}
	esz := m.ElemSize()
	step := m.shape.Step[0]
	rows, cols := m.shape.Size[0], m.shape.Size[1]
	delta1 := m.off
	delta2 := len(m.buf)

	if delta1 != 0 {
		ofs.Y = delta1 / step
		ofs.X = (delta1 - step*ofs.Y) / esz
	}
	minStep := (ofs.X + cols) * esz
	whole.Height = (delta2-minStep)/step + 1
	whole.Height = max(whole.Height, ofs.Y+rows)
	whole.Width = (delta2 - step*(whole.Height-1)) / esz
	whole.Width = max(whole.Width, ofs.X+cols)
	return whole, ofs
}

// AdjustROI returns a view of the whole array grown (or shrunk, for negative
// values) by the given number of rows and columns on each side, clipped to
// the whole array.
func (m *Mat) AdjustROI(top, bottom, left, right int) *Mat {
	whole, ofs := m.LocateROI()
	row1 := min(max(ofs.Y-top, 0), whole.Height)
	row2 := max(0, min(ofs.Y+m.Rows()+bottom, whole.Height))
	col1 := min(max(ofs.X-left, 0), whole.Width)
	col2 := max(0, min(ofs.X+m.Cols()+right, whole.Width))
	if row1 > row2 {
		row1, row2 = row2, row1
	}
	if col1 > col2 {
		col1, col2 = col2, col1
	}
	off := m.off + (row1-ofs.Y)*m.shape.Step[0] + (col1-ofs.X)*m.ElemSize()
	v := m.view([]int{row2 - row1, col2 - col1}, off)
	if v.Rows() == whole.Height && v.Cols() == whole.Width {
		v.flags &^= flagSubmatrix
	} else {
		v.flags |= flagSubmatrix
	}
	return v
}
