package filter

import "github.com/openhl/openhl/core"

// RowFilter is the horizontal pass of a separable filter.
//
// Apply reads (width+KSize()-1)*cn source values starting at src, where
// src[0] is the leftmost kernel tap for output 0, and writes width*cn values
// of the buffer type to dst.
type RowFilter interface {
	KSize() int
	Anchor() int
	Apply(src, dst []byte, width, cn int)
}

// ColumnFilter is the vertical pass of a separable filter.
//
// Apply produces count output rows. Output row i is computed from the
// buffered rows src[i : i+KSize()] and written at dst[i*dstStep:]. width is
// the number of values per row (pixels times channels). Reset clears any
// state carried between calls; it is called by FilterEngine.Start.
type ColumnFilter interface {
	KSize() int
	Anchor() int
	Apply(src [][]byte, dst []byte, dstStep, count, width int)
	Reset()
}

// Filter2D is a non-separable filter over a 2D neighborhood.
//
// Apply produces count output rows like ColumnFilter, from source rows that
// each hold (width+KSize().Width-1)*cn values including the horizontal border.
type Filter2D interface {
	KSize() core.Size
	Anchor() core.Point
	Apply(src [][]byte, dst []byte, dstStep, count, width, cn int)
	Reset()
}

// typedStage is implemented by the built-in stages so FilterEngine can
// check depth compatibility when it is built.
type typedStage interface {
	depths() (in, out core.Depth)
}

// normalizeAnchor resolves a negative anchor to the kernel center and checks
// that it lies inside [0, ksize).
func normalizeAnchor(anchor, ksize int) (int, error) {
	if ksize < 1 {
		return 0, core.Errorf(core.CodeBadArg, "kernel size %d", ksize)
	}
	if anchor < 0 {
		anchor = ksize / 2
	}
	if anchor >= ksize {
		return 0, core.Errorf(core.CodeBadArg, "anchor %d outside kernel of size %d", anchor, ksize)
	}
	return anchor, nil
}

// castRows reinterprets every row of src as []T into dst, reusing dst's backing array.
func castRows[T core.Number](dst [][]T, src [][]byte) [][]T {
	dst = dst[:0]
	for _, r := range src {
		dst = append(dst, core.Cast[T](r))
	}
	return dst
}
