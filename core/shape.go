package core

import "slices"

// Shape describes the layout of an N-dimensional strided array: extents per
// axis and the byte stride between consecutive elements along each axis.
type Shape struct {
	Size []int
	Step []int
}

// Dims returns the number of axes.
func (s Shape) Dims() int {
	return len(s.Size)
}

// Clone returns a deep copy.
func (s Shape) Clone() Shape {
	return Shape{Size: slices.Clone(s.Size), Step: slices.Clone(s.Step)}
}

// Total returns the number of elements (product of sizes). Zero axes yield 0.
func (s Shape) Total() int {
	if len(s.Size) == 0 {
		return 0
	}
	n := 1
	for _, sz := range s.Size {
		n *= sz
	}
	return n
}

// Equal reports whether both shapes have identical sizes (steps are ignored).
func (s Shape) Equal(o Shape) bool {
	return slices.Equal(s.Size, o.Size)
}

// ContinuousSteps returns tightly packed row-major byte strides.
func ContinuousSteps(sizes []int, elemSize int) []int {
	steps := make([]int, len(sizes))
	if len(sizes) == 0 {
		return steps
	}
	steps[len(sizes)-1] = elemSize
	for i := len(sizes) - 2; i >= 0; i-- {
		steps[i] = steps[i+1] * sizes[i+1]
	}
	return steps
}

// Validate checks sizes against steps for element size esz. Steps may exceed
// the tight packing (padded rows, ROI views) but never undercut it.
func (s Shape) Validate(esz int) error {
	if len(s.Size) != len(s.Step) {
		return Errorf(CodeBadArg, "%d sizes but %d steps", len(s.Size), len(s.Step))
	}
	if len(s.Size) == 0 {
		return Errorf(CodeBadArg, "zero dimensions")
	}
	for i, sz := range s.Size {
		if sz < 0 {
			return Errorf(CodeBadArg, "negative size %d on axis %d", sz, i)
		}
	}
	last := len(s.Size) - 1
	if s.Step[last] < esz {
		return Errorf(CodeBadArg, "innermost step %d below element size %d", s.Step[last], esz)
	}
	for i := last - 1; i >= 0; i-- {
		if s.Size[i] > 1 && s.Step[i] < s.Step[i+1]*s.Size[i+1] {
			return Errorf(CodeBadArg, "step %d on axis %d overlaps axis %d", s.Step[i], i, i+1)
		}
	}
	return nil
}

// IsContinuous reports whether the layout has no gaps: leading unit axes are
// ignored, the innermost step equals esz and each outer step equals the
// packed size of the axes inside it.
func (s Shape) IsContinuous(esz int) bool {
	dims := len(s.Size)
	if dims == 0 {
		return true
	}
	i := 0
	for i < dims-1 && s.Size[i] <= 1 {
		i++
	}
	if s.Step[dims-1] != esz {
		return false
	}
	for j := dims - 1; j > i; j-- {
		if s.Step[j-1] != s.Step[j]*s.Size[j] {
			return false
		}
	}
	return true
}
