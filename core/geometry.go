package core

import "fmt"

// Size is a 2D extent in elements.
type Size struct {
	Width  int
	Height int
}

// Area returns Width*Height.
func (s Size) Area() int {
	return s.Width * s.Height
}

// Empty reports whether either dimension is non-positive.
func (s Size) Empty() bool {
	return s.Width <= 0 || s.Height <= 0
}

func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// Point is a 2D integer coordinate.
type Point struct {
	X int
	Y int
}

// Rect is an axis-aligned rectangle with its top-left corner at (X, Y).
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Size returns the rectangle's extent.
func (r Rect) Size() Size {
	return Size{Width: r.Width, Height: r.Height}
}

// Origin returns the top-left corner.
func (r Rect) Origin() Point {
	return Point{X: r.X, Y: r.Y}
}

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Within reports whether r lies entirely inside [0, s.Width) x [0, s.Height).
func (r Rect) Within(s Size) bool {
	return r.X >= 0 && r.Y >= 0 && r.Width >= 0 && r.Height >= 0 &&
		r.X+r.Width <= s.Width && r.Y+r.Height <= s.Height
}

func (r Rect) String() string {
	return fmt.Sprintf("[%dx%d from (%d, %d)]", r.Width, r.Height, r.X, r.Y)
}

// Range is the half-open interval [Start, End).
type Range struct {
	Start int
	End   int
}

// Len returns End-Start.
func (r Range) Len() int {
	return r.End - r.Start
}

// Empty reports whether the range contains no elements.
func (r Range) Empty() bool {
	return r.End <= r.Start
}

// Scalar holds up to four per-channel values, used for fill and border colors.
// Channels beyond the fourth cycle through the four values.
type Scalar [4]float64

// ScalarAll returns a Scalar with every component set to v.
func ScalarAll(v float64) Scalar {
	return Scalar{v, v, v, v}
}

// Channel returns the value for channel c.
func (s Scalar) Channel(c int) float64 {
	return s[c%len(s)]
}
