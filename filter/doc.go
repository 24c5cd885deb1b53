// Package filter implements neighborhood image filters over core.Mat.
//
// # Engine
//
// FilterEngine streams an image one source row at a time through either a
// separable pair of stages (RowFilter, then ColumnFilter) or a fused
// Filter2D. Rows pass through a ring buffer a few kernel heights tall, so
// memory stays proportional to the image width, and pixels outside the
// image are synthesized from tables built once per Start:
//
//	e, _ := filter.CreateBoxFilter(core.U8C1, core.U8C1, core.Size{Width: 5, Height: 5},
//	    core.Point{X: -1, Y: -1}, true, filter.BorderReflect101)
//	y := e.Start(whole, roi)
//	for y < e.EndY() {
//	    n := e.Proceed(srcRows(y), step, chunk, dstRows, dstStep)
//	    ...
//	}
//
// Apply and ApplyMat run the whole sequence for a Mat. A view into a larger
// image reads its neighbors from that image unless BorderIsolated is set.
//
// # Stages
//
// Built-in stages cover linear convolution (float buffers, and 8-bit fixed
// point for smoothing kernels), rolling box sums, fused 2D correlation, and
// rectangular erosion and dilation. Each factory rejects unsupported depth
// combinations with core.ErrUnsupportedFormat when it is called. Float32
// column passes handle eight columns per step while core.UseOptimized is on.
//
// # High-level filters
//
// BoxFilter, Blur, SepFilter2D, LinearFilter, GaussianBlur, Erode and Dilate
// split the destination into row bands filtered concurrently, one engine per
// band. Results do not depend on the band count.
package filter
