package filter

import (
	"context"

	"github.com/openhl/openhl/core"
	"github.com/openhl/openhl/internal/parallel"
)

// SameDepth as a destination depth keeps the source depth.
const SameDepth core.Depth = 255

// Executor runs disjoint stripes of a row range, possibly concurrently.
// body may be called from several goroutines at once.
type Executor interface {
	ForRange(ctx context.Context, start, end, nstripes int, body func(start, end int) error) error
	Workers() int
}

// Option configures a high-level filter call.
//
// Example:
//
//	err := filter.GaussianBlur(src, dst, core.Size{Width: 5, Height: 5}, 0, 0,
//	    filter.WithBorder(filter.BorderReplicate),
//	    filter.WithBands(4))
type Option func(*options)

type options struct {
	border      BorderType
	borderSet   bool
	borderValue core.Scalar
	valueSet    bool
	anchor      core.Point
	delta       float64
	normalize   bool
	bands       int
	exec        Executor
	ctx         context.Context
}

func defaultOptions() options {
	return options{
		border:    BorderDefault,
		anchor:    core.Point{X: -1, Y: -1},
		normalize: true,
		ctx:       context.Background(),
	}
}

func applyOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.exec == nil {
		o.exec = parallel.Default()
	}
	return o
}

// WithBorder sets the border policy for both axes. BorderIsolated may be
// combined with any policy. The default is BorderDefault, or BorderConstant
// for Erode and Dilate.
func WithBorder(b BorderType) Option {
	return func(o *options) {
		o.border = b
		o.borderSet = true
	}
}

// WithBorderValue sets the value used by BorderConstant.
func WithBorderValue(v core.Scalar) Option {
	return func(o *options) {
		o.borderValue = v
		o.valueSet = true
	}
}

// WithAnchor sets the kernel anchor. A negative coordinate selects the center.
func WithAnchor(p core.Point) Option {
	return func(o *options) {
		o.anchor = p
	}
}

// WithDelta adds delta to every output of a linear filter.
func WithDelta(delta float64) Option {
	return func(o *options) {
		o.delta = delta
	}
}

// WithNormalize selects whether BoxFilter divides by the kernel area.
// The default is true.
func WithNormalize(on bool) Option {
	return func(o *options) {
		o.normalize = on
	}
}

// WithBands sets the number of row bands processed concurrently. Zero, the
// default, picks one band per executor worker for images tall enough.
func WithBands(n int) Option {
	return func(o *options) {
		o.bands = max(n, 0)
	}
}

// WithExecutor runs the bands on e instead of the process-wide executor.
func WithExecutor(e Executor) Option {
	return func(o *options) {
		o.exec = e
	}
}

// WithContext lets ctx cancel a call between bands.
func WithContext(ctx context.Context) Option {
	return func(o *options) {
		if ctx != nil {
			o.ctx = ctx
		}
	}
}
