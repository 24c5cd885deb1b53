package parallel

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// Executor runs disjoint stripes of an index range concurrently.
type Executor interface {
	ForRange(ctx context.Context, start, end, nstripes int, body func(start, end int) error) error
	Workers() int
}

// Stripe is a half-open index range [Start, End).
type Stripe struct {
	Start, End int
}

// Split divides [start, end) into min(nstripes, end-start) contiguous
// stripes whose lengths differ by at most one. It returns nil for an empty
// range; a non-positive nstripes yields one stripe.
func Split(start, end, nstripes int) []Stripe {
	n := end - start
	if n <= 0 {
		return nil
	}
	nstripes = min(max(nstripes, 1), n)

	out := make([]Stripe, nstripes)
	base, extra := n/nstripes, n%nstripes
	pos := start
	for i := range out {
		size := base
		if i < extra {
			size++
		}
		out[i] = Stripe{Start: pos, End: pos + size}
		pos += size
	}
	return out
}

// Group runs stripes on short-lived goroutines, at most Limit at a time.
// A non-positive Limit uses GOMAXPROCS. The zero Group is ready to use.
type Group struct {
	Limit int
}

// Workers returns the concurrency limit.
func (g Group) Workers() int {
	if g.Limit <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return g.Limit
}

// ForRange runs body over the stripes of [start, end). The first error
// cancels the context seen by stripes not yet started and is returned.
func (g Group) ForRange(ctx context.Context, start, end, nstripes int, body func(start, end int) error) error {
	stripes := Split(start, end, nstripes)
	if len(stripes) <= 1 {
		if err := ctx.Err(); err != nil || len(stripes) == 0 {
			return err
		}
		return body(stripes[0].Start, stripes[0].End)
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.Workers())
	for _, s := range stripes {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return body(s.Start, s.End)
		})
	}
	return eg.Wait()
}

// Sequential runs every stripe on the calling goroutine, in order.
type Sequential struct{}

// Workers returns 1.
func (Sequential) Workers() int { return 1 }

// ForRange runs body over the stripes of [start, end) one after another.
// It stops at the first error, or before a stripe once ctx is done.
func (Sequential) ForRange(ctx context.Context, start, end, nstripes int, body func(start, end int) error) error {
	for _, s := range Split(start, end, nstripes) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := body(s.Start, s.End); err != nil {
			return err
		}
	}
	return nil
}

// Process-wide executor, replaceable until first use.
var (
	defaultMu     sync.Mutex
	defaultExec   Executor = Group{}
	defaultFrozen atomic.Bool
)

// Default returns the process-wide executor. The first call freezes it.
func Default() Executor {
	if defaultFrozen.Load() {
		return defaultExec
	}
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultFrozen.Store(true)
	return defaultExec
}

// Frozen reports whether Default has been called, after which SetDefault
// fails.
func Frozen() bool {
	return defaultFrozen.Load()
}

// SetDefault installs the process-wide executor. It reports false, leaving
// the executor unchanged, once Default has been called.
func SetDefault(e Executor) bool {
	if e == nil {
		return false
	}
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultFrozen.Load() {
		return false
	}
	defaultExec = e
	return true
}

// ForThreads returns the executor for a thread count: Sequential for 1, a
// WorkerPool of n workers above that, and a GOMAXPROCS Group when n <= 0.
// A returned pool runs until closed; Release closes it when it is not
// installed.
func ForThreads(n int) Executor {
	switch {
	case n == 1:
		return Sequential{}
	case n > 1:
		return NewWorkerPool(n)
	}
	return Group{}
}

// Release stops e's goroutines if it owns any.
func Release(e Executor) {
	if p, ok := e.(*WorkerPool); ok {
		p.Close()
	}
}
