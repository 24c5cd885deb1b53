package openhl

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/openhl/openhl/core"
	"github.com/openhl/openhl/internal/parallel"
)

// ErrThreadsFrozen is returned by Setup when the worker count is set after
// the first parallel filter has already run.
var ErrThreadsFrozen = errors.New("openhl: thread count already in use")

// Option configures process-wide behavior through Setup.
type Option func(*config)

type config struct {
	logger    *slog.Logger
	loggerSet bool
	allocator core.Allocator
	threads   int
}

// WithLogger routes log output of all packages to l. Nil silences logging.
// Unlike the other options it may be applied any number of times.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		c.logger = l
		c.loggerSet = true
	}
}

// WithAllocator sets the default allocator for Mats created without one.
func WithAllocator(a core.Allocator) Option {
	return func(c *config) {
		c.allocator = a
	}
}

// WithNumThreads bounds how many row bands the high-level filters run at
// once. 1 runs everything on the calling goroutine, n > 1 starts a pool of
// n persistent workers, and 0 keeps GOMAXPROCS short-lived goroutines.
func WithNumThreads(n int) Option {
	return func(c *config) {
		c.threads = n
	}
}

// Setup applies process-wide configuration. Call it once at startup, before
// creating Mats or running filters: the allocator and the thread count are
// frozen by their first use and later attempts to change them fail with
// core.ErrAllocatorFrozen or ErrThreadsFrozen.
//
// Options are validated, and the frozen settings checked, before anything
// is applied: a failed Setup changes nothing.
//
// Example:
//
//	err := openhl.Setup(
//	    openhl.WithLogger(slog.New(slog.NewTextHandler(os.Stderr, nil))),
//	    openhl.WithAllocator(core.NewPoolAllocator(8)),
//	    openhl.WithNumThreads(4),
//	)
func Setup(opts ...Option) error {
	var c config
	for _, opt := range opts {
		opt(&c)
	}
	if c.threads < 0 {
		return fmt.Errorf("openhl: setup: %w", core.Errorf(core.CodeBadArg, "negative thread count %d", c.threads))
	}
	if c.allocator != nil && core.DefaultAllocatorFrozen() {
		return fmt.Errorf("openhl: setup: %w", core.ErrAllocatorFrozen)
	}
	if c.threads > 0 && parallel.Frozen() {
		return ErrThreadsFrozen
	}

	if c.allocator != nil {
		if err := core.SetDefaultAllocator(c.allocator); err != nil {
			return fmt.Errorf("openhl: setup: %w", err)
		}
	}
	if c.threads > 0 {
		exec := parallel.ForThreads(c.threads)
		if !parallel.SetDefault(exec) {
			parallel.Release(exec)
			return ErrThreadsFrozen
		}
	}
	if c.loggerSet {
		core.SetLogger(c.logger)
	}
	core.Logger().Debug("openhl: setup", "threads", c.threads, "allocator", c.allocator != nil)
	return nil
}

// NumThreads reports how many bands the high-level filters run at once.
// It freezes the thread count.
func NumThreads() int {
	return parallel.Default().Workers()
}
