// Package parallel runs disjoint stripes of a row range concurrently.
//
// Filters split their destination into row bands and hand each band to an
// Executor. Three executors are provided:
//   - Group: short-lived goroutines coordinated by errgroup, the default
//   - WorkerPool: persistent goroutines with per-worker queues and stealing,
//     installed by ForThreads for more than one thread
//   - Sequential: the calling goroutine only
//
// The process-wide executor returned by Default can be replaced with
// SetDefault until it is first used.
package parallel
