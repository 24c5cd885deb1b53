package parallel

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
)

// WorkerPool runs stripes of a range on a fixed set of goroutines.
//
// Each worker owns a queue; an idle worker steals from the others, which
// keeps workers busy when some stripes take longer (for example bands near
// a constant border that need no source rows).
//
// Thread safety: WorkerPool is safe for concurrent use. Do not call
// ForRange or ExecuteAll from inside a task of the same pool.
type WorkerPool struct {
	workers    int
	workQueues []chan func()
	done       chan struct{}
	wg         sync.WaitGroup
	running    atomic.Bool
}

// NewWorkerPool starts a pool with the given number of workers.
// A non-positive count uses GOMAXPROCS.
func NewWorkerPool(workers int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	queueSize := max(workers*4, 8)

	p := &WorkerPool{
		workers:    workers,
		workQueues: make([]chan func(), workers),
		done:       make(chan struct{}),
	}
	for i := range workers {
		p.workQueues[i] = make(chan func(), queueSize)
	}
	p.running.Store(true)

	p.wg.Add(workers)
	for i := range workers {
		go p.worker(i)
	}
	return p
}

func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()
	own := p.workQueues[id]

	for {
		select {
		case <-p.done:
			drain(own)
			return
		case task := <-own:
			run(task)
			continue
		default:
		}

		if task := p.steal(id); task != nil {
			task()
			continue
		}
		select {
		case <-p.done:
			drain(own)
			return
		case task := <-own:
			run(task)
		}
	}
}

func run(task func()) {
	if task != nil {
		task()
	}
}

// drain runs whatever is left in a queue after Close.
func drain(queue chan func()) {
	for {
		select {
		case task := <-queue:
			run(task)
		default:
			return
		}
	}
}

// steal takes one task from another worker's queue, or returns nil.
func (p *WorkerPool) steal(self int) func() {
	for i := range p.workers {
		if i == self {
			continue
		}
		select {
		case task := <-p.workQueues[i]:
			return task
		default:
		}
	}
	return nil
}

// ExecuteAll runs every task and waits for all of them. Tasks are dealt
// round-robin to the worker queues. On a closed pool the tasks run on the
// calling goroutine.
func (p *WorkerPool) ExecuteAll(tasks []func()) {
	if len(tasks) == 0 {
		return
	}
	if !p.running.Load() {
		for _, task := range tasks {
			run(task)
		}
		return
	}

	var wg sync.WaitGroup
	wg.Add(len(tasks))
	for i, task := range tasks {
		wrapped := func() {
			defer wg.Done()
			task()
		}
		select {
		case p.workQueues[i%p.workers] <- wrapped:
		case <-p.done:
			wrapped()
		}
	}
	wg.Wait()
}

// Submit queues one task on the shortest queue without waiting for it.
// It is a no-op on a closed pool.
func (p *WorkerPool) Submit(task func()) {
	if task == nil || !p.running.Load() {
		return
	}
	shortest := 0
	for i := 1; i < p.workers; i++ {
		if len(p.workQueues[i]) < len(p.workQueues[shortest]) {
			shortest = i
		}
	}
	select {
	case p.workQueues[shortest] <- task:
	case <-p.done:
	}
}

// ForRange splits [start, end) into at most nstripes contiguous stripes and
// runs body on each, in parallel. It returns the first error a stripe
// reports; stripes not yet started when an error occurs, or when ctx is
// cancelled, are skipped.
func (p *WorkerPool) ForRange(ctx context.Context, start, end, nstripes int, body func(start, end int) error) error {
	stripes := Split(start, end, nstripes)
	switch len(stripes) {
	case 0:
		return nil
	case 1:
		if err := ctx.Err(); err != nil {
			return err
		}
		return body(stripes[0].Start, stripes[0].End)
	}

	var (
		once     sync.Once
		firstErr error
		failed   atomic.Bool
	)
	fail := func(err error) {
		once.Do(func() {
			firstErr = err
			failed.Store(true)
		})
	}

	tasks := make([]func(), len(stripes))
	for i, s := range stripes {
		tasks[i] = func() {
			if failed.Load() {
				return
			}
			if err := ctx.Err(); err != nil {
				fail(err)
				return
			}
			if err := body(s.Start, s.End); err != nil {
				fail(err)
			}
		}
	}
	p.ExecuteAll(tasks)
	return firstErr
}

// Close stops the pool after the queued tasks have run. It is idempotent.
func (p *WorkerPool) Close() {
	if !p.running.CompareAndSwap(true, false) {
		return
	}
	close(p.done)
	p.wg.Wait()
}

// Workers returns the number of worker goroutines.
func (p *WorkerPool) Workers() int {
	return p.workers
}

// IsRunning reports whether the pool accepts work.
func (p *WorkerPool) IsRunning() bool {
	return p.running.Load()
}
