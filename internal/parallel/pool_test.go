package parallel

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// =============================================================================
// WorkerPool
// =============================================================================

func TestWorkerPool_Create(t *testing.T) {
	pool := NewWorkerPool(4)
	defer pool.Close()

	if pool.Workers() != 4 {
		t.Errorf("Workers() = %d, want 4", pool.Workers())
	}
	if !pool.IsRunning() {
		t.Error("pool should be running after creation")
	}
}

func TestWorkerPool_CreateDefaultWorkers(t *testing.T) {
	for _, n := range []int{0, -5} {
		pool := NewWorkerPool(n)
		if pool.Workers() != runtime.GOMAXPROCS(0) {
			t.Errorf("NewWorkerPool(%d).Workers() = %d, want GOMAXPROCS", n, pool.Workers())
		}
		pool.Close()
	}
}

func TestWorkerPool_ExecuteAll(t *testing.T) {
	pool := NewWorkerPool(4)
	defer pool.Close()

	var mu sync.Mutex
	seen := make(map[int]bool)
	work := make([]func(), 100)
	for i := range work {
		work[i] = func() {
			mu.Lock()
			seen[i] = true
			mu.Unlock()
		}
	}
	pool.ExecuteAll(work)

	if len(seen) != len(work) {
		t.Errorf("ran %d distinct tasks, want %d", len(seen), len(work))
	}
	pool.ExecuteAll(nil)
}

func TestWorkerPool_Submit(t *testing.T) {
	pool := NewWorkerPool(4)
	defer pool.Close()

	var counter atomic.Int64
	const n = 20
	done := make(chan struct{})
	for range n {
		pool.Submit(func() {
			if counter.Add(1) == n {
				close(done)
			}
		})
	}
	pool.Submit(nil)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("timeout waiting for submitted work, counter = %d", counter.Load())
	}
}

func TestWorkerPool_CloseIdempotent(t *testing.T) {
	pool := NewWorkerPool(4)
	pool.Close()
	pool.Close()

	if pool.IsRunning() {
		t.Error("pool should not be running after close")
	}
}

func TestWorkerPool_ExecuteAllAfterCloseRunsInline(t *testing.T) {
	pool := NewWorkerPool(2)
	pool.Close()

	var counter atomic.Int64
	pool.ExecuteAll([]func(){
		func() { counter.Add(1) },
		func() { counter.Add(1) },
	})
	if counter.Load() != 2 {
		t.Errorf("counter = %d, want 2", counter.Load())
	}

	pool.Submit(func() { counter.Add(1) })
	time.Sleep(20 * time.Millisecond)
	if counter.Load() != 2 {
		t.Error("Submit ran work on a closed pool")
	}
}

func TestWorkerPool_Concurrent(t *testing.T) {
	pool := NewWorkerPool(4)
	defer pool.Close()

	var counter atomic.Int64
	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			work := make([]func(), 50)
			for i := range work {
				work[i] = func() { counter.Add(1) }
			}
			pool.ExecuteAll(work)
		}()
	}
	wg.Wait()

	if counter.Load() != 500 {
		t.Errorf("counter = %d, want 500", counter.Load())
	}
}

func TestWorkerPool_NoGoroutineLeak(t *testing.T) {
	runtime.GC()
	time.Sleep(50 * time.Millisecond)
	baseline := runtime.NumGoroutine()

	for range 5 {
		pool := NewWorkerPool(4)
		_ = pool.ForRange(context.Background(), 0, 100, 8, func(int, int) error { return nil })
		pool.Close()
	}

	runtime.GC()
	time.Sleep(100 * time.Millisecond)
	if final := runtime.NumGoroutine(); final > baseline+2 {
		t.Errorf("goroutine count: baseline=%d, final=%d (leak detected)", baseline, final)
	}
}

// =============================================================================
// ForRange
// =============================================================================

func executors(t *testing.T) map[string]Executor {
	t.Helper()
	pool := NewWorkerPool(4)
	t.Cleanup(pool.Close)
	return map[string]Executor{
		"pool":       pool,
		"group":      Group{Limit: 3},
		"sequential": Sequential{},
	}
}

func TestForRangeCoversRange(t *testing.T) {
	for name, ex := range executors(t) {
		t.Run(name, func(t *testing.T) {
			var hits [97]atomic.Int32
			err := ex.ForRange(context.Background(), 0, len(hits), 8, func(start, end int) error {
				for i := start; i < end; i++ {
					hits[i].Add(1)
				}
				return nil
			})
			if err != nil {
				t.Fatalf("ForRange: %v", err)
			}
			for i := range hits {
				if got := hits[i].Load(); got != 1 {
					t.Fatalf("index %d visited %d times", i, got)
				}
			}
		})
	}
}

func TestForRangeFirstError(t *testing.T) {
	errStripe := errors.New("stripe failed")
	for name, ex := range executors(t) {
		t.Run(name, func(t *testing.T) {
			err := ex.ForRange(context.Background(), 0, 64, 8, func(start, _ int) error {
				if start == 0 {
					return errStripe
				}
				return nil
			})
			if !errors.Is(err, errStripe) {
				t.Errorf("ForRange error = %v, want %v", err, errStripe)
			}
		})
	}
}

func TestForRangeCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for name, ex := range executors(t) {
		t.Run(name, func(t *testing.T) {
			var ran atomic.Bool
			err := ex.ForRange(ctx, 0, 10, 4, func(int, int) error {
				ran.Store(true)
				return nil
			})
			if !errors.Is(err, context.Canceled) {
				t.Errorf("ForRange error = %v, want context.Canceled", err)
			}
			if ran.Load() {
				t.Error("body ran after cancellation")
			}
		})
	}
}

func TestForRangeEmpty(t *testing.T) {
	for name, ex := range executors(t) {
		err := ex.ForRange(context.Background(), 5, 5, 4, func(int, int) error {
			t.Errorf("%s: body called for empty range", name)
			return nil
		})
		if err != nil {
			t.Errorf("%s: ForRange on empty range = %v", name, err)
		}
	}
}

// =============================================================================
// Split / Default
// =============================================================================

func TestSplit(t *testing.T) {
	tests := []struct {
		start, end, n int
		want          []Stripe
	}{
		{0, 10, 3, []Stripe{{0, 4}, {4, 7}, {7, 10}}},
		{5, 7, 8, []Stripe{{5, 6}, {6, 7}}},
		{0, 4, 0, []Stripe{{0, 4}}},
		{3, 3, 2, nil},
		{0, 6, 2, []Stripe{{0, 3}, {3, 6}}},
	}
	for _, tt := range tests {
		got := Split(tt.start, tt.end, tt.n)
		if len(got) != len(tt.want) {
			t.Errorf("Split(%d, %d, %d) = %v, want %v", tt.start, tt.end, tt.n, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("Split(%d, %d, %d) = %v, want %v", tt.start, tt.end, tt.n, got, tt.want)
				break
			}
		}
	}
}

func TestForThreads(t *testing.T) {
	if _, ok := ForThreads(1).(Sequential); !ok {
		t.Error("ForThreads(1) should be Sequential")
	}
	if _, ok := ForThreads(0).(Group); !ok {
		t.Error("ForThreads(0) should be a Group")
	}

	e := ForThreads(6)
	pool, ok := e.(*WorkerPool)
	if !ok {
		t.Fatalf("ForThreads(6) = %T, want *WorkerPool", e)
	}
	if got := pool.Workers(); got != 6 {
		t.Errorf("ForThreads(6).Workers() = %d", got)
	}
	var sum atomic.Int64
	err := e.ForRange(context.Background(), 0, 100, 6, func(start, end int) error {
		for i := start; i < end; i++ {
			sum.Add(int64(i))
		}
		return nil
	})
	if err != nil || sum.Load() != 4950 {
		t.Errorf("ForRange = %v, sum %d", err, sum.Load())
	}

	Release(e)
	if pool.IsRunning() {
		t.Error("Release left the pool running")
	}
	Release(Sequential{})
}

func TestSequentialStripesInOrder(t *testing.T) {
	var got []Stripe
	err := Sequential{}.ForRange(context.Background(), 3, 13, 4, func(start, end int) error {
		got = append(got, Stripe{start, end})
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	want := Split(3, 13, 4)
	if len(got) != len(want) {
		t.Fatalf("ran %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("stripe %d = %v, want %v", i, got[i], want[i])
		}
	}

	boom := errors.New("boom")
	calls := 0
	err = Sequential{}.ForRange(context.Background(), 0, 10, 5, func(start, end int) error {
		calls++
		if start >= 4 {
			return boom
		}
		return nil
	})
	if !errors.Is(err, boom) || calls != 3 {
		t.Errorf("error stop: err %v after %d calls, want boom after 3", err, calls)
	}

	ctx, cancel := context.WithCancel(context.Background())
	calls = 0
	err = Sequential{}.ForRange(ctx, 0, 10, 5, func(start, end int) error {
		calls++
		cancel()
		return nil
	})
	if !errors.Is(err, context.Canceled) || calls != 1 {
		t.Errorf("cancel: err %v after %d calls, want Canceled after 1", err, calls)
	}
}

func TestFrozen(t *testing.T) {
	_ = Default()
	if !Frozen() {
		t.Error("Frozen() = false after Default")
	}
}

func TestSetDefaultAfterUse(t *testing.T) {
	_ = Default()
	if SetDefault(Sequential{}) {
		t.Error("SetDefault succeeded after Default was used")
	}
}

func BenchmarkForRange(b *testing.B) {
	pool := NewWorkerPool(0)
	defer pool.Close()
	body := func(start, end int) error {
		s := 0
		for i := start; i < end; i++ {
			s += i
		}
		_ = s
		return nil
	}

	b.Run("pool", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_ = pool.ForRange(context.Background(), 0, 1<<16, 16, body)
		}
	})
	b.Run("group", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_ = Group{}.ForRange(context.Background(), 0, 1<<16, 16, body)
		}
	})
}
