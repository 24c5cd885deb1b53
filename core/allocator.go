package core

import (
	"sync"
	"sync/atomic"
)

// MaxAllocBytes caps a single allocation. Requests above it fail with ErrNoMem
// instead of reaching the runtime, whose own failure is not recoverable.
var MaxAllocBytes = 1 << 40

// Allocator provides the backing storage for Mats.
//
// Allocate returns a Storage with refcount 1 sized for a tightly packed array
// of sizes x typ. Deallocate is called exactly once, by Storage.Release, when
// the last holder lets go.
type Allocator interface {
	Allocate(sizes []int, typ ElemType, flags AccessFlag) (*Storage, error)
	Deallocate(s *Storage)
}

// StdAllocator allocates from the Go heap.
type StdAllocator struct{}

// Allocate implements Allocator.
func (a StdAllocator) Allocate(sizes []int, typ ElemType, flags AccessFlag) (*Storage, error) {
	n, err := TotalBytes(sizes, typ)
	if err != nil {
		Logger().Warn("core: allocation rejected", "sizes", sizes, "type", typ, "err", err)
		return nil, err
	}
	var sf StorageFlag
	if flags&AccessTemp != 0 {
		sf |= FlagTempAllocation
	}
	return NewStorage(make([]byte, n), a, sf), nil
}

// Deallocate implements Allocator. The buffer is left to the garbage collector.
func (StdAllocator) Deallocate(*Storage) {}

// PoolAllocator reuses released buffers of identical byte size.
//
// Buffers are grouped in buckets by length; each bucket retains at most
// maxPerBucket buffers. Reused buffers are zeroed before being handed out.
//
// Thread safety: all methods are safe for concurrent use.
type PoolAllocator struct {
	mu      sync.Mutex
	buckets map[int][][]byte
	maxSize int

	hits   atomic.Int64
	misses atomic.Int64
}

// NewPoolAllocator creates a pool retaining up to maxPerBucket buffers per size.
// A maxPerBucket of 0 means unlimited.
func NewPoolAllocator(maxPerBucket int) *PoolAllocator {
	return &PoolAllocator{
		buckets: make(map[int][][]byte),
		maxSize: maxPerBucket,
	}
}

// Allocate implements Allocator.
func (p *PoolAllocator) Allocate(sizes []int, typ ElemType, flags AccessFlag) (*Storage, error) {
	n, err := TotalBytes(sizes, typ)
	if err != nil {
		return nil, err
	}
	var sf StorageFlag
	if flags&AccessTemp != 0 {
		sf |= FlagTempAllocation
	}

	p.mu.Lock()
	bucket := p.buckets[n]
	if len(bucket) > 0 {
		buf := bucket[len(bucket)-1]
		p.buckets[n] = bucket[:len(bucket)-1]
		p.mu.Unlock()

		p.hits.Add(1)
		clear(buf)
		return NewStorage(buf, p, sf), nil
	}
	p.mu.Unlock()

	p.misses.Add(1)
	return NewStorage(make([]byte, n), p, sf), nil
}

// Deallocate implements Allocator, returning the buffer to its bucket.
func (p *PoolAllocator) Deallocate(s *Storage) {
	buf := s.Bytes()
	if buf == nil {
		return
	}
	n := len(buf)

	p.mu.Lock()
	defer p.mu.Unlock()

	bucket := p.buckets[n]
	if p.maxSize > 0 && len(bucket) >= p.maxSize {
		Logger().Debug("core: pool bucket full, dropping buffer", "bytes", n)
		return
	}
	p.buckets[n] = append(bucket, buf)
}

// PoolStats reports reuse counters.
type PoolStats struct {
	Hits     int64
	Misses   int64
	Retained int
}

// Stats returns a snapshot of the pool counters.
func (p *PoolAllocator) Stats() PoolStats {
	p.mu.Lock()
	retained := 0
	for _, b := range p.buckets {
		retained += len(b)
	}
	p.mu.Unlock()

	return PoolStats{
		Hits:     p.hits.Load(),
		Misses:   p.misses.Load(),
		Retained: retained,
	}
}

// Default allocator: set at most once, before first use.
var (
	defaultAllocMu     sync.Mutex
	defaultAlloc       Allocator = StdAllocator{}
	defaultAllocFrozen atomic.Bool
)

// DefaultAllocator returns the process-wide allocator used by Mats that were
// not given one explicitly. The first call freezes the choice.
func DefaultAllocator() Allocator {
	if defaultAllocFrozen.Load() {
		return defaultAlloc
	}
	defaultAllocMu.Lock()
	defer defaultAllocMu.Unlock()
	defaultAllocFrozen.Store(true)
	return defaultAlloc
}

// DefaultAllocatorFrozen reports whether the default allocator can no longer
// be replaced.
func DefaultAllocatorFrozen() bool {
	return defaultAllocFrozen.Load()
}

// SetDefaultAllocator installs the process-wide allocator. It must run at
// startup, before any Mat is created; afterwards, and on a second call, it
// returns ErrAllocatorFrozen and leaves the allocator unchanged.
func SetDefaultAllocator(a Allocator) error {
	if a == nil {
		return Errorf(CodeBadArg, "nil allocator")
	}
	defaultAllocMu.Lock()
	defer defaultAllocMu.Unlock()
	if defaultAllocFrozen.Load() {
		return ErrAllocatorFrozen
	}
	defaultAlloc = a
	defaultAllocFrozen.Store(true)
	return nil
}
