package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetDefaultAllocator restores the unfrozen default for tests that install one.
func resetDefaultAllocator(t *testing.T) {
	t.Helper()
	defaultAllocMu.Lock()
	prev, frozen := defaultAlloc, defaultAllocFrozen.Load()
	defaultAlloc = StdAllocator{}
	defaultAllocFrozen.Store(false)
	defaultAllocMu.Unlock()

	t.Cleanup(func() {
		defaultAllocMu.Lock()
		defaultAlloc = prev
		defaultAllocFrozen.Store(frozen)
		defaultAllocMu.Unlock()
	})
}

func TestPoolAllocatorReuse(t *testing.T) {
	p := NewPoolAllocator(2)

	m, err := NewMat(4, 4, U8C1, WithAllocator(p))
	require.NoError(t, err)
	m.SetTo(ScalarAll(9))
	first := &m.Datastart()[0]
	m.Release()

	stats := p.Stats()
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, 1, stats.Retained)

	// Same byte size, different shape: the buffer is reused and zeroed.
	n, err := NewMat(2, 8, U8C1, WithAllocator(p))
	require.NoError(t, err)
	defer n.Release()

	assert.Same(t, first, &n.Datastart()[0])
	assert.Equal(t, make([]byte, 16), n.ToBytes())

	stats = p.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, 0, stats.Retained)
}

func TestPoolAllocatorBucketLimit(t *testing.T) {
	p := NewPoolAllocator(1)

	a, err := NewMat(3, 3, U8C1, WithAllocator(p))
	require.NoError(t, err)
	b, err := NewMat(3, 3, U8C1, WithAllocator(p))
	require.NoError(t, err)

	a.Release()
	b.Release()
	assert.Equal(t, 1, p.Stats().Retained)
}

func TestPoolAllocatorRejectsOverflow(t *testing.T) {
	p := NewPoolAllocator(0)
	_, err := p.Allocate([]int{MaxAllocBytes, 2}, U8C1, AccessReadWrite)
	assert.ErrorIs(t, err, ErrNoMem)
	assert.Equal(t, PoolStats{}, p.Stats())
}

func TestSetDefaultAllocator(t *testing.T) {
	resetDefaultAllocator(t)

	a := &countingAllocator{}
	require.NoError(t, SetDefaultAllocator(a))

	m, err := NewMat(2, 2, U8C1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), a.allocs.Load())
	m.Release()
	assert.Equal(t, int64(0), a.outstanding())

	err = SetDefaultAllocator(StdAllocator{})
	assert.True(t, errors.Is(err, ErrAllocatorFrozen))
	assert.Same(t, a, DefaultAllocator())
}

func TestSetDefaultAllocatorAfterUse(t *testing.T) {
	resetDefaultAllocator(t)

	assert.False(t, DefaultAllocatorFrozen())
	_ = DefaultAllocator()
	assert.True(t, DefaultAllocatorFrozen())
	err := SetDefaultAllocator(NewPoolAllocator(0))
	assert.ErrorIs(t, err, ErrAllocatorFrozen)
}

func TestSetDefaultAllocatorNil(t *testing.T) {
	resetDefaultAllocator(t)
	assert.ErrorIs(t, SetDefaultAllocator(nil), ErrBadArg)
}

func TestTotalBytes(t *testing.T) {
	n, err := TotalBytes([]int{3, 5}, F32C3)
	require.NoError(t, err)
	assert.Equal(t, 180, n)

	_, err = TotalBytes([]int{-1, 5}, U8C1)
	assert.ErrorIs(t, err, ErrBadArg)
}
