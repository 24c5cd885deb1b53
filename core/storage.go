package core

import (
	"math"
	"sync/atomic"
)

// StorageFlag holds status bits carried by a Storage. They are metadata for
// non-CPU backends; the CPU path only passes them through.
type StorageFlag uint32

// Storage status bits.
const (
	FlagHostCopyObsolete StorageFlag = 1 << iota
	FlagDeviceCopyObsolete
	FlagTempAllocation
	FlagUserAllocated
	FlagAsyncCleanup
)

// AccessFlag describes how a new allocation will be used.
type AccessFlag uint32

// Access hints passed to Allocator.Allocate.
const (
	AccessRead AccessFlag = 1 << iota
	AccessWrite
	AccessTemp
)

// AccessReadWrite is the default access for Mat allocations.
const AccessReadWrite = AccessRead | AccessWrite

// Storage is a reference-counted allocation that Mats share.
// It has no knowledge of shape; several Mats with different views may
// reference the same Storage.
//
// Thread safety: AddRef and Release may be called from any goroutine.
// The bytes themselves are not synchronized.
type Storage struct {
	data      []byte
	refcount  atomic.Int32
	allocator Allocator
	flags     StorageFlag

	// Handle is an allocator-private value (for example a pool bucket key).
	Handle int
}

// NewStorage wraps data in a Storage with refcount 1. Allocator
// implementations use it to hand out their buffers.
func NewStorage(data []byte, a Allocator, flags StorageFlag) *Storage {
	s := &Storage{
		data:      data,
		allocator: a,
		flags:     flags,
	}
	s.refcount.Store(1)
	return s
}

// Bytes returns the whole allocation. Returns nil once the storage is freed.
func (s *Storage) Bytes() []byte {
	return s.data
}

// Len returns the allocation size in bytes.
func (s *Storage) Len() int {
	return len(s.data)
}

// Flags returns the status bits.
func (s *Storage) Flags() StorageFlag {
	return s.flags
}

// Allocator returns the allocator that produced this storage.
func (s *Storage) Allocator() Allocator {
	return s.allocator
}

// Refcount returns the current number of holders.
func (s *Storage) Refcount() int {
	return int(s.refcount.Load())
}

// AddRef registers another holder.
func (s *Storage) AddRef() {
	if s.refcount.Add(1) <= 1 {
		panic(newError(2, CodeBadState, "AddRef on released storage"))
	}
}

// Release drops one holder. The last release returns the buffer to its
// allocator. Releasing more times than referenced panics.
func (s *Storage) Release() {
	n := s.refcount.Add(-1)
	switch {
	case n == 0:
		if s.allocator != nil {
			s.allocator.Deallocate(s)
		}
		s.data = nil
	case n < 0:
		panic(newError(2, CodeBadState, "storage released more times than referenced"))
	}
}

// TotalBytes returns the tightly packed byte size of an array with the given
// sizes and element type, or ErrNoMem if it overflows or exceeds MaxAllocBytes.
func TotalBytes(sizes []int, typ ElemType) (int, error) {
	n := typ.ElemSize()
	for _, sz := range sizes {
		if sz < 0 {
			return 0, Errorf(CodeBadArg, "negative size %d", sz)
		}
		if sz != 0 && n > math.MaxInt/sz {
			return 0, Errorf(CodeNoMem, "size overflow for %v x %v", sizes, typ)
		}
		n *= sz
	}
	if n > MaxAllocBytes {
		return 0, Errorf(CodeNoMem, "%d bytes exceeds limit %d", n, MaxAllocBytes)
	}
	return n, nil
}
