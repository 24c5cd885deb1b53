// Package core provides the N-dimensional strided array type Mat and its
// reference-counted backing Storage.
//
// # Ownership
//
// A Mat is a lightweight header: element type, per-axis sizes and byte
// steps, and a reference into a Storage. Three ownership modes exist:
//
//   - NewMat/Create: the Mat owns a fresh Storage (refcount 1).
//   - Ref, Row, Col, RowRange, ColRange, Region, AdjustROI: the new header
//     shares the Storage; the refcount counts live headers, not allocations.
//   - NewMatFromBytes: the Mat borrows caller memory and never frees it.
//
// Release drops a header's reference; the last release hands the bytes back
// to the Allocator that produced them. CopyTo and Clone always produce
// independent bytes.
//
// # Element access
//
// Ptr, RowBytes, At, Set and RowOf check every index and panic with
// ErrOutOfRange on violation. AtUnchecked, SetUnchecked and PtrUnchecked skip
// the checks for hot loops whose indices are already known to be valid.
//
// # Allocators
//
// Allocation goes through an Allocator. The process-wide default is a heap
// allocator; SetDefaultAllocator may replace it once at startup, before the
// first Mat is created. PoolAllocator recycles buffers of equal size.
//
// # Errors
//
// Configuration and resource failures are returned as *Error values that
// match the sentinel errors (ErrBadArg, ErrNoMem, ...) under errors.Is.
// Programming errors such as out-of-range indices panic with an *Error.
package core
