// Package openhl is a Go image-processing core: n-dimensional matrices with
// shared reference-counted storage, and a streaming filter engine.
//
// # Packages
//
//   - core: Mat, Shape, Storage, allocators, saturating conversions, the
//     structured Error type and the shared logger.
//   - filter: border interpolation, row/column/2D filter stages, the
//     FilterEngine and high-level filters (BoxFilter, Blur, SepFilter2D,
//     LinearFilter, GaussianBlur, Erode, Dilate).
//   - imgcodecs: BMP and PNG files to and from 8-bit Mats.
//
// # Quick Start
//
//	src, err := imgcodecs.Read("in.bmp")
//	if err != nil {
//	    return err
//	}
//	dst := &core.Mat{}
//	err = filter.GaussianBlur(src, dst, core.Size{Width: 5, Height: 5}, 1.2, 0,
//	    filter.WithBorder(filter.BorderReflect101))
//	if err != nil {
//	    return err
//	}
//	return imgcodecs.Write("out.bmp", dst)
//
// # Configuration
//
// Setup installs process-wide settings (logger, default allocator, worker
// count) once at startup. By default nothing is logged, Mats use the Go
// heap, and filters spread row bands over GOMAXPROCS goroutines.
//
// # Concurrency
//
// Mats are not synchronized: concurrent readers are fine, concurrent writers
// to overlapping regions are not. A FilterEngine belongs to one goroutine;
// the high-level filters give each band its own engine.
package openhl
