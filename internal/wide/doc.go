// Package wide provides fixed-width lane types for filter inner loops.
//
// F32x8 holds eight float32 lanes in a plain array. Loops over fixed-size
// arrays are what the Go compiler auto-vectorizes, so the row kernels here
// (DotRows, MinRows, MaxRows) process eight columns per step and finish the
// tail one column at a time. Lane results match the scalar loops except
// where the compiler fuses a multiply-add differently.
//
// # Usage
//
//	// dst[i] = delta + k[0]*rows[0][i] + k[1]*rows[1][i] + ...
//	wide.DotRows(dst, rows, k, delta)
package wide
