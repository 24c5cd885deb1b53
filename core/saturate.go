package core

import "math"

// Saturating conversions from float64. Integer targets round half to even
// and clamp to the target range; NaN maps to 0.

// SaturateU8 converts v to uint8.
func SaturateU8(v float64) uint8 {
	r := math.RoundToEven(v)
	switch {
	case r >= math.MaxUint8:
		return math.MaxUint8
	case r > 0:
		return uint8(r)
	default:
		return 0
	}
}

// SaturateS8 converts v to int8.
func SaturateS8(v float64) int8 {
	r := math.RoundToEven(v)
	switch {
	case r >= math.MaxInt8:
		return math.MaxInt8
	case r <= math.MinInt8:
		return math.MinInt8
	case !math.IsNaN(r):
		return int8(r)
	default:
		return 0
	}
}

// SaturateU16 converts v to uint16.
func SaturateU16(v float64) uint16 {
	r := math.RoundToEven(v)
	switch {
	case r >= math.MaxUint16:
		return math.MaxUint16
	case r > 0:
		return uint16(r)
	default:
		return 0
	}
}

// SaturateS16 converts v to int16.
func SaturateS16(v float64) int16 {
	r := math.RoundToEven(v)
	switch {
	case r >= math.MaxInt16:
		return math.MaxInt16
	case r <= math.MinInt16:
		return math.MinInt16
	case !math.IsNaN(r):
		return int16(r)
	default:
		return 0
	}
}

// SaturateS32 converts v to int32.
func SaturateS32(v float64) int32 {
	r := math.RoundToEven(v)
	switch {
	case r >= math.MaxInt32:
		return math.MaxInt32
	case r <= math.MinInt32:
		return math.MinInt32
	case !math.IsNaN(r):
		return int32(r)
	default:
		return 0
	}
}

// SaturateU32 converts v to uint32.
func SaturateU32(v float64) uint32 {
	r := math.RoundToEven(v)
	switch {
	case r >= math.MaxUint32:
		return math.MaxUint32
	case r > 0:
		return uint32(r)
	default:
		return 0
	}
}

// SaturateF32 converts v to float32 (no rounding to integers).
func SaturateF32(v float64) float32 { return float32(v) }

// SaturateF64 returns v.
func SaturateF64(v float64) float64 { return v }

// SaturateFunc returns the saturating conversion into T. Callers look it up
// once, outside their per-element loops.
func SaturateFunc[T Number]() func(float64) T {
	var zero T
	var f any
	switch any(zero).(type) {
	case uint8:
		f = SaturateU8
	case int8:
		f = SaturateS8
	case uint16:
		f = SaturateU16
	case int16:
		f = SaturateS16
	case int32:
		f = SaturateS32
	case uint32:
		f = SaturateU32
	case float32:
		f = SaturateF32
	case float64:
		f = SaturateF64
	}
	if fn, ok := f.(func(float64) T); ok {
		return fn
	}
	// Named types (~uint8 and friends) go through the underlying conversion.
	return func(v float64) T { return T(v) }
}

// DepthOf returns the Depth backing T.
func DepthOf[T Number]() Depth {
	var zero T
	switch any(zero).(type) {
	case uint8:
		return U8
	case int8:
		return S8
	case uint16:
		return U16
	case int16:
		return S16
	case int32:
		return S32
	case uint32:
		return U32
	case float32:
		return F32
	case float64:
		return F64
	}
	panic(Errorf(CodeUnsupportedFormat, "no depth for %T", zero))
}
