package wide

// Lanes is the width of F32x8.
const Lanes = 8

// F32x8 represents 8 float32 lanes.
type F32x8 [Lanes]float32

// SplatF32 returns an F32x8 with every lane set to n.
func SplatF32(n float32) F32x8 {
	var result F32x8
	for i := range result {
		result[i] = n
	}
	return result
}

// LoadF32 reads the first 8 values of s. It panics if len(s) < 8.
func LoadF32(s []float32) F32x8 {
	return F32x8(s)
}

// Store writes the lanes to the first 8 values of d.
func (v F32x8) Store(d []float32) {
	copy(d[:Lanes], v[:])
}

// Add performs lane-wise addition.
func (v F32x8) Add(other F32x8) F32x8 {
	var result F32x8
	for i := range v {
		result[i] = v[i] + other[i]
	}
	return result
}

// Mul performs lane-wise multiplication.
func (v F32x8) Mul(other F32x8) F32x8 {
	var result F32x8
	for i := range v {
		result[i] = v[i] * other[i]
	}
	return result
}

// Min performs lane-wise minimum with the semantics of the min builtin.
func (v F32x8) Min(other F32x8) F32x8 {
	var result F32x8
	for i := range v {
		result[i] = min(v[i], other[i])
	}
	return result
}

// Max performs lane-wise maximum with the semantics of the max builtin.
func (v F32x8) Max(other F32x8) F32x8 {
	var result F32x8
	for i := range v {
		result[i] = max(v[i], other[i])
	}
	return result
}
