package filter

import (
	"math"
	"slices"

	"github.com/openhl/openhl/core"
	"github.com/openhl/openhl/internal/cache"
)

// Fixed-point precision of each pass of an 8-bit separable filter.
const smoothBits = 8

// Sampled Gaussians used when sigma is not given, for the common small sizes.
var smallGaussianKernels = map[int][]float64{
	1: {1},
	3: {0.25, 0.5, 0.25},
	5: {0.0625, 0.25, 0.375, 0.25, 0.0625},
	7: {0.03125, 0.109375, 0.21875, 0.28125, 0.21875, 0.109375, 0.03125},
}

type gaussianKey struct {
	ksize int
	sigma float64
}

var gaussianCache = cache.New[gaussianKey, []float64](64)

// GaussianKernel returns ksize Gaussian coefficients that sum to 1.
//
// ksize must be positive and odd. A non-positive sigma is derived from the
// size as 0.3*((ksize-1)*0.5-1)+0.8; sizes up to 7 then use fixed binomial
// weights. Results are cached; the returned slice is the caller's own copy.
func GaussianKernel(ksize int, sigma float64) ([]float64, error) {
	if ksize < 1 || ksize%2 == 0 {
		return nil, core.Errorf(core.CodeBadArg, "gaussian kernel size %d must be positive and odd", ksize)
	}
	k := gaussianCache.GetOrCreate(gaussianKey{ksize: ksize, sigma: max(sigma, 0)}, func() []float64 {
		return gaussianKernel(ksize, sigma)
	})
	return slices.Clone(k), nil
}

func gaussianKernel(ksize int, sigma float64) []float64 {
	if fixed, ok := smallGaussianKernels[ksize]; ok && sigma <= 0 {
		return slices.Clone(fixed)
	}
	if sigma <= 0 {
		sigma = 0.3*(float64(ksize-1)*0.5-1) + 0.8
	}

	kernel := make([]float64, ksize)
	scale := -0.5 / (sigma * sigma)
	var sum float64
	for i := range kernel {
		x := float64(i - (ksize-1)/2)
		kernel[i] = math.Exp(scale * x * x)
		sum += kernel[i]
	}
	for i := range kernel {
		kernel[i] /= sum
	}
	return kernel
}

// BoxKernel returns ksize equal coefficients: 1/ksize each when normalize
// is set, otherwise 1.
func BoxKernel(ksize int, normalize bool) ([]float64, error) {
	if ksize < 1 {
		return nil, core.Errorf(core.CodeBadArg, "box kernel size %d", ksize)
	}
	v := 1.0
	if normalize {
		v = 1 / float64(ksize)
	}
	k := make([]float64, ksize)
	for i := range k {
		k[i] = v
	}
	return k, nil
}

// GaussianKernelSize returns the odd kernel size covering sigma: three
// sigmas each side for 8-bit images, four otherwise.
func GaussianKernelSize(sigma float64, d core.Depth) int {
	n := 4.0
	if d == core.U8 {
		n = 3
	}
	return int(math.Round(sigma*n*2+1)) | 1
}

// isSmoothKernel reports whether k has no negative coefficient and sums to 1,
// so that 8-bit data filtered with it stays within 8 bits.
func isSmoothKernel(k []float64) bool {
	var sum float64
	for _, v := range k {
		if v < 0 {
			return false
		}
		sum += v
	}
	return math.Abs(sum-1) < 1e-6
}

// fixedPointKernel scales k by 2^bits and rounds it to integers. The
// rounding error is folded into the largest coefficient so the integer
// kernel sums to exactly round(sum(k) * 2^bits).
func fixedPointKernel(k []float64, bits int) []float64 {
	scale := float64(int64(1) << bits)
	out := make([]float64, len(k))
	var want, got float64
	peak := 0
	for i, v := range k {
		out[i] = math.Round(v * scale)
		want += v
		got += out[i]
		if math.Abs(v) > math.Abs(k[peak]) {
			peak = i
		}
	}
	out[peak] += math.Round(want*scale) - got
	return out
}
