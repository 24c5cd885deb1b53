package core

import (
	"os"
	"runtime"
	"strconv"
	"sync/atomic"

	"golang.org/x/sys/cpu"
)

// Feature names an instruction-set extension a vectorized backend may use.
type Feature int

// Known CPU features.
const (
	FeatureSSE2 Feature = iota
	FeatureSSE41
	FeatureAVX
	FeatureAVX2
	FeatureFMA
	FeatureAVX512
	FeatureNEON
	FeatureSVE

	featureCount
)

var featureNames = [featureCount]string{
	FeatureSSE2:   "sse2",
	FeatureSSE41:  "sse4.1",
	FeatureAVX:    "avx",
	FeatureAVX2:   "avx2",
	FeatureFMA:    "fma",
	FeatureAVX512: "avx512f",
	FeatureNEON:   "neon",
	FeatureSVE:    "sve",
}

func (f Feature) String() string {
	if f < 0 || f >= featureCount {
		return "feature(" + strconv.Itoa(int(f)) + ")"
	}
	return featureNames[f]
}

var (
	features     [featureCount]bool
	useOptimized atomic.Bool
)

func init() {
	switch runtime.GOARCH {
	case "amd64", "386":
		features[FeatureSSE2] = cpu.X86.HasSSE2
		features[FeatureSSE41] = cpu.X86.HasSSE41
		features[FeatureAVX] = cpu.X86.HasAVX
		features[FeatureAVX2] = cpu.X86.HasAVX2
		features[FeatureFMA] = cpu.X86.HasFMA
		features[FeatureAVX512] = cpu.X86.HasAVX512F
	case "arm64":
		features[FeatureNEON] = cpu.ARM64.HasASIMD
		features[FeatureSVE] = cpu.ARM64.HasSVE
	}
	useOptimized.Store(!noSIMDEnv())
}

// noSIMDEnv reports whether OPENHL_NO_SIMD requests the scalar path.
func noSIMDEnv() bool {
	val := os.Getenv("OPENHL_NO_SIMD")
	if val == "" {
		return false
	}
	if b, err := strconv.ParseBool(val); err == nil {
		return b
	}
	return true
}

// HaveFeature reports whether the running CPU supports f.
// Always false when OPENHL_NO_SIMD is set.
func HaveFeature(f Feature) bool {
	if f < 0 || f >= featureCount || !useOptimized.Load() {
		return false
	}
	return features[f]
}

// Features lists the detected features usable by optimized backends.
func Features() []Feature {
	var out []Feature
	for f := range featureCount {
		if HaveFeature(f) {
			out = append(out, f)
		}
	}
	return out
}

// UseOptimized reports whether optimized inner loops may be selected. The
// filter package consults it before taking its lane-batched float32 paths.
func UseOptimized() bool {
	return useOptimized.Load()
}

// SetUseOptimized enables or disables optimized backends at runtime.
func SetUseOptimized(on bool) {
	useOptimized.Store(on)
}
