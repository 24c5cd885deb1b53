package filter

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/openhl/openhl/core"
)

// Test helpers shared across filter tests.

// newU8 builds a single-channel 8-bit Mat from row-major values.
func newU8(t testing.TB, rows, cols int, vals ...uint8) *core.Mat {
	t.Helper()
	m, err := core.NewMat(rows, cols, core.U8C1)
	require.NoError(t, err)
	for y := range rows {
		copy(core.RowOf[uint8](m, y), vals[y*cols:(y+1)*cols])
	}
	t.Cleanup(m.Release)
	return m
}

// randomU8 builds a rows x cols 8-bit Mat with cn channels of seeded noise.
func randomU8(t testing.TB, rows, cols, cn int, seed uint64) *core.Mat {
	t.Helper()
	m, err := core.NewMat(rows, cols, core.MakeType(core.U8, cn))
	require.NoError(t, err)
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	for y := range rows {
		row := core.RowOf[uint8](m, y)
		for i := range row {
			row[i] = uint8(r.IntN(256))
		}
	}
	t.Cleanup(m.Release)
	return m
}

// randomF32 builds a rows x cols 32-bit float Mat of values in [0, 1).
func randomF32(t testing.TB, rows, cols, cn int, seed uint64) *core.Mat {
	t.Helper()
	m, err := core.NewMat(rows, cols, core.MakeType(core.F32, cn))
	require.NoError(t, err)
	r := rand.New(rand.NewPCG(seed, 1))
	for y := range rows {
		row := core.RowOf[float32](m, y)
		for i := range row {
			row[i] = r.Float32()
		}
	}
	t.Cleanup(m.Release)
	return m
}

// floats returns the values of an 8-bit Mat, one slice per row.
func floats(m *core.Mat) [][]float64 {
	out := make([][]float64, m.Rows())
	for y := range out {
		row := core.RowOf[uint8](m, y)
		out[y] = make([]float64, len(row))
		for i, v := range row {
			out[y][i] = float64(v)
		}
	}
	return out
}

// border pairs the horizontal and vertical policies for refFilter.
type border struct {
	row, col BorderType
	value    float64
}

// refFilter correlates the roi of img (rows of interleaved values with cn
// channels) with kernel, looking up every tap with BorderInterpolate. Taps
// are summed in row-major order starting from delta, skipping zeros.
func refFilter(img [][]float64, cn int, roi core.Rect, kernel [][]float64, anchor core.Point, b border, delta float64) [][]float64 {
	h, w := len(img), len(img[0])/cn
	out := make([][]float64, roi.Height)
	for y := range roi.Height {
		out[y] = make([]float64, roi.Width*cn)
		for x := range roi.Width {
			for c := range cn {
				sum := delta
				for ky, krow := range kernel {
					for kx, k := range krow {
						if k == 0 {
							continue
						}
						sy := BorderInterpolate(roi.Y+y+ky-anchor.Y, h, b.col)
						sx := BorderInterpolate(roi.X+x+kx-anchor.X, w, b.row)
						v := b.value
						if sy >= 0 && sx >= 0 {
							v = img[sy][sx*cn+c]
						}
						sum += k * v
					}
				}
				out[y][x*cn+c] = sum
			}
		}
	}
	return out
}

// ones returns an h x w kernel of ones.
func ones(h, w int) [][]float64 {
	k := make([][]float64, h)
	for i := range k {
		k[i] = make([]float64, w)
		for j := range k[i] {
			k[i][j] = 1
		}
	}
	return k
}

// kernelMat converts a kernel to a 64FC1 Mat.
func kernelMat(t testing.TB, k [][]float64) *core.Mat {
	t.Helper()
	m, err := core.NewMat(len(k), len(k[0]), core.F64C1)
	require.NoError(t, err)
	for y, row := range k {
		copy(core.RowOf[float64](m, y), row)
	}
	t.Cleanup(m.Release)
	return m
}

// requireU8 checks an 8-bit Mat against expected values rounded half to even.
func requireU8(t *testing.T, want [][]float64, scale float64, got *core.Mat) {
	t.Helper()
	require.Equal(t, len(want), got.Rows())
	for y := range want {
		row := core.RowOf[uint8](got, y)
		require.Len(t, row, len(want[y]))
		for i, w := range want[y] {
			require.Equalf(t, core.SaturateU8(w*scale), row[i], "pixel value %d of row %d", i, y)
		}
	}
}
