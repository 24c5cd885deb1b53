package wide

import (
	"math"
	"testing"
)

func TestSplatF32(t *testing.T) {
	for _, value := range []float32{0, 1, 0.5, -1.5} {
		for i, v := range SplatF32(value) {
			if v != value {
				t.Errorf("SplatF32(%v)[%d] = %v", value, i, v)
			}
		}
	}
}

func TestF32x8Ops(t *testing.T) {
	a := F32x8{1, -2, 3, -4, 5, -6, 7, -8}
	b := SplatF32(2)

	tests := []struct {
		name string
		got  F32x8
		want F32x8
	}{
		{"add", a.Add(b), F32x8{3, 0, 5, -2, 7, -4, 9, -6}},
		{"mul", a.Mul(b), F32x8{2, -4, 6, -8, 10, -12, 14, -16}},
		{"min", a.Min(b), F32x8{1, -2, 2, -4, 2, -6, 2, -8}},
		{"max", a.Max(b), F32x8{2, 2, 3, 2, 5, 2, 7, 2}},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}
}

func TestMinMaxSignedZeroAndNaN(t *testing.T) {
	negZero := float32(math.Copysign(0, -1))
	pos := SplatF32(0)
	neg := SplatF32(negZero)
	if v := pos.Min(neg)[0]; !math.Signbit(float64(v)) {
		t.Errorf("Min(+0, -0) = %v, want -0", v)
	}
	if v := neg.Max(pos)[0]; math.Signbit(float64(v)) {
		t.Errorf("Max(-0, +0) = %v, want +0", v)
	}
	nan := SplatF32(float32(math.NaN()))
	if v := pos.Min(nan)[3]; !math.IsNaN(float64(v)) {
		t.Errorf("Min with NaN = %v, want NaN", v)
	}
}

func TestLoadStore(t *testing.T) {
	s := []float32{9, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	v := LoadF32(s[1:])
	if v != (F32x8{1, 2, 3, 4, 5, 6, 7, 8}) {
		t.Fatalf("LoadF32 = %v", v)
	}
	d := make([]float32, 10)
	v.Store(d[2:])
	if d[1] != 0 || d[2] != 1 || d[9] != 8 {
		t.Errorf("Store wrote %v", d)
	}

	defer func() {
		if recover() == nil {
			t.Error("LoadF32 on a short slice did not panic")
		}
	}()
	LoadF32(s[:7])
}

func testRows(n, width int) [][]float32 {
	rows := make([][]float32, n)
	for j := range rows {
		rows[j] = make([]float32, width)
		for i := range rows[j] {
			rows[j][i] = float32((i*7+j*13)%23) - 11.5
		}
	}
	return rows
}

func TestDotRows(t *testing.T) {
	k := []float32{0.25, 0.5, 0.25}
	for _, width := range []int{0, 1, 7, 8, 9, 16, 37} {
		rows := testRows(len(k)+1, width)
		dst := make([]float32, width)
		DotRows(dst, rows, k, 3)

		for i := range width {
			want := float64(3)
			for j, kv := range k {
				want += float64(kv) * float64(rows[j][i])
			}
			if math.Abs(float64(dst[i])-want) > 1e-5 {
				t.Errorf("width %d: dst[%d] = %v, want %v", width, i, dst[i], want)
			}
		}
	}
}

func TestMinMaxRows(t *testing.T) {
	for _, width := range []int{3, 8, 21} {
		rows := testRows(5, width)
		lo := make([]float32, width)
		hi := make([]float32, width)
		MinRows(lo, rows)
		MaxRows(hi, rows)

		for i := range width {
			wantLo, wantHi := rows[0][i], rows[0][i]
			for _, row := range rows[1:] {
				wantLo = min(wantLo, row[i])
				wantHi = max(wantHi, row[i])
			}
			if lo[i] != wantLo || hi[i] != wantHi {
				t.Errorf("width %d col %d: min/max = %v/%v, want %v/%v", width, i, lo[i], hi[i], wantLo, wantHi)
			}
		}
	}

	dst := []float32{42}
	MinRows(dst, nil)
	if dst[0] != 42 {
		t.Errorf("MinRows with no rows wrote %v", dst[0])
	}
}

func BenchmarkDotRows(b *testing.B) {
	k := []float32{0.0625, 0.25, 0.375, 0.25, 0.0625}
	rows := testRows(len(k), 1920)
	dst := make([]float32, 1920)
	b.ResetTimer()
	for b.Loop() {
		DotRows(dst, rows, k, 0)
	}
}
