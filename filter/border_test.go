package filter

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/openhl/openhl/core"
)

func TestBorderInterpolate(t *testing.T) {
	tests := []struct {
		name   string
		p, n   int
		border BorderType
		want   int
	}{
		{"inside", 3, 5, BorderConstant, 3},
		{"replicate left", -2, 5, BorderReplicate, 0},
		{"replicate right", 6, 5, BorderReplicate, 4},
		{"reflect -1", -1, 5, BorderReflect, 0},
		{"reflect -2", -2, 5, BorderReflect, 1},
		{"reflect 5", 5, 5, BorderReflect, 4},
		{"reflect 6", 6, 5, BorderReflect, 3},
		{"reflect101 -1", -1, 5, BorderReflect101, 1},
		{"reflect101 -2", -2, 5, BorderReflect101, 2},
		{"reflect101 5", 5, 5, BorderReflect101, 3},
		{"reflect101 6", 6, 5, BorderReflect101, 2},
		{"reflect101 far", -7, 3, BorderReflect101, 1},
		{"reflect101 single", -1, 1, BorderReflect101, 0},
		{"reflect single", 3, 1, BorderReflect, 0},
		{"wrap -1", -1, 5, BorderWrap, 4},
		{"wrap -2", -2, 5, BorderWrap, 3},
		{"wrap 5", 5, 5, BorderWrap, 0},
		{"wrap 7", 7, 5, BorderWrap, 2},
		{"wrap far", -11, 5, BorderWrap, 4},
		{"constant", -1, 5, BorderConstant, -1},
		{"transparent", 5, 5, BorderTransparent, -1},
		{"isolated modifier", -1, 5, BorderReplicate | BorderIsolated, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BorderInterpolate(tt.p, tt.n, tt.border); got != tt.want {
				t.Errorf("BorderInterpolate(%d, %d, %v) = %d, want %d", tt.p, tt.n, tt.border, got, tt.want)
			}
		})
	}
}

func TestBorderInterpolateInRange(t *testing.T) {
	for _, b := range []BorderType{BorderReplicate, BorderReflect, BorderReflect101, BorderWrap} {
		for n := 1; n <= 6; n++ {
			for p := -20; p < n+20; p++ {
				got := BorderInterpolate(p, n, b)
				if got < 0 || got >= n {
					t.Fatalf("BorderInterpolate(%d, %d, %v) = %d outside [0, %d)", p, n, b, got, n)
				}
			}
		}
	}
}

func TestBorderInterpolatePanics(t *testing.T) {
	assert.Panics(t, func() { BorderInterpolate(-1, 0, BorderReplicate) }, "empty axis")
	assert.Panics(t, func() { BorderInterpolate(-1, 5, BorderType(9)) }, "unknown policy")
}

func TestParseBorderType(t *testing.T) {
	tests := []struct {
		in   string
		want BorderType
	}{
		{"constant", BorderConstant},
		{"Replicate", BorderReplicate},
		{"reflect", BorderReflect},
		{" wrap ", BorderWrap},
		{"reflect101", BorderReflect101},
		{"REFLECT_101", BorderReflect101},
		{"default", BorderDefault},
		{"transparent", BorderTransparent},
		{"replicate|isolated", BorderReplicate | BorderIsolated},
		{"default | isolated", BorderReflect101 | BorderIsolated},
	}
	for _, tt := range tests {
		got, err := ParseBorderType(tt.in)
		if err != nil {
			t.Errorf("ParseBorderType(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseBorderType(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	for _, bad := range []string{"", "mirror", "constant|padded"} {
		if _, err := ParseBorderType(bad); !errors.Is(err, core.ErrBadArg) {
			t.Errorf("ParseBorderType(%q) error = %v, want ErrBadArg", bad, err)
		}
	}
}

func TestBorderTypeString(t *testing.T) {
	assert.Equal(t, "reflect101", BorderDefault.String())
	assert.Equal(t, "replicate|isolated", (BorderReplicate | BorderIsolated).String())
	assert.Equal(t, "BorderType(42)", BorderType(42).String())
	assert.False(t, BorderType(6).Valid())
	assert.True(t, (BorderWrap | BorderIsolated).Valid())

	for b := BorderConstant; b <= BorderTransparent; b++ {
		got, err := ParseBorderType(b.String())
		assert.NoError(t, err)
		assert.Equal(t, b, got)
	}
}
