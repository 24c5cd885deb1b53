package filter

import (
	"fmt"
	"strings"

	"github.com/openhl/openhl/core"
)

// BorderType selects how pixels outside the image are synthesized.
type BorderType int

// Border policies. The numeric values are stable.
const (
	// BorderConstant uses a configured constant value: iiiiii|abcdefgh|iiiiiii.
	BorderConstant BorderType = 0
	// BorderReplicate repeats the edge pixel: aaaaaa|abcdefgh|hhhhhhh.
	BorderReplicate BorderType = 1
	// BorderReflect mirrors including the edge pixel: fedcba|abcdefgh|hgfedcb.
	BorderReflect BorderType = 2
	// BorderWrap tiles the image: cdefgh|abcdefgh|abcdefg.
	BorderWrap BorderType = 3
	// BorderReflect101 mirrors around the edge pixel: gfedcb|abcdefgh|gfedcba.
	BorderReflect101 BorderType = 4
	// BorderTransparent leaves outside pixels untouched. Filters reject it
	// in any direction the kernel extends.
	BorderTransparent BorderType = 5

	// BorderIsolated is a modifier: the ROI's own edges are the image edges,
	// even if the ROI is a view into a larger image.
	BorderIsolated BorderType = 16

	// BorderDefault is BorderReflect101.
	BorderDefault = BorderReflect101
)

var borderNames = [...]string{
	BorderConstant:    "constant",
	BorderReplicate:   "replicate",
	BorderReflect:     "reflect",
	BorderWrap:        "wrap",
	BorderReflect101:  "reflect101",
	BorderTransparent: "transparent",
}

// Base strips the BorderIsolated modifier.
func (b BorderType) Base() BorderType {
	return b &^ BorderIsolated
}

// Isolated reports whether the BorderIsolated modifier is set.
func (b BorderType) Isolated() bool {
	return b&BorderIsolated != 0
}

// Valid reports whether b is a known policy, optionally with BorderIsolated.
func (b BorderType) Valid() bool {
	base := b.Base()
	return base >= BorderConstant && base <= BorderTransparent
}

func (b BorderType) String() string {
	if !b.Valid() {
		return fmt.Sprintf("BorderType(%d)", int(b))
	}
	s := borderNames[b.Base()]
	if b.Isolated() {
		s += "|isolated"
	}
	return s
}

// ParseBorderType parses names such as "reflect101" or "replicate|isolated".
// "default" and "reflect_101" are accepted as aliases.
func ParseBorderType(s string) (BorderType, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	var b BorderType
	if base, mod, ok := strings.Cut(name, "|"); ok {
		if strings.TrimSpace(mod) != "isolated" {
			return 0, fmt.Errorf("%w: unknown border modifier %q", core.ErrBadArg, mod)
		}
		b = BorderIsolated
		name = strings.TrimSpace(base)
	}
	name = strings.ReplaceAll(name, "_", "")
	if name == "default" {
		return b | BorderDefault, nil
	}
	for i, n := range borderNames {
		if n == name {
			return b | BorderType(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown border type %q", core.ErrBadArg, s)
}

// BorderInterpolate maps coordinate p of an axis with length elements to the
// source coordinate that supplies its value under policy bt. In-range
// coordinates map to themselves. BorderConstant and BorderTransparent return
// -1: the caller supplies the value itself.
//
// FilterEngine calls this only while building its border tables, never per pixel.
// length must be positive; an unknown policy panics.
func BorderInterpolate(p, length int, bt BorderType) int {
	if uint(p) < uint(length) {
		return p
	}
	core.Assert(length > 0, "border interpolation over empty axis")

	switch bt.Base() {
	case BorderReplicate:
		if p < 0 {
			return 0
		}
		return length - 1

	case BorderReflect, BorderReflect101:
		if length == 1 {
			return 0
		}
		delta := 0
		if bt.Base() == BorderReflect101 {
			delta = 1
		}
		for {
			if p < 0 {
				p = -p - 1 + delta
			} else {
				p = length - 1 - (p - length) - delta
			}
			if uint(p) < uint(length) {
				return p
			}
		}

	case BorderWrap:
		if p < 0 {
			p -= ((p - length + 1) / length) * length
		}
		if p >= length {
			p %= length
		}
		return p

	case BorderConstant, BorderTransparent:
		return -1
	}
	panic(core.Errorf(core.CodeBadArg, "unknown border type %d", int(bt)))
}
