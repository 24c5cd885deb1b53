package core

import (
	"fmt"
	"strconv"
	"strings"
)

// Depth identifies the numeric type of a single channel.
type Depth uint8

const (
	// U8 is 8-bit unsigned.
	U8 Depth = iota
	// S8 is 8-bit signed.
	S8
	// U16 is 16-bit unsigned.
	U16
	// S16 is 16-bit signed.
	S16
	// S32 is 32-bit signed.
	S32
	// F32 is 32-bit IEEE float.
	F32
	// F64 is 64-bit IEEE float.
	F64
	// U32 is 32-bit unsigned.
	U32

	depthCount
)

// MaxChannels is the largest channel count an ElemType can encode.
const MaxChannels = 512

const (
	depthBits = 3
	depthMask = 1<<depthBits - 1
)

var depthSizes = [depthCount]int{
	U8:  1,
	S8:  1,
	U16: 2,
	S16: 2,
	S32: 4,
	F32: 4,
	F64: 8,
	U32: 4,
}

var depthNames = [depthCount]string{
	U8:  "8U",
	S8:  "8S",
	U16: "16U",
	S16: "16S",
	S32: "32S",
	F32: "32F",
	F64: "64F",
	U32: "32U",
}

// Valid reports whether d is one of the eight known depths.
func (d Depth) Valid() bool {
	return d < depthCount
}

// Size returns the byte width of one channel of this depth.
// Returns 0 for an invalid depth.
func (d Depth) Size() int {
	if !d.Valid() {
		return 0
	}
	return depthSizes[d]
}

// IsFloat reports whether d is F32 or F64.
func (d Depth) IsFloat() bool {
	return d == F32 || d == F64
}

// String returns the short depth name ("8U", "32F", ...).
func (d Depth) String() string {
	if !d.Valid() {
		return "Depth(" + strconv.Itoa(int(d)) + ")"
	}
	return depthNames[d]
}

// ElemType packs a depth and a channel count into a single value.
// The low three bits hold the depth, the remaining bits hold channels-1.
type ElemType int32

// MakeType encodes (depth, channels). It does not validate its arguments;
// use Valid on the result.
func MakeType(d Depth, channels int) ElemType {
	return ElemType(int32(d)&depthMask | int32(channels-1)<<depthBits)
}

// Common element types.
var (
	U8C1  = MakeType(U8, 1)
	U8C2  = MakeType(U8, 2)
	U8C3  = MakeType(U8, 3)
	U8C4  = MakeType(U8, 4)
	S8C1  = MakeType(S8, 1)
	U16C1 = MakeType(U16, 1)
	U16C3 = MakeType(U16, 3)
	S16C1 = MakeType(S16, 1)
	S16C3 = MakeType(S16, 3)
	S32C1 = MakeType(S32, 1)
	U32C1 = MakeType(U32, 1)
	F32C1 = MakeType(F32, 1)
	F32C3 = MakeType(F32, 3)
	F32C4 = MakeType(F32, 4)
	F64C1 = MakeType(F64, 1)
	F64C3 = MakeType(F64, 3)
)

// Depth returns the channel depth.
func (t ElemType) Depth() Depth {
	return Depth(int32(t) & depthMask)
}

// Channels returns the channel count.
func (t ElemType) Channels() int {
	return int(int32(t)>>depthBits) + 1
}

// Valid reports whether the depth is known and the channel count is in [1, MaxChannels].
func (t ElemType) Valid() bool {
	if t < 0 {
		return false
	}
	cn := t.Channels()
	return t.Depth().Valid() && cn >= 1 && cn <= MaxChannels
}

// ElemSize returns the size of one element (all channels) in bytes.
func (t ElemType) ElemSize() int {
	return t.Channels() * t.Depth().Size()
}

// ElemSize1 returns the size of one channel in bytes.
func (t ElemType) ElemSize1() int {
	return t.Depth().Size()
}

// WithDepth returns a type with the same channel count and a different depth.
func (t ElemType) WithDepth(d Depth) ElemType {
	return MakeType(d, t.Channels())
}

// String returns names such as "8UC1" or "32FC3".
func (t ElemType) String() string {
	return t.Depth().String() + "C" + strconv.Itoa(t.Channels())
}

// ParseType parses "8UC3" or the long form "8U,3ch".
func ParseType(s string) (ElemType, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	var depthPart, cnPart string
	if i := strings.IndexByte(s, ','); i >= 0 {
		depthPart = s[:i]
		cnPart = strings.TrimSuffix(strings.TrimSpace(s[i+1:]), "CH")
	} else if i := strings.LastIndexByte(s, 'C'); i > 0 {
		depthPart, cnPart = s[:i], s[i+1:]
	} else {
		depthPart, cnPart = s, "1"
	}

	d := depthCount
	for i, name := range depthNames {
		if name == depthPart {
			d = Depth(i)
			break
		}
	}
	if d == depthCount {
		return 0, fmt.Errorf("%w: unknown depth %q", ErrBadArg, depthPart)
	}
	cn, err := strconv.Atoi(strings.TrimSpace(cnPart))
	if err != nil || cn < 1 || cn > MaxChannels {
		return 0, fmt.Errorf("%w: bad channel count %q", ErrBadArg, cnPart)
	}
	return MakeType(d, cn), nil
}
