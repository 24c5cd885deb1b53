package core

// cvtFunc converts n channel values from src to dst as dst = sat(src*alpha + beta).
type cvtFunc func(src, dst []byte, n int, alpha, beta float64)

// cvtTable[src][dst] holds one conversion per depth pair, built at init.
var cvtTable [depthCount][depthCount]cvtFunc

func init() {
	cvtTable = [depthCount][depthCount]cvtFunc{
		U8:  cvtRowFor[uint8](),
		S8:  cvtRowFor[int8](),
		U16: cvtRowFor[uint16](),
		S16: cvtRowFor[int16](),
		S32: cvtRowFor[int32](),
		F32: cvtRowFor[float32](),
		F64: cvtRowFor[float64](),
		U32: cvtRowFor[uint32](),
	}
}

func cvtRowFor[S Number]() [depthCount]cvtFunc {
	return [depthCount]cvtFunc{
		U8:  cvtScale[S](SaturateU8),
		S8:  cvtScale[S](SaturateS8),
		U16: cvtScale[S](SaturateU16),
		S16: cvtScale[S](SaturateS16),
		S32: cvtScale[S](SaturateS32),
		F32: cvtScale[S](SaturateF32),
		F64: cvtScale[S](SaturateF64),
		U32: cvtScale[S](SaturateU32),
	}
}

func cvtScale[S, D Number](sat func(float64) D) cvtFunc {
	return func(src, dst []byte, n int, alpha, beta float64) {
		s := Cast[S](src)[:n]
		d := Cast[D](dst)[:n]
		if alpha == 1 && beta == 0 {
			for i, v := range s {
				d[i] = sat(float64(v))
			}
			return
		}
		for i, v := range s {
			d[i] = sat(float64(v)*alpha + beta)
		}
	}
}

// ConvertTo writes m converted to depth into dst: dst = saturate(m*alpha + beta).
// The channel count is preserved. dst may be m itself.
func (m *Mat) ConvertTo(dst *Mat, depth Depth, alpha, beta float64) error {
	if dst == nil {
		return Errorf(CodeBadArg, "nil destination")
	}
	if !depth.Valid() {
		return Errorf(CodeBadArg, "invalid depth %v", depth)
	}
	dtype := m.typ.WithDepth(depth)
	if m.Empty() {
		dst.Release()
		return nil
	}
	if depth == m.Depth() && alpha == 1 && beta == 0 {
		return m.CopyTo(dst)
	}

	target := dst
	if m.Overlaps(dst) || dst == m {
		target = &Mat{allocator: dst.allocator}
	}
	if err := target.CreateND(m.shape.Size, dtype); err != nil {
		return err
	}

	fn := cvtTable[m.Depth()][depth]
	cn := m.Channels()
	if m.IsContinuous() && target.IsContinuous() {
		n := m.Total() * cn
		fn(m.buf[m.off:], target.buf[target.off:], n, alpha, beta)
	} else {
		n := m.shape.Size[m.Dims()-1] * cn
		forEachRow(m.shape.Size, func(idx []int) {
			fn(m.buf[m.offsetOf(idx):], target.buf[target.offsetOf(idx):], n, alpha, beta)
		})
	}

	if target != dst {
		dst.Release()
		*dst = *target
	}
	return nil
}

// ScalarToBytes encodes s as one element of typ, saturating each channel.
func ScalarToBytes(s Scalar, typ ElemType) []byte {
	cn := typ.Channels()
	out := make([]byte, typ.ElemSize())
	vals := make([]float64, cn)
	for c := range cn {
		vals[c] = s.Channel(c)
	}
	cvtTable[F64][typ.Depth()](AsBytes(vals), out, cn, 1, 0)
	return out
}

// SetTo fills every element of m with s.
func (m *Mat) SetTo(s Scalar) {
	if m.Empty() {
		return
	}
	elem := ScalarToBytes(s, m.typ)
	esz := len(elem)
	rowLen := m.shape.Size[m.Dims()-1] * esz
	fill := func(row []byte) {
		copy(row, elem)
		for filled := esz; filled < len(row); filled *= 2 {
			copy(row[filled:], row[:filled])
		}
	}
	if m.IsContinuous() {
		fill(m.buf[m.off : m.off+m.Total()*esz])
		return
	}
	forEachRow(m.shape.Size, func(idx []int) {
		o := m.offsetOf(idx)
		fill(m.buf[o : o+rowLen])
	})
}
