package wide

// DotRows sets dst[i] = delta + sum over j of k[j]*rows[j][i] for every i in
// dst. rows must hold len(k) rows, each at least len(dst) long.
func DotRows(dst []float32, rows [][]float32, k []float32, delta float32) {
	rows = rows[:len(k)]
	n := len(dst)
	i := 0
	for ; i+Lanes <= n; i += Lanes {
		acc := SplatF32(delta)
		for j, kv := range k {
			acc = acc.Add(SplatF32(kv).Mul(LoadF32(rows[j][i:])))
		}
		acc.Store(dst[i:])
	}
	for ; i < n; i++ {
		sum := delta
		for j, kv := range k {
			sum += kv * rows[j][i]
		}
		dst[i] = sum
	}
}

// MinRows sets dst[i] to the minimum of rows[j][i] over all rows.
func MinRows(dst []float32, rows [][]float32) {
	reduceRows(dst, rows, F32x8.Min, func(a, b float32) float32 { return min(a, b) })
}

// MaxRows sets dst[i] to the maximum of rows[j][i] over all rows.
func MaxRows(dst []float32, rows [][]float32) {
	reduceRows(dst, rows, F32x8.Max, func(a, b float32) float32 { return max(a, b) })
}

func reduceRows(dst []float32, rows [][]float32, lanes func(F32x8, F32x8) F32x8, scalar func(a, b float32) float32) {
	if len(rows) == 0 {
		return
	}
	n := len(dst)
	i := 0
	for ; i+Lanes <= n; i += Lanes {
		acc := LoadF32(rows[0][i:])
		for _, row := range rows[1:] {
			acc = lanes(acc, LoadF32(row[i:]))
		}
		acc.Store(dst[i:])
	}
	for ; i < n; i++ {
		v := rows[0][i]
		for _, row := range rows[1:] {
			v = scalar(v, row[i])
		}
		dst[i] = v
	}
}
