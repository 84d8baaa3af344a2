package interp

// lerp is written as (1-t)a + tb so t == 0 and t == 1 return a and b exactly.
func lerp(a, b, t float64) float64 {
	return (1-t)*a + t*b
}

// hermite evaluates the cubic Hermite segment between f0 and f1 at t in
// [0, 1]. m0 and m1 are endpoint slopes already scaled by the segment width.
// The basis is exact at both ends: t == 0 yields f0, t == 1 yields f1.
func hermite(t, f0, f1, m0, m1 float64) float64 {
	t2 := t * t
	t3 := t2 * t
	h00 := 2*t3 - 3*t2 + 1
	h10 := t3 - 2*t2 + t
	h01 := -2*t3 + 3*t2
	h11 := t3 - t2
	return h00*f0 + h10*m0 + h01*f1 + h11*m1
}

// slope estimates df/dk at knot i: one-sided at either end, otherwise the
// mean of the two adjacent secants.
func slope(ks []float64, f func(i int) float64, i int) float64 {
	n := len(ks)
	switch i {
	case 0:
		return (f(1) - f(0)) / (ks[1] - ks[0])
	case n - 1:
		return (f(n-1) - f(n-2)) / (ks[n-1] - ks[n-2])
	}
	fwd := (f(i+1) - f(i)) / (ks[i+1] - ks[i])
	bwd := (f(i) - f(i-1)) / (ks[i] - ks[i-1])
	return 0.5 * (fwd + bwd)
}
