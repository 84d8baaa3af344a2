package extrap

import (
	"math"

	"github.com/pdfgrid/pdfgrid/pdf"
)

// anomalousFloor is the smallest anchor value for which the low-Q² power law
// takes its exponent from the data; below it the exponent is 1.
const anomalousFloor = 1e-5

// Continuation extends the grid past its edges through the two boundary knots
// on each axis instead of clamping. In x, and in Q² above the grid, the
// extension is linear in log-log space when both anchors are positive and
// linear in the log of the coordinate otherwise. Below the grid in Q² it is a
// power law whose exponent is the local anomalous dimension at the lowest
// knots, damped so the value vanishes as Q² goes to 0. A non-finite result
// falls back to the nearest-point value.
type Continuation struct {
	g       pdf.Grid
	nearest *Nearest
}

func NewContinuation(g pdf.Grid) *Continuation {
	return &Continuation{g: g, nearest: NewNearest(g)}
}

func (c *Continuation) Extrapolate(id int, x, q2 float64) float64 {
	v := c.extrapolate(id, x, q2)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return c.nearest.Extrapolate(id, x, q2)
	}
	return v
}

func (c *Continuation) extrapolate(id int, x, q2 float64) float64 {
	ka := c.g.Knots()
	if ka.InRangeQ2(q2) {
		return c.alongX(id, x, q2)
	}
	q2s := ka.Q2Knots()
	if q2 > ka.Q2Max() {
		n := len(q2s)
		f0 := c.alongX(id, x, q2s[n-2])
		f1 := c.alongX(id, x, q2s[n-1])
		return continueLog(q2s[n-1], q2s[n-2], f1, f0, q2)
	}

	q0, q1 := q2s[0], q2s[1]
	f0 := c.alongX(id, x, q0)
	f1 := c.alongX(id, x, q1)
	anom := 1.0
	if f0 > anomalousFloor && f1 > anomalousFloor {
		anom = math.Log(f1/f0) / math.Log(q1/q0)
	}
	r := q2 / q0
	return f0 * math.Pow(r, anom*r+1-r)
}

// alongX evaluates at an in-range q2, continuing in x when x is outside the
// owning subgrid.
func (c *Continuation) alongX(id int, x, q2 float64) float64 {
	in := c.g.Interpolator()
	sg, _ := c.g.Knots().SubgridFor(q2)
	if sg.InRangeX(x) {
		return in.Interpolate(id, x, q2)
	}
	xs := sg.XKnots()
	if x < sg.XMin() {
		return continueLog(xs[0], xs[1], in.Interpolate(id, xs[0], q2), in.Interpolate(id, xs[1], q2), x)
	}
	n := len(xs)
	return continueLog(xs[n-1], xs[n-2], in.Interpolate(id, xs[n-1], q2), in.Interpolate(id, xs[n-2], q2), x)
}

// continueLog extends the line through (k0, f0) and (k1, f1) to k, where k0
// is the boundary knot. The abscissa is log k; the ordinate is log f when
// both anchors are positive and f otherwise.
func continueLog(k0, k1, f0, f1, k float64) float64 {
	t := (math.Log(k) - math.Log(k0)) / (math.Log(k1) - math.Log(k0))
	if f0 > 0 && f1 > 0 {
		return f0 * math.Exp(t*(math.Log(f1)-math.Log(f0)))
	}
	return f0 + t*(f1-f0)
}
