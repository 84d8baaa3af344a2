package extrap

import (
	"sort"

	"github.com/pdfgrid/pdfgrid/pdf"
)

// Nearest moves each out-of-range coordinate onto the closest knot and
// interpolates there. Q² is clamped against the whole grid first, then x
// against the subgrid owning the clamped Q².
type Nearest struct {
	g pdf.Grid
}

func NewNearest(g pdf.Grid) *Nearest { return &Nearest{g: g} }

func (n *Nearest) Extrapolate(id int, x, q2 float64) float64 {
	x, q2 = clampToGrid(n.g.Knots(), x, q2)
	return n.g.Interpolator().Interpolate(id, x, q2)
}

// clampToGrid returns the in-range point nearest-point extrapolation uses.
func clampToGrid(ka *pdf.KnotArray, x, q2 float64) (float64, float64) {
	if !ka.InRangeQ2(q2) {
		q2 = closestKnot(ka.Q2Knots(), q2)
	}
	sg, _ := ka.SubgridFor(q2)
	if !sg.InRangeX(x) {
		x = closestKnot(sg.XKnots(), x)
	}
	return x, q2
}

// closestKnot returns the knot numerically closest to v. A v exactly halfway
// between two knots resolves to the lower one.
func closestKnot(ks []float64, v float64) float64 {
	i := sort.SearchFloat64s(ks, v)
	switch {
	case i == 0:
		return ks[0]
	case i == len(ks):
		return ks[len(ks)-1]
	}
	lo, hi := ks[i-1], ks[i]
	if hi-v < v-lo {
		return hi
	}
	return lo
}
