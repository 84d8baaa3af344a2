package extrap

import (
	"math"

	"github.com/pdfgrid/pdfgrid/pdf"
)

const (
	defaultGrowth    = 1.0
	defaultMaxFactor = 2.0
)

// ErrorScaled returns the nearest-point value scaled up by a factor that
// grows with the distance outside the grid, capped at a maximum. Distance is
// measured in log space in units of the grid's span on that axis, summed over
// both axes. Growth and cap come from the metadata keys ExtrapolationGrowth
// and ExtrapolationMaxFactor; zero means the default (1 and 2).
type ErrorScaled struct {
	g       pdf.Grid
	nearest *Nearest
}

func NewErrorScaled(g pdf.Grid) *ErrorScaled {
	return &ErrorScaled{g: g, nearest: NewNearest(g)}
}

func (e *ErrorScaled) Extrapolate(id int, x, q2 float64) float64 {
	base := e.nearest.Extrapolate(id, x, q2)
	growth, maxFactor := defaultGrowth, defaultMaxFactor
	if info := e.g.Info(); info != nil {
		if info.ExtrapolationGrowth > 0 {
			growth = info.ExtrapolationGrowth
		}
		if info.ExtrapolationMaxFactor > 0 {
			maxFactor = info.ExtrapolationMaxFactor
		}
	}
	ka := e.g.Knots()
	sg, _ := ka.SubgridFor(q2)
	d := outside(sg.XMin(), sg.XMax(), x) + outside(ka.Q2Min(), ka.Q2Max(), q2)
	if !(d > 0) {
		return base
	}
	return base * (1 + min(growth*d, maxFactor-1))
}

// outside is how far v lies beyond [lo, hi] in log space, in units of
// log(hi/lo). Zero or negative v is infinitely far below.
func outside(lo, hi, v float64) float64 {
	span := math.Log(hi) - math.Log(lo)
	switch {
	case v >= lo && v <= hi:
		return 0
	case v <= 0:
		return math.Inf(1)
	case v < lo:
		return (math.Log(lo) - math.Log(v)) / span
	default:
		return (math.Log(v) - math.Log(hi)) / span
	}
}
