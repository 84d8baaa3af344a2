package interp

import (
	"math"

	"github.com/pdfgrid/pdfgrid/pdf"
)

// Bilinear interpolates linearly between the four knots around (x, Q²),
// either in (x, Q²) or in (log x, log Q²).
type Bilinear struct {
	ka       *pdf.KnotArray
	logspace bool
}

// NewBilinear binds a bilinear interpolator to ka.
func NewBilinear(ka *pdf.KnotArray, logspace bool) *Bilinear {
	return &Bilinear{ka: ka, logspace: logspace}
}

func (b *Bilinear) Interpolate(id int, x, q2 float64) float64 {
	sg, _ := b.ka.SubgridFor(q2)
	fi, ok := sg.FlavorIndex(id)
	if !ok {
		return 0
	}
	ix, iq := sg.CellX(x), sg.CellQ2(q2)
	xs, qs, u, v := sg.XKnots(), sg.Q2Knots(), x, q2
	if b.logspace {
		xs, qs, u, v = sg.LogXKnots(), sg.LogQ2Knots(), math.Log(x), math.Log(q2)
	}
	tx := (u - xs[ix]) / (xs[ix+1] - xs[ix])
	tq := (v - qs[iq]) / (qs[iq+1] - qs[iq])

	lo := lerp(sg.At(fi, ix, iq), sg.At(fi, ix+1, iq), tx)
	hi := lerp(sg.At(fi, ix, iq+1), sg.At(fi, ix+1, iq+1), tx)
	return lerp(lo, hi, tq)
}
