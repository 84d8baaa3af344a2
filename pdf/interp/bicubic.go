package interp

import (
	"math"
	"sync/atomic"

	"github.com/pdfgrid/pdfgrid/pdf"
)

// Bicubic is a tensor-product cubic Hermite interpolator in (x, Q²) or in
// (log x, log Q²). Knot slopes along x are computed once at construction;
// the per-cell Hermite coefficients along x are filled in on first use.
type Bicubic struct {
	ka       *pdf.KnotArray
	logspace bool
	grids    []*cubicGrid // parallel to ka.Subgrids()
}

// hermiteCell holds f0, f1 and the width-scaled slopes of one x segment.
type hermiteCell [4]float64

type cubicGrid struct {
	sg     *pdf.Subgrid
	xs, qs []float64 // knots in the interpolation space
	dfdx   []float64 // same layout as the subgrid's value table
	cells  []atomic.Pointer[hermiteCell]
}

// NewBicubic binds a bicubic interpolator to ka and precomputes x slopes.
func NewBicubic(ka *pdf.KnotArray, logspace bool) *Bicubic {
	b := &Bicubic{ka: ka, logspace: logspace}
	for _, sg := range ka.Subgrids() {
		b.grids = append(b.grids, newCubicGrid(sg, logspace))
	}
	return b
}

func newCubicGrid(sg *pdf.Subgrid, logspace bool) *cubicGrid {
	g := &cubicGrid{sg: sg, xs: sg.XKnots(), qs: sg.Q2Knots()}
	if logspace {
		g.xs, g.qs = sg.LogXKnots(), sg.LogQ2Knots()
	}
	nf, nx, nq := len(sg.Flavors()), sg.NX(), sg.NQ2()
	g.dfdx = make([]float64, nf*nx*nq)
	for fi := 0; fi < nf; fi++ {
		for iq := 0; iq < nq; iq++ {
			f := func(ix int) float64 { return sg.At(fi, ix, iq) }
			for ix := 0; ix < nx; ix++ {
				g.dfdx[(fi*nx+ix)*nq+iq] = slope(g.xs, f, ix)
			}
		}
	}
	g.cells = make([]atomic.Pointer[hermiteCell], nf*(nx-1)*nq)
	return g
}

// cell returns the Hermite coefficients of x segment ix at Q² knot iq,
// computing and publishing them on first use. Concurrent first uses may
// compute the same cell twice; the results are identical.
func (g *cubicGrid) cell(fi, ix, iq int) *hermiteCell {
	nx, nq := len(g.xs), len(g.qs)
	slot := &g.cells[(fi*(nx-1)+ix)*nq+iq]
	if c := slot.Load(); c != nil {
		return c
	}
	dx := g.xs[ix+1] - g.xs[ix]
	c := &hermiteCell{
		g.sg.At(fi, ix, iq),
		g.sg.At(fi, ix+1, iq),
		dx * g.dfdx[(fi*nx+ix)*nq+iq],
		dx * g.dfdx[(fi*nx+ix+1)*nq+iq],
	}
	slot.Store(c)
	return c
}

func (g *cubicGrid) alongX(fi, ix, iq int, tx float64) float64 {
	c := g.cell(fi, ix, iq)
	return hermite(tx, c[0], c[1], c[2], c[3])
}

func (b *Bicubic) Interpolate(id int, x, q2 float64) float64 {
	sg, i := b.ka.SubgridFor(q2)
	fi, ok := sg.FlavorIndex(id)
	if !ok {
		return 0
	}
	g := b.grids[i]
	ix, iq := sg.CellX(x), sg.CellQ2(q2)
	u, v := x, q2
	if b.logspace {
		u, v = math.Log(x), math.Log(q2)
	}
	tx := (u - g.xs[ix]) / (g.xs[ix+1] - g.xs[ix])
	tq := (v - g.qs[iq]) / (g.qs[iq+1] - g.qs[iq])

	// Values along x at the Q² knots of the stencil iq-1 .. iq+2; the outer
	// two are only needed away from the subgrid edges.
	nq := len(g.qs)
	f0 := g.alongX(fi, ix, iq, tx)
	f1 := g.alongX(fi, ix, iq+1, tx)
	dq := g.qs[iq+1] - g.qs[iq]
	secant := (f1 - f0) / dq

	m0 := secant
	if iq > 0 {
		fm := g.alongX(fi, ix, iq-1, tx)
		m0 = 0.5 * (secant + (f0-fm)/(g.qs[iq]-g.qs[iq-1]))
	}
	m1 := secant
	if iq+2 < nq {
		fp := g.alongX(fi, ix, iq+2, tx)
		m1 = 0.5 * (secant + (fp-f1)/(g.qs[iq+2]-g.qs[iq+1]))
	}
	return hermite(tq, f0, f1, dq*m0, dq*m1)
}
