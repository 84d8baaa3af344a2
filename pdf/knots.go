package pdf

import (
	"fmt"
	"math"
	"slices"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// Subgrid is one rectangular block of tabulated values sharing a Q² range
// and flavor list. Values are stored flavor-major: index (fi*nx + ix)*nq + iq.
type Subgrid struct {
	xs, q2s       []float64
	logxs, logq2s []float64
	flavors       []int
	flavorIdx     map[int]int
	values        []float64
}

// NewSubgrid validates and wraps a dense value table laid out as
// (flavor, x-knot, Q²-knot). The slices are retained, not copied.
func NewSubgrid(xs, q2s []float64, flavors []int, values []float64) (*Subgrid, error) {
	if err := checkKnots("x", xs); err != nil {
		return nil, err
	}
	if err := checkKnots("Q2", q2s); err != nil {
		return nil, err
	}
	if len(flavors) == 0 {
		return nil, fmt.Errorf("subgrid has no flavors")
	}
	idx := make(map[int]int, len(flavors))
	for i, id := range flavors {
		if _, dup := idx[id]; dup {
			return nil, fmt.Errorf("duplicate flavor id %d", id)
		}
		idx[id] = i
	}
	if want := len(flavors) * len(xs) * len(q2s); len(values) != want {
		return nil, fmt.Errorf("value table has %d entries, want %d (%d flavors x %d x-knots x %d Q2-knots)",
			len(values), want, len(flavors), len(xs), len(q2s))
	}
	return &Subgrid{
		xs:        xs,
		q2s:       q2s,
		logxs:     logAll(xs),
		logq2s:    logAll(q2s),
		flavors:   flavors,
		flavorIdx: idx,
		values:    values,
	}, nil
}

func checkKnots(axis string, ks []float64) error {
	if len(ks) < 2 {
		return fmt.Errorf("%s axis needs at least 2 knots, got %d", axis, len(ks))
	}
	for i, k := range ks {
		if !(k > 0) || math.IsInf(k, 0) {
			return fmt.Errorf("%s knot %d is %g, must be positive and finite", axis, i, k)
		}
		if i > 0 && k <= ks[i-1] {
			return fmt.Errorf("%s knots not strictly increasing at index %d (%g after %g)", axis, i, k, ks[i-1])
		}
	}
	return nil
}

func logAll(ks []float64) []float64 {
	out := make([]float64, len(ks))
	for i, k := range ks {
		out[i] = math.Log(k)
	}
	return out
}

func (sg *Subgrid) XKnots() []float64     { return sg.xs }
func (sg *Subgrid) Q2Knots() []float64    { return sg.q2s }
func (sg *Subgrid) LogXKnots() []float64  { return sg.logxs }
func (sg *Subgrid) LogQ2Knots() []float64 { return sg.logq2s }
func (sg *Subgrid) Flavors() []int        { return sg.flavors }
func (sg *Subgrid) NX() int               { return len(sg.xs) }
func (sg *Subgrid) NQ2() int              { return len(sg.q2s) }

func (sg *Subgrid) XMin() float64  { return sg.xs[0] }
func (sg *Subgrid) XMax() float64  { return sg.xs[len(sg.xs)-1] }
func (sg *Subgrid) Q2Min() float64 { return sg.q2s[0] }
func (sg *Subgrid) Q2Max() float64 { return sg.q2s[len(sg.q2s)-1] }

func (sg *Subgrid) InRangeX(x float64) bool    { return x >= sg.XMin() && x <= sg.XMax() }
func (sg *Subgrid) InRangeQ2(q2 float64) bool { return q2 >= sg.Q2Min() && q2 <= sg.Q2Max() }

// FlavorIndex maps a flavor id to its layer in the value table.
func (sg *Subgrid) FlavorIndex(id int) (int, bool) {
	fi, ok := sg.flavorIdx[id]
	return fi, ok
}

// CellX returns the lower knot index of the x cell containing x, clamped to [0, nx-2].
// A point on an interior knot belongs to the cell starting at that knot.
func (sg *Subgrid) CellX(x float64) int { return cellIndex(sg.xs, x) }

// CellQ2 is CellX for the Q² axis.
func (sg *Subgrid) CellQ2(q2 float64) int { return cellIndex(sg.q2s, q2) }

func cellIndex(ks []float64, v float64) int {
	i := sort.Search(len(ks), func(i int) bool { return ks[i] > v }) - 1
	return min(max(i, 0), len(ks)-2)
}

// At returns the stored value without bounds checks. fi is a flavor layer
// index as returned by FlavorIndex.
func (sg *Subgrid) At(fi, ix, iq int) float64 {
	return sg.values[(fi*len(sg.xs)+ix)*len(sg.q2s)+iq]
}

// SetAt overwrites a stored value. Interpolators built before the change may
// hold stale derived data and must be rebuilt.
func (sg *Subgrid) SetAt(fi, ix, iq int, v float64) {
	sg.values[(fi*len(sg.xs)+ix)*len(sg.q2s)+iq] = v
}

// ValueAt returns the stored value for a flavor id and knot pair.
func (sg *Subgrid) ValueAt(id, ix, iq int) (float64, error) {
	fi, ok := sg.flavorIdx[id]
	if !ok {
		return 0, &RangeError{Quantity: "flavor", Value: float64(id)}
	}
	if ix < 0 || ix >= len(sg.xs) {
		return 0, &RangeError{Quantity: "x index", Value: float64(ix)}
	}
	if iq < 0 || iq >= len(sg.q2s) {
		return 0, &RangeError{Quantity: "Q2 index", Value: float64(iq)}
	}
	return sg.At(fi, ix, iq), nil
}

// KnotArray is the full tabulation: subgrids ordered by Q², each sharing its
// lowest Q² knot with the previous subgrid's highest one.
type KnotArray struct {
	subgrids []*Subgrid
	xs       []float64 // sorted union of x knots
	q2s      []float64 // concatenated Q² knots, shared boundaries once
	q2owner  []int     // subgrid index owning each entry of q2s
	q2local  []int     // knot index within the owning subgrid
	xmin     float64
	xmax     float64
}

// NewKnotArray checks Q² contiguity and flavor agreement across subgrids.
func NewKnotArray(subgrids []*Subgrid) (*KnotArray, error) {
	if len(subgrids) == 0 {
		return nil, fmt.Errorf("knot array needs at least one subgrid")
	}
	ka := &KnotArray{subgrids: subgrids}
	mins := make([]float64, len(subgrids))
	maxs := make([]float64, len(subgrids))
	var xs []float64
	for i, sg := range subgrids {
		if i > 0 {
			prev := subgrids[i-1]
			if sg.Q2Min() != prev.Q2Max() {
				return nil, fmt.Errorf("subgrid %d starts at Q2=%g but subgrid %d ends at Q2=%g", i, sg.Q2Min(), i-1, prev.Q2Max())
			}
			if !slices.Equal(sg.flavors, prev.flavors) {
				return nil, fmt.Errorf("subgrid %d flavors %v differ from subgrid %d flavors %v", i, sg.flavors, i-1, prev.flavors)
			}
		}
		// The shared boundary knot belongs to the lower subgrid.
		start := 0
		if i > 0 {
			start = 1
		}
		for iq := start; iq < len(sg.q2s); iq++ {
			ka.q2s = append(ka.q2s, sg.q2s[iq])
			ka.q2owner = append(ka.q2owner, i)
			ka.q2local = append(ka.q2local, iq)
		}
		mins[i], maxs[i] = sg.XMin(), sg.XMax()
		xs = append(xs, sg.xs...)
	}
	slices.Sort(xs)
	ka.xs = slices.Compact(xs)
	ka.xmin, ka.xmax = floats.Min(mins), floats.Max(maxs)
	return ka, nil
}

func (ka *KnotArray) Subgrids() []*Subgrid { return ka.subgrids }
func (ka *KnotArray) Len() int             { return len(ka.subgrids) }

// XKnots is the sorted union of every subgrid's x knots.
func (ka *KnotArray) XKnots() []float64 { return ka.xs }

// Q2Knots lists all Q² knots in order with shared subgrid boundaries appearing once.
func (ka *KnotArray) Q2Knots() []float64 { return ka.q2s }

func (ka *KnotArray) Flavors() []int { return ka.subgrids[0].flavors }

func (ka *KnotArray) HasFlavor(id int) bool {
	_, ok := ka.subgrids[0].flavorIdx[id]
	return ok
}

func (ka *KnotArray) XMin() float64  { return ka.xmin }
func (ka *KnotArray) XMax() float64  { return ka.xmax }
func (ka *KnotArray) Q2Min() float64 { return ka.subgrids[0].Q2Min() }
func (ka *KnotArray) Q2Max() float64 { return ka.subgrids[len(ka.subgrids)-1].Q2Max() }

func (ka *KnotArray) InRangeX(x float64) bool    { return x >= ka.xmin && x <= ka.xmax }
func (ka *KnotArray) InRangeQ2(q2 float64) bool { return q2 >= ka.Q2Min() && q2 <= ka.Q2Max() }

// InRange reports whether (x, q2) can be interpolated: q2 inside the array and
// x inside the subgrid that owns q2.
func (ka *KnotArray) InRange(x, q2 float64) bool {
	if !ka.InRangeQ2(q2) {
		return false
	}
	sg, _ := ka.SubgridFor(q2)
	return sg.InRangeX(x)
}

// SubgridFor returns the subgrid owning q2 and its position. A q2 equal to a
// shared boundary knot resolves to the lower subgrid; out-of-range values
// resolve to the first or last subgrid.
func (ka *KnotArray) SubgridFor(q2 float64) (*Subgrid, int) {
	for i, sg := range ka.subgrids {
		if q2 <= sg.Q2Max() {
			return sg, i
		}
	}
	last := len(ka.subgrids) - 1
	return ka.subgrids[last], last
}

// ValueAt is bounds-checked raw access. q2Idx indexes Q2Knots(); xIdx indexes
// the x knots of the subgrid owning that Q² knot.
func (ka *KnotArray) ValueAt(flavor, xIdx, q2Idx int) (float64, error) {
	if q2Idx < 0 || q2Idx >= len(ka.q2s) {
		return 0, &RangeError{Quantity: "Q2 index", Value: float64(q2Idx)}
	}
	sg := ka.subgrids[ka.q2owner[q2Idx]]
	return sg.ValueAt(flavor, xIdx, ka.q2local[q2Idx])
}
