package pdf

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/pdfgrid/pdfgrid/pdf/filecache"
)

// Flavor id used for the gluon; id 0 is accepted as an alias.
const gluonID = 21

// forcePositiveFloor is the lower clamp applied when ForcePositive is 2.
const forcePositiveFloor = 1e-10

// GridPDF is one member of a PDF set: a knot array with the interpolator
// used inside it and the extrapolator used outside it.
//
// Evaluation is safe for concurrent use. Replacing the interpolator or
// extrapolator is not safe concurrently with evaluation.
type GridPDF struct {
	env    *Env
	name   string
	member int
	info   Info
	knots  *KnotArray

	interp Interpolator
	extrap Extrapolator
}

// NewGridPDF loads member of set from env's search paths. The set's .info
// file is layered on env.Defaults, then the member file header on top.
func NewGridPDF(ctx context.Context, env *Env, set string, member int) (*GridPDF, error) {
	if member < 0 {
		return nil, &UserError{Input: strconv.Itoa(member), Msg: "negative member"}
	}
	info := env.Defaults.Clone()
	infoData, infoPath, err := env.FindFile(ctx, SetInfoPath(set))
	if err != nil {
		return nil, err
	}
	if err := info.Overlay(infoData); err != nil {
		return nil, &ReadError{Path: infoPath, Err: err}
	}
	if info.NumMembers > 0 && member >= info.NumMembers {
		return nil, &UserError{Input: fmt.Sprintf("%s/%d", set, member),
			Msg: fmt.Sprintf("set has %d members, no such member", info.NumMembers)}
	}
	data, dataPath, err := env.FindMemberFile(ctx, set, member)
	if err != nil {
		return nil, err
	}
	return assemble(env, set, member, info, dataPath, data)
}

// NewGridPDFFromID loads the member a global id maps to in env's index.
func NewGridPDFFromID(ctx context.Context, env *Env, id int) (*GridPDF, error) {
	idx, err := env.Index(ctx)
	if err != nil {
		return nil, err
	}
	set, member := idx.LookupPDF(id)
	if member < 0 {
		return nil, &UserError{Input: strconv.Itoa(id), Msg: "no indexed set covers id"}
	}
	return NewGridPDF(ctx, env, set, member)
}

// NewGridPDFFromString loads "set" or "set/member".
func NewGridPDFFromString(ctx context.Context, env *Env, s string) (*GridPDF, error) {
	set, member, err := ParsePDFString(s)
	if err != nil {
		return nil, err
	}
	return NewGridPDF(ctx, env, set, member)
}

// NewGridPDFFromPath loads a member data file given by path. The set name is
// the name of the enclosing directory; the member is parsed from a
// "<set>_NNNN.dat" file name and is 0 otherwise. The set's .info file next to
// the data file is used when present.
func NewGridPDFFromPath(ctx context.Context, env *Env, p string) (*GridPDF, error) {
	dir, base := splitPath(p)
	set := baseName(dir)
	member := memberFromFile(set, base)

	info := env.Defaults.Clone()
	infoPath := joinPath(dir, set+".info")
	infoData, err := env.Files.Read(ctx, infoPath)
	switch {
	case err == nil:
		if err := info.Overlay(infoData); err != nil {
			return nil, &ReadError{Path: infoPath, Err: err}
		}
	case errors.Is(err, filecache.ErrNotFound):
		logrus.Debugf("pdf: no set info at %s, using member header only", infoPath)
	default:
		return nil, &ReadError{Path: infoPath, Err: err}
	}

	data, err := env.Files.Read(ctx, p)
	if err != nil {
		return nil, &ReadError{Path: p, Err: err}
	}
	return assemble(env, set, member, info, p, data)
}

// NewGridPDFFromKnots wraps an in-memory knot array. env may be nil, in which
// case LHAPDFID relies on info.SetIndex alone.
func NewGridPDFFromKnots(env *Env, set string, member int, info Info, ka *KnotArray) (*GridPDF, error) {
	if err := info.validate(); err != nil {
		return nil, &UserError{Input: set, Msg: "invalid metadata for", Err: err}
	}
	p := &GridPDF{env: env, name: set, member: member, info: info, knots: ka}
	if err := p.installStrategies(); err != nil {
		return nil, err
	}
	return p, nil
}

func assemble(env *Env, set string, member int, info Info, dataPath string, data []byte) (*GridPDF, error) {
	header, ka, err := ParseGrid(dataPath, data)
	if err != nil {
		return nil, err
	}
	if err := info.Overlay(header); err != nil {
		return nil, &ReadError{Path: dataPath, Err: err}
	}
	if err := info.validate(); err != nil {
		return nil, &ReadError{Path: dataPath, Msg: "invalid metadata", Err: err}
	}
	p := &GridPDF{env: env, name: set, member: member, info: info, knots: ka}
	if err := p.installStrategies(); err != nil {
		return nil, err
	}
	logrus.Infof("pdf: loaded %s/%d from %s (%d subgrids, %d flavors, x in [%g, %g], Q2 in [%g, %g])",
		set, member, dataPath, ka.Len(), len(ka.Flavors()), ka.XMin(), ka.XMax(), ka.Q2Min(), ka.Q2Max())
	return p, nil
}

func (p *GridPDF) installStrategies() error {
	iname := p.info.Interpolator
	if iname == "" {
		iname = DefaultInterpolator
	}
	if err := p.SetInterpolator(iname); err != nil {
		return err
	}
	ename := p.info.Extrapolator
	if ename == "" {
		ename = DefaultExtrapolator
	}
	return p.SetExtrapolator(ename)
}

func splitPath(p string) (dir, base string) {
	if strings.HasPrefix(p, filecache.ObjectScheme) {
		return path.Split(p)
	}
	return filepath.Split(p)
}

func baseName(dir string) string {
	dir = strings.TrimRight(dir, `/\`)
	if i := strings.LastIndexAny(dir, `/\`); i >= 0 {
		return dir[i+1:]
	}
	return dir
}

func memberFromFile(set, base string) int {
	stem, _, _ := strings.Cut(base, ".")
	digits, ok := strings.CutPrefix(stem, set+"_")
	if !ok {
		return 0
	}
	m, err := strconv.Atoi(digits)
	if err != nil || m < 0 {
		return 0
	}
	return m
}

// Evaluate returns x·f(x, Q²) for flavor id. Id 0 means the gluon. Flavors
// the grid does not carry evaluate to 0. Points outside the grid are
// extrapolated; only a structurally invalid query is an error.
func (p *GridPDF) Evaluate(id int, x, q2 float64) (float64, error) {
	if math.IsNaN(x) || x < 0 || x > 1 {
		return 0, &RangeError{Quantity: "x", Value: x}
	}
	if math.IsNaN(q2) || q2 < 0 {
		return 0, &RangeError{Quantity: "Q2", Value: q2}
	}
	if id == 0 {
		id = gluonID
	}
	if !p.knots.HasFlavor(id) {
		return 0, nil
	}
	var v float64
	if p.knots.InRange(x, q2) {
		v = p.interp.Interpolate(id, x, q2)
	} else {
		v = p.extrap.Extrapolate(id, x, q2)
	}
	switch p.info.ForcePositive {
	case 1:
		v = max(v, 0)
	case 2:
		v = max(v, forcePositiveFloor)
	}
	return v, nil
}

// EvaluateQ is Evaluate with the scale given as Q rather than Q².
func (p *GridPDF) EvaluateQ(id int, x, q float64) (float64, error) {
	if math.IsNaN(q) || q < 0 {
		return 0, &RangeError{Quantity: "Q", Value: q}
	}
	return p.Evaluate(id, x, q*q)
}

// EvaluateAll evaluates every flavor the grid carries.
func (p *GridPDF) EvaluateAll(x, q2 float64) (map[int]float64, error) {
	out := make(map[int]float64, len(p.knots.Flavors()))
	for _, id := range p.knots.Flavors() {
		v, err := p.Evaluate(id, x, q2)
		if err != nil {
			return nil, err
		}
		out[id] = v
	}
	return out, nil
}

func (p *GridPDF) XMin() float64  { return p.knots.XMin() }
func (p *GridPDF) XMax() float64  { return p.knots.XMax() }
func (p *GridPDF) Q2Min() float64 { return p.knots.Q2Min() }
func (p *GridPDF) Q2Max() float64 { return p.knots.Q2Max() }

func (p *GridPDF) InRangeX(x float64) bool      { return p.knots.InRangeX(x) }
func (p *GridPDF) InRangeQ2(q2 float64) bool    { return p.knots.InRangeQ2(q2) }
func (p *GridPDF) InRangeXQ2(x, q2 float64) bool { return p.knots.InRange(x, q2) }

func (p *GridPDF) Flavors() []int { return p.knots.Flavors() }

// HasFlavor reports whether id is tabulated; 0 is treated as the gluon.
func (p *GridPDF) HasFlavor(id int) bool {
	if id == 0 {
		id = gluonID
	}
	return p.knots.HasFlavor(id)
}

// SetInterpolator replaces the interpolator by name.
func (p *GridPDF) SetInterpolator(name string) error {
	in, err := NewInterpolator(name, p.knots)
	if err != nil {
		return err
	}
	p.interp = in
	return nil
}

// SetExtrapolator replaces the extrapolator by name.
func (p *GridPDF) SetExtrapolator(name string) error {
	ex, err := NewExtrapolator(name, p)
	if err != nil {
		return err
	}
	p.extrap = ex
	return nil
}

func (p *GridPDF) SetInterpolatorImpl(in Interpolator) { p.interp = in }
func (p *GridPDF) SetExtrapolatorImpl(ex Extrapolator) { p.extrap = ex }

func (p *GridPDF) Interpolator() Interpolator { return p.interp }
func (p *GridPDF) Extrapolator() Extrapolator { return p.extrap }

func (p *GridPDF) Knots() *KnotArray { return p.knots }

// MutableKnots exposes the knot array for in-place edits. Callers must
// re-install the interpolator (SetInterpolator) after changing values.
func (p *GridPDF) MutableKnots() *KnotArray { return p.knots }

// Info returns the merged metadata. Extrapolators read it on every call.
func (p *GridPDF) Info() *Info { return &p.info }

func (p *GridPDF) Name() string        { return p.name }
func (p *GridPDF) SetName(name string) { p.name = name }
func (p *GridPDF) Member() int         { return p.member }

// LHAPDFID returns the global id of this member, or -1 when the set is not
// indexed. Without a usable index the metadata SetIndex is used.
func (p *GridPDF) LHAPDFID(ctx context.Context) (int, error) {
	if p.env != nil {
		idx, err := p.env.Index(ctx)
		switch {
		case err == nil:
			if id := idx.LookupLHAPDFID(p.name, p.member); id >= 0 || p.info.SetIndex == 0 {
				return id, nil
			}
		case p.info.SetIndex == 0:
			return -1, err
		}
	}
	if p.info.SetIndex > 0 {
		return p.info.SetIndex + p.member, nil
	}
	return -1, nil
}
