package pdf

import (
	"fmt"
	"strings"
)

// Interpolator estimates a flavor's value at a point inside the grid it was
// built for. Results outside the grid are unspecified; unknown flavors give 0.
type Interpolator interface {
	Interpolate(id int, x, q2 float64) float64
}

// DefaultInterpolator is used when neither the caller nor the metadata names one.
const DefaultInterpolator = "logcubic"

// ValidInterpolators is the set of recognized interpolator names, aliases included.
var ValidInterpolators = map[string]bool{
	"linear": true, "bilinear": true,
	"log": true, "logbilinear": true,
	"cubic": true, "bicubic": true,
	"logcubic": true, "logbicubic": true,
}

// NewInterpolatorFunc builds a named interpolator over a knot array.
// Registered by pdf/interp's init(); production code imports pdf/interp
// (directly or blank) before constructing GridPDFs.
var NewInterpolatorFunc func(name string, ka *KnotArray) (Interpolator, error)

// NewInterpolator returns the interpolator registered under name, bound to ka.
// Names are case-insensitive; unknown names are a *UserError.
func NewInterpolator(name string, ka *KnotArray) (Interpolator, error) {
	name = strings.ToLower(name)
	if !ValidInterpolators[name] {
		return nil, &UserError{Input: name, Msg: "unknown interpolator"}
	}
	if NewInterpolatorFunc == nil {
		panic(fmt.Sprintf("interpolator %q requested but no implementation is registered; import pdf/interp", name))
	}
	return NewInterpolatorFunc(name, ka)
}
