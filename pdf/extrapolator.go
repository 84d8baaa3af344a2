package pdf

import (
	"fmt"
	"strings"
)

// Extrapolator estimates a flavor's value at a point outside the grid. It
// must always return a finite number.
type Extrapolator interface {
	Extrapolate(id int, x, q2 float64) float64
}

// Grid is the view of a loaded PDF an extrapolator works against. It is read
// on every call so a replaced interpolator is picked up.
type Grid interface {
	Knots() *KnotArray
	Interpolator() Interpolator
	Info() *Info
}

// DefaultExtrapolator is used when neither the caller nor the metadata names one.
const DefaultExtrapolator = "continuation"

// ValidExtrapolators is the set of recognized extrapolator names, aliases included.
var ValidExtrapolators = map[string]bool{
	"nearest": true, "nearestpoint": true,
	"continuation": true,
	"error":        true, "errorscaled": true,
}

// NewExtrapolatorFunc builds a named extrapolator over a grid. Registered by
// pdf/extrap's init().
var NewExtrapolatorFunc func(name string, g Grid) (Extrapolator, error)

// NewExtrapolator returns the extrapolator registered under name, bound to g.
// Names are case-insensitive; unknown names are a *UserError.
func NewExtrapolator(name string, g Grid) (Extrapolator, error) {
	name = strings.ToLower(name)
	if !ValidExtrapolators[name] {
		return nil, &UserError{Input: name, Msg: "unknown extrapolator"}
	}
	if NewExtrapolatorFunc == nil {
		panic(fmt.Sprintf("extrapolator %q requested but no implementation is registered; import pdf/extrap", name))
	}
	return NewExtrapolatorFunc(name, g)
}
