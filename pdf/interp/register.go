// register.go wires the interpolators into pdf.NewInterpolatorFunc. The
// init() runs when any package imports pdf/interp, which keeps pdf (interface
// owner) free of an import on its implementations.
package interp

import (
	"errors"
	"strings"

	"github.com/pdfgrid/pdfgrid/pdf"
)

func init() {
	pdf.NewInterpolatorFunc = New
}

// New builds the interpolator registered under name (case-insensitive).
func New(name string, ka *pdf.KnotArray) (pdf.Interpolator, error) {
	if ka == nil {
		return nil, errors.New("interpolator needs a knot array")
	}
	switch strings.ToLower(name) {
	case "linear", "bilinear":
		return NewBilinear(ka, false), nil
	case "log", "logbilinear":
		return NewBilinear(ka, true), nil
	case "cubic", "bicubic":
		return NewBicubic(ka, false), nil
	case "logcubic", "logbicubic":
		return NewBicubic(ka, true), nil
	}
	return nil, &pdf.UserError{Input: name, Msg: "unknown interpolator"}
}
