// register.go wires the extrapolators into pdf.NewExtrapolatorFunc. The
// init() runs when any package imports pdf/extrap.
package extrap

import (
	"errors"
	"strings"

	"github.com/pdfgrid/pdfgrid/pdf"
)

func init() {
	pdf.NewExtrapolatorFunc = New
}

// New builds the extrapolator registered under name (case-insensitive).
func New(name string, g pdf.Grid) (pdf.Extrapolator, error) {
	if g == nil {
		return nil, errors.New("extrapolator needs a grid")
	}
	switch strings.ToLower(name) {
	case "nearest", "nearestpoint":
		return NewNearest(g), nil
	case "continuation":
		return NewContinuation(g), nil
	case "error", "errorscaled":
		return NewErrorScaled(g), nil
	}
	return nil, &pdf.UserError{Input: name, Msg: "unknown extrapolator"}
}
