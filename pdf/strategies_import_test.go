package pdf_test

// Blank imports trigger pdf/interp's and pdf/extrap's init(), which register
// NewInterpolatorFunc and NewExtrapolatorFunc. This lets package pdf's
// internal test files build GridPDFs without importing the strategy packages
// (which would create an import cycle).
import (
	_ "github.com/pdfgrid/pdfgrid/pdf/extrap"
	_ "github.com/pdfgrid/pdfgrid/pdf/interp"
)
