package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/pdfgrid/pdfgrid/pdf"
)

var (
	// CLI flags for eval
	evalX            float64 // Momentum fraction
	evalQ2           float64 // Squared scale Q² in GeV²
	evalQ            float64 // Scale Q in GeV; used instead of --q2 when positive
	evalFlavors      []int   // PDG ids to evaluate; all flavors when empty
	evalInterpolator string  // Overrides the set's interpolator
	evalExtrapolator string  // Overrides the set's extrapolator
)

// applyStrategies replaces the set's strategies when names are given.
func applyStrategies(p *pdf.GridPDF, interpolator, extrapolator string) error {
	if interpolator != "" {
		if err := p.SetInterpolator(interpolator); err != nil {
			return err
		}
	}
	if extrapolator != "" {
		if err := p.SetExtrapolator(extrapolator); err != nil {
			return err
		}
	}
	return nil
}

// writeValues prints one "id<TAB>value" row per flavor. No ids means every
// flavor the grid carries.
func writeValues(w io.Writer, p *pdf.GridPDF, ids []int, x, q2 float64) error {
	if len(ids) == 0 {
		ids = p.Flavors()
	}
	for _, id := range ids {
		v, err := p.Evaluate(id, x, q2)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "%d\t%.10e\n", id, v); err != nil {
			return err
		}
	}
	return nil
}

// evalCmd evaluates x·f(x, Q²) at a single point
var evalCmd = &cobra.Command{
	Use:   "eval PDF",
	Short: "Evaluate x·f(x, Q²) for one or more flavors",
	Long: `Evaluate x·f(x, Q²) at one point.

PDF is a path to a member data file, a global id, or "set[/member]".`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := loadPDF(cmd.Context(), current.env, args[0])
		if err != nil {
			return err
		}
		if err := applyStrategies(p, evalInterpolator, evalExtrapolator); err != nil {
			return err
		}
		q2 := evalQ2
		if evalQ > 0 {
			q2 = evalQ * evalQ
		}
		return writeValues(cmd.OutOrStdout(), p, evalFlavors, evalX, q2)
	},
}

func init() {
	evalCmd.Flags().Float64Var(&evalX, "x", 0.1, "Momentum fraction x")
	evalCmd.Flags().Float64Var(&evalQ2, "q2", 100, "Squared scale Q² (GeV²)")
	evalCmd.Flags().Float64Var(&evalQ, "q", 0, "Scale Q (GeV); takes precedence over --q2 when positive")
	evalCmd.Flags().IntSliceVar(&evalFlavors, "flavor", nil, "PDG ids to evaluate (default: every flavor on the grid)")
	evalCmd.Flags().StringVar(&evalInterpolator, "interpolator", "", "Interpolator overriding the set's choice")
	evalCmd.Flags().StringVar(&evalExtrapolator, "extrapolator", "", "Extrapolator overriding the set's choice")
	rootCmd.AddCommand(evalCmd)
}
