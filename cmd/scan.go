package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/floats"

	"github.com/pdfgrid/pdfgrid/pdf/filecache"
)

var (
	// CLI flags for scan
	scanQ2           float64 // Squared scale of the scan
	scanXMin         float64 // Lowest x
	scanXMax         float64 // Highest x
	scanPoints       int     // Number of log-spaced x points
	scanFlavor       int     // PDG id to scan
	scanWorkers      int     // Concurrent workers; 0 uses the config value
	scanInterpolator string  // Overrides the set's interpolator
	scanExtrapolator string  // Overrides the set's extrapolator
)

// scanRequest is one x scan at fixed Q².
type scanRequest struct {
	ref          string
	flavor       int
	q2           float64
	xs           []float64
	interpolator string
	extrapolator string
}

// runScan evaluates req with workers ranks. Each rank loads the PDF into
// its own cache through a broadcast group member, so storage is read once
// however many ranks there are. Rank r evaluates points r, r+workers, ...
func runScan(ctx context.Context, s *session, req scanRequest, workers int) ([]float64, error) {
	if workers < 1 {
		workers = 1
	}
	vals := make([]float64, len(req.xs))
	group := filecache.NewGroup(workers, s.fetcher)
	err := group.Run(ctx, func(ctx context.Context, rank int, f filecache.Fetcher) error {
		p, err := loadPDF(ctx, s.newEnv(f), req.ref)
		if err != nil {
			return fmt.Errorf("rank %d: %w", rank, err)
		}
		if err := applyStrategies(p, req.interpolator, req.extrapolator); err != nil {
			return err
		}
		for i := rank; i < len(req.xs); i += workers {
			v, err := p.Evaluate(req.flavor, req.xs[i], req.q2)
			if err != nil {
				return err
			}
			vals[i] = v
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	logrus.Debugf("scan: %d points over %d workers", len(req.xs), workers)
	return vals, nil
}

func writeScan(w io.Writer, xs, vals []float64) error {
	for i, x := range xs {
		if _, err := fmt.Fprintf(w, "%.6e\t%.10e\n", x, vals[i]); err != nil {
			return err
		}
	}
	return nil
}

// scanCmd tabulates one flavor over a log-spaced x range
var scanCmd = &cobra.Command{
	Use:   "scan PDF",
	Short: "Tabulate x·f(x, Q²) over log-spaced x at fixed Q²",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if scanPoints < 2 {
			return fmt.Errorf("--points must be at least 2, got %d", scanPoints)
		}
		if scanXMin <= 0 || scanXMax > 1 || scanXMin >= scanXMax {
			return fmt.Errorf("need 0 < --xmin < --xmax <= 1, got %g and %g", scanXMin, scanXMax)
		}
		workers := scanWorkers
		if workers == 0 {
			workers = current.cfg.Workers
		}
		req := scanRequest{
			ref:          args[0],
			flavor:       scanFlavor,
			q2:           scanQ2,
			xs:           floats.LogSpan(make([]float64, scanPoints), scanXMin, scanXMax),
			interpolator: scanInterpolator,
			extrapolator: scanExtrapolator,
		}
		vals, err := runScan(cmd.Context(), current, req, workers)
		if err != nil {
			return err
		}
		return writeScan(cmd.OutOrStdout(), req.xs, vals)
	},
}

func init() {
	scanCmd.Flags().Float64Var(&scanQ2, "q2", 100, "Squared scale Q² (GeV²)")
	scanCmd.Flags().Float64Var(&scanXMin, "xmin", 1e-5, "Lowest x")
	scanCmd.Flags().Float64Var(&scanXMax, "xmax", 1, "Highest x")
	scanCmd.Flags().IntVar(&scanPoints, "points", 20, "Number of log-spaced x points")
	scanCmd.Flags().IntVar(&scanFlavor, "flavor", 21, "PDG id to scan (0 and 21 are the gluon)")
	scanCmd.Flags().IntVar(&scanWorkers, "workers", 0, "Concurrent workers sharing one storage read (default: config workers)")
	scanCmd.Flags().StringVar(&scanInterpolator, "interpolator", "", "Interpolator overriding the set's choice")
	scanCmd.Flags().StringVar(&scanExtrapolator, "extrapolator", "", "Extrapolator overriding the set's choice")
	rootCmd.AddCommand(scanCmd)
}
