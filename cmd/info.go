package cmd

import (
	"context"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/pdfgrid/pdfgrid/pdf"
)

// pdfSummary is what `pdfgrid info` prints.
type pdfSummary struct {
	Name     string   `yaml:"name"`
	Member   int      `yaml:"member"`
	LHAPDFID int      `yaml:"lhapdf_id"`
	XMin     float64  `yaml:"x_min"`
	XMax     float64  `yaml:"x_max"`
	Q2Min    float64  `yaml:"q2_min"`
	Q2Max    float64  `yaml:"q2_max"`
	Subgrids int      `yaml:"subgrids"`
	Flavors  []int    `yaml:"flavors"`
	Metadata pdf.Info `yaml:"metadata"`
}

func summarize(ctx context.Context, p *pdf.GridPDF) pdfSummary {
	id, err := p.LHAPDFID(ctx)
	if err != nil {
		logrus.Warnf("global id of %s/%d unavailable: %v", p.Name(), p.Member(), err)
		id = -1
	}
	return pdfSummary{
		Name:     p.Name(),
		Member:   p.Member(),
		LHAPDFID: id,
		XMin:     p.XMin(),
		XMax:     p.XMax(),
		Q2Min:    p.Q2Min(),
		Q2Max:    p.Q2Max(),
		Subgrids: len(p.Knots().Subgrids()),
		Flavors:  p.Flavors(),
		Metadata: *p.Info(),
	}
}

func writeSummary(w io.Writer, s pdfSummary) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return err
	}
	return enc.Close()
}

// infoCmd prints grid ranges and merged metadata
var infoCmd = &cobra.Command{
	Use:   "info PDF",
	Short: "Print the grid ranges and merged metadata of a member",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := loadPDF(cmd.Context(), current.env, args[0])
		if err != nil {
			return err
		}
		return writeSummary(cmd.OutOrStdout(), summarize(cmd.Context(), p))
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}
