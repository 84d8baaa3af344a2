package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/pdfgrid/pdfgrid/pdf"
	"github.com/pdfgrid/pdfgrid/pdf/filecache"
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Re-encode grid data files",
	Long:  "Re-encode members or whole sets in the native grid format, optionally compressed. Input may be lhagrid1 or pdfgrid1; output is always pdfgrid1 with Q² knots.",
}

// infoHeader turns merged metadata into a header map for EncodeGrid.
func infoHeader(info *pdf.Info) (map[string]any, error) {
	data, err := yaml.Marshal(info)
	if err != nil {
		return nil, err
	}
	meta := map[string]any{}
	if err := yaml.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return meta, nil
}

// writeMember encodes p's knots with its metadata as the header and stores
// the result at out through cache. The suffix of out selects compression.
func writeMember(ctx context.Context, cache *filecache.Cache, p *pdf.GridPDF, out string) error {
	meta, err := infoHeader(p.Info())
	if err != nil {
		return fmt.Errorf("encoding metadata of %s: %w", p.Name(), err)
	}
	w := cache.Create(out)
	if err := pdf.EncodeGrid(w, meta, p.Knots()); err != nil {
		return err
	}
	if err := w.CloseContext(ctx); err != nil {
		return fmt.Errorf("writing %s: %w", out, err)
	}
	logrus.Infof("wrote %s/%d to %s (%s)", p.Name(), p.Member(), out, filecache.CodecFor(out))
	return nil
}

// convertSet copies set's .info and re-encodes every member under
// outDir/set/, appending suffix to member file names.
func convertSet(ctx context.Context, env *pdf.Env, set, outDir, suffix string) (int, error) {
	infoData, _, err := env.FindFile(ctx, pdf.SetInfoPath(set))
	if err != nil {
		return 0, err
	}
	var info pdf.Info
	if err := info.Overlay(infoData); err != nil {
		return 0, &pdf.ReadError{Path: pdf.SetInfoPath(set), Err: err}
	}
	n := max(info.NumMembers, 1)

	infoOut := outPath(outDir, pdf.SetInfoPath(set))
	w := env.Files.Create(infoOut)
	if _, err := w.Write(infoData); err != nil {
		return 0, err
	}
	if err := w.CloseContext(ctx); err != nil {
		return 0, fmt.Errorf("writing %s: %w", infoOut, err)
	}
	for m := 0; m < n; m++ {
		p, err := pdf.NewGridPDF(ctx, env, set, m)
		if err != nil {
			return m, err
		}
		if err := writeMember(ctx, env.Files, p, outPath(outDir, pdf.MemberPath(set, m))+suffix); err != nil {
			return m, err
		}
	}
	return n, nil
}

func outPath(dir, rel string) string {
	if strings.HasPrefix(dir, filecache.ObjectScheme) {
		return strings.TrimRight(dir, "/") + "/" + rel
	}
	return filepath.Join(dir, filepath.FromSlash(rel))
}

// --- pdfgrid convert member ---

var memberOut string

var convertMemberCmd = &cobra.Command{
	Use:   "member PDF",
	Short: "Re-encode one member to --out (.zst, .gz and .lz4 suffixes compress)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := loadPDF(cmd.Context(), current.env, args[0])
		if err != nil {
			return err
		}
		return writeMember(cmd.Context(), current.env.Files, p, memberOut)
	},
}

// --- pdfgrid convert set ---

var (
	setOutDir   string
	setCompress string
)

var convertSetCmd = &cobra.Command{
	Use:   "set SET",
	Short: "Re-encode every member of a set under --out",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		suffix := ""
		if setCompress != "" {
			suffix = "." + strings.TrimPrefix(setCompress, ".")
			if filecache.CodecFor("x.dat"+suffix) == filecache.CodecNone {
				return &pdf.UserError{Input: setCompress, Msg: "unsupported compression"}
			}
		}
		n, err := convertSet(cmd.Context(), current.env, args[0], setOutDir, suffix)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "converted %d members of %s\n", n, args[0])
		return err
	},
}

func init() {
	convertMemberCmd.Flags().StringVar(&memberOut, "out", "", "Output path (local or s3://bucket/key)")
	_ = convertMemberCmd.MarkFlagRequired("out")

	convertSetCmd.Flags().StringVar(&setOutDir, "out", "", "Output directory (local or s3://bucket/prefix)")
	convertSetCmd.Flags().StringVar(&setCompress, "compress", "", "Compression for member files: zst, gz or lz4")
	_ = convertSetCmd.MarkFlagRequired("out")

	convertCmd.AddCommand(convertMemberCmd, convertSetCmd)
	rootCmd.AddCommand(convertCmd)
}
