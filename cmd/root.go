package cmd

import (
	"context"
	"fmt"
	"os"
	"path"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pdfgrid/pdfgrid/pdf"
	"github.com/pdfgrid/pdfgrid/pdf/filecache"

	// Registers the interpolation and extrapolation strategies.
	_ "github.com/pdfgrid/pdfgrid/pdf/extrap"
	_ "github.com/pdfgrid/pdfgrid/pdf/interp"
)

var (
	// Flags shared by every subcommand
	logLevel   string   // Log verbosity level, overrides the config file
	configPath string   // Optional YAML configuration file
	dataPaths  []string // Search path entries tried before config and environment
	showStats  bool     // Print file cache counters to stderr after the command

	// Resolved by rootCmd's PersistentPreRunE
	current *session
)

// session is the resolved state every subcommand works from.
type session struct {
	cfg      Config
	registry *prometheus.Registry
	metrics  *filecache.Metrics
	fetcher  filecache.Fetcher
	paths    pdf.SearchPaths
	env      *pdf.Env
}

// newSession loads configuration, applies the log level and builds the
// fetcher, metrics and Env that commands read through.
func newSession(cfgFile, level string, extra []string) (*session, error) {
	cfg := DefaultConfig()
	if cfgFile != "" {
		loaded, err := LoadConfig(cfgFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if level != "" {
		cfg.LogLevel = level
	}
	lvl, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}
	logrus.SetLevel(lvl)

	var objects filecache.Fetcher
	if cfg.ObjectStore != nil {
		obj, err := filecache.DialObjectStore(*cfg.ObjectStore)
		if err != nil {
			return nil, err
		}
		objects = obj
	}

	s := &session{
		cfg:      cfg,
		registry: prometheus.NewRegistry(),
		fetcher:  filecache.NewRouter(objects),
		paths:    pdf.SearchPaths(nil).Append(extra...).Append(cfg.DataPath...).Append(pdf.SearchPathsFromEnv()...),
	}
	s.metrics = filecache.NewMetrics(s.registry)
	s.env = s.newEnv(s.fetcher)
	logrus.Debugf("search paths: %v", []string(s.paths))
	return s, nil
}

// newEnv returns an Env with its own cache over f, sharing the session's
// search paths, metrics and default strategies.
func (s *session) newEnv(f filecache.Fetcher) *pdf.Env {
	env := pdf.NewEnv(s.paths, filecache.New(f, filecache.WithMetrics(s.metrics)))
	env.Defaults.Interpolator = s.cfg.Interpolator
	env.Defaults.Extrapolator = s.cfg.Extrapolator
	return env
}

// loadPDF resolves ref as a member data file path, a global id or a
// "set[/member]" string, in that order.
func loadPDF(ctx context.Context, env *pdf.Env, ref string) (*pdf.GridPDF, error) {
	if isMemberFile(ref) {
		return pdf.NewGridPDFFromPath(ctx, env, ref)
	}
	if id, err := strconv.Atoi(ref); err == nil {
		return pdf.NewGridPDFFromID(ctx, env, id)
	}
	return pdf.NewGridPDFFromString(ctx, env, ref)
}

func isMemberFile(ref string) bool {
	base := path.Base(strings.ReplaceAll(ref, `\`, "/"))
	if strings.HasSuffix(base, ".dat") {
		return true
	}
	for _, s := range filecache.CompressedSuffixes {
		if strings.HasSuffix(base, ".dat"+s) {
			return true
		}
	}
	return false
}

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:          "pdfgrid",
	Short:        "Evaluate parton distribution functions tabulated on (x, Q²) grids",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(configPath, logLevel, dataPaths)
		if err != nil {
			return err
		}
		current = s
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if showStats && current != nil {
			printStats(cmd.ErrOrStderr(), current.registry)
		}
	},
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "", "Log level (trace, debug, info, warn, error, fatal, panic); overrides the config file")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML configuration file")
	rootCmd.PersistentFlags().StringSliceVar(&dataPaths, "data-path", nil, "Directory or s3://bucket/prefix searched for PDF sets (repeatable, searched first)")
	rootCmd.PersistentFlags().BoolVar(&showStats, "stats", false, "Print file cache counters to stderr on exit")
}
