package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/pdfgrid/pdfgrid/pdf"
	"github.com/pdfgrid/pdfgrid/pdf/filecache"
)

// Config represents the pdfgrid YAML configuration file.
// Every key must be listed here to satisfy KnownFields(true) strict parsing.
type Config struct {
	DataPath     []string                     `yaml:"data_path"`    // Search path entries, after --data-path
	Interpolator string                       `yaml:"interpolator"` // Default interpolator when a set names none
	Extrapolator string                       `yaml:"extrapolator"` // Default extrapolator when a set names none
	LogLevel     string                       `yaml:"log_level"`
	Workers      int                          `yaml:"workers"` // Default scan workers sharing one storage read
	ObjectStore  *filecache.ObjectStoreConfig `yaml:"object_store"`
}

// DefaultConfig is used when no --config file is given.
func DefaultConfig() Config {
	return Config{LogLevel: "warn", Workers: 1}
}

// LoadConfig parses path over DefaultConfig. Unknown keys are errors so
// typos do not silently fall back to defaults.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}
	cfg := DefaultConfig()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks strategy names and counts.
func (c Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.Interpolator != "" && !pdf.ValidInterpolators[strings.ToLower(c.Interpolator)] {
		return fmt.Errorf("unknown interpolator %q", c.Interpolator)
	}
	if c.Extrapolator != "" && !pdf.ValidExtrapolators[strings.ToLower(c.Extrapolator)] {
		return fmt.Errorf("unknown extrapolator %q", c.Extrapolator)
	}
	if c.ObjectStore != nil && c.ObjectStore.Endpoint == "" {
		return errors.New("object_store needs an endpoint")
	}
	return nil
}
