package pdf

import (
	"fmt"
	"maps"

	"gopkg.in/yaml.v3"
)

// Info is PDF metadata decoded from YAML. It is layered: defaults from the
// caller's configuration, then the set's .info file, then the member data
// file header. Each layer only overrides the keys it mentions.
type Info struct {
	SetDesc     string `yaml:"SetDesc,omitempty"`
	SetIndex    int    `yaml:"SetIndex,omitempty"`
	Authors     string `yaml:"Authors,omitempty"`
	Reference   string `yaml:"Reference,omitempty"`
	Format      string `yaml:"Format,omitempty"`
	DataVersion int    `yaml:"DataVersion,omitempty"`
	NumMembers  int    `yaml:"NumMembers,omitempty"`
	ErrorType   string `yaml:"ErrorType,omitempty"`
	PdfType     string `yaml:"PdfType,omitempty"`
	Flavors     []int  `yaml:"Flavors,omitempty"`

	XMin float64 `yaml:"XMin,omitempty"`
	XMax float64 `yaml:"XMax,omitempty"`
	QMin float64 `yaml:"QMin,omitempty"`
	QMax float64 `yaml:"QMax,omitempty"`

	Interpolator  string `yaml:"Interpolator,omitempty"`
	Extrapolator  string `yaml:"Extrapolator,omitempty"`
	ForcePositive int    `yaml:"ForcePositive,omitempty"`

	// Error-scaled extrapolation: growth per grid span outside the domain,
	// capped at ExtrapolationMaxFactor.
	ExtrapolationGrowth    float64 `yaml:"ExtrapolationGrowth,omitempty"`
	ExtrapolationMaxFactor float64 `yaml:"ExtrapolationMaxFactor,omitempty"`

	// Extra keeps keys this package does not interpret.
	Extra map[string]any `yaml:",inline"`
}

// Grid file formats. FormatQ2 files list Q² knots; FormatLHAGrid1 files
// list Q knots, squared on load.
const (
	FormatQ2       = "pdfgrid1"
	FormatLHAGrid1 = "lhagrid1"
)

// Overlay decodes a YAML document on top of the current values.
func (in *Info) Overlay(data []byte) error {
	if err := yaml.Unmarshal(data, in); err != nil {
		return fmt.Errorf("parse metadata: %w", err)
	}
	return nil
}

// Clone returns a copy that shares nothing mutable with in.
func (in Info) Clone() Info {
	out := in
	out.Flavors = append([]int(nil), in.Flavors...)
	out.Extra = maps.Clone(in.Extra)
	return out
}

func (in *Info) validate() error {
	switch in.ForcePositive {
	case 0, 1, 2:
	default:
		return fmt.Errorf("ForcePositive must be 0, 1 or 2, got %d", in.ForcePositive)
	}
	if in.ExtrapolationGrowth < 0 {
		return fmt.Errorf("ExtrapolationGrowth must be non-negative, got %g", in.ExtrapolationGrowth)
	}
	if in.ExtrapolationMaxFactor != 0 && in.ExtrapolationMaxFactor < 1 {
		return fmt.Errorf("ExtrapolationMaxFactor must be at least 1, got %g", in.ExtrapolationMaxFactor)
	}
	return nil
}
