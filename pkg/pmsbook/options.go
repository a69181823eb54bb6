package pmsbook

import (
	"fmt"
	"os"
	"time"

	"github.com/modernpms/pmsbook/pkg/pmsbook/report"
	"gopkg.in/yaml.v3"
)

// DefaultPassword protects every sheet unless PMS_SHEET_PASSWORD or an
// explicit option overrides it.
const DefaultPassword = "pms-2024"

// DefaultBuildTime is the timestamp stamped into archive entries and the
// report. Builds use a fixed instant, not the wall clock, so the same
// inputs always produce the same bytes.
var DefaultBuildTime = time.Date(2024, 5, 7, 9, 0, 0, 0, time.UTC)

// Options configures one build.
type Options struct {
	// SpokeCount is the number of PRJ_NNN sheets to generate.
	SpokeCount int
	// MaxSpokes overrides the expansion bound; zero keeps the default.
	MaxSpokes int
	// Sample states which spokes receive the sample dataset.
	Sample report.SampleScope
	// IncludeMacros embeds the macro project binary.
	IncludeMacros bool
	// ForceRegenerate bypasses the macro cache.
	ForceRegenerate bool

	OutputPath string
	ReportPath string
	// CacheDir roots the macro binary cache.
	CacheDir string
	// VBADir optionally supplies *.bas/*.cls sources replacing the
	// embedded defaults.
	VBADir string

	Password  string
	BuildTime time.Time
}

// DefaultOptions returns a one-spoke build writing to dist/pms.xlsm,
// with the password taken from PMS_SHEET_PASSWORD when set.
func DefaultOptions() Options {
	password := DefaultPassword
	if env := os.Getenv("PMS_SHEET_PASSWORD"); env != "" {
		password = env
	}
	return Options{
		SpokeCount: 1,
		Sample:     report.SampleNone,
		OutputPath: "dist/pms.xlsm",
		CacheDir:   ".pmsbook-cache",
		Password:   password,
		BuildTime:  DefaultBuildTime,
	}
}

// ParseSampleScope maps the CLI/config spelling to a scope.
func ParseSampleScope(s string) (report.SampleScope, error) {
	switch s {
	case "", "none":
		return report.SampleNone, nil
	case "first":
		return report.SampleFirst, nil
	case "all":
		return report.SampleAll, nil
	}
	return report.SampleNone, fmt.Errorf("unknown sample scope %q (want none, first or all)", s)
}

// fileOptions is the YAML config schema. Absent fields keep the
// defaults already present in the Options being loaded into.
type fileOptions struct {
	Spokes     *int    `yaml:"spokes"`
	MaxSpokes  *int    `yaml:"max_spokes"`
	Sample     *string `yaml:"sample"`
	Macros     *bool   `yaml:"macros"`
	ForceRegen *bool   `yaml:"force_regen"`
	Output     *string `yaml:"output"`
	Report     *string `yaml:"report"`
	CacheDir   *string `yaml:"cache_dir"`
	VBADir     *string `yaml:"vba_dir"`
	Password   *string `yaml:"password"`
}

// LoadOptions overlays a YAML config file onto opts.
func LoadOptions(path string, opts *Options) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var f fileOptions
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("config %s: %w", path, err)
	}

	if f.Spokes != nil {
		opts.SpokeCount = *f.Spokes
	}
	if f.MaxSpokes != nil {
		opts.MaxSpokes = *f.MaxSpokes
	}
	if f.Sample != nil {
		scope, err := ParseSampleScope(*f.Sample)
		if err != nil {
			return fmt.Errorf("config %s: %w", path, err)
		}
		opts.Sample = scope
	}
	if f.Macros != nil {
		opts.IncludeMacros = *f.Macros
	}
	if f.ForceRegen != nil {
		opts.ForceRegenerate = *f.ForceRegen
	}
	if f.Output != nil {
		opts.OutputPath = *f.Output
	}
	if f.Report != nil {
		opts.ReportPath = *f.Report
	}
	if f.CacheDir != nil {
		opts.CacheDir = *f.CacheDir
	}
	if f.VBADir != nil {
		opts.VBADir = *f.VBADir
	}
	if f.Password != nil {
		opts.Password = *f.Password
	}
	return nil
}
