package pmsbook

import (
	"fmt"

	"github.com/modernpms/pmsbook/pkg/pmsbook/expand"
	"github.com/modernpms/pmsbook/pkg/pmsbook/model"
	"github.com/modernpms/pmsbook/pkg/pmsbook/opc"
	"github.com/modernpms/pmsbook/pkg/pmsbook/protect"
	"github.com/modernpms/pmsbook/pkg/pmsbook/report"
	"github.com/modernpms/pmsbook/pkg/pmsbook/vbabin"
	"github.com/modernpms/pmsbook/pkg/pmsbook/vbacache"
)

// Result is what a successful build produced.
type Result struct {
	Workbook     *model.Workbook
	PasswordHash string
	ReportLines  []string
}

// Build assembles the workbook model, applies protection, resolves the
// macro binary through the cache, writes the package, and returns the
// build report.
func Build(opts Options) (*Result, error) {
	if opts.BuildTime.IsZero() {
		opts.BuildTime = DefaultBuildTime
	}

	hash, err := protect.HashPassword(opts.Password)
	if err != nil {
		return nil, err
	}

	wb, err := assemble(opts, hash)
	if err != nil {
		return nil, err
	}
	if err := wb.Validate(); err != nil {
		return nil, err
	}

	for _, s := range wb.Sheets {
		res, err := protect.Resolve(s)
		if err != nil {
			return nil, err
		}
		protect.Apply(s, res, opc.StyleUnlocked)
	}

	pkg := &opc.Package{Workbook: wb, WithMacro: opts.IncludeMacros}
	if opts.IncludeMacros {
		blob, err := resolveMacro(opts)
		if err != nil {
			return nil, err
		}
		pkg.Macro = blob
	}
	if err := pkg.WriteFile(opts.OutputPath); err != nil {
		return nil, err
	}

	summary := &report.Summary{
		SpokeCount:  opts.SpokeCount,
		Sample:      opts.Sample,
		OutputPath:  opts.OutputPath,
		GeneratedAt: opts.BuildTime,
	}
	if opts.Sample != report.SampleNone {
		summary.Tasks = report.SampleTasks
	}
	lines := summary.Lines()
	if opts.ReportPath != "" {
		if err := report.WriteText(lines, opts.ReportPath); err != nil {
			return nil, fmt.Errorf("writing report: %w", err)
		}
	}

	return &Result{Workbook: wb, PasswordHash: hash, ReportLines: lines}, nil
}

// assemble builds the sheet set in display order: Config, Template, the
// PRJ spokes, then the master sheets.
func assemble(opts Options, hash string) (*model.Workbook, error) {
	tpl := templateSheet(hash)

	spokes, err := expand.Expand(tpl, opts.SpokeCount, opts.MaxSpokes)
	if err != nil {
		return nil, err
	}
	// The template keeps its placeholder until the spokes are cloned,
	// then resolves against its own name like any other sheet.
	if err := expand.ResolveSelf(tpl); err != nil {
		return nil, err
	}

	for i, spoke := range spokes {
		if opts.Sample == report.SampleAll || (opts.Sample == report.SampleFirst && i == 0) {
			seedSampleTasks(spoke, report.SampleTasks)
		}
	}

	sheets := []*model.Sheet{configSheet(hash), tpl}
	sheets = append(sheets, spokes...)
	sheets = append(sheets, caseMasterSheet(hash), measureMasterSheet(hash), kanbanSheet(hash))

	return &model.Workbook{
		Sheets: sheets,
		Names:  definedNames(),
		Meta:   model.Metadata{Application: "pmsbook", Created: opts.BuildTime},
	}, nil
}

// resolveMacro loads the macro sources and resolves them to a project
// binary through the content-addressed cache.
func resolveMacro(opts Options) ([]byte, error) {
	sources := DefaultVBASources()
	if opts.VBADir != "" {
		loaded, err := LoadVBASources(opts.VBADir)
		if err != nil {
			return nil, fmt.Errorf("loading macro sources: %w", err)
		}
		if len(loaded) > 0 {
			sources = loaded
		}
	}
	cache := vbacache.New(opts.CacheDir, vbabin.Compiler{})
	return cache.Resolve(sources, opts.ForceRegenerate)
}
