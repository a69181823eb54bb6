// Package main provides the CLI entry point for pmsbook.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/modernpms/pmsbook/pkg/pmsbook"
	"github.com/modernpms/pmsbook/pkg/pmsbook/inspect"
	"github.com/spf13/cobra"
)

var (
	spokes     int
	sample     string
	withMacros bool
	forceRegen bool
	outputPath string
	reportPath string
	cacheDir   string
	vbaDir     string
	configPath string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "pmsbook",
		Short: "Generate the Modern Excel PMS workbook",
		Long: `pmsbook assembles a protected project-management workbook: a WBS
template expanded into numbered PRJ sheets, case and measure masters,
a kanban view, and an optional embedded macro project.`,
		Args: cobra.NoArgs,
		RunE: run,
	}

	rootCmd.Flags().IntVar(&spokes, "spokes", 1, "Number of PRJ_NNN sheets to generate")
	rootCmd.Flags().StringVar(&sample, "sample", "none", "Sample data placement: none, first, all")
	rootCmd.Flags().BoolVar(&withMacros, "with-macros", false, "Embed the macro project binary")
	rootCmd.Flags().BoolVar(&forceRegen, "force-regen", false, "Regenerate the macro binary even on a cache hit")
	rootCmd.Flags().StringVarP(&outputPath, "output", "o", "dist/pms.xlsm", "Workbook output path")
	rootCmd.Flags().StringVar(&reportPath, "report-output", "", "Write the build report to this path (.md or .txt)")
	rootCmd.Flags().StringVar(&cacheDir, "cache-dir", ".pmsbook-cache", "Macro binary cache directory")
	rootCmd.Flags().StringVar(&vbaDir, "vba-dir", "", "Directory of *.bas/*.cls macro sources")
	rootCmd.Flags().StringVar(&configPath, "config", "", "YAML config file overlaying the defaults")

	verifyCmd := &cobra.Command{
		Use:   "verify [book.xlsm]",
		Short: "Inspect a generated workbook and print its structure",
		Args:  cobra.ExactArgs(1),
		RunE:  runVerify,
	}
	rootCmd.AddCommand(verifyCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runVerify(cmd *cobra.Command, args []string) error {
	summary, err := inspect.Inspect(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("%s\n", summary.BookName)
	fmt.Printf("  macro project: %v\n", summary.HasMacro)
	fmt.Printf("  defined names: %d\n", len(summary.DefinedNames))
	for _, s := range summary.Sheets {
		state := "unprotected"
		if s.Protected {
			state = "protected"
			if s.PasswordHash != "" {
				state += " (password)"
			}
		}
		fmt.Printf("  %-16s %5d cells %5d formulas  %s\n", s.Name, s.CellCount, s.FormulaCount, state)
	}
	return nil
}

func run(cmd *cobra.Command, args []string) error {
	opts := pmsbook.DefaultOptions()

	if configPath != "" {
		if err := pmsbook.LoadOptions(configPath, &opts); err != nil {
			return err
		}
	}

	// Explicit flags win over the config file.
	if cmd.Flags().Changed("spokes") {
		opts.SpokeCount = spokes
	}
	if cmd.Flags().Changed("sample") {
		scope, err := pmsbook.ParseSampleScope(sample)
		if err != nil {
			return err
		}
		opts.Sample = scope
	}
	if cmd.Flags().Changed("with-macros") {
		opts.IncludeMacros = withMacros
	}
	if cmd.Flags().Changed("force-regen") {
		opts.ForceRegenerate = forceRegen
	}
	if cmd.Flags().Changed("output") {
		opts.OutputPath = outputPath
	}
	if cmd.Flags().Changed("report-output") {
		opts.ReportPath = reportPath
	}
	if cmd.Flags().Changed("cache-dir") {
		opts.CacheDir = cacheDir
	}
	if cmd.Flags().Changed("vba-dir") {
		opts.VBADir = vbaDir
	}

	if dir := filepath.Dir(opts.OutputPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}

	if _, err := pmsbook.Build(opts); err != nil {
		return fmt.Errorf("build failed: %w", err)
	}
	fmt.Printf("ブックを生成しました: %s\n", opts.OutputPath)
	if opts.ReportPath != "" {
		fmt.Printf("レポートを出力しました: %s\n", opts.ReportPath)
	}
	return nil
}
