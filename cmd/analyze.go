package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/salesprep-cli/internal/analysis"
	"github.com/KaramelBytes/salesprep-cli/internal/cleaning"
	"github.com/KaramelBytes/salesprep-cli/internal/parser"
)

var (
	anaOutputPath string
	anaSampleRows int
	anaMaxRows    int
	anaGroupBy    []string
	anaCorr       bool
	anaOutliers   bool
	anaOutlierThr float64
	anaSheetName  string
	anaSheetIndex int
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Profile a CSV/TSV/XLSX sales file and produce a Markdown report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		c, err := requireConfig()
		if err != nil {
			return err
		}
		ds, err := parser.ReadFile(path, parser.Options{Sheet: anaSheetName, SheetIndex: anaSheetIndex, MaxRows: anaMaxRows})
		if err != nil {
			return err
		}

		opt := analysis.DefaultOptions()
		if cmd.Flags().Changed("sample-rows") {
			opt.SampleRows = anaSampleRows
		}
		opt.GroupBy = anaGroupBy
		if len(opt.GroupBy) == 0 && c.Columns.Category != "" && ds.Has(c.Columns.Category) {
			opt.GroupBy = []string{c.Columns.Category}
		}
		opt.Correlations = anaCorr
		opt.Outliers = anaOutliers
		if anaOutlierThr > 0 {
			opt.OutlierThreshold = anaOutlierThr
		}

		types := cleaning.Classify(ds, c.Keywords)
		md := analysis.Profile(filepath.Base(path), ds, &types, opt).Markdown()
		if anaOutputPath != "" {
			if err := os.WriteFile(anaOutputPath, []byte(md), 0o644); err != nil {
				return fmt.Errorf("write analysis: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Analysis written to %s\n", anaOutputPath)
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), md)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringVarP(&anaOutputPath, "output", "o", "", "optional path to write analysis (Markdown)")
	analyzeCmd.Flags().IntVar(&anaSampleRows, "sample-rows", 5, "number of sample rows to include (0 disables samples)")
	analyzeCmd.Flags().IntVar(&anaMaxRows, "max-rows", 100000, "maximum rows to process (0 = unlimited)")
	analyzeCmd.Flags().StringSliceVar(&anaGroupBy, "group-by", nil, "comma-separated column names to group by (default: the category column)")
	analyzeCmd.Flags().BoolVar(&anaCorr, "correlations", true, "compute Pearson correlations among numeric columns")
	analyzeCmd.Flags().BoolVar(&anaOutliers, "outliers", true, "compute robust outlier counts (MAD)")
	analyzeCmd.Flags().Float64Var(&anaOutlierThr, "outlier-threshold", 3.5, "robust |z| threshold for outliers (MAD-based)")
	analyzeCmd.Flags().StringVar(&anaSheetName, "sheet", "", "XLSX: sheet name to analyze")
	analyzeCmd.Flags().IntVar(&anaSheetIndex, "sheet-index", 1, "XLSX: 1-based sheet index (used if --sheet not provided)")
}
