package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/salesprep-cli/internal/cleaning"
	"github.com/KaramelBytes/salesprep-cli/internal/exporter"
	"github.com/KaramelBytes/salesprep-cli/internal/parser"
	"github.com/KaramelBytes/salesprep-cli/internal/pipeline"
	"github.com/KaramelBytes/salesprep-cli/internal/utils"
	"github.com/KaramelBytes/salesprep-cli/internal/workspace"
)

// ArtifactFilled is the optional table with every remaining gap filled.
const ArtifactFilled = "step4_filled"

// cleanOptions is shared by clean and clean-batch.
type cleanOptions struct {
	OutDir        string
	Prefix        string
	Format        string
	Delimiter     string
	Sheet         string
	SheetIndex    int
	MaxRows       int
	FillRemaining bool
	Placeholder   string
	Workspace     string
	Quiet         bool
}

var cleanOpt cleanOptions

var cleanCmd = &cobra.Command{
	Use:   "clean <file>",
	Short: "Run the cleaning pipeline on a CSV/TSV/XLSX sales file and write every artifact",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cleanOpt.validate(); err != nil {
			return err
		}
		p, err := newPipeline()
		if err != nil {
			return err
		}
		var ws *workspace.Workspace
		if cleanOpt.Workspace != "" {
			if ws, err = loadWorkspace(cleanOpt.Workspace); err != nil {
				return err
			}
		}
		_, err = cleanFile(cmd.Context(), cmd.OutOrStdout(), p, ws, args[0], cleanOpt)
		return err
	},
}

func (o cleanOptions) validate() error {
	switch o.Format {
	case "csv", "xlsx":
	default:
		return fmt.Errorf("unsupported --format: %s (use csv|xlsx)", o.Format)
	}
	if o.Workspace != "" && o.OutDir != "" {
		return fmt.Errorf("--out-dir and --workspace are mutually exclusive")
	}
	_, err := o.delimiter()
	return err
}

func (o cleanOptions) delimiter() (rune, error) {
	switch o.Delimiter {
	case "":
		return 0, nil
	case ",":
		return ',', nil
	case "\t", "tab":
		return '\t', nil
	case ";":
		return ';', nil
	}
	return 0, fmt.Errorf("unsupported --delimiter: %s", o.Delimiter)
}

func (o cleanOptions) parserOptions() parser.Options {
	d, _ := o.delimiter()
	return parser.Options{Delimiter: d, Sheet: o.Sheet, SheetIndex: o.SheetIndex, MaxRows: o.MaxRows}
}

// cleanFile reads path, runs the pipeline and writes the artifacts either
// into a new workspace run directory or into o.OutDir.
func cleanFile(ctx context.Context, out io.Writer, p *pipeline.Pipeline, ws *workspace.Workspace, path string, o cleanOptions) (*pipeline.Result, error) {
	ds, err := parser.ReadFile(path, o.parserOptions())
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	res, err := p.Run(ctx, ds)
	if err != nil {
		return nil, err
	}
	if !o.Quiet {
		printRun(out, res)
	}

	dir := o.OutDir
	if ws != nil {
		if dir, err = ws.RunDir(res.RunID); err != nil {
			return nil, err
		}
	} else if dir == "" {
		dir = "."
	}
	if err := utils.EnsureDir(dir); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	prefix := o.Prefix
	if prefix == "" {
		base := filepath.Base(path)
		prefix = strings.TrimSuffix(base, filepath.Ext(base))
	}
	if unique := uniquePrefix(dir, prefix, o.Format); unique != prefix {
		prefix = unique
		if !o.Quiet {
			fmt.Fprintf(out, "⚠ Detected existing artifacts, writing with prefix %s to avoid overwrite.\n", prefix)
		}
	}

	files, err := writeArtifacts(dir, prefix, res, o)
	if err != nil {
		return nil, err
	}
	if ws != nil {
		if err := ws.AddRun(workspace.NewRun(path, res, files)); err != nil {
			return nil, fmt.Errorf("record run: %w", err)
		}
	}
	if !o.Quiet {
		for _, f := range files {
			fmt.Fprintf(out, "✓ Wrote %s\n", filepath.Join(dir, f))
		}
		if ws != nil {
			fmt.Fprintf(out, "✓ Recorded run %s in workspace '%s'\n", res.RunID, ws.Name)
		}
	}
	return res, nil
}

func printRun(out io.Writer, res *pipeline.Result) {
	fmt.Fprintf(out, "Run %s: %d rows, %d columns, %d missing cells\n",
		res.RunID, res.Rows, len(res.Columns), res.Missing.TotalMissing())
	for _, s := range res.Stages {
		mark := "✓"
		if s.Skipped() {
			mark = "⚠"
		}
		fmt.Fprintf(out, "%s %s\n", mark, s.Notice)
	}
}

// writeArtifacts returns the written file names relative to dir.
func writeArtifacts(dir, prefix string, res *pipeline.Result, o cleanOptions) ([]string, error) {
	artifacts := res.Artifacts()
	if o.FillRemaining {
		filled, n := cleaning.FillRemaining(res.Final(), o.Placeholder)
		logger.Sugar().Debugw("filled remaining missing cells", "run_id", res.RunID, "cells", n)
		artifacts = append(artifacts, pipeline.Artifact{Name: ArtifactFilled, Data: filled})
	}

	if o.Format == "xlsx" {
		sheets := make([]exporter.Sheet, 0, len(artifacts))
		for _, a := range artifacts {
			sheets = append(sheets, exporter.Sheet{Name: a.Name, Data: a.Data})
		}
		name := prefix + "_artifacts.xlsx"
		if err := exporter.WriteXLSX(filepath.Join(dir, name), sheets...); err != nil {
			return nil, fmt.Errorf("write workbook: %w", err)
		}
		return []string{name}, nil
	}

	files := make([]string, 0, len(artifacts))
	for _, a := range artifacts {
		name := prefix + "_" + a.Name + ".csv"
		if err := exporter.SaveFile(filepath.Join(dir, name), a.Data); err != nil {
			return nil, fmt.Errorf("write %s: %w", a.Name, err)
		}
		files = append(files, name)
	}
	return files, nil
}

// uniquePrefix appends __2, __3, ... while artifacts for prefix exist in dir.
func uniquePrefix(dir, prefix, format string) string {
	probe := func(p string) string {
		if format == "xlsx" {
			return filepath.Join(dir, p+"_artifacts.xlsx")
		}
		return filepath.Join(dir, p+"_"+pipeline.ArtifactMissingValues+".csv")
	}
	if _, err := os.Stat(probe(prefix)); os.IsNotExist(err) {
		return prefix
	}
	for idx := 2; ; idx++ {
		cand := fmt.Sprintf("%s__%d", prefix, idx)
		if _, err := os.Stat(probe(cand)); os.IsNotExist(err) {
			return cand
		}
	}
}

func addCleanFlags(cmd *cobra.Command, o *cleanOptions) {
	f := cmd.Flags()
	f.StringVar(&o.OutDir, "out-dir", "", "directory for artifacts (default: current directory)")
	f.StringVar(&o.Format, "format", "csv", "artifact format: csv (one file per artifact) | xlsx (one workbook)")
	f.StringVar(&o.Delimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab'")
	f.StringVar(&o.Sheet, "sheet", "", "XLSX: sheet name to read")
	f.IntVar(&o.SheetIndex, "sheet-index", 1, "XLSX: 1-based sheet index (used if --sheet not provided)")
	f.IntVar(&o.MaxRows, "max-rows", 0, "maximum rows to read (0 = unlimited)")
	f.BoolVar(&o.FillRemaining, "fill-remaining", false, "also write "+ArtifactFilled+" with remaining gaps filled (median / placeholder)")
	f.StringVar(&o.Placeholder, "placeholder", cleaning.DefaultPlaceholder, "text placeholder used by --fill-remaining")
	f.StringVarP(&o.Workspace, "workspace", "w", "", "record the run and its artifacts in this workspace (\".\" = enclosing workspace)")
	f.BoolVar(&o.Quiet, "quiet", false, "suppress progress and non-essential output")
}

func init() {
	rootCmd.AddCommand(cleanCmd)
	addCleanFlags(cleanCmd, &cleanOpt)
	cleanCmd.Flags().StringVar(&cleanOpt.Prefix, "prefix", "", "artifact file name prefix (default: input base name)")
}
