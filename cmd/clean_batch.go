package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/salesprep-cli/internal/workspace"
)

var batchOpt cleanOptions

var cleanBatchCmd = &cobra.Command{
	Use:   "clean-batch <files...>",
	Short: "Clean multiple CSV/TSV/XLSX files with progress, into a directory or a workspace",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := expandInputs(args)
		if err != nil {
			return err
		}
		if err := batchOpt.validate(); err != nil {
			return err
		}
		p, err := newPipeline()
		if err != nil {
			return err
		}
		var ws *workspace.Workspace
		if batchOpt.Workspace != "" {
			if ws, err = loadWorkspace(batchOpt.Workspace); err != nil {
				return err
			}
		}

		out := cmd.OutOrStdout()
		total := len(files)
		for i, path := range files {
			if !batchOpt.Quiet {
				fmt.Fprintf(out, "[%d/%d] Processing %s...\n", i+1, total, filepath.Base(path))
			}
			if _, err := cleanFile(cmd.Context(), out, p, ws, path, batchOpt); err != nil {
				return err
			}
		}
		return nil
	},
}

// expandInputs resolves globs and literal paths, dedups and sorts them.
func expandInputs(args []string) ([]string, error) {
	var files []string
	seen := map[string]struct{}{}
	for _, arg := range args {
		matches, _ := filepath.Glob(arg)
		if len(matches) == 0 {
			// treat as literal path if exists
			if _, err := os.Stat(arg); err == nil {
				matches = []string{arg}
			}
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no input files matched")
	}
	sort.Strings(files)
	return files, nil
}

func init() {
	rootCmd.AddCommand(cleanBatchCmd)
	addCleanFlags(cleanBatchCmd, &batchOpt)
}
