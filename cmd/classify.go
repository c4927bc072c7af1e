package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/salesprep-cli/internal/analysis"
	"github.com/KaramelBytes/salesprep-cli/internal/cleaning"
	"github.com/KaramelBytes/salesprep-cli/internal/parser"
	"github.com/KaramelBytes/salesprep-cli/internal/utils"
)

var (
	clsJSON       bool
	clsSheetName  string
	clsSheetIndex int
)

var classifyCmd = &cobra.Command{
	Use:   "classify <file>",
	Short: "Show the column role assignment and the missing-value report of a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		ds, err := parser.ReadFile(args[0], parser.Options{Sheet: clsSheetName, SheetIndex: clsSheetIndex})
		if err != nil {
			return err
		}
		types := cleaning.Classify(ds, c.Keywords)
		missing := analysis.Missing(ds)
		out := cmd.OutOrStdout()

		if clsJSON {
			b, err := utils.PrettyJSON(struct {
				Types   cleaning.ColumnTypes   `json:"column_types"`
				Missing analysis.MissingReport `json:"missing_values"`
			}{types, missing})
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(b))
			return nil
		}

		for _, role := range cleaning.AllRoles {
			names := types.Names(role)
			if len(names) == 0 {
				continue
			}
			fmt.Fprintf(out, "%s: %s\n", role, strings.Join(names, ", "))
		}
		fmt.Fprintln(out)
		fmt.Fprintf(out, "%-20s %-8s %8s %8s %8s\n", "column", "dtype", "non_null", "null", "null_pct")
		for _, e := range missing {
			fmt.Fprintf(out, "%-20s %-8s %8d %8d %7.2f%%\n", e.Column, e.DType, e.NonNull, e.Null, e.NullPct)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(classifyCmd)
	classifyCmd.Flags().BoolVar(&clsJSON, "json", false, "print JSON instead of text")
	classifyCmd.Flags().StringVar(&clsSheetName, "sheet", "", "XLSX: sheet name to read")
	classifyCmd.Flags().IntVar(&clsSheetIndex, "sheet-index", 1, "XLSX: 1-based sheet index (used if --sheet not provided)")
}
