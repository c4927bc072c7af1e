package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/salesprep-cli/internal/workspace"
)

var (
	listWorkspaces bool
	listRuns       bool
	listWorkspace  string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List workspaces or recorded runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		if listWorkspaces == listRuns { // either both true or both false
			return fmt.Errorf("specify exactly one of --workspaces or --runs")
		}
		out := cmd.OutOrStdout()
		if listWorkspaces {
			root, err := workspacesRoot()
			if err != nil {
				return err
			}
			names, err := workspace.List(root)
			if err != nil {
				return err
			}
			if len(names) == 0 {
				fmt.Fprintln(out, "(no workspaces)")
			}
			for _, n := range names {
				fmt.Fprintf(out, "- %s\n", n)
			}
			return nil
		}
		if listWorkspace == "" {
			return fmt.Errorf("--workspace is required when using --runs")
		}
		ws, err := loadWorkspace(listWorkspace)
		if err != nil {
			return err
		}
		runs := ws.History()
		if len(runs) == 0 {
			fmt.Fprintln(out, "(no runs)")
			return nil
		}
		for _, r := range runs {
			fmt.Fprintf(out, "- %s: %s (%d rows, %s, %d skipped, %s)\n",
				r.ID, r.Input, r.Rows, r.State, r.Skipped(), r.CreatedAt.Format("2006-01-02 15:04:05"))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVar(&listWorkspaces, "workspaces", false, "list workspaces")
	listCmd.Flags().BoolVar(&listRuns, "runs", false, "list runs recorded in a workspace")
	listCmd.Flags().StringVarP(&listWorkspace, "workspace", "w", "", "workspace name for --runs")
}
