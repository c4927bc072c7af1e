package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/salesprep-cli/internal/utils"
	"github.com/KaramelBytes/salesprep-cli/internal/workspace"
)

var (
	initDescription string
)

var initCmd = &cobra.Command{
	Use:   "init <workspace-name>",
	Short: "Initialize a new salesprep workspace",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		root, err := workspacesRoot()
		if err != nil {
			return err
		}
		dir := filepath.Join(root, name)
		// Refuse to reuse a non-empty directory that is not a workspace.
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			if _, err := os.Stat(filepath.Join(dir, "workspace.json")); err == nil {
				return fmt.Errorf("workspace already exists at %s", dir)
			}
			entries, err := os.ReadDir(dir)
			if err != nil {
				return fmt.Errorf("inspect workspace directory: %w", err)
			}
			if len(entries) > 0 {
				return fmt.Errorf("directory %s already exists and is not empty; refusing to initialize workspace", dir)
			}
		} else if err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("stat workspace directory: %w", err)
		}
		if _, err := workspace.Create(name, initDescription, dir); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Workspace initialized: %s\n", dir)
		return nil
	},
}

// workspacesRoot resolves workspaces_dir, expanding a leading ~.
func workspacesRoot() (string, error) {
	c, err := requireConfig()
	if err != nil {
		return "", err
	}
	dir := c.WorkspacesDir
	if strings.HasPrefix(dir, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dir = strings.TrimPrefix(dir, "~")
		dir = strings.TrimPrefix(dir, string(os.PathSeparator))
		dir = strings.TrimPrefix(dir, "/")
		dir = filepath.Join(home, dir)
	}
	dir = filepath.Clean(dir)
	if err := utils.EnsureDir(dir); err != nil {
		return "", err
	}
	return dir, nil
}

// loadWorkspace resolves name under workspaces_dir; "." means the
// workspace enclosing the current directory.
func loadWorkspace(name string) (*workspace.Workspace, error) {
	if name == "" {
		return nil, errors.New("workspace name is required")
	}
	if name == "." {
		dir, err := utils.FindWorkspaceRoot("")
		if err != nil {
			return nil, err
		}
		return workspace.Load(dir)
	}
	root, err := workspacesRoot()
	if err != nil {
		return nil, err
	}
	return workspace.Load(filepath.Join(root, name))
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().StringVarP(&initDescription, "desc", "d", "", "workspace description")
}
