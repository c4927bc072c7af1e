// Package workspace persists pipeline runs on disk. A workspace is a
// directory holding workspace.json and one runs/<run-id>/ directory of
// artifacts per recorded run.
package workspace

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/KaramelBytes/salesprep-cli/internal/utils"
)

const (
	fileName = "workspace.json"
	runsDir  = "runs"
)

// ErrRunNotFound is returned when a run id is not recorded in the workspace.
var ErrRunNotFound = errors.New("run not found")

// Workspace represents a salesprep workspace persisted on disk.
type Workspace struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Runs        map[string]*Run `json:"runs"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`

	rootDir string
}

// New constructs an in-memory workspace. Call Save to persist.
func New(name, description, rootDir string) *Workspace {
	now := time.Now()
	return &Workspace{
		Name:        name,
		Description: description,
		Runs:        make(map[string]*Run),
		CreatedAt:   now,
		UpdatedAt:   now,
		rootDir:     rootDir,
	}
}

// Create persists a new workspace at dir and fails if one already exists.
func Create(name, description, dir string) (*Workspace, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errors.New("workspace name is required")
	}
	if _, err := os.Stat(filepath.Join(dir, fileName)); err == nil {
		return nil, fmt.Errorf("workspace already exists at %s", dir)
	}
	w := New(name, description, dir)
	if err := w.Save(); err != nil {
		return nil, err
	}
	return w, nil
}

// Load reads workspace.json from dir.
func Load(dir string) (*Workspace, error) {
	path := filepath.Join(dir, fileName)
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("workspace not found at %s: %w", path, err)
		}
		return nil, fmt.Errorf("read workspace: %w", err)
	}
	var w Workspace
	if err := json.Unmarshal(b, &w); err != nil {
		return nil, fmt.Errorf("parse workspace: %w", err)
	}
	if w.Runs == nil {
		w.Runs = make(map[string]*Run)
	}
	w.rootDir = dir
	return &w, nil
}

// List returns the names of the workspaces under root, sorted.
func List(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read workspaces dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(root, e.Name(), fileName)); err == nil {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// RootDir returns the on-disk workspace directory.
func (w *Workspace) RootDir() string { return w.rootDir }

// Save writes workspace.json using an atomic write.
func (w *Workspace) Save() error {
	if w.rootDir == "" {
		return errors.New("workspace root directory not set")
	}
	if err := utils.EnsureDir(w.rootDir); err != nil {
		return fmt.Errorf("ensure dir: %w", err)
	}
	w.UpdatedAt = time.Now()
	data, err := utils.PrettyJSON(w)
	if err != nil {
		return err
	}
	return utils.SafeWriteFile(filepath.Join(w.rootDir, fileName), data)
}

// RunDir returns runs/<id> inside the workspace, creating it.
func (w *Workspace) RunDir(id string) (string, error) {
	if id == "" {
		return "", errors.New("run id is required")
	}
	dir := filepath.Join(w.rootDir, runsDir, id)
	if err := utils.EnsureDir(dir); err != nil {
		return "", fmt.Errorf("create run dir: %w", err)
	}
	return dir, nil
}

// AddRun records r and saves the workspace.
func (w *Workspace) AddRun(r *Run) error {
	if r == nil || r.ID == "" {
		return errors.New("run id is required")
	}
	if w.Runs == nil {
		w.Runs = make(map[string]*Run)
	}
	w.Runs[r.ID] = r
	return w.Save()
}

// Run returns a recorded run by id or by unique id prefix.
func (w *Workspace) Run(id string) (*Run, error) {
	if r, ok := w.Runs[id]; ok {
		return r, nil
	}
	var match *Run
	for key, r := range w.Runs {
		if id != "" && strings.HasPrefix(key, id) {
			if match != nil {
				return nil, fmt.Errorf("run id prefix %q is ambiguous", id)
			}
			match = r
		}
	}
	if match == nil {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return match, nil
}

// History returns the recorded runs, oldest first.
func (w *Workspace) History() []*Run {
	runs := make([]*Run, 0, len(w.Runs))
	for _, r := range w.Runs {
		runs = append(runs, r)
	}
	sort.Slice(runs, func(i, j int) bool {
		if runs[i].CreatedAt.Equal(runs[j].CreatedAt) {
			return runs[i].ID < runs[j].ID
		}
		return runs[i].CreatedAt.Before(runs[j].CreatedAt)
	})
	return runs
}
