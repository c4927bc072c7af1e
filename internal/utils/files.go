package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnsupportedFormat is returned by every loader and writer that dispatches
// on a file extension it does not know.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// UnsupportedFormat wraps ErrUnsupportedFormat with the offending path.
func UnsupportedFormat(path string) error {
	ext := Ext(path)
	if ext == "" {
		ext = "(none)"
	}
	return fmt.Errorf("%w: %s (extension %s)", ErrUnsupportedFormat, filepath.Base(path), ext)
}

// Ext returns the lower-cased extension of path including the dot.
func Ext(path string) string {
	return strings.ToLower(filepath.Ext(path))
}

// EnsureDir ensures the provided directory exists.
func EnsureDir(dir string) error {
	return os.MkdirAll(dir, 0o755)
}

// SafeWriteFile writes data to a temp file and atomically renames it into place.
func SafeWriteFile(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("atomic rename: %w", err)
	}
	return nil
}

// PrettyJSON marshals a value as indented JSON.
func PrettyJSON(v any) ([]byte, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal json: %w", err)
	}
	return b, nil
}

// FindWorkspaceRoot attempts to find a directory containing a workspace.json by walking up.
// If the input path is a file, it starts from its directory.
func FindWorkspaceRoot(start string) (string, error) {
	if start == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		start = wd
	}
	info, err := os.Stat(start)
	if err != nil {
		return "", err
	}
	dir := start
	if !info.IsDir() {
		dir = filepath.Dir(start)
	}
	for {
		candidate := filepath.Join(dir, "workspace.json")
		if _, err := os.Stat(candidate); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir { // reached filesystem root
			break
		}
		dir = parent
	}
	return "", errors.New("workspace root not found (workspace.json)")
}
