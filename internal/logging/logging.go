// Package logging builds the zap logger used by commands and the server.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// Config selects level, encoding and destination of diagnostic logs.
type Config struct {
	Level    string `mapstructure:"level" yaml:"level" json:"level" validate:"omitempty,oneof=debug info warn error"`
	Format   string `mapstructure:"format" yaml:"format" json:"format" validate:"omitempty,oneof=json console"`
	Output   string `mapstructure:"output" yaml:"output" json:"output" validate:"omitempty,oneof=stderr stdout file both"`
	FilePath string `mapstructure:"file_path" yaml:"file_path" json:"file_path"`
}

// DefaultConfig logs info and above to stderr in console format.
func DefaultConfig() Config {
	return Config{Level: "info", Format: "console", Output: "stderr"}
}

// New builds a logger. Output "both" writes to stderr and the file.
func New(cfg Config) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(defaultString(cfg.Level, "info"))
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}

	var zc zap.Config
	switch strings.ToLower(defaultString(cfg.Format, "console")) {
	case "json":
		zc = zap.NewProductionConfig()
	case "console":
		zc = zap.NewDevelopmentConfig()
		zc.Development = false
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}
	zc.Level = level
	zc.DisableStacktrace = true

	var paths []string
	switch strings.ToLower(defaultString(cfg.Output, "stderr")) {
	case "stderr":
		paths = []string{"stderr"}
	case "stdout":
		paths = []string{"stdout"}
	case "file", "both":
		if cfg.FilePath == "" {
			return nil, fmt.Errorf("log output %q needs logging.file_path", cfg.Output)
		}
		if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0o755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
		paths = []string{cfg.FilePath}
		if strings.EqualFold(cfg.Output, "both") {
			paths = append(paths, "stderr")
		}
	default:
		return nil, fmt.Errorf("unknown log output %q", cfg.Output)
	}
	zc.OutputPaths = paths
	zc.ErrorOutputPaths = []string{"stderr"}

	l, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return l, nil
}

func defaultString(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
