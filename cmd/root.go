package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	cfgpkg "github.com/KaramelBytes/salesprep-cli/internal/config"
	"github.com/KaramelBytes/salesprep-cli/internal/logging"
	"github.com/KaramelBytes/salesprep-cli/internal/pipeline"
)

var (
	cfgFile string
	debug   bool

	// Loaded configuration
	cfg *cfgpkg.Global
	// Diagnostics logger; user-facing output stays on stdout.
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "salesprep",
	Short: "salesprep: clean and standardize e-commerce sales exports",
	Long: `salesprep sanitizes numeric text, imputes missing cost prices, repairs
inconsistent profits and below-cost sale prices with trained regressors, and
standardizes the numeric columns of a sales table. Every intermediate table is
written out as an artifact.`,
	SilenceUsage: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.salesprep/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

func loadConfig() {
	cfg = nil
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: commands that need config report the error themselves
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		return
	}
	cfg = c

	lc := cfg.Logging
	if debug {
		lc.Level = "debug"
	}
	l, err := logging.New(lc)
	if err != nil {
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to set up logging: %v\n", err)
		return
	}
	logger = l
}

// requireConfig returns the loaded configuration, or the load error.
func requireConfig() (*cfgpkg.Global, error) {
	if cfg != nil {
		return cfg, nil
	}
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	cfg = c
	return cfg, nil
}

func newPipeline() (*pipeline.Pipeline, error) {
	c, err := requireConfig()
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return pipeline.New(c.Settings(), pipeline.WithLogger(logger))
}
