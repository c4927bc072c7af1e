package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/salesprep-cli/internal/cleaning"
	"github.com/KaramelBytes/salesprep-cli/internal/logging"
	"github.com/KaramelBytes/salesprep-cli/internal/pipeline"
	"github.com/KaramelBytes/salesprep-cli/internal/utils"
)

// ErrInvalid marks a configuration that failed validation.
var ErrInvalid = errors.New("invalid configuration")

const (
	envPrefix = "SALESPREP"
	dirName   = ".salesprep"
)

// Server configures the HTTP surface.
type Server struct {
	Addr        string `mapstructure:"addr" yaml:"addr" json:"addr" validate:"required"`
	MaxUploadMB int    `mapstructure:"max_upload_mb" yaml:"max_upload_mb" json:"max_upload_mb" validate:"gte=1"`
}

// Global configuration structure.
type Global struct {
	WorkspacesDir string                `mapstructure:"workspaces_dir" yaml:"workspaces_dir" json:"workspaces_dir"`
	Pipeline      cleaning.ModelOptions `mapstructure:"pipeline" yaml:"pipeline" json:"pipeline"`
	Columns       cleaning.Roles        `mapstructure:"columns" yaml:"columns" json:"columns"`
	Keywords      cleaning.Keywords     `mapstructure:"keywords" yaml:"keywords" json:"keywords"`
	Logging       logging.Config        `mapstructure:"logging" yaml:"logging" json:"logging"`
	Server        Server                `mapstructure:"server" yaml:"server" json:"server"`
}

// Dir returns ~/.salesprep.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, dirName), nil
}

// checkExt accepts .yaml, .yml and .json config files.
func checkExt(path string) error {
	switch utils.Ext(path) {
	case ".yaml", ".yml", ".json":
		return nil
	}
	return utils.UnsupportedFormat(path)
}

func setDefaults(v *viper.Viper) {
	m := cleaning.DefaultModelOptions()
	v.SetDefault("workspaces_dir", "")
	v.SetDefault("pipeline.test_fraction", m.TestFraction)
	v.SetDefault("pipeline.seed", m.Seed)
	v.SetDefault("pipeline.knn_neighbors", m.KNNNeighbors)
	v.SetDefault("pipeline.forest_trees", m.ForestTrees)
	v.SetDefault("pipeline.forest_max_depth", 0)
	v.SetDefault("pipeline.workers", 0)

	r := cleaning.DefaultRoles()
	v.SetDefault("columns.cost", r.Cost)
	v.SetDefault("columns.sale_price", r.SalePrice)
	v.SetDefault("columns.quantity", r.Quantity)
	v.SetDefault("columns.profit", r.Profit)
	v.SetDefault("columns.category", r.Category)
	v.SetDefault("columns.sales_amount", r.SalesAmount)
	v.SetDefault("columns.customer_age", r.CustomerAge)

	kw := cleaning.DefaultKeywords()
	v.SetDefault("keywords.identifier", kw.Identifier)
	v.SetDefault("keywords.ordinal", kw.Ordinal)
	v.SetDefault("keywords.price", kw.Price)
	v.SetDefault("keywords.percent", kw.Percent)

	lc := logging.DefaultConfig()
	v.SetDefault("logging.level", lc.Level)
	v.SetDefault("logging.format", lc.Format)
	v.SetDefault("logging.output", lc.Output)
	v.SetDefault("logging.file_path", "")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.max_upload_mb", 32)
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults. A missing file is not an error;
// a config path with an extension other than .yaml, .yml or .json is.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if cfgFile != "" {
		if err := checkExt(cfgFile); err != nil {
			return nil, err
		}
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	// Resolve workspaces_dir default: ~/.salesprep/workspaces
	if c.WorkspacesDir == "" {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		c.WorkspacesDir = filepath.Join(dir, "workspaces")
	}
	return &c, nil
}

// Save writes the configuration to cfgFile, or ~/.salesprep/config.yaml when
// empty. The format follows the extension.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := Dir()
		if err != nil {
			return err
		}
		path = filepath.Join(dir, "config.yaml")
	}
	if err := checkExt(path); err != nil {
		return err
	}

	var (
		b   []byte
		err error
	)
	if utils.Ext(path) == ".json" {
		b, err = utils.PrettyJSON(c)
	} else {
		b, err = yaml.Marshal(c)
		if err != nil {
			err = fmt.Errorf("marshal yaml: %w", err)
		}
	}
	if err != nil {
		return err
	}
	if err := utils.EnsureDir(filepath.Dir(path)); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	if err := utils.SafeWriteFile(path, b); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Validate checks value ranges and required column names.
func (c *Global) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// Settings converts the configuration into pipeline settings.
func (c *Global) Settings() pipeline.Settings {
	return pipeline.Settings{
		Model:    c.Pipeline,
		Keywords: c.Keywords,
		Roles:    c.Columns,
	}
}
