package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/salesprep-cli/internal/cleaning"
	"github.com/KaramelBytes/salesprep-cli/internal/utils"
)

func isolateHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

func TestLoadDefaults(t *testing.T) {
	home := isolateHome(t)

	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".salesprep", "workspaces"), c.WorkspacesDir)
	assert.Equal(t, cleaning.DefaultModelOptions(), c.Pipeline)
	assert.Equal(t, cleaning.DefaultRoles(), c.Columns)
	assert.Equal(t, cleaning.DefaultKeywords(), c.Keywords)
	assert.Equal(t, "info", c.Logging.Level)
	assert.Equal(t, ":8080", c.Server.Addr)
	assert.Equal(t, 32, c.Server.MaxUploadMB)
	assert.NoError(t, c.Validate())
}

func TestLoadEnvOverridesFile(t *testing.T) {
	isolateHome(t)
	path := filepath.Join(t.TempDir(), "salesprep.yaml")
	require.NoError(t, os.WriteFile(path, []byte("pipeline:\n  seed: 7\n  forest_trees: 12\ncolumns:\n  cost: cost\n"), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, int64(7), c.Pipeline.Seed)
	assert.Equal(t, 12, c.Pipeline.ForestTrees)
	assert.Equal(t, "cost", c.Columns.Cost)
	assert.Equal(t, "实际售价", c.Columns.SalePrice, "unset keys keep defaults")

	t.Setenv("SALESPREP_PIPELINE_SEED", "99")
	c, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, int64(99), c.Pipeline.Seed)
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	isolateHome(t)
	for _, name := range []string{"config.yaml", "config.json"} {
		t.Run(name, func(t *testing.T) {
			c, err := Load("")
			require.NoError(t, err)
			require.NoError(t, c.Set("pipeline.knn_neighbors", "3"))
			require.NoError(t, c.Set("keywords.percent", "率, ratio"))

			path := filepath.Join(t.TempDir(), "nested", name)
			require.NoError(t, Save(c, path))

			got, err := Load(path)
			require.NoError(t, err)
			assert.Equal(t, 3, got.Pipeline.KNNNeighbors)
			assert.Equal(t, []string{"率", "ratio"}, got.Keywords.Percent)
			assert.Equal(t, c.Columns, got.Columns)
		})
	}
}

func TestSaveDefaultPath(t *testing.T) {
	home := isolateHome(t)
	c, err := Load("")
	require.NoError(t, err)
	require.NoError(t, c.Set("server.addr", ":9090"))
	require.NoError(t, Save(c, ""))
	assert.FileExists(t, filepath.Join(home, ".salesprep", "config.yaml"))

	got, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":9090", got.Server.Addr)
}

func TestUnsupportedConfigFormat(t *testing.T) {
	isolateHome(t)
	path := filepath.Join(t.TempDir(), "config.toml")

	_, err := Load(path)
	assert.True(t, errors.Is(err, utils.ErrUnsupportedFormat), "load: %v", err)

	c, err := Load("")
	require.NoError(t, err)
	assert.True(t, errors.Is(Save(c, path), utils.ErrUnsupportedFormat))
}

func TestSetValidates(t *testing.T) {
	isolateHome(t)
	c, err := Load("")
	require.NoError(t, err)

	err = c.Set("pipeline.test_fraction", "1.5")
	assert.True(t, errors.Is(err, ErrInvalid), "got %v", err)
	assert.Equal(t, 0.2, c.Pipeline.TestFraction, "failed set leaves config unchanged")

	assert.Error(t, c.Set("pipeline.seed", "abc"))
	assert.Error(t, c.Set("columns.profit", ""))
	assert.Error(t, c.Set("logging.format", "xml"))
	assert.EqualError(t, c.Set("nope", "1"), "unknown key: nope")

	require.NoError(t, c.Set("pipeline.test_fraction", "0.25"))
	assert.Equal(t, 0.25, c.Pipeline.TestFraction)
}

func TestEntriesCoverSettableKeys(t *testing.T) {
	isolateHome(t)
	c, err := Load("")
	require.NoError(t, err)
	for _, e := range c.Entries() {
		snapshot := *c
		assert.NoError(t, snapshot.Set(e.Key, e.Value), e.Key)
	}
}

func TestSettings(t *testing.T) {
	isolateHome(t)
	c, err := Load("")
	require.NoError(t, err)
	s := c.Settings()
	assert.Equal(t, c.Pipeline, s.Model)
	assert.Equal(t, c.Columns, s.Roles)
	assert.Equal(t, c.Keywords, s.Keywords)
}
