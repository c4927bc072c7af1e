package workspace_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/salesprep-cli/internal/analysis"
	"github.com/KaramelBytes/salesprep-cli/internal/cleaning"
	"github.com/KaramelBytes/salesprep-cli/internal/pipeline"
	"github.com/KaramelBytes/salesprep-cli/internal/workspace"
)

func fakeResult(id string, started time.Time) *pipeline.Result {
	return &pipeline.Result{
		RunID:     id,
		State:     pipeline.StateStandardized,
		StartedAt: started,
		Rows:      10,
		Columns:   []string{"进货价格", "实际售价", "利润"},
		Missing: analysis.MissingReport{
			{Column: "进货价格", Null: 2}, {Column: "利润", Null: 1},
		},
		Stages: []cleaning.StageResult{
			{Stage: cleaning.StageSanitize, Outcome: cleaning.OutcomeApplied, Notice: "sanitized"},
			{Stage: cleaning.StageCorrectProfit, Outcome: cleaning.OutcomeApplied, RowsChanged: 1,
				Models: &cleaning.ModelScores{Chosen: cleaning.ModelForest}},
			{Stage: cleaning.StageCorrectAnomalies, Outcome: cleaning.OutcomeSkipped,
				Reason: cleaning.ReasonMissingColumns, Notice: "skipped"},
		},
	}
}

func TestCreateLoadAndRecordRuns(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "q3")
	ws, err := workspace.Create("q3", "third quarter", dir)
	require.NoError(t, err)

	_, err = workspace.Create("q3", "", dir)
	assert.Error(t, err, "second create must fail")

	t0 := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	for i, id := range []string{"bbbb-2", "aaaa-1"} {
		runDir, err := ws.RunDir(id)
		require.NoError(t, err)
		assert.DirExists(t, runDir)
		run := workspace.NewRun("sales.csv", fakeResult(id, t0.Add(time.Duration(i)*time.Hour)), []string{"x_step1_missing_values.csv"})
		require.NoError(t, ws.AddRun(run))
	}

	loaded, err := workspace.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "q3", loaded.Name)
	assert.Equal(t, dir, loaded.RootDir())

	hist := loaded.History()
	require.Len(t, hist, 2)
	assert.Equal(t, "bbbb-2", hist[0].ID, "oldest first")

	run, err := loaded.Run("aaaa")
	require.NoError(t, err)
	assert.Equal(t, 3, run.Missing)
	assert.Equal(t, 3, run.Columns)
	assert.Equal(t, "STANDARDIZED", run.State)
	assert.Equal(t, 1, run.Skipped())
	assert.Equal(t, cleaning.ModelForest, run.Stages[1].Model)
	assert.Equal(t, []string{"x_step1_missing_values.csv"}, run.Artifacts)

	_, err = loaded.Run("zzz")
	assert.True(t, errors.Is(err, workspace.ErrRunNotFound))
}

func TestAmbiguousRunPrefix(t *testing.T) {
	ws := workspace.New("w", "", t.TempDir())
	require.NoError(t, ws.AddRun(&workspace.Run{ID: "ab1"}))
	require.NoError(t, ws.AddRun(&workspace.Run{ID: "ab2"}))
	_, err := ws.Run("ab")
	assert.ErrorContains(t, err, "ambiguous")
	assert.Error(t, ws.AddRun(&workspace.Run{}))
}

func TestLoadMissingWorkspace(t *testing.T) {
	_, err := workspace.Load(t.TempDir())
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestList(t *testing.T) {
	root := t.TempDir()
	names, err := workspace.List(filepath.Join(root, "absent"))
	require.NoError(t, err)
	assert.Empty(t, names)

	for _, n := range []string{"zeta", "alpha"} {
		_, err := workspace.Create(n, "", filepath.Join(root, n))
		require.NoError(t, err)
	}
	require.NoError(t, os.MkdirAll(filepath.Join(root, "not-a-workspace"), 0o755))

	names, err = workspace.List(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "zeta"}, names)
}
