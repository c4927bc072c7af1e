package cleaning

import (
	"fmt"
	"math"
	"strings"
)

// Stage identifies one step of the cleaning sequence.
type Stage string

const (
	StageSanitize         Stage = "sanitize"
	StageImputePrice      Stage = "impute_price"
	StageCorrectProfit    Stage = "correct_profit"
	StageCorrectAnomalies Stage = "correct_price_anomalies"
	StageStandardize      Stage = "standardize"
)

type Outcome string

const (
	OutcomeApplied Outcome = "applied"
	OutcomeSkipped Outcome = "skipped"
)

// SkipReason explains a skipped stage. Skips are not errors: the stage
// passes its input through unchanged and the run continues.
type SkipReason string

const (
	ReasonNone           SkipReason = ""
	ReasonMissingColumns SkipReason = "missing_columns"
	ReasonUntrainable    SkipReason = "untrainable"
	ReasonNoCandidates   SkipReason = "no_candidates"
)

// StageResult is the typed outcome of one stage.
type StageResult struct {
	Stage          Stage        `json:"stage"`
	Outcome        Outcome      `json:"outcome"`
	Reason         SkipReason   `json:"reason,omitempty"`
	Notice         string       `json:"notice"`
	MissingColumns []string     `json:"missing_columns,omitempty"`
	Columns        []string     `json:"columns,omitempty"`
	RowsChanged    int          `json:"rows_changed"`
	Models         *ModelScores `json:"models,omitempty"`
}

func (r StageResult) Skipped() bool { return r.Outcome == OutcomeSkipped }

// ModelScores records the held-out comparison of the two regressors.
// MSE fields are nil when the test split was empty.
type ModelScores struct {
	ForestMSE *float64 `json:"forest_mse"`
	KNNMSE    *float64 `json:"knn_mse"`
	Chosen    string   `json:"chosen"`
	TrainRows int      `json:"train_rows"`
	TestRows  int      `json:"test_rows"`
}

const (
	ModelForest = "random_forest"
	ModelKNN    = "knn"
	ModelBlend  = "blend"
)

func scoreOf(mse float64) *float64 {
	if math.IsNaN(mse) || math.IsInf(mse, 0) {
		return nil
	}
	return &mse
}

func applied(stage Stage, rows int, format string, args ...any) StageResult {
	return StageResult{Stage: stage, Outcome: OutcomeApplied, RowsChanged: rows, Notice: fmt.Sprintf(format, args...)}
}

func skippedMissing(stage Stage, missing []string) StageResult {
	quoted := make([]string, len(missing))
	for i, m := range missing {
		if m == "" {
			m = "(unset)"
		}
		quoted[i] = m
	}
	return StageResult{
		Stage:          stage,
		Outcome:        OutcomeSkipped,
		Reason:         ReasonMissingColumns,
		MissingColumns: missing,
		Notice:         fmt.Sprintf("%s skipped: missing required columns %s", stage, strings.Join(quoted, ", ")),
	}
}

func skipped(stage Stage, reason SkipReason, format string, args ...any) StageResult {
	return StageResult{Stage: stage, Outcome: OutcomeSkipped, Reason: reason, Notice: fmt.Sprintf(format, args...)}
}
