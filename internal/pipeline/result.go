package pipeline

import (
	"time"

	"github.com/KaramelBytes/salesprep-cli/internal/analysis"
	"github.com/KaramelBytes/salesprep-cli/internal/cleaning"
	"github.com/KaramelBytes/salesprep-cli/internal/dataset"
)

// State is the position of a run in the fixed stage sequence.
type State int

const (
	StateRaw State = iota
	StateSanitized
	StatePriceImputed
	StateProfitCorrected
	StateAnomalyCorrected
	StateStandardized
)

var stateNames = [...]string{"RAW", "SANITIZED", "PRICE_IMPUTED", "PROFIT_CORRECTED", "ANOMALY_CORRECTED", "STANDARDIZED"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "UNKNOWN"
	}
	return stateNames[s]
}

func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Artifact names, in the order Result.Artifacts returns them.
const (
	ArtifactMissingValues    = "step1_missing_values"
	ArtifactPriceImputed     = "step2_price_imputed"
	ArtifactProfitCorrected  = "step3_profit_corrected"
	ArtifactAnomalyCorrected = "step4_anomaly_corrected"
	ArtifactMinMax           = "step5_minmax"
	ArtifactZScore           = "step5_zscore"
)

// ArtifactNames lists every artifact a completed run produces.
var ArtifactNames = []string{
	ArtifactMissingValues,
	ArtifactPriceImputed,
	ArtifactProfitCorrected,
	ArtifactAnomalyCorrected,
	ArtifactMinMax,
	ArtifactZScore,
}

// Artifact is a named output table of a run.
type Artifact struct {
	Name string
	Data *dataset.Dataset
}

// Result is everything one run produced. Datasets are owned by the result;
// the input is never among them.
type Result struct {
	RunID     string                 `json:"run_id"`
	State     State                  `json:"state"`
	StartedAt time.Time              `json:"started_at"`
	Duration  time.Duration          `json:"duration_ns"`
	Rows      int                    `json:"rows"`
	Columns   []string               `json:"columns"`
	Types     cleaning.ColumnTypes   `json:"column_types"`
	Missing   analysis.MissingReport `json:"missing_values"`
	Stages    []cleaning.StageResult `json:"stages"`
	Log       []string               `json:"log"`

	Params []cleaning.StandardizationParameters `json:"standardization,omitempty"`

	Sanitized        *dataset.Dataset `json:"-"`
	PriceImputed     *dataset.Dataset `json:"-"`
	ProfitCorrected  *dataset.Dataset `json:"-"`
	AnomalyCorrected *dataset.Dataset `json:"-"`
	MinMax           *dataset.Dataset `json:"-"`
	ZScore           *dataset.Dataset `json:"-"`
}

// Artifacts returns the downloadable tables in step order.
func (r *Result) Artifacts() []Artifact {
	return []Artifact{
		{Name: ArtifactMissingValues, Data: r.Missing.ToDataset()},
		{Name: ArtifactPriceImputed, Data: r.PriceImputed},
		{Name: ArtifactProfitCorrected, Data: r.ProfitCorrected},
		{Name: ArtifactAnomalyCorrected, Data: r.AnomalyCorrected},
		{Name: ArtifactMinMax, Data: r.MinMax},
		{Name: ArtifactZScore, Data: r.ZScore},
	}
}

// Artifact looks up one artifact by name.
func (r *Result) Artifact(name string) (*dataset.Dataset, bool) {
	for _, a := range r.Artifacts() {
		if a.Name == name {
			return a.Data, a.Data != nil
		}
	}
	return nil, false
}

// Stage returns the result of the named stage.
func (r *Result) Stage(s cleaning.Stage) (cleaning.StageResult, bool) {
	for _, st := range r.Stages {
		if st.Stage == s {
			return st, true
		}
	}
	return cleaning.StageResult{}, false
}

// Final is the last non-standardized dataset of the run.
func (r *Result) Final() *dataset.Dataset {
	return r.AnomalyCorrected
}
