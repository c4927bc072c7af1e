package workspace

import (
	"time"

	"github.com/KaramelBytes/salesprep-cli/internal/cleaning"
	"github.com/KaramelBytes/salesprep-cli/internal/pipeline"
)

// StageSummary is the persisted outcome of one stage.
type StageSummary struct {
	Stage       cleaning.Stage      `json:"stage"`
	Outcome     cleaning.Outcome    `json:"outcome"`
	Reason      cleaning.SkipReason `json:"reason,omitempty"`
	RowsChanged int                 `json:"rows_changed"`
	Model       string              `json:"model,omitempty"`
	Notice      string              `json:"notice"`
}

// Run records one pipeline execution stored in a workspace.
type Run struct {
	ID        string         `json:"id"`
	Input     string         `json:"input"`
	Rows      int            `json:"rows"`
	Columns   int            `json:"columns"`
	State     string         `json:"state"`
	Missing   int            `json:"missing_cells"`
	Stages    []StageSummary `json:"stages"`
	Artifacts []string       `json:"artifacts"`
	Duration  time.Duration  `json:"duration_ns"`
	CreatedAt time.Time      `json:"created_at"`
}

// NewRun summarizes res. artifacts are file names relative to the run dir.
func NewRun(input string, res *pipeline.Result, artifacts []string) *Run {
	r := &Run{
		ID:        res.RunID,
		Input:     input,
		Rows:      res.Rows,
		Columns:   len(res.Columns),
		State:     res.State.String(),
		Missing:   res.Missing.TotalMissing(),
		Artifacts: append([]string(nil), artifacts...),
		Duration:  res.Duration,
		CreatedAt: res.StartedAt,
	}
	for _, s := range res.Stages {
		sum := StageSummary{
			Stage:       s.Stage,
			Outcome:     s.Outcome,
			Reason:      s.Reason,
			RowsChanged: s.RowsChanged,
			Notice:      s.Notice,
		}
		if s.Models != nil {
			sum.Model = s.Models.Chosen
		}
		r.Stages = append(r.Stages, sum)
	}
	return r
}

// Skipped counts stages that did not apply.
func (r *Run) Skipped() int {
	n := 0
	for _, s := range r.Stages {
		if s.Outcome == cleaning.OutcomeSkipped {
			n++
		}
	}
	return n
}
