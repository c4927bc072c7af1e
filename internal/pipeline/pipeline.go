// Package pipeline runs the sales cleaning stages in their fixed order:
// sanitize, impute cost, correct profit, correct price anomalies, and
// standardize. A Pipeline holds configuration only; every Run works on its
// own copies and trains its own models.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/KaramelBytes/salesprep-cli/internal/analysis"
	"github.com/KaramelBytes/salesprep-cli/internal/cleaning"
	"github.com/KaramelBytes/salesprep-cli/internal/dataset"
)

// ErrNilDataset is returned by Run when no input is given.
var ErrNilDataset = errors.New("pipeline: nil dataset")

// Settings configures a Pipeline.
type Settings struct {
	Model    cleaning.ModelOptions
	Keywords cleaning.Keywords
	Roles    cleaning.Roles
}

// DefaultSettings returns the standard model options, keyword sets and
// column names.
func DefaultSettings() Settings {
	return Settings{
		Model:    cleaning.DefaultModelOptions(),
		Keywords: cleaning.DefaultKeywords(),
		Roles:    cleaning.DefaultRoles(),
	}
}

// Observer is notified after every stage. Implementations must be safe for
// concurrent use when one Pipeline serves concurrent runs.
type Observer interface {
	StageDone(res cleaning.StageResult, elapsed time.Duration)
}

// Option configures optional Pipeline dependencies.
type Option func(*Pipeline)

// WithLogger sets the logger; the default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.log = l
		}
	}
}

// WithObserver registers an observer.
func WithObserver(o Observer) Option {
	return func(p *Pipeline) {
		if o != nil {
			p.observers = append(p.observers, o)
		}
	}
}

// Pipeline is safe for concurrent Runs over distinct datasets.
type Pipeline struct {
	settings  Settings
	log       *zap.Logger
	observers []Observer
}

// New validates settings and builds a Pipeline.
func New(s Settings, opts ...Option) (*Pipeline, error) {
	if err := validator.New().Struct(s); err != nil {
		return nil, fmt.Errorf("pipeline settings: %w", err)
	}
	p := &Pipeline{settings: s, log: zap.NewNop()}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// Settings returns a copy of the pipeline configuration.
func (p *Pipeline) Settings() Settings { return p.settings }

// Run executes every stage on a copy of ds. Skipped stages are recorded in
// the result and never abort the run; the only errors are a nil input and
// context cancellation during model fitting.
func (p *Pipeline) Run(ctx context.Context, ds *dataset.Dataset) (*Result, error) {
	if ds == nil {
		return nil, ErrNilDataset
	}
	res := &Result{
		RunID:     uuid.NewString(),
		State:     StateRaw,
		StartedAt: time.Now(),
		Rows:      ds.Rows(),
		Columns:   ds.Names(),
	}
	log := p.log.With(zap.String("run_id", res.RunID))
	log.Info("pipeline: starting run", zap.Int("rows", ds.Rows()), zap.Int("columns", ds.Width()))

	roles := p.settings.Roles
	res.Types = cleaning.Classify(ds, p.settings.Keywords)
	res.Missing = analysis.Missing(ds)

	trackStage := func(next State, fn func() (cleaning.StageResult, error)) error {
		start := time.Now()
		sr, err := fn()
		elapsed := time.Since(start)
		if err != nil {
			log.Error("pipeline: stage failed",
				zap.String("stage", next.String()),
				zap.Int64("duration_ms", elapsed.Milliseconds()),
				zap.Error(err),
			)
			return err
		}
		res.Stages = append(res.Stages, sr)
		res.Log = append(res.Log, sr.Notice)
		res.State = next
		for _, o := range p.observers {
			o.StageDone(sr, elapsed)
		}

		fields := []zap.Field{
			zap.String("stage", string(sr.Stage)),
			zap.Int64("duration_ms", elapsed.Milliseconds()),
			zap.Int("rows_changed", sr.RowsChanged),
		}
		if sr.Models != nil {
			fields = append(fields, zap.String("model", sr.Models.Chosen))
		}
		if sr.Skipped() {
			log.Warn("pipeline: stage skipped", append(fields, zap.String("reason", string(sr.Reason)), zap.String("notice", sr.Notice))...)
		} else {
			log.Info("pipeline: stage complete", fields...)
		}
		return nil
	}

	if err := trackStage(StateSanitized, func() (cleaning.StageResult, error) {
		out, sr := cleaning.Sanitize(ds, p.settings.Keywords)
		res.Sanitized = out
		return sr, nil
	}); err != nil {
		return nil, err
	}

	if err := trackStage(StatePriceImputed, func() (cleaning.StageResult, error) {
		out, sr := cleaning.ImputePrice(res.Sanitized, roles.Cost, roles.Category)
		res.PriceImputed = out
		return sr, nil
	}); err != nil {
		return nil, err
	}

	if err := trackStage(StateProfitCorrected, func() (cleaning.StageResult, error) {
		out, sr, err := cleaning.CorrectProfit(ctx, res.PriceImputed, roles, p.settings.Model)
		res.ProfitCorrected = out
		return sr, err
	}); err != nil {
		return nil, fmt.Errorf("run %s: %w", res.RunID, err)
	}

	if err := trackStage(StateAnomalyCorrected, func() (cleaning.StageResult, error) {
		out, sr, err := cleaning.CorrectPriceAnomalies(ctx, res.ProfitCorrected, roles, p.settings.Model)
		res.AnomalyCorrected = out
		return sr, err
	}); err != nil {
		return nil, fmt.Errorf("run %s: %w", res.RunID, err)
	}

	if err := trackStage(StateStandardized, func() (cleaning.StageResult, error) {
		out, sr := cleaning.Standardize(res.AnomalyCorrected, roles)
		res.MinMax, res.ZScore, res.Params = out.MinMax, out.ZScore, out.Params
		return sr, nil
	}); err != nil {
		return nil, err
	}

	res.Duration = time.Since(res.StartedAt)
	log.Info("pipeline: run complete",
		zap.String("state", res.State.String()),
		zap.Int64("duration_ms", res.Duration.Milliseconds()),
	)
	return res, nil
}
