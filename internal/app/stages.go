package service

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/cohort/internal/domain/augment"
	"github.com/okian/cohort/internal/domain/cohort"
	"github.com/okian/cohort/internal/domain/frame"
	"github.com/okian/cohort/internal/domain/report"
	"github.com/okian/cohort/pkg/logger"
)

// begin checks that stage may run now. Callers hold p.mu.
func (p *Pipeline) begin(ctx context.Context, stage Stage, want state) error {
	if err := ctx.Err(); err != nil {
		return &StageError{Stage: stage, Err: err}
	}
	if p.state != want {
		return &StageError{Stage: stage, Err: fmt.Errorf("%w: %s after %s", ErrStageOrder, stage, p.lastStage())}
	}
	p.logger.Debug(ctx, "stage started", logger.String("stage", string(stage)))
	return nil
}

func (p *Pipeline) lastStage() string {
	switch p.state {
	case stateLoaded:
		return string(StageLoad)
	case stateNormalized:
		return string(StageNormalize)
	case stateJoined:
		return string(StageExtractJoin)
	case stateCompleted:
		return string(StageDeriveComplete)
	case stateReported:
		return string(StageReport)
	default:
		return "start"
	}
}

// fail records and wraps a stage failure.
func (p *Pipeline) fail(ctx context.Context, stage Stage, subject string, err error) error {
	p.metrics.RecordStageError(string(stage))
	se := &StageError{Stage: stage, Subject: subject, Err: err}
	p.logger.Error(ctx, "stage failed", logger.String("stage", string(stage)), logger.String("subject", subject), logger.Error(err))
	return se
}

// done records a finished stage producing f.
func (p *Pipeline) done(ctx context.Context, stage Stage, started time.Time, f *frame.Frame) {
	elapsed := time.Since(started)
	p.metrics.ObserveStage(string(stage), elapsed, f.NumRows(), f.NumCols())
	p.logger.Info(ctx, "stage finished",
		logger.String("stage", string(stage)),
		logger.Int("rows", f.NumRows()),
		logger.Int("columns", f.NumCols()),
		logger.Duration("elapsed", elapsed))
}

func (p *Pipeline) requireReader(stage Stage) error {
	if p.reader == nil {
		return &StageError{Stage: stage, Err: fmt.Errorf("%w: no reader configured", ErrStageOrder)}
	}
	return nil
}

// Load reads the base table at path.
func (p *Pipeline) Load(ctx context.Context, path string) (*frame.Frame, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.begin(ctx, StageLoad, stateNew); err != nil {
		return nil, err
	}
	if err := p.requireReader(StageLoad); err != nil {
		return nil, err
	}
	started := time.Now()
	f, err := p.reader.Load(ctx, path)
	if err != nil {
		return nil, p.fail(ctx, StageLoad, path, err)
	}
	p.current = f
	p.state = stateLoaded
	p.done(ctx, StageLoad, started, f)
	return f, nil
}

// Augment joins each source variable onto the loaded table, in order. It may run any
// number of times between Load and Normalize.
func (p *Pipeline) Augment(ctx context.Context, sources ...augment.Source) (*frame.Frame, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.begin(ctx, StageAugment, stateLoaded); err != nil {
		return nil, err
	}
	if len(sources) == 0 {
		return p.current, nil
	}
	if err := p.requireReader(StageAugment); err != nil {
		return nil, err
	}
	aug := augment.New(p.reader,
		augment.WithKeys(p.subject, p.event),
		augment.WithJoinObserver(func(variable string, matched int) {
			p.metrics.RecordColumnAugmented()
			p.logger.Debug(ctx, "variable joined", logger.String("variable", variable), logger.Int("matched", matched))
		}),
	)

	started := time.Now()
	out := p.current
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return nil, &StageError{Stage: StageAugment, Subject: src.Variable, Err: err}
		}
		next, err := aug.AugmentAll(ctx, out, []augment.Source{src})
		if err != nil {
			return nil, p.fail(ctx, StageAugment, fmt.Sprintf("%s from %s", src.Variable, src.Path), err)
		}
		out = next
	}
	p.current = out
	p.done(ctx, StageAugment, started, out)
	return out, nil
}

// Normalize recasts column kinds and puts the baseline label first.
func (p *Pipeline) Normalize(ctx context.Context) (*frame.Frame, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.begin(ctx, StageNormalize, stateLoaded); err != nil {
		return nil, err
	}
	if p.normalizer == nil {
		return nil, &StageError{Stage: StageNormalize, Err: fmt.Errorf("%w: no normalizer configured", ErrStageOrder)}
	}
	started := time.Now()
	f, err := p.normalizer.Normalize(p.current)
	if err != nil {
		return nil, p.fail(ctx, StageNormalize, "", err)
	}
	p.current = f
	p.state = stateNormalized
	p.done(ctx, StageNormalize, started, f)
	return f, nil
}

// ExtractJoin joins the follow-up outcome onto the baseline covariates.
func (p *Pipeline) ExtractJoin(ctx context.Context) (*frame.Frame, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.begin(ctx, StageExtractJoin, stateNormalized); err != nil {
		return nil, err
	}
	if p.builder == nil {
		return nil, &StageError{Stage: StageExtractJoin, Err: fmt.Errorf("%w: no cohort builder configured", ErrStageOrder)}
	}
	started := time.Now()
	spec := p.builder.Spec()
	f, err := p.builder.ExtractJoin(p.current)
	if err != nil {
		return nil, p.fail(ctx, StageExtractJoin, spec.Baseline+" -> "+spec.Followup, err)
	}
	p.current = f
	p.state = stateJoined
	p.done(ctx, StageExtractJoin, started, f)
	return f, nil
}

// DeriveComplete derives the composite covariates and applies listwise deletion.
func (p *Pipeline) DeriveComplete(ctx context.Context) (cohort.Completion, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.begin(ctx, StageDeriveComplete, stateJoined); err != nil {
		return cohort.Completion{}, err
	}
	started := time.Now()
	c, err := p.builder.DeriveComplete(p.current)
	if err != nil {
		return cohort.Completion{}, p.fail(ctx, StageDeriveComplete, p.builder.Spec().Derivation.PDS, err)
	}
	p.completion = c
	p.current = c.Frame
	p.state = stateCompleted
	p.metrics.UpdateRowsDropped(c.DroppedRows)
	p.logger.Info(ctx, "listwise deletion",
		logger.Int("joined_rows", c.JoinedRows),
		logger.Int("dropped_rows", c.DroppedRows),
		logger.Any("missing_by_column", c.MissingByColumn))
	p.done(ctx, StageDeriveComplete, started, c.Frame)
	return c, nil
}

// Report summarizes the cohort and fits model when it names a response.
func (p *Pipeline) Report(ctx context.Context, model report.ModelSpec, groupBy string) (*report.Report, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.begin(ctx, StageReport, stateCompleted); err != nil {
		return nil, err
	}
	started := time.Now()
	r, err := report.Build(p.current, model, groupBy)
	if err != nil {
		return nil, p.fail(ctx, StageReport, model.Response, err)
	}
	r.RunID = p.runID
	r.Joined = p.completion.JoinedRows
	r.Dropped = p.completion.DroppedRows
	r.Missing = p.completion.MissingByColumn
	if r.Fit != nil {
		p.logger.Info(ctx, "model fitted",
			logger.String("response", model.Response),
			logger.Int("n", r.Fit.N),
			logger.Float64("r2", r.Fit.R2))
	}
	p.state = stateReported
	p.done(ctx, StageReport, started, p.current)
	return r, nil
}
