// Package service runs the cohort preparation pipeline:
// Load -> [Augment]* -> Normalize -> ExtractJoin -> DeriveComplete -> Report.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/cohort/internal/adapters/csvsource"
	"github.com/okian/cohort/internal/config"
	"github.com/okian/cohort/internal/domain/augment"
	"github.com/okian/cohort/internal/domain/cohort"
	"github.com/okian/cohort/internal/domain/frame"
	"github.com/okian/cohort/internal/domain/normalize"
	"github.com/okian/cohort/internal/domain/report"
	"github.com/okian/cohort/pkg/logger"
	"github.com/okian/cohort/pkg/metrics"
)

// state is the last completed stage.
type state int

const (
	stateNew state = iota
	stateLoaded
	stateNormalized
	stateJoined
	stateCompleted
	stateReported
)

// Result is the outcome of a full run.
type Result struct {
	RunID      string
	Joined     *frame.Frame
	Cohort     *frame.Frame
	Completion cohort.Completion
	Report     *report.Report
}

// Pipeline threads one dataset through the stages in order. Every stage returns a new
// frame; a Pipeline is single use.
type Pipeline struct {
	mu sync.Mutex

	reader     *csvsource.Reader
	normalizer *normalize.Normalizer
	builder    *cohort.Builder
	logger     logger.Logger
	metrics    *metrics.Manager
	runID      string
	subject    string
	event      string

	state      state
	current    *frame.Frame
	completion cohort.Completion
}

// Option applies a configuration option to the Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
func WithLogger(l logger.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithReader sets the reader used by Load and, unless a source overrides it, Augment.
func WithReader(r *csvsource.Reader) Option {
	return func(p *Pipeline) {
		if r != nil {
			p.reader = r
		}
	}
}

// WithNormalizer sets the normalizer.
func WithNormalizer(n *normalize.Normalizer) Option {
	return func(p *Pipeline) {
		if n != nil {
			p.normalizer = n
		}
	}
}

// WithBuilder sets the cohort builder.
func WithBuilder(b *cohort.Builder) Option {
	return func(p *Pipeline) {
		if b != nil {
			p.builder = b
		}
	}
}

// WithMetrics sets the metrics manager. The global manager is used by default.
func WithMetrics(m *metrics.Manager) Option {
	return func(p *Pipeline) {
		if m != nil {
			p.metrics = m
		}
	}
}

// WithKeys sets the subject and event key column names used by Augment. Configure
// replaces them with the configured keys.
func WithKeys(subject, event string) Option {
	return func(p *Pipeline) {
		if subject != "" {
			p.subject = subject
		}
		if event != "" {
			p.event = event
		}
	}
}

// WithRunID fixes the run identifier instead of generating one.
func WithRunID(id string) Option {
	return func(p *Pipeline) {
		if id != "" {
			p.runID = id
		}
	}
}

// New constructs a Pipeline. Components not given as options must be supplied by
// Configure before the stage that needs them.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		metrics: metrics.Default(),
		runID:   uuid.NewString(),
		subject: "subject_id",
		event:   "event_name",
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = logger.Get()
	}
	p.logger = p.logger.Named("pipeline").With(logger.String("run_id", p.runID))
	return p
}

// RunID returns the run identifier.
func (p *Pipeline) RunID() string { return p.runID }

// Configure builds every component not set through an option from cfg.
func (p *Pipeline) Configure(cfg *config.Config) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.subject, p.event = cfg.Keys.Subject, cfg.Keys.Event
	if p.reader == nil {
		kinds, err := cfg.Kinds()
		if err != nil {
			return err
		}
		p.reader = csvsource.New(
			csvsource.WithDelimiter(cfg.DelimiterRune()),
			csvsource.WithSentinels(cfg.Sentinels...),
			csvsource.WithColumnTypes(kinds),
			csvsource.WithUniqueKey(cfg.Keys.Subject, cfg.Keys.Event),
			csvsource.WithSentinelObserver(p.metrics.RecordSentinelHits),
		)
	}
	if p.normalizer == nil {
		p.normalizer = normalize.New(cfg.Events.Baseline,
			normalize.WithKeys(cfg.Keys.Subject, cfg.Keys.Event),
			normalize.WithCategorical(cfg.Categorical...),
		)
	}
	if p.builder == nil {
		spec, err := CohortSpec(cfg)
		if err != nil {
			return err
		}
		p.builder = cohort.New(spec)
	}
	return nil
}

// CohortSpec translates the cohort section of cfg.
func CohortSpec(cfg *config.Config) (cohort.Spec, error) {
	policy, err := cohort.ParsePolicy(cfg.Cohort.Policy)
	if err != nil {
		return cohort.Spec{}, fmt.Errorf("%w: %w", config.ErrInvalidConfig, err)
	}
	c := cfg.Cohort
	return cohort.Spec{
		Subject:    cfg.Keys.Subject,
		Event:      cfg.Keys.Event,
		Baseline:   cfg.Events.Baseline,
		Followup:   cfg.Events.Followup,
		Covariates: c.Covariates,
		Outcome:    c.Outcome,
		Derivation: cohort.Derivation{
			Sex:        c.Sex,
			Codes:      cohort.SexCodes{Male: c.SexMale, Female: c.SexFemale},
			PDSMale:    c.PDSMale,
			PDSFemale:  c.PDSFemale,
			PDS:        c.PDS,
			Income:     c.Income,
			IncomeBand: c.IncomeBand,
			Policy:     policy,
		},
	}, nil
}

// Sources translates the augment section of cfg. A source with its own sentinel set
// reads through a copy of reader using that set.
func Sources(cfg *config.Config, reader *csvsource.Reader) []augment.Source {
	out := make([]augment.Source, len(cfg.Augment))
	for i, s := range cfg.Augment {
		out[i] = augment.Source{Path: s.Path, Variable: s.Variable}
		if len(s.Sentinels) > 0 {
			out[i].Reader = reader.With(csvsource.WithSentinels(s.Sentinels...))
		}
	}
	return out
}

// Run configures the pipeline from cfg and executes every stage.
func (p *Pipeline) Run(ctx context.Context, cfg *config.Config) (*Result, error) {
	started := time.Now()
	res, err := p.run(ctx, cfg)
	status := metrics.StatusSuccess
	if err != nil {
		status = metrics.StatusFailure
		p.logger.Error(ctx, "pipeline run failed", logger.Error(err), logger.Duration("elapsed", time.Since(started)))
	} else {
		p.logger.Info(ctx, "pipeline run finished",
			logger.Int("joined_rows", res.Completion.JoinedRows),
			logger.Int("cohort_rows", res.Cohort.NumRows()),
			logger.Duration("elapsed", time.Since(started)))
	}
	p.metrics.RecordRun(status, time.Now())
	return res, err
}

func (p *Pipeline) run(ctx context.Context, cfg *config.Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := p.Configure(cfg); err != nil {
		return nil, err
	}
	p.logger.Debug(ctx, "pipeline configured",
		logger.String("base_path", cfg.BasePath),
		logger.Strings("categorical", cfg.Categorical),
		logger.Int("augment_sources", len(cfg.Augment)),
		logger.Bool("strict", p.builder.Spec().Derivation.Policy == cohort.Strict))
	if _, err := p.Load(ctx, cfg.BasePath); err != nil {
		return nil, err
	}
	if _, err := p.Augment(ctx, Sources(cfg, p.reader)...); err != nil {
		return nil, err
	}
	if _, err := p.Normalize(ctx); err != nil {
		return nil, err
	}
	joined, err := p.ExtractJoin(ctx)
	if err != nil {
		return nil, err
	}
	completion, err := p.DeriveComplete(ctx)
	if err != nil {
		return nil, err
	}
	model := report.ModelSpec{Response: cfg.Model.Response, Fixed: cfg.Model.Fixed, Groups: cfg.Model.Groups}
	rep, err := p.Report(ctx, model, cfg.GroupBy)
	if err != nil {
		return nil, err
	}
	return &Result{
		RunID:      p.runID,
		Joined:     joined,
		Cohort:     completion.Frame,
		Completion: completion,
		Report:     rep,
	}, nil
}
