package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	flag "github.com/spf13/pflag"

	app "github.com/okian/cohort/internal/app"
	"github.com/okian/cohort/internal/config"
	"github.com/okian/cohort/pkg/logger"
	"github.com/okian/cohort/pkg/metrics"
)

// Exit codes.
const (
	exitOK     = 0
	exitFailed = 1
	exitUsage  = 2
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stderr)
	stop()
	os.Exit(code)
}

// flags holds the command line overrides. Empty values leave the config untouched.
type flags struct {
	config     string
	base       string
	followup   string
	logLevel   string
	logFormat  string
	csvOut     string
	sqliteOut  string
	reportOut  string
	metricsOut string
	runID      string
}

func parseFlags(args []string, errOut io.Writer) (*flags, error) {
	f := &flags{}
	fs := flag.NewFlagSet("cohort", flag.ContinueOnError)
	fs.SetOutput(errOut)
	fs.StringVarP(&f.config, "config", "c", "", "YAML config file (default $"+config.EnvConfigPath+")")
	fs.StringVar(&f.base, "base", "", "base subject x event table")
	fs.StringVar(&f.followup, "followup", "", "follow-up event label")
	fs.StringVar(&f.logLevel, "log-level", "", "debug, info, warn or error")
	fs.StringVar(&f.logFormat, "log-format", "", "text or json")
	fs.StringVar(&f.csvOut, "csv-out", "", "write the cohort as CSV")
	fs.StringVar(&f.sqliteOut, "sqlite-out", "", "write the cohort to a SQLite database")
	fs.StringVar(&f.reportOut, "report-out", "", "write the YAML report")
	fs.StringVar(&f.metricsOut, "metrics-out", "", "write pipeline metrics in Prometheus text format")
	fs.StringVar(&f.runID, "run-id", "", "run identifier (default: random UUID)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	return f, nil
}

// apply copies the non-empty overrides onto cfg.
func (f *flags) apply(cfg *config.Config) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&cfg.BasePath, f.base)
	set(&cfg.Events.Followup, f.followup)
	set(&cfg.LogLevel, f.logLevel)
	set(&cfg.LogFormat, f.logFormat)
	set(&cfg.Output.CSV, f.csvOut)
	set(&cfg.Output.SQLite, f.sqliteOut)
	set(&cfg.Output.Report, f.reportOut)
	set(&cfg.Output.Metrics, f.metricsOut)
}

func run(ctx context.Context, args []string, errOut io.Writer) int {
	f, err := parseFlags(args, errOut)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintln(errOut, "error:", err)
		return exitUsage
	}

	// Load configuration (defaults -> optional file -> env -> flags)
	cfg, err := config.Load(ctx, f.config)
	if err != nil {
		fmt.Fprintln(errOut, "failed to load config:", err)
		return exitUsage
	}
	f.apply(cfg)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(errOut, "invalid config:", err)
		return exitUsage
	}

	if err := logger.Init(logger.WithWriter(errOut), logger.WithFormat(cfg.LogFormat)); err != nil {
		fmt.Fprintln(errOut, "failed to initialize logging:", err)
		return exitFailed
	}
	defer func() { _ = logger.Sync() }()
	log := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	p := app.New(
		app.WithLogger(log),
		app.WithMetrics(metrics.Default()),
		app.WithRunID(f.runID),
	)
	res, err := p.Run(ctx, cfg)
	if err != nil {
		// The metrics of a failed run are still worth scraping.
		if cfg.Output.Metrics != "" {
			if werr := metrics.WriteTextfile(cfg.Output.Metrics); werr != nil {
				log.Error(ctx, "write metrics failed", logger.Error(werr))
			}
		}
		fmt.Fprintln(errOut, "error:", err)
		return exitFailed
	}
	if err := p.Publish(ctx, res, cfg.Output); err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return exitFailed
	}
	log.Info(ctx, "cohort ready",
		logger.String("run_id", res.RunID),
		logger.Int("subjects", res.Cohort.NumRows()),
		logger.Int("dropped", res.Completion.DroppedRows))
	return exitOK
}
