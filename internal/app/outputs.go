package service

import (
	"context"
	"errors"

	"github.com/okian/cohort/internal/adapters/export"
	"github.com/okian/cohort/internal/config"
	"github.com/okian/cohort/pkg/logger"
)

// Publish writes the configured outputs of a finished run. Empty paths are skipped;
// every output is attempted and the failures are joined.
func (p *Pipeline) Publish(ctx context.Context, res *Result, out config.Output) error {
	var errs []error
	write := func(kind, path string, fn func() error) {
		if path == "" {
			return
		}
		if err := fn(); err != nil {
			p.logger.Error(ctx, "output failed", logger.String("output", kind), logger.String("path", path), logger.Error(err))
			errs = append(errs, err)
			return
		}
		p.logger.Info(ctx, "output written", logger.String("output", kind), logger.String("path", path))
	}

	write("csv", out.CSV, func() error { return export.WriteCSV(out.CSV, res.Cohort) })
	write("sqlite", out.SQLite, func() error { return export.WriteSQLite(ctx, out.SQLite, out.SQLiteTable, res.Cohort) })
	if res.Report != nil {
		write("report", out.Report, func() error { return export.WriteReport(out.Report, res.Report) })
	}
	write("metrics", out.Metrics, func() error { return p.metrics.WriteTextfile(out.Metrics) })
	return errors.Join(errs...)
}
