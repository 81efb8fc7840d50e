package export

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/okian/cohort/internal/domain/frame"
)

// WriteSQLite replaces table in the SQLite database at path with the rows of f.
// Numeric columns become REAL, every other column TEXT, and missing cells NULL.
// The table is dropped, recreated and filled in one transaction.
func WriteSQLite(ctx context.Context, path, table string, f *frame.Frame) error {
	if strings.TrimSpace(table) == "" {
		return ErrEmptyTable
	}
	if err := os.MkdirAll(filepath.Dir(path), dirPerms); err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("%w: open %s: %w", ErrIO, path, err)
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %w", ErrIO, err)
	}
	if err := fill(ctx, tx, table, f); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %w", ErrIO, err)
	}
	return nil
}

func fill(ctx context.Context, tx *sql.Tx, table string, f *frame.Frame) error {
	cols := f.Columns()
	defs := make([]string, len(cols))
	names := make([]string, len(cols))
	marks := make([]string, len(cols))
	for i, c := range cols {
		typ := "TEXT"
		if c.Kind() == frame.Numeric {
			typ = "REAL"
		}
		names[i] = quoteIdent(c.Name())
		defs[i] = names[i] + " " + typ
		marks[i] = "?"
	}

	stmts := []string{
		"DROP TABLE IF EXISTS " + quoteIdent(table),
		fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(table), strings.Join(defs, ", ")),
	}
	for _, s := range stmts {
		if _, err := tx.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrIO, s, err)
		}
	}

	insert, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(table), strings.Join(names, ", "), strings.Join(marks, ", ")))
	if err != nil {
		return fmt.Errorf("%w: prepare insert: %w", ErrIO, err)
	}
	defer insert.Close()

	args := make([]any, len(cols))
	for row := 0; row < f.NumRows(); row++ {
		for j, c := range cols {
			args[j] = value(c, row)
		}
		if _, err := insert.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("%w: insert row %d: %w", ErrIO, row+1, err)
		}
	}
	return nil
}

func value(c *frame.Column, row int) any {
	if c.IsNA(row) {
		return nil
	}
	if v, ok := c.Float(row); ok {
		return v
	}
	return c.Raw(row)
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
