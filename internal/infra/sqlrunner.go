package infra

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// SQLExecutor is the querying surface handlers and stores depend on.
type SQLExecutor interface {
	Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, query string, args ...any) pgx.Row
	Query(ctx context.Context, query string, args ...any) (pgx.Rows, error)
}

// IsNoRows reports whether err is pgx's no-rows sentinel.
func IsNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// Statements slower than this are logged at warn level.
const slowQuery = 200 * time.Millisecond

var auditLine = regexp.MustCompile(`^--sql ([0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12})$`)

// SQLRunner executes sqlinline statements against the pool. Every statement
// must open with a "--sql <uuid>" audit line; the line is stripped before
// execution and its uuid tags the log output.
type SQLRunner struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

func NewSQLRunner(pool *pgxpool.Pool, logger zerolog.Logger) *SQLRunner {
	return &SQLRunner{pool: pool, logger: logger}
}

func (r *SQLRunner) Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	marker, body, err := splitAudit(query)
	if err != nil {
		return pgconn.CommandTag{}, err
	}
	start := time.Now()
	tag, err := r.pool.Exec(ctx, body, args...)
	r.observe("exec", marker, start, err)
	return tag, err
}

func (r *SQLRunner) QueryRow(ctx context.Context, query string, args ...any) pgx.Row {
	marker, body, err := splitAudit(query)
	if err != nil {
		return errorRow{err: err}
	}
	row := r.pool.QueryRow(ctx, body, args...)
	return auditedRow{row: row, logger: r.logger, marker: marker}
}

func (r *SQLRunner) Query(ctx context.Context, query string, args ...any) (pgx.Rows, error) {
	marker, body, err := splitAudit(query)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	rows, err := r.pool.Query(ctx, body, args...)
	r.observe("query", marker, start, err)
	return rows, err
}

func (r *SQLRunner) observe(op, marker string, start time.Time, err error) {
	elapsed := time.Since(start)
	evt := r.logger.Debug()
	switch {
	case err != nil:
		evt = r.logger.Error().Err(err)
	case elapsed > slowQuery:
		evt = r.logger.Warn()
	}
	evt.Str("op", op).Str("marker", marker).Dur("elapsed", elapsed).Msg("sql")
}

// auditedRow defers error logging to Scan, where pgx surfaces QueryRow
// failures. An ordinary empty result is not logged.
type auditedRow struct {
	row    pgx.Row
	logger zerolog.Logger
	marker string
}

func (a auditedRow) Scan(dest ...any) error {
	err := a.row.Scan(dest...)
	if err != nil && !IsNoRows(err) {
		a.logger.Error().Err(err).Str("marker", a.marker).Msg("sql scan")
	}
	return err
}

type errorRow struct {
	err error
}

func (e errorRow) Scan(dest ...any) error { return e.err }

// splitAudit validates the audit line and returns the uuid and the
// executable statement body.
func splitAudit(query string) (marker, body string, err error) {
	trimmed := strings.TrimSpace(query)
	first, rest, _ := strings.Cut(trimmed, "\n")
	m := auditLine.FindStringSubmatch(strings.TrimSpace(first))
	if m == nil {
		return "", "", errors.New("sql statement is missing its --sql audit line")
	}
	if strings.TrimSpace(rest) == "" {
		return "", "", errors.New("sql statement has no body after the audit line")
	}
	return m[1], rest, nil
}

var _ SQLExecutor = (*SQLRunner)(nil)
