package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"AlertTrack/internal/domain"
	"AlertTrack/internal/ports"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// timestamps are stored as fixed-width UTC text so they sort lexically on both drivers
const timeLayout = "2006-01-02T15:04:05.000000000Z"

const schema = `
CREATE TABLE IF NOT EXISTS alert_runs (
	id          TEXT PRIMARY KEY,
	started_at  TEXT NOT NULL,
	finished_at TEXT NOT NULL,
	records     INTEGER NOT NULL,
	failures    INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_alert_runs_started ON alert_runs(started_at);

CREATE TABLE IF NOT EXISTS alert_snapshots (
	run_id           TEXT NOT NULL REFERENCES alert_runs(id),
	position         INTEGER NOT NULL,
	publish_date     TEXT NOT NULL DEFAULT '',
	title            TEXT NOT NULL,
	url              TEXT NOT NULL,
	detailed_title   TEXT NOT NULL DEFAULT '',
	detailed_content TEXT NOT NULL DEFAULT '',
	document_url     TEXT NOT NULL DEFAULT '',
	document_text    TEXT NOT NULL DEFAULT '',
	extraction_error TEXT NOT NULL DEFAULT '',
	document_error   TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (run_id, position)
);
`

var runColumns = []string{"id", "started_at", "finished_at", "records", "failures"}

var snapshotColumns = []string{
	"run_id", "position", "publish_date", "title", "url",
	"detailed_title", "detailed_content", "document_url",
	"document_text", "extraction_error", "document_error",
}

// ErrNoRuns is returned by LoadLatest when nothing was saved yet.
var ErrNoRuns = errors.New("no runs recorded")

// ErrRunNotFound is returned when a run id matches no stored run.
var ErrRunNotFound = errors.New("run not found")

// SnapshotRepository persists one immutable snapshot per run in SQLite or Postgres.
type SnapshotRepository struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

var _ ports.SnapshotRepository = (*SnapshotRepository)(nil)

// Open connects to dsn with driver and creates the schema when missing.
func Open(ctx context.Context, driver, dsn string) (*SnapshotRepository, error) {
	switch driver {
	case DriverSQLite:
		if dir := filepath.Dir(dsn); dir != "." && !strings.HasPrefix(dsn, "file:") && !strings.HasPrefix(dsn, ":memory:") {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create database dir: %w", err)
			}
		}
	case DriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driver, err)
	}
	if driver == DriverSQLite {
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s database: %w", driver, err)
	}

	repo := NewSnapshotRepository(db, driver)
	if err := repo.Init(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// NewSnapshotRepository wires an existing sql.DB; driver picks the placeholder style.
func NewSnapshotRepository(db *sql.DB, driver string) *SnapshotRepository {
	builder := sq.StatementBuilder.PlaceholderFormat(sq.Question)
	if driver == DriverPostgres {
		builder = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	}
	return &SnapshotRepository{db: db, builder: builder}
}

// Init creates tables and indexes if they do not exist.
func (r *SnapshotRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("initialize schema: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (r *SnapshotRepository) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

// SaveRun inserts the run header and every row in one transaction.
func (r *SnapshotRepository) SaveRun(ctx context.Context, run domain.RunInfo, dataset domain.EnrichedDataset) error {
	if run.ID == "" {
		return fmt.Errorf("save run: missing run id")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin snapshot tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query, args, err := r.builder.Insert("alert_runs").
		Columns("id", "started_at", "finished_at", "records", "failures").
		Values(run.ID, formatTime(run.StartedAt), formatTime(run.FinishedAt), len(dataset), dataset.Failures()).
		ToSql()
	if err != nil {
		return fmt.Errorf("build run insert: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert run %s: %w", run.ID, err)
	}

	for pos, a := range dataset {
		query, args, err := r.builder.Insert("alert_snapshots").
			Columns(snapshotColumns...).
			Values(run.ID, pos, a.FormattedDate(), a.Title, a.DetailURL,
				a.DetailedTitle, a.DetailedContent, a.DocumentURL,
				a.DocumentText, a.ExtractionError, a.DocumentError).
			ToSql()
		if err != nil {
			return fmt.Errorf("build snapshot insert: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert snapshot %d of run %s: %w", pos, run.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot tx: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs first.
func (r *SnapshotRepository) ListRuns(ctx context.Context, limit uint64) ([]domain.RunInfo, error) {
	q := r.builder.Select(runColumns...).
		From("alert_runs").
		OrderBy("started_at DESC", "id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build runs query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}

	var runs []domain.RunInfo
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			_ = rows.Close()
			return nil, err
		}
		runs = append(runs, run)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("rows iteration: %w", rowsErr)
	}
	if closeErr := rows.Close(); closeErr != nil {
		return nil, fmt.Errorf("close rows: %w", closeErr)
	}
	return runs, nil
}

// GetRun returns one run by id or ErrRunNotFound.
func (r *SnapshotRepository) GetRun(ctx context.Context, runID string) (domain.RunInfo, error) {
	query, args, err := r.builder.Select(runColumns...).
		From("alert_runs").
		Where(sq.Eq{"id": runID}).
		ToSql()
	if err != nil {
		return domain.RunInfo{}, fmt.Errorf("build run query: %w", err)
	}

	run, err := scanRun(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.RunInfo{}, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return run, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (domain.RunInfo, error) {
	var (
		run               domain.RunInfo
		started, finished string
	)
	if err := row.Scan(&run.ID, &started, &finished, &run.Records, &run.Failures); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.RunInfo{}, err
		}
		return domain.RunInfo{}, fmt.Errorf("scan run: %w", err)
	}
	var err error
	if run.StartedAt, err = parseTime(started); err != nil {
		return domain.RunInfo{}, err
	}
	if run.FinishedAt, err = parseTime(finished); err != nil {
		return domain.RunInfo{}, err
	}
	return run, nil
}

// LoadLatest returns the newest run and its rows in listing order.
func (r *SnapshotRepository) LoadLatest(ctx context.Context) (domain.RunInfo, domain.EnrichedDataset, error) {
	runs, err := r.ListRuns(ctx, 1)
	if err != nil {
		return domain.RunInfo{}, nil, err
	}
	if len(runs) == 0 {
		return domain.RunInfo{}, nil, ErrNoRuns
	}
	run := runs[0]

	dataset, err := r.LoadRun(ctx, run.ID)
	if err != nil {
		return domain.RunInfo{}, nil, err
	}
	return run, dataset, nil
}

// LoadRun returns the rows of one run in listing order.
func (r *SnapshotRepository) LoadRun(ctx context.Context, runID string) (domain.EnrichedDataset, error) {
	query, args, err := r.builder.Select(snapshotColumns[2:]...).
		From("alert_snapshots").
		Where(sq.Eq{"run_id": runID}).
		OrderBy("position").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build snapshot query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}

	dataset := domain.EnrichedDataset{}
	for rows.Next() {
		var (
			a    domain.EnrichedAlert
			date string
		)
		if err := rows.Scan(&date, &a.Title, &a.DetailURL,
			&a.DetailedTitle, &a.DetailedContent, &a.DocumentURL,
			&a.DocumentText, &a.ExtractionError, &a.DocumentError); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		if date != "" {
			if a.PublishDate, err = time.Parse(domain.DateLayout, date); err != nil {
				_ = rows.Close()
				return nil, fmt.Errorf("parse publish_date %q: %w", date, err)
			}
		}
		dataset = append(dataset, a)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("rows iteration: %w", rowsErr)
	}
	if closeErr := rows.Close(); closeErr != nil {
		return nil, fmt.Errorf("close rows: %w", closeErr)
	}
	return dataset, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}
