package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver
)

// FileName is the name of the database file inside the database directory.
const FileName = "docmirror.db"

// timeFormat stores timestamps in UTC with a fixed width so that text
// ordering matches time ordering.
const timeFormat = "2006-01-02 15:04:05.000000000"

// RunStatus is the lifecycle state of a run.
type RunStatus string

const (
	// RunStatusRunning marks a run that has not finished.
	RunStatusRunning RunStatus = "running"

	// RunStatusCompleted marks a run that processed every page.
	RunStatusCompleted RunStatus = "completed"

	// RunStatusFailed marks a run that stopped on a fatal error.
	RunStatusFailed RunStatus = "failed"

	// RunStatusCanceled marks a run interrupted by the user.
	RunStatusCanceled RunStatus = "canceled"
)

// Run is one recorded invocation of the mirror command.
type Run struct {
	ID             string
	BaseURL        string
	Section        string
	SourceLanguage string
	TargetLanguage string
	OutDir         string
	StartedAt      time.Time
	FinishedAt     time.Time
	Status         RunStatus

	// Pages and Failed count the recorded pages once the run finished.
	Pages  int
	Failed int

	// Error is the message of the fatal error, if any.
	Error string
}

// PageRecord is the outcome of one page in a run.
type PageRecord struct {
	URL         string
	Slug        string
	Status      string
	ContentHash string
	Assets      int
	Error       string
	RecordedAt  time.Time
}

// HistoryDB stores runs and their pages.
type HistoryDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string

	// now returns the current time; replaced in tests.
	now func() time.Time
}

// Options configures HistoryDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the history database in dbDir.
// Without CreateIfNotExists a missing database is ErrDatabaseNotFound.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrDatabaseNotFound, dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a new file.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &HistoryDB{
		db:     db,
		dbPath: dbPath,
		now:    time.Now,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := hdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return hdb, nil
}

// Path returns the database file path.
func (h *HistoryDB) Path() string {
	return h.dbPath
}

// Close closes the database connection.
func (h *HistoryDB) Close() error {
	return h.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (h *HistoryDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		base_url TEXT NOT NULL,
		section TEXT NOT NULL,
		source_lang TEXT NOT NULL,
		target_lang TEXT NOT NULL,
		out_dir TEXT NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		pages INTEGER NOT NULL DEFAULT 0,
		failed INTEGER NOT NULL DEFAULT 0,
		error TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
	CREATE INDEX IF NOT EXISTS idx_runs_site ON runs(base_url, section);

	CREATE TABLE IF NOT EXISTS pages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL REFERENCES runs(id),
		url TEXT NOT NULL,
		slug TEXT NOT NULL,
		status TEXT NOT NULL,
		content_hash TEXT NOT NULL DEFAULT '',
		assets INTEGER NOT NULL DEFAULT 0,
		error TEXT NOT NULL DEFAULT '',
		recorded_at TEXT NOT NULL,
		UNIQUE(run_id, url)
	);

	CREATE INDEX IF NOT EXISTS idx_pages_url ON pages(url);
	`

	_, err := h.db.ExecContext(context.Background(), schema)
	return err
}

// StartRun records a new running run. ID, StartedAt and Status are
// assigned and returned in the copy.
func (h *HistoryDB) StartRun(ctx context.Context, run Run) (*Run, error) {
	run.ID = uuid.NewString()
	run.StartedAt = h.now().UTC()
	run.Status = RunStatusRunning

	query := `
	INSERT INTO runs (id, base_url, section, source_lang, target_lang, out_dir, started_at, status)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := h.db.ExecContext(ctx, query,
		run.ID, run.BaseURL, run.Section, run.SourceLanguage, run.TargetLanguage,
		run.OutDir, run.StartedAt.Format(timeFormat), string(run.Status),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start run: %w", err)
	}
	return &run, nil
}

// RecordPage stores the outcome of a page. Recording the same URL twice in
// a run keeps the latest outcome.
func (h *HistoryDB) RecordPage(ctx context.Context, runID string, page PageRecord) error {
	query := `
	INSERT INTO pages (run_id, url, slug, status, content_hash, assets, error, recorded_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(run_id, url) DO UPDATE SET
		slug = excluded.slug,
		status = excluded.status,
		content_hash = excluded.content_hash,
		assets = excluded.assets,
		error = excluded.error,
		recorded_at = excluded.recorded_at
	`
	_, err := h.db.ExecContext(ctx, query,
		runID, page.URL, page.Slug, page.Status, page.ContentHash,
		page.Assets, page.Error, h.now().UTC().Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("failed to record page %s: %w", page.URL, err)
	}
	return nil
}

// FinishRun marks a run as finished and stores its page counts.
func (h *HistoryDB) FinishRun(ctx context.Context, runID string, status RunStatus, runErr error) error {
	var msg string
	if runErr != nil {
		msg = runErr.Error()
	}

	query := `
	UPDATE runs SET
		finished_at = ?,
		status = ?,
		error = ?,
		pages = (SELECT COUNT(*) FROM pages WHERE run_id = runs.id),
		failed = (SELECT COUNT(*) FROM pages WHERE run_id = runs.id AND status = 'failed')
	WHERE id = ?
	`
	res, err := h.db.ExecContext(ctx, query, h.now().UTC().Format(timeFormat), string(status), msg, runID)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return nil
}

// PreviousHashes returns the most recent content hash of every page that
// was mirrored successfully for the site section by a run other than
// excludeRunID.
func (h *HistoryDB) PreviousHashes(ctx context.Context, baseURL, section, excludeRunID string) (map[string]string, error) {
	query := `
	SELECT p.url, p.content_hash
	FROM pages p
	JOIN runs r ON r.id = p.run_id
	WHERE r.base_url = ? AND r.section = ? AND r.id != ?
		AND p.status = 'ok' AND p.content_hash != ''
	ORDER BY p.recorded_at ASC, p.id ASC
	`

	rows, err := h.db.QueryContext(ctx, query, baseURL, section, excludeRunID)
	if err != nil {
		return nil, fmt.Errorf("failed to query page hashes: %w", err)
	}
	defer rows.Close()

	hashes := make(map[string]string)
	for rows.Next() {
		var u, hash string
		if err := rows.Scan(&u, &hash); err != nil {
			return nil, err
		}
		// Later rows overwrite earlier ones.
		hashes[u] = hash
	}
	return hashes, rows.Err()
}

// ListRuns returns up to limit runs, newest first. A limit of zero or less
// returns every run.
func (h *HistoryDB) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := runSelect + ` ORDER BY started_at DESC, rowid DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := h.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// GetRun returns the run with the given ID. A unique ID prefix is
// accepted so users can type the short form shown by ListRuns.
func (h *HistoryDB) GetRun(ctx context.Context, id string) (*Run, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: empty ID", ErrRunNotFound)
	}

	rows, err := h.db.QueryContext(ctx, runSelect+` WHERE id = ? OR id LIKE ? || '%' LIMIT 2`, id, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	defer rows.Close()

	var found []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		if run.ID == id {
			return run, nil
		}
		found = append(found, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(found) != 1 {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return found[0], nil
}

// Pages returns the pages of a run in the order they were recorded.
func (h *HistoryDB) Pages(ctx context.Context, runID string) ([]PageRecord, error) {
	query := `
	SELECT url, slug, status, content_hash, assets, error, recorded_at
	FROM pages
	WHERE run_id = ?
	ORDER BY id ASC
	`

	rows, err := h.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pages: %w", err)
	}
	defer rows.Close()

	var pages []PageRecord
	for rows.Next() {
		var p PageRecord
		var recorded string
		if err := rows.Scan(&p.URL, &p.Slug, &p.Status, &p.ContentHash, &p.Assets, &p.Error, &recorded); err != nil {
			return nil, err
		}
		p.RecordedAt = parseTimestamp(recorded)
		pages = append(pages, p)
	}
	return pages, rows.Err()
}

const runSelect = `
	SELECT id, base_url, section, source_lang, target_lang, out_dir,
		started_at, finished_at, status, pages, failed, error
	FROM runs`

// scanRun reads one row of runSelect.
func scanRun(rows *sql.Rows) (*Run, error) {
	var run Run
	var started, finished, status string
	err := rows.Scan(
		&run.ID, &run.BaseURL, &run.Section, &run.SourceLanguage, &run.TargetLanguage, &run.OutDir,
		&started, &finished, &status, &run.Pages, &run.Failed, &run.Error,
	)
	if err != nil {
		return nil, err
	}
	run.StartedAt = parseTimestamp(started)
	run.FinishedAt = parseTimestamp(finished)
	run.Status = RunStatus(status)
	return &run, nil
}

// timestampFormats are the layouts parseTimestamp accepts.
var timestampFormats = []string{
	timeFormat,
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
}

// parseTimestamp parses a stored timestamp as UTC. Unparsable or empty
// values become the zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.ParseInLocation(format, s, time.UTC); err == nil {
			return t
		}
	}
	return time.Time{}
}
