package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/sitegraph/internal/linkgraph"
	"github.com/nao1215/sitegraph/internal/model"
)

// FileName is the database file created inside the database directory.
const FileName = "sitegraph.db"

// CrawlDB stores run history, link graphs and extracted content.
type CrawlDB struct {
	db     *sql.DB
	dbPath string
}

// Options configures CrawlDB behavior.
type Options struct {
	// CreateIfNotExists creates the directory and database file when missing.
	CreateIfNotExists bool

	// EnableWAL turns on write-ahead logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the database in dbDir.
func Open(dbDir string, opts Options) (*CrawlDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else if err := os.MkdirAll(dbDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// mode=rw refuses to create a missing file, mode=rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite allows one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	cdb := &CrawlDB{db: db, dbPath: dbPath}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}
	if err := cdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return cdb, nil
}

// Path returns the database file path.
func (cdb *CrawlDB) Path() string {
	return cdb.dbPath
}

// Close closes the database connection.
func (cdb *CrawlDB) Close() error {
	return cdb.db.Close()
}

func (cdb *CrawlDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		kind TEXT NOT NULL,
		site TEXT NOT NULL,
		status TEXT NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT,
		output TEXT,
		raw_output TEXT,
		depth INTEGER DEFAULT 0,
		pages INTEGER DEFAULT 0,
		edges INTEGER DEFAULT 0,
		records INTEGER DEFAULT 0,
		browser_fallbacks INTEGER DEFAULT 0,
		attempts INTEGER DEFAULT 0,
		error TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_runs_site ON runs(site);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);

	-- Raw link graph edges; position keeps the page's link order.
	CREATE TABLE IF NOT EXISTS edges (
		site TEXT NOT NULL,
		from_url TEXT NOT NULL,
		to_url TEXT NOT NULL,
		position INTEGER NOT NULL,
		recorded_at TEXT NOT NULL,
		UNIQUE(site, from_url, to_url)
	);

	CREATE INDEX IF NOT EXISTS idx_edges_site ON edges(site);

	CREATE TABLE IF NOT EXISTS contents (
		url TEXT PRIMARY KEY,
		run_id INTEGER,
		title TEXT,
		body TEXT,
		scraped_at REAL NOT NULL
	);
	`
	_, err := cdb.db.ExecContext(context.Background(), schema)
	return err
}

// StartRun inserts run with status running and sets run.ID.
func (cdb *CrawlDB) StartRun(ctx context.Context, run *model.Run) error {
	result, err := cdb.db.ExecContext(ctx,
		`INSERT INTO runs (kind, site, status, started_at, output, raw_output) VALUES (?, ?, ?, ?, ?, ?)`,
		string(run.Kind), run.Site, model.StatusRunning, formatTimestamp(run.StartedAt), run.Output, run.RawOutput,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get run id: %w", err)
	}
	run.ID = id
	return nil
}

// FinishRun stores the final state and counters of a started run.
func (cdb *CrawlDB) FinishRun(ctx context.Context, run *model.Run) error {
	if run.ID == 0 {
		return errors.New("run was not started")
	}
	finished := run.FinishedAt
	if finished.IsZero() {
		finished = time.Now()
	}
	_, err := cdb.db.ExecContext(ctx, `
	UPDATE runs SET
		status = ?, finished_at = ?, output = ?, raw_output = ?, depth = ?, pages = ?, edges = ?,
		records = ?, browser_fallbacks = ?, attempts = ?, error = ?
	WHERE id = ?`,
		run.Status(), formatTimestamp(finished), run.Output, run.RawOutput, run.Depth, run.Pages, run.Edges,
		run.RecordCount, run.BrowserFallbacks, run.Attempts, run.ErrorMessage, run.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	return nil
}

// ListRuns returns runs newest first. An empty site lists every site.
// limit <= 0 means no limit.
func (cdb *CrawlDB) ListRuns(ctx context.Context, site string, limit int) ([]*model.Run, error) {
	query := `
	SELECT id, kind, site, status, started_at, COALESCE(finished_at, ''), COALESCE(output, ''),
		COALESCE(raw_output, ''), depth, pages, edges, records, browser_fallbacks, attempts, COALESCE(error, '')
	FROM runs`
	var args []any
	if site != "" {
		query += ` WHERE site = ?`
		args = append(args, site)
	}
	query += ` ORDER BY started_at DESC, id DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := cdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []*model.Run
	for rows.Next() {
		var (
			run               model.Run
			kind, status      string
			started, finished string
		)
		if err := rows.Scan(&run.ID, &kind, &run.Site, &status, &started, &finished, &run.Output,
			&run.RawOutput, &run.Depth, &run.Pages, &run.Edges, &run.RecordCount, &run.BrowserFallbacks,
			&run.Attempts, &run.ErrorMessage); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		run.Kind = model.RunKind(kind)
		run.StartedAt = parseTimestamp(started)
		if status != model.StatusRunning {
			run.FinishedAt = parseTimestamp(finished)
		}
		run.Canceled = status == model.StatusCanceled
		runs = append(runs, &run)
	}
	return runs, rows.Err()
}

// SaveEdges upserts every edge of graph for site and returns how many
// edges were written.
func (cdb *CrawlDB) SaveEdges(ctx context.Context, site string, graph linkgraph.Graph) (int, error) {
	tx, err := cdb.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO edges (site, from_url, to_url, position, recorded_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(site, from_url, to_url) DO UPDATE SET
		position = excluded.position,
		recorded_at = excluded.recorded_at`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare edge insert: %w", err)
	}
	defer stmt.Close()

	now := formatTimestamp(time.Now())
	n := 0
	for from, links := range graph {
		for pos, to := range links {
			if _, err := stmt.ExecContext(ctx, site, from, to, pos, now); err != nil {
				return 0, fmt.Errorf("failed to insert edge %s -> %s: %w", from, to, err)
			}
			n++
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit edges: %w", err)
	}
	return n, nil
}

// Graph rebuilds the stored link graph of site.
func (cdb *CrawlDB) Graph(ctx context.Context, site string) (linkgraph.Graph, error) {
	rows, err := cdb.db.QueryContext(ctx,
		`SELECT from_url, to_url FROM edges WHERE site = ? ORDER BY from_url, position`, site)
	if err != nil {
		return nil, fmt.Errorf("failed to query edges: %w", err)
	}
	defer rows.Close()

	g := make(linkgraph.Graph)
	for rows.Next() {
		var from, to string
		if err := rows.Scan(&from, &to); err != nil {
			return nil, fmt.Errorf("failed to scan edge: %w", err)
		}
		g[from] = append(g[from], to)
	}
	return g, rows.Err()
}

// EdgeCount returns the number of stored edges of site.
func (cdb *CrawlDB) EdgeCount(ctx context.Context, site string) (int, error) {
	var n int
	if err := cdb.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM edges WHERE site = ?`, site).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count edges: %w", err)
	}
	return n, nil
}

// SaveContents upserts records, keeping the latest record per URL.
func (cdb *CrawlDB) SaveContents(ctx context.Context, runID int64, records []model.Record) error {
	tx, err := cdb.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO contents (url, run_id, title, body, scraped_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(url) DO UPDATE SET
		run_id = excluded.run_id,
		title = excluded.title,
		body = excluded.body,
		scraped_at = excluded.scraped_at`)
	if err != nil {
		return fmt.Errorf("failed to prepare content insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.ExecContext(ctx, r.URL, runID, r.Content.Title, r.Content.Body, r.ScrapedAt); err != nil {
			return fmt.Errorf("failed to insert content for %s: %w", r.URL, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit contents: %w", err)
	}
	return nil
}

// GetContent returns the stored record of url, or nil if there is none.
func (cdb *CrawlDB) GetContent(ctx context.Context, url string) (*model.Record, error) {
	var r model.Record
	err := cdb.db.QueryRowContext(ctx,
		`SELECT url, COALESCE(title, ''), COALESCE(body, ''), scraped_at FROM contents WHERE url = ?`, url,
	).Scan(&r.URL, &r.Content.Title, &r.Content.Body, &r.ScrapedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get content: %w", err)
	}
	return &r, nil
}

// timestampFormats contains the timestamp formats that SQLite may return.
// More specific formats come first.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05.999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// timestampLayout is fixed width so that text ordering is time ordering.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// parseTimestamp tries each of timestampFormats and returns the zero time
// when none matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
