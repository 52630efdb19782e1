package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/pagescope/internal/model"
)

// FileName is the database file created inside the data directory.
const FileName = "pagescope.db"

// DefaultListLimit caps history and listing queries when no limit is given.
const DefaultListLimit = 50

// timestampLayout sorts lexically in chronological order.
const timestampLayout = "2006-01-02 15:04:05.000000"

// ResultDB is the SQLite store for analyses and scores.
type ResultDB struct {
	db     *sql.DB
	dbPath string
}

// Options configures ResultDB behavior.
type Options struct {
	// CreateIfNotExists creates the directory and database file if needed.
	CreateIfNotExists bool

	// EnableWAL enables write-ahead logging.
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
func Open(dbDir string, opts Options) (*ResultDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else if err := os.MkdirAll(dbDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// mode=rw refuses to create a missing file, mode=rwc creates it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite supports a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	rdb := &ResultDB{db: db, dbPath: dbPath}

	// serve and the CLI may use the same file; wait for the other writer.
	if _, err := db.ExecContext(context.Background(), "PRAGMA busy_timeout = 5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := rdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return rdb, nil
}

// Path returns the database file path.
func (r *ResultDB) Path() string {
	return r.dbPath
}

// Close closes the database connection.
func (r *ResultDB) Close() error {
	return r.db.Close()
}

func (r *ResultDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS analyses (
		id TEXT PRIMARY KEY,
		url TEXT NOT NULL,
		domain TEXT NOT NULL,
		content_hash TEXT,
		timestamp TEXT NOT NULL,
		result_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_analyses_domain ON analyses(domain);
	CREATE INDEX IF NOT EXISTS idx_analyses_hash ON analyses(content_hash);

	CREATE TABLE IF NOT EXISTS scores (
		id TEXT PRIMARY KEY,
		url TEXT NOT NULL,
		domain TEXT NOT NULL,
		is_public INTEGER NOT NULL DEFAULT 0,
		total_score INTEGER NOT NULL,
		grade TEXT NOT NULL,
		timestamp TEXT NOT NULL,
		result_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_scores_domain ON scores(domain, timestamp);
	CREATE INDEX IF NOT EXISTS idx_scores_public ON scores(is_public, timestamp);
	`
	_, err := r.db.ExecContext(context.Background(), schema)
	return err
}

// SaveAnalysis stores an analysis result. Saving the same ID twice
// replaces the earlier row.
func (r *ResultDB) SaveAnalysis(ctx context.Context, result *model.AnalysisResult) error {
	if result == nil || result.ID == "" {
		return errors.New("analysis result has no id")
	}
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to serialize analysis: %w", err)
	}

	query := `
	INSERT INTO analyses (id, url, domain, content_hash, timestamp, result_json)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		url = excluded.url,
		domain = excluded.domain,
		content_hash = excluded.content_hash,
		timestamp = excluded.timestamp,
		result_json = excluded.result_json
	`
	_, err = r.db.ExecContext(ctx, query,
		result.ID,
		result.URL,
		result.Domain,
		result.ContentHash,
		formatTimestamp(result.AnalyzedAt),
		string(data),
	)
	if err != nil {
		return fmt.Errorf("failed to save analysis: %w", err)
	}
	return nil
}

// GetAnalysis returns the analysis with id, or nil when none exists.
func (r *ResultDB) GetAnalysis(ctx context.Context, id string) (*model.AnalysisResult, error) {
	var data string
	err := r.db.QueryRowContext(ctx, `SELECT result_json FROM analyses WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis: %w", err)
	}

	var result model.AnalysisResult
	if err := json.Unmarshal([]byte(data), &result); err != nil {
		return nil, fmt.Errorf("failed to parse analysis: %w", err)
	}
	return &result, nil
}

// SaveScore stores a score result. Saving the same ID twice replaces the
// earlier row.
func (r *ResultDB) SaveScore(ctx context.Context, result *model.ScoreResult) error {
	if result == nil || result.ID == "" {
		return errors.New("score result has no id")
	}
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to serialize score: %w", err)
	}

	query := `
	INSERT INTO scores (id, url, domain, is_public, total_score, grade, timestamp, result_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		url = excluded.url,
		domain = excluded.domain,
		is_public = excluded.is_public,
		total_score = excluded.total_score,
		grade = excluded.grade,
		timestamp = excluded.timestamp,
		result_json = excluded.result_json
	`
	_, err = r.db.ExecContext(ctx, query,
		result.ID,
		result.URL,
		result.Domain,
		result.IsPublic,
		result.TotalScore,
		result.Grade.String(),
		formatTimestamp(result.ScoredAt),
		string(data),
	)
	if err != nil {
		return fmt.Errorf("failed to save score: %w", err)
	}
	return nil
}

// GetScore returns the score with id, or nil when none exists.
func (r *ResultDB) GetScore(ctx context.Context, id string) (*model.ScoreResult, error) {
	var data string
	err := r.db.QueryRowContext(ctx, `SELECT result_json FROM scores WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get score: %w", err)
	}
	return decodeScore(data)
}

// LatestScore returns the most recent score for domain, or nil when the
// domain was never scored.
func (r *ResultDB) LatestScore(ctx context.Context, domain string) (*model.ScoreResult, error) {
	query := `
	SELECT result_json FROM scores
	WHERE domain = ?
	ORDER BY timestamp DESC, rowid DESC
	LIMIT 1
	`
	var data string
	err := r.db.QueryRowContext(ctx, query, domain).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest score: %w", err)
	}
	return decodeScore(data)
}

// ScoreSummary is a score without its checks and recommendations.
type ScoreSummary struct {
	ID         string      `json:"id"`
	URL        string      `json:"url"`
	Domain     string      `json:"domain"`
	IsPublic   bool        `json:"isPublic"`
	TotalScore int         `json:"totalScore"`
	Grade      model.Grade `json:"grade"`
	ScoredAt   time.Time   `json:"scoredAt"`
}

// ScoreHistory returns the scores of domain, newest first.
func (r *ResultDB) ScoreHistory(ctx context.Context, domain string, limit int) ([]ScoreSummary, error) {
	query := `
	SELECT id, url, domain, is_public, total_score, grade, timestamp
	FROM scores
	WHERE domain = ?
	ORDER BY timestamp DESC, rowid DESC
	LIMIT ?
	`
	return r.summaries(ctx, query, domain, normalizeLimit(limit))
}

// ListPublicScores returns the public scores of all domains, newest first.
func (r *ResultDB) ListPublicScores(ctx context.Context, limit int) ([]ScoreSummary, error) {
	query := `
	SELECT id, url, domain, is_public, total_score, grade, timestamp
	FROM scores
	WHERE is_public = 1
	ORDER BY timestamp DESC, rowid DESC
	LIMIT ?
	`
	return r.summaries(ctx, query, normalizeLimit(limit))
}

// ListScoredDomains returns every domain with at least one score.
func (r *ResultDB) ListScoredDomains(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT domain FROM scores ORDER BY domain`)
	if err != nil {
		return nil, fmt.Errorf("failed to list domains: %w", err)
	}
	defer rows.Close()

	var domains []string
	for rows.Next() {
		var domain string
		if err := rows.Scan(&domain); err != nil {
			return nil, fmt.Errorf("failed to scan domain: %w", err)
		}
		domains = append(domains, domain)
	}
	return domains, rows.Err()
}

func (r *ResultDB) summaries(ctx context.Context, query string, args ...any) ([]ScoreSummary, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list scores: %w", err)
	}
	defer rows.Close()

	results := make([]ScoreSummary, 0)
	for rows.Next() {
		var (
			s         ScoreSummary
			grade     string
			timestamp string
		)
		if err := rows.Scan(&s.ID, &s.URL, &s.Domain, &s.IsPublic, &s.TotalScore, &grade, &timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan score: %w", err)
		}
		s.Grade = model.Grade(grade)
		s.ScoredAt = parseTimestamp(timestamp)
		results = append(results, s)
	}
	return results, rows.Err()
}

func decodeScore(data string) (*model.ScoreResult, error) {
	var result model.ScoreResult
	if err := json.Unmarshal([]byte(data), &result); err != nil {
		return nil, fmt.Errorf("failed to parse score: %w", err)
	}
	return &result, nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return limit
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(timestampLayout)
}

// timestampFormats are the formats a stored timestamp may have.
var timestampFormats = []string{
	timestampLayout,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z",
	time.RFC3339Nano,
}

// parseTimestamp returns the zero time when no format matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
