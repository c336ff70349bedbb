package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"podfetch/internal/catalog"
	"podfetch/internal/config"
)

// Record is one persisted episode row.
type Record struct {
	ID          int64
	Podcast     string
	URL         string
	Title       string
	Filename    string
	Filesize    int64
	Downloaded  bool
	PubTime     time.Time
	AddedAt     time.Time
	CompletedAt *time.Time
}

// Totals aggregates store contents for status output.
type Totals struct {
	Episodes   int
	Downloaded int
	Pending    int
}

// Store manages episode history backed by SQLite.
type Store struct {
	db   *sql.DB
	path string

	// mu serializes writes so concurrent workers never interleave
	// completion records.
	mu sync.Mutex
}

// Open initializes or connects to the history database in the state
// directory and verifies the schema.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.StateDir, "history.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// Completed returns the set of source URLs already marked downloaded for a
// podcast. Called once per podcast before the download pool starts.
func (s *Store) Completed(ctx context.Context, podcast string) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT url FROM episodes WHERE podcast = ? AND downloaded = 1`, podcast)
	if err != nil {
		return nil, fmt.Errorf("query completed episodes: %w", err)
	}
	defer rows.Close()

	completed := make(map[string]struct{})
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, err
		}
		completed[url] = struct{}{}
	}
	return completed, rows.Err()
}

// RecordDiscovered inserts newly discovered episodes. Rows already present
// for the same (podcast, url) are left untouched, so re-running discovery is
// idempotent and never clears a completion mark.
func (s *Store) RecordDiscovered(ctx context.Context, episodes []catalog.Episode) error {
	if len(episodes) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin discovery tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO episodes (podcast, url, title, filename, filesize, pub_time, added_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare discovery insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	for _, ep := range episodes {
		if _, err := stmt.ExecContext(ctx,
			ep.Podcast,
			ep.SourceURL,
			ep.Title,
			ep.Filename,
			ep.Length,
			nullableTime(ep.Published),
			now,
		); err != nil {
			return fmt.Errorf("insert episode %s: %w", ep.SourceURL, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit discovery: %w", err)
	}
	return nil
}

// MarkComplete records a finished download. The row is upserted so a
// completion mark is written even when discovery never saw the episode.
// Call this only after the file is durably in place at its final name.
func (s *Store) MarkComplete(ctx context.Context, podcast, url, filename string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(ctx,
		`UPDATE episodes SET downloaded = 1, filename = ?, completed_at = ?
         WHERE podcast = ? AND url = ?`,
		filename, now, podcast, url)
	if err != nil {
		return fmt.Errorf("mark complete %s: %w", url, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected > 0 {
		return nil
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO episodes (podcast, url, filename, downloaded, added_at, completed_at)
         VALUES (?, ?, ?, 1, ?, ?)`,
		podcast, url, filename, now, now)
	if err != nil {
		return fmt.Errorf("insert completion %s: %w", url, err)
	}
	return nil
}

// List returns episode rows, optionally filtered to one podcast, newest
// publication first.
func (s *Store) List(ctx context.Context, podcast string) ([]Record, error) {
	query := `SELECT ` + recordColumns + ` FROM episodes`
	args := []any{}
	if podcast != "" {
		query += ` WHERE podcast = ?`
		args = append(args, podcast)
	}
	query += ` ORDER BY pub_time DESC, id DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list episodes: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// Stats returns aggregate counts, optionally filtered to one podcast.
func (s *Store) Stats(ctx context.Context, podcast string) (Totals, error) {
	query := `SELECT COUNT(1), COALESCE(SUM(downloaded), 0) FROM episodes`
	args := []any{}
	if podcast != "" {
		query += ` WHERE podcast = ?`
		args = append(args, podcast)
	}

	var totals Totals
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&totals.Episodes, &totals.Downloaded); err != nil {
		return Totals{}, fmt.Errorf("history stats: %w", err)
	}
	totals.Pending = totals.Episodes - totals.Downloaded
	return totals, nil
}

const recordColumns = "id, podcast, url, title, filename, filesize, downloaded, pub_time, added_at, completed_at"

func scanRecord(scanner interface{ Scan(dest ...any) error }) (Record, error) {
	var (
		record       Record
		downloaded   int
		pubRaw       sql.NullString
		addedRaw     sql.NullString
		completedRaw sql.NullString
	)

	if err := scanner.Scan(
		&record.ID,
		&record.Podcast,
		&record.URL,
		&record.Title,
		&record.Filename,
		&record.Filesize,
		&downloaded,
		&pubRaw,
		&addedRaw,
		&completedRaw,
	); err != nil {
		return Record{}, err
	}

	record.Downloaded = downloaded != 0
	if t, err := parseTimeString(pubRaw.String); err == nil {
		record.PubTime = t
	}
	if t, err := parseTimeString(addedRaw.String); err == nil {
		record.AddedAt = t
	}
	if completedRaw.Valid {
		if t, err := parseTimeString(completedRaw.String); err == nil {
			record.CompletedAt = &t
		}
	}
	return record, nil
}

func nullableTime(value time.Time) any {
	if value.IsZero() {
		return nil
	}
	return value.UTC().Format(time.RFC3339Nano)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}
