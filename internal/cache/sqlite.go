package cache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"github.com/BNTiyan/ai-checker/internal/models"
)

// migration is one schema change applied in order
type migration struct {
	Version int
	Name    string
	SQL     string
}

var migrations = []migration{
	{
		Version: 1,
		Name:    "create_reports_table",
		SQL: `
			CREATE TABLE IF NOT EXISTS reports (
				fingerprint TEXT PRIMARY KEY,
				report TEXT NOT NULL,
				analyzed_at TIMESTAMP NOT NULL,
				expires_at TIMESTAMP NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_reports_expires_at ON reports(expires_at);
		`,
	},
	{
		Version: 2,
		Name:    "create_schema_version_table",
		SQL: `
			CREATE TABLE IF NOT EXISTS schema_version (
				version INTEGER PRIMARY KEY,
				applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
			);
		`,
	},
}

// SQLiteStore is the durable report store variant. Same semantics as
// MemoryStore: expired rows are misses and get evicted on access.
type SQLiteStore struct {
	conn *sql.DB
	ttl  time.Duration
	now  func() time.Time
}

// NewSQLiteStore opens (or creates) the database at path and runs migrations
func NewSQLiteStore(path string, ttl time.Duration) (*SQLiteStore, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &SQLiteStore{conn: conn, ttl: ttl, now: time.Now}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

// WithClock replaces the store's clock, for tests
func (s *SQLiteStore) WithClock(now func() time.Time) *SQLiteStore {
	s.now = now
	return s
}

func (s *SQLiteStore) migrate() error {
	// Ensure schema_version table exists before checking the version
	if _, err := s.conn.Exec(migrations[1].SQL); err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}

	var currentVersion int
	err := s.conn.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}

	for _, m := range migrations {
		if m.Version <= currentVersion {
			continue
		}

		tx, err := s.conn.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin transaction for migration %d: %w", m.Version, err)
		}
		if _, err := tx.Exec(m.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to run migration %d (%s): %w", m.Version, m.Name, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", m.Version); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", m.Version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", m.Version, err)
		}

		slog.Info("applied migration", "version", m.Version, "name", m.Name)
	}
	return nil
}

// Get returns the cached report or ErrNotFound
func (s *SQLiteStore) Get(fingerprint string) (*models.Report, error) {
	var raw string
	var expiresAt time.Time
	err := s.conn.QueryRow(
		"SELECT report, expires_at FROM reports WHERE fingerprint = ?", fingerprint,
	).Scan(&raw, &expiresAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query report: %w", err)
	}

	if s.now().After(expiresAt) {
		if _, err := s.conn.Exec("DELETE FROM reports WHERE fingerprint = ?", fingerprint); err != nil {
			slog.Warn("failed to evict expired report", "fingerprint", fingerprint, "error", err)
		}
		return nil, ErrNotFound
	}

	var report models.Report
	if err := json.Unmarshal([]byte(raw), &report); err != nil {
		// A corrupt row is never user-visible; treat it as a fresh computation
		slog.Warn("discarding corrupt cached report", "fingerprint", fingerprint, "error", err)
		return nil, ErrNotFound
	}
	return &report, nil
}

// Put stores a completed report with a fresh TTL clock. The whole report is
// written in one statement, so readers never observe a partial write.
func (s *SQLiteStore) Put(fingerprint string, report *models.Report) error {
	raw, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	_, err = s.conn.Exec(`
		INSERT INTO reports (fingerprint, report, analyzed_at, expires_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(fingerprint) DO UPDATE SET
			report = excluded.report,
			analyzed_at = excluded.analyzed_at,
			expires_at = excluded.expires_at
	`, fingerprint, string(raw), report.AnalyzedAt, s.now().Add(s.ttl))
	if err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.conn.Close()
}
