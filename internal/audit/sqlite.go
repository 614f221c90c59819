package audit

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore creates a new SQLite-backed audit store.
// Use ":memory:" for an in-memory database, or a file path for persistence.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close() // Best effort cleanup on initialization error
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS document_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		action TEXT NOT NULL,
		collection TEXT NOT NULL,
		document TEXT NOT NULL,
		detail TEXT,
		timestamp INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_document ON document_events(collection, document);
	CREATE INDEX IF NOT EXISTS idx_timestamp ON document_events(timestamp);
	CREATE INDEX IF NOT EXISTS idx_action ON document_events(action);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Append records a document mutation.
func (s *SQLiteStore) Append(ctx context.Context, action, collection, document, detail string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO document_events (action, collection, document, detail, timestamp) VALUES (?, ?, ?, ?, ?)",
		action, collection, document, detail, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// GetByDocument retrieves all entries for a specific document, oldest first.
func (s *SQLiteStore) GetByDocument(ctx context.Context, collection, document string) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, action, collection, document, detail, timestamp FROM document_events WHERE collection = ? AND document = ? ORDER BY id",
		collection, document,
	)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	return s.scanEntries(rows)
}

// GetRecent retrieves the most recent entries, newest first.
func (s *SQLiteStore) GetRecent(ctx context.Context, limit int) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, action, collection, document, detail, timestamp FROM document_events ORDER BY id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	return s.scanEntries(rows)
}

// GetRange retrieves entries within a time range, oldest first.
func (s *SQLiteStore) GetRange(ctx context.Context, start, end time.Time) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, action, collection, document, detail, timestamp FROM document_events WHERE timestamp >= ? AND timestamp <= ? ORDER BY id",
		start.Unix(), end.Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	return s.scanEntries(rows)
}

// CountByAction returns entry counts grouped by action.
func (s *SQLiteStore) CountByAction(ctx context.Context) (map[string]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT action, COUNT(*) FROM document_events GROUP BY action",
	)
	if err != nil {
		return nil, fmt.Errorf("count audit entries: %w", err)
	}
	defer rows.Close()

	counts := map[string]int64{}
	for rows.Next() {
		var action string
		var count int64
		if err := rows.Scan(&action, &count); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[action] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return counts, nil
}

func (s *SQLiteStore) scanEntries(rows *sql.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var e Entry
		var timestampUnix int64
		var detail sql.NullString

		if err := rows.Scan(&e.ID, &e.Action, &e.Collection, &e.Document, &detail, &timestampUnix); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		e.Detail = detail.String
		e.Timestamp = time.Unix(timestampUnix, 0)
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return entries, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
