// Package store persists a history of generated QR codes in SQLite.
package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Entry represents a single generated QR code recorded in the database.
type Entry struct {
	ID         int64  `json:"id"`
	Content    string `json:"content"`
	OutputPath string `json:"output_path,omitempty"`
	Format     string `json:"format"`
	Level      string `json:"level"`
	ModuleSize int    `json:"module_size"`
	Border     int    `json:"border"`
	WidthPx    int    `json:"width_px"`
	CreatedAt  int64  `json:"created_at"`
}

// HistoryStore manages SQLite storage for generation history.
type HistoryStore struct {
	db *sql.DB
}

const createCodesTable = `
CREATE TABLE IF NOT EXISTS codes (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    content TEXT NOT NULL,
    output_path TEXT NOT NULL DEFAULT '',
    format TEXT NOT NULL DEFAULT 'png',
    level TEXT NOT NULL DEFAULT 'M',
    module_size INTEGER NOT NULL,
    border INTEGER NOT NULL,
    width_px INTEGER NOT NULL,
    created_at INTEGER NOT NULL
);
`

const createFTSTable = `
CREATE VIRTUAL TABLE IF NOT EXISTS codes_fts USING fts5(
    content,
    content='codes',
    content_rowid='id'
);
`

const createFTSTrigger = `
CREATE TRIGGER IF NOT EXISTS codes_ai AFTER INSERT ON codes BEGIN
    INSERT INTO codes_fts(rowid, content) VALUES (new.id, new.content);
END;
`

const createIndexes = `
CREATE INDEX IF NOT EXISTS idx_codes_created_at ON codes(created_at);
`

// NewHistoryStore opens (or creates) the SQLite database at dbPath,
// initialises the schema (codes table, FTS5 virtual table, sync trigger),
// and returns a ready-to-use HistoryStore.
func NewHistoryStore(dbPath string) (*HistoryStore, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Verify the connection is alive.
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	for _, stmt := range []string{
		createCodesTable,
		createFTSTable,
		createFTSTrigger,
		createIndexes,
	} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec schema statement: %w", err)
		}
	}

	return &HistoryStore{db: db}, nil
}

// Record inserts a generation entry and fills in its assigned ID and
// timestamp. A zero CreatedAt is set to the current time.
func (s *HistoryStore) Record(e *Entry) error {
	if e.CreatedAt == 0 {
		e.CreatedAt = time.Now().Unix()
	}

	const query = `
		INSERT INTO codes
			(content, output_path, format, level, module_size, border, width_px, created_at)
		VALUES
			(?, ?, ?, ?, ?, ?, ?, ?)
	`

	res, err := s.db.Exec(query,
		e.Content,
		e.OutputPath,
		e.Format,
		e.Level,
		e.ModuleSize,
		e.Border,
		e.WidthPx,
		e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("record code: %w", err)
	}
	if id, err := res.LastInsertId(); err == nil {
		e.ID = id
	}
	return nil
}

// Recent returns the most recently generated codes, newest first.
func (s *HistoryStore) Recent(limit int) ([]Entry, error) {
	const query = `
		SELECT id, content, output_path, format, level, module_size, border, width_px, created_at
		FROM codes
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`

	rows, err := s.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("recent codes: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// Search performs a full-text search over encoded content using the FTS5
// index. Results are ranked by relevance.
func (s *HistoryStore) Search(query string, limit int) ([]Entry, error) {
	// Escape any double quotes in the query to avoid FTS5 syntax errors.
	escaped := strings.ReplaceAll(query, `"`, `""`)
	ftsQuery := fmt.Sprintf(`"%s"`, escaped)

	const q = `
		SELECT c.id, c.content, c.output_path, c.format, c.level, c.module_size,
		       c.border, c.width_px, c.created_at
		FROM codes c
		JOIN codes_fts fts ON c.id = fts.rowid
		WHERE codes_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`

	rows, err := s.db.Query(q, ftsQuery, limit)
	if err != nil {
		return nil, fmt.Errorf("search codes: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// Count returns the total number of recorded codes.
func (s *HistoryStore) Count() (int64, error) {
	var n int64
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM codes`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count codes: %w", err)
	}
	return n, nil
}

// Close closes the underlying database connection.
func (s *HistoryStore) Close() error {
	return s.db.Close()
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(
			&e.ID, &e.Content, &e.OutputPath, &e.Format, &e.Level,
			&e.ModuleSize, &e.Border, &e.WidthPx, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan code row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate code rows: %w", err)
	}
	return entries, nil
}
