package pubform

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = sql.ErrNoRows

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// StoredContent is a content row as read back from the store.
type StoredContent struct {
	ContentID string
	ContentRecord
	CreatedAt time.Time
}

// Store wraps a SQLite database holding the content table. It implements Inserter.
type Store struct {
	db    *sql.DB
	table string
}

// NewStore opens (or creates) the SQLite database at path, ensures the data
// directory exists, and creates the content table.
func NewStore(path string) (*Store, error) {
	return NewStoreTable(path, DefaultTable)
}

// NewStoreTable is NewStore with a custom table name.
func NewStoreTable(path, table string) (*Store, error) {
	if !tableName.MatchString(table) {
		return nil, fmt.Errorf("pubform: invalid table name %q", table)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// WAL lets the form keep serving while a write is in progress;
	// busy_timeout makes writers wait instead of failing with SQLITE_BUSY.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
	`); err != nil {
		db.Close()
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := &Store{db: db, table: table}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS ` + s.table + ` (
    content_id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    author_name TEXT NOT NULL,
    department TEXT NOT NULL,
    category TEXT NOT NULL,
    body TEXT NOT NULL,
    media_items TEXT NOT NULL DEFAULT '[]',
    is_featured INTEGER NOT NULL DEFAULT 0,
    tags TEXT NOT NULL DEFAULT '[]',
    created_at TEXT NOT NULL
);
`)
	return err
}

// Insert writes records into table in one transaction and returns the
// inserted rows with their generated content_id.
func (s *Store) Insert(ctx context.Context, table string, records []ContentRecord) ([]map[string]any, error) {
	if table != s.table {
		return nil, fmt.Errorf("relation %q does not exist", table)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO `+s.table+` (content_id, title, author_name, department, category, body, media_items, is_featured, tags, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	rows := make([]map[string]any, 0, len(records))
	for _, r := range records {
		media := r.MediaItems
		if media == nil {
			media = []MediaItem{}
		}
		mediaJSON, err := json.Marshal(media)
		if err != nil {
			return nil, err
		}
		tags := r.Tags
		if tags == nil {
			tags = []string{}
		}
		tagsJSON, err := json.Marshal(tags)
		if err != nil {
			return nil, err
		}
		id := uuid.NewString()
		createdAt := time.Now().UTC().Format(time.RFC3339Nano)
		featured := 0
		if r.IsFeatured {
			featured = 1
		}
		if _, err := stmt.ExecContext(ctx, id, r.Title, r.AuthorName, r.Department, r.Category, r.Body,
			string(mediaJSON), featured, string(tagsJSON), createdAt); err != nil {
			return nil, err
		}
		rows = append(rows, map[string]any{
			"content_id":  id,
			"title":       r.Title,
			"author_name": r.AuthorName,
			"department":  r.Department,
			"category":    r.Category,
			"body":        r.Body,
			"media_items": media,
			"is_featured": r.IsFeatured,
			"tags":        tags,
			"created_at":  createdAt,
		})
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return rows, nil
}

// Get returns one stored row by content_id.
func (s *Store) Get(ctx context.Context, id string) (StoredContent, error) {
	var c StoredContent
	var mediaJSON, tagsJSON, createdAt string
	var featured int
	err := s.db.QueryRowContext(ctx, `SELECT content_id, title, author_name, department, category, body, media_items, is_featured, tags, created_at FROM `+s.table+` WHERE content_id = ?`, id).
		Scan(&c.ContentID, &c.Title, &c.AuthorName, &c.Department, &c.Category, &c.Body, &mediaJSON, &featured, &tagsJSON, &createdAt)
	if err != nil {
		return StoredContent{}, err
	}
	if err := json.Unmarshal([]byte(mediaJSON), &c.MediaItems); err != nil {
		return StoredContent{}, fmt.Errorf("decode media_items: %w", err)
	}
	if err := json.Unmarshal([]byte(tagsJSON), &c.Tags); err != nil {
		return StoredContent{}, fmt.Errorf("decode tags: %w", err)
	}
	c.IsFeatured = featured == 1
	if c.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return StoredContent{}, fmt.Errorf("decode created_at: %w", err)
	}
	return c, nil
}

// Count returns the number of rows in the content table.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+s.table).Scan(&n)
	return n, err
}
