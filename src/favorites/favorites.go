// Package favorites keeps starred selections and their translations in SQLite.
package favorites

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

var (
	ErrNotFound  = errors.New("favorite not found")
	ErrEmptyText = errors.New("favorite text is empty")
)

const defaultListLimit = 50

type Favorite struct {
	ID          string
	Text        string
	Translation string
	Engine      string
	CreatedAt   time.Time
}

type Store struct {
	db *sql.DB
}

// Open creates the database file and schema if needed.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create favorites directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open favorites database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to favorites database: %w", err)
	}
	const schema = `
	CREATE TABLE IF NOT EXISTS favorites (
		id          TEXT PRIMARY KEY,
		text        TEXT NOT NULL,
		translation TEXT NOT NULL DEFAULT '',
		engine      TEXT NOT NULL DEFAULT '',
		created_at  DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_favorites_created ON favorites(created_at);
	`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create favorites table: %w", err)
	}
	return &Store{db: db}, nil
}

// Add stores fav, filling ID and CreatedAt when unset, and returns the stored row.
func (s *Store) Add(ctx context.Context, fav Favorite) (Favorite, error) {
	if strings.TrimSpace(fav.Text) == "" {
		return Favorite{}, ErrEmptyText
	}
	if fav.ID == "" {
		fav.ID = uuid.NewString()
	}
	if fav.CreatedAt.IsZero() {
		fav.CreatedAt = time.Now()
	}
	fav.CreatedAt = fav.CreatedAt.UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO favorites (id, text, translation, engine, created_at) VALUES (?, ?, ?, ?, ?)`,
		fav.ID, fav.Text, fav.Translation, fav.Engine, fav.CreatedAt)
	if err != nil {
		return Favorite{}, fmt.Errorf("failed to insert favorite: %w", err)
	}
	return fav, nil
}

// List returns the newest favorites first. limit <= 0 means the default of 50.
func (s *Store) List(ctx context.Context, limit int) ([]Favorite, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, text, translation, engine, created_at FROM favorites ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query favorites: %w", err)
	}
	defer rows.Close()

	var out []Favorite
	for rows.Next() {
		var f Favorite
		if err := rows.Scan(&f.ID, &f.Text, &f.Translation, &f.Engine, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan favorite: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM favorites WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete favorite: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete favorite: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) Close() error { return s.db.Close() }
