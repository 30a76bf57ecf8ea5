package bookmarks

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS bookmarks (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	url TEXT NOT NULL UNIQUE,
	created_at TEXT NOT NULL
)`

// SQLiteStore keeps bookmarks in a local SQLite database.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	if path == "" {
		path = "bookmarks.db"
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create sqlite schema: %w", err)
	}
	return &SQLiteStore{db: db, now: time.Now}, nil
}

func (s *SQLiteStore) Add(ctx context.Context, urls []string) (AddResult, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return AddResult{}, err
	}
	defer tx.Rollback()

	stamp := s.now().Format(time.RFC3339Nano)
	added := 0
	for _, u := range uniq(urls) {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO bookmarks (url, created_at) VALUES (?, ?) ON CONFLICT(url) DO NOTHING`, u, stamp)
		if err != nil {
			return AddResult{}, err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return AddResult{}, err
		}
		added += int(n)
	}
	if err := tx.Commit(); err != nil {
		return AddResult{}, err
	}
	return AddResult{Added: added, Skipped: len(urls) - added}, nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]Bookmark, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT url, created_at FROM bookmarks ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Bookmark{}
	for rows.Next() {
		var (
			b       Bookmark
			created string
		)
		if err := rows.Scan(&b.URL, &created); err != nil {
			return nil, err
		}
		if b.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, fmt.Errorf("bookmark %s: bad timestamp %q: %w", b.URL, created, err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Remove(ctx context.Context, url string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM bookmarks WHERE url = ?`, url)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

var _ Store = (*SQLiteStore)(nil)
