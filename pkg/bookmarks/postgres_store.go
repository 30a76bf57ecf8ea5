package bookmarks

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `CREATE TABLE IF NOT EXISTS bookmarks (
	id BIGSERIAL PRIMARY KEY,
	url TEXT NOT NULL UNIQUE,
	created_at TIMESTAMPTZ NOT NULL
)`

type PostgresStore struct {
	DB  *pgxpool.Pool
	now func() time.Time
}

func NewPostgresStore(ctx context.Context, connStr string) (*PostgresStore, error) {
	db, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if _, err := db.Exec(ctx, postgresSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create postgres schema: %w", err)
	}
	return &PostgresStore{DB: db, now: time.Now}, nil
}

func (ps *PostgresStore) Add(ctx context.Context, urls []string) (AddResult, error) {
	tx, err := ps.DB.Begin(ctx)
	if err != nil {
		return AddResult{}, err
	}
	defer tx.Rollback(ctx)

	stamp := ps.now().UTC()
	added := 0
	for _, u := range uniq(urls) {
		tag, err := tx.Exec(ctx,
			`INSERT INTO bookmarks (url, created_at) VALUES ($1, $2) ON CONFLICT (url) DO NOTHING`, u, stamp)
		if err != nil {
			return AddResult{}, err
		}
		added += int(tag.RowsAffected())
	}
	if err := tx.Commit(ctx); err != nil {
		return AddResult{}, err
	}
	return AddResult{Added: added, Skipped: len(urls) - added}, nil
}

func (ps *PostgresStore) List(ctx context.Context) ([]Bookmark, error) {
	rows, err := ps.DB.Query(ctx, `SELECT url, created_at FROM bookmarks ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Bookmark{}
	for rows.Next() {
		var b Bookmark
		if err := rows.Scan(&b.URL, &b.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (ps *PostgresStore) Remove(ctx context.Context, url string) (bool, error) {
	tag, err := ps.DB.Exec(ctx, `DELETE FROM bookmarks WHERE url = $1`, url)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (ps *PostgresStore) Close() error {
	ps.DB.Close()
	return nil
}

var _ Store = (*PostgresStore)(nil)
