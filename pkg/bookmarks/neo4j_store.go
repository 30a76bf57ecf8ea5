package bookmarks

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Neo4jAccessMode controls whether a session is opened for read or write operations.
type Neo4jAccessMode string

const (
	AccessModeWrite Neo4jAccessMode = "write"
	AccessModeRead  Neo4jAccessMode = "read"
)

// Neo4jSessionConfig mirrors the subset of session configuration the store uses.
type Neo4jSessionConfig struct {
	AccessMode   Neo4jAccessMode
	DatabaseName string
}

// neo4jDriver abstracts the driver so tests can substitute fakes. The real
// driver is adapted by WrapNeo4jDriver.
type neo4jDriver interface {
	NewSession(ctx context.Context, config Neo4jSessionConfig) (neo4jSession, error)
	Close(ctx context.Context) error
}

type neo4jSession interface {
	BeginTransaction(ctx context.Context) (neo4jTransaction, error)
	Run(ctx context.Context, query string, params map[string]any) (neo4jResult, error)
	Close(ctx context.Context) error
}

type neo4jTransaction interface {
	Run(ctx context.Context, query string, params map[string]any) (neo4jResult, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
	Close(ctx context.Context) error
}

type neo4jResult interface {
	Next(ctx context.Context) bool
	Record() neo4jRecord
	Err() error
	Close(ctx context.Context) error
}

type neo4jRecord interface {
	Get(key string) (any, bool)
}

const (
	neo4jConstraintQuery = `CREATE CONSTRAINT bookmark_url IF NOT EXISTS FOR (b:Bookmark) REQUIRE b.url IS UNIQUE`
	neo4jMergeQuery      = `MERGE (b:Bookmark {url: $url}) ON CREATE SET b.created_at = $created_at RETURN b.created_at = $created_at AS created`
	neo4jListQuery       = `MATCH (b:Bookmark) RETURN b.url AS url, b.created_at AS created_at ORDER BY b.created_at, b.url`
	neo4jRemoveQuery     = `MATCH (b:Bookmark {url: $url}) DELETE b RETURN count(*) AS removed`
)

// Neo4jStore keeps each bookmark as a :Bookmark node keyed by url.
type Neo4jStore struct {
	driver   neo4jDriver
	database string
	now      func() time.Time
}

func NewNeo4jStore(ctx context.Context, driver neo4jDriver, database string) (*Neo4jStore, error) {
	if driver == nil {
		return nil, errors.New("neo4j driver is nil")
	}
	s := &Neo4jStore{driver: driver, database: database, now: time.Now}
	if err := s.withSession(ctx, AccessModeWrite, func(sess neo4jSession) error {
		res, err := sess.Run(ctx, neo4jConstraintQuery, nil)
		if err != nil {
			return err
		}
		return res.Close(ctx)
	}); err != nil {
		return nil, fmt.Errorf("create neo4j constraint: %w", err)
	}
	return s, nil
}

func (s *Neo4jStore) withSession(ctx context.Context, mode Neo4jAccessMode, fn func(neo4jSession) error) error {
	sess, err := s.driver.NewSession(ctx, Neo4jSessionConfig{AccessMode: mode, DatabaseName: s.database})
	if err != nil {
		return err
	}
	defer sess.Close(ctx)
	return fn(sess)
}

func (s *Neo4jStore) Add(ctx context.Context, urls []string) (AddResult, error) {
	stamp := s.now().UTC().Format(time.RFC3339Nano)
	added := 0
	err := s.withSession(ctx, AccessModeWrite, func(sess neo4jSession) error {
		tx, err := sess.BeginTransaction(ctx)
		if err != nil {
			return err
		}
		defer tx.Close(ctx)

		for _, u := range uniq(urls) {
			res, err := tx.Run(ctx, neo4jMergeQuery, map[string]any{"url": u, "created_at": stamp})
			if err != nil {
				_ = tx.Rollback(ctx)
				return err
			}
			if res.Next(ctx) {
				if created, ok := res.Record().Get("created"); ok && created == true {
					added++
				}
			}
			if err := res.Err(); err != nil {
				_ = tx.Rollback(ctx)
				return err
			}
		}
		return tx.Commit(ctx)
	})
	if err != nil {
		return AddResult{}, err
	}
	return AddResult{Added: added, Skipped: len(urls) - added}, nil
}

func (s *Neo4jStore) List(ctx context.Context) ([]Bookmark, error) {
	out := []Bookmark{}
	err := s.withSession(ctx, AccessModeRead, func(sess neo4jSession) error {
		res, err := sess.Run(ctx, neo4jListQuery, nil)
		if err != nil {
			return err
		}
		defer res.Close(ctx)
		for res.Next(ctx) {
			rec := res.Record()
			url, _ := rec.Get("url")
			created, _ := rec.Get("created_at")
			b := Bookmark{URL: fmt.Sprint(url)}
			if ts, ok := created.(string); ok {
				if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
					b.CreatedAt = t
				}
			}
			out = append(out, b)
		}
		return res.Err()
	})
	return out, err
}

func (s *Neo4jStore) Remove(ctx context.Context, url string) (bool, error) {
	removed := false
	err := s.withSession(ctx, AccessModeWrite, func(sess neo4jSession) error {
		res, err := sess.Run(ctx, neo4jRemoveQuery, map[string]any{"url": url})
		if err != nil {
			return err
		}
		defer res.Close(ctx)
		if res.Next(ctx) {
			if n, ok := res.Record().Get("removed"); ok {
				if count, ok := n.(int64); ok && count > 0 {
					removed = true
				}
			}
		}
		return res.Err()
	})
	return removed, err
}

func (s *Neo4jStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.driver.Close(ctx)
}

var _ Store = (*Neo4jStore)(nil)
