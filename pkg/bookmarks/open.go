package bookmarks

import (
	"context"
	"fmt"
	"strings"

	"github.com/Protocol-Lattice/perplexia/pkg/config"
)

// Open builds the Store selected by cfg.Backend. An empty backend means file.
func Open(ctx context.Context, cfg config.Bookmarks) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", "file":
		return NewFileStore(cfg.Path), nil
	case "sqlite":
		return NewSQLiteStore(ctx, cfg.Path)
	case "postgres", "postgresql":
		return NewPostgresStore(ctx, cfg.DSN)
	case "mongo", "mongodb":
		return NewMongoStore(ctx, cfg.DSN, orDefault(cfg.Database, "perplexia"), orDefault(cfg.Collection, "bookmarks"))
	case "neo4j":
		driver, err := DialNeo4j(ctx, cfg.DSN, cfg.Username, cfg.Password)
		if err != nil {
			return nil, fmt.Errorf("connect neo4j: %w", err)
		}
		store, err := NewNeo4jStore(ctx, driver, cfg.Database)
		if err != nil {
			_ = driver.Close(ctx)
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
