package bookmarks

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

type fakeNode struct {
	url       string
	createdAt string
}

// fakeNeo4jDriver evaluates the store's fixed queries against an in-memory map.
type fakeNeo4jDriver struct {
	mu     sync.Mutex
	nodes  map[string]fakeNode
	modes  []Neo4jAccessMode
	closed bool
}

func newFakeNeo4jDriver() *fakeNeo4jDriver {
	return &fakeNeo4jDriver{nodes: map[string]fakeNode{}}
}

func (d *fakeNeo4jDriver) NewSession(_ context.Context, cfg Neo4jSessionConfig) (neo4jSession, error) {
	d.mu.Lock()
	d.modes = append(d.modes, cfg.AccessMode)
	d.mu.Unlock()
	return &fakeSession{driver: d}, nil
}

func (d *fakeNeo4jDriver) Close(context.Context) error {
	d.closed = true
	return nil
}

func (d *fakeNeo4jDriver) run(query string, params map[string]any) (*fakeResult, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch query {
	case neo4jConstraintQuery:
		return &fakeResult{}, nil
	case neo4jMergeQuery:
		url := params["url"].(string)
		stamp := params["created_at"].(string)
		n, ok := d.nodes[url]
		if !ok {
			n = fakeNode{url: url, createdAt: stamp}
			d.nodes[url] = n
		}
		return &fakeResult{rows: []fakeRecord{{"created": n.createdAt == stamp}}}, nil
	case neo4jListQuery:
		nodes := make([]fakeNode, 0, len(d.nodes))
		for _, n := range d.nodes {
			nodes = append(nodes, n)
		}
		sort.Slice(nodes, func(i, j int) bool {
			if nodes[i].createdAt != nodes[j].createdAt {
				return nodes[i].createdAt < nodes[j].createdAt
			}
			return nodes[i].url < nodes[j].url
		})
		rows := make([]fakeRecord, 0, len(nodes))
		for _, n := range nodes {
			rows = append(rows, fakeRecord{"url": n.url, "created_at": n.createdAt})
		}
		return &fakeResult{rows: rows}, nil
	case neo4jRemoveQuery:
		url := params["url"].(string)
		var removed int64
		if _, ok := d.nodes[url]; ok {
			delete(d.nodes, url)
			removed = 1
		}
		return &fakeResult{rows: []fakeRecord{{"removed": removed}}}, nil
	}
	return nil, fmt.Errorf("unexpected query %q", query)
}

type fakeSession struct{ driver *fakeNeo4jDriver }

func (s *fakeSession) BeginTransaction(context.Context) (neo4jTransaction, error) {
	return &fakeTx{driver: s.driver}, nil
}

func (s *fakeSession) Run(_ context.Context, query string, params map[string]any) (neo4jResult, error) {
	return s.driver.run(query, params)
}

func (s *fakeSession) Close(context.Context) error { return nil }

type fakeTx struct{ driver *fakeNeo4jDriver }

func (t *fakeTx) Run(_ context.Context, query string, params map[string]any) (neo4jResult, error) {
	return t.driver.run(query, params)
}

func (t *fakeTx) Commit(context.Context) error   { return nil }
func (t *fakeTx) Rollback(context.Context) error { return nil }
func (t *fakeTx) Close(context.Context) error    { return nil }

type fakeRecord map[string]any

func (r fakeRecord) Get(key string) (any, bool) {
	v, ok := r[key]
	return v, ok
}

type fakeResult struct {
	rows []fakeRecord
	idx  int
}

func (r *fakeResult) Next(context.Context) bool {
	if r.idx >= len(r.rows) {
		return false
	}
	r.idx++
	return true
}

func (r *fakeResult) Record() neo4jRecord {
	if r.idx == 0 || r.idx > len(r.rows) {
		return nil
	}
	return r.rows[r.idx-1]
}

func (r *fakeResult) Err() error                  { return nil }
func (r *fakeResult) Close(context.Context) error { return nil }
