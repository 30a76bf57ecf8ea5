package bookmarks

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileStore keeps all bookmarks in one JSON array. Every call reloads the
// file and writes replace it atomically, so concurrent processes never see a
// half-written file.
type FileStore struct {
	path string
	mu   sync.Mutex
	now  func() time.Time
}

func NewFileStore(path string) *FileStore {
	if path == "" {
		path = "bookmarks.json"
	}
	return &FileStore{path: path, now: time.Now}
}

// load treats a missing or unreadable file as empty.
func (s *FileStore) load() []Bookmark {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return []Bookmark{}
	}
	var list []Bookmark
	if err := json.Unmarshal(data, &list); err != nil {
		return []Bookmark{}
	}
	return list
}

func (s *FileStore) save(list []Bookmark) error {
	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

func (s *FileStore) Add(_ context.Context, urls []string) (AddResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.load()
	existing := make(map[string]struct{}, len(list))
	for _, b := range list {
		existing[b.URL] = struct{}{}
	}
	added := fresh(existing, urls)
	stamp := s.now()
	for _, u := range added {
		list = append(list, Bookmark{URL: u, CreatedAt: stamp})
	}
	if err := s.save(list); err != nil {
		return AddResult{}, err
	}
	return AddResult{Added: len(added), Skipped: len(urls) - len(added)}, nil
}

func (s *FileStore) List(context.Context) ([]Bookmark, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(), nil
}

func (s *FileStore) Remove(_ context.Context, url string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.load()
	kept := list[:0]
	for _, b := range list {
		if b.URL != url {
			kept = append(kept, b)
		}
	}
	if len(kept) == len(list) {
		return false, nil
	}
	return true, s.save(kept)
}

func (s *FileStore) Close() error { return nil }

var _ Store = (*FileStore)(nil)
