package cache

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"whats-up/internal/domain"
)

const cacheFileName = "briefing-cache.json"

// FileStore persists the cache slot as one JSON document in a writable,
// possibly volatile directory (/tmp on ephemeral deployments).
type FileStore struct {
	path string
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{path: filepath.Join(dir, cacheFileName)}
}

func (s *FileStore) Load(_ context.Context) (*domain.CachedBriefing, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var entry domain.CachedBriefing
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

func (s *FileStore) Save(_ context.Context, entry domain.CachedBriefing) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	// Write-then-rename so a crash mid-write cannot leave a torn document.
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}
