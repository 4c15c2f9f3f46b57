package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// LocalStore writes objects to a directory served under /uploads/.
type LocalStore struct {
	dir     string
	baseURL string
}

// NewLocalStore creates the storage directory if needed.
func NewLocalStore(dir, baseURL string) (*LocalStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("storage: empty dir")
	}
	if errMkdir := os.MkdirAll(dir, 0755); errMkdir != nil {
		return nil, fmt.Errorf("storage: create dir: %w", errMkdir)
	}
	return &LocalStore{dir: dir, baseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

// Dir returns the directory backing the store, for static file serving.
func (s *LocalStore) Dir() string { return s.dir }

// Put writes the object under a collision-free key derived from the original
// filename's extension.
func (s *LocalStore) Put(_ context.Context, filename string, data []byte, _ string) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("storage: empty object")
	}

	ext := strings.ToLower(filepath.Ext(filename))
	key := uuid.NewString() + ext
	path := filepath.Join(s.dir, key)
	if errWrite := os.WriteFile(path, data, 0644); errWrite != nil {
		return "", fmt.Errorf("storage: write %s: %w", key, errWrite)
	}
	return s.baseURL + "/uploads/" + key, nil
}
