// Package memory provides an in-memory blobstore.Store for tests and the
// dev storage backend.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/tabserve/tabserve/pkg/blobstore"
)

type object struct {
	data         []byte
	contentType  string
	lastModified time.Time
}

// Store keeps objects in a mutex-guarded map. It is safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	objects map[string]object
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{objects: make(map[string]object)}
}

// Put stores a copy of data under key.
func (s *Store) Put(_ context.Context, key string, data []byte, contentType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = object{
		data:         append([]byte(nil), data...),
		contentType:  contentType,
		lastModified: time.Now().UTC(),
	}
	return nil
}

// Get returns a copy of the object at key.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[key]
	if !ok {
		return nil, fmt.Errorf("get %q: %w", key, blobstore.ErrNotFound)
	}
	return append([]byte(nil), obj.data...), nil
}

// List returns objects under prefix, sorted by key.
func (s *Store) List(_ context.Context, prefix string) ([]blobstore.ObjectInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	infos := make([]blobstore.ObjectInfo, 0)
	for key, obj := range s.objects {
		if strings.HasPrefix(key, prefix) {
			infos = append(infos, blobstore.ObjectInfo{
				Key:          key,
				Size:         int64(len(obj.data)),
				LastModified: obj.lastModified,
			})
		}
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Key < infos[j].Key })
	return infos, nil
}

// Delete removes the object at key.
func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[key]; !ok {
		return fmt.Errorf("delete %q: %w", key, blobstore.ErrNotFound)
	}
	delete(s.objects, key)
	return nil
}

// Presign returns a synthetic URL for the object. The in-memory store has
// no HTTP surface, so the URL is only useful as an identifier.
func (s *Store) Presign(_ context.Context, key string, expires time.Duration) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.objects[key]; !ok {
		return "", fmt.Errorf("presign %q: %w", key, blobstore.ErrNotFound)
	}
	return fmt.Sprintf("memory://%s?expires=%d", key, int64(expires.Seconds())), nil
}

// Verify interface compliance.
var _ blobstore.Store = (*Store)(nil)
