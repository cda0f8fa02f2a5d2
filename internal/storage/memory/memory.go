// Package memory provides an in-process blob store for local development
// and tests.
package memory

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/davybookzone/server/internal/storage"
	apperrors "github.com/davybookzone/server/pkg/errors"
)

// Store keeps uploaded blobs in memory, keyed by object key.
type Store struct {
	baseURL string

	mu    sync.RWMutex
	blobs map[string][]byte
}

// New creates an in-memory blob store. Object URLs are built from baseURL.
func New(baseURL string) *Store {
	return &Store{
		baseURL: baseURL,
		blobs:   make(map[string][]byte),
	}
}

// Upload stores a blob and returns its descriptor.
func (s *Store) Upload(ctx context.Context, in *storage.UploadInput) (*storage.Object, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, fmt.Errorf("read upload body: %w", err)
	}

	s.mu.Lock()
	s.blobs[in.Key] = data
	s.mu.Unlock()

	return &storage.Object{
		Key:  in.Key,
		URL:  s.GetURL(in.Key),
		Size: int64(len(data)),
	}, nil
}

// Delete removes a blob. Deleting an unknown key is a not-found error.
func (s *Store) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.blobs[key]; !ok {
		return apperrors.NotFound("object", key)
	}
	delete(s.blobs, key)
	return nil
}

// GetURL builds the public URL for a key.
func (s *Store) GetURL(key string) string {
	return s.baseURL + "/files/" + key
}

// Get returns a stored blob. Test helper.
func (s *Store) Get(key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.blobs[key]
	return data, ok
}
