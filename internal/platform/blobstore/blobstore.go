// Package blobstore stores the binary content behind patient files: generated
// document text and imported uploads. Every stored blob is owned by exactly
// one file record; content is freed through an explicit Release or when the
// store shuts down, never implicitly.
package blobstore

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrBlobNotFound = errors.New("blob not found")
	ErrTooLarge     = errors.New("blob exceeds maximum allowed size")
	ErrStoreClosed  = errors.New("blob store is closed")
)

// Blob describes stored content. The ID is the handle file records keep.
type Blob struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	Hash        string    `json:"hash"`
	CreatedAt   time.Time `json:"created_at"`
}

// Store is the content storage contract.
type Store interface {
	Put(ctx context.Context, name, contentType string, r io.Reader) (*Blob, error)
	Open(ctx context.Context, id string) (io.ReadCloser, *Blob, error)
	Stat(ctx context.Context, id string) (*Blob, error)
	// Release frees one blob's content. Callers release a blob only when
	// the owning record is gone; the append-only repositories never do.
	Release(ctx context.Context, id string) error
	// Close releases every blob. Called once at shutdown.
	Close() error
}

type storedBlob struct {
	meta    Blob
	content []byte
}

// MemoryStore is the in-process Store. maxSize bounds a single blob, not the
// store as a whole.
type MemoryStore struct {
	mu      sync.RWMutex
	blobs   map[string]*storedBlob
	maxSize int64
	closed  bool
}

func NewMemoryStore(maxSize int64) *MemoryStore {
	return &MemoryStore{
		blobs:   make(map[string]*storedBlob),
		maxSize: maxSize,
	}
}

func (s *MemoryStore) Put(_ context.Context, name, contentType string, r io.Reader) (*Blob, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading content: %w", err)
	}
	if int64(len(data)) > s.maxSize {
		return nil, ErrTooLarge
	}

	h := sha256.Sum256(data)
	meta := Blob{
		ID:          uuid.New().String(),
		Name:        name,
		ContentType: contentType,
		Size:        int64(len(data)),
		Hash:        fmt.Sprintf("%x", h),
		CreatedAt:   time.Now().UTC(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrStoreClosed
	}
	s.blobs[meta.ID] = &storedBlob{meta: meta, content: data}

	out := meta
	return &out, nil
}

func (s *MemoryStore) Open(_ context.Context, id string) (io.ReadCloser, *Blob, error) {
	s.mu.RLock()
	b, ok := s.blobs[id]
	s.mu.RUnlock()
	if !ok {
		return nil, nil, ErrBlobNotFound
	}
	meta := b.meta
	return io.NopCloser(bytes.NewReader(b.content)), &meta, nil
}

func (s *MemoryStore) Stat(_ context.Context, id string) (*Blob, error) {
	s.mu.RLock()
	b, ok := s.blobs[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrBlobNotFound
	}
	meta := b.meta
	return &meta, nil
}

func (s *MemoryStore) Release(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blobs[id]; !ok {
		return ErrBlobNotFound
	}
	delete(s.blobs, id)
	return nil
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs = make(map[string]*storedBlob)
	s.closed = true
	return nil
}

// Len reports how many blobs are held. Used by the health endpoint.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}
