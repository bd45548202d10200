// Package memory is an in-process object store for tests and local development.
package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"sync"
	"time"

	"folio/internal/domain"
	"folio/internal/domain/services"
)

// Op names an object store operation for fault injection
type Op string

const (
	OpPut       Op = "put"
	OpDelete    Op = "delete"
	OpSignedURL Op = "presign"
	OpCopy      Op = "copy"
)

// FaultFunc returns a non-nil error to make an operation fail
type FaultFunc func(op Op, ref string) error

// Store keeps blobs in a map
type Store struct {
	mu      sync.RWMutex
	objects map[string][]byte
	types   map[string]string
	baseURL string
	fault   FaultFunc
}

// New creates an empty store; SignedURL builds URLs under baseURL
func New(baseURL string) *Store {
	return &Store{
		objects: make(map[string][]byte),
		types:   make(map[string]string),
		baseURL: baseURL,
	}
}

// SetFault installs (or clears, with nil) a fault hook
func (s *Store) SetFault(fn FaultFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fault = fn
}

func (s *Store) check(op Op, ref string) error {
	s.mu.RLock()
	fault := s.fault
	s.mu.RUnlock()
	if fault == nil {
		return nil
	}
	if err := fault(op, ref); err != nil {
		return &domain.StorageBackendError{Op: string(op), Ref: ref, Retryable: true, Err: err}
	}
	return nil
}

// Put reads body fully and stores it under key
func (s *Store) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error) {
	if err := s.check(OpPut, key); err != nil {
		return "", err
	}
	data, err := io.ReadAll(io.LimitReader(body, size+1))
	if err != nil {
		return "", &domain.StorageBackendError{Op: string(OpPut), Ref: key, Err: err}
	}
	if err := ctx.Err(); err != nil {
		return "", &domain.StorageBackendError{Op: string(OpPut), Ref: key, Err: err}
	}
	if int64(len(data)) != size {
		return "", &domain.StorageBackendError{
			Op:  string(OpPut),
			Ref: key,
			Err: fmt.Errorf("body has %d bytes, declared %d", len(data), size),
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
	s.types[key] = contentType
	return key, nil
}

// Delete removes ref; missing refs are ignored
func (s *Store) Delete(ctx context.Context, ref string) error {
	if err := s.check(OpDelete, ref); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, ref)
	delete(s.types, ref)
	return nil
}

// SignedURL returns a URL carrying the expiry; it is not verifiable
func (s *Store) SignedURL(ctx context.Context, ref string, ttl time.Duration) (string, error) {
	if err := s.check(OpSignedURL, ref); err != nil {
		return "", err
	}
	if !s.Has(ref) {
		return "", &domain.StorageBackendError{Op: string(OpSignedURL), Ref: ref, Err: fmt.Errorf("no such object")}
	}
	expires := time.Now().Add(ttl).Unix()
	return fmt.Sprintf("%s/%s?expires=%d", s.baseURL, url.PathEscape(ref), expires), nil
}

// Copy duplicates srcRef into dstRef
func (s *Store) Copy(ctx context.Context, srcRef, dstRef string) error {
	if err := s.check(OpCopy, srcRef); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[srcRef]
	if !ok {
		return &domain.StorageBackendError{Op: string(OpCopy), Ref: srcRef, Err: fmt.Errorf("no such object")}
	}
	s.objects[dstRef] = bytes.Clone(data)
	s.types[dstRef] = s.types[srcRef]
	return nil
}

// Has reports whether ref is stored
func (s *Store) Has(ref string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.objects[ref]
	return ok
}

// Get returns the stored bytes of ref
func (s *Store) Get(ref string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.objects[ref]
	return bytes.Clone(data), ok
}

// Len is the number of stored objects
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

// Ensure Store implements services.ObjectStore.
var _ services.ObjectStore = (*Store)(nil)
