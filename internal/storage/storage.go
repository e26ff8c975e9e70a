// Package storage persists content-addressed cache entries.
//
// Entries live in a namespace (one per consumer) and are addressed by a
// content key. Writes are all-or-nothing in every backend: a failed write
// never leaves a torn entry and never damages one committed earlier.
package storage

import (
	"context"
	"errors"
	"fmt"
)

// Cache namespaces.
const (
	NamespaceIndices   = "indices"
	NamespaceSummaries = "summaries"
)

// ErrNotFound is returned by Read when no entry exists for the key.
var ErrNotFound = errors.New("cache entry not found")

// Store is a namespaced key/value store for cache entries.
type Store interface {
	// Exists reports whether an entry is stored under key.
	Exists(ctx context.Context, key string) (bool, error)
	// Read returns the entry for key, or an error wrapping ErrNotFound.
	Read(ctx context.Context, key string) ([]byte, error)
	// Write stores data under key, replacing any previous entry atomically.
	Write(ctx context.Context, key string, data []byte) error
	// Namespace returns the namespace this store writes to.
	Namespace() string
	Close() error
}

// CacheIOError reports a durable-storage failure.
type CacheIOError struct {
	Op        string
	Namespace string
	Key       string
	Err       error
}

func (e *CacheIOError) Error() string {
	return fmt.Sprintf("cache %s %s/%s: %v", e.Op, e.Namespace, e.Key, e.Err)
}

func (e *CacheIOError) Unwrap() error { return e.Err }

func ioError(op, namespace, key string, err error) error {
	return &CacheIOError{Op: op, Namespace: namespace, Key: key, Err: err}
}

func notFound(namespace, key string) error {
	return fmt.Errorf("%s/%s: %w", namespace, key, ErrNotFound)
}
