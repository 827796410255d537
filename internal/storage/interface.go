package storage

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// ErrNotFound is returned when the named object does not exist
var ErrNotFound = errors.New("object not found")

// ObjectInfo describes a stored object without reading it
type ObjectInfo struct {
	Name    string
	Size    int64
	ModTime time.Time
}

// StorageInterface defines the contract for storage operations.
// Store replaces the whole object: readers see either the old or the new content.
type StorageInterface interface {
	Store(ctx context.Context, name string, data []byte) error
	Retrieve(ctx context.Context, name string) ([]byte, error)
	Stat(ctx context.Context, name string) (ObjectInfo, error)
	List(ctx context.Context, prefix string) ([]string, error)
	Delete(ctx context.Context, name string) error
}
