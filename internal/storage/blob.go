// Package storage holds the image blob stores. Keys are opaque file names
// generated by the lifecycles; content is never inspected.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Load for a key that was never saved.
var ErrNotFound = errors.New("blob not found")

type BlobStore interface {
	Save(ctx context.Context, key string, data []byte) error
	Load(ctx context.Context, key string) ([]byte, error)
	Ping(ctx context.Context) error
}
