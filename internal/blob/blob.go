// Package blob stores binary objects such as equipment photos, either on
// the local filesystem or in an S3-compatible bucket.
package blob

import (
	"context"
	"errors"
)

// ErrNotExist is returned when a key has no stored object.
var ErrNotExist = errors.New("blob does not exist")

// Storage puts and fetches objects by key.
type Storage interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}
