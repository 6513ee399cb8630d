// Package storage fetches attachment objects. Two backends: S3 for
// production, a local directory for development and tests.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned when the requested object does not exist.
var ErrNotFound = errors.New("object not found")

// Downloader fetches an object's full contents by key.
type Downloader interface {
	Download(ctx context.Context, key string) ([]byte, error)
}
