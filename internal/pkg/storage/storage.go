package storage

import (
	"context"
	"errors"
	"io"
)

var (
	ErrFileNotFound = errors.New("file not found")
	ErrInvalidPath  = errors.New("invalid file path")
)

// FileStorage keeps binary objects addressed by a slash separated key.
type FileStorage interface {
	// Upload stores the content under key and returns the cleaned key
	Upload(ctx context.Context, file io.Reader, key string) (string, error)

	// Download retrieves a stored object
	Download(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes an object; a missing object is not an error
	Delete(ctx context.Context, key string) error

	// Exists checks if an object is stored under key
	Exists(ctx context.Context, key string) (bool, error)
}
