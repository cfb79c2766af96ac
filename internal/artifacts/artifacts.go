package artifacts

import (
	"context"
	"io"
)

// Storage defines the interface for build artifact storage operations.
type Storage interface {
	// Save stores an artifact for a given build
	Save(ctx context.Context, build string, name string, data io.Reader) error

	// Get retrieves an artifact
	Get(ctx context.Context, build string, name string) (io.ReadCloser, error)

	// List lists all artifacts of a build
	List(ctx context.Context, build string) ([]string, error)
}
