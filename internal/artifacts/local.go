package artifacts

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/afero"
)

// FSStorage implements Storage on top of an afero filesystem.
type FSStorage struct {
	fs       afero.Fs
	basePath string
}

// NewStorage creates a Storage rooted at basePath inside fs.
func NewStorage(fs afero.Fs, basePath string) *FSStorage {
	return &FSStorage{fs: fs, basePath: basePath}
}

// NewLocalStorage creates a Storage on the local filesystem.
func NewLocalStorage(basePath string) *FSStorage {
	return NewStorage(afero.NewOsFs(), basePath)
}

// Save writes an artifact to {basePath}/{build}/{name}.
func (s *FSStorage) Save(ctx context.Context, build string, name string, data io.Reader) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir := filepath.Join(s.basePath, filepath.Base(build))
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create artifact directory: %w", err)
	}

	// Only the base name is kept so artifacts cannot escape the build dir.
	file, err := s.fs.Create(filepath.Join(dir, filepath.Base(name)))
	if err != nil {
		return fmt.Errorf("failed to create artifact file: %w", err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close artifact file: %w", cerr)
		}
	}()

	if _, err := io.Copy(file, data); err != nil {
		return fmt.Errorf("failed to write artifact data: %w", err)
	}
	return nil
}

// Get opens a stored artifact.
func (s *FSStorage) Get(ctx context.Context, build string, name string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	file, err := s.fs.Open(filepath.Join(s.basePath, filepath.Base(build), filepath.Base(name)))
	if err != nil {
		return nil, fmt.Errorf("failed to open artifact file: %w", err)
	}
	return file, nil
}

// List returns the artifact names of a build, sorted.
func (s *FSStorage) List(ctx context.Context, build string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dir := filepath.Join(s.basePath, filepath.Base(build))

	entries, err := afero.ReadDir(s.fs, dir)
	if os.IsNotExist(err) {
		return []string{}, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to read artifact directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
