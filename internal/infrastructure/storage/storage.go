package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

// FileStorage stores image payloads on the local file system, one file per
// image ID under the configured base directory.
type FileStorage struct {
	baseDir string
	logger  *zap.Logger
}

// NewFileStorage creates the base directory if needed and returns a store
func NewFileStorage(baseDir string, logger *zap.Logger) (*FileStorage, error) {
	if err := os.MkdirAll(baseDir, 0o750); err != nil {
		return nil, fmt.Errorf("error creating storage directory: %w", err)
	}
	return &FileStorage{baseDir: baseDir, logger: logger}, nil
}

// Save writes the payload for the given image ID and returns the byte count
func (s *FileStorage) Save(id ulid.ULID, r io.Reader) (int64, error) {
	path := s.path(id)

	f, err := os.Create(path)
	if err != nil {
		s.logger.Error("failed to create image file", zap.String("path", path), zap.Error(err))
		return 0, err
	}

	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		// do not leave partial files behind
		os.Remove(path)
		s.logger.Error("failed to write image file", zap.String("path", path), zap.Error(err))
		return 0, err
	}

	return n, nil
}

// Open returns a reader over the payload for the given image ID
func (s *FileStorage) Open(id ulid.ULID) (io.ReadCloser, error) {
	return os.Open(s.path(id))
}

// Remove deletes the payload for the given image ID
func (s *FileStorage) Remove(id ulid.ULID) error {
	return os.Remove(s.path(id))
}

func (s *FileStorage) path(id ulid.ULID) string {
	return filepath.Join(s.baseDir, id.String())
}
