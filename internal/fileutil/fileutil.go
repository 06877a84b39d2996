package fileutil

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"lyricreel/internal/logging"
)

// ErrIsDirectory reports a write target that names an existing directory.
var ErrIsDirectory = errors.New("path is a directory")

// PrepareWrite readies path for writing: it rejects directories, reports an
// existing file that is about to be replaced, and creates missing parents.
// It returns true when a file already existed at path.
func PrepareWrite(path string, logger *slog.Logger) (bool, error) {
	if path == "" {
		return false, errors.New("prepare write: empty path")
	}
	existed := false
	info, err := os.Stat(path)
	switch {
	case err == nil:
		if info.IsDir() {
			return false, fmt.Errorf("prepare write %s: %w", path, ErrIsDirectory)
		}
		existed = true
		if logger != nil {
			logger.Info("overwriting existing file", logging.String("path", path))
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return false, fmt.Errorf("prepare write %s: %w", path, err)
	}

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return existed, fmt.Errorf("create parent directory %s: %w", dir, err)
		}
	}
	return existed, nil
}

// WriteFileAtomic writes data to a temp file beside path and renames it into
// place so readers never observe a partial file.
func WriteFileAtomic(path string, data []byte, mode os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Chmod(mode); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return err
	}
	return nil
}
