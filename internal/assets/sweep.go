package assets

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"lyricreel/internal/logging"
)

// SweepResult contains the outcome of a stale run directory sweep.
type SweepResult struct {
	Removed []string
	Errors  []SweepError
}

// SweepError pairs a directory path with its cleanup error.
type SweepError struct {
	Path  string
	Error error
}

// Sweep removes run directories under dir whose modification time is older
// than maxAge. Only directories named by a run id are considered; anything
// else under dir belongs to someone else and is left alone. A render's own
// store removes its files on every exit path; a sweep catches runs that were
// killed outright.
func Sweep(dir string, maxAge time.Duration, logger *slog.Logger) SweepResult {
	result := SweepResult{}

	dir = strings.TrimSpace(dir)
	if dir == "" {
		return result
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if !os.IsNotExist(err) {
			result.Errors = append(result.Errors, SweepError{Path: dir, Error: err})
		}
		return result
	}

	cutoff := time.Now().Add(-maxAge)
	for _, entry := range entries {
		if !isRunDir(entry) {
			continue
		}
		dirPath := filepath.Join(dir, entry.Name())
		info, err := entry.Info()
		if err != nil {
			result.Errors = append(result.Errors, SweepError{Path: dirPath, Error: err})
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.RemoveAll(dirPath); err != nil {
			result.Errors = append(result.Errors, SweepError{Path: dirPath, Error: err})
			if logger != nil {
				logger.Warn("failed to remove stale asset directory",
					logging.String("path", dirPath),
					logging.Error(err),
					logging.String(logging.FieldEventType, "asset_sweep_failed"),
					logging.String(logging.FieldErrorHint, "check asset_dir permissions"),
					logging.String(logging.FieldImpact, "disk space not reclaimed"),
				)
			}
			continue
		}
		result.Removed = append(result.Removed, dirPath)
		if logger != nil {
			logger.Info("removed stale asset directory",
				logging.String("path", dirPath),
				logging.Duration("age", time.Since(info.ModTime())),
				logging.String(logging.FieldEventType, "asset_sweep"),
			)
		}
	}
	return result
}

func isRunDir(entry os.DirEntry) bool {
	if !entry.IsDir() {
		return false
	}
	_, err := uuid.Parse(entry.Name())
	return err == nil
}
