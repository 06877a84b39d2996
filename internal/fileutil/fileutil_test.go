package fileutil

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestPrepareWriteCreatesParents(t *testing.T) {
	target := filepath.Join(t.TempDir(), "a", "b", "out.mp4")
	existed, err := PrepareWrite(target, nil)
	if err != nil {
		t.Fatalf("PrepareWrite: %v", err)
	}
	if existed {
		t.Fatal("expected no existing file")
	}
	if info, err := os.Stat(filepath.Dir(target)); err != nil || !info.IsDir() {
		t.Fatalf("expected parent directory to exist: %v", err)
	}
}

func TestPrepareWriteReportsOverwrite(t *testing.T) {
	target := filepath.Join(t.TempDir(), "out.mp4")
	if err := os.WriteFile(target, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	existed, err := PrepareWrite(target, logger)
	if err != nil {
		t.Fatalf("PrepareWrite: %v", err)
	}
	if !existed {
		t.Fatal("expected existing file to be reported")
	}
	if !strings.Contains(buf.String(), "overwriting existing file") {
		t.Fatalf("expected overwrite log, got %q", buf.String())
	}
}

func TestPrepareWriteRejectsDirectory(t *testing.T) {
	_, err := PrepareWrite(t.TempDir(), nil)
	if !errors.Is(err, ErrIsDirectory) {
		t.Fatalf("expected ErrIsDirectory, got %v", err)
	}
	if _, err := PrepareWrite("", nil); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "song.json")
	if err := os.WriteFile(target, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := WriteFileAtomic(target, []byte("new"), 0o600); err != nil {
		t.Fatalf("WriteFileAtomic: %v", err)
	}
	got, err := os.ReadFile(target)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "new" {
		t.Fatalf("content = %q, want new", got)
	}
	info, err := os.Stat(target)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("mode = %v, want 0600", info.Mode().Perm())
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected temp file cleanup, found %d entries", len(entries))
	}
}
