package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteText writes content to path, creating parent directories.
func WriteText(t testing.TB, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// WriteScript writes an executable /bin/sh script named name into dir and
// returns its path.
func WriteScript(t testing.TB, dir, name, body string) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("write script %s: %v", name, err)
	}
	return path
}

// WriteSongConfig writes a valid single-mode song configuration and returns
// its path. Duration is in seconds.
func WriteSongConfig(t testing.TB, dir string, duration float64) string {
	t.Helper()
	path := filepath.Join(dir, "song.json")
	WriteText(t, path, `{
    "mode": "single",
    "title": "Test Song",
    "artist": "Test Artist",
    "album": "Test Album",
    "duration": `+formatFloat(duration)+`,
    "lyrics": "[00:00.00] first line\n[00:01.00] second line"
}
`)
	return path
}
