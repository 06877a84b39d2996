package assets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"lyricreel/internal/logging"
)

func countFiles(t *testing.T, root string) int {
	t.Helper()
	count := 0
	err := filepath.WalkDir(root, func(_ string, d os.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if !d.IsDir() {
			count++
		}
		return nil
	})
	if err != nil {
		t.Fatalf("walk %s: %v", root, err)
	}
	return count
}

func newStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "run"), logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return store
}

func TestPublishAssignsIDsAndTimestampedNames(t *testing.T) {
	store := newStore(t)
	fixed := time.Date(2026, 3, 4, 5, 6, 7, 89, time.UTC)
	store.now = func() time.Time { return fixed }

	first, err := store.PublishString("song.json", `{"mode":"single"}`)
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if first.ID != 1 {
		t.Fatalf("first ID = %d, want 1", first.ID)
	}
	if first.RelPath != "song_20260304T050607000000089Z.json" {
		t.Fatalf("unexpected rel path %q", first.RelPath)
	}
	data, err := os.ReadFile(first.Path)
	if err != nil {
		t.Fatalf("read asset: %v", err)
	}
	if string(data) != `{"mode":"single"}` {
		t.Fatalf("unexpected content %q", data)
	}

	store.now = func() time.Time { return fixed.Add(time.Nanosecond) }
	second, err := store.Publish("fonts/cover.png", []byte{1, 2, 3})
	if err != nil {
		t.Fatalf("Publish nested: %v", err)
	}
	if second.ID != 2 {
		t.Fatalf("second ID = %d, want 2", second.ID)
	}
	if !strings.HasPrefix(second.RelPath, "fonts/cover_") || !strings.HasSuffix(second.RelPath, ".png") {
		t.Fatalf("unexpected nested rel path %q", second.RelPath)
	}
	if second.Path != filepath.Join(store.Root(), filepath.FromSlash(second.RelPath)) {
		t.Fatalf("path and rel path disagree: %q vs %q", second.Path, second.RelPath)
	}
}

func TestPublishRejectsEscapingNames(t *testing.T) {
	store := newStore(t)
	for _, name := range []string{"", "  ", "../evil.json", "/etc/passwd", "dir/", ".."} {
		if _, err := store.PublishString(name, "x"); !errors.Is(err, ErrAssetWrite) {
			t.Errorf("Publish(%q) error = %v, want ErrAssetWrite", name, err)
		}
	}
	if len(store.Assets()) != 0 {
		t.Fatal("rejected publishes must not be tracked")
	}
}

func TestPublishWriteFailure(t *testing.T) {
	store := newStore(t)
	blocker := filepath.Join(store.Root(), "blocked")
	if err := os.WriteFile(blocker, []byte("file"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := store.PublishString("blocked/song.json", "x"); !errors.Is(err, ErrAssetWrite) {
		t.Fatalf("expected ErrAssetWrite, got %v", err)
	}
}

func TestLookupReturnsLatest(t *testing.T) {
	store := newStore(t)
	var tick int64
	store.now = func() time.Time { tick++; return time.Unix(0, tick) }

	if _, err := store.PublishString("song.json", "old"); err != nil {
		t.Fatal(err)
	}
	latest, err := store.PublishString("song.json", "new")
	if err != nil {
		t.Fatal(err)
	}
	got, ok := store.Lookup("song.json")
	if !ok || got.ID != latest.ID {
		t.Fatalf("Lookup = %+v, %v; want ID %d", got, ok, latest.ID)
	}
	if _, ok := store.Lookup("missing.json"); ok {
		t.Fatal("expected miss for unknown name")
	}
}

func TestRemoveAllLeavesNoFiles(t *testing.T) {
	store := newStore(t)
	var tick int64
	store.now = func() time.Time { tick++; return time.Unix(0, tick) }

	const n = 7
	for i := 0; i < n; i++ {
		if _, err := store.PublishString(fmt.Sprintf("dir%d/asset.txt", i%2), "x"); err != nil {
			t.Fatalf("Publish %d: %v", i, err)
		}
	}
	if got := countFiles(t, store.Root()); got != n {
		t.Fatalf("expected %d files, got %d", n, got)
	}

	if removed := store.RemoveAll(); removed != n {
		t.Fatalf("RemoveAll = %d, want %d", removed, n)
	}
	if got := countFiles(t, store.Root()); got != 0 {
		t.Fatalf("expected 0 files after RemoveAll, got %d", got)
	}
	if removed := store.RemoveAll(); removed != 0 {
		t.Fatalf("second RemoveAll = %d, want 0", removed)
	}
	if len(store.Assets()) != 0 {
		t.Fatal("expected no tracked assets")
	}
}

func TestRemoveSingleAsset(t *testing.T) {
	store := newStore(t)
	var tick int64
	store.now = func() time.Time { tick++; return time.Unix(0, tick) }

	a, _ := store.PublishString("a.json", "a")
	b, _ := store.PublishString("b.json", "b")

	store.Remove(a.ID)
	store.Remove(a.ID)
	store.Remove(999)

	if _, err := os.Stat(a.Path); !os.IsNotExist(err) {
		t.Fatalf("expected %s removed", a.Path)
	}
	if _, err := os.Stat(b.Path); err != nil {
		t.Fatalf("expected %s kept: %v", b.Path, err)
	}
	assets := store.Assets()
	if len(assets) != 1 || assets[0].ID != b.ID {
		t.Fatalf("unexpected tracked assets %+v", assets)
	}
}

func TestRemoveToleratesMissingFiles(t *testing.T) {
	store := newStore(t)
	asset, err := store.PublishString("song.json", "x")
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(asset.Path); err != nil {
		t.Fatal(err)
	}
	if removed := store.RemoveAll(); removed != 1 {
		t.Fatalf("RemoveAll = %d, want 1", removed)
	}
}

func TestCloseRemovesCreatedDirectories(t *testing.T) {
	parent := t.TempDir()
	root := filepath.Join(parent, "run-1")
	store, err := New(root, logging.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.PublishString("nested/deeper/song.json", "x"); err != nil {
		t.Fatal(err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if _, err := os.Stat(root); !os.IsNotExist(err) {
		t.Fatalf("expected store root removed, stat err = %v", err)
	}
	if _, err := os.Stat(parent); err != nil {
		t.Fatalf("parent must survive: %v", err)
	}
}

func TestCloseKeepsPreexistingRoot(t *testing.T) {
	root := t.TempDir()
	store, err := New(root, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.PublishString("song.json", "x"); err != nil {
		t.Fatal(err)
	}
	_ = store.Close()
	if _, err := os.Stat(root); err != nil {
		t.Fatalf("pre-existing root should be kept: %v", err)
	}
	if got := countFiles(t, root); got != 0 {
		t.Fatalf("expected empty root, found %d files", got)
	}
}
