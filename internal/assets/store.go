package assets

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"lyricreel/internal/fileutil"
	"lyricreel/internal/logging"
)

// ErrAssetWrite reports a failure to write a published asset.
var ErrAssetWrite = errors.New("asset write failed")

// Asset is one published file.
type Asset struct {
	ID int64
	// Name is the logical name the asset was published under.
	Name string
	// Path is the absolute file path.
	Path string
	// RelPath is slash-separated and relative to the store root.
	RelPath   string
	Size      int64
	CreatedAt time.Time
}

// Store tracks published assets under a root directory.
type Store struct {
	root   string
	logger *slog.Logger
	now    func() time.Time

	mu      sync.Mutex
	nextID  int64
	assets  []Asset
	dirs    map[string]struct{}
	ownRoot bool

	closeOnce sync.Once
}

// New creates the root directory if needed and returns an empty store.
func New(root string, logger *slog.Logger) (*Store, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, fmt.Errorf("%w: empty asset root", ErrAssetWrite)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("%w: resolve asset root: %v", ErrAssetWrite, err)
	}
	_, statErr := os.Stat(abs)
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create asset root: %v", ErrAssetWrite, err)
	}
	return &Store{
		root:    abs,
		logger:  logging.NewComponentLogger(logger, "assets"),
		now:     time.Now,
		nextID:  1,
		dirs:    make(map[string]struct{}),
		ownRoot: errors.Is(statErr, fs.ErrNotExist),
	}, nil
}

// Root returns the absolute store directory.
func (s *Store) Root() string {
	return s.root
}

// PublishString publishes text content under name.
func (s *Store) PublishString(name, text string) (Asset, error) {
	return s.Publish(name, []byte(text))
}

// Publish writes content to a uniquely named file derived from name
// (<stem>_<UTC timestamp><ext>) and starts tracking it.
func (s *Store) Publish(name string, content []byte) (Asset, error) {
	rel, err := cleanName(name)
	if err != nil {
		return Asset{}, fmt.Errorf("%w: %v", ErrAssetWrite, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	created := s.now().UTC()
	dir, base := path.Split(rel)
	ext := path.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	relPath := dir + stem + "_" + timestamp(created) + ext
	target := filepath.Join(s.root, filepath.FromSlash(relPath))

	if dir != "" {
		s.trackDirs(dir)
	}
	if _, err := fileutil.PrepareWrite(target, s.logger); err != nil {
		return Asset{}, fmt.Errorf("%w: %v", ErrAssetWrite, err)
	}
	if err := os.WriteFile(target, content, 0o644); err != nil {
		return Asset{}, fmt.Errorf("%w: %s: %v", ErrAssetWrite, target, err)
	}

	asset := Asset{
		ID:        s.nextID,
		Name:      name,
		Path:      target,
		RelPath:   relPath,
		Size:      int64(len(content)),
		CreatedAt: created,
	}
	s.nextID++
	s.assets = append(s.assets, asset)
	s.logger.Debug("asset published",
		logging.Int64("asset_id", asset.ID),
		logging.String("name", name),
		logging.String("path", target),
		logging.Int64("bytes", asset.Size),
	)
	return asset, nil
}

// Lookup returns the most recently published asset with the given name.
func (s *Store) Lookup(name string) (Asset, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.assets) - 1; i >= 0; i-- {
		if s.assets[i].Name == name {
			return s.assets[i], true
		}
	}
	return Asset{}, false
}

// Assets returns a snapshot of tracked assets in publish order.
func (s *Store) Assets() []Asset {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Asset(nil), s.assets...)
}

// Remove deletes the asset's file and forgets it. Unknown IDs are ignored and
// filesystem errors are logged, not returned.
func (s *Store) Remove(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, asset := range s.assets {
		if asset.ID != id {
			continue
		}
		s.assets = append(s.assets[:i], s.assets[i+1:]...)
		s.removeFile(asset)
		return
	}
}

// RemoveAll deletes every tracked asset and returns how many were dropped.
func (s *Store) RemoveAll() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	dropped := s.assets
	s.assets = nil
	for _, asset := range dropped {
		s.removeFile(asset)
	}
	return len(dropped)
}

// Close removes every tracked asset and the directories the store created.
// Only the first call does any work.
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		removed := s.RemoveAll()
		s.mu.Lock()
		s.pruneDirs()
		s.mu.Unlock()
		s.logger.Debug("asset store closed", logging.Int("removed", removed), logging.String("root", s.root))
	})
	return nil
}

func (s *Store) removeFile(asset Asset) {
	err := os.Remove(asset.Path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return
	}
	s.logger.Warn("failed to remove asset",
		logging.Int64("asset_id", asset.ID),
		logging.String("path", asset.Path),
		logging.Error(err),
		logging.String(logging.FieldEventType, "asset_cleanup_failed"),
		logging.String(logging.FieldErrorHint, "check asset_dir permissions"),
		logging.String(logging.FieldImpact, "stale asset left on disk"),
	)
}

// trackDirs records every directory level of dir (slash-separated, relative).
func (s *Store) trackDirs(dir string) {
	dir = strings.TrimSuffix(dir, "/")
	for dir != "" && dir != "." {
		s.dirs[filepath.Join(s.root, filepath.FromSlash(dir))] = struct{}{}
		dir = path.Dir(dir)
	}
}

// pruneDirs removes empty tracked directories deepest first, then the root
// if the store created it. Non-empty directories are left alone.
func (s *Store) pruneDirs() {
	dirs := make([]string, 0, len(s.dirs)+1)
	for dir := range s.dirs {
		dirs = append(dirs, dir)
	}
	sort.Slice(dirs, func(i, j int) bool { return len(dirs[i]) > len(dirs[j]) })
	if s.ownRoot {
		dirs = append(dirs, s.root)
	}
	for _, dir := range dirs {
		_ = os.Remove(dir)
	}
	s.dirs = make(map[string]struct{})
}

func cleanName(name string) (string, error) {
	name = strings.TrimSpace(strings.ReplaceAll(name, "\\", "/"))
	if name == "" {
		return "", errors.New("empty asset name")
	}
	if strings.HasPrefix(name, "/") {
		return "", fmt.Errorf("asset name %q must be relative", name)
	}
	cleaned := path.Clean(name)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("asset name %q escapes the store root", name)
	}
	if strings.HasSuffix(name, "/") {
		return "", fmt.Errorf("asset name %q has no file component", name)
	}
	return cleaned, nil
}

func timestamp(t time.Time) string {
	return t.Format("20060102T150405") + fmt.Sprintf("%09dZ", t.Nanosecond())
}
