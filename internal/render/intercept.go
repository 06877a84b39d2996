package render

import (
	"errors"
	"mime"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

var errNotMounted = errors.New("no mount serves path")

// resolver maps request paths onto files below the configured mounts.
type resolver struct {
	mounts []Mount
}

func newResolver(mounts []Mount) resolver {
	normalized := make([]Mount, 0, len(mounts))
	for _, m := range mounts {
		dir := strings.TrimSpace(m.Dir)
		if dir == "" {
			continue
		}
		prefix := "/" + strings.Trim(strings.TrimSpace(m.Prefix), "/")
		if prefix != "/" {
			prefix += "/"
		}
		normalized = append(normalized, Mount{Prefix: prefix, Dir: filepath.Clean(dir)})
	}
	sort.SliceStable(normalized, func(i, j int) bool {
		return len(normalized[i].Prefix) > len(normalized[j].Prefix)
	})
	return resolver{mounts: normalized}
}

// resolve returns the local file for urlPath. The longest matching prefix
// wins. Paths escaping the mount directory are rejected.
func (r resolver) resolve(urlPath string) (string, error) {
	if strings.Contains(urlPath, "\x00") {
		return "", errNotMounted
	}
	for _, segment := range strings.Split(urlPath, "/") {
		if segment == ".." {
			return "", errNotMounted
		}
	}
	clean := path.Clean("/" + urlPath)
	for _, m := range r.mounts {
		if !strings.HasPrefix(clean+"/", m.Prefix) {
			continue
		}
		rel := strings.TrimPrefix(clean, strings.TrimSuffix(m.Prefix, "/"))
		rel = strings.TrimPrefix(rel, "/")
		if rel == "" {
			return "", errNotMounted
		}
		candidate := filepath.Join(m.Dir, filepath.FromSlash(rel))
		within, err := filepath.Rel(m.Dir, candidate)
		if err != nil || within == ".." || strings.HasPrefix(within, ".."+string(filepath.Separator)) {
			return "", errNotMounted
		}
		info, err := os.Stat(candidate)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		return candidate, nil
	}
	return "", errNotMounted
}

// contentType picks the response type for a served file.
func contentType(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	switch ext {
	case ".js", ".mjs":
		return "application/javascript"
	case ".json":
		return "application/json"
	case ".lrc":
		return "text/plain; charset=utf-8"
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	return "application/octet-stream"
}
