package song

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"lyricreel/internal/media/ffprobe"
	"lyricreel/internal/textutil"
)

var audioExtensions = map[string]struct{}{
	".mp3":  {},
	".flac": {},
	".m4a":  {},
	".aac":  {},
	".ogg":  {},
	".opus": {},
	".wav":  {},
	".wma":  {},
}

var inspectAudio = ffprobe.Inspect

// IsAudioFile reports whether path has a recognised audio extension.
func IsAudioFile(path string) bool {
	_, ok := audioExtensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

// ExpandAudioPaths turns files and folders into a list of audio files. Folders
// are walked recursively and their audio files sorted by path; explicit files
// are kept in argument order whatever their extension.
func ExpandAudioPaths(paths []string) ([]string, error) {
	var out []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("song source %s: %w", p, err)
		}
		if !info.IsDir() {
			out = append(out, p)
			continue
		}
		var found []string
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && IsAudioFile(path) {
				found = append(found, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", p, err)
		}
		sort.Strings(found)
		out = append(out, found...)
	}
	return out, nil
}

// FromAudio builds a Song from an audio file. Title, artist, and album come
// from metadata tags (title falls back to the file name) and duration from the
// container. A sibling .lrc file becomes the lyrics path.
func FromAudio(ctx context.Context, ffprobeBinary, path string) (Song, error) {
	result, err := inspectAudio(ctx, ffprobeBinary, path)
	if err != nil {
		return Song{}, err
	}
	if result.AudioStreamCount() == 0 {
		return Song{}, fmt.Errorf("%s: no audio stream", path)
	}

	s := Song{
		Title:  result.Tag("title"),
		Artist: result.Tag("artist"),
		Album:  result.Tag("album"),
	}
	if s.Title == "" {
		s.Title = textutil.TitleFromFileName(path)
	}
	if s.Artist == "" {
		s.Artist = result.Tag("album_artist")
	}
	if d := result.DurationSeconds(); d > 0 && !math.IsNaN(d) {
		s.Duration = d
	}

	lrc := strings.TrimSuffix(path, filepath.Ext(path)) + ".lrc"
	if info, err := os.Stat(lrc); err == nil && !info.IsDir() {
		if abs, err := filepath.Abs(lrc); err == nil {
			s.LyricsPath = abs
		} else {
			s.LyricsPath = lrc
		}
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Song{}, fmt.Errorf("stat lyrics %s: %w", lrc, err)
	}
	return s, nil
}
