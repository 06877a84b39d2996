package song

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"lyricreel/internal/fileutil"
)

// songFile is the on-disk shape of one song.
type songFile struct {
	Title      string  `json:"title,omitempty"`
	Artist     string  `json:"artist,omitempty"`
	Album      string  `json:"album,omitempty"`
	Duration   float64 `json:"duration,omitempty"`
	Lyrics     string  `json:"lyrics,omitempty"`
	LyricsPath string  `json:"lyrics_path,omitempty"`
}

// configFile is the on-disk shape of a configuration. Single mode keeps the
// song fields at the top level; playlist mode uses title and duration for the
// playlist and lists entries under "playlist".
type configFile struct {
	Mode string `json:"mode"`
	songFile
	Playlist []songFile `json:"playlist,omitempty"`
}

// publishedSong is the page-facing shape: lyrics inlined, no local paths.
type publishedSong struct {
	Title    string  `json:"title"`
	Artist   string  `json:"artist"`
	Album    string  `json:"album"`
	Duration float64 `json:"duration"`
	Lyrics   string  `json:"lyrics"`
}

type publishedSingle struct {
	Mode Mode `json:"mode"`
	publishedSong
}

type publishedPlaylist struct {
	Mode     Mode            `json:"mode"`
	Title    string          `json:"title"`
	Duration float64         `json:"duration"`
	Playlist []publishedSong `json:"playlist"`
}

// Load reads a configuration file. A relative lyrics_path resolves against
// the directory of path; inline lyrics win over lyrics_path. The result is
// not validated.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read song config: %w", err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve song config path: %w", err)
	}
	cfg, err := Parse(data, filepath.Dir(abs))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cfg.path = abs
	return cfg, nil
}

// Parse decodes configuration JSON. baseDir anchors relative lyrics paths.
func Parse(data []byte, baseDir string) (*Config, error) {
	var raw configFile
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: parse: %v", ErrInvalid, err)
	}
	mode, err := ParseMode(strings.TrimSpace(raw.Mode))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	cfg := &Config{Mode: mode}
	switch mode {
	case ModeSingle:
		s, err := raw.songFile.toSong(baseDir)
		if err != nil {
			return nil, err
		}
		cfg.Single = s
	case ModePlaylist:
		cfg.Title = raw.Title
		cfg.Duration = raw.Duration
		cfg.Playlist = make([]Song, 0, len(raw.Playlist))
		for i, entry := range raw.Playlist {
			s, err := entry.toSong(baseDir)
			if err != nil {
				return nil, fmt.Errorf("playlist[%d]: %w", i, err)
			}
			cfg.Playlist = append(cfg.Playlist, s)
		}
	}
	return cfg, nil
}

func (f songFile) toSong(baseDir string) (Song, error) {
	s := Song{
		Title:    f.Title,
		Artist:   f.Artist,
		Album:    f.Album,
		Duration: f.Duration,
		Lyrics:   f.Lyrics,
	}
	lyricsPath := strings.TrimSpace(f.LyricsPath)
	if lyricsPath == "" {
		return s, nil
	}
	if !filepath.IsAbs(lyricsPath) {
		lyricsPath = filepath.Join(baseDir, lyricsPath)
	}
	s.LyricsPath = filepath.Clean(lyricsPath)
	if s.Lyrics != "" {
		return s, nil
	}
	text, err := os.ReadFile(s.LyricsPath)
	if err != nil {
		return Song{}, fmt.Errorf("%w: lyrics_path: %v", ErrInvalid, err)
	}
	s.Lyrics = string(text)
	return s, nil
}

func fromSong(s Song) songFile {
	f := songFile{
		Title:    s.Title,
		Artist:   s.Artist,
		Album:    s.Album,
		Duration: s.Duration,
		Lyrics:   s.Lyrics,
	}
	if f.Lyrics == "" {
		f.LyricsPath = s.LyricsPath
	}
	return f
}

// MarshalJSON encodes the configuration in its file format. Lyrics already in
// memory are written inline; lyrics_path is kept only for unread lyrics.
func (c *Config) MarshalJSON() ([]byte, error) {
	raw := configFile{Mode: string(c.Mode)}
	switch c.Mode {
	case ModePlaylist:
		raw.Title = c.Title
		raw.Duration = c.Duration
		raw.Playlist = make([]songFile, 0, len(c.Playlist))
		for _, s := range c.Playlist {
			raw.Playlist = append(raw.Playlist, fromSong(s))
		}
	default:
		raw.Mode = string(ModeSingle)
		raw.songFile = fromSong(c.Single)
	}
	return json.MarshalIndent(raw, "", "    ")
}

// Save writes the configuration to path, reporting an existing file that is
// replaced and creating missing parent directories.
func (c *Config) Save(path string, logger *slog.Logger) error {
	if _, err := fileutil.PrepareWrite(path, logger); err != nil {
		return fmt.Errorf("save song config: %w", err)
	}
	data, err := c.MarshalJSON()
	if err != nil {
		return fmt.Errorf("encode song config: %w", err)
	}
	if err := fileutil.WriteFileAtomic(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("save song config: %w", err)
	}
	if abs, err := filepath.Abs(path); err == nil {
		c.path = abs
	}
	return nil
}

// PublishJSON returns the document the lyric page fetches during setup. It
// carries the mode, the active variant with lyrics inlined, and never a local
// path.
func (c *Config) PublishJSON() ([]byte, error) {
	switch c.Mode {
	case ModePlaylist:
		doc := publishedPlaylist{
			Mode:     ModePlaylist,
			Title:    c.Title,
			Duration: c.TotalDuration(),
			Playlist: make([]publishedSong, 0, len(c.Playlist)),
		}
		for _, s := range c.Playlist {
			doc.Playlist = append(doc.Playlist, publish(s))
		}
		return json.Marshal(doc)
	default:
		return json.Marshal(publishedSingle{Mode: ModeSingle, publishedSong: publish(c.Single)})
	}
}

func publish(s Song) publishedSong {
	return publishedSong{
		Title:    s.Title,
		Artist:   s.Artist,
		Album:    s.Album,
		Duration: s.Duration,
		Lyrics:   s.Lyrics,
	}
}
