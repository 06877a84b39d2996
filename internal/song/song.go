package song

import (
	"errors"
	"fmt"
)

// Mode selects which variant of a Config is active.
type Mode string

const (
	ModeSingle   Mode = "single"
	ModePlaylist Mode = "playlist"
)

// ParseMode validates a mode string. An empty value means single.
func ParseMode(value string) (Mode, error) {
	switch Mode(value) {
	case "", ModeSingle:
		return ModeSingle, nil
	case ModePlaylist:
		return ModePlaylist, nil
	default:
		return "", fmt.Errorf("unknown mode %q (want %q or %q)", value, ModeSingle, ModePlaylist)
	}
}

// ErrIndex reports a playlist position outside the editable range.
var ErrIndex = errors.New("playlist index out of range")

// Song is one track: display metadata, its length, and its lyrics.
type Song struct {
	Title    string
	Artist   string
	Album    string
	Duration float64
	Lyrics   string
	// LyricsPath is the absolute file the lyrics were (or will be) read from.
	// It is never published to the page.
	LyricsPath string
}

// Config is a song configuration. Exactly one variant is active: Single when
// Mode is ModeSingle, Playlist when Mode is ModePlaylist.
type Config struct {
	Mode   Mode
	Single Song

	// Title and Duration describe the playlist as a whole. A positive
	// Duration overrides the sum of the entry durations.
	Title    string
	Duration float64
	Playlist []Song

	path string
}

// NewSingle returns a single-mode config for s.
func NewSingle(s Song) *Config {
	return &Config{Mode: ModeSingle, Single: s}
}

// NewPlaylist returns a playlist-mode config holding a copy of songs.
func NewPlaylist(title string, songs ...Song) *Config {
	return &Config{Mode: ModePlaylist, Title: title, Playlist: append([]Song(nil), songs...)}
}

// Path returns the file the config was loaded from or last saved to.
func (c *Config) Path() string {
	return c.path
}

// Len returns the number of songs reachable under the active variant.
func (c *Config) Len() int {
	if c.Mode == ModePlaylist {
		return len(c.Playlist)
	}
	return 1
}

// Entry returns the playlist entry at index i.
func (c *Config) Entry(i int) (Song, bool) {
	if i < 0 || i >= len(c.Playlist) {
		return Song{}, false
	}
	return c.Playlist[i], true
}

// SetEntry replaces the playlist entry at index i. An index equal to the
// current length appends a new entry.
func (c *Config) SetEntry(i int, s Song) error {
	if i < 0 || i > len(c.Playlist) {
		return fmt.Errorf("set entry %d of %d: %w", i, len(c.Playlist), ErrIndex)
	}
	if i == len(c.Playlist) {
		c.Playlist = append(c.Playlist, s)
		return nil
	}
	c.Playlist[i] = s
	return nil
}

// Songs returns the songs reachable under the active variant, in order.
func (c *Config) Songs() []Song {
	if c.Mode == ModePlaylist {
		return append([]Song(nil), c.Playlist...)
	}
	return []Song{c.Single}
}

// TotalDuration returns the render length in seconds. Playlists sum their
// entries unless a positive playlist-level duration is set.
func (c *Config) TotalDuration() float64 {
	if c.Mode != ModePlaylist {
		return c.Single.Duration
	}
	if c.Duration > 0 {
		return c.Duration
	}
	total := 0.0
	for _, s := range c.Playlist {
		if s.Duration > 0 {
			total += s.Duration
		}
	}
	return total
}
