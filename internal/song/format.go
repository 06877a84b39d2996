package song

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	undefinedValue = "UNDEFINED"
	divider        = "========================="
	lyricsPreview  = 20
)

// String renders a human summary. Missing values print as UNDEFINED and
// lyrics are shortened to a short preview.
func (c *Config) String() string {
	if c == nil {
		return "This configuration is empty."
	}
	var b strings.Builder
	b.WriteString(divider + "\n")
	switch c.Mode {
	case ModePlaylist:
		b.WriteString("Mode: playlist\n")
		fmt.Fprintf(&b, "Title: %s\n", orUndefined(c.Title))
		fmt.Fprintf(&b, "Duration: %s\n", formatDuration(c.TotalDuration()))
		b.WriteString("Playlist:\n")
		if len(c.Playlist) == 0 {
			b.WriteString("    Playlist is empty.\n")
		}
		for i, s := range c.Playlist {
			fmt.Fprintf(&b, "    %2d) Title: %s\n", i+1, orUndefined(s.Title))
			fmt.Fprintf(&b, "        Artist: %s\n", orUndefined(s.Artist))
			fmt.Fprintf(&b, "        Album: %s\n", orUndefined(s.Album))
			fmt.Fprintf(&b, "        Duration: %s\n", formatDuration(s.Duration))
			fmt.Fprintf(&b, "        Lyrics: %s\n", shorten(orUndefined(s.Lyrics)))
		}
	default:
		s := c.Single
		b.WriteString("Mode: single\n")
		fmt.Fprintf(&b, "Title: %s\n", orUndefined(s.Title))
		fmt.Fprintf(&b, "Artist: %s\n", orUndefined(s.Artist))
		fmt.Fprintf(&b, "Album: %s\n", orUndefined(s.Album))
		fmt.Fprintf(&b, "Duration: %s\n", formatDuration(s.Duration))
		fmt.Fprintf(&b, "Lyrics: %s\n", shorten(orUndefined(s.Lyrics)))
	}
	b.WriteString(divider + "\n")
	return b.String()
}

func orUndefined(value string) string {
	if strings.TrimSpace(value) == "" {
		return undefinedValue
	}
	return value
}

func formatDuration(seconds float64) string {
	if seconds <= 0 {
		return undefinedValue
	}
	return strconv.FormatFloat(seconds, 'f', -1, 64)
}

// shorten flattens line breaks and truncates to the preview width.
func shorten(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) > lyricsPreview {
		return string(runes[:lyricsPreview-3]) + "..."
	}
	return text
}
