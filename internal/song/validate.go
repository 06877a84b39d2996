package song

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrInvalid marks a configuration that cannot be rendered.
var ErrInvalid = errors.New("invalid song configuration")

// Problem names one missing or malformed field. Entry is the 0-based
// playlist position, or -1 for single mode and playlist-level fields.
type Problem struct {
	Entry  int
	Field  string
	Reason string
}

func (p Problem) String() string {
	if p.Entry < 0 {
		return fmt.Sprintf("%s %s", p.Field, p.Reason)
	}
	return fmt.Sprintf("playlist[%d].%s %s", p.Entry, p.Field, p.Reason)
}

// ValidationError lists every problem found by Validate. It matches ErrInvalid.
type ValidationError struct {
	Problems []Problem
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		parts = append(parts, p.String())
	}
	return ErrInvalid.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalid
}

// Validate reports whether every required field is present on every entry
// reachable under the active mode.
func (c *Config) Validate() error {
	if c == nil {
		return &ValidationError{Problems: []Problem{{Entry: -1, Field: "config", Reason: "is empty"}}}
	}
	var problems []Problem
	switch c.Mode {
	case ModeSingle:
		problems = validateSong(problems, -1, c.Single)
	case ModePlaylist:
		if len(c.Playlist) == 0 {
			problems = append(problems, Problem{Entry: -1, Field: "playlist", Reason: "is empty"})
		}
		for i, s := range c.Playlist {
			problems = validateSong(problems, i, s)
		}
		if c.Duration < 0 || math.IsNaN(c.Duration) || math.IsInf(c.Duration, 0) {
			problems = append(problems, Problem{Entry: -1, Field: "duration", Reason: "must be positive when set"})
		}
	default:
		problems = append(problems, Problem{Entry: -1, Field: "mode", Reason: fmt.Sprintf("%q is not supported", c.Mode)})
	}
	if len(problems) == 0 {
		return nil
	}
	return &ValidationError{Problems: problems}
}

// Valid is shorthand for Validate() == nil.
func (c *Config) Valid() bool {
	return c.Validate() == nil
}

func validateSong(problems []Problem, entry int, s Song) []Problem {
	missing := func(field string) {
		problems = append(problems, Problem{Entry: entry, Field: field, Reason: "is required"})
	}
	if strings.TrimSpace(s.Title) == "" {
		missing("title")
	}
	if strings.TrimSpace(s.Artist) == "" {
		missing("artist")
	}
	if strings.TrimSpace(s.Album) == "" {
		missing("album")
	}
	if s.Duration <= 0 || math.IsNaN(s.Duration) || math.IsInf(s.Duration, 0) {
		problems = append(problems, Problem{Entry: entry, Field: "duration", Reason: "must be a positive number of seconds"})
	}
	if strings.TrimSpace(s.Lyrics) == "" {
		missing("lyrics")
	}
	return problems
}
