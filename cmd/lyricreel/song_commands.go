package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"lyricreel/internal/logging"
	"lyricreel/internal/services"
	"lyricreel/internal/song"
)

func newSongCommand(ctx *commandContext) *cobra.Command {
	songCmd := &cobra.Command{
		Use:   "song",
		Short: "Read, write, and validate song configurations",
	}

	songCmd.AddCommand(newSongReadCommand())
	songCmd.AddCommand(newSongValidateCommand())
	songCmd.AddCommand(newSongWriteCommand(ctx))

	return songCmd
}

func newSongReadCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "read <song-config>",
		Short:       "Print a song configuration",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := song.Load(args[0])
			if err != nil {
				return services.Wrap(services.ErrValidation, "song", "read", "", err)
			}
			fmt.Fprint(cmd.OutOrStdout(), cfg.String())
			return nil
		},
	}
}

func newSongValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "validate <song-config>",
		Short:       "Check a song configuration without rendering it",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := song.Load(args[0])
			if err != nil {
				return services.Wrap(services.ErrValidation, "song", "validate", "", err)
			}
			if err := cfg.Validate(); err != nil {
				return services.Wrap(services.ErrValidation, "song", "validate", "", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Song configuration: %s\n", cfg.Path())
			fmt.Fprintf(out, "Mode: %s, songs: %d, duration: %.2fs\n", cfg.Mode, cfg.Len(), cfg.TotalDuration())
			fmt.Fprintln(out, "Song configuration valid")
			return nil
		},
	}
}

type songEdit struct {
	mode       string
	songs      []string
	index      int
	title      string
	artist     string
	album      string
	duration   float64
	lyricsFile string
}

func newSongWriteCommand(ctx *commandContext) *cobra.Command {
	var edit songEdit

	cmd := &cobra.Command{
		Use:   "write <song-config>",
		Short: "Create or update a song configuration",
		Long: `Create or update a song configuration.

A new file needs --mode. --song accepts audio files or folders of audio files;
tags and duration are read with ffprobe and a sibling .lrc file becomes the
lyrics path. Single mode keeps only the first song found.

In playlist mode --index selects the entry to edit (starting at 0; the current
length appends). Without --index, --title and --duration set the playlist
title and duration and --song appends every song found.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			edit.index = -1
			if cmd.Flags().Changed("index") {
				edit.index, _ = cmd.Flags().GetInt("index")
				if edit.index < 0 {
					return services.Wrap(services.ErrValidation, "song", "write", "--index must not be negative", nil)
				}
			}

			path := args[0]
			doc, err := loadOrCreateSong(path, edit.mode)
			if err != nil {
				return err
			}
			if err := edit.applyMode(doc); err != nil {
				return err
			}
			var found []song.Song
			if len(edit.songs) > 0 {
				found, err = songsFromAudio(cmd, cfg.FFprobeBinary(), edit.songs, logger)
				if err != nil {
					return err
				}
			}
			if err := edit.apply(cmd, doc, found, logger); err != nil {
				return err
			}
			if err := doc.Save(path, logger); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote song configuration to %s\n", doc.Path())
			fmt.Fprint(out, doc.String())
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&edit.mode, "mode", "m", "", "Configuration mode: single or playlist (required for a new file)")
	flags.StringArrayVarP(&edit.songs, "song", "s", nil, "Audio files or folders to read song details from")
	flags.IntP("index", "i", 0, "Playlist entry to edit; required for per-song fields in playlist mode")
	flags.StringVarP(&edit.title, "title", "t", "", "Song title, or playlist title without --index")
	flags.StringVarP(&edit.artist, "artist", "a", "", "Song artist")
	flags.StringVar(&edit.album, "album", "", "Song album")
	flags.Float64VarP(&edit.duration, "duration", "d", 0, "Duration in seconds")
	flags.StringVarP(&edit.lyricsFile, "lyrics-file", "l", "", "File containing the song lyrics")
	return cmd
}

func loadOrCreateSong(path, mode string) (*song.Config, error) {
	doc, err := song.Load(path)
	if err == nil {
		return doc, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, services.Wrap(services.ErrValidation, "song", "write", "", err)
	}
	if strings.TrimSpace(mode) == "" {
		return nil, services.Wrap(services.ErrValidation, "song", "write", "--mode is required when creating "+path, nil)
	}
	parsed, err := song.ParseMode(mode)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "song", "write", "", err)
	}
	if parsed == song.ModePlaylist {
		return song.NewPlaylist(""), nil
	}
	return song.NewSingle(song.Song{}), nil
}

// applyMode switches doc to the requested mode. A single song becomes the
// first playlist entry and the first playlist entry becomes the single song.
func (e songEdit) applyMode(doc *song.Config) error {
	if strings.TrimSpace(e.mode) == "" {
		return nil
	}
	mode, err := song.ParseMode(e.mode)
	if err != nil {
		return services.Wrap(services.ErrValidation, "song", "write", "", err)
	}
	switch {
	case mode == doc.Mode:
	case mode == song.ModePlaylist:
		var entries []song.Song
		if doc.Single != (song.Song{}) {
			entries = append(entries, doc.Single)
		}
		*doc = *song.NewPlaylist("", entries...)
	default:
		var first song.Song
		if len(doc.Playlist) > 0 {
			first = doc.Playlist[0]
		}
		*doc = *song.NewSingle(first)
	}
	return nil
}

func (e songEdit) apply(cmd *cobra.Command, doc *song.Config, found []song.Song, logger *slog.Logger) error {
	flags := cmd.Flags()
	if doc.Mode == song.ModeSingle {
		if e.index >= 0 {
			return services.Wrap(services.ErrValidation, "song", "write", "--index applies to playlist mode only", nil)
		}
		if len(found) > 0 {
			doc.Single = found[0]
			if len(found) > 1 {
				logger.Info("single mode keeps the first song found", logging.Int("ignored", len(found)-1))
			}
		}
		return e.applyFields(flags.Changed, &doc.Single)
	}

	if e.index < 0 {
		for _, name := range []string{"artist", "album", "lyrics-file"} {
			if flags.Changed(name) {
				return services.Wrap(services.ErrValidation, "song", "write", fmt.Sprintf("--%s needs --index in playlist mode", name), nil)
			}
		}
		doc.Playlist = append(doc.Playlist, found...)
		if flags.Changed("title") {
			doc.Title = e.title
		}
		if flags.Changed("duration") {
			doc.Duration = e.duration
		}
		return nil
	}

	for j, s := range found {
		if err := doc.SetEntry(e.index+j, s); err != nil {
			return services.Wrap(services.ErrValidation, "song", "write", "", err)
		}
	}
	entry, ok := doc.Entry(e.index)
	if !ok {
		if err := doc.SetEntry(e.index, song.Song{}); err != nil {
			return services.Wrap(services.ErrValidation, "song", "write", "", err)
		}
	}
	if err := e.applyFields(flags.Changed, &entry); err != nil {
		return err
	}
	return doc.SetEntry(e.index, entry)
}

func (e songEdit) applyFields(changed func(string) bool, s *song.Song) error {
	if changed("title") {
		s.Title = e.title
	}
	if changed("artist") {
		s.Artist = e.artist
	}
	if changed("album") {
		s.Album = e.album
	}
	if changed("duration") {
		s.Duration = e.duration
	}
	if changed("lyrics-file") {
		abs, err := filepath.Abs(e.lyricsFile)
		if err != nil {
			return fmt.Errorf("resolve lyrics file: %w", err)
		}
		info, err := os.Stat(abs)
		if err != nil || info.IsDir() {
			return services.Wrap(services.ErrValidation, "song", "write", "lyrics file "+e.lyricsFile+" is not readable", err)
		}
		s.LyricsPath = abs
		s.Lyrics = ""
	}
	return nil
}

func songsFromAudio(cmd *cobra.Command, ffprobeBinary string, paths []string, logger *slog.Logger) ([]song.Song, error) {
	files, err := song.ExpandAudioPaths(paths)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "song", "scan audio", "", err)
	}
	if len(files) == 0 {
		return nil, services.Wrap(services.ErrValidation, "song", "scan audio", "no audio files found", nil)
	}
	songs := make([]song.Song, 0, len(files))
	for _, file := range files {
		s, err := song.FromAudio(cmd.Context(), ffprobeBinary, file)
		if err != nil {
			return nil, services.Wrap(services.ErrExternalTool, "song", "read audio metadata", file, err)
		}
		logger.Debug("read song from audio", logging.String("file", file), logging.String("title", s.Title))
		songs = append(songs, s)
	}
	return songs, nil
}
