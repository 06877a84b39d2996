package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"lyricreel/internal/config"
)

func newSettingsCommand(ctx *commandContext) *cobra.Command {
	settingsCmd := &cobra.Command{
		Use:   "settings",
		Short: "Application settings utilities",
	}

	settingsCmd.AddCommand(newSettingsValidateCommand(ctx))
	settingsCmd.AddCommand(newSettingsInitCommand())

	return settingsCmd
}

func newSettingsInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Create a sample settings file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return fmt.Errorf("determine default settings path: %w", err)
				}
				target = defaultPath
			} else {
				expanded, err := config.ExpandPath(target)
				if err != nil {
					return fmt.Errorf("resolve settings path: %w", err)
				}
				target = expanded
			}

			dir := filepath.Dir(target)
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create settings directory %q: %w", dir, err)
			}

			if !overwrite {
				if _, err := os.Stat(target); err == nil {
					return fmt.Errorf("settings file already exists at %s (use --overwrite to replace it)", target)
				} else if !os.IsNotExist(err) {
					return fmt.Errorf("check settings path: %w", err)
				}
			}

			if err := config.CreateSample(target); err != nil {
				return fmt.Errorf("create sample settings: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample settings to %s\n", target)
			fmt.Fprintln(out, "Point paths.html_dir at the lyric page before rendering.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the settings file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing settings if present")
	return cmd
}

func newSettingsValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the settings file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Settings path: %s\n", ctx.configPath)
			if _, err := os.Stat(ctx.configPath); os.IsNotExist(err) {
				fmt.Fprintln(out, "Settings file did not exist; defaults were used")
			}
			fmt.Fprintf(out, "Frame: %dx%d at %g fps (%s)\n", cfg.Render.Width, cfg.Render.Height, cfg.Render.FrameRate, cfg.Render.FrameFormat)
			fmt.Fprintf(out, "Encoder: %s %s crf %d %s\n", cfg.FFmpegBinary(), cfg.Encoder.Codec, cfg.Encoder.Quality, cfg.Encoder.PixelFormat)
			fmt.Fprintln(out, "Settings valid")
			return nil
		},
	}
}
