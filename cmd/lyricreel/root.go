package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var settingsFlag string

	ctx := newCommandContext(&settingsFlag)

	rootCmd := &cobra.Command{
		Use:           "lyricreel",
		Short:         "Render lyric videos from song configurations",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&settingsFlag, "settings", "", "Application settings file path")

	rootCmd.AddCommand(newRenderCommand(ctx))
	rootCmd.AddCommand(newSongCommand(ctx))
	rootCmd.AddCommand(newSettingsCommand(ctx))
	rootCmd.AddCommand(newPreflightCommand(ctx))
	rootCmd.AddCommand(newHistoryCommand(ctx))

	return rootCmd
}
