package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"lyricreel/internal/config"
	"lyricreel/internal/history"
	"lyricreel/internal/logging"
	"lyricreel/internal/services"
	"lyricreel/internal/workflow"
)

var errOverwriteDeclined = errors.New("output exists and overwrite was declined")

// promptAllowed reports whether the overwrite question can be asked.
var promptAllowed = func(cmd *cobra.Command) bool {
	return isTerminal(cmd.InOrStdin())
}

type renderOverrides struct {
	frameRate float64
	width     int
	height    int
	quality   int
}

func newRenderCommand(ctx *commandContext) *cobra.Command {
	var assumeYes bool
	var overrides renderOverrides

	cmd := &cobra.Command{
		Use:   "render <song-config> <output>",
		Short: "Render a song configuration to a video file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			cfg, err := overrides.apply(cmd, base)
			if err != nil {
				return err
			}

			outputPath := args[1]
			if err := confirmOverwrite(cmd, outputPath, assumeYes); err != nil {
				return err
			}

			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			opts := []workflow.Option{workflow.WithProgressWriter(cmd.ErrOrStderr())}
			if strings.TrimSpace(cfg.Paths.HistoryDB) != "" {
				store, err := history.Open(cmd.Context(), cfg.Paths.HistoryDB)
				if err != nil {
					logging.WarnWithContext(logger, "render history unavailable", "history_open_failed",
						logging.Error(err),
						logging.String(logging.FieldImpact, "this render will not be recorded"),
					)
				} else {
					defer store.Close()
					opts = append(opts, workflow.WithHistory(store))
				}
			}

			runner := workflow.NewRunner(cfg, logger, opts...)
			report, err := runner.Render(cmd.Context(), workflow.Request{ConfigPath: args[0], OutputPath: outputPath})
			if err != nil {
				return err
			}
			printReport(cmd.OutOrStdout(), report)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Overwrite an existing output without asking")
	cmd.Flags().Float64Var(&overrides.frameRate, "frame-rate", 0, "Override render.frame_rate")
	cmd.Flags().IntVar(&overrides.width, "width", 0, "Override render.width")
	cmd.Flags().IntVar(&overrides.height, "height", 0, "Override render.height")
	cmd.Flags().IntVar(&overrides.quality, "quality", 0, "Override encoder.quality (CRF)")
	return cmd
}

// apply returns a copy of base with the changed flags applied and revalidated.
func (o renderOverrides) apply(cmd *cobra.Command, base *config.Config) (*config.Config, error) {
	cfg := *base
	cfg.Encoder.ExtraArgs = append([]string(nil), base.Encoder.ExtraArgs...)
	flags := cmd.Flags()
	if flags.Changed("frame-rate") {
		cfg.Render.FrameRate = o.frameRate
	}
	if flags.Changed("width") {
		cfg.Render.Width = o.width
	}
	if flags.Changed("height") {
		cfg.Render.Height = o.height
	}
	if flags.Changed("quality") {
		cfg.Encoder.Quality = o.quality
	}
	if err := cfg.Validate(); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "cli", "apply overrides", "", err)
	}
	return &cfg, nil
}

func confirmOverwrite(cmd *cobra.Command, outputPath string, assumeYes bool) error {
	info, err := os.Stat(outputPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("check output: %w", err)
	}
	if info.IsDir() || assumeYes {
		// Directories are rejected by the workflow with a validation error.
		return nil
	}
	if !promptAllowed(cmd) {
		return fmt.Errorf("%s: %w (use --yes to overwrite)", outputPath, errOverwriteDeclined)
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "%s already exists. Overwrite? [y/N] ", outputPath)
	answer, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("read answer: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return nil
	default:
		return fmt.Errorf("%s: %w", outputPath, errOverwriteDeclined)
	}
}

func printReport(out io.Writer, report workflow.Report) {
	fmt.Fprintf(out, "Rendered %s\n", report.OutputPath)
	fmt.Fprintf(out, "  Run:      %s\n", report.RunID)
	fmt.Fprintf(out, "  Song:     %s (%s)\n", report.Title, report.Mode)
	fmt.Fprintf(out, "  Sent:     %d of %d frames\n", report.Summary.Submitted, report.Summary.Total)
	fmt.Fprintf(out, "  Elapsed:  %s\n", report.Summary.Elapsed.Round(10 * time.Millisecond))
	if report.Summary.EarlyStop {
		fmt.Fprintln(out, "  Encoder stopped reading early; output is shorter than the song")
	}
	if v := report.Verified; v != nil {
		fmt.Fprintf(out, "  Verified: %s %dx%d, %d frames, %.2fs\n", v.Codec, v.Width, v.Height, v.Frames, v.Duration)
	}
}
