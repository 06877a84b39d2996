package workflow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"lyricreel/internal/assets"
	"lyricreel/internal/config"
	"lyricreel/internal/encoder"
	"lyricreel/internal/fileutil"
	"lyricreel/internal/frameloop"
	"lyricreel/internal/history"
	"lyricreel/internal/logging"
	"lyricreel/internal/preflight"
	"lyricreel/internal/render"
	"lyricreel/internal/services"
	"lyricreel/internal/song"
)

const (
	stageName      = "render"
	assetMount     = "/assets/"
	publishedName  = "song.json"
	staleAssetsAge = 24 * time.Hour
)

// Request names the song configuration to render and the video to write.
type Request struct {
	ConfigPath string
	OutputPath string
}

// Report describes a finished render.
type Report struct {
	RunID      string
	OutputPath string
	Mode       song.Mode
	Title      string
	Duration   float64
	Summary    frameloop.Summary
	Verified   *Verification
}

// Runner renders song configurations with one application config.
type Runner struct {
	cfg      *config.Config
	logger   *slog.Logger
	progress io.Writer
	history  *history.Store
	newRunID func() string
}

// Option customizes a Runner.
type Option func(*Runner)

// WithProgressWriter sends frame progress to w. A terminal gets a progress
// bar; anything else gets sampled log lines.
func WithProgressWriter(w io.Writer) Option {
	return func(r *Runner) { r.progress = w }
}

// WithHistory records each run in store.
func WithHistory(store *history.Store) Option {
	return func(r *Runner) { r.history = store }
}

// NewRunner constructs a Runner.
func NewRunner(cfg *config.Config, logger *slog.Logger, opts ...Option) *Runner {
	r := &Runner{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "workflow"),
		newRunID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render executes req. Invalid song configurations are rejected before any
// browser or encoder is launched.
func (r *Runner) Render(ctx context.Context, req Request) (report Report, err error) {
	runID := r.newRunID()
	ctx = services.WithRunID(ctx, runID)
	ctx = services.WithStage(ctx, stageName)
	logger := logging.WithContext(ctx, r.logger)
	report.RunID = runID

	cfgSong, err := loadSong(req.ConfigPath)
	if err != nil {
		return report, err
	}
	report.Mode = cfgSong.Mode
	report.Title = displayTitle(cfgSong)
	report.Duration = cfgSong.TotalDuration()
	total := frameloop.TotalFrames(report.Duration, r.cfg.Render.FrameRate)
	if total == 0 {
		return report, services.Wrap(services.ErrValidation, stageName, "count frames",
			fmt.Sprintf("%.3fs at %g fps yields no frames", report.Duration, r.cfg.Render.FrameRate), nil)
	}

	outputPath, err := resolveOutput(req.OutputPath)
	if err != nil {
		return report, err
	}
	report.OutputPath = outputPath

	if err := r.cfg.EnsureDirectories(); err != nil {
		return report, services.Wrap(services.ErrConfiguration, stageName, "ensure directories", "", err)
	}
	if err := r.preflight(ctx); err != nil {
		return report, err
	}

	renderOpts := render.OptionsFromConfig(r.cfg)
	encOpts := encoderOptions(r.cfg, outputPath)
	if renderOpts.Width != encOpts.Width || renderOpts.Height != encOpts.Height {
		return report, geometryError(renderOpts.Width, renderOpts.Height, encOpts.Width, encOpts.Height)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return report, services.Wrap(services.ErrConfiguration, stageName, "prepare output", filepath.Dir(outputPath), err)
	}
	lock, err := lockOutput(outputPath)
	if err != nil {
		return report, services.Wrap(services.ErrConfiguration, stageName, "lock output", "", err)
	}
	defer func() {
		if relErr := lock.release(); relErr != nil {
			logger.Warn("release output lock failed", logging.Error(relErr))
		}
	}()

	sweep := assets.Sweep(r.cfg.Paths.AssetDir, staleAssetsAge, logger)
	if len(sweep.Removed) > 0 {
		logger.Info("removed stale asset directories", logging.Int("count", len(sweep.Removed)))
	}

	store, err := assets.New(filepath.Join(r.cfg.Paths.AssetDir, runID), logger)
	if err != nil {
		return report, services.Wrap(services.ErrTransient, stageName, "create asset store", "", err)
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			logger.Warn("asset cleanup incomplete", logging.Error(closeErr))
		}
	}()

	published, err := cfgSong.PublishJSON()
	if err != nil {
		return report, services.Wrap(services.ErrValidation, stageName, "encode song configuration", "", err)
	}
	asset, err := store.Publish(publishedName, published)
	if err != nil {
		return report, services.Wrap(services.ErrTransient, stageName, "publish song configuration", "", err)
	}

	record := r.startHistory(ctx, logger, req.ConfigPath, outputPath, cfgSong, total)
	defer func() {
		r.completeHistory(logger, record, report.Summary, err)
	}()

	logger.Info("render starting",
		logging.String("config", req.ConfigPath),
		logging.String("output", outputPath),
		logging.String("mode", string(cfgSong.Mode)),
		logging.String("title", report.Title),
		logging.Float64("duration_seconds", report.Duration),
		logging.Int(logging.FieldTotalFrames, total),
	)

	renderOpts = renderOpts.WithMount(assetMount, store.Root())
	session, err := launchSession(ctx, renderOpts, logger)
	if err != nil {
		return report, services.Wrap(services.ErrExternalTool, stageName, "launch browser", "", err)
	}
	// Once the loop has started it finishes the encoder and closes the session.
	loopOwned := false
	defer func() {
		if loopOwned {
			return
		}
		if closeErr := session.Close(); closeErr != nil {
			logger.Warn("browser close failed", logging.Error(closeErr))
		}
	}()

	if err := session.Open(ctx, session.URL(r.cfg.Paths.Entry)); err != nil {
		return report, interrupted(ctx, services.Wrap(services.ErrExternalTool, stageName, "load entry page", r.cfg.Paths.Entry, err))
	}
	assetURL := session.URL(path.Join(strings.Trim(assetMount, "/"), asset.RelPath))
	if err := session.Configure(ctx, assetURL); err != nil {
		return report, interrupted(ctx, services.Wrap(services.ErrExternalTool, stageName, "configure page", assetURL, err))
	}

	enc, err := startEncoder(ctx, encOpts, logger)
	if err != nil {
		return report, services.Wrap(services.ErrExternalTool, stageName, "start encoder", "", err)
	}
	defer func() {
		if loopOwned {
			return
		}
		finishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.cfg.FinishTimeout())
		defer cancel()
		_, _ = enc.Finish(finishCtx)
	}()

	vw, vh := session.FrameSize()
	ew, eh := enc.FrameSize()
	if vw != ew || vh != eh {
		return report, geometryError(vw, vh, ew, eh)
	}

	loop := &frameloop.Loop{
		Renderer:      session,
		Sink:          enc,
		Rate:          r.cfg.Render.FrameRate,
		Reporter:      r.reporter(total, logger),
		Logger:        logger,
		FinishTimeout: r.cfg.FinishTimeout(),
	}
	summary, loopErr := loop.Run(ctx, total)
	loopOwned = !errors.Is(loopErr, frameloop.ErrInvalidLoop)
	report.Summary = summary
	if loopErr != nil {
		return report, classifyLoopError(ctx, loopErr)
	}

	if summary.Encoder.ExitCode == 0 {
		report.Verified = r.verify(ctx, logger, outputPath, summary.Encoder.FramesWritten)
	}
	logger.Info("render complete",
		logging.String("output", outputPath),
		logging.Int("frames", summary.Submitted),
		logging.Bool("early_stop", summary.EarlyStop),
		logging.Int("encoder_exit_code", summary.Encoder.ExitCode),
		logging.Duration("elapsed", summary.Elapsed),
	)
	return report, nil
}

func (r *Runner) preflight(ctx context.Context) error {
	results := preflight.RunAll(ctx, r.cfg)
	if err := preflight.Err(results); err != nil {
		return services.Wrap(services.ErrConfiguration, stageName, "preflight", "", err)
	}
	return nil
}

func (r *Runner) reporter(total int, logger *slog.Logger) frameloop.Reporter {
	if r.progress == nil {
		return frameloop.NewLogReporter(logger)
	}
	return frameloop.NewReporter(r.progress, total, logger)
}

func loadSong(configPath string) (*song.Config, error) {
	if strings.TrimSpace(configPath) == "" {
		return nil, services.Wrap(services.ErrValidation, stageName, "load configuration", "no configuration path given", nil)
	}
	cfgSong, err := song.Load(configPath)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, stageName, "load configuration", configPath, err)
	}
	if err := cfgSong.Validate(); err != nil {
		return nil, services.Wrap(services.ErrValidation, stageName, "validate configuration", configPath, err)
	}
	return cfgSong, nil
}

func resolveOutput(outputPath string) (string, error) {
	if strings.TrimSpace(outputPath) == "" {
		return "", services.Wrap(services.ErrValidation, stageName, "resolve output", "no output path given", nil)
	}
	abs, err := filepath.Abs(outputPath)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, stageName, "resolve output", outputPath, err)
	}
	if info, statErr := os.Stat(abs); statErr == nil && info.IsDir() {
		return "", services.Wrap(services.ErrValidation, stageName, "resolve output", abs, fileutil.ErrIsDirectory)
	}
	return abs, nil
}

func encoderOptions(cfg *config.Config, outputPath string) encoder.Options {
	return encoder.Options{
		Binary:      cfg.FFmpegBinary(),
		OutputPath:  outputPath,
		Width:       cfg.Render.Width,
		Height:      cfg.Render.Height,
		FrameRate:   cfg.Render.FrameRate,
		Quality:     cfg.Encoder.Quality,
		InputFormat: cfg.Render.FrameFormat,
		Codec:       cfg.Encoder.Codec,
		Preset:      cfg.Encoder.Preset,
		PixelFormat: cfg.Encoder.PixelFormat,
		ExtraArgs:   cfg.Encoder.ExtraArgs,
		KillGrace:   cfg.FinishTimeout(),
	}
}

func displayTitle(c *song.Config) string {
	if c.Mode == song.ModePlaylist {
		return c.Title
	}
	return c.Single.Title
}

func geometryError(vw, vh, ew, eh int) error {
	err := fmt.Errorf("%w: viewport %dx%d, encoder %dx%d", render.ErrFrameGeometry, vw, vh, ew, eh)
	return services.Wrap(services.ErrConfiguration, stageName, "check geometry", "", err)
}

// interrupted reports cancellation as such instead of as a tool failure.
func interrupted(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("render interrupted: %w", ctxErr)
	}
	return err
}

func classifyLoopError(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, context.Canceled) || ctx.Err() != nil:
		return fmt.Errorf("render interrupted: %w", err)
	case errors.Is(err, render.ErrFrameGeometry) || errors.Is(err, encoder.ErrFrameSize):
		return services.Wrap(services.ErrConfiguration, stageName, "frame loop", "", err)
	default:
		return services.Wrap(services.ErrExternalTool, stageName, "frame loop", "", err)
	}
}
