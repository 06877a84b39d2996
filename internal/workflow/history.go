package workflow

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"lyricreel/internal/frameloop"
	"lyricreel/internal/history"
	"lyricreel/internal/logging"
	"lyricreel/internal/services"
	"lyricreel/internal/song"
)

const historyWriteTimeout = 5 * time.Second

type historyRecord struct {
	id  int64
	ctx context.Context
}

func (r *Runner) startHistory(ctx context.Context, logger *slog.Logger, configPath, outputPath string, c *song.Config, total int) *historyRecord {
	if r.history == nil {
		return nil
	}
	if n, err := r.history.MarkAbandoned(ctx, outputPath); err != nil {
		logger.Warn("history cleanup failed", logging.Error(err))
	} else if n > 0 {
		logger.Info("marked abandoned renders as failed", logging.Int64("count", n))
	}
	runID, _ := services.RunIDFromContext(ctx)
	run, err := r.history.Start(ctx, history.Run{
		RunID:       runID,
		ConfigPath:  configPath,
		OutputPath:  outputPath,
		Mode:        string(c.Mode),
		Title:       displayTitle(c),
		Width:       r.cfg.Render.Width,
		Height:      r.cfg.Render.Height,
		FrameRate:   r.cfg.Render.FrameRate,
		TotalFrames: total,
	})
	if err != nil {
		logging.WarnWithContext(logger, "history record not started", "history_write_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "render will not appear in history"),
		)
		return nil
	}
	return &historyRecord{id: run.ID, ctx: context.WithoutCancel(ctx)}
}

func (r *Runner) completeHistory(logger *slog.Logger, record *historyRecord, summary frameloop.Summary, runErr error) {
	if record == nil || r.history == nil {
		return
	}
	outcome := history.Outcome{
		FramesWritten: summary.Encoder.FramesWritten,
		EarlyStop:     summary.EarlyStop,
		Err:           runErr,
	}
	if summary.Encoder.Elapsed > 0 || summary.Encoder.FramesWritten > 0 {
		code := summary.Encoder.ExitCode
		outcome.EncoderExit = &code
	}
	if runErr != nil && (summary.Canceled || errors.Is(runErr, context.Canceled)) {
		outcome.Status = history.StatusCanceled
	}
	ctx, cancel := context.WithTimeout(record.ctx, historyWriteTimeout)
	defer cancel()
	if err := r.history.Complete(ctx, record.id, outcome); err != nil {
		logger.Warn("history record not completed", logging.Error(err))
	}
}
