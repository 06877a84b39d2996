package frameloop

import (
	"io"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"lyricreel/internal/logging"
)

// NewReporter returns a progress bar when w is a terminal and a sampled log
// reporter otherwise.
func NewReporter(w io.Writer, total int, logger *slog.Logger) Reporter {
	if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		return NewBarReporter(w, total)
	}
	return NewLogReporter(logger)
}

// BarReporter draws a frame counter on a terminal.
type BarReporter struct {
	bar *progressbar.ProgressBar
}

// NewBarReporter builds a bar for total frames written to w.
func NewBarReporter(w io.Writer, total int) *BarReporter {
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("rendering"),
		progressbar.OptionSetItsString("frames"),
		progressbar.OptionShowIts(),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
		progressbar.OptionOnCompletion(func() { _, _ = io.WriteString(w, "\n") }),
	)
	return &BarReporter{bar: bar}
}

func (r *BarReporter) Frame(done, _ int) {
	_ = r.bar.Set(done)
}

func (r *BarReporter) Done() {
	_ = r.bar.Exit()
}

// LogReporter logs progress when the completed percentage crosses a bucket.
type LogReporter struct {
	logger  *slog.Logger
	sampler *logging.ProgressSampler
}

// NewLogReporter logs progress in 10% steps.
func NewLogReporter(logger *slog.Logger) *LogReporter {
	return &LogReporter{
		logger:  logging.NewComponentLogger(logger, "frameloop"),
		sampler: logging.NewProgressSampler(10),
	}
}

func (r *LogReporter) Frame(done, total int) {
	percent := logging.FramePercent(done, total)
	if !r.sampler.ShouldLog(percent, "rendering") {
		return
	}
	r.logger.Info("render progress",
		logging.Int(logging.FieldFrame, done),
		logging.Int(logging.FieldTotalFrames, total),
		logging.Float64("percent", percent),
	)
}

func (r *LogReporter) Done() {
	r.sampler.Reset()
}
