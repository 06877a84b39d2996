package workflow

import (
	"context"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"

	"lyricreel/internal/logging"
)

// Verification is what ffprobe reports about the finished video.
type Verification struct {
	Codec    string
	Width    int
	Height   int
	Frames   int
	Duration float64
}

// verify probes the output. Problems are logged; a missing ffprobe skips the
// check.
func (r *Runner) verify(ctx context.Context, logger *slog.Logger, outputPath string, framesWritten int) *Verification {
	binary := r.cfg.FFprobeBinary()
	if _, err := exec.LookPath(binary); err != nil {
		logger.Debug("ffprobe unavailable; skipping output verification", logging.String("ffprobe", binary))
		return nil
	}
	result, err := verifyProbe(ctx, binary, outputPath)
	if err != nil {
		logging.WarnWithContext(logger, "output verification failed", "output_verify_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "output may be unreadable"),
		)
		return nil
	}
	stream, ok := result.FirstVideoStream()
	if !ok {
		logging.WarnWithContext(logger, "output has no video stream", "output_verify_failed",
			logging.String("output", outputPath),
		)
		return nil
	}
	v := &Verification{
		Codec:    stream.CodecName,
		Width:    stream.Width,
		Height:   stream.Height,
		Duration: result.DurationSeconds(),
	}
	if n, err := strconv.Atoi(strings.TrimSpace(stream.NBFrames)); err == nil {
		v.Frames = n
	}

	attrs := []logging.Attr{
		logging.String("codec", v.Codec),
		logging.Int("width", v.Width),
		logging.Int("height", v.Height),
		logging.Int("frames", v.Frames),
		logging.Float64("duration_seconds", v.Duration),
	}
	if v.Frames > 0 && v.Frames != framesWritten {
		logging.WarnWithContext(logger, "output frame count differs from frames written", "output_frame_mismatch",
			append(attrs, logging.Int("frames_written", framesWritten))...,
		)
		return v
	}
	if v.Width != r.cfg.Render.Width || v.Height != r.cfg.Render.Height {
		logging.WarnWithContext(logger, "output geometry differs from render size", "output_geometry_mismatch", attrs...)
		return v
	}
	logger.Info("output verified", logging.Args(attrs...)...)
	return v
}
