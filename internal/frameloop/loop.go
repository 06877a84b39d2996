package frameloop

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"lyricreel/internal/encoder"
	"lyricreel/internal/logging"
)

const defaultFinishTimeout = 30 * time.Second

// Renderer produces frames.
type Renderer interface {
	Advance(ctx context.Context, frame int, rate float64) error
	Capture(ctx context.Context) ([]byte, error)
	Close() error
}

// Sink consumes frames in order.
type Sink interface {
	Submit(ctx context.Context, frame []byte) error
	Finish(ctx context.Context) (encoder.Result, error)
}

// Reporter receives progress after each submitted frame.
type Reporter interface {
	Frame(done, total int)
	Done()
}

// Summary describes a finished run.
type Summary struct {
	Total     int
	Submitted int
	EarlyStop bool
	Canceled  bool
	Encoder   encoder.Result
	Elapsed   time.Duration
}

// TotalFrames returns round(duration * rate).
func TotalFrames(duration, rate float64) int {
	if duration <= 0 || rate <= 0 {
		return 0
	}
	return int(math.Round(duration * rate))
}

// Loop wires one renderer to one sink.
type Loop struct {
	Renderer      Renderer
	Sink          Sink
	Rate          float64
	Reporter      Reporter
	Logger        *slog.Logger
	Observer      Observer
	FinishTimeout time.Duration
}

func (l *Loop) transition(state State, frame int) {
	if l.Observer != nil {
		l.Observer(Transition{State: state, Frame: frame})
	}
}

// ErrInvalidLoop is returned before Run touches the renderer or the sink.
// Callers still own both in that case.
var ErrInvalidLoop = errors.New("invalid frame loop")

// Run renders frames 0..total-1. The sink is finished exactly once and the
// renderer closed afterwards on every path, including cancellation. A closed
// encoder input stops the loop and is not an error.
func (l *Loop) Run(ctx context.Context, total int) (Summary, error) {
	if l.Renderer == nil || l.Sink == nil {
		return Summary{}, fmt.Errorf("%w: renderer and sink are required", ErrInvalidLoop)
	}
	if total < 0 {
		return Summary{}, fmt.Errorf("%w: frame count %d", ErrInvalidLoop, total)
	}
	if l.Rate <= 0 {
		return Summary{}, fmt.Errorf("%w: frame rate %v", ErrInvalidLoop, l.Rate)
	}
	logger := logging.WithContext(ctx, logging.NewComponentLogger(l.Logger, "frameloop"))

	summary := Summary{Total: total}
	started := time.Now()
	l.transition(StateIdle, -1)
	logger.Info("frame loop started",
		logging.Int(logging.FieldTotalFrames, total),
		logging.Float64("frame_rate", l.Rate),
	)

	runErr := l.produce(ctx, logger, total, &summary)

	if runErr != nil {
		l.transition(StateAborting, -1)
	} else {
		l.transition(StateDraining, -1)
	}

	timeout := l.FinishTimeout
	if timeout <= 0 {
		timeout = defaultFinishTimeout
	}
	finishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	result, finishErr := l.Sink.Finish(finishCtx)
	cancel()
	summary.Encoder = result

	if err := l.Renderer.Close(); err != nil {
		logging.WarnWithContext(logger, "renderer close failed", "renderer_close_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "browser process may linger"),
		)
	}
	if l.Reporter != nil {
		l.Reporter.Done()
	}
	l.transition(StateClosed, -1)
	summary.Elapsed = time.Since(started)

	logger.Info("frame loop finished",
		logging.Int("submitted", summary.Submitted),
		logging.Int(logging.FieldTotalFrames, total),
		logging.Bool("early_stop", summary.EarlyStop),
		logging.Bool("canceled", summary.Canceled),
		logging.Int("encoder_exit_code", result.ExitCode),
		logging.Duration("elapsed", summary.Elapsed),
	)
	return summary, errors.Join(runErr, finishErr)
}

func (l *Loop) produce(ctx context.Context, logger *slog.Logger, total int, summary *Summary) error {
	for i := 0; i < total; i++ {
		if err := ctx.Err(); err != nil {
			summary.Canceled = true
			logger.Info("frame loop canceled", logging.Int(logging.FieldFrame, i))
			return err
		}

		l.transition(StateRendering, i)
		if err := l.Renderer.Advance(ctx, i, l.Rate); err != nil {
			return l.abort(ctx, summary, fmt.Errorf("advance frame %d: %w", i, err))
		}
		frame, err := l.Renderer.Capture(ctx)
		if err != nil {
			return l.abort(ctx, summary, fmt.Errorf("capture frame %d: %w", i, err))
		}

		l.transition(StateSubmitting, i)
		if err := l.Sink.Submit(ctx, frame); err != nil {
			if errors.Is(err, encoder.ErrChannelClosed) {
				summary.EarlyStop = true
				logger.Info("encoder closed its input; stopping",
					logging.Int(logging.FieldFrame, i),
					logging.Int("submitted", summary.Submitted),
					logging.String(logging.FieldEventType, "frame_loop_early_stop"),
				)
				return nil
			}
			return l.abort(ctx, summary, fmt.Errorf("submit frame %d: %w", i, err))
		}
		summary.Submitted++
		if l.Reporter != nil {
			l.Reporter.Frame(i+1, total)
		}
	}
	return nil
}

// abort classifies a per-frame failure, treating parent cancellation as a
// stop rather than a render error.
func (l *Loop) abort(ctx context.Context, summary *Summary, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		summary.Canceled = true
		return ctxErr
	}
	return err
}
