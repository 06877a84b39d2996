package encoder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"lyricreel/internal/fileutil"
	"lyricreel/internal/logging"
)

var (
	// ErrLaunch reports that ffmpeg could not be started.
	ErrLaunch = errors.New("encoder launch failed")
	// ErrChannelClosed reports that ffmpeg no longer accepts frames.
	ErrChannelClosed = errors.New("encoder input closed")
	// ErrFrameSize reports a raw frame whose length does not match the geometry.
	ErrFrameSize = errors.New("frame size mismatch")
	// ErrFinishTimeout reports that ffmpeg had to be interrupted or killed.
	ErrFinishTimeout = errors.New("encoder did not finish in time")
)

// Result describes how the encoder process ended.
type Result struct {
	ExitCode      int
	FramesWritten int
	Stderr        string
	Elapsed       time.Duration
	Interrupted   bool
	Killed        bool
}

// Pipeline is one running ffmpeg process and its stdin pipe.
type Pipeline struct {
	opts       Options
	logger     *slog.Logger
	cmd        *exec.Cmd
	stdin      *os.File
	stderr     *tailBuffer
	frameBytes int
	started    time.Time
	waitDone   chan struct{}
	waitErr    error

	writeMu  sync.Mutex
	written  int
	closeErr error

	finishOnce sync.Once
	result     Result
	finishErr  error
}

// Start launches ffmpeg for opts. The returned pipeline must be finished with
// Finish on every path.
func Start(ctx context.Context, opts Options, logger *slog.Logger) (*Pipeline, error) {
	opts = opts.withDefaults()
	logger = logging.WithContext(ctx, logging.NewComponentLogger(logger, "encoder"))

	if err := opts.validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLaunch, err)
	}
	binary, err := exec.LookPath(opts.Binary)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLaunch, err)
	}
	if _, err := fileutil.PrepareWrite(opts.OutputPath, logger); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLaunch, err)
	}

	reader, writer, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("%w: stdin pipe: %v", ErrLaunch, err)
	}

	args := opts.Args()
	cmd := exec.Command(binary, args...) //nolint:gosec
	cmd.Stdin = reader
	cmd.Stdout = nil
	stderr := newTailBuffer(stderrTailBytes)
	cmd.Stderr = stderr
	detachProcessGroup(cmd)

	if err := cmd.Start(); err != nil {
		_ = reader.Close()
		_ = writer.Close()
		return nil, fmt.Errorf("%w: %v", ErrLaunch, err)
	}
	_ = reader.Close()

	p := &Pipeline{
		opts:       opts,
		logger:     logger,
		cmd:        cmd,
		stdin:      writer,
		stderr:     stderr,
		frameBytes: opts.frameBytes(),
		started:    time.Now(),
		waitDone:   make(chan struct{}),
	}
	go func() {
		p.waitErr = cmd.Wait()
		close(p.waitDone)
	}()

	logger.Info("encoder started",
		logging.String("binary", binary),
		logging.String("output", opts.OutputPath),
		logging.String("input_format", opts.InputFormat),
		logging.Int("width", opts.Width),
		logging.Int("height", opts.Height),
		logging.Float64("frame_rate", opts.FrameRate),
		logging.Int("pid", cmd.Process.Pid),
	)
	logger.Debug("encoder arguments", logging.Any("args", args))
	return p, nil
}

// FrameSize returns the frame geometry the encoder expects.
func (p *Pipeline) FrameSize() (int, int) {
	return p.opts.Width, p.opts.Height
}

// FramesWritten returns the number of frames fully written to stdin. A write
// completes once the pipe accepts it, so after ffmpeg exits early the count
// may include frames it never read.
func (p *Pipeline) FramesWritten() int {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	return p.written
}

// Submit writes one frame. It blocks while the pipe is full. Once the encoder
// stops reading, Submit and every later call return ErrChannelClosed.
func (p *Pipeline) Submit(ctx context.Context, frame []byte) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	if p.closeErr != nil {
		return p.closeErr
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.frameBytes > 0 && len(frame) != p.frameBytes {
		return fmt.Errorf("%w: got %d bytes, want %d (%dx%d rgba)", ErrFrameSize, len(frame), p.frameBytes, p.opts.Width, p.opts.Height)
	}

	stop := context.AfterFunc(ctx, func() {
		_ = p.stdin.SetWriteDeadline(time.Now())
	})
	n, err := p.stdin.Write(frame)
	canceled := !stop()
	if err == nil {
		p.written++
		return nil
	}

	switch {
	case canceled && errors.Is(err, os.ErrDeadlineExceeded):
		// A partial frame cannot be resumed; the stream is finished.
		p.closeErr = fmt.Errorf("%w: canceled mid-frame", ErrChannelClosed)
		p.logger.Debug("frame write canceled", logging.Int("bytes_written", n), logging.Int(logging.FieldFrame, p.written))
		return ctx.Err()
	case isClosedPipe(err):
		p.closeErr = ErrChannelClosed
		p.logger.Info("encoder stopped accepting frames",
			logging.Int("frames_written", p.written),
			logging.String(logging.FieldEventType, "encoder_input_closed"),
		)
		return ErrChannelClosed
	default:
		p.closeErr = fmt.Errorf("%w: %v", ErrChannelClosed, err)
		return fmt.Errorf("write frame %d: %w", p.written, err)
	}
}

// Finish closes stdin and waits for ffmpeg to exit. If ctx ends first the
// process is interrupted so it can finalize the container, then killed after
// the grace period. A non-zero exit is logged, not returned. Later calls
// return the first result.
func (p *Pipeline) Finish(ctx context.Context) (Result, error) {
	p.finishOnce.Do(func() {
		p.result, p.finishErr = p.finish(ctx)
	})
	return p.result, p.finishErr
}

func (p *Pipeline) finish(ctx context.Context) (Result, error) {
	if err := p.stdin.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
		p.logger.Debug("close encoder stdin", logging.Error(err))
	}

	result := Result{}
	var finishErr error
	select {
	case <-p.waitDone:
	case <-ctx.Done():
		result.Interrupted = true
		finishErr = fmt.Errorf("%w: %v", ErrFinishTimeout, ctx.Err())
		p.logger.Warn("encoder still running after stdin closed; interrupting",
			logging.String(logging.FieldEventType, "encoder_interrupt"),
			logging.String(logging.FieldErrorHint, "raise encoder.finish_timeout for slow presets"),
			logging.String(logging.FieldImpact, "output may be truncated"),
		)
		_ = p.cmd.Process.Signal(os.Interrupt)
		select {
		case <-p.waitDone:
		case <-time.After(p.opts.KillGrace):
			result.Killed = true
			_ = p.cmd.Process.Kill()
			<-p.waitDone
		}
	}

	result.ExitCode = p.cmd.ProcessState.ExitCode()
	result.FramesWritten = p.FramesWritten()
	result.Stderr = p.stderr.String()
	result.Elapsed = time.Since(p.started)

	var exitErr *exec.ExitError
	if p.waitErr != nil && !errors.As(p.waitErr, &exitErr) && finishErr == nil {
		finishErr = fmt.Errorf("wait for encoder: %w", p.waitErr)
	}

	if result.ExitCode != 0 {
		logging.WarnWithContext(p.logger, "encoder exited with non-zero status", "encoder_exit_nonzero",
			logging.Int("exit_code", result.ExitCode),
			logging.Int("frames_written", result.FramesWritten),
			logging.String("stderr", result.Stderr),
			logging.String(logging.FieldErrorHint, "inspect ffmpeg stderr for the cause"),
			logging.String(logging.FieldImpact, "output video may be incomplete"),
		)
	} else {
		p.logger.Info("encoder finished",
			logging.Int("frames_written", result.FramesWritten),
			logging.Duration("elapsed", result.Elapsed),
		)
	}
	return result, finishErr
}

func isClosedPipe(err error) bool {
	return errors.Is(err, unix.EPIPE) ||
		errors.Is(err, os.ErrClosed) ||
		errors.Is(err, io.ErrClosedPipe)
}
