package encoder_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"lyricreel/internal/encoder"
	"lyricreel/internal/logging"
	"lyricreel/internal/testsupport"
)

const (
	testWidth  = 8
	testHeight = 4
	frameLen   = testWidth * testHeight * 4
)

func startWithScript(t *testing.T, body string, mutate ...func(*encoder.Options)) (*encoder.Pipeline, string) {
	t.Helper()
	dir := t.TempDir()
	opts := encoder.Options{
		Binary:     testsupport.WriteScript(t, filepath.Join(dir, "bin"), "ffmpeg", body),
		OutputPath: filepath.Join(dir, "out", "video.mp4"),
		Width:      testWidth,
		Height:     testHeight,
		FrameRate:  10,
		Quality:    23,
		KillGrace:  3 * time.Second,
	}
	for _, m := range mutate {
		m(&opts)
	}
	p, err := encoder.Start(context.Background(), opts, logging.NewNop())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	return p, opts.OutputPath
}

func frame(fill byte) []byte {
	return bytes.Repeat([]byte{fill}, frameLen)
}

func TestSubmitWritesFramesInOrder(t *testing.T) {
	p, out := startWithScript(t, testsupport.FFmpegCaptureScript)

	for i := 0; i < 5; i++ {
		if err := p.Submit(context.Background(), frame(byte(i))); err != nil {
			t.Fatalf("Submit %d: %v", i, err)
		}
	}
	result, err := p.Finish(context.Background())
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if result.ExitCode != 0 || result.FramesWritten != 5 {
		t.Fatalf("unexpected result %+v", result)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if len(data) != 5*frameLen {
		t.Fatalf("output has %d bytes, want %d", len(data), 5*frameLen)
	}
	for i := 0; i < 5; i++ {
		chunk := data[i*frameLen : (i+1)*frameLen]
		if !bytes.Equal(chunk, frame(byte(i))) {
			t.Fatalf("frame %d out of order", i)
		}
	}
}

func TestSubmitRejectsWrongFrameSize(t *testing.T) {
	p, _ := startWithScript(t, testsupport.FFmpegCaptureScript)
	defer p.Finish(context.Background())

	err := p.Submit(context.Background(), make([]byte, frameLen-1))
	if !errors.Is(err, encoder.ErrFrameSize) {
		t.Fatalf("expected ErrFrameSize, got %v", err)
	}
	if p.FramesWritten() != 0 {
		t.Fatal("short frame must not be written")
	}
	if err := p.Submit(context.Background(), frame(1)); err != nil {
		t.Fatalf("valid frame after rejection: %v", err)
	}
}

func TestPNGInputSkipsSizeCheck(t *testing.T) {
	p, out := startWithScript(t, testsupport.FFmpegCaptureScript, func(o *encoder.Options) {
		o.InputFormat = encoder.InputPNG
	})
	if err := p.Submit(context.Background(), []byte("png-bytes")); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if _, err := p.Finish(context.Background()); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	data, _ := os.ReadFile(out)
	if string(data) != "png-bytes" {
		t.Fatalf("unexpected output %q", data)
	}
}

func TestSubmitReportsClosedChannel(t *testing.T) {
	p, _ := startWithScript(t, testsupport.FFmpegEarlyCloseScript(2*frameLen))

	var closedAt int
	for i := 0; i < 10000; i++ {
		err := p.Submit(context.Background(), frame(byte(i)))
		if errors.Is(err, encoder.ErrChannelClosed) {
			closedAt = i
			break
		}
		if err != nil {
			t.Fatalf("Submit %d: unexpected error %v", i, err)
		}
	}
	if closedAt == 0 {
		t.Fatal("expected the channel to close")
	}
	if err := p.Submit(context.Background(), frame(0)); !errors.Is(err, encoder.ErrChannelClosed) {
		t.Fatalf("closed state must be sticky, got %v", err)
	}

	result, err := p.Finish(context.Background())
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if result.FramesWritten != closedAt {
		t.Fatalf("FramesWritten = %d, want %d", result.FramesWritten, closedAt)
	}
	if result.ExitCode != 0 {
		t.Fatalf("unexpected exit code %d", result.ExitCode)
	}
}

func TestFinishReportsNonZeroExitWithoutError(t *testing.T) {
	p, _ := startWithScript(t, testsupport.FFmpegFailScript)
	time.Sleep(50 * time.Millisecond)
	_ = p.Submit(context.Background(), frame(0))

	result, err := p.Finish(context.Background())
	if err != nil {
		t.Fatalf("non-zero exit must not be an error: %v", err)
	}
	if result.ExitCode != 1 {
		t.Fatalf("ExitCode = %d, want 1", result.ExitCode)
	}
	if !strings.Contains(result.Stderr, "Unknown encoder") {
		t.Fatalf("expected stderr tail, got %q", result.Stderr)
	}
}

func TestFinishIsIdempotent(t *testing.T) {
	p, _ := startWithScript(t, testsupport.FFmpegCaptureScript)
	if err := p.Submit(context.Background(), frame(9)); err != nil {
		t.Fatal(err)
	}
	first, err := p.Finish(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	second, err := p.Finish(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Fatalf("second Finish returned %+v, want %+v", second, first)
	}
	if err := p.Submit(context.Background(), frame(1)); !errors.Is(err, encoder.ErrChannelClosed) {
		t.Fatalf("Submit after Finish = %v, want ErrChannelClosed", err)
	}
}

func TestFinishInterruptsStalledEncoder(t *testing.T) {
	p, _ := startWithScript(t, testsupport.FFmpegStallScript)
	if err := p.Submit(context.Background(), frame(1)); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	result, err := p.Finish(ctx)
	if !errors.Is(err, encoder.ErrFinishTimeout) {
		t.Fatalf("expected ErrFinishTimeout, got %v", err)
	}
	if !result.Interrupted || result.Killed {
		t.Fatalf("expected graceful interrupt, got %+v", result)
	}
	if result.ExitCode != 255 {
		t.Fatalf("ExitCode = %d, want 255", result.ExitCode)
	}
}

func TestSubmitHonoursCanceledContext(t *testing.T) {
	p, _ := startWithScript(t, testsupport.FFmpegCaptureScript)
	defer p.Finish(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := p.Submit(ctx, frame(1)); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestStartFailures(t *testing.T) {
	dir := t.TempDir()
	good := testsupport.WriteScript(t, dir, "ffmpeg", "exit 0\n")
	tests := []struct {
		name string
		opts encoder.Options
	}{
		{"missing binary", encoder.Options{Binary: filepath.Join(dir, "absent"), OutputPath: filepath.Join(dir, "o.mp4"), Width: 2, Height: 2, FrameRate: 1}},
		{"empty output", encoder.Options{Binary: good, Width: 2, Height: 2, FrameRate: 1}},
		{"directory output", encoder.Options{Binary: good, OutputPath: dir, Width: 2, Height: 2, FrameRate: 1}},
		{"zero geometry", encoder.Options{Binary: good, OutputPath: filepath.Join(dir, "o.mp4"), FrameRate: 1}},
		{"zero rate", encoder.Options{Binary: good, OutputPath: filepath.Join(dir, "o.mp4"), Width: 2, Height: 2}},
		{"bad input format", encoder.Options{Binary: good, OutputPath: filepath.Join(dir, "o.mp4"), Width: 2, Height: 2, FrameRate: 1, InputFormat: "yuv"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := encoder.Start(context.Background(), tt.opts, nil); !errors.Is(err, encoder.ErrLaunch) {
				t.Fatalf("expected ErrLaunch, got %v", err)
			}
		})
	}
}
