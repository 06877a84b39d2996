package workflow

import (
	"context"
	"log/slog"

	"lyricreel/internal/encoder"
	"lyricreel/internal/frameloop"
	"lyricreel/internal/media/ffprobe"
	"lyricreel/internal/render"
)

// Session is the browser side of a render.
type Session interface {
	frameloop.Renderer
	Open(ctx context.Context, entryURL string) error
	Configure(ctx context.Context, configURL string) error
	URL(rel string) string
	FrameSize() (int, int)
}

// Encoder is the ffmpeg side of a render.
type Encoder interface {
	frameloop.Sink
	FrameSize() (int, int)
}

// SessionLauncher starts a browser session.
type SessionLauncher func(ctx context.Context, opts render.Options, logger *slog.Logger) (Session, error)

// EncoderStarter starts an encoder.
type EncoderStarter func(ctx context.Context, opts encoder.Options, logger *slog.Logger) (Encoder, error)

var launchSession SessionLauncher = func(ctx context.Context, opts render.Options, logger *slog.Logger) (Session, error) {
	s, err := render.Launch(ctx, opts, logger)
	if err != nil {
		return nil, err
	}
	return s, nil
}

var startEncoder EncoderStarter = func(ctx context.Context, opts encoder.Options, logger *slog.Logger) (Encoder, error) {
	p, err := encoder.Start(ctx, opts, logger)
	if err != nil {
		return nil, err
	}
	return p, nil
}

var verifyProbe = ffprobe.Inspect

// SetSessionLauncherForTests overrides browser session construction.
func SetSessionLauncherForTests(fn SessionLauncher) func() {
	previous := launchSession
	launchSession = fn
	return func() {
		launchSession = previous
	}
}

// SetEncoderStarterForTests overrides encoder construction.
func SetEncoderStarterForTests(fn EncoderStarter) func() {
	previous := startEncoder
	startEncoder = fn
	return func() {
		startEncoder = previous
	}
}

// SetProbeForTests overrides the ffprobe runner used to verify output.
func SetProbeForTests(fn func(context.Context, string, string) (ffprobe.Result, error)) func() {
	previous := verifyProbe
	verifyProbe = fn
	return func() {
		verifyProbe = previous
	}
}
