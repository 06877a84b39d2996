package render

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"lyricreel/internal/logging"
)

var (
	// ErrLaunch reports that the browser could not be started or connected.
	ErrLaunch = errors.New("browser launch failed")
	// ErrLoad reports that the entry page failed to load.
	ErrLoad = errors.New("page load failed")
	// ErrSetup reports that the page controller rejected its configuration.
	ErrSetup = errors.New("page setup failed")
	// ErrAdvance reports that the page failed to move to a frame.
	ErrAdvance = errors.New("frame advance failed")
	// ErrCapture reports that the viewport could not be captured.
	ErrCapture = errors.New("frame capture failed")
)

var lookBrowser = launcher.LookPath

// Session is one browser process with one page.
type Session struct {
	opts     Options
	logger   *slog.Logger
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
	router   *rod.HijackRouter
	resolver resolver

	closeOnce sync.Once
	closeErr  error
}

// Launch starts the browser, opens a page with a fixed viewport and installs
// request interception for the configured origin.
func Launch(ctx context.Context, opts Options, logger *slog.Logger) (*Session, error) {
	opts = opts.withDefaults()
	logger = logging.WithContext(ctx, logging.NewComponentLogger(logger, "render"))
	if err := opts.validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLaunch, err)
	}

	bin := strings.TrimSpace(opts.BrowserBin)
	if bin == "" {
		found, ok := lookBrowser()
		if !ok {
			return nil, fmt.Errorf("%w: no chromium-compatible browser found; set browser.binary", ErrLaunch)
		}
		bin = found
	}

	s := &Session{opts: opts, logger: logger, resolver: newResolver(opts.Mounts)}

	s.launcher = launcher.New().
		Context(ctx).
		Bin(bin).
		Headless(opts.Headless).
		NoSandbox(opts.NoSandbox).
		Leakless(true)
	controlURL, err := s.launcher.Launch()
	if err != nil {
		return nil, fmt.Errorf("%w: start %s: %v", ErrLaunch, bin, err)
	}

	s.browser = rod.New().ControlURL(controlURL)
	if err := s.browser.Connect(); err != nil {
		s.shutdown()
		return nil, fmt.Errorf("%w: connect: %v", ErrLaunch, err)
	}

	page, err := s.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		s.shutdown()
		return nil, fmt.Errorf("%w: open page: %v", ErrLaunch, err)
	}
	s.page = page

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             opts.Width,
		Height:            opts.Height,
		DeviceScaleFactor: 1,
	}); err != nil {
		s.shutdown()
		return nil, fmt.Errorf("%w: set viewport: %v", ErrLaunch, err)
	}

	s.router = page.HijackRequests()
	if err := s.router.Add(opts.Origin+"/*", "", s.serve); err != nil {
		s.shutdown()
		return nil, fmt.Errorf("%w: install interception: %v", ErrLaunch, err)
	}
	go s.router.Run()

	logger.Info("browser session started",
		logging.String("browser", bin),
		logging.String("origin", opts.Origin),
		logging.Int("width", opts.Width),
		logging.Int("height", opts.Height),
		logging.String("frame_format", opts.FrameFormat),
		logging.Bool("headless", opts.Headless),
	)
	return s, nil
}

// serve answers one intercepted request from the mounted directories.
func (s *Session) serve(h *rod.Hijack) {
	reqURL := h.Request.URL()
	local, err := s.resolver.resolve(reqURL.Path)
	if err != nil {
		s.logger.Debug("intercepted request not served",
			logging.String("url", reqURL.String()),
			logging.String("reason", err.Error()),
		)
		h.Response.Fail(proto.NetworkErrorReasonFailed)
		return
	}
	body, err := os.ReadFile(local)
	if err != nil {
		s.logger.Debug("intercepted request read failed",
			logging.String("url", reqURL.String()),
			logging.String("path", local),
			logging.Error(err),
		)
		h.Response.Fail(proto.NetworkErrorReasonFailed)
		return
	}
	h.Response.Payload().ResponseCode = 200
	h.Response.SetHeader("Content-Type", contentType(local))
	h.Response.SetBody(body)
	s.logger.Debug("intercepted request served",
		logging.String("url", reqURL.String()),
		logging.String("path", local),
		logging.Int("bytes", len(body)),
	)
}

// URL returns the absolute URL of rel under the session origin.
func (s *Session) URL(rel string) string {
	return urlFor(s.opts.Origin, rel)
}

// FrameSize returns the viewport size.
func (s *Session) FrameSize() (int, int) {
	return s.opts.Width, s.opts.Height
}

// Open navigates to entryURL and waits for the load event.
func (s *Session) Open(ctx context.Context, entryURL string) error {
	ctx, cancel := context.WithTimeout(ctx, s.opts.LoadTimeout)
	defer cancel()

	page := s.page.Context(ctx)
	if err := page.Navigate(entryURL); err != nil {
		return fmt.Errorf("%w: navigate %s: %v", ErrLoad, entryURL, err)
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("%w: wait for %s: %v", ErrLoad, entryURL, err)
	}
	s.logger.Info("entry page loaded", logging.String("url", entryURL))
	return nil
}

// Configure hands the song configuration URL to the page controller and waits
// for its setup promise.
func (s *Session) Configure(ctx context.Context, configURL string) error {
	ctx, cancel := context.WithTimeout(ctx, s.opts.SetupTimeout)
	defer cancel()

	started := time.Now()
	js := fmt.Sprintf("(url) => %s.setup(url)", s.opts.Controller)
	if _, err := s.page.Context(ctx).Eval(js, configURL); err != nil {
		return fmt.Errorf("%w: %s.setup(%q): %v", ErrSetup, s.opts.Controller, configURL, err)
	}
	s.logger.Info("page configured",
		logging.String("config_url", configURL),
		logging.Duration("elapsed", time.Since(started)),
	)
	return nil
}

// Advance moves the page timeline to frame at rate frames per second.
func (s *Session) Advance(ctx context.Context, frame int, rate float64) error {
	ctx, cancel := context.WithTimeout(ctx, s.opts.FrameTimeout)
	defer cancel()

	js := fmt.Sprintf("(f, r) => %s.updateFrame(f, r)", s.opts.Controller)
	if _, err := s.page.Context(ctx).Eval(js, frame, rate); err != nil {
		if ctxErr := parentErr(ctx); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: frame %d: %v", ErrAdvance, frame, err)
	}
	return nil
}

// Capture screenshots the viewport and returns it in the configured format.
func (s *Session) Capture(ctx context.Context) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.FrameTimeout)
	defer cancel()

	shot, err := s.page.Context(ctx).Screenshot(false, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		if ctxErr := parentErr(ctx); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %v", ErrCapture, err)
	}
	return convertFrame(shot, s.opts.FrameFormat, s.opts.Width, s.opts.Height)
}

// Close stops interception and shuts the browser down. Later calls return the
// first result.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.shutdown()
		s.logger.Info("browser session closed")
	})
	return s.closeErr
}

func (s *Session) shutdown() error {
	var errs []error
	if s.router != nil {
		if err := s.router.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("stop interception: %w", err))
		}
	}
	if s.browser != nil {
		if err := s.browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close browser: %w", err))
		}
	}
	if s.launcher != nil {
		s.launcher.Kill()
		s.launcher.Cleanup()
	}
	return errors.Join(errs...)
}

// parentErr reports cancellation of the caller's context as opposed to the
// per-call timeout.
func parentErr(ctx context.Context) error {
	if err := ctx.Err(); errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
