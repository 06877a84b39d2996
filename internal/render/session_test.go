package render

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"lyricreel/internal/logging"
)

const testPage = `<!doctype html>
<html><body style="margin:0">
<canvas id="c" width="16" height="8"></canvas>
<script>
window.lv = { controller: {
  config: null,
  async setup(url) {
    const res = await fetch(url);
    if (!res.ok) throw new Error("config " + res.status);
    this.config = await res.json();
  },
  updateFrame(frame, rate) {
    const ctx = document.getElementById("c").getContext("2d");
    ctx.fillStyle = "rgb(" + (frame * 10) + ",0,0)";
    ctx.fillRect(0, 0, 16, 8);
  },
}};
</script>
</body></html>`

func launchTestSession(t *testing.T, format string) (*Session, string) {
	t.Helper()
	if testing.Short() {
		t.Skip("browser test skipped in short mode")
	}
	if _, ok := lookBrowser(); !ok {
		t.Skip("no chromium-compatible browser installed")
	}
	html := t.TempDir()
	assets := t.TempDir()
	writeFile(t, filepath.Join(html, "index.html"), testPage)
	writeFile(t, filepath.Join(assets, "song.json"), `{"mode":"single"}`)

	opts := Options{
		Width:        16,
		Height:       8,
		FrameFormat:  format,
		Origin:       "http://lyricreel.local",
		Controller:   "window.lv.controller",
		Mounts:       []Mount{{Prefix: "/", Dir: html}, {Prefix: "/assets/", Dir: assets}},
		NoSandbox:    true,
		Headless:     true,
		LoadTimeout:  20 * time.Second,
		SetupTimeout: 20 * time.Second,
		FrameTimeout: 10 * time.Second,
	}
	session, err := Launch(context.Background(), opts, logging.NewNop())
	if err != nil {
		t.Fatalf("Launch: %v", err)
	}
	t.Cleanup(func() { _ = session.Close() })
	return session, session.URL("assets/song.json")
}

func TestSessionRendersFrames(t *testing.T) {
	session, configURL := launchTestSession(t, FormatRGBA)
	ctx := context.Background()

	if err := session.Open(ctx, session.URL("index.html")); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := session.Configure(ctx, configURL); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	for frame := 0; frame < 3; frame++ {
		if err := session.Advance(ctx, frame, 10); err != nil {
			t.Fatalf("Advance(%d): %v", frame, err)
		}
		raw, err := session.Capture(ctx)
		if err != nil {
			t.Fatalf("Capture(%d): %v", frame, err)
		}
		if len(raw) != 16*8*4 {
			t.Fatalf("frame %d has %d bytes", frame, len(raw))
		}
		if got := int(raw[0]); got < frame*10-2 || got > frame*10+2 {
			t.Fatalf("frame %d red channel = %d", frame, got)
		}
	}
	if err := session.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := session.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestSessionSetupFailsForMissingConfig(t *testing.T) {
	session, _ := launchTestSession(t, FormatPNG)
	ctx := context.Background()
	if err := session.Open(ctx, session.URL("index.html")); err != nil {
		t.Fatalf("Open: %v", err)
	}
	err := session.Configure(ctx, session.URL("assets/missing.json"))
	if !errors.Is(err, ErrSetup) {
		t.Fatalf("expected ErrSetup, got %v", err)
	}
}

func TestLaunchWithoutBrowser(t *testing.T) {
	orig := lookBrowser
	lookBrowser = func() (string, bool) { return "", false }
	t.Cleanup(func() { lookBrowser = orig })

	_, err := Launch(context.Background(), Options{Width: 2, Height: 2, Origin: "http://x.test", Controller: "c"}, nil)
	if !errors.Is(err, ErrLaunch) {
		t.Fatalf("expected ErrLaunch, got %v", err)
	}
}
