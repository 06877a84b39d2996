package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"lyricreel/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.HTMLDir = filepath.Join(base, "html")
	cfgVal.Paths.AssetDir = filepath.Join(base, "assets")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.HistoryDB = filepath.Join(base, "history.db")
	cfgVal.Render.Width = 64
	cfgVal.Render.Height = 32
	cfgVal.Render.FrameRate = 10
	cfgVal.Encoder.FinishTimeout = 5
	cfgVal.Browser.NoSandbox = true

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithFrameSize overrides the render geometry.
func WithFrameSize(width, height int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Render.Width = width
		b.cfg.Render.Height = height
	}
}

// WithFrameRate overrides the render frame rate.
func WithFrameRate(rate float64) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Render.FrameRate = rate
	}
}

// WithEntryPage writes a minimal entry page into the html directory.
func WithEntryPage(html string) ConfigOption {
	return func(b *configBuilder) {
		WriteText(b.t, filepath.Join(b.cfg.Paths.HTMLDir, filepath.FromSlash(b.cfg.Paths.Entry)), html)
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, ffmpeg and ffprobe are stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"ffmpeg", "ffprobe"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		for _, name := range names {
			WriteScript(b.t, binDir, name, "exit 0\n")
		}
		PrependPath(b.t, binDir)
	}
}

// WithFFmpegScript installs an ffmpeg stub with the given body and points the
// config at it.
func WithFFmpegScript(body string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Encoder.Binary = WriteScript(b.t, filepath.Join(b.baseDir, "bin"), "ffmpeg", body)
	}
}

// PrependPath puts dir first on PATH for the duration of the test.
func PrependPath(t testing.TB, dir string) {
	t.Helper()
	oldPath := os.Getenv("PATH")
	if err := os.Setenv("PATH", dir+string(os.PathListSeparator)+oldPath); err != nil {
		t.Fatalf("set PATH: %v", err)
	}
	t.Cleanup(func() {
		_ = os.Setenv("PATH", oldPath)
	})
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.AssetDir)
}
