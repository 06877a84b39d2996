package render

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"lyricreel/internal/config"
)

// Frame formats produced by Capture.
const (
	FormatRGBA = config.FrameFormatRGBA
	FormatPNG  = config.FrameFormatPNG
)

// Mount serves files from Dir for request paths under Prefix.
type Mount struct {
	Prefix string
	Dir    string
}

// Options configures a render session.
type Options struct {
	Width       int
	Height      int
	FrameFormat string
	Origin      string
	Controller  string
	Mounts      []Mount

	BrowserBin string
	NoSandbox  bool
	Headless   bool

	LoadTimeout  time.Duration
	SetupTimeout time.Duration
	FrameTimeout time.Duration
}

// OptionsFromConfig maps application settings onto session options. The HTML
// directory is mounted at the origin root.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Width:        cfg.Render.Width,
		Height:       cfg.Render.Height,
		FrameFormat:  cfg.Render.FrameFormat,
		Origin:       cfg.Render.Origin,
		Controller:   cfg.Render.Controller,
		Mounts:       []Mount{{Prefix: "/", Dir: cfg.Paths.HTMLDir}},
		BrowserBin:   cfg.Browser.Binary,
		NoSandbox:    cfg.Browser.NoSandbox,
		Headless:     cfg.Browser.Headless,
		LoadTimeout:  cfg.LoadTimeout(),
		SetupTimeout: cfg.SetupTimeout(),
		FrameTimeout: cfg.FrameTimeout(),
	}
}

// WithMount returns a copy of o with an extra mount.
func (o Options) WithMount(prefix, dir string) Options {
	mounts := make([]Mount, 0, len(o.Mounts)+1)
	mounts = append(mounts, o.Mounts...)
	o.Mounts = append(mounts, Mount{Prefix: prefix, Dir: dir})
	return o
}

func (o Options) validate() error {
	if o.Width <= 0 || o.Height <= 0 {
		return fmt.Errorf("invalid viewport %dx%d", o.Width, o.Height)
	}
	switch o.FrameFormat {
	case FormatRGBA, FormatPNG:
	default:
		return fmt.Errorf("unsupported frame format %q", o.FrameFormat)
	}
	parsed, err := url.Parse(o.Origin)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return fmt.Errorf("invalid origin %q", o.Origin)
	}
	if strings.TrimSpace(o.Controller) == "" {
		return fmt.Errorf("controller expression is empty")
	}
	return nil
}

func (o Options) withDefaults() Options {
	o.FrameFormat = strings.ToLower(strings.TrimSpace(o.FrameFormat))
	if o.FrameFormat == "" {
		o.FrameFormat = FormatRGBA
	}
	o.Origin = strings.TrimRight(strings.TrimSpace(o.Origin), "/")
	o.Controller = strings.TrimSpace(o.Controller)
	if o.LoadTimeout <= 0 {
		o.LoadTimeout = 30 * time.Second
	}
	if o.SetupTimeout <= 0 {
		o.SetupTimeout = 60 * time.Second
	}
	if o.FrameTimeout <= 0 {
		o.FrameTimeout = 10 * time.Second
	}
	return o
}

// urlFor joins rel onto origin.
func urlFor(origin, rel string) string {
	rel = strings.TrimLeft(strings.ReplaceAll(rel, "\\", "/"), "/")
	return strings.TrimRight(origin, "/") + "/" + rel
}
