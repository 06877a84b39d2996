package config

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateRender(); err != nil {
		return err
	}
	if err := c.validateEncoder(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.HTMLDir) == "" {
		return errors.New("paths.html_dir must be set")
	}
	if strings.TrimSpace(c.Paths.Entry) == "" {
		return errors.New("paths.entry must be set")
	}
	if strings.TrimSpace(c.Paths.AssetDir) == "" {
		return errors.New("paths.asset_dir must be set")
	}
	return nil
}

func (c *Config) validateRender() error {
	if c.Render.Width <= 0 || c.Render.Height <= 0 {
		return fmt.Errorf("render.width and render.height must be positive (got %dx%d)", c.Render.Width, c.Render.Height)
	}
	if c.Render.Width%2 != 0 || c.Render.Height%2 != 0 {
		return fmt.Errorf("render.width and render.height must be even for 4:2:0 output (got %dx%d)", c.Render.Width, c.Render.Height)
	}
	if c.Render.FrameRate <= 0 || c.Render.FrameRate > maxFrameRate {
		return fmt.Errorf("render.frame_rate must be in (0, %d] (got %v)", maxFrameRate, c.Render.FrameRate)
	}
	switch c.Render.FrameFormat {
	case FrameFormatRGBA, FrameFormatPNG:
	default:
		return fmt.Errorf("render.frame_format must be %q or %q (got %q)", FrameFormatRGBA, FrameFormatPNG, c.Render.FrameFormat)
	}
	origin, err := url.Parse(c.Render.Origin)
	if err != nil {
		return fmt.Errorf("render.origin: %w", err)
	}
	if (origin.Scheme != "http" && origin.Scheme != "https") || origin.Host == "" {
		return fmt.Errorf("render.origin must be an absolute http(s) URL (got %q)", c.Render.Origin)
	}
	if origin.Path != "" || origin.RawQuery != "" || origin.Fragment != "" {
		return fmt.Errorf("render.origin must not carry a path, query, or fragment (got %q)", c.Render.Origin)
	}
	if strings.TrimSpace(c.Render.Controller) == "" {
		return errors.New("render.controller must be set")
	}
	return ensurePositiveMap(map[string]int{
		"render.load_timeout":    c.Render.LoadTimeout,
		"render.setup_timeout":   c.Render.SetupTimeout,
		"render.frame_timeout":   c.Render.FrameTimeout,
		"encoder.finish_timeout": c.Encoder.FinishTimeout,
	})
}

func (c *Config) validateEncoder() error {
	if strings.TrimSpace(c.Encoder.Binary) == "" {
		return errors.New("encoder.binary must be set")
	}
	if strings.TrimSpace(c.Encoder.Codec) == "" {
		return errors.New("encoder.codec must be set")
	}
	if c.Encoder.Quality < 0 || c.Encoder.Quality > maxQuality {
		return fmt.Errorf("encoder.quality must be between 0 and %d (got %d)", maxQuality, c.Encoder.Quality)
	}
	if strings.TrimSpace(c.Encoder.PixelFormat) == "" {
		return errors.New("encoder.pixel_format must be set")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error (got %q)", c.Logging.Level)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if values[key] <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
