package config

import (
	"fmt"
	"os"
	"path"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeRender()
	c.normalizeBrowser()
	c.normalizeEncoder()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.HTMLDir) == "" {
		c.Paths.HTMLDir = defaultHTMLDir
	}
	if c.Paths.HTMLDir, err = expandPath(c.Paths.HTMLDir); err != nil {
		return fmt.Errorf("paths.html_dir: %w", err)
	}
	entry := strings.TrimSpace(strings.ReplaceAll(c.Paths.Entry, "\\", "/"))
	if entry == "" {
		entry = defaultEntry
	}
	c.Paths.Entry = strings.TrimPrefix(path.Clean("/"+entry), "/")
	if strings.TrimSpace(c.Paths.AssetDir) == "" {
		c.Paths.AssetDir = defaultAssetDir()
	}
	if c.Paths.AssetDir, err = expandPath(c.Paths.AssetDir); err != nil {
		return fmt.Errorf("paths.asset_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.HistoryDB, err = expandPath(c.Paths.HistoryDB); err != nil {
		return fmt.Errorf("paths.history_db: %w", err)
	}
	return nil
}

func (c *Config) normalizeRender() {
	c.Render.FrameFormat = strings.ToLower(strings.TrimSpace(c.Render.FrameFormat))
	if c.Render.FrameFormat == "" {
		c.Render.FrameFormat = defaultFrameFormat
	}
	c.Render.Origin = strings.TrimRight(strings.TrimSpace(c.Render.Origin), "/")
	if c.Render.Origin == "" {
		c.Render.Origin = defaultOrigin
	}
	c.Render.Controller = strings.TrimSpace(c.Render.Controller)
	if c.Render.Controller == "" {
		c.Render.Controller = defaultController
	}
}

func (c *Config) normalizeBrowser() {
	c.Browser.Binary = strings.TrimSpace(c.Browser.Binary)
	if c.Browser.Binary == "" {
		if value, ok := os.LookupEnv("LYRICREEL_BROWSER"); ok {
			c.Browser.Binary = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeEncoder() {
	c.Encoder.Binary = strings.TrimSpace(c.Encoder.Binary)
	if value, ok := os.LookupEnv("LYRICREEL_FFMPEG"); ok && strings.TrimSpace(value) != "" {
		if c.Encoder.Binary == "" || c.Encoder.Binary == defaultFFmpegBinary {
			c.Encoder.Binary = strings.TrimSpace(value)
		}
	}
	if c.Encoder.Binary == "" {
		c.Encoder.Binary = defaultFFmpegBinary
	}
	c.Encoder.FFprobeBinary = strings.TrimSpace(c.Encoder.FFprobeBinary)
	if c.Encoder.FFprobeBinary == "" {
		c.Encoder.FFprobeBinary = defaultFFprobeBinary
	}
	c.Encoder.Codec = strings.TrimSpace(c.Encoder.Codec)
	if c.Encoder.Codec == "" {
		c.Encoder.Codec = defaultCodec
	}
	c.Encoder.Preset = strings.TrimSpace(c.Encoder.Preset)
	c.Encoder.PixelFormat = strings.TrimSpace(c.Encoder.PixelFormat)
	if c.Encoder.PixelFormat == "" {
		c.Encoder.PixelFormat = defaultPixelFormat
	}
	args := make([]string, 0, len(c.Encoder.ExtraArgs))
	for _, arg := range c.Encoder.ExtraArgs {
		if trimmed := strings.TrimSpace(arg); trimmed != "" {
			args = append(args, trimmed)
		}
	}
	c.Encoder.ExtraArgs = args
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.MaxSizeMB < 0 {
		c.Logging.MaxSizeMB = 0
	}
	if c.Logging.MaxBackups < 0 {
		c.Logging.MaxBackups = 0
	}
	if c.Logging.MaxAgeDays < 0 {
		c.Logging.MaxAgeDays = 0
	}
}
