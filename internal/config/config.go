package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and file locations.
type Paths struct {
	HTMLDir   string `toml:"html_dir"`
	Entry     string `toml:"entry"`
	AssetDir  string `toml:"asset_dir"`
	LogDir    string `toml:"log_dir"`
	HistoryDB string `toml:"history_db"`
}

// Render contains frame geometry and in-page controller settings.
type Render struct {
	Width        int     `toml:"width"`
	Height       int     `toml:"height"`
	FrameRate    float64 `toml:"frame_rate"`
	FrameFormat  string  `toml:"frame_format"`
	Origin       string  `toml:"origin"`
	Controller   string  `toml:"controller"`
	LoadTimeout  int     `toml:"load_timeout"`
	SetupTimeout int     `toml:"setup_timeout"`
	FrameTimeout int     `toml:"frame_timeout"`
}

// Browser contains headless browser launch settings.
type Browser struct {
	Binary    string `toml:"binary"`
	NoSandbox bool   `toml:"no_sandbox"`
	Headless  bool   `toml:"headless"`
}

// Encoder contains ffmpeg invocation settings.
type Encoder struct {
	Binary        string   `toml:"binary"`
	FFprobeBinary string   `toml:"ffprobe_binary"`
	Codec         string   `toml:"codec"`
	Preset        string   `toml:"preset"`
	Quality       int      `toml:"quality"`
	PixelFormat   string   `toml:"pixel_format"`
	FinishTimeout int      `toml:"finish_timeout"`
	ExtraArgs     []string `toml:"extra_args"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format     string `toml:"format"`
	Level      string `toml:"level"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
	Compress   bool   `toml:"compress"`
}

// Config encapsulates all configuration values for lyricreel.
//
// Configuration sections by subsystem:
//   - Paths: page directory, entry page, asset scratch dir, logs, history database
//   - Render: frame geometry, frame rate, controller expression, timeouts
//   - Browser: headless browser binary and sandbox flags
//   - Encoder: ffmpeg/ffprobe binaries and output encoding settings
//   - Logging: log format, level, and file rotation
type Config struct {
	Paths   Paths   `toml:"paths"`
	Render  Render  `toml:"render"`
	Browser Browser `toml:"browser"`
	Encoder Encoder `toml:"encoder"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("lyricreel.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the writable directories a render needs. The page
// directory is not created: it must already hold the entry page.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.AssetDir, c.Paths.LogDir}
	if strings.TrimSpace(c.Paths.HistoryDB) != "" {
		dirs = append(dirs, filepath.Dir(c.Paths.HistoryDB))
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// EntryPath returns the absolute path of the entry page on disk.
func (c *Config) EntryPath() string {
	return filepath.Join(c.Paths.HTMLDir, filepath.FromSlash(c.Paths.Entry))
}

// FFmpegBinary returns the ffmpeg executable used for encoding.
func (c *Config) FFmpegBinary() string {
	if bin := strings.TrimSpace(c.Encoder.Binary); bin != "" {
		return bin
	}
	return defaultFFmpegBinary
}

// FFprobeBinary returns the ffprobe executable name used for metadata probing.
func (c *Config) FFprobeBinary() string {
	if bin := strings.TrimSpace(c.Encoder.FFprobeBinary); bin != "" {
		return bin
	}
	return defaultFFprobeBinary
}

// LoadTimeout returns the page load budget.
func (c *Config) LoadTimeout() time.Duration {
	return time.Duration(c.Render.LoadTimeout) * time.Second
}

// SetupTimeout returns the controller setup budget.
func (c *Config) SetupTimeout() time.Duration {
	return time.Duration(c.Render.SetupTimeout) * time.Second
}

// FrameTimeout returns the per-frame advance and capture budget.
func (c *Config) FrameTimeout() time.Duration {
	return time.Duration(c.Render.FrameTimeout) * time.Second
}

// FinishTimeout returns how long the encoder may take to finalize after stdin closes.
func (c *Config) FinishTimeout() time.Duration {
	return time.Duration(c.Encoder.FinishTimeout) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func defaultAssetDir() string {
	if base, ok := os.LookupEnv("XDG_CACHE_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "lyricreel", "assets")
	}
	return "~/.cache/lyricreel/assets"
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
