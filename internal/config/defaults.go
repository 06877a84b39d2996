package config

const (
	defaultConfigPath    = "~/.config/lyricreel/config.toml"
	defaultHTMLDir       = "~/.local/share/lyricreel/html"
	defaultEntry         = "index.html"
	defaultLogDir        = "~/.local/share/lyricreel/logs"
	defaultHistoryDB     = "~/.local/share/lyricreel/history.db"
	defaultWidth         = 1080
	defaultHeight        = 2160
	defaultFrameRate     = 30
	defaultFrameFormat   = FrameFormatRGBA
	defaultOrigin        = "http://lyricreel.local"
	defaultController    = "window.lv.controller"
	defaultLoadTimeout   = 30
	defaultSetupTimeout  = 60
	defaultFrameTimeout  = 10
	defaultFFmpegBinary  = "ffmpeg"
	defaultFFprobeBinary = "ffprobe"
	defaultCodec         = "libx264"
	defaultPreset        = "medium"
	defaultQuality       = 23
	defaultPixelFormat   = "yuv420p"
	defaultFinishTimeout = 30
	defaultLogFormat     = "console"
	defaultLogLevel      = "info"
	defaultLogMaxSizeMB  = 20
	defaultLogMaxBackups = 5
	defaultLogMaxAgeDays = 30

	maxFrameRate = 240
	maxQuality   = 51
)

// Frame formats accepted by render.frame_format.
const (
	FrameFormatRGBA = "rgba"
	FrameFormatPNG  = "png"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			HTMLDir:   defaultHTMLDir,
			Entry:     defaultEntry,
			AssetDir:  defaultAssetDir(),
			LogDir:    defaultLogDir,
			HistoryDB: defaultHistoryDB,
		},
		Render: Render{
			Width:        defaultWidth,
			Height:       defaultHeight,
			FrameRate:    defaultFrameRate,
			FrameFormat:  defaultFrameFormat,
			Origin:       defaultOrigin,
			Controller:   defaultController,
			LoadTimeout:  defaultLoadTimeout,
			SetupTimeout: defaultSetupTimeout,
			FrameTimeout: defaultFrameTimeout,
		},
		Browser: Browser{
			Headless: true,
		},
		Encoder: Encoder{
			Binary:        defaultFFmpegBinary,
			FFprobeBinary: defaultFFprobeBinary,
			Codec:         defaultCodec,
			Preset:        defaultPreset,
			Quality:       defaultQuality,
			PixelFormat:   defaultPixelFormat,
			FinishTimeout: defaultFinishTimeout,
		},
		Logging: Logging{
			Format:     defaultLogFormat,
			Level:      defaultLogLevel,
			MaxSizeMB:  defaultLogMaxSizeMB,
			MaxBackups: defaultLogMaxBackups,
			MaxAgeDays: defaultLogMaxAgeDays,
		},
	}
}
