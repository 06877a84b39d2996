package encoder

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Input formats accepted on stdin.
const (
	InputRGBA = "rgba"
	InputPNG  = "png"
)

const (
	defaultCodec       = "libx264"
	defaultPixelFormat = "yuv420p"
	defaultKillGrace   = 5 * time.Second
	stderrTailBytes    = 64 << 10
)

// Options configures one ffmpeg invocation.
type Options struct {
	Binary      string
	OutputPath  string
	Width       int
	Height      int
	FrameRate   float64
	Quality     int
	InputFormat string
	Codec       string
	Preset      string
	PixelFormat string
	ExtraArgs   []string
	// KillGrace bounds how long Finish waits after interrupting ffmpeg
	// before killing it.
	KillGrace time.Duration
}

func (o Options) withDefaults() Options {
	o.Binary = strings.TrimSpace(o.Binary)
	if o.Binary == "" {
		o.Binary = "ffmpeg"
	}
	o.InputFormat = strings.ToLower(strings.TrimSpace(o.InputFormat))
	if o.InputFormat == "" {
		o.InputFormat = InputRGBA
	}
	if strings.TrimSpace(o.Codec) == "" {
		o.Codec = defaultCodec
	}
	if strings.TrimSpace(o.PixelFormat) == "" {
		o.PixelFormat = defaultPixelFormat
	}
	if o.KillGrace <= 0 {
		o.KillGrace = defaultKillGrace
	}
	return o
}

func (o Options) validate() error {
	if strings.TrimSpace(o.OutputPath) == "" {
		return fmt.Errorf("empty output path")
	}
	if o.Width <= 0 || o.Height <= 0 {
		return fmt.Errorf("invalid frame size %dx%d", o.Width, o.Height)
	}
	if o.FrameRate <= 0 {
		return fmt.Errorf("invalid frame rate %v", o.FrameRate)
	}
	switch o.InputFormat {
	case InputRGBA, InputPNG:
	default:
		return fmt.Errorf("unsupported input format %q", o.InputFormat)
	}
	return nil
}

// frameBytes returns the fixed frame length for raw input, or 0 when frames
// are self-delimiting.
func (o Options) frameBytes() int {
	if o.InputFormat == InputRGBA {
		return o.Width * o.Height * 4
	}
	return 0
}

// Args returns the ffmpeg argument list for o.
func (o Options) Args() []string {
	o = o.withDefaults()
	rate := strconv.FormatFloat(o.FrameRate, 'f', -1, 64)
	args := []string{"-y", "-hide_banner", "-loglevel", "error"}
	switch o.InputFormat {
	case InputPNG:
		args = append(args, "-f", "image2pipe", "-c:v", "png", "-framerate", rate)
	default:
		args = append(args,
			"-f", "rawvideo",
			"-pix_fmt", "rgba",
			"-s", fmt.Sprintf("%dx%d", o.Width, o.Height),
			"-framerate", rate,
		)
	}
	args = append(args, "-i", "pipe:0", "-c:v", o.Codec)
	if preset := strings.TrimSpace(o.Preset); preset != "" {
		args = append(args, "-preset", preset)
	}
	args = append(args,
		"-crf", strconv.Itoa(o.Quality),
		"-pix_fmt", o.PixelFormat,
		"-movflags", "+faststart",
	)
	args = append(args, o.ExtraArgs...)
	return append(args, o.OutputPath)
}
