package preflight

import (
	"context"
	"fmt"
	"os"
	"strings"

	"golang.org/x/sys/unix"

	"lyricreel/internal/config"
	"lyricreel/internal/deps"
)

// Access modes for CheckDirectoryAccess.
const (
	AccessRead      = unix.R_OK | unix.X_OK
	AccessReadWrite = unix.R_OK | unix.W_OK | unix.X_OK
)

// CheckDirectoryAccess verifies that the directory exists and grants mode.
func CheckDirectoryAccess(name, path string, mode uint32) Result {
	if strings.TrimSpace(path) == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, mode); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	label := "read ok"
	if mode&unix.W_OK != 0 {
		label = "read/write ok"
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%s)", path, label)}
}

// CheckEntryPage verifies that the entry page exists below the page directory.
func CheckEntryPage(cfg *config.Config) Result {
	const name = "Entry page"
	path := cfg.EntryPath()
	info, err := os.Stat(path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	if !info.Mode().IsRegular() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: not a regular file)", path)}
	}
	return Result{Name: name, Passed: true, Detail: path}
}

// CheckGeometry verifies that the browser viewport matches the encoder frame
// size and that both dimensions suit the output pixel format.
func CheckGeometry(viewWidth, viewHeight, frameWidth, frameHeight int, pixelFormat string) Result {
	const name = "Frame geometry"
	if viewWidth != frameWidth || viewHeight != frameHeight {
		return Result{Name: name, Detail: fmt.Sprintf("viewport %dx%d differs from encoder frame %dx%d", viewWidth, viewHeight, frameWidth, frameHeight)}
	}
	if frameWidth <= 0 || frameHeight <= 0 {
		return Result{Name: name, Detail: fmt.Sprintf("invalid frame size %dx%d", frameWidth, frameHeight)}
	}
	if chromaSubsampled(pixelFormat) && (frameWidth%2 != 0 || frameHeight%2 != 0) {
		return Result{Name: name, Detail: fmt.Sprintf("%dx%d is not even, required by %s", frameWidth, frameHeight, pixelFormat)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%dx%d", frameWidth, frameHeight)}
}

func chromaSubsampled(pixelFormat string) bool {
	pf := strings.ToLower(strings.TrimSpace(pixelFormat))
	return strings.HasPrefix(pf, "yuv420") || strings.HasPrefix(pf, "yuvj420") || strings.HasPrefix(pf, "nv12")
}

// CheckSystemDeps evaluates the external binaries a render depends on.
func CheckSystemDeps(ctx context.Context, cfg *config.Config) []deps.Status {
	statuses := deps.CheckBinaries([]deps.Requirement{
		{
			Name:        "FFmpeg",
			Command:     cfg.FFmpegBinary(),
			Description: "Required for encoding",
		},
		{
			Name:        "FFprobe",
			Command:     cfg.FFprobeBinary(),
			Description: "Reads audio tags for song write and verifies rendered output",
			Optional:    true,
		},
	})
	for i := range statuses {
		if !statuses[i].Available {
			continue
		}
		if line, err := deps.VersionLine(ctx, statuses[i].Command); err == nil && line != "" {
			statuses[i].Detail = line
		}
	}
	return append(statuses, deps.CheckBrowser(cfg.Browser.Binary))
}
