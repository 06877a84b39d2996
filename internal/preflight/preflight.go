package preflight

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"lyricreel/internal/config"
	"lyricreel/internal/deps"
)

// ErrFailed reports that at least one required check failed.
var ErrFailed = errors.New("preflight failed")

// Result reports the outcome of a single preflight check.
type Result struct {
	Name     string
	Passed   bool
	Optional bool
	Detail   string
}

// RunAll executes every preflight check for cfg.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Page directory", cfg.Paths.HTMLDir, AccessRead),
		CheckEntryPage(cfg),
		CheckDirectoryAccess("Asset directory", cfg.Paths.AssetDir, AccessReadWrite),
		CheckGeometry(cfg.Render.Width, cfg.Render.Height, cfg.Render.Width, cfg.Render.Height, cfg.Encoder.PixelFormat),
	}
	for _, status := range CheckSystemDeps(ctx, cfg) {
		results = append(results, fromStatus(status))
	}
	return results
}

func fromStatus(status deps.Status) Result {
	detail := status.Detail
	if status.Available {
		if detail == "" {
			detail = status.Command
		} else {
			detail = status.Command + " (" + detail + ")"
		}
	}
	return Result{
		Name:     status.Name,
		Passed:   status.Available,
		Optional: status.Optional,
		Detail:   detail,
	}
}

// Failures returns the required checks that did not pass.
func Failures(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed && !r.Optional {
			failed = append(failed, r)
		}
	}
	return failed
}

// Err summarizes failed required checks, or returns nil when all passed.
func Err(results []Result) error {
	failed := Failures(results)
	if len(failed) == 0 {
		return nil
	}
	parts := make([]string, 0, len(failed))
	for _, r := range failed {
		parts = append(parts, fmt.Sprintf("%s: %s", r.Name, r.Detail))
	}
	return fmt.Errorf("%w: %s", ErrFailed, strings.Join(parts, "; "))
}
