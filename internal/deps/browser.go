package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/go-rod/rod/lib/launcher"
)

var browserLookPath = launcher.LookPath

// CheckBrowser reports the Chromium binary the render session will launch.
// An explicit binary must resolve on PATH or as a path; otherwise the
// launcher's well-known install locations are searched.
func CheckBrowser(configured string) Status {
	status := Status{
		Name:        "Browser",
		Description: "Headless Chromium used to render frames",
	}

	configured = strings.TrimSpace(configured)
	if configured != "" {
		status.Command = configured
		resolved, err := exec.LookPath(configured)
		if err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", configured)
			return status
		}
		status.Command = resolved
		status.Available = true
		return status
	}

	if found, ok := browserLookPath(); ok {
		status.Command = found
		status.Available = true
		return status
	}
	status.Command = "chromium"
	status.Detail = "no Chromium installation found (set browser.binary or LYRICREEL_BROWSER)"
	return status
}
