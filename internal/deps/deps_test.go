package deps

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeStub(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	return path
}

func TestCheckBinaries(t *testing.T) {
	present := writeStub(t, t.TempDir(), "present", "#!/bin/sh\nexit 0\n")
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Blank", Command: "  "},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}
	if !results[0].Available || results[0].Detail != "" {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}
	if results[1].Available || results[1].Detail == "" {
		t.Fatalf("expected missing binary to be unavailable with detail, got %#v", results[1])
	}
	if results[1].Command != "clearly-not-present-binary" {
		t.Fatalf("unexpected command recorded: %s", results[1].Command)
	}
	if results[2].Available || results[2].Detail != "command not configured" {
		t.Fatalf("unexpected blank result %#v", results[2])
	}
}

func TestCheckBrowserExplicitBinary(t *testing.T) {
	chromium := writeStub(t, t.TempDir(), "chromium", "#!/bin/sh\nexit 0\n")
	status := CheckBrowser(chromium)
	if !status.Available || status.Command != chromium {
		t.Fatalf("expected explicit browser to resolve, got %#v", status)
	}

	status = CheckBrowser(filepath.Join(t.TempDir(), "missing-chrome"))
	if status.Available {
		t.Fatalf("expected missing browser to be unavailable")
	}
}

func TestCheckBrowserAutoDetect(t *testing.T) {
	original := browserLookPath
	t.Cleanup(func() { browserLookPath = original })

	browserLookPath = func() (string, bool) { return "/opt/chrome/chrome", true }
	if status := CheckBrowser(""); !status.Available || status.Command != "/opt/chrome/chrome" {
		t.Fatalf("unexpected detected status %#v", status)
	}

	browserLookPath = func() (string, bool) { return "", false }
	if status := CheckBrowser(""); status.Available || status.Detail == "" {
		t.Fatalf("expected unavailable status with detail, got %#v", status)
	}
}

func TestVersionLine(t *testing.T) {
	ffmpeg := writeStub(t, t.TempDir(), "ffmpeg", "#!/bin/sh\necho 'ffmpeg version 7.1 Copyright'\necho 'built with gcc'\n")
	line, err := VersionLine(context.Background(), ffmpeg)
	if err != nil {
		t.Fatalf("VersionLine: %v", err)
	}
	if line != "ffmpeg version 7.1 Copyright" {
		t.Fatalf("unexpected version line %q", line)
	}
}
