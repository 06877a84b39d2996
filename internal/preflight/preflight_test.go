package preflight

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"lyricreel/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir, AccessReadWrite)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
	if !strings.Contains(result.Detail, "read/write ok") {
		t.Fatalf("unexpected detail %q", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"), AccessRead)
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if CheckDirectoryAccess("test", f, AccessRead).Passed {
		t.Fatal("expected failure for file path")
	}
	if CheckDirectoryAccess("test", "", AccessRead).Passed {
		t.Fatal("expected failure for empty path")
	}
}

func TestCheckGeometry(t *testing.T) {
	tests := []struct {
		name           string
		vw, vh, fw, fh int
		pixelFormat    string
		wantPass       bool
	}{
		{"match", 1080, 2160, 1080, 2160, "yuv420p", true},
		{"mismatch", 1080, 2160, 1080, 1920, "yuv420p", false},
		{"odd for 420", 641, 480, 641, 480, "yuv420p", false},
		{"odd for 444", 641, 480, 641, 480, "yuv444p", true},
		{"zero", 0, 0, 0, 0, "yuv444p", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CheckGeometry(tt.vw, tt.vh, tt.fw, tt.fh, tt.pixelFormat)
			if got.Passed != tt.wantPass {
				t.Fatalf("CheckGeometry passed=%v (%s), want %v", got.Passed, got.Detail, tt.wantPass)
			}
		})
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	if results := RunAll(context.Background(), nil); results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll_ReadyConfig(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithEntryPage("<html></html>"),
		testsupport.WithStubbedBinaries(),
	)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatal(err)
	}
	cfg.Browser.Binary = testsupport.WriteScript(t, t.TempDir(), "chromium", "exit 0\n")

	results := RunAll(context.Background(), cfg)
	if err := Err(results); err != nil {
		t.Fatalf("expected all checks to pass: %v", err)
	}
	names := make([]string, 0, len(results))
	for _, r := range results {
		names = append(names, r.Name)
	}
	want := "Page directory,Entry page,Asset directory,Frame geometry,FFmpeg,FFprobe,Browser"
	if got := strings.Join(names, ","); got != want {
		t.Fatalf("checks = %s, want %s", got, want)
	}
}

func TestRunAll_ReportsMissingPieces(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Encoder.Binary = filepath.Join(t.TempDir(), "no-ffmpeg")
	cfg.Encoder.FFprobeBinary = filepath.Join(t.TempDir(), "no-ffprobe")
	cfg.Browser.Binary = filepath.Join(t.TempDir(), "no-chromium")

	results := RunAll(context.Background(), cfg)
	failed := Failures(results)
	names := map[string]bool{}
	for _, r := range failed {
		names[r.Name] = true
	}
	for _, want := range []string{"Page directory", "Entry page", "Asset directory", "FFmpeg", "Browser"} {
		if !names[want] {
			t.Fatalf("expected %q among failures, got %+v", want, failed)
		}
	}
	if names["FFprobe"] {
		t.Fatal("optional ffprobe must not count as a required failure")
	}

	err := Err(results)
	if !errors.Is(err, ErrFailed) || !strings.Contains(err.Error(), "no-ffmpeg") {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestSystemDepsUseVersionBanner(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Encoder.Binary = testsupport.WriteScript(t, t.TempDir(), "ffmpeg", "echo 'ffmpeg version 7.1 Copyright'\necho second\n")
	cfg.Browser.Binary = testsupport.WriteScript(t, t.TempDir(), "chromium", "exit 0\n")

	statuses := CheckSystemDeps(context.Background(), cfg)
	if statuses[0].Detail != "ffmpeg version 7.1 Copyright" {
		t.Fatalf("unexpected ffmpeg detail %q", statuses[0].Detail)
	}
	if r := fromStatus(statuses[0]); !strings.HasSuffix(r.Detail, "(ffmpeg version 7.1 Copyright)") {
		t.Fatalf("unexpected result detail %q", r.Detail)
	}
}
