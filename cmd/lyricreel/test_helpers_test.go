package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"lyricreel/internal/config"
	"lyricreel/internal/testsupport"
)

type cliTestEnv struct {
	cfg          *config.Config
	settingsPath string
	baseDir      string
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t, opts...)
	base := testsupport.BaseDir(cfg)
	t.Setenv("HOME", filepath.Join(base, "home"))
	t.Setenv("LYRICREEL_BROWSER", "")
	t.Setenv("LYRICREEL_FFMPEG", "")

	settingsPath := filepath.Join(base, "settings.toml")
	writeSettings(t, settingsPath, cfg)

	return &cliTestEnv{cfg: cfg, settingsPath: settingsPath, baseDir: base}
}

func writeSettings(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("encode settings: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write settings: %v", err)
	}
}

func (e *cliTestEnv) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	return runCLI(t, "", e.settingsPath, args...)
}

func runCLI(t *testing.T, stdin, settingsPath string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	var flags []string
	if settingsPath != "" {
		flags = append(flags, "--settings", settingsPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, want string) {
	t.Helper()
	if !strings.Contains(output, want) {
		t.Fatalf("expected output to contain %q\n--- output ---\n%s", want, output)
	}
}
