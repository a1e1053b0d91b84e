package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll(%q) error = %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile(%q) error = %v", path, err)
	}
}

func TestDiscoverPathFrom_FirstMatchWins(t *testing.T) {
	cwd := t.TempDir()
	home := t.TempDir()

	projectConfig := filepath.Join(cwd, "rxplay.yaml")
	writeFile(t, projectConfig, "log: {level: debug}")
	writeFile(t, filepath.Join(home, ".rxplay", "config.yaml"), "log: {level: warn}")

	got, found, err := DiscoverPathFrom("", cwd, home)
	if err != nil {
		t.Fatalf("DiscoverPathFrom() error = %v", err)
	}
	if !found {
		t.Fatal("found = false, want true")
	}
	if got != projectConfig {
		t.Fatalf("path = %q, want %q", got, projectConfig)
	}
}

func TestDiscoverPathFrom_FallsBackToHome(t *testing.T) {
	cwd := t.TempDir()
	home := t.TempDir()
	homeConfig := filepath.Join(home, ".rxplay", "config.yaml")
	writeFile(t, homeConfig, "log: {level: warn}")

	got, found, err := DiscoverPathFrom("", cwd, home)
	if err != nil {
		t.Fatalf("DiscoverPathFrom() error = %v", err)
	}
	if !found || got != homeConfig {
		t.Fatalf("path = %q (found=%v), want %q", got, found, homeConfig)
	}
}

func TestDiscoverPathFrom_ExplicitNotFound(t *testing.T) {
	_, found, err := DiscoverPathFrom(filepath.Join(t.TempDir(), "missing.yaml"), t.TempDir(), t.TempDir())
	if err == nil {
		t.Fatal("expected error for missing explicit config path")
	}
	if found {
		t.Fatal("found = true, want false")
	}
}

func TestDiscoverPathFrom_ExplicitDirectory(t *testing.T) {
	dir := t.TempDir()
	_, found, err := DiscoverPathFrom(dir, t.TempDir(), t.TempDir())
	if err == nil {
		t.Fatal("expected error for explicit config path that is a directory")
	}
	if !strings.Contains(err.Error(), "is a directory") {
		t.Fatalf("error = %v, want directory error", err)
	}
	if found {
		t.Fatal("found = true, want false")
	}
}

func TestDiscoverPathFrom_NothingFound(t *testing.T) {
	_, found, err := DiscoverPathFrom("", t.TempDir(), t.TempDir())
	if err != nil {
		t.Fatalf("DiscoverPathFrom() error = %v", err)
	}
	if found {
		t.Fatal("found = true, want false")
	}
}

func TestLoad_ParsesFileAndAppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	writeFile(t, path, `
log:
  format: json
store:
  driver: sqlite
telemetry:
  otlp_endpoint: localhost:4318
  insecure: true
scenarios:
  strict: true
`)
	t.Setenv(EnvLogLevel, "")

	cfg, got, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got != path {
		t.Errorf("path = %q, want %q", got, path)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "json" {
		t.Errorf("log = %+v, want level info and format json", cfg.Log)
	}
	if cfg.Store.Driver != "sqlite" || cfg.Store.DSN != "rxplay.db" {
		t.Errorf("store = %+v, want sqlite with default dsn", cfg.Store)
	}
	if cfg.Telemetry.OTLPEndpoint != "localhost:4318" || !cfg.Telemetry.Insecure || cfg.Telemetry.ServiceName != "rxplay" {
		t.Errorf("telemetry = %+v", cfg.Telemetry)
	}
	if !cfg.Scenarios.Strict || cfg.Scenarios.ReplayBuffer != 2 {
		t.Errorf("scenarios = %+v", cfg.Scenarios)
	}
}

func TestLoad_EnvOverridesLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	writeFile(t, path, "log: {level: info}")
	t.Setenv(EnvLogLevel, "debug")

	cfg, _, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("level = %q, want debug", cfg.Log.Level)
	}
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"level":  "log: {level: loud}",
		"format": "log: {format: xml}",
		"driver": "store: {driver: postgres}",
		"yaml":   "log: [",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bad.yaml")
			writeFile(t, path, content)
			t.Setenv(EnvLogLevel, "")

			if _, _, err := Load(path); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestNewLogger_HonoursLevelAndFormat(t *testing.T) {
	cfg := Default()
	cfg.Log.Level = "warn"
	cfg.Log.Format = "json"

	var buf bytes.Buffer
	logger := cfg.NewLogger(&buf)
	logger.Info("hidden")
	logger.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info record should be filtered, got %q", out)
	}
	if !strings.Contains(out, `"msg":"shown"`) {
		t.Errorf("expected json warn record, got %q", out)
	}

	level, err := ParseLevel("ERROR")
	if err != nil || level != slog.LevelError {
		t.Errorf("ParseLevel(ERROR) = %v, %v", level, err)
	}
}
