package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"conveyor/internal/config"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	dir := t.TempDir()
	cfg, path, exists, err := config.Load(filepath.Join(dir, "missing.toml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if exists {
		t.Fatalf("reported existing file at %q", path)
	}
	if cfg.Serving.Backend != config.BackendFile {
		t.Fatalf("default backend = %q", cfg.Serving.Backend)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "console" {
		t.Fatalf("default logging = %+v", cfg.Logging)
	}
	if cfg.Serving.ChunkBytes <= 0 || cfg.Serving.MaxDownloadReads <= 0 {
		t.Fatalf("serving limits not defaulted: %+v", cfg.Serving)
	}
}

func TestLoadParsesAndNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "conveyor.toml")
	content := strings.Join([]string{
		`[paths]`,
		`log_dir = "` + filepath.Join(dir, "logs") + `"`,
		`data_dir = "` + filepath.Join(dir, "data") + `"`,
		`api_token = "  sekrit  "`,
		``,
		`[logging]`,
		`format = "JSON"`,
		`level = "Debug"`,
		``,
		`[serving]`,
		`backend = "Remote"`,
		`remote_url = "http://worker:7519"`,
		`remote_timeout_seconds = 5`,
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("resolved = %q exists = %v", resolved, exists)
	}
	if cfg.Paths.APIToken != "sekrit" {
		t.Fatalf("token not trimmed: %q", cfg.Paths.APIToken)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("logging not normalized: %+v", cfg.Logging)
	}
	if cfg.Serving.Backend != config.BackendRemote {
		t.Fatalf("backend not normalized: %q", cfg.Serving.Backend)
	}
	if cfg.RemoteTimeout() != 5*time.Second {
		t.Fatalf("remote timeout = %v", cfg.RemoteTimeout())
	}
}

func TestValidateRejectsRemoteWithoutURL(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "conveyor.toml")
	if err := os.WriteFile(path, []byte("[serving]\nbackend = \"remote\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected validation error for remote backend without url")
	}
}

func TestValidateRejectsUnknownBackend(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "conveyor.toml")
	if err := os.WriteFile(path, []byte("[serving]\nbackend = \"s3\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected validation error for unknown backend")
	}
}

func TestCreateSample(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("create sample: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[serving]") {
		t.Fatalf("sample missing serving section: %q", string(data))
	}
}
