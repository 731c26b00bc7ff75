package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNew_Defaults(t *testing.T) {
	cfg, err := New("")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if cfg.Port() != DefaultPort {
		t.Errorf("Port() = %d, want %d", cfg.Port(), DefaultPort)
	}
	if cfg.LogLevel() != DefaultLogLevel || cfg.LogFormat() != DefaultLogFormat {
		t.Errorf("log config = %q/%q", cfg.LogLevel(), cfg.LogFormat())
	}
	if !cfg.HistoryEnabled() {
		t.Error("HistoryEnabled() = false, want true")
	}
	if cfg.RenderTimeout() != DefaultRenderTimeout {
		t.Errorf("RenderTimeout() = %v", cfg.RenderTimeout())
	}
	if filepath.Base(cfg.DBPath()) != DBFilename {
		t.Errorf("DBPath() = %q", cfg.DBPath())
	}
}

func TestNew_EnvOverrides(t *testing.T) {
	t.Setenv("MARKERS_PORT", "9100")
	t.Setenv("MARKERS_LOG_LEVEL", "debug")
	t.Setenv("MARKERS_FFMPEG_PATH", "/opt/bin/ffmpeg")
	t.Setenv("MARKERS_HISTORY_ENABLED", "false")
	t.Setenv("MARKERS_RENDER_TIMEOUT", "5s")

	cfg, err := New("")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if cfg.Port() != 9100 {
		t.Errorf("Port() = %d, want 9100", cfg.Port())
	}
	if cfg.LogLevel() != "debug" {
		t.Errorf("LogLevel() = %q", cfg.LogLevel())
	}
	if cfg.FFmpegPath() != "/opt/bin/ffmpeg" {
		t.Errorf("FFmpegPath() = %q", cfg.FFmpegPath())
	}
	if cfg.HistoryEnabled() {
		t.Error("HistoryEnabled() = true, want false")
	}
	if cfg.RenderTimeout() != 5*time.Second {
		t.Errorf("RenderTimeout() = %v", cfg.RenderTimeout())
	}
}

func TestNew_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "markers.json")
	body := `{"port": 9200, "data_dir": "` + filepath.ToSlash(dir) + `", "log": {"format": "json"}}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := New(path)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if cfg.Port() != 9200 || cfg.LogFormat() != "json" {
		t.Errorf("file values not applied: port %d, format %q", cfg.Port(), cfg.LogFormat())
	}
	if cfg.DBPath() != filepath.Join(filepath.ToSlash(dir), DBFilename) {
		t.Errorf("DBPath() = %q", cfg.DBPath())
	}

	t.Setenv("MARKERS_PORT", "9300")
	cfg, err = New(path)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if cfg.Port() != 9300 {
		t.Errorf("env should win over file, Port() = %d", cfg.Port())
	}
}

func TestNew_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "port", env: map[string]string{"MARKERS_PORT": "70000"}},
		{name: "format", env: map[string]string{"MARKERS_LOG_FORMAT": "xml"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			if _, err := New(""); !errors.Is(err, ErrInvalid) {
				t.Fatalf("New() error = %v, want ErrInvalid", err)
			}
		})
	}

	if _, err := New(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("New() should fail for a missing config file")
	}
}
