package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
kb:
  path: /tmp/kb
  git_enabled: true
agent:
  max_iterations: 7
  enable_web: true
llm:
  provider: openai
  model: gpt-4o
  api_key: sk-test
search:
  primary: brave
  brave_api_key: brave-key
log_level: debug
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.KB.Path != "/tmp/kb" {
		t.Errorf("kb.path: got %q", cfg.KB.Path)
	}
	if !cfg.KB.GitEnabled {
		t.Error("kb.git_enabled should be true")
	}
	if cfg.Agent.MaxIterations != 7 {
		t.Errorf("max_iterations: got %d", cfg.Agent.MaxIterations)
	}
	if !cfg.Agent.EnableWeb {
		t.Error("enable_web should be true")
	}
	if cfg.LLM.Provider != "openai" || cfg.LLM.Model != "gpt-4o" {
		t.Errorf("llm: got %+v", cfg.LLM)
	}
	if cfg.Search.Primary != "brave" {
		t.Errorf("search.primary: got %q", cfg.Search.Primary)
	}
}

func TestLoadRequiresKBPath(t *testing.T) {
	path := writeConfig(t, "log_level: info\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for missing kb.path")
	}
}

func TestLoadExpandsEnv(t *testing.T) {
	t.Setenv("TEST_GH_TOKEN", "ghp_secret")
	path := writeConfig(t, `
kb:
  path: /tmp/kb
github:
  token: ${TEST_GH_TOKEN}
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.GitHub.Token != "ghp_secret" {
		t.Errorf("expected env expansion, got %q", cfg.GitHub.Token)
	}
}

func TestFileManagementDefault(t *testing.T) {
	path := writeConfig(t, "kb:\n  path: /tmp/kb\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !cfg.Agent.FileManagementEnabled() {
		t.Error("file management should default to enabled")
	}

	off := writeConfig(t, "kb:\n  path: /tmp/kb\nagent:\n  enable_file_management: false\n")
	cfg, err = Load(off)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Agent.FileManagementEnabled() {
		t.Error("explicit false should disable file management")
	}
}

func TestDataPaths(t *testing.T) {
	cfg := Default()
	cfg.DataDir = "/var/lib/tg-note"
	if got := cfg.VectorDBPath(); got != filepath.Join("/var/lib/tg-note", "vector.db") {
		t.Errorf("vector db path: got %q", got)
	}
	cfg.Memory.DBPath = "/elsewhere/mem.db"
	if got := cfg.MemoryDBPath(); got != "/elsewhere/mem.db" {
		t.Errorf("explicit memory db path: got %q", got)
	}
}

func TestFindConfigExplicitMissing(t *testing.T) {
	if _, err := FindConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing explicit config")
	}
}

func TestParseLogLevel(t *testing.T) {
	cases := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"", slog.LevelInfo, false},
		{"info", slog.LevelInfo, false},
		{"TRACE", LevelTrace, false},
		{"debug", slog.LevelDebug, false},
		{" warn ", slog.LevelWarn, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"verbose", slog.LevelInfo, true},
	}
	for _, tc := range cases {
		got, err := ParseLogLevel(tc.in)
		if (err != nil) != tc.wantErr {
			t.Errorf("ParseLogLevel(%q) error = %v, wantErr %v", tc.in, err, tc.wantErr)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestReplaceLogLevelNames(t *testing.T) {
	a := slog.Attr{Key: slog.LevelKey, Value: slog.AnyValue(LevelTrace)}
	got := ReplaceLogLevelNames(nil, a)
	if got.Value.String() != "TRACE" {
		t.Errorf("expected TRACE, got %q", got.Value.String())
	}
}
