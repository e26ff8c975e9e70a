package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/hyperjump/yomu/internal/config"
)

func TestArgsReorder(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected []string
	}{
		{
			name:     "flags after question are moved first",
			args:     []string{"paper.pdf", "what", "is", "it", "--format", "json"},
			expected: []string{"--format", "json", "paper.pdf", "what", "is", "it"},
		},
		{
			name:     "flags first returns unchanged",
			args:     []string{"--top-k", "3", "paper.pdf", "why"},
			expected: []string{"--top-k", "3", "paper.pdf", "why"},
		},
		{
			name:     "positionals only returns unchanged",
			args:     []string{"paper.pdf"},
			expected: []string{"paper.pdf"},
		},
		{
			name:     "empty args returns unchanged",
			args:     []string{},
			expected: []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := argsReorder(tt.args)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("argsReorder() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestBuildQuestion(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected string
	}{
		{"single word", []string{"why"}, "why"},
		{"multiple words", []string{"what", "dataset?"}, "what dataset?"},
		{"single quoted phrase", []string{"what dataset?"}, "what dataset?"},
		{"empty args", []string{}, ""},
		{"blank args", []string{"  ", "  "}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := buildQuestion(tt.args)
			if got != tt.expected {
				t.Errorf("buildQuestion(%v) = %q, want %q", tt.args, got, tt.expected)
			}
		})
	}
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	origWd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(origWd) })
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
}

func TestLoadConfig_prefersCwdConfigWhenDefaultPath(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	content := `
debug: true
retrieval:
  top_k: 7
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	chdir(t, dir)

	cfg, resolved, err := loadConfig(defaultConfigPath)
	if err != nil {
		t.Fatal(err)
	}
	// On macOS, cwd can be /private/var/... while t.TempDir() is /var/...; compare canonical paths.
	resolvedCanon, _ := filepath.EvalSymlinks(resolved)
	configPathCanon, _ := filepath.EvalSymlinks(configPath)
	if resolvedCanon != configPathCanon {
		t.Errorf("resolved path = %s, want %s", resolvedCanon, configPathCanon)
	}
	if !cfg.Debug || cfg.Retrieval.TopK != 7 {
		t.Errorf("cwd config not applied: debug=%t top_k=%d", cfg.Debug, cfg.Retrieval.TopK)
	}
}

func TestLoadConfig_defaultsWhenNoFile(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, resolved, err := loadConfig(defaultConfigPath)
	if err != nil {
		t.Fatal(err)
	}
	if resolved != "" {
		t.Errorf("resolved = %q, want empty for built-in defaults", resolved)
	}
	if cfg.Retrieval.TopK != 5 || cfg.Storage.Backend != "disk" {
		t.Errorf("expected defaults, got top_k=%d backend=%s", cfg.Retrieval.TopK, cfg.Storage.Backend)
	}
}

func TestLoadConfig_homeConfig(t *testing.T) {
	chdir(t, t.TempDir())
	home := t.TempDir()
	t.Setenv("HOME", home)
	if err := os.MkdirAll(filepath.Join(home, ".yomu"), 0755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(home, ".yomu", "config.yaml")
	if err := os.WriteFile(path, []byte("use_gpu: true\n"), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, err := loadConfig(defaultConfigPath)
	if err != nil {
		t.Fatal(err)
	}
	if resolved != path || !cfg.UseGPU {
		t.Errorf("resolved = %q use_gpu=%t, want %q and true", resolved, cfg.UseGPU, path)
	}
}

func TestLoadConfig_usesExplicitPath(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: "127.0.0.1"
  port: 9000
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		t.Fatal(err)
	}
	if resolved != configPath {
		t.Errorf("resolved path = %s, want %s", resolved, configPath)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
}

func TestLoadConfig_explicitMissingFails(t *testing.T) {
	if _, _, err := loadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing explicit config")
	}
}

func TestModelLabel(t *testing.T) {
	tests := []struct {
		cfg  config.ModelConfig
		want string
	}{
		{config.ModelConfig{}, "extractive"},
		{config.ModelConfig{Provider: "extractive"}, "extractive"},
		{config.ModelConfig{Provider: "openai", Mode: "fast", FastModel: "gpt-4o-mini", SmartModel: "gpt-4o"}, "openai:gpt-4o-mini"},
		{config.ModelConfig{Provider: "openai", Mode: "smart", FastModel: "gpt-4o-mini", SmartModel: "gpt-4o"}, "openai:gpt-4o"},
	}
	for _, tt := range tests {
		if got := modelLabel(tt.cfg); got != tt.want {
			t.Errorf("modelLabel(%+v) = %q, want %q", tt.cfg, got, tt.want)
		}
	}
}

func TestInitializeComponents_offline(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.CacheDir = t.TempDir()
	logger := zap.NewNop()

	c, err := initializeComponents(context.Background(), cfg, logger)
	if err != nil {
		t.Fatalf("initializeComponents: %v", err)
	}
	defer c.Close()

	p := c.providers()
	if p.Embedding == "" || p.Generation != "extractive" || p.Summarization != "extractive" {
		t.Errorf("providers = %+v", p)
	}

	ctx := context.Background()
	text := "Yomu reads documents.\n\nIt answers questions about them.\n\nIt also writes summaries."
	res, err := c.Summaries.Summarize(ctx, text)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if res.Introduction == "" || res.Conclusion == "" {
		t.Errorf("summary has empty sections: %+v", res)
	}
	ans, err := c.QA.Ask(ctx, text, "Does it write summaries?")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if !strings.Contains(ans.Text, "summaries") {
		t.Errorf("answer = %q, want the summaries sentence", ans.Text)
	}

	status := localStatus(cfg)
	if status.DiskUsageBytes == nil || *status.DiskUsageBytes <= 0 {
		t.Errorf("expected positive disk usage after caching, got %v", status.DiskUsageBytes)
	}
}

func TestWriteStatusText(t *testing.T) {
	n := int64(2048)
	var buf bytes.Buffer
	writeStatusText(&buf, statusResponse{
		Version:        "1.0.0",
		Storage:        "sqlite",
		DiskUsageBytes: &n,
		TopK:           5,
	})
	out := buf.String()
	for _, sub := range []string{"version:            1.0.0", "storage_backend:    sqlite", "disk_usage_bytes:   2048", "top_k:              5"} {
		if !strings.Contains(out, sub) {
			t.Errorf("status text missing %q:\n%s", sub, out)
		}
	}
}
