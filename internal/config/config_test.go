package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.OllamaURL != "http://localhost:11434" {
		t.Errorf("ollama_url = %q", cfg.OllamaURL)
	}
	if cfg.Model != "mistral" {
		t.Errorf("model = %q", cfg.Model)
	}
	if cfg.FileTimeout() != 2*time.Minute {
		t.Errorf("file timeout = %v", cfg.FileTimeout())
	}
	if cfg.CommitTimeout() != 3*time.Minute {
		t.Errorf("commit timeout = %v", cfg.CommitTimeout())
	}
	if cfg.Workers != 1 {
		t.Errorf("workers = %d", cfg.Workers)
	}
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("EXPERTISE_MODEL", "codellama")
	t.Setenv("EXPERTISE_WATCH_ROOT", "/tmp/work")
	t.Setenv("EXPERTISE_WORKERS", "3")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Model != "codellama" {
		t.Errorf("model = %q", cfg.Model)
	}
	if cfg.WatchRoot != "/tmp/work" {
		t.Errorf("watch_root = %q", cfg.WatchRoot)
	}
	if cfg.Workers != 3 {
		t.Errorf("workers = %d", cfg.Workers)
	}
}

func TestFileThenEnvPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "model: llama3\ndb_path: /tmp/x.db\nqueue_size: 128\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("EXPERTISE_MODEL", "mistral-nemo")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Model != "mistral-nemo" {
		t.Errorf("env should win over file: model = %q", cfg.Model)
	}
	if cfg.DBPath != "/tmp/x.db" {
		t.Errorf("db_path = %q", cfg.DBPath)
	}
	if cfg.QueueSize != 128 {
		t.Errorf("queue_size = %d", cfg.QueueSize)
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Model = ""
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for empty model")
	}

	cfg = Default()
	cfg.Workers = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for zero workers")
	}
}
