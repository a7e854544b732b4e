package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Storage.Backend != BackendBigQuery {
		t.Errorf("Backend = %q, want bigquery", cfg.Storage.Backend)
	}
	if cfg.AI.Averager != AveragerLocal {
		t.Errorf("Averager = %q, want local", cfg.AI.Averager)
	}
	if cfg.NotionEnabled() {
		t.Error("Notion must be disabled without a token")
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
server:
  port: 9090
storage:
  backend: SQLite
  sqlite_path: /tmp/finflow-test.db
gcp:
  project_id: demo-project
notion:
  token: secret
  database_id: db123
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("FINFLOW_SERVER_PORT", "7070")
	t.Setenv("FINFLOW_AI_AVERAGER", "gemini")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("Port = %d, want env override 7070", cfg.Server.Port)
	}
	if cfg.Storage.Backend != BackendSQLite {
		t.Errorf("Backend = %q, want sqlite", cfg.Storage.Backend)
	}
	if cfg.GCP.ProjectID != "demo-project" {
		t.Errorf("ProjectID = %q", cfg.GCP.ProjectID)
	}
	if cfg.AI.Averager != AveragerGemini {
		t.Errorf("Averager = %q, want gemini", cfg.AI.Averager)
	}
	if !cfg.NotionEnabled() {
		t.Error("Notion should be enabled")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing explicit config file")
	}
}

func validConfig() *Config {
	return &Config{
		Server:  ServerConfig{Port: 8080, LogLevel: "info", LogFormat: "console"},
		Storage: StorageConfig{Backend: BackendBigQuery},
		GCP:     GCPConfig{ProjectID: "p", Dataset: "finflow"},
		AI:      AIConfig{Model: "gemini-2.5-flash", Averager: AveragerLocal},
		Jobs:    JobsConfig{Workers: 1, BufferSize: 10},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr []string
	}{
		{"valid", func(c *Config) {}, nil},
		{"memory backend needs no project", func(c *Config) {
			c.Storage.Backend = BackendMemory
			c.GCP.ProjectID = ""
		}, nil},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, []string{"invalid port"}},
		{"bigquery without project", func(c *Config) { c.GCP.ProjectID = "" }, []string{"gcp.project_id"}},
		{"sqlite without path", func(c *Config) { c.Storage.Backend = BackendSQLite }, []string{"sqlite_path"}},
		{"unknown backend", func(c *Config) { c.Storage.Backend = "postgres" }, []string{"invalid storage backend"}},
		{"notion without database", func(c *Config) { c.Notion.Token = "t" }, []string{"notion.database_id"}},
		{"several problems", func(c *Config) {
			c.Server.Port = 70000
			c.AI.Averager = "magic"
			c.Jobs.Workers = 0
		}, []string{"invalid port", "ai.averager", "jobs.workers"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)
			err := c.Validate()
			if len(tt.wantErr) == 0 {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected error")
			}
			for _, want := range tt.wantErr {
				if !strings.Contains(err.Error(), want) {
					t.Errorf("error %q does not mention %q", err, want)
				}
			}
		})
	}
}
