// Package config loads service settings from an optional .env file, an optional
// config.yaml and FINFLOW_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage backends.
const (
	BackendBigQuery = "bigquery"
	BackendSQLite   = "sqlite"
	BackendMemory   = "memory"
)

// Budget suggestion averagers.
const (
	AveragerLocal  = "local"
	AveragerGemini = "gemini"
)

type ServerConfig struct {
	Port      int    `mapstructure:"port"`
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"` // console|json
}

type StorageConfig struct {
	Backend    string `mapstructure:"backend"`
	SQLitePath string `mapstructure:"sqlite_path"`
}

type GCPConfig struct {
	ProjectID     string `mapstructure:"project_id"`
	Dataset       string `mapstructure:"dataset"`
	ReceiptBucket string `mapstructure:"receipt_bucket"` // empty disables archival
}

type AIConfig struct {
	Model    string `mapstructure:"model"`
	APIKey   string `mapstructure:"api_key"` // empty defers to the SDK's environment lookup
	Averager string `mapstructure:"averager"`
}

type NotionConfig struct {
	Token      string `mapstructure:"token"` // empty disables the mirror
	DatabaseID string `mapstructure:"database_id"`
}

type JobsConfig struct {
	Workers    int `mapstructure:"workers"`
	BufferSize int `mapstructure:"buffer_size"`
}

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Storage StorageConfig `mapstructure:"storage"`
	GCP     GCPConfig     `mapstructure:"gcp"`
	AI      AIConfig      `mapstructure:"ai"`
	Notion  NotionConfig  `mapstructure:"notion"`
	Jobs    JobsConfig    `mapstructure:"jobs"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.log_format", "console")

	v.SetDefault("storage.backend", BackendBigQuery)
	v.SetDefault("storage.sqlite_path", "./data/finflow.db")

	v.SetDefault("gcp.project_id", "")
	v.SetDefault("gcp.dataset", "finflow")
	v.SetDefault("gcp.receipt_bucket", "")

	v.SetDefault("ai.model", "gemini-2.5-flash")
	v.SetDefault("ai.api_key", "")
	v.SetDefault("ai.averager", AveragerLocal)

	v.SetDefault("notion.token", "")
	v.SetDefault("notion.database_id", "")

	v.SetDefault("jobs.workers", 2)
	v.SetDefault("jobs.buffer_size", 100)
}

// Load reads configuration. path names a config file; when empty, config.yaml in the
// working directory is used if present. Environment variables such as
// FINFLOW_STORAGE_BACKEND override file values.
func Load(path string) (*Config, error) {
	// .env is for local development only
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if path == "" {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	} else {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix("FINFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	c.Storage.Backend = strings.ToLower(strings.TrimSpace(c.Storage.Backend))
	c.AI.Averager = strings.ToLower(strings.TrimSpace(c.AI.Averager))
	return &c, nil
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var problems []string

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid port %d: must be between 1 and 65535", c.Server.Port))
	}
	if c.Server.LogFormat != "console" && c.Server.LogFormat != "json" {
		problems = append(problems, fmt.Sprintf("invalid log format '%s': must be console or json", c.Server.LogFormat))
	}

	switch c.Storage.Backend {
	case BackendBigQuery:
		if c.GCP.ProjectID == "" {
			problems = append(problems, "gcp.project_id is required for the bigquery backend")
		}
		if c.GCP.Dataset == "" {
			problems = append(problems, "gcp.dataset is required for the bigquery backend")
		}
	case BackendSQLite:
		if c.Storage.SQLitePath == "" {
			problems = append(problems, "storage.sqlite_path is required for the sqlite backend")
		}
	case BackendMemory:
	default:
		problems = append(problems, fmt.Sprintf("invalid storage backend '%s': must be one of %v",
			c.Storage.Backend, []string{BackendBigQuery, BackendSQLite, BackendMemory}))
	}

	if c.GCP.ReceiptBucket != "" && c.GCP.ProjectID == "" {
		problems = append(problems, "gcp.project_id is required when gcp.receipt_bucket is set")
	}

	if c.AI.Model == "" {
		problems = append(problems, "ai.model cannot be empty")
	}
	if c.AI.Averager != AveragerLocal && c.AI.Averager != AveragerGemini {
		problems = append(problems, fmt.Sprintf("invalid ai.averager '%s': must be local or gemini", c.AI.Averager))
	}

	if c.Notion.Token != "" && c.Notion.DatabaseID == "" {
		problems = append(problems, "notion.database_id is required when notion.token is set")
	}

	if c.Jobs.Workers < 1 {
		problems = append(problems, fmt.Sprintf("invalid jobs.workers %d: must be at least 1", c.Jobs.Workers))
	}
	if c.Jobs.BufferSize < 1 {
		problems = append(problems, fmt.Sprintf("invalid jobs.buffer_size %d: must be at least 1", c.Jobs.BufferSize))
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(problems, "\n  - "))
	}
	return nil
}

// NotionEnabled reports whether created transactions are mirrored to Notion.
func (c *Config) NotionEnabled() bool {
	return c.Notion.Token != "" && c.Notion.DatabaseID != ""
}
