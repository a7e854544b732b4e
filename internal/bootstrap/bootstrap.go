// Package bootstrap turns a loaded config into the shared runtime pieces used by
// the API server and the command-line tools.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/dvloznov/finflow/internal/ai"
	"github.com/dvloznov/finflow/internal/config"
	infraBQ "github.com/dvloznov/finflow/internal/infra/bigquery"
	"github.com/dvloznov/finflow/internal/infra/sqlite"
	"github.com/dvloznov/finflow/internal/logger"
	"github.com/dvloznov/finflow/internal/store"
	"github.com/dvloznov/finflow/internal/store/inmemory"
	"github.com/rs/zerolog"
)

// Logger builds the process logger from the server section.
func Logger(cfg *config.Config) zerolog.Logger {
	if cfg.Server.LogFormat == "json" {
		return logger.NewJSON(cfg.Server.LogLevel)
	}
	return logger.New(cfg.Server.LogLevel)
}

// OpenRepository connects to the configured storage backend.
func OpenRepository(ctx context.Context, cfg *config.Config) (store.Repository, error) {
	log := logger.FromContext(ctx)

	switch cfg.Storage.Backend {
	case config.BackendBigQuery:
		repo, err := infraBQ.NewRepository(ctx, cfg.GCP.ProjectID, cfg.GCP.Dataset)
		if err != nil {
			return nil, fmt.Errorf("OpenRepository: %w", err)
		}
		log.Info().Str("project", cfg.GCP.ProjectID).Str("dataset", cfg.GCP.Dataset).Msg("Using BigQuery storage")
		return repo, nil
	case config.BackendSQLite:
		repo, err := sqlite.Open(cfg.Storage.SQLitePath, cfg.Server.LogLevel == "debug")
		if err != nil {
			return nil, fmt.Errorf("OpenRepository: %w", err)
		}
		log.Info().Str("path", cfg.Storage.SQLitePath).Msg("Using SQLite storage")
		return repo, nil
	case config.BackendMemory:
		log.Warn().Msg("Using in-memory storage; data is lost on exit")
		return inmemory.NewStore(), nil
	default:
		return nil, fmt.Errorf("OpenRepository: unknown storage backend %q", cfg.Storage.Backend)
	}
}

// Averager picks the budget suggestion averager. gemini may be nil when the
// model client could not be created, in which case the local one is used.
func Averager(ctx context.Context, cfg *config.Config, gemini *ai.Gemini) ai.Averager {
	if cfg.AI.Averager == config.AveragerGemini {
		if gemini != nil {
			return gemini
		}
		log := logger.FromContext(ctx)
		log.Warn().Msg("Gemini averager requested but no client is available; using local averages")
	}
	return ai.LocalAverager{}
}
