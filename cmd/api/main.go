package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/dvloznov/finflow/internal/ai"
	"github.com/dvloznov/finflow/internal/api/handlers"
	"github.com/dvloznov/finflow/internal/api/middleware"
	"github.com/dvloznov/finflow/internal/bootstrap"
	"github.com/dvloznov/finflow/internal/config"
	"github.com/dvloznov/finflow/internal/finance"
	"github.com/dvloznov/finflow/internal/gcsuploader"
	"github.com/dvloznov/finflow/internal/jobs"
	"github.com/dvloznov/finflow/internal/jobs/inmemory"
	"github.com/dvloznov/finflow/internal/logger"
	"github.com/dvloznov/finflow/internal/notionsync"
	"github.com/dvloznov/finflow/internal/pipeline"
)

func main() {
	// Parse command-line flags
	var (
		configPath = flag.String("config", "", "Path to config file (defaults to ./config.yaml when present)")
		port       = flag.Int("port", 0, "HTTP server port (overrides config)")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log := bootstrap.Logger(cfg)
	ctx := logger.WithContext(context.Background(), log)

	// Storage
	repo, err := bootstrap.OpenRepository(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open storage")
	}
	defer repo.Close()

	// AI model
	gemini, err := ai.NewGemini(ctx, cfg.AI.Model, cfg.AI.APIKey)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Gemini client")
	}

	// Receipt archival is optional
	var (
		archiver pipeline.Archiver
		receipts handlers.ReceiptFetcher
	)
	if cfg.GCP.ReceiptBucket != "" {
		gcs, err := gcsuploader.NewGCSStorageService(ctx, cfg.GCP.ReceiptBucket)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create GCS client")
		}
		defer gcs.Close()
		archiver, receipts = gcs, gcs
		log.Info().Str("bucket", gcs.Bucket()).Msg("Archiving uploads to GCS")
	} else {
		log.Warn().Msg("No receipt bucket configured - uploads will not be archived")
	}

	// Notion mirror runs on the in-process job queue
	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	var (
		publisher *inmemory.Queue
		jobStore  jobs.JobStore
	)
	if cfg.NotionEnabled() {
		store := inmemory.NewStore()
		publisher = inmemory.NewQueue(cfg.Jobs.BufferSize, cfg.Jobs.Workers, store)
		jobStore = store

		mirror := notionsync.NewMirror(notionsync.NewNotionClient(cfg.Notion.Token), repo, cfg.Notion.DatabaseID)
		if err := publisher.Start(workerCtx, mirror.Handle); err != nil {
			log.Fatal().Err(err).Msg("Failed to start mirror workers")
		}
		log.Info().Int("workers", cfg.Jobs.Workers).Msg("Mirroring transactions to Notion")
	}

	deps := pipeline.Deps{
		Transactions: repo,
		Users:        repo,
		Config:       repo,
		Extractor:    gemini,
		Archiver:     archiver,
	}
	opts := []finance.Option{finance.WithAverager(bootstrap.Averager(ctx, cfg, gemini))}
	if publisher != nil {
		deps.Publisher = publisher
		opts = append(opts, finance.WithPublisher(publisher))
	}

	mux := handlers.NewRouter(handlers.Deps{
		Finance:   finance.NewService(repo, opts...),
		Submitter: pipeline.NewSubmitter(deps),
		Receipts:  receipts,
		Jobs:      jobStore,
	})

	// Apply middleware
	handler := middleware.Recovery(log)(
		middleware.RequestID(
			middleware.Logger(log)(
				middleware.CORS(
					middleware.Auth("/health")(mux),
				),
			),
		),
	)

	// Create HTTP server
	addr := ":" + strconv.Itoa(cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("addr", addr).Str("storage", cfg.Storage.Backend).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Let in-flight mirror jobs finish before cancelling the workers
	if publisher != nil {
		if err := publisher.Stop(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Error stopping job queue")
		}
	}
	cancelWorker()

	log.Info().Msg("Server exited")
}
