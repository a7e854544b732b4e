package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dvloznov/finflow/internal/bootstrap"
	"github.com/dvloznov/finflow/internal/config"
	"github.com/dvloznov/finflow/internal/logger"
	"github.com/dvloznov/finflow/internal/notionsync"
	"github.com/dvloznov/finflow/internal/store"
)

func main() {
	// Parse CLI flags
	configPath := flag.String("config", "", "Path to config file (defaults to ./config.yaml when present)")
	user := flag.String("user", "", "User email whose transactions are reconciled (required)")
	dryRun := flag.Bool("dry-run", false, "Dry run mode - preview changes without syncing")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// Initialize structured logger
	log := bootstrap.Logger(cfg)

	email := strings.ToLower(strings.TrimSpace(*user))
	if email == "" {
		log.Fatal().Msg("Error: --user is required")
	}
	if !cfg.NotionEnabled() {
		log.Fatal().Msg("Error: notion.token and notion.database_id must be configured")
	}

	// Create context with timeout so CLI doesn't hang
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	repo, err := bootstrap.OpenRepository(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open storage")
	}
	defer repo.Close()

	page, err := repo.ListTransactions(ctx, store.TransactionFilter{UserEmail: email, Unpaged: true})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load transactions")
	}

	mirror := notionsync.NewMirror(notionsync.NewNotionClient(cfg.Notion.Token), repo, cfg.Notion.DatabaseID)
	stats, err := mirror.Reconcile(ctx, email, page.Transactions, *dryRun)
	if err != nil {
		log.Fatal().Err(err).Msg("Sync failed")
	}

	prefix := ""
	if *dryRun {
		prefix = "[DRY RUN] "
	}
	fmt.Printf("%sCreated %d, updated %d, archived %d, failed %d.\n", prefix, stats.Created, stats.Updated, stats.Archived, stats.Failed)
	if stats.Failed > 0 {
		os.Exit(1)
	}
}
