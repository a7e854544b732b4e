package main

import (
	"context"
	"crypto/sha256"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/finflow/internal/config"
	"github.com/dvloznov/finflow/internal/logger"
	"github.com/rs/zerolog"
	"google.golang.org/api/iterator"
)

// Migration represents a single migration file
type Migration struct {
	Version  int
	Name     string
	Filename string
	SQL      string
	Checksum string
}

// AppliedMigration represents a migration that has already been applied
type AppliedMigration struct {
	Version   int
	Name      string
	AppliedAt time.Time
	Checksum  string
	AppliedBy string
}

var migrationPattern = regexp.MustCompile(`^(\d{4})_(.+)\.sql$`)

func main() {
	configPath := flag.String("config", "", "Path to config file (defaults to ./config.yaml when present)")
	projectFlag := flag.String("project", "", "GCP project ID (overrides config)")
	datasetFlag := flag.String("dataset", "", "BigQuery dataset ID (overrides config)")
	appliedBy := flag.String("applied-by", "migrate-cli", "Name of the tool applying migrations")
	migrationsDir := flag.String("migrations", "migrations/bigquery", "Path to migrations directory")
	dryRun := flag.Bool("dry-run", false, "List pending migrations without applying them")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Server.LogLevel)

	projectID, datasetID := cfg.GCP.ProjectID, cfg.GCP.Dataset
	if *projectFlag != "" {
		projectID = *projectFlag
	}
	if *datasetFlag != "" {
		datasetID = *datasetFlag
	}
	if projectID == "" {
		log.Fatal().Msg("GCP project ID is required: set gcp.project_id or pass -project")
	}

	ctx := context.Background()

	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create BigQuery client")
	}
	defer client.Close()

	log.Info().Str("project", projectID).Str("dataset", datasetID).Msg("Connected to BigQuery")

	m := &migrator{
		client:    client,
		projectID: projectID,
		datasetID: datasetID,
		appliedBy: *appliedBy,
		log:       log,
	}
	if err := m.run(ctx, resolveDir(*migrationsDir), *dryRun); err != nil {
		log.Fatal().Err(err).Msg("Migration failed")
	}
}

type migrator struct {
	client    *bigquery.Client
	projectID string
	datasetID string
	appliedBy string
	log       zerolog.Logger
}

func (m *migrator) run(ctx context.Context, dir string, dryRun bool) error {
	if err := m.exec(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			version       INT64 NOT NULL,
			name          STRING NOT NULL,
			applied_at    TIMESTAMP NOT NULL,
			checksum      STRING,
			applied_by    STRING
		)
	`, m.table("schema_migrations")), nil); err != nil {
		return fmt.Errorf("ensuring schema_migrations table: %w", err)
	}

	migrations, err := loadMigrations(dir, m.projectID, m.datasetID)
	if err != nil {
		return err
	}
	m.log.Info().Int("count", len(migrations)).Msg("Found migration files")

	applied, err := m.applied(ctx)
	if err != nil {
		return err
	}

	pending, mismatched := pendingMigrations(migrations, applied)
	for _, mig := range mismatched {
		m.log.Warn().Int("version", mig.Version).Str("name", mig.Name).
			Msg("Applied migration file changed since it was applied")
	}

	if len(pending) == 0 {
		m.log.Info().Msg("No new migrations to apply. Database is up to date.")
		return nil
	}

	for _, mig := range pending {
		if dryRun {
			m.log.Info().Str("migration", mig.Filename).Msg("[PENDING]")
			continue
		}

		m.log.Info().Str("migration", mig.Filename).Msg("[RUN]")
		if err := m.exec(ctx, mig.SQL, nil); err != nil {
			return fmt.Errorf("executing %s: %w", mig.Filename, err)
		}
		if err := m.exec(ctx, fmt.Sprintf(`
			INSERT INTO %s
			(version, name, applied_at, checksum, applied_by)
			VALUES (@version, @name, CURRENT_TIMESTAMP(), @checksum, @applied_by)
		`, m.table("schema_migrations")), []bigquery.QueryParameter{
			{Name: "version", Value: mig.Version},
			{Name: "name", Value: mig.Name},
			{Name: "checksum", Value: mig.Checksum},
			{Name: "applied_by", Value: m.appliedBy},
		}); err != nil {
			return fmt.Errorf("recording %s: %w", mig.Filename, err)
		}
		m.log.Info().Str("migration", mig.Filename).Msg("[OK]")
	}

	if !dryRun {
		m.log.Info().Int("applied", len(pending)).Msg("Migrations applied")
	}
	return nil
}

func (m *migrator) table(name string) string {
	return fmt.Sprintf("`%s.%s.%s`", m.projectID, m.datasetID, name)
}

func (m *migrator) exec(ctx context.Context, sql string, params []bigquery.QueryParameter) error {
	q := m.client.Query(sql)
	q.Parameters = params

	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("running query: %w", err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("waiting for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("job error: %w", err)
	}
	return nil
}

func (m *migrator) applied(ctx context.Context) ([]AppliedMigration, error) {
	q := m.client.Query(fmt.Sprintf(`
		SELECT version, name, applied_at, checksum, applied_by
		FROM %s
		ORDER BY version ASC
	`, m.table("schema_migrations")))

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading applied migrations: %w", err)
	}

	var applied []AppliedMigration
	for {
		var row struct {
			Version   int64               `bigquery:"version"`
			Name      string              `bigquery:"name"`
			AppliedAt time.Time           `bigquery:"applied_at"`
			Checksum  bigquery.NullString `bigquery:"checksum"`
			AppliedBy bigquery.NullString `bigquery:"applied_by"`
		}
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("iterating applied migrations: %w", err)
		}
		applied = append(applied, AppliedMigration{
			Version:   int(row.Version),
			Name:      row.Name,
			AppliedAt: row.AppliedAt,
			Checksum:  row.Checksum.StringVal,
			AppliedBy: row.AppliedBy.StringVal,
		})
	}
	return applied, nil
}

// resolveDir also accepts the directory relative to the repository root when run from cmd/migrate.
func resolveDir(dir string) string {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		alt := filepath.Join("..", "..", dir)
		if _, err := os.Stat(alt); err == nil {
			return alt
		}
	}
	return dir
}

// parseMigrationFilename splits "0001_name.sql" into its version and name.
func parseMigrationFilename(filename string) (int, string, bool) {
	matches := migrationPattern.FindStringSubmatch(filename)
	if matches == nil {
		return 0, "", false
	}
	version, err := strconv.Atoi(matches[1])
	if err != nil {
		return 0, "", false
	}
	return version, matches[2], true
}

// loadMigrations reads every migration file in dir, substitutes the project and
// dataset placeholders and sorts by version. The checksum covers the file as
// written, before substitution.
func loadMigrations(dir, projectID, datasetID string) ([]Migration, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading migrations directory: %w", err)
	}

	var migrations []Migration
	seen := make(map[int]string)
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		version, name, ok := parseMigrationFilename(file.Name())
		if !ok {
			continue
		}
		if prev, dup := seen[version]; dup {
			return nil, fmt.Errorf("duplicate migration version %04d: %s and %s", version, prev, file.Name())
		}
		seen[version] = file.Name()

		content, err := os.ReadFile(filepath.Join(dir, file.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading file %s: %w", file.Name(), err)
		}

		sql := strings.ReplaceAll(string(content), "{{PROJECT_ID}}", projectID)
		sql = strings.ReplaceAll(sql, "{{DATASET_ID}}", datasetID)

		migrations = append(migrations, Migration{
			Version:  version,
			Name:     name,
			Filename: file.Name(),
			SQL:      sql,
			Checksum: fmt.Sprintf("%x", sha256.Sum256(content)),
		})
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})
	return migrations, nil
}

// pendingMigrations returns the migrations not yet applied, and the applied ones whose
// file checksum no longer matches.
func pendingMigrations(all []Migration, applied []AppliedMigration) (pending, mismatched []Migration) {
	byVersion := make(map[int]AppliedMigration, len(applied))
	for _, am := range applied {
		byVersion[am.Version] = am
	}
	for _, mig := range all {
		am, ok := byVersion[mig.Version]
		if !ok {
			pending = append(pending, mig)
			continue
		}
		if am.Checksum != "" && am.Checksum != mig.Checksum {
			mismatched = append(mismatched, mig)
		}
	}
	return pending, mismatched
}
