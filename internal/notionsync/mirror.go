package notionsync

import (
	"context"
	"errors"
	"fmt"

	"github.com/dvloznov/finflow/internal/domain"
	"github.com/dvloznov/finflow/internal/jobs"
	"github.com/dvloznov/finflow/internal/logger"
	"github.com/dvloznov/finflow/internal/store"
	"github.com/jomei/notionapi"
)

// queryPageSize is the maximum page size the Notion API accepts.
const queryPageSize = 100

// Mirror keeps a Notion database in step with the transaction store.
type Mirror struct {
	notion     NotionService
	txs        TransactionSource
	databaseID string
}

// NewMirror creates a Mirror writing to databaseID.
func NewMirror(notion NotionService, txs TransactionSource, databaseID string) *Mirror {
	return &Mirror{notion: notion, txs: txs, databaseID: databaseID}
}

// Handle is a jobs.JobHandler for mirror jobs.
func (m *Mirror) Handle(ctx context.Context, job jobs.Job) error {
	mj, ok := job.(*jobs.MirrorTransactionJob)
	if !ok {
		return fmt.Errorf("Handle: unexpected job type %s", job.GetType())
	}
	return m.MirrorTransaction(ctx, mj)
}

// MirrorTransaction applies one job. An upsert of a transaction that no longer
// exists archives its page instead.
func (m *Mirror) MirrorTransaction(ctx context.Context, job *jobs.MirrorTransactionJob) error {
	log := logger.FromContext(ctx).With().
		Str("job_id", job.JobID).
		Str("transaction_id", job.TransactionID).
		Str("action", string(job.Action)).
		Logger()

	if job.Action == jobs.MirrorArchive {
		return m.archive(ctx, job.TransactionID)
	}

	tx, err := m.txs.GetTransaction(ctx, job.UserEmail, job.TransactionID)
	if errors.Is(err, store.ErrNotFound) {
		log.Info().Msg("Transaction is gone, archiving mirrored page")
		return m.archive(ctx, job.TransactionID)
	}
	if err != nil {
		return fmt.Errorf("MirrorTransaction: loading transaction: %w", err)
	}

	page, err := m.findPage(ctx, tx.ID)
	if err != nil {
		return fmt.Errorf("MirrorTransaction: %w", err)
	}

	props := TransactionToNotionProperties(tx)
	if page != nil {
		if _, err := m.notion.UpdatePage(ctx, string(page.ID), props); err != nil {
			return fmt.Errorf("MirrorTransaction: %w", err)
		}
		log.Info().Str("page_id", string(page.ID)).Msg("Updated Notion page")
		return nil
	}

	created, err := m.notion.CreatePage(ctx, m.databaseID, props)
	if err != nil {
		return fmt.Errorf("MirrorTransaction: %w", err)
	}
	log.Info().Str("page_id", string(created.ID)).Msg("Created Notion page")
	return nil
}

func (m *Mirror) archive(ctx context.Context, transactionID string) error {
	page, err := m.findPage(ctx, transactionID)
	if err != nil {
		return fmt.Errorf("archive: %w", err)
	}
	if page == nil {
		return nil
	}
	if err := m.notion.DeletePage(ctx, string(page.ID)); err != nil {
		return fmt.Errorf("archive: %w", err)
	}
	log := logger.FromContext(ctx)
	log.Info().
		Str("transaction_id", transactionID).
		Str("page_id", string(page.ID)).
		Msg("Archived Notion page")
	return nil
}

// findPage returns the page mirroring transactionID, or nil.
func (m *Mirror) findPage(ctx context.Context, transactionID string) (*notionapi.Page, error) {
	pages, err := m.queryAll(ctx, &notionapi.PropertyFilter{
		Property: PropTransactionID,
		RichText: &notionapi.TextFilterCondition{Equals: transactionID},
	})
	if err != nil {
		return nil, err
	}
	for i := range pages {
		if extractTransactionID(pages[i]) == transactionID {
			return &pages[i], nil
		}
	}
	return nil, nil
}

// queryAll follows the query cursor until every matching page is loaded.
func (m *Mirror) queryAll(ctx context.Context, filter notionapi.Filter) ([]notionapi.Page, error) {
	var (
		all    []notionapi.Page
		cursor notionapi.Cursor
	)
	for {
		req := &notionapi.DatabaseQueryRequest{PageSize: queryPageSize, Filter: filter}
		if cursor != "" {
			req.StartCursor = cursor
		}

		resp, err := m.notion.QueryDatabase(ctx, m.databaseID, req)
		if err != nil {
			return nil, fmt.Errorf("queryAll: %w", err)
		}
		all = append(all, resp.Results...)

		if !resp.HasMore {
			return all, nil
		}
		cursor = resp.NextCursor
	}
}

// SyncStats counts what a Reconcile run did, or would do in dry-run mode.
type SyncStats struct {
	Created  int
	Updated  int
	Archived int
	Failed   int
}

// Reconcile makes the user's mirrored pages match txs: missing pages are created,
// existing ones updated, and pages whose transaction is not in txs are archived.
// Individual page failures are logged and counted; they do not stop the run.
func (m *Mirror) Reconcile(ctx context.Context, userEmail string, txs []*domain.Transaction, dryRun bool) (SyncStats, error) {
	log := logger.FromContext(ctx).With().Str("user", userEmail).Bool("dry_run", dryRun).Logger()
	var stats SyncStats

	pages, err := m.queryAll(ctx, &notionapi.PropertyFilter{
		Property: PropUser,
		RichText: &notionapi.TextFilterCondition{Equals: userEmail},
	})
	if err != nil {
		return stats, fmt.Errorf("Reconcile: %w", err)
	}
	log.Info().Int("pages", len(pages)).Int("transactions", len(txs)).Msg("Reconciling Notion mirror")

	existing := make(map[string]string, len(pages))
	wanted := make(map[string]bool, len(txs))
	for _, tx := range txs {
		wanted[tx.ID] = true
	}

	for _, page := range pages {
		id := extractTransactionID(page)
		if id != "" && wanted[id] {
			existing[id] = string(page.ID)
			continue
		}
		stats.Archived++
		if dryRun {
			log.Info().Str("page_id", string(page.ID)).Msg("[DRY RUN] Would archive stale Notion page")
			continue
		}
		if err := m.notion.DeletePage(ctx, string(page.ID)); err != nil {
			stats.Archived--
			stats.Failed++
			log.Warn().Err(err).Str("page_id", string(page.ID)).Msg("Failed to archive stale Notion page")
		}
	}

	for _, tx := range txs {
		pageID, found := existing[tx.ID]
		if dryRun {
			if found {
				stats.Updated++
			} else {
				stats.Created++
			}
			continue
		}

		props := TransactionToNotionProperties(tx)
		if found {
			if _, err := m.notion.UpdatePage(ctx, pageID, props); err != nil {
				stats.Failed++
				log.Warn().Err(err).Str("transaction_id", tx.ID).Msg("Failed to update Notion page")
				continue
			}
			stats.Updated++
			continue
		}
		if _, err := m.notion.CreatePage(ctx, m.databaseID, props); err != nil {
			stats.Failed++
			log.Warn().Err(err).Str("transaction_id", tx.ID).Msg("Failed to create Notion page")
			continue
		}
		stats.Created++
	}

	log.Info().
		Int("created", stats.Created).
		Int("updated", stats.Updated).
		Int("archived", stats.Archived).
		Int("failed", stats.Failed).
		Msg("Notion mirror reconciled")
	return stats, nil
}
