// Package notionsync mirrors recorded transactions into a Notion database. The
// mirror is one-way: the store stays the source of truth and Notion pages are
// created, updated or archived to follow it.
package notionsync

import (
	"context"

	"github.com/dvloznov/finflow/internal/domain"
	"github.com/jomei/notionapi"
)

// NotionService is the subset of the Notion API the mirror needs.
type NotionService interface {
	CreatePage(ctx context.Context, databaseID string, properties notionapi.Properties) (*notionapi.Page, error)
	UpdatePage(ctx context.Context, pageID string, properties notionapi.Properties) (*notionapi.Page, error)
	QueryDatabase(ctx context.Context, databaseID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error)

	// DeletePage archives the page. Notion has no hard delete.
	DeletePage(ctx context.Context, pageID string) error
}

// TransactionSource loads the current state of a transaction.
type TransactionSource interface {
	GetTransaction(ctx context.Context, userEmail, id string) (*domain.Transaction, error)
}
