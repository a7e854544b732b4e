package pipeline

import (
	"context"

	"github.com/dvloznov/finflow/internal/domain"
	"github.com/dvloznov/finflow/internal/gcsuploader"
	"github.com/dvloznov/finflow/internal/jobs"
)

// TransactionStore is the part of the store the pipeline writes to.
type TransactionStore interface {
	InsertTransaction(ctx context.Context, tx *domain.Transaction) error
	CountTransactions(ctx context.Context, userEmail string, source domain.Source, date string) (int, error)
}

// UserStore loads entitlement data.
type UserStore interface {
	GetUser(ctx context.Context, email string) (*domain.User, error)
}

// ConfigStore loads the key-value limits configuration.
type ConfigStore interface {
	ListAppConfig(ctx context.Context) (map[string]string, error)
}

// Archiver keeps a copy of the uploaded file.
type Archiver interface {
	Archive(ctx context.Context, req gcsuploader.ArchiveRequest) (string, error)
}

// MirrorPublisher hands new transactions to the background mirror.
type MirrorPublisher interface {
	PublishMirrorTransaction(ctx context.Context, job *jobs.MirrorTransactionJob) error
}
