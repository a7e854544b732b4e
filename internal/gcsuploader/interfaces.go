// Package gcsuploader archives submitted receipt photos and voice notes in a
// Cloud Storage bucket and reads them back.
package gcsuploader

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/storage"
	"github.com/dvloznov/finflow/internal/domain"
)

// ArchiveRequest describes one uploaded file.
type ArchiveRequest struct {
	UserEmail string
	Source    domain.Source
	MIMEType  string
	Data      []byte
	// At decides the date folder the object lands in.
	At time.Time
}

// StorageService stores and fetches archived submissions.
type StorageService interface {
	Archive(ctx context.Context, req ArchiveRequest) (gcsURI string, err error)
	Fetch(ctx context.Context, gcsURI string) ([]byte, error)
}

// GCSStorageService is the Cloud Storage implementation of StorageService.
type GCSStorageService struct {
	client *storage.Client
	bucket string
}

// NewGCSStorageService opens a storage client using Application Default Credentials.
func NewGCSStorageService(ctx context.Context, bucket string) (*GCSStorageService, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("NewGCSStorageService: create storage client: %w", err)
	}
	return &GCSStorageService{client: client, bucket: bucket}, nil
}

// Bucket returns the bucket new archives are written to.
func (s *GCSStorageService) Bucket() string { return s.bucket }

// Close releases the storage client.
func (s *GCSStorageService) Close() error {
	return s.client.Close()
}

var _ StorageService = (*GCSStorageService)(nil)
