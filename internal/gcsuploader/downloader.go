package gcsuploader

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
)

// Fetch implements StorageService. Objects outside the configured bucket are refused.
func (s *GCSStorageService) Fetch(ctx context.Context, gcsURI string) ([]byte, error) {
	bucket, object, err := ParseGCSURI(gcsURI)
	if err != nil {
		return nil, fmt.Errorf("Fetch: %w", err)
	}
	if bucket != s.bucket {
		return nil, fmt.Errorf("Fetch: object %s is not in bucket %s", gcsURI, s.bucket)
	}

	r, err := s.client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("Fetch: open object %s/%s: %w", bucket, object, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("Fetch: read bytes: %w", err)
	}
	return data, nil
}

// ParseGCSURI splits "gs://bucket/path/to/file" into bucket and object path.
func ParseGCSURI(gcsURI string) (bucket, object string, err error) {
	if !strings.HasPrefix(gcsURI, "gs://") {
		return "", "", fmt.Errorf("invalid GCS URI: %s", gcsURI)
	}
	parts := strings.SplitN(strings.TrimPrefix(gcsURI, "gs://"), "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid GCS URI (no object path): %s", gcsURI)
	}
	return parts[0], parts[1], nil
}

// ExtractFilenameFromGCSURI returns the last path element,
// e.g. "gs://bucket/image/a@b.c/2025-01-01/x.jpg" → "x.jpg".
func ExtractFilenameFromGCSURI(uri string) string {
	trimmed := strings.TrimPrefix(uri, "gs://")
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) < 2 {
		return trimmed
	}
	return path.Base(parts[1])
}
