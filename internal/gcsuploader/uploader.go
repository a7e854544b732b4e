package gcsuploader

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/dvloznov/finflow/internal/domain"
	"github.com/google/uuid"
)

// uploadTimeout bounds a single archive upload.
const uploadTimeout = 2 * time.Minute

// Archive implements StorageService. It writes the file under
// <source>/<user>/<YYYY-MM-DD>/<uuid><ext> and returns its gs:// URI.
func (s *GCSStorageService) Archive(ctx context.Context, req ArchiveRequest) (string, error) {
	if len(req.Data) == 0 {
		return "", fmt.Errorf("Archive: empty file")
	}

	objectName := ObjectName(req, uuid.NewString())

	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	w := s.client.Bucket(s.bucket).Object(objectName).NewWriter(ctx)
	w.ContentType = req.MIMEType
	w.Metadata = map[string]string{
		"user_email": req.UserEmail,
		"source":     string(req.Source),
	}

	if _, err := io.Copy(w, bytes.NewReader(req.Data)); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("Archive: copy to GCS writer: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("Archive: finalize upload: %w", err)
	}

	return fmt.Sprintf("gs://%s/%s", s.bucket, objectName), nil
}

// ObjectName builds the object path for an archived file.
func ObjectName(req ArchiveRequest, id string) string {
	at := req.At
	if at.IsZero() {
		at = time.Now()
	}
	source := string(req.Source)
	if source == "" {
		source = "unknown"
	}
	return path.Join(
		source,
		sanitizeSegment(req.UserEmail),
		domain.FormatDate(at),
		id+extensionFor(req.MIMEType),
	)
}

// sanitizeSegment keeps a path segment to characters safe in object names.
func sanitizeSegment(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "anonymous"
	}
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '-', r == '_', r == '@':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

var extensions = map[string]string{
	"image/jpeg":  ".jpg",
	"image/jpg":   ".jpg",
	"image/png":   ".png",
	"image/webp":  ".webp",
	"image/heic":  ".heic",
	"audio/webm":  ".webm",
	"audio/ogg":   ".ogg",
	"audio/mpeg":  ".mp3",
	"audio/mp3":   ".mp3",
	"audio/mp4":   ".m4a",
	"audio/wav":   ".wav",
	"audio/x-wav": ".wav",
	"video/webm":  ".webm",
}

func extensionFor(mimeType string) string {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.Index(mimeType, ";"); i != -1 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}
	return extensions[mimeType]
}
