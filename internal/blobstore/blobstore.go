// Package blobstore stores uploaded images and removes them when the content
// referencing them is deleted.
package blobstore

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"regexp"
	"time"

	"showcase/internal/middleware"
	"showcase/internal/models"
	"showcase/internal/observability"
)

// Object is a stored blob.
type Object struct {
	URL      string `json:"url"`
	PublicID string `json:"public_id"`
	Format   string `json:"format,omitempty"`
	Bytes    int    `json:"bytes,omitempty"`
}

// Store uploads and destroys blobs.
type Store interface {
	Upload(ctx context.Context, r io.Reader, filename string) (*Object, error)
	Destroy(ctx context.Context, publicID string) error
}

// ErrNotConfigured is returned by uploads when no blob backend is configured.
var ErrNotConfigured = errors.New("blob store is not configured")

var publicIDPattern = regexp.MustCompile(`/([^/]+)\.[a-z]+$`)

// PublicIDFromURL returns the last path segment of url without its
// extension, or "" when url does not end in a lowercase file extension.
func PublicIDFromURL(url string) string {
	m := publicIDPattern.FindStringSubmatch(url)
	if m == nil {
		return ""
	}
	return m[1]
}

// DestroyURLs destroys the blob behind every URL. Failures are logged as
// external dependency errors and never returned; the count of failed
// deletions is reported for callers that want it.
func DestroyURLs(ctx context.Context, store Store, urls []string, timeout time.Duration) int {
	if store == nil {
		return 0
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	failed := 0
	for _, url := range urls {
		publicID := PublicIDFromURL(url)
		if publicID == "" {
			continue
		}

		dctx, cancel := context.WithTimeout(ctx, timeout)
		err := store.Destroy(dctx, publicID)
		cancel()

		if err != nil {
			failed++
			observability.BlobDeletes.WithLabelValues("error").Inc()
			appErr := models.NewExternalError("blobstore", err)
			middleware.Logger.WarnContext(ctx, "blob delete failed",
				slog.String("public_id", publicID),
				slog.String("error", appErr.Error()),
			)
			continue
		}
		observability.BlobDeletes.WithLabelValues("ok").Inc()
	}
	return failed
}
