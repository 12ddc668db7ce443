// Package slog provides logging decorators for refdex services.
package slog

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/refdex/refdex"
)

// Ensure LoggingCatalogSource implements refdex.CatalogSource.
var _ refdex.CatalogSource = (*LoggingCatalogSource)(nil)

// LoggingCatalogSource wraps a CatalogSource with debug logging.
type LoggingCatalogSource struct {
	next   refdex.CatalogSource
	logger *slog.Logger
}

// NewLoggingCatalogSource creates a new LoggingCatalogSource.
func NewLoggingCatalogSource(next refdex.CatalogSource, logger *slog.Logger) *LoggingCatalogSource {
	return &LoggingCatalogSource{next: next, logger: logger}
}

// ListItems delegates to the wrapped source and logs the operation.
func (s *LoggingCatalogSource) ListItems(ctx context.Context) (items []refdex.RemoteItem, err error) {
	defer func(begin time.Time) {
		s.logger.Info("catalog listing",
			"count", len(items),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.ListItems(ctx)
}

// DownloadAttachment delegates to the wrapped source and logs the operation.
// The duration covers time to first byte, not the full transfer.
func (s *LoggingCatalogSource) DownloadAttachment(ctx context.Context, attachmentID string) (rc io.ReadCloser, err error) {
	defer func(begin time.Time) {
		s.logger.Info("attachment download",
			"attachment", attachmentID,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.DownloadAttachment(ctx, attachmentID)
}
