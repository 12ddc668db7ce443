package mock

import (
	"context"
	"io"

	"github.com/refdex/refdex"
)

var _ refdex.CatalogSource = (*CatalogSource)(nil)

// CatalogSource is a mock implementation of refdex.CatalogSource.
type CatalogSource struct {
	ListItemsFn          func(ctx context.Context) ([]refdex.RemoteItem, error)
	DownloadAttachmentFn func(ctx context.Context, attachmentID string) (io.ReadCloser, error)
}

func (s *CatalogSource) ListItems(ctx context.Context) ([]refdex.RemoteItem, error) {
	return s.ListItemsFn(ctx)
}

func (s *CatalogSource) DownloadAttachment(ctx context.Context, attachmentID string) (io.ReadCloser, error) {
	return s.DownloadAttachmentFn(ctx, attachmentID)
}
