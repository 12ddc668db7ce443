package mock

import (
	"context"
	"io"

	"github.com/refdex/refdex"
)

var _ refdex.AttachmentStore = (*AttachmentStore)(nil)

// AttachmentStore is a mock implementation of refdex.AttachmentStore.
type AttachmentStore struct {
	SaveFn   func(ctx context.Context, itemID, filename string, r io.Reader) (*refdex.StoredAttachment, error)
	OpenFn   func(ctx context.Context, path string) (io.ReadCloser, error)
	ExistsFn func(ctx context.Context, path string) (bool, error)
	RemoveFn func(ctx context.Context, path string) error
}

func (s *AttachmentStore) Save(ctx context.Context, itemID, filename string, r io.Reader) (*refdex.StoredAttachment, error) {
	return s.SaveFn(ctx, itemID, filename, r)
}

func (s *AttachmentStore) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	return s.OpenFn(ctx, path)
}

func (s *AttachmentStore) Exists(ctx context.Context, path string) (bool, error) {
	return s.ExistsFn(ctx, path)
}

func (s *AttachmentStore) Remove(ctx context.Context, path string) error {
	return s.RemoveFn(ctx, path)
}
