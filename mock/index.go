package mock

import (
	"context"

	"github.com/refdex/refdex"
)

var _ refdex.IndexService = (*IndexService)(nil)

// IndexService is a mock implementation of refdex.IndexService.
type IndexService struct {
	FindIndexEntriesFn   func(ctx context.Context, filter refdex.IndexEntryFilter) ([]*refdex.IndexEntry, error)
	UpsertIndexEntryFn   func(ctx context.Context, entry *refdex.IndexEntry) error
	DeleteIndexEntriesFn func(ctx context.Context, filter refdex.IndexEntryFilter) (int, error)
}

func (s *IndexService) FindIndexEntries(ctx context.Context, filter refdex.IndexEntryFilter) ([]*refdex.IndexEntry, error) {
	return s.FindIndexEntriesFn(ctx, filter)
}

func (s *IndexService) UpsertIndexEntry(ctx context.Context, entry *refdex.IndexEntry) error {
	return s.UpsertIndexEntryFn(ctx, entry)
}

func (s *IndexService) DeleteIndexEntries(ctx context.Context, filter refdex.IndexEntryFilter) (int, error) {
	return s.DeleteIndexEntriesFn(ctx, filter)
}
