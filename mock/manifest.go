package mock

import (
	"context"

	"github.com/refdex/refdex"
)

var _ refdex.ManifestService = (*ManifestService)(nil)

// ManifestService is a mock implementation of refdex.ManifestService.
type ManifestService struct {
	FindEntryByItemIDFn func(ctx context.Context, itemID string) (*refdex.ManifestEntry, error)
	FindEntriesFn       func(ctx context.Context, filter refdex.ManifestEntryFilter) ([]*refdex.ManifestEntry, error)
	UpsertEntryFn       func(ctx context.Context, entry *refdex.ManifestEntry) error
	DeleteEntryFn       func(ctx context.Context, itemID string) error
}

func (s *ManifestService) FindEntryByItemID(ctx context.Context, itemID string) (*refdex.ManifestEntry, error) {
	return s.FindEntryByItemIDFn(ctx, itemID)
}

func (s *ManifestService) FindEntries(ctx context.Context, filter refdex.ManifestEntryFilter) ([]*refdex.ManifestEntry, error) {
	return s.FindEntriesFn(ctx, filter)
}

func (s *ManifestService) UpsertEntry(ctx context.Context, entry *refdex.ManifestEntry) error {
	return s.UpsertEntryFn(ctx, entry)
}

func (s *ManifestService) DeleteEntry(ctx context.Context, itemID string) error {
	return s.DeleteEntryFn(ctx, itemID)
}
