package mock

import (
	"context"

	"github.com/refdex/refdex"
)

var _ refdex.VectorStore = (*VectorStore)(nil)

// VectorStore is a mock implementation of refdex.VectorStore.
type VectorStore struct {
	EnsureModelFn  func(ctx context.Context, modelID string, dimensions int) error
	UpsertPointsFn func(ctx context.Context, modelID string, points []refdex.VectorPoint) error
	SearchPointsFn func(ctx context.Context, modelID string, vector []float32, limit int) ([]refdex.SearchResult, error)
	DeletePointsFn func(ctx context.Context, modelID string, pointIDs []string) error
	DropModelFn    func(ctx context.Context, modelID string) error
}

func (s *VectorStore) EnsureModel(ctx context.Context, modelID string, dimensions int) error {
	return s.EnsureModelFn(ctx, modelID, dimensions)
}

func (s *VectorStore) UpsertPoints(ctx context.Context, modelID string, points []refdex.VectorPoint) error {
	return s.UpsertPointsFn(ctx, modelID, points)
}

func (s *VectorStore) SearchPoints(ctx context.Context, modelID string, vector []float32, limit int) ([]refdex.SearchResult, error) {
	return s.SearchPointsFn(ctx, modelID, vector, limit)
}

func (s *VectorStore) DeletePoints(ctx context.Context, modelID string, pointIDs []string) error {
	return s.DeletePointsFn(ctx, modelID, pointIDs)
}

func (s *VectorStore) DropModel(ctx context.Context, modelID string) error {
	return s.DropModelFn(ctx, modelID)
}
