package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/refdex/refdex"
)

// Ensure LoggingVectorStore implements refdex.VectorStore.
var _ refdex.VectorStore = (*LoggingVectorStore)(nil)

// LoggingVectorStore wraps a VectorStore with debug logging.
type LoggingVectorStore struct {
	next   refdex.VectorStore
	logger *slog.Logger
}

// NewLoggingVectorStore creates a new LoggingVectorStore.
func NewLoggingVectorStore(next refdex.VectorStore, logger *slog.Logger) *LoggingVectorStore {
	return &LoggingVectorStore{next: next, logger: logger}
}

// EnsureModel delegates to the wrapped store and logs the operation.
func (s *LoggingVectorStore) EnsureModel(ctx context.Context, modelID string, dimensions int) (err error) {
	defer func(begin time.Time) {
		s.logger.Info("vector collection ensure",
			"model", modelID,
			"dimensions", dimensions,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.EnsureModel(ctx, modelID, dimensions)
}

// UpsertPoints delegates to the wrapped store and logs the operation.
func (s *LoggingVectorStore) UpsertPoints(ctx context.Context, modelID string, points []refdex.VectorPoint) (err error) {
	defer func(begin time.Time) {
		s.logger.Info("vector upsert",
			"model", modelID,
			"count", len(points),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.UpsertPoints(ctx, modelID, points)
}

// SearchPoints delegates to the wrapped store and logs the operation.
func (s *LoggingVectorStore) SearchPoints(ctx context.Context, modelID string, vector []float32, limit int) (results []refdex.SearchResult, err error) {
	defer func(begin time.Time) {
		s.logger.Info("vector search",
			"model", modelID,
			"limit", limit,
			"results", len(results),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.SearchPoints(ctx, modelID, vector, limit)
}

// DeletePoints delegates to the wrapped store and logs the operation.
func (s *LoggingVectorStore) DeletePoints(ctx context.Context, modelID string, pointIDs []string) (err error) {
	defer func(begin time.Time) {
		s.logger.Info("vector delete",
			"model", modelID,
			"count", len(pointIDs),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.DeletePoints(ctx, modelID, pointIDs)
}

// DropModel delegates to the wrapped store and logs the operation.
func (s *LoggingVectorStore) DropModel(ctx context.Context, modelID string) (err error) {
	defer func(begin time.Time) {
		s.logger.Info("vector collection drop",
			"model", modelID,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.DropModel(ctx, modelID)
}
