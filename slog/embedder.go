package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/refdex/refdex"
)

// Ensure LoggingEmbedder implements refdex.Embedder.
var _ refdex.Embedder = (*LoggingEmbedder)(nil)

// LoggingEmbedder wraps an Embedder with debug logging.
type LoggingEmbedder struct {
	next   refdex.Embedder
	logger *slog.Logger
}

// NewLoggingEmbedder creates a new LoggingEmbedder.
func NewLoggingEmbedder(next refdex.Embedder, logger *slog.Logger) *LoggingEmbedder {
	return &LoggingEmbedder{next: next, logger: logger}
}

// EmbedDocuments delegates to the wrapped embedder and logs the operation.
func (e *LoggingEmbedder) EmbedDocuments(ctx context.Context, texts []string) (vectors [][]float32, err error) {
	defer func(begin time.Time) {
		e.logger.Info("document embedding",
			"model", e.next.ModelID(),
			"texts", len(texts),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return e.next.EmbedDocuments(ctx, texts)
}

// EmbedQuery delegates to the wrapped embedder and logs the operation.
func (e *LoggingEmbedder) EmbedQuery(ctx context.Context, text string) (vector []float32, err error) {
	defer func(begin time.Time) {
		e.logger.Info("query embedding",
			"model", e.next.ModelID(),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return e.next.EmbedQuery(ctx, text)
}

// ModelID delegates to the wrapped embedder.
func (e *LoggingEmbedder) ModelID() string {
	return e.next.ModelID()
}

// Dimensions delegates to the wrapped embedder.
func (e *LoggingEmbedder) Dimensions() int {
	return e.next.Dimensions()
}
