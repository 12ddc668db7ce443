package mock

import (
	"context"

	"github.com/refdex/refdex"
)

var _ refdex.Embedder = (*Embedder)(nil)

// Embedder is a mock implementation of refdex.Embedder.
type Embedder struct {
	EmbedDocumentsFn func(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQueryFn     func(ctx context.Context, text string) ([]float32, error)
	ModelIDFn        func() string
	DimensionsFn     func() int
}

func (e *Embedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	return e.EmbedDocumentsFn(ctx, texts)
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return e.EmbedQueryFn(ctx, text)
}

func (e *Embedder) ModelID() string {
	return e.ModelIDFn()
}

func (e *Embedder) Dimensions() int {
	return e.DimensionsFn()
}
