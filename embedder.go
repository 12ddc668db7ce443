package refdex

import "context"

// Embedder turns text into vectors under a fixed embedding model. The
// model identity and vector size are part of the embedder's contract:
// vectors from different models are never comparable, so everything an
// embedder produces is namespaced by ModelID() downstream.
type Embedder interface {
	// EmbedDocuments embeds a batch of document chunks, returning one
	// vector per input in the same order. Every vector has Dimensions()
	// elements.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQuery embeds a retrieval query against documents previously
	// embedded with EmbedDocuments.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)

	// ModelID returns the embedding model identity, including any
	// parameters that change the vector space (e.g. output size).
	ModelID() string

	// Dimensions returns the vector size this embedder produces.
	Dimensions() int
}
