package gemini

import (
	"context"
	"fmt"

	"github.com/refdex/refdex"
	"google.golang.org/genai"
)

// DefaultEmbeddingModel is the embedding model used when none is configured.
const DefaultEmbeddingModel = "gemini-embedding-001"

// DefaultDimensions is the embedding vector width used when none is configured.
const DefaultDimensions = 1536

// Ensure Embedder implements refdex.Embedder at compile time.
var _ refdex.Embedder = (*Embedder)(nil)

// Embedder implements refdex.Embedder using the Gemini embedding API.
type Embedder struct {
	client     *genai.Client
	model      string
	dimensions int
}

// EmbedderOption configures an Embedder.
type EmbedderOption func(*Embedder)

// WithEmbeddingModel sets the embedding model name.
func WithEmbeddingModel(model string) EmbedderOption {
	return func(e *Embedder) {
		e.model = model
	}
}

// WithDimensions sets the embedding vector width.
func WithDimensions(n int) EmbedderOption {
	return func(e *Embedder) {
		e.dimensions = n
	}
}

// NewEmbedder creates a new Embedder.
func NewEmbedder(client *genai.Client, opts ...EmbedderOption) *Embedder {
	e := &Embedder{
		client:     client,
		model:      DefaultEmbeddingModel,
		dimensions: DefaultDimensions,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ModelID identifies the vector space this embedder writes to. The requested
// dimensionality is part of the identity: the same model truncated to a
// different width produces incomparable vectors.
func (e *Embedder) ModelID() string {
	return fmt.Sprintf("%s@%d", e.model, e.dimensions)
}

// Dimensions returns the width of the vectors this embedder produces.
func (e *Embedder) Dimensions() int {
	return e.dimensions
}

// EmbedDocuments embeds passage texts for storage.
func (e *Embedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	return e.embed(ctx, texts, "RETRIEVAL_DOCUMENT")
}

// EmbedQuery embeds a question for retrieval.
func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, refdex.Errorf(refdex.EINVALID, "query text required")
	}

	vectors, err := e.embed(ctx, []string{text}, "RETRIEVAL_QUERY")
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (e *Embedder) embed(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	contents := make([]*genai.Content, len(texts))
	for i, text := range texts {
		contents[i] = genai.NewContentFromText(text, "user")
	}

	config := &genai.EmbedContentConfig{
		TaskType:             taskType,
		OutputDimensionality: genai.Ptr(int32(e.dimensions)),
	}

	result, err := e.client.Models.EmbedContent(ctx, e.model, contents, config)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, refdex.Errorf(refdex.EINTERNAL, "gemini returned nil result")
	}
	if len(result.Embeddings) != len(texts) {
		return nil, refdex.Errorf(refdex.EINTERNAL, "gemini returned %d embeddings for %d inputs", len(result.Embeddings), len(texts))
	}

	vectors := make([][]float32, len(texts))
	for i, embedding := range result.Embeddings {
		if embedding == nil || len(embedding.Values) == 0 {
			return nil, refdex.Errorf(refdex.EINTERNAL, "gemini returned empty embedding at index %d", i)
		}
		vectors[i] = embedding.Values
	}
	return vectors, nil
}
