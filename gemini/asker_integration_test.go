//go:build integration

package gemini_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/refdex/refdex"
	"github.com/refdex/refdex/gemini"
	"github.com/refdex/refdex/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestAsker_Integration_ReturnsAnswer(t *testing.T) {
	t.Parallel()

	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		t.Skip("GEMINI_API_KEY not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	require.NoError(t, err)

	embedder := gemini.NewEmbedder(client, gemini.WithDimensions(256))
	modelID := embedder.ModelID()

	// Storage is canned; only the embedding and generation calls are real.
	vectors := &mock.VectorStore{
		SearchPointsFn: func(context.Context, string, []float32, int) ([]refdex.SearchResult, error) {
			return []refdex.SearchResult{
				{PointID: "p1", Score: 0.92, Passage: refdex.Passage{
					ItemID:      "ITEM1",
					ChunkID:     "0001",
					Title:       "Attention Is All You Need",
					HeadingPath: "Abstract",
					Text:        "The Transformer architecture relies entirely on attention mechanisms, dispensing with recurrence and convolutions.",
				}},
			}, nil
		},
	}
	manifest := &mock.ManifestService{
		FindEntriesFn: func(context.Context, refdex.ManifestEntryFilter) ([]*refdex.ManifestEntry, error) {
			return []*refdex.ManifestEntry{
				{ItemID: "ITEM1", Path: "ITEM1/paper.pdf", ContentHash: "hash1"},
			}, nil
		},
	}
	index := &mock.IndexService{
		FindIndexEntriesFn: func(context.Context, refdex.IndexEntryFilter) ([]*refdex.IndexEntry, error) {
			return []*refdex.IndexEntry{
				{ItemID: "ITEM1", ChunkID: "0001", ModelID: modelID, ContentHash: "hash1", PointID: "p1"},
			}, nil
		},
	}

	asker := gemini.NewAsker(client, embedder, vectors, manifest, index)

	answer, err := asker.Ask(ctx, "What does the Transformer architecture rely on?")

	require.NoError(t, err)
	require.NotNil(t, answer)
	assert.Contains(t, answer.Text, "attention")
	require.Len(t, answer.Sources, 1)
	assert.Equal(t, "p1", answer.Sources[0].PointID)
}

func TestEmbedder_Integration_ProducesVectors(t *testing.T) {
	t.Parallel()

	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		t.Skip("GEMINI_API_KEY not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	require.NoError(t, err)

	embedder := gemini.NewEmbedder(client, gemini.WithDimensions(256))

	vectors, err := embedder.EmbedDocuments(ctx, []string{
		"The Transformer relies entirely on attention mechanisms.",
		"Recurrent networks process sequences one step at a time.",
	})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Len(t, vectors[0], 256)
	assert.Len(t, vectors[1], 256)

	query, err := embedder.EmbedQuery(ctx, "What does the Transformer rely on?")
	require.NoError(t, err)
	assert.Len(t, query, 256)
}
