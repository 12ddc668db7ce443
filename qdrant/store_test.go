package qdrant_test

import (
	"testing"

	"github.com/refdex/refdex"
	"github.com/refdex/refdex/qdrant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectionName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		modelID string
		want    string
	}{
		{
			name:    "model with dimension suffix",
			modelID: "gemini-embedding-001@1536",
			want:    "refdex_gemini-embedding-001_1536",
		},
		{
			name:    "uppercase folded",
			modelID: "Text-Embedding-005@256",
			want:    "refdex_text-embedding-005_256",
		},
		{
			name:    "slashes and dots replaced",
			modelID: "models/embedding.v2",
			want:    "refdex_models_embedding_v2",
		},
		{
			name:    "plain name kept",
			modelID: "model_a",
			want:    "refdex_model_a",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, qdrant.CollectionName(tt.modelID))
		})
	}
}

func TestCollectionName_Deterministic(t *testing.T) {
	t.Parallel()

	// Same model ID must always map to the same collection, or index
	// entries and vectors drift apart.
	first := qdrant.CollectionName("gemini-embedding-001@1536")
	second := qdrant.CollectionName("gemini-embedding-001@1536")

	assert.Equal(t, first, second)
}

func TestNewVectorStore_ReturnsErrorWhenHostEmpty(t *testing.T) {
	t.Parallel()

	_, err := qdrant.NewVectorStore("", 6334)

	require.Error(t, err)
	assert.Equal(t, refdex.EINVALID, refdex.ErrorCode(err))
}
