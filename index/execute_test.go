package index_test

import (
	"context"
	"testing"

	"github.com/refdex/refdex"
	"github.com/refdex/refdex/index"
	"github.com/refdex/refdex/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unitEmbedder embeds every text as a fixed 4-dimensional vector,
// recording the batches it received.
func unitEmbedder(batches *[][]string) *mock.Embedder {
	return &mock.Embedder{
		ModelIDFn:    func() string { return "model-a@4" },
		DimensionsFn: func() int { return 4 },
		EmbedDocumentsFn: func(_ context.Context, texts []string) ([][]float32, error) {
			*batches = append(*batches, texts)
			vectors := make([][]float32, len(texts))
			for i := range texts {
				vectors[i] = []float32{1, 0, 0, float32(len(texts[i]))}
			}
			return vectors, nil
		},
	}
}

// vectorCalls records every write a VectorStore mock receives.
type vectorCalls struct {
	ensured    []string
	ensureDims []int
	upserts    []refdex.VectorPoint
	deleted    []string
}

func collectingVectors(calls *vectorCalls) *mock.VectorStore {
	return &mock.VectorStore{
		EnsureModelFn: func(_ context.Context, modelID string, dimensions int) error {
			calls.ensured = append(calls.ensured, modelID)
			calls.ensureDims = append(calls.ensureDims, dimensions)
			return nil
		},
		UpsertPointsFn: func(_ context.Context, _ string, points []refdex.VectorPoint) error {
			calls.upserts = append(calls.upserts, points...)
			return nil
		},
		DeletePointsFn: func(_ context.Context, _ string, pointIDs []string) error {
			calls.deleted = append(calls.deleted, pointIDs...)
			return nil
		},
	}
}

func planOf(modelID string, current map[string][]string, chunks ...index.PlannedChunk) *index.Plan {
	return &index.Plan{ModelID: modelID, Chunks: chunks, CurrentChunks: current}
}

func planned(itemID, chunkID, text, hash string) index.PlannedChunk {
	return index.PlannedChunk{
		ItemID:      itemID,
		Title:       "Title " + itemID,
		ChunkID:     chunkID,
		Text:        text,
		ContentHash: hash,
		PointID:     refdex.ChunkPointID(itemID, chunkID),
		Reason:      index.ReasonNew,
	}
}

func TestIndexer_Execute(t *testing.T) {
	t.Parallel()

	t.Run("embeds planned chunks and records index entries", func(t *testing.T) {
		t.Parallel()

		var batches [][]string
		var calls vectorCalls
		indexSvc, stored := memIndex()

		plan := planOf("model-a@4",
			map[string][]string{"A": {"0001", "0002"}, "B": {"0001"}},
			planned("A", "0001", "alpha", "hashA"),
			planned("A", "0002", "beta", "hashA"),
			planned("B", "0001", "gamma", "hashB"),
		)

		ix := &index.Indexer{
			Index:       indexSvc,
			Embedder:    unitEmbedder(&batches),
			Vectors:     collectingVectors(&calls),
			Concurrency: 1,
			BatchSize:   2,
		}

		report, err := ix.Execute(context.Background(), plan)

		require.NoError(t, err)
		assert.Equal(t, 3, report.Embedded)
		assert.Empty(t, report.Failed)
		assert.Equal(t, 0, report.Stale)

		require.Equal(t, [][]string{{"alpha", "beta"}, {"gamma"}}, batches)
		assert.Equal(t, []string{"model-a@4"}, calls.ensured)
		assert.Equal(t, []int{4}, calls.ensureDims)

		require.Len(t, calls.upserts, 3)
		assert.Equal(t, refdex.ChunkPointID("A", "0001"), calls.upserts[0].ID)
		assert.Equal(t, "alpha", calls.upserts[0].Passage.Text)
		assert.Equal(t, "Title A", calls.upserts[0].Passage.Title)
		assert.Equal(t, "A", calls.upserts[0].Passage.ItemID)

		entry := stored["A/0001/model-a@4"]
		require.NotNil(t, entry)
		assert.Equal(t, "hashA", entry.ContentHash)
		assert.Equal(t, refdex.ChunkPointID("A", "0001"), entry.PointID)
		assert.False(t, entry.IndexedAt.IsZero())
		assert.Contains(t, stored, "B/0001/model-a@4")
	})

	t.Run("rejects a plan computed for a different model", func(t *testing.T) {
		t.Parallel()

		ix := &index.Indexer{
			Embedder: &mock.Embedder{ModelIDFn: func() string { return "model-b@8" }},
		}

		_, err := ix.Execute(context.Background(), planOf("model-a@4", nil))

		require.Error(t, err)
		assert.Equal(t, refdex.EINVALID, refdex.ErrorCode(err))
	})

	t.Run("does nothing for an empty plan", func(t *testing.T) {
		t.Parallel()

		var calls vectorCalls
		ix := &index.Indexer{
			Embedder: &mock.Embedder{ModelIDFn: func() string { return "model-a@4" }},
			Vectors:  collectingVectors(&calls),
		}

		report, err := ix.Execute(context.Background(), planOf("model-a@4", nil))

		require.NoError(t, err)
		assert.Equal(t, 0, report.Embedded)
		assert.Empty(t, calls.ensured)
	})

	t.Run("isolates embedding failures per batch", func(t *testing.T) {
		t.Parallel()

		embedder := &mock.Embedder{
			ModelIDFn:    func() string { return "model-a@4" },
			DimensionsFn: func() int { return 4 },
			EmbedDocumentsFn: func(_ context.Context, texts []string) ([][]float32, error) {
				if texts[0] == "boom" {
					return nil, refdex.Errorf(refdex.EUNAVAILABLE, "embedding backend unavailable")
				}
				vectors := make([][]float32, len(texts))
				for i := range texts {
					vectors[i] = []float32{1, 2, 3, 4}
				}
				return vectors, nil
			},
		}
		var calls vectorCalls
		indexSvc, stored := memIndex()

		plan := planOf("model-a@4",
			map[string][]string{"A": {"0001", "0002"}, "B": {"0001"}},
			planned("A", "0001", "boom", "hashA"),
			planned("A", "0002", "beta", "hashA"),
			planned("B", "0001", "gamma", "hashB"),
		)

		ix := &index.Indexer{
			Index:       indexSvc,
			Embedder:    embedder,
			Vectors:     collectingVectors(&calls),
			Concurrency: 1,
			BatchSize:   2,
		}

		report, err := ix.Execute(context.Background(), plan)

		require.NoError(t, err)
		assert.Equal(t, 1, report.Embedded)
		require.Len(t, report.Failed, 2)
		assert.Equal(t, "A", report.Failed[0].ItemID)
		assert.Equal(t, refdex.EUNAVAILABLE, refdex.ErrorCode(report.Failed[0].Err))

		assert.NotContains(t, stored, "A/0001/model-a@4")
		assert.NotContains(t, stored, "A/0002/model-a@4")
		assert.Contains(t, stored, "B/0001/model-a@4")
	})

	t.Run("marks the batch failed when the vector write fails", func(t *testing.T) {
		t.Parallel()

		var batches [][]string
		indexSvc, stored := memIndex()
		vectors := &mock.VectorStore{
			EnsureModelFn: func(context.Context, string, int) error { return nil },
			UpsertPointsFn: func(context.Context, string, []refdex.VectorPoint) error {
				return refdex.Errorf(refdex.EUNAVAILABLE, "qdrant unreachable")
			},
		}

		plan := planOf("model-a@4",
			map[string][]string{"A": {"0001"}},
			planned("A", "0001", "alpha", "hashA"),
		)

		ix := &index.Indexer{Index: indexSvc, Embedder: unitEmbedder(&batches), Vectors: vectors}

		report, err := ix.Execute(context.Background(), plan)

		require.NoError(t, err)
		assert.Equal(t, 0, report.Embedded)
		require.Len(t, report.Failed, 1)
		assert.Empty(t, stored)
	})

	t.Run("removes superseded entries once an item fully lands", func(t *testing.T) {
		t.Parallel()

		// The document shrank: the current content produces two chunks
		// where the indexed revision had three.
		indexSvc, stored := memIndex(
			&refdex.IndexEntry{ItemID: "A", ChunkID: "0003", ModelID: "model-a@4", ContentHash: "oldhash", PointID: "p-old"},
			&refdex.IndexEntry{ItemID: "A", ChunkID: "0003", ModelID: "model-b@8", ContentHash: "oldhash", PointID: "p-b"},
		)
		var batches [][]string
		var calls vectorCalls

		plan := planOf("model-a@4",
			map[string][]string{"A": {"0001", "0002"}},
			planned("A", "0001", "alpha", "newhash"),
			planned("A", "0002", "beta", "newhash"),
		)

		ix := &index.Indexer{
			Index:       indexSvc,
			Embedder:    unitEmbedder(&batches),
			Vectors:     collectingVectors(&calls),
			Concurrency: 1,
		}

		report, err := ix.Execute(context.Background(), plan)

		require.NoError(t, err)
		assert.Equal(t, 2, report.Embedded)
		assert.Equal(t, 1, report.Stale)
		assert.NotContains(t, stored, "A/0003/model-a@4")
		assert.Contains(t, stored, "A/0003/model-b@8")
		assert.Equal(t, []string{"p-old"}, calls.deleted)
	})

	t.Run("keeps superseded entries while the item has failures", func(t *testing.T) {
		t.Parallel()

		indexSvc, stored := memIndex(
			&refdex.IndexEntry{ItemID: "A", ChunkID: "0003", ModelID: "model-a@4", ContentHash: "oldhash", PointID: "p-old"},
		)
		embedder := &mock.Embedder{
			ModelIDFn:    func() string { return "model-a@4" },
			DimensionsFn: func() int { return 4 },
			EmbedDocumentsFn: func(context.Context, []string) ([][]float32, error) {
				return nil, refdex.Errorf(refdex.EUNAVAILABLE, "embedding backend unavailable")
			},
		}
		var calls vectorCalls

		plan := planOf("model-a@4",
			map[string][]string{"A": {"0001", "0002"}},
			planned("A", "0001", "alpha", "newhash"),
			planned("A", "0002", "beta", "newhash"),
		)

		ix := &index.Indexer{Index: indexSvc, Embedder: embedder, Vectors: collectingVectors(&calls)}

		report, err := ix.Execute(context.Background(), plan)

		require.NoError(t, err)
		assert.Equal(t, 0, report.Embedded)
		assert.Equal(t, 0, report.Stale)
		assert.Contains(t, stored, "A/0003/model-a@4")
		assert.Empty(t, calls.deleted)
	})

	t.Run("propagates vector namespace conflicts", func(t *testing.T) {
		t.Parallel()

		embedder := &mock.Embedder{
			ModelIDFn:    func() string { return "model-a@4" },
			DimensionsFn: func() int { return 4 },
		}
		vectors := &mock.VectorStore{
			EnsureModelFn: func(context.Context, string, int) error {
				return refdex.Errorf(refdex.ECONFLICT, "collection holds 8-dimensional vectors")
			},
		}

		plan := planOf("model-a@4",
			map[string][]string{"A": {"0001"}},
			planned("A", "0001", "alpha", "hashA"),
		)

		ix := &index.Indexer{Embedder: embedder, Vectors: vectors}

		_, err := ix.Execute(context.Background(), plan)

		require.Error(t, err)
		assert.Equal(t, refdex.ECONFLICT, refdex.ErrorCode(err))
	})
}
