package index

import (
	"context"
	"sort"
	"time"

	"github.com/refdex/refdex"
	"golang.org/x/sync/errgroup"
)

// ChunkFailure records a chunk that could not be embedded or stored.
// Failed chunks stay absent from the index and reappear in the next plan.
type ChunkFailure struct {
	ItemID  string
	ChunkID string
	Err     error
}

// Report summarizes one Execute run.
type Report struct {
	ModelID string

	// Embedded counts chunks embedded and recorded in the index.
	Embedded int

	// Stale counts superseded entries removed along with their points.
	Stale int

	// Failed lists chunks that did not land.
	Failed []ChunkFailure
}

// batchResult carries one embedding batch back from the worker pool.
type batchResult struct {
	position int
	chunks   []PlannedChunk
	vectors  [][]float32
	err      error
}

// Execute embeds the planned chunks and records their index entries.
// Embedding runs on a bounded worker pool; all vector and index writes
// happen sequentially as batches complete, so a cancelled run keeps every
// chunk that already landed. Per-batch embedding failures are isolated.
// Index store failures are fatal: a store that cannot record what was
// embedded must not keep going.
func (ix *Indexer) Execute(ctx context.Context, plan *Plan) (*Report, error) {
	if plan == nil {
		return nil, refdex.Errorf(refdex.EINVALID, "plan required")
	}
	if got := ix.Embedder.ModelID(); got != plan.ModelID {
		return nil, refdex.Errorf(refdex.EINVALID, "plan computed for model %q but embedder produces %q", plan.ModelID, got)
	}

	report := &Report{ModelID: plan.ModelID}
	if plan.Empty() {
		return report, nil
	}

	if err := ix.Vectors.EnsureModel(ctx, plan.ModelID, ix.Embedder.Dimensions()); err != nil {
		return nil, err
	}

	batchSize := ix.BatchSize
	if batchSize < 1 {
		batchSize = defaultBatchSize
	}
	concurrency := ix.Concurrency
	if concurrency < 1 {
		concurrency = defaultConcurrency
	}
	batches := batchChunks(plan.Chunks, batchSize)

	resultCh := make(chan batchResult, len(batches))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	go func() {
		for i, batch := range batches {
			g.Go(func() error {
				texts := make([]string, len(batch))
				for j, chunk := range batch {
					texts[j] = chunk.Text
				}
				vectors, err := ix.Embedder.EmbedDocuments(gctx, texts)
				resultCh <- batchResult{position: i, chunks: batch, vectors: vectors, err: err}
				return nil
			})
		}
		_ = g.Wait()
		close(resultCh)
	}()

	// Collect in order so reports are deterministic.
	results := make([]batchResult, len(batches))
	for result := range resultCh {
		results[result.position] = result
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	failedItems := make(map[string]bool)
	now := time.Now().UTC()

	for _, result := range results {
		if result.err == nil {
			if err := ix.Vectors.UpsertPoints(ctx, plan.ModelID, batchPoints(result)); err != nil {
				result.err = err
			}
		}
		if result.err != nil {
			for _, chunk := range result.chunks {
				report.Failed = append(report.Failed, ChunkFailure{ItemID: chunk.ItemID, ChunkID: chunk.ChunkID, Err: result.err})
				failedItems[chunk.ItemID] = true
			}
			continue
		}

		for _, chunk := range result.chunks {
			entry := &refdex.IndexEntry{
				ItemID:      chunk.ItemID,
				ChunkID:     chunk.ChunkID,
				ModelID:     plan.ModelID,
				ContentHash: chunk.ContentHash,
				PointID:     chunk.PointID,
				IndexedAt:   now,
			}
			if err := ix.Index.UpsertIndexEntry(ctx, entry); err != nil {
				return nil, err
			}
			report.Embedded++
		}
	}

	if err := ix.removeSuperseded(ctx, plan, failedItems, report); err != nil {
		return nil, err
	}

	return report, nil
}

// removeSuperseded deletes entries whose chunk ID the item's current
// content no longer produces, along with their points. Only items whose
// planned chunks all landed are cleaned: a partially indexed item keeps
// its old entries until a full pass succeeds. Entries under other models
// are never touched.
func (ix *Indexer) removeSuperseded(ctx context.Context, plan *Plan, failedItems map[string]bool, report *Report) error {
	itemIDs := make([]string, 0, len(plan.CurrentChunks))
	for itemID := range plan.CurrentChunks {
		itemIDs = append(itemIDs, itemID)
	}
	sort.Strings(itemIDs)

	for _, itemID := range itemIDs {
		if failedItems[itemID] {
			continue
		}

		current := make(map[string]bool, len(plan.CurrentChunks[itemID]))
		for _, chunkID := range plan.CurrentChunks[itemID] {
			current[chunkID] = true
		}

		existing, err := ix.Index.FindIndexEntries(ctx, refdex.IndexEntryFilter{ItemID: &itemID, ModelID: &plan.ModelID})
		if err != nil {
			return err
		}

		var stale []*refdex.IndexEntry
		for _, entry := range existing {
			if !current[entry.ChunkID] {
				stale = append(stale, entry)
			}
		}
		if len(stale) == 0 {
			continue
		}

		pointIDs := make([]string, len(stale))
		for i, entry := range stale {
			pointIDs[i] = entry.PointID
		}
		// Best effort; a leftover point is filtered at ask time.
		_ = ix.Vectors.DeletePoints(ctx, plan.ModelID, pointIDs)

		for _, entry := range stale {
			chunkID := entry.ChunkID
			if _, err := ix.Index.DeleteIndexEntries(ctx, refdex.IndexEntryFilter{ItemID: &itemID, ChunkID: &chunkID, ModelID: &plan.ModelID}); err != nil {
				return err
			}
			report.Stale++
		}
	}

	return nil
}

func batchPoints(result batchResult) []refdex.VectorPoint {
	points := make([]refdex.VectorPoint, len(result.chunks))
	for i, chunk := range result.chunks {
		points[i] = refdex.VectorPoint{
			ID:     chunk.PointID,
			Vector: result.vectors[i],
			Passage: refdex.Passage{
				ItemID:      chunk.ItemID,
				ChunkID:     chunk.ChunkID,
				Title:       chunk.Title,
				HeadingPath: chunk.HeadingPath,
				Text:        chunk.Text,
			},
		}
	}
	return points
}

func batchChunks(chunks []PlannedChunk, size int) [][]PlannedChunk {
	var batches [][]PlannedChunk
	for len(chunks) > size {
		batches = append(batches, chunks[:size])
		chunks = chunks[size:]
	}
	if len(chunks) > 0 {
		batches = append(batches, chunks)
	}
	return batches
}
