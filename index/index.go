// Package index reconciles the semantic index against the manifest. A
// reconcile pass computes which chunks lack a valid index entry for an
// embedding model; an execute pass embeds them and records the entries.
package index

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/refdex/refdex"
)

const (
	defaultConcurrency = 4
	defaultBatchSize   = 32
)

// Reason explains why a chunk needs embedding.
type Reason string

const (
	// ReasonNew marks chunks of an item with no index entries under any
	// model.
	ReasonNew Reason = "new"

	// ReasonChanged marks chunks of an item whose content moved since it
	// was indexed under this model.
	ReasonChanged Reason = "changed"

	// ReasonModel marks chunks of an item indexed under other models but
	// not this one.
	ReasonModel Reason = "model"
)

// PlannedChunk is one chunk awaiting embedding.
type PlannedChunk struct {
	ItemID      string
	Title       string
	ChunkID     string
	HeadingPath string
	Text        string

	// ContentHash fingerprints the document content the chunk came from;
	// it becomes the index entry's validity marker.
	ContentHash string

	// PointID is the deterministic vector store ID the embedding will be
	// written under.
	PointID string

	Reason Reason
}

// SkippedItem records an attachment the indexer has no text path for.
type SkippedItem struct {
	ItemID string
	Path   string
	Reason string
}

// ItemFailure records an item whose text could not be prepared.
type ItemFailure struct {
	ItemID string
	Err    error
}

// Plan is the work a model is missing, computed by Reconcile.
type Plan struct {
	// ModelID is the embedding model identity the plan was computed for.
	ModelID string

	// Chunks lists every chunk lacking a valid index entry, in manifest
	// order.
	Chunks []PlannedChunk

	// Valid counts chunks already covered by a current index entry.
	Valid int

	// Tokens is the approximate token count of the planned chunk text.
	// Zero when no token counter is configured.
	Tokens int

	// CurrentChunks maps each chunked item to the chunk IDs its current
	// content produces. Execute uses it to find superseded entries.
	CurrentChunks map[string][]string

	// Skipped lists items whose attachments cannot be indexed.
	Skipped []SkippedItem

	// Failed lists items whose extraction or chunking failed.
	Failed []ItemFailure
}

// Empty reports whether the plan contains no work.
func (p *Plan) Empty() bool {
	return len(p.Chunks) == 0
}

// Indexer keeps the per-model semantic index consistent with the
// manifest. Reconcile computes missing work; Execute performs it.
type Indexer struct {
	Manifest    refdex.ManifestService
	Index       refdex.IndexService
	Attachments refdex.AttachmentStore
	Extractor   refdex.Extractor
	Converter   refdex.Converter
	Chunker     refdex.Chunker
	Embedder    refdex.Embedder
	Vectors     refdex.VectorStore

	// TokenCounter, when set, sizes planned work in tokens.
	TokenCounter refdex.TokenCounter

	// Concurrency bounds parallel embedding calls. Defaults to 4.
	Concurrency int

	// BatchSize bounds how many chunks go into one embedding call.
	// Defaults to 32.
	BatchSize int
}

// Reconcile computes the chunks modelID is missing. It never writes:
// planning against one model leaves every other model's entries untouched,
// and a plan can be inspected or discarded without side effects.
func (ix *Indexer) Reconcile(ctx context.Context, modelID string) (*Plan, error) {
	if modelID == "" {
		return nil, refdex.Errorf(refdex.EINVALID, "model ID required")
	}

	entries, err := ix.Manifest.FindEntries(ctx, refdex.ManifestEntryFilter{})
	if err != nil {
		return nil, err
	}
	indexed, err := ix.Index.FindIndexEntries(ctx, refdex.IndexEntryFilter{})
	if err != nil {
		return nil, err
	}

	// Split existing entries by whether they belong to the target model.
	byChunk := make(map[string]map[string]*refdex.IndexEntry)
	otherModels := make(map[string]bool)
	for _, entry := range indexed {
		if entry.ModelID != modelID {
			otherModels[entry.ItemID] = true
			continue
		}
		chunks := byChunk[entry.ItemID]
		if chunks == nil {
			chunks = make(map[string]*refdex.IndexEntry)
			byChunk[entry.ItemID] = chunks
		}
		chunks[entry.ChunkID] = entry
	}

	plan := &Plan{
		ModelID:       modelID,
		CurrentChunks: make(map[string][]string),
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		text, ok, err := ix.documentText(ctx, entry.Path)
		if err != nil {
			plan.Failed = append(plan.Failed, ItemFailure{ItemID: entry.ItemID, Err: err})
			continue
		}
		if !ok {
			plan.Skipped = append(plan.Skipped, SkippedItem{
				ItemID: entry.ItemID,
				Path:   entry.Path,
				Reason: fmt.Sprintf("no text extraction for %q attachments", path.Ext(entry.Path)),
			})
			continue
		}

		chunks, err := ix.Chunker.Chunk(text)
		if err != nil {
			plan.Failed = append(plan.Failed, ItemFailure{ItemID: entry.ItemID, Err: err})
			continue
		}

		indexed := byChunk[entry.ItemID]
		reason := ReasonNew
		switch {
		case len(indexed) > 0:
			reason = ReasonChanged
		case otherModels[entry.ItemID]:
			reason = ReasonModel
		}

		chunkIDs := make([]string, 0, len(chunks))
		for _, chunk := range chunks {
			chunkIDs = append(chunkIDs, chunk.ID)

			if existing := indexed[chunk.ID]; existing != nil && existing.ValidFor(entry.ContentHash, modelID) {
				plan.Valid++
				continue
			}
			plan.Chunks = append(plan.Chunks, PlannedChunk{
				ItemID:      entry.ItemID,
				Title:       entry.Metadata.Title,
				ChunkID:     chunk.ID,
				HeadingPath: chunk.HeadingPath,
				Text:        chunk.Text,
				ContentHash: entry.ContentHash,
				PointID:     refdex.ChunkPointID(entry.ItemID, chunk.ID),
				Reason:      reason,
			})
			if ix.TokenCounter != nil {
				if tokens, err := ix.TokenCounter.CountTokens(ctx, chunk.Text); err == nil {
					plan.Tokens += tokens
				}
			}
		}
		plan.CurrentChunks[entry.ItemID] = chunkIDs
	}

	return plan, nil
}

// documentText reads an attachment and prepares its text for chunking.
// The second return is false when the attachment format has no text path,
// which is not an error: PDFs and other binaries stay mirrored but
// unindexed.
func (ix *Indexer) documentText(ctx context.Context, storedPath string) (string, bool, error) {
	switch strings.ToLower(path.Ext(storedPath)) {
	case ".html", ".htm":
		html, err := ix.readAll(ctx, storedPath)
		if err != nil {
			return "", false, err
		}
		extracted, err := ix.Extractor.Extract(html)
		if err != nil {
			return "", false, err
		}
		markdown, err := ix.Converter.Convert(extracted.ContentHTML)
		if err != nil {
			return "", false, err
		}
		return markdown, true, nil
	case ".md", ".markdown", ".txt":
		text, err := ix.readAll(ctx, storedPath)
		if err != nil {
			return "", false, err
		}
		return text, true, nil
	default:
		return "", false, nil
	}
}

func (ix *Indexer) readAll(ctx context.Context, storedPath string) (string, error) {
	rc, err := ix.Attachments.Open(ctx, storedPath)
	if err != nil {
		return "", err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
