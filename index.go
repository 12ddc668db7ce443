package refdex

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// IndexEntry records that one chunk of one item was embedded under one
// embedding model. Entries track index validity; the vectors themselves
// live in the vector store under the point ID.
type IndexEntry struct {
	// ItemID is the manifest item the chunk belongs to.
	ItemID string `json:"itemId"`

	// ChunkID identifies the chunk within the item. Chunk IDs are
	// deterministic for a given document content, so re-chunking
	// unchanged content yields the same IDs.
	ChunkID string `json:"chunkId"`

	// ModelID is the embedding model identity the chunk was embedded
	// under. Entries never serve lookups for a different model.
	ModelID string `json:"modelId"`

	// ContentHash is the fingerprint of the document content the chunk
	// was derived from at embedding time.
	ContentHash string `json:"contentHash"`

	// PointID is the vector store point holding the embedding.
	PointID string `json:"pointId"`

	// IndexedAt records when the embedding was computed.
	IndexedAt time.Time `json:"indexedAt"`
}

// Validate returns an error if the entry contains invalid fields.
// This only performs basic validation.
func (e *IndexEntry) Validate() error {
	if e.ItemID == "" {
		return Errorf(EINVALID, "Item ID required.")
	} else if e.ChunkID == "" {
		return Errorf(EINVALID, "Chunk ID required.")
	} else if e.ModelID == "" {
		return Errorf(EINVALID, "Model ID required.")
	} else if e.ContentHash == "" {
		return Errorf(EINVALID, "Content hash required.")
	}
	return nil
}

// ValidFor reports whether the entry may serve lookups for the given
// document content and embedding model. Both must match exactly; an entry
// embedded under another model or from older content is stale.
func (e *IndexEntry) ValidFor(contentHash, modelID string) bool {
	return e.ContentHash == contentHash && e.ModelID == modelID
}

// pointNamespace scopes deterministic point IDs to this application.
var pointNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("refdex.local/points"))

// ChunkPointID derives the vector store point ID for a chunk. The ID is a
// deterministic UUID of (itemID, chunkID), so re-embedding a chunk under
// the same model overwrites its previous point instead of accumulating
// duplicates. Different models store the same ID in different collections.
func ChunkPointID(itemID, chunkID string) string {
	return uuid.NewSHA1(pointNamespace, []byte(itemID+"/"+chunkID)).String()
}

// IndexService represents a service for managing index entries.
type IndexService interface {
	// FindIndexEntries retrieves a snapshot of entries matching the
	// filter, ordered by (item ID, chunk ID, model ID).
	FindIndexEntries(ctx context.Context, filter IndexEntryFilter) ([]*IndexEntry, error)

	// UpsertIndexEntry creates the entry or replaces the existing entry
	// with the same (item ID, chunk ID, model ID) key atomically.
	UpsertIndexEntry(ctx context.Context, entry *IndexEntry) error

	// DeleteIndexEntries removes all entries matching the filter and
	// returns how many were removed. Deleting nothing is not an error.
	DeleteIndexEntries(ctx context.Context, filter IndexEntryFilter) (int, error)
}

// IndexEntryFilter represents a filter used by FindIndexEntries() and
// DeleteIndexEntries().
type IndexEntryFilter struct {
	ItemID  *string `json:"itemId"`
	ChunkID *string `json:"chunkId"`
	ModelID *string `json:"modelId"`

	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}
