package refdex

import "context"

// Passage is the payload stored alongside each vector point. It carries
// enough context to attribute a retrieved chunk back to its item without
// consulting the attachment store.
type Passage struct {
	ItemID      string `json:"itemId"`
	ChunkID     string `json:"chunkId"`
	Title       string `json:"title"`
	HeadingPath string `json:"headingPath"`
	Text        string `json:"text"`
}

// VectorPoint pairs an embedding with its passage payload under a
// deterministic point ID (see ChunkPointID).
type VectorPoint struct {
	ID      string    `json:"id"`
	Vector  []float32 `json:"vector"`
	Passage Passage   `json:"passage"`
}

// SearchResult represents a search match.
type SearchResult struct {
	PointID string  `json:"pointId"`
	Score   float32 `json:"score"`
	Passage Passage `json:"passage"`
}

// VectorStore persists embeddings partitioned by embedding model. Each
// model gets its own physical namespace; points written under one model
// are invisible to searches under another.
type VectorStore interface {
	// EnsureModel prepares the namespace for a model, creating it if
	// needed. Returns ECONFLICT if the namespace exists with a
	// different vector size.
	EnsureModel(ctx context.Context, modelID string, dimensions int) error

	// UpsertPoints writes points into the model's namespace, replacing
	// any points with the same IDs.
	UpsertPoints(ctx context.Context, modelID string, points []VectorPoint) error

	// SearchPoints returns the points nearest to vector in the model's
	// namespace, ordered by descending similarity.
	SearchPoints(ctx context.Context, modelID string, vector []float32, limit int) ([]SearchResult, error)

	// DeletePoints removes points by ID from the model's namespace.
	// Unknown IDs are ignored.
	DeletePoints(ctx context.Context, modelID string, pointIDs []string) error

	// DropModel removes a model's namespace and every point in it.
	DropModel(ctx context.Context, modelID string) error
}
