// Package qdrant implements vector storage backed by a Qdrant server.
//
// Each embedding model gets its own collection. Vectors from different
// models live in different spaces and must never be searched together.
package qdrant

import (
	"context"
	"strings"

	"github.com/qdrant/go-client/qdrant"
	"github.com/refdex/refdex"
)

// collectionPrefix namespaces refdex collections on a shared Qdrant server.
const collectionPrefix = "refdex_"

// Ensure VectorStore implements refdex.VectorStore at compile time.
var _ refdex.VectorStore = (*VectorStore)(nil)

// VectorStore implements refdex.VectorStore using Qdrant.
type VectorStore struct {
	client *qdrant.Client
}

// NewVectorStore creates a new VectorStore connected to the Qdrant gRPC
// endpoint at host:port.
func NewVectorStore(host string, port int) (*VectorStore, error) {
	if host == "" {
		return nil, refdex.Errorf(refdex.EINVALID, "qdrant host required")
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, err
	}
	return &VectorStore{client: client}, nil
}

// CollectionName derives the collection name for an embedding model. Model
// IDs contain characters Qdrant rejects in collection names, so everything
// outside [a-z0-9_-] maps to an underscore.
func CollectionName(modelID string) string {
	var sb strings.Builder
	sb.WriteString(collectionPrefix)
	for _, r := range strings.ToLower(modelID) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			sb.WriteRune(r)
		default:
			sb.WriteRune('_')
		}
	}
	return sb.String()
}

// EnsureModel creates the collection for modelID if it does not exist.
// Returns ECONFLICT if the collection exists with a different vector size.
func (s *VectorStore) EnsureModel(ctx context.Context, modelID string, dimensions int) error {
	if modelID == "" {
		return refdex.Errorf(refdex.EINVALID, "model ID required")
	}
	if dimensions <= 0 {
		return refdex.Errorf(refdex.EINVALID, "dimensions must be positive")
	}

	collection := CollectionName(modelID)
	exists, err := s.client.CollectionExists(ctx, collection)
	if err != nil {
		return err
	}
	if !exists {
		return s.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: collection,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     uint64(dimensions),
				Distance: qdrant.Distance_Cosine,
			}),
		})
	}

	size, err := s.collectionVectorSize(ctx, collection)
	if err != nil {
		return err
	}
	if size != dimensions {
		return refdex.Errorf(refdex.ECONFLICT, "collection %q holds %d-dimensional vectors, embedder produces %d", collection, size, dimensions)
	}
	return nil
}

// UpsertPoints writes points into the collection for modelID. Existing
// points with the same ID are replaced.
func (s *VectorStore) UpsertPoints(ctx context.Context, modelID string, points []refdex.VectorPoint) error {
	if len(points) == 0 {
		return nil
	}

	structs := make([]*qdrant.PointStruct, len(points))
	for i, point := range points {
		structs[i] = &qdrant.PointStruct{
			Id:      qdrant.NewID(point.ID),
			Vectors: qdrant.NewVectors(point.Vector...),
			Payload: qdrant.NewValueMap(map[string]any{
				"item_id":      point.Passage.ItemID,
				"chunk_id":     point.Passage.ChunkID,
				"title":        point.Passage.Title,
				"heading_path": point.Passage.HeadingPath,
				"text":         point.Passage.Text,
			}),
		}
	}

	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: CollectionName(modelID),
		Points:         structs,
	})
	return err
}

// SearchPoints returns the points nearest to vector, ordered by descending
// score. A missing collection yields no results rather than an error.
func (s *VectorStore) SearchPoints(ctx context.Context, modelID string, vector []float32, limit int) ([]refdex.SearchResult, error) {
	if limit <= 0 {
		return nil, refdex.Errorf(refdex.EINVALID, "limit must be positive")
	}

	collection := CollectionName(modelID)
	exists, err := s.client.CollectionExists(ctx, collection)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}

	count := uint64(limit)
	scored, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          &count,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, err
	}

	results := make([]refdex.SearchResult, 0, len(scored))
	for _, point := range scored {
		var pointID string
		if point.Id != nil {
			pointID = point.Id.GetUuid()
		}
		results = append(results, refdex.SearchResult{
			PointID: pointID,
			Score:   point.Score,
			Passage: passageFromPayload(point.Payload),
		})
	}
	return results, nil
}

// DeletePoints removes points by ID from the collection for modelID.
// Unknown IDs and a missing collection are not errors.
func (s *VectorStore) DeletePoints(ctx context.Context, modelID string, pointIDs []string) error {
	if len(pointIDs) == 0 {
		return nil
	}

	collection := CollectionName(modelID)
	exists, err := s.client.CollectionExists(ctx, collection)
	if err != nil {
		return err
	}
	if !exists {
		return nil
	}

	ids := make([]*qdrant.PointId, len(pointIDs))
	for i, id := range pointIDs {
		ids[i] = qdrant.NewID(id)
	}

	_, err = s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: collection,
		Points:         qdrant.NewPointsSelector(ids...),
	})
	return err
}

// DropModel removes the collection for modelID. Dropping a model that was
// never indexed is a no-op.
func (s *VectorStore) DropModel(ctx context.Context, modelID string) error {
	collection := CollectionName(modelID)
	exists, err := s.client.CollectionExists(ctx, collection)
	if err != nil {
		return err
	}
	if !exists {
		return nil
	}
	return s.client.DeleteCollection(ctx, collection)
}

func (s *VectorStore) collectionVectorSize(ctx context.Context, collection string) (int, error) {
	info, err := s.client.GetCollectionInfo(ctx, collection)
	if err != nil {
		return 0, err
	}

	config := info.GetConfig()
	if config == nil || config.GetParams() == nil {
		return 0, refdex.Errorf(refdex.EINTERNAL, "collection %q has no vector config", collection)
	}
	vectorsConfig := config.GetParams().GetVectorsConfig()
	if vectorsConfig == nil || vectorsConfig.GetParams() == nil {
		return 0, refdex.Errorf(refdex.EINTERNAL, "collection %q has no vector params", collection)
	}
	return int(vectorsConfig.GetParams().GetSize()), nil
}

// passageFromPayload rebuilds the Passage stored alongside a vector.
func passageFromPayload(payload map[string]*qdrant.Value) refdex.Passage {
	return refdex.Passage{
		ItemID:      payloadString(payload, "item_id"),
		ChunkID:     payloadString(payload, "chunk_id"),
		Title:       payloadString(payload, "title"),
		HeadingPath: payloadString(payload, "heading_path"),
		Text:        payloadString(payload, "text"),
	}
}

func payloadString(payload map[string]*qdrant.Value, key string) string {
	value, ok := payload[key]
	if !ok || value == nil {
		return ""
	}
	return value.GetStringValue()
}
