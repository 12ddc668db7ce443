package sqlite

import (
	"context"
	"strings"
	"time"

	"github.com/refdex/refdex"
)

// Compile-time interface verification.
var _ refdex.IndexService = (*IndexService)(nil)

// IndexService implements refdex.IndexService using SQLite.
type IndexService struct {
	db *DB
}

// NewIndexService creates a new IndexService.
func NewIndexService(db *DB) *IndexService {
	return &IndexService{db: db}
}

// FindIndexEntries retrieves index entries matching the filter, ordered by
// (item ID, chunk ID, model ID).
func (s *IndexService) FindIndexEntries(ctx context.Context, filter refdex.IndexEntryFilter) ([]*refdex.IndexEntry, error) {
	var query strings.Builder
	var args []any

	query.WriteString(`SELECT item_id, chunk_id, model_id, content_hash, point_id, indexed_at
		FROM index_entries WHERE 1=1`)
	appendIndexEntryFilter(&query, &args, filter)
	query.WriteString(" ORDER BY item_id ASC, chunk_id ASC, model_id ASC")
	appendPagination(&query, &args, filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*refdex.IndexEntry
	for rows.Next() {
		var entry refdex.IndexEntry
		var indexedAt string

		if err := rows.Scan(&entry.ItemID, &entry.ChunkID, &entry.ModelID,
			&entry.ContentHash, &entry.PointID, &indexedAt); err != nil {
			return nil, err
		}

		entry.IndexedAt, err = parseTime(indexedAt, "indexed_at")
		if err != nil {
			return nil, err
		}

		entries = append(entries, &entry)
	}

	return entries, rows.Err()
}

// UpsertIndexEntry creates the entry or atomically replaces the existing
// entry with the same (item ID, chunk ID, model ID) key.
func (s *IndexService) UpsertIndexEntry(ctx context.Context, entry *refdex.IndexEntry) error {
	if err := entry.Validate(); err != nil {
		return err
	}

	if entry.IndexedAt.IsZero() {
		entry.IndexedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO index_entries (item_id, chunk_id, model_id, content_hash, point_id, indexed_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(item_id, chunk_id, model_id) DO UPDATE SET
			content_hash = excluded.content_hash,
			point_id = excluded.point_id,
			indexed_at = excluded.indexed_at
	`, entry.ItemID, entry.ChunkID, entry.ModelID, entry.ContentHash, entry.PointID,
		formatTime(entry.IndexedAt))

	return err
}

// DeleteIndexEntries removes all index entries matching the filter and
// returns how many were removed. An empty filter deletes every entry.
func (s *IndexService) DeleteIndexEntries(ctx context.Context, filter refdex.IndexEntryFilter) (int, error) {
	var query strings.Builder
	var args []any

	query.WriteString("DELETE FROM index_entries WHERE 1=1")
	appendIndexEntryFilter(&query, &args, filter)

	result, err := s.db.ExecContext(ctx, query.String(), args...)
	if err != nil {
		return 0, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}

	return int(rows), nil
}

// appendIndexEntryFilter appends WHERE clauses for the filter's key fields.
// Shared between find and delete so both interpret filters identically.
func appendIndexEntryFilter(query *strings.Builder, args *[]any, filter refdex.IndexEntryFilter) {
	if filter.ItemID != nil {
		query.WriteString(" AND item_id = ?")
		*args = append(*args, *filter.ItemID)
	}
	if filter.ChunkID != nil {
		query.WriteString(" AND chunk_id = ?")
		*args = append(*args, *filter.ChunkID)
	}
	if filter.ModelID != nil {
		query.WriteString(" AND model_id = ?")
		*args = append(*args, *filter.ModelID)
	}
}
