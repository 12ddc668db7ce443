package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/refdex/refdex"
)

// Compile-time interface verification.
var _ refdex.ManifestService = (*ManifestService)(nil)

// ManifestService implements refdex.ManifestService using SQLite.
type ManifestService struct {
	db *DB
}

// NewManifestService creates a new ManifestService.
func NewManifestService(db *DB) *ManifestService {
	return &ManifestService{db: db}
}

// FindEntryByItemID retrieves the manifest entry for an item.
func (s *ManifestService) FindEntryByItemID(ctx context.Context, itemID string) (*refdex.ManifestEntry, error) {
	var entry refdex.ManifestEntry
	var fetchedAt string

	err := s.db.QueryRowContext(ctx, `
		SELECT item_id, path, content_hash, remote_version, remote_checksum,
		       title, authors, year, publication, doi, doi_checked, fetched_at
		FROM manifest_entries
		WHERE item_id = ?
	`, itemID).Scan(&entry.ItemID, &entry.Path, &entry.ContentHash, &entry.RemoteVersion,
		&entry.RemoteChecksum, &entry.Metadata.Title, &entry.Metadata.Authors,
		&entry.Metadata.Year, &entry.Metadata.Publication, &entry.Metadata.DOI,
		&entry.Metadata.DOIChecked, &fetchedAt)

	if err == sql.ErrNoRows {
		return nil, refdex.Errorf(refdex.ENOTFOUND, "manifest entry not found")
	}
	if err != nil {
		return nil, err
	}

	entry.FetchedAt, err = parseTime(fetchedAt, "fetched_at")
	if err != nil {
		return nil, err
	}

	return &entry, nil
}

// FindEntries retrieves manifest entries matching the filter, ordered by
// item ID.
func (s *ManifestService) FindEntries(ctx context.Context, filter refdex.ManifestEntryFilter) ([]*refdex.ManifestEntry, error) {
	var query strings.Builder
	var args []any

	query.WriteString(`SELECT item_id, path, content_hash, remote_version, remote_checksum,
		title, authors, year, publication, doi, doi_checked, fetched_at
		FROM manifest_entries WHERE 1=1`)

	if filter.ItemID != nil {
		query.WriteString(" AND item_id = ?")
		args = append(args, *filter.ItemID)
	}
	if filter.MissingDOI != nil {
		if *filter.MissingDOI {
			query.WriteString(" AND doi = ''")
		} else {
			query.WriteString(" AND doi != ''")
		}
	}

	query.WriteString(" ORDER BY item_id ASC")
	appendPagination(&query, &args, filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*refdex.ManifestEntry
	for rows.Next() {
		var entry refdex.ManifestEntry
		var fetchedAt string

		if err := rows.Scan(&entry.ItemID, &entry.Path, &entry.ContentHash, &entry.RemoteVersion,
			&entry.RemoteChecksum, &entry.Metadata.Title, &entry.Metadata.Authors,
			&entry.Metadata.Year, &entry.Metadata.Publication, &entry.Metadata.DOI,
			&entry.Metadata.DOIChecked, &fetchedAt); err != nil {
			return nil, err
		}

		entry.FetchedAt, err = parseTime(fetchedAt, "fetched_at")
		if err != nil {
			return nil, err
		}

		entries = append(entries, &entry)
	}

	return entries, rows.Err()
}

// UpsertEntry creates the entry or atomically replaces the existing entry
// with the same item ID. The single INSERT keeps replacement atomic under
// SQLite's writer lock; a concurrent reader sees the old row or the new
// row, never a partial update.
func (s *ManifestService) UpsertEntry(ctx context.Context, entry *refdex.ManifestEntry) error {
	if err := entry.Validate(); err != nil {
		return err
	}

	if entry.FetchedAt.IsZero() {
		entry.FetchedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO manifest_entries (item_id, path, content_hash, remote_version, remote_checksum,
			title, authors, year, publication, doi, doi_checked, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(item_id) DO UPDATE SET
			path = excluded.path,
			content_hash = excluded.content_hash,
			remote_version = excluded.remote_version,
			remote_checksum = excluded.remote_checksum,
			title = excluded.title,
			authors = excluded.authors,
			year = excluded.year,
			publication = excluded.publication,
			doi = excluded.doi,
			doi_checked = excluded.doi_checked,
			fetched_at = excluded.fetched_at
	`, entry.ItemID, entry.Path, entry.ContentHash, entry.RemoteVersion, entry.RemoteChecksum,
		entry.Metadata.Title, entry.Metadata.Authors, entry.Metadata.Year,
		entry.Metadata.Publication, entry.Metadata.DOI, entry.Metadata.DOIChecked,
		formatTime(entry.FetchedAt))

	return err
}

// DeleteEntry permanently removes the manifest entry for an item.
func (s *ManifestService) DeleteEntry(ctx context.Context, itemID string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM manifest_entries WHERE item_id = ?", itemID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return refdex.Errorf(refdex.ENOTFOUND, "manifest entry not found")
	}

	return nil
}
