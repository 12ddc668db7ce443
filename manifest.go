package refdex

import (
	"context"
	"time"
)

// ManifestEntry represents one mirrored item in the local manifest. The
// manifest is the authoritative record of what the local library holds;
// sync reconciles it against the remote catalog and the index layers
// consume it read-only.
type ManifestEntry struct {
	// ItemID is the remote catalog's identifier for the item.
	ItemID string `json:"itemId"`

	// Path locates the mirrored attachment in the attachment store.
	Path string `json:"path"`

	// ContentHash is the canonical fingerprint of the mirrored content,
	// computed locally at download time.
	ContentHash string `json:"contentHash"`

	// RemoteVersion is the catalog's revision marker for the attachment
	// at the time it was fetched. Zero when the catalog supplies none.
	RemoteVersion int `json:"remoteVersion"`

	// RemoteChecksum is the catalog-reported checksum recorded at fetch
	// time. It is compared against the catalog's current checksum on
	// later syncs, never against ContentHash, since the two use
	// different hash schemes.
	RemoteChecksum string `json:"remoteChecksum"`

	// Metadata holds the merged bibliographic record for the item.
	Metadata Metadata `json:"metadata"`

	// FetchedAt records when the mirrored content was last downloaded.
	FetchedAt time.Time `json:"fetchedAt"`
}

// Validate returns an error if the entry contains invalid fields.
// This only performs basic validation.
func (e *ManifestEntry) Validate() error {
	if e.ItemID == "" {
		return Errorf(EINVALID, "Item ID required.")
	} else if e.Path == "" {
		return Errorf(EINVALID, "Attachment path required.")
	} else if e.ContentHash == "" {
		return Errorf(EINVALID, "Content hash required.")
	}
	return nil
}

// Metadata holds the bibliographic fields tracked for an item. Fields may
// be individually absent; an empty field means "unknown", not "none".
type Metadata struct {
	Title       string `json:"title"`
	Authors     string `json:"authors"`
	Year        string `json:"year"`
	Publication string `json:"publication"`

	// DOI is the item's digital object identifier, if known.
	DOI string `json:"doi"`

	// DOIChecked distinguishes "the catalog holds no DOI for this item"
	// (true, DOI empty) from "the DOI was never looked up" (false).
	DOIChecked bool `json:"doiChecked"`
}

// FieldConflict records a metadata field where the local and remote values
// both exist and disagree. Merging resolves the conflict in favor of the
// remote value; the conflict is surfaced so the run report can flag it.
type FieldConflict struct {
	Field  string `json:"field"`
	Local  string `json:"local"`
	Remote string `json:"remote"`
}

// MergeMetadata combines a locally stored metadata record with a freshly
// fetched remote one, field by field. Remote values win when both sides
// are set and differ; locally known values survive when the remote side
// is empty. The merged record always has DOIChecked set, since merging
// implies the remote record was just consulted.
func MergeMetadata(local, remote Metadata) (Metadata, []FieldConflict) {
	merged := local
	var conflicts []FieldConflict

	fields := []struct {
		name   string
		local  string
		remote string
		dst    *string
	}{
		{"title", local.Title, remote.Title, &merged.Title},
		{"authors", local.Authors, remote.Authors, &merged.Authors},
		{"year", local.Year, remote.Year, &merged.Year},
		{"publication", local.Publication, remote.Publication, &merged.Publication},
		{"doi", local.DOI, remote.DOI, &merged.DOI},
	}
	for _, f := range fields {
		if f.remote == "" {
			continue
		}
		if f.local != "" && f.local != f.remote {
			conflicts = append(conflicts, FieldConflict{Field: f.name, Local: f.local, Remote: f.remote})
		}
		*f.dst = f.remote
	}

	merged.DOIChecked = true
	return merged, conflicts
}

// ManifestService represents a service for managing manifest entries.
type ManifestService interface {
	// FindEntryByItemID retrieves the entry for a single item.
	// Returns ENOTFOUND if no entry exists for the ID.
	FindEntryByItemID(ctx context.Context, itemID string) (*ManifestEntry, error)

	// FindEntries retrieves a snapshot of entries matching the filter,
	// ordered by item ID. Calling it again restarts from a fresh
	// snapshot; entries upserted after the call are not reflected in
	// the returned slice.
	FindEntries(ctx context.Context, filter ManifestEntryFilter) ([]*ManifestEntry, error)

	// UpsertEntry creates the entry or replaces the existing entry with
	// the same item ID. The replacement is atomic: readers observe
	// either the old or the new entry, never a mixture.
	UpsertEntry(ctx context.Context, entry *ManifestEntry) error

	// DeleteEntry removes the entry for an item. Returns ENOTFOUND if
	// no entry exists for the ID.
	DeleteEntry(ctx context.Context, itemID string) error
}

// ManifestEntryFilter represents a filter used by FindEntries().
type ManifestEntryFilter struct {
	ItemID *string `json:"itemId"`

	// MissingDOI restricts results to entries whose DOI is empty.
	MissingDOI *bool `json:"missingDoi"`

	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}
