package refdex

import (
	"context"
	"io"
	"sort"
	"strings"
)

// RemoteItem represents a bibliographic item as reported by the remote
// catalog. Items carry metadata and zero or more attachment descriptors;
// only the primary attachment is mirrored locally.
type RemoteItem struct {
	// ID is the catalog's stable identifier for the item.
	ID string `json:"id"`

	// Metadata holds the bibliographic fields reported by the catalog.
	// Fields may be incomplete; the manifest merges them across syncs.
	Metadata Metadata `json:"metadata"`

	// Attachments lists the files the catalog holds for this item.
	Attachments []Attachment `json:"attachments"`
}

// Attachment describes a single file held by the remote catalog.
type Attachment struct {
	// ID is the catalog's identifier for the attachment, used to fetch
	// its content.
	ID string `json:"id"`

	// Filename as reported by the catalog. Attachments without a
	// filename cannot be mirrored.
	Filename string `json:"filename"`

	// ContentType is the declared MIME type, e.g. "application/pdf".
	ContentType string `json:"contentType"`

	// Version is the catalog's revision marker for the attachment
	// content. Zero means the catalog does not supply one.
	Version int `json:"version"`

	// Checksum is the content checksum reported by the catalog, in
	// whatever scheme the catalog uses (Zotero reports MD5). Empty when
	// the catalog does not supply one. Checksums are compared against
	// previously recorded catalog checksums, never against local
	// fingerprints.
	Checksum string `json:"checksum"`
}

// attachmentRank orders content types by how useful they are as the
// mirrored representation of an item.
func attachmentRank(contentType string) int {
	switch {
	case strings.HasPrefix(contentType, "application/pdf"):
		return 0
	case strings.HasPrefix(contentType, "text/html"):
		return 1
	case strings.HasPrefix(contentType, "text/markdown"):
		return 2
	case strings.HasPrefix(contentType, "text/plain"):
		return 3
	default:
		return 4
	}
}

// PrimaryAttachment selects the attachment to mirror for the item. PDFs
// are preferred over HTML, HTML over plain text. Ties are broken by
// attachment ID so the choice is stable across syncs. Returns false if
// the item has no usable attachment.
func (i *RemoteItem) PrimaryAttachment() (Attachment, bool) {
	candidates := make([]Attachment, 0, len(i.Attachments))
	for _, a := range i.Attachments {
		if a.Filename == "" {
			continue
		}
		candidates = append(candidates, a)
	}
	if len(candidates) == 0 {
		return Attachment{}, false
	}

	sort.Slice(candidates, func(a, b int) bool {
		ra, rb := attachmentRank(candidates[a].ContentType), attachmentRank(candidates[b].ContentType)
		if ra != rb {
			return ra < rb
		}
		return candidates[a].ID < candidates[b].ID
	})
	return candidates[0], true
}

// CatalogSource represents the remote catalog the local library mirrors.
// Implementations handle authentication, pagination, and rate limiting.
type CatalogSource interface {
	// ListItems returns every item in the remote library together with
	// its attachment descriptors. A failure here aborts a sync run
	// wholesale; no per-item processing happens on a partial listing.
	ListItems(ctx context.Context) ([]RemoteItem, error)

	// DownloadAttachment streams the content of a single attachment.
	// The caller must close the returned reader.
	DownloadAttachment(ctx context.Context, attachmentID string) (io.ReadCloser, error)
}

// StoredAttachment describes the outcome of saving attachment content to
// the local store.
type StoredAttachment struct {
	// Path identifies the stored file and is recorded in the manifest.
	Path string `json:"path"`

	// ContentHash is the canonical fingerprint of the stored bytes.
	ContentHash string `json:"contentHash"`

	// Size is the stored content length in bytes.
	Size int64 `json:"size"`
}

// AttachmentStore persists attachment content on the local filesystem.
type AttachmentStore interface {
	// Save streams r to durable storage for the given item and returns
	// the stored path, content fingerprint, and size. Writes are atomic:
	// an interrupted Save never leaves partial content at the returned
	// path.
	Save(ctx context.Context, itemID, filename string, r io.Reader) (*StoredAttachment, error)

	// Open returns the stored content at path for reading. Returns
	// ENOTFOUND if nothing is stored there.
	Open(ctx context.Context, path string) (io.ReadCloser, error)

	// Exists reports whether content is present at path.
	Exists(ctx context.Context, path string) (bool, error)

	// Remove deletes the stored content at path. Removing a missing
	// path is not an error.
	Remove(ctx context.Context, path string) error
}
