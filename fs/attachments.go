// Package fs provides file-based storage for mirrored attachments.
package fs

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/refdex/refdex"
)

// Ensure AttachmentStore implements refdex.AttachmentStore at compile time.
var _ refdex.AttachmentStore = (*AttachmentStore)(nil)

// AttachmentStore stores attachment content under baseDir, one directory
// per item. Saves are atomic: content is streamed to a temporary file and
// renamed into place only after a successful sync to disk, so a crash
// mid-download never leaves partial content at a manifest path.
type AttachmentStore struct {
	baseDir string
}

// NewAttachmentStore creates a new AttachmentStore rooted at baseDir.
func NewAttachmentStore(baseDir string) *AttachmentStore {
	return &AttachmentStore{baseDir: baseDir}
}

// resolve maps a manifest path to an absolute filesystem path.
func (s *AttachmentStore) resolve(path string) (string, error) {
	if path == "" || strings.Contains(path, "..") {
		return "", refdex.Errorf(refdex.EINVALID, "invalid attachment path %q", path)
	}
	return filepath.Join(s.baseDir, filepath.FromSlash(path)), nil
}

// Save streams r into baseDir/itemID/filename and returns the stored path
// (relative to baseDir, slash-separated), content fingerprint, and size.
func (s *AttachmentStore) Save(ctx context.Context, itemID, filename string, r io.Reader) (*refdex.StoredAttachment, error) {
	if itemID == "" {
		return nil, refdex.Errorf(refdex.EINVALID, "item ID required")
	}
	name := filepath.Base(filepath.FromSlash(filename))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return nil, refdex.Errorf(refdex.EINVALID, "usable filename required, got %q", filename)
	}

	dir := filepath.Join(s.baseDir, itemID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	fullPath := filepath.Join(dir, name)
	tmpPath := fullPath + ".tmp"

	f, err := os.Create(tmpPath)
	if err != nil {
		return nil, err
	}

	digest := xxhash.New()
	size, err := io.Copy(io.MultiWriter(f, digest), r)
	if err != nil {
		f.Close()
		os.Remove(tmpPath)
		return nil, err
	}

	// Sync before rename so the rename never promotes content that is
	// not yet durable.
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return nil, err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return nil, err
	}
	if err := os.Rename(tmpPath, fullPath); err != nil {
		os.Remove(tmpPath)
		return nil, err
	}

	return &refdex.StoredAttachment{
		Path:        itemID + "/" + name,
		ContentHash: refdex.FormatHashSum(digest.Sum64()),
		Size:        size,
	}, nil
}

// Open returns the stored content at path for reading.
func (s *AttachmentStore) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	fullPath, err := s.resolve(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(fullPath)
	if os.IsNotExist(err) {
		return nil, refdex.Errorf(refdex.ENOTFOUND, "attachment %q not found", path)
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

// Exists reports whether content is present at path.
func (s *AttachmentStore) Exists(ctx context.Context, path string) (bool, error) {
	fullPath, err := s.resolve(path)
	if err != nil {
		return false, err
	}

	_, err = os.Stat(fullPath)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Remove deletes the stored content at path. The item directory is removed
// too once it is empty. Removing a missing path is not an error.
func (s *AttachmentStore) Remove(ctx context.Context, path string) error {
	fullPath, err := s.resolve(path)
	if err != nil {
		return err
	}

	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return err
	}

	// Best effort: clears the per-item directory when the last file goes.
	os.Remove(filepath.Dir(fullPath))

	return nil
}
