// Package sync provides library synchronization orchestration.
// It reconciles the local attachment mirror and manifest against the
// remote catalog, downloading only what actually changed.
package sync

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/refdex/refdex"
	"golang.org/x/sync/errgroup"
)

// Syncer orchestrates one synchronization run against the remote catalog.
type Syncer struct {
	Catalog     refdex.CatalogSource
	Manifest    refdex.ManifestService
	Attachments refdex.AttachmentStore
	Index       refdex.IndexService // optional, enables index cleanup on prune
	Vectors     refdex.VectorStore  // optional, enables vector cleanup on prune
	Concurrency int
	RetryDelays []time.Duration

	// KeepMissing disables pruning of items that left the remote catalog.
	KeepMissing bool
}

// Outcome classifies what a sync run did with one item.
type Outcome string

const (
	OutcomeNew       Outcome = "new"
	OutcomeChanged   Outcome = "changed"
	OutcomeUnchanged Outcome = "unchanged"
	OutcomeSkipped   Outcome = "skipped"
	OutcomeRemoved   Outcome = "removed"
	OutcomeFailed    Outcome = "failed"
)

// ItemResult records the outcome for a single item.
type ItemResult struct {
	ItemID  string
	Title   string
	Outcome Outcome

	// Probed reports that the outcome required downloading the body
	// because the catalog supplied no change signal.
	Probed bool

	Err error
}

// MetadataConflict records a remote metadata value that overwrote a
// differing local value.
type MetadataConflict struct {
	ItemID string
	Field  string
	Local  string
	Remote string
}

// Report holds the outcome of a sync run.
type Report struct {
	New       int
	Changed   int
	Unchanged int
	Probed    int
	Skipped   int
	Removed   int
	Failed    int
	Bytes     int
	Items     []ItemResult
	Conflicts []MetadataConflict
}

// ProgressEvent reports progress during a sync run.
type ProgressEvent struct {
	Type      ProgressType
	Completed int
	Total     int
	ItemID    string
	Error     error
}

// ProgressType indicates the type of progress event.
type ProgressType int

const (
	ProgressStarted ProgressType = iota
	ProgressCompleted
	ProgressFailed
	ProgressFinished
)

// ProgressFunc is a callback for reporting sync progress.
type ProgressFunc func(event ProgressEvent)

// syncResult holds the outcome of processing a single catalog item.
type syncResult struct {
	position  int
	itemID    string
	title     string
	outcome   Outcome
	probed    bool
	bytes     int
	entry     *refdex.ManifestEntry
	conflicts []refdex.FieldConflict
	err       error
}

// Sync reconciles the local library against the remote catalog. Per-item
// failures are recorded in the report and never abort the run; an
// unreachable catalog or a failing manifest store is fatal. The progress
// callback, if provided, receives events as items complete.
func (s *Syncer) Sync(ctx context.Context, progress ProgressFunc) (*Report, error) {
	items, err := s.Catalog.ListItems(ctx)
	if err != nil {
		return nil, err
	}

	// One manifest snapshot drives all decisions for this run.
	existing, err := s.Manifest.FindEntries(ctx, refdex.ManifestEntryFilter{})
	if err != nil {
		return nil, err
	}
	existingByID := make(map[string]*refdex.ManifestEntry, len(existing))
	for _, entry := range existing {
		existingByID[entry.ItemID] = entry
	}

	concurrency := s.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}

	resultCh := make(chan syncResult, len(items))

	var completed atomic.Int64
	total := len(items)

	if progress != nil {
		progress(ProgressEvent{
			Type:  ProgressStarted,
			Total: total,
		})
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	go func() {
		for i, item := range items {
			g.Go(func() error {
				resultCh <- s.processItem(gctx, i, item, existingByID[item.ID])
				return nil
			})
		}
		_ = g.Wait()
		close(resultCh)
	}()

	// Upsert as results stream in, so an aborted run keeps every item
	// that completed.
	results := make([]syncResult, len(items))
	for result := range resultCh {
		completed.Add(1)

		if result.err == nil && result.entry != nil {
			if err := s.Manifest.UpsertEntry(ctx, result.entry); err != nil {
				return nil, err
			}
		}
		results[result.position] = result

		if progress == nil {
			continue
		}
		if result.err != nil {
			progress(ProgressEvent{
				Type:      ProgressFailed,
				Completed: int(completed.Load()),
				Total:     total,
				ItemID:    result.itemID,
				Error:     result.err,
			})
		} else {
			progress(ProgressEvent{
				Type:      ProgressCompleted,
				Completed: int(completed.Load()),
				Total:     total,
				ItemID:    result.itemID,
			})
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	report := &Report{}
	for _, result := range results {
		item := ItemResult{
			ItemID:  result.itemID,
			Title:   result.title,
			Outcome: result.outcome,
			Probed:  result.probed,
		}
		if result.err != nil {
			item.Outcome = OutcomeFailed
			item.Err = result.err
		}
		report.Items = append(report.Items, item)

		switch item.Outcome {
		case OutcomeNew:
			report.New++
		case OutcomeChanged:
			report.Changed++
		case OutcomeUnchanged:
			report.Unchanged++
		case OutcomeSkipped:
			report.Skipped++
		case OutcomeFailed:
			report.Failed++
		}
		if result.probed {
			report.Probed++
		}
		report.Bytes += result.bytes

		for _, conflict := range result.conflicts {
			report.Conflicts = append(report.Conflicts, MetadataConflict{
				ItemID: result.itemID,
				Field:  conflict.Field,
				Local:  conflict.Local,
				Remote: conflict.Remote,
			})
		}
	}

	if !s.KeepMissing {
		s.prune(ctx, items, existing, report)
	}

	if progress != nil {
		progress(ProgressEvent{
			Type:      ProgressFinished,
			Completed: total,
			Total:     total,
		})
	}

	return report, nil
}

// processItem decides and performs the action for one catalog item.
func (s *Syncer) processItem(ctx context.Context, position int, item refdex.RemoteItem, existing *refdex.ManifestEntry) syncResult {
	result := syncResult{
		position: position,
		itemID:   item.ID,
		title:    item.Metadata.Title,
	}
	if result.title == "" && existing != nil {
		result.title = existing.Metadata.Title
	}

	att, hasAttachment := item.PrimaryAttachment()

	fileMissing := false
	if existing != nil {
		exists, err := s.Attachments.Exists(ctx, existing.Path)
		if err != nil {
			result.err = err
			return result
		}
		fileMissing = !exists
	}

	switch Dispose(existing, att, hasAttachment, fileMissing) {
	case DispositionSkip:
		result.outcome = OutcomeSkipped
		return result

	case DispositionUnchanged:
		result.outcome = OutcomeUnchanged
		result.entry, result.conflicts = refreshedEntry(existing, item, att)
		return result

	case DispositionNew:
		result.outcome = OutcomeNew
	case DispositionChanged:
		result.outcome = OutcomeChanged
	case DispositionProbe:
		result.probed = true
	}

	stored, err := s.download(ctx, item.ID, att)
	if err != nil {
		result.err = err
		return result
	}
	result.bytes = int(stored.Size)

	// A probe saves the body either way; the hash decides the outcome.
	if result.probed {
		if stored.ContentHash == existing.ContentHash {
			result.outcome = OutcomeUnchanged
		} else {
			result.outcome = OutcomeChanged
		}
	}

	var local refdex.Metadata
	if existing != nil {
		local = existing.Metadata
	}
	merged, conflicts := refdex.MergeMetadata(local, item.Metadata)
	result.conflicts = conflicts

	result.entry = &refdex.ManifestEntry{
		ItemID:         item.ID,
		Path:           stored.Path,
		ContentHash:    stored.ContentHash,
		RemoteVersion:  att.Version,
		RemoteChecksum: att.Checksum,
		Metadata:       merged,
	}

	// The primary attachment was replaced under a new filename; drop the
	// superseded file. A failure here leaves an orphan, not a broken
	// manifest.
	if existing != nil && existing.Path != stored.Path {
		_ = s.Attachments.Remove(ctx, existing.Path)
	}

	return result
}

// download fetches an attachment body with retries and stores it.
func (s *Syncer) download(ctx context.Context, itemID string, att refdex.Attachment) (*refdex.StoredAttachment, error) {
	delays := s.RetryDelays
	if delays == nil {
		delays = DefaultRetryDelays()
	}

	body, err := DownloadWithRetryDelays(ctx, att.ID, s.Catalog.DownloadAttachment, nil, delays)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	return s.Attachments.Save(ctx, itemID, att.Filename, body)
}

// refreshedEntry rebuilds an unchanged item's entry with current remote
// metadata. Returns a nil entry when nothing would change, so unchanged
// items cost no write.
func refreshedEntry(existing *refdex.ManifestEntry, item refdex.RemoteItem, att refdex.Attachment) (*refdex.ManifestEntry, []refdex.FieldConflict) {
	merged, conflicts := refdex.MergeMetadata(existing.Metadata, item.Metadata)

	updated := *existing
	updated.RemoteVersion = att.Version
	updated.RemoteChecksum = att.Checksum
	updated.Metadata = merged

	if updated == *existing {
		return nil, conflicts
	}
	return &updated, conflicts
}

// prune removes manifest entries for items that left the remote catalog.
// It runs only when the catalog listing itself succeeded, so a flaky
// listing can never empty the library.
func (s *Syncer) prune(ctx context.Context, items []refdex.RemoteItem, existing []*refdex.ManifestEntry, report *Report) {
	remoteIDs := make(map[string]bool, len(items))
	for _, item := range items {
		remoteIDs[item.ID] = true
	}

	for _, entry := range existing {
		if remoteIDs[entry.ItemID] {
			continue
		}

		if err := s.pruneItem(ctx, entry); err != nil {
			report.Failed++
			report.Items = append(report.Items, ItemResult{
				ItemID:  entry.ItemID,
				Title:   entry.Metadata.Title,
				Outcome: OutcomeFailed,
				Err:     err,
			})
			continue
		}

		report.Removed++
		report.Items = append(report.Items, ItemResult{
			ItemID:  entry.ItemID,
			Title:   entry.Metadata.Title,
			Outcome: OutcomeRemoved,
		})
	}
}

// pruneItem removes one departed item. Order matters: vector points, then
// index entries, then the file, then the manifest entry, so a crash at any
// step leaves the item discoverable for the next run to finish the job.
func (s *Syncer) pruneItem(ctx context.Context, entry *refdex.ManifestEntry) error {
	if s.Index != nil {
		itemID := entry.ItemID
		indexEntries, err := s.Index.FindIndexEntries(ctx, refdex.IndexEntryFilter{ItemID: &itemID})
		if err != nil {
			return err
		}

		if s.Vectors != nil {
			pointsByModel := make(map[string][]string)
			for _, indexEntry := range indexEntries {
				pointsByModel[indexEntry.ModelID] = append(pointsByModel[indexEntry.ModelID], indexEntry.PointID)
			}
			for modelID, pointIDs := range pointsByModel {
				// Best effort; orphaned points are filtered at ask time.
				_ = s.Vectors.DeletePoints(ctx, modelID, pointIDs)
			}
		}

		if _, err := s.Index.DeleteIndexEntries(ctx, refdex.IndexEntryFilter{ItemID: &itemID}); err != nil {
			return err
		}
	}

	if err := s.Attachments.Remove(ctx, entry.Path); err != nil {
		return err
	}
	return s.Manifest.DeleteEntry(ctx, entry.ItemID)
}
