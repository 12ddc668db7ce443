package sync

import (
	"github.com/refdex/refdex"
)

// Disposition classifies what a sync run must do for one catalog item.
type Disposition int

const (
	// DispositionSkip marks items with no usable attachment.
	DispositionSkip Disposition = iota

	// DispositionNew marks items absent from the manifest.
	DispositionNew

	// DispositionChanged marks items whose local copy is missing or stale.
	DispositionChanged

	// DispositionUnchanged marks items whose local copy is current. The
	// attachment body is not fetched.
	DispositionUnchanged

	// DispositionProbe marks items the catalog gives no change signal
	// for. The body must be downloaded and hashed to decide.
	DispositionProbe
)

// Dispose decides the action for one catalog item. The decision uses only
// catalog-supplied change signals, cheapest first: the revision marker when
// the catalog supplies one, the catalog checksum otherwise, and a download
// probe as the last resort. A missing local file always forces a download
// regardless of what the catalog reports.
func Dispose(existing *refdex.ManifestEntry, att refdex.Attachment, hasAttachment, fileMissing bool) Disposition {
	if !hasAttachment {
		return DispositionSkip
	}
	if existing == nil {
		return DispositionNew
	}
	if fileMissing {
		return DispositionChanged
	}

	if att.Version > 0 {
		if att.Version != existing.RemoteVersion {
			return DispositionChanged
		}
		return DispositionUnchanged
	}

	if att.Checksum != "" {
		if att.Checksum != existing.RemoteChecksum {
			return DispositionChanged
		}
		return DispositionUnchanged
	}

	return DispositionProbe
}
