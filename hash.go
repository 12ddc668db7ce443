package refdex

import (
	"encoding/binary"
	"encoding/hex"

	"github.com/cespare/xxhash/v2"
)

// ContentHash returns the canonical fingerprint of attachment content.
// Every component that compares fingerprints (sync, index reconciliation,
// probe downloads) must use this function so the strings are comparable.
func ContentHash(content []byte) string {
	return FormatHashSum(xxhash.Sum64(content))
}

// FormatHashSum encodes an xxhash sum in the canonical fixed-width hex
// form used by ContentHash. Exposed for callers that hash streams with
// xxhash.Digest instead of buffering content in memory.
func FormatHashSum(sum uint64) string {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, sum)
	return hex.EncodeToString(b)
}
