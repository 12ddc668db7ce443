package sync

import (
	"context"
	"io"
	"time"
)

// DownloadFunc is the signature for an attachment download.
type DownloadFunc func(ctx context.Context, attachmentID string) (io.ReadCloser, error)

// LogFunc is the signature for a logging function.
type LogFunc func(format string, args ...any)

// DefaultRetryDelays returns the backoff delays for download retries: 1s, 2s, 4s.
func DefaultRetryDelays() []time.Duration {
	return []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}
}

// DownloadWithRetry attempts a download with exponential backoff retry logic.
// It retries up to 3 times (4 total attempts) with delays of 1s, 2s, 4s.
// The logger function, if provided, is called for each retry attempt.
func DownloadWithRetry(ctx context.Context, attachmentID string, download DownloadFunc, logger LogFunc) (io.ReadCloser, error) {
	return DownloadWithRetryDelays(ctx, attachmentID, download, logger, DefaultRetryDelays())
}

// DownloadWithRetryDelays is like DownloadWithRetry but allows configurable
// delays. This is useful for testing without waiting for real delays.
func DownloadWithRetryDelays(ctx context.Context, attachmentID string, download DownloadFunc, logger LogFunc, delays []time.Duration) (io.ReadCloser, error) {
	maxAttempts := len(delays) + 1 // 1 initial + N retries

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		body, err := download(ctx, attachmentID)
		if err == nil {
			return body, nil
		}
		lastErr = err

		// Don't retry after the last attempt
		if attempt >= maxAttempts-1 {
			break
		}

		// Check context before sleeping
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		// Log retry
		if logger != nil {
			logger("  retry %s (attempt %d): %v", attachmentID, attempt+2, err)
		}

		// Wait before next attempt
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delays[attempt]):
		}
	}

	return nil, lastErr
}
