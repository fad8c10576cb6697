package control

import (
	"errors"
	"time"

	"github.com/lanscope/upnprecon/internal/models"
)

// backoffDelay returns the delay before attempt N+1 (0-indexed), a simple
// doubling backoff capped at 2s, matching the teacher's retry style in its
// HTTP client wrapper.
func backoffDelay(attempt int) time.Duration {
	delay := 100 * time.Millisecond
	for i := 0; i < attempt; i++ {
		delay *= 2
		if delay >= 2*time.Second {
			return 2 * time.Second
		}
	}
	return delay
}

// isRetryable classifies err using ReconError.IsTransient (spec.md §7); any
// error that doesn't unwrap to a ReconError is treated as non-retryable.
func isRetryable(err error) bool {
	var recErr *models.ReconError
	if errors.As(err, &recErr) {
		return recErr.IsTransient()
	}
	return false
}
