package embedgen

import (
	"context"
	"errors"
	"time"

	"github.com/kestrelhealth/vocab-backend/internal/platform/logger"
)

var ErrInvalidMaxAttempts = errors.New("max attempts must be positive")

// RetryWithBackoff runs operation up to maxAttempts times, doubling the delay
// after each failure. Context cancellation interrupts both the wait and any
// further attempts. The last error is returned once attempts are exhausted.
func RetryWithBackoff(ctx context.Context, log *logger.Logger, operation func() error, maxAttempts int, baseDelay time.Duration) error {
	if maxAttempts <= 0 {
		return ErrInvalidMaxAttempts
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		lastErr = operation()
		if lastErr == nil {
			if attempt > 1 && log != nil {
				log.Debug("operation succeeded after retry", "attempt", attempt)
			}
			return nil
		}

		if attempt == maxAttempts {
			break
		}
		if log != nil {
			log.Warn("operation failed, retrying",
				"attempt", attempt,
				"max_attempts", maxAttempts,
				"error", lastErr,
			)
		}

		delay := baseDelay
		for i := 1; i < attempt; i++ {
			delay *= 2
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return lastErr
}
