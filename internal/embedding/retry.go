package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wrenlabs/docbase/internal/ai"
)

// Retry runs fn up to attempts times with a doubling delay between tries.
// Configuration errors (provider not set up) are permanent and are not
// retried. The caller's context cancels the wait between attempts.
func Retry(ctx context.Context, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		attempts = 1
	}
	delay := baseDelay
	var lastErr error
	for i := 0; i < attempts; i++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if errors.Is(err, ai.ErrUnavailable) {
			return err
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return fmt.Errorf("after %d attempts: %w", attempts, lastErr)
}
