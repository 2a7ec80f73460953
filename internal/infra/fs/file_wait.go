package fs

import (
	"context"
	"fmt"
	"os"
	"time"
)

// WaitForFile waits for a file to exist and be non-empty with exponential backoff.
// Returns an error if the file doesn't appear within maxWait or ctx ends first.
func WaitForFile(ctx context.Context, filePath string, maxWait time.Duration) error {
	deadline := time.Now().Add(maxWait)
	baseDelay := 50 * time.Millisecond

	for attempt := 0; ; attempt++ {
		if info, err := os.Stat(filePath); err == nil && info.Size() > 0 {
			return nil
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("timeout waiting for file %s after %v", filePath, maxWait)
		}

		// capped at 500ms
		delay := baseDelay << min(attempt, 4)
		if delay > 500*time.Millisecond {
			delay = 500 * time.Millisecond
		}

		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
}
