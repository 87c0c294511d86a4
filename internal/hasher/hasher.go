// Package hasher computes content fingerprints for archive deduplication.
// Fingerprints are SHA-256 hex digests of file contents only; file metadata
// never influences the result. Reads are retried with exponential backoff so
// a network mount dropping out mid-scan degrades to a per-file error instead
// of a corrupt fingerprint.
package hasher

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

const chunkSize = 64 * 1024

// ReadError reports a file that stayed unreadable after every retry attempt.
type ReadError struct {
	Path     string
	Attempts int
	Err      error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read %s: failed after %d attempts: %v", e.Path, e.Attempts, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// Hasher fingerprints files with bounded retry on read failures.
type Hasher struct {
	// MaxAttempts bounds how many times a file is read before giving up.
	// Values below 1 behave as 1.
	MaxAttempts int
	// BaseDelay is the backoff before the second attempt; it doubles each
	// retry after that.
	BaseDelay time.Duration

	// sleep is swapped out in tests.
	sleep func(context.Context, time.Duration) error
}

// New returns a Hasher with the given retry policy.
func New(maxAttempts int, baseDelay time.Duration) *Hasher {
	return &Hasher{MaxAttempts: maxAttempts, BaseDelay: baseDelay}
}

// Hash returns the fingerprint of the file at path, retrying transient read
// failures. A file that stays unreadable yields a *ReadError; a partial read
// never produces a fingerprint.
func (h *Hasher) Hash(ctx context.Context, path string) (string, error) {
	attempts := h.attempts()
	performed := 0
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		performed = attempt
		digest, err := Sum(path)
		if err == nil {
			return digest, nil
		}
		lastErr = err

		if ctx != nil && ctx.Err() != nil {
			break
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			break
		}
		if attempt == attempts {
			break
		}
		if err := h.wait(ctx, h.backoffDelay(attempt)); err != nil {
			break
		}
	}

	return "", &ReadError{Path: path, Attempts: performed, Err: lastErr}
}

// Sum computes the fingerprint in a single attempt, with no retry policy.
// Reconciliation workers and tests use it directly.
func Sum(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	digest := sha256.New()
	buf := make([]byte, chunkSize)
	if _, err := io.CopyBuffer(digest, file, buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(digest.Sum(nil)), nil
}

func (h *Hasher) attempts() int {
	if h == nil || h.MaxAttempts < 1 {
		return 1
	}
	return h.MaxAttempts
}

func (h *Hasher) backoffDelay(attempt int) time.Duration {
	base := h.BaseDelay
	if base <= 0 {
		base = time.Second
	}
	return base << (attempt - 1)
}

func (h *Hasher) wait(ctx context.Context, delay time.Duration) error {
	if h.sleep != nil {
		return h.sleep(ctx, delay)
	}
	if ctx == nil {
		time.Sleep(delay)
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
