// Copyright 2025 Finsight Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package retry implements the capped exponential backoff policy shared by
// every retrying operation: embedding calls, store upserts, and similarity
// queries. There is no jitter and no circuit breaker; attempts are bounded
// by a fixed ceiling.
package retry

import (
	"context"
	"log/slog"
	"time"

	"github.com/finsight/lendex/storage"
)

// Policy defines a capped exponential backoff schedule.
type Policy struct {
	// InitialDelay is the wait before the first retry.
	InitialDelay time.Duration

	// MaxDelay caps the delay growth.
	MaxDelay time.Duration

	// MaxRetries is the maximum number of attempts per operation.
	MaxRetries int
}

// DefaultPolicy returns the standard schedule: 1s initial delay doubling up
// to a 32s cap, at most 3 attempts.
func DefaultPolicy() Policy {
	return Policy{
		InitialDelay: 1 * time.Second,
		MaxDelay:     32 * time.Second,
		MaxRetries:   3,
	}
}

// Next returns the delay to use after the given delay has been slept:
// min(current*2, MaxDelay).
func (p Policy) Next(current time.Duration) time.Duration {
	next := current * 2
	if next > p.MaxDelay {
		next = p.MaxDelay
	}
	return next
}

// ShouldRetry reports whether another attempt is allowed after attempt
// failures: the ceiling must not be reached and the failure must be
// classified transient.
func (p Policy) ShouldRetry(attempt int, kind storage.TransientKind) bool {
	return attempt < p.MaxRetries && kind != storage.TransientNone
}

// Classifier maps an error onto the transient taxonomy.
type Classifier func(error) storage.TransientKind

// Transient classifies every non-nil error as a connection-class transient
// failure. Used for calls whose failures are uniformly retryable, such as
// the remote inference service.
func Transient(err error) storage.TransientKind {
	if err == nil {
		return storage.TransientNone
	}
	return storage.TransientConnection
}

// Do runs op, retrying transient failures with capped exponential backoff.
// The (attempt, delay) pair is carried as explicit loop state, so the retry
// ceiling is enforced without recursion. Returns the error from the last
// attempt when all attempts fail, or the first non-transient error
// immediately. Every failed attempt is logged with its attempt count and
// the delay before the next one.
func Do(ctx context.Context, policy Policy, classify Classifier, op func() error) error {
	if policy.MaxRetries <= 0 {
		return ErrInvalidMaxRetries
	}

	delay := policy.InitialDelay
	var lastErr error
	for attempt := 1; ; attempt++ {
		// Check context before attempting
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		lastErr = op()
		if lastErr == nil {
			if attempt > 1 {
				slog.Debug("operation succeeded after retry", "attempt", attempt)
			}
			return nil
		}

		kind := classify(lastErr)
		if !policy.ShouldRetry(attempt, kind) {
			return lastErr
		}

		slog.Debug("operation failed, will retry",
			"attempt", attempt, "maxRetries", policy.MaxRetries,
			"kind", kind.String(), "delay", delay, "error", lastErr)

		// Sleep with context awareness
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		delay = policy.Next(delay)
	}
}
