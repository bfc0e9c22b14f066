// Copyright 2025 Muziris, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// This file implements a wrapper around the base Twelve Labs client.
// The wrapper uses the Decorator design pattern to add extra functionality
// to an existing object without altering its code. Specifically, it adds
// rate limiting and a retry mechanism to every API call.
//
// Why this is important:
//   - Rate Limiting: Twelve Labs enforces per-key request quotas. The
//     wrapper prevents the application from exceeding those limits, which
//     would otherwise result in 429 errors.
//   - Retry Logic: Network requests can sometimes fail for transient
//     reasons. The wrapper automatically retries a failed request, making
//     the application more resilient.
//
// Structs:
//   - QuotaAwareClient: A struct that wraps any API implementation and
//     adds a rate limiter and bounded retries.
//
// Functions:
//   - NewQuotaAwareClient: A constructor to create a new instance of the
//     wrapped client.
package twelvelabs

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// QuotaAwareClient is a decorator that wraps any API implementation and
// enforces a request rate limit plus a bounded retry budget. All calls
// block on the limiter before reaching the wrapped client, so a single
// limiter instance governs the whole process.
type QuotaAwareClient struct {
	wrapped    API
	rateLimit  *rate.Limiter
	maxRetries int
	// retryBackoff is the pause between retry attempts. Overridable in tests.
	retryBackoff time.Duration
}

// compile-time interface check
var _ API = (*QuotaAwareClient)(nil)

// NewQuotaAwareClient creates a rate-limited, retrying decorator around
// the given client.
//
// Inputs:
//   - wrapped: The API implementation to decorate.
//   - requestsPerSecond: The maximum number of API calls allowed per second.
//   - maxRetries: How many additional attempts a failed call gets.
//
// Outputs:
//   - *QuotaAwareClient: A pointer to the newly created wrapper.
func NewQuotaAwareClient(wrapped API, requestsPerSecond int, maxRetries int) *QuotaAwareClient {
	return &QuotaAwareClient{
		wrapped:      wrapped,
		rateLimit:    rate.NewLimiter(rate.Every(time.Second/1), requestsPerSecond),
		maxRetries:   maxRetries,
		retryBackoff: 2 * time.Second,
	}
}

// retryable reports whether an error is worth retrying. API errors carry
// their own verdict; anything else is treated as a transport failure.
func retryable(err error) bool {
	if apiErr, ok := IsAPIError(err); ok {
		return apiErr.Retryable()
	}
	return true
}

// do runs fn under the rate limiter, retrying transient failures up to the
// configured budget. Context cancellation aborts both the limiter wait and
// the backoff between attempts.
func (q *QuotaAwareClient) do(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 0; attempt <= q.maxRetries; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(q.retryBackoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
		if err = q.rateLimit.Wait(ctx); err != nil {
			return err
		}
		if err = fn(); err == nil {
			return nil
		}
		if !retryable(err) {
			return err
		}
	}
	return err
}

func (q *QuotaAwareClient) CreateIndex(ctx context.Context, name string, models []IndexModelSpec) (*Index, error) {
	var out *Index
	err := q.do(ctx, func() (e error) {
		out, e = q.wrapped.CreateIndex(ctx, name, models)
		return e
	})
	return out, err
}

func (q *QuotaAwareClient) UploadAsset(ctx context.Context, filePath string, mimeType string) (*Asset, error) {
	var out *Asset
	err := q.do(ctx, func() (e error) {
		out, e = q.wrapped.UploadAsset(ctx, filePath, mimeType)
		return e
	})
	return out, err
}

func (q *QuotaAwareClient) AttachAssetToIndex(ctx context.Context, indexID string, assetID string, enableVideoStream bool) (*IndexedAsset, error) {
	var out *IndexedAsset
	err := q.do(ctx, func() (e error) {
		out, e = q.wrapped.AttachAssetToIndex(ctx, indexID, assetID, enableVideoStream)
		return e
	})
	return out, err
}

func (q *QuotaAwareClient) GetIndexedAsset(ctx context.Context, indexID string, indexedAssetID string) (*IndexedAsset, error) {
	var out *IndexedAsset
	err := q.do(ctx, func() (e error) {
		out, e = q.wrapped.GetIndexedAsset(ctx, indexID, indexedAssetID)
		return e
	})
	return out, err
}

// Analyze is not retried past a successful connection: once the stream is
// open, responsibility for it passes to the caller.
func (q *QuotaAwareClient) Analyze(ctx context.Context, indexedAssetID string, prompt string) (AnalyzeStream, error) {
	var out AnalyzeStream
	err := q.do(ctx, func() (e error) {
		out, e = q.wrapped.Analyze(ctx, indexedAssetID, prompt)
		return e
	})
	return out, err
}

func (q *QuotaAwareClient) Search(ctx context.Context, indexID string, query string, modalities []string, pageLimit int) ([]*SearchMatch, error) {
	var out []*SearchMatch
	err := q.do(ctx, func() (e error) {
		out, e = q.wrapped.Search(ctx, indexID, query, modalities, pageLimit)
		return e
	})
	return out, err
}

func (q *QuotaAwareClient) DeleteIndex(ctx context.Context, indexID string) error {
	return q.do(ctx, func() error {
		return q.wrapped.DeleteIndex(ctx, indexID)
	})
}
