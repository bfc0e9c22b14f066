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

package twelvelabs

import (
	"errors"
	"fmt"
)

// APIError is returned for every failure reported by the remote service:
// authentication, quota, malformed requests, or server errors. Transport
// failures (connection refused, timeouts) are returned as-is from the
// underlying HTTP client and are not APIErrors.
type APIError struct {
	StatusCode int    // The HTTP status of the failing response.
	Code       string // The provider's machine-readable error code, when present.
	Message    string // The provider's human-readable message.
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("twelvelabs: %s (%s, http %d)", e.Message, e.Code, e.StatusCode)
	}
	return fmt.Sprintf("twelvelabs: %s (http %d)", e.Message, e.StatusCode)
}

// IsAPIError reports whether err wraps an *APIError and returns it.
func IsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// Retryable reports whether the failure is worth retrying: server-side
// errors and rate-limit rejections are, client errors are not.
func (e *APIError) Retryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == 429
}
