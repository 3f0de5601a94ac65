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


package source

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCursor is returned when a cursor cannot be interpreted
	// by the source it was passed to.
	ErrInvalidCursor = errors.New("invalid pagination cursor")
)

// FetchError reports a failed page fetch from a remote source.
// Fetch failures are terminal and must never be retried: the pipeline
// aborts and the operator resumes from the last known cursor.
type FetchError struct {
	// StatusCode is the HTTP status received, or 0 for transport errors.
	StatusCode int

	// URL is the request URL that failed.
	URL string

	// Err is the underlying transport error, if any.
	Err error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
