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


package storage

import "errors"

var (
	// ErrNotFound indicates that the requested record was not found.
	ErrNotFound = errors.New("record not found")

	// ErrStorageClosed indicates that the storage backend is closed.
	ErrStorageClosed = errors.New("storage is closed")

	// ErrInvalidQuery indicates invalid query parameters.
	ErrInvalidQuery = errors.New("invalid query parameters")

	// ErrSerializationFailed indicates a serialization/deserialization failure.
	ErrSerializationFailed = errors.New("serialization failed")
)

// Store-reported transient failures. Backends map their own error encodings
// onto these sentinels so the retry policy never sees a store-specific code.
var (
	// ErrStatementTimeout indicates the store gave up on a statement.
	ErrStatementTimeout = errors.New("statement timeout")

	// ErrWriteConflict indicates a serialization failure: two transactions
	// touched the same rows and one must be retried.
	ErrWriteConflict = errors.New("write conflict")

	// ErrDeadlockDetected indicates the store aborted a transaction to
	// break a deadlock.
	ErrDeadlockDetected = errors.New("deadlock detected")

	// ErrConnectionFailed indicates the connection to the store was lost.
	ErrConnectionFailed = errors.New("connection failed")
)
