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


package core

import (
	"fmt"
	"time"
)

// ValidateRecord validates a Record according to domain rules.
//
// Validation rules:
//   - NaturalID must not be empty
//   - Kind must not be empty
//   - Description must not be empty
//   - Date must not be in the future
//
// NOT validated (populated by the pipeline):
//   - Vector (can be empty until the embedding call runs)
//   - Id (0 is valid; storage derives it from the natural key)
//   - UpdatedAt (stamped at enrichment time)
func ValidateRecord(record *Record) error {
	if record == nil {
		return fmt.Errorf("%w: record is nil", ErrInvalidRecord)
	}

	if record.NaturalID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, ErrEmptyNaturalID)
	}

	if record.Kind == "" {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, ErrEmptyKind)
	}

	if record.Description == "" {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, ErrEmptyDescription)
	}

	if !IsValidDate(record.Date) {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, ErrInvalidDate)
	}

	return nil
}

// IsValidDate checks if a date is valid (not in the future).
func IsValidDate(ts time.Time) bool {
	return !ts.After(time.Now())
}
