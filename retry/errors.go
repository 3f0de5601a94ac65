package retry

import "errors"

var (
	// ErrInvalidMaxRetries is returned when a policy's MaxRetries is <= 0
	ErrInvalidMaxRetries = errors.New("MaxRetries must be greater than 0")
)
