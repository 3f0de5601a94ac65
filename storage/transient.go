package storage

import (
	"context"
	"errors"
	"net"
	"syscall"
)

// TransientKind is the closed enumeration of failure classes that are likely
// to succeed on retry. Everything else is non-transient and must surface
// immediately.
type TransientKind int

const (
	// TransientNone marks a non-transient failure (or no failure at all).
	TransientNone TransientKind = iota
	// TransientTimeout covers statement timeouts and network deadline expiry.
	TransientTimeout
	// TransientSerialization covers write conflicts between transactions.
	TransientSerialization
	// TransientDeadlock covers store-detected deadlocks.
	TransientDeadlock
	// TransientConnection covers lost or refused connections.
	TransientConnection
)

// String returns a stable name for logging.
func (k TransientKind) String() string {
	switch k {
	case TransientTimeout:
		return "timeout"
	case TransientSerialization:
		return "serialization"
	case TransientDeadlock:
		return "deadlock"
	case TransientConnection:
		return "connection"
	default:
		return "none"
	}
}

// Classify maps an error onto the transient taxonomy. It is the single place
// where store- and network-specific error encodings are interpreted; retry
// policy elsewhere only ever sees a TransientKind.
func Classify(err error) TransientKind {
	if err == nil {
		return TransientNone
	}

	switch {
	case errors.Is(err, ErrStatementTimeout), errors.Is(err, context.DeadlineExceeded):
		return TransientTimeout
	case errors.Is(err, ErrWriteConflict):
		return TransientSerialization
	case errors.Is(err, ErrDeadlockDetected):
		return TransientDeadlock
	case errors.Is(err, ErrConnectionFailed),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.EPIPE):
		return TransientConnection
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return TransientTimeout
	}

	return TransientNone
}
