package gateway

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrTransport marks network and server availability failures. These are
	// recoverable: the engine queues the mutation for later replay.
	ErrTransport = errors.New("transport error")
	// ErrConflict marks a confirmed remote rejection, e.g. the item was
	// already resolved by another reviewer. Never retried.
	ErrConflict = errors.New("remote conflict")
	// ErrValidation marks a request the server rejected as malformed.
	ErrValidation = errors.New("request validation error")
)

// Wrap builds an error that includes operation context while tagging it with
// the provided marker for later classification. The marker should be one of
// the exported sentinel errors above.
func Wrap(marker error, operation, message string, err error) error {
	detail := buildDetail(operation, message)
	if marker == nil {
		marker = ErrTransport
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsTransport reports whether the error represents a recoverable
// network or availability failure.
func IsTransport(err error) bool {
	return errors.Is(err, ErrTransport)
}

// IsConflict reports whether the error represents a terminal remote
// rejection.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

func buildDetail(operation, message string) string {
	parts := make([]string, 0, 2)
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "gateway failure"
	}
	return strings.Join(parts, ": ")
}
