// Package apperr defines the error kinds shared by the normalizer, the provider
// clients and the persistence store.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error by how callers are expected to recover from it.
type Kind string

const (
	// KindUnknown is reported for errors that carry no Kind.
	KindUnknown Kind = "UNKNOWN"
	// KindInvalidPrimaryPayload means the TMDB payload lacks its id or title.
	KindInvalidPrimaryPayload Kind = "INVALID_PRIMARY_PAYLOAD"
	// KindUpstreamUnavailable means a provider lookup failed or found nothing.
	KindUpstreamUnavailable Kind = "UPSTREAM_UNAVAILABLE"
	// KindStorageUnavailable means the storage medium could not be read or written.
	KindStorageUnavailable Kind = "STORAGE_UNAVAILABLE"
	// KindStorageCorrupt means stored data could not be decoded.
	KindStorageCorrupt Kind = "STORAGE_CORRUPT"
)

// Error is an error tagged with a Kind and the operation that produced it.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

// Error returns the error message
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

// Unwrap returns the wrapped error
func (e *Error) Unwrap() error {
	return e.Err
}

// E builds an Error. err may be nil.
func E(kind Kind, op string, err error) error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Errorf builds an Error whose cause is a formatted message.
func Errorf(kind Kind, op string, format string, args ...any) error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the Kind of the first Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is reports whether err carries the given Kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
