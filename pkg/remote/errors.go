package remote

import (
	"errors"
	"fmt"
	"io"
	"syscall"
)

var (
	// ErrNotFolder is returned when a path segment that must be a folder is a file
	ErrNotFolder = errors.New("remote: not a folder")
	// ErrNoSuchObject is returned by GetObject for unknown IDs
	ErrNoSuchObject = errors.New("remote: no such object")
)

// ErrorKind classifies failures surfaced by a store
type ErrorKind string

const (
	// KindTransient covers rate limiting and server-side failures
	KindTransient ErrorKind = "transient"
	// KindConnection covers a connection reset by the peer
	KindConnection ErrorKind = "connection"
	// KindUnclassified covers everything else
	KindUnclassified ErrorKind = "unclassified"
)

// Error is a classified store failure
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s error: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError wraps err with a classification
func NewError(op string, kind ErrorKind, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Transient wraps err as a transient store error
func Transient(op string, err error) *Error {
	return NewError(op, KindTransient, err)
}

// Connection wraps err as a connection error
func Connection(op string, err error) *Error {
	return NewError(op, KindConnection, err)
}

// KindOf classifies an error returned by a store. Errors that were not
// classified at the store boundary are inspected for connection resets.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}

	var storeErr *Error
	if errors.As(err, &storeErr) {
		return storeErr.Kind
	}

	if IsConnectionReset(err) {
		return KindConnection
	}

	return KindUnclassified
}

// IsConnectionReset reports whether err denotes a connection dropped by the peer
func IsConnectionReset(err error) bool {
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.EPIPE) {
		return true
	}
	// a response body cut short mid-read
	return errors.Is(err, io.ErrUnexpectedEOF)
}
