package gcsfs

import (
	"errors"
	"fmt"
)

// Kind is the machine-readable error taxonomy returned by every public
// gcsfs operation. No exception propagates across the facade boundary;
// every operation that can fail returns an *Error (or nil).
type Kind int

const (
	// KindOK is never carried by a non-nil *Error; it exists so zero
	// value Kind is an explicit "no error" rather than an unnamed one.
	KindOK Kind = iota
	// KindInvalidArgument: malformed URI, bucket-only path where an
	// object is required, or a glob with no concrete prefix.
	KindInvalidArgument
	// KindNotFound: object, folder, or bucket absent.
	KindNotFound
	// KindAlreadyExists: CreateDir on an existing directory marker.
	KindAlreadyExists
	// KindFailedPrecondition: location mismatch, non-empty DeleteDir,
	// or IsDirectory called on a plain object.
	KindFailedPrecondition
	// KindOutOfRange: read past end of file.
	KindOutOfRange
	// KindUnavailable: transient HTTP failure (429/5xx, or a 410 that
	// persists through session recovery).
	KindUnavailable
	// KindAborted: retry budget exhausted.
	KindAborted
	// KindUnimplemented: a multi-RPC rewrite response (done=false),
	// which this core does not drive to completion.
	KindUnimplemented
	// KindInternal: cache-vs-store inconsistency, e.g. a stat-cached
	// size disagreeing with observed bytes.
	KindInternal
	// KindPermissionDenied: HTTP 401/403.
	KindPermissionDenied
)

func (k Kind) String() string {
	switch k {
	case KindInvalidArgument:
		return "invalid-argument"
	case KindNotFound:
		return "not-found"
	case KindAlreadyExists:
		return "already-exists"
	case KindFailedPrecondition:
		return "failed-precondition"
	case KindOutOfRange:
		return "out-of-range"
	case KindUnavailable:
		return "unavailable"
	case KindAborted:
		return "aborted"
	case KindUnimplemented:
		return "unimplemented"
	case KindInternal:
		return "internal"
	case KindPermissionDenied:
		return "permission-denied"
	default:
		return "ok"
	}
}

// Error is the concrete error type returned by gcsfs operations. Path is
// the gs:// URI the operation was acting on, when one is known; the
// message is always enriched to include it, matching the convention of
// the system this package is modeled on.
type Error struct {
	Kind    Kind
	Path    string
	Message string
	// Cause is the underlying error, when one exists (e.g. a transport
	// failure wrapped by the retry loop). May be nil.
	Cause error
}

func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("gcsfs: %s: %s: %s", e.Path, e.Kind, e.Message)
	}
	return fmt.Sprintf("gcsfs: %s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// newError builds an *Error, formatting message like fmt.Sprintf.
func newError(kind Kind, path, format string, args ...any) *Error {
	return &Error{Kind: kind, Path: path, Message: fmt.Sprintf(format, args...)}
}

func wrapError(kind Kind, path string, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Path: path, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// KindOf extracts the Kind from err, returning KindOK if err is nil and
// KindInternal if err is non-nil but not a *Error (e.g. it escaped a
// collaborator without being classified).
func KindOf(err error) Kind {
	if err == nil {
		return KindOK
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsNotFound reports whether err is a gcsfs *Error of kind not-found.
func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }

// IsAlreadyExists reports whether err is a gcsfs *Error of kind already-exists.
func IsAlreadyExists(err error) bool { return KindOf(err) == KindAlreadyExists }

// IsFailedPrecondition reports whether err is a gcsfs *Error of kind failed-precondition.
func IsFailedPrecondition(err error) bool { return KindOf(err) == KindFailedPrecondition }

// IsOutOfRange reports whether err is a gcsfs *Error of kind out-of-range.
func IsOutOfRange(err error) bool { return KindOf(err) == KindOutOfRange }

// IsUnavailable reports whether err is a gcsfs *Error of kind unavailable.
func IsUnavailable(err error) bool { return KindOf(err) == KindUnavailable }

// IsAborted reports whether err is a gcsfs *Error of kind aborted.
func IsAborted(err error) bool { return KindOf(err) == KindAborted }

// IsInvalidArgument reports whether err is a gcsfs *Error of kind invalid-argument.
func IsInvalidArgument(err error) bool { return KindOf(err) == KindInvalidArgument }

// IsPermissionDenied reports whether err is a gcsfs *Error of kind permission-denied.
func IsPermissionDenied(err error) bool { return KindOf(err) == KindPermissionDenied }
