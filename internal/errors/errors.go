// Package errors maps gcsfs's error taxonomy onto HTTP status codes and
// an error record, for the debug/admin surface in
// cmd/gcsfs-server. The facade itself never returns HTTP; this mapping
// only matters at that one boundary.
package errors

import (
	stderrors "errors"
	"net/http"

	"github.com/Spider8801/gcsfs"
)

// APIError is the classified form of a failure that the debug server's
// handlers turn into an HTTP error response; they send its Message with
// its HTTPStatus, not the APIError itself as JSON.
type APIError struct {
	// Code is gcsfs's Kind, stringified (e.g. "not-found").
	Code string `json:"code"`
	// Message is the error's full text, including path enrichment.
	Message string `json:"message"`
	// HTTPStatus is the status code this error was mapped to.
	HTTPStatus int `json:"-"`
}

func (e *APIError) Error() string { return e.Message }

// FromError classifies err via gcsfs.KindOf and builds the APIError a
// debug-server handler should return.
func FromError(err error) *APIError {
	if err == nil {
		return nil
	}
	kind := gcsfs.KindOf(err)
	return &APIError{
		Code:       kind.String(),
		Message:    err.Error(),
		HTTPStatus: HTTPStatus(kind),
	}
}

// HTTPStatus maps a gcsfs.Kind onto the HTTP status code the debug
// server reports for it.
func HTTPStatus(kind gcsfs.Kind) int {
	switch kind {
	case gcsfs.KindOK:
		return http.StatusOK
	case gcsfs.KindInvalidArgument:
		return http.StatusBadRequest
	case gcsfs.KindNotFound:
		return http.StatusNotFound
	case gcsfs.KindAlreadyExists:
		return http.StatusConflict
	case gcsfs.KindFailedPrecondition:
		return http.StatusPreconditionFailed
	case gcsfs.KindOutOfRange:
		return http.StatusRequestedRangeNotSatisfiable
	case gcsfs.KindUnavailable:
		return http.StatusServiceUnavailable
	case gcsfs.KindAborted:
		return http.StatusConflict
	case gcsfs.KindUnimplemented:
		return http.StatusNotImplemented
	case gcsfs.KindPermissionDenied:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// Is reports whether err, or anything it wraps, is an *APIError with
// the given code.
func Is(err error, code string) bool {
	var apiErr *APIError
	if !stderrors.As(err, &apiErr) {
		return false
	}
	return apiErr.Code == code
}
