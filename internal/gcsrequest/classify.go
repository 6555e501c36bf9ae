package gcsrequest

import "fmt"

// Kind is this package's error-kind taxonomy, classified purely from an
// HTTP status code (spec section 4.4's status-to-kind table). The facade
// layer (package gcsfs) maps Kind onto its own public Kind; the two are
// kept separate so this package has no dependency on the facade.
type Kind int

const (
	KindOK Kind = iota
	// KindResumeIncomplete is GCS's 308 response during a resumable
	// upload PUT; it carries a Range header naming the committed byte
	// offset and is not itself a failure.
	KindResumeIncomplete
	KindPermissionDenied
	KindNotFound
	KindUnavailable
	KindFailedPrecondition
	KindInvalidArgument
)

func (k Kind) String() string {
	switch k {
	case KindOK:
		return "ok"
	case KindResumeIncomplete:
		return "resume-incomplete"
	case KindPermissionDenied:
		return "permission-denied"
	case KindNotFound:
		return "not-found"
	case KindUnavailable:
		return "unavailable"
	case KindFailedPrecondition:
		return "failed-precondition"
	case KindInvalidArgument:
		return "invalid-argument"
	default:
		return "unknown"
	}
}

// Retryable reports whether a call classified as k should be retried by
// the bounded-attempt retry loop in retry.go.
func (k Kind) Retryable() bool {
	return k == KindUnavailable
}

// StatusError is returned by gcsmeta/resumable for a non-ok classified
// call. It carries Kind as a typed field rather than only in the
// rendered message, so a caller (the gcsfs facade) can recover it with
// errors.As instead of matching against message text that may also
// contain caller-supplied bucket/object names.
type StatusError struct {
	Kind    Kind
	Code    int
	Message string
}

func (e *StatusError) Error() string { return e.Message }

// NewStatusError builds a StatusError, formatting Message like
// fmt.Sprintf.
func NewStatusError(kind Kind, code int, format string, args ...any) *StatusError {
	return &StatusError{Kind: kind, Code: code, Message: fmt.Sprintf(format, args...)}
}

// ClassifyStatus maps an HTTP status code to a Kind, per spec section
// 4.4. isUpload distinguishes the 308 meaning during a resumable upload
// (resume-incomplete, not an error) from any other caller, where GCS
// never returns 308 for non-upload calls.
func ClassifyStatus(code int, isUpload bool) Kind {
	switch {
	case code >= 200 && code < 300:
		return KindOK
	case code == 308 && isUpload:
		return KindResumeIncomplete
	case code == 401 || code == 403:
		return KindPermissionDenied
	case code == 404 || code == 410:
		return KindNotFound
	case code == 429 || code >= 500:
		return KindUnavailable
	case code == 400:
		return KindInvalidArgument
	case code >= 400 && code < 500:
		return KindFailedPrecondition
	default:
		return KindInvalidArgument
	}
}
