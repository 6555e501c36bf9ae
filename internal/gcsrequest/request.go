// Package gcsrequest is the thin HTTP request abstraction the core sits
// on top of (spec section 6), plus the helper that attaches auth,
// timeouts, and an optional extra header to every outbound call and
// classifies the response into this package's error-kind taxonomy (spec
// section 4.4). The transport itself -- and token/credential acquisition
// -- are external collaborators the core only ever sees through the
// Request/Factory/AuthProvider interfaces here.
package gcsrequest

import (
	"context"
	"time"
)

// Request is a single outbound HTTP call, built up through setter calls
// and executed by Send. Implementations: Real (net/http) for production,
// Fake (scripted) for tests.
type Request interface {
	SetURI(uri string)
	AddHeader(name, value string)
	// SetRange restricts a GET to the inclusive byte range [begin, end].
	SetRange(begin, end int64)
	// SetPostEmptyBody configures a POST with no request body.
	SetPostEmptyBody()
	// SetPutFromString configures a PUT with body as the request body.
	SetPutFromString(body string)
	SetDeleteRequest()
	SetTimeouts(connect, idle, op time.Duration)
	// Send executes the configured request. A non-2xx response is not
	// itself a Go error -- callers classify ResponseCode() via
	// ClassifyStatus. Send returns an error only for transport-level
	// failures (DNS, connection refused, timeout, context cancellation).
	Send(ctx context.Context) error
	ResponseCode() int
	ResponseHeader(name string) string
	ResponseBody() []byte
}

// Factory creates a fresh Request for each outbound call.
type Factory interface {
	New() Request
}

// AuthProvider supplies the bearer token attached to every call.
type AuthProvider interface {
	GetToken(ctx context.Context) (string, error)
}

// ZoneProvider supplies the caller's zone, used to derive the effective
// allowed location when Options.AllowedLocations is {"auto"}.
type ZoneProvider interface {
	GetZone(ctx context.Context) (string, error)
}

// TimeoutConfig carries the per-call timeout values a Helper attaches.
type TimeoutConfig struct {
	Connect  time.Duration
	Idle     time.Duration
	Metadata time.Duration
	Read     time.Duration
	Write    time.Duration
}

// Header is an optional (name, value) pair attached to every call.
type Header struct {
	Name  string
	Value string
}
