package gcsrequest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// ScriptedCall is one expected outbound call and its canned response,
// matching the original system's FakeHttpRequest: tests assert the
// method, URI, headers, and body of each call made against the facade,
// in order, and supply the response that call should receive.
type ScriptedCall struct {
	// Method is "GET", "POST", "PUT", or "DELETE". Empty means "don't
	// check the method".
	Method string
	// URI, if non-empty, must match exactly.
	URI string
	// Headers, if non-nil, must each be present with the given value
	// (extra headers on the real request are ignored).
	Headers map[string]string
	// Body, if non-empty, must match the request body exactly.
	Body string

	// ResponseCode is the HTTP status to return.
	ResponseCode int
	// ResponseHeaders are returned from ResponseHeader.
	ResponseHeaders map[string]string
	// ResponseBody is returned from ResponseBody.
	ResponseBody string
	// SendErr, if set, makes Send return this error instead of
	// producing a response (simulating a transport-level failure).
	SendErr error
}

// ScriptedFactory replays a fixed sequence of ScriptedCall responses,
// asserting that each outbound request matches the next scripted call.
// It is the gcsrequest.Factory used by every test in this module that
// exercises HTTP behavior, mirroring spec section 6's required testing
// style.
type ScriptedFactory struct {
	mu      sync.Mutex
	t       TestingT
	calls   []ScriptedCall
	nextIdx int
}

// TestingT is the subset of *testing.T this package needs, so it does
// not import "testing" into non-test code.
type TestingT interface {
	Helper()
	Errorf(format string, args ...any)
	Fatalf(format string, args ...any)
}

// NewScriptedFactory returns a factory that expects exactly calls, in
// order.
func NewScriptedFactory(t TestingT, calls ...ScriptedCall) *ScriptedFactory {
	return &ScriptedFactory{t: t, calls: calls}
}

// Done asserts that every scripted call was consumed.
func (f *ScriptedFactory) Done() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.t.Helper()
	if f.nextIdx != len(f.calls) {
		f.t.Errorf("ScriptedFactory: only %d of %d expected calls were made", f.nextIdx, len(f.calls))
	}
}

func (f *ScriptedFactory) New() Request {
	return &scriptedRequest{factory: f}
}

type scriptedRequest struct {
	factory *ScriptedFactory

	method  string
	uri     string
	headers map[string]string
	body    string

	resp ScriptedCall
}

func (r *scriptedRequest) SetURI(uri string) { r.uri = uri }

func (r *scriptedRequest) AddHeader(name, value string) {
	if r.headers == nil {
		r.headers = make(map[string]string)
	}
	r.headers[name] = value
}

func (r *scriptedRequest) SetRange(begin, end int64) {
	r.method = "GET"
	r.AddHeader("Range", fmt.Sprintf("bytes=%d-%d", begin, end))
}

func (r *scriptedRequest) SetPostEmptyBody() { r.method = "POST" }

func (r *scriptedRequest) SetPutFromString(body string) {
	r.method = "PUT"
	r.body = body
}

func (r *scriptedRequest) SetDeleteRequest() { r.method = "DELETE" }

func (r *scriptedRequest) SetTimeouts(connect, idle, op time.Duration) {}

func (r *scriptedRequest) Send(ctx context.Context) error {
	r.factory.mu.Lock()
	defer r.factory.mu.Unlock()
	f := r.factory
	f.t.Helper()

	if f.nextIdx >= len(f.calls) {
		f.t.Fatalf("ScriptedFactory: unexpected extra call: %s %s", methodOrGet(r.method), r.uri)
		return fmt.Errorf("gcsrequest: no scripted call remaining")
	}
	want := f.calls[f.nextIdx]
	f.nextIdx++

	if want.Method != "" && want.Method != methodOrGet(r.method) {
		f.t.Errorf("call %d: method = %q, want %q (uri %s)", f.nextIdx, methodOrGet(r.method), want.Method, r.uri)
	}
	if want.URI != "" && want.URI != r.uri {
		f.t.Errorf("call %d: uri = %q, want %q", f.nextIdx, r.uri, want.URI)
	}
	for k, v := range want.Headers {
		if got := r.headers[k]; got != v {
			f.t.Errorf("call %d (%s): header %q = %q, want %q", f.nextIdx, r.uri, k, got, v)
		}
	}
	if want.Body != "" && want.Body != r.body {
		f.t.Errorf("call %d (%s): body = %q, want %q", f.nextIdx, r.uri, r.body, want.Body)
	}

	r.resp = want
	if want.SendErr != nil {
		return want.SendErr
	}
	return nil
}

func methodOrGet(m string) string {
	if m == "" {
		return "GET"
	}
	return m
}

func (r *scriptedRequest) ResponseCode() int { return r.resp.ResponseCode }

func (r *scriptedRequest) ResponseHeader(name string) string {
	for k, v := range r.resp.ResponseHeaders {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

func (r *scriptedRequest) ResponseBody() []byte { return []byte(r.resp.ResponseBody) }
