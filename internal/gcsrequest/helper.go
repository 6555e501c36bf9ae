package gcsrequest

import (
	"context"
	"fmt"
)

// Helper wraps a Factory with the auth provider, timeout configuration,
// and optional additional header that every outbound call attaches
// (spec section 4.4).
type Helper struct {
	factory Factory
	auth    AuthProvider
	timeout TimeoutConfig
	header  *Header
}

func NewHelper(factory Factory, auth AuthProvider, timeout TimeoutConfig, header *Header) *Helper {
	return &Helper{factory: factory, auth: auth, timeout: timeout, header: header}
}

// build creates a Request and attaches auth, timeout, and the optional
// additional header. op selects which of the five timeout values
// (connect/idle/metadata/read/write) governs this call's overall
// deadline; all implementations also receive the connect and idle
// values for dial/keepalive behavior.
func (h *Helper) build(ctx context.Context, uri string, opTimeout opTimeoutKind) (Request, error) {
	token, err := h.auth.GetToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("gcsrequest: fetching auth token: %w", err)
	}

	req := h.factory.New()
	req.SetURI(uri)
	req.AddHeader("Authorization", "Bearer "+token)
	if h.header != nil {
		req.AddHeader(h.header.Name, h.header.Value)
	}

	op := h.timeout.Metadata
	switch opTimeout {
	case opRead:
		op = h.timeout.Read
	case opWrite:
		op = h.timeout.Write
	case opMetadata:
		op = h.timeout.Metadata
	}
	req.SetTimeouts(h.timeout.Connect, h.timeout.Idle, op)
	return req, nil
}

type opTimeoutKind int

const (
	opMetadata opTimeoutKind = iota
	opRead
	opWrite
)

// Call is the result of sending a single, already-classified request.
type Call struct {
	Kind Kind
	Code int
	Req  Request
}

// Get issues a GET, optionally range-restricted (end < 0 means no
// range), and classifies the response.
func (h *Helper) Get(ctx context.Context, uri string, begin, end int64) (Call, error) {
	req, err := h.build(ctx, uri, opRead)
	if err != nil {
		return Call{}, err
	}
	if end >= 0 {
		req.SetRange(begin, end)
	}
	return h.send(ctx, req, false)
}

// GetMetadata issues a metadata-timeout GET (stat, list, bucket lookup).
func (h *Helper) GetMetadata(ctx context.Context, uri string) (Call, error) {
	req, err := h.build(ctx, uri, opMetadata)
	if err != nil {
		return Call{}, err
	}
	return h.send(ctx, req, false)
}

// PostEmptyBody issues a POST with no body (upload session init, rewrite).
func (h *Helper) PostEmptyBody(ctx context.Context, uri string, extraHeaders map[string]string) (Call, error) {
	req, err := h.build(ctx, uri, opWrite)
	if err != nil {
		return Call{}, err
	}
	for k, v := range extraHeaders {
		req.AddHeader(k, v)
	}
	req.SetPostEmptyBody()
	return h.send(ctx, req, false)
}

// PutFromString issues a PUT carrying body, with isUpload controlling
// whether a 308 response is treated as resume-incomplete rather than an
// error.
func (h *Helper) PutFromString(ctx context.Context, uri, body string, extraHeaders map[string]string, isUpload bool) (Call, error) {
	req, err := h.build(ctx, uri, opWrite)
	if err != nil {
		return Call{}, err
	}
	for k, v := range extraHeaders {
		req.AddHeader(k, v)
	}
	req.SetPutFromString(body)
	return h.send(ctx, req, isUpload)
}

// Delete issues a DELETE.
func (h *Helper) Delete(ctx context.Context, uri string) (Call, error) {
	req, err := h.build(ctx, uri, opWrite)
	if err != nil {
		return Call{}, err
	}
	req.SetDeleteRequest()
	return h.send(ctx, req, false)
}

func (h *Helper) send(ctx context.Context, req Request, isUpload bool) (Call, error) {
	if err := req.Send(ctx); err != nil {
		return Call{Kind: KindUnavailable, Req: req}, err
	}
	code := req.ResponseCode()
	return Call{Kind: ClassifyStatus(code, isUpload), Code: code, Req: req}, nil
}
