package gcsrequest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// RealFactory builds Request implementations backed by net/http,
// sharing a single client (and therefore connection pool) across calls.
type RealFactory struct {
	client *http.Client
}

// NewRealFactory returns a RealFactory using client, or
// http.DefaultClient's transport settings if client is nil. Only the
// per-operation timeout is applied, as a context deadline in Send; the
// connect and idle values passed to SetTimeouts are ignored.
func NewRealFactory(client *http.Client) *RealFactory {
	if client == nil {
		client = &http.Client{}
	}
	return &RealFactory{client: client}
}

func (f *RealFactory) New() Request {
	return &realRequest{client: f.client}
}

type realRequest struct {
	client *http.Client

	uri     string
	method  string
	headers http.Header
	body    []byte
	opTime  time.Duration

	code       int
	respHeader http.Header
	respBody   []byte
}

func (r *realRequest) SetURI(uri string) { r.uri = uri }

func (r *realRequest) AddHeader(name, value string) {
	if r.headers == nil {
		r.headers = make(http.Header)
	}
	r.headers.Add(name, value)
}

func (r *realRequest) SetRange(begin, end int64) {
	r.AddHeader("Range", fmt.Sprintf("bytes=%d-%d", begin, end))
	r.method = http.MethodGet
}

func (r *realRequest) SetPostEmptyBody() {
	r.method = http.MethodPost
	r.body = nil
}

func (r *realRequest) SetPutFromString(body string) {
	r.method = http.MethodPut
	r.body = []byte(body)
}

func (r *realRequest) SetDeleteRequest() {
	r.method = http.MethodDelete
}

func (r *realRequest) SetTimeouts(connect, idle, op time.Duration) {
	r.opTime = op
}

func (r *realRequest) Send(ctx context.Context) error {
	method := r.method
	if method == "" {
		method = http.MethodGet
	}

	if r.opTime > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opTime)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, method, r.uri, bytes.NewReader(r.body))
	if err != nil {
		return fmt.Errorf("gcsrequest: building request: %w", err)
	}
	req.Header = r.headers.Clone()

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("gcsrequest: sending request: %w", err)
	}
	defer resp.Body.Close()

	r.code = resp.StatusCode
	r.respHeader = resp.Header
	r.respBody, err = io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("gcsrequest: reading response body: %w", err)
	}
	return nil
}

func (r *realRequest) ResponseCode() int { return r.code }

func (r *realRequest) ResponseHeader(name string) string {
	if r.respHeader == nil {
		return ""
	}
	return r.respHeader.Get(name)
}

func (r *realRequest) ResponseBody() []byte { return r.respBody }
