package resumable

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Spider8801/gcsfs/internal/gcsrequest"
)

func noSleep(context.Context, time.Duration) {}

func newTestUploader(t *testing.T, calls ...gcsrequest.ScriptedCall) *Uploader {
	t.Helper()
	factory := gcsrequest.NewScriptedFactory(t, calls...)
	helper := gcsrequest.NewHelper(factory, gcsrequest.FakeAuthProvider{}, gcsrequest.TimeoutConfig{}, nil)
	return NewUploader(helper, gcsrequest.RetryConfig{InitDelay: time.Millisecond, MaxRetries: 10}, noSleep)
}

// TestUploadTransientFailureThenResume mirrors spec scenario S4: a
// 17-byte body, three transient failures on the body PUT, each followed
// by an offset query, succeeding on the fourth round.
func TestUploadTransientFailureThenResume(t *testing.T) {
	body := []byte("content1,content2")
	if len(body) != 17 {
		t.Fatalf("test body len = %d, want 17", len(body))
	}

	u := newTestUploader(t,
		gcsrequest.ScriptedCall{Method: "POST", ResponseCode: 200, ResponseHeaders: map[string]string{"Location": "https://session/1"}},
		gcsrequest.ScriptedCall{Method: "PUT", ResponseCode: 503},
		gcsrequest.ScriptedCall{Method: "PUT", ResponseCode: 308, ResponseHeaders: map[string]string{"Range": "0-10"}},
		gcsrequest.ScriptedCall{Method: "PUT", ResponseCode: 503},
		gcsrequest.ScriptedCall{Method: "PUT", ResponseCode: 308, ResponseHeaders: map[string]string{"Range": "bytes=0-12"}},
		gcsrequest.ScriptedCall{Method: "PUT", ResponseCode: 308, ResponseHeaders: map[string]string{"Range": "bytes=0-12"}},
		gcsrequest.ScriptedCall{Method: "PUT", ResponseCode: 308, ResponseHeaders: map[string]string{"Range": "bytes=0-14"}},
		gcsrequest.ScriptedCall{Method: "PUT", ResponseCode: 200},
	)

	if err := u.Upload(context.Background(), "bucket", "object", body); err != nil {
		t.Fatalf("Upload: %v", err)
	}
}

// TestUploadExhaustsRetries mirrors spec scenario S5: every PUT and
// offset query fails for the full retry budget, Close (Upload) reports
// aborted naming the round count and last cause.
func TestUploadExhaustsRetries(t *testing.T) {
	body := []byte("content1,content2")

	calls := []gcsrequest.ScriptedCall{
		{Method: "POST", ResponseCode: 200, ResponseHeaders: map[string]string{"Location": "https://session/1"}},
	}
	for i := 0; i < 10; i++ {
		calls = append(calls,
			gcsrequest.ScriptedCall{Method: "PUT", ResponseCode: 503},
			gcsrequest.ScriptedCall{Method: "PUT", ResponseCode: 503},
		)
	}
	u := newTestUploader(t, calls...)

	err := u.Upload(context.Background(), "bucket", "object", body)
	if err == nil {
		t.Fatal("expected error")
	}
	var aborted *gcsrequest.AbortedError
	if !errors.As(err, &aborted) {
		t.Fatalf("expected *AbortedError, got %T: %v", err, err)
	}
	if aborted.Attempts != 10 {
		t.Errorf("Attempts = %d, want 10", aborted.Attempts)
	}
	if !strings.Contains(err.Error(), "all 10 retry attempts failed") {
		t.Errorf("message = %q, missing attempt count", err.Error())
	}
}

func TestUploadSucceedsImmediately(t *testing.T) {
	u := newTestUploader(t,
		gcsrequest.ScriptedCall{Method: "POST", ResponseCode: 200, ResponseHeaders: map[string]string{"Location": "https://session/1"}},
		gcsrequest.ScriptedCall{Method: "PUT", ResponseCode: 200},
	)
	if err := u.Upload(context.Background(), "bucket", "object", []byte("hello")); err != nil {
		t.Fatalf("Upload: %v", err)
	}
}

func TestUploadSessionGoneRestarts(t *testing.T) {
	u := newTestUploader(t,
		gcsrequest.ScriptedCall{Method: "POST", ResponseCode: 200, ResponseHeaders: map[string]string{"Location": "https://session/1"}},
		gcsrequest.ScriptedCall{Method: "PUT", ResponseCode: 410},
		gcsrequest.ScriptedCall{Method: "POST", ResponseCode: 200, ResponseHeaders: map[string]string{"Location": "https://session/2"}},
		gcsrequest.ScriptedCall{Method: "PUT", ResponseCode: 200},
	)
	if err := u.Upload(context.Background(), "bucket", "object", []byte("hello")); err != nil {
		t.Fatalf("Upload: %v", err)
	}
}
