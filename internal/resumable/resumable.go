// Package resumable implements the resumable upload state machine of
// spec section 4.6: session init, body PUT, and on transient failure a
// query of the committed offset followed by a resumed PUT, bounded by a
// retry budget of {status query + resumed PUT} rounds.
package resumable

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Spider8801/gcsfs/internal/gcsrequest"
)

const uploadBase = "https://www.googleapis.com/upload/storage/v1/b"

// Uploader drives one object's resumable-upload state machine. It holds
// no buffered bytes itself; callers supply the full payload to Upload.
type Uploader struct {
	helper *gcsrequest.Helper
	retry  gcsrequest.RetryConfig
	sleep  gcsrequest.Sleep
}

func NewUploader(helper *gcsrequest.Helper, retry gcsrequest.RetryConfig, sleep gcsrequest.Sleep) *Uploader {
	return &Uploader{helper: helper, retry: retry, sleep: sleep}
}

func sessionInitURL(bucket, object string) string {
	return fmt.Sprintf("%s/%s/o?uploadType=resumable&name=%s", uploadBase, bucket, pathEscape(object))
}

func pathEscape(object string) string {
	return strings.ReplaceAll(object, "/", "%2F")
}

func (u *Uploader) maxRounds() int {
	if u.retry.MaxRetries <= 0 {
		return 10
	}
	return u.retry.MaxRetries
}

func (u *Uploader) initDelay() time.Duration {
	if u.retry.InitDelay <= 0 {
		return 100 * time.Millisecond
	}
	return u.retry.InitDelay
}

func (u *Uploader) doSleep(ctx context.Context, d time.Duration) {
	if u.sleep != nil {
		u.sleep(ctx, d)
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

// Upload drives INIT -> READY -> DONE, with QUERY_OFFSET/resume rounds
// after a transient or 308 PUT response and a fresh session after a
// session-gone (404/410) response, for up to maxRounds() rounds of {PUT,
// offset query}. Any other non-ok PUT response is returned at once as a
// *gcsrequest.StatusError. On exhaustion it returns an unavailable
// *gcsrequest.StatusError if the last round still found the session
// gone, and otherwise a *gcsrequest.AbortedError naming the round count
// and last cause.
func (u *Uploader) Upload(ctx context.Context, bucket, object string, body []byte) error {
	total := int64(len(body))

	sessionURI, err := u.initSession(ctx, bucket, object, total)
	if err != nil {
		return err
	}

	if total == 0 {
		return u.putEmpty(ctx, sessionURI)
	}

	committed := int64(-1) // -1 means nothing committed yet, PUT from 0
	delay := u.initDelay()
	max := u.maxRounds()

	var lastErr error
	goneCode := 0
	for round := 1; round <= max; round++ {
		from := committed + 1
		call, putErr := u.putRange(ctx, sessionURI, body, from, total-1, total)
		if putErr != nil {
			call.Kind = gcsrequest.KindUnavailable
		}

		needsOffsetQuery := true
		goneCode = 0
		switch call.Kind {
		case gcsrequest.KindOK:
			return nil
		case gcsrequest.KindNotFound:
			// Session gone: restart from INIT with a fresh session URI.
			goneCode = call.Code
			newURI, initErr := u.initSession(ctx, bucket, object, total)
			if initErr != nil {
				lastErr = fmt.Errorf("resumable: upload %s/%s: session gone, reinit failed: %w", bucket, object, initErr)
			} else {
				sessionURI = newURI
				committed = -1
				lastErr = fmt.Errorf("resumable: upload %s/%s: session gone (410), restarted", bucket, object)
			}
			needsOffsetQuery = false
		case gcsrequest.KindResumeIncomplete, gcsrequest.KindUnavailable:
			if putErr != nil {
				lastErr = putErr
			} else {
				lastErr = fmt.Errorf("resumable: upload %s/%s: put returned %s", bucket, object, call.Kind)
			}
		default:
			return gcsrequest.NewStatusError(call.Kind, call.Code,
				"resumable: upload %s/%s: http %d (%s)", bucket, object, call.Code, call.Kind)
		}

		if needsOffsetQuery {
			offset, qErr := u.queryOffset(ctx, sessionURI, total)
			if qErr != nil {
				lastErr = qErr
			} else {
				committed = offset
			}
		}

		if round == max {
			break
		}
		u.doSleep(ctx, delay)
		delay *= 2
	}
	if goneCode != 0 {
		return gcsrequest.NewStatusError(gcsrequest.KindUnavailable, goneCode,
			"resumable: upload %s/%s: session still gone after %d rounds: %v", bucket, object, max, lastErr)
	}
	return &gcsrequest.AbortedError{Attempts: max, Cause: lastErr}
}

func (u *Uploader) initSession(ctx context.Context, bucket, object string, total int64) (string, error) {
	uri := sessionInitURL(bucket, object)
	extra := map[string]string{"X-Upload-Content-Length": strconv.FormatInt(total, 10)}

	call, err := u.helper.PostEmptyBody(ctx, uri, extra)
	if err != nil {
		return "", fmt.Errorf("resumable: init session %s/%s: %w", bucket, object, err)
	}
	if call.Kind != gcsrequest.KindOK {
		return "", gcsrequest.NewStatusError(call.Kind, call.Code,
			"resumable: init session %s/%s: http %d (%s)", bucket, object, call.Code, call.Kind)
	}
	sessionURI := call.Req.ResponseHeader("Location")
	if sessionURI == "" {
		return "", fmt.Errorf("resumable: init session %s/%s: missing Location header", bucket, object)
	}
	return sessionURI, nil
}

// putEmpty finishes a zero-length upload, which GCS's resumable
// protocol requires as a single PUT carrying "bytes */0" rather than
// the chunk/Content-Range shape putRange sends for non-empty bodies
// (directory markers in dir.go are the one caller exercising this).
func (u *Uploader) putEmpty(ctx context.Context, sessionURI string) error {
	headers := map[string]string{"Content-Range": "bytes */0"}
	call, err := u.helper.PutFromString(ctx, sessionURI, "", headers, true)
	if err != nil {
		return err
	}
	if call.Kind != gcsrequest.KindOK {
		return gcsrequest.NewStatusError(call.Kind, call.Code,
			"resumable: empty upload: http %d (%s)", call.Code, call.Kind)
	}
	return nil
}

// putRange issues a single PUT of body[from:end+1] with a Content-Range
// header. It has no retry loop of its own: the caller's round loop
// drives retry/resume.
func (u *Uploader) putRange(ctx context.Context, sessionURI string, body []byte, from, end, total int64) (gcsrequest.Call, error) {
	chunk := string(body[from : end+1])
	headers := map[string]string{
		"Content-Range": fmt.Sprintf("bytes %d-%d/%d", from, end, total),
	}
	return u.helper.PutFromString(ctx, sessionURI, chunk, headers, true)
}

// queryOffset issues an empty-body PUT with Content-Range: bytes */total
// to discover the highest byte already committed by the store.
func (u *Uploader) queryOffset(ctx context.Context, sessionURI string, total int64) (int64, error) {
	headers := map[string]string{
		"Content-Range": fmt.Sprintf("bytes */%d", total),
	}
	call, err := u.helper.PutFromString(ctx, sessionURI, "", headers, true)
	if err != nil {
		return 0, err
	}
	switch call.Kind {
	case gcsrequest.KindOK:
		return total - 1, nil
	case gcsrequest.KindResumeIncomplete:
		return parseRangeHeader(call.Req.ResponseHeader("Range"))
	default:
		return 0, gcsrequest.NewStatusError(call.Kind, call.Code,
			"resumable: offset query: http %d (%s)", call.Code, call.Kind)
	}
}

// parseRangeHeader parses a "0-N" or "bytes=0-N" Range header into N.
func parseRangeHeader(header string) (int64, error) {
	h := strings.TrimPrefix(header, "bytes=")
	parts := strings.SplitN(h, "-", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("resumable: malformed Range header %q", header)
	}
	n, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("resumable: malformed Range header %q: %w", header, err)
	}
	return n, nil
}
