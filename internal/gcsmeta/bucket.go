package gcsmeta

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Spider8801/gcsfs/internal/gcsrequest"
)

func bucketURL(bucket string) string {
	return fmt.Sprintf("%s/%s", apiBase, bucket)
}

type bucketResponse struct {
	Location string `json:"location"`
}

// BucketLocation performs GET storage/v1/b/{bucket} and returns the
// lowercased location string (spec section 4.5, 4.7).
func (c *Client) BucketLocation(ctx context.Context, bucket string) (string, error) {
	var location string
	err := gcsrequest.Do(ctx, c.retry, c.sleep, func(attempt int) (gcsrequest.Kind, error) {
		call, err := c.helper.GetMetadata(ctx, bucketURL(bucket))
		if err != nil {
			return gcsrequest.KindUnavailable, err
		}
		if call.Kind != gcsrequest.KindOK {
			return call.Kind, gcsrequest.NewStatusError(call.Kind, call.Code,
				"gcsmeta: bucket %s: http %d (%s)", bucket, call.Code, call.Kind)
		}
		var resp bucketResponse
		if err := json.Unmarshal(call.Req.ResponseBody(), &resp); err != nil {
			return gcsrequest.KindOK, fmt.Errorf("gcsmeta: parsing bucket response: %w", err)
		}
		location = strings.ToLower(resp.Location)
		return gcsrequest.KindOK, nil
	})
	return location, err
}

// BucketExists performs GET storage/v1/b/{bucket}, discarding the body.
func (c *Client) BucketExists(ctx context.Context, bucket string) (bool, error) {
	var exists bool
	err := gcsrequest.Do(ctx, c.retry, c.sleep, func(attempt int) (gcsrequest.Kind, error) {
		call, err := c.helper.GetMetadata(ctx, bucketURL(bucket))
		if err != nil {
			return gcsrequest.KindUnavailable, err
		}
		switch call.Kind {
		case gcsrequest.KindOK:
			exists = true
			return gcsrequest.KindOK, nil
		case gcsrequest.KindNotFound:
			exists = false
			return gcsrequest.KindOK, nil
		default:
			return call.Kind, gcsrequest.NewStatusError(call.Kind, call.Code,
				"gcsmeta: bucket %s: http %d (%s)", bucket, call.Code, call.Kind)
		}
	})
	return exists, err
}
