package gcsmeta

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/Spider8801/gcsfs/internal/gcsrequest"
)

type listResponse struct {
	Items []struct {
		Name string `json:"name"`
	} `json:"items"`
	Prefixes      []string `json:"prefixes"`
	NextPageToken string   `json:"nextPageToken"`
}

func listURL(bucket, prefix string, delimiter bool, pageToken string) string {
	q := url.Values{}
	q.Set("fields", "items/name,prefixes,nextPageToken")
	q.Set("prefix", prefix)
	if delimiter {
		q.Set("delimiter", "/")
	}
	if pageToken != "" {
		q.Set("pageToken", pageToken)
	}
	return fmt.Sprintf("%s/%s/o?%s", apiBase, bucket, q.Encode())
}

// FolderExists performs a delimiter-listing with maxResults=1 under
// prefix+"/" and reports whether any item or common prefix was
// returned (spec section 4.5).
func (c *Client) FolderExists(ctx context.Context, bucket, prefix string) (bool, error) {
	dirPrefix := prefix
	if dirPrefix != "" && !strings.HasSuffix(dirPrefix, "/") {
		dirPrefix += "/"
	}

	uri := listURL(bucket, dirPrefix, true, "") + "&maxResults=1"

	var found bool
	err := gcsrequest.Do(ctx, c.retry, c.sleep, func(attempt int) (gcsrequest.Kind, error) {
		call, err := c.helper.GetMetadata(ctx, uri)
		if err != nil {
			return gcsrequest.KindUnavailable, err
		}
		if call.Kind != gcsrequest.KindOK {
			return call.Kind, gcsrequest.NewStatusError(call.Kind, call.Code,
				"gcsmeta: folder exists %s/%s: http %d (%s)", bucket, dirPrefix, call.Code, call.Kind)
		}
		var resp listResponse
		if err := json.Unmarshal(call.Req.ResponseBody(), &resp); err != nil {
			return gcsrequest.KindOK, fmt.Errorf("gcsmeta: parsing list response: %w", err)
		}
		found = len(resp.Items) > 0 || len(resp.Prefixes) > 0
		return gcsrequest.KindOK, nil
	})
	return found, err
}

// Listing is the result of ListChildren/ListRecursive: files are object
// names with prefix stripped, dirs are common prefixes with prefix
// stripped and trailing slash kept.
type Listing struct {
	Files []string
	Dirs  []string
}

// ListChildren performs a paginated delimiter-listing under
// prefix+"/", stripping the prefix from results and omitting the
// self-directory marker (an item literally equal to prefix+"/"), per
// spec section 4.5 and the invariant in spec section 8 property 3.
func (c *Client) ListChildren(ctx context.Context, bucket, prefix string) (Listing, error) {
	return c.list(ctx, bucket, prefix, true)
}

// ListRecursive is ListChildren without a delimiter: every object under
// prefix+"/" is returned flat, with no directory synthesis.
func (c *Client) ListRecursive(ctx context.Context, bucket, prefix string) (Listing, error) {
	return c.list(ctx, bucket, prefix, false)
}

// ListByPrefix lists every object whose name has the literal prefix,
// without forcing a trailing "/" the way ListChildren/ListRecursive do.
// Used for glob expansion, where the wildcard-free prefix is rarely a
// directory boundary (e.g. "folder/fil" before "folder/fil*e.txt").
func (c *Client) ListByPrefix(ctx context.Context, bucket, prefix string) (Listing, error) {
	return c.listRaw(ctx, bucket, prefix, false)
}

func (c *Client) list(ctx context.Context, bucket, prefix string, delimiter bool) (Listing, error) {
	dirPrefix := prefix
	if dirPrefix != "" && !strings.HasSuffix(dirPrefix, "/") {
		dirPrefix += "/"
	}
	return c.listRaw(ctx, bucket, dirPrefix, delimiter)
}

func (c *Client) listRaw(ctx context.Context, bucket, dirPrefix string, delimiter bool) (Listing, error) {
	var out Listing
	pageToken := ""
	for {
		uri := listURL(bucket, dirPrefix, delimiter, pageToken)

		var resp listResponse
		err := gcsrequest.Do(ctx, c.retry, c.sleep, func(attempt int) (gcsrequest.Kind, error) {
			call, err := c.helper.GetMetadata(ctx, uri)
			if err != nil {
				return gcsrequest.KindUnavailable, err
			}
			if call.Kind != gcsrequest.KindOK {
				return call.Kind, gcsrequest.NewStatusError(call.Kind, call.Code,
					"gcsmeta: list %s/%s: http %d (%s)", bucket, dirPrefix, call.Code, call.Kind)
			}
			if err := json.Unmarshal(call.Req.ResponseBody(), &resp); err != nil {
				return gcsrequest.KindOK, fmt.Errorf("gcsmeta: parsing list response: %w", err)
			}
			return gcsrequest.KindOK, nil
		})
		if err != nil {
			return Listing{}, err
		}

		for _, item := range resp.Items {
			name := item.Name
			if name == dirPrefix {
				// Self-directory marker: omitted from child listings.
				continue
			}
			stripped := strings.TrimPrefix(name, dirPrefix)
			out.Files = append(out.Files, stripped)
		}
		for _, p := range resp.Prefixes {
			out.Dirs = append(out.Dirs, strings.TrimPrefix(p, dirPrefix))
		}

		if resp.NextPageToken == "" {
			break
		}
		pageToken = resp.NextPageToken
	}
	return out, nil
}
