package gcsmeta

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Spider8801/gcsfs/internal/gcsrequest"
)

func newTestClient(t *testing.T, calls ...gcsrequest.ScriptedCall) *Client {
	t.Helper()
	factory := gcsrequest.NewScriptedFactory(t, calls...)
	helper := gcsrequest.NewHelper(factory, gcsrequest.FakeAuthProvider{}, gcsrequest.TimeoutConfig{}, nil)
	return NewClient(helper, gcsrequest.RetryConfig{InitDelay: time.Millisecond, MaxRetries: 3}, func(context.Context, time.Duration) {})
}

func TestFolderExistsTrue(t *testing.T) {
	c := newTestClient(t, gcsrequest.ScriptedCall{
		Method:       "GET",
		ResponseCode: 200,
		ResponseBody: `{"items":[{"name":"dir/a.txt"}]}`,
	})
	ok, err := c.FolderExists(context.Background(), "bucket", "dir")
	if err != nil {
		t.Fatalf("FolderExists: %v", err)
	}
	if !ok {
		t.Error("expected folder to exist")
	}
}

func TestFolderExistsFalse(t *testing.T) {
	c := newTestClient(t, gcsrequest.ScriptedCall{
		Method:       "GET",
		ResponseCode: 200,
		ResponseBody: `{}`,
	})
	ok, err := c.FolderExists(context.Background(), "bucket", "dir")
	if err != nil {
		t.Fatalf("FolderExists: %v", err)
	}
	if ok {
		t.Error("expected folder to not exist")
	}
}

func TestListChildrenStripsPrefixAndOmitsSelfMarker(t *testing.T) {
	c := newTestClient(t, gcsrequest.ScriptedCall{
		Method:       "GET",
		ResponseCode: 200,
		ResponseBody: `{"items":[{"name":"dir/"},{"name":"dir/a.txt"}],"prefixes":["dir/sub/"]}`,
	})
	listing, err := c.ListChildren(context.Background(), "bucket", "dir")
	if err != nil {
		t.Fatalf("ListChildren: %v", err)
	}
	if len(listing.Files) != 1 || listing.Files[0] != "a.txt" {
		t.Errorf("Files = %v, want [a.txt]", listing.Files)
	}
	if len(listing.Dirs) != 1 || listing.Dirs[0] != "sub/" {
		t.Errorf("Dirs = %v, want [sub/]", listing.Dirs)
	}
}

func TestListRecursivePaginates(t *testing.T) {
	c := newTestClient(t,
		gcsrequest.ScriptedCall{
			Method:       "GET",
			ResponseCode: 200,
			ResponseBody: `{"items":[{"name":"dir/a.txt"}],"nextPageToken":"tok2"}`,
		},
		gcsrequest.ScriptedCall{
			Method:       "GET",
			ResponseCode: 200,
			ResponseBody: `{"items":[{"name":"dir/b.txt"}]}`,
		},
	)
	listing, err := c.ListRecursive(context.Background(), "bucket", "dir")
	if err != nil {
		t.Fatalf("ListRecursive: %v", err)
	}
	if len(listing.Files) != 2 || listing.Files[0] != "a.txt" || listing.Files[1] != "b.txt" {
		t.Errorf("Files = %v, want [a.txt b.txt]", listing.Files)
	}
}

func TestCopySucceeds(t *testing.T) {
	c := newTestClient(t, gcsrequest.ScriptedCall{
		Method:       "POST",
		ResponseCode: 200,
		ResponseBody: `{"done":true}`,
	})
	if err := c.Copy(context.Background(), "src-bucket", "a.txt", "dst-bucket", "b.txt"); err != nil {
		t.Fatalf("Copy: %v", err)
	}
}

func TestCopyNotDoneIsUnimplemented(t *testing.T) {
	c := newTestClient(t, gcsrequest.ScriptedCall{
		Method:       "POST",
		ResponseCode: 200,
		ResponseBody: `{"done":false}`,
	})
	err := c.Copy(context.Background(), "src-bucket", "a.txt", "dst-bucket", "b.txt")
	if err == nil {
		t.Fatal("expected error for multi-round-trip rewrite")
	}
	var rie *RewriteIncompleteError
	if !errors.As(err, &rie) {
		t.Fatalf("Copy error = %v, want *RewriteIncompleteError", err)
	}
}

func TestDeleteTreats404AsSuccess(t *testing.T) {
	c := newTestClient(t, gcsrequest.ScriptedCall{
		Method:       "DELETE",
		ResponseCode: 404,
	})
	if err := c.Delete(context.Background(), "bucket", "a.txt"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
}
