package gcsfs

import (
	"context"
	"testing"
	"time"

	"github.com/Spider8801/gcsfs/internal/gcsrequest"
)

func newTestFS(t *testing.T, calls ...gcsrequest.ScriptedCall) (*FileSystem, *gcsrequest.ScriptedFactory) {
	t.Helper()
	factory := gcsrequest.NewScriptedFactory(t, calls...)
	fs := NewFileSystem(factory, gcsrequest.FakeAuthProvider{}, nil, Options{
		Retry: RetryConfig{InitDelay: time.Millisecond, MaxRetries: 3},
	})
	return fs, factory
}

func TestGetChildrenStripsPrefixAndSortsResults(t *testing.T) {
	fs, factory := newTestFS(t, gcsrequest.ScriptedCall{
		Method:       "GET",
		ResponseCode: 200,
		ResponseBody: `{"items":[{"name":"dir/"},{"name":"dir/b.txt"},{"name":"dir/a.txt"}],"prefixes":["dir/sub/"]}`,
	})
	defer factory.Done()

	children, err := fs.GetChildren(context.Background(), "gs://bucket/dir")
	if err != nil {
		t.Fatalf("GetChildren: %v", err)
	}
	want := []string{"gs://bucket/dir/a.txt", "gs://bucket/dir/b.txt", "gs://bucket/dir/sub/"}
	if len(children) != len(want) {
		t.Fatalf("GetChildren = %v, want %v", children, want)
	}
	for i := range want {
		if children[i] != want[i] {
			t.Errorf("children[%d] = %q, want %q", i, children[i], want[i])
		}
	}
}

func TestGetMatchingPathsFiltersByGlob(t *testing.T) {
	fs, factory := newTestFS(t, gcsrequest.ScriptedCall{
		Method:       "GET",
		ResponseCode: 200,
		ResponseBody: `{"items":[{"name":"logs/2024-01.txt"},{"name":"logs/2024-02.csv"}]}`,
	})
	defer factory.Done()

	matches, err := fs.GetMatchingPaths(context.Background(), "gs://bucket/logs/2024-*.txt")
	if err != nil {
		t.Fatalf("GetMatchingPaths: %v", err)
	}
	if len(matches) != 1 || matches[0] != "gs://bucket/logs/2024-01.txt" {
		t.Errorf("matches = %v, want [gs://bucket/logs/2024-01.txt]", matches)
	}
}

func TestGetMatchingPathsNoConcretePrefixIsInvalidArgument(t *testing.T) {
	fs, factory := newTestFS(t)
	defer factory.Done()

	_, err := fs.GetMatchingPaths(context.Background(), "gs://bucket/*.txt")
	if !IsInvalidArgument(err) {
		t.Fatalf("GetMatchingPaths err = %v, want invalid-argument", err)
	}
}

func TestCreateDirAlreadyExists(t *testing.T) {
	fs, factory := newTestFS(t, gcsrequest.ScriptedCall{
		Method:       "GET",
		ResponseCode: 200,
		ResponseBody: `{"items":[{"name":"dir/"}]}`,
	})
	defer factory.Done()

	err := fs.CreateDir(context.Background(), "gs://bucket/dir")
	if !IsAlreadyExists(err) {
		t.Fatalf("CreateDir err = %v, want already-exists", err)
	}
}

func TestCreateDirUploadsEmptyMarker(t *testing.T) {
	fs, factory := newTestFS(t,
		gcsrequest.ScriptedCall{ // FolderExists check
			Method:       "GET",
			ResponseCode: 200,
			ResponseBody: `{}`,
		},
		gcsrequest.ScriptedCall{ // resumable session init
			Method:          "POST",
			ResponseCode:    200,
			ResponseHeaders: map[string]string{"Location": "https://upload.example/session1"},
		},
		gcsrequest.ScriptedCall{ // empty-body finish PUT
			Method:       "PUT",
			Body:         "",
			ResponseCode: 200,
		},
	)
	defer factory.Done()

	if err := fs.CreateDir(context.Background(), "gs://bucket/dir"); err != nil {
		t.Fatalf("CreateDir: %v", err)
	}
}

func TestDeleteDirFailsWhenNotEmpty(t *testing.T) {
	fs, factory := newTestFS(t, gcsrequest.ScriptedCall{
		Method:       "GET",
		ResponseCode: 200,
		ResponseBody: `{"items":[{"name":"dir/file.txt"}]}`,
	})
	defer factory.Done()

	err := fs.DeleteDir(context.Background(), "gs://bucket/dir")
	if !IsFailedPrecondition(err) {
		t.Fatalf("DeleteDir err = %v, want failed-precondition", err)
	}
}

func TestDeleteDirRemovesSelfMarkerOnly(t *testing.T) {
	fs, factory := newTestFS(t,
		gcsrequest.ScriptedCall{ // listing: only the self marker
			Method:       "GET",
			ResponseCode: 200,
			ResponseBody: `{"items":[{"name":"dir/"}]}`,
		},
		gcsrequest.ScriptedCall{
			Method:       "DELETE",
			ResponseCode: 200,
		},
	)
	defer factory.Done()

	if err := fs.DeleteDir(context.Background(), "gs://bucket/dir"); err != nil {
		t.Fatalf("DeleteDir: %v", err)
	}
}

// TestRenameFolder reproduces the S6 scenario: a folder containing a
// self-marker, a nested file, and a top-level file is renamed, issuing
// one list and a rewrite+delete pair per item.
func TestRenameFolder(t *testing.T) {
	fs, factory := newTestFS(t,
		gcsrequest.ScriptedCall{ // IsDirectory check (FolderExists)
			Method:       "GET",
			ResponseCode: 200,
			ResponseBody: `{"items":[{"name":"path1/"}]}`,
		},
		gcsrequest.ScriptedCall{ // ListRecursive under path1/
			Method:       "GET",
			ResponseCode: 200,
			ResponseBody: `{"items":[{"name":"path1/"},{"name":"path1/subfolder/file1.txt"},{"name":"path1/file2.txt"}]}`,
		},
		// subfolder/file1.txt: rewrite then delete
		gcsrequest.ScriptedCall{Method: "POST", ResponseCode: 200, ResponseBody: `{"done":true}`},
		gcsrequest.ScriptedCall{Method: "DELETE", ResponseCode: 200},
		// file2.txt: rewrite then delete
		gcsrequest.ScriptedCall{Method: "POST", ResponseCode: 200, ResponseBody: `{"done":true}`},
		gcsrequest.ScriptedCall{Method: "DELETE", ResponseCode: 200},
		// self marker: rewrite then delete
		gcsrequest.ScriptedCall{Method: "POST", ResponseCode: 200, ResponseBody: `{"done":true}`},
		gcsrequest.ScriptedCall{Method: "DELETE", ResponseCode: 200},
	)
	defer factory.Done()

	if err := fs.Rename(context.Background(), "gs://bucket/path1", "gs://bucket/path2/"); err != nil {
		t.Fatalf("Rename: %v", err)
	}
}

func TestRenamePlainObject(t *testing.T) {
	fs, factory := newTestFS(t,
		gcsrequest.ScriptedCall{ // IsDirectory check: no folder
			Method:       "GET",
			ResponseCode: 200,
			ResponseBody: `{}`,
		},
		gcsrequest.ScriptedCall{Method: "POST", ResponseCode: 200, ResponseBody: `{"done":true}`},
		gcsrequest.ScriptedCall{Method: "DELETE", ResponseCode: 200},
	)
	defer factory.Done()

	if err := fs.Rename(context.Background(), "gs://bucket/a.txt", "gs://bucket/b.txt"); err != nil {
		t.Fatalf("Rename: %v", err)
	}
}

func TestWriteHandleBuffersUntilClose(t *testing.T) {
	fs, factory := newTestFS(t,
		gcsrequest.ScriptedCall{ // session init
			Method:          "POST",
			ResponseCode:    200,
			ResponseHeaders: map[string]string{"Location": "https://upload.example/session1"},
		},
		gcsrequest.ScriptedCall{
			Method:       "PUT",
			Body:         "hello world",
			ResponseCode: 200,
		},
	)
	defer factory.Done()

	h, err := fs.OpenForWrite(context.Background(), "gs://bucket/new.txt")
	if err != nil {
		t.Fatalf("OpenForWrite: %v", err)
	}
	if _, err := h.Write([]byte("hello ")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := h.Write([]byte("world")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if got := h.Tell(); got != 11 {
		t.Errorf("Tell() = %d, want 11", got)
	}
	if err := h.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}
	// Closing again must not issue any further HTTP calls.
	if err := h.Close(context.Background()); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

// TestStatClassifiesByStatusNotObjectName guards against classifyKind
// re-deriving Kind from rendered error text: an object name that happens
// to contain another kind's word ("not-found") must not corrupt the
// classification of a real permission-denied response.
func TestStatClassifiesByStatusNotObjectName(t *testing.T) {
	fs, factory := newTestFS(t, gcsrequest.ScriptedCall{
		Method:       "GET",
		ResponseCode: 403,
	})
	defer factory.Done()

	_, err := fs.Stat(context.Background(), "gs://bucket/reports/not-found-2024.csv")
	if !IsPermissionDenied(err) {
		t.Fatalf("Stat err = %v, want permission-denied", err)
	}
	if IsNotFound(err) {
		t.Fatalf("Stat err = %v, misclassified as not-found from the object name", err)
	}
}

// TestIsDirectoryNotFound reproduces TensorFlow's IsDirectory_NotFound:
// no folder prefix and no object at that key resolves to not-found, not
// a bare false.
func TestIsDirectoryNotFound(t *testing.T) {
	fs, factory := newTestFS(t,
		gcsrequest.ScriptedCall{ // FolderExists
			Method:       "GET",
			ResponseCode: 200,
			ResponseBody: `{}`,
		},
		gcsrequest.ScriptedCall{ // Stat
			Method:       "GET",
			ResponseCode: 404,
		},
	)
	defer factory.Done()

	isDir, err := fs.IsDirectory(context.Background(), "gs://bucket/file.txt")
	if isDir {
		t.Fatalf("IsDirectory = true, want false")
	}
	if !IsNotFound(err) {
		t.Fatalf("IsDirectory err = %v, want not-found", err)
	}
}

// TestIsDirectoryObjectNotDirectory reproduces TensorFlow's
// IsDirectory_NotDirectoryButObject: a plain object at that exact key
// resolves to failed-precondition, per errors.go's documented taxonomy.
func TestIsDirectoryObjectNotDirectory(t *testing.T) {
	fs, factory := newTestFS(t,
		gcsrequest.ScriptedCall{ // FolderExists
			Method:       "GET",
			ResponseCode: 200,
			ResponseBody: `{}`,
		},
		gcsrequest.ScriptedCall{ // Stat
			Method:       "GET",
			ResponseCode: 200,
			ResponseBody: `{"size":"1010","generation":"1","updated":"2016-04-29T23:15:24.896Z"}`,
		},
	)
	defer factory.Done()

	isDir, err := fs.IsDirectory(context.Background(), "gs://bucket/file.txt")
	if isDir {
		t.Fatalf("IsDirectory = true, want false")
	}
	if !IsFailedPrecondition(err) {
		t.Fatalf("IsDirectory err = %v, want failed-precondition", err)
	}
}

// TestDeleteRecursivelyNotAFolder reproduces TensorFlow's
// DeleteRecursively_NotAFolder: the target itself counts as one
// undeleted directory, not zero.
func TestDeleteRecursivelyNotAFolder(t *testing.T) {
	fs, factory := newTestFS(t,
		gcsrequest.ScriptedCall{ // FolderExists
			Method:       "GET",
			ResponseCode: 200,
			ResponseBody: `{}`,
		},
		gcsrequest.ScriptedCall{ // Stat
			Method:       "GET",
			ResponseCode: 404,
		},
	)
	defer factory.Done()

	counts, err := fs.DeleteRecursively(context.Background(), "gs://bucket/path")
	if !IsNotFound(err) {
		t.Fatalf("DeleteRecursively err = %v, want not-found", err)
	}
	if counts.UndeletedFiles != 0 || counts.UndeletedDirs != 1 {
		t.Fatalf("DeleteRecursively counts = %+v, want {0 1}", counts)
	}
}
