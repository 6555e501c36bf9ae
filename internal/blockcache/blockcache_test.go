package blockcache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func sigv(size int64) Signature { return Signature{Size: size, Generation: 1} }

func constFetcher(content []byte, calls *int32) Fetcher {
	return func(ctx context.Context, path string, blockOffset, blockSize int64) ([]byte, error) {
		atomic.AddInt32(calls, 1)
		end := blockOffset + blockSize
		if end > int64(len(content)) {
			end = int64(len(content))
		}
		if blockOffset >= end {
			return nil, nil
		}
		return content[blockOffset:end], nil
	}
}

func TestReadWithinSingleBlock(t *testing.T) {
	content := []byte("0123456789")
	c := New(8, 1024, 0)
	var calls int32
	data, err := c.Read(context.Background(), "gs://b/o", sigv(10), 10, 0, 6, constFetcher(content, &calls))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(data) != "012345" {
		t.Errorf("data = %q", data)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestReadSpanningBlocksIssuesOneFetchPerBlock(t *testing.T) {
	content := []byte("0123456789ABCDEF") // 16 bytes
	c := New(8, 1024, 0)
	var calls int32
	data, err := c.Read(context.Background(), "gs://b/o", sigv(16), 16, 0, 16, constFetcher(content, &calls))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(data) != string(content) {
		t.Errorf("data = %q", data)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}

	// Repeated read of the same range issues no further fetches.
	_, err = c.Read(context.Background(), "gs://b/o", sigv(16), 16, 0, 16, constFetcher(content, &calls))
	if err != nil {
		t.Fatalf("second Read: %v", err)
	}
	if calls != 2 {
		t.Errorf("calls after repeat = %d, want 2 (cache hit)", calls)
	}
}

func TestReadPastEndOfFileIsOutOfRange(t *testing.T) {
	content := []byte("0123456789")
	c := New(6, 1024, 0)
	_, err := c.Read(context.Background(), "gs://b/o", sigv(10), 10, 6, 4, constFetcher(content, new(int32)))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	_, err = c.Read(context.Background(), "gs://b/o", sigv(10), 10, 10, 4, constFetcher(content, new(int32)))
	var oor *ErrOutOfRange
	if !errors.As(err, &oor) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}
}

func TestReadShortReadReportsOutOfRange(t *testing.T) {
	content := []byte("0123456789")
	c := New(6, 1024, 0)
	// Request 6 bytes starting 6 bytes in, but only 4 remain.
	data, err := c.Read(context.Background(), "gs://b/o", sigv(10), 10, 6, 6, constFetcher(content, new(int32)))
	var oor *ErrOutOfRange
	if !errors.As(err, &oor) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}
	if string(data) != "6789" {
		t.Errorf("data = %q, want 6789", data)
	}
}

func TestConcurrentReadersCoalesceFetch(t *testing.T) {
	content := make([]byte, 64)
	c := New(16, 1024, 0)
	var calls int32
	release := make(chan struct{})
	fetch := func(ctx context.Context, path string, blockOffset, blockSize int64) ([]byte, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		end := blockOffset + blockSize
		if end > int64(len(content)) {
			end = int64(len(content))
		}
		return content[blockOffset:end], nil
	}

	var wg sync.WaitGroup
	const n = 10
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			_, err := c.Read(context.Background(), "gs://b/o", sigv(64), 64, 0, 16, fetch)
			if err != nil {
				t.Errorf("Read: %v", err)
			}
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if calls != 1 {
		t.Errorf("calls = %d, want 1 (coalesced)", calls)
	}
}

func TestSignatureChangeBypassesOldCache(t *testing.T) {
	c := New(8, 1024, 0)
	var calls int32
	content1 := []byte("01234")
	content2 := []byte("43210")

	data, err := c.Read(context.Background(), "gs://b/o", sigv(5), 5, 0, 5, constFetcher(content1, &calls))
	if err != nil || string(data) != "01234" {
		t.Fatalf("first read: data=%q err=%v", data, err)
	}

	data, err = c.Read(context.Background(), "gs://b/o", Signature{Size: 5, Generation: 2}, 5, 0, 5, constFetcher(content2, &calls))
	if err != nil || string(data) != "43210" {
		t.Fatalf("second read: data=%q err=%v", data, err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2 (new signature forces refetch)", calls)
	}
}

func TestCapacityEvictionNeverEvictsInUseBlock(t *testing.T) {
	content := make([]byte, 32)
	c := New(8, 16, 0) // only room for 2 blocks of 8 bytes
	var calls int32
	for _, off := range []int64{0, 8, 16, 24} {
		_, err := c.Read(context.Background(), "gs://b/o", sigv(32), 32, off, 8, constFetcher(content, &calls))
		if err != nil {
			t.Fatalf("Read at %d: %v", off, err)
		}
	}
	if c.TotalBytes() > 16 {
		t.Errorf("TotalBytes = %d, want <= 16", c.TotalBytes())
	}
	// Re-reading an evicted block issues a fresh fetch.
	before := calls
	_, err := c.Read(context.Background(), "gs://b/o", sigv(32), 32, 0, 8, constFetcher(content, &calls))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if calls <= before {
		t.Error("expected refetch of evicted block")
	}
}

func TestRemoveFileDiscardsOnlyThatPath(t *testing.T) {
	content := []byte("01234567")
	c := New(8, 1024, 0)
	var calls int32
	c.Read(context.Background(), "gs://b/a", sigv(8), 8, 0, 8, constFetcher(content, &calls))
	c.Read(context.Background(), "gs://b/b", sigv(8), 8, 0, 8, constFetcher(content, &calls))

	c.RemoveFile("gs://b/a")
	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1 after RemoveFile", c.Len())
	}
}

func TestFlushDiscardsEverything(t *testing.T) {
	content := []byte("01234567")
	c := New(8, 1024, 0)
	var calls int32
	c.Read(context.Background(), "gs://b/a", sigv(8), 8, 0, 8, constFetcher(content, &calls))
	c.Read(context.Background(), "gs://b/b", sigv(8), 8, 0, 8, constFetcher(content, &calls))
	c.Flush()
	if c.Len() != 0 {
		t.Errorf("Len = %d, want 0 after Flush", c.Len())
	}
}

func TestStalenessTreatsOldBlockAsMissing(t *testing.T) {
	content := []byte("01234567")
	now := time.Unix(1000, 0)
	c := NewWithClock(8, 1024, time.Second, func() time.Time { return now })
	var calls int32
	c.Read(context.Background(), "gs://b/o", sigv(8), 8, 0, 8, constFetcher(content, &calls))
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}

	now = now.Add(2 * time.Second)
	c.Read(context.Background(), "gs://b/o", sigv(8), 8, 0, 8, constFetcher(content, &calls))
	if calls != 2 {
		t.Errorf("calls = %d, want 2 (stale block refetched)", calls)
	}
}

func TestFetchErrorPropagatesAndIsNotCached(t *testing.T) {
	wantErr := errors.New("boom")
	c := New(8, 1024, 0)
	fetch := func(ctx context.Context, path string, blockOffset, blockSize int64) ([]byte, error) {
		return nil, wantErr
	}
	_, err := c.Read(context.Background(), "gs://b/o", sigv(8), 8, 0, 8, fetch)
	if !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want %v", err, wantErr)
	}
	if c.Len() != 0 {
		t.Errorf("Len = %d, want 0 (errored block not retained)", c.Len())
	}
}
