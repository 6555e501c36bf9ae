// Package statstap defines the optional observer capability invoked by
// the filesystem facade on block load requests, block retrievals, and
// stat requests (spec section 2), plus a no-op and a Prometheus-backed
// implementation.
package statstap

// Tap is the capability set a caller can implement to observe gcsfs
// internals. It must not outlive the FileSystem it was configured
// against; that lifetime rule is documented, not enforced, matching the
// "stats tap receives raw handles" design note in spec.md section 9.
type Tap interface {
	// GotBlockRequest is called before each fetch over the network: a
	// block-cache miss, or a direct ranged read when the block cache is
	// disabled. Block-cache hits do not call it.
	GotBlockRequest(path string, blockOffset int64)
	// GotBlockRetrieved is called when such a fetch completes
	// successfully, with the number of bytes it returned. Block-cache
	// hits do not call it.
	GotBlockRetrieved(path string, blockOffset int64, bytesRetrieved int64)
	// GotStatRequest is called on every stat resolution attempt,
	// recording whether it was satisfied from the stat cache.
	GotStatRequest(path string, cacheHit bool)
}

// NoOp implements Tap by doing nothing. It is the default when a
// FileSystem is constructed without a StatsTap.
type NoOp struct{}

func (NoOp) GotBlockRequest(path string, blockOffset int64)                      {}
func (NoOp) GotBlockRetrieved(path string, blockOffset int64, bytesRetrieved int64) {}
func (NoOp) GotStatRequest(path string, cacheHit bool)                           {}
