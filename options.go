package gcsfs

import (
	"time"

	"github.com/Spider8801/gcsfs/internal/gcsrequest"
)

// RetryConfig governs the exponential backoff used by every non-upload
// HTTP call (spec section 4.4) and the resumable upload state machine's
// retry rounds (spec section 4.6).
type RetryConfig struct {
	// InitDelay is the base delay before the first retry; subsequent
	// retries double it, up to MaxRetries attempts.
	InitDelay time.Duration
	// MaxRetries bounds the number of attempts. Zero means "use the
	// default of 10", matching the upstream system this package is
	// modeled on.
	MaxRetries int
}

// defaultRetryConfig is applied when a caller passes a zero-value
// RetryConfig to NewFileSystem.
func defaultRetryConfig() RetryConfig {
	return RetryConfig{InitDelay: 200 * time.Millisecond, MaxRetries: 10}
}

func (r RetryConfig) maxRetries() int {
	if r.MaxRetries <= 0 {
		return 10
	}
	return r.MaxRetries
}

// TimeoutConfig carries the distinct timeout values the HTTP request
// helper attaches to every outbound call.
type TimeoutConfig struct {
	Connect  time.Duration
	Idle     time.Duration
	Metadata time.Duration
	Read     time.Duration
	Write    time.Duration
}

func defaultTimeoutConfig() TimeoutConfig {
	return TimeoutConfig{
		Connect:  20 * time.Second,
		Idle:     60 * time.Second,
		Metadata: 10 * time.Second,
		Read:     60 * time.Second,
		Write:    60 * time.Second,
	}
}

// Header is an optional additional (name, value) pair attached to every
// outbound HTTP call, e.g. for a custom routing or billing header.
type Header struct {
	Name  string
	Value string
}

// Options enumerates every construction-time knob of a FileSystem.
// Environment-variable parsing is deliberately not this package's job
// (spec section 1); callers resolve env-driven defaults themselves
// before building Options (see internal/config for a YAML-driven
// alternative).
type Options struct {
	// BlockSize is the read granularity and block-cache alignment unit.
	// Zero disables the block cache entirely; reads then issue direct
	// ranged GETs per call.
	BlockSize int64
	// MaxBytes bounds the block cache's total resident bytes.
	MaxBytes int64
	// MaxStaleness bounds how long a cached block may be served before
	// being treated as missing. Zero means no TTL: blocks persist until
	// capacity eviction or explicit invalidation.
	MaxStaleness time.Duration

	StatCacheMaxAge     time.Duration
	StatCacheMaxEntries int

	MatchingPathsCacheMaxAge     time.Duration
	MatchingPathsCacheMaxEntries int

	Retry   RetryConfig
	Timeout TimeoutConfig

	// AllowedLocations constrains which bucket locations this FileSystem
	// will operate against. Empty means unconstrained. The single
	// element "auto" means "must match the zone provider's detected
	// region". Any other set is compared verbatim, case-insensitively.
	AllowedLocations map[string]struct{}

	// AdditionalHeader is attached to every outbound HTTP call, if set.
	AdditionalHeader *Header

	// StatsTap, if non-nil, is invoked on block load requests, block
	// retrievals, and stat requests. See internal/statstap for a
	// Prometheus-backed implementation.
	StatsTap StatsTap

	// RangeFetcher, if non-nil, serves every ranged byte fetch (direct
	// reads and block-cache misses alike) instead of the JSON API's
	// ranged GET. The JSON API over the configured Factory remains the
	// control-plane transport for every other operation; this is purely
	// a bulk-transfer accelerator (see internal/gcsrequest.GRPCBlockFetcher).
	RangeFetcher gcsrequest.RangeFetcher
}

func (o Options) withDefaults() Options {
	if o.Retry == (RetryConfig{}) {
		o.Retry = defaultRetryConfig()
	}
	if o.Timeout == (TimeoutConfig{}) {
		o.Timeout = defaultTimeoutConfig()
	}
	if o.StatsTap == nil {
		o.StatsTap = noopStatsTap{}
	}
	return o
}

// blockCacheEnabled reports whether reads should be served through the
// block cache rather than as direct ranged GETs.
func (o Options) blockCacheEnabled() bool {
	return o.BlockSize > 0
}
