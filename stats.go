package gcsfs

import "github.com/Spider8801/gcsfs/internal/statstap"

// StatsTap is the optional observer capability described in spec section 2.
// See internal/statstap for the no-op default and a Prometheus-backed
// implementation suitable for production use.
type StatsTap = statstap.Tap

// noopStatsTap is installed by Options.withDefaults when a caller does
// not configure a StatsTap.
type noopStatsTap = statstap.NoOp
