package config

import (
	"strings"

	"github.com/Spider8801/gcsfs"
)

// ToOptions converts a parsed FileSystemConfig into a gcsfs.Options,
// the shape gcsfs.NewFileSystem expects.
func (c *FileSystemConfig) ToOptions() gcsfs.Options {
	opts := gcsfs.Options{
		BlockSize:                    c.BlockCache.BlockSize,
		MaxBytes:                     c.BlockCache.MaxBytes,
		MaxStaleness:                 Seconds(c.BlockCache.MaxStalenessSeconds),
		StatCacheMaxAge:              Seconds(c.StatCache.MaxAgeSeconds),
		StatCacheMaxEntries:          c.StatCache.MaxEntries,
		MatchingPathsCacheMaxAge:     Seconds(c.MatchingPaths.MaxAgeSeconds),
		MatchingPathsCacheMaxEntries: c.MatchingPaths.MaxEntries,
		Retry: gcsfs.RetryConfig{
			InitDelay:  Micros(c.Retry.InitDelayMicros),
			MaxRetries: c.Retry.MaxRetries,
		},
		Timeout: gcsfs.TimeoutConfig{
			Connect:  Seconds(c.Timeout.ConnectSeconds),
			Idle:     Seconds(c.Timeout.IdleSeconds),
			Metadata: Seconds(c.Timeout.MetadataSeconds),
			Read:     Seconds(c.Timeout.ReadSeconds),
			Write:    Seconds(c.Timeout.WriteSeconds),
		},
	}

	if len(c.AllowedLocations) > 0 {
		opts.AllowedLocations = make(map[string]struct{}, len(c.AllowedLocations))
		for _, loc := range c.AllowedLocations {
			opts.AllowedLocations[strings.ToLower(loc)] = struct{}{}
		}
	}

	if c.AdditionalHeader != nil {
		opts.AdditionalHeader = &gcsfs.Header{
			Name:  c.AdditionalHeader.Name,
			Value: c.AdditionalHeader.Value,
		}
	}

	return opts
}
