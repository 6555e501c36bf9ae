package ttlcache

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // pure-Go sqlite driver
)

// Snapshot periodically serializes a string-valued cache to a SQLite file
// so that a restarted process can warm-start instead of re-issuing the
// calls (such as bucket-location lookups) that populated it. This is
// additive to the cache's own TTL/capacity eviction, never a substitute
// for it. A missing snapshot file leaves the cache cold and is not an
// error; a file that cannot be opened or read makes LoadSnapshot return
// an error.
type Snapshot struct {
	cache    *Cache[string]
	path     string
	table    string
	interval time.Duration
	stop     chan struct{}
	done     chan struct{}
}

// LoadSnapshot populates cache from the SQLite file at path, if it exists.
// insertedAt timestamps are restored so TTL expiry applies as if the
// entries had never left memory. table names the snapshot table, letting
// several string-valued caches share one file.
func LoadSnapshot(cache *Cache[string], path, table string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("ttlcache: opening snapshot database: %w", err)
	}
	defer db.Close()

	var tableCount int
	err = db.QueryRow(
		`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name = ?`, table,
	).Scan(&tableCount)
	if err != nil {
		return fmt.Errorf("ttlcache: checking snapshot table: %w", err)
	}
	if tableCount == 0 {
		return nil
	}

	rows, err := db.Query(fmt.Sprintf("SELECT key, value, inserted_at_unix_nano FROM %s", table))
	if err != nil {
		return fmt.Errorf("ttlcache: querying snapshot rows: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key, value string
		var insertedAtNano int64
		if err := rows.Scan(&key, &value, &insertedAtNano); err != nil {
			return fmt.Errorf("ttlcache: scanning snapshot row: %w", err)
		}
		cache.insertAt(key, value, time.Unix(0, insertedAtNano))
	}
	return rows.Err()
}

// insertAt is Insert with an explicit insertion timestamp, used only by
// snapshot restore so that TTL expiry is computed from the original
// insertion time, not from the moment the process restarted.
func (c *Cache[V]) insertAt(key string, value V, insertedAt time.Time) {
	if c.disabled() {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.entries[key]; ok {
		c.removeLocked(existing)
	}
	e := &entry[V]{key: key, value: value, insertedAt: insertedAt}
	e.elem = c.order.PushBack(e)
	c.entries[key] = e

	for len(c.entries) > c.maxEntries {
		oldest := c.order.Front()
		if oldest == nil {
			break
		}
		c.removeLocked(oldest.Value.(*entry[V]))
	}
}

// StartSnapshotting writes cache to path in table every interval until
// Stop is called. The first write happens after the first tick, not
// immediately, mirroring the teacher's snapshotLoop.
func StartSnapshotting(cache *Cache[string], path, table string, interval time.Duration) *Snapshot {
	s := &Snapshot{
		cache:    cache,
		path:     path,
		table:    table,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go s.loop()
	return s
}

func (s *Snapshot) loop() {
	defer close(s.done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			if err := s.write(); err != nil {
				slog.Error("ttlcache: snapshot write failed", "path", s.path, "error", err)
			}
		}
	}
}

// Stop halts periodic snapshotting and writes one final snapshot.
func (s *Snapshot) Stop() error {
	close(s.stop)
	<-s.done
	return s.write()
}

func (s *Snapshot) write() error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("ttlcache: creating snapshot directory: %w", err)
		}
	}

	tmpPath := s.path + ".tmp"
	db, err := sql.Open("sqlite", tmpPath)
	if err != nil {
		return fmt.Errorf("ttlcache: opening snapshot database: %w", err)
	}

	_, err = db.Exec(fmt.Sprintf(
		`CREATE TABLE IF NOT EXISTS %s (key TEXT PRIMARY KEY, value TEXT NOT NULL, inserted_at_unix_nano INTEGER NOT NULL)`,
		s.table,
	))
	if err != nil {
		db.Close()
		return fmt.Errorf("ttlcache: creating snapshot table: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		db.Close()
		return fmt.Errorf("ttlcache: starting snapshot transaction: %w", err)
	}

	if _, err := tx.Exec(fmt.Sprintf("DELETE FROM %s", s.table)); err != nil {
		tx.Rollback()
		db.Close()
		return fmt.Errorf("ttlcache: clearing snapshot table: %w", err)
	}

	stmt, err := tx.Prepare(fmt.Sprintf(
		"INSERT INTO %s (key, value, inserted_at_unix_nano) VALUES (?, ?, ?)", s.table,
	))
	if err != nil {
		tx.Rollback()
		db.Close()
		return fmt.Errorf("ttlcache: preparing snapshot insert: %w", err)
	}

	var writeErr error
	s.cache.Each(func(key, value string, insertedAt time.Time) {
		if writeErr != nil {
			return
		}
		_, writeErr = stmt.Exec(key, value, insertedAt.UnixNano())
	})
	stmt.Close()
	if writeErr != nil {
		tx.Rollback()
		db.Close()
		return fmt.Errorf("ttlcache: writing snapshot row: %w", writeErr)
	}

	if err := tx.Commit(); err != nil {
		db.Close()
		return fmt.Errorf("ttlcache: committing snapshot: %w", err)
	}
	if err := db.Close(); err != nil {
		return fmt.Errorf("ttlcache: closing snapshot database: %w", err)
	}

	return os.Rename(tmpPath, s.path)
}
