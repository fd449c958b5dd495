// Package cache persists extracted metrics across invocations so
// repeated reports over the same run skip log and artifact fetches.
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
)

// MetricKind names the cached metric namespaces.
type MetricKind string

const (
	KindSimulation MetricKind = "simulation"
	KindDevicePerf MetricKind = "device-perf"
)

// Key identifies one cached extraction result.
type Key struct {
	RunID int64
	JobID int64
	Kind  MetricKind
}

func (k Key) filename() string {
	return fmt.Sprintf("%d-%d-%s.json", k.RunID, k.JobID, k.Kind)
}

// entry is the on-disk envelope. Found=false caches the "metric absent"
// outcome so absent metrics also short-circuit refetching.
type entry struct {
	Found   bool            `json:"found"`
	Value   json.RawMessage `json:"value,omitempty"`
	SavedAt time.Time       `json:"saved_at"`
}

// Store is a file-backed metric cache. Values are deterministic
// functions of their key, so concurrent same-key writers race benignly
// and last-write-wins needs no locking.
type Store struct {
	dir     string
	ttl     time.Duration
	enabled bool
}

// New returns a Store rooted at dir. Entries older than ttl are treated
// as misses; ttl<=0 disables expiry. A disabled store ignores all reads
// and writes.
func New(dir string, ttl time.Duration, enabled bool) *Store {
	return &Store{dir: dir, ttl: ttl, enabled: enabled}
}

// Enabled reports whether the store performs any I/O.
func (s *Store) Enabled() bool { return s.enabled }

// Get unmarshals the cached value for key into out. The second return
// distinguishes "cached as absent" (found=false) from a cache miss
// (hit=false).
func (s *Store) Get(key Key, out any) (found, hit bool) {
	if !s.enabled {
		return false, false
	}
	data, err := os.ReadFile(filepath.Join(s.dir, key.filename()))
	if err != nil {
		return false, false
	}
	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		logrus.Debugf("cache: dropping unreadable entry %s: %v", key.filename(), err)
		return false, false
	}
	if s.ttl > 0 && time.Since(e.SavedAt) > s.ttl {
		return false, false
	}
	if !e.Found {
		return false, true
	}
	if out != nil {
		if err := json.Unmarshal(e.Value, out); err != nil {
			logrus.Debugf("cache: dropping undecodable entry %s: %v", key.filename(), err)
			return false, false
		}
	}
	return true, true
}

// Put caches value under key; a nil value records the "metric absent"
// sentinel.
func (s *Store) Put(key Key, value any) error {
	if !s.enabled {
		return nil
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating cache dir: %w", err)
	}
	e := entry{SavedAt: time.Now()}
	if value != nil {
		raw, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("encoding cache entry: %w", err)
		}
		e.Found = true
		e.Value = raw
	}
	data, err := json.Marshal(&e)
	if err != nil {
		return fmt.Errorf("encoding cache envelope: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, key.filename()), data, 0o644); err != nil {
		return fmt.Errorf("writing cache entry: %w", err)
	}
	return nil
}
