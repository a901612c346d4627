// Package cache implements the persistent result cache. Each (country, phone)
// key maps to one JSON file on disk mirrored by an in-memory index. Entries
// carry a freshness score that decays linearly from 1.0 at write time to 0.0
// at the configured TTL; the same score drives expiry, so there is no second
// notion of "expired" to drift from it.
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/numlens/numlens/internal/core"
)

// evictionTarget is the fill ratio eviction drives the store down to.
const evictionTarget = 0.8

// Entry is the persisted record for one number: a write timestamp plus one
// result per probed platform. Both fields must be present for the record to
// be considered structurally valid.
type Entry struct {
	Timestamp   time.Time                    `json:"timestamp"`
	Phone       string                       `json:"phone"`
	CountryCode string                       `json:"country_code"`
	Results     map[string]*core.CheckResult `json:"results"`

	// Freshness is attached on read and never persisted.
	Freshness float64 `json:"-"`
}

func (e *Entry) valid() bool {
	return e != nil && !e.Timestamp.IsZero() && e.Results != nil
}

// Stats is a snapshot of cache counters.
type Stats struct {
	Hits            uint64  `json:"hits"`
	Misses          uint64  `json:"misses"`
	HitRate         float64 `json:"hit_rate"`
	Entries         int     `json:"entries_count"`
	SizeBytes       int64   `json:"size_bytes"`
	MaxSizeBytes    int64   `json:"max_size_bytes"`
	Evictions       uint64  `json:"evictions"`
	CorruptEntries  uint64  `json:"corrupt_entries"`
	PersistFailures uint64  `json:"persist_failures"`
}

type record struct {
	entry *Entry
	size  int64
}

// Store is a durable, size- and time-bounded cache of per-number platform
// results. A single mutex serializes Get, Set, Invalidate and ClearAll: Get
// may evict on read, so it counts as a write for concurrency purposes.
type Store struct {
	dir         string
	expireAfter time.Duration
	maxBytes    int64

	mu        sync.Mutex
	entries   map[string]*record
	sizeBytes int64

	hits            uint64
	misses          uint64
	evictions       uint64
	corrupt         uint64
	persistFailures uint64

	clock func() time.Time
}

// New builds a store rooted at dir. Entries older than expireAfter are
// treated as absent; the on-disk footprint is bounded by maxSizeMB.
func New(dir string, expireAfter time.Duration, maxSizeMB int) *Store {
	return &Store{
		dir:         dir,
		expireAfter: expireAfter,
		maxBytes:    int64(maxSizeMB) * 1024 * 1024,
		entries:     make(map[string]*record),
		clock:       func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides the time source. Intended for tests.
func (s *Store) SetClock(clock func() time.Time) {
	s.clock = clock
}

// Initialize creates the backing directory if needed, loads every persisted
// entry, removes structurally invalid or expired ones, and rebuilds the size
// accounting. A single corrupt entry never aborts initialization; it is
// removed and counted instead.
func (s *Store) Initialize() error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}

	names, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("scan cache directory: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, dirEntry := range names {
		if dirEntry.IsDir() || !strings.HasSuffix(dirEntry.Name(), ".json") {
			continue
		}
		path := filepath.Join(s.dir, dirEntry.Name())

		data, err := os.ReadFile(path)
		if err != nil {
			s.corrupt++
			_ = os.Remove(path)
			continue
		}

		var entry Entry
		if err := json.Unmarshal(data, &entry); err != nil || !entry.valid() {
			s.corrupt++
			_ = os.Remove(path)
			continue
		}

		if s.freshness(entry.Timestamp) <= 0 {
			_ = os.Remove(path)
			continue
		}

		for _, result := range entry.Results {
			result.Normalize()
		}

		key := strings.TrimSuffix(dirEntry.Name(), ".json")
		s.entries[key] = &record{entry: &entry, size: int64(len(data))}
		s.sizeBytes += int64(len(data))
	}

	return nil
}

// Get looks up the entry for a number. Expired entries are removed from
// memory and disk and reported as a miss; live entries come back with the
// freshness score attached.
func (s *Store) Get(phone, countryCode string) (*Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := cacheKey(phone, countryCode)
	rec, ok := s.entries[key]
	if !ok {
		s.misses++
		return nil, false
	}

	freshness := s.freshness(rec.entry.Timestamp)
	if freshness <= 0 {
		s.removeLocked(key)
		s.misses++
		return nil, false
	}

	s.hits++
	entry := *rec.entry
	entry.Freshness = freshness
	return &entry, true
}

// Set stores the results for a number under the current timestamp. If the
// insertion would push the store past its byte budget, the oldest entries by
// write time are evicted first. When persisting to disk fails, the in-memory
// insertion is rolled back so memory never claims an entry disk does not hold.
func (s *Store) Set(phone, countryCode string, results map[string]*core.CheckResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := cacheKey(phone, countryCode)
	entry := &Entry{
		Timestamp:   s.clock(),
		Phone:       phone,
		CountryCode: countryCode,
		Results:     results,
	}

	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}
	size := int64(len(data))

	// Detach any old record from the index before eviction runs, so the key
	// being replaced can never be picked as its own eviction victim. Its disk
	// file is left in place until the new write succeeds.
	var prev *record
	if existing, ok := s.entries[key]; ok {
		prev = existing
		delete(s.entries, key)
		s.sizeBytes -= existing.size
	}

	if s.maxBytes > 0 && s.sizeBytes+size > s.maxBytes {
		s.evictLocked(s.sizeBytes + size)
	}

	s.entries[key] = &record{entry: entry, size: size}
	s.sizeBytes += size

	if err := os.WriteFile(s.filePath(key), data, 0o644); err != nil {
		delete(s.entries, key)
		s.sizeBytes -= size
		if prev != nil {
			s.entries[key] = prev
			s.sizeBytes += prev.size
		}
		s.persistFailures++
		return fmt.Errorf("persist cache entry: %w", err)
	}

	return nil
}

// Invalidate removes one entry from memory and disk. It is a no-op when the
// entry is absent.
func (s *Store) Invalidate(phone, countryCode string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(cacheKey(phone, countryCode))
}

// ClearAll removes every persisted entry and resets the index and size
// accounting.
func (s *Store) ClearAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var firstErr error
	for key := range s.entries {
		if err := os.Remove(s.filePath(key)); err != nil && !os.IsNotExist(err) && firstErr == nil {
			firstErr = err
		}
	}

	s.entries = make(map[string]*record)
	s.sizeBytes = 0
	return firstErr
}

// Stats returns a snapshot of the cache counters.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := Stats{
		Hits:            s.hits,
		Misses:          s.misses,
		Entries:         len(s.entries),
		SizeBytes:       s.sizeBytes,
		MaxSizeBytes:    s.maxBytes,
		Evictions:       s.evictions,
		CorruptEntries:  s.corrupt,
		PersistFailures: s.persistFailures,
	}
	if total := s.hits + s.misses; total > 0 {
		stats.HitRate = float64(s.hits) / float64(total)
	}
	return stats
}

// freshness decays linearly from 1.0 at write time to 0.0 at expireAfter.
func (s *Store) freshness(writtenAt time.Time) float64 {
	age := s.clock().Sub(writtenAt).Seconds()
	score := 1.0 - age/s.expireAfter.Seconds()
	if score < 0 {
		return 0
	}
	return score
}

// evictLocked removes oldest-by-write-time entries until the projected size
// fits within 80% of the budget or the store is empty. Reading an entry does
// not protect it: entries that age out are approaching freshness expiry
// regardless of access pattern, and write-time ordering needs no per-read
// bookkeeping.
func (s *Store) evictLocked(projected int64) {
	keys := make([]string, 0, len(s.entries))
	for key := range s.entries {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		return s.entries[keys[i]].entry.Timestamp.Before(s.entries[keys[j]].entry.Timestamp)
	})

	target := int64(float64(s.maxBytes) * evictionTarget)
	overhead := projected - s.sizeBytes
	for _, key := range keys {
		if s.sizeBytes+overhead <= target {
			break
		}
		s.removeLocked(key)
		s.evictions++
	}
}

func (s *Store) removeLocked(key string) {
	rec, ok := s.entries[key]
	if !ok {
		return
	}
	delete(s.entries, key)
	s.sizeBytes -= rec.size
	_ = os.Remove(s.filePath(key))
}

func (s *Store) filePath(key string) string {
	return filepath.Join(s.dir, key+".json")
}

func cacheKey(phone, countryCode string) string {
	return countryCode + "_" + phone
}
