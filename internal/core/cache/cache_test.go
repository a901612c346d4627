package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/numlens/numlens/internal/core"
)

func newTestStore(t *testing.T, expireAfter time.Duration, maxSizeMB int) *Store {
	t.Helper()
	store := New(t.TempDir(), expireAfter, maxSizeMB)
	require.NoError(t, store.Initialize())
	return store
}

func sampleResults(status core.Status) map[string]*core.CheckResult {
	result := core.NewCheckResult("whatsapp", status)
	result.Metadata[core.MetaStatusCode] = 200
	return map[string]*core.CheckResult{"whatsapp": result}
}

func TestStoreRoundTrip(t *testing.T) {
	store := newTestStore(t, time.Hour, 10)

	require.NoError(t, store.Set("612345678", "33", sampleResults(core.StatusExists)))

	entry, ok := store.Get("612345678", "33")
	require.True(t, ok)
	require.Equal(t, "612345678", entry.Phone)
	require.Equal(t, "33", entry.CountryCode)
	require.Greater(t, entry.Freshness, 0.0)
	require.LessOrEqual(t, entry.Freshness, 1.0)
	require.True(t, entry.Results["whatsapp"].Exists)
}

func TestStoreMissForUnknownNumber(t *testing.T) {
	store := newTestStore(t, time.Hour, 10)

	_, ok := store.Get("612345678", "33")
	require.False(t, ok)

	stats := store.Stats()
	require.Equal(t, uint64(1), stats.Misses)
	require.Equal(t, uint64(0), stats.Hits)
}

func TestStoreExpiry(t *testing.T) {
	store := newTestStore(t, time.Hour, 10)

	now := time.Now().UTC()
	store.SetClock(func() time.Time { return now })
	require.NoError(t, store.Set("612345678", "33", sampleResults(core.StatusExists)))

	store.SetClock(func() time.Time { return now.Add(30 * time.Minute) })
	entry, ok := store.Get("612345678", "33")
	require.True(t, ok)
	require.InDelta(t, 0.5, entry.Freshness, 0.01)

	store.SetClock(func() time.Time { return now.Add(2 * time.Hour) })
	_, ok = store.Get("612345678", "33")
	require.False(t, ok)

	// Expired entries are gone from disk too; a second lookup stays a miss.
	_, ok = store.Get("612345678", "33")
	require.False(t, ok)
	require.Equal(t, 0, store.Stats().Entries)
}

func TestStoreFreshnessDecay(t *testing.T) {
	store := newTestStore(t, time.Hour, 10)

	now := time.Now().UTC()
	store.SetClock(func() time.Time { return now })
	require.NoError(t, store.Set("612345678", "33", sampleResults(core.StatusExists)))

	var last float64 = 1.1
	for _, offset := range []time.Duration{0, 15 * time.Minute, 45 * time.Minute} {
		store.SetClock(func() time.Time { return now.Add(offset) })
		entry, ok := store.Get("612345678", "33")
		require.True(t, ok)
		require.Less(t, entry.Freshness, last)
		last = entry.Freshness
	}
}

func TestStoreInvalidateIsIdempotent(t *testing.T) {
	store := newTestStore(t, time.Hour, 10)

	require.NoError(t, store.Set("612345678", "33", sampleResults(core.StatusExists)))
	store.Invalidate("612345678", "33")
	store.Invalidate("612345678", "33")

	_, ok := store.Get("612345678", "33")
	require.False(t, ok)
}

func TestStoreClearAll(t *testing.T) {
	dir := t.TempDir()
	store := New(dir, time.Hour, 10)
	require.NoError(t, store.Initialize())

	for i := 0; i < 5; i++ {
		require.NoError(t, store.Set(fmt.Sprintf("61234567%d", i), "33", sampleResults(core.StatusExists)))
	}
	require.NoError(t, store.ClearAll())

	require.Equal(t, 0, store.Stats().Entries)
	names, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, names)
}

func TestStorePersistsAcrossRestart(t *testing.T) {
	dir := t.TempDir()

	store := New(dir, time.Hour, 10)
	require.NoError(t, store.Initialize())
	require.NoError(t, store.Set("612345678", "33", sampleResults(core.StatusExists)))

	reopened := New(dir, time.Hour, 10)
	require.NoError(t, reopened.Initialize())

	entry, ok := reopened.Get("612345678", "33")
	require.True(t, ok)
	require.True(t, entry.Results["whatsapp"].Exists)
}

func TestInitializeRemovesCorruptEntries(t *testing.T) {
	dir := t.TempDir()

	store := New(dir, time.Hour, 10)
	require.NoError(t, store.Initialize())
	require.NoError(t, store.Set("612345678", "33", sampleResults(core.StatusExists)))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "33_000.json"), []byte("{not json"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "33_111.json"), []byte(`{"phone":"111"}`), 0o644))

	reopened := New(dir, time.Hour, 10)
	require.NoError(t, reopened.Initialize())

	stats := reopened.Stats()
	require.Equal(t, uint64(2), stats.CorruptEntries)
	require.Equal(t, 1, stats.Entries)

	_, err := os.Stat(filepath.Join(dir, "33_000.json"))
	require.True(t, os.IsNotExist(err))
}

func paddedResults(status core.Status, padding int) map[string]*core.CheckResult {
	result := core.NewCheckResult("whatsapp", status)
	result.Metadata[core.MetaStatusCode] = 200
	result.Metadata["padding"] = strings.Repeat("x", padding)
	return map[string]*core.CheckResult{"whatsapp": result}
}

// indexedSizeSum recomputes the store footprint from the per-record sizes.
func indexedSizeSum(store *Store) int64 {
	store.mu.Lock()
	defer store.mu.Unlock()
	var total int64
	for _, rec := range store.entries {
		total += rec.size
	}
	return total
}

func TestReplacementUnderPressureKeepsAccountingExact(t *testing.T) {
	store := newTestStore(t, time.Hour, 1)

	now := time.Now().UTC()
	store.SetClock(func() time.Time { return now })
	require.NoError(t, store.Set("612345670", "33", sampleResults(core.StatusExists)))
	store.SetClock(func() time.Time { return now.Add(time.Minute) })
	require.NoError(t, store.Set("612345671", "33", sampleResults(core.StatusExists)))

	// Leave just enough headroom that a larger replacement must evict.
	store.maxBytes = store.Stats().SizeBytes + 100

	store.SetClock(func() time.Time { return now.Add(2 * time.Minute) })
	require.NoError(t, store.Set("612345670", "33", paddedResults(core.StatusExists, 512)))

	stats := store.Stats()
	require.Equal(t, indexedSizeSum(store), stats.SizeBytes)
	require.Greater(t, stats.Evictions, uint64(0))

	// The replaced key survives with its new contents; the evicted one is gone.
	entry, ok := store.Get("612345670", "33")
	require.True(t, ok)
	require.Contains(t, entry.Results["whatsapp"].Metadata["padding"], "x")
	_, ok = store.Get("612345671", "33")
	require.False(t, ok)
}

func TestPersistFailureLeavesNoGhostEntry(t *testing.T) {
	dir := t.TempDir()
	store := New(dir, time.Hour, 10)
	require.NoError(t, store.Initialize())

	// A directory squatting on the target path makes the write fail.
	require.NoError(t, os.Mkdir(filepath.Join(dir, "33_612345678.json"), 0o755))

	err := store.Set("612345678", "33", sampleResults(core.StatusExists))
	require.Error(t, err)

	stats := store.Stats()
	require.Equal(t, uint64(1), stats.PersistFailures)
	require.Equal(t, 0, stats.Entries)
	require.Equal(t, int64(0), stats.SizeBytes)

	_, ok := store.Get("612345678", "33")
	require.False(t, ok)
}

func TestPersistFailureRestoresPreviousEntry(t *testing.T) {
	dir := t.TempDir()
	store := New(dir, time.Hour, 10)
	require.NoError(t, store.Initialize())

	require.NoError(t, store.Set("612345678", "33", sampleResults(core.StatusExists)))
	sizeBefore := store.Stats().SizeBytes

	path := filepath.Join(dir, "33_612345678.json")
	require.NoError(t, os.Remove(path))
	require.NoError(t, os.Mkdir(path, 0o755))

	err := store.Set("612345678", "33", sampleResults(core.StatusNotExists))
	require.Error(t, err)

	stats := store.Stats()
	require.Equal(t, uint64(1), stats.PersistFailures)
	require.Equal(t, 1, stats.Entries)
	require.Equal(t, sizeBefore, stats.SizeBytes)

	// The previous value is still served.
	entry, ok := store.Get("612345678", "33")
	require.True(t, ok)
	require.True(t, entry.Results["whatsapp"].Exists)
}

func TestEvictionDropsOldestFirst(t *testing.T) {
	dir := t.TempDir()
	store := New(dir, time.Hour, 1)
	require.NoError(t, store.Initialize())
	// Shrink the budget far below 1MB so a handful of entries trigger eviction.
	store.maxBytes = 4096

	now := time.Now().UTC()
	for i := 0; i < 8; i++ {
		offset := time.Duration(i) * time.Minute
		store.SetClock(func() time.Time { return now.Add(offset) })
		require.NoError(t, store.Set(fmt.Sprintf("61234567%d", i), "33", sampleResults(core.StatusExists)))
	}

	stats := store.Stats()
	require.Greater(t, stats.Evictions, uint64(0))
	require.LessOrEqual(t, stats.SizeBytes, store.maxBytes)

	// Oldest entry is gone, newest survives.
	_, oldest := store.Get("612345670", "33")
	require.False(t, oldest)
	_, newest := store.Get("612345677", "33")
	require.True(t, newest)
}
