// Package engine coordinates number checks across platform checkers, merging
// cache hits with freshly fetched results under a bounded concurrency gate.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/numlens/numlens/internal/core"
	"github.com/numlens/numlens/internal/core/cache"
	"github.com/numlens/numlens/internal/core/confidence"
)

// DefaultMaxConcurrent bounds simultaneous in-flight probe calls per request.
const DefaultMaxConcurrent = 4

// Checker is the probe-adapter contract. Implementations must not return an
// error for expected failure modes (network error, timeout, unexpected
// response); those are encoded as Error/Timeout-status results instead.
type Checker interface {
	Check(ctx context.Context, phone, countryCode string) (*core.CheckResult, error)
	Platform() string
	Close() error
}

// Options configures an Orchestrator.
type Options struct {
	Cache         *cache.Store // nil disables caching
	Scorer        *confidence.Scorer
	MaxConcurrent int
	Clock         func() time.Time
}

// Orchestrator runs number checks: it consults the cache, fans missing
// platforms out to checkers, merges results, writes back fresh outcomes and
// keeps running usage statistics. One instance is safe for concurrent use.
type Orchestrator struct {
	checkers      map[string]Checker
	order         []string
	cache         *cache.Store
	scorer        *confidence.Scorer
	maxConcurrent int
	clock         func() time.Time

	statsMu          sync.Mutex
	totalChecks      uint64
	successfulChecks uint64
	failedChecks     uint64
	cacheHits        uint64
	cacheMisses      uint64

	closeOnce sync.Once
}

// New builds an orchestrator over the given checkers. Dispatch order follows
// the slice order.
func New(checkers []Checker, opts Options) *Orchestrator {
	byPlatform := make(map[string]Checker, len(checkers))
	order := make([]string, 0, len(checkers))
	for _, c := range checkers {
		byPlatform[c.Platform()] = c
		order = append(order, c.Platform())
	}

	scorer := opts.Scorer
	if scorer == nil {
		scorer = confidence.NewScorer()
	}

	maxConcurrent := opts.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrent
	}

	clock := opts.Clock
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}

	return &Orchestrator{
		checkers:      byPlatform,
		order:         order,
		cache:         opts.Cache,
		scorer:        scorer,
		maxConcurrent: maxConcurrent,
		clock:         clock,
	}
}

// Platforms returns the available platforms in dispatch order.
func (o *Orchestrator) Platforms() []string {
	platforms := make([]string, len(o.order))
	copy(platforms, o.order)
	return platforms
}

// CacheEnabled reports whether a cache store is attached.
func (o *Orchestrator) CacheEnabled() bool {
	return o.cache != nil
}

// CheckNumber checks one number on the requested platforms (all available
// ones when empty). Invalid input fails fast with no side effects; one
// platform's failure never blocks or discards another platform's result.
func (o *Orchestrator) CheckNumber(ctx context.Context, phone, countryCode string, platforms []string, forceRefresh bool) (*core.CheckResponse, error) {
	start := time.Now()

	if !core.ValidatePhoneNumber(phone, countryCode) {
		return nil, fmt.Errorf("%w: +%s%s", core.ErrInvalidNumber, countryCode, phone)
	}
	cleaned := core.CleanPhoneNumber(phone)

	if len(platforms) == 0 {
		platforms = o.Platforms()
	}

	request := core.CheckRequest{
		Phone:         cleaned,
		CountryCode:   countryCode,
		Platforms:     platforms,
		ForceRefresh:  forceRefresh,
		MaxConcurrent: o.maxConcurrent,
	}

	cached, toFetch := o.consultCache(request)

	if len(toFetch) == 0 && len(cached) > 0 {
		response := core.NewCheckResponse(request, cached, elapsedMillis(start))
		o.recordCheckStats(response, true)
		return response, nil
	}

	fresh := o.dispatch(ctx, cleaned, countryCode, toFetch)

	results := append(cached, fresh...)

	// Only freshly fetched results are written back; re-persisting cache
	// hits would refresh their timestamps for no new information.
	if o.cache != nil && len(fresh) > 0 {
		byPlatform := make(map[string]*core.CheckResult, len(fresh))
		for _, result := range fresh {
			byPlatform[result.Platform] = result
		}
		// A persistence failure rolls back store memory internally; the
		// fresh results still go back to the caller.
		_ = o.cache.Set(cleaned, countryCode, byPlatform)
	}

	response := core.NewCheckResponse(request, results, elapsedMillis(start))
	o.recordCheckStats(response, len(cached) > 0)
	return response, nil
}

// consultCache splits the requested platforms into cached results and a
// remaining to-fetch set. Skipped entirely on force refresh.
func (o *Orchestrator) consultCache(request core.CheckRequest) ([]*core.CheckResult, []string) {
	if o.cache == nil || request.ForceRefresh {
		return nil, request.Platforms
	}

	entry, ok := o.cache.Get(request.Phone, request.CountryCode)
	if !ok {
		return nil, request.Platforms
	}

	cached := make([]*core.CheckResult, 0, len(request.Platforms))
	toFetch := make([]string, 0, len(request.Platforms))
	for _, platform := range request.Platforms {
		stored, found := entry.Results[platform]
		if !found {
			toFetch = append(toFetch, platform)
			continue
		}

		result := stored.Clone()
		result.Metadata[core.MetaCached] = true
		result.Metadata[core.MetaFreshness] = entry.Freshness
		cachedAt := entry.Timestamp
		result.ConfidenceScore = o.scorer.Score(platform, result.StatusCode(), result.ResponseTime/1000, &cachedAt)
		cached = append(cached, result)
	}

	return cached, toFetch
}

// dispatch probes the given platforms concurrently under the admission gate.
// Each call is isolated: a checker error becomes an Error-status result for
// that platform only. The response always carries one result per requested
// platform.
func (o *Orchestrator) dispatch(ctx context.Context, phone, countryCode string, platforms []string) []*core.CheckResult {
	if len(platforms) == 0 {
		return nil
	}

	results := make([]*core.CheckResult, len(platforms))
	gate := make(chan struct{}, o.maxConcurrent)
	var wg sync.WaitGroup

	for i, platform := range platforms {
		wg.Add(1)
		go func(slot int, platform string) {
			defer wg.Done()
			gate <- struct{}{}
			defer func() { <-gate }()

			results[slot] = o.runChecker(ctx, platform, phone, countryCode)
		}(i, platform)
	}
	wg.Wait()

	return results
}

func (o *Orchestrator) runChecker(ctx context.Context, platform, phone, countryCode string) *core.CheckResult {
	checker, ok := o.checkers[platform]
	if !ok {
		result := core.NewCheckResult(platform, core.StatusError)
		result.Error = "checker not available: " + platform
		return result
	}

	started := time.Now()
	result, err := checker.Check(ctx, phone, countryCode)
	if err != nil || result == nil {
		result = core.NewCheckResult(platform, core.StatusError)
		result.ResponseTime = elapsedMillis(started)
		if err != nil {
			result.Error = err.Error()
		} else {
			result.Error = "checker returned no result"
		}
	}
	result.Normalize()

	seconds := result.ResponseTime / 1000
	result.ConfidenceScore = o.scorer.Score(platform, result.StatusCode(), seconds, nil)
	o.scorer.RecordOutcome(platform, result.IsSuccessful(), seconds)

	return result
}

// Outcome carries one request's response or error from CheckNumbers.
type Outcome struct {
	Response *core.CheckResponse
	Err      error
}

// NumberRef identifies one number to check.
type NumberRef struct {
	Phone       string `json:"phone"`
	CountryCode string `json:"country_code"`
}

// CheckNumbers runs the single-number flow concurrently for each input. Each
// outcome lands at the index of its input; one request's failure never
// cancels the others.
func (o *Orchestrator) CheckNumbers(ctx context.Context, numbers []NumberRef, platforms []string, forceRefresh bool) []Outcome {
	outcomes := make([]Outcome, len(numbers))
	var wg sync.WaitGroup

	for i, number := range numbers {
		wg.Add(1)
		go func(slot int, number NumberRef) {
			defer wg.Done()
			response, err := o.CheckNumber(ctx, number.Phone, number.CountryCode, platforms, forceRefresh)
			outcomes[slot] = Outcome{Response: response, Err: err}
		}(i, number)
	}
	wg.Wait()

	return outcomes
}

// InvalidateCache drops the cached entry for one number.
func (o *Orchestrator) InvalidateCache(phone, countryCode string) {
	if o.cache == nil {
		return
	}
	o.cache.Invalidate(core.CleanPhoneNumber(phone), countryCode)
}

// ClearCache removes every cached entry.
func (o *Orchestrator) ClearCache() error {
	if o.cache == nil {
		return nil
	}
	return o.cache.ClearAll()
}

// CacheStats returns the underlying cache counters. The second return is
// false when caching is disabled.
func (o *Orchestrator) CacheStats() (cache.Stats, bool) {
	if o.cache == nil {
		return cache.Stats{}, false
	}
	return o.cache.Stats(), true
}

// Stats is a snapshot of orchestrator usage counters.
type Stats struct {
	TotalChecks        uint64   `json:"total_checks"`
	SuccessfulChecks   uint64   `json:"successful_checks"`
	FailedChecks       uint64   `json:"failed_checks"`
	CacheHits          uint64   `json:"cache_hits"`
	CacheMisses        uint64   `json:"cache_misses"`
	CacheHitRate       float64  `json:"cache_hit_rate"`
	SuccessRate        float64  `json:"success_rate"`
	AvailablePlatforms []string `json:"available_platforms"`
	CacheEnabled       bool     `json:"cache_enabled"`
}

// Stats returns the running usage statistics.
func (o *Orchestrator) Stats() Stats {
	o.statsMu.Lock()
	defer o.statsMu.Unlock()

	stats := Stats{
		TotalChecks:        o.totalChecks,
		SuccessfulChecks:   o.successfulChecks,
		FailedChecks:       o.failedChecks,
		CacheHits:          o.cacheHits,
		CacheMisses:        o.cacheMisses,
		AvailablePlatforms: o.Platforms(),
		CacheEnabled:       o.cache != nil,
	}
	if total := o.cacheHits + o.cacheMisses; total > 0 {
		stats.CacheHitRate = float64(o.cacheHits) / float64(total)
	}
	if o.totalChecks > 0 {
		stats.SuccessRate = float64(o.successfulChecks) / float64(o.totalChecks)
	}
	return stats
}

func (o *Orchestrator) recordCheckStats(response *core.CheckResponse, cacheHit bool) {
	o.statsMu.Lock()
	defer o.statsMu.Unlock()

	o.totalChecks += uint64(len(response.Results))
	o.successfulChecks += uint64(response.SuccessfulChecks)
	o.failedChecks += uint64(response.FailedChecks)
	if o.cache != nil {
		if cacheHit {
			o.cacheHits++
		} else {
			o.cacheMisses++
		}
	}
}

// Health statuses reported by HealthCheck.
const (
	HealthHealthy   = "healthy"
	HealthDegraded  = "degraded"
	HealthUnhealthy = "unhealthy"
)

// ComponentHealth describes the state of one component.
type ComponentHealth struct {
	Status       string  `json:"status"`
	Error        string  `json:"error,omitempty"`
	ResponseTime float64 `json:"response_time,omitempty"`
}

// Health aggregates per-component health. Any non-healthy component
// downgrades the overall status to degraded; it never aborts the check.
type Health struct {
	Status     string                     `json:"status"`
	Timestamp  time.Time                  `json:"timestamp"`
	Components map[string]ComponentHealth `json:"components"`
}

// healthProbeNumber is a reserved, known-invalid synthetic pair used to
// exercise each checker without touching a real account.
var healthProbeNumber = NumberRef{Phone: "00000000", CountryCode: "999"}

// HealthCheck probes every platform with the synthetic number and performs a
// cheap liveness read against the cache.
func (o *Orchestrator) HealthCheck(ctx context.Context) *Health {
	health := &Health{
		Status:     HealthHealthy,
		Timestamp:  o.clock(),
		Components: make(map[string]ComponentHealth, len(o.order)+1),
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, platform := range o.order {
		wg.Add(1)
		go func(platform string) {
			defer wg.Done()
			component := o.probePlatformHealth(ctx, platform)
			mu.Lock()
			health.Components[platform] = component
			if component.Status != HealthHealthy {
				health.Status = HealthDegraded
			}
			mu.Unlock()
		}(platform)
	}
	wg.Wait()

	if o.cache != nil {
		o.cache.Get(healthProbeNumber.Phone, healthProbeNumber.CountryCode)
		health.Components["cache"] = ComponentHealth{Status: HealthHealthy}
	}

	return health
}

func (o *Orchestrator) probePlatformHealth(ctx context.Context, platform string) ComponentHealth {
	checker, ok := o.checkers[platform]
	if !ok {
		return ComponentHealth{Status: HealthUnhealthy, Error: "checker not available"}
	}

	result, err := checker.Check(ctx, healthProbeNumber.Phone, healthProbeNumber.CountryCode)
	if err != nil {
		return ComponentHealth{Status: HealthUnhealthy, Error: err.Error()}
	}
	if result == nil {
		return ComponentHealth{Status: HealthUnhealthy, Error: "checker returned no result"}
	}
	if result.Error != "" {
		return ComponentHealth{Status: HealthDegraded, Error: result.Error, ResponseTime: result.ResponseTime}
	}
	return ComponentHealth{Status: HealthHealthy, ResponseTime: result.ResponseTime}
}

// Close releases every owned checker exactly once.
func (o *Orchestrator) Close() error {
	var firstErr error
	o.closeOnce.Do(func() {
		for _, platform := range o.order {
			if err := o.checkers[platform].Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	})
	return firstErr
}

func elapsedMillis(since time.Time) float64 {
	return float64(time.Since(since).Microseconds()) / 1000
}
