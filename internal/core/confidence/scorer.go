// Package confidence blends platform reliability, API response quality and
// cache staleness into a single trust score per probe outcome.
package confidence

import (
	"math"
	"sync"
	"time"
)

// Fixed policy constants. The blend weights are not tunable per call so that
// scores stay comparable across platforms and over time.
const (
	weightPlatform = 0.4
	weightAPI      = 0.3
	weightCacheAge = 0.3

	weightStatusCode   = 0.7
	weightResponseTime = 0.3

	// smoothing is the EMA factor for the success rate. Deliberately
	// slow-moving so a single failure does not swing trust.
	smoothing = 0.01

	// timeoutPenalty multiplies the platform score once per accumulated
	// timeout.
	timeoutPenalty = 0.9

	// slowThreshold marks a response as a timeout for reliability tracking.
	slowThreshold = 5.0 // seconds

	// cacheMaxAge is the horizon over which cached data decays to zero trust.
	cacheMaxAge = 24 * time.Hour
)

// Reliability is the per-platform mutable reliability state. It lives in
// memory for the process lifetime only.
type Reliability struct {
	BaseScore   float64    `json:"base_score"`
	SuccessRate float64    `json:"success_rate"`
	APITimeouts int        `json:"api_timeouts"`
	LastFailure *time.Time `json:"last_failure,omitempty"`
}

func defaultReliability() *Reliability {
	return &Reliability{BaseScore: 0.8, SuccessRate: 1.0}
}

// Scorer computes confidence scores and maintains per-platform reliability.
// All methods are safe for concurrent use.
type Scorer struct {
	mu        sync.Mutex
	platforms map[string]*Reliability
	clock     func() time.Time
}

// NewScorer seeds the scorer with historical priors for the known platforms.
func NewScorer() *Scorer {
	return &Scorer{
		platforms: map[string]*Reliability{
			"whatsapp":  {BaseScore: 0.9, SuccessRate: 1.0},
			"telegram":  {BaseScore: 0.85, SuccessRate: 1.0},
			"instagram": {BaseScore: 0.75, SuccessRate: 1.0},
			"snapchat":  {BaseScore: 0.7, SuccessRate: 1.0},
		},
		clock: func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides the time source. Intended for tests.
func (s *Scorer) SetClock(clock func() time.Time) {
	s.clock = clock
}

// Score computes the confidence score in [0,1] for one probe outcome.
// responseTime is in seconds; cachedAt is nil for fresh fetches. The result
// is rounded to two decimals.
func (s *Scorer) Score(platform string, statusCode int, responseTime float64, cachedAt *time.Time) float64 {
	s.mu.Lock()
	reliability, ok := s.platforms[platform]
	if !ok {
		reliability = defaultReliability()
	}
	platformScore := reliability.BaseScore * reliability.SuccessRate *
		math.Pow(timeoutPenalty, float64(reliability.APITimeouts))
	s.mu.Unlock()

	apiScore := apiResponseScore(statusCode, responseTime)

	cacheScore := 1.0
	if cachedAt != nil {
		cacheScore = s.cacheAgeScore(*cachedAt)
	}

	final := platformScore*weightPlatform + apiScore*weightAPI + cacheScore*weightCacheAge
	return math.Round(final*100) / 100
}

// RecordOutcome updates a platform's reliability after a probe attempt.
// Unknown platforms get a neutral default record rather than an error.
func (s *Scorer) RecordOutcome(platform string, success bool, responseTime float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reliability, ok := s.platforms[platform]
	if !ok {
		reliability = defaultReliability()
		s.platforms[platform] = reliability
	}

	observed := 0.0
	if success {
		observed = 1.0
	}
	reliability.SuccessRate = reliability.SuccessRate*(1-smoothing) + observed*smoothing

	if !success {
		now := s.clock()
		reliability.LastFailure = &now
		if responseTime > slowThreshold {
			reliability.APITimeouts++
		}
	}
}

// ReliabilityFor returns a copy of the reliability record for a platform.
func (s *Scorer) ReliabilityFor(platform string) Reliability {
	s.mu.Lock()
	defer s.mu.Unlock()

	reliability, ok := s.platforms[platform]
	if !ok {
		return *defaultReliability()
	}
	copied := *reliability
	if reliability.LastFailure != nil {
		failure := *reliability.LastFailure
		copied.LastFailure = &failure
	}
	return copied
}

// apiResponseScore grades the HTTP outcome: the status code dominates, with
// latency as a secondary signal that is perfect below 0.5s and decays to
// zero at 5s.
func apiResponseScore(statusCode int, responseTime float64) float64 {
	var statusScore float64
	switch {
	case statusCode == 200:
		statusScore = 1.0
	case statusCode == 201 || statusCode == 202 || statusCode == 203:
		statusScore = 0.9
	case statusCode == 429 || statusCode == 503:
		statusScore = 0.3
	default:
		statusScore = 0.5
	}

	timeScore := (5.0 - responseTime) / 4.5
	if timeScore > 1.0 {
		timeScore = 1.0
	}
	if timeScore < 0 {
		timeScore = 0
	}

	return statusScore*weightStatusCode + timeScore*weightResponseTime
}

// cacheAgeScore decays linearly from 1.0 at write time to 0.0 at 24 hours.
func (s *Scorer) cacheAgeScore(cachedAt time.Time) float64 {
	age := s.clock().Sub(cachedAt).Seconds()
	score := 1.0 - age/cacheMaxAge.Seconds()
	if score < 0 {
		return 0
	}
	return score
}
