package core

import "time"

// Status classifies the outcome of probing one platform for one number.
type Status string

const (
	StatusExists      Status = "exists"
	StatusNotExists   Status = "not_exists"
	StatusError       Status = "error"
	StatusTimeout     Status = "timeout"
	StatusRateLimited Status = "rate_limited"
	StatusUnknown     Status = "unknown"
)

// Metadata keys attached to results.
const (
	MetaCached     = "cached"
	MetaFreshness  = "freshness_score"
	MetaMethod     = "method"
	MetaStatusCode = "status_code"
	MetaCheckID    = "check_id"
)

// CheckResult reports the outcome of probing one platform for one number.
// The Exists flag is derived from Status and never set independently.
type CheckResult struct {
	Platform        string         `json:"platform"`
	Status          Status         `json:"status"`
	Exists          bool           `json:"exists"`
	Error           string         `json:"error,omitempty"`
	Username        string         `json:"username,omitempty"`
	LastSeen        *time.Time     `json:"last_seen,omitempty"`
	ConfidenceScore float64        `json:"confidence_score"`
	Metadata        map[string]any `json:"metadata,omitempty"`
	Timestamp       time.Time      `json:"timestamp"`
	ResponseTime    float64        `json:"response_time"` // milliseconds
}

// NewCheckResult builds a result with Exists derived from the status.
func NewCheckResult(platform string, status Status) *CheckResult {
	return &CheckResult{
		Platform:  platform,
		Status:    status,
		Exists:    status == StatusExists,
		Metadata:  make(map[string]any),
		Timestamp: time.Now().UTC(),
	}
}

// Normalize re-derives the Exists flag from the status. Call after
// deserializing a result from an external source.
func (r *CheckResult) Normalize() {
	r.Exists = r.Status == StatusExists
	if r.Metadata == nil {
		r.Metadata = make(map[string]any)
	}
}

// IsSuccessful reports whether the probe itself completed, regardless of
// whether the number was found.
func (r *CheckResult) IsSuccessful() bool {
	return r.Status == StatusExists || r.Status == StatusNotExists
}

// IsCached reports whether the result was served from the cache.
func (r *CheckResult) IsCached() bool {
	if r.Metadata == nil {
		return false
	}
	cached, ok := r.Metadata[MetaCached].(bool)
	return ok && cached
}

// StatusCode returns the HTTP status code recorded for the probe, if any.
func (r *CheckResult) StatusCode() int {
	if r.Metadata == nil {
		return 0
	}
	switch v := r.Metadata[MetaStatusCode].(type) {
	case int:
		return v
	case float64: // JSON round-trip widens to float64
		return int(v)
	default:
		return 0
	}
}

// Clone returns a deep copy so cached entries are never shared by reference
// across concurrent requests.
func (r *CheckResult) Clone() *CheckResult {
	copied := *r
	if r.Metadata != nil {
		copied.Metadata = make(map[string]any, len(r.Metadata))
		for k, v := range r.Metadata {
			copied.Metadata[k] = v
		}
	}
	if r.LastSeen != nil {
		seen := *r.LastSeen
		copied.LastSeen = &seen
	}
	return &copied
}

// CheckRequest describes one number check. It is immutable once constructed.
type CheckRequest struct {
	Phone         string   `json:"phone"` // cleaned, digits only
	CountryCode   string   `json:"country_code"`
	Platforms     []string `json:"platforms"`
	ForceRefresh  bool     `json:"force_refresh"`
	MaxConcurrent int      `json:"max_concurrent"`
}

// FullNumber returns the number in +<country><phone> form.
func (r CheckRequest) FullNumber() string {
	return "+" + r.CountryCode + r.Phone
}

// CheckResponse aggregates per-platform results for one request. The derived
// counts are computed once at construction and not recomputed.
type CheckResponse struct {
	Request          CheckRequest   `json:"request"`
	Results          []*CheckResult `json:"results"`
	TotalTime        float64        `json:"total_time"` // milliseconds
	SuccessfulChecks int            `json:"successful_checks"`
	FailedChecks     int            `json:"failed_checks"`
}

// NewCheckResponse assembles a response and computes the derived counts.
func NewCheckResponse(request CheckRequest, results []*CheckResult, totalTime float64) *CheckResponse {
	resp := &CheckResponse{
		Request:   request,
		Results:   results,
		TotalTime: totalTime,
	}
	for _, result := range results {
		if result.IsSuccessful() {
			resp.SuccessfulChecks++
		} else {
			resp.FailedChecks++
		}
	}
	return resp
}

// SuccessRate returns the fraction of probes that completed.
func (r *CheckResponse) SuccessRate() float64 {
	if len(r.Results) == 0 {
		return 0
	}
	return float64(r.SuccessfulChecks) / float64(len(r.Results))
}

// PlatformsFound lists platforms where the number was found.
func (r *CheckResponse) PlatformsFound() []string {
	found := make([]string, 0, len(r.Results))
	for _, result := range r.Results {
		if result.Exists {
			found = append(found, result.Platform)
		}
	}
	return found
}

// PlatformsNotFound lists platforms that completed without finding the number.
func (r *CheckResponse) PlatformsNotFound() []string {
	missing := make([]string, 0, len(r.Results))
	for _, result := range r.Results {
		if !result.Exists && result.IsSuccessful() {
			missing = append(missing, result.Platform)
		}
	}
	return missing
}

// PlatformsWithError lists platforms whose probes failed.
func (r *CheckResponse) PlatformsWithError() []string {
	failed := make([]string, 0, len(r.Results))
	for _, result := range r.Results {
		if !result.IsSuccessful() {
			failed = append(failed, result.Platform)
		}
	}
	return failed
}

// ResultFor returns the result for a platform, or nil when absent.
func (r *CheckResponse) ResultFor(platform string) *CheckResult {
	for _, result := range r.Results {
		if result.Platform == platform {
			return result
		}
	}
	return nil
}
