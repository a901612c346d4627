// Package checker implements the per-platform probe adapters. Each adapter
// infers account existence from a public endpoint's response shape and never
// returns a Go error for expected failure modes: network errors, timeouts and
// unexpected responses come back as Error/Timeout-status results so that one
// platform's failure stays contained to that platform.
package checker

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/numlens/numlens/internal/core"
	"github.com/numlens/numlens/internal/core/engine"
)

// Config carries the per-platform probe settings.
type Config struct {
	Timeout         time.Duration
	RetryAttempts   int
	RateLimitCalls  int
	RateLimitPeriod time.Duration
	Headers         map[string]string
}

func (c Config) withDefaults() Config {
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	if c.RateLimitCalls <= 0 {
		c.RateLimitCalls = 10
	}
	if c.RateLimitPeriod <= 0 {
		c.RateLimitPeriod = time.Minute
	}
	return c
}

// probe is the shared plumbing embedded by every adapter: HTTP transport,
// sliding-window rate limit, retry with exponential backoff, and result
// construction.
type probe struct {
	platform string
	client   *http.Client
	limiter  *engine.RateLimiter
	config   Config
	sleep    func(ctx context.Context, d time.Duration) error
}

func newProbe(platform string, client *http.Client, config Config) probe {
	config = config.withDefaults()
	if client == nil {
		client = &http.Client{}
	}
	return probe{
		platform: platform,
		client:   client,
		limiter:  engine.NewRateLimiter(config.RateLimitCalls, config.RateLimitPeriod),
		config:   config,
		sleep: func(ctx context.Context, d time.Duration) error {
			timer := time.NewTimer(d)
			defer timer.Stop()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-timer.C:
				return nil
			}
		},
	}
}

// do performs one HTTP request with a per-attempt timeout and bounded retry.
// It returns the response, elapsed milliseconds across all attempts, and an
// error only when every attempt failed. The response body is the caller's to
// close.
func (p *probe) do(ctx context.Context, method, rawURL string, header http.Header, body func() io.Reader) (*http.Response, float64, error) {
	started := time.Now()

	var lastErr error
	for attempt := 0; attempt <= p.config.RetryAttempts; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<(attempt-1)) * time.Second
			if err := p.sleep(ctx, backoff); err != nil {
				return nil, millisSince(started), err
			}
		}

		attemptCtx, cancel := context.WithTimeout(ctx, p.config.Timeout)
		resp, err := p.attempt(attemptCtx, method, rawURL, header, body)
		cancel()
		if err == nil {
			return resp, millisSince(started), nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}

	return nil, millisSince(started), lastErr
}

func (p *probe) attempt(ctx context.Context, method, rawURL string, header http.Header, body func() io.Reader) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = body()
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json, text/html, */*")
	for key, value := range header {
		req.Header[key] = value
	}
	for key, value := range p.config.Headers {
		req.Header.Set(key, value)
	}

	return p.client.Do(req)
}

// isTimeout classifies transport errors that should surface as a Timeout
// status rather than a generic Error.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return false
}

func (p *probe) successResult(exists bool, responseTime float64, metadata map[string]any) *core.CheckResult {
	status := core.StatusNotExists
	if exists {
		status = core.StatusExists
	}
	result := core.NewCheckResult(p.platform, status)
	result.ResponseTime = responseTime
	p.stampMetadata(result, metadata)
	return result
}

func (p *probe) errorResult(status core.Status, message string, responseTime float64, metadata map[string]any) *core.CheckResult {
	result := core.NewCheckResult(p.platform, status)
	result.Error = message
	result.ResponseTime = responseTime
	p.stampMetadata(result, metadata)
	return result
}

// failureResult maps a transport error to the matching status.
func (p *probe) failureResult(err error, responseTime float64) *core.CheckResult {
	if isTimeout(err) {
		return p.errorResult(core.StatusTimeout, "request timed out", responseTime, nil)
	}
	return p.errorResult(core.StatusError, err.Error(), responseTime, nil)
}

func (p *probe) stampMetadata(result *core.CheckResult, metadata map[string]any) {
	for key, value := range metadata {
		result.Metadata[key] = value
	}
	result.Metadata[core.MetaCheckID] = uuid.New().String()
}

func resolveBase(override, fallback string) *url.URL {
	if override != "" {
		if parsed, err := url.Parse(override); err == nil {
			return parsed
		}
	}
	parsed, _ := url.Parse(fallback)
	return parsed
}

func finalURL(resp *http.Response) string {
	if resp == nil || resp.Request == nil || resp.Request.URL == nil {
		return ""
	}
	return resp.Request.URL.String()
}

func drainBody(resp *http.Response) string {
	if resp == nil || resp.Body == nil {
		return ""
	}
	defer resp.Body.Close() // nolint:errcheck // best-effort cleanup on HTTP response body
	data, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return ""
	}
	return string(data)
}

func containsAny(haystack string, needles ...string) bool {
	lowered := strings.ToLower(haystack)
	for _, needle := range needles {
		if strings.Contains(lowered, needle) {
			return true
		}
	}
	return false
}

func millisSince(since time.Time) float64 {
	return float64(time.Since(since).Microseconds()) / 1000
}
