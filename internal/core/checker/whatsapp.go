package checker

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/numlens/numlens/internal/core"
)

const whatsappDefaultBase = "https://wa.me"

// WhatsAppChecker probes the public wa.me resolver. Resolving to the chat
// page means the number is registered; the resolver serves an error page for
// unregistered numbers. No notification is sent to the account.
type WhatsAppChecker struct {
	probe
	BaseURL string
}

// NewWhatsAppChecker builds a WhatsApp checker over the shared HTTP client.
func NewWhatsAppChecker(client *http.Client, config Config) *WhatsAppChecker {
	return &WhatsAppChecker{probe: newProbe("whatsapp", client, config)}
}

// Platform returns the platform identifier.
func (c *WhatsAppChecker) Platform() string { return "whatsapp" }

// Close releases checker resources.
func (c *WhatsAppChecker) Close() error { return nil }

// Check reports whether the number is registered on WhatsApp.
func (c *WhatsAppChecker) Check(ctx context.Context, phone, countryCode string) (*core.CheckResult, error) {
	if c == nil {
		return nil, errors.New("whatsapp checker is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if err := c.limiter.Acquire(ctx); err != nil {
		return nil, err
	}

	base := resolveBase(c.BaseURL, whatsappDefaultBase)
	reqURL := base.ResolveReference(&url.URL{Path: "/" + countryCode + core.CleanPhoneNumber(phone)}).String()

	resp, elapsed, err := c.do(ctx, http.MethodHead, reqURL, nil, nil)
	if err != nil {
		return c.failureResult(err, elapsed), nil
	}
	defer resp.Body.Close() // nolint:errcheck // best-effort cleanup on HTTP response body

	metadata := map[string]any{
		core.MetaStatusCode: resp.StatusCode,
		core.MetaMethod:     "wa.me_check",
		"final_url":         finalURL(resp),
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return c.successResult(false, elapsed, metadata), nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusServiceUnavailable:
		return c.errorResult(core.StatusRateLimited, "whatsapp rate limited", elapsed, metadata), nil
	case resp.StatusCode >= 400:
		return c.errorResult(core.StatusError, "unexpected whatsapp response", elapsed, metadata), nil
	}

	return c.successResult(c.analyzeResponse(resp), elapsed, metadata), nil
}

// analyzeResponse applies the wa.me redirect heuristics: landing on the
// WhatsApp web/app hosts means the number exists, an error parameter on
// wa.me means it does not.
func (c *WhatsAppChecker) analyzeResponse(resp *http.Response) bool {
	if resp.StatusCode == http.StatusOK {
		return true
	}

	final := finalURL(resp)
	if containsAny(final, "web.whatsapp.com", "api.whatsapp.com") {
		return true
	}
	if containsAny(final, "wa.me") && containsAny(final, "error", "invalid") {
		return false
	}

	return resp.StatusCode < 400
}
