package checker

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/numlens/numlens/internal/core"
)

const telegramDefaultBase = "https://t.me"

// TelegramChecker resolves the number against the public t.me deep-link
// endpoint. A resolvable contact page means the number is attached to an
// account.
type TelegramChecker struct {
	probe
	BaseURL string
}

// NewTelegramChecker builds a Telegram checker over the shared HTTP client.
func NewTelegramChecker(client *http.Client, config Config) *TelegramChecker {
	return &TelegramChecker{probe: newProbe("telegram", client, config)}
}

// Platform returns the platform identifier.
func (c *TelegramChecker) Platform() string { return "telegram" }

// Close releases checker resources.
func (c *TelegramChecker) Close() error { return nil }

// Check reports whether the number is registered on Telegram.
func (c *TelegramChecker) Check(ctx context.Context, phone, countryCode string) (*core.CheckResult, error) {
	if c == nil {
		return nil, errors.New("telegram checker is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if err := c.limiter.Acquire(ctx); err != nil {
		return nil, err
	}

	base := resolveBase(c.BaseURL, telegramDefaultBase)
	reqURL := base.ResolveReference(&url.URL{Path: "/+" + countryCode + core.CleanPhoneNumber(phone)}).String()

	resp, elapsed, err := c.do(ctx, http.MethodHead, reqURL, nil, nil)
	if err != nil {
		return c.failureResult(err, elapsed), nil
	}
	defer resp.Body.Close() // nolint:errcheck // best-effort cleanup on HTTP response body

	metadata := map[string]any{
		core.MetaStatusCode: resp.StatusCode,
		core.MetaMethod:     "t.me_resolve",
		"final_url":         finalURL(resp),
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return c.successResult(true, elapsed, metadata), nil
	case http.StatusNotFound:
		return c.successResult(false, elapsed, metadata), nil
	case http.StatusTooManyRequests, http.StatusServiceUnavailable:
		return c.errorResult(core.StatusRateLimited, "telegram rate limited", elapsed, metadata), nil
	default:
		return c.errorResult(core.StatusError, "unexpected telegram response", elapsed, metadata), nil
	}
}
