package checker

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/numlens/numlens/internal/core"
)

const instagramDefaultBase = "https://www.instagram.com"

// InstagramChecker drives the account-recovery lookup: Instagram answers
// differently depending on whether the number is attached to an account,
// without sending anything to the account itself.
type InstagramChecker struct {
	probe
	BaseURL string
}

// NewInstagramChecker builds an Instagram checker over the shared HTTP client.
func NewInstagramChecker(client *http.Client, config Config) *InstagramChecker {
	return &InstagramChecker{probe: newProbe("instagram", client, config)}
}

// Platform returns the platform identifier.
func (c *InstagramChecker) Platform() string { return "instagram" }

// Close releases checker resources.
func (c *InstagramChecker) Close() error { return nil }

// Check reports whether the number is registered on Instagram.
func (c *InstagramChecker) Check(ctx context.Context, phone, countryCode string) (*core.CheckResult, error) {
	if c == nil {
		return nil, errors.New("instagram checker is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if err := c.limiter.Acquire(ctx); err != nil {
		return nil, err
	}

	base := resolveBase(c.BaseURL, instagramDefaultBase)
	reqURL := base.ResolveReference(&url.URL{Path: "/accounts/account_recovery_send_ajax/"}).String()

	form := url.Values{}
	form.Set("email_or_username", "+"+countryCode+core.CleanPhoneNumber(phone))
	header := http.Header{}
	header.Set("Content-Type", "application/x-www-form-urlencoded")
	header.Set("X-Requested-With", "XMLHttpRequest")

	resp, elapsed, err := c.do(ctx, http.MethodPost, reqURL, header, func() io.Reader {
		return strings.NewReader(form.Encode())
	})
	if err != nil {
		return c.failureResult(err, elapsed), nil
	}

	body := drainBody(resp)
	metadata := map[string]any{
		core.MetaStatusCode: resp.StatusCode,
		core.MetaMethod:     "account_recovery",
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return c.successResult(recoveryIndicatesAccount(body), elapsed, metadata), nil
	case http.StatusBadRequest:
		// A rejected recovery attempt means no account matches the number.
		return c.successResult(false, elapsed, metadata), nil
	case http.StatusTooManyRequests, http.StatusServiceUnavailable:
		return c.errorResult(core.StatusRateLimited, "instagram rate limited", elapsed, metadata), nil
	default:
		return c.errorResult(core.StatusError, "unexpected instagram response", elapsed, metadata), nil
	}
}

// recoveryIndicatesAccount inspects the recovery payload. A contact point or
// an "ok" status with a recovery path means an account is attached.
func recoveryIndicatesAccount(body string) bool {
	var payload struct {
		Status       string `json:"status"`
		ContactPoint string `json:"contact_point"`
		Message      string `json:"message"`
	}
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		return containsAny(body, "contact_point", "sms")
	}
	if payload.ContactPoint != "" {
		return true
	}
	if payload.Status == "ok" {
		return true
	}
	return containsAny(payload.Message, "sent", "sms")
}
