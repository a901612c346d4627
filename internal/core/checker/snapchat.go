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

const snapchatDefaultBase = "https://accounts.snapchat.com"

// SnapchatChecker probes the registration-time phone validation endpoint.
// Snapchat rejects numbers that are already attached to an account, which is
// exactly the signal we want.
type SnapchatChecker struct {
	probe
	BaseURL string
}

// NewSnapchatChecker builds a Snapchat checker over the shared HTTP client.
func NewSnapchatChecker(client *http.Client, config Config) *SnapchatChecker {
	return &SnapchatChecker{probe: newProbe("snapchat", client, config)}
}

// Platform returns the platform identifier.
func (c *SnapchatChecker) Platform() string { return "snapchat" }

// Close releases checker resources.
func (c *SnapchatChecker) Close() error { return nil }

// Check reports whether the number is registered on Snapchat.
func (c *SnapchatChecker) Check(ctx context.Context, phone, countryCode string) (*core.CheckResult, error) {
	if c == nil {
		return nil, errors.New("snapchat checker is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if err := c.limiter.Acquire(ctx); err != nil {
		return nil, err
	}

	base := resolveBase(c.BaseURL, snapchatDefaultBase)
	reqURL := base.ResolveReference(&url.URL{Path: "/accounts/validate_phone_number"}).String()

	form := url.Values{}
	form.Set("phone_country_code", countryCode)
	form.Set("phone_number", core.CleanPhoneNumber(phone))
	header := http.Header{}
	header.Set("Content-Type", "application/x-www-form-urlencoded; charset=UTF-8")

	resp, elapsed, err := c.do(ctx, http.MethodPost, reqURL, header, func() io.Reader {
		return strings.NewReader(form.Encode())
	})
	if err != nil {
		return c.failureResult(err, elapsed), nil
	}

	body := drainBody(resp)
	metadata := map[string]any{
		core.MetaStatusCode: resp.StatusCode,
		core.MetaMethod:     "validate_phone",
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return c.successResult(validationIndicatesAccount(body), elapsed, metadata), nil
	case http.StatusBadRequest:
		// The endpoint refuses numbers that are already registered.
		return c.successResult(true, elapsed, metadata), nil
	case http.StatusTooManyRequests, http.StatusServiceUnavailable:
		return c.errorResult(core.StatusRateLimited, "snapchat rate limited", elapsed, metadata), nil
	default:
		return c.errorResult(core.StatusError, "unexpected snapchat response", elapsed, metadata), nil
	}
}

// validationIndicatesAccount inspects the validation payload for the
// already-registered markers.
func validationIndicatesAccount(body string) bool {
	var payload struct {
		ErrorMessage string `json:"error_message"`
		Status       string `json:"status"`
	}
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		return containsAny(body, "already", "taken", "registered")
	}
	return containsAny(payload.ErrorMessage, "already", "taken", "registered")
}
