package checker

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/numlens/numlens/internal/core"
)

const (
	testPhone   = "612345678"
	testCountry = "33"
)

func fastConfig() Config {
	return Config{
		Timeout:         2 * time.Second,
		RateLimitCalls:  100,
		RateLimitPeriod: time.Minute,
	}
}

func TestWhatsAppCheckExists(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.Equal(t, http.MethodHead, r.Method)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	checker := NewWhatsAppChecker(srv.Client(), fastConfig())
	checker.BaseURL = srv.URL

	result, err := checker.Check(context.Background(), testPhone, testCountry)
	require.NoError(t, err)
	require.Equal(t, core.StatusExists, result.Status)
	require.True(t, result.Exists)
	require.Equal(t, "/33612345678", gotPath)
	require.Equal(t, http.StatusOK, result.StatusCode())
	require.Equal(t, "wa.me_check", result.Metadata[core.MetaMethod])
	require.NotEmpty(t, result.Metadata[core.MetaCheckID])
	require.Greater(t, result.ResponseTime, 0.0)
}

func TestWhatsAppCheckNotExists(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	checker := NewWhatsAppChecker(srv.Client(), fastConfig())
	checker.BaseURL = srv.URL

	result, err := checker.Check(context.Background(), testPhone, testCountry)
	require.NoError(t, err)
	require.Equal(t, core.StatusNotExists, result.Status)
	require.False(t, result.Exists)
	require.True(t, result.IsSuccessful())
}

func TestWhatsAppRateLimitedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	checker := NewWhatsAppChecker(srv.Client(), fastConfig())
	checker.BaseURL = srv.URL

	result, err := checker.Check(context.Background(), testPhone, testCountry)
	require.NoError(t, err)
	require.Equal(t, core.StatusRateLimited, result.Status)
	require.False(t, result.IsSuccessful())
	require.NotEmpty(t, result.Error)
}

func TestWhatsAppTimeoutBecomesTimeoutStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(400 * time.Millisecond)
	}))
	defer srv.Close()

	cfg := fastConfig()
	cfg.Timeout = 50 * time.Millisecond
	checker := NewWhatsAppChecker(srv.Client(), cfg)
	checker.BaseURL = srv.URL

	result, err := checker.Check(context.Background(), testPhone, testCountry)
	require.NoError(t, err)
	require.Equal(t, core.StatusTimeout, result.Status)
	require.Equal(t, "request timed out", result.Error)
}

func TestProbeRetriesTransportErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) <= 2 {
			conn, _, err := w.(http.Hijacker).Hijack()
			require.NoError(t, err)
			conn.Close() // nolint:errcheck // deliberately dropping the connection
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := fastConfig()
	cfg.RetryAttempts = 2
	checker := NewWhatsAppChecker(srv.Client(), cfg)
	checker.BaseURL = srv.URL

	var backoffs []time.Duration
	checker.sleep = func(ctx context.Context, d time.Duration) error {
		backoffs = append(backoffs, d)
		return nil
	}

	result, err := checker.Check(context.Background(), testPhone, testCountry)
	require.NoError(t, err)
	require.Equal(t, core.StatusExists, result.Status)
	require.Equal(t, int32(3), atomic.LoadInt32(&calls))
	require.Equal(t, []time.Duration{time.Second, 2 * time.Second}, backoffs)
}

func TestTelegramCheck(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		want       core.Status
	}{
		{"resolvable contact page", http.StatusOK, core.StatusExists},
		{"unknown number", http.StatusNotFound, core.StatusNotExists},
		{"throttled", http.StatusServiceUnavailable, core.StatusRateLimited},
		{"unexpected", http.StatusForbidden, core.StatusError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotPath string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotPath = r.URL.Path
				w.WriteHeader(tt.statusCode)
			}))
			defer srv.Close()

			checker := NewTelegramChecker(srv.Client(), fastConfig())
			checker.BaseURL = srv.URL

			result, err := checker.Check(context.Background(), testPhone, testCountry)
			require.NoError(t, err)
			require.Equal(t, tt.want, result.Status)
			require.Equal(t, "/+33612345678", gotPath)
		})
	}
}

func TestInstagramRecoveryLookup(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		body       string
		wantExists bool
	}{
		{"contact point returned", http.StatusOK, `{"status":"ok","contact_point":"+33*****678"}`, true},
		{"ok without contact point", http.StatusOK, `{"status":"ok"}`, true},
		{"no matching account", http.StatusOK, `{"status":"fail","message":"no users found"}`, false},
		{"rejected recovery", http.StatusBadRequest, `{"status":"fail"}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotForm string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				require.Equal(t, http.MethodPost, r.Method)
				require.NoError(t, r.ParseForm())
				gotForm = r.PostFormValue("email_or_username")
				w.WriteHeader(tt.statusCode)
				w.Write([]byte(tt.body)) // nolint:errcheck // test handler
			}))
			defer srv.Close()

			checker := NewInstagramChecker(srv.Client(), fastConfig())
			checker.BaseURL = srv.URL

			result, err := checker.Check(context.Background(), testPhone, testCountry)
			require.NoError(t, err)
			require.Equal(t, tt.wantExists, result.Exists)
			require.True(t, result.IsSuccessful())
			require.Equal(t, "+33612345678", gotForm)
		})
	}
}

func TestSnapchatValidation(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		body       string
		wantExists bool
	}{
		{"rejected means registered", http.StatusBadRequest, `{}`, true},
		{"already-taken marker", http.StatusOK, `{"error_message":"This number is already registered."}`, true},
		{"accepted means unregistered", http.StatusOK, `{"status":"ok"}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				require.NoError(t, r.ParseForm())
				require.Equal(t, testCountry, r.PostFormValue("phone_country_code"))
				require.Equal(t, testPhone, r.PostFormValue("phone_number"))
				w.WriteHeader(tt.statusCode)
				w.Write([]byte(tt.body)) // nolint:errcheck // test handler
			}))
			defer srv.Close()

			checker := NewSnapchatChecker(srv.Client(), fastConfig())
			checker.BaseURL = srv.URL

			result, err := checker.Check(context.Background(), testPhone, testCountry)
			require.NoError(t, err)
			require.Equal(t, tt.wantExists, result.Exists)
			require.Equal(t, "validate_phone", result.Metadata[core.MetaMethod])
		})
	}
}

func TestConfigHeadersAreForwarded(t *testing.T) {
	var gotAgent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAgent = r.Header.Get("User-Agent")
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	cfg := fastConfig()
	cfg.Headers = map[string]string{"User-Agent": "numlens-test/1.0"}
	checker := NewTelegramChecker(srv.Client(), cfg)
	checker.BaseURL = srv.URL

	_, err := checker.Check(context.Background(), testPhone, testCountry)
	require.NoError(t, err)
	require.Equal(t, "numlens-test/1.0", gotAgent)
}
