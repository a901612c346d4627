package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/numlens/numlens/internal/core"
	"github.com/numlens/numlens/internal/core/cache"
	"github.com/numlens/numlens/internal/core/engine"
	apperrors "github.com/numlens/numlens/internal/errors"
)

// CheckService is the slice of the orchestrator the HTTP handlers need.
type CheckService interface {
	CheckNumber(ctx context.Context, phone, countryCode string, platforms []string, forceRefresh bool) (*core.CheckResponse, error)
	Stats() engine.Stats
	CacheStats() (cache.Stats, bool)
	HealthCheck(ctx context.Context) *engine.Health
	InvalidateCache(phone, countryCode string)
	ClearCache() error
}

// CheckHandlers bundles the API handlers around a CheckService.
type CheckHandlers struct {
	service CheckService
}

// NewCheckHandlers creates the API handler set.
func NewCheckHandlers(service CheckService) *CheckHandlers {
	return &CheckHandlers{service: service}
}

// checkRequestBody is the POST /v1/check payload.
type checkRequestBody struct {
	Phone        string   `json:"phone"`
	CountryCode  string   `json:"country_code"`
	Platforms    []string `json:"platforms,omitempty"`
	ForceRefresh bool     `json:"force_refresh,omitempty"`
}

// Check handles POST /v1/check requests.
func (h *CheckHandlers) Check(w http.ResponseWriter, r *http.Request) {
	var body checkRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondWithError(w, r, apperrors.WrapInvalidInput(r.Context(), err, "request body must be valid JSON"))
		return
	}
	if body.Phone == "" || body.CountryCode == "" {
		respondWithError(w, r, apperrors.NewValidationError("phone and country_code are required"))
		return
	}

	response, err := h.service.CheckNumber(r.Context(), body.Phone, body.CountryCode, body.Platforms, body.ForceRefresh)
	if err != nil {
		if errors.Is(err, core.ErrInvalidNumber) {
			respondWithError(w, r, apperrors.WrapValidationError(r.Context(), err, "invalid phone number"))
			return
		}
		respondWithError(w, r, apperrors.WrapInternal(r.Context(), err, "number check failed"))
		return
	}

	writeJSON(w, http.StatusOK, response)
}

// statsResponse combines orchestrator and cache statistics.
type statsResponse struct {
	Checks engine.Stats `json:"checks"`
	Cache  *cache.Stats `json:"cache,omitempty"`
}

// Stats handles GET /v1/stats requests.
func (h *CheckHandlers) Stats(w http.ResponseWriter, r *http.Request) {
	response := statsResponse{Checks: h.service.Stats()}
	if cacheStats, ok := h.service.CacheStats(); ok {
		response.Cache = &cacheStats
	}
	writeJSON(w, http.StatusOK, response)
}

// CacheStats handles GET /v1/cache/stats requests.
func (h *CheckHandlers) CacheStats(w http.ResponseWriter, r *http.Request) {
	cacheStats, ok := h.service.CacheStats()
	if !ok {
		respondWithError(w, r, apperrors.NewNotFoundError("caching is disabled"))
		return
	}
	writeJSON(w, http.StatusOK, cacheStats)
}

// cacheInvalidateBody is the POST /v1/cache/invalidate payload.
type cacheInvalidateBody struct {
	Phone       string `json:"phone"`
	CountryCode string `json:"country_code"`
}

// CacheInvalidate handles POST /v1/cache/invalidate requests.
func (h *CheckHandlers) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	var body cacheInvalidateBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondWithError(w, r, apperrors.WrapInvalidInput(r.Context(), err, "request body must be valid JSON"))
		return
	}
	if body.Phone == "" || body.CountryCode == "" {
		respondWithError(w, r, apperrors.NewValidationError("phone and country_code are required"))
		return
	}

	h.service.InvalidateCache(body.Phone, body.CountryCode)
	writeJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}

// CacheClear handles POST /v1/cache/clear requests.
func (h *CheckHandlers) CacheClear(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ClearCache(); err != nil {
		respondWithError(w, r, apperrors.WrapInternal(r.Context(), err, "failed to clear cache"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

// Health handles GET /v1/health requests with per-platform detail.
func (h *CheckHandlers) Health(w http.ResponseWriter, r *http.Request) {
	health := h.service.HealthCheck(r.Context())

	status := http.StatusOK
	if health.Status == engine.HealthUnhealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, health)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
