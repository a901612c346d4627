package core

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewCheckResultDerivesExists(t *testing.T) {
	result := NewCheckResult("whatsapp", StatusExists)
	require.True(t, result.Exists)
	require.NotNil(t, result.Metadata)

	result = NewCheckResult("whatsapp", StatusNotExists)
	require.False(t, result.Exists)

	result = NewCheckResult("whatsapp", StatusError)
	require.False(t, result.Exists)
}

func TestNormalizeRederivesExists(t *testing.T) {
	result := &CheckResult{Platform: "telegram", Status: StatusExists, Exists: false}
	result.Normalize()
	require.True(t, result.Exists)
	require.NotNil(t, result.Metadata)

	result.Status = StatusTimeout
	result.Normalize()
	require.False(t, result.Exists)
}

func TestIsSuccessful(t *testing.T) {
	require.True(t, (&CheckResult{Status: StatusExists}).IsSuccessful())
	require.True(t, (&CheckResult{Status: StatusNotExists}).IsSuccessful())
	require.False(t, (&CheckResult{Status: StatusError}).IsSuccessful())
	require.False(t, (&CheckResult{Status: StatusTimeout}).IsSuccessful())
	require.False(t, (&CheckResult{Status: StatusRateLimited}).IsSuccessful())
}

func TestStatusCodeSurvivesJSONRoundTrip(t *testing.T) {
	result := NewCheckResult("whatsapp", StatusExists)
	result.Metadata[MetaStatusCode] = 200
	require.Equal(t, 200, result.StatusCode())

	data, err := json.Marshal(result)
	require.NoError(t, err)

	var decoded CheckResult
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Equal(t, 200, decoded.StatusCode())
}

func TestCloneIsDeep(t *testing.T) {
	result := NewCheckResult("snapchat", StatusExists)
	result.Metadata["method"] = "validate_phone"

	clone := result.Clone()
	clone.Metadata["method"] = "other"
	clone.Status = StatusError

	require.Equal(t, "validate_phone", result.Metadata["method"])
	require.Equal(t, StatusExists, result.Status)
}

func TestNewCheckResponseCounts(t *testing.T) {
	results := []*CheckResult{
		NewCheckResult("whatsapp", StatusExists),
		NewCheckResult("telegram", StatusNotExists),
		NewCheckResult("instagram", StatusError),
		NewCheckResult("snapchat", StatusTimeout),
	}
	response := NewCheckResponse(CheckRequest{Phone: "612345678", CountryCode: "33"}, results, 120)

	require.Equal(t, 2, response.SuccessfulChecks)
	require.Equal(t, 2, response.FailedChecks)
	require.InDelta(t, 0.5, response.SuccessRate(), 1e-9)
	require.Equal(t, []string{"whatsapp"}, response.PlatformsFound())
	require.Equal(t, []string{"telegram"}, response.PlatformsNotFound())
	require.ElementsMatch(t, []string{"instagram", "snapchat"}, response.PlatformsWithError())
	require.NotNil(t, response.ResultFor("telegram"))
	require.Nil(t, response.ResultFor("signal"))
	require.Equal(t, "+33612345678", response.Request.FullNumber())
}
