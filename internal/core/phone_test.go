package core

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCleanPhoneNumber(t *testing.T) {
	require.Equal(t, "612345678", CleanPhoneNumber("6 12 34 56 78"))
	require.Equal(t, "33612345678", CleanPhoneNumber("+33 (6) 12-34-56-78"))
	require.Equal(t, "", CleanPhoneNumber("abc"))
}

func TestValidatePhoneNumber(t *testing.T) {
	require.True(t, ValidatePhoneNumber("612345678", "33"))
	require.True(t, ValidatePhoneNumber("6 12 34 56 78", "33"))
	require.False(t, ValidatePhoneNumber("123", "33"))
	require.False(t, ValidatePhoneNumber("", "33"))
	require.False(t, ValidatePhoneNumber("00000000", "999"))
}

func TestFormatPhoneNumber(t *testing.T) {
	e164, err := FormatPhoneNumber("612345678", "33", FormatE164)
	require.NoError(t, err)
	require.Equal(t, "+33612345678", e164)

	intl, err := FormatPhoneNumber("612345678", "33", FormatInternational)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(intl, "+33"))

	_, err = FormatPhoneNumber("123", "33", FormatE164)
	require.ErrorIs(t, err, ErrInvalidNumber)
}

func TestIsMobileNumber(t *testing.T) {
	require.True(t, IsMobileNumber("612345678", "33"))
}

func TestAnonymizePhoneNumber(t *testing.T) {
	masked := AnonymizePhoneNumber("612345678", "33")
	require.NotEqual(t, "+33612345678", masked)
	require.Contains(t, masked, "X")

	fallback := AnonymizePhoneNumber("00000000", "999")
	require.Equal(t, "+999XXXXXXXX", fallback)
}
