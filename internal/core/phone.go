package core

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// ErrInvalidNumber is returned when a phone/country pair fails validation.
var ErrInvalidNumber = errors.New("invalid phone number")

var nonDigits = regexp.MustCompile(`\D`)

// CleanPhoneNumber strips every non-digit character from a phone number.
func CleanPhoneNumber(phone string) string {
	return nonDigits.ReplaceAllString(phone, "")
}

// ValidatePhoneNumber reports whether phone is a valid number for the given
// country calling code. The phone is given without the calling code.
func ValidatePhoneNumber(phone, countryCode string) bool {
	full := "+" + countryCode + CleanPhoneNumber(phone)
	parsed, err := phonenumbers.Parse(full, "")
	if err != nil {
		return false
	}
	return phonenumbers.IsValidNumber(parsed)
}

// PhoneFormat selects a formatting standard for FormatPhoneNumber.
type PhoneFormat int

const (
	FormatInternational PhoneFormat = iota
	FormatNational
	FormatE164
)

// FormatPhoneNumber formats a phone/country pair to the requested standard.
func FormatPhoneNumber(phone, countryCode string, format PhoneFormat) (string, error) {
	full := "+" + countryCode + CleanPhoneNumber(phone)
	parsed, err := phonenumbers.Parse(full, "")
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrInvalidNumber, full)
	}
	if !phonenumbers.IsValidNumber(parsed) {
		return "", fmt.Errorf("%w: %s", ErrInvalidNumber, full)
	}

	switch format {
	case FormatNational:
		return phonenumbers.Format(parsed, phonenumbers.NATIONAL), nil
	case FormatE164:
		return phonenumbers.Format(parsed, phonenumbers.E164), nil
	default:
		return phonenumbers.Format(parsed, phonenumbers.INTERNATIONAL), nil
	}
}

// IsMobileNumber reports whether the number is a mobile (or fixed-or-mobile)
// line.
func IsMobileNumber(phone, countryCode string) bool {
	full := "+" + countryCode + CleanPhoneNumber(phone)
	parsed, err := phonenumbers.Parse(full, "")
	if err != nil {
		return false
	}
	numberType := phonenumbers.GetNumberType(parsed)
	return numberType == phonenumbers.MOBILE || numberType == phonenumbers.FIXED_LINE_OR_MOBILE
}

// AnonymizePhoneNumber masks the middle digits of a number for log output,
// keeping the prefix and the last two characters visible.
func AnonymizePhoneNumber(phone, countryCode string) string {
	formatted, err := FormatPhoneNumber(phone, countryCode, FormatInternational)
	if err != nil {
		return "+" + countryCode + "XXXXXXXX"
	}
	if len(formatted) <= 8 {
		return formatted
	}
	return formatted[:6] + strings.Repeat("X", len(formatted)-8) + formatted[len(formatted)-2:]
}
