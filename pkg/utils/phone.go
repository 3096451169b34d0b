package utils

import (
	"regexp"
)

// MobileDigits is the length of a contact mobile number
const MobileDigits = 10

var (
	// Regex to remove non-digit characters
	digitsOnlyRegex = regexp.MustCompile(`[^0-9]`)
	mobileRegex     = regexp.MustCompile(`^[0-9]{10}$`)
)

// NormalizeMobile strips every non-digit character and keeps at most
// MobileDigits digits, the same way the contact phone input behaves.
// Example: "(987) 654-3210 ext 9" -> "9876543210"
func NormalizeMobile(phone string) string {
	digits := digitsOnlyRegex.ReplaceAllString(phone, "")
	if len(digits) > MobileDigits {
		digits = digits[:MobileDigits]
	}
	return digits
}

// IsValidMobile reports whether phone is exactly MobileDigits digits
func IsValidMobile(phone string) bool {
	return mobileRegex.MatchString(phone)
}
