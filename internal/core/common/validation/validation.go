package validation

import "strings"

// NormalizePhone strips formatting from a mobile number and canonicalizes
// the country prefix: "8 (912) 345-67-89" becomes "+79123456789".
func NormalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if strings.HasPrefix(digits, "8") {
		digits = "7" + digits[1:]
	}
	if digits == "" {
		return ""
	}
	return "+" + digits
}

// NormalizePersonalID keeps only the digits of a national id so that
// "123-456-789 00" and "12345678900" compare equal.
func NormalizePersonalID(id string) string {
	var b strings.Builder
	for _, r := range id {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
