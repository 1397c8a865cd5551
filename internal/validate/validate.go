package validate

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	reEmail = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
	rePhone = regexp.MustCompile(`^[0-9+() -]{10,20}$`)
	reID    = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
)

// Countries the shop ships to.
var countries = map[string]bool{
	"US": true, "CA": true, "UK": true, "AU": true,
	"DE": true, "FR": true, "JP": true, "OTHER": true,
}

func Email(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) == 0 || len(s) > 120 {
		return "", false
	}
	return s, reEmail.MatchString(s)
}

// FullName validates a displayable customer name.
func FullName(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) < 3 || len(s) > 100 {
		return "", false
	}
	return s, true
}

// Phone is optional: empty passes, non-empty must look like a phone number.
func Phone(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", true
	}
	return s, rePhone.MatchString(s)
}

func AddressLine(s string, required bool) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", !required
	}
	if required && len(s) < 5 {
		return "", false
	}
	return s, len(s) <= 100
}

func City(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, len(s) >= 2 && len(s) <= 50
}

func State(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, len(s) >= 2 && len(s) <= 50
}

func PostalCode(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, len(s) >= 5 && len(s) <= 20
}

func Country(s string) (string, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	return s, countries[s]
}

// Qty parses a cart quantity, clamping to [1, 10].
func Qty(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 1
	}
	if n > 10 {
		return 10
	}
	return n
}

// ID validates a simple resource identifier (component/build/order ids).
func ID(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != "" && reID.MatchString(s)
}

// BuildName validates a saved-build name.
func BuildName(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, len(s) >= 3 && len(s) <= 100
}

// Description caps free-text length; always trimmed, never rejected short.
func Description(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, len(s) <= 500
}
