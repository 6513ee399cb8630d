// Package validate holds pure input normalizers used at form and API
// boundaries. All functions are stateless and total.
package validate

import (
	"net/url"
	"strconv"
	"strings"
)

// DefaultMaxText is the clamp length used when ClampText gets max <= 0.
const DefaultMaxText = 100

// ClampText trims surrounding whitespace and caps the result at max runes.
// An empty or whitespace-only input yields "".
func ClampText(s string, max int) string {
	if max <= 0 {
		max = DefaultMaxText
	}
	trimmed := strings.TrimSpace(s)
	runes := []rune(trimmed)
	if len(runes) > max {
		return string(runes[:max])
	}
	return trimmed
}

// IsSafeHTTPSURL reports whether u parses as an absolute URL with the
// https scheme and a non-empty host.
func IsSafeHTTPSURL(u string) bool {
	if u == "" {
		return false
	}
	parsed, err := url.Parse(u)
	if err != nil {
		return false
	}
	return parsed.Scheme == "https" && parsed.Host != ""
}

// ToPositiveInt parses s as an integer within [min, max]. Non-positive
// bounds fall back to the defaults 1 and 600. The second return is false
// when s is not an integer or is out of range.
func ToPositiveInt(s string, min, max int) (int, bool) {
	if min <= 0 {
		min = 1
	}
	if max <= 0 {
		max = 600
	}
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || v < min || v > max {
		return 0, false
	}
	return v, true
}

// RatingInt parses s as a 1..5 star rating.
func RatingInt(s string) (int, bool) {
	return ToPositiveInt(s, 1, 5)
}
