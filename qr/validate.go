package qr

import "regexp"

// urlPattern accepts http(s), a dotted host, and an optional path or query.
// It is a plausibility guard against typos, not full URL validation.
var urlPattern = regexp.MustCompile(
	`(?i)^https?://[\w.-]+(?:\.[\w.-]+)+[/\w\-._~:?#\[\]@!$&'()*+,;=%]*$`,
)

// IsPlausibleURL reports whether s looks like a scannable http(s) URL.
func IsPlausibleURL(s string) bool {
	return urlPattern.MatchString(s)
}
