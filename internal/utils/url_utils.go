package utils

import "net/url"

// SanitizeURLForLog strips credential-bearing query parameters from a URL
// before it is written to a log line.
func SanitizeURLForLog(u *url.URL) string {
	query := u.Query()
	if query.Has("key") {
		query.Set("key", "***")
		sanitized := *u
		sanitized.RawQuery = query.Encode()
		return sanitized.String()
	}
	return u.String()
}
