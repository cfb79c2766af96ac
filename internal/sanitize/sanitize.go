package sanitize

import (
	"net/url"
	"regexp"
	"strings"
)

const redacted = "[REDACTED]"

type SecretPattern struct {
	Pattern     *regexp.Regexp
	Replacement string
}

// SecretPatterns is a list of compiled regular expressions and their corresponding replacements for detecting secrets.
var SecretPatterns = []SecretPattern{
	{
		// Authorization: Bearer <token>
		Pattern:     regexp.MustCompile(`(?i)(Authorization:\s*(?:Bearer|token)\s+)\S+`),
		Replacement: `${1}` + redacted,
	},
	{
		Pattern:     regexp.MustCompile(`(?i)((?:jwt_secret|token|secret|password)(?:[\s=:]*['"]?))([a-zA-Z0-9_.-]{20,})(['"]?)`),
		Replacement: `${1}` + redacted + `${3}`,
	},
	{
		// JWTs
		Pattern:     regexp.MustCompile(`ey[A-Za-z0-9_=-]+\.[A-Za-z0-9_=-]+\.[A-Za-z0-9_.+/=-]*`),
		Replacement: redacted,
	},
}

// sensitiveParams are query parameters whose values never reach the logs.
var sensitiveParams = []string{"token", "access_token", "secret", "password"}

// String redacts every known secret pattern from s.
func String(s string) string {
	for _, p := range SecretPatterns {
		s = p.Pattern.ReplaceAllString(s, p.Replacement)
	}
	return s
}

// Query redacts sensitive parameters from a raw query string.
func Query(rawQuery string) string {
	if rawQuery == "" {
		return ""
	}
	values, err := url.ParseQuery(rawQuery)
	if err != nil {
		return String(rawQuery)
	}
	changed := false
	for key := range values {
		if isSensitive(key) {
			values[key] = []string{redacted}
			changed = true
		}
	}
	if !changed {
		return String(rawQuery)
	}
	return String(values.Encode())
}

// URL returns u as a string with the password and sensitive parameters removed.
func URL(u *url.URL) string {
	c := *u
	if c.User != nil {
		if _, ok := c.User.Password(); ok {
			c.User = url.UserPassword(c.User.Username(), redacted)
		}
	}
	c.RawQuery = Query(c.RawQuery)
	return c.String()
}

func isSensitive(key string) bool {
	key = strings.ToLower(key)
	for _, s := range sensitiveParams {
		if key == s {
			return true
		}
	}
	return false
}
