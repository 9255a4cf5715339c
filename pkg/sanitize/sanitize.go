package sanitize

import "regexp"

// Plain email (case-insensitive)
var reEmail = regexp.MustCompile(`(?i)[A-Z0-9._%+\-]+@[A-Z0-9.\-]+\.[A-Z]{2,}`)

// Common phone shapes: +xx..., (xxx) xxx-xxxx, 05xx... Only digits, spaces,
// minus, dot, parens and plus are allowed, at least 9 digits total so the
// match isn't too aggressive.
var rePhone = regexp.MustCompile(`\+?\d[\d\s\-.()]{7,}\d`)

// RedactPII masks emails and phone numbers before text leaves the office
// system (e.g. prompts forwarded to the external assistant service).
func RedactPII(s string) string {
	if s == "" {
		return s
	}
	s = reEmail.ReplaceAllString(s, "[redacted email]")
	s = rePhone.ReplaceAllString(s, "[redacted phone]")
	return s
}

// Summary trims a description for listings, breaking on a word boundary.
func Summary(s string, max int) string {
	if len(s) <= max {
		return s
	}
	i := max
	for i > 0 && i < len(s) && s[i] != ' ' {
		i--
	}
	if i <= 0 {
		i = max
	}
	return s[:i] + "…"
}
