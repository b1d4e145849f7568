package ops

import "regexp"

// Placeholder tokens substituted for PII in free-text fields.
const (
	redactedEmail = "[email redacted]"
	redactedPhone = "[phone redacted]"
)

var (
	emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	// Eight or more digits with optional separators, optionally prefixed
	// with +. Loose on purpose: better to over-redact an ops view than
	// leak a number.
	phonePattern = regexp.MustCompile(`\+?\d(?:[\s().-]?\d){7,}`)
)

// Redact replaces email-like and phone-like substrings with fixed
// placeholder tokens. Applied server-side before any free text reaches a
// privileged viewer.
func Redact(text string) string {
	text = emailPattern.ReplaceAllString(text, redactedEmail)
	return phonePattern.ReplaceAllString(text, redactedPhone)
}
