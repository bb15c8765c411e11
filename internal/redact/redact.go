// Package redact scrubs credential-shaped substrings from text before it is
// written to the audit trail. Commands and debate conclusions routinely
// contain tokens pasted by agents; the audit log must not become a secret
// store.
package redact

import "regexp"

var secretPatterns = []*regexp.Regexp{
	// Cloud and VCS tokens with recognizable prefixes.
	regexp.MustCompile(`AKIA[0-9A-Z]{16}`),
	regexp.MustCompile(`gh[pousr]_[A-Za-z0-9]{36}`),
	regexp.MustCompile(`xox[baprs]-[0-9]{10,13}-[0-9]{10,13}[a-zA-Z0-9-]*`),
	regexp.MustCompile(`sk_live_[0-9a-zA-Z]{24}`),

	// key=value style assignments.
	regexp.MustCompile(`(?i)(api[_-]?key|secret[_-]?key|access_token|auth_token|aws_secret_access_key|aws_session_token)\s*[=:]\s*['"]?[A-Za-z0-9/+_=-]{16,}['"]?`),
	regexp.MustCompile(`(?i)(password|passwd|pwd|secret)\s*[=:]\s*['"]?[^\s'"]{8,}['"]?`),

	// Auth headers and credentialed URLs.
	regexp.MustCompile(`(?i)bearer\s+[A-Za-z0-9._-]{20,}`),
	regexp.MustCompile(`https?://[^:/\s]+:[^@\s]+@`),

	// PEM material.
	regexp.MustCompile(`-----BEGIN (RSA |EC |DSA |OPENSSH |PGP )?PRIVATE KEY-----`),
}

const placeholder = "[REDACTED]"

// Scrub replaces every credential-shaped substring with a placeholder.
func Scrub(text string) string {
	for _, pattern := range secretPatterns {
		text = pattern.ReplaceAllString(text, placeholder)
	}
	return text
}

// ScrubAll scrubs each element of a string slice, returning a new slice.
func ScrubAll(items []string) []string {
	if items == nil {
		return nil
	}
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = Scrub(item)
	}
	return out
}
