// Package redact strips credentials and personal data from strings before
// they are logged. Error causes from the stores, the mail providers and the
// token layer can echo connection strings, addresses and secrets; every
// non-operational error is passed through Error before it reaches a log line.
package redact

import "regexp"

// Placeholders written in place of redacted values.
const (
	RedactionPlaceholder          = "[REDACTED]"
	RedactedCredentialPlaceholder = "[REDACTED_CREDENTIAL]"
	RedactedKeyPlaceholder        = "[REDACTED_KEY]"
	RedactedJWTPlaceholder        = "[REDACTED_JWT]"
	RedactedHashPlaceholder       = "[REDACTED_HASH]"
	RedactedTokenPlaceholder      = "[REDACTED_TOKEN]"
	RedactedEmailPlaceholder      = "[REDACTED_EMAIL]"
)

type rule struct {
	pattern     *regexp.Regexp
	placeholder string
}

// rules run in order; credentials embedded in URLs go first so the email
// rule does not half-match "user:pass@host".
var rules = []rule{
	{
		regexp.MustCompile(`(?i)\b(mongodb(?:\+srv)?|postgres(?:ql)?|smtp)://[^@\s/]+@`),
		"$1://" + RedactedCredentialPlaceholder + "@",
	},
	{
		regexp.MustCompile(`(?i)\bBearer\s+[A-Za-z0-9_\-.=]+`),
		"Bearer " + RedactionPlaceholder,
	},
	{
		regexp.MustCompile(`eyJ[a-zA-Z0-9_-]+\.eyJ[a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]+`),
		RedactedJWTPlaceholder,
	},
	{
		regexp.MustCompile(`\$2[abxy]?\$\d{2}\$[./A-Za-z0-9]{53}`),
		RedactedHashPlaceholder,
	},
	{
		regexp.MustCompile(`\bSG\.[A-Za-z0-9_\-]{16,}\.[A-Za-z0-9_\-]{16,}`),
		RedactedKeyPlaceholder,
	},
	{
		regexp.MustCompile(`(?i)\b(api[_-]?key|secret|key)(["'\s:=]+)[A-Za-z0-9_\-.~+/]{8,}`),
		"$1$2" + RedactedKeyPlaceholder,
	},
	{
		regexp.MustCompile(`(?i)\b(password|passwd|pwd)(["'\s:=]+)[^"'&\s,}]{3,}`),
		"$1$2" + RedactedCredentialPlaceholder,
	},
	{
		regexp.MustCompile(`\b[0-9a-f]{64}\b`),
		RedactedTokenPlaceholder,
	},
	{
		regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`),
		RedactedEmailPlaceholder,
	},
}

// String redacts sensitive information from the input string.
func String(input string) string {
	if input == "" {
		return input
	}
	for _, r := range rules {
		input = r.pattern.ReplaceAllString(input, r.placeholder)
	}
	return input
}

// Error redacts sensitive information from an error's Error() output.
func Error(err error) string {
	if err == nil {
		return ""
	}
	return String(err.Error())
}
