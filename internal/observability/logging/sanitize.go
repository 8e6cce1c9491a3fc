package logging

import (
	"regexp"
)

var (
	// More specific patterns first.
	fineGrainedTokenPattern = regexp.MustCompile(`github_pat_[A-Za-z0-9_]+`)
	classicTokenPattern     = regexp.MustCompile(`gh[pousr]_[A-Za-z0-9]{10,}`)
	bearerPattern           = regexp.MustCompile(`(?i)(bearer\s+)[^\s"']+`)

	// Credentials embedded in URLs
	urlPasswordPattern = regexp.MustCompile(`://([^:/\s]+):([^@\s]+)@`)
)

// SanitizeError returns err's message with credentials masked.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return Sanitize(err.Error())
}

// Sanitize masks GitHub tokens, bearer credentials and URL passwords in msg.
func Sanitize(msg string) string {
	msg = fineGrainedTokenPattern.ReplaceAllString(msg, "github_pat_****")
	msg = classicTokenPattern.ReplaceAllStringFunc(msg, func(token string) string {
		return token[:4] + "****"
	})
	msg = bearerPattern.ReplaceAllString(msg, "${1}****")
	msg = urlPasswordPattern.ReplaceAllString(msg, "://$1:****@")
	return msg
}
