package email

import "strings"

// RedactEmail masks an email address for logging, keeping the first
// character of the local part: "nimal@gmail.com" becomes "n***@gmail.com".
// Strings without "@" are masked entirely.
func RedactEmail(email string) string {
	if email == "" {
		return ""
	}
	local, domain, ok := strings.Cut(email, "@")
	if !ok {
		return "***"
	}
	if local == "" {
		return "***@" + domain
	}
	return local[:1] + "***@" + domain
}
