package logger

import (
	"regexp"
	"strings"
)

var emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)

// secretKeys name fields whose values are never logged.
var secretKeys = []string{"token", "password", "secret", "authorization"}

// RedactEmail masks the local part of an address: "amelia@example.com"
// becomes "am***@example.com". Local parts of two characters or fewer are
// masked entirely.
func RedactEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 || strings.Count(email, "@") != 1 {
		return "***@***"
	}
	name, host := email[:at], email[at+1:]
	if len(name) <= 2 {
		return "***@" + host
	}
	return name[:2] + "***@" + host
}

// RedactPhone keeps the last four digits: "+15550100001" becomes "***0001".
func RedactPhone(phone string) string {
	if len(phone) <= 4 {
		return "***"
	}
	return "***" + phone[len(phone)-4:]
}

func redactPIIValue(key, val string) string {
	key = strings.ToLower(key)
	for _, s := range secretKeys {
		if strings.Contains(key, s) {
			return "***"
		}
	}
	switch {
	case strings.Contains(key, "email"):
		return RedactEmail(val)
	case strings.Contains(key, "phone"), strings.Contains(key, "recipient"):
		return RedactPhone(val)
	}
	return emailPattern.ReplaceAllStringFunc(val, RedactEmail)
}
