package mailbox

import (
	"net/mail"
	"strings"
	"unicode"
	"unicode/utf8"
)

const fallbackName = "Customer"

// ExtractName returns the display name of an address, or its capitalized
// local part, or "Customer".
func ExtractName(address string) string {
	if addr, err := mail.ParseAddress(address); err == nil && addr.Name != "" {
		return addr.Name
	}
	if local, _, ok := strings.Cut(address, "@"); ok {
		local = strings.TrimSpace(local)
		if i := strings.LastIndexAny(local, "<\" "); i >= 0 {
			local = local[i+1:]
		}
		if local != "" {
			return capitalize(local)
		}
	}
	return fallbackName
}

// ParseSender splits a From header value into name and address. A missing
// address falls back to unknown@example.com.
func ParseSender(from string) (name, address string) {
	addr, err := mail.ParseAddress(from)
	if err != nil || addr.Address == "" {
		return strings.TrimSpace(from), unknownSender
	}
	return addr.Name, addr.Address
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}
