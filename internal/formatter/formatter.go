// Package formatter turns raw model output into a reply with a fixed
// greeting and signature envelope.
package formatter

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

const fallbackName = "Customer"

var (
	greetingStarters = []string{"good morning", "good afternoon", "good evening", "hello", "dear", "hi"}
	signaturePhrases = []string{"best regards,", "sincerely,", "thank you,", "regards,"}
)

// Format returns the canonical reply:
//
//	Subject: Re: {subject}
//
//	Hi {name},
//
//	{body}
//
//	Best regards,
//	{operator}
//
// Greeting and signature lines the model produced are removed from rawBody
// first, so formatting an already clean body is a no-op.
func Format(subject, recipientName, rawBody, operatorName string) string {
	operator := CleanText(operatorName)
	return fmt.Sprintf("Subject: Re: %s\n\nHi %s,\n\n%s\n\nBest regards,\n%s",
		CleanText(subject),
		FriendlyName(recipientName),
		StripBody(rawBody, operator),
		operator,
	)
}

// SplitSubject separates the "Subject: " header line from the message text
// of a formatted reply. Text without the header is returned unchanged.
func SplitSubject(formatted string) (subject, message string) {
	first, rest, ok := strings.Cut(formatted, "\n")
	if !ok || !strings.HasPrefix(first, "Subject: ") {
		return "", formatted
	}
	return strings.TrimPrefix(first, "Subject: "), strings.TrimLeft(rest, "\n")
}

// FriendlyName derives a first name for the greeting. Addresses use the
// local part up to the first dot. The result is lower-cased with an upper-case
// first letter.
func FriendlyName(recipientName string) string {
	name := strings.TrimSpace(recipientName)
	if local, _, ok := strings.Cut(name, "@"); ok {
		name, _, _ = strings.Cut(local, ".")
	}
	if name == "" {
		return fallbackName
	}
	return upperFirst(strings.ToLower(name))
}

// StripBody removes a leading salutation and trailing signature lines.
func StripBody(rawBody, operatorName string) string {
	body := strings.TrimSpace(rawBody)
	body = stripGreeting(body)
	return stripSignature(body, strings.ToLower(CleanText(operatorName)))
}

// CleanText collapses all whitespace runs to single spaces.
func CleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func stripGreeting(body string) string {
	lines := strings.Split(body, "\n")
	if !isGreeting(strings.ToLower(strings.TrimSpace(lines[0]))) {
		return body
	}

	rest := lines[1:]
	for len(rest) > 0 && strings.TrimSpace(rest[0]) == "" {
		rest = rest[1:]
	}
	return strings.TrimSpace(strings.Join(rest, "\n"))
}

// isGreeting reports whether line opens with a salutation word and reads
// like one: it ends with a comma or has more than one word.
func isGreeting(line string) bool {
	if !strings.HasSuffix(line, ",") && !strings.Contains(line, " ") {
		return false
	}
	for _, starter := range greetingStarters {
		if !strings.HasPrefix(line, starter) {
			continue
		}
		next, _ := utf8.DecodeRuneInString(line[len(starter):])
		if next == utf8.RuneError || !unicode.IsLetter(next) && !unicode.IsDigit(next) {
			return true
		}
	}
	return false
}

func stripSignature(body, operator string) string {
	lines := strings.Split(body, "\n")
	for len(lines) > 0 {
		if !isSignature(strings.ToLower(strings.TrimSpace(lines[len(lines)-1])), operator) {
			break
		}
		lines = lines[:len(lines)-1]
		for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
			lines = lines[:len(lines)-1]
		}
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func isSignature(line, operator string) bool {
	for _, phrase := range signaturePhrases {
		if strings.HasPrefix(line, phrase) {
			return true
		}
	}
	if operator == "" {
		return false
	}
	if line == operator {
		return true
	}
	if !strings.Contains(line, operator) {
		return false
	}
	if len(strings.Fields(line)) < 4 {
		return true
	}
	for _, phrase := range signaturePhrases {
		if strings.Contains(line, phrase) {
			return true
		}
	}
	return false
}

func upperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}
