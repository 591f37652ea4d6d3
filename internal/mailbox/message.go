package mailbox

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"

	"mailtriage/internal/model"
)

// parseMessage turns a raw RFC 5322 message into an Email. The body is the
// first text/plain part, or the first text/html part converted to text.
func parseMessage(id string, raw []byte) (model.Email, error) {
	email := model.Email{ID: id, Subject: "(no subject)", SenderEmail: unknownSender}

	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		return email, fmt.Errorf("parse message %s: %w", id, err)
	}
	defer mr.Close()

	if subject, err := mr.Header.Subject(); err == nil && subject != "" {
		email.Subject = subject
	}

	if from, err := mr.Header.AddressList("From"); err == nil && len(from) > 0 {
		email.SenderName = from[0].Name
		if from[0].Address != "" {
			email.SenderEmail = from[0].Address
		}
	} else {
		email.SenderName, email.SenderEmail = ParseSender(mr.Header.Get("From"))
	}

	if date, err := mr.Header.Date(); err == nil && !date.IsZero() {
		ts := date.Format(time.RFC3339)
		email.Timestamp = &ts
	}

	var plain, html string
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if plain == "" && html == "" {
				return email, fmt.Errorf("read parts of %s: %w", id, err)
			}
			break
		}

		h, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		contentType, _, _ := h.ContentType()
		body, err := io.ReadAll(part.Body)
		if err != nil {
			continue
		}

		switch {
		case contentType == "text/plain" && plain == "":
			plain = string(body)
		case contentType == "text/html" && html == "":
			html = string(body)
		}
	}

	switch {
	case strings.TrimSpace(plain) != "":
		email.Body = strings.TrimSpace(plain)
	case html != "":
		email.Body = htmlToText(html)
	}
	return email, nil
}
