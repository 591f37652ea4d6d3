// Package mailbox fetches incoming mail and sends replies.
package mailbox

import (
	"context"

	"mailtriage/internal/model"
)

// Fetcher returns up to limit unread emails, oldest first.
type Fetcher interface {
	Fetch(ctx context.Context, limit int, markAsSeen bool) ([]model.Email, error)
}

// Sender delivers replies. Both methods report success as a boolean; the
// cause of a failure is logged by the implementation.
type Sender interface {
	// Send replies to the original sender with subject "Re: {subject}".
	Send(ctx context.Context, subject, to, from, body string) bool
	// Draft mails the reply to the operator's own mailbox with subject
	// "Draft: Re: {subject}".
	Draft(ctx context.Context, subject, ownMailbox, body string) bool
}
