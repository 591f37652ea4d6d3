package audit

import (
	"time"

	"mailtriage/internal/model"
	"mailtriage/internal/workflow"
)

// TimestampLayout matches the local ISO-8601 form used for both time columns.
const TimestampLayout = "2006-01-02T15:04:05.000000"

// BuildRecord shapes the audit row for one email. The email timestamp falls
// back to now when the source provided none.
func BuildRecord(srNo int, state *workflow.State, recipientEmail string, status model.ResponseStatus, now time.Time) model.AuditRecord {
	email := state.CurrentEmail
	stamp := now.Format(TimestampLayout)

	timestamp := stamp
	if email.Timestamp != nil && *email.Timestamp != "" {
		timestamp = *email.Timestamp
	}

	return model.AuditRecord{
		SRNo:                srNo,
		EmailID:             email.ID,
		Timestamp:           timestamp,
		SenderEmail:         email.SenderEmail,
		SenderName:          email.SenderName,
		RecipientEmail:      recipientEmail,
		OriginalSubject:     email.Subject,
		OriginalContent:     email.Body,
		Classification:      state.ClassificationLabel(),
		Summary:             state.SummaryText(),
		GeneratedResponse:   state.ResponseText(),
		RequiresHumanReview: state.RequiresHumanReview,
		ResponseStatus:      status,
		ProcessingError:     state.ErrorText(),
		RecordSaveTime:      stamp,
	}
}
