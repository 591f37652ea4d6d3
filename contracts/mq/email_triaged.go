package mq

import "time"

// EmailTriagedPayload 邮件分拣完成事件的 payload
type EmailTriagedPayload struct {
	EmailID             string    `json:"email_id"`
	SRNo                int       `json:"sr_no"`
	SenderEmail         string    `json:"sender_email"`
	Subject             string    `json:"subject"`
	Classification      string    `json:"classification"`
	RequiresHumanReview bool      `json:"requires_human_review"`
	ResponseStatus      string    `json:"response_status"`
	ProcessingError     string    `json:"processing_error,omitempty"`
	TriagedAt           time.Time `json:"triaged_at"`
}
