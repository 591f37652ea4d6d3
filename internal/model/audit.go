package model

import "strconv"

// AuditColumns 审计记录的固定列
var AuditColumns = []string{
	"SR No", "Timestamp", "Sender Email", "Sender Name", "Recipient Email",
	"Original Subject", "Original Content", "Classification", "Summary",
	"Generated Response", "Requires Human Review", "Response Status",
	"Processing Error", "Record Save Time",
}

// AuditRecord 每封邮件一条
type AuditRecord struct {
	SRNo                int            `json:"sr_no" db:"sr_no"`
	EmailID             string         `json:"email_id" db:"email_id"`
	Timestamp           string         `json:"timestamp" db:"timestamp"`
	SenderEmail         string         `json:"sender_email" db:"sender_email"`
	SenderName          string         `json:"sender_name" db:"sender_name"`
	RecipientEmail      string         `json:"recipient_email" db:"recipient_email"`
	OriginalSubject     string         `json:"original_subject" db:"original_subject"`
	OriginalContent     string         `json:"original_content" db:"original_content"`
	Classification      string         `json:"classification" db:"classification"`
	Summary             string         `json:"summary" db:"summary"`
	GeneratedResponse   string         `json:"generated_response" db:"generated_response"`
	RequiresHumanReview bool           `json:"requires_human_review" db:"requires_human_review"`
	ResponseStatus      ResponseStatus `json:"response_status" db:"response_status"`
	ProcessingError     string         `json:"processing_error" db:"processing_error"`
	RecordSaveTime      string         `json:"record_save_time" db:"record_save_time"`
}

// Row 按 AuditColumns 顺序输出
func (r AuditRecord) Row() []string {
	return []string{
		strconv.Itoa(r.SRNo),
		r.Timestamp,
		r.SenderEmail,
		r.SenderName,
		r.RecipientEmail,
		r.OriginalSubject,
		r.OriginalContent,
		r.Classification,
		r.Summary,
		r.GeneratedResponse,
		boolLabel(r.RequiresHumanReview),
		string(r.ResponseStatus),
		r.ProcessingError,
		r.RecordSaveTime,
	}
}

func boolLabel(b bool) string {
	if b {
		return "True"
	}
	return "False"
}
