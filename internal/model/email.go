package model

// Email 一封待处理的邮件，抓取后只读
type Email struct {
	ID          string  `json:"id"`
	Subject     string  `json:"subject"`
	Body        string  `json:"body"`
	SenderName  string  `json:"sender_name"`
	SenderEmail string  `json:"sender_email"`
	Timestamp   *string `json:"timestamp"`
}

const (
	UnknownSender  = "unknown@example.com"
	DefaultSubject = "No Subject"
)
