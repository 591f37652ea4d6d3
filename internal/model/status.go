package model

// ResponseStatus 写入审计记录的处理结果
type ResponseStatus string

const (
	StatusErrorDuringProcessing ResponseStatus = "Error During Processing"
	StatusSkippedSpam           ResponseStatus = "Skipped (Spam)"
	StatusSkippedPromotional    ResponseStatus = "Skipped (Promotional)"
	StatusSkippedNoResponse     ResponseStatus = "Skipped (No Response/Error)"
	StatusSkippedAlreadyReplied ResponseStatus = "Skipped (Already Replied)"
	StatusDrafted               ResponseStatus = "Drafted"
	StatusDraftFailed           ResponseStatus = "Draft Failed"
	StatusSentDirectly          ResponseStatus = "Sent Directly"
	StatusSendFailed            ResponseStatus = "Send Failed"
	StatusCriticalError         ResponseStatus = "Critical Error"
)

func (s ResponseStatus) String() string { return string(s) }
