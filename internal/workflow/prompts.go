package workflow

import (
	"fmt"
	"strings"

	"mailtriage/internal/model"
)

const (
	filterTemperature   float32 = 0.0
	summaryTemperature  float32 = 0.5
	responseTemperature float32 = 0.7
)

func filterPrompt(labels []model.Classification, email model.Email) string {
	return fmt.Sprintf(
		"Based on the following email, classify its overall sentiment as %s. "+
			"Respond with only the sentiment label, nothing else.\n\n"+
			"Subject: %s\nContent: %s\nSentiment:",
		quoteList(labels), email.Subject, email.Body,
	)
}

func summaryPrompt(email model.Email) string {
	return "Summarize the following email content in 2 to 3 sentences: " + email.Body
}

func responsePrompt(email model.Email, summary, recipientName, operatorName string) string {
	return fmt.Sprintf(
		"You are an email assistant named %[5]s. "+
			"Based on the following email details and summary, "+
			"generate only the core body content for a formal email response to %[1]s. "+
			"Do not include a subject line, any form of greeting (e.g. 'Hi [Name],', 'Hello,'), "+
			"or any closing signature (e.g. 'Best regards, [Your Name]', 'Sincerely'). "+
			"Focus only on the main message.\n\n"+
			"Original Email Details:\n"+
			"From: %[1]s\nSubject: %[2]s\nContent: %[3]s\nSummary: %[4]s\n\n"+
			"Generate only the email body:\n",
		recipientName, email.Subject, email.Body, summary, operatorName,
	)
}

// quoteList renders labels as 'a', 'b', or 'c'.
func quoteList(labels []model.Classification) string {
	quoted := make([]string, len(labels))
	for i, l := range labels {
		quoted[i] = "'" + string(l) + "'"
	}
	switch len(quoted) {
	case 0:
		return ""
	case 1:
		return quoted[0]
	case 2:
		return quoted[0] + " or " + quoted[1]
	}
	return strings.Join(quoted[:len(quoted)-1], ", ") + ", or " + quoted[len(quoted)-1]
}
