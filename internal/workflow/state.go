package workflow

import (
	"mailtriage/internal/formatter"
	"mailtriage/internal/model"
)

// Metadata markers recorded per email.
const (
	ResponseStatusSkipped             = "skipped"
	ResponseStatusGenerationError     = "error_during_response_generation"
	ResponseStatusAwaitingHumanReview = "awaiting_human_review"
	ResponseStatusReadyToSend         = "ready_to_send"

	ClassificationFilteringError = "error_during_filtering"
	SummaryGenerationError       = "error_during_summarization"
)

// StepMetadata accumulates step outputs for one email.
type StepMetadata struct {
	Classification       string   `json:"classification,omitempty"`
	Summary              string   `json:"summary,omitempty"`
	RawGeneratedResponse string   `json:"raw_generated_response,omitempty"`
	ResponseStatus       string   `json:"response_status,omitempty"`
	Notes                []string `json:"notes,omitempty"`
}

// HistoryEntry is appended once per successful response generation.
type HistoryEntry struct {
	EmailID             string `json:"email_id"`
	Classification      string `json:"classification"`
	Summary             string `json:"summary"`
	RawResponse         string `json:"raw_response"`
	RequiresHumanReview bool   `json:"requires_human_review"`
	Timestamp           string `json:"timestamp"`
}

// State is threaded through one workflow run. It is created per email and
// never shared.
type State struct {
	CurrentEmail          model.Email
	Classification        *model.Classification
	Summary               *string
	GeneratedResponseBody *string
	RequiresHumanReview   bool
	ProcessingError       *string
	Metadata              map[string]*StepMetadata
	History               []HistoryEntry
}

// NewState returns the initial state for email.
func NewState(email model.Email) *State {
	return &State{
		CurrentEmail: email,
		Metadata:     map[string]*StepMetadata{email.ID: {}},
	}
}

// Meta returns the metadata record of the current email, creating it if needed.
func (s *State) Meta() *StepMetadata {
	if s.Metadata == nil {
		s.Metadata = make(map[string]*StepMetadata)
	}
	m, ok := s.Metadata[s.CurrentEmail.ID]
	if !ok {
		m = &StepMetadata{}
		s.Metadata[s.CurrentEmail.ID] = m
	}
	return m
}

// Failed reports whether a step has recorded a processing error.
func (s *State) Failed() bool { return s.ProcessingError != nil }

// Is reports whether the classification has been set to c.
func (s *State) Is(c model.Classification) bool {
	return s.Classification != nil && *s.Classification == c
}

// ClassificationLabel is the classification or "" before filtering ran.
func (s *State) ClassificationLabel() string {
	if s.Classification == nil {
		return ""
	}
	return string(*s.Classification)
}

func (s *State) SummaryText() string  { return deref(s.Summary) }
func (s *State) ResponseText() string { return deref(s.GeneratedResponseBody) }
func (s *State) ErrorText() string    { return deref(s.ProcessingError) }

// ReviseReply replaces the message of the generated reply and keeps its
// Subject line.
func (s *State) ReviseReply(message string) {
	if subject, _ := formatter.SplitSubject(s.ResponseText()); subject != "" {
		message = "Subject: " + subject + "\n\n" + message
	}
	s.setResponse(message)
}

func (s *State) setClassification(c model.Classification) { s.Classification = &c }
func (s *State) setSummary(v string)                      { s.Summary = &v }
func (s *State) setResponse(v string)                     { s.GeneratedResponseBody = &v }
func (s *State) fail(msg string)                          { s.ProcessingError = &msg }

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
