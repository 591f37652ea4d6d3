package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"mailtriage/internal/formatter"
	"mailtriage/internal/llm"
	"mailtriage/internal/model"
	"mailtriage/pkg/metrics"
)

const (
	summarySkipped      = "Summary skipped due to classification or previous error."
	responseSkipped     = "Not applicable. Email skipped or failed previous step."
	responseFailed      = "Response generation failed."
	summaryFailedPrefix = "Summary generation failed: "
)

var errEmptyCompletion = errors.New("empty completion")

// StepName identifies a node of the pipeline.
type StepName string

const (
	StepFilter    StepName = "filter"
	StepSummarize StepName = "summarize"
	StepRespond   StepName = "respond"
	StepEnd       StepName = "end"
)

// step is one node: run mutates the state, next picks the following node.
// A non-nil error from run aborts the workflow.
type step struct {
	name StepName
	run  func(ctx context.Context, s *State, in runInput) error
	next func(s *State) StepName
}

type runInput struct {
	recipientName string
	log           *zap.Logger
}

func always(n StepName) func(*State) StepName {
	return func(*State) StepName { return n }
}

// routeAfterFilter ends the run for skipped classifications and filtering
// failures.
func routeAfterFilter(s *State) StepName {
	if s.Classification != nil && s.Classification.Skipped() {
		return StepEnd
	}
	if s.Failed() {
		return StepEnd
	}
	return StepSummarize
}

// filter classifies the email. Quota errors abort the run; any other
// completion failure or an unexpected label falls back to unknown with a
// note. Failures outside the completion call mark the state as failed.
func (e *Engine) filter(ctx context.Context, s *State, in runInput) (err error) {
	defer func() {
		if r := recover(); r != nil {
			in.log.Error("[Filtering] step failed", zap.Any("panic", r), zap.Stack("stack"))
			s.setClassification(model.ClassificationUnknown)
			s.Meta().Classification = ClassificationFilteringError
			s.fail(fmt.Sprintf("Filtering failed: %v", r))
			err = nil
		}
	}()

	in.log.Info("[Filtering] started")
	out, cerr := e.completer.Complete(ctx, filterPrompt(e.labels, s.CurrentEmail),
		llm.WithTemperature(filterTemperature), llm.WithKind(string(StepFilter)))

	var label model.Classification
	switch {
	case llm.IsQuota(cerr):
		return cerr
	case cerr != nil:
		in.log.Warn("[Filtering] completion failed, classifying as unknown", zap.Error(cerr))
		label = model.ClassificationUnknown
		s.Meta().Notes = append(s.Meta().Notes, "filtering: "+cerr.Error())
	default:
		label = e.parseLabel(out)
		if label == model.ClassificationUnknown {
			in.log.Warn("[Filtering] unexpected label, classifying as unknown", zap.String("output", out))
			s.Meta().Notes = append(s.Meta().Notes, fmt.Sprintf("filtering: unexpected label %q", formatter.CleanText(out)))
		}
	}

	s.setClassification(label)
	s.Meta().Classification = string(label)
	metrics.IncrementClassification(string(label))
	in.log.Info("[Filtering] completed", zap.String("classification", string(label)))
	return nil
}

func (e *Engine) parseLabel(out string) model.Classification {
	text := strings.ToLower(formatter.CleanText(out))
	for _, l := range e.labels {
		if text == string(l) {
			return l
		}
	}
	return model.ClassificationUnknown
}

// summarize produces a short summary. Non-quota failures degrade the
// summary text but leave ProcessingError unset so the run continues.
func (e *Engine) summarize(ctx context.Context, s *State, in runInput) error {
	if s.Is(model.ClassificationSpam) || s.Failed() {
		s.setSummary(summarySkipped)
		in.log.Info("[Summarization] skipped")
		return nil
	}

	in.log.Info("[Summarization] started")
	out, err := e.completer.Complete(ctx, summaryPrompt(s.CurrentEmail),
		llm.WithTemperature(summaryTemperature), llm.WithKind(string(StepSummarize)))
	if err == nil && strings.TrimSpace(out) == "" {
		err = errEmptyCompletion
	}
	if llm.IsQuota(err) {
		return err
	}
	if err != nil {
		in.log.Error("[Summarization] failed", zap.Error(err))
		s.setSummary(summaryFailedPrefix + err.Error())
		s.Meta().Summary = SummaryGenerationError
		return nil
	}

	summary := formatter.CleanText(out)
	s.setSummary(summary)
	s.Meta().Summary = summary
	in.log.Info("[Summarization] completed")
	return nil
}

// respond generates the reply body, wraps it in the canonical envelope and
// evaluates the review gate.
func (e *Engine) respond(ctx context.Context, s *State, in runInput) error {
	if (s.Classification != nil && s.Classification.Skipped()) || s.Failed() {
		s.setResponse(responseSkipped)
		s.Meta().ResponseStatus = ResponseStatusSkipped
		in.log.Info("[Response] skipped due to classification or previous error")
		return nil
	}

	in.log.Info("[Response] started")
	email := s.CurrentEmail
	out, err := e.completer.Complete(ctx,
		responsePrompt(email, s.SummaryText(), in.recipientName, e.operatorName),
		llm.WithTemperature(responseTemperature), llm.WithKind(string(StepRespond)))
	raw := strings.TrimSpace(out)
	if err == nil && raw == "" {
		err = errEmptyCompletion
	}
	if llm.IsQuota(err) {
		return err
	}
	if err != nil {
		in.log.Error("[Response] failed", zap.Error(err))
		s.setResponse(responseFailed)
		s.Meta().ResponseStatus = ResponseStatusGenerationError
		s.fail("Response generation failed: " + err.Error())
		return nil
	}

	s.setResponse(formatter.Format(email.Subject, in.recipientName, raw, e.operatorName))
	s.Meta().RawGeneratedResponse = raw

	s.RequiresHumanReview = RequiresReview(s.ClassificationLabel(), raw)
	if s.RequiresHumanReview {
		in.log.Info("[Response] flagged for human review")
		s.Meta().ResponseStatus = ResponseStatusAwaitingHumanReview
	} else {
		s.Meta().ResponseStatus = ResponseStatusReadyToSend
	}

	timestamp := e.now().Format("2006-01-02T15:04:05.000000")
	if email.Timestamp != nil && *email.Timestamp != "" {
		timestamp = *email.Timestamp
	}
	s.History = append(s.History, HistoryEntry{
		EmailID:             email.ID,
		Classification:      s.ClassificationLabel(),
		Summary:             s.SummaryText(),
		RawResponse:         raw,
		RequiresHumanReview: s.RequiresHumanReview,
		Timestamp:           timestamp,
	})
	in.log.Info("[Response] completed")
	return nil
}

// RequiresReview is the human review gate: needs_review emails, and any
// non-spam reply that asks a question.
func RequiresReview(classification, body string) bool {
	if classification == string(model.ClassificationNeedsReview) {
		return true
	}
	return strings.Contains(body, "?") && classification != string(model.ClassificationSpam)
}
