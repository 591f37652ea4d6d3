package service

import (
	"context"

	"go.uber.org/zap"

	"mailtriage/internal/formatter"
	"mailtriage/internal/mailbox"
	"mailtriage/internal/model"
	"mailtriage/internal/workflow"
	"mailtriage/pkg/logger"
)

// Dedup lock names. Drafts only reach the operator's mailbox, so they hold
// their own lock and never block a later direct reply.
const (
	replyHandler = "reply"
	draftHandler = "draft"
)

// Route is the delivery decision for a finished workflow run.
type Route int

const (
	RouteProcessingError Route = iota
	RouteSkipClassification
	RouteNoResponse
	RouteDraft
	RouteSend
)

func (r Route) String() string {
	switch r {
	case RouteProcessingError:
		return "processing-error"
	case RouteSkipClassification:
		return "skipped-classification"
	case RouteNoResponse:
		return "no-response"
	case RouteDraft:
		return "draft"
	case RouteSend:
		return "send"
	default:
		return "unknown"
	}
}

// Decide applies the routing precedence: processing error, then skipped
// classification, then a missing response, then draft or send.
func Decide(s *workflow.State, dryRun bool) Route {
	switch {
	case s.Failed():
		return RouteProcessingError
	case s.Classification != nil && s.Classification.Skipped():
		return RouteSkipClassification
	case s.ResponseText() == "":
		return RouteNoResponse
	case dryRun || s.RequiresHumanReview:
		return RouteDraft
	default:
		return RouteSend
	}
}

// ReplyGuard prevents a second reply to the same email. *util.Deduper
// implements it; a nil guard allows every reply.
type ReplyGuard interface {
	AcquireOnce(ctx context.Context, handler, emailID string) bool
	Release(ctx context.Context, handler, emailID string)
}

// Reviewer lets an operator edit a flagged reply before it is drafted.
// It returns the message text to deliver.
type Reviewer interface {
	Review(ctx context.Context, email model.Email, message string) (string, error)
}

// Dispatcher sends or drafts replies and reports the audit status.
type Dispatcher struct {
	sender       mailbox.Sender
	guard        ReplyGuard
	reviewer     Reviewer
	senderEmail  string
	draftAddress string
	logger       *zap.Logger
}

// DispatcherConfig holds the operator's addresses.
type DispatcherConfig struct {
	// SenderEmail is the From address of direct replies.
	SenderEmail string
	// DraftAddress receives drafts.
	DraftAddress string
}

func NewDispatcher(sender mailbox.Sender, guard ReplyGuard, reviewer Reviewer, cfg DispatcherConfig, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		sender:       sender,
		guard:        guard,
		reviewer:     reviewer,
		senderEmail:  cfg.SenderEmail,
		draftAddress: cfg.DraftAddress,
		logger:       logger,
	}
}

// Dispatch delivers the reply of s according to Decide and returns the
// response status for the audit record. A reply edited during review is
// written back to s so the audit shows what was delivered.
func (d *Dispatcher) Dispatch(ctx context.Context, s *workflow.State, dryRun bool) model.ResponseStatus {
	email := s.CurrentEmail
	log := logger.WithTrace(ctx, d.logger).With(zap.String("email_id", email.ID))

	route := Decide(s, dryRun)
	switch route {
	case RouteProcessingError:
		log.Error("Skipping send/draft due to prior processing error", zap.String("processing_error", s.ErrorText()))
		return model.StatusErrorDuringProcessing
	case RouteSkipClassification:
		log.Info("Skipping send/draft by classification", zap.String("classification", s.ClassificationLabel()))
		if s.Is(model.ClassificationSpam) {
			return model.StatusSkippedSpam
		}
		return model.StatusSkippedPromotional
	case RouteNoResponse:
		log.Warn("Skipping send/draft due to no response")
		return model.StatusSkippedNoResponse
	}

	handler := replyHandler
	if route == RouteDraft {
		handler = draftHandler
	}
	if !d.acquire(ctx, handler, email.ID) {
		return model.StatusSkippedAlreadyReplied
	}

	_, message := formatter.SplitSubject(s.ResponseText())

	if route == RouteDraft {
		if s.RequiresHumanReview && d.reviewer != nil {
			if edited := d.review(ctx, log, email, message); edited != message {
				message = edited
				s.ReviseReply(message)
			}
		}
		log.Info("Sending draft", zap.String("to", d.draftAddress), zap.Bool("requires_human_review", s.RequiresHumanReview))
		if d.sender.Draft(ctx, email.Subject, d.draftAddress, message) {
			return model.StatusDrafted
		}
		log.Error("Failed to send draft")
		d.release(ctx, handler, email.ID)
		return model.StatusDraftFailed
	}

	log.Info("Replying directly", zap.String("to", email.SenderEmail))
	if d.sender.Send(ctx, email.Subject, email.SenderEmail, d.senderEmail, message) {
		return model.StatusSentDirectly
	}
	log.Error("Failed to send direct reply")
	d.release(ctx, handler, email.ID)
	return model.StatusSendFailed
}

func (d *Dispatcher) review(ctx context.Context, log *zap.Logger, email model.Email, message string) string {
	edited, err := d.reviewer.Review(ctx, email, message)
	if err != nil {
		log.Warn("Review aborted, keeping generated reply", zap.Error(err))
		return message
	}
	if edited != message {
		log.Info("Reply edited during review")
	}
	return edited
}

func (d *Dispatcher) acquire(ctx context.Context, handler, emailID string) bool {
	if d.guard == nil {
		return true
	}
	return d.guard.AcquireOnce(ctx, handler, emailID)
}

func (d *Dispatcher) release(ctx context.Context, handler, emailID string) {
	if d.guard != nil {
		d.guard.Release(ctx, handler, emailID)
	}
}
