// Package service drives batches of emails through the triage workflow.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"mailtriage/internal/audit"
	"mailtriage/internal/mailbox"
	"mailtriage/internal/model"
	"mailtriage/internal/workflow"
	"mailtriage/pkg/metrics"
	"mailtriage/pkg/otel"
	"mailtriage/pkg/trace"
)

// DefaultDelay separates two emails of a batch.
const DefaultDelay = 10 * time.Second

// Runner runs the workflow for one email. *workflow.Engine implements it.
type Runner interface {
	Run(ctx context.Context, email model.Email, recipientName string) *workflow.State
}

// RunOptions are chosen per batch.
type RunOptions struct {
	Simulate bool
	Limit    int
	DryRun   bool
	// MarkSeen only applies to live fetches.
	MarkSeen bool
}

// BatchSummary reports the outcome of one batch.
type BatchSummary struct {
	RunID    string
	Records  []model.AuditRecord
	ByStatus map[model.ResponseStatus]int
}

// Config of the triage service.
type Config struct {
	// OperatorEmail is written to the Recipient Email column.
	OperatorEmail string
	Delay         time.Duration
}

// TriageService processes emails strictly one after another.
type TriageService struct {
	simulated  mailbox.Fetcher
	live       mailbox.Fetcher
	runner     Runner
	dispatcher *Dispatcher
	sink       audit.Sink
	cfg        Config
	logger     *zap.Logger

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func NewTriageService(
	simulated, live mailbox.Fetcher,
	runner Runner,
	dispatcher *Dispatcher,
	sink audit.Sink,
	cfg Config,
	logger *zap.Logger,
) *TriageService {
	if cfg.Delay < 0 {
		cfg.Delay = 0
	}
	return &TriageService{
		simulated:  simulated,
		live:       live,
		runner:     runner,
		dispatcher: dispatcher,
		sink:       sink,
		cfg:        cfg,
		logger:     logger,
		now:        time.Now,
		sleep:      sleepContext,
	}
}

// Run fetches one batch and processes every email in it. A failing email
// never aborts the batch; only fetch errors and cancellation end it early.
func (s *TriageService) Run(ctx context.Context, opts RunOptions) (*BatchSummary, error) {
	summary := &BatchSummary{
		RunID:    uuid.NewString(),
		ByStatus: make(map[model.ResponseStatus]int),
	}
	log := s.logger.With(zap.String("run_id", summary.RunID))

	if err := s.sink.Init(ctx); err != nil {
		log.Warn("Audit sink initialization failed", zap.Error(err))
	}

	fetcher, markSeen := s.live, opts.MarkSeen
	if opts.Simulate {
		fetcher, markSeen = s.simulated, false
	}
	if fetcher == nil {
		return summary, fmt.Errorf("no fetcher configured (simulate=%t)", opts.Simulate)
	}

	log.Info("Fetching emails...", zap.Bool("simulate", opts.Simulate), zap.Int("limit", opts.Limit))
	emails, err := fetcher.Fetch(ctx, opts.Limit, markSeen)
	if err != nil {
		return summary, fmt.Errorf("fetch emails: %w", err)
	}
	if len(emails) == 0 {
		log.Info("No emails found to process")
		return summary, nil
	}
	log.Info("Fetched emails", zap.Int("count", len(emails)))

	for i, email := range emails {
		rec := s.process(ctx, i+1, email, opts.DryRun)
		summary.Records = append(summary.Records, rec)
		summary.ByStatus[rec.ResponseStatus]++

		if i < len(emails)-1 {
			if err := s.sleep(ctx, s.cfg.Delay); err != nil {
				log.Warn("Batch interrupted", zap.Int("processed", i+1), zap.Error(err))
				return summary, err
			}
		}
	}

	log.Info("All selected emails processed")
	return summary, nil
}

// process runs, dispatches and audits one email.
func (s *TriageService) process(ctx context.Context, srNo int, email model.Email, dryRun bool) (rec model.AuditRecord) {
	ctx, span := otel.StartSpan(ctx, "triage.email",
		attribute.Int("triage.sr_no", srNo),
		attribute.String("email.id", email.ID),
	)
	defer func() {
		span.SetAttributes(attribute.String("triage.status", string(rec.ResponseStatus)))
		otel.EndSpan(span, nil)
	}()

	traceID := otel.TraceID(ctx)
	if traceID == "" {
		traceID = trace.GenerateTraceID()
	}
	ctx = trace.WithContext(ctx, traceID)
	log := s.logger.With(
		zap.String("trace_id", trace.FromContext(ctx)),
		zap.Int("sr_no", srNo),
		zap.String("email_id", email.ID),
	)
	log.Info("Processing email",
		zap.String("subject", email.Subject),
		zap.String("sender_name", email.SenderName),
		zap.String("sender_email", email.SenderEmail),
	)

	var (
		state  *workflow.State
		status model.ResponseStatus
	)
	func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error("Critical error while processing email", zap.Any("panic", r), zap.Stack("stack"))
				state = workflow.CriticalState(email, fmt.Errorf("%v", r))
				status = model.StatusCriticalError
			}
		}()
		// the greeting derives its first name from the address local part
		state = s.runner.Run(ctx, email, email.SenderEmail)
		log.Debug("Workflow finished",
			zap.String("classification", state.ClassificationLabel()),
			zap.Int("summary_len", len(state.SummaryText())),
			zap.Int("response_len", len(state.ResponseText())),
			zap.Bool("requires_human_review", state.RequiresHumanReview),
			zap.String("processing_error", state.ErrorText()),
		)
		status = s.dispatcher.Dispatch(ctx, state, dryRun)
	}()

	rec = audit.BuildRecord(srNo, state, s.cfg.OperatorEmail, status, s.now())
	if err := s.sink.Append(ctx, rec); err != nil {
		log.Error("Failed to log audit record", zap.Error(err))
	}
	metrics.IncrementEmailProcessed(string(status))
	return rec
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
