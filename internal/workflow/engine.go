// Package workflow runs the per-email triage pipeline:
//
//	filter -> summarize -> respond -> end
//	   \-----------------------------> end   (spam, promotional, filtering failure)
//
// Each run owns a fresh State. Quota errors from any step abort the run and
// yield a synthetic error state; so does any other unexpected failure.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"mailtriage/internal/llm"
	"mailtriage/internal/model"
	"mailtriage/pkg/logger"
	"mailtriage/pkg/metrics"
	"mailtriage/pkg/otel"
)

const (
	quotaSummary      = "Quota exceeded."
	quotaResponse     = "Text completion quota exceeded. Please retry later or upgrade your plan."
	quotaError        = "Quota exceeded"
	failedSummary     = "Workflow invocation failed."
	failedResponse    = "Error during workflow execution."
	failedErrorPrefix = "Workflow execution failed: "
	criticalSummary   = "Processing failed due to critical error."
	criticalResponse  = "Error occurred during processing."
)

// Config holds the engine settings.
type Config struct {
	// OperatorName signs every reply.
	OperatorName string
	// Labels the filter step accepts. Defaults to positive, neutral, negative.
	Labels []model.Classification
	// Now is used for history timestamps.
	Now func() time.Time
}

// Engine runs workflows against a text completion service.
type Engine struct {
	completer    llm.Completer
	operatorName string
	labels       []model.Classification
	now          func() time.Time
	logger       *zap.Logger

	entry StepName
	steps map[StepName]step
}

func NewEngine(completer llm.Completer, cfg Config, logger *zap.Logger) *Engine {
	e := &Engine{
		completer:    completer,
		operatorName: cfg.OperatorName,
		labels:       cfg.Labels,
		now:          cfg.Now,
		logger:       logger,
		entry:        StepFilter,
	}
	if len(e.labels) == 0 {
		e.labels = model.SentimentLabels
	}
	if e.now == nil {
		e.now = time.Now
	}

	e.steps = map[StepName]step{
		StepFilter:    {name: StepFilter, run: e.filter, next: routeAfterFilter},
		StepSummarize: {name: StepSummarize, run: e.summarize, next: always(StepRespond)},
		StepRespond:   {name: StepRespond, run: e.respond, next: always(StepEnd)},
	}
	return e
}

// Run processes one email to completion and always returns a terminal state.
func (e *Engine) Run(ctx context.Context, email model.Email, recipientName string) (final *State) {
	log := logger.WithTrace(ctx, e.logger).With(zap.String("email_id", email.ID))
	ctx, span := otel.StartSpan(ctx, "workflow.run", attribute.String("email.id", email.ID))

	state := NewState(email)
	var runErr error
	defer func() {
		if r := recover(); r != nil {
			runErr = fmt.Errorf("panic: %v", r)
			log.Error("[Supervisor] CRITICAL panic during workflow", zap.Any("panic", r), zap.Stack("stack"))
			final = failedState(state, runErr)
		}
		otel.EndSpan(span, runErr)
	}()

	runErr = e.execute(ctx, state, runInput{recipientName: recipientName, log: log})
	switch {
	case runErr == nil:
		return state
	case llm.IsQuota(runErr):
		log.Warn("[Supervisor] Quota exceeded, skipping email", zap.Error(runErr))
		return quotaState(state)
	default:
		log.Error("[Supervisor] CRITICAL error during workflow", zap.Error(runErr), zap.Stack("stack"))
		return failedState(state, runErr)
	}
}

func (e *Engine) execute(ctx context.Context, s *State, in runInput) error {
	current := e.entry
	for current != StepEnd {
		st, ok := e.steps[current]
		if !ok {
			return fmt.Errorf("unknown workflow step %q", current)
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		stepCtx, span := otel.StartSpan(ctx, "workflow."+string(st.name))
		start := time.Now()
		err := st.run(stepCtx, s, in)
		metrics.RecordStepDuration(string(st.name), time.Since(start))
		otel.EndSpan(span, err)
		if err != nil {
			return fmt.Errorf("%s step: %w", st.name, err)
		}

		current = st.next(s)
	}
	return nil
}

func quotaState(from *State) *State {
	s := terminal(from, quotaSummary, quotaResponse)
	s.fail(quotaError)
	return s
}

func failedState(from *State, err error) *State {
	s := terminal(from, failedSummary, failedResponse)
	s.fail(failedErrorPrefix + unwrapStep(err).Error())
	return s
}

// terminal keeps the email, metadata and history of the aborted run and
// replaces its outputs.
func terminal(from *State, summary, response string) *State {
	s := &State{
		CurrentEmail: from.CurrentEmail,
		Metadata:     from.Metadata,
		History:      from.History,
	}
	s.setClassification(model.ClassificationError)
	s.setSummary(summary)
	s.setResponse(response)
	return s
}

// unwrapStep drops the "<step> step:" prefix added by execute.
func unwrapStep(err error) error {
	if inner := errors.Unwrap(err); inner != nil {
		return inner
	}
	return err
}

// CriticalState is the outcome recorded when processing of an email failed
// outside the workflow run itself.
func CriticalState(email model.Email, err error) *State {
	s := terminal(NewState(email), criticalSummary, criticalResponse)
	s.fail("Critical error: " + err.Error())
	return s
}
