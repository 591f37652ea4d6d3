package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mailtriage/internal/audit"
	"mailtriage/internal/model"
	"mailtriage/internal/workflow"
)

const formattedReply = "Subject: Re: Late delivery\n\nHi James,\n\nIt ships today.\n\nBest regards,\nBot"

func finishedState(c model.Classification, response string, review bool, procErr string) *workflow.State {
	s := workflow.NewState(model.Email{
		ID:          "msg-1",
		Subject:     "Late delivery",
		SenderEmail: "james.liu@example.com",
	})
	s.Classification = &c
	if response != "" {
		s.GeneratedResponseBody = &response
	}
	s.RequiresHumanReview = review
	if procErr != "" {
		s.ProcessingError = &procErr
	}
	return s
}

func newTestDispatcher(sender *fakeSender, guard ReplyGuard, reviewer Reviewer) *Dispatcher {
	return NewDispatcher(sender, guard, reviewer, DispatcherConfig{
		SenderEmail:  "ops@example.com",
		DraftAddress: "drafts@example.com",
	}, zap.NewNop())
}

func TestDecide(t *testing.T) {
	tests := []struct {
		name   string
		state  *workflow.State
		dryRun bool
		want   Route
	}{
		{"error beats spam", finishedState(model.ClassificationSpam, "", false, "boom"), false, RouteProcessingError},
		{"spam", finishedState(model.ClassificationSpam, "", false, ""), false, RouteSkipClassification},
		{"promotional", finishedState(model.ClassificationPromotional, "", false, ""), true, RouteSkipClassification},
		{"no response", finishedState(model.ClassificationNeutral, "", false, ""), false, RouteNoResponse},
		{"send", finishedState(model.ClassificationNegative, formattedReply, false, ""), false, RouteSend},
		{"dry run", finishedState(model.ClassificationNegative, formattedReply, false, ""), true, RouteDraft},
		{"review", finishedState(model.ClassificationPositive, formattedReply, true, ""), false, RouteDraft},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Decide(tt.state, tt.dryRun))
		})
	}
}

func TestDispatch_SkipsNeverTouchSender(t *testing.T) {
	tests := []struct {
		state *workflow.State
		want  model.ResponseStatus
	}{
		{finishedState(model.ClassificationUnknown, "", false, "Filtering failed: x"), model.StatusErrorDuringProcessing},
		{finishedState(model.ClassificationSpam, "", false, ""), model.StatusSkippedSpam},
		{finishedState(model.ClassificationPromotional, "", false, ""), model.StatusSkippedPromotional},
		{finishedState(model.ClassificationNeutral, "", false, ""), model.StatusSkippedNoResponse},
	}
	for _, tt := range tests {
		sender := &fakeSender{}
		got := newTestDispatcher(sender, nil, nil).Dispatch(context.Background(), tt.state, false)
		assert.Equal(t, tt.want, got)
		assert.Empty(t, sender.sent)
	}
}

func TestDispatch_SendsDirectly(t *testing.T) {
	sender := &fakeSender{}
	status := newTestDispatcher(sender, nil, nil).Dispatch(context.Background(),
		finishedState(model.ClassificationNegative, formattedReply, false, ""), false)

	assert.Equal(t, model.StatusSentDirectly, status)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, sentMessage{
		subject: "Late delivery",
		to:      "james.liu@example.com",
		from:    "ops@example.com",
		body:    "Hi James,\n\nIt ships today.\n\nBest regards,\nBot",
	}, sender.sent[0])
}

func TestDispatch_DryRunDrafts(t *testing.T) {
	sender := &fakeSender{}
	status := newTestDispatcher(sender, nil, nil).Dispatch(context.Background(),
		finishedState(model.ClassificationNegative, formattedReply, false, ""), true)

	assert.Equal(t, model.StatusDrafted, status)
	require.Len(t, sender.sent, 1)
	assert.True(t, sender.sent[0].draft)
	assert.Equal(t, "drafts@example.com", sender.sent[0].to)
}

func TestDispatch_ReviewerEditsFlaggedDraft(t *testing.T) {
	sender := &fakeSender{}
	reviewer := &fakeReviewer{edit: "Edited reply"}
	status := newTestDispatcher(sender, nil, reviewer).Dispatch(context.Background(),
		finishedState(model.ClassificationNeutral, formattedReply, true, ""), false)

	assert.Equal(t, model.StatusDrafted, status)
	assert.Equal(t, []string{"Hi James,\n\nIt ships today.\n\nBest regards,\nBot"}, reviewer.seen)
	assert.Equal(t, "Edited reply", sender.sent[0].body)
}

func TestDispatch_ReviewerNotAskedForUnflaggedDryRun(t *testing.T) {
	sender := &fakeSender{}
	reviewer := &fakeReviewer{edit: "Edited reply"}
	newTestDispatcher(sender, nil, reviewer).Dispatch(context.Background(),
		finishedState(model.ClassificationNeutral, formattedReply, false, ""), true)

	assert.Empty(t, reviewer.seen)
}

func TestDispatch_ReviewerErrorKeepsReply(t *testing.T) {
	sender := &fakeSender{}
	reviewer := &fakeReviewer{err: errors.New("user aborted")}
	newTestDispatcher(sender, nil, reviewer).Dispatch(context.Background(),
		finishedState(model.ClassificationNeutral, formattedReply, true, ""), false)

	assert.Equal(t, "Hi James,\n\nIt ships today.\n\nBest regards,\nBot", sender.sent[0].body)
}

func TestDispatch_FailuresReleaseGuard(t *testing.T) {
	guard := newMemoryGuard()
	sender := &fakeSender{fail: true}
	d := newTestDispatcher(sender, guard, nil)

	assert.Equal(t, model.StatusSendFailed, d.Dispatch(context.Background(),
		finishedState(model.ClassificationNegative, formattedReply, false, ""), false))
	assert.Equal(t, model.StatusDraftFailed, d.Dispatch(context.Background(),
		finishedState(model.ClassificationNegative, formattedReply, false, ""), true))
	assert.Equal(t, []string{"msg-1", "msg-1"}, guard.released)
}

func TestDispatch_AlreadyReplied(t *testing.T) {
	guard := newMemoryGuard()
	sender := &fakeSender{}
	d := newTestDispatcher(sender, guard, nil)
	s := finishedState(model.ClassificationNegative, formattedReply, false, "")

	assert.Equal(t, model.StatusSentDirectly, d.Dispatch(context.Background(), s, false))
	assert.Equal(t, model.StatusSkippedAlreadyReplied, d.Dispatch(context.Background(), s, false))
	assert.Len(t, sender.sent, 1)
}

func TestDispatch_DryRunDraftDoesNotBlockLaterSend(t *testing.T) {
	guard := newMemoryGuard()
	sender := &fakeSender{}
	d := newTestDispatcher(sender, guard, nil)

	assert.Equal(t, model.StatusDrafted, d.Dispatch(context.Background(),
		finishedState(model.ClassificationNegative, formattedReply, false, ""), true))
	assert.Equal(t, model.StatusSentDirectly, d.Dispatch(context.Background(),
		finishedState(model.ClassificationNegative, formattedReply, false, ""), false))

	require.Len(t, sender.sent, 2)
	assert.True(t, sender.sent[0].draft)
	assert.False(t, sender.sent[1].draft)
	assert.Equal(t, "james.liu@example.com", sender.sent[1].to)
}

func TestDispatch_RepeatedDraftIsSkipped(t *testing.T) {
	guard := newMemoryGuard()
	sender := &fakeSender{}
	d := newTestDispatcher(sender, guard, nil)
	s := finishedState(model.ClassificationNegative, formattedReply, false, "")

	assert.Equal(t, model.StatusDrafted, d.Dispatch(context.Background(), s, true))
	assert.Equal(t, model.StatusSkippedAlreadyReplied, d.Dispatch(context.Background(), s, true))
	assert.Len(t, sender.sent, 1)
}

func TestDispatch_ReviewedReplyIsAudited(t *testing.T) {
	sender := &fakeSender{}
	reviewer := &fakeReviewer{edit: "Edited reply"}
	s := finishedState(model.ClassificationNeutral, formattedReply, true, "")

	status := newTestDispatcher(sender, nil, reviewer).Dispatch(context.Background(), s, false)
	rec := audit.BuildRecord(1, s, "ops@example.com", status, time.Now())

	assert.Equal(t, "Subject: Re: Late delivery\n\nEdited reply", s.ResponseText())
	assert.Equal(t, "Subject: Re: Late delivery\n\nEdited reply", rec.GeneratedResponse)
	assert.Equal(t, model.StatusDrafted, rec.ResponseStatus)
}

func TestDispatch_UneditedReviewKeepsGeneratedReply(t *testing.T) {
	sender := &fakeSender{}
	reviewer := &fakeReviewer{err: errors.New("user aborted")}
	s := finishedState(model.ClassificationNeutral, formattedReply, true, "")

	newTestDispatcher(sender, nil, reviewer).Dispatch(context.Background(), s, false)

	assert.Equal(t, formattedReply, s.ResponseText())
}
