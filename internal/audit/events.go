package audit

import (
	"context"
	"time"

	"mailtriage/contracts/mq"
	"mailtriage/internal/model"
)

// RoutingKeyEmailTriaged is published once per audited email.
const RoutingKeyEmailTriaged = "email.triaged"

// Publisher is satisfied by *pkg/mq.Publisher.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

// EventSink announces each record on the message bus.
type EventSink struct {
	publisher Publisher
	now       func() time.Time
}

func NewEventSink(publisher Publisher) *EventSink {
	return &EventSink{publisher: publisher, now: time.Now}
}

func (s *EventSink) Name() string { return "events" }

func (s *EventSink) Init(ctx context.Context) error { return nil }

func (s *EventSink) Append(ctx context.Context, rec model.AuditRecord) error {
	return s.publisher.Publish(ctx, RoutingKeyEmailTriaged, mq.EmailTriagedPayload{
		EmailID:             rec.EmailID,
		SRNo:                rec.SRNo,
		SenderEmail:         rec.SenderEmail,
		Subject:             rec.OriginalSubject,
		Classification:      rec.Classification,
		RequiresHumanReview: rec.RequiresHumanReview,
		ResponseStatus:      string(rec.ResponseStatus),
		ProcessingError:     rec.ProcessingError,
		TriagedAt:           s.now().UTC(),
	})
}

func (s *EventSink) Close() error { return nil }
