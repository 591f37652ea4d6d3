package mq

import (
	"testing"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
)

func TestDLQQueueName(t *testing.T) {
	assert.Equal(t, "email.triaged.dlq", DLQQueueName("email.triaged"))
	assert.Equal(t, "mailtriage.events.dlq", DLQExchangeName)
}

func TestDLQPublishing_KeepsMessageAndAddsFailure(t *testing.T) {
	msg := amqp091.Delivery{
		ContentType: "application/json",
		MessageId:   "m-1",
		Body:        []byte(`{"email_id":"e1"}`),
		Headers:     amqp091.Table{"trace_id": "t-1"},
	}
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	p := dlqPublishing(msg, "mailtriage.review.q", "boom", now)

	assert.Equal(t, msg.Body, p.Body)
	assert.Equal(t, "m-1", p.MessageId)
	assert.Equal(t, amqp091.Persistent, p.DeliveryMode)
	assert.Equal(t, "t-1", p.Headers["trace_id"])
	assert.Equal(t, "boom", p.Headers["x-original-error"])
	assert.Equal(t, "mailtriage.review.q", p.Headers["x-failed-at"])
	assert.Equal(t, "2026-03-02T10:00:00Z", p.Headers["x-failed-time"])
	assert.NotContains(t, msg.Headers, "x-original-error")
}
