package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"mailtriage/pkg/trace"
	"mailtriage/pkg/util"
)

// DefaultMaxRetries 超过次数后消息进入死信队列
const DefaultMaxRetries = 3

type MessageHandler func(ctx context.Context, data json.RawMessage) error

type Consumer struct {
	name       string
	channel    *amqp091.Channel
	queue      amqp091.Queue
	routingKey string
	handler    MessageHandler
	conn       *amqp091.Connection
	logger     *zap.Logger
	retries    *util.RetryCounter
	maxRetries int64
}

// NewConsumer creates a consumer for a specific routing key. Messages that
// keep failing are moved to the routing key's dead letter queue.
func NewConsumer(url, queueName, routingKey string, logger *zap.Logger) (*Consumer, error) {
	conn, err := NewConnection(url, "mailtriage-consumer-"+queueName)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	c := &Consumer{
		name:       queueName,
		conn:       conn,
		channel:    ch,
		routingKey: routingKey,
		logger:     logger,
		maxRetries: DefaultMaxRetries,
	}
	if err := c.declare(queueName); err != nil {
		c.Close()
		return nil, err
	}

	logger.Info("Consumer initialized",
		zap.String("routing_key", routingKey),
		zap.String("queue", queueName),
		zap.String("exchange", ExchangeName),
	)
	return c, nil
}

func (c *Consumer) declare(queueName string) error {
	if err := DeclareExchange(c.channel); err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}
	if err := DeclareDLQExchange(c.channel); err != nil {
		return fmt.Errorf("failed to declare DLQ exchange: %w", err)
	}
	if _, err := DeclareDLQQueue(c.channel, c.routingKey); err != nil {
		return err
	}

	q, err := c.channel.QueueDeclare(queueName, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}
	if err := c.channel.QueueBind(q.Name, c.routingKey, ExchangeName, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue: %w", err)
	}
	c.queue = q
	return nil
}

func (c *Consumer) SetHandler(h MessageHandler) {
	c.handler = h
}

// SetRetryCounter 启用重试计数；未设置时失败消息直接进入死信队列
func (c *Consumer) SetRetryCounter(r *util.RetryCounter, maxRetries int64) {
	c.retries = r
	if maxRetries > 0 {
		c.maxRetries = maxRetries
	}
}

func (c *Consumer) Close() {
	if c.channel != nil {
		_ = c.channel.Close()
	}
	if c.conn != nil {
		_ = c.conn.Close()
	}
}

// StartConsuming blocks until ctx is done or the delivery channel closes.
func (c *Consumer) StartConsuming(ctx context.Context) error {
	if c.handler == nil {
		return fmt.Errorf("consumer handler not set")
	}

	deliveries, err := c.channel.Consume(
		c.queue.Name,
		c.name,
		false, // 手动ack
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	c.logger.Info("Consumer started consuming messages",
		zap.String("routing_key", c.routingKey),
		zap.String("queue", c.queue.Name),
	)

	for {
		select {
		case <-ctx.Done():
			_ = c.channel.Cancel(c.name, false)
			return nil
		case msg, ok := <-deliveries:
			if !ok {
				return nil
			}
			c.handle(ctx, msg)
		}
	}
}

// handle 保证每条消息都会被 ack 或 nack
func (c *Consumer) handle(ctx context.Context, msg amqp091.Delivery) {
	if id, ok := msg.Headers["trace_id"].(string); ok {
		ctx = trace.WithContext(ctx, id)
	}
	log := c.logger.With(
		zap.String("routing_key", c.routingKey),
		zap.String("message_id", msg.MessageId),
		zap.String("trace_id", trace.FromContext(ctx)),
	)

	err := func() (err error) {
		// Panic 恢复：确保即使 handler panic 也能正确处理消息
		defer func() {
			if r := recover(); r != nil {
				log.Error("Handler panic recovered", zap.Any("panic", r))
				err = fmt.Errorf("handler panic: %v", r)
			}
		}()
		return c.handler(ctx, msg.Body)
	}()

	if err == nil {
		if err := msg.Ack(false); err != nil {
			log.Error("Failed to ack message", zap.Error(err))
		}
		_ = c.retries.Reset(ctx, util.FormatRetryKey(c.name, msg.MessageId))
		return
	}

	log.Error("Handler error", zap.Error(err))
	if c.shouldRetry(ctx, msg) {
		// 业务失败 → 拒绝消息并重新入队，让 MQ 重试
		if err := msg.Nack(false, true); err != nil {
			log.Error("Failed to nack message", zap.Error(err))
		}
		return
	}

	if dlqErr := publishToDLQ(ctx, c.channel, c.routingKey, dlqPublishing(msg, c.name, err.Error(), time.Now())); dlqErr != nil {
		log.Error("Failed to publish to DLQ, requeueing", zap.Error(dlqErr))
		_ = msg.Nack(false, true)
		return
	}
	log.Warn("Message moved to DLQ", zap.String("dlq", DLQQueueName(c.routingKey)))
	_ = msg.Ack(false)
}

func (c *Consumer) shouldRetry(ctx context.Context, msg amqp091.Delivery) bool {
	if c.retries == nil || msg.MessageId == "" {
		return false
	}
	count, err := c.retries.IncrementAndGet(ctx, util.FormatRetryKey(c.name, msg.MessageId))
	if err != nil {
		c.logger.Warn("Retry counter unavailable, requeueing", zap.Error(err))
		return true
	}
	return count < c.maxRetries
}
