package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	q "github.com/mkarel/portfolio-api/internal/queue"
)

// AuditSink receives audit events for durable recording. Publishing is
// best-effort: the business operation that produced the event has already
// committed, so sink failures are logged and swallowed by callers.
type AuditSink interface {
	Publish(ctx context.Context, ev q.AuditEvent) error
}

// AMQPAuditPublisher publishes audit events to the account.audit queue on
// RabbitMQ. A connection is dialed per publish; audit volume is a handful
// of events per admin action, so pooling is not worth the bookkeeping.
type AMQPAuditPublisher struct{ URL string }

func NewAMQPAuditPublisher(url string) *AMQPAuditPublisher {
	return &AMQPAuditPublisher{URL: url}
}

// Publish sends one event, marked persistent, to the durable audit queue.
// Errors are logged and returned so the caller can choose to ignore them.
func (p *AMQPAuditPublisher) Publish(ctx context.Context, ev q.AuditEvent) error {
	conn, err := amqp.Dial(p.URL)
	if err != nil {
		log.Printf("audit: dial failed: %v", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Printf("audit: channel open failed: %v", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	// Idempotent declare; durable so events survive broker restarts.
	if _, err := ch.QueueDeclare(q.AuditQueueName, true, false, false, false, nil); err != nil {
		log.Printf("audit: queue declare failed: %v", err)
		return err
	}

	body, err := json.Marshal(ev)
	if err != nil {
		log.Printf("audit: marshal event failed: %v", err)
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", q.AuditQueueName, false, false, pub); err != nil {
		log.Printf("audit: publish failed: %v", err)
		return err
	}
	return nil
}
