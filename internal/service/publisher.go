// Package service holds integrations the HTTP handlers call out to.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/edwanmarques/portfolio/internal/model"
	q "github.com/edwanmarques/portfolio/internal/queue"
)

// ContactPublisher publishes contact.received events to RabbitMQ. Each
// publish opens its own short-lived connection; contact traffic is low and
// this keeps the server free of broker reconnect state.
type ContactPublisher struct {
	URL         string
	DialTimeout time.Duration
}

func NewContactPublisher(url string) *ContactPublisher {
	return &ContactPublisher{URL: url, DialTimeout: 2 * time.Second}
}

// ContactReceived satisfies handler.ContactNotifier.
func (p *ContactPublisher) ContactReceived(ctx context.Context, m model.ContactMessage) error {
	return p.Publish(ctx, q.NewContactReceivedEvent(m))
}

// Publish sends event as a persistent JSON message on the default exchange.
// Errors are logged and returned so the caller can choose to ignore them.
func (p *ContactPublisher) Publish(ctx context.Context, event q.ContactReceivedEvent) error {
	if p == nil || p.URL == "" {
		return errors.New("rabbitmq: publisher not configured")
	}
	conn, err := amqp.DialConfig(p.URL, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(p.DialTimeout),
	})
	if err != nil {
		log.Printf("rabbitmq: dial failed: %v", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Printf("rabbitmq: channel open failed: %v", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	// Ensure the queue exists (idempotent). Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(q.ContactQueueName, true, false, false, false, nil); err != nil {
		log.Printf("rabbitmq: queue declare failed: %v", err)
		return err
	}

	pub, err := buildPublishing(event, time.Now())
	if err != nil {
		log.Printf("rabbitmq: marshal event failed: %v", err)
		return err
	}
	if err := ch.PublishWithContext(ctx, "", q.ContactQueueName, false, false, pub); err != nil {
		log.Printf("rabbitmq: publish failed: %v", err)
		return err
	}
	return nil
}

func buildPublishing(event q.ContactReceivedEvent, now time.Time) (amqp.Publishing, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return amqp.Publishing{}, err
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Type:         q.ContactQueueName,
		Timestamp:    now.UTC(),
		Body:         body,
	}, nil
}
