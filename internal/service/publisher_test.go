package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/edwanmarques/portfolio/internal/model"
	q "github.com/edwanmarques/portfolio/internal/queue"
)

func TestBuildPublishing(t *testing.T) {
	ev := q.NewContactReceivedEvent(model.ContactMessage{ID: 9, Name: "Ana", Email: "a@b.c", Subject: "Hello", Message: "0123456789", CreatedAt: time.Now()})
	pub, err := buildPublishing(ev, time.Now())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if pub.DeliveryMode != amqp.Persistent || pub.ContentType != "application/json" {
		t.Fatalf("publishing = %+v", pub)
	}
	if _, err := uuid.Parse(pub.MessageId); err != nil {
		t.Fatalf("message id %q: %v", pub.MessageId, err)
	}
	var back q.ContactReceivedEvent
	if err := json.Unmarshal(pub.Body, &back); err != nil || back.ContactID != 9 {
		t.Fatalf("body %s: %v", pub.Body, err)
	}
}

func TestPublishUnconfigured(t *testing.T) {
	var p *ContactPublisher
	if err := p.Publish(context.Background(), q.ContactReceivedEvent{}); err == nil {
		t.Fatalf("nil publisher must error")
	}
	if err := NewContactPublisher("").ContactReceived(context.Background(), model.ContactMessage{}); err == nil {
		t.Fatalf("empty url must error")
	}
}
