// Package queue defines message payloads exchanged over the message broker
// and the consumer that records them.
package queue

import (
	"time"

	"github.com/edwanmarques/portfolio/internal/model"
)

// ContactQueueName is the durable queue carrying ContactReceivedEvent.
const ContactQueueName = "contact.received"

// ContactReceivedEvent is published after a contact message is stored so
// downstream consumers can notify the owner without reading the database.
type ContactReceivedEvent struct {
	ContactID  uint64 `json:"contact_id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Subject    string `json:"subject"`
	Message    string `json:"message"`
	ReceivedAt string `json:"received_at"`
}

// NewContactReceivedEvent builds the event for a stored message.
func NewContactReceivedEvent(m model.ContactMessage) ContactReceivedEvent {
	return ContactReceivedEvent{
		ContactID:  m.ID,
		Name:       m.Name,
		Email:      m.Email,
		Subject:    m.Subject,
		Message:    m.Message,
		ReceivedAt: m.CreatedAt.UTC().Format(time.RFC3339),
	}
}
