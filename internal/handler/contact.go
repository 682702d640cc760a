package handler

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/edwanmarques/portfolio/internal/model"
	"github.com/edwanmarques/portfolio/internal/repository"
)

// ContactNotifier is told about every stored contact message. Failures are
// logged by the handler and never reach the client.
type ContactNotifier interface {
	ContactReceived(ctx context.Context, msg model.ContactMessage) error
}

// notifyTimeout bounds one notification; it runs detached from the request.
const notifyTimeout = 10 * time.Second

type ContactHandler struct {
	Contacts      repository.ContactStore
	Notifier      ContactNotifier
	NotifyTimeout time.Duration

	pending sync.WaitGroup
}

func NewContactHandler(contacts repository.ContactStore, notifier ContactNotifier) *ContactHandler {
	return &ContactHandler{Contacts: contacts, Notifier: notifier, NotifyTimeout: notifyTimeout}
}

// Wait blocks until every notification started so far has finished.
func (h *ContactHandler) Wait() { h.pending.Wait() }

// notify hands msg to the notifier in the background so a slow or absent
// broker never delays the response.
func (h *ContactHandler) notify(logger echo.Logger, msg model.ContactMessage) {
	if h.Notifier == nil {
		return
	}
	timeout := h.NotifyTimeout
	if timeout <= 0 {
		timeout = notifyTimeout
	}
	h.pending.Add(1)
	go func() {
		defer h.pending.Done()
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := h.Notifier.ContactReceived(ctx, msg); err != nil {
			logger.Warnf("contact %d: notify: %v", msg.ID, err)
		}
	}()
}

// contactReq lists the only fields a client may set; id and createdAt in
// the payload are ignored.
type contactReq struct {
	Name    string `json:"name" validate:"required,min=3"`
	Email   string `json:"email" validate:"required,email"`
	Subject string `json:"subject" validate:"required,min=5"`
	Message string `json:"message" validate:"required,min=10"`
}

func (r *contactReq) normalize() { r.Email = strings.TrimSpace(r.Email) }

// Submit stores a public contact-form message.
func (h *ContactHandler) Submit(c echo.Context) error {
	var req contactReq
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ctx, cancel := storeCtx(c)
	defer cancel()

	msg := &model.ContactMessage{
		Name:    req.Name,
		Email:   req.Email,
		Subject: req.Subject,
		Message: req.Message,
	}
	if err := h.Contacts.Create(ctx, msg); err != nil {
		return internalError("Failed to process your request", err)
	}

	h.notify(c.Logger(), *msg)

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Message sent successfully!",
		"contact": msg,
	})
}

// List returns every stored message, newest first.
func (h *ContactHandler) List(c echo.Context) error {
	ctx, cancel := storeCtx(c)
	defer cancel()
	items, err := h.Contacts.List(ctx)
	if err != nil {
		return internalError("Failed to fetch contact messages", err)
	}
	return c.JSON(http.StatusOK, items)
}
