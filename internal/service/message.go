package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/davybookzone/server/internal/domain"
	"github.com/davybookzone/server/internal/event"
	"github.com/davybookzone/server/internal/mailer"
	"github.com/davybookzone/server/internal/repository"
)

// MessageService manages the contact inbox. Email notifications are fire
// and forget; a relay outage never fails the operation.
type MessageService struct {
	messages   repository.MessageRepository
	notifier   *mailer.Notifier
	events     *event.Producer
	adminEmail string
	logger     *slog.Logger

	now func() time.Time
}

// NewMessageService creates the contact inbox service.
func NewMessageService(
	messages repository.MessageRepository,
	notifier *mailer.Notifier,
	events *event.Producer,
	adminEmail string,
	logger *slog.Logger,
) *MessageService {
	return &MessageService{
		messages:   messages,
		notifier:   notifier,
		events:     events,
		adminEmail: adminEmail,
		logger:     logger.With(slog.String("component", "message_service")),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// CreateMessageInput is the public contact-form payload.
type CreateMessageInput struct {
	From    string `json:"from" validate:"required,max=100"`
	Email   string `json:"email" validate:"required,email"`
	Subject string `json:"subject" validate:"required,max=200"`
	Content string `json:"content" validate:"required,max=2000"`
}

// Create records an inbound message and notifies the admin by email.
func (s *MessageService) Create(ctx context.Context, in *CreateMessageInput) (*domain.Message, error) {
	now := s.now()
	msg := &domain.Message{
		ID:        uuid.New().String(),
		From:      in.From,
		Email:     in.Email,
		Subject:   in.Subject,
		Content:   in.Content,
		Priority:  domain.PriorityMedium,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}

	s.notifier.Notify(&mailer.Email{
		To:      s.adminEmail,
		Subject: "Nouveau message: " + msg.Subject,
		Body:    fmt.Sprintf("De: %s <%s>\n\n%s", msg.From, msg.Email, msg.Content),
	})
	s.events.MessageReceived(ctx, msg)

	s.logger.InfoContext(ctx, "message received", slog.String("message_id", msg.ID))
	return msg, nil
}

// List returns messages for the admin inbox, optionally filtered by read
// status, newest first.
func (s *MessageService) List(ctx context.Context, isRead *bool, limit, offset int) ([]*domain.Message, int, error) {
	messages, total, err := s.messages.List(ctx, isRead, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list messages: %w", err)
	}
	return messages, total, nil
}

// MarkRead flags a message as read by the given admin.
func (s *MessageService) MarkRead(ctx context.Context, id, adminID string) (*domain.Message, error) {
	msg, err := s.messages.MarkRead(ctx, id, adminID, s.now())
	if err != nil {
		return nil, fmt.Errorf("mark message read: %w", err)
	}
	return msg, nil
}

// Reply attaches an admin response to a message and emails the sender.
func (s *MessageService) Reply(ctx context.Context, id, content, adminID string) (*domain.Message, error) {
	msg, err := s.messages.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load message: %w", err)
	}

	resp := &domain.MessageResponse{
		Content: content,
		SentAt:  s.now(),
		SentBy:  adminID,
	}

	if err := s.messages.SetResponse(ctx, id, resp); err != nil {
		return nil, fmt.Errorf("store response: %w", err)
	}

	msg.Response = resp
	msg.IsRead = true
	msg.ReadAt = &resp.SentAt
	msg.ReadBy = adminID

	s.notifier.Notify(&mailer.Email{
		To:      msg.Email,
		Subject: "Re: " + msg.Subject,
		Body:    content,
	})

	s.logger.InfoContext(ctx, "message replied", slog.String("message_id", id))
	return msg, nil
}
