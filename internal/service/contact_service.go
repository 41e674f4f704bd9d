package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"

	"trackify/api/internal/domain"
	"trackify/api/internal/mailer"
	"trackify/api/internal/metrics"
	"trackify/api/internal/repository"

	"github.com/rs/zerolog"
)

const maxContactMessageLength = 5000

type ContactInput struct {
	Name    string
	Email   string
	Subject string
	Message string
}

type ContactService interface {
	// Submit stores the message and forwards it to the support inbox.
	// A failed forward does not fail the submission.
	Submit(ctx context.Context, in ContactInput) (*domain.ContactMessage, error)
	List(ctx context.Context, requester *domain.Principal) ([]domain.ContactMessage, error)
}

type contactService struct {
	contacts repository.ContactRepository
	notify   notifier
	inbox    string
}

func NewContactService(contacts repository.ContactRepository, sender mailer.Sender, m *metrics.Metrics, inbox string, logger zerolog.Logger) ContactService {
	return &contactService{
		contacts: contacts,
		notify:   notifier{sender: sender, metrics: m, log: logger},
		inbox:    inbox,
	}
}

func (s *contactService) Submit(ctx context.Context, in ContactInput) (*domain.ContactMessage, error) {
	msg := &domain.ContactMessage{
		Name:    strings.TrimSpace(in.Name),
		Email:   domain.NormalizeEmail(in.Email),
		Subject: strings.TrimSpace(in.Subject),
		Message: strings.TrimSpace(in.Message),
		Status:  domain.ContactStatusNew,
	}

	fields := map[string]string{}
	if msg.Name == "" {
		fields["name"] = "is required"
	}
	if msg.Email == "" {
		fields["email"] = "is required"
	} else if _, err := mail.ParseAddress(msg.Email); err != nil {
		fields["email"] = "must be a valid email address"
	}
	if msg.Message == "" {
		fields["message"] = "is required"
	} else if utf8.RuneCountInString(msg.Message) > maxContactMessageLength {
		fields["message"] = fmt.Sprintf("must be at most %d characters", maxContactMessageLength)
	}
	if len(fields) > 0 {
		return nil, ValidationError(fields)
	}

	if _, err := s.contacts.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("store contact message: %w", err)
	}

	subject := msg.Subject
	if subject == "" {
		subject = "New contact message"
	}
	s.notify.deliver(ctx, mailer.Message{
		To:      s.inbox,
		Subject: "[Contact] " + subject,
		Text:    fmt.Sprintf("From: %s <%s>\n\n%s", msg.Name, msg.Email, msg.Message),
	}, "contact")
	return msg, nil
}

func (s *contactService) List(ctx context.Context, requester *domain.Principal) ([]domain.ContactMessage, error) {
	if err := requirePermission(requester, domain.PermManageUsers); err != nil {
		return nil, err
	}
	msgs, err := s.contacts.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list contact messages: %w", err)
	}
	return msgs, nil
}
