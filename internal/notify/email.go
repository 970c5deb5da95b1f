// Package notify delivers recruiter-facing notifications about captured
// leads. Email transport is pluggable (SendGrid, SES, stub).
package notify

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/coopentrega/recruiting-ai-platform/internal/leads"
	"github.com/coopentrega/recruiting-ai-platform/pkg/logging"
)

// EmailSender defines the interface for sending emails.
// Implementations can be swapped (SendGrid, SES) without changing callers.
type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// EmailMessage represents an email to be sent.
type EmailMessage struct {
	To      string
	Subject string
	Body    string
}

// SendGridSender sends emails via the SendGrid API.
type SendGridSender struct {
	client    *sendgrid.Client
	fromEmail string
	fromName  string
	logger    *logging.Logger
}

// SendGridConfig holds configuration for SendGrid.
type SendGridConfig struct {
	APIKey    string
	FromEmail string
	FromName  string
}

// NewSendGridSender creates a new SendGrid email sender. Returns nil when no
// API key is configured.
func NewSendGridSender(cfg SendGridConfig, logger *logging.Logger) *SendGridSender {
	if cfg.APIKey == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.FromName == "" {
		cfg.FromName = "CoopEntrega"
	}
	return &SendGridSender{
		client:    sendgrid.NewSendClient(cfg.APIKey),
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
		logger:    logger,
	}
}

// Send sends an email via SendGrid.
func (s *SendGridSender) Send(ctx context.Context, msg EmailMessage) error {
	if s.client == nil {
		return fmt.Errorf("notify: sendgrid client not configured")
	}
	from := mail.NewEmail(s.fromName, s.fromEmail)
	to := mail.NewEmail("", msg.To)
	message := mail.NewSingleEmail(from, msg.Subject, to, msg.Body, msg.Body)

	response, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("notify: sendgrid send failed: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("notify: sendgrid returned status %d", response.StatusCode)
	}
	s.logger.Info("email sent via sendgrid", "to", msg.To, "subject", msg.Subject)
	return nil
}

// LeadNotifier emails recruiters when an approved lead completes the funnel.
type LeadNotifier struct {
	sender EmailSender
	to     string
}

// NewLeadNotifier creates a notifier. Returns nil when sender or recipient is
// missing so wiring can pass it straight through.
func NewLeadNotifier(sender EmailSender, recruiterEmail string) *LeadNotifier {
	if sender == nil || recruiterEmail == "" {
		return nil
	}
	return &LeadNotifier{sender: sender, to: recruiterEmail}
}

// LeadCaptured implements leads.Notifier.
func (n *LeadNotifier) LeadCaptured(ctx context.Context, lead leads.Lead, protocol string) error {
	subject := fmt.Sprintf("Novo candidato aprovado — %s", protocol)
	body := fmt.Sprintf(
		"Candidato: %s\nTelefone: %s\nNota: %d/5\nProtocolo: %s\n\nResumo da avaliação:\n%s\n",
		lead.Name, lead.Phone, lead.Score, protocol, lead.Summary,
	)
	return n.sender.Send(ctx, EmailMessage{To: n.to, Subject: subject, Body: body})
}
