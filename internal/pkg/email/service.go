// internal/pkg/email/service.go
package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront/internal/config"
)

// Sender delivers a rendered email
type Sender interface {
	Send(ctx context.Context, email *Email) error
}

// EmailService renders and sends storefront emails
type EmailService struct {
	config    *config.Config
	templates map[EmailType]*template.Template
	sender    Sender
	logger    *logrus.Logger
}

// NewEmailService creates an email service. SMTP is used when email is
// enabled, otherwise messages are only logged.
func NewEmailService(cfg *config.Config, logger *logrus.Logger) (*EmailService, error) {
	var sender Sender
	if cfg.External.Email.Enabled {
		sender = NewSMTPSender(cfg.External.Email)
	} else {
		sender = &logSender{logger: logger}
	}
	return NewEmailServiceWithSender(cfg, sender, logger)
}

// NewEmailServiceWithSender creates an email service over any sender
func NewEmailServiceWithSender(cfg *config.Config, sender Sender, logger *logrus.Logger) (*EmailService, error) {
	templates, err := parseTemplates()
	if err != nil {
		return nil, fmt.Errorf("failed to parse email templates: %w", err)
	}

	return &EmailService{
		config:    cfg,
		templates: templates,
		sender:    sender,
		logger:    logger,
	}, nil
}

// SendWelcomeEmail greets a newly registered customer
func (s *EmailService) SendWelcomeEmail(ctx context.Context, userEmail, userName string) error {
	data := s.baseData(userName, userEmail)
	return s.send(ctx, EmailTypeWelcome, userEmail, fmt.Sprintf("Welcome to %s!", s.config.App.Name), data)
}

// SendTemporaryPasswordEmail mails a freshly generated password
func (s *EmailService) SendTemporaryPasswordEmail(ctx context.Context, userEmail, userName, password string) error {
	data := TemporaryPasswordData{
		EmailTemplateData: s.baseData(userName, userEmail),
		Password:          password,
		LoginURL:          s.config.App.BaseURL + "/login",
	}
	return s.send(ctx, EmailTypeTemporaryPassword, userEmail, "Your new password", data)
}

// SendOrderConfirmationEmail sends order confirmation email
func (s *EmailService) SendOrderConfirmationEmail(ctx context.Context, data OrderConfirmationData) error {
	data.EmailTemplateData = s.baseData(data.UserName, data.UserEmail)
	subject := fmt.Sprintf("Order Confirmation - %s", data.OrderNumber)
	return s.send(ctx, EmailTypeOrderConfirmation, data.UserEmail, subject, data)
}

// SendPaymentSuccessEmail sends payment success notification
func (s *EmailService) SendPaymentSuccessEmail(ctx context.Context, data PaymentNotificationData) error {
	data.EmailTemplateData = s.baseData(data.UserName, data.UserEmail)
	subject := fmt.Sprintf("Payment Successful - %s", data.OrderNumber)
	return s.send(ctx, EmailTypePaymentSuccess, data.UserEmail, subject, data)
}

// SendPaymentFailedEmail sends payment failure notification
func (s *EmailService) SendPaymentFailedEmail(ctx context.Context, data PaymentNotificationData) error {
	data.EmailTemplateData = s.baseData(data.UserName, data.UserEmail)
	subject := fmt.Sprintf("Payment Failed - %s", data.OrderNumber)
	return s.send(ctx, EmailTypePaymentFailed, data.UserEmail, subject, data)
}

func (s *EmailService) baseData(userName, userEmail string) EmailTemplateData {
	return GetBaseTemplateData(s.config.App.Name, s.config.App.BaseURL, userName, userEmail)
}

func (s *EmailService) send(ctx context.Context, kind EmailType, to, subject string, data interface{}) error {
	html, err := s.renderTemplate(kind, data)
	if err != nil {
		return err
	}

	msg := &Email{
		To:          []string{to},
		Subject:     subject,
		HTMLContent: html,
		Type:        kind,
	}
	if err := s.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("failed to send %s email: %w", kind, err)
	}
	return nil
}

// renderTemplate renders an email template with data
func (s *EmailService) renderTemplate(kind EmailType, data interface{}) (string, error) {
	tmpl, exists := s.templates[kind]
	if !exists {
		return "", fmt.Errorf("template %s not found", kind)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", kind, err)
	}

	return buf.String(), nil
}

// logSender only logs emails, used when delivery is disabled
type logSender struct {
	logger *logrus.Logger
}

func (l *logSender) Send(ctx context.Context, email *Email) error {
	l.logger.WithFields(logrus.Fields{
		"to":      email.To,
		"subject": email.Subject,
		"type":    email.Type,
	}).Info("Email delivery disabled, message not sent")
	return nil
}
