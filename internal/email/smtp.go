package email

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/smtp"
	"strings"
	"time"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/ispeciadev/LocalMoves-Backend-sub000/internal/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

// =============================================================================
// SMTP Email Service Implementation
// =============================================================================

// SMTPEmailService sends emails via SMTP.
//
// This implementation works with:
// - Mailhog (development): No authentication required
// - Any authenticated SMTP relay (production)
//
// Email templates are embedded in the binary and rendered with Go's
// html/template package.
type SMTPEmailService struct {
	config    SMTPConfig
	baseURL   string
	templates *template.Template
	printer   *message.Printer
	logger    *slog.Logger
}

// NewSMTPEmailService creates a new SMTP-based email service.
//
// baseURL is the application's public URL used for links in email bodies,
// e.g. "http://localhost:8080".
func NewSMTPEmailService(config SMTPConfig, baseURL string, logger *slog.Logger) (*SMTPEmailService, error) {
	if config.From == "" {
		config.From = DefaultFromEmail
	}
	if config.FromName == "" {
		config.FromName = DefaultFromName
	}

	templates, err := template.New("email").ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse email templates: %w", err)
	}

	return &SMTPEmailService{
		config:    config,
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		templates: templates,
		printer:   message.NewPrinter(language.AmericanEnglish),
		logger:    logger,
	}, nil
}

// =============================================================================
// EmailService Interface Implementation
// =============================================================================

func (s *SMTPEmailService) SendRequestConfirmation(ctx context.Context, to, name, requestID, pickupAddress string) error {
	requestURL := fmt.Sprintf("%s/requests/%s", s.baseURL, requestID)

	data := map[string]interface{}{
		"Name":          name,
		"PickupAddress": pickupAddress,
		"RequestURL":    requestURL,
		"Year":          time.Now().Year(),
	}
	htmlBody, err := s.renderTemplate("request_confirmation.html", data)
	if err != nil {
		return fmt.Errorf("failed to render request confirmation template: %w", err)
	}

	textBody := fmt.Sprintf(`Hi %s,

We received your moving request from %s. Local moving companies in your
area can now review and accept it. Track progress here:

%s

Thanks,
The LocalMoves Team
`, name, pickupAddress, requestURL)

	return s.send(ctx, Email{
		To:       to,
		Subject:  "We received your moving request",
		HTMLBody: htmlBody,
		TextBody: textBody,
	})
}

func (s *SMTPEmailService) SendAssignmentNotification(ctx context.Context, to, name, requestID, companyName string) error {
	requestURL := fmt.Sprintf("%s/requests/%s", s.baseURL, requestID)

	data := map[string]interface{}{
		"Name":        name,
		"CompanyName": companyName,
		"RequestURL":  requestURL,
		"Year":        time.Now().Year(),
	}
	htmlBody, err := s.renderTemplate("assignment_notification.html", data)
	if err != nil {
		return fmt.Errorf("failed to render assignment notification template: %w", err)
	}

	textBody := fmt.Sprintf(`Hi %s,

Good news! %s has taken on your moving request. They will be in touch to
confirm the details and pricing. You can follow the status here:

%s

Thanks,
The LocalMoves Team
`, name, companyName, requestURL)

	return s.send(ctx, Email{
		To:       to,
		Subject:  companyName + " accepted your moving request",
		HTMLBody: htmlBody,
		TextBody: textBody,
	})
}

func (s *SMTPEmailService) SendNewJobNotification(ctx context.Context, to, name, requestID, postalCode string) error {
	boardURL := s.baseURL + "/manager/requests"

	data := map[string]interface{}{
		"Name":       name,
		"PostalCode": postalCode,
		"BoardURL":   boardURL,
		"Year":       time.Now().Year(),
	}
	htmlBody, err := s.renderTemplate("new_job.html", data)
	if err != nil {
		return fmt.Errorf("failed to render new job template: %w", err)
	}

	textBody := fmt.Sprintf(`Hi %s,

A customer directed a moving request in %s to your company and it has been
assigned to you. Review the details on your board:

%s

Thanks,
The LocalMoves Team
`, name, postalCode, boardURL)

	return s.send(ctx, Email{
		To:       to,
		Subject:  "New moving job assigned to your company",
		HTMLBody: htmlBody,
		TextBody: textBody,
	})
}

func (s *SMTPEmailService) SendUpgradePrompt(ctx context.Context, to, name string, plan domain.SubscriptionPlan, viewed, limit int) error {
	pricingURL := s.baseURL + "/pricing"

	data := map[string]interface{}{
		"Name":       name,
		"Plan":       plan.String(),
		"Viewed":     viewed,
		"Limit":      limit,
		"PricingURL": pricingURL,
		"Year":       time.Now().Year(),
	}
	htmlBody, err := s.renderTemplate("upgrade_prompt.html", data)
	if err != nil {
		return fmt.Errorf("failed to render upgrade prompt template: %w", err)
	}

	textBody := fmt.Sprintf(`Hi %s,

A customer just requested your company directly, but your %s plan has used
all %d of its monthly request views. The request is reserved for you: upgrade
your plan and reclaim it before another company picks it up.

%s

Thanks,
The LocalMoves Team
`, name, plan, limit, pricingURL)

	return s.send(ctx, Email{
		To:       to,
		Subject:  "A customer is waiting - your monthly quota is used up",
		HTMLBody: htmlBody,
		TextBody: textBody,
	})
}

func (s *SMTPEmailService) SendSubscriptionActivated(ctx context.Context, to, name string, plan domain.SubscriptionPlan, cycle domain.BillingCycle, endDate time.Time) error {
	price := s.formatPlanPrice(plan, cycle)
	renewal := endDate.Format("January 2, 2006")

	data := map[string]interface{}{
		"Name":    name,
		"Plan":    plan.String(),
		"Cycle":   string(cycle),
		"Price":   price,
		"Renewal": renewal,
		"Year":    time.Now().Year(),
	}
	htmlBody, err := s.renderTemplate("subscription_activated.html", data)
	if err != nil {
		return fmt.Errorf("failed to render subscription activated template: %w", err)
	}

	textBody := fmt.Sprintf(`Hi %s,

Your %s plan (%s, %s) is now active. A fresh view quota is available
immediately. The current billing period runs through %s.

Thanks,
The LocalMoves Team
`, name, plan, price, cycle, renewal)

	return s.send(ctx, Email{
		To:       to,
		Subject:  "Your LocalMoves subscription is active",
		HTMLBody: htmlBody,
		TextBody: textBody,
	})
}

// formatPlanPrice renders the plan's list price as a localized USD amount,
// e.g. "$29.00". Unknown combinations render as an empty price.
func (s *SMTPEmailService) formatPlanPrice(plan domain.SubscriptionPlan, cycle domain.BillingCycle) string {
	cents, ok := domain.PlanPrice(plan, cycle)
	if !ok {
		return "free"
	}
	amount := currency.USD.Amount(float64(cents) / 100)
	return s.printer.Sprintf("%v", currency.Symbol(amount))
}

// =============================================================================
// Internal Methods
// =============================================================================

// send sends an email via SMTP.
func (s *SMTPEmailService) send(ctx context.Context, email Email) error {
	msg := s.buildMessage(email)
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	// Mailhog takes no credentials.
	var auth smtp.Auth
	if s.config.Username != "" && s.config.Password != "" {
		auth = smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)
	}

	if err := smtp.SendMail(addr, auth, s.config.From, []string{email.To}, msg); err != nil {
		s.logger.Error("failed to send email",
			"to", email.To,
			"subject", email.Subject,
			"error", err,
		)
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Info("email sent",
		"to", email.To,
		"subject", email.Subject,
	)
	return nil
}

// buildMessage constructs the raw email message with headers.
func (s *SMTPEmailService) buildMessage(email Email) []byte {
	var buf bytes.Buffer

	fromHeader := fmt.Sprintf("%s <%s>", s.config.FromName, s.config.From)

	buf.WriteString(fmt.Sprintf("From: %s\r\n", fromHeader))
	buf.WriteString(fmt.Sprintf("To: %s\r\n", email.To))
	buf.WriteString(fmt.Sprintf("Subject: %s\r\n", email.Subject))
	buf.WriteString("MIME-Version: 1.0\r\n")

	// Multipart message for HTML + text
	boundary := "===============LOCALMOVES_BOUNDARY==============="
	buf.WriteString(fmt.Sprintf("Content-Type: multipart/alternative; boundary=\"%s\"\r\n", boundary))
	buf.WriteString("\r\n")

	buf.WriteString(fmt.Sprintf("--%s\r\n", boundary))
	buf.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	buf.WriteString("Content-Transfer-Encoding: quoted-printable\r\n")
	buf.WriteString("\r\n")
	buf.WriteString(email.TextBody)
	buf.WriteString("\r\n")

	buf.WriteString(fmt.Sprintf("--%s\r\n", boundary))
	buf.WriteString("Content-Type: text/html; charset=utf-8\r\n")
	buf.WriteString("Content-Transfer-Encoding: quoted-printable\r\n")
	buf.WriteString("\r\n")
	buf.WriteString(email.HTMLBody)
	buf.WriteString("\r\n")

	buf.WriteString(fmt.Sprintf("--%s--\r\n", boundary))

	return buf.Bytes()
}

// renderTemplate renders an email template with the given data.
func (s *SMTPEmailService) renderTemplate(name string, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// =============================================================================
// Compile-time interface check
// =============================================================================

var _ EmailService = (*SMTPEmailService)(nil)
