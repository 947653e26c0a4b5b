// Package email provides email sending functionality for LocalMoves.
//
// This package defines an EmailService interface with an SMTP implementation
// that works with Mailhog in development and any authenticated SMTP relay in
// production. All notifications sent through it are best-effort: callers log
// failures and never fail the operation that triggered them.
package email

import (
	"context"
	"time"

	"github.com/ispeciadev/LocalMoves-Backend-sub000/internal/domain"
)

// =============================================================================
// Interface Definition
// =============================================================================

// EmailService defines the interface for sending transactional emails.
type EmailService interface {
	// SendRequestConfirmation confirms to a customer that their moving
	// request was received.
	SendRequestConfirmation(ctx context.Context, to, name, requestID, pickupAddress string) error

	// SendAssignmentNotification tells a customer which company took their
	// request.
	SendAssignmentNotification(ctx context.Context, to, name, requestID, companyName string) error

	// SendNewJobNotification tells a company manager that a request was
	// assigned to their company.
	SendNewJobNotification(ctx context.Context, to, name, requestID, postalCode string) error

	// SendUpgradePrompt tells a manager that a request was reserved for
	// their company but could not be assigned because the monthly view
	// quota is exhausted.
	SendUpgradePrompt(ctx context.Context, to, name string, plan domain.SubscriptionPlan, viewed, limit int) error

	// SendSubscriptionActivated confirms a successful plan purchase,
	// including the formatted price and the end of the billing window.
	SendSubscriptionActivated(ctx context.Context, to, name string, plan domain.SubscriptionPlan, cycle domain.BillingCycle, endDate time.Time) error
}

// =============================================================================
// Email Data Types
// =============================================================================

// Email represents a single email message.
type Email struct {
	To       string // Recipient email address
	Subject  string // Email subject line
	HTMLBody string // HTML content of the email
	TextBody string // Plain text fallback content
}

// =============================================================================
// Configuration Types
// =============================================================================

// SMTPConfig holds SMTP server configuration.
type SMTPConfig struct {
	Host     string // SMTP server hostname (e.g., "localhost" for Mailhog)
	Port     int    // SMTP server port (e.g., 1025 for Mailhog)
	Username string // SMTP authentication username (empty for Mailhog)
	Password string // SMTP authentication password (empty for Mailhog)
	From     string // Default sender email address
	FromName string // Default sender display name
}

// =============================================================================
// Common Constants
// =============================================================================

const (
	// DefaultFromEmail is the default sender email for transactional emails.
	DefaultFromEmail = "noreply@localmoves.example"

	// DefaultFromName is the default sender display name.
	DefaultFromName = "LocalMoves"
)
