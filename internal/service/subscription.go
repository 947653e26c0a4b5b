// Package service contains the business logic layer.
//
// This file implements the subscription service: activity checks, view-limit
// checks, the payment-to-subscription bridge, and the scheduled bulk
// operations on the monthly view counters.
package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ispeciadev/LocalMoves-Backend-sub000/internal/domain"
	"github.com/ispeciadev/LocalMoves-Backend-sub000/internal/email"
	"github.com/ispeciadev/LocalMoves-Backend-sub000/internal/metrics"
	"github.com/ispeciadev/LocalMoves-Backend-sub000/internal/repository"
)

// =============================================================================
// Interface Definition
// =============================================================================

// SubscriptionService defines operations on company subscription state.
type SubscriptionService interface {
	// Status reports whether a company's subscription is currently active.
	// Side-effect free. A nil company ID yields the no_company reason.
	Status(ctx context.Context, companyID *uuid.UUID) (domain.SubscriptionStatus, error)

	// CheckViewLimit evaluates the company's monthly view quota.
	// An inactive subscription denies with a zero limit; the premium plan
	// always allows with an unlimited sentinel.
	CheckViewLimit(ctx context.Context, companyID uuid.UUID) (domain.ViewLimit, error)

	// ApplyPaymentSuccess is the payment-to-subscription bridge: on a paid
	// subscription payment it installs the new plan, computes the billing
	// window, reactivates the company, and resets the view counter so a
	// fresh quota period begins immediately.
	ApplyPaymentSuccess(ctx context.Context, companyID uuid.UUID, plan domain.SubscriptionPlan, cycle domain.BillingCycle) (*domain.Company, error)

	// ResetAllViewCounts zeroes every company's monthly counter in one
	// atomic bulk update. Scheduler-invoked, idempotent.
	ResetAllViewCounts(ctx context.Context) (int64, error)

	// CheckExpiry demotes companies with a passed subscription end date back
	// to the free plan in one atomic bulk update. Companies stay active; the
	// lower limit takes effect at the next reconciliation sweep.
	// Scheduler-invoked, idempotent.
	CheckExpiry(ctx context.Context) (int64, error)
}

// =============================================================================
// Implementation
// =============================================================================

type subscriptionService struct {
	queries *repository.Queries
	email   email.EmailService // may be nil; notifications are best-effort
	logger  *slog.Logger
}

// NewSubscriptionService creates a new SubscriptionService.
func NewSubscriptionService(queries *repository.Queries, emailService email.EmailService, logger *slog.Logger) SubscriptionService {
	return &subscriptionService{
		queries: queries,
		email:   emailService,
		logger:  logger,
	}
}

// Status reports whether a company's subscription is currently active.
func (s *subscriptionService) Status(ctx context.Context, companyID *uuid.UUID) (domain.SubscriptionStatus, error) {
	const op = "subscription.status"

	if companyID == nil {
		return domain.SubscriptionStatus{
			Active:  false,
			Reason:  domain.SubscriptionReasonNoCompany,
			Message: "No company is associated with this account.",
		}, nil
	}

	row, err := s.queries.GetCompanyByID(ctx, *companyID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.SubscriptionStatus{
				Active:  false,
				Reason:  domain.SubscriptionReasonNotFound,
				Message: "Company not found.",
			}, nil
		}
		return domain.SubscriptionStatus{}, domain.Internal(err, op, "failed to load company")
	}

	company := RepoCompanyToDomain(row)
	return company.CheckSubscription(time.Now()), nil
}

// CheckViewLimit evaluates the company's monthly view quota.
func (s *subscriptionService) CheckViewLimit(ctx context.Context, companyID uuid.UUID) (domain.ViewLimit, error) {
	const op = "subscription.check_view_limit"

	row, err := s.queries.GetCompanyByID(ctx, companyID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ViewLimit{
				Subscription: domain.SubscriptionStatus{
					Active:  false,
					Reason:  domain.SubscriptionReasonNotFound,
					Message: "Company not found.",
				},
			}, nil
		}
		return domain.ViewLimit{}, domain.Internal(err, op, "failed to load company")
	}

	company := RepoCompanyToDomain(row)
	return company.CheckViewLimit(time.Now()), nil
}

// ApplyPaymentSuccess installs a paid plan on the company.
func (s *subscriptionService) ApplyPaymentSuccess(ctx context.Context, companyID uuid.UUID, plan domain.SubscriptionPlan, cycle domain.BillingCycle) (*domain.Company, error) {
	const op = "subscription.apply_payment"

	if !plan.IsValid() {
		return nil, domain.Invalid(op, "unknown subscription plan: "+plan.String())
	}
	if !cycle.IsValid() {
		return nil, domain.Invalid(op, "unknown billing cycle: "+string(cycle))
	}

	start, end := domain.BillingWindow(time.Now(), cycle)

	params := repository.UpdateCompanySubscriptionParams{
		ID:                    companyID,
		SubscriptionPlan:      plan.String(),
		SubscriptionStartDate: start,
	}
	// The free plan has no end date; paid plans expire at the window end.
	if plan != domain.PlanFree {
		params.SubscriptionEndDate = sql.NullTime{Time: end, Valid: true}
	}

	row, err := s.queries.UpdateCompanySubscription(ctx, params)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "company", companyID.String())
		}
		return nil, domain.Internal(err, op, "failed to update subscription")
	}

	company := RepoCompanyToDomain(row)
	s.logger.Info("subscription activated",
		"company_id", company.ID,
		"company", company.Name,
		"plan", plan,
		"cycle", cycle,
		"valid_until", end.Format("2006-01-02"),
	)
	metrics.SubscriptionsActivated.WithLabelValues(plan.String()).Inc()
	s.notifyActivated(ctx, company, plan, cycle, end)

	return company, nil
}

// notifyActivated sends the activation confirmation to the company manager.
// Failures are logged and never fail the committed subscription update.
func (s *subscriptionService) notifyActivated(ctx context.Context, company *domain.Company, plan domain.SubscriptionPlan, cycle domain.BillingCycle, end time.Time) {
	if s.email == nil {
		return
	}
	manager, err := s.queries.GetUserByID(ctx, company.ManagerID)
	if err != nil {
		s.logger.Warn("failed to load manager for activation email", "company_id", company.ID, "error", err)
		return
	}
	sendCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.email.SendSubscriptionActivated(sendCtx, manager.Email, manager.Name, plan, cycle, end); err != nil {
		s.logger.Warn("failed to send activation email", "company_id", company.ID, "error", err)
	}
}

// ResetAllViewCounts zeroes every company's monthly counter.
func (s *subscriptionService) ResetAllViewCounts(ctx context.Context) (int64, error) {
	const op = "subscription.reset_view_counts"

	count, err := s.queries.ResetAllViewCounts(ctx)
	if err != nil {
		return 0, domain.Internal(err, op, "failed to reset view counters")
	}

	metrics.ViewCountersReset.Add(float64(count))
	s.logger.Info("monthly view counters reset", "companies", count)
	return count, nil
}

// CheckExpiry demotes companies whose subscription window has passed.
func (s *subscriptionService) CheckExpiry(ctx context.Context) (int64, error) {
	const op = "subscription.check_expiry"

	count, err := s.queries.DowngradeExpiredCompanies(ctx, domain.PlanFree.String())
	if err != nil {
		return 0, domain.Internal(err, op, "failed to downgrade expired subscriptions")
	}

	if count > 0 {
		s.logger.Info("expired subscriptions downgraded", "companies", count)
		metrics.SubscriptionsExpired.Add(float64(count))
	}
	return count, nil
}

// =============================================================================
// Conversion helpers
// =============================================================================

// RepoCompanyToDomain converts a repository.Company to domain.Company.
func RepoCompanyToDomain(c repository.Company) *domain.Company {
	return &domain.Company{
		ID:                      c.ID,
		Name:                    c.Name,
		ManagerID:               c.ManagerID,
		PrimaryPostalCode:       c.PrimaryPostalCode,
		PostalCodes:             c.PostalCodes,
		SubscriptionPlan:        domain.SubscriptionPlan(c.SubscriptionPlan),
		SubscriptionStartDate:   c.SubscriptionStartDate,
		SubscriptionEndDate:     domain.NullTimeValue(c.SubscriptionEndDate),
		IsActive:                c.IsActive,
		RequestsViewedThisMonth: int(c.RequestsViewedThisMonth),
		StripeCustomerID:        domain.NullStringValue(c.StripeCustomerID),
		CreatedAt:               c.CreatedAt,
		UpdatedAt:               c.UpdatedAt,
	}
}
