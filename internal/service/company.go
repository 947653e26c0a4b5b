package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/ispeciadev/LocalMoves-Backend-sub000/internal/domain"
	"github.com/ispeciadev/LocalMoves-Backend-sub000/internal/repository"
)

// =============================================================================
// Interface Definition
// =============================================================================

// CompanyService defines the interface for company registration and lookup.
type CompanyService interface {
	// Register creates the company for a manager account. Each manager owns
	// at most one company; names are globally unique. New companies start on
	// the free plan, active.
	// Returns domain.ECONFLICT on a duplicate name or a second registration.
	Register(ctx context.Context, params domain.RegisterCompanyParams) (*domain.Company, error)

	// GetByID retrieves a company by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Company, error)

	// GetByManagerID retrieves the company owned by a manager.
	GetByManagerID(ctx context.Context, managerID uuid.UUID) (*domain.Company, error)

	// GetByName retrieves a company by its unique name.
	GetByName(ctx context.Context, name string) (*domain.Company, error)

	// GetByStripeCustomerID resolves a Stripe customer reference back to the
	// company. Used by webhook processing.
	GetByStripeCustomerID(ctx context.Context, stripeCustomerID string) (*domain.Company, error)

	// AttachStripeCustomer stores the Stripe customer reference so webhook
	// events can be routed back to the company.
	AttachStripeCustomer(ctx context.Context, companyID uuid.UUID, stripeCustomerID string) error
}

// =============================================================================
// Implementation
// =============================================================================

type companyService struct {
	queries *repository.Queries
	logger  *slog.Logger
}

// NewCompanyService creates a new CompanyService.
func NewCompanyService(queries *repository.Queries, logger *slog.Logger) CompanyService {
	return &companyService{
		queries: queries,
		logger:  logger,
	}
}

func (s *companyService) Register(ctx context.Context, params domain.RegisterCompanyParams) (*domain.Company, error) {
	const op = "company.register"

	params.Name = strings.TrimSpace(params.Name)
	params.PrimaryPostalCode = normalizePostalCode(params.PrimaryPostalCode)

	if params.Name == "" {
		return nil, domain.Invalid(op, "Company name is required")
	}
	if params.PrimaryPostalCode == "" {
		return nil, domain.Invalid(op, "Primary postal code is required")
	}

	// Deduplicate the covered codes; the primary is always covered and is
	// stored separately.
	seen := map[string]bool{params.PrimaryPostalCode: true}
	codes := make([]string, 0, len(params.PostalCodes))
	for _, pc := range params.PostalCodes {
		pc = normalizePostalCode(pc)
		if pc == "" || seen[pc] {
			continue
		}
		seen[pc] = true
		codes = append(codes, pc)
	}

	if _, err := s.queries.GetCompanyByManagerID(ctx, params.ManagerID); err == nil {
		return nil, domain.Conflict(op, "You have already registered a company")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, domain.Internal(err, op, "Failed to check existing company")
	}

	row, err := s.queries.CreateCompany(ctx, repository.CreateCompanyParams{
		Name:              params.Name,
		ManagerID:         params.ManagerID,
		PrimaryPostalCode: params.PrimaryPostalCode,
		PostalCodes:       codes,
		SubscriptionPlan:  domain.PlanFree.String(),
	})
	if err != nil {
		if strings.Contains(err.Error(), "unique") || strings.Contains(err.Error(), "duplicate") {
			return nil, domain.Conflict(op, "A company with this name already exists")
		}
		return nil, domain.Internal(err, op, "Failed to create company")
	}

	company := RepoCompanyToDomain(row)
	s.logger.Info("company registered",
		"company_id", company.ID,
		"name", company.Name,
		"postal_codes", len(company.ServiceArea()),
	)
	return company, nil
}

func (s *companyService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Company, error) {
	const op = "company.get"

	row, err := s.queries.GetCompanyByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "company", id.String())
		}
		return nil, domain.Internal(err, op, "Failed to retrieve company")
	}
	return RepoCompanyToDomain(row), nil
}

func (s *companyService) GetByManagerID(ctx context.Context, managerID uuid.UUID) (*domain.Company, error) {
	const op = "company.get_by_manager"

	row, err := s.queries.GetCompanyByManagerID(ctx, managerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "company", managerID.String())
		}
		return nil, domain.Internal(err, op, "Failed to retrieve company")
	}
	return RepoCompanyToDomain(row), nil
}

func (s *companyService) GetByName(ctx context.Context, name string) (*domain.Company, error) {
	const op = "company.get_by_name"

	row, err := s.queries.GetCompanyByName(ctx, strings.TrimSpace(name))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "company", name)
		}
		return nil, domain.Internal(err, op, "Failed to retrieve company")
	}
	return RepoCompanyToDomain(row), nil
}

func (s *companyService) GetByStripeCustomerID(ctx context.Context, stripeCustomerID string) (*domain.Company, error) {
	const op = "company.get_by_stripe_customer"

	row, err := s.queries.GetCompanyByStripeCustomerID(ctx, stripeCustomerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "company", stripeCustomerID)
		}
		return nil, domain.Internal(err, op, "Failed to retrieve company")
	}
	return RepoCompanyToDomain(row), nil
}

func (s *companyService) AttachStripeCustomer(ctx context.Context, companyID uuid.UUID, stripeCustomerID string) error {
	const op = "company.attach_stripe_customer"

	if stripeCustomerID == "" {
		return domain.Invalid(op, "Stripe customer ID is required")
	}
	if err := s.queries.SetCompanyStripeCustomerID(ctx, companyID, stripeCustomerID); err != nil {
		return domain.Internal(err, op, "Failed to store Stripe customer ID")
	}
	return nil
}

// normalizePostalCode uppercases and strips interior whitespace so that
// "1012 ab" and "1012AB" compare equal.
func normalizePostalCode(pc string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(pc), " ", ""))
}
