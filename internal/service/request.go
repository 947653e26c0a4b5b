package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/ispeciadev/LocalMoves-Backend-sub000/internal/domain"
	"github.com/ispeciadev/LocalMoves-Backend-sub000/internal/repository"
)

// =============================================================================
// Interface Definition
// =============================================================================

// RequestService defines the read side of moving requests. Writes (create,
// accept, status changes) live on AssignmentService.
type RequestService interface {
	// Get retrieves a request the actor is allowed to see in full: the
	// owner, an admin, the manager of the assigned company, or a manager
	// whose company's service area covers a still-open request.
	// Returns domain.EFORBIDDEN otherwise.
	Get(ctx context.Context, actor *domain.User, id uuid.UUID) (*domain.Request, error)

	// ListByOwner returns the actor's own requests, newest first.
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.Request, error)
}

// =============================================================================
// Implementation
// =============================================================================

type requestService struct {
	queries *repository.Queries
	logger  *slog.Logger
}

// NewRequestService creates a new RequestService.
func NewRequestService(queries *repository.Queries, logger *slog.Logger) RequestService {
	return &requestService{
		queries: queries,
		logger:  logger,
	}
}

func (s *requestService) Get(ctx context.Context, actor *domain.User, id uuid.UUID) (*domain.Request, error) {
	const op = "request.get"

	row, err := s.queries.GetRequestByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "request", id.String())
		}
		return nil, domain.Internal(err, op, "Failed to retrieve request")
	}
	request := RepoRequestToDomain(row)

	allowed, err := s.canView(ctx, actor, request)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, domain.Forbidden(op, "You do not have access to this request")
	}
	return request, nil
}

func (s *requestService) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.Request, error) {
	const op = "request.list_by_owner"

	rows, err := s.queries.ListRequestsByOwner(ctx, ownerID)
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to list requests")
	}
	return repoRequestsToDomain(rows), nil
}

func (s *requestService) canView(ctx context.Context, actor *domain.User, request *domain.Request) (bool, error) {
	const op = "request.get"

	if actor.IsAdmin() || request.OwnerID == actor.ID {
		return true, nil
	}
	if !actor.IsManager() {
		return false, nil
	}

	company, err := s.queries.GetCompanyByManagerID(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, domain.Internal(err, op, "Failed to retrieve company")
	}

	if request.CompanyID != nil && *request.CompanyID == company.ID {
		return true, nil
	}

	// Open marketplace requests are visible to managers serving the area.
	if request.IsAvailable() {
		c := RepoCompanyToDomain(company)
		return c.CoversPostalCode(request.PostalCode), nil
	}
	return false, nil
}
