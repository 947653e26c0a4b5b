package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ispeciadev/LocalMoves-Backend-sub000/internal/domain"
	"github.com/ispeciadev/LocalMoves-Backend-sub000/internal/metrics"
	"github.com/ispeciadev/LocalMoves-Backend-sub000/internal/repository"
)

// =============================================================================
// Interface Definition
// =============================================================================

// BoardService builds the manager request board.
type BoardService interface {
	// ListAndReconcile returns the manager's board and, as a deliberate side
	// effect, runs the quota reconciliation sweep: assigned requests beyond
	// the plan limit are unassigned (keeping reclaim priority) before the
	// board is assembled. The name is explicit about the mutation because a
	// plain "list" that writes would surprise callers.
	ListAndReconcile(ctx context.Context, manager *domain.User) (*domain.ManagerBoard, error)
}

// =============================================================================
// Implementation
// =============================================================================

type boardService struct {
	db      *sql.DB
	queries *repository.Queries
	logger  *slog.Logger
}

// NewBoardService creates a new BoardService.
func NewBoardService(db *sql.DB, queries *repository.Queries, logger *slog.Logger) BoardService {
	return &boardService{
		db:      db,
		queries: queries,
		logger:  logger,
	}
}

func (s *boardService) ListAndReconcile(ctx context.Context, manager *domain.User) (*domain.ManagerBoard, error) {
	const op = "board.list_and_reconcile"

	companyRow, err := s.queries.GetCompanyByManagerID(ctx, manager.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Not an error: a manager without a company gets an empty board
			// with the reason spelled out so the UI can prompt registration.
			return &domain.ManagerBoard{
				CanAct: false,
				Subscription: domain.SubscriptionStatus{
					Active:  false,
					Reason:  domain.SubscriptionReasonNoCompany,
					Message: "Register a company to start receiving requests.",
				},
			}, nil
		}
		return nil, domain.Internal(err, op, "failed to load company")
	}
	company := RepoCompanyToDomain(companyRow)
	now := time.Now()

	status := company.CheckSubscription(now)
	if !status.Active {
		// Inactive subscription: skip the sweep entirely. The manager still
		// sees what is out there, flagged as not actionable yet.
		available, err := s.queries.ListAvailableByPostalCodes(ctx, company.ServiceArea())
		if err != nil {
			return nil, domain.Internal(err, op, "failed to list available requests")
		}
		board := &domain.ManagerBoard{
			Company:      company,
			CanAct:       false,
			Subscription: status,
			Available:    repoRequestsToDomain(available),
		}
		board.Statistics = boardStatistics(board, company.CheckViewLimit(now))
		return board, nil
	}

	limit := company.CheckViewLimit(now)

	assigned, err := s.queries.ListRequestsByCompany(ctx, company.ID)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list assigned requests")
	}

	// Limit is UnlimitedViews for uncapped plans, which SplitByLimit treats
	// as "keep everything".
	kept, overflow := domain.SplitByLimit(repoRequestsToDomain(assigned), limit.Limit)

	// First-assigned-first-kept: the overflow tail loses its assignment but
	// keeps reclaim priority. The view counter is untouched; it only moves
	// on assignment, cancellation, and the scheduled resets.
	if len(overflow) > 0 {
		if err := s.unassignOverflow(ctx, op, company.ID, overflow); err != nil {
			return nil, err
		}
		s.logger.Info("reconciliation sweep unassigned overflow",
			"company_id", company.ID,
			"plan", company.SubscriptionPlan,
			"limit", limit.Limit,
			"unassigned", len(overflow),
		)
	}

	blurred := make([]domain.BlurredRequest, 0, len(overflow))
	for i := range overflow {
		blurred = append(blurred, overflow[i].Blur(domain.BlurReasonOverflow))
	}

	softReserved, err := s.queries.ListSoftReservedByCompany(ctx, company.ID, company.ServiceArea())
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list soft-reserved requests")
	}
	reserved := repoRequestsToDomain(softReserved)

	// Soft-reserved requests are upgrade bait while the company has no
	// quota headroom, and directly reclaimable once it does.
	var reclaimable []domain.Request
	if limit.Allowed {
		reclaimable = reserved
	} else {
		for i := range reserved {
			blurred = append(blurred, reserved[i].Blur(domain.BlurReasonSoftReserved))
		}
	}

	availableRows, err := s.queries.ListAvailableByPostalCodes(ctx, company.ServiceArea())
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list available requests")
	}
	// Requests reserved for this company already appear in the blurred or
	// reclaimable collections; everything else in the area stays in the
	// open list, including requests soft-reserved for other companies.
	available := make([]domain.Request, 0, len(availableRows))
	for _, row := range availableRows {
		r := RepoRequestToDomain(row)
		if r.HasReclaimPriorityFor(company.ID) {
			continue
		}
		available = append(available, *r)
	}

	board := &domain.ManagerBoard{
		Company:      company,
		CanAct:       true,
		Subscription: status,
		Visible:      kept,
		Blurred:      blurred,
		Available:    available,
		Reclaimable:  reclaimable,
	}
	board.Statistics = boardStatistics(board, limit)

	return board, nil
}

// unassignOverflow returns the overflow requests to pending as one atomic
// unit so a mid-sweep failure cannot leave the company partially corrected.
func (s *boardService) unassignOverflow(ctx context.Context, op string, companyID uuid.UUID, overflow []domain.Request) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Internal(err, op, "failed to begin sweep transaction")
	}
	defer tx.Rollback()

	qtx := s.queries.WithTx(tx)
	previously := uuid.NullUUID{UUID: companyID, Valid: true}
	for i := range overflow {
		if _, err := qtx.UnassignRequest(ctx, overflow[i].ID, previously); err != nil {
			return domain.Internal(err, op, "failed to unassign overflow request")
		}
	}

	if err := tx.Commit(); err != nil {
		return domain.Internal(err, op, "failed to commit sweep")
	}

	metrics.RequestsUnassigned.WithLabelValues("sweep").Add(float64(len(overflow)))
	return nil
}

func boardStatistics(board *domain.ManagerBoard, limit domain.ViewLimit) domain.BoardStatistics {
	stats := domain.BoardStatistics{
		Visible:     len(board.Visible),
		Blurred:     len(board.Blurred),
		Available:   len(board.Available),
		Reclaimable: len(board.Reclaimable),
		Viewed:      limit.Viewed,
		Limit:       limit.Limit,
		Remaining:   limit.Remaining,
	}
	return stats
}

func repoRequestsToDomain(rows []repository.Request) []domain.Request {
	out := make([]domain.Request, 0, len(rows))
	for _, row := range rows {
		out = append(out, *RepoRequestToDomain(row))
	}
	return out
}
