// Package service contains the business logic layer.
//
// This file implements the request assignment engine: the quota-guarded
// lifecycle operations on moving requests (create, accept, admin assign,
// bulk reclaim, status update, cancel).
//
// Concurrency model: there are no in-process locks. Every quota check done
// before a write is repeated inside the writing transaction against
// row-locked company and request rows, so two managers racing for the same
// request (or the same last quota slot) serialize on the database. A failed
// re-check is a normal "no longer available" outcome, never an error.
package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"
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

// AssignmentService defines the quota-guarded request lifecycle operations.
type AssignmentService interface {
	// Create creates a new moving request. Without a target company the
	// request enters the open marketplace. With one, the request is either
	// assigned immediately (quota permitting) or left pending with a soft
	// reservation granting the target reclaim priority.
	// Returns domain.EPAYMENT if the named target's subscription is
	// inactive: the whole creation fails and the user is told explicitly.
	Create(ctx context.Context, params domain.CreateRequestParams) (*domain.CreateRequestResult, error)

	// Accept lets a manager claim a pending request in their service area.
	// Returns domain.EGONE when the request was claimed concurrently and
	// domain.EQUOTA (with reclaim framing when applicable) when the
	// manager's company is out of views.
	Accept(ctx context.Context, manager *domain.User, requestID uuid.UUID, estimatedCost *float64) (*domain.AcceptResult, error)

	// AdminAssign assigns a request to an arbitrary company, bypassing the
	// service-area and company-ownership checks but keeping the
	// subscription and quota guards.
	AdminAssign(ctx context.Context, requestID, companyID uuid.UUID, estimatedCost *float64) (*domain.AcceptResult, error)

	// BulkReclaim accepts, oldest first, the pending requests soft-reserved
	// for the manager's company, up to the remaining quota. Requests that
	// became unavailable concurrently are skipped and counted as failures.
	// Each reclaim commits independently.
	BulkReclaim(ctx context.Context, manager *domain.User) (*domain.ReclaimResult, error)

	// UpdateStatus applies a general status transition with the state
	// machine guards. Permitted for admins and for the manager of the
	// owning company while their subscription is active.
	UpdateStatus(ctx context.Context, actor *domain.User, params domain.UpdateStatusParams) (*domain.Request, error)

	// Cancel cancels a request. Permitted for the request owner, admins,
	// and the manager of the owning company. Cancelling an assigned request
	// decrements the owning company's view counter.
	Cancel(ctx context.Context, actor *domain.User, requestID uuid.UUID, reason string) (*domain.Request, error)
}

// =============================================================================
// Implementation
// =============================================================================

type assignmentService struct {
	db      *sql.DB
	queries *repository.Queries
	email   email.EmailService // may be nil; notifications are best-effort
	logger  *slog.Logger
}

// NewAssignmentService creates a new AssignmentService.
func NewAssignmentService(db *sql.DB, queries *repository.Queries, emailService email.EmailService, logger *slog.Logger) AssignmentService {
	return &assignmentService{
		db:      db,
		queries: queries,
		email:   emailService,
		logger:  logger,
	}
}

// =============================================================================
// Create
// =============================================================================

func (s *assignmentService) Create(ctx context.Context, params domain.CreateRequestParams) (*domain.CreateRequestResult, error) {
	const op = "request.create"

	if err := validateCreateRequestParams(op, params); err != nil {
		return nil, err
	}

	owner, err := s.queries.GetUserByID(ctx, params.OwnerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "user", params.OwnerID.String())
		}
		return nil, domain.Internal(err, op, "failed to load request owner")
	}

	insert := repository.CreateRequestParams{
		OwnerID:             params.OwnerID,
		PickupAddress:       strings.TrimSpace(params.PickupAddress),
		DeliveryAddress:     strings.TrimSpace(params.DeliveryAddress),
		City:                strings.TrimSpace(params.City),
		PostalCode:          normalizePostalCode(params.PostalCode),
		Description:         strings.TrimSpace(params.Description),
		PropertySize:        domain.ToNullString(params.PropertySize),
		ServiceType:         domain.ToNullString(params.ServiceType),
		SpecialInstructions: domain.ToNullString(params.SpecialInstructions),
		Status:              domain.RequestStatusPending.String(),
	}

	// No target company: straight into the open marketplace.
	if strings.TrimSpace(params.TargetCompanyName) == "" {
		row, err := s.queries.CreateRequest(ctx, insert)
		if err != nil {
			return nil, domain.Internal(err, op, "failed to create request")
		}
		request := RepoRequestToDomain(row)
		request.OwnerEmail = owner.Email

		s.logger.Info("request created", "request_id", request.ID, "postal_code", request.PostalCode)
		metrics.RequestsCreated.WithLabelValues(string(domain.OutcomeUnassigned)).Inc()
		s.notifyRequestCreated(owner.Email, owner.Name, request)

		return &domain.CreateRequestResult{Request: request, Outcome: domain.OutcomeUnassigned}, nil
	}

	targetRow, err := s.queries.GetCompanyByName(ctx, strings.TrimSpace(params.TargetCompanyName))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.Errorf(domain.ENOTFOUND, op, "company %q not found", params.TargetCompanyName)
		}
		return nil, domain.Internal(err, op, "failed to load target company")
	}

	// An inactive target fails the whole creation: the user asked for a
	// specific company and is told explicitly that it cannot take jobs.
	target := RepoCompanyToDomain(targetRow)
	if status := target.CheckSubscription(time.Now()); !status.Active {
		return nil, domain.Errorf(domain.EPAYMENT, op,
			"company %q cannot accept requests right now (%s)", target.Name, status.Reason)
	}

	result, err := s.createTargeted(ctx, op, insert, target)
	if err != nil {
		return nil, err
	}
	result.Request.OwnerEmail = owner.Email

	metrics.RequestsCreated.WithLabelValues(string(result.Outcome)).Inc()
	s.notifyRequestCreated(owner.Email, owner.Name, result.Request)
	switch result.Outcome {
	case domain.OutcomeAssigned:
		s.notifyCompanyAssigned(ctx, target.ID, result.Request)
	case domain.OutcomeSoftReserved:
		s.notifyUpgradePrompt(ctx, target)
	}

	return result, nil
}

// createTargeted inserts a request directed at a company. The quota check and
// the conditional assignment happen in one transaction against a locked
// company row so the view counter cannot be over-consumed concurrently.
func (s *assignmentService) createTargeted(ctx context.Context, op string, insert repository.CreateRequestParams, target *domain.Company) (*domain.CreateRequestResult, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to begin transaction")
	}
	defer tx.Rollback()

	qtx := s.queries.WithTx(tx)

	lockedRow, err := qtx.GetCompanyByIDForUpdate(ctx, target.ID)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to lock company")
	}
	locked := RepoCompanyToDomain(lockedRow)

	limit := locked.CheckViewLimit(time.Now())

	var outcome domain.AssignmentOutcome
	if limit.Allowed {
		insert.Status = domain.RequestStatusAssigned.String()
		insert.CompanyID = uuid.NullUUID{UUID: locked.ID, Valid: true}
		insert.AssignedDate = sql.NullTime{Time: time.Now(), Valid: true}
		outcome = domain.OutcomeAssigned
	} else {
		// Out of quota: leave the request pending but record the soft
		// reservation so the company keeps reclaim priority without
		// consuming a view.
		insert.PreviouslyAssignedTo = uuid.NullUUID{UUID: locked.ID, Valid: true}
		outcome = domain.OutcomeSoftReserved
	}

	row, err := qtx.CreateRequest(ctx, insert)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to create request")
	}

	if outcome == domain.OutcomeAssigned {
		if err := qtx.IncrementCompanyViews(ctx, locked.ID); err != nil {
			return nil, domain.Internal(err, op, "failed to increment view counter")
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, domain.Internal(err, op, "failed to commit request creation")
	}

	request := RepoRequestToDomain(row)
	request.CompanyName = target.Name
	s.logger.Info("request created",
		"request_id", request.ID,
		"target_company", target.Name,
		"outcome", outcome,
	)

	return &domain.CreateRequestResult{Request: request, Outcome: outcome}, nil
}

func validateCreateRequestParams(op string, params domain.CreateRequestParams) error {
	if strings.TrimSpace(params.PickupAddress) == "" {
		return domain.Invalid(op, "pickup address is required")
	}
	if strings.TrimSpace(params.DeliveryAddress) == "" {
		return domain.Invalid(op, "delivery address is required")
	}
	if strings.TrimSpace(params.City) == "" {
		return domain.Invalid(op, "city is required")
	}
	if strings.TrimSpace(params.PostalCode) == "" {
		return domain.Invalid(op, "postal code is required")
	}
	if strings.TrimSpace(params.Description) == "" {
		return domain.Invalid(op, "description is required")
	}
	return nil
}

// =============================================================================
// Accept / AdminAssign
// =============================================================================

func (s *assignmentService) Accept(ctx context.Context, manager *domain.User, requestID uuid.UUID, estimatedCost *float64) (*domain.AcceptResult, error) {
	const op = "request.accept"

	companyRow, err := s.queries.GetCompanyByManagerID(ctx, manager.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.Forbidden(op, "You must register a company before accepting requests.")
		}
		return nil, domain.Internal(err, op, "failed to load company")
	}
	company := RepoCompanyToDomain(companyRow)

	if status := company.CheckSubscription(time.Now()); !status.Active {
		return nil, domain.PaymentRequired(op, status.Message)
	}

	// Preliminary availability check. The authoritative re-check happens on
	// the locked rows inside the claim transaction.
	requestRow, err := s.queries.GetRequestByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "request", requestID.String())
		}
		return nil, domain.Internal(err, op, "failed to load request")
	}
	request := RepoRequestToDomain(requestRow)

	if !request.IsAvailable() {
		return nil, domain.Gone(op, "This request is no longer available.")
	}
	if !company.CoversPostalCode(request.PostalCode) {
		return nil, domain.Errorf(domain.EFORBIDDEN, op,
			"request postal code %s is outside your service area", request.PostalCode)
	}

	result, err := s.claim(ctx, op, requestID, company.ID, estimatedCost)
	if err != nil {
		return nil, err
	}

	metrics.RequestsAssigned.WithLabelValues(string(result.Kind)).Inc()
	s.notifyCustomerAssigned(ctx, result.Request, company.Name)

	return result, nil
}

func (s *assignmentService) AdminAssign(ctx context.Context, requestID, companyID uuid.UUID, estimatedCost *float64) (*domain.AcceptResult, error) {
	const op = "request.admin_assign"

	companyRow, err := s.queries.GetCompanyByID(ctx, companyID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "company", companyID.String())
		}
		return nil, domain.Internal(err, op, "failed to load company")
	}
	company := RepoCompanyToDomain(companyRow)

	if status := company.CheckSubscription(time.Now()); !status.Active {
		return nil, domain.PaymentRequired(op, status.Message)
	}

	result, err := s.claim(ctx, op, requestID, companyID, estimatedCost)
	if err != nil {
		return nil, err
	}

	metrics.RequestsAssigned.WithLabelValues("admin").Inc()
	s.notifyCustomerAssigned(ctx, result.Request, company.Name)

	return result, nil
}

// claim performs the atomic pending -> assigned transition. It locks the
// request row and the company row, re-validates availability and quota on
// the locked state, then writes the assignment and the counter increment as
// one unit. An earlier passing check is never trusted here.
func (s *assignmentService) claim(ctx context.Context, op string, requestID, companyID uuid.UUID, estimatedCost *float64) (*domain.AcceptResult, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to begin transaction")
	}
	defer tx.Rollback()

	qtx := s.queries.WithTx(tx)

	requestRow, err := qtx.GetRequestByIDForUpdate(ctx, requestID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "request", requestID.String())
		}
		return nil, domain.Internal(err, op, "failed to lock request")
	}
	request := RepoRequestToDomain(requestRow)

	// Re-check: the request may have been claimed, cancelled, or completed
	// between the listing and this write.
	if !request.IsAvailable() {
		return nil, domain.Gone(op, "This request is no longer available.")
	}

	companyRow, err := qtx.GetCompanyByIDForUpdate(ctx, companyID)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to lock company")
	}
	company := RepoCompanyToDomain(companyRow)

	// Re-check quota on the locked row: another accept may have consumed
	// the last remaining view since the caller's check.
	limit := company.CheckViewLimit(time.Now())
	if !limit.Allowed {
		if !limit.Subscription.Active {
			return nil, domain.PaymentRequired(op, limit.Subscription.Message)
		}
		metrics.QuotaDenied.Inc()
		return nil, domain.QuotaExceeded(op, company.SubscriptionPlan,
			limit.Viewed, limit.Limit, request.HasReclaimPriorityFor(companyID))
	}

	kind := domain.AcceptKindFresh
	if request.HasReclaimPriorityFor(companyID) {
		kind = domain.AcceptKindReclaim
	}

	assignedRow, err := qtx.AssignRequest(ctx, repository.AssignRequestParams{
		ID:            requestID,
		CompanyID:     companyID,
		EstimatedCost: domain.ToNullFloat(estimatedCost),
	})
	if err != nil {
		return nil, domain.Internal(err, op, "failed to assign request")
	}

	if err := qtx.IncrementCompanyViews(ctx, companyID); err != nil {
		return nil, domain.Internal(err, op, "failed to increment view counter")
	}

	if err := tx.Commit(); err != nil {
		return nil, domain.Internal(err, op, "failed to commit assignment")
	}

	assigned := RepoRequestToDomain(assignedRow)
	assigned.CompanyName = company.Name
	s.logger.Info("request assigned",
		"request_id", requestID,
		"company_id", companyID,
		"kind", kind,
	)

	return &domain.AcceptResult{Request: assigned, Kind: kind}, nil
}

// =============================================================================
// Bulk Reclaim
// =============================================================================

func (s *assignmentService) BulkReclaim(ctx context.Context, manager *domain.User) (*domain.ReclaimResult, error) {
	const op = "request.bulk_reclaim"

	companyRow, err := s.queries.GetCompanyByManagerID(ctx, manager.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.Forbidden(op, "You must register a company before reclaiming requests.")
		}
		return nil, domain.Internal(err, op, "failed to load company")
	}
	company := RepoCompanyToDomain(companyRow)

	if status := company.CheckSubscription(time.Now()); !status.Active {
		return nil, domain.PaymentRequired(op, status.Message)
	}

	// Oldest first: fairness and deterministic outcomes under concurrent
	// reclaim attempts.
	reserved, err := s.queries.ListSoftReservedByCompany(ctx, company.ID, company.ServiceArea())
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list reclaimable requests")
	}

	result := &domain.ReclaimResult{}
	for _, row := range reserved {
		_, err := s.claim(ctx, op, row.ID, company.ID, nil)
		switch {
		case err == nil:
			result.Reclaimed++
			metrics.RequestsAssigned.WithLabelValues(string(domain.AcceptKindReclaim)).Inc()
		case domain.ErrorCode(err) == domain.EQUOTA, domain.ErrorCode(err) == domain.EPAYMENT:
			// Quota exhausted: nothing further can be claimed this cycle.
			s.logger.Info("bulk reclaim stopped at quota",
				"company_id", company.ID,
				"reclaimed", result.Reclaimed,
			)
			return result, nil
		case domain.ErrorCode(err) == domain.EGONE, domain.ErrorCode(err) == domain.ENOTFOUND:
			// Claimed or withdrawn concurrently: skip, never abort. Earlier
			// reclaims stay committed.
			result.Failed++
		default:
			return result, err
		}
	}

	s.logger.Info("bulk reclaim finished",
		"company_id", company.ID,
		"reclaimed", result.Reclaimed,
		"failed", result.Failed,
	)
	return result, nil
}

// =============================================================================
// Status Update / Cancel
// =============================================================================

func (s *assignmentService) UpdateStatus(ctx context.Context, actor *domain.User, params domain.UpdateStatusParams) (*domain.Request, error) {
	const op = "request.update_status"

	if !params.NewStatus.IsValid() {
		return nil, domain.Invalid(op, "unknown status: "+params.NewStatus.String())
	}

	requestRow, err := s.queries.GetRequestByID(ctx, params.RequestID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "request", params.RequestID.String())
		}
		return nil, domain.Internal(err, op, "failed to load request")
	}
	request := RepoRequestToDomain(requestRow)

	if err := s.authorizeStatusUpdate(ctx, op, actor, request); err != nil {
		return nil, err
	}

	if !request.Status.CanTransitionTo(params.NewStatus) {
		return nil, domain.Errorf(domain.ECONFLICT, op,
			"cannot transition request from %s to %s", request.Status, params.NewStatus)
	}

	switch params.NewStatus {
	case domain.RequestStatusAssigned:
		if !request.IsAssigned() {
			// Assignment consumes quota and must go through accept or
			// admin assignment.
			return nil, domain.Invalid(op, "use the accept or admin assignment operation to assign a request")
		}
		// Already assigned: nothing to transition, fall through to persist
		// notes/cost updates.

	case domain.RequestStatusCancelled:
		return s.Cancel(ctx, actor, params.RequestID, params.Notes)

	case domain.RequestStatusPending:
		if request.IsAssigned() {
			// Unassignment keeps reclaim priority for the losing company.
			return s.unassign(ctx, op, request, true)
		}
		if request.Status == domain.RequestStatusCancelled && !actor.IsAdmin() {
			// Reopening a cancelled request is an administrative correction.
			return nil, domain.Forbidden(op, "Only an administrator can reopen a cancelled request.")
		}
	}

	update := repository.UpdateRequestStatusParams{
		ID:         params.RequestID,
		Status:     params.NewStatus.String(),
		Notes:      domain.ToNullString(params.Notes),
		ActualCost: domain.ToNullFloat(params.ActualCost),
	}
	if params.NewStatus == domain.RequestStatusCompleted {
		update.CompletedAt = sql.NullTime{Time: time.Now(), Valid: true}
	}

	updatedRow, err := s.queries.UpdateRequestStatus(ctx, update)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to update request status")
	}

	updated := RepoRequestToDomain(updatedRow)
	s.logger.Info("request status updated",
		"request_id", updated.ID,
		"from", request.Status,
		"to", updated.Status,
	)
	if updated.Status == domain.RequestStatusCompleted {
		metrics.RequestsCompleted.Inc()
	}

	return updated, nil
}

// authorizeStatusUpdate enforces who may move a request through its
// lifecycle: admins always, the owning company's manager while their
// subscription is active.
func (s *assignmentService) authorizeStatusUpdate(ctx context.Context, op string, actor *domain.User, request *domain.Request) error {
	if actor.IsAdmin() {
		return nil
	}
	if !actor.IsManager() {
		return domain.Forbidden(op, "You do not have permission to update this request.")
	}

	companyRow, err := s.queries.GetCompanyByManagerID(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Forbidden(op, "You do not have permission to update this request.")
		}
		return domain.Internal(err, op, "failed to load company")
	}
	company := RepoCompanyToDomain(companyRow)

	if request.CompanyID == nil || *request.CompanyID != company.ID {
		return domain.Forbidden(op, "This request is not assigned to your company.")
	}
	if status := company.CheckSubscription(time.Now()); !status.Active {
		return domain.PaymentRequired(op, status.Message)
	}
	return nil
}

func (s *assignmentService) Cancel(ctx context.Context, actor *domain.User, requestID uuid.UUID, reason string) (*domain.Request, error) {
	const op = "request.cancel"

	requestRow, err := s.queries.GetRequestByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "request", requestID.String())
		}
		return nil, domain.Internal(err, op, "failed to load request")
	}
	request := RepoRequestToDomain(requestRow)

	if err := s.authorizeCancel(ctx, op, actor, request); err != nil {
		return nil, err
	}

	if request.Status == domain.RequestStatusCancelled {
		// Idempotent: cancelling twice must not decrement twice.
		return request, nil
	}
	if !request.Status.CanTransitionTo(domain.RequestStatusCancelled) {
		return nil, domain.Errorf(domain.ECONFLICT, op,
			"cannot cancel a request in status %s", request.Status)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to begin transaction")
	}
	defer tx.Rollback()

	qtx := s.queries.WithTx(tx)

	lockedRow, err := qtx.GetRequestByIDForUpdate(ctx, requestID)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to lock request")
	}
	locked := RepoRequestToDomain(lockedRow)

	if locked.Status == domain.RequestStatusCancelled {
		return locked, nil
	}
	if !locked.Status.CanTransitionTo(domain.RequestStatusCancelled) {
		return nil, domain.Errorf(domain.ECONFLICT, op,
			"cannot cancel a request in status %s", locked.Status)
	}

	cancelledRow, err := qtx.CancelRequest(ctx, requestID, domain.ToNullString(reason))
	if err != nil {
		return nil, domain.Internal(err, op, "failed to cancel request")
	}

	// Cancelling an assigned request frees a view for the formerly owning
	// company, floored at zero.
	if locked.CompanyID != nil {
		if err := qtx.DecrementCompanyViews(ctx, *locked.CompanyID); err != nil {
			return nil, domain.Internal(err, op, "failed to decrement view counter")
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, domain.Internal(err, op, "failed to commit cancellation")
	}

	cancelled := RepoRequestToDomain(cancelledRow)
	s.logger.Info("request cancelled",
		"request_id", requestID,
		"was_assigned", locked.CompanyID != nil,
	)
	metrics.RequestsCancelled.Inc()

	return cancelled, nil
}

func (s *assignmentService) authorizeCancel(ctx context.Context, op string, actor *domain.User, request *domain.Request) error {
	if actor.IsAdmin() || actor.ID == request.OwnerID {
		return nil
	}
	if actor.IsManager() {
		companyRow, err := s.queries.GetCompanyByManagerID(ctx, actor.ID)
		if err == nil && request.CompanyID != nil && companyRow.ID == *request.CompanyID {
			return nil
		}
	}
	return domain.Forbidden(op, "You do not have permission to cancel this request.")
}

// unassign returns an assigned request to pending. With keepPriority the
// losing company is recorded in previously_assigned_to so it can reclaim the
// request once it regains quota.
func (s *assignmentService) unassign(ctx context.Context, op string, request *domain.Request, keepPriority bool) (*domain.Request, error) {
	var previously uuid.NullUUID
	if keepPriority && request.CompanyID != nil {
		previously = uuid.NullUUID{UUID: *request.CompanyID, Valid: true}
	}

	row, err := s.queries.UnassignRequest(ctx, request.ID, previously)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to unassign request")
	}

	unassigned := RepoRequestToDomain(row)
	s.logger.Info("request unassigned",
		"request_id", request.ID,
		"previous_company", request.CompanyID,
		"keep_priority", keepPriority,
	)
	metrics.RequestsUnassigned.WithLabelValues("status_update").Inc()

	return unassigned, nil
}

// =============================================================================
// Best-effort notifications
// =============================================================================
//
// Notification failures are logged and never fail or roll back the primary
// operation that already committed.

func (s *assignmentService) notifyRequestCreated(to, name string, request *domain.Request) {
	if s.email == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.email.SendRequestConfirmation(ctx, to, name, request.ID.String(), request.PickupAddress); err != nil {
		s.logger.Warn("failed to send request confirmation", "request_id", request.ID, "error", err)
	}
}

func (s *assignmentService) notifyCustomerAssigned(ctx context.Context, request *domain.Request, companyName string) {
	if s.email == nil {
		return
	}
	owner, err := s.queries.GetUserByID(ctx, request.OwnerID)
	if err != nil {
		s.logger.Warn("failed to load owner for assignment notification", "request_id", request.ID, "error", err)
		return
	}
	sendCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.email.SendAssignmentNotification(sendCtx, owner.Email, owner.Name, request.ID.String(), companyName); err != nil {
		s.logger.Warn("failed to send assignment notification", "request_id", request.ID, "error", err)
	}
}

func (s *assignmentService) notifyCompanyAssigned(ctx context.Context, companyID uuid.UUID, request *domain.Request) {
	if s.email == nil {
		return
	}
	companyRow, err := s.queries.GetCompanyByID(ctx, companyID)
	if err != nil {
		return
	}
	manager, err := s.queries.GetUserByID(ctx, companyRow.ManagerID)
	if err != nil {
		return
	}
	sendCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.email.SendNewJobNotification(sendCtx, manager.Email, manager.Name, request.ID.String(), request.PostalCode); err != nil {
		s.logger.Warn("failed to send new job notification", "request_id", request.ID, "error", err)
	}
}

func (s *assignmentService) notifyUpgradePrompt(ctx context.Context, company *domain.Company) {
	if s.email == nil {
		return
	}
	manager, err := s.queries.GetUserByID(ctx, company.ManagerID)
	if err != nil {
		return
	}
	limit := company.CheckViewLimit(time.Now())
	sendCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.email.SendUpgradePrompt(sendCtx, manager.Email, manager.Name, company.SubscriptionPlan, limit.Viewed, limit.Limit); err != nil {
		s.logger.Warn("failed to send upgrade prompt", "company_id", company.ID, "error", err)
	}
}

// =============================================================================
// Conversion helpers
// =============================================================================

// RepoRequestToDomain converts a repository.Request to domain.Request.
func RepoRequestToDomain(r repository.Request) *domain.Request {
	return &domain.Request{
		ID:                   r.ID,
		OwnerID:              r.OwnerID,
		OwnerEmail:           r.OwnerEmail,
		PickupAddress:        r.PickupAddress,
		DeliveryAddress:      r.DeliveryAddress,
		City:                 r.City,
		PostalCode:           r.PostalCode,
		Description:          r.Description,
		PropertySize:         domain.NullStringValue(r.PropertySize),
		ServiceType:          domain.NullStringValue(r.ServiceType),
		SpecialInstructions:  domain.NullStringValue(r.SpecialInstructions),
		Status:               domain.RequestStatus(r.Status),
		CompanyID:            domain.NullUUIDValue(r.CompanyID),
		PreviouslyAssignedTo: domain.NullUUIDValue(r.PreviouslyAssignedTo),
		AssignedDate:         domain.NullTimeValue(r.AssignedDate),
		EstimatedCost:        domain.NullFloatValue(r.EstimatedCost),
		ActualCost:           domain.NullFloatValue(r.ActualCost),
		Notes:                domain.NullStringValue(r.Notes),
		CreatedAt:            r.CreatedAt,
		UpdatedAt:            r.UpdatedAt,
		CompletedAt:          domain.NullTimeValue(r.CompletedAt),
	}
}
