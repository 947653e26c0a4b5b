package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const requestColumns = `r.id, r.owner_id, r.pickup_address, r.delivery_address, r.city,
	r.postal_code, r.description, r.property_size, r.service_type, r.special_instructions,
	r.status, r.company_id, r.previously_assigned_to, r.assigned_date,
	r.estimated_cost, r.actual_cost, r.pricing_breakdown, r.notes,
	r.completed_at, r.created_at, r.updated_at`

// requestColumnsPlain is the same column list without the table alias, for
// statements that do not join.
var requestColumnsPlain = strings.ReplaceAll(requestColumns, "r.", "")

func scanRequest(row interface{ Scan(...interface{}) error }, withOwnerEmail bool) (Request, error) {
	var r Request
	dest := []interface{}{
		&r.ID,
		&r.OwnerID,
		&r.PickupAddress,
		&r.DeliveryAddress,
		&r.City,
		&r.PostalCode,
		&r.Description,
		&r.PropertySize,
		&r.ServiceType,
		&r.SpecialInstructions,
		&r.Status,
		&r.CompanyID,
		&r.PreviouslyAssignedTo,
		&r.AssignedDate,
		&r.EstimatedCost,
		&r.ActualCost,
		&r.PricingBreakdown,
		&r.Notes,
		&r.CompletedAt,
		&r.CreatedAt,
		&r.UpdatedAt,
	}
	if withOwnerEmail {
		dest = append(dest, &r.OwnerEmail)
	}
	err := row.Scan(dest...)
	return r, err
}

func collectRequests(rows *sql.Rows, withOwnerEmail bool) ([]Request, error) {
	defer rows.Close()
	var items []Request
	for rows.Next() {
		r, err := scanRequest(rows, withOwnerEmail)
		if err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

// CreateRequestParams holds the insert values for a new moving request.
// A request created against a company with available quota starts assigned;
// otherwise CompanyID is empty and PreviouslyAssignedTo may carry the soft
// reservation.
type CreateRequestParams struct {
	OwnerID              uuid.UUID
	PickupAddress        string
	DeliveryAddress      string
	City                 string
	PostalCode           string
	Description          string
	PropertySize         sql.NullString
	ServiceType          sql.NullString
	SpecialInstructions  sql.NullString
	Status               string
	CompanyID            uuid.NullUUID
	PreviouslyAssignedTo uuid.NullUUID
	AssignedDate         sql.NullTime
}

// CreateRequest inserts a new request and returns the stored row.
func (q *Queries) CreateRequest(ctx context.Context, arg CreateRequestParams) (Request, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO requests (
			id, owner_id, pickup_address, delivery_address, city, postal_code,
			description, property_size, service_type, special_instructions,
			status, company_id, previously_assigned_to, assigned_date
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING `+requestColumnsPlain,
		uuid.New(), arg.OwnerID, arg.PickupAddress, arg.DeliveryAddress, arg.City,
		arg.PostalCode, arg.Description, arg.PropertySize, arg.ServiceType,
		arg.SpecialInstructions, arg.Status, arg.CompanyID,
		arg.PreviouslyAssignedTo, arg.AssignedDate,
	)
	return scanRequest(row, false)
}

// GetRequestByID fetches a request with the owner's email joined in.
func (q *Queries) GetRequestByID(ctx context.Context, id uuid.UUID) (Request, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT `+requestColumns+`, u.email
		FROM requests r
		JOIN users u ON u.id = r.owner_id
		WHERE r.id = $1`,
		id)
	return scanRequest(row, true)
}

// GetRequestByIDForUpdate fetches a request row with a row lock. Used inside
// accept/reclaim transactions to re-validate status and ownership right
// before the assignment write.
func (q *Queries) GetRequestByIDForUpdate(ctx context.Context, id uuid.UUID) (Request, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT `+requestColumnsPlain+`
		FROM requests
		WHERE id = $1
		FOR UPDATE`,
		id)
	return scanRequest(row, false)
}

// ListRequestsByCompany returns all requests currently assigned to a
// company, earliest assignment first. This ordering is what the
// reconciliation sweep's first-assigned-first-kept policy relies on.
func (q *Queries) ListRequestsByCompany(ctx context.Context, companyID uuid.UUID) ([]Request, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+requestColumns+`, u.email
		FROM requests r
		JOIN users u ON u.id = r.owner_id
		WHERE r.company_id = $1
		ORDER BY r.assigned_date ASC, r.created_at ASC`,
		companyID)
	if err != nil {
		return nil, err
	}
	return collectRequests(rows, true)
}

// ListRequestsByOwner returns all requests created by a customer, newest
// first.
func (q *Queries) ListRequestsByOwner(ctx context.Context, ownerID uuid.UUID) ([]Request, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+requestColumns+`, u.email
		FROM requests r
		JOIN users u ON u.id = r.owner_id
		WHERE r.owner_id = $1
		ORDER BY r.created_at DESC`,
		ownerID)
	if err != nil {
		return nil, err
	}
	return collectRequests(rows, true)
}

// ListAvailableByPostalCodes returns unassigned pending requests whose
// pickup postal code falls in the given service area, oldest first.
func (q *Queries) ListAvailableByPostalCodes(ctx context.Context, codes []string) ([]Request, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+requestColumns+`, u.email
		FROM requests r
		JOIN users u ON u.id = r.owner_id
		WHERE r.status = 'pending'
		  AND r.company_id IS NULL
		  AND r.postal_code = ANY($1)
		ORDER BY r.created_at ASC`,
		pq.Array(codes))
	if err != nil {
		return nil, err
	}
	return collectRequests(rows, true)
}

// ListSoftReservedByCompany returns pending requests holding a soft
// reservation for the company within its service area, oldest first. This is
// the reclaim queue ordering: strictly creation-time ascending.
func (q *Queries) ListSoftReservedByCompany(ctx context.Context, companyID uuid.UUID, codes []string) ([]Request, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+requestColumns+`, u.email
		FROM requests r
		JOIN users u ON u.id = r.owner_id
		WHERE r.status = 'pending'
		  AND r.company_id IS NULL
		  AND r.previously_assigned_to = $1
		  AND r.postal_code = ANY($2)
		ORDER BY r.created_at ASC`,
		companyID, pq.Array(codes))
	if err != nil {
		return nil, err
	}
	return collectRequests(rows, true)
}

// CountAssignedByCompany returns the number of requests a company currently
// holds assigned.
func (q *Queries) CountAssignedByCompany(ctx context.Context, companyID uuid.UUID) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM requests WHERE company_id = $1`, companyID).Scan(&count)
	return count, err
}

// AssignRequestParams holds the fields written by the assignment transition.
type AssignRequestParams struct {
	ID            uuid.UUID
	CompanyID     uuid.UUID
	EstimatedCost sql.NullFloat64
}

// AssignRequest performs the pending -> assigned transition: sets the owning
// company and the assignment timestamp, clears any soft reservation.
func (q *Queries) AssignRequest(ctx context.Context, arg AssignRequestParams) (Request, error) {
	row := q.db.QueryRowContext(ctx, `
		UPDATE requests
		SET status = 'assigned',
		    company_id = $2,
		    previously_assigned_to = NULL,
		    assigned_date = now(),
		    estimated_cost = COALESCE($3, estimated_cost),
		    updated_at = now()
		WHERE id = $1
		RETURNING `+requestColumnsPlain,
		arg.ID, arg.CompanyID, arg.EstimatedCost,
	)
	return scanRequest(row, false)
}

// UnassignRequest clears the owning company and returns the request to
// pending. When previouslyAssignedTo is set the unassigned company keeps
// reclaim priority; plain cancellations pass an empty value instead.
func (q *Queries) UnassignRequest(ctx context.Context, id uuid.UUID, previouslyAssignedTo uuid.NullUUID) (Request, error) {
	row := q.db.QueryRowContext(ctx, `
		UPDATE requests
		SET status = 'pending',
		    company_id = NULL,
		    assigned_date = NULL,
		    previously_assigned_to = $2,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+requestColumnsPlain,
		id, previouslyAssignedTo,
	)
	return scanRequest(row, false)
}

// CancelRequest marks the request cancelled and clears assignment state.
func (q *Queries) CancelRequest(ctx context.Context, id uuid.UUID, notes sql.NullString) (Request, error) {
	row := q.db.QueryRowContext(ctx, `
		UPDATE requests
		SET status = 'cancelled',
		    company_id = NULL,
		    previously_assigned_to = NULL,
		    assigned_date = NULL,
		    notes = COALESCE($2, notes),
		    updated_at = now()
		WHERE id = $1
		RETURNING `+requestColumnsPlain,
		id, notes,
	)
	return scanRequest(row, false)
}

// UpdateRequestStatusParams holds the fields of a general status update.
type UpdateRequestStatusParams struct {
	ID          uuid.UUID
	Status      string
	Notes       sql.NullString
	ActualCost  sql.NullFloat64
	CompletedAt sql.NullTime
}

// UpdateRequestStatus applies a validated status transition.
func (q *Queries) UpdateRequestStatus(ctx context.Context, arg UpdateRequestStatusParams) (Request, error) {
	row := q.db.QueryRowContext(ctx, `
		UPDATE requests
		SET status = $2,
		    notes = COALESCE($3, notes),
		    actual_cost = COALESCE($4, actual_cost),
		    completed_at = COALESCE($5, completed_at),
		    updated_at = now()
		WHERE id = $1
		RETURNING `+requestColumnsPlain,
		arg.ID, arg.Status, arg.Notes, arg.ActualCost, arg.CompletedAt,
	)
	return scanRequest(row, false)
}
