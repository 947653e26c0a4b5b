// Package domain contains core business types and interfaces.
//
// This file defines the moving Request type and its assignment lifecycle:
// the status state machine, the soft-reservation (reclaim priority) rules,
// and the pure pieces of the quota reconciliation sweep.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// Request Status
// =============================================================================

// RequestStatus represents the lifecycle state of a moving request.
type RequestStatus string

const (
	// RequestStatusPending indicates the request is unassigned and visible
	// in the marketplace.
	RequestStatusPending RequestStatus = "pending"

	// RequestStatusAssigned indicates the request is owned by a company.
	RequestStatusAssigned RequestStatus = "assigned"

	// RequestStatusCompleted is terminal. Completed requests are never
	// deleted or transitioned again.
	RequestStatusCompleted RequestStatus = "completed"

	// RequestStatusCancelled is terminal, except for an administrative
	// correction back to pending.
	RequestStatusCancelled RequestStatus = "cancelled"
)

// String returns the string representation of the status.
func (s RequestStatus) String() string {
	return string(s)
}

// IsValid returns true if the status is a recognized value.
func (s RequestStatus) IsValid() bool {
	switch s {
	case RequestStatusPending, RequestStatusAssigned,
		RequestStatusCompleted, RequestStatusCancelled:
		return true
	}
	return false
}

// IsTerminal returns true for statuses that end the request lifecycle.
func (s RequestStatus) IsTerminal() bool {
	return s == RequestStatusCompleted || s == RequestStatusCancelled
}

// CanTransitionTo checks whether the status may move to the target status.
//
// Valid transitions:
//   - pending -> assigned (quota-guarded at the service layer) or cancelled
//   - assigned -> completed, cancelled, or pending (unassignment)
//   - completed -> nothing
//   - cancelled -> pending (administrative correction only)
//
// The pending -> assigned edge additionally requires a passing view-limit
// check; that guard lives in the assignment service because it needs the
// company's live counters.
func (s RequestStatus) CanTransitionTo(target RequestStatus) bool {
	if s == target {
		return true
	}
	switch s {
	case RequestStatusPending:
		return target == RequestStatusAssigned || target == RequestStatusCancelled
	case RequestStatusAssigned:
		return target == RequestStatusCompleted ||
			target == RequestStatusCancelled ||
			target == RequestStatusPending
	case RequestStatusCompleted:
		return false
	case RequestStatusCancelled:
		return target == RequestStatusPending
	}
	return false
}

// =============================================================================
// Request Domain Type
// =============================================================================

// Request represents one moving job submitted by a customer.
//
// Assignment invariants:
//   - Status == assigned if and only if CompanyID is set.
//   - PreviouslyAssignedTo is set only while CompanyID is unset. It marks a
//     soft reservation: the named company lacked quota when this request was
//     intended for it and holds reclaim priority over other companies.
type Request struct {
	ID                   uuid.UUID
	OwnerID              uuid.UUID
	OwnerEmail           string
	PickupAddress        string
	DeliveryAddress      string
	City                 string
	PostalCode           string // Pickup postal code; drives marketplace matching
	Description          string
	PropertySize         string
	ServiceType          string
	SpecialInstructions  string
	Status               RequestStatus
	CompanyID            *uuid.UUID
	PreviouslyAssignedTo *uuid.UUID
	AssignedDate         *time.Time
	EstimatedCost        *float64
	ActualCost           *float64
	Notes                string
	CreatedAt            time.Time
	UpdatedAt            time.Time
	CompletedAt          *time.Time

	// Computed fields populated by queries/services, not stored directly.
	CompanyName string
	PhotoURLs   []string
}

// IsAssigned returns true if the request is owned by a company.
func (r *Request) IsAssigned() bool {
	return r.CompanyID != nil
}

// IsAvailable returns true if the request can still be claimed.
func (r *Request) IsAvailable() bool {
	return r.Status == RequestStatusPending && r.CompanyID == nil
}

// HasReclaimPriorityFor returns true if the given company holds the soft
// reservation on this request.
func (r *Request) HasReclaimPriorityFor(companyID uuid.UUID) bool {
	return r.PreviouslyAssignedTo != nil && *r.PreviouslyAssignedTo == companyID
}

// =============================================================================
// Service Parameters and Outcomes
// =============================================================================

// CreateRequestParams contains validated parameters for creating a request.
type CreateRequestParams struct {
	OwnerID             uuid.UUID
	PickupAddress       string
	DeliveryAddress     string
	City                string
	PostalCode          string
	Description         string
	PropertySize        string
	ServiceType         string
	SpecialInstructions string
	TargetCompanyName   string // Optional: direct the request at a company
}

// AssignmentOutcome describes where a freshly created request landed.
type AssignmentOutcome string

const (
	// OutcomeUnassigned: no target company was named; the request entered
	// the open marketplace.
	OutcomeUnassigned AssignmentOutcome = "unassigned"

	// OutcomeAssigned: the target company had quota and owns the request.
	OutcomeAssigned AssignmentOutcome = "assigned"

	// OutcomeSoftReserved: the target company was out of quota; the request
	// is pending with reclaim priority for that company.
	OutcomeSoftReserved AssignmentOutcome = "soft_reserved"
)

// CreateRequestResult is returned by the create operation.
type CreateRequestResult struct {
	Request *Request
	Outcome AssignmentOutcome
}

// AcceptKind distinguishes a fresh accept from a reclaim of a previously
// soft-reserved request.
type AcceptKind string

const (
	AcceptKindFresh   AcceptKind = "fresh"
	AcceptKindReclaim AcceptKind = "reclaim"
)

// AcceptResult is returned by a successful accept or admin assignment.
type AcceptResult struct {
	Request *Request
	Kind    AcceptKind
}

// UpdateStatusParams contains parameters for a general status update.
type UpdateStatusParams struct {
	RequestID  uuid.UUID
	NewStatus  RequestStatus
	Notes      string
	ActualCost *float64
}

// ReclaimResult summarizes a bulk reclaim run. Failed counts requests that
// became unavailable between listing and claiming; those are skipped, never
// treated as an abort.
type ReclaimResult struct {
	Reclaimed int
	Failed    int
}

// =============================================================================
// Manager Board (list-and-reconcile result)
// =============================================================================

// BlurReason tags why a request appears in the blurred collection.
type BlurReason string

const (
	// BlurReasonOverflow: the request was unassigned by the reconciliation
	// sweep because the company exceeded its (possibly newly lowered) limit.
	BlurReasonOverflow BlurReason = "capacity_exceeded"

	// BlurReasonSoftReserved: the request was directed at the company at
	// creation time while the company was out of quota.
	BlurReasonSoftReserved BlurReason = "capacity_at_creation"
)

// BlurredRequest is a request shown to a manager with identifying fields
// redacted, used to motivate a plan upgrade.
type BlurredRequest struct {
	ID           uuid.UUID
	PostalCode   string
	PropertySize string
	ServiceType  string
	Reason       BlurReason
	CreatedAt    time.Time

	// Redacted placeholders for the withheld fields.
	Description     string
	PickupAddress   string
	DeliveryAddress string
	OwnerEmail      string
}

// RedactedPlaceholder replaces personally identifying fields on blurred
// requests.
const RedactedPlaceholder = "Upgrade your plan to view"

// Blur produces the redacted view of a request.
func (r *Request) Blur(reason BlurReason) BlurredRequest {
	return BlurredRequest{
		ID:              r.ID,
		PostalCode:      r.PostalCode,
		PropertySize:    r.PropertySize,
		ServiceType:     r.ServiceType,
		Reason:          reason,
		CreatedAt:       r.CreatedAt,
		Description:     RedactedPlaceholder,
		PickupAddress:   RedactedPlaceholder,
		DeliveryAddress: RedactedPlaceholder,
		OwnerEmail:      RedactedPlaceholder,
	}
}

// BoardStatistics summarizes a manager board for rendering.
type BoardStatistics struct {
	Visible     int
	Blurred     int
	Available   int
	Reclaimable int
	Viewed      int
	Limit       int // UnlimitedViews for uncapped plans
	Remaining   int // UnlimitedViews for uncapped plans
}

// ManagerBoard is the result of the list-and-reconcile operation.
//
// When CanAct is false the subscription was inactive at call time: the sweep
// was skipped and only Available is populated (unfiltered area listing).
type ManagerBoard struct {
	Company      *Company
	CanAct       bool
	Subscription SubscriptionStatus
	Visible      []Request        // Assigned and within the plan limit
	Blurred      []BlurredRequest // Overflow plus soft-reserved upgrade bait
	Available    []Request        // Open marketplace requests in the service area
	Reclaimable  []Request        // Pending requests with reclaim priority for this company
	Statistics   BoardStatistics
}

// SplitByLimit partitions an assigned-request list (already ordered by
// assignment date, earliest first) into the requests that stay within the
// plan limit and the overflow beyond it. A negative limit means unlimited.
func SplitByLimit(assigned []Request, limit int) (kept, overflow []Request) {
	if limit < 0 || len(assigned) <= limit {
		return assigned, nil
	}
	return assigned[:limit], assigned[limit:]
}
