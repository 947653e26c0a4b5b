package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestRequestStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		name string
		from RequestStatus
		to   RequestStatus
		want bool
	}{
		// Valid forward transitions
		{"pending to assigned", RequestStatusPending, RequestStatusAssigned, true},
		{"pending to cancelled", RequestStatusPending, RequestStatusCancelled, true},
		{"assigned to completed", RequestStatusAssigned, RequestStatusCompleted, true},
		{"assigned to cancelled", RequestStatusAssigned, RequestStatusCancelled, true},

		// Unassignment
		{"assigned to pending", RequestStatusAssigned, RequestStatusPending, true},

		// Administrative correction
		{"cancelled to pending", RequestStatusCancelled, RequestStatusPending, true},

		// Invalid transitions
		{"pending to completed", RequestStatusPending, RequestStatusCompleted, false},
		{"completed to pending", RequestStatusCompleted, RequestStatusPending, false},
		{"completed to assigned", RequestStatusCompleted, RequestStatusAssigned, false},
		{"completed to cancelled", RequestStatusCompleted, RequestStatusCancelled, false},
		{"cancelled to assigned", RequestStatusCancelled, RequestStatusAssigned, false},
		{"cancelled to completed", RequestStatusCancelled, RequestStatusCompleted, false},

		// Self transitions are no-ops
		{"pending to pending", RequestStatusPending, RequestStatusPending, true},
		{"completed to completed", RequestStatusCompleted, RequestStatusCompleted, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestRequestStatus_IsTerminal(t *testing.T) {
	assert.False(t, RequestStatusPending.IsTerminal())
	assert.False(t, RequestStatusAssigned.IsTerminal())
	assert.True(t, RequestStatusCompleted.IsTerminal())
	assert.True(t, RequestStatusCancelled.IsTerminal())
}

func TestRequest_IsAvailable(t *testing.T) {
	companyID := uuid.New()

	tests := []struct {
		name    string
		request Request
		want    bool
	}{
		{
			name:    "pending unassigned",
			request: Request{Status: RequestStatusPending},
			want:    true,
		},
		{
			name:    "pending with soft reservation is still available",
			request: Request{Status: RequestStatusPending, PreviouslyAssignedTo: &companyID},
			want:    true,
		},
		{
			name:    "assigned",
			request: Request{Status: RequestStatusAssigned, CompanyID: &companyID},
			want:    false,
		},
		{
			name:    "cancelled",
			request: Request{Status: RequestStatusCancelled},
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.request.IsAvailable())
		})
	}
}

func TestRequest_HasReclaimPriorityFor(t *testing.T) {
	companyID := uuid.New()
	otherID := uuid.New()

	withReservation := Request{Status: RequestStatusPending, PreviouslyAssignedTo: &companyID}
	assert.True(t, withReservation.HasReclaimPriorityFor(companyID))
	assert.False(t, withReservation.HasReclaimPriorityFor(otherID))

	noReservation := Request{Status: RequestStatusPending}
	assert.False(t, noReservation.HasReclaimPriorityFor(companyID))
}

func TestRequest_Blur(t *testing.T) {
	req := Request{
		ID:              uuid.New(),
		OwnerEmail:      "customer@example.com",
		PickupAddress:   "12 Main St",
		DeliveryAddress: "99 Elm Ave",
		PostalCode:      "10115",
		PropertySize:    "3-room",
		ServiceType:     "full-service",
		Description:     "Piano on the fourth floor",
		CreatedAt:       time.Now(),
	}

	blurred := req.Blur(BlurReasonOverflow)

	// Matching metadata survives
	assert.Equal(t, req.ID, blurred.ID)
	assert.Equal(t, "10115", blurred.PostalCode)
	assert.Equal(t, "3-room", blurred.PropertySize)
	assert.Equal(t, "full-service", blurred.ServiceType)
	assert.Equal(t, BlurReasonOverflow, blurred.Reason)

	// Identifying fields are redacted
	assert.Equal(t, RedactedPlaceholder, blurred.Description)
	assert.Equal(t, RedactedPlaceholder, blurred.PickupAddress)
	assert.Equal(t, RedactedPlaceholder, blurred.DeliveryAddress)
	assert.Equal(t, RedactedPlaceholder, blurred.OwnerEmail)
	assert.NotContains(t, blurred.Description, "Piano")
}

func TestSplitByLimit(t *testing.T) {
	mk := func(n int) []Request {
		out := make([]Request, n)
		for i := range out {
			out[i] = Request{ID: uuid.New()}
		}
		return out
	}

	t.Run("under limit keeps everything", func(t *testing.T) {
		assigned := mk(3)
		kept, overflow := SplitByLimit(assigned, 5)
		assert.Len(t, kept, 3)
		assert.Empty(t, overflow)
	})

	t.Run("exactly at limit keeps everything", func(t *testing.T) {
		assigned := mk(5)
		kept, overflow := SplitByLimit(assigned, 5)
		assert.Len(t, kept, 5)
		assert.Empty(t, overflow)
	})

	t.Run("over limit overflows the tail", func(t *testing.T) {
		assigned := mk(7)
		kept, overflow := SplitByLimit(assigned, 5)
		assert.Len(t, kept, 5)
		assert.Len(t, overflow, 2)
		// Order is preserved: earliest assignments stay visible
		assert.Equal(t, assigned[0].ID, kept[0].ID)
		assert.Equal(t, assigned[5].ID, overflow[0].ID)
	})

	t.Run("negative limit means unlimited", func(t *testing.T) {
		assigned := mk(100)
		kept, overflow := SplitByLimit(assigned, UnlimitedViews)
		assert.Len(t, kept, 100)
		assert.Empty(t, overflow)
	})

	t.Run("zero limit overflows everything", func(t *testing.T) {
		assigned := mk(2)
		kept, overflow := SplitByLimit(assigned, 0)
		assert.Empty(t, kept)
		assert.Len(t, overflow, 2)
	})

	t.Run("empty input", func(t *testing.T) {
		kept, overflow := SplitByLimit(nil, 5)
		assert.Empty(t, kept)
		assert.Empty(t, overflow)
	})
}
