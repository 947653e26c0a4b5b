package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorCode(t *testing.T) {
	assert.Equal(t, "", ErrorCode(nil))
	assert.Equal(t, ENOTFOUND, ErrorCode(NotFound("request.get", "request", "abc")))
	assert.Equal(t, EINTERNAL, ErrorCode(errors.New("raw")))

	// Wrapped domain errors surface their code through the chain
	wrapped := fmt.Errorf("outer: %w", Forbidden("request.accept", "denied"))
	assert.Equal(t, EFORBIDDEN, ErrorCode(wrapped))
}

func TestErrorMessage_HidesInternalDetail(t *testing.T) {
	dbErr := errors.New("pq: connection refused")

	internal := Internal(dbErr, "repo.get", "query failed")
	msg := ErrorMessage(internal)
	assert.NotContains(t, msg, "pq:")
	assert.NotContains(t, msg, "query failed")
	assert.Contains(t, msg, "internal error")

	// Raw errors get the same generic message
	assert.Contains(t, ErrorMessage(dbErr), "internal error")

	// Non-internal errors keep their message
	assert.Equal(t, "denied", ErrorMessage(Forbidden("op", "denied")))
}

func TestQuotaExceeded(t *testing.T) {
	err := QuotaExceeded("request.accept", PlanBasic, 20, 20, false)

	assert.Equal(t, EQUOTA, ErrorCode(err))

	qe, ok := AsQuotaError(err)
	assert.True(t, ok)
	assert.Equal(t, PlanBasic, qe.Plan)
	assert.Equal(t, 20, qe.Viewed)
	assert.Equal(t, 20, qe.Limit)
	assert.False(t, qe.Reclaim)

	// The reclaim variant mentions the upgrade path
	reclaim := QuotaExceeded("request.accept", PlanFree, 5, 5, true)
	assert.Contains(t, reclaim.Error(), "reclaim")

	// Quota detail survives wrapping
	wrapped := fmt.Errorf("accept failed: %w", err)
	_, ok = AsQuotaError(wrapped)
	assert.True(t, ok)

	// Other errors carry no quota detail
	_, ok = AsQuotaError(Forbidden("op", "nope"))
	assert.False(t, ok)
}

func TestValidationError_Fields(t *testing.T) {
	ve := NewValidationError("user.register", "email", "Email is required")
	assert.Equal(t, "Email is required", ve.Fields["email"])

	ve = AddFieldError(ve, "password", "Password is too short")
	assert.Len(t, ve.Fields, 2)

	// AddFieldError on a non-validation error starts a fresh one
	fresh := AddFieldError(errors.New("boom"), "name", "Name is required")
	assert.Equal(t, map[string]string{"name": "Name is required"}, fresh.Fields)
}
