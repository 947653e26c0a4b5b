package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCompany_CoversPostalCode(t *testing.T) {
	c := &Company{
		PrimaryPostalCode: "10115",
		PostalCodes:       []string{"10117", "10119"},
	}

	assert.True(t, c.CoversPostalCode("10115"))
	assert.True(t, c.CoversPostalCode("10117"))
	assert.True(t, c.CoversPostalCode("10119"))
	assert.False(t, c.CoversPostalCode("20095"))
	assert.False(t, c.CoversPostalCode(""))
}

func TestCompany_ServiceArea(t *testing.T) {
	c := &Company{
		PrimaryPostalCode: "10115",
		PostalCodes:       []string{"10117", "10115", "10119"},
	}

	// Primary comes first and duplicates are dropped
	assert.Equal(t, []string{"10115", "10117", "10119"}, c.ServiceArea())
}

func TestCompany_CheckSubscription(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	yesterday := now.AddDate(0, 0, -1)
	tomorrow := now.AddDate(0, 0, 1)

	tests := []struct {
		name       string
		company    Company
		wantActive bool
		wantReason string
	}{
		{
			name:       "active free plan has no end date",
			company:    Company{IsActive: true, SubscriptionPlan: PlanFree},
			wantActive: true,
		},
		{
			name:       "inactive company",
			company:    Company{IsActive: false, SubscriptionPlan: PlanBasic},
			wantActive: false,
			wantReason: SubscriptionReasonInactive,
		},
		{
			name:       "paid plan before end date",
			company:    Company{IsActive: true, SubscriptionPlan: PlanBasic, SubscriptionEndDate: &tomorrow},
			wantActive: true,
		},
		{
			name:       "paid plan expires at end of the end date, not before",
			company:    Company{IsActive: true, SubscriptionPlan: PlanBasic, SubscriptionEndDate: &now},
			wantActive: true,
		},
		{
			name:       "paid plan past end date",
			company:    Company{IsActive: true, SubscriptionPlan: PlanBasic, SubscriptionEndDate: &yesterday},
			wantActive: false,
			wantReason: SubscriptionReasonExpired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status := tt.company.CheckSubscription(now)
			assert.Equal(t, tt.wantActive, status.Active)
			if !tt.wantActive {
				assert.Equal(t, tt.wantReason, status.Reason)
				assert.NotEmpty(t, status.Message)
			}
		})
	}
}

func TestCompany_CheckViewLimit(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	t.Run("free plan under limit", func(t *testing.T) {
		c := Company{IsActive: true, SubscriptionPlan: PlanFree, RequestsViewedThisMonth: 3}
		limit := c.CheckViewLimit(now)
		assert.True(t, limit.Allowed)
		assert.Equal(t, 5, limit.Limit)
		assert.Equal(t, 2, limit.Remaining)
		assert.Equal(t, 3, limit.Viewed)
		assert.False(t, limit.Unlimited)
	})

	t.Run("basic plan at limit", func(t *testing.T) {
		c := Company{IsActive: true, SubscriptionPlan: PlanBasic, RequestsViewedThisMonth: 20}
		limit := c.CheckViewLimit(now)
		assert.False(t, limit.Allowed)
		assert.Equal(t, 0, limit.Remaining)
	})

	t.Run("counter above limit clamps remaining at zero", func(t *testing.T) {
		c := Company{IsActive: true, SubscriptionPlan: PlanStandard, RequestsViewedThisMonth: 60}
		limit := c.CheckViewLimit(now)
		assert.False(t, limit.Allowed)
		assert.Equal(t, 0, limit.Remaining)
		assert.Equal(t, 50, limit.Limit)
	})

	t.Run("premium is unlimited", func(t *testing.T) {
		c := Company{IsActive: true, SubscriptionPlan: PlanPremium, RequestsViewedThisMonth: 10000}
		limit := c.CheckViewLimit(now)
		assert.True(t, limit.Allowed)
		assert.True(t, limit.Unlimited)
		assert.Equal(t, UnlimitedViews, limit.Remaining)
		assert.Equal(t, UnlimitedViews, limit.Limit)
	})

	t.Run("expired subscription denies with zero limit", func(t *testing.T) {
		yesterday := now.AddDate(0, 0, -1)
		c := Company{IsActive: true, SubscriptionPlan: PlanPremium, SubscriptionEndDate: &yesterday}
		limit := c.CheckViewLimit(now)
		assert.False(t, limit.Allowed)
		assert.Equal(t, 0, limit.Limit)
		assert.Equal(t, SubscriptionReasonExpired, limit.Subscription.Reason)
	})

	t.Run("unknown plan falls back to free quota", func(t *testing.T) {
		c := Company{IsActive: true, SubscriptionPlan: SubscriptionPlan("gold")}
		limit := c.CheckViewLimit(now)
		assert.Equal(t, 5, limit.Limit)
	})
}

func TestBillingWindow(t *testing.T) {
	start := time.Date(2025, 3, 10, 17, 45, 0, 0, time.UTC)

	t.Run("monthly", func(t *testing.T) {
		from, to := BillingWindow(start, BillingCycleMonthly)
		assert.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), from)
		assert.Equal(t, time.Date(2025, 4, 9, 0, 0, 0, 0, time.UTC), to)
	})

	t.Run("yearly", func(t *testing.T) {
		from, to := BillingWindow(start, BillingCycleYearly)
		assert.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), from)
		assert.Equal(t, time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC), to)
	})
}

func TestPlanPrice(t *testing.T) {
	cents, ok := PlanPrice(PlanBasic, BillingCycleMonthly)
	assert.True(t, ok)
	assert.Equal(t, int64(2900), cents)

	cents, ok = PlanPrice(PlanPremium, BillingCycleYearly)
	assert.True(t, ok)
	assert.Equal(t, int64(99000), cents)

	_, ok = PlanPrice(PlanFree, BillingCycleMonthly)
	assert.False(t, ok)
}
