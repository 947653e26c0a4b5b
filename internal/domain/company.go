// Package domain contains core business types and interfaces.
//
// This file defines the Company domain type: a logistics provider account
// with its subscription state and monthly view counter.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// UnlimitedViews is the sentinel returned for the remaining-view count of
// plans without a cap.
const UnlimitedViews = -1

// Company represents a logistics provider's account.
//
// One manager owns exactly one company. The subscription fields and the
// monthly view counter are mutated by the payment bridge, the assignment
// engine and the scheduled resets; everything else is profile data.
type Company struct {
	ID                      uuid.UUID
	Name                    string // Unique across the platform
	ManagerID               uuid.UUID
	PrimaryPostalCode       string
	PostalCodes             []string // Additional covered postal codes
	SubscriptionPlan        SubscriptionPlan
	SubscriptionStartDate   time.Time
	SubscriptionEndDate     *time.Time // nil for the free plan
	IsActive                bool
	RequestsViewedThisMonth int
	StripeCustomerID        string
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

// CoversPostalCode returns true if the company serves the given postal code.
func (c *Company) CoversPostalCode(code string) bool {
	if c.PrimaryPostalCode == code {
		return true
	}
	for _, pc := range c.PostalCodes {
		if pc == code {
			return true
		}
	}
	return false
}

// ServiceArea returns the primary postal code plus all additional codes.
func (c *Company) ServiceArea() []string {
	area := make([]string, 0, len(c.PostalCodes)+1)
	area = append(area, c.PrimaryPostalCode)
	for _, pc := range c.PostalCodes {
		if pc != c.PrimaryPostalCode {
			area = append(area, pc)
		}
	}
	return area
}

// Subscription status reasons returned when a subscription is not active.
const (
	SubscriptionReasonNoCompany = "no_company"
	SubscriptionReasonNotFound  = "not_found"
	SubscriptionReasonInactive  = "inactive"
	SubscriptionReasonExpired   = "expired"
)

// SubscriptionStatus is the result of an activity check on a company
// subscription. When Active is false, Reason holds one of the
// SubscriptionReason constants.
type SubscriptionStatus struct {
	Active      bool
	Reason      string
	Message     string
	ExpiredDate *time.Time
}

// CheckSubscription evaluates whether the subscription is currently active.
// Active requires the company to be marked active and the end date (when
// set) to not have passed before today.
func (c *Company) CheckSubscription(now time.Time) SubscriptionStatus {
	if !c.IsActive {
		return SubscriptionStatus{
			Active:  false,
			Reason:  SubscriptionReasonInactive,
			Message: "Your subscription is inactive. Please renew to continue.",
		}
	}
	if c.SubscriptionEndDate != nil {
		today := now.Truncate(24 * time.Hour)
		end := c.SubscriptionEndDate.Truncate(24 * time.Hour)
		if end.Before(today) {
			return SubscriptionStatus{
				Active:      false,
				Reason:      SubscriptionReasonExpired,
				Message:     "Your subscription has expired. Please renew to continue.",
				ExpiredDate: c.SubscriptionEndDate,
			}
		}
	}
	return SubscriptionStatus{Active: true}
}

// ViewLimit is the result of a quota check against a company's plan.
// Remaining is UnlimitedViews for plans without a cap.
type ViewLimit struct {
	Allowed      bool
	Remaining    int
	Limit        int
	Viewed       int
	Unlimited    bool
	Subscription SubscriptionStatus
}

// CheckViewLimit evaluates the company's monthly view quota at the given
// time. An inactive subscription always denies with a zero limit.
func (c *Company) CheckViewLimit(now time.Time) ViewLimit {
	status := c.CheckSubscription(now)
	if !status.Active {
		return ViewLimit{
			Allowed:      false,
			Limit:        0,
			Viewed:       c.RequestsViewedThisMonth,
			Subscription: status,
		}
	}

	quota := GetPlanQuota(c.SubscriptionPlan)
	if quota.Unlimited {
		return ViewLimit{
			Allowed:      true,
			Remaining:    UnlimitedViews,
			Limit:        UnlimitedViews,
			Viewed:       c.RequestsViewedThisMonth,
			Unlimited:    true,
			Subscription: status,
		}
	}

	remaining := quota.MonthlyViewLimit - c.RequestsViewedThisMonth
	if remaining < 0 {
		remaining = 0
	}
	return ViewLimit{
		Allowed:      c.RequestsViewedThisMonth < quota.MonthlyViewLimit,
		Remaining:    remaining,
		Limit:        quota.MonthlyViewLimit,
		Viewed:       c.RequestsViewedThisMonth,
		Subscription: status,
	}
}

// RegisterCompanyParams contains validated parameters for company registration.
type RegisterCompanyParams struct {
	ManagerID         uuid.UUID
	Name              string
	PrimaryPostalCode string
	PostalCodes       []string
}

// SubscriptionUpdate describes the new subscription state applied by the
// payment bridge after a successful payment.
type SubscriptionUpdate struct {
	Plan      SubscriptionPlan
	StartDate time.Time
	EndDate   time.Time
}

// BillingWindow computes the subscription validity window for a paid plan:
// start today, end one month or one year later minus one day.
func BillingWindow(start time.Time, cycle BillingCycle) (time.Time, time.Time) {
	day := start.Truncate(24 * time.Hour)
	var end time.Time
	if cycle == BillingCycleYearly {
		end = day.AddDate(1, 0, -1)
	} else {
		end = day.AddDate(0, 1, -1)
	}
	return day, end
}
