// Package domain contains core business types and interfaces.
//
// This file defines the subscription plan policy: the mapping from a plan
// name to its monthly request-view quota.
package domain

// SubscriptionPlan represents the pricing tier of a company subscription.
type SubscriptionPlan string

const (
	PlanFree     SubscriptionPlan = "free"
	PlanBasic    SubscriptionPlan = "basic"
	PlanStandard SubscriptionPlan = "standard"
	PlanPremium  SubscriptionPlan = "premium"
)

// String returns the string representation of the plan.
func (p SubscriptionPlan) String() string {
	return string(p)
}

// IsValid returns true if the plan is a recognized value.
func (p SubscriptionPlan) IsValid() bool {
	switch p {
	case PlanFree, PlanBasic, PlanStandard, PlanPremium:
		return true
	}
	return false
}

// PlanQuota defines the monthly request-view limit for a subscription plan.
type PlanQuota struct {
	MonthlyViewLimit int
	Unlimited        bool
}

// PlanQuotas maps subscription plans to their quota limits.
// Premium has no cap; every other plan carries a finite monthly limit.
var PlanQuotas = map[SubscriptionPlan]PlanQuota{
	PlanFree:     {MonthlyViewLimit: 5},
	PlanBasic:    {MonthlyViewLimit: 20},
	PlanStandard: {MonthlyViewLimit: 50},
	PlanPremium:  {Unlimited: true},
}

// GetPlanQuota returns the quota for a plan, defaulting to the free plan
// for unknown plan names.
func GetPlanQuota(plan SubscriptionPlan) PlanQuota {
	if quota, ok := PlanQuotas[plan]; ok {
		return quota
	}
	return PlanQuotas[PlanFree]
}

// PlanPriceCents holds the list price of each paid plan per billing cycle,
// in US dollar cents. The free plan costs nothing and is absent.
var PlanPriceCents = map[SubscriptionPlan]map[BillingCycle]int64{
	PlanBasic:    {BillingCycleMonthly: 2900, BillingCycleYearly: 29000},
	PlanStandard: {BillingCycleMonthly: 5900, BillingCycleYearly: 59000},
	PlanPremium:  {BillingCycleMonthly: 9900, BillingCycleYearly: 99000},
}

// PlanPrice returns the list price in cents for a plan and cycle, and false
// for the free plan or unknown combinations.
func PlanPrice(plan SubscriptionPlan, cycle BillingCycle) (int64, bool) {
	cycles, ok := PlanPriceCents[plan]
	if !ok {
		return 0, false
	}
	cents, ok := cycles[cycle]
	return cents, ok
}

// BillingCycle selects the length of a paid subscription window.
type BillingCycle string

const (
	BillingCycleMonthly BillingCycle = "monthly"
	BillingCycleYearly  BillingCycle = "yearly"
)

// IsValid returns true if the cycle is a recognized value.
func (c BillingCycle) IsValid() bool {
	return c == BillingCycleMonthly || c == BillingCycleYearly
}
