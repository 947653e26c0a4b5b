// Package billing provides Stripe billing integration for subscription
// management.
package billing

import (
	"fmt"

	"github.com/stripe/stripe-go/v79"
	billingportalsession "github.com/stripe/stripe-go/v79/billingportal/session"
	checkoutsession "github.com/stripe/stripe-go/v79/checkout/session"
	"github.com/stripe/stripe-go/v79/customer"
	"github.com/stripe/stripe-go/v79/subscription"
	"github.com/stripe/stripe-go/v79/webhook"

	"github.com/ispeciadev/LocalMoves-Backend-sub000/internal/domain"
)

// Service defines the interface for billing operations.
type Service interface {
	// CreateCustomer creates a new Stripe customer for the given email.
	CreateCustomer(email, name string) (string, error)

	// CreateCheckoutSession creates a Stripe Checkout session for a plan
	// subscription. Returns the checkout URL to redirect the manager to.
	CreateCheckoutSession(customerID, priceID, successURL, cancelURL string) (string, error)

	// CreatePortalSession creates a Stripe Customer Portal session.
	// Returns the portal URL to redirect the manager to.
	CreatePortalSession(customerID, returnURL string) (string, error)

	// GetSubscription retrieves a Stripe subscription by ID.
	GetSubscription(subscriptionID string) (*stripe.Subscription, error)

	// CancelSubscription sets a subscription to cancel at period end.
	CancelSubscription(subscriptionID string) error

	// VerifyWebhookSignature verifies the Stripe webhook signature and
	// returns the event.
	VerifyWebhookSignature(payload []byte, signature string) (stripe.Event, error)

	// PlanForPriceID maps a Stripe price ID back to the plan and billing
	// cycle it sells. Returns false for unknown price IDs.
	PlanForPriceID(priceID string) (domain.SubscriptionPlan, domain.BillingCycle, bool)

	// PriceIDFor returns the configured Stripe price ID for a plan and
	// cycle. Returns false for the free plan or unconfigured combinations.
	PriceIDFor(plan domain.SubscriptionPlan, cycle domain.BillingCycle) (string, bool)
}

// PriceConfig holds the Stripe price IDs for each paid plan and cycle.
type PriceConfig struct {
	BasicMonthlyPriceID    string
	BasicYearlyPriceID     string
	StandardMonthlyPriceID string
	StandardYearlyPriceID  string
	PremiumMonthlyPriceID  string
	PremiumYearlyPriceID   string
}

// planPrice identifies what a Stripe price ID sells.
type planPrice struct {
	plan  domain.SubscriptionPlan
	cycle domain.BillingCycle
}

// stripeService is the concrete implementation of Service.
type stripeService struct {
	webhookSecret string
	priceToPlan   map[string]planPrice
	planToPrice   map[planPrice]string
}

// NewStripeService creates a new Stripe billing service.
//
// The secretKey authenticates Stripe API calls. The webhookSecret verifies
// incoming webhook signatures. The prices configure which Stripe price IDs
// sell which plan/cycle combination.
func NewStripeService(secretKey, webhookSecret string, prices PriceConfig) Service {
	stripe.Key = secretKey

	s := &stripeService{
		webhookSecret: webhookSecret,
		priceToPlan:   make(map[string]planPrice),
		planToPrice:   make(map[planPrice]string),
	}
	s.register(prices.BasicMonthlyPriceID, domain.PlanBasic, domain.BillingCycleMonthly)
	s.register(prices.BasicYearlyPriceID, domain.PlanBasic, domain.BillingCycleYearly)
	s.register(prices.StandardMonthlyPriceID, domain.PlanStandard, domain.BillingCycleMonthly)
	s.register(prices.StandardYearlyPriceID, domain.PlanStandard, domain.BillingCycleYearly)
	s.register(prices.PremiumMonthlyPriceID, domain.PlanPremium, domain.BillingCycleMonthly)
	s.register(prices.PremiumYearlyPriceID, domain.PlanPremium, domain.BillingCycleYearly)

	return s
}

func (s *stripeService) register(priceID string, plan domain.SubscriptionPlan, cycle domain.BillingCycle) {
	if priceID == "" {
		return
	}
	key := planPrice{plan: plan, cycle: cycle}
	s.priceToPlan[priceID] = key
	s.planToPrice[key] = priceID
}

func (s *stripeService) CreateCustomer(email, name string) (string, error) {
	params := &stripe.CustomerParams{
		Email: stripe.String(email),
		Name:  stripe.String(name),
	}
	c, err := customer.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe create customer: %w", err)
	}
	return c.ID, nil
}

func (s *stripeService) CreateCheckoutSession(customerID, priceID, successURL, cancelURL string) (string, error) {
	params := &stripe.CheckoutSessionParams{
		Customer: stripe.String(customerID),
		Mode:     stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(priceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(successURL),
		CancelURL:  stripe.String(cancelURL),
	}
	sess, err := checkoutsession.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe create checkout session: %w", err)
	}
	return sess.URL, nil
}

func (s *stripeService) CreatePortalSession(customerID, returnURL string) (string, error) {
	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(returnURL),
	}
	sess, err := billingportalsession.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe create portal session: %w", err)
	}
	return sess.URL, nil
}

func (s *stripeService) GetSubscription(subscriptionID string) (*stripe.Subscription, error) {
	sub, err := subscription.Get(subscriptionID, nil)
	if err != nil {
		return nil, fmt.Errorf("stripe get subscription: %w", err)
	}
	return sub, nil
}

func (s *stripeService) CancelSubscription(subscriptionID string) error {
	params := &stripe.SubscriptionParams{
		CancelAtPeriodEnd: stripe.Bool(true),
	}
	_, err := subscription.Update(subscriptionID, params)
	if err != nil {
		return fmt.Errorf("stripe cancel subscription: %w", err)
	}
	return nil
}

func (s *stripeService) VerifyWebhookSignature(payload []byte, signature string) (stripe.Event, error) {
	event, err := webhook.ConstructEvent(payload, signature, s.webhookSecret)
	if err != nil {
		return stripe.Event{}, fmt.Errorf("stripe webhook signature verification failed: %w", err)
	}
	return event, nil
}

func (s *stripeService) PlanForPriceID(priceID string) (domain.SubscriptionPlan, domain.BillingCycle, bool) {
	pp, ok := s.priceToPlan[priceID]
	if !ok {
		return "", "", false
	}
	return pp.plan, pp.cycle, true
}

func (s *stripeService) PriceIDFor(plan domain.SubscriptionPlan, cycle domain.BillingCycle) (string, bool) {
	priceID, ok := s.planToPrice[planPrice{plan: plan, cycle: cycle}]
	return priceID, ok
}
