// This file implements the Stripe webhook handler for processing billing
// events.
//
// Route:
//   - POST /webhooks/stripe -> HandleStripeWebhook
//
// This route is PUBLIC (no auth middleware) because Stripe calls it
// directly. Authentication is via the Stripe webhook signature.
package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/stripe/stripe-go/v79"

	"github.com/ispeciadev/LocalMoves-Backend-sub000/internal/billing"
	"github.com/ispeciadev/LocalMoves-Backend-sub000/internal/domain"
	"github.com/ispeciadev/LocalMoves-Backend-sub000/internal/service"
)

// webhookProcessTimeout bounds how long a single webhook event may take.
// Stripe retries failed deliveries, so slow database work must not hold the
// connection open indefinitely.
const webhookProcessTimeout = 30 * time.Second

// WebhookHandler handles incoming webhook events from Stripe.
type WebhookHandler struct {
	billing       billing.Service
	companies     service.CompanyService
	subscriptions service.SubscriptionService
	logger        *slog.Logger
}

// NewWebhookHandler creates a new WebhookHandler.
// billingService may be nil when Stripe is not configured.
func NewWebhookHandler(
	billingService billing.Service,
	companies service.CompanyService,
	subscriptions service.SubscriptionService,
	logger *slog.Logger,
) *WebhookHandler {
	return &WebhookHandler{
		billing:       billingService,
		companies:     companies,
		subscriptions: subscriptions,
		logger:        logger,
	}
}

// RegisterRoutes registers webhook routes on the provided mux.
// These routes are PUBLIC — no auth middleware.
func (h *WebhookHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /webhooks/stripe", h.HandleStripeWebhook)
}

// HandleStripeWebhook processes incoming Stripe webhook events.
func (h *WebhookHandler) HandleStripeWebhook(w http.ResponseWriter, r *http.Request) {
	if h.billing == nil {
		h.logger.Warn("stripe webhook received but billing is not configured")
		w.WriteHeader(http.StatusOK)
		return
	}

	// Read body (limit to 64KB)
	body, err := io.ReadAll(io.LimitReader(r.Body, 65536))
	if err != nil {
		h.logger.Error("failed to read webhook body", "error", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	// Verify signature
	signature := r.Header.Get("Stripe-Signature")
	event, err := h.billing.VerifyWebhookSignature(body, signature)
	if err != nil {
		h.logger.Warn("webhook signature verification failed", "error", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	h.logger.Info("stripe webhook received", "type", event.Type, "id", event.ID)

	ctx, cancel := context.WithTimeout(context.Background(), webhookProcessTimeout)
	defer cancel()

	// Route to event-specific handler
	switch event.Type {
	case "checkout.session.completed":
		h.handleCheckoutCompleted(ctx, event)
	case "customer.subscription.created":
		h.handleSubscriptionEvent(ctx, event, "created")
	case "customer.subscription.updated":
		h.handleSubscriptionEvent(ctx, event, "updated")
	case "customer.subscription.deleted":
		h.handleSubscriptionDeleted(ctx, event)
	case "invoice.payment_succeeded":
		h.handlePaymentSucceeded(ctx, event)
	case "invoice.payment_failed":
		h.handlePaymentFailed(ctx, event)
	default:
		h.logger.Debug("unhandled webhook event type", "type", event.Type)
	}

	w.WriteHeader(http.StatusOK)
}

// handleCheckoutCompleted confirms the Checkout flow finished. The plan
// itself is installed by the customer.subscription.created event that
// Stripe emits alongside it; the webhook payload for a checkout session
// does not include line items, so the plan cannot be derived here.
func (h *WebhookHandler) handleCheckoutCompleted(ctx context.Context, event stripe.Event) {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		h.logger.Error("failed to parse checkout session", "error", err)
		return
	}

	if session.Customer == nil {
		h.logger.Warn("checkout session missing customer", "session_id", session.ID)
		return
	}

	company, err := h.companies.GetByStripeCustomerID(ctx, session.Customer.ID)
	if err != nil {
		h.logger.Warn("company not found for completed checkout",
			"customer_id", session.Customer.ID, "session_id", session.ID)
		return
	}

	h.logger.Info("checkout completed",
		"company_id", company.ID, "customer_id", session.Customer.ID)
}

// handleSubscriptionEvent installs or renews the plan sold by the
// subscription's price. This is the payment-to-subscription bridge: the
// plan is applied, the billing window computed, and the monthly view
// counter reset.
func (h *WebhookHandler) handleSubscriptionEvent(ctx context.Context, event stripe.Event, action string) {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		h.logger.Error("failed to parse subscription event", "error", err, "action", action)
		return
	}

	if sub.Customer == nil {
		h.logger.Warn("subscription event missing customer", "subscription_id", sub.ID, "action", action)
		return
	}

	// Only active or trialing subscriptions grant plan access. Status
	// changes like past_due or canceled are handled by payment failure
	// and deletion events.
	if sub.Status != stripe.SubscriptionStatusActive && sub.Status != stripe.SubscriptionStatusTrialing {
		h.logger.Debug("ignoring subscription event with non-active status",
			"subscription_id", sub.ID, "status", sub.Status, "action", action)
		return
	}

	plan, cycle, ok := h.planFromSubscription(&sub)
	if !ok {
		h.logger.Warn("subscription has no recognizable price",
			"subscription_id", sub.ID, "customer_id", sub.Customer.ID, "action", action)
		return
	}

	h.applyPayment(ctx, sub.Customer.ID, plan, cycle, "customer.subscription."+action)
}

// handleSubscriptionDeleted logs the cancellation. The company keeps its
// paid plan until the subscription end date passes; the daily expiry sweep
// downgrades it to the free plan after that.
func (h *WebhookHandler) handleSubscriptionDeleted(ctx context.Context, event stripe.Event) {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		h.logger.Error("failed to parse subscription deleted event", "error", err)
		return
	}

	if sub.Customer == nil {
		h.logger.Warn("subscription deleted event missing customer", "subscription_id", sub.ID)
		return
	}

	company, err := h.companies.GetByStripeCustomerID(ctx, sub.Customer.ID)
	if err != nil {
		h.logger.Warn("company not found for subscription deletion", "customer_id", sub.Customer.ID)
		return
	}

	h.logger.Info("subscription cancelled, plan runs until paid-through date",
		"company_id", company.ID,
		"plan", company.SubscriptionPlan,
		"end_date", company.SubscriptionEndDate,
		"subscription_id", sub.ID,
	)
}

// handlePaymentSucceeded renews the subscription window on recurring
// invoice payments.
func (h *WebhookHandler) handlePaymentSucceeded(ctx context.Context, event stripe.Event) {
	var invoice stripe.Invoice
	if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
		h.logger.Error("failed to parse invoice payment succeeded event", "error", err)
		return
	}

	if invoice.Customer == nil || invoice.Lines == nil {
		return
	}

	for _, line := range invoice.Lines.Data {
		if line.Price == nil {
			continue
		}
		if plan, cycle, ok := h.billing.PlanForPriceID(line.Price.ID); ok {
			h.applyPayment(ctx, invoice.Customer.ID, plan, cycle, "invoice.payment_succeeded")
			return
		}
	}

	h.logger.Debug("invoice has no recognizable subscription price",
		"invoice_id", invoice.ID, "customer_id", invoice.Customer.ID)
}

// handlePaymentFailed records the failure. The company is not demoted
// here: the daily expiry sweep downgrades it once the paid-through date
// passes without a successful renewal.
func (h *WebhookHandler) handlePaymentFailed(ctx context.Context, event stripe.Event) {
	var invoice stripe.Invoice
	if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
		h.logger.Error("failed to parse invoice payment failed event", "error", err)
		return
	}

	if invoice.Customer == nil {
		return
	}

	company, err := h.companies.GetByStripeCustomerID(ctx, invoice.Customer.ID)
	if err != nil {
		h.logger.Debug("company not found for failed payment", "customer_id", invoice.Customer.ID)
		return
	}

	h.logger.Warn("subscription payment failed",
		"company_id", company.ID,
		"plan", company.SubscriptionPlan,
		"customer_id", invoice.Customer.ID,
	)
}

// applyPayment resolves the paying company and runs the subscription bridge.
func (h *WebhookHandler) applyPayment(ctx context.Context, customerID string, plan domain.SubscriptionPlan, cycle domain.BillingCycle, source string) {
	company, err := h.companies.GetByStripeCustomerID(ctx, customerID)
	if err != nil {
		h.logger.Warn("company not found for payment",
			"customer_id", customerID, "source", source)
		return
	}

	updated, err := h.subscriptions.ApplyPaymentSuccess(ctx, company.ID, plan, cycle)
	if err != nil {
		h.logger.Error("failed to apply payment",
			"error", err, "company_id", company.ID, "plan", plan, "source", source)
		return
	}

	h.logger.Info("subscription activated",
		"company_id", updated.ID,
		"plan", updated.SubscriptionPlan,
		"cycle", cycle,
		"end_date", updated.SubscriptionEndDate,
		"source", source,
	)
}

// planFromSubscription extracts the purchased plan from the subscription's
// first recognizable price.
func (h *WebhookHandler) planFromSubscription(sub *stripe.Subscription) (domain.SubscriptionPlan, domain.BillingCycle, bool) {
	if sub.Items == nil {
		return "", "", false
	}
	for _, item := range sub.Items.Data {
		if item.Price == nil {
			continue
		}
		if plan, cycle, ok := h.billing.PlanForPriceID(item.Price.ID); ok {
			return plan, cycle, true
		}
	}
	return "", "", false
}
