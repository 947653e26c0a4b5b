package handler

import (
	"log/slog"
	"net/http"

	"github.com/ispeciadev/LocalMoves-Backend-sub000/internal/auth"
	"github.com/ispeciadev/LocalMoves-Backend-sub000/internal/billing"
	"github.com/ispeciadev/LocalMoves-Backend-sub000/internal/domain"
	"github.com/ispeciadev/LocalMoves-Backend-sub000/internal/service"
)

// BillingHandler handles subscription purchase flows backed by Stripe.
//
// Routes handled:
//   - POST /api/billing/checkout -> CreateCheckout (manager only)
//   - POST /api/billing/portal   -> OpenPortal (manager only)
type BillingHandler struct {
	billing        billing.Service
	companyService service.CompanyService
	baseURL        string
	logger         *slog.Logger
}

// NewBillingHandler creates a new BillingHandler.
// billingService may be nil when Stripe is not configured (development mode).
func NewBillingHandler(billingService billing.Service, companyService service.CompanyService, baseURL string, logger *slog.Logger) *BillingHandler {
	return &BillingHandler{
		billing:        billingService,
		companyService: companyService,
		baseURL:        baseURL,
		logger:         logger,
	}
}

// RegisterRoutes registers billing routes on the provided mux.
func (h *BillingHandler) RegisterRoutes(mux *http.ServeMux, requireManager func(http.Handler) http.Handler) {
	mux.Handle("POST /api/billing/checkout", requireManager(http.HandlerFunc(h.CreateCheckout)))
	mux.Handle("POST /api/billing/portal", requireManager(http.HandlerFunc(h.OpenPortal)))
}

type checkoutRequest struct {
	Plan  string `json:"plan"`
	Cycle string `json:"cycle"`
}

// CreateCheckout creates a Stripe Checkout session for upgrading the
// manager's company to a paid plan. Returns the URL to redirect to.
func (h *BillingHandler) CreateCheckout(w http.ResponseWriter, r *http.Request) {
	const op = "billing.checkout"

	if h.billing == nil {
		ErrorResponse(w, r, h.logger, domain.Errorf(domain.EINTERNAL, op, "Billing is not configured"))
		return
	}

	user := auth.GetUser(r.Context())

	var req checkoutRequest
	if err := decodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	plan := domain.SubscriptionPlan(req.Plan)
	if !plan.IsValid() || plan == domain.PlanFree {
		ErrorResponse(w, r, h.logger, domain.Invalid(op, "A paid plan is required"))
		return
	}
	cycle := domain.BillingCycle(req.Cycle)
	if cycle == "" {
		cycle = domain.BillingCycleMonthly
	}
	if !cycle.IsValid() {
		ErrorResponse(w, r, h.logger, domain.Invalid(op, "Billing cycle must be monthly or yearly"))
		return
	}

	priceID, ok := h.billing.PriceIDFor(plan, cycle)
	if !ok {
		ErrorResponse(w, r, h.logger, domain.Errorf(domain.EINTERNAL, op, "No price configured for this plan"))
		return
	}

	company, err := h.companyService.GetByManagerID(r.Context(), user.ID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	// Reuse the Stripe customer across purchases so the portal and webhook
	// routing keep working.
	customerID := company.StripeCustomerID
	if customerID == "" {
		customerID, err = h.billing.CreateCustomer(user.Email, company.Name)
		if err != nil {
			ErrorResponse(w, r, h.logger, domain.Internal(err, op, "Failed to create billing customer"))
			return
		}
		if err := h.companyService.AttachStripeCustomer(r.Context(), company.ID, customerID); err != nil {
			ErrorResponse(w, r, h.logger, err)
			return
		}
	}

	successURL := h.baseURL + "/billing/success?session_id={CHECKOUT_SESSION_ID}"
	cancelURL := h.baseURL + "/billing/cancelled"

	checkoutURL, err := h.billing.CreateCheckoutSession(customerID, priceID, successURL, cancelURL)
	if err != nil {
		ErrorResponse(w, r, h.logger, domain.Internal(err, op, "Failed to create checkout session"))
		return
	}

	h.logger.Info("checkout session created",
		"company_id", company.ID,
		"plan", plan,
		"cycle", cycle,
	)
	respondJSON(w, http.StatusOK, map[string]string{"url": checkoutURL})
}

// OpenPortal creates a Stripe Customer Portal session for managing the
// subscription. Returns the URL to redirect to.
func (h *BillingHandler) OpenPortal(w http.ResponseWriter, r *http.Request) {
	const op = "billing.portal"

	if h.billing == nil {
		ErrorResponse(w, r, h.logger, domain.Errorf(domain.EINTERNAL, op, "Billing is not configured"))
		return
	}

	user := auth.GetUser(r.Context())

	company, err := h.companyService.GetByManagerID(r.Context(), user.ID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	if company.StripeCustomerID == "" {
		ErrorResponse(w, r, h.logger, domain.Conflict(op, "No billing history for this company yet"))
		return
	}

	portalURL, err := h.billing.CreatePortalSession(company.StripeCustomerID, h.baseURL+"/billing")
	if err != nil {
		ErrorResponse(w, r, h.logger, domain.Internal(err, op, "Failed to create portal session"))
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"url": portalURL})
}
