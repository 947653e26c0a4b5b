package handler

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/ispeciadev/LocalMoves-Backend-sub000/internal/auth"
	"github.com/ispeciadev/LocalMoves-Backend-sub000/internal/domain"
	"github.com/ispeciadev/LocalMoves-Backend-sub000/internal/service"
)

// CompanyHandler handles company registration and lookup.
//
// Routes handled:
//   - POST /api/companies      -> Register (manager only)
//   - GET  /api/companies/{id} -> Get
//   - GET  /api/me/company     -> MyCompany (manager only)
type CompanyHandler struct {
	companyService service.CompanyService
	logger         *slog.Logger
}

// NewCompanyHandler creates a new CompanyHandler.
func NewCompanyHandler(companyService service.CompanyService, logger *slog.Logger) *CompanyHandler {
	return &CompanyHandler{
		companyService: companyService,
		logger:         logger,
	}
}

// RegisterRoutes registers company routes on the provided mux.
func (h *CompanyHandler) RegisterRoutes(mux *http.ServeMux, requireUser, requireManager func(http.Handler) http.Handler) {
	mux.Handle("POST /api/companies", requireManager(http.HandlerFunc(h.Register)))
	mux.Handle("GET /api/companies/{id}", requireUser(http.HandlerFunc(h.Get)))
	mux.Handle("GET /api/me/company", requireManager(http.HandlerFunc(h.MyCompany)))
}

type registerCompanyRequest struct {
	Name              string   `json:"name"`
	PrimaryPostalCode string   `json:"primary_postal_code"`
	PostalCodes       []string `json:"postal_codes"`
}

// Register creates the company owned by the authenticated manager.
func (h *CompanyHandler) Register(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())

	var req registerCompanyRequest
	if err := decodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	company, err := h.companyService.Register(r.Context(), domain.RegisterCompanyParams{
		ManagerID:         user.ID,
		Name:              req.Name,
		PrimaryPostalCode: req.PrimaryPostalCode,
		PostalCodes:       req.PostalCodes,
	})
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"company": toCompanyJSON(company),
	})
}

// Get returns a company by ID.
func (h *CompanyHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid("company.get", "Invalid company ID"))
		return
	}

	company, err := h.companyService.GetByID(r.Context(), id)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"company": toCompanyJSON(company),
	})
}

// MyCompany returns the authenticated manager's company.
func (h *CompanyHandler) MyCompany(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())

	company, err := h.companyService.GetByManagerID(r.Context(), user.ID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"company": toCompanyJSON(company),
	})
}
