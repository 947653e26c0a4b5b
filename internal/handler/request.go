package handler

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/ispeciadev/LocalMoves-Backend-sub000/internal/auth"
	"github.com/ispeciadev/LocalMoves-Backend-sub000/internal/domain"
	"github.com/ispeciadev/LocalMoves-Backend-sub000/internal/service"
)

// RequestHandler handles the moving-request lifecycle endpoints.
//
// Routes handled:
//   - POST   /api/requests              -> Create
//   - GET    /api/requests              -> ListMine
//   - GET    /api/requests/{id}         -> Get
//   - POST   /api/requests/{id}/accept  -> Accept (manager only)
//   - PATCH  /api/requests/{id}/status  -> UpdateStatus
//   - POST   /api/requests/{id}/cancel  -> Cancel
//   - POST   /api/requests/{id}/photos  -> UploadPhoto
//   - GET    /api/requests/{id}/photos  -> ListPhotos
type RequestHandler struct {
	assignments service.AssignmentService
	requests    service.RequestService
	photos      service.PhotoService
	logger      *slog.Logger
}

// NewRequestHandler creates a new RequestHandler.
func NewRequestHandler(
	assignments service.AssignmentService,
	requests service.RequestService,
	photos service.PhotoService,
	logger *slog.Logger,
) *RequestHandler {
	return &RequestHandler{
		assignments: assignments,
		requests:    requests,
		photos:      photos,
		logger:      logger,
	}
}

// RegisterRoutes registers request routes on the provided mux.
func (h *RequestHandler) RegisterRoutes(mux *http.ServeMux, requireUser, requireManager func(http.Handler) http.Handler) {
	mux.Handle("POST /api/requests", requireUser(http.HandlerFunc(h.Create)))
	mux.Handle("GET /api/requests", requireUser(http.HandlerFunc(h.ListMine)))
	mux.Handle("GET /api/requests/{id}", requireUser(http.HandlerFunc(h.Get)))
	mux.Handle("POST /api/requests/{id}/accept", requireManager(http.HandlerFunc(h.Accept)))
	mux.Handle("PATCH /api/requests/{id}/status", requireUser(http.HandlerFunc(h.UpdateStatus)))
	mux.Handle("POST /api/requests/{id}/cancel", requireUser(http.HandlerFunc(h.Cancel)))
	mux.Handle("POST /api/requests/{id}/photos", requireUser(http.HandlerFunc(h.UploadPhoto)))
	mux.Handle("GET /api/requests/{id}/photos", requireUser(http.HandlerFunc(h.ListPhotos)))
}

type createRequestRequest struct {
	PickupAddress       string `json:"pickup_address"`
	DeliveryAddress     string `json:"delivery_address"`
	City                string `json:"city"`
	PostalCode          string `json:"postal_code"`
	Description         string `json:"description"`
	PropertySize        string `json:"property_size"`
	ServiceType         string `json:"service_type"`
	SpecialInstructions string `json:"special_instructions"`
	TargetCompanyName   string `json:"target_company_name"`
}

// Create creates a new moving request for the authenticated customer.
// The response reports where the request landed: open marketplace, assigned
// to the targeted company, or soft-reserved for it.
func (h *RequestHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())

	var req createRequestRequest
	if err := decodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	result, err := h.assignments.Create(r.Context(), domain.CreateRequestParams{
		OwnerID:             user.ID,
		PickupAddress:       req.PickupAddress,
		DeliveryAddress:     req.DeliveryAddress,
		City:                req.City,
		PostalCode:          req.PostalCode,
		Description:         req.Description,
		PropertySize:        req.PropertySize,
		ServiceType:         req.ServiceType,
		SpecialInstructions: req.SpecialInstructions,
		TargetCompanyName:   req.TargetCompanyName,
	})
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"request": toRequestJSON(result.Request),
		"outcome": string(result.Outcome),
	})
}

// ListMine returns the authenticated user's own requests, newest first.
func (h *RequestHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())

	requests, err := h.requests.ListByOwner(r.Context(), user.ID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"requests": toRequestListJSON(requests),
	})
}

// Get returns a request with its photos.
func (h *RequestHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())

	id, err := parseRequestID(r)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	request, err := h.requests.Get(r.Context(), user, id)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	photos, err := h.photos.ListByRequest(r.Context(), id)
	if err != nil {
		// Photos are supplementary; the request itself is the answer.
		h.logger.Warn("failed to list request photos", "error", err, "request_id", id)
		photos = nil
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"request": toRequestJSON(request),
		"photos":  toPhotoListJSON(photos),
	})
}

type acceptRequest struct {
	EstimatedCost *float64 `json:"estimated_cost"`
}

// Accept lets a manager claim a pending request in their service area.
// A 410 response means another company claimed it first; a 402 with quota
// detail means the monthly view limit is exhausted.
func (h *RequestHandler) Accept(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())

	id, err := parseRequestID(r)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	// The body is optional: accepting without an estimate is fine.
	var req acceptRequest
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &req); err != nil {
			ErrorResponse(w, r, h.logger, err)
			return
		}
	}

	result, err := h.assignments.Accept(r.Context(), user, id, req.EstimatedCost)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"request": toRequestJSON(result.Request),
		"kind":    string(result.Kind),
	})
}

type updateStatusRequest struct {
	Status     string   `json:"status"`
	Notes      string   `json:"notes"`
	ActualCost *float64 `json:"actual_cost"`
}

// UpdateStatus applies a status transition to a request.
func (h *RequestHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())

	id, err := parseRequestID(r)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	var req updateStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	request, err := h.assignments.UpdateStatus(r.Context(), user, domain.UpdateStatusParams{
		RequestID:  id,
		NewStatus:  domain.RequestStatus(req.Status),
		Notes:      req.Notes,
		ActualCost: req.ActualCost,
	})
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"request": toRequestJSON(request),
	})
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

// Cancel cancels a request. Idempotent: cancelling an already-cancelled
// request succeeds without side effects.
func (h *RequestHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())

	id, err := parseRequestID(r)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	var req cancelRequest
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &req); err != nil {
			ErrorResponse(w, r, h.logger, err)
			return
		}
	}

	request, err := h.assignments.Cancel(r.Context(), user, id, req.Reason)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"request": toRequestJSON(request),
	})
}

// UploadPhoto attaches an item photo to a request. Expects a multipart form
// with the file in the "photo" field.
func (h *RequestHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())

	id, err := parseRequestID(r)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	if err := r.ParseMultipartForm(domain.MaxPhotoSizeBytes); err != nil {
		ErrorResponse(w, r, h.logger,
			domain.Wrap(err, domain.EINVALID, "photo.upload", "Invalid multipart form"))
		return
	}

	file, header, err := r.FormFile("photo")
	if err != nil {
		ErrorResponse(w, r, h.logger,
			domain.Invalid("photo.upload", "A file is required in the \"photo\" field"))
		return
	}
	defer file.Close()

	photo, err := h.photos.Upload(r.Context(), user, id, header.Filename, header.Size, file)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"photo": toPhotoJSON(photo),
	})
}

// ListPhotos returns the photos of a request.
func (h *RequestHandler) ListPhotos(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())

	id, err := parseRequestID(r)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	// Visibility piggybacks on the detail authorization.
	if _, err := h.requests.Get(r.Context(), user, id); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	photos, err := h.photos.ListByRequest(r.Context(), id)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"photos": toPhotoListJSON(photos),
	})
}

func parseRequestID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return uuid.Nil, domain.Invalid("", "Invalid request ID")
	}
	return id, nil
}
