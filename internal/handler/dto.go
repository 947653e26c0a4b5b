package handler

import (
	"time"

	"github.com/google/uuid"

	"github.com/ispeciadev/LocalMoves-Backend-sub000/internal/domain"
)

// JSON view types returned by the API. These keep wire shapes stable and
// independent from the domain structs (which carry fields like password
// hashes that must never leak).

type userJSON struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone,omitempty"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

func toUserJSON(u *domain.User) userJSON {
	return userJSON{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Phone:     u.Phone,
		Role:      u.Role.String(),
		CreatedAt: u.CreatedAt,
	}
}

type companyJSON struct {
	ID                      uuid.UUID  `json:"id"`
	Name                    string     `json:"name"`
	PrimaryPostalCode       string     `json:"primary_postal_code"`
	PostalCodes             []string   `json:"postal_codes"`
	SubscriptionPlan        string     `json:"subscription_plan"`
	SubscriptionStartDate   time.Time  `json:"subscription_start_date"`
	SubscriptionEndDate     *time.Time `json:"subscription_end_date,omitempty"`
	IsActive                bool       `json:"is_active"`
	RequestsViewedThisMonth int        `json:"requests_viewed_this_month"`
	CreatedAt               time.Time  `json:"created_at"`
}

func toCompanyJSON(c *domain.Company) companyJSON {
	return companyJSON{
		ID:                      c.ID,
		Name:                    c.Name,
		PrimaryPostalCode:       c.PrimaryPostalCode,
		PostalCodes:             c.PostalCodes,
		SubscriptionPlan:        string(c.SubscriptionPlan),
		SubscriptionStartDate:   c.SubscriptionStartDate,
		SubscriptionEndDate:     c.SubscriptionEndDate,
		IsActive:                c.IsActive,
		RequestsViewedThisMonth: c.RequestsViewedThisMonth,
		CreatedAt:               c.CreatedAt,
	}
}

type requestJSON struct {
	ID                  uuid.UUID  `json:"id"`
	OwnerID             uuid.UUID  `json:"owner_id"`
	OwnerEmail          string     `json:"owner_email,omitempty"`
	PickupAddress       string     `json:"pickup_address"`
	DeliveryAddress     string     `json:"delivery_address"`
	City                string     `json:"city"`
	PostalCode          string     `json:"postal_code"`
	Description         string     `json:"description"`
	PropertySize        string     `json:"property_size,omitempty"`
	ServiceType         string     `json:"service_type,omitempty"`
	SpecialInstructions string     `json:"special_instructions,omitempty"`
	Status              string     `json:"status"`
	CompanyID           *uuid.UUID `json:"company_id,omitempty"`
	AssignedDate        *time.Time `json:"assigned_date,omitempty"`
	EstimatedCost       *float64   `json:"estimated_cost,omitempty"`
	ActualCost          *float64   `json:"actual_cost,omitempty"`
	Notes               string     `json:"notes,omitempty"`
	CompletedAt         *time.Time `json:"completed_at,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

func toRequestJSON(r *domain.Request) requestJSON {
	return requestJSON{
		ID:                  r.ID,
		OwnerID:             r.OwnerID,
		OwnerEmail:          r.OwnerEmail,
		PickupAddress:       r.PickupAddress,
		DeliveryAddress:     r.DeliveryAddress,
		City:                r.City,
		PostalCode:          r.PostalCode,
		Description:         r.Description,
		PropertySize:        r.PropertySize,
		ServiceType:         r.ServiceType,
		SpecialInstructions: r.SpecialInstructions,
		Status:              string(r.Status),
		CompanyID:           r.CompanyID,
		AssignedDate:        r.AssignedDate,
		EstimatedCost:       r.EstimatedCost,
		ActualCost:          r.ActualCost,
		Notes:               r.Notes,
		CompletedAt:         r.CompletedAt,
		CreatedAt:           r.CreatedAt,
		UpdatedAt:           r.UpdatedAt,
	}
}

func toRequestListJSON(requests []domain.Request) []requestJSON {
	out := make([]requestJSON, len(requests))
	for i := range requests {
		out[i] = toRequestJSON(&requests[i])
	}
	return out
}

type blurredRequestJSON struct {
	ID              uuid.UUID `json:"id"`
	PostalCode      string    `json:"postal_code"`
	PropertySize    string    `json:"property_size,omitempty"`
	ServiceType     string    `json:"service_type,omitempty"`
	Reason          string    `json:"reason"`
	Description     string    `json:"description"`
	PickupAddress   string    `json:"pickup_address"`
	DeliveryAddress string    `json:"delivery_address"`
	OwnerEmail      string    `json:"owner_email"`
	CreatedAt       time.Time `json:"created_at"`
}

func toBlurredListJSON(blurred []domain.BlurredRequest) []blurredRequestJSON {
	out := make([]blurredRequestJSON, len(blurred))
	for i, b := range blurred {
		out[i] = blurredRequestJSON{
			ID:              b.ID,
			PostalCode:      b.PostalCode,
			PropertySize:    b.PropertySize,
			ServiceType:     b.ServiceType,
			Reason:          string(b.Reason),
			Description:     b.Description,
			PickupAddress:   b.PickupAddress,
			DeliveryAddress: b.DeliveryAddress,
			OwnerEmail:      b.OwnerEmail,
			CreatedAt:       b.CreatedAt,
		}
	}
	return out
}

type photoJSON struct {
	ID           uuid.UUID `json:"id"`
	RequestID    uuid.UUID `json:"request_id"`
	ContentType  string    `json:"content_type"`
	SizeBytes    int64     `json:"size_bytes"`
	URL          string    `json:"url,omitempty"`
	ThumbnailURL string    `json:"thumbnail_url,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

func toPhotoJSON(p *domain.RequestPhoto) photoJSON {
	return photoJSON{
		ID:           p.ID,
		RequestID:    p.RequestID,
		ContentType:  p.ContentType,
		SizeBytes:    p.SizeBytes,
		URL:          p.URL,
		ThumbnailURL: p.ThumbnailURL,
		CreatedAt:    p.CreatedAt,
	}
}

func toPhotoListJSON(photos []domain.RequestPhoto) []photoJSON {
	out := make([]photoJSON, len(photos))
	for i := range photos {
		out[i] = toPhotoJSON(&photos[i])
	}
	return out
}

type subscriptionStatusJSON struct {
	Active      bool       `json:"active"`
	Reason      string     `json:"reason,omitempty"`
	Message     string     `json:"message,omitempty"`
	ExpiredDate *time.Time `json:"expired_date,omitempty"`
}

type boardStatisticsJSON struct {
	Visible     int `json:"visible"`
	Blurred     int `json:"blurred"`
	Available   int `json:"available"`
	Reclaimable int `json:"reclaimable"`
	Viewed      int `json:"viewed"`
	Limit       int `json:"limit"`
	Remaining   int `json:"remaining"`
}

type boardJSON struct {
	Company      *companyJSON           `json:"company,omitempty"`
	CanAct       bool                   `json:"can_act"`
	Subscription subscriptionStatusJSON `json:"subscription"`
	Visible      []requestJSON          `json:"visible"`
	Blurred      []blurredRequestJSON   `json:"blurred"`
	Available    []requestJSON          `json:"available"`
	Reclaimable  []requestJSON          `json:"reclaimable"`
	Statistics   boardStatisticsJSON    `json:"statistics"`
}

func toBoardJSON(b *domain.ManagerBoard) boardJSON {
	out := boardJSON{
		CanAct: b.CanAct,
		Subscription: subscriptionStatusJSON{
			Active:      b.Subscription.Active,
			Reason:      b.Subscription.Reason,
			Message:     b.Subscription.Message,
			ExpiredDate: b.Subscription.ExpiredDate,
		},
		Visible:     toRequestListJSON(b.Visible),
		Blurred:     toBlurredListJSON(b.Blurred),
		Available:   toRequestListJSON(b.Available),
		Reclaimable: toRequestListJSON(b.Reclaimable),
		Statistics: boardStatisticsJSON{
			Visible:     b.Statistics.Visible,
			Blurred:     b.Statistics.Blurred,
			Available:   b.Statistics.Available,
			Reclaimable: b.Statistics.Reclaimable,
			Viewed:      b.Statistics.Viewed,
			Limit:       b.Statistics.Limit,
			Remaining:   b.Statistics.Remaining,
		},
	}
	if b.Company != nil {
		c := toCompanyJSON(b.Company)
		out.Company = &c
	}
	return out
}
