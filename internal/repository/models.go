package repository

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"
)

// User mirrors the users table.
type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	Name         string
	Phone        sql.NullString
	Role         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Session mirrors the sessions table.
type Session struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Company mirrors the companies table.
type Company struct {
	ID                      uuid.UUID
	Name                    string
	ManagerID               uuid.UUID
	PrimaryPostalCode       string
	PostalCodes             []string
	SubscriptionPlan        string
	SubscriptionStartDate   time.Time
	SubscriptionEndDate     sql.NullTime
	IsActive                bool
	RequestsViewedThisMonth int32
	StripeCustomerID        sql.NullString
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

// Request mirrors the requests table.
type Request struct {
	ID                   uuid.UUID
	OwnerID              uuid.UUID
	PickupAddress        string
	DeliveryAddress      string
	City                 string
	PostalCode           string
	Description          string
	PropertySize         sql.NullString
	ServiceType          sql.NullString
	SpecialInstructions  sql.NullString
	Status               string
	CompanyID            uuid.NullUUID
	PreviouslyAssignedTo uuid.NullUUID
	AssignedDate         sql.NullTime
	EstimatedCost        sql.NullFloat64
	ActualCost           sql.NullFloat64
	PricingBreakdown     pqtype.NullRawMessage
	Notes                sql.NullString
	CompletedAt          sql.NullTime
	CreatedAt            time.Time
	UpdatedAt            time.Time

	// Joined column, populated by list queries that join users.
	OwnerEmail string
}

// RequestPhoto mirrors the request_photos table.
type RequestPhoto struct {
	ID           uuid.UUID
	RequestID    uuid.UUID
	ObjectKey    string
	ThumbnailKey string
	ContentType  string
	SizeBytes    int64
	CreatedAt    time.Time
}

// Job mirrors the jobs table used by the background worker.
type Job struct {
	ID           uuid.UUID
	JobType      string
	Payload      []byte
	Status       string
	Priority     int32
	Attempts     int32
	MaxAttempts  int32
	ScheduledAt  time.Time
	StartedAt    sql.NullTime
	CompletedAt  sql.NullTime
	ErrorMessage sql.NullString
	CreatedAt    time.Time
}
