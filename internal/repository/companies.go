package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const companyColumns = `id, name, manager_id, primary_postal_code, postal_codes,
	subscription_plan, subscription_start_date, subscription_end_date,
	is_active, requests_viewed_this_month, stripe_customer_id, created_at, updated_at`

func scanCompany(row interface{ Scan(...interface{}) error }) (Company, error) {
	var c Company
	err := row.Scan(
		&c.ID,
		&c.Name,
		&c.ManagerID,
		&c.PrimaryPostalCode,
		pq.Array(&c.PostalCodes),
		&c.SubscriptionPlan,
		&c.SubscriptionStartDate,
		&c.SubscriptionEndDate,
		&c.IsActive,
		&c.RequestsViewedThisMonth,
		&c.StripeCustomerID,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	return c, err
}

// CreateCompanyParams holds the insert values for a new company.
// New companies start on the free plan, active, with a zeroed view counter.
type CreateCompanyParams struct {
	Name              string
	ManagerID         uuid.UUID
	PrimaryPostalCode string
	PostalCodes       []string
	SubscriptionPlan  string
}

// CreateCompany inserts a new company and returns the stored row.
func (q *Queries) CreateCompany(ctx context.Context, arg CreateCompanyParams) (Company, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO companies (id, name, manager_id, primary_postal_code, postal_codes, subscription_plan)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+companyColumns,
		uuid.New(), arg.Name, arg.ManagerID, arg.PrimaryPostalCode,
		pq.Array(arg.PostalCodes), arg.SubscriptionPlan,
	)
	return scanCompany(row)
}

// GetCompanyByID fetches a company by primary key.
func (q *Queries) GetCompanyByID(ctx context.Context, id uuid.UUID) (Company, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+companyColumns+` FROM companies WHERE id = $1`, id)
	return scanCompany(row)
}

// GetCompanyByIDForUpdate fetches a company row with a row lock. Used inside
// assignment transactions so quota re-checks and the counter increment see a
// stable row.
func (q *Queries) GetCompanyByIDForUpdate(ctx context.Context, id uuid.UUID) (Company, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+companyColumns+` FROM companies WHERE id = $1 FOR UPDATE`, id)
	return scanCompany(row)
}

// GetCompanyByName fetches a company by its unique name.
func (q *Queries) GetCompanyByName(ctx context.Context, name string) (Company, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+companyColumns+` FROM companies WHERE name = $1`, name)
	return scanCompany(row)
}

// GetCompanyByManagerID fetches the company owned by the given manager.
func (q *Queries) GetCompanyByManagerID(ctx context.Context, managerID uuid.UUID) (Company, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+companyColumns+` FROM companies WHERE manager_id = $1`, managerID)
	return scanCompany(row)
}

// GetCompanyByStripeCustomerID fetches a company by its Stripe customer ID.
func (q *Queries) GetCompanyByStripeCustomerID(ctx context.Context, customerID string) (Company, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+companyColumns+` FROM companies WHERE stripe_customer_id = $1`, customerID)
	return scanCompany(row)
}

// SetCompanyStripeCustomerID stores the Stripe customer reference.
func (q *Queries) SetCompanyStripeCustomerID(ctx context.Context, id uuid.UUID, customerID string) error {
	_, err := q.db.ExecContext(ctx, `
		UPDATE companies SET stripe_customer_id = $2, updated_at = now()
		WHERE id = $1`,
		id, customerID)
	return err
}

// IncrementCompanyViews bumps the monthly view counter by one.
func (q *Queries) IncrementCompanyViews(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.ExecContext(ctx, `
		UPDATE companies
		SET requests_viewed_this_month = requests_viewed_this_month + 1,
		    updated_at = now()
		WHERE id = $1`,
		id)
	return err
}

// DecrementCompanyViews lowers the monthly view counter by one, floored at
// zero. Used when an assigned request is cancelled.
func (q *Queries) DecrementCompanyViews(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.ExecContext(ctx, `
		UPDATE companies
		SET requests_viewed_this_month = GREATEST(requests_viewed_this_month - 1, 0),
		    updated_at = now()
		WHERE id = $1`,
		id)
	return err
}

// UpdateCompanySubscriptionParams holds the new subscription state applied
// after a successful payment.
type UpdateCompanySubscriptionParams struct {
	ID                    uuid.UUID
	SubscriptionPlan      string
	SubscriptionStartDate time.Time
	SubscriptionEndDate   sql.NullTime
}

// UpdateCompanySubscription applies a paid plan: new plan and validity
// window, active flag set, and the view counter reset to zero so the new
// quota period starts immediately.
func (q *Queries) UpdateCompanySubscription(ctx context.Context, arg UpdateCompanySubscriptionParams) (Company, error) {
	row := q.db.QueryRowContext(ctx, `
		UPDATE companies
		SET subscription_plan = $2,
		    subscription_start_date = $3,
		    subscription_end_date = $4,
		    is_active = TRUE,
		    requests_viewed_this_month = 0,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+companyColumns,
		arg.ID, arg.SubscriptionPlan, arg.SubscriptionStartDate, arg.SubscriptionEndDate,
	)
	return scanCompany(row)
}

// ResetAllViewCounts zeroes every company's monthly view counter in one
// statement. Idempotent: running it twice leaves all counters at zero.
func (q *Queries) ResetAllViewCounts(ctx context.Context) (int64, error) {
	res, err := q.db.ExecContext(ctx, `
		UPDATE companies
		SET requests_viewed_this_month = 0, updated_at = now()
		WHERE requests_viewed_this_month <> 0`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DowngradeExpiredCompanies demotes companies whose subscription end date has
// passed back to the given plan in one statement. Companies stay active; the
// lower limit is enforced by the next reconciliation sweep.
func (q *Queries) DowngradeExpiredCompanies(ctx context.Context, freePlan string) (int64, error) {
	res, err := q.db.ExecContext(ctx, `
		UPDATE companies
		SET subscription_plan = $1,
		    subscription_end_date = NULL,
		    updated_at = now()
		WHERE subscription_plan <> $1
		  AND subscription_end_date IS NOT NULL
		  AND subscription_end_date < CURRENT_DATE`,
		freePlan)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
