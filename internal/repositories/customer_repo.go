package repositories

import (
	"context"
	"time"

	"gestly/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type CustomerRepository interface {
	Create(ctx context.Context, customer *models.Customer) error
	GetByID(ctx context.Context, businessID, id uuid.UUID) (*models.Customer, error)
	List(ctx context.Context, businessID uuid.UUID, search string, limit, offset int) ([]*models.Customer, error)
	Update(ctx context.Context, customer *models.Customer) error
	Delete(ctx context.Context, businessID, id uuid.UUID) error
	// RecordVisit bumps visit counters after a completed appointment.
	RecordVisit(ctx context.Context, businessID, id uuid.UUID, amount float64, at time.Time) error
	// AddPoints applies a signed delta and returns the new balance. A delta
	// that would make the balance negative matches no row (pgx.ErrNoRows).
	AddPoints(ctx context.Context, businessID, id uuid.UUID, delta int) (int, error)
	CountCreatedBetween(ctx context.Context, businessID uuid.UUID, from, to time.Time) (int, error)
}

type customerRepo struct {
	db DBTX
}

func NewCustomerRepo(db DBTX) CustomerRepository {
	return &customerRepo{db: db}
}

const customerColumns = `id, business_id, name, email, phone, birthday, notes, loyalty_points, total_visits, total_spent, last_visit_at, created_at, updated_at`

func scanCustomer(row pgx.Row) (*models.Customer, error) {
	c := &models.Customer{}
	err := row.Scan(&c.ID, &c.BusinessID, &c.Name, &c.Email, &c.Phone, &c.Birthday, &c.Notes,
		&c.LoyaltyPoints, &c.TotalVisits, &c.TotalSpent, &c.LastVisitAt, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *customerRepo) Create(ctx context.Context, customer *models.Customer) error {
	query := `
		INSERT INTO customers (id, business_id, name, email, phone, birthday, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`
	return r.db.QueryRow(ctx, query, customer.ID, customer.BusinessID, customer.Name, customer.Email,
		customer.Phone, customer.Birthday, customer.Notes).
		Scan(&customer.CreatedAt, &customer.UpdatedAt)
}

func (r *customerRepo) GetByID(ctx context.Context, businessID, id uuid.UUID) (*models.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE business_id = $1 AND id = $2`
	return scanCustomer(r.db.QueryRow(ctx, query, businessID, id))
}

func (r *customerRepo) List(ctx context.Context, businessID uuid.UUID, search string, limit, offset int) ([]*models.Customer, error) {
	q := tenantScope("business_id", businessID)
	if search != "" {
		q.and("(name ILIKE ? OR email ILIKE ? OR phone ILIKE ?)", "%"+search+"%")
	}
	query := `SELECT ` + customerColumns + ` FROM customers` + q.where() + ` ORDER BY name ASC` + q.page(limit, offset)

	rows, err := r.db.Query(ctx, query, q.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	customers := []*models.Customer{}
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

func (r *customerRepo) Update(ctx context.Context, customer *models.Customer) error {
	query := `
		UPDATE customers
		SET name = $1, email = $2, phone = $3, birthday = $4, notes = $5, updated_at = NOW()
		WHERE business_id = $6 AND id = $7
		RETURNING updated_at
	`
	return r.db.QueryRow(ctx, query, customer.Name, customer.Email, customer.Phone, customer.Birthday,
		customer.Notes, customer.BusinessID, customer.ID).Scan(&customer.UpdatedAt)
}

func (r *customerRepo) Delete(ctx context.Context, businessID, id uuid.UUID) error {
	return expectOne(r.db.Exec(ctx, `DELETE FROM customers WHERE business_id = $1 AND id = $2`, businessID, id))
}

func (r *customerRepo) RecordVisit(ctx context.Context, businessID, id uuid.UUID, amount float64, at time.Time) error {
	query := `
		UPDATE customers
		SET total_visits = total_visits + 1,
			total_spent = total_spent + $1,
			last_visit_at = GREATEST(COALESCE(last_visit_at, $2), $2),
			updated_at = NOW()
		WHERE business_id = $3 AND id = $4
	`
	return expectOne(r.db.Exec(ctx, query, amount, at, businessID, id))
}

func (r *customerRepo) AddPoints(ctx context.Context, businessID, id uuid.UUID, delta int) (int, error) {
	query := `
		UPDATE customers
		SET loyalty_points = loyalty_points + $1, updated_at = NOW()
		WHERE business_id = $2 AND id = $3 AND loyalty_points + $1 >= 0
		RETURNING loyalty_points
	`
	var balance int
	if err := r.db.QueryRow(ctx, query, delta, businessID, id).Scan(&balance); err != nil {
		return 0, err
	}
	return balance, nil
}

func (r *customerRepo) CountCreatedBetween(ctx context.Context, businessID uuid.UUID, from, to time.Time) (int, error) {
	var n int
	query := `SELECT COUNT(*) FROM customers WHERE business_id = $1 AND created_at >= $2 AND created_at < $3`
	err := r.db.QueryRow(ctx, query, businessID, from, to).Scan(&n)
	return n, err
}
