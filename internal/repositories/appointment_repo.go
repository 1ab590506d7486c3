package repositories

import (
	"context"
	"time"

	"gestly/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type AppointmentRepository interface {
	Create(ctx context.Context, appointment *models.Appointment) error
	GetByID(ctx context.Context, businessID, id uuid.UUID) (*models.Appointment, error)
	List(ctx context.Context, businessID uuid.UUID, filter models.AppointmentFilter) ([]*models.Appointment, error)
	// Update matches no row once the appointment is completed or cancelled.
	Update(ctx context.Context, appointment *models.Appointment) error
	// UpdateStatus moves an appointment from one status to another. It matches
	// no row when the stored status is no longer from.
	UpdateStatus(ctx context.Context, businessID, id uuid.UUID, from, to string, at time.Time) (*models.Appointment, error)
	Delete(ctx context.Context, businessID, id uuid.UUID) error
	// HasOverlap reports whether the professional has a non-cancelled
	// appointment intersecting [startsAt, endsAt).
	HasOverlap(ctx context.Context, businessID, professionalID uuid.UUID, startsAt, endsAt time.Time, excludeID *uuid.UUID) (bool, error)
	// LockProfessional serializes bookings for one professional until the
	// surrounding transaction ends. It must run inside WithinTx.
	LockProfessional(ctx context.Context, businessID, professionalID uuid.UUID) error
	CountByStatus(ctx context.Context, businessID uuid.UUID, from, to time.Time) (map[string]int, error)
	// ListDueForReminder spans all businesses; it is used by the reminder job.
	ListDueForReminder(ctx context.Context, from, until time.Time, limit int) ([]*models.Appointment, error)
	MarkReminded(ctx context.Context, businessID, id uuid.UUID, at time.Time) error
}

type appointmentRepo struct {
	db DBTX
}

func NewAppointmentRepo(db DBTX) AppointmentRepository {
	return &appointmentRepo{db: db}
}

const appointmentColumns = `id, business_id, customer_id, service_id, professional_id, starts_at, ends_at, status, price, notes, reminded_at, cancelled_at, completed_at, created_at, updated_at`

func scanAppointment(row pgx.Row) (*models.Appointment, error) {
	a := &models.Appointment{}
	err := row.Scan(&a.ID, &a.BusinessID, &a.CustomerID, &a.ServiceID, &a.ProfessionalID, &a.StartsAt, &a.EndsAt,
		&a.Status, &a.Price, &a.Notes, &a.RemindedAt, &a.CancelledAt, &a.CompletedAt, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func collectAppointments(rows pgx.Rows) ([]*models.Appointment, error) {
	defer rows.Close()
	appointments := []*models.Appointment{}
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appointments = append(appointments, a)
	}
	return appointments, rows.Err()
}

func (r *appointmentRepo) Create(ctx context.Context, appointment *models.Appointment) error {
	query := `
		INSERT INTO appointments (id, business_id, customer_id, service_id, professional_id, starts_at, ends_at, status, price, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at
	`
	return r.db.QueryRow(ctx, query, appointment.ID, appointment.BusinessID, appointment.CustomerID, appointment.ServiceID,
		appointment.ProfessionalID, appointment.StartsAt, appointment.EndsAt, appointment.Status, appointment.Price, appointment.Notes).
		Scan(&appointment.CreatedAt, &appointment.UpdatedAt)
}

func (r *appointmentRepo) GetByID(ctx context.Context, businessID, id uuid.UUID) (*models.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE business_id = $1 AND id = $2`
	return scanAppointment(r.db.QueryRow(ctx, query, businessID, id))
}

func (r *appointmentRepo) List(ctx context.Context, businessID uuid.UUID, filter models.AppointmentFilter) ([]*models.Appointment, error) {
	q := tenantScope("business_id", businessID)
	if filter.From != nil {
		q.and("starts_at >= ?", *filter.From)
	}
	if filter.To != nil {
		q.and("starts_at < ?", *filter.To)
	}
	if filter.Status != "" {
		q.and("status = ?", filter.Status)
	}
	if filter.CustomerID != nil {
		q.and("customer_id = ?", *filter.CustomerID)
	}
	if filter.ProfessionalID != nil {
		q.and("professional_id = ?", *filter.ProfessionalID)
	}
	query := `SELECT ` + appointmentColumns + ` FROM appointments` + q.where() + ` ORDER BY starts_at ASC, id ASC` + q.page(filter.Limit, filter.Offset)

	rows, err := r.db.Query(ctx, query, q.args...)
	if err != nil {
		return nil, err
	}
	return collectAppointments(rows)
}

func (r *appointmentRepo) Update(ctx context.Context, appointment *models.Appointment) error {
	query := `
		UPDATE appointments
		SET professional_id = $1, starts_at = $2, ends_at = $3, notes = $4, updated_at = NOW()
		WHERE business_id = $5 AND id = $6 AND status IN ('scheduled', 'confirmed')
		RETURNING updated_at
	`
	return r.db.QueryRow(ctx, query, appointment.ProfessionalID, appointment.StartsAt, appointment.EndsAt,
		appointment.Notes, appointment.BusinessID, appointment.ID).Scan(&appointment.UpdatedAt)
}

func (r *appointmentRepo) UpdateStatus(ctx context.Context, businessID, id uuid.UUID, from, to string, at time.Time) (*models.Appointment, error) {
	query := `
		UPDATE appointments
		SET status = $1,
			cancelled_at = CASE WHEN $1 = 'cancelled' THEN $2 ELSE cancelled_at END,
			completed_at = CASE WHEN $1 = 'completed' THEN $2 ELSE completed_at END,
			updated_at = NOW()
		WHERE business_id = $3 AND id = $4 AND status = $5
		RETURNING ` + appointmentColumns
	return scanAppointment(r.db.QueryRow(ctx, query, to, at, businessID, id, from))
}

func (r *appointmentRepo) Delete(ctx context.Context, businessID, id uuid.UUID) error {
	return expectOne(r.db.Exec(ctx, `DELETE FROM appointments WHERE business_id = $1 AND id = $2`, businessID, id))
}

func (r *appointmentRepo) HasOverlap(ctx context.Context, businessID, professionalID uuid.UUID, startsAt, endsAt time.Time, excludeID *uuid.UUID) (bool, error) {
	q := tenantScope("business_id", businessID).
		and("professional_id = ?", professionalID).
		and("status <> 'cancelled' AND starts_at < ?", endsAt).
		and("ends_at > ?", startsAt)
	if excludeID != nil {
		q.and("id <> ?", *excludeID)
	}

	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM appointments`+q.where()+`)`, q.args...).Scan(&exists)
	return exists, err
}

func (r *appointmentRepo) LockProfessional(ctx context.Context, businessID, professionalID uuid.UUID) error {
	_, err := r.db.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, businessID.String()+":"+professionalID.String())
	return err
}

func (r *appointmentRepo) CountByStatus(ctx context.Context, businessID uuid.UUID, from, to time.Time) (map[string]int, error) {
	query := `
		SELECT status, COUNT(*)
		FROM appointments
		WHERE business_id = $1 AND starts_at >= $2 AND starts_at < $3
		GROUP BY status
	`
	rows, err := r.db.Query(ctx, query, businessID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

func (r *appointmentRepo) ListDueForReminder(ctx context.Context, from, until time.Time, limit int) ([]*models.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE status IN ('scheduled', 'confirmed') AND reminded_at IS NULL
			AND starts_at >= $1 AND starts_at < $2
		ORDER BY starts_at ASC
		LIMIT $3
	`
	rows, err := r.db.Query(ctx, query, from, until, limit)
	if err != nil {
		return nil, err
	}
	return collectAppointments(rows)
}

func (r *appointmentRepo) MarkReminded(ctx context.Context, businessID, id uuid.UUID, at time.Time) error {
	query := `UPDATE appointments SET reminded_at = $1 WHERE business_id = $2 AND id = $3 AND reminded_at IS NULL`
	return expectOne(r.db.Exec(ctx, query, at, businessID, id))
}
