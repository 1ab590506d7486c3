package testhelpers

import (
	"context"
	"os"
	"testing"
	"time"

	"gestly/internal/migrations"
	"gestly/internal/models"
	"gestly/internal/repositories"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMigrationsAreIdempotent(t *testing.T) {
	db := SetupTestDB(t)

	runner := migrations.NewRunner(db.Pool, os.DirFS(MigrationsDir()), zap.NewNop())
	result, err := runner.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, result.Applied)

	pending, err := runner.Pending(context.Background())
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestCustomersAreScopedToTheirBusiness(t *testing.T) {
	db := SetupTestDB(t)
	ctx := context.Background()

	mine := SetupTestBusiness(t, db)
	other := SetupTestBusiness(t, db)
	ana := SetupTestCustomer(t, db, mine.ID, "Ana Souza")
	SetupTestCustomer(t, db, other.ID, "Ana Lima")

	list, err := db.Store.Customers.List(ctx, mine.ID, "Ana", 20, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, ana.ID, list[0].ID)

	_, err = db.Store.Customers.GetByID(ctx, other.ID, ana.ID)
	assert.True(t, repositories.IsNoRows(err))
}

func TestPointsNeverGoNegative(t *testing.T) {
	db := SetupTestDB(t)
	ctx := context.Background()

	business := SetupTestBusiness(t, db)
	customer := SetupTestCustomer(t, db, business.ID, "Bruno")

	balance, err := db.Store.Customers.AddPoints(ctx, business.ID, customer.ID, 30)
	require.NoError(t, err)
	assert.Equal(t, 30, balance)

	_, err = db.Store.Customers.AddPoints(ctx, business.ID, customer.ID, -31)
	assert.True(t, repositories.IsNoRows(err))

	got, err := db.Store.Customers.GetByID(ctx, business.ID, customer.ID)
	require.NoError(t, err)
	assert.Equal(t, 30, got.LoyaltyPoints)
}

func TestProfileEmailIsUnique(t *testing.T) {
	db := SetupTestDB(t)
	ctx := context.Background()

	business := SetupTestBusiness(t, db)
	owner := SetupTestProfile(t, db, business.ID, models.RoleOwner)

	exists, err := db.Store.Profiles.EmailExists(ctx, owner.Email)
	require.NoError(t, err)
	assert.True(t, exists)

	dup := *owner
	dup.ID = owner.ID
	dup.ID[0] ^= 0xff
	assert.Error(t, db.Store.Profiles.Create(ctx, &dup))
}

func TestCustomerWithAppointmentsCannotBeDeleted(t *testing.T) {
	db := SetupTestDB(t)
	ctx := context.Background()

	business := SetupTestBusiness(t, db)
	customer := SetupTestCustomer(t, db, business.ID, "Carla")
	service := &models.Service{ID: uuid.New(), BusinessID: business.ID, Name: "Corte", Price: 50, DurationMinutes: 30, Category: "Geral", Active: true}
	require.NoError(t, db.Store.Services.Create(ctx, service))

	startsAt := time.Now().UTC().Add(24 * time.Hour).Truncate(time.Minute)
	appointment := &models.Appointment{
		ID:         uuid.New(),
		BusinessID: business.ID,
		CustomerID: customer.ID,
		ServiceID:  service.ID,
		StartsAt:   startsAt,
		EndsAt:     startsAt.Add(30 * time.Minute),
		Status:     models.AppointmentCompleted,
		Price:      50,
	}
	require.NoError(t, db.Store.Appointments.Create(ctx, appointment))

	err := db.Store.Customers.Delete(ctx, business.ID, customer.ID)
	assert.True(t, repositories.IsForeignKeyViolation(err))

	_, err = db.Store.Appointments.GetByID(ctx, business.ID, appointment.ID)
	assert.NoError(t, err)

	appointment.Notes = "remarcado"
	assert.True(t, repositories.IsNoRows(db.Store.Appointments.Update(ctx, appointment)))
}

func TestUsageDaysNeverDecrease(t *testing.T) {
	db := SetupTestDB(t)
	ctx := context.Background()

	business := SetupTestBusiness(t, db)
	day := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	require.NoError(t, db.Store.Usage.Record(ctx, business.ID, day, 40))
	require.NoError(t, db.Store.Usage.Record(ctx, business.ID, day, 12))
	require.NoError(t, db.Store.Usage.Record(ctx, business.ID, day.AddDate(0, 0, 1), 5))

	total, err := db.Store.Usage.Total(ctx, business.ID, day, day.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, int64(45), total)
}
