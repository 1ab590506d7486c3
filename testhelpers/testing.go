package testhelpers

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"gestly/internal/migrations"
	"gestly/internal/models"
	"gestly/internal/repositories"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// TestDB holds a migrated database for integration tests
type TestDB struct {
	Pool  *pgxpool.Pool
	Store *repositories.Store
}

// MigrationsDir returns the migrations directory of this repository.
func MigrationsDir() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "migrations")
}

// SetupTestDB connects to TEST_DATABASE_URL and applies every migration.
// The test is skipped when the variable is not set.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	connString := os.Getenv("TEST_DATABASE_URL")
	if connString == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	t.Cleanup(pool.Close)

	if _, err := migrations.NewRunner(pool, os.DirFS(MigrationsDir()), zap.NewNop()).Run(ctx); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	return &TestDB{Pool: pool, Store: repositories.NewStore(pool)}
}

// SetupTestBusiness creates a business with a unique email
func SetupTestBusiness(t *testing.T, db *TestDB) *models.Business {
	t.Helper()

	id := uuid.New()
	business := &models.Business{
		ID:       id,
		Name:     "Salão " + id.String()[:8],
		Email:    id.String() + "@test.gestly.dev",
		Timezone: "America/Sao_Paulo",
		Status:   "active",
	}
	if err := db.Store.Businesses.Create(context.Background(), business); err != nil {
		t.Fatalf("Failed to create test business: %v", err)
	}
	return business
}

// SetupTestProfile creates an active profile with the given role
func SetupTestProfile(t *testing.T, db *TestDB, businessID uuid.UUID, role string) *models.Profile {
	t.Helper()

	id := uuid.New()
	profile := &models.Profile{
		ID:         id,
		BusinessID: businessID,
		Email:      id.String() + "@staff.gestly.dev",
		FullName:   "Profissional de Teste",
		Role:       role,
		Active:     true,
	}
	if err := db.Store.Profiles.Create(context.Background(), profile); err != nil {
		t.Fatalf("Failed to create test profile: %v", err)
	}
	return profile
}

// SetupTestCustomer creates a customer named name
func SetupTestCustomer(t *testing.T, db *TestDB, businessID uuid.UUID, name string) *models.Customer {
	t.Helper()

	customer := &models.Customer{
		ID:         uuid.New(),
		BusinessID: businessID,
		Name:       name,
	}
	if err := db.Store.Customers.Create(context.Background(), customer); err != nil {
		t.Fatalf("Failed to create test customer: %v", err)
	}
	return customer
}
