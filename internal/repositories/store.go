package repositories

import (
	"context"
	"fmt"
)

// Store groups every repository over one connection or transaction.
type Store struct {
	db DBTX

	Businesses   BusinessRepository
	Profiles     ProfileRepository
	APIKeys      APIKeyRepository
	Customers    CustomerRepository
	Services     ServiceRepository
	Appointments AppointmentRepository
	Commissions  CommissionRepository
	Transactions FinancialTransactionRepository
	Loyalty      LoyaltyRepository
	Reviews      ReviewRepository
	Webhooks     WebhookRepository
	Deliveries   WebhookDeliveryRepository
	Usage        UsageRepository
}

// Transactor runs fn with a Store bound to a single database transaction.
// The transaction commits when fn returns nil and rolls back otherwise.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(tx *Store) error) error
}

func NewStore(db DBTX) *Store {
	return &Store{
		db:           db,
		Businesses:   NewBusinessRepo(db),
		Profiles:     NewProfileRepo(db),
		APIKeys:      NewAPIKeyRepo(db),
		Customers:    NewCustomerRepo(db),
		Services:     NewServiceRepo(db),
		Appointments: NewAppointmentRepo(db),
		Commissions:  NewCommissionRepo(db),
		Transactions: NewFinancialTransactionRepo(db),
		Loyalty:      NewLoyaltyRepo(db),
		Reviews:      NewReviewRepo(db),
		Webhooks:     NewWebhookRepo(db),
		Deliveries:   NewWebhookDeliveryRepo(db),
		Usage:        NewUsageRepo(db),
	}
}

func (s *Store) WithinTx(ctx context.Context, fn func(tx *Store) error) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(NewStore(tx)); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
