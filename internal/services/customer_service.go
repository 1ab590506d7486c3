package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gestly/internal/common"
	"gestly/internal/models"
	"gestly/internal/repositories"

	"github.com/google/uuid"
)

type CustomerService interface {
	List(ctx context.Context, businessID uuid.UUID, search string, limit, offset int) ([]*models.Customer, error)
	Create(ctx context.Context, businessID uuid.UUID, req CustomerRequest) (*models.Customer, error)
	Get(ctx context.Context, businessID, id uuid.UUID) (*models.Customer, error)
	Update(ctx context.Context, businessID, id uuid.UUID, req CustomerRequest) (*models.Customer, error)
	Delete(ctx context.Context, businessID, id uuid.UUID) error
}

// CustomerRequest is used for create and full update. Birthday is YYYY-MM-DD.
type CustomerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Birthday string `json:"birthday"`
	Notes    string `json:"notes"`
}

const msgCustomerHasHistory = "Cliente possui agendamentos e não pode ser removido"

type customerService struct {
	customers repositories.CustomerRepository
	events    EventPublisher
}

func NewCustomerService(customers repositories.CustomerRepository, events EventPublisher) CustomerService {
	return &customerService{customers: customers, events: events}
}

func (r CustomerRequest) apply(c *models.Customer) error {
	details := map[string]string{}
	name := strings.TrimSpace(r.Name)
	if name == "" {
		details["name"] = "Nome é obrigatório"
	}
	email := common.NormalizeEmail(r.Email)
	if email != "" {
		if err := common.ValidateEmail(email); err != nil {
			details["email"] = "Email inválido"
		}
	}
	var birthday *time.Time
	if r.Birthday != "" {
		t, err := time.Parse("2006-01-02", r.Birthday)
		if err != nil {
			details["birthday"] = "Data de nascimento deve estar no formato AAAA-MM-DD"
		} else {
			birthday = &t
		}
	}
	if len(details) > 0 {
		return common.ValidationError("Dados inválidos", details)
	}

	c.Name = name
	c.Email = email
	c.Phone = strings.TrimSpace(r.Phone)
	c.Birthday = birthday
	c.Notes = r.Notes
	return nil
}

func (s *customerService) List(ctx context.Context, businessID uuid.UUID, search string, limit, offset int) ([]*models.Customer, error) {
	limit, offset = common.ValidatePaginationParams(limit, offset)
	customers, err := s.customers.List(ctx, businessID, common.SanitizeSearchQuery(search), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	return customers, nil
}

func (s *customerService) Create(ctx context.Context, businessID uuid.UUID, req CustomerRequest) (*models.Customer, error) {
	customer := &models.Customer{ID: uuid.New(), BusinessID: businessID}
	if err := req.apply(customer); err != nil {
		return nil, err
	}
	if err := s.customers.Create(ctx, customer); err != nil {
		return nil, fmt.Errorf("create customer: %w", err)
	}
	s.events.Publish(ctx, businessID, models.EventCustomerCreated, customer)
	return customer, nil
}

func (s *customerService) Get(ctx context.Context, businessID, id uuid.UUID) (*models.Customer, error) {
	customer, err := s.customers.GetByID(ctx, businessID, id)
	if err != nil {
		return nil, notFoundOr(err, msgCustomerNotFound, "get customer")
	}
	return customer, nil
}

func (s *customerService) Update(ctx context.Context, businessID, id uuid.UUID, req CustomerRequest) (*models.Customer, error) {
	customer, err := s.Get(ctx, businessID, id)
	if err != nil {
		return nil, err
	}
	if err := req.apply(customer); err != nil {
		return nil, err
	}
	if err := s.customers.Update(ctx, customer); err != nil {
		return nil, notFoundOr(err, msgCustomerNotFound, "update customer")
	}
	s.events.Publish(ctx, businessID, models.EventCustomerUpdated, customer)
	return customer, nil
}

// Delete removes a customer without history. Appointments keep the row alive.
func (s *customerService) Delete(ctx context.Context, businessID, id uuid.UUID) error {
	err := s.customers.Delete(ctx, businessID, id)
	if repositories.IsForeignKeyViolation(err) {
		return common.ValidationError(msgCustomerHasHistory, nil)
	}
	return notFoundOr(err, msgCustomerNotFound, "delete customer")
}
