package services

import (
	"context"
	"fmt"
	"strings"

	"gestly/internal/common"
	"gestly/internal/models"
	"gestly/internal/repositories"

	"github.com/google/uuid"
)

// CatalogService manages the services a business offers
type CatalogService interface {
	List(ctx context.Context, businessID uuid.UUID, active *bool, limit, offset int) ([]*models.Service, error)
	Create(ctx context.Context, businessID uuid.UUID, req ServiceRequest) (*models.Service, error)
	Get(ctx context.Context, businessID, id uuid.UUID) (*models.Service, error)
	Update(ctx context.Context, businessID, id uuid.UUID, req ServiceRequest) (*models.Service, error)
	Delete(ctx context.Context, businessID, id uuid.UUID) error
}

type ServiceRequest struct {
	Name            string  `json:"name"`
	Description     string  `json:"description"`
	Price           float64 `json:"price"`
	DurationMinutes int     `json:"duration_minutes"`
	Category        string  `json:"category"`
	Active          *bool   `json:"active"`
}

type catalogService struct {
	services repositories.ServiceRepository
}

func NewCatalogService(services repositories.ServiceRepository) CatalogService {
	return &catalogService{services: services}
}

func (r ServiceRequest) apply(s *models.Service) error {
	details := map[string]string{}
	if strings.TrimSpace(r.Name) == "" {
		details["name"] = "Nome é obrigatório"
	}
	if r.Price < 0 {
		details["price"] = "O preço não pode ser negativo"
	}
	if r.DurationMinutes <= 0 || r.DurationMinutes > 24*60 {
		details["duration_minutes"] = "A duração deve estar entre 1 e 1440 minutos"
	}
	if len(details) > 0 {
		return common.ValidationError("Dados inválidos", details)
	}

	s.Name = strings.TrimSpace(r.Name)
	s.Description = r.Description
	s.Price = r.Price
	s.DurationMinutes = r.DurationMinutes
	s.Category = strings.TrimSpace(r.Category)
	if s.Category == "" {
		s.Category = "Geral"
	}
	if r.Active != nil {
		s.Active = *r.Active
	}
	return nil
}

func (s *catalogService) List(ctx context.Context, businessID uuid.UUID, active *bool, limit, offset int) ([]*models.Service, error) {
	limit, offset = common.ValidatePaginationParams(limit, offset)
	services, err := s.services.List(ctx, businessID, active, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	return services, nil
}

func (s *catalogService) Create(ctx context.Context, businessID uuid.UUID, req ServiceRequest) (*models.Service, error) {
	service := &models.Service{ID: uuid.New(), BusinessID: businessID, Active: true}
	if err := req.apply(service); err != nil {
		return nil, err
	}
	if err := s.services.Create(ctx, service); err != nil {
		return nil, fmt.Errorf("create service: %w", err)
	}
	return service, nil
}

func (s *catalogService) Get(ctx context.Context, businessID, id uuid.UUID) (*models.Service, error) {
	service, err := s.services.GetByID(ctx, businessID, id)
	if err != nil {
		return nil, notFoundOr(err, msgServiceNotFound, "get service")
	}
	return service, nil
}

func (s *catalogService) Update(ctx context.Context, businessID, id uuid.UUID, req ServiceRequest) (*models.Service, error) {
	service, err := s.Get(ctx, businessID, id)
	if err != nil {
		return nil, err
	}
	if err := req.apply(service); err != nil {
		return nil, err
	}
	if err := s.services.Update(ctx, service); err != nil {
		return nil, notFoundOr(err, msgServiceNotFound, "update service")
	}
	return service, nil
}

func (s *catalogService) Delete(ctx context.Context, businessID, id uuid.UUID) error {
	err := s.services.Delete(ctx, businessID, id)
	if repositories.IsForeignKeyViolation(err) {
		return common.ValidationError("Serviço possui agendamentos e não pode ser removido. Desative-o.", nil)
	}
	return notFoundOr(err, msgServiceNotFound, "delete service")
}
