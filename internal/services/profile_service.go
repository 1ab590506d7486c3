package services

import (
	"context"
	"fmt"
	"strings"

	"gestly/internal/common"
	"gestly/internal/models"
	"gestly/internal/repositories"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type ProfileService interface {
	List(ctx context.Context, businessID uuid.UUID, role string, limit, offset int) ([]*models.Profile, error)
	Create(ctx context.Context, businessID uuid.UUID, req CreateProfileRequest) (*models.Profile, error)
	Get(ctx context.Context, businessID, id uuid.UUID) (*models.Profile, error)
	Update(ctx context.Context, businessID, id uuid.UUID, req UpdateProfileRequest) (*models.Profile, error)
}

type CreateProfileRequest struct {
	Email          string  `json:"email"`
	FullName       string  `json:"full_name"`
	Role           string  `json:"role"`
	CommissionRate float64 `json:"commission_rate"`
	// Password is optional; profiles without one cannot log in.
	Password string `json:"password"`
}

type UpdateProfileRequest struct {
	FullName       *string  `json:"full_name"`
	Role           *string  `json:"role"`
	CommissionRate *float64 `json:"commission_rate"`
	Active         *bool    `json:"active"`
}

type profileService struct {
	profiles repositories.ProfileRepository
}

func NewProfileService(profiles repositories.ProfileRepository) ProfileService {
	return &profileService{profiles: profiles}
}

func validateCommissionRate(rate float64, details map[string]string) {
	if rate < 0 || rate > 100 {
		details["commission_rate"] = "A comissão deve estar entre 0 e 100"
	}
}

func (s *profileService) List(ctx context.Context, businessID uuid.UUID, role string, limit, offset int) ([]*models.Profile, error) {
	if role != "" && !models.IsValidRole(role) {
		return nil, common.FieldError("role", "Função inválida")
	}
	limit, offset = common.ValidatePaginationParams(limit, offset)
	profiles, err := s.profiles.List(ctx, businessID, role, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	return profiles, nil
}

func (s *profileService) Create(ctx context.Context, businessID uuid.UUID, req CreateProfileRequest) (*models.Profile, error) {
	req.Email = common.NormalizeEmail(req.Email)
	if req.Role == "" {
		req.Role = models.RoleProfessional
	}

	details := map[string]string{}
	if strings.TrimSpace(req.FullName) == "" {
		details["full_name"] = "Nome é obrigatório"
	}
	if err := common.ValidateEmail(req.Email); err != nil {
		details["email"] = err.(*common.AppError).Message
	}
	if req.Role == models.RoleOwner || !models.IsValidRole(req.Role) {
		details["role"] = "Função inválida"
	}
	validateCommissionRate(req.CommissionRate, details)
	if req.Password != "" {
		if err := common.ValidatePassword(req.Password); err != nil {
			details["password"] = err.(*common.AppError).Message
		}
	}
	if len(details) > 0 {
		return nil, common.ValidationError("Dados inválidos", details)
	}

	profile := &models.Profile{
		ID:             uuid.New(),
		BusinessID:     businessID,
		Email:          req.Email,
		FullName:       strings.TrimSpace(req.FullName),
		Role:           req.Role,
		CommissionRate: req.CommissionRate,
		Active:         true,
	}
	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		profile.PasswordHash = string(hash)
	}

	if err := s.profiles.Create(ctx, profile); err != nil {
		if repositories.IsUniqueViolation(err) {
			return nil, common.FieldError("email", msgEmailTaken)
		}
		return nil, fmt.Errorf("create profile: %w", err)
	}
	return profile, nil
}

func (s *profileService) Get(ctx context.Context, businessID, id uuid.UUID) (*models.Profile, error) {
	profile, err := s.profiles.GetByID(ctx, businessID, id)
	if err != nil {
		return nil, notFoundOr(err, msgProfileNotFound, "get profile")
	}
	return profile, nil
}

func (s *profileService) Update(ctx context.Context, businessID, id uuid.UUID, req UpdateProfileRequest) (*models.Profile, error) {
	profile, err := s.Get(ctx, businessID, id)
	if err != nil {
		return nil, err
	}

	details := map[string]string{}
	if req.FullName != nil {
		if strings.TrimSpace(*req.FullName) == "" {
			details["full_name"] = "Nome é obrigatório"
		}
		profile.FullName = strings.TrimSpace(*req.FullName)
	}
	if req.Role != nil {
		// the owner role is fixed at registration
		if !models.IsValidRole(*req.Role) || (*req.Role == models.RoleOwner) != (profile.Role == models.RoleOwner) {
			details["role"] = "Função inválida"
		}
		profile.Role = *req.Role
	}
	if req.CommissionRate != nil {
		validateCommissionRate(*req.CommissionRate, details)
		profile.CommissionRate = *req.CommissionRate
	}
	if req.Active != nil {
		if !*req.Active && profile.Role == models.RoleOwner {
			details["active"] = "O proprietário não pode ser desativado"
		}
		profile.Active = *req.Active
	}
	if len(details) > 0 {
		return nil, common.ValidationError("Dados inválidos", details)
	}

	if err := s.profiles.Update(ctx, profile); err != nil {
		return nil, notFoundOr(err, msgProfileNotFound, "update profile")
	}
	return profile, nil
}
