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

type ReviewService interface {
	List(ctx context.Context, businessID uuid.UUID, limit, offset int) ([]*models.Review, error)
	Create(ctx context.Context, businessID uuid.UUID, req CreateReviewRequest) (*models.Review, error)
	Get(ctx context.Context, businessID, id uuid.UUID) (*models.Review, error)
	Delete(ctx context.Context, businessID, id uuid.UUID) error
	Summary(ctx context.Context, businessID uuid.UUID) (*models.ReviewSummary, error)
}

type CreateReviewRequest struct {
	AppointmentID string `json:"appointment_id"`
	Rating        int    `json:"rating"`
	Comment       string `json:"comment"`
}

type reviewService struct {
	reviews      repositories.ReviewRepository
	appointments repositories.AppointmentRepository
	events       EventPublisher
}

func NewReviewService(reviews repositories.ReviewRepository, appointments repositories.AppointmentRepository, events EventPublisher) ReviewService {
	return &reviewService{reviews: reviews, appointments: appointments, events: events}
}

func (s *reviewService) List(ctx context.Context, businessID uuid.UUID, limit, offset int) ([]*models.Review, error) {
	limit, offset = common.ValidatePaginationParams(limit, offset)
	reviews, err := s.reviews.List(ctx, businessID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	return reviews, nil
}

func (s *reviewService) Create(ctx context.Context, businessID uuid.UUID, req CreateReviewRequest) (*models.Review, error) {
	if req.Rating < 1 || req.Rating > 5 {
		return nil, common.FieldError("rating", "A nota deve estar entre 1 e 5")
	}
	appointmentID, err := common.ValidateUUID(req.AppointmentID, "appointment_id")
	if err != nil {
		return nil, err
	}

	appointment, err := referenced(func() (*models.Appointment, error) {
		return s.appointments.GetByID(ctx, businessID, appointmentID)
	}, "appointment_id", msgAppointmentNotFound)
	if err != nil {
		return nil, err
	}
	if appointment.Status != models.AppointmentCompleted {
		return nil, common.FieldError("appointment_id", "Somente agendamentos concluídos podem ser avaliados")
	}
	exists, err := s.reviews.ExistsForAppointment(ctx, businessID, appointmentID)
	if err != nil {
		return nil, fmt.Errorf("check review: %w", err)
	}
	if exists {
		return nil, common.FieldError("appointment_id", "Agendamento já avaliado")
	}

	review := &models.Review{
		ID:            uuid.New(),
		BusinessID:    businessID,
		CustomerID:    appointment.CustomerID,
		AppointmentID: &appointmentID,
		Rating:        req.Rating,
		Comment:       strings.TrimSpace(req.Comment),
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		if repositories.IsUniqueViolation(err) {
			return nil, common.FieldError("appointment_id", "Agendamento já avaliado")
		}
		return nil, fmt.Errorf("create review: %w", err)
	}
	s.events.Publish(ctx, businessID, models.EventReviewCreated, review)
	return review, nil
}

func (s *reviewService) Get(ctx context.Context, businessID, id uuid.UUID) (*models.Review, error) {
	review, err := s.reviews.GetByID(ctx, businessID, id)
	if err != nil {
		return nil, notFoundOr(err, msgReviewNotFound, "get review")
	}
	return review, nil
}

func (s *reviewService) Delete(ctx context.Context, businessID, id uuid.UUID) error {
	return notFoundOr(s.reviews.Delete(ctx, businessID, id), msgReviewNotFound, "delete review")
}

func (s *reviewService) Summary(ctx context.Context, businessID uuid.UUID) (*models.ReviewSummary, error) {
	summary, err := s.reviews.Summary(ctx, businessID, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("review summary: %w", err)
	}
	return summary, nil
}
