package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"gestly/internal/common"
	"gestly/internal/models"
	"gestly/internal/repositories"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	msgSlotTaken          = "Horário indisponível para o profissional"
	msgAppointmentClosed  = "Agendamento finalizado não pode ser alterado"
	incomeCategoryService = "Atendimento"
)

type AppointmentService interface {
	List(ctx context.Context, businessID uuid.UUID, filter models.AppointmentFilter) ([]*models.Appointment, error)
	Create(ctx context.Context, businessID uuid.UUID, req CreateAppointmentRequest) (*models.Appointment, error)
	Get(ctx context.Context, businessID, id uuid.UUID) (*models.Appointment, error)
	Update(ctx context.Context, businessID, id uuid.UUID, req UpdateAppointmentRequest) (*models.Appointment, error)
	ChangeStatus(ctx context.Context, businessID, id uuid.UUID, status string) (*models.Appointment, error)
	Delete(ctx context.Context, businessID, id uuid.UUID) error
}

type CreateAppointmentRequest struct {
	CustomerID     string    `json:"customer_id"`
	ServiceID      string    `json:"service_id"`
	ProfessionalID string    `json:"professional_id"`
	StartsAt       time.Time `json:"starts_at"`
	Notes          string    `json:"notes"`
}

// UpdateAppointmentRequest reschedules or annotates an appointment. A nil
// field is left unchanged; an empty ProfessionalID unassigns.
type UpdateAppointmentRequest struct {
	ProfessionalID *string    `json:"professional_id"`
	StartsAt       *time.Time `json:"starts_at"`
	Notes          *string    `json:"notes"`
}

type appointmentService struct {
	store   *repositories.Store
	tx      repositories.Transactor
	events  EventPublisher
	metrics MetricsInvalidator
	logger  *zap.Logger
	now     func() time.Time
}

func NewAppointmentService(store *repositories.Store, tx repositories.Transactor, events EventPublisher, metrics MetricsInvalidator, logger *zap.Logger) AppointmentService {
	return &appointmentService{store: store, tx: tx, events: events, metrics: metrics, logger: logger, now: time.Now}
}

func (s *appointmentService) List(ctx context.Context, businessID uuid.UUID, filter models.AppointmentFilter) ([]*models.Appointment, error) {
	if filter.Status != "" && !models.IsValidAppointmentStatus(filter.Status) {
		return nil, common.FieldError("status", "Status inválido")
	}
	if filter.From != nil && filter.To != nil {
		if err := common.ValidateDateRange(*filter.From, *filter.To); err != nil {
			return nil, err
		}
	}
	filter.Limit, filter.Offset = common.ValidatePaginationParams(filter.Limit, filter.Offset)

	appointments, err := s.store.Appointments.List(ctx, businessID, filter)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return appointments, nil
}

func (s *appointmentService) Get(ctx context.Context, businessID, id uuid.UUID) (*models.Appointment, error) {
	appointment, err := s.store.Appointments.GetByID(ctx, businessID, id)
	if err != nil {
		return nil, notFoundOr(err, msgAppointmentNotFound, "get appointment")
	}
	return appointment, nil
}

// referenced loads a row the request points at. A row of another business
// is reported as a field error, never as a 404 on the appointment.
func referenced[T any](load func() (T, error), field, message string) (T, error) {
	v, err := load()
	if err != nil {
		var zero T
		if repositories.IsNoRows(err) {
			return zero, common.FieldError(field, message)
		}
		return zero, fmt.Errorf("load %s: %w", field, err)
	}
	return v, nil
}

func (s *appointmentService) loadProfessional(ctx context.Context, store *repositories.Store, businessID, id uuid.UUID) (*models.Profile, error) {
	professional, err := referenced(func() (*models.Profile, error) {
		return store.Profiles.GetByID(ctx, businessID, id)
	}, "professional_id", msgProfileNotFound)
	if err != nil {
		return nil, err
	}
	if !professional.Active {
		return nil, common.FieldError("professional_id", "Profissional inativo")
	}
	return professional, nil
}

func (s *appointmentService) Create(ctx context.Context, businessID uuid.UUID, req CreateAppointmentRequest) (*models.Appointment, error) {
	customerID, err := common.ValidateUUID(req.CustomerID, "customer_id")
	if err != nil {
		return nil, err
	}
	serviceID, err := common.ValidateUUID(req.ServiceID, "service_id")
	if err != nil {
		return nil, err
	}
	professionalID, err := common.ParseOptionalUUID(req.ProfessionalID, "professional_id")
	if err != nil {
		return nil, err
	}
	if req.StartsAt.IsZero() {
		return nil, common.FieldError("starts_at", "Data de início é obrigatória")
	}

	if _, err := referenced(func() (*models.Customer, error) {
		return s.store.Customers.GetByID(ctx, businessID, customerID)
	}, "customer_id", msgCustomerNotFound); err != nil {
		return nil, err
	}
	service, err := referenced(func() (*models.Service, error) {
		return s.store.Services.GetByID(ctx, businessID, serviceID)
	}, "service_id", msgServiceNotFound)
	if err != nil {
		return nil, err
	}
	if !service.Active {
		return nil, common.FieldError("service_id", "Serviço inativo")
	}
	if professionalID != nil {
		if _, err := s.loadProfessional(ctx, s.store, businessID, *professionalID); err != nil {
			return nil, err
		}
	}

	appointment := &models.Appointment{
		ID:             uuid.New(),
		BusinessID:     businessID,
		CustomerID:     customerID,
		ServiceID:      serviceID,
		ProfessionalID: professionalID,
		StartsAt:       req.StartsAt.UTC(),
		EndsAt:         req.StartsAt.UTC().Add(service.Duration()),
		Status:         models.AppointmentScheduled,
		Price:          service.Price,
		Notes:          strings.TrimSpace(req.Notes),
	}

	err = s.tx.WithinTx(ctx, func(tx *repositories.Store) error {
		if err := s.ensureSlotFree(ctx, tx, appointment, nil); err != nil {
			return err
		}
		return tx.Appointments.Create(ctx, appointment)
	})
	if err != nil {
		if _, ok := common.AsAppError(err); ok {
			return nil, err
		}
		return nil, fmt.Errorf("create appointment: %w", err)
	}

	s.events.Publish(ctx, businessID, models.EventAppointmentCreated, appointment)
	return appointment, nil
}

// ensureSlotFree locks the professional's agenda and rejects intersecting
// bookings. Appointments without a professional never conflict.
func (s *appointmentService) ensureSlotFree(ctx context.Context, tx *repositories.Store, a *models.Appointment, excludeID *uuid.UUID) error {
	if a.ProfessionalID == nil {
		return nil
	}
	if err := tx.Appointments.LockProfessional(ctx, a.BusinessID, *a.ProfessionalID); err != nil {
		return fmt.Errorf("lock professional agenda: %w", err)
	}
	overlap, err := tx.Appointments.HasOverlap(ctx, a.BusinessID, *a.ProfessionalID, a.StartsAt, a.EndsAt, excludeID)
	if err != nil {
		return fmt.Errorf("check overlap: %w", err)
	}
	if overlap {
		return common.FieldError("starts_at", msgSlotTaken)
	}
	return nil
}

func (s *appointmentService) Update(ctx context.Context, businessID, id uuid.UUID, req UpdateAppointmentRequest) (*models.Appointment, error) {
	appointment, err := s.Get(ctx, businessID, id)
	if err != nil {
		return nil, err
	}
	if appointment.IsTerminal() {
		return nil, common.ValidationError(msgAppointmentClosed, nil)
	}

	if req.ProfessionalID != nil {
		professionalID, err := common.ParseOptionalUUID(*req.ProfessionalID, "professional_id")
		if err != nil {
			return nil, err
		}
		if professionalID != nil {
			if _, err := s.loadProfessional(ctx, s.store, businessID, *professionalID); err != nil {
				return nil, err
			}
		}
		appointment.ProfessionalID = professionalID
	}
	if req.StartsAt != nil {
		if req.StartsAt.IsZero() {
			return nil, common.FieldError("starts_at", "Data de início é obrigatória")
		}
		service, err := s.store.Services.GetByID(ctx, businessID, appointment.ServiceID)
		if err != nil {
			return nil, notFoundOr(err, msgServiceNotFound, "get service")
		}
		appointment.StartsAt = req.StartsAt.UTC()
		appointment.EndsAt = appointment.StartsAt.Add(service.Duration())
	}
	if req.Notes != nil {
		appointment.Notes = strings.TrimSpace(*req.Notes)
	}

	err = s.tx.WithinTx(ctx, func(tx *repositories.Store) error {
		if err := s.ensureSlotFree(ctx, tx, appointment, &appointment.ID); err != nil {
			return err
		}
		return tx.Appointments.Update(ctx, appointment)
	})
	if repositories.IsNoRows(err) {
		// closed between the read and the write
		return nil, common.ValidationError(msgAppointmentClosed, nil)
	}
	if err != nil {
		return nil, notFoundOr(err, msgAppointmentNotFound, "update appointment")
	}

	s.events.Publish(ctx, businessID, models.EventAppointmentUpdated, appointment)
	return appointment, nil
}

func invalidTransition(from, to string) error {
	return common.FieldError("status", fmt.Sprintf("Transição de status inválida: %s → %s", from, to))
}

func (s *appointmentService) ChangeStatus(ctx context.Context, businessID, id uuid.UUID, status string) (*models.Appointment, error) {
	if !models.IsValidAppointmentStatus(status) {
		return nil, common.FieldError("status", "Status inválido")
	}
	current, err := s.Get(ctx, businessID, id)
	if err != nil {
		return nil, err
	}
	if !models.CanTransition(current.Status, status) {
		return nil, invalidTransition(current.Status, status)
	}

	now := s.now().UTC()
	var updated *models.Appointment
	if status == models.AppointmentCompleted {
		updated, err = s.complete(ctx, current, now)
	} else {
		updated, err = s.store.Appointments.UpdateStatus(ctx, businessID, id, current.Status, status, now)
	}
	if err != nil {
		if repositories.IsNoRows(err) {
			// status changed underneath us
			return nil, invalidTransition(current.Status, status)
		}
		if _, ok := common.AsAppError(err); ok {
			return nil, err
		}
		return nil, fmt.Errorf("change appointment status: %w", err)
	}

	payload := map[string]interface{}{
		"appointment":     updated,
		"previous_status": current.Status,
	}
	s.events.Publish(ctx, businessID, models.EventAppointmentStatusChanged, payload)
	switch status {
	case models.AppointmentCompleted:
		s.events.Publish(ctx, businessID, models.EventAppointmentCompleted, updated)
	case models.AppointmentCancelled:
		s.events.Publish(ctx, businessID, models.EventAppointmentCancelled, updated)
	}
	return updated, nil
}

// complete closes an appointment and books its side effects atomically:
// income, professional commission, loyalty points and customer visit stats.
func (s *appointmentService) complete(ctx context.Context, a *models.Appointment, now time.Time) (*models.Appointment, error) {
	var updated *models.Appointment
	err := s.tx.WithinTx(ctx, func(tx *repositories.Store) error {
		var err error
		updated, err = tx.Appointments.UpdateStatus(ctx, a.BusinessID, a.ID, a.Status, models.AppointmentCompleted, now)
		if err != nil {
			return err
		}

		if updated.Price > 0 {
			description := "Atendimento"
			if service, err := tx.Services.GetByID(ctx, a.BusinessID, a.ServiceID); err == nil {
				description = service.Name
			}
			appointmentID := updated.ID
			income := &models.FinancialTransaction{
				ID:            uuid.New(),
				BusinessID:    a.BusinessID,
				Type:          models.TransactionIncome,
				Category:      incomeCategoryService,
				Amount:        updated.Price,
				Description:   description,
				AppointmentID: &appointmentID,
				OccurredAt:    now,
			}
			if err := tx.Transactions.Create(ctx, income); err != nil {
				return fmt.Errorf("record income: %w", err)
			}
		}

		if updated.ProfessionalID != nil {
			professional, err := tx.Profiles.GetByID(ctx, a.BusinessID, *updated.ProfessionalID)
			if err != nil && !repositories.IsNoRows(err) {
				return fmt.Errorf("load professional: %w", err)
			}
			if professional != nil && professional.CommissionRate > 0 && updated.Price > 0 {
				commission := &models.Commission{
					ID:             uuid.New(),
					BusinessID:     a.BusinessID,
					AppointmentID:  updated.ID,
					ProfessionalID: professional.ID,
					Rate:           professional.CommissionRate,
					Amount:         roundCurrency(updated.Price * professional.CommissionRate / 100),
					Status:         models.CommissionPending,
				}
				if err := tx.Commissions.Create(ctx, commission); err != nil {
					return fmt.Errorf("record commission: %w", err)
				}
			}
		}

		program, err := tx.Loyalty.GetActiveProgram(ctx, a.BusinessID)
		if err != nil && !repositories.IsNoRows(err) {
			return fmt.Errorf("load loyalty program: %w", err)
		}
		if program != nil {
			if points := program.PointsFor(updated.Price); points > 0 {
				if _, err := tx.Customers.AddPoints(ctx, a.BusinessID, updated.CustomerID, points); err != nil {
					return fmt.Errorf("accrue loyalty points: %w", err)
				}
				appointmentID := updated.ID
				entry := &models.LoyaltyTransaction{
					ID:            uuid.New(),
					BusinessID:    a.BusinessID,
					CustomerID:    updated.CustomerID,
					Points:        points,
					Reason:        "Pontos por atendimento",
					AppointmentID: &appointmentID,
				}
				if err := tx.Loyalty.CreateTransaction(ctx, entry); err != nil {
					return fmt.Errorf("record loyalty points: %w", err)
				}
			}
		}

		if err := tx.Customers.RecordVisit(ctx, a.BusinessID, updated.CustomerID, updated.Price, now); err != nil {
			return fmt.Errorf("record visit: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	invalidateMetrics(ctx, s.metrics, a.BusinessID, s.logger)

	s.logger.Info("appointment completed",
		zap.String("business_id", a.BusinessID.String()),
		zap.String("appointment_id", a.ID.String()),
		zap.Float64("price", updated.Price))
	return updated, nil
}

func (s *appointmentService) Delete(ctx context.Context, businessID, id uuid.UUID) error {
	appointment, err := s.Get(ctx, businessID, id)
	if err != nil {
		return err
	}
	if appointment.Status == models.AppointmentCompleted {
		return common.ValidationError("Agendamentos concluídos não podem ser removidos", nil)
	}
	return notFoundOr(s.store.Appointments.Delete(ctx, businessID, id), msgAppointmentNotFound, "delete appointment")
}

func roundCurrency(v float64) float64 {
	return math.Round(v*100) / 100
}
