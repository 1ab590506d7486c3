package handlers

import (
	"strings"

	"gestly/internal/common"
	"gestly/internal/models"
	"gestly/internal/services"

	"github.com/labstack/echo/v4"
)

// AppointmentHandlers handles scheduling endpoints
type AppointmentHandlers struct {
	appointmentService services.AppointmentService
}

// NewAppointmentHandlers creates a new appointment handlers instance
func NewAppointmentHandlers(appointmentService services.AppointmentService) *AppointmentHandlers {
	return &AppointmentHandlers{appointmentService: appointmentService}
}

// StatusRequest is the body of PATCH /appointments/:id/status
type StatusRequest struct {
	Status string `json:"status"`
}

// ListAppointments supports from, to, status, customer_id and
// professional_id filters
func (h *AppointmentHandlers) ListAppointments(c echo.Context) error {
	bizID, err := businessID(c)
	if err != nil {
		return err
	}
	filter, err := appointmentFilter(c)
	if err != nil {
		return err
	}

	appointments, err := h.appointmentService.List(c.Request().Context(), bizID, filter)
	if err != nil {
		return err
	}
	limit, offset := common.ValidatePaginationParams(filter.Limit, filter.Offset)
	return common.SendList(c, appointments, limit, offset)
}

func appointmentFilter(c echo.Context) (models.AppointmentFilter, error) {
	var filter models.AppointmentFilter
	var err error

	if filter.From, filter.To, err = period(c); err != nil {
		return filter, err
	}
	if filter.CustomerID, err = common.ParseOptionalUUID(c.QueryParam("customer_id"), "customer_id"); err != nil {
		return filter, err
	}
	if filter.ProfessionalID, err = common.ParseOptionalUUID(c.QueryParam("professional_id"), "professional_id"); err != nil {
		return filter, err
	}
	if filter.Limit, filter.Offset, err = pagination(c); err != nil {
		return filter, err
	}
	filter.Status = strings.TrimSpace(c.QueryParam("status"))
	return filter, nil
}

// CreateAppointment books a slot for a customer
func (h *AppointmentHandlers) CreateAppointment(c echo.Context) error {
	bizID, err := businessID(c)
	if err != nil {
		return err
	}
	var req services.CreateAppointmentRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	appointment, err := h.appointmentService.Create(c.Request().Context(), bizID, req)
	if err != nil {
		return err
	}
	return common.SendCreated(c, appointment)
}

func (h *AppointmentHandlers) GetAppointment(c echo.Context) error {
	bizID, err := businessID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	appointment, err := h.appointmentService.Get(c.Request().Context(), bizID, id)
	if err != nil {
		return err
	}
	return common.SendOK(c, appointment)
}

// UpdateAppointment reschedules or edits notes
func (h *AppointmentHandlers) UpdateAppointment(c echo.Context) error {
	bizID, err := businessID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req services.UpdateAppointmentRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	appointment, err := h.appointmentService.Update(c.Request().Context(), bizID, id, req)
	if err != nil {
		return err
	}
	return common.SendOK(c, appointment)
}

// ChangeStatus applies a status transition
func (h *AppointmentHandlers) ChangeStatus(c echo.Context) error {
	bizID, err := businessID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req StatusRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	if strings.TrimSpace(req.Status) == "" {
		return common.FieldError("status", "Status é obrigatório")
	}

	appointment, err := h.appointmentService.ChangeStatus(c.Request().Context(), bizID, id, strings.TrimSpace(req.Status))
	if err != nil {
		return err
	}
	return common.SendOK(c, appointment)
}

func (h *AppointmentHandlers) DeleteAppointment(c echo.Context) error {
	bizID, err := businessID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	if err := h.appointmentService.Delete(c.Request().Context(), bizID, id); err != nil {
		return err
	}
	return common.SendOK(c, map[string]string{"id": id.String()})
}
