package handlers

import (
	"gestly/internal/common"
	"gestly/internal/services"

	"github.com/labstack/echo/v4"
)

// ServiceHandlers handles the catalog of bookable services
type ServiceHandlers struct {
	catalogService services.CatalogService
}

func NewServiceHandlers(catalogService services.CatalogService) *ServiceHandlers {
	return &ServiceHandlers{catalogService: catalogService}
}

// ListServices lists services, optionally filtered by ?active=
func (h *ServiceHandlers) ListServices(c echo.Context) error {
	bizID, err := businessID(c)
	if err != nil {
		return err
	}
	active, err := queryBool(c, "active")
	if err != nil {
		return err
	}
	limit, offset, err := pagination(c)
	if err != nil {
		return err
	}

	items, err := h.catalogService.List(c.Request().Context(), bizID, active, limit, offset)
	if err != nil {
		return err
	}
	return common.SendList(c, items, limit, offset)
}

func (h *ServiceHandlers) CreateService(c echo.Context) error {
	bizID, err := businessID(c)
	if err != nil {
		return err
	}
	var req services.ServiceRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	svc, err := h.catalogService.Create(c.Request().Context(), bizID, req)
	if err != nil {
		return err
	}
	return common.SendCreated(c, svc)
}

func (h *ServiceHandlers) GetService(c echo.Context) error {
	bizID, err := businessID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	svc, err := h.catalogService.Get(c.Request().Context(), bizID, id)
	if err != nil {
		return err
	}
	return common.SendOK(c, svc)
}

func (h *ServiceHandlers) UpdateService(c echo.Context) error {
	bizID, err := businessID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req services.ServiceRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	svc, err := h.catalogService.Update(c.Request().Context(), bizID, id, req)
	if err != nil {
		return err
	}
	return common.SendOK(c, svc)
}

func (h *ServiceHandlers) DeleteService(c echo.Context) error {
	bizID, err := businessID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	if err := h.catalogService.Delete(c.Request().Context(), bizID, id); err != nil {
		return err
	}
	return common.SendOK(c, map[string]string{"id": id.String()})
}
