package handlers

import (
	"gestly/internal/common"
	"gestly/internal/services"

	"github.com/labstack/echo/v4"
)

// CustomerHandlers handles customer-related HTTP requests
type CustomerHandlers struct {
	customerService services.CustomerService
}

// NewCustomerHandlers creates a new customer handlers instance
func NewCustomerHandlers(customerService services.CustomerService) *CustomerHandlers {
	return &CustomerHandlers{customerService: customerService}
}

// ListCustomers lists customers matching the optional q search term
func (h *CustomerHandlers) ListCustomers(c echo.Context) error {
	bizID, err := businessID(c)
	if err != nil {
		return err
	}
	limit, offset, err := pagination(c)
	if err != nil {
		return err
	}

	search := common.SanitizeSearchQuery(c.QueryParam("q"))
	customers, err := h.customerService.List(c.Request().Context(), bizID, search, limit, offset)
	if err != nil {
		return err
	}
	return common.SendList(c, customers, limit, offset)
}

func (h *CustomerHandlers) CreateCustomer(c echo.Context) error {
	bizID, err := businessID(c)
	if err != nil {
		return err
	}
	var req services.CustomerRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	customer, err := h.customerService.Create(c.Request().Context(), bizID, req)
	if err != nil {
		return err
	}
	return common.SendCreated(c, customer)
}

func (h *CustomerHandlers) GetCustomer(c echo.Context) error {
	bizID, err := businessID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	customer, err := h.customerService.Get(c.Request().Context(), bizID, id)
	if err != nil {
		return err
	}
	return common.SendOK(c, customer)
}

func (h *CustomerHandlers) UpdateCustomer(c echo.Context) error {
	bizID, err := businessID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req services.CustomerRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	customer, err := h.customerService.Update(c.Request().Context(), bizID, id, req)
	if err != nil {
		return err
	}
	return common.SendOK(c, customer)
}

func (h *CustomerHandlers) DeleteCustomer(c echo.Context) error {
	bizID, err := businessID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	if err := h.customerService.Delete(c.Request().Context(), bizID, id); err != nil {
		return err
	}
	return common.SendOK(c, map[string]string{"id": id.String()})
}
