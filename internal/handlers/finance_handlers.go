package handlers

import (
	"strings"

	"gestly/internal/common"
	"gestly/internal/models"
	"gestly/internal/services"

	"github.com/labstack/echo/v4"
)

// FinanceHandlers handles commissions and the cash book
type FinanceHandlers struct {
	commissionService services.CommissionService
	financeService    services.FinanceService
}

// NewFinanceHandlers creates a new finance handlers instance
func NewFinanceHandlers(commissionService services.CommissionService, financeService services.FinanceService) *FinanceHandlers {
	return &FinanceHandlers{
		commissionService: commissionService,
		financeService:    financeService,
	}
}

// ListCommissions supports professional_id, status, from and to filters
func (h *FinanceHandlers) ListCommissions(c echo.Context) error {
	bizID, err := businessID(c)
	if err != nil {
		return err
	}

	var filter models.CommissionFilter
	if filter.From, filter.To, err = period(c); err != nil {
		return err
	}
	if filter.ProfessionalID, err = common.ParseOptionalUUID(c.QueryParam("professional_id"), "professional_id"); err != nil {
		return err
	}
	if filter.Limit, filter.Offset, err = pagination(c); err != nil {
		return err
	}
	filter.Status = strings.TrimSpace(c.QueryParam("status"))

	commissions, err := h.commissionService.List(c.Request().Context(), bizID, filter)
	if err != nil {
		return err
	}
	return common.SendList(c, commissions, filter.Limit, filter.Offset)
}

// CommissionSummary totals commissions per professional
func (h *FinanceHandlers) CommissionSummary(c echo.Context) error {
	bizID, err := businessID(c)
	if err != nil {
		return err
	}
	from, to, err := period(c)
	if err != nil {
		return err
	}

	summary, err := h.commissionService.Summary(c.Request().Context(), bizID, from, to)
	if err != nil {
		return err
	}
	return common.SendOK(c, summary)
}

func (h *FinanceHandlers) MarkCommissionPaid(c echo.Context) error {
	bizID, err := businessID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	commission, err := h.commissionService.MarkPaid(c.Request().Context(), bizID, id)
	if err != nil {
		return err
	}
	return common.SendOK(c, commission)
}

// ListTransactions supports type, from and to filters
func (h *FinanceHandlers) ListTransactions(c echo.Context) error {
	bizID, err := businessID(c)
	if err != nil {
		return err
	}

	var filter models.TransactionFilter
	if filter.From, filter.To, err = period(c); err != nil {
		return err
	}
	if filter.Limit, filter.Offset, err = pagination(c); err != nil {
		return err
	}
	filter.Type = strings.TrimSpace(c.QueryParam("type"))

	transactions, err := h.financeService.List(c.Request().Context(), bizID, filter)
	if err != nil {
		return err
	}
	return common.SendList(c, transactions, filter.Limit, filter.Offset)
}

// CreateTransaction records a manual income or expense
func (h *FinanceHandlers) CreateTransaction(c echo.Context) error {
	bizID, err := businessID(c)
	if err != nil {
		return err
	}
	var req services.TransactionRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	transaction, err := h.financeService.Create(c.Request().Context(), bizID, req)
	if err != nil {
		return err
	}
	return common.SendCreated(c, transaction)
}

// TransactionSummary returns income, expense and balance for a period
func (h *FinanceHandlers) TransactionSummary(c echo.Context) error {
	bizID, err := businessID(c)
	if err != nil {
		return err
	}
	from, to, err := period(c)
	if err != nil {
		return err
	}

	summary, err := h.financeService.Summary(c.Request().Context(), bizID, from, to)
	if err != nil {
		return err
	}
	return common.SendOK(c, summary)
}
