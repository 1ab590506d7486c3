package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"gestly/internal/common"
	"gestly/internal/services"

	"github.com/labstack/echo/v4"
)

// ReportHandlers serves the dashboard and the financial report
type ReportHandlers struct {
	metricsService services.MetricsService
	reportService  services.ReportService
}

func NewReportHandlers(metricsService services.MetricsService, reportService services.ReportService) *ReportHandlers {
	return &ReportHandlers{
		metricsService: metricsService,
		reportService:  reportService,
	}
}

// Dashboard handles GET /metrics/dashboard
func (h *ReportHandlers) Dashboard(c echo.Context) error {
	bizID, err := businessID(c)
	if err != nil {
		return err
	}
	from, to, err := period(c)
	if err != nil {
		return err
	}

	metrics, err := h.metricsService.Dashboard(c.Request().Context(), bizID, from, to)
	if err != nil {
		return err
	}
	return common.SendOK(c, metrics)
}

// ExportFinancial handles POST /reports/financial. It returns a presigned
// link when object storage is configured, and streams the PDF otherwise.
func (h *ReportHandlers) ExportFinancial(c echo.Context) error {
	bizID, err := businessID(c)
	if err != nil {
		return err
	}
	from, to, err := period(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	export, err := h.reportService.Export(ctx, bizID, from, to)
	if err == nil {
		return common.SendOK(c, export)
	}
	if !errors.Is(err, services.ErrStorageDisabled) {
		return err
	}

	report, err := h.reportService.Render(ctx, bizID, from, to)
	if err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", report.FileName))
	return c.Blob(http.StatusOK, "application/pdf", report.Content)
}
