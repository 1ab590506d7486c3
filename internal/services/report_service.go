package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"gestly/internal/common"
	"gestly/internal/models"
	"gestly/internal/repositories"

	"github.com/google/uuid"
	"github.com/jung-kurt/gofpdf"
	"go.uber.org/zap"
)

const (
	reportLinkTTL       = 15 * time.Minute
	reportMaxRows       = 500
	reportContentType   = "application/pdf"
	reportDateLayout    = "02/01/2006"
	reportFileDateStamp = "20060102"
)

// ReportService renders the financial report of a period.
type ReportService interface {
	// Render builds the PDF in memory.
	Render(ctx context.Context, businessID uuid.UUID, from, to *time.Time) (*RenderedReport, error)
	// Export renders, uploads and returns a presigned download link. It
	// fails with ErrStorageDisabled when no object storage is configured.
	Export(ctx context.Context, businessID uuid.UUID, from, to *time.Time) (*ReportExport, error)
}

var ErrStorageDisabled = errors.New("report storage is not configured")

type RenderedReport struct {
	FileName string
	Content  []byte
}

type ReportExport struct {
	URL        string    `json:"url"`
	ObjectName string    `json:"object_name"`
	ExpiresAt  time.Time `json:"expires_at"`
}

type financialReport struct {
	business     *models.Business
	from, to     time.Time
	summary      *models.FinancialSummary
	transactions []*models.FinancialTransaction
	commissions  []*models.CommissionSummary
}

type reportService struct {
	store   *repositories.Store
	storage ReportStorage
	logger  *zap.Logger
	now     func() time.Time
}

// NewReportService accepts a nil storage; Export is then unavailable.
func NewReportService(store *repositories.Store, storage ReportStorage, logger *zap.Logger) ReportService {
	return &reportService{store: store, storage: storage, logger: logger, now: time.Now}
}

func (s *reportService) collect(ctx context.Context, businessID uuid.UUID, from, to *time.Time) (*financialReport, error) {
	end := s.now().UTC()
	if to != nil {
		end = to.UTC()
	}
	start := time.Date(end.Year(), end.Month(), 1, 0, 0, 0, 0, time.UTC)
	if from != nil {
		start = from.UTC()
	}
	if err := common.ValidateDateRange(start, end); err != nil {
		return nil, err
	}

	business, err := s.store.Businesses.GetByID(ctx, businessID)
	if err != nil {
		return nil, notFoundOr(err, "Empresa não encontrada", "get business")
	}
	summary, err := s.store.Transactions.Summary(ctx, businessID, &start, &end)
	if err != nil {
		return nil, fmt.Errorf("financial summary: %w", err)
	}
	txns, err := s.store.Transactions.List(ctx, businessID, models.TransactionFilter{From: &start, To: &end, Limit: reportMaxRows})
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	commissions, err := s.store.Commissions.Summary(ctx, businessID, &start, &end)
	if err != nil {
		return nil, fmt.Errorf("commission summary: %w", err)
	}
	return &financialReport{business: business, from: start, to: end, summary: summary, transactions: txns, commissions: commissions}, nil
}

func (s *reportService) Render(ctx context.Context, businessID uuid.UUID, from, to *time.Time) (*RenderedReport, error) {
	report, err := s.collect(ctx, businessID, from, to)
	if err != nil {
		return nil, err
	}
	content, err := renderFinancialPDF(report)
	if err != nil {
		return nil, fmt.Errorf("render report: %w", err)
	}
	name := fmt.Sprintf("relatorio-financeiro-%s-%s.pdf", report.from.Format(reportFileDateStamp), report.to.Format(reportFileDateStamp))
	return &RenderedReport{FileName: name, Content: content}, nil
}

func (s *reportService) Export(ctx context.Context, businessID uuid.UUID, from, to *time.Time) (*ReportExport, error) {
	if s.storage == nil {
		return nil, ErrStorageDisabled
	}
	rendered, err := s.Render(ctx, businessID, from, to)
	if err != nil {
		return nil, err
	}

	objectName := fmt.Sprintf("%s/%s/%s", businessID, uuid.NewString(), rendered.FileName)
	if err := s.storage.Upload(ctx, objectName, reportContentType, bytes.NewReader(rendered.Content), int64(len(rendered.Content))); err != nil {
		return nil, fmt.Errorf("upload report: %w", err)
	}
	link, err := s.storage.GetPresignedURL(ctx, objectName, reportLinkTTL)
	if err != nil {
		// nobody can reach the object without a link
		if delErr := s.storage.Delete(ctx, objectName); delErr != nil {
			s.logger.Warn("failed to remove unlinked report", zap.String("object", objectName), zap.Error(delErr))
		}
		return nil, fmt.Errorf("presign report: %w", err)
	}

	s.logger.Info("financial report exported",
		zap.String("business_id", businessID.String()),
		zap.String("object", objectName),
		zap.Int("size", len(rendered.Content)))
	return &ReportExport{URL: link, ObjectName: objectName, ExpiresAt: s.now().UTC().Add(reportLinkTTL)}, nil
}

func brl(v float64) string {
	return fmt.Sprintf("R$ %.2f", v)
}

func renderFinancialPDF(r *financialReport) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.SetTextColor(33, 37, 41)
	pdf.Cell(0, 10, tr("Relatório financeiro"))
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 11)
	pdf.Cell(0, 7, tr(r.business.Name))
	pdf.Ln(7)
	pdf.Cell(0, 7, tr(fmt.Sprintf("Período: %s a %s", r.from.Format(reportDateLayout), r.to.Format(reportDateLayout))))
	pdf.Ln(12)

	// Totals
	pdf.SetFont("Arial", "B", 11)
	for _, row := range [][2]string{
		{"Receitas", brl(r.summary.Income)},
		{"Despesas", brl(r.summary.Expense)},
		{"Saldo", brl(r.summary.Balance)},
	} {
		pdf.CellFormat(60, 7, tr(row[0]), "1", 0, "L", false, 0, "")
		pdf.CellFormat(40, 7, row[1], "1", 0, "R", false, 0, "")
		pdf.Ln(7)
	}
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 8, tr("Lançamentos"))
	pdf.Ln(9)

	colWidths := []float64{25, 20, 45, 52, 38}
	headers := []string{"Data", "Tipo", "Categoria", "Descrição", "Valor"}
	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(240, 240, 240)
	for i, header := range headers {
		pdf.CellFormat(colWidths[i], 8, tr(header), "1", 0, "C", true, 0, "")
	}
	pdf.Ln(8)

	pdf.SetFont("Arial", "", 9)
	for _, t := range r.transactions {
		kind := "Receita"
		if t.Type == models.TransactionExpense {
			kind = "Despesa"
		}
		pdf.CellFormat(colWidths[0], 7, t.OccurredAt.Format(reportDateLayout), "1", 0, "C", false, 0, "")
		pdf.CellFormat(colWidths[1], 7, kind, "1", 0, "C", false, 0, "")
		pdf.CellFormat(colWidths[2], 7, tr(truncate(t.Category, 26)), "1", 0, "L", false, 0, "")
		pdf.CellFormat(colWidths[3], 7, tr(truncate(t.Description, 30)), "1", 0, "L", false, 0, "")
		pdf.CellFormat(colWidths[4], 7, brl(t.Amount), "1", 0, "R", false, 0, "")
		pdf.Ln(7)
	}
	if len(r.transactions) == 0 {
		pdf.CellFormat(180, 7, tr("Nenhum lançamento no período"), "1", 0, "C", false, 0, "")
		pdf.Ln(7)
	}

	if len(r.commissions) > 0 {
		pdf.Ln(8)
		pdf.SetFont("Arial", "B", 12)
		pdf.Cell(0, 8, tr("Comissões por profissional"))
		pdf.Ln(9)

		pdf.SetFont("Arial", "B", 10)
		for i, header := range []string{"Profissional", "Pendente", "Pago"} {
			width := []float64{90, 45, 45}[i]
			pdf.CellFormat(width, 8, header, "1", 0, "C", true, 0, "")
		}
		pdf.Ln(8)
		pdf.SetFont("Arial", "", 9)
		for _, c := range r.commissions {
			pdf.CellFormat(90, 7, tr(truncate(c.FullName, 50)), "1", 0, "L", false, 0, "")
			pdf.CellFormat(45, 7, brl(c.Pending), "1", 0, "R", false, 0, "")
			pdf.CellFormat(45, 7, brl(c.Paid), "1", 0, "R", false, 0, "")
			pdf.Ln(7)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
