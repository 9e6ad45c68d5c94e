package service

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"expenseflow/internal/application/port"
	"expenseflow/internal/domain/apperr"
	"expenseflow/internal/domain/entity"
	"expenseflow/internal/domain/money"
)

// ExportService renders a report and its items into an xlsx workbook for
// the finance side. Admin only.
type ExportService interface {
	RenderReport(ctx context.Context, p entity.Principal, reportID int64) ([]byte, string, error)
}

type exportServiceImpl struct {
	reportRepo port.ReportRepository
	itemRepo   port.ItemRepository
	logger     Logger
}

// NewExportService creates a new ExportService
func NewExportService(reportRepo port.ReportRepository, itemRepo port.ItemRepository, logger Logger) ExportService {
	return &exportServiceImpl{
		reportRepo: reportRepo,
		itemRepo:   itemRepo,
		logger:     logger,
	}
}

// RenderReport returns the workbook bytes and a download filename.
func (s *exportServiceImpl) RenderReport(ctx context.Context, p entity.Principal, reportID int64) ([]byte, string, error) {
	if !p.IsAdmin() {
		return nil, "", fmt.Errorf("%w: export requires the admin role", apperr.ErrPermissionDenied)
	}

	report, err := s.reportRepo.GetByID(ctx, reportID)
	if err != nil {
		return nil, "", fmt.Errorf("%w: get report %d: %v", apperr.ErrPersistence, reportID, err)
	}
	if report == nil {
		return nil, "", fmt.Errorf("%w: report %d", apperr.ErrNotFound, reportID)
	}

	items, err := s.itemRepo.GetByReportID(ctx, reportID)
	if err != nil {
		return nil, "", fmt.Errorf("%w: load items: %v", apperr.ErrPersistence, err)
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Expense Report"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, "", fmt.Errorf("rename sheet: %w", err)
	}

	s.setCell(f, sheet, "A1", fmt.Sprintf("Expense Report #%d", report.ID))
	s.setCell(f, sheet, "A2", "Owner")
	s.setCell(f, sheet, "B2", report.OwnerID)
	s.setCell(f, sheet, "A3", "Status")
	s.setCell(f, sheet, "B3", report.Status)
	s.setCell(f, sheet, "A4", "Submitted")
	s.setCell(f, sheet, "B4", report.CreatedAt.Format("2006-01-02"))

	// Item table
	const headerRow = 6
	s.setCell(f, sheet, fmt.Sprintf("A%d", headerRow), "Date")
	s.setCell(f, sheet, fmt.Sprintf("B%d", headerRow), "Category")
	s.setCell(f, sheet, fmt.Sprintf("C%d", headerRow), "Description")
	s.setCell(f, sheet, fmt.Sprintf("D%d", headerRow), "Amount")
	s.setCell(f, sheet, fmt.Sprintf("E%d", headerRow), "Receipt")

	row := headerRow + 1
	for _, it := range items {
		s.setCell(f, sheet, fmt.Sprintf("A%d", row), it.ExpenseDate.Format("2006-01-02"))
		s.setCell(f, sheet, fmt.Sprintf("B%d", row), it.Category)
		if it.Description != nil {
			s.setCell(f, sheet, fmt.Sprintf("C%d", row), *it.Description)
		}
		s.setCell(f, sheet, fmt.Sprintf("D%d", row), money.FormatCents(it.AmountCents))
		if it.ReceiptRef != nil {
			s.setCell(f, sheet, fmt.Sprintf("E%d", row), *it.ReceiptRef)
		}
		row++
	}

	s.setCell(f, sheet, fmt.Sprintf("C%d", row+1), "Total")
	s.setCell(f, sheet, fmt.Sprintf("D%d", row+1), money.FormatCents(report.TotalAmountCents))

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", fmt.Errorf("write workbook: %w", err)
	}

	s.logger.Info("Report exported", "report_id", reportID, "items", len(items), "exported_by", p.UserID)
	return buf.Bytes(), fmt.Sprintf("expense-report-%d.xlsx", reportID), nil
}

func (s *exportServiceImpl) setCell(f *excelize.File, sheet, cell string, value interface{}) {
	if err := f.SetCellValue(sheet, cell, value); err != nil {
		s.logger.Error("Failed to set cell", "cell", cell, "error", err)
	}
}
