package service

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"expenseflow/internal/domain/apperr"
	"expenseflow/internal/domain/entity"
)

func TestRenderReport_AdminOnly(t *testing.T) {
	f := newFixture()
	reportID, _ := f.seedReport(ownerP.UserID, entity.StatusSubmitted, 500)
	exporter := NewExportService(f.reports, f.items, nopLogger{})

	_, _, err := exporter.RenderReport(context.Background(), ownerP, reportID)
	assert.ErrorIs(t, err, apperr.ErrPermissionDenied)
}

func TestRenderReport_UnknownReport(t *testing.T) {
	f := newFixture()
	exporter := NewExportService(f.reports, f.items, nopLogger{})

	_, _, err := exporter.RenderReport(context.Background(), adminP, 404)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestRenderReport_Workbook(t *testing.T) {
	f := newFixture()
	reportID, itemID := f.seedReport(ownerP.UserID, entity.StatusApproved, 1250)
	it := f.items.items[itemID]
	it.ExpenseDate = time.Date(2026, 2, 14, 0, 0, 0, 0, time.UTC)
	f.items.items[itemID] = it

	exporter := NewExportService(f.reports, f.items, nopLogger{})
	data, filename, err := exporter.RenderReport(context.Background(), adminP, reportID)
	require.NoError(t, err)
	assert.Equal(t, "expense-report-1.xlsx", filename)
	require.NotEmpty(t, data)

	wb, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer wb.Close()

	status, err := wb.GetCellValue("Expense Report", "B3")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusApproved, status)

	date, err := wb.GetCellValue("Expense Report", "A7")
	require.NoError(t, err)
	assert.Equal(t, "2026-02-14", date)

	amount, err := wb.GetCellValue("Expense Report", "D7")
	require.NoError(t, err)
	assert.Equal(t, "$12.50", amount)
}
