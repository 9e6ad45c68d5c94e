package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"expenseflow/internal/application/port"
	"expenseflow/internal/domain/entity"
	"expenseflow/internal/infrastructure/persistence/sqlite"
)

// ReportRepository implements port.ReportRepository
type ReportRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewReportRepository creates a new expense report repository
func NewReportRepository(db *sql.DB, logger *zap.Logger) port.ReportRepository {
	return &ReportRepository{
		db:     db,
		logger: logger,
	}
}

const reportColumns = `id, owner_id, status, total_amount_cents, created_at, updated_at`

// Create creates a new expense report
func (r *ReportRepository) Create(ctx context.Context, report *entity.ExpenseReport) error {
	query := `
		INSERT INTO expense_reports (owner_id, status, total_amount_cents)
		VALUES (?, ?, ?)
	`

	result, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query,
		report.OwnerID,
		report.Status,
		report.TotalAmountCents,
	)
	if err != nil {
		r.logger.Error("Failed to create report", zap.Error(err))
		return fmt.Errorf("failed to create report: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	report.ID = id
	return nil
}

// GetByID retrieves an expense report by ID. A missing row returns (nil, nil).
func (r *ReportRepository) GetByID(ctx context.Context, id int64) (*entity.ExpenseReport, error) {
	query := `SELECT ` + reportColumns + ` FROM expense_reports WHERE id = ?`

	var report entity.ExpenseReport
	err := sqlite.ExecutorFrom(ctx, r.db).QueryRowContext(ctx, query, id).Scan(
		&report.ID,
		&report.OwnerID,
		&report.Status,
		&report.TotalAmountCents,
		&report.CreatedAt,
		&report.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get report by ID", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get report: %w", err)
	}

	return &report, nil
}

// ListByOwner retrieves every report submitted by the given owner
func (r *ReportRepository) ListByOwner(ctx context.Context, ownerID string) ([]*entity.ExpenseReport, error) {
	query := `SELECT ` + reportColumns + ` FROM expense_reports WHERE owner_id = ? ORDER BY created_at DESC`

	rows, err := sqlite.ExecutorFrom(ctx, r.db).QueryContext(ctx, query, ownerID)
	if err != nil {
		r.logger.Error("Failed to list reports by owner", zap.String("owner_id", ownerID), zap.Error(err))
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	return scanReports(rows)
}

// ListAll retrieves every report
func (r *ReportRepository) ListAll(ctx context.Context) ([]*entity.ExpenseReport, error) {
	query := `SELECT ` + reportColumns + ` FROM expense_reports ORDER BY created_at DESC`

	rows, err := sqlite.ExecutorFrom(ctx, r.db).QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list reports", zap.Error(err))
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	return scanReports(rows)
}

// UpdateTotals rewrites the derived total and the status in one statement
func (r *ReportRepository) UpdateTotals(ctx context.Context, id int64, totalCents int64, status string) error {
	query := `
		UPDATE expense_reports
		SET total_amount_cents = ?, status = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`

	_, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query, totalCents, status, id)
	if err != nil {
		r.logger.Error("Failed to update report totals",
			zap.Int64("id", id),
			zap.Int64("total_cents", totalCents),
			zap.String("status", status),
			zap.Error(err))
		return fmt.Errorf("failed to update report totals: %w", err)
	}

	return nil
}

// Delete removes an expense report
func (r *ReportRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM expense_reports WHERE id = ?`

	_, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query, id)
	if err != nil {
		r.logger.Error("Failed to delete report", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete report: %w", err)
	}

	return nil
}

func scanReports(rows *sql.Rows) ([]*entity.ExpenseReport, error) {
	var reports []*entity.ExpenseReport
	for rows.Next() {
		var report entity.ExpenseReport
		err := rows.Scan(
			&report.ID,
			&report.OwnerID,
			&report.Status,
			&report.TotalAmountCents,
			&report.CreatedAt,
			&report.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		reports = append(reports, &report)
	}
	return reports, rows.Err()
}

// Verify interface compliance
var _ port.ReportRepository = (*ReportRepository)(nil)
