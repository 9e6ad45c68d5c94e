package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"expenseflow/internal/application/port"
	"expenseflow/internal/domain/entity"
	"expenseflow/internal/infrastructure/persistence/sqlite"
)

// ItemRepository implements port.ItemRepository
type ItemRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewItemRepository creates a new expense item repository
func NewItemRepository(db *sql.DB, logger *zap.Logger) port.ItemRepository {
	return &ItemRepository{
		db:     db,
		logger: logger,
	}
}

const itemColumns = `id, report_id, expense_date, amount_cents, category, description, receipt_ref, created_at`

// Insert persists new expense items and backfills their generated IDs
func (r *ItemRepository) Insert(ctx context.Context, items []*entity.ExpenseItem) error {
	if len(items) == 0 {
		return nil
	}

	query := `
		INSERT INTO expense_items (report_id, expense_date, amount_cents, category, description, receipt_ref)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	executor := sqlite.ExecutorFrom(ctx, r.db)
	for _, item := range items {
		result, err := executor.ExecContext(ctx, query,
			item.ReportID,
			item.ExpenseDate,
			item.AmountCents,
			item.Category,
			nullString(item.Description),
			nullString(item.ReceiptRef),
		)
		if err != nil {
			r.logger.Error("Failed to insert expense item",
				zap.Int64("report_id", item.ReportID),
				zap.Error(err))
			return fmt.Errorf("failed to insert expense item: %w", err)
		}

		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get last insert id: %w", err)
		}
		item.ID = id
	}

	return nil
}

// Update rewrites the full row of each item
func (r *ItemRepository) Update(ctx context.Context, items []entity.ExpenseItem) error {
	if len(items) == 0 {
		return nil
	}

	query := `
		UPDATE expense_items
		SET expense_date = ?, amount_cents = ?, category = ?, description = ?, receipt_ref = ?
		WHERE id = ?
	`

	executor := sqlite.ExecutorFrom(ctx, r.db)
	for _, item := range items {
		result, err := executor.ExecContext(ctx, query,
			item.ExpenseDate,
			item.AmountCents,
			item.Category,
			nullString(item.Description),
			nullString(item.ReceiptRef),
			item.ID,
		)
		if err != nil {
			r.logger.Error("Failed to update expense item",
				zap.Int64("id", item.ID),
				zap.Error(err))
			return fmt.Errorf("failed to update expense item: %w", err)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if affected == 0 {
			r.logger.Error("Expense item missing on update", zap.Int64("id", item.ID))
			return fmt.Errorf("expense item %d not found", item.ID)
		}
	}

	return nil
}

// Delete removes the given items by ID
func (r *ItemRepository) Delete(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}

	query := fmt.Sprintf(`DELETE FROM expense_items WHERE id IN (%s)`, strings.Join(placeholders, ", "))

	_, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to delete expense items", zap.Int64s("ids", ids), zap.Error(err))
		return fmt.Errorf("failed to delete expense items: %w", err)
	}

	return nil
}

// GetByReportID retrieves all items belonging to a report
func (r *ItemRepository) GetByReportID(ctx context.Context, reportID int64) ([]entity.ExpenseItem, error) {
	query := `SELECT ` + itemColumns + ` FROM expense_items WHERE report_id = ? ORDER BY expense_date, id`

	rows, err := sqlite.ExecutorFrom(ctx, r.db).QueryContext(ctx, query, reportID)
	if err != nil {
		r.logger.Error("Failed to get expense items", zap.Int64("report_id", reportID), zap.Error(err))
		return nil, fmt.Errorf("failed to get expense items: %w", err)
	}
	defer rows.Close()

	var items []entity.ExpenseItem
	for rows.Next() {
		var item entity.ExpenseItem
		var description, receiptRef sql.NullString
		err := rows.Scan(
			&item.ID,
			&item.ReportID,
			&item.ExpenseDate,
			&item.AmountCents,
			&item.Category,
			&description,
			&receiptRef,
			&item.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expense item: %w", err)
		}
		if description.Valid {
			item.Description = &description.String
		}
		if receiptRef.Valid {
			item.ReceiptRef = &receiptRef.String
		}
		items = append(items, item)
	}

	return items, rows.Err()
}

// DeleteByReportID removes every item of a report
func (r *ItemRepository) DeleteByReportID(ctx context.Context, reportID int64) error {
	query := `DELETE FROM expense_items WHERE report_id = ?`

	_, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query, reportID)
	if err != nil {
		r.logger.Error("Failed to delete expense items by report", zap.Int64("report_id", reportID), zap.Error(err))
		return fmt.Errorf("failed to delete expense items: %w", err)
	}

	return nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// Verify interface compliance
var _ port.ItemRepository = (*ItemRepository)(nil)
