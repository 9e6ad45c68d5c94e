package port

import (
	"context"

	"expenseflow/internal/domain/entity"
)

// ReportRepository defines persistence operations for ExpenseReport
type ReportRepository interface {
	Create(ctx context.Context, report *entity.ExpenseReport) error
	GetByID(ctx context.Context, id int64) (*entity.ExpenseReport, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*entity.ExpenseReport, error)
	ListAll(ctx context.Context) ([]*entity.ExpenseReport, error)

	// UpdateTotals rewrites the derived total and the status in one
	// statement; every save and every decision goes through it.
	UpdateTotals(ctx context.Context, id int64, totalCents int64, status string) error

	Delete(ctx context.Context, id int64) error
}

// ItemRepository defines persistence operations for ExpenseItem. Update has
// full-row replace semantics: every field is rewritten, not a partial patch.
type ItemRepository interface {
	Insert(ctx context.Context, items []*entity.ExpenseItem) error
	Update(ctx context.Context, items []entity.ExpenseItem) error
	Delete(ctx context.Context, ids []int64) error
	GetByReportID(ctx context.Context, reportID int64) ([]entity.ExpenseItem, error)

	// DeleteByReportID removes every item of a report; used when the
	// report itself is deleted.
	DeleteByReportID(ctx context.Context, reportID int64) error
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
