package port

import (
	"context"

	"expenseflow/internal/domain/entity"
)

// Notifier delivers the submission notification to reviewers. From the save
// workflow's perspective it is fire-and-forget: a failure is surfaced as a
// non-fatal warning on the save result and never rolls anything back.
// Transient-failure retries live behind this interface, not in the core.
type Notifier interface {
	NotifySubmission(ctx context.Context, report *entity.ExpenseReport) error
}
