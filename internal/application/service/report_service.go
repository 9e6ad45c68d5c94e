package service

import (
	"context"
	"fmt"

	"expenseflow/internal/application/port"
	"expenseflow/internal/domain/apperr"
	"expenseflow/internal/domain/entity"
	"expenseflow/internal/domain/reconcile"
	"expenseflow/internal/domain/workflow"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// SaveResult is returned by Create and Save. NotifyWarning carries a
// notification delivery failure as a secondary, non-fatal warning; the save
// itself has already succeeded when it is set.
type SaveResult struct {
	Report        *entity.ExpenseReport
	Items         []entity.ExpenseItem
	NotifyWarning string
}

// ReportDetail is returned by Get: the report, its items, and the actions
// available to the requesting principal in the report's current status.
type ReportDetail struct {
	Report    *entity.ExpenseReport
	Items     []entity.ExpenseItem
	CanEdit   bool
	CanDelete bool
	CanDecide bool
}

// ReportService manages expense reports through their submission and
// approval lifecycle. Callers are responsible for serializing saves per
// report id; the service must not be re-entered concurrently for the same
// report.
type ReportService interface {
	Create(ctx context.Context, p entity.Principal, items []reconcile.SessionItem) (*SaveResult, error)
	Save(ctx context.Context, p entity.Principal, reportID int64, items []reconcile.SessionItem) (*SaveResult, error)
	Get(ctx context.Context, p entity.Principal, reportID int64) (*ReportDetail, error)
	List(ctx context.Context, p entity.Principal) ([]*entity.ExpenseReport, error)
	Delete(ctx context.Context, p entity.Principal, reportID int64) error
	Approve(ctx context.Context, p entity.Principal, reportID int64) (*entity.ExpenseReport, error)
	Reject(ctx context.Context, p entity.Principal, reportID int64) (*entity.ExpenseReport, error)
}

type reportServiceImpl struct {
	reportRepo   port.ReportRepository
	itemRepo     port.ItemRepository
	txManager    port.TransactionManager
	notifier     port.Notifier
	maxItemCents int64
	logger       Logger
}

// NewReportService creates a new ReportService. maxItemCents caps a single
// item amount; amounts are validated against it before any persistence.
func NewReportService(
	reportRepo port.ReportRepository,
	itemRepo port.ItemRepository,
	txManager port.TransactionManager,
	notifier port.Notifier,
	maxItemCents int64,
	logger Logger,
) ReportService {
	return &reportServiceImpl{
		reportRepo:   reportRepo,
		itemRepo:     itemRepo,
		txManager:    txManager,
		notifier:     notifier,
		maxItemCents: maxItemCents,
		logger:       logger,
	}
}

// Create persists a first submission: a new report in SUBMITTED status with
// its items, then triggers the reviewer notification.
func (s *reportServiceImpl) Create(ctx context.Context, p entity.Principal, items []reconcile.SessionItem) (*SaveResult, error) {
	plan := reconcile.Reconcile(reconcile.FromSession(items))
	if len(plan.ToDelete) > 0 || len(plan.ToUpdate) > 0 {
		return nil, fmt.Errorf("%w: a new report cannot reference persisted items", apperr.ErrValidation)
	}
	if err := s.validatePlan(plan); err != nil {
		return nil, err
	}

	report := &entity.ExpenseReport{
		OwnerID:          p.UserID,
		Status:           entity.StatusSubmitted,
		TotalAmountCents: plan.TotalCents,
	}

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.reportRepo.Create(txCtx, report); err != nil {
			return fmt.Errorf("create report: %w", err)
		}
		if err := s.itemRepo.Insert(txCtx, insertRows(plan.ToInsert, report.ID)); err != nil {
			return fmt.Errorf("insert items: %w", err)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to create report", "error", err, "owner_id", p.UserID)
		return nil, fmt.Errorf("%w: create report: %v", apperr.ErrPersistence, err)
	}

	s.logger.Info("Report created", "report_id", report.ID, "owner_id", p.UserID, "total_cents", report.TotalAmountCents)
	return s.finishSave(ctx, report.ID, true)
}

// Save applies an edit session to an existing report: it validates the
// principal's permission, reconciles the edited items against the persisted
// baseline, applies deletes, updates and inserts in one transaction, rewrites
// the derived total, and transitions the status (an owner edit always lands
// on SUBMITTED, an admin edit keeps the current status). The reviewer
// notification fires only for an owner save that lands on SUBMITTED.
func (s *reportServiceImpl) Save(ctx context.Context, p entity.Principal, reportID int64, items []reconcile.SessionItem) (*SaveResult, error) {
	report, err := s.getReport(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if !workflow.CanEdit(p, report) {
		return nil, fmt.Errorf("%w: %s may not edit report %d in status %s",
			apperr.ErrPermissionDenied, p.UserID, reportID, report.Status)
	}

	machine, err := workflow.NewReportMachine(workflow.State(report.Status))
	if err != nil {
		return nil, fmt.Errorf("report %d: %w", reportID, err)
	}
	if err := machine.Fire(workflow.EditTrigger(p)); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrPermissionDenied, err)
	}
	nextStatus := machine.State().String()

	plan := reconcile.Reconcile(reconcile.FromSession(items))
	if err := s.validatePlan(plan); err != nil {
		return nil, err
	}

	// The session may only reference items persisted under this report.
	baseline, err := s.itemRepo.GetByReportID(ctx, reportID)
	if err != nil {
		return nil, fmt.Errorf("%w: load items: %v", apperr.ErrPersistence, err)
	}
	if err := checkPlanMembership(plan, baseline, reportID); err != nil {
		return nil, err
	}

	// Deletes, then updates, then inserts, then the derived totals. The
	// three item phases plus the totals rewrite commit or roll back as one.
	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if len(plan.ToDelete) > 0 {
			if err := s.itemRepo.Delete(txCtx, plan.ToDelete); err != nil {
				return fmt.Errorf("delete items: %w", err)
			}
		}
		if len(plan.ToUpdate) > 0 {
			if err := s.itemRepo.Update(txCtx, normalizeAll(plan.ToUpdate)); err != nil {
				return fmt.Errorf("update items: %w", err)
			}
		}
		if len(plan.ToInsert) > 0 {
			if err := s.itemRepo.Insert(txCtx, insertRows(plan.ToInsert, reportID)); err != nil {
				return fmt.Errorf("insert items: %w", err)
			}
		}
		if err := s.reportRepo.UpdateTotals(txCtx, reportID, plan.TotalCents, nextStatus); err != nil {
			return fmt.Errorf("update totals: %w", err)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to save report", "error", err, "report_id", reportID)
		return nil, fmt.Errorf("%w: save report %d: %v", apperr.ErrPersistence, reportID, err)
	}

	s.logger.Info("Report saved",
		"report_id", reportID,
		"status", nextStatus,
		"total_cents", plan.TotalCents,
		"deleted", len(plan.ToDelete),
		"updated", len(plan.ToUpdate),
		"inserted", len(plan.ToInsert),
	)

	notify := !p.IsAdmin() && nextStatus == entity.StatusSubmitted
	return s.finishSave(ctx, reportID, notify)
}

// Get loads a report with its items for the principal.
func (s *reportServiceImpl) Get(ctx context.Context, p entity.Principal, reportID int64) (*ReportDetail, error) {
	report, err := s.getReport(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if !workflow.CanView(p, report) {
		return nil, fmt.Errorf("%w: %s may not view report %d", apperr.ErrPermissionDenied, p.UserID, reportID)
	}

	items, err := s.itemRepo.GetByReportID(ctx, reportID)
	if err != nil {
		return nil, fmt.Errorf("%w: load items: %v", apperr.ErrPersistence, err)
	}

	return &ReportDetail{
		Report:    report,
		Items:     items,
		CanEdit:   workflow.CanEdit(p, report),
		CanDelete: workflow.CanDelete(p, report),
		CanDecide: workflow.CanDecide(p, report),
	}, nil
}

// List returns the principal's own reports, or every report for an admin.
func (s *reportServiceImpl) List(ctx context.Context, p entity.Principal) ([]*entity.ExpenseReport, error) {
	var (
		reports []*entity.ExpenseReport
		err     error
	)
	if p.IsAdmin() {
		reports, err = s.reportRepo.ListAll(ctx)
	} else {
		reports, err = s.reportRepo.ListByOwner(ctx, p.UserID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: list reports: %v", apperr.ErrPersistence, err)
	}
	return reports, nil
}

// Delete removes a report and its items. Only the owner may delete, and
// only while the report is SUBMITTED or REJECTED.
func (s *reportServiceImpl) Delete(ctx context.Context, p entity.Principal, reportID int64) error {
	report, err := s.getReport(ctx, reportID)
	if err != nil {
		return err
	}
	if !workflow.CanDelete(p, report) {
		return fmt.Errorf("%w: %s may not delete report %d in status %s",
			apperr.ErrPermissionDenied, p.UserID, reportID, report.Status)
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.itemRepo.DeleteByReportID(txCtx, reportID); err != nil {
			return fmt.Errorf("delete items: %w", err)
		}
		if err := s.reportRepo.Delete(txCtx, reportID); err != nil {
			return fmt.Errorf("delete report: %w", err)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to delete report", "error", err, "report_id", reportID)
		return fmt.Errorf("%w: delete report %d: %v", apperr.ErrPersistence, reportID, err)
	}

	s.logger.Info("Report deleted", "report_id", reportID, "owner_id", p.UserID)
	return nil
}

// Approve transitions a SUBMITTED report to APPROVED. Admin only.
func (s *reportServiceImpl) Approve(ctx context.Context, p entity.Principal, reportID int64) (*entity.ExpenseReport, error) {
	return s.decide(ctx, p, reportID, workflow.TriggerApprove)
}

// Reject transitions a SUBMITTED report to REJECTED. Admin only.
func (s *reportServiceImpl) Reject(ctx context.Context, p entity.Principal, reportID int64) (*entity.ExpenseReport, error) {
	return s.decide(ctx, p, reportID, workflow.TriggerReject)
}

func (s *reportServiceImpl) decide(ctx context.Context, p entity.Principal, reportID int64, trigger workflow.Trigger) (*entity.ExpenseReport, error) {
	report, err := s.getReport(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if !workflow.CanDecide(p, report) {
		return nil, fmt.Errorf("%w: %s may not %s report %d in status %s",
			apperr.ErrPermissionDenied, p.UserID, trigger, reportID, report.Status)
	}

	machine, err := workflow.NewReportMachine(workflow.State(report.Status))
	if err != nil {
		return nil, fmt.Errorf("report %d: %w", reportID, err)
	}
	if err := machine.Fire(trigger); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrPermissionDenied, err)
	}
	nextStatus := machine.State().String()

	if err := s.reportRepo.UpdateTotals(ctx, reportID, report.TotalAmountCents, nextStatus); err != nil {
		s.logger.Error("Failed to update report status", "error", err, "report_id", reportID, "status", nextStatus)
		return nil, fmt.Errorf("%w: %s report %d: %v", apperr.ErrPersistence, trigger, reportID, err)
	}

	s.logger.Info("Report decision recorded", "report_id", reportID, "status", nextStatus, "decided_by", p.UserID)
	return s.getReport(ctx, reportID)
}

// getReport loads a report and maps a missing row to ErrNotFound.
func (s *reportServiceImpl) getReport(ctx context.Context, reportID int64) (*entity.ExpenseReport, error) {
	report, err := s.reportRepo.GetByID(ctx, reportID)
	if err != nil {
		return nil, fmt.Errorf("%w: get report %d: %v", apperr.ErrPersistence, reportID, err)
	}
	if report == nil {
		return nil, fmt.Errorf("%w: report %d", apperr.ErrNotFound, reportID)
	}
	return report, nil
}

// validatePlan rejects a reconciled plan before any persistence occurs.
func (s *reportServiceImpl) validatePlan(plan reconcile.Plan) error {
	if plan.ItemCount() == 0 {
		return fmt.Errorf("%w: an expense report must retain at least one item", apperr.ErrValidation)
	}
	check := func(items []entity.ExpenseItem) error {
		for _, it := range items {
			if it.AmountCents < 0 || it.AmountCents > s.maxItemCents {
				return fmt.Errorf("%w: item amount %d outside [0, %d]", apperr.ErrValidation, it.AmountCents, s.maxItemCents)
			}
			if it.Category == "" {
				return fmt.Errorf("%w: item category is required", apperr.ErrValidation)
			}
		}
		return nil
	}
	if err := check(plan.ToUpdate); err != nil {
		return err
	}
	return check(plan.ToInsert)
}

// checkPlanMembership rejects a plan whose deletes or updates name item IDs
// outside the report's persisted baseline, whether they belong to another
// report or to no report at all.
func checkPlanMembership(plan reconcile.Plan, baseline []entity.ExpenseItem, reportID int64) error {
	known := make(map[int64]struct{}, len(baseline))
	for _, it := range baseline {
		known[it.ID] = struct{}{}
	}
	for _, id := range plan.ToDelete {
		if _, ok := known[id]; !ok {
			return fmt.Errorf("%w: item %d does not belong to report %d", apperr.ErrValidation, id, reportID)
		}
	}
	for _, it := range plan.ToUpdate {
		if _, ok := known[it.ID]; !ok {
			return fmt.Errorf("%w: item %d does not belong to report %d", apperr.ErrValidation, it.ID, reportID)
		}
	}
	return nil
}

// finishSave reloads the saved report and its items and, when requested,
// triggers the reviewer notification. A notification failure is attached to
// the result as a warning, never returned as an error.
func (s *reportServiceImpl) finishSave(ctx context.Context, reportID int64, notify bool) (*SaveResult, error) {
	report, err := s.getReport(ctx, reportID)
	if err != nil {
		return nil, err
	}
	items, err := s.itemRepo.GetByReportID(ctx, reportID)
	if err != nil {
		return nil, fmt.Errorf("%w: reload items: %v", apperr.ErrPersistence, err)
	}

	result := &SaveResult{Report: report, Items: items}
	if notify {
		if err := s.notifier.NotifySubmission(ctx, report); err != nil {
			s.logger.Warn("Submission notification failed", "error", err, "report_id", reportID)
			result.NotifyWarning = fmt.Sprintf("notification delivery failed: %v", err)
		}
	}
	return result, nil
}

// normalizeDescription enforces the sentinel-category rule: the free-text
// description only survives for CategoryOther.
func normalizeDescription(it *entity.ExpenseItem) {
	if it.Category != entity.CategoryOther {
		it.Description = nil
	}
}

func normalizeAll(items []entity.ExpenseItem) []entity.ExpenseItem {
	out := make([]entity.ExpenseItem, len(items))
	for i := range items {
		out[i] = items[i]
		normalizeDescription(&out[i])
	}
	return out
}

func insertRows(items []entity.ExpenseItem, reportID int64) []*entity.ExpenseItem {
	rows := make([]*entity.ExpenseItem, len(items))
	for i := range items {
		row := items[i]
		row.ID = 0
		row.ReportID = reportID
		normalizeDescription(&row)
		rows[i] = &row
	}
	return rows
}
