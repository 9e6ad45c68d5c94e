package service

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expenseflow/internal/domain/apperr"
	"expenseflow/internal/domain/entity"
	"expenseflow/internal/domain/money"
	"expenseflow/internal/domain/reconcile"
)

// In-memory fakes for the persistence and notification ports.

type fakeReportRepo struct {
	reports      map[int64]*entity.ExpenseReport
	nextID       int64
	totalsCalls  int
	failTotals   error
	deletedIDs   []int64
}

func newFakeReportRepo() *fakeReportRepo {
	return &fakeReportRepo{reports: make(map[int64]*entity.ExpenseReport)}
}

func (f *fakeReportRepo) Create(ctx context.Context, r *entity.ExpenseReport) error {
	f.nextID++
	r.ID = f.nextID
	r.CreatedAt = time.Now()
	r.UpdatedAt = r.CreatedAt
	stored := *r
	f.reports[r.ID] = &stored
	return nil
}

func (f *fakeReportRepo) GetByID(ctx context.Context, id int64) (*entity.ExpenseReport, error) {
	r, ok := f.reports[id]
	if !ok {
		return nil, nil
	}
	copied := *r
	return &copied, nil
}

func (f *fakeReportRepo) ListByOwner(ctx context.Context, ownerID string) ([]*entity.ExpenseReport, error) {
	var out []*entity.ExpenseReport
	for _, r := range f.reports {
		if r.OwnerID == ownerID {
			copied := *r
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeReportRepo) ListAll(ctx context.Context) ([]*entity.ExpenseReport, error) {
	var out []*entity.ExpenseReport
	for _, r := range f.reports {
		copied := *r
		out = append(out, &copied)
	}
	return out, nil
}

func (f *fakeReportRepo) UpdateTotals(ctx context.Context, id int64, totalCents int64, status string) error {
	f.totalsCalls++
	if f.failTotals != nil {
		return f.failTotals
	}
	r, ok := f.reports[id]
	if !ok {
		return errors.New("no such report")
	}
	r.TotalAmountCents = totalCents
	r.Status = status
	r.UpdatedAt = time.Now()
	return nil
}

func (f *fakeReportRepo) Delete(ctx context.Context, id int64) error {
	delete(f.reports, id)
	f.deletedIDs = append(f.deletedIDs, id)
	return nil
}

type fakeItemRepo struct {
	items       map[int64]entity.ExpenseItem
	nextID      int64
	insertCalls int
	updateCalls int
	deleteCalls int
}

func newFakeItemRepo() *fakeItemRepo {
	return &fakeItemRepo{items: make(map[int64]entity.ExpenseItem)}
}

func (f *fakeItemRepo) Insert(ctx context.Context, items []*entity.ExpenseItem) error {
	f.insertCalls++
	for _, it := range items {
		f.nextID++
		it.ID = f.nextID
		f.items[it.ID] = *it
	}
	return nil
}

func (f *fakeItemRepo) Update(ctx context.Context, items []entity.ExpenseItem) error {
	f.updateCalls++
	for _, it := range items {
		if _, ok := f.items[it.ID]; !ok {
			return errors.New("no such item")
		}
		f.items[it.ID] = it
	}
	return nil
}

func (f *fakeItemRepo) Delete(ctx context.Context, ids []int64) error {
	f.deleteCalls++
	for _, id := range ids {
		delete(f.items, id)
	}
	return nil
}

func (f *fakeItemRepo) GetByReportID(ctx context.Context, reportID int64) ([]entity.ExpenseItem, error) {
	var out []entity.ExpenseItem
	for _, it := range f.items {
		if it.ReportID == reportID {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeItemRepo) DeleteByReportID(ctx context.Context, reportID int64) error {
	for id, it := range f.items {
		if it.ReportID == reportID {
			delete(f.items, id)
		}
	}
	return nil
}

func (f *fakeItemRepo) mutationCalls() int {
	return f.insertCalls + f.updateCalls + f.deleteCalls
}

type fakeNotifier struct {
	calls int
	last  *entity.ExpenseReport
	err   error
}

func (f *fakeNotifier) NotifySubmission(ctx context.Context, report *entity.ExpenseReport) error {
	f.calls++
	f.last = report
	return f.err
}

type fakeTxManager struct{}

func (fakeTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type nopLogger struct{}

func (nopLogger) Info(msg string, keysAndValues ...interface{})  {}
func (nopLogger) Warn(msg string, keysAndValues ...interface{})  {}
func (nopLogger) Error(msg string, keysAndValues ...interface{}) {}

type fixture struct {
	svc      ReportService
	reports  *fakeReportRepo
	items    *fakeItemRepo
	notifier *fakeNotifier
}

func newFixture() *fixture {
	f := &fixture{
		reports:  newFakeReportRepo(),
		items:    newFakeItemRepo(),
		notifier: &fakeNotifier{},
	}
	f.svc = NewReportService(f.reports, f.items, fakeTxManager{}, f.notifier, money.MaxCents, nopLogger{})
	return f
}

// seedReport installs a report with one persisted item and returns both ids.
func (f *fixture) seedReport(ownerID, status string, amountCents int64) (int64, int64) {
	report := &entity.ExpenseReport{OwnerID: ownerID, Status: status, TotalAmountCents: amountCents}
	_ = f.reports.Create(context.Background(), report)
	f.reports.reports[report.ID].Status = status
	item := &entity.ExpenseItem{
		ReportID:    report.ID,
		ExpenseDate: time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		AmountCents: amountCents,
		Category:    entity.CategoryTravel,
	}
	_ = f.items.Insert(context.Background(), []*entity.ExpenseItem{item})
	f.items.insertCalls = 0
	return report.ID, item.ID
}

var (
	ownerP    = entity.Principal{UserID: "user-001", Role: entity.RoleUser}
	strangerP = entity.Principal{UserID: "user-002", Role: entity.RoleUser}
	adminP    = entity.Principal{UserID: "admin-001", Role: entity.RoleAdmin}
)

func sessionItem(id, cents int64, category string, isNew, isDeleted bool) reconcile.SessionItem {
	return reconcile.SessionItem{
		Item: entity.ExpenseItem{
			ID:          id,
			ExpenseDate: time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
			AmountCents: cents,
			Category:    category,
		},
		IsNew:     isNew,
		IsDeleted: isDeleted,
	}
}

func TestCreate_FirstSubmission(t *testing.T) {
	f := newFixture()

	result, err := f.svc.Create(context.Background(), ownerP, []reconcile.SessionItem{
		sessionItem(0, 500, entity.CategoryTravel, true, false),
		sessionItem(0, 700, entity.CategoryMeal, true, false),
	})
	require.NoError(t, err)

	assert.Equal(t, entity.StatusSubmitted, result.Report.Status)
	assert.Equal(t, int64(1200), result.Report.TotalAmountCents)
	assert.Equal(t, ownerP.UserID, result.Report.OwnerID)
	require.Len(t, result.Items, 2)
	assert.Equal(t, 1, f.notifier.calls, "first submission must notify reviewers")
	assert.Empty(t, result.NotifyWarning)
}

func TestCreate_RejectsEmptyItemList(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Create(context.Background(), ownerP, nil)
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Zero(t, f.items.mutationCalls(), "validation failure must perform no persistence calls")
	assert.Zero(t, f.notifier.calls)
}

func TestCreate_RejectsPersistedItems(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Create(context.Background(), ownerP, []reconcile.SessionItem{
		sessionItem(42, 500, entity.CategoryTravel, false, false),
	})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

// Owner edits a rejected report, changes one item's amount from 500 to 700
// cents: the report lands back on SUBMITTED, the total reflects the change,
// and the reviewer notification fires.
func TestSave_OwnerResubmitsRejectedReport(t *testing.T) {
	f := newFixture()
	reportID, itemID := f.seedReport(ownerP.UserID, entity.StatusRejected, 500)

	result, err := f.svc.Save(context.Background(), ownerP, reportID, []reconcile.SessionItem{
		sessionItem(itemID, 700, entity.CategoryTravel, false, false),
	})
	require.NoError(t, err)

	assert.Equal(t, entity.StatusSubmitted, result.Report.Status)
	assert.Equal(t, int64(700), result.Report.TotalAmountCents)
	assert.Equal(t, 1, f.notifier.calls, "owner resubmission must notify reviewers")
	assert.Equal(t, entity.StatusSubmitted, f.notifier.last.Status)
}

// Admin edits an approved report's item category: the status stays APPROVED
// and no notification is triggered.
func TestSave_AdminEditKeepsStatus(t *testing.T) {
	f := newFixture()
	reportID, itemID := f.seedReport(ownerP.UserID, entity.StatusApproved, 500)

	result, err := f.svc.Save(context.Background(), adminP, reportID, []reconcile.SessionItem{
		sessionItem(itemID, 500, entity.CategoryMeal, false, false),
	})
	require.NoError(t, err)

	assert.Equal(t, entity.StatusApproved, result.Report.Status)
	assert.Zero(t, f.notifier.calls, "admin edits must not notify")
	assert.Equal(t, entity.CategoryMeal, f.items.items[itemID].Category)
}

func TestSave_OwnerCannotEditApprovedReport(t *testing.T) {
	f := newFixture()
	reportID, itemID := f.seedReport(ownerP.UserID, entity.StatusApproved, 500)

	_, err := f.svc.Save(context.Background(), ownerP, reportID, []reconcile.SessionItem{
		sessionItem(itemID, 700, entity.CategoryTravel, false, false),
	})
	assert.ErrorIs(t, err, apperr.ErrPermissionDenied)
	assert.Zero(t, f.items.mutationCalls())
	assert.Equal(t, int64(500), f.reports.reports[reportID].TotalAmountCents, "denied action must not mutate state")
}

func TestSave_StrangerDenied(t *testing.T) {
	f := newFixture()
	reportID, itemID := f.seedReport(ownerP.UserID, entity.StatusSubmitted, 500)

	_, err := f.svc.Save(context.Background(), strangerP, reportID, []reconcile.SessionItem{
		sessionItem(itemID, 700, entity.CategoryTravel, false, false),
	})
	assert.ErrorIs(t, err, apperr.ErrPermissionDenied)
}

// Owner adds a new item and removes it within the same session: no insert,
// no delete, no update for that item, and the total is unaffected.
func TestSave_NewThenRemovedItemIsNoOp(t *testing.T) {
	f := newFixture()
	reportID, itemID := f.seedReport(ownerP.UserID, entity.StatusSubmitted, 500)

	result, err := f.svc.Save(context.Background(), ownerP, reportID, []reconcile.SessionItem{
		sessionItem(itemID, 500, entity.CategoryTravel, false, false),
		sessionItem(0, 9999, entity.CategoryMeal, true, true),
	})
	require.NoError(t, err)

	assert.Equal(t, int64(500), result.Report.TotalAmountCents)
	require.Len(t, result.Items, 1)
	assert.Zero(t, f.items.insertCalls)
	assert.Zero(t, f.items.deleteCalls)
}

func TestSave_ZeroRemainingItemsFails(t *testing.T) {
	f := newFixture()
	reportID, itemID := f.seedReport(ownerP.UserID, entity.StatusSubmitted, 500)

	_, err := f.svc.Save(context.Background(), ownerP, reportID, []reconcile.SessionItem{
		sessionItem(itemID, 500, entity.CategoryTravel, false, true),
	})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Zero(t, f.items.mutationCalls(), "validation failure must perform no persistence calls")
	assert.Zero(t, f.reports.totalsCalls)
	assert.Len(t, f.items.items, 1, "the persisted item must survive")
}

// A session may only name items persisted under the report being saved.
// Naming another report's item, whether to delete or rewrite it, is rejected
// before any persistence and the other report stays untouched.
func TestSave_RejectsForeignItemIDs(t *testing.T) {
	tests := []struct {
		name      string
		isDeleted bool
	}{
		{"foreign item flagged deleted", true},
		{"foreign item rewritten", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			reportID, itemID := f.seedReport(ownerP.UserID, entity.StatusSubmitted, 500)
			_, victimItemID := f.seedReport(strangerP.UserID, entity.StatusSubmitted, 900)

			_, err := f.svc.Save(context.Background(), ownerP, reportID, []reconcile.SessionItem{
				sessionItem(itemID, 500, entity.CategoryTravel, false, false),
				sessionItem(victimItemID, 1, entity.CategoryTravel, false, tt.isDeleted),
			})
			assert.ErrorIs(t, err, apperr.ErrValidation)
			assert.Zero(t, f.items.mutationCalls(), "rejected session must perform no persistence calls")
			assert.Zero(t, f.reports.totalsCalls)

			victim, ok := f.items.items[victimItemID]
			require.True(t, ok, "the other report's item must survive")
			assert.Equal(t, int64(900), victim.AmountCents)
		})
	}
}

// An item ID that no longer exists anywhere (deleted by a concurrent save)
// fails the same membership check instead of silently updating nothing.
func TestSave_RejectsStaleItemID(t *testing.T) {
	f := newFixture()
	reportID, itemID := f.seedReport(ownerP.UserID, entity.StatusSubmitted, 500)

	_, err := f.svc.Save(context.Background(), ownerP, reportID, []reconcile.SessionItem{
		sessionItem(itemID, 500, entity.CategoryTravel, false, false),
		sessionItem(999, 700, entity.CategoryMeal, false, false),
	})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Zero(t, f.items.mutationCalls())
	assert.Equal(t, int64(500), f.reports.reports[reportID].TotalAmountCents)
}

func TestSave_AmountOverCapFails(t *testing.T) {
	f := newFixture()
	reportID, itemID := f.seedReport(ownerP.UserID, entity.StatusSubmitted, 500)

	_, err := f.svc.Save(context.Background(), ownerP, reportID, []reconcile.SessionItem{
		sessionItem(itemID, money.MaxCents+1, entity.CategoryTravel, false, false),
	})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Zero(t, f.items.mutationCalls())
}

func TestSave_AppliesDeleteUpdateInsert(t *testing.T) {
	f := newFixture()
	reportID, itemID := f.seedReport(ownerP.UserID, entity.StatusSubmitted, 500)
	second := &entity.ExpenseItem{ReportID: reportID, AmountCents: 300, Category: entity.CategoryMeal, ExpenseDate: time.Now()}
	require.NoError(t, f.items.Insert(context.Background(), []*entity.ExpenseItem{second}))
	f.items.insertCalls = 0

	result, err := f.svc.Save(context.Background(), ownerP, reportID, []reconcile.SessionItem{
		sessionItem(itemID, 800, entity.CategoryTravel, false, false), // update
		sessionItem(second.ID, 300, entity.CategoryMeal, false, true), // delete
		sessionItem(0, 150, entity.CategoryCommunication, true, false), // insert
	})
	require.NoError(t, err)

	assert.Equal(t, int64(950), result.Report.TotalAmountCents)
	require.Len(t, result.Items, 2)
	_, gone := f.items.items[second.ID]
	assert.False(t, gone)
	assert.Equal(t, int64(800), f.items.items[itemID].AmountCents)
}

// The description only survives for the sentinel category.
func TestSave_NormalizesDescriptions(t *testing.T) {
	f := newFixture()
	reportID, itemID := f.seedReport(ownerP.UserID, entity.StatusSubmitted, 500)

	desc := "team offsite supplies"
	travel := sessionItem(itemID, 500, entity.CategoryTravel, false, false)
	travel.Item.Description = &desc
	other := sessionItem(0, 200, entity.CategoryOther, true, false)
	other.Item.Description = &desc

	result, err := f.svc.Save(context.Background(), ownerP, reportID, []reconcile.SessionItem{travel, other})
	require.NoError(t, err)

	require.Len(t, result.Items, 2)
	assert.Nil(t, f.items.items[itemID].Description, "non-sentinel category must drop the description")
	var otherStored *entity.ExpenseItem
	for id, it := range f.items.items {
		if id != itemID {
			copied := it
			otherStored = &copied
		}
	}
	require.NotNil(t, otherStored)
	require.NotNil(t, otherStored.Description)
	assert.Equal(t, desc, *otherStored.Description)
}

// A notification failure is attached to the result as a warning; the save
// itself still succeeds and nothing rolls back.
func TestSave_NotificationFailureIsNonFatal(t *testing.T) {
	f := newFixture()
	f.notifier.err = errors.New("mail function unreachable")
	reportID, itemID := f.seedReport(ownerP.UserID, entity.StatusRejected, 500)

	result, err := f.svc.Save(context.Background(), ownerP, reportID, []reconcile.SessionItem{
		sessionItem(itemID, 700, entity.CategoryTravel, false, false),
	})
	require.NoError(t, err)

	assert.NotEmpty(t, result.NotifyWarning)
	assert.Equal(t, entity.StatusSubmitted, result.Report.Status)
	assert.Equal(t, int64(700), result.Report.TotalAmountCents)
}

func TestSave_PersistenceFailurePropagates(t *testing.T) {
	f := newFixture()
	f.reports.failTotals = errors.New("disk full")
	reportID, itemID := f.seedReport(ownerP.UserID, entity.StatusSubmitted, 500)

	_, err := f.svc.Save(context.Background(), ownerP, reportID, []reconcile.SessionItem{
		sessionItem(itemID, 700, entity.CategoryTravel, false, false),
	})
	assert.ErrorIs(t, err, apperr.ErrPersistence)
	assert.Zero(t, f.notifier.calls, "failed save must not notify")
}

func TestSave_UnknownReport(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Save(context.Background(), ownerP, 99, []reconcile.SessionItem{
		sessionItem(0, 100, entity.CategoryTravel, true, false),
	})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestApprove_FromSubmitted(t *testing.T) {
	f := newFixture()
	reportID, _ := f.seedReport(ownerP.UserID, entity.StatusSubmitted, 500)

	report, err := f.svc.Approve(context.Background(), adminP, reportID)
	require.NoError(t, err)

	assert.Equal(t, entity.StatusApproved, report.Status)
	assert.Equal(t, int64(500), report.TotalAmountCents, "decision must not disturb the total")
	assert.Zero(t, f.notifier.calls)
}

// The decision response reflects the persisted row, including the timestamp
// rewritten by the status update.
func TestApprove_ReturnsReloadedReport(t *testing.T) {
	f := newFixture()
	reportID, _ := f.seedReport(ownerP.UserID, entity.StatusSubmitted, 500)
	before := f.reports.reports[reportID].UpdatedAt

	report, err := f.svc.Approve(context.Background(), adminP, reportID)
	require.NoError(t, err)

	stored := f.reports.reports[reportID]
	assert.True(t, report.UpdatedAt.Equal(stored.UpdatedAt), "response must carry the persisted updated_at")
	assert.False(t, report.UpdatedAt.Before(before))
}

func TestReject_FromSubmitted(t *testing.T) {
	f := newFixture()
	reportID, _ := f.seedReport(ownerP.UserID, entity.StatusSubmitted, 500)

	report, err := f.svc.Reject(context.Background(), adminP, reportID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusRejected, report.Status)
}

// Approving an already-approved report is denied and changes nothing.
func TestApprove_AlreadyApprovedDenied(t *testing.T) {
	f := newFixture()
	reportID, _ := f.seedReport(ownerP.UserID, entity.StatusApproved, 500)

	_, err := f.svc.Approve(context.Background(), adminP, reportID)
	assert.ErrorIs(t, err, apperr.ErrPermissionDenied)
	assert.Zero(t, f.reports.totalsCalls)
	assert.Equal(t, entity.StatusApproved, f.reports.reports[reportID].Status)
}

func TestApprove_NonAdminDenied(t *testing.T) {
	f := newFixture()
	reportID, _ := f.seedReport(ownerP.UserID, entity.StatusSubmitted, 500)

	_, err := f.svc.Approve(context.Background(), ownerP, reportID)
	assert.ErrorIs(t, err, apperr.ErrPermissionDenied)
	assert.Equal(t, entity.StatusSubmitted, f.reports.reports[reportID].Status)
}

func TestDelete_OwnerWhileRejected(t *testing.T) {
	f := newFixture()
	reportID, itemID := f.seedReport(ownerP.UserID, entity.StatusRejected, 500)

	require.NoError(t, f.svc.Delete(context.Background(), ownerP, reportID))

	assert.NotContains(t, f.reports.reports, reportID)
	assert.NotContains(t, f.items.items, itemID, "items go with their report")
}

func TestDelete_DeniedCases(t *testing.T) {
	tests := []struct {
		name      string
		principal entity.Principal
		status    string
	}{
		{"admin deletion unsupported", adminP, entity.StatusSubmitted},
		{"owner cannot delete approved", ownerP, entity.StatusApproved},
		{"stranger cannot delete", strangerP, entity.StatusSubmitted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			reportID, _ := f.seedReport(ownerP.UserID, tt.status, 500)

			err := f.svc.Delete(context.Background(), tt.principal, reportID)
			assert.ErrorIs(t, err, apperr.ErrPermissionDenied)
			assert.Contains(t, f.reports.reports, reportID)
		})
	}
}

func TestGet_PermissionsAndActions(t *testing.T) {
	f := newFixture()
	reportID, _ := f.seedReport(ownerP.UserID, entity.StatusSubmitted, 500)

	detail, err := f.svc.Get(context.Background(), ownerP, reportID)
	require.NoError(t, err)
	assert.True(t, detail.CanEdit)
	assert.True(t, detail.CanDelete)
	assert.False(t, detail.CanDecide)
	require.Len(t, detail.Items, 1)

	adminDetail, err := f.svc.Get(context.Background(), adminP, reportID)
	require.NoError(t, err)
	assert.True(t, adminDetail.CanEdit)
	assert.False(t, adminDetail.CanDelete)
	assert.True(t, adminDetail.CanDecide)

	_, err = f.svc.Get(context.Background(), strangerP, reportID)
	assert.ErrorIs(t, err, apperr.ErrPermissionDenied)

	_, err = f.svc.Get(context.Background(), ownerP, 404)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestList_ScopedByRole(t *testing.T) {
	f := newFixture()
	f.seedReport(ownerP.UserID, entity.StatusSubmitted, 500)
	f.seedReport(strangerP.UserID, entity.StatusSubmitted, 300)

	mine, err := f.svc.List(context.Background(), ownerP)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	all, err := f.svc.List(context.Background(), adminP)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
