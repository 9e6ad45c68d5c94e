package workflow

import "expenseflow/internal/domain/entity"

// Policy functions answer "may this principal do this to this report".
// They combine role and ownership with the report's current status; the
// state machine then decides where a permitted action lands.

// CanView reports whether the principal may load the report at all.
// Owners see their own reports, admins see any.
func CanView(p entity.Principal, r *entity.ExpenseReport) bool {
	return p.IsAdmin() || p.Owns(r)
}

// CanEdit reports whether the principal may save an edit session against
// the report. Admins may edit any report in any status. Owners may edit
// while the report is SUBMITTED or REJECTED; an approved report is
// immutable to its owner.
func CanEdit(p entity.Principal, r *entity.ExpenseReport) bool {
	if p.IsAdmin() {
		return true
	}
	if !p.Owns(r) {
		return false
	}
	return r.Status == entity.StatusSubmitted || r.Status == entity.StatusRejected
}

// CanDelete reports whether the principal may delete the report. Only the
// owner may, and only while it is SUBMITTED or REJECTED. Admin deletion is
// not supported.
func CanDelete(p entity.Principal, r *entity.ExpenseReport) bool {
	if p.IsAdmin() || !p.Owns(r) {
		return false
	}
	return r.Status == entity.StatusSubmitted || r.Status == entity.StatusRejected
}

// CanDecide reports whether the principal may approve or reject the report.
// Only admins decide, and only while the report is SUBMITTED.
func CanDecide(p entity.Principal, r *entity.ExpenseReport) bool {
	return p.IsAdmin() && r.Status == entity.StatusSubmitted
}

// EditTrigger returns the machine trigger corresponding to a save by the
// given principal.
func EditTrigger(p entity.Principal) Trigger {
	if p.IsAdmin() {
		return TriggerAdminEdit
	}
	return TriggerOwnerEdit
}
