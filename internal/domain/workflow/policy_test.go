package workflow

import (
	"testing"

	"expenseflow/internal/domain/entity"
)

func reportWith(status string) *entity.ExpenseReport {
	return &entity.ExpenseReport{ID: 1, OwnerID: "user-001", Status: status}
}

var (
	owner    = entity.Principal{UserID: "user-001", Role: entity.RoleUser}
	stranger = entity.Principal{UserID: "user-002", Role: entity.RoleUser}
	admin    = entity.Principal{UserID: "admin-001", Role: entity.RoleAdmin}
)

// Exercises the full role x status permission table for every action.
func TestPermissionTable(t *testing.T) {
	statuses := []string{entity.StatusSubmitted, entity.StatusRejected, entity.StatusApproved}

	tests := []struct {
		name      string
		principal entity.Principal
		canEdit   map[string]bool
		canDelete map[string]bool
		canDecide map[string]bool
	}{
		{
			name:      "owner",
			principal: owner,
			canEdit: map[string]bool{
				entity.StatusSubmitted: true,
				entity.StatusRejected:  true,
				entity.StatusApproved:  false,
			},
			canDelete: map[string]bool{
				entity.StatusSubmitted: true,
				entity.StatusRejected:  true,
				entity.StatusApproved:  false,
			},
			canDecide: map[string]bool{
				entity.StatusSubmitted: false,
				entity.StatusRejected:  false,
				entity.StatusApproved:  false,
			},
		},
		{
			name:      "admin",
			principal: admin,
			canEdit: map[string]bool{
				entity.StatusSubmitted: true,
				entity.StatusRejected:  true,
				entity.StatusApproved:  true,
			},
			canDelete: map[string]bool{
				entity.StatusSubmitted: false,
				entity.StatusRejected:  false,
				entity.StatusApproved:  false,
			},
			canDecide: map[string]bool{
				entity.StatusSubmitted: true,
				entity.StatusRejected:  false,
				entity.StatusApproved:  false,
			},
		},
		{
			name:      "non-owner user",
			principal: stranger,
			canEdit: map[string]bool{
				entity.StatusSubmitted: false,
				entity.StatusRejected:  false,
				entity.StatusApproved:  false,
			},
			canDelete: map[string]bool{
				entity.StatusSubmitted: false,
				entity.StatusRejected:  false,
				entity.StatusApproved:  false,
			},
			canDecide: map[string]bool{
				entity.StatusSubmitted: false,
				entity.StatusRejected:  false,
				entity.StatusApproved:  false,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, status := range statuses {
				r := reportWith(status)
				if got := CanEdit(tt.principal, r); got != tt.canEdit[status] {
					t.Errorf("CanEdit(%s, %s) = %v, want %v", tt.name, status, got, tt.canEdit[status])
				}
				if got := CanDelete(tt.principal, r); got != tt.canDelete[status] {
					t.Errorf("CanDelete(%s, %s) = %v, want %v", tt.name, status, got, tt.canDelete[status])
				}
				if got := CanDecide(tt.principal, r); got != tt.canDecide[status] {
					t.Errorf("CanDecide(%s, %s) = %v, want %v", tt.name, status, got, tt.canDecide[status])
				}
			}
		})
	}
}

func TestCanView(t *testing.T) {
	r := reportWith(entity.StatusSubmitted)

	if !CanView(owner, r) {
		t.Error("owner should view own report")
	}
	if !CanView(admin, r) {
		t.Error("admin should view any report")
	}
	if CanView(stranger, r) {
		t.Error("non-owner user should not view another user's report")
	}
}

func TestEditTrigger(t *testing.T) {
	if got := EditTrigger(owner); got != TriggerOwnerEdit {
		t.Errorf("EditTrigger(owner) = %v, want %v", got, TriggerOwnerEdit)
	}
	if got := EditTrigger(admin); got != TriggerAdminEdit {
		t.Errorf("EditTrigger(admin) = %v, want %v", got, TriggerAdminEdit)
	}
}
