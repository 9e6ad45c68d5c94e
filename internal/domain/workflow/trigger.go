package workflow

// Trigger represents an action that can cause a status transition
type Trigger string

const (
	// TriggerOwnerEdit is a save of an edit session by the report's owner.
	// It always lands on SUBMITTED: any owner change forces re-review.
	TriggerOwnerEdit Trigger = "OWNER_EDIT"

	// TriggerAdminEdit is a save by an administrator. It never changes the
	// report's status.
	TriggerAdminEdit Trigger = "ADMIN_EDIT"

	TriggerApprove Trigger = "APPROVE"
	TriggerReject  Trigger = "REJECT"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}
