package workflow

// NewReportMachine returns the status machine for an expense report, seeded
// with the report's current status.
//
// Transition rules:
//   - an owner edit always lands on SUBMITTED, forcing re-review; there is
//     no owner-edit transition out of APPROVED, so approved reports are
//     immutable to the owner
//   - an admin edit keeps the current status, whatever it is
//   - approve and reject are only valid from SUBMITTED; a decided report
//     cannot be re-decided directly
func NewReportMachine(initial State) (StateMachine, error) {
	if !initial.IsValid() {
		return nil, ErrInvalidState
	}

	b := NewBuilder()

	b.Configure(StateSubmitted).
		Permit(TriggerOwnerEdit, StateSubmitted).
		Permit(TriggerAdminEdit, StateSubmitted).
		Permit(TriggerApprove, StateApproved).
		Permit(TriggerReject, StateRejected)

	b.Configure(StateRejected).
		Permit(TriggerOwnerEdit, StateSubmitted).
		Permit(TriggerAdminEdit, StateRejected)

	b.Configure(StateApproved).
		Permit(TriggerAdminEdit, StateApproved)

	return b.Build(initial), nil
}
