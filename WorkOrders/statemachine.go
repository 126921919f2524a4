package WorkOrders

import (
	"github.com/OmarEhab007/cafm-backend-sub004/Models"
)

// Action is a lifecycle verb applied to a work order.
type Action string

const (
	ActionAssign   Action = "assign"
	ActionStart    Action = "start"
	ActionHold     Action = "hold"
	ActionResume   Action = "resume"
	ActionComplete Action = "complete"
	ActionVerify   Action = "verify"
	ActionCancel   Action = "cancel"

	// Ledger and progress verbs never appear in the transition table; they
	// are named here so closed-order rejections can report what was tried.
	ActionProgress    Action = "update_progress"
	ActionAddTask     Action = "add_task"
	ActionUpdateTask  Action = "update_task"
	ActionAddMaterial Action = "add_material"
)

type transitionKey struct {
	From   string
	Action Action
}

// transitions is the single authority on legal lifecycle moves. Every
// (status, action) pair missing from this table is rejected.
var transitions = map[transitionKey]string{
	{Models.StatusPending, ActionAssign}:  Models.StatusAssigned,
	{Models.StatusAssigned, ActionAssign}: Models.StatusAssigned,

	{Models.StatusAssigned, ActionStart}: Models.StatusInProgress,

	{Models.StatusInProgress, ActionHold}: Models.StatusOnHold,
	{Models.StatusOnHold, ActionResume}:   Models.StatusInProgress,

	{Models.StatusInProgress, ActionComplete}: Models.StatusCompleted,
	{Models.StatusCompleted, ActionVerify}:    Models.StatusVerified,

	{Models.StatusPending, ActionCancel}:    Models.StatusCancelled,
	{Models.StatusAssigned, ActionCancel}:   Models.StatusCancelled,
	{Models.StatusInProgress, ActionCancel}: Models.StatusCancelled,
	{Models.StatusOnHold, ActionCancel}:     Models.StatusCancelled,
}

// actionTargets names the status each verb drives toward, for error messages
// on rejected moves.
var actionTargets = map[Action]string{
	ActionAssign:   Models.StatusAssigned,
	ActionStart:    Models.StatusInProgress,
	ActionHold:     Models.StatusOnHold,
	ActionResume:   Models.StatusInProgress,
	ActionComplete: Models.StatusCompleted,
	ActionVerify:   Models.StatusVerified,
	ActionCancel:   Models.StatusCancelled,
}

// NextStatus resolves the status an action leads to from the given one. It
// touches no state; callers apply the result themselves.
func NextStatus(from string, action Action) (string, error) {
	next, ok := transitions[transitionKey{From: from, Action: action}]
	if !ok {
		return "", &InvalidStateTransitionError{From: from, To: actionTargets[action], Action: action}
	}
	return next, nil
}

// IsTerminal reports whether no further lifecycle action can ever apply.
func IsTerminal(status string) bool {
	return status == Models.StatusVerified || status == Models.StatusCancelled
}

// IsClosed reports whether the order no longer accepts task, material or
// progress mutations. COMPLETED orders are closed but not terminal, since
// verification is still ahead of them.
func IsClosed(status string) bool {
	return status == Models.StatusCompleted || IsTerminal(status)
}

// ClosedStatuses is the closed set in query form, for NOT IN filters.
func ClosedStatuses() []string {
	return []string{Models.StatusCompleted, Models.StatusVerified, Models.StatusCancelled}
}
