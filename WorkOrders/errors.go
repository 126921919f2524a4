package WorkOrders

import (
	"errors"
	"fmt"
)

// ErrNoCapacityAvailable aborts an auto-schedule run that found zero eligible
// technicians. Nothing is mutated when it is returned.
var ErrNoCapacityAvailable = errors.New("no available technicians for auto-scheduling")

// NotFoundError covers missing rows and rows outside the caller's tenant;
// the two cases are indistinguishable on purpose.
type NotFoundError struct {
	Resource string
	ID       uint
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Resource, e.ID)
}

// InvalidStateTransitionError reports an action the state machine rejected,
// identifying the attempted source and target states for diagnosis.
type InvalidStateTransitionError struct {
	From   string
	To     string
	Action Action
}

func (e *InvalidStateTransitionError) Error() string {
	if e.To != "" {
		return fmt.Sprintf("invalid state transition: %s from %s to %s", e.Action, e.From, e.To)
	}
	return fmt.Sprintf("invalid state transition: %s not allowed in status %s", e.Action, e.From)
}

// InvalidAssignmentError reports a technician who cannot take work: wrong
// role, inactive, or flagged unavailable.
type InvalidAssignmentError struct {
	TechnicianID uint
	Reason       string
}

func (e *InvalidAssignmentError) Error() string {
	return fmt.Sprintf("technician %d cannot be assigned: %s", e.TechnicianID, e.Reason)
}

// ConcurrentModificationError surfaces an optimistic-lock conflict. The core
// never retries; the caller re-fetches and retries at the request layer.
type ConcurrentModificationError struct {
	WorkOrderID uint
}

func (e *ConcurrentModificationError) Error() string {
	return fmt.Sprintf("work order %d was modified concurrently, re-fetch and retry", e.WorkOrderID)
}

// ValidationError rejects malformed input before any state is touched.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}
