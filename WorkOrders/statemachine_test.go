package WorkOrders

import (
	"errors"
	"testing"

	"github.com/OmarEhab007/cafm-backend-sub004/Models"
)

// Every (status, action) pair outside this table must be rejected, and the
// rejection must name the status it was attempted from.
func TestNextStatusCoversEveryPair(t *testing.T) {
	statuses := []string{
		Models.StatusPending,
		Models.StatusAssigned,
		Models.StatusInProgress,
		Models.StatusOnHold,
		Models.StatusCompleted,
		Models.StatusVerified,
		Models.StatusCancelled,
	}
	actions := []Action{
		ActionAssign, ActionStart, ActionHold, ActionResume,
		ActionComplete, ActionVerify, ActionCancel,
	}
	legal := map[transitionKey]string{
		{Models.StatusPending, ActionAssign}:      Models.StatusAssigned,
		{Models.StatusAssigned, ActionAssign}:     Models.StatusAssigned,
		{Models.StatusAssigned, ActionStart}:      Models.StatusInProgress,
		{Models.StatusInProgress, ActionHold}:     Models.StatusOnHold,
		{Models.StatusOnHold, ActionResume}:       Models.StatusInProgress,
		{Models.StatusInProgress, ActionComplete}: Models.StatusCompleted,
		{Models.StatusCompleted, ActionVerify}:    Models.StatusVerified,
		{Models.StatusPending, ActionCancel}:      Models.StatusCancelled,
		{Models.StatusAssigned, ActionCancel}:     Models.StatusCancelled,
		{Models.StatusInProgress, ActionCancel}:   Models.StatusCancelled,
		{Models.StatusOnHold, ActionCancel}:       Models.StatusCancelled,
	}

	for _, from := range statuses {
		for _, action := range actions {
			next, err := NextStatus(from, action)
			want, ok := legal[transitionKey{From: from, Action: action}]
			if ok {
				if err != nil {
					t.Errorf("NextStatus(%s, %s): unexpected error %v", from, action, err)
					continue
				}
				if next != want {
					t.Errorf("NextStatus(%s, %s) = %s, want %s", from, action, next, want)
				}
				continue
			}
			if err == nil {
				t.Errorf("NextStatus(%s, %s) = %s, want rejection", from, action, next)
				continue
			}
			var transition *InvalidStateTransitionError
			if !errors.As(err, &transition) {
				t.Errorf("NextStatus(%s, %s): error %T, want *InvalidStateTransitionError", from, action, err)
				continue
			}
			if transition.From != from {
				t.Errorf("NextStatus(%s, %s): error names source %s, want %s", from, action, transition.From, from)
			}
		}
	}

	if len(transitions) != len(legal) {
		t.Errorf("transition table has %d entries, want %d", len(transitions), len(legal))
	}
}

func TestTerminalAndClosedSets(t *testing.T) {
	if !IsTerminal(Models.StatusVerified) || !IsTerminal(Models.StatusCancelled) {
		t.Error("VERIFIED and CANCELLED must be terminal")
	}
	if IsTerminal(Models.StatusCompleted) {
		t.Error("COMPLETED is not terminal, verification is still ahead")
	}
	for _, status := range []string{Models.StatusCompleted, Models.StatusVerified, Models.StatusCancelled} {
		if !IsClosed(status) {
			t.Errorf("%s must be closed", status)
		}
	}
	for _, status := range []string{Models.StatusPending, Models.StatusAssigned, Models.StatusInProgress, Models.StatusOnHold} {
		if IsClosed(status) {
			t.Errorf("%s must not be closed", status)
		}
	}
}
