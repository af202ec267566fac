package domain

import (
	"errors"
	"fmt"
)

var ErrInvalidTransition = errors.New("invalid_transition")

// TransitionError reports an action applied to an order whose current
// status does not allow it.
type TransitionError struct {
	Current OrderStatus
	Action  MaintenanceAction
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("action %q is not allowed while order is %q", e.Action, e.Current)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

type transitionRule struct {
	from   []OrderStatus
	target OrderStatus
}

// transitionRules maps each workflow action to the statuses it may be
// applied from and the status it produces. ActionReceived is the initial
// state and is handled at creation, not here.
var transitionRules = map[MaintenanceAction]transitionRule{
	ActionStartMaintenance:    {from: []OrderStatus{StatusReceived}, target: StatusInMaintenance},
	ActionCompleteMaintenance: {from: []OrderStatus{StatusInMaintenance}, target: StatusCompleted},
	ActionFailMaintenance:     {from: []OrderStatus{StatusInMaintenance}, target: StatusFailed},
	ActionReschedule:          {from: []OrderStatus{StatusFailed}, target: StatusInMaintenance},
	ActionSendOrder:           {from: []OrderStatus{StatusCompleted, StatusFailed}, target: StatusSending},
	ActionConfirmSend:         {from: []OrderStatus{StatusCompleted, StatusFailed}, target: StatusSending},
	ActionReturnOrder:         {from: []OrderStatus{StatusReceived, StatusFailed}, target: StatusReturned},
	ActionMoveToReturns:       {from: []OrderStatus{StatusReceived, StatusFailed}, target: StatusReturned},
	ActionRefundOrReplace:     {from: []OrderStatus{StatusFailed}, target: StatusCompleted},
	ActionSetReturnCondition:  {from: []OrderStatus{StatusReturned}, target: StatusReturned},
}

// Transition resolves the target status for an action, or rejects it.
func Transition(current OrderStatus, action MaintenanceAction) (OrderStatus, error) {
	rule, ok := transitionRules[action]
	if !ok {
		return "", &TransitionError{Current: current, Action: action}
	}
	for _, from := range rule.from {
		if from == current {
			return rule.target, nil
		}
	}
	return "", &TransitionError{Current: current, Action: action}
}

// KnownAction reports whether the action is part of the workflow at all.
func KnownAction(action MaintenanceAction) bool {
	if action == ActionReceived {
		return true
	}
	_, ok := transitionRules[action]
	return ok
}
