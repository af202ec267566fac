package domain

import (
	"errors"
	"fmt"
)

var ErrInvalidTransition = errors.New("invalid_action_transition")

// TransitionError reports an operation applied in a status that does not
// allow it.
type TransitionError struct {
	Current   Status
	Operation string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("operation %q is not allowed while action is %q", e.Operation, e.Current)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// allowedTransitions is the closed transition table. Every status the
// workflow can leave appears here; terminal states do not.
var allowedTransitions = map[Status][]Status{
	StatusCreated:        {StatusConfirmed, StatusCancelled},
	StatusConfirmed:      {StatusPendingReceive, StatusCompleted, StatusFailed, StatusCancelled},
	StatusPendingReceive: {StatusCompleted, StatusFailed},
}

// CanTransition reports whether moving from one status to another is legal.
func CanTransition(from, to Status) bool {
	for _, allowed := range allowedTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Transition validates a move and returns a TransitionError naming the
// operation when it is illegal.
func TransitionTo(current, target Status, operation string) error {
	if !CanTransition(current, target) {
		return &TransitionError{Current: current, Operation: operation}
	}
	return nil
}
