package domain

import (
	"errors"
	"fmt"
	"strings"
)

var ErrValidation = errors.New("validation_failed")

// ValidationError reports a payload field that does not satisfy the
// requirements of the action it accompanies.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

const (
	trackingMinLen = 3
	trackingMaxLen = 50
	notesMaxLen    = 1000
)

// ActionPayload carries the optional data a workflow action may need.
// Validate checks it against the requirements of one specific action
// before the state machine runs, so illegal payloads never reach storage.
type ActionPayload struct {
	NewTrackingNumber string           `json:"new_tracking_number,omitempty"`
	NewCODAmount      *float64         `json:"new_cod_amount,omitempty"`
	ReturnCondition   *ReturnCondition `json:"return_condition,omitempty"`
	Notes             string           `json:"notes,omitempty"`
}

// Validate enforces the per-action payload contract.
func (p ActionPayload) Validate(action MaintenanceAction) error {
	if len(p.Notes) > notesMaxLen {
		return &ValidationError{Field: "notes", Message: fmt.Sprintf("must be at most %d characters", notesMaxLen)}
	}

	switch action {
	case ActionSendOrder, ActionConfirmSend:
		if tracking := strings.TrimSpace(p.NewTrackingNumber); tracking != "" {
			if len(tracking) < trackingMinLen || len(tracking) > trackingMaxLen {
				return &ValidationError{
					Field:   "new_tracking_number",
					Message: fmt.Sprintf("must be between %d and %d characters", trackingMinLen, trackingMaxLen),
				}
			}
		}
		if p.NewCODAmount != nil && *p.NewCODAmount < 0 {
			return &ValidationError{Field: "new_cod_amount", Message: "must not be negative"}
		}
	case ActionReturnOrder, ActionMoveToReturns, ActionSetReturnCondition:
		if p.ReturnCondition == nil {
			return &ValidationError{Field: "return_condition", Message: "is required for return actions"}
		}
		switch *p.ReturnCondition {
		case ReturnConditionValid, ReturnConditionDamaged:
		default:
			return &ValidationError{Field: "return_condition", Message: "must be valid or damaged"}
		}
	}
	return nil
}

// HistoryFields flattens the payload into the structured map stored on
// the audit row.
func (p ActionPayload) HistoryFields() map[string]any {
	fields := map[string]any{}
	if tracking := strings.TrimSpace(p.NewTrackingNumber); tracking != "" {
		fields["new_tracking_number"] = tracking
	}
	if p.NewCODAmount != nil {
		fields["new_cod_amount"] = *p.NewCODAmount
	}
	if p.ReturnCondition != nil {
		fields["return_condition"] = string(*p.ReturnCondition)
	}
	if p.Notes != "" {
		fields["notes"] = p.Notes
	}
	return fields
}
