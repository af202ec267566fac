package domain

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/snowflake"
	invdomain "github.com/kariemSeiam/Hvar-Hub/internal/inventory/domain"
	"gorm.io/gorm"
)

var (
	ErrNotFound          = errors.New("service_action_not_found")
	ErrValidation        = errors.New("service_action_validation_failed")
	ErrDuplicateTracking = errors.New("duplicate_follow_up_tracking")
	ErrAlreadyIntegrated = errors.New("service_action_already_integrated")
)

// ValidationError reports a request field that violates the creation or
// workflow contract for the action kind.
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

// LineRequest is one planned line item at creation time.
type LineRequest struct {
	ItemType invdomain.ItemType
	ItemID   snowflake.ID
	Quantity int
}

// CreateRequest opens a new case. Required fields depend on the kind:
// replace kinds need at least one line with positive quantity, the return
// kind needs a positive refund amount.
type CreateRequest struct {
	Kind                   ActionKind
	CustomerName           string
	CustomerPhone          string
	OriginalTrackingNumber string
	Notes                  string
	RefundAmount           *float64
	Items                  []LineRequest
	Actor                  string
}

// ReceivedItem describes one physical line coming back from the customer.
type ReceivedItem struct {
	ItemType  invdomain.ItemType
	ItemID    snowflake.ID
	Quantity  int
	Condition invdomain.ItemCondition
}

// ServiceActionService drives the replacement/return workflow. Every
// mutating operation runs validation, ledger writes, entity updates, and
// the audit append inside a single transaction.
type ServiceActionService interface {
	Create(ctx context.Context, req CreateRequest) (*ServiceAction, error)
	ConfirmAndSend(ctx context.Context, actionID snowflake.ID, followUpTracking, actor string) (*ServiceAction, error)
	ConfirmReturn(ctx context.Context, actionID snowflake.ID, followUpTracking, actor string) (*ServiceAction, error)
	ReceiveReplacementItems(ctx context.Context, actionID snowflake.ID, items []ReceivedItem, actor string) (*ServiceAction, error)
	ReceiveReturnItems(ctx context.Context, actionID snowflake.ID, items []ReceivedItem, actor string) (*ServiceAction, error)
	ProcessRefundAndComplete(ctx context.Context, actionID snowflake.ID, actor string) (*ServiceAction, error)
	Complete(ctx context.Context, actionID snowflake.ID, notes, actor string) (*ServiceAction, error)
	Fail(ctx context.Context, actionID snowflake.ID, notes, actor string) (*ServiceAction, error)
	Cancel(ctx context.Context, actionID snowflake.ID, notes, actor string) (*ServiceAction, error)

	GetWithHistory(ctx context.Context, actionID snowflake.ID) (*Detail, error)
	ListByStatus(ctx context.Context, status Status, page, limit int) ([]ServiceAction, int64, error)
	ListByCustomerPhone(ctx context.Context, phone string) ([]ServiceAction, error)
	FindByFollowUpTracking(ctx context.Context, tracking string) (*ServiceAction, error)
	Statistics(ctx context.Context) (*Statistics, error)

	// MarkIntegratedTx links the case to the order created from it. Used
	// by the coordinator inside its own transaction.
	MarkIntegratedTx(ctx context.Context, tx *gorm.DB, actionID, orderID snowflake.ID, actor string) error
}

// Service is the package alias for ServiceActionService.
type Service = ServiceActionService
