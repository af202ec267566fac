package domain

import (
	"context"
	"errors"

	orderdomain "github.com/kariemSeiam/Hvar-Hub/internal/order/domain"
	sadomain "github.com/kariemSeiam/Hvar-Hub/internal/serviceaction/domain"
)

// ErrNotReady rejects integration of a service action that has not reached
// the ready-to-receive stage.
var ErrNotReady = errors.New("service_action_not_ready")

// ScanClassification tells the intake path what a scanned tracking number
// refers to.
type ScanClassification string

const (
	ScanNewShipment           ScanClassification = "new_shipment"
	ScanExistingOrder         ScanClassification = "existing_order"
	ScanReadyForIntegration   ScanClassification = "service_action_ready"
	ScanServiceActionNotReady ScanClassification = "service_action_not_ready"
)

// ScanResult carries the classification plus whichever entity matched.
type ScanResult struct {
	Classification ScanClassification       `json:"classification"`
	Order          *orderdomain.Order       `json:"order,omitempty"`
	ServiceAction  *sadomain.ServiceAction  `json:"service_action,omitempty"`
}

// CoordinatorService bridges completed service actions back into the
// order workflow under the follow-up tracking number.
type CoordinatorService interface {
	// Integrate turns a ready-to-receive service action into a new order.
	// Replaying the same follow-up tracking returns the existing linked
	// order instead of failing.
	Integrate(ctx context.Context, followUpTracking, actor string) (*orderdomain.Order, error)

	// ResolveIncomingScan classifies a tracking number with no side
	// effects; the caller decides whether to integrate or create.
	ResolveIncomingScan(ctx context.Context, tracking string) (*ScanResult, error)

	// Scan is the intake entry point: it resolves the tracking number and
	// either returns the existing order, integrates a ready service
	// action, or creates a fresh order seeded from carrier data.
	Scan(ctx context.Context, tracking, actor string) (*ScanResult, error)
}

// Service is the package alias for CoordinatorService.
type Service = CoordinatorService
