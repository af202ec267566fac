package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrNotFound          = errors.New("order_not_found")
	ErrDuplicateTracking = errors.New("duplicate_tracking_number")
)

// CreateOrderRequest seeds a new order in the RECEIVED state. Carrier
// scans and service-action integration both funnel through it.
type CreateOrderRequest struct {
	TrackingNumber      string
	CustomerName        string
	CustomerPhone       string
	CustomerSecondPhone string
	CustomerAddress     string
	CODAmount           float64
	PackageDescription  string
	CarrierData         datatypes.JSON
	ServiceActionID     *snowflake.ID
	Notes               string
	Actor               string
}

// ListRequest filters orders by status. ReturnCondition only applies when
// listing returned orders; a returned order with no recorded condition is
// treated as valid.
type ListRequest struct {
	Status          OrderStatus
	ReturnCondition *ReturnCondition
	Page            int
	Limit           int
}

// OrderService drives the repair lifecycle. Every mutation appends one
// history row in the same transaction as the order update.
type OrderService interface {
	Create(ctx context.Context, req CreateOrderRequest) (*Order, error)
	CreateTx(ctx context.Context, tx *gorm.DB, req CreateOrderRequest) (*Order, error)
	Apply(ctx context.Context, orderID snowflake.ID, action MaintenanceAction, payload ActionPayload, actor string) (*Order, error)
	GetByID(ctx context.Context, orderID snowflake.ID) (*Order, error)
	GetByTracking(ctx context.Context, tracking string) (*Order, error)
	History(ctx context.Context, orderID snowflake.ID) ([]MaintenanceHistoryEntry, error)
	ListByStatus(ctx context.Context, req ListRequest) ([]Order, int64, error)
	Summary(ctx context.Context) (*Summary, error)
	RecentOrders(ctx context.Context, limit int) ([]Order, error)
	DeleteOrderAndHistory(ctx context.Context, orderID snowflake.ID) error
}

// Service is the package alias for OrderService.
type Service = OrderService
