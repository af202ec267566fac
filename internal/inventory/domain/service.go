package domain

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

var (
	ErrItemNotFound      = errors.New("item_not_found")
	ErrDuplicateSKU      = errors.New("duplicate_sku")
	ErrInvalidItemType   = errors.New("invalid_item_type")
	ErrInvalidCondition  = errors.New("invalid_condition")
	ErrInvalidMovement   = errors.New("invalid_movement")
	ErrInsufficientStock = errors.New("insufficient_stock")
	ErrItemInUse         = errors.New("item_in_use")
)

// InsufficientStockError reports a movement that would drive a counter
// negative, or a send that exceeds the available valid stock.
type InsufficientStockError struct {
	Item      ItemRef
	Condition ItemCondition
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient %s stock for %s %d: available %d, requested %d",
		e.Condition, e.Item.Type, e.Item.ID, e.Available, e.Requested)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// CreateProductRequest registers a new appliance SKU.
type CreateProductRequest struct {
	SKU           string
	NameAr        string
	NameEn        string
	Category      string
	InitialStock  int
	AlertQuantity int
	Actor         string
}

// CreatePartRequest registers a new spare part SKU.
type CreatePartRequest struct {
	SKU           string
	NameAr        string
	NameEn        string
	PartType      string
	ProductID     *snowflake.ID
	InitialStock  int
	AlertQuantity int
	Actor         string
}

// UpdateProductRequest carries catalog edits; nil fields stay untouched.
// Stock counters are never edited here, only through movements.
type UpdateProductRequest struct {
	SKU           *string
	NameAr        *string
	NameEn        *string
	Category      *string
	AlertQuantity *int
}

// UpdatePartRequest carries catalog edits; nil fields stay untouched.
type UpdatePartRequest struct {
	SKU           *string
	NameAr        *string
	NameEn        *string
	PartType      *string
	ProductID     *snowflake.ID
	AlertQuantity *int
}

// MovementRequest describes one stock delta to apply and record.
type MovementRequest struct {
	Item            ItemRef
	QuantityChange  int
	Condition       ItemCondition
	Kind            MovementKind
	OrderID         *snowflake.ID
	ServiceActionID *snowflake.ID
	Notes           string
	Actor           string
}

// InventoryService owns the append-only stock ledger. The Tx variants run
// against a caller-provided transaction so workflows can compose stock
// movements with their own writes atomically.
type InventoryService interface {
	CreateProduct(ctx context.Context, req CreateProductRequest) (*Product, error)
	CreatePart(ctx context.Context, req CreatePartRequest) (*Part, error)
	UpdateProduct(ctx context.Context, id snowflake.ID, req UpdateProductRequest) (*Product, error)
	UpdatePart(ctx context.Context, id snowflake.ID, req UpdatePartRequest) (*Part, error)
	DeleteProduct(ctx context.Context, id snowflake.ID) error
	DeletePart(ctx context.Context, id snowflake.ID) error
	GetItem(ctx context.Context, ref ItemRef) (*ItemSummary, error)
	ListProducts(ctx context.Context) ([]Product, error)
	ListParts(ctx context.Context) ([]Part, error)

	ApplyMovement(ctx context.Context, req MovementRequest) (*StockMovement, error)
	ApplyMovementTx(ctx context.Context, tx *gorm.DB, req MovementRequest) (*StockMovement, error)
	ApplyMany(ctx context.Context, reqs []MovementRequest) ([]StockMovement, error)
	ApplyManyTx(ctx context.Context, tx *gorm.DB, reqs []MovementRequest) ([]StockMovement, error)

	ListMovements(ctx context.Context, ref ItemRef, limit int) ([]StockMovement, error)
	StockOverview(ctx context.Context) (*Overview, error)
}

// Service is the package alias for InventoryService.
type Service = InventoryService
