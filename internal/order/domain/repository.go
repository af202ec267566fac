package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Repository isolates order persistence. Methods take the database handle
// explicitly so services can pass their open transaction.
type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, order *Order) error
	Update(ctx context.Context, db *gorm.DB, order *Order) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Order, error)
	FindByIDForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Order, error)
	FindByTracking(ctx context.Context, db *gorm.DB, tracking string) (*Order, error)
	ListByStatus(ctx context.Context, db *gorm.DB, req ListRequest) ([]Order, int64, error)
	CountByStatus(ctx context.Context, db *gorm.DB) (map[OrderStatus]int64, error)
	Recent(ctx context.Context, db *gorm.DB, limit int) ([]Order, error)
	AppendHistory(ctx context.Context, db *gorm.DB, entry *MaintenanceHistoryEntry) error
	HistoryForOrder(ctx context.Context, db *gorm.DB, orderID snowflake.ID) ([]MaintenanceHistoryEntry, error)

	// DeleteOrderAndHistory removes the order and its audit rows in one
	// explicit operation; nothing cascades implicitly.
	DeleteOrderAndHistory(ctx context.Context, db *gorm.DB, orderID snowflake.ID) error
}
