package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Repository isolates service-action persistence. Methods take the
// database handle explicitly so services can pass their open transaction.
type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, action *ServiceAction) error
	Update(ctx context.Context, db *gorm.DB, action *ServiceAction) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*ServiceAction, error)
	FindByIDForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*ServiceAction, error)
	FindByFollowUpTracking(ctx context.Context, db *gorm.DB, tracking string) (*ServiceAction, error)
	ListByStatus(ctx context.Context, db *gorm.DB, status Status, page, limit int) ([]ServiceAction, int64, error)
	ListByCustomerPhone(ctx context.Context, db *gorm.DB, phone string) ([]ServiceAction, error)
	CountByStatusAndKind(ctx context.Context, db *gorm.DB) (map[Status]int64, map[ActionKind]int64, error)
	CountIntegrated(ctx context.Context, db *gorm.DB) (int64, error)
	CountPendingRefunds(ctx context.Context, db *gorm.DB) (int64, error)

	InsertItems(ctx context.Context, db *gorm.DB, items []ServiceActionItem) error
	UpdateItem(ctx context.Context, db *gorm.DB, item *ServiceActionItem) error
	ItemsForAction(ctx context.Context, db *gorm.DB, actionID snowflake.ID) ([]ServiceActionItem, error)

	AppendHistory(ctx context.Context, db *gorm.DB, entry *ServiceActionHistoryEntry) error
	HistoryForAction(ctx context.Context, db *gorm.DB, actionID snowflake.ID) ([]ServiceActionHistoryEntry, error)
}
