package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/kariemSeiam/Hvar-Hub/internal/order/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type gormRepository struct{}

// Provide returns the gorm-backed order repository.
func Provide() domain.Repository {
	return &gormRepository{}
}

func (r *gormRepository) Insert(ctx context.Context, db *gorm.DB, order *domain.Order) error {
	return db.WithContext(ctx).Create(order).Error
}

func (r *gormRepository) Update(ctx context.Context, db *gorm.DB, order *domain.Order) error {
	return db.WithContext(ctx).Save(order).Error
}

func (r *gormRepository) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Order, error) {
	var order domain.Order
	if err := db.WithContext(ctx).First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

func (r *gormRepository) FindByIDForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Order, error) {
	query := db.WithContext(ctx)
	if db.Dialector.Name() == "postgres" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var order domain.Order
	if err := query.First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

func (r *gormRepository) FindByTracking(ctx context.Context, db *gorm.DB, tracking string) (*domain.Order, error) {
	var order domain.Order
	if err := db.WithContext(ctx).First(&order, "tracking_number = ?", tracking).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

func (r *gormRepository) ListByStatus(ctx context.Context, db *gorm.DB, req domain.ListRequest) ([]domain.Order, int64, error) {
	query := db.WithContext(ctx).Model(&domain.Order{}).Where("status = ?", req.Status)
	if req.Status == domain.StatusReturned && req.ReturnCondition != nil {
		// Returned orders that were never classified count as valid.
		if *req.ReturnCondition == domain.ReturnConditionValid {
			query = query.Where("return_condition = ? OR return_condition IS NULL OR return_condition = ''", domain.ReturnConditionValid)
		} else {
			query = query.Where("return_condition = ?", *req.ReturnCondition)
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := req.Page
	if page < 1 {
		page = 1
	}
	limit := req.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	var orders []domain.Order
	err := query.
		Order("updated_at desc").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (r *gormRepository) CountByStatus(ctx context.Context, db *gorm.DB) (map[domain.OrderStatus]int64, error) {
	type statusCount struct {
		Status domain.OrderStatus
		Count  int64
	}
	var rows []statusCount
	err := db.WithContext(ctx).
		Model(&domain.Order{}).
		Select("status, count(*) as count").
		Group("status").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[domain.OrderStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

func (r *gormRepository) Recent(ctx context.Context, db *gorm.DB, limit int) ([]domain.Order, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	var orders []domain.Order
	err := db.WithContext(ctx).
		Order("updated_at desc").
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *gormRepository) AppendHistory(ctx context.Context, db *gorm.DB, entry *domain.MaintenanceHistoryEntry) error {
	return db.WithContext(ctx).Create(entry).Error
}

func (r *gormRepository) HistoryForOrder(ctx context.Context, db *gorm.DB, orderID snowflake.ID) ([]domain.MaintenanceHistoryEntry, error) {
	var entries []domain.MaintenanceHistoryEntry
	err := db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at asc").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *gormRepository) DeleteOrderAndHistory(ctx context.Context, db *gorm.DB, orderID snowflake.ID) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", orderID).Delete(&domain.MaintenanceHistoryEntry{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", orderID).Delete(&domain.Order{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
}
