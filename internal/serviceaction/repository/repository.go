package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/kariemSeiam/Hvar-Hub/internal/serviceaction/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type gormRepository struct{}

// Provide returns the gorm-backed service-action repository.
func Provide() domain.Repository {
	return &gormRepository{}
}

func (r *gormRepository) Insert(ctx context.Context, db *gorm.DB, action *domain.ServiceAction) error {
	return db.WithContext(ctx).Create(action).Error
}

func (r *gormRepository) Update(ctx context.Context, db *gorm.DB, action *domain.ServiceAction) error {
	return db.WithContext(ctx).Save(action).Error
}

func (r *gormRepository) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.ServiceAction, error) {
	var action domain.ServiceAction
	if err := db.WithContext(ctx).First(&action, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &action, nil
}

func (r *gormRepository) FindByIDForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.ServiceAction, error) {
	query := db.WithContext(ctx)
	if db.Dialector.Name() == "postgres" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var action domain.ServiceAction
	if err := query.First(&action, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &action, nil
}

func (r *gormRepository) FindByFollowUpTracking(ctx context.Context, db *gorm.DB, tracking string) (*domain.ServiceAction, error) {
	var action domain.ServiceAction
	err := db.WithContext(ctx).
		Where("new_tracking_number = ? AND new_tracking_number <> ''", tracking).
		First(&action).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &action, nil
}

func (r *gormRepository) ListByStatus(ctx context.Context, db *gorm.DB, status domain.Status, page, limit int) ([]domain.ServiceAction, int64, error) {
	query := db.WithContext(ctx).Model(&domain.ServiceAction{}).Where("status = ?", status)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if page < 1 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	var actions []domain.ServiceAction
	err := query.
		Order("updated_at desc").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&actions).Error
	if err != nil {
		return nil, 0, err
	}
	return actions, total, nil
}

func (r *gormRepository) ListByCustomerPhone(ctx context.Context, db *gorm.DB, phone string) ([]domain.ServiceAction, error) {
	var actions []domain.ServiceAction
	err := db.WithContext(ctx).
		Where("customer_phone = ?", phone).
		Order("created_at desc").
		Find(&actions).Error
	if err != nil {
		return nil, err
	}
	return actions, nil
}

func (r *gormRepository) CountByStatusAndKind(ctx context.Context, db *gorm.DB) (map[domain.Status]int64, map[domain.ActionKind]int64, error) {
	type statusCount struct {
		Status domain.Status
		Count  int64
	}
	var statusRows []statusCount
	err := db.WithContext(ctx).
		Model(&domain.ServiceAction{}).
		Select("status, count(*) as count").
		Group("status").
		Find(&statusRows).Error
	if err != nil {
		return nil, nil, err
	}

	type kindCount struct {
		ActionKind domain.ActionKind
		Count      int64
	}
	var kindRows []kindCount
	err = db.WithContext(ctx).
		Model(&domain.ServiceAction{}).
		Select("action_kind, count(*) as count").
		Group("action_kind").
		Find(&kindRows).Error
	if err != nil {
		return nil, nil, err
	}

	byStatus := make(map[domain.Status]int64, len(statusRows))
	for _, row := range statusRows {
		byStatus[row.Status] = row.Count
	}
	byKind := make(map[domain.ActionKind]int64, len(kindRows))
	for _, row := range kindRows {
		byKind[row.ActionKind] = row.Count
	}
	return byStatus, byKind, nil
}

func (r *gormRepository) CountIntegrated(ctx context.Context, db *gorm.DB) (int64, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&domain.ServiceAction{}).
		Where("is_integrated = ?", true).
		Count(&count).Error
	return count, err
}

func (r *gormRepository) CountPendingRefunds(ctx context.Context, db *gorm.DB) (int64, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&domain.ServiceAction{}).
		Where("action_kind = ? AND status = ? AND refund_processed_at IS NULL",
			domain.KindReturnFromCustomer, domain.StatusPendingReceive).
		Count(&count).Error
	return count, err
}

func (r *gormRepository) InsertItems(ctx context.Context, db *gorm.DB, items []domain.ServiceActionItem) error {
	if len(items) == 0 {
		return nil
	}
	return db.WithContext(ctx).Create(&items).Error
}

func (r *gormRepository) UpdateItem(ctx context.Context, db *gorm.DB, item *domain.ServiceActionItem) error {
	return db.WithContext(ctx).Save(item).Error
}

func (r *gormRepository) ItemsForAction(ctx context.Context, db *gorm.DB, actionID snowflake.ID) ([]domain.ServiceActionItem, error) {
	var items []domain.ServiceActionItem
	err := db.WithContext(ctx).
		Where("service_action_id = ?", actionID).
		Order("created_at asc").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *gormRepository) AppendHistory(ctx context.Context, db *gorm.DB, entry *domain.ServiceActionHistoryEntry) error {
	return db.WithContext(ctx).Create(entry).Error
}

func (r *gormRepository) HistoryForAction(ctx context.Context, db *gorm.DB, actionID snowflake.ID) ([]domain.ServiceActionHistoryEntry, error) {
	var entries []domain.ServiceActionHistoryEntry
	err := db.WithContext(ctx).
		Where("service_action_id = ?", actionID).
		Order("created_at asc").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
