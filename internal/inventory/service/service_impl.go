package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/kariemSeiam/Hvar-Hub/internal/auditcontext"
	"github.com/kariemSeiam/Hvar-Hub/internal/clock"
	"github.com/kariemSeiam/Hvar-Hub/internal/inventory/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
}

func NewService(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("inventory.service"),
		genID: p.GenID,
		clock: p.Clock,
	}
}

func (s *Service) CreateProduct(ctx context.Context, req domain.CreateProductRequest) (*domain.Product, error) {
	if err := validateCatalogFields(req.SKU, req.NameAr, req.InitialStock); err != nil {
		return nil, err
	}
	now := s.clock.Now()
	product := &domain.Product{
		ID:            s.genID.Generate(),
		SKU:           strings.TrimSpace(req.SKU),
		NameAr:        strings.TrimSpace(req.NameAr),
		NameEn:        strings.TrimSpace(req.NameEn),
		Category:      strings.TrimSpace(req.Category),
		CurrentStock:  req.InitialStock,
		AlertQuantity: alertQuantityOrDefault(req.AlertQuantity),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&domain.Product{}).Where("sku = ?", product.SKU).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return domain.ErrDuplicateSKU
		}
		if err := tx.Create(product).Error; err != nil {
			return err
		}
		if req.InitialStock > 0 {
			return s.recordMovement(tx, domain.MovementRequest{
				Item:           domain.ItemRef{Type: domain.ItemTypeProduct, ID: product.ID},
				QuantityChange: req.InitialStock,
				Condition:      domain.ConditionValid,
				Kind:           domain.MovementReceive,
				Notes:          "initial stock",
				Actor:          auditcontext.Actor(ctx, req.Actor),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("product created", zap.String("sku", product.SKU), zap.Int64("id", int64(product.ID)))
	return product, nil
}

func (s *Service) CreatePart(ctx context.Context, req domain.CreatePartRequest) (*domain.Part, error) {
	if err := validateCatalogFields(req.SKU, req.NameAr, req.InitialStock); err != nil {
		return nil, err
	}
	now := s.clock.Now()
	part := &domain.Part{
		ID:            s.genID.Generate(),
		SKU:           strings.TrimSpace(req.SKU),
		NameAr:        strings.TrimSpace(req.NameAr),
		NameEn:        strings.TrimSpace(req.NameEn),
		PartType:      strings.TrimSpace(req.PartType),
		ProductID:     req.ProductID,
		CurrentStock:  req.InitialStock,
		AlertQuantity: alertQuantityOrDefault(req.AlertQuantity),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&domain.Part{}).Where("sku = ?", part.SKU).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return domain.ErrDuplicateSKU
		}
		if part.ProductID != nil {
			var parentCount int64
			if err := tx.Model(&domain.Product{}).Where("id = ?", *part.ProductID).Count(&parentCount).Error; err != nil {
				return err
			}
			if parentCount == 0 {
				return domain.ErrItemNotFound
			}
		}
		if err := tx.Create(part).Error; err != nil {
			return err
		}
		if req.InitialStock > 0 {
			return s.recordMovement(tx, domain.MovementRequest{
				Item:           domain.ItemRef{Type: domain.ItemTypePart, ID: part.ID},
				QuantityChange: req.InitialStock,
				Condition:      domain.ConditionValid,
				Kind:           domain.MovementReceive,
				Notes:          "initial stock",
				Actor:          auditcontext.Actor(ctx, req.Actor),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("part created", zap.String("sku", part.SKU), zap.Int64("id", int64(part.ID)))
	return part, nil
}

func (s *Service) UpdateProduct(ctx context.Context, id snowflake.ID, req domain.UpdateProductRequest) (*domain.Product, error) {
	var product domain.Product
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&product, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrItemNotFound
			}
			return err
		}
		if req.SKU != nil {
			sku := strings.TrimSpace(*req.SKU)
			if sku == "" {
				return fmt.Errorf("%w: sku is required", domain.ErrInvalidMovement)
			}
			if sku != product.SKU {
				var count int64
				if err := tx.Model(&domain.Product{}).Where("sku = ? AND id <> ?", sku, id).Count(&count).Error; err != nil {
					return err
				}
				if count > 0 {
					return domain.ErrDuplicateSKU
				}
			}
			product.SKU = sku
		}
		if req.NameAr != nil {
			nameAr := strings.TrimSpace(*req.NameAr)
			if nameAr == "" {
				return fmt.Errorf("%w: arabic name is required", domain.ErrInvalidMovement)
			}
			product.NameAr = nameAr
		}
		if req.NameEn != nil {
			product.NameEn = strings.TrimSpace(*req.NameEn)
		}
		if req.Category != nil {
			product.Category = strings.TrimSpace(*req.Category)
		}
		if req.AlertQuantity != nil {
			product.AlertQuantity = alertQuantityOrDefault(*req.AlertQuantity)
		}
		product.UpdatedAt = s.clock.Now()
		return tx.Save(&product).Error
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("product updated", zap.String("sku", product.SKU), zap.Int64("id", int64(product.ID)))
	return &product, nil
}

func (s *Service) UpdatePart(ctx context.Context, id snowflake.ID, req domain.UpdatePartRequest) (*domain.Part, error) {
	var part domain.Part
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&part, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrItemNotFound
			}
			return err
		}
		if req.SKU != nil {
			sku := strings.TrimSpace(*req.SKU)
			if sku == "" {
				return fmt.Errorf("%w: sku is required", domain.ErrInvalidMovement)
			}
			if sku != part.SKU {
				var count int64
				if err := tx.Model(&domain.Part{}).Where("sku = ? AND id <> ?", sku, id).Count(&count).Error; err != nil {
					return err
				}
				if count > 0 {
					return domain.ErrDuplicateSKU
				}
			}
			part.SKU = sku
		}
		if req.NameAr != nil {
			nameAr := strings.TrimSpace(*req.NameAr)
			if nameAr == "" {
				return fmt.Errorf("%w: arabic name is required", domain.ErrInvalidMovement)
			}
			part.NameAr = nameAr
		}
		if req.NameEn != nil {
			part.NameEn = strings.TrimSpace(*req.NameEn)
		}
		if req.PartType != nil {
			part.PartType = strings.TrimSpace(*req.PartType)
		}
		if req.ProductID != nil {
			var parentCount int64
			if err := tx.Model(&domain.Product{}).Where("id = ?", *req.ProductID).Count(&parentCount).Error; err != nil {
				return err
			}
			if parentCount == 0 {
				return domain.ErrItemNotFound
			}
			part.ProductID = req.ProductID
		}
		if req.AlertQuantity != nil {
			part.AlertQuantity = alertQuantityOrDefault(*req.AlertQuantity)
		}
		part.UpdatedAt = s.clock.Now()
		return tx.Save(&part).Error
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("part updated", zap.String("sku", part.SKU), zap.Int64("id", int64(part.ID)))
	return &part, nil
}

// DeleteProduct removes a catalog entry. Products with units still on hand
// or with parts attached stay; the movement ledger is never touched.
func (s *Service) DeleteProduct(ctx context.Context, id snowflake.ID) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var product domain.Product
		if err := tx.First(&product, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrItemNotFound
			}
			return err
		}
		if product.CurrentStock != 0 {
			return fmt.Errorf("%w: product still has stock on hand", domain.ErrItemInUse)
		}
		var partCount int64
		if err := tx.Model(&domain.Part{}).Where("product_id = ?", id).Count(&partCount).Error; err != nil {
			return err
		}
		if partCount > 0 {
			return fmt.Errorf("%w: parts still reference this product", domain.ErrItemInUse)
		}
		return tx.Delete(&domain.Product{}, "id = ?", id).Error
	})
	if err != nil {
		return err
	}
	s.log.Info("product deleted", zap.Int64("id", int64(id)))
	return nil
}

// DeletePart removes a catalog entry unless units remain on hand.
func (s *Service) DeletePart(ctx context.Context, id snowflake.ID) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var part domain.Part
		if err := tx.First(&part, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrItemNotFound
			}
			return err
		}
		if part.CurrentStock != 0 {
			return fmt.Errorf("%w: part still has stock on hand", domain.ErrItemInUse)
		}
		return tx.Delete(&domain.Part{}, "id = ?", id).Error
	})
	if err != nil {
		return err
	}
	s.log.Info("part deleted", zap.Int64("id", int64(id)))
	return nil
}

func (s *Service) GetItem(ctx context.Context, ref domain.ItemRef) (*domain.ItemSummary, error) {
	switch ref.Type {
	case domain.ItemTypeProduct:
		var product domain.Product
		if err := s.db.WithContext(ctx).First(&product, "id = ?", ref.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, domain.ErrItemNotFound
			}
			return nil, err
		}
		summary := productSummary(product)
		return &summary, nil
	case domain.ItemTypePart:
		var part domain.Part
		if err := s.db.WithContext(ctx).First(&part, "id = ?", ref.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, domain.ErrItemNotFound
			}
			return nil, err
		}
		summary := partSummary(part)
		return &summary, nil
	default:
		return nil, domain.ErrInvalidItemType
	}
}

func (s *Service) ListProducts(ctx context.Context) ([]domain.Product, error) {
	var products []domain.Product
	if err := s.db.WithContext(ctx).Order("name_ar asc").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (s *Service) ListParts(ctx context.Context) ([]domain.Part, error) {
	var parts []domain.Part
	if err := s.db.WithContext(ctx).Order("name_ar asc").Find(&parts).Error; err != nil {
		return nil, err
	}
	return parts, nil
}

func (s *Service) ApplyMovement(ctx context.Context, req domain.MovementRequest) (*domain.StockMovement, error) {
	var movement *domain.StockMovement
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		movement, err = s.ApplyMovementTx(ctx, tx, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	return movement, nil
}

func (s *Service) ApplyMovementTx(ctx context.Context, tx *gorm.DB, req domain.MovementRequest) (*domain.StockMovement, error) {
	if err := validateMovement(req); err != nil {
		return nil, err
	}
	req.Actor = auditcontext.Actor(ctx, req.Actor)

	total, damaged, err := s.lockItemCounters(ctx, tx, req.Item)
	if err != nil {
		return nil, err
	}

	newTotal := total + req.QuantityChange
	newDamaged := damaged
	switch req.Condition {
	case domain.ConditionValid:
		if newTotal < 0 {
			return nil, &domain.InsufficientStockError{
				Item:      req.Item,
				Condition: domain.ConditionValid,
				Available: total,
				Requested: -req.QuantityChange,
			}
		}
		// Outbound shipments can only draw on undamaged units.
		if req.Kind == domain.MovementSend && req.QuantityChange < 0 {
			available := total - damaged
			if -req.QuantityChange > available {
				return nil, &domain.InsufficientStockError{
					Item:      req.Item,
					Condition: domain.ConditionValid,
					Available: available,
					Requested: -req.QuantityChange,
				}
			}
		}
	case domain.ConditionDamaged:
		newDamaged = damaged + req.QuantityChange
		if newDamaged < 0 {
			return nil, &domain.InsufficientStockError{
				Item:      req.Item,
				Condition: domain.ConditionDamaged,
				Available: damaged,
				Requested: -req.QuantityChange,
			}
		}
		if newTotal < 0 {
			return nil, &domain.InsufficientStockError{
				Item:      req.Item,
				Condition: domain.ConditionDamaged,
				Available: total,
				Requested: -req.QuantityChange,
			}
		}
		if newDamaged > newTotal {
			return nil, fmt.Errorf("%w: damaged stock cannot exceed total stock", domain.ErrInvalidMovement)
		}
	}

	if err := s.updateItemCounters(ctx, tx, req.Item, newTotal, newDamaged); err != nil {
		return nil, err
	}

	movement := &domain.StockMovement{
		ID:              s.genID.Generate(),
		ItemType:        req.Item.Type,
		ItemID:          req.Item.ID,
		QuantityChange:  req.QuantityChange,
		Condition:       req.Condition,
		MovementKind:    req.Kind,
		OrderID:         req.OrderID,
		ServiceActionID: req.ServiceActionID,
		Notes:           req.Notes,
		Actor:           req.Actor,
		CreatedAt:       s.clock.Now(),
	}
	if err := tx.WithContext(ctx).Create(movement).Error; err != nil {
		return nil, err
	}
	return movement, nil
}

func (s *Service) ApplyMany(ctx context.Context, reqs []domain.MovementRequest) ([]domain.StockMovement, error) {
	var movements []domain.StockMovement
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		movements, err = s.ApplyManyTx(ctx, tx, reqs)
		return err
	})
	if err != nil {
		return nil, err
	}
	return movements, nil
}

func (s *Service) ApplyManyTx(ctx context.Context, tx *gorm.DB, reqs []domain.MovementRequest) ([]domain.StockMovement, error) {
	if len(reqs) == 0 {
		return nil, domain.ErrInvalidMovement
	}
	movements := make([]domain.StockMovement, 0, len(reqs))
	for _, req := range reqs {
		movement, err := s.ApplyMovementTx(ctx, tx, req)
		if err != nil {
			return nil, err
		}
		movements = append(movements, *movement)
	}
	return movements, nil
}

func (s *Service) ListMovements(ctx context.Context, ref domain.ItemRef, limit int) ([]domain.StockMovement, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var movements []domain.StockMovement
	err := s.db.WithContext(ctx).
		Where("item_type = ? AND item_id = ?", ref.Type, ref.ID).
		Order("created_at desc").
		Limit(limit).
		Find(&movements).Error
	if err != nil {
		return nil, err
	}
	return movements, nil
}

func (s *Service) StockOverview(ctx context.Context) (*domain.Overview, error) {
	var products []domain.Product
	if err := s.db.WithContext(ctx).Find(&products).Error; err != nil {
		return nil, err
	}
	var parts []domain.Part
	if err := s.db.WithContext(ctx).Find(&parts).Error; err != nil {
		return nil, err
	}

	overview := &domain.Overview{
		TotalProducts: len(products),
		TotalParts:    len(parts),
		LowStockItems: []domain.ItemSummary{},
	}
	for _, product := range products {
		overview.TotalValidStock += product.CurrentStock - product.CurrentStockDamaged
		overview.TotalDamagedStock += product.CurrentStockDamaged
		if summary := productSummary(product); summary.LowStock {
			overview.LowStockItems = append(overview.LowStockItems, summary)
		}
	}
	for _, part := range parts {
		overview.TotalValidStock += part.CurrentStock - part.CurrentStockDamaged
		overview.TotalDamagedStock += part.CurrentStockDamaged
		if summary := partSummary(part); summary.LowStock {
			overview.LowStockItems = append(overview.LowStockItems, summary)
		}
	}

	if err := s.db.WithContext(ctx).
		Order("created_at desc").
		Limit(10).
		Find(&overview.RecentMovements).Error; err != nil {
		return nil, err
	}
	return overview, nil
}

func (s *Service) lockItemCounters(ctx context.Context, tx *gorm.DB, ref domain.ItemRef) (total, damaged int, err error) {
	query := tx.WithContext(ctx)
	if tx.Dialector.Name() == "postgres" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	switch ref.Type {
	case domain.ItemTypeProduct:
		var product domain.Product
		if err := query.First(&product, "id = ?", ref.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return 0, 0, domain.ErrItemNotFound
			}
			return 0, 0, err
		}
		return product.CurrentStock, product.CurrentStockDamaged, nil
	case domain.ItemTypePart:
		var part domain.Part
		if err := query.First(&part, "id = ?", ref.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return 0, 0, domain.ErrItemNotFound
			}
			return 0, 0, err
		}
		return part.CurrentStock, part.CurrentStockDamaged, nil
	default:
		return 0, 0, domain.ErrInvalidItemType
	}
}

func (s *Service) updateItemCounters(ctx context.Context, tx *gorm.DB, ref domain.ItemRef, total, damaged int) error {
	updates := map[string]any{
		"current_stock":         total,
		"current_stock_damaged": damaged,
		"updated_at":            s.clock.Now(),
	}
	switch ref.Type {
	case domain.ItemTypeProduct:
		return tx.WithContext(ctx).Model(&domain.Product{}).Where("id = ?", ref.ID).Updates(updates).Error
	case domain.ItemTypePart:
		return tx.WithContext(ctx).Model(&domain.Part{}).Where("id = ?", ref.ID).Updates(updates).Error
	default:
		return domain.ErrInvalidItemType
	}
}

func (s *Service) recordMovement(tx *gorm.DB, req domain.MovementRequest) error {
	movement := &domain.StockMovement{
		ID:             s.genID.Generate(),
		ItemType:       req.Item.Type,
		ItemID:         req.Item.ID,
		QuantityChange: req.QuantityChange,
		Condition:      req.Condition,
		MovementKind:   req.Kind,
		Notes:          req.Notes,
		Actor:          req.Actor,
		CreatedAt:      s.clock.Now(),
	}
	return tx.Create(movement).Error
}

func validateMovement(req domain.MovementRequest) error {
	if req.QuantityChange == 0 {
		return fmt.Errorf("%w: quantity change must be non-zero", domain.ErrInvalidMovement)
	}
	switch req.Condition {
	case domain.ConditionValid, domain.ConditionDamaged:
	default:
		return domain.ErrInvalidCondition
	}
	switch req.Kind {
	case domain.MovementMaintenance, domain.MovementSend, domain.MovementReceive:
	default:
		return fmt.Errorf("%w: unknown movement kind %q", domain.ErrInvalidMovement, req.Kind)
	}
	switch req.Item.Type {
	case domain.ItemTypeProduct, domain.ItemTypePart:
	default:
		return domain.ErrInvalidItemType
	}
	return nil
}

func validateCatalogFields(sku, nameAr string, initialStock int) error {
	if strings.TrimSpace(sku) == "" {
		return fmt.Errorf("%w: sku is required", domain.ErrInvalidMovement)
	}
	if strings.TrimSpace(nameAr) == "" {
		return fmt.Errorf("%w: arabic name is required", domain.ErrInvalidMovement)
	}
	if initialStock < 0 {
		return fmt.Errorf("%w: initial stock cannot be negative", domain.ErrInvalidMovement)
	}
	return nil
}

func alertQuantityOrDefault(value int) int {
	if value <= 0 {
		return 10
	}
	return value
}

func productSummary(product domain.Product) domain.ItemSummary {
	available := product.CurrentStock - product.CurrentStockDamaged
	return domain.ItemSummary{
		Ref:            domain.ItemRef{Type: domain.ItemTypeProduct, ID: product.ID},
		SKU:            product.SKU,
		NameAr:         product.NameAr,
		NameEn:         product.NameEn,
		TotalStock:     product.CurrentStock,
		DamagedStock:   product.CurrentStockDamaged,
		AvailableStock: available,
		AlertQuantity:  product.AlertQuantity,
		LowStock:       available <= product.AlertQuantity,
	}
}

func partSummary(part domain.Part) domain.ItemSummary {
	available := part.CurrentStock - part.CurrentStockDamaged
	return domain.ItemSummary{
		Ref:            domain.ItemRef{Type: domain.ItemTypePart, ID: part.ID},
		SKU:            part.SKU,
		NameAr:         part.NameAr,
		NameEn:         part.NameEn,
		TotalStock:     part.CurrentStock,
		DamagedStock:   part.CurrentStockDamaged,
		AvailableStock: available,
		AlertQuantity:  part.AlertQuantity,
		LowStock:       available <= part.AlertQuantity,
	}
}
