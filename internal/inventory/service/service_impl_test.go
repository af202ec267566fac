package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/kariemSeiam/Hvar-Hub/internal/clock"
	"github.com/kariemSeiam/Hvar-Hub/internal/inventory/domain"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupInventoryService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&domain.Product{}, &domain.Part{}, &domain.StockMovement{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	svc := &Service{
		db:    db,
		log:   zap.NewNop(),
		genID: node,
		clock: clock.Fixed{T: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)},
	}
	return svc, db
}

func createTestProduct(t *testing.T, svc *Service, sku string, initial int) *domain.Product {
	t.Helper()
	product, err := svc.CreateProduct(context.Background(), domain.CreateProductRequest{
		SKU:          sku,
		NameAr:       "غسالة اختبار",
		NameEn:       "Test Washer",
		InitialStock: initial,
	})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	return product
}

func TestApplyMovementValidCredit(t *testing.T) {
	svc, _ := setupInventoryService(t)
	product := createTestProduct(t, svc, "WASH-01", 5)
	ref := domain.ItemRef{Type: domain.ItemTypeProduct, ID: product.ID}

	movement, err := svc.ApplyMovement(context.Background(), domain.MovementRequest{
		Item:           ref,
		QuantityChange: 3,
		Condition:      domain.ConditionValid,
		Kind:           domain.MovementReceive,
	})
	if err != nil {
		t.Fatalf("apply movement: %v", err)
	}
	if movement.QuantityChange != 3 {
		t.Fatalf("expected quantity change 3, got %d", movement.QuantityChange)
	}

	summary, err := svc.GetItem(context.Background(), ref)
	if err != nil {
		t.Fatalf("get item: %v", err)
	}
	if summary.TotalStock != 8 {
		t.Fatalf("expected total stock 8, got %d", summary.TotalStock)
	}
	if summary.DamagedStock != 0 {
		t.Fatalf("expected damaged stock 0, got %d", summary.DamagedStock)
	}
}

func TestApplyMovementRejectsNegativeTotal(t *testing.T) {
	svc, db := setupInventoryService(t)
	product := createTestProduct(t, svc, "WASH-02", 2)
	ref := domain.ItemRef{Type: domain.ItemTypeProduct, ID: product.ID}

	_, err := svc.ApplyMovement(context.Background(), domain.MovementRequest{
		Item:           ref,
		QuantityChange: -5,
		Condition:      domain.ConditionValid,
		Kind:           domain.MovementMaintenance,
	})
	if !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
	var stockErr *domain.InsufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("expected typed stock error, got %v", err)
	}
	if stockErr.Available != 2 || stockErr.Requested != 5 {
		t.Fatalf("unexpected stock error details: %+v", stockErr)
	}

	// Rejected movements must leave no ledger row.
	var count int64
	if err := db.Model(&domain.StockMovement{}).Where("quantity_change = ?", -5).Count(&count).Error; err != nil {
		t.Fatalf("count movements: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no movement recorded, got %d", count)
	}
}

func TestApplyMovementDamagedAdjustsBothCounters(t *testing.T) {
	svc, _ := setupInventoryService(t)
	product := createTestProduct(t, svc, "WASH-03", 5)
	ref := domain.ItemRef{Type: domain.ItemTypeProduct, ID: product.ID}

	_, err := svc.ApplyMovement(context.Background(), domain.MovementRequest{
		Item:           ref,
		QuantityChange: 2,
		Condition:      domain.ConditionDamaged,
		Kind:           domain.MovementReceive,
	})
	if err != nil {
		t.Fatalf("apply damaged credit: %v", err)
	}

	summary, err := svc.GetItem(context.Background(), ref)
	if err != nil {
		t.Fatalf("get item: %v", err)
	}
	if summary.TotalStock != 7 {
		t.Fatalf("expected total 7, got %d", summary.TotalStock)
	}
	if summary.DamagedStock != 2 {
		t.Fatalf("expected damaged 2, got %d", summary.DamagedStock)
	}
	if summary.AvailableStock != 5 {
		t.Fatalf("expected available 5, got %d", summary.AvailableStock)
	}
}

func TestApplyMovementDamagedCannotGoNegative(t *testing.T) {
	svc, _ := setupInventoryService(t)
	product := createTestProduct(t, svc, "WASH-04", 5)
	ref := domain.ItemRef{Type: domain.ItemTypeProduct, ID: product.ID}

	_, err := svc.ApplyMovement(context.Background(), domain.MovementRequest{
		Item:           ref,
		QuantityChange: -1,
		Condition:      domain.ConditionDamaged,
		Kind:           domain.MovementMaintenance,
	})
	if !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
}

func TestSendRejectsWhenOnlyDamagedRemains(t *testing.T) {
	svc, _ := setupInventoryService(t)
	product := createTestProduct(t, svc, "WASH-05", 0)
	ref := domain.ItemRef{Type: domain.ItemTypeProduct, ID: product.ID}

	// Receive three damaged units: total 3, damaged 3, available 0.
	_, err := svc.ApplyMovement(context.Background(), domain.MovementRequest{
		Item:           ref,
		QuantityChange: 3,
		Condition:      domain.ConditionDamaged,
		Kind:           domain.MovementReceive,
	})
	if err != nil {
		t.Fatalf("receive damaged: %v", err)
	}

	_, err = svc.ApplyMovement(context.Background(), domain.MovementRequest{
		Item:           ref,
		QuantityChange: -1,
		Condition:      domain.ConditionValid,
		Kind:           domain.MovementSend,
	})
	if !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("expected send to be rejected, got %v", err)
	}
}

func TestApplyManyRollsBackOnFailure(t *testing.T) {
	svc, db := setupInventoryService(t)
	first := createTestProduct(t, svc, "WASH-06", 10)
	second := createTestProduct(t, svc, "WASH-07", 1)

	_, err := svc.ApplyMany(context.Background(), []domain.MovementRequest{
		{
			Item:           domain.ItemRef{Type: domain.ItemTypeProduct, ID: first.ID},
			QuantityChange: -2,
			Condition:      domain.ConditionValid,
			Kind:           domain.MovementSend,
		},
		{
			Item:           domain.ItemRef{Type: domain.ItemTypeProduct, ID: second.ID},
			QuantityChange: -5,
			Condition:      domain.ConditionValid,
			Kind:           domain.MovementSend,
		},
	})
	if !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}

	// The first debit must have been rolled back with the failed batch.
	var reloaded domain.Product
	if err := db.First(&reloaded, "id = ?", first.ID).Error; err != nil {
		t.Fatalf("reload product: %v", err)
	}
	if reloaded.CurrentStock != 10 {
		t.Fatalf("expected stock 10 after rollback, got %d", reloaded.CurrentStock)
	}
}

func TestMovementLedgerIsAppendOnlyRecord(t *testing.T) {
	svc, _ := setupInventoryService(t)
	product := createTestProduct(t, svc, "WASH-08", 4)
	ref := domain.ItemRef{Type: domain.ItemTypeProduct, ID: product.ID}

	deltas := []int{3, -2, 1}
	for _, delta := range deltas {
		kind := domain.MovementReceive
		if delta < 0 {
			kind = domain.MovementMaintenance
		}
		if _, err := svc.ApplyMovement(context.Background(), domain.MovementRequest{
			Item:           ref,
			QuantityChange: delta,
			Condition:      domain.ConditionValid,
			Kind:           kind,
		}); err != nil {
			t.Fatalf("apply movement %d: %v", delta, err)
		}
	}

	movements, err := svc.ListMovements(context.Background(), ref, 50)
	if err != nil {
		t.Fatalf("list movements: %v", err)
	}
	// Initial stock movement plus the three applied above.
	if len(movements) != 4 {
		t.Fatalf("expected 4 movements, got %d", len(movements))
	}

	// Replaying the ledger must reproduce the current counter.
	sum := 0
	for _, movement := range movements {
		sum += movement.QuantityChange
	}
	summary, err := svc.GetItem(context.Background(), ref)
	if err != nil {
		t.Fatalf("get item: %v", err)
	}
	if sum != summary.TotalStock {
		t.Fatalf("ledger sum %d does not match counter %d", sum, summary.TotalStock)
	}
}

func TestCreateProductRejectsDuplicateSKU(t *testing.T) {
	svc, _ := setupInventoryService(t)
	createTestProduct(t, svc, "WASH-09", 1)

	_, err := svc.CreateProduct(context.Background(), domain.CreateProductRequest{
		SKU:    "WASH-09",
		NameAr: "غسالة مكررة",
	})
	if !errors.Is(err, domain.ErrDuplicateSKU) {
		t.Fatalf("expected duplicate sku, got %v", err)
	}
}

func TestUpdateProductChangesOnlyProvidedFields(t *testing.T) {
	svc, _ := setupInventoryService(t)
	product := createTestProduct(t, svc, "WASH-12", 5)

	nameAr := "غسالة محدثة"
	alert := 20
	updated, err := svc.UpdateProduct(context.Background(), product.ID, domain.UpdateProductRequest{
		NameAr:        &nameAr,
		AlertQuantity: &alert,
	})
	if err != nil {
		t.Fatalf("update product: %v", err)
	}
	if updated.NameAr != nameAr {
		t.Fatalf("expected updated arabic name, got %q", updated.NameAr)
	}
	if updated.AlertQuantity != 20 {
		t.Fatalf("expected alert quantity 20, got %d", updated.AlertQuantity)
	}
	if updated.SKU != "WASH-12" {
		t.Fatalf("expected sku untouched, got %q", updated.SKU)
	}
	if updated.CurrentStock != 5 {
		t.Fatalf("expected stock untouched, got %d", updated.CurrentStock)
	}
}

func TestUpdateProductRejectsTakenSKU(t *testing.T) {
	svc, _ := setupInventoryService(t)
	createTestProduct(t, svc, "WASH-13", 1)
	second := createTestProduct(t, svc, "WASH-14", 1)

	taken := "WASH-13"
	_, err := svc.UpdateProduct(context.Background(), second.ID, domain.UpdateProductRequest{SKU: &taken})
	if !errors.Is(err, domain.ErrDuplicateSKU) {
		t.Fatalf("expected duplicate sku, got %v", err)
	}
}

func TestDeleteProductGuardedByStockAndParts(t *testing.T) {
	svc, db := setupInventoryService(t)
	product := createTestProduct(t, svc, "WASH-15", 2)

	if err := svc.DeleteProduct(context.Background(), product.ID); !errors.Is(err, domain.ErrItemInUse) {
		t.Fatalf("expected item in use for stocked product, got %v", err)
	}

	// Drain the stock, then attach a part; the reference must still block.
	if _, err := svc.ApplyMovement(context.Background(), domain.MovementRequest{
		Item:           domain.ItemRef{Type: domain.ItemTypeProduct, ID: product.ID},
		QuantityChange: -2,
		Condition:      domain.ConditionValid,
		Kind:           domain.MovementSend,
	}); err != nil {
		t.Fatalf("drain stock: %v", err)
	}
	part, err := svc.CreatePart(context.Background(), domain.CreatePartRequest{
		SKU:       "PART-15",
		NameAr:    "موتور اختبار",
		ProductID: &product.ID,
	})
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if err := svc.DeleteProduct(context.Background(), product.ID); !errors.Is(err, domain.ErrItemInUse) {
		t.Fatalf("expected item in use for referenced product, got %v", err)
	}

	if err := svc.DeletePart(context.Background(), part.ID); err != nil {
		t.Fatalf("delete part: %v", err)
	}
	if err := svc.DeleteProduct(context.Background(), product.ID); err != nil {
		t.Fatalf("delete product: %v", err)
	}

	var count int64
	if err := db.Model(&domain.Product{}).Where("id = ?", product.ID).Count(&count).Error; err != nil {
		t.Fatalf("count products: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected product removed, got %d rows", count)
	}

	// The movement ledger survives the catalog delete.
	var movements int64
	if err := db.Model(&domain.StockMovement{}).Where("item_id = ?", product.ID).Count(&movements).Error; err != nil {
		t.Fatalf("count movements: %v", err)
	}
	if movements != 2 {
		t.Fatalf("expected 2 ledger rows kept, got %d", movements)
	}
}

func TestDeletePartRejectsStockOnHand(t *testing.T) {
	svc, _ := setupInventoryService(t)
	part, err := svc.CreatePart(context.Background(), domain.CreatePartRequest{
		SKU:          "PART-16",
		NameAr:       "لوحة تحكم",
		InitialStock: 1,
	})
	if err != nil {
		t.Fatalf("create part: %v", err)
	}

	if err := svc.DeletePart(context.Background(), part.ID); !errors.Is(err, domain.ErrItemInUse) {
		t.Fatalf("expected item in use, got %v", err)
	}
}

func TestUpdatePartRejectsUnknownParent(t *testing.T) {
	svc, _ := setupInventoryService(t)
	part, err := svc.CreatePart(context.Background(), domain.CreatePartRequest{
		SKU:    "PART-17",
		NameAr: "خرطوم صرف",
	})
	if err != nil {
		t.Fatalf("create part: %v", err)
	}

	missing := snowflake.ID(424242)
	_, err = svc.UpdatePart(context.Background(), part.ID, domain.UpdatePartRequest{ProductID: &missing})
	if !errors.Is(err, domain.ErrItemNotFound) {
		t.Fatalf("expected item not found, got %v", err)
	}
}

func TestStockOverviewFlagsLowStock(t *testing.T) {
	svc, _ := setupInventoryService(t)
	createTestProduct(t, svc, "WASH-10", 50)
	low := createTestProduct(t, svc, "WASH-11", 3)

	overview, err := svc.StockOverview(context.Background())
	if err != nil {
		t.Fatalf("stock overview: %v", err)
	}
	if overview.TotalProducts != 2 {
		t.Fatalf("expected 2 products, got %d", overview.TotalProducts)
	}
	if len(overview.LowStockItems) != 1 {
		t.Fatalf("expected 1 low stock item, got %d", len(overview.LowStockItems))
	}
	if overview.LowStockItems[0].Ref.ID != low.ID {
		t.Fatalf("expected low stock item %d, got %d", low.ID, overview.LowStockItems[0].Ref.ID)
	}
}
