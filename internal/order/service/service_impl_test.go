package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/kariemSeiam/Hvar-Hub/internal/clock"
	"github.com/kariemSeiam/Hvar-Hub/internal/order/domain"
	"github.com/kariemSeiam/Hvar-Hub/internal/order/repository"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupOrderService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&domain.Order{}, &domain.MaintenanceHistoryEntry{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	node, err := snowflake.NewNode(2)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	svc := &Service{
		db:    db,
		log:   zap.NewNop(),
		genID: node,
		clock: clock.Fixed{T: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)},
		repo:  repository.Provide(),
	}
	return svc, db
}

func createTestOrder(t *testing.T, svc *Service, tracking string) *domain.Order {
	t.Helper()
	order, err := svc.Create(context.Background(), domain.CreateOrderRequest{
		TrackingNumber: tracking,
		CustomerName:   "أحمد محمد",
		CustomerPhone:  "+201012345678",
		CODAmount:      250,
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	return order
}

func advanceOrder(t *testing.T, svc *Service, orderID snowflake.ID, actions ...domain.MaintenanceAction) *domain.Order {
	t.Helper()
	var order *domain.Order
	var err error
	for _, action := range actions {
		order, err = svc.Apply(context.Background(), orderID, action, domain.ActionPayload{}, "tester")
		if err != nil {
			t.Fatalf("apply %s: %v", action, err)
		}
	}
	return order
}

func TestCreateOrderStartsReceivedWithHistory(t *testing.T) {
	svc, _ := setupOrderService(t)
	order := createTestOrder(t, svc, "TRK-1001")

	if order.Status != domain.StatusReceived {
		t.Fatalf("expected status received, got %s", order.Status)
	}
	if order.ReceivedAt == nil {
		t.Fatal("expected received timestamp to be set")
	}

	history, err := svc.History(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("expected 1 history entry, got %d", len(history))
	}
	if history[0].Action != domain.ActionReceived {
		t.Fatalf("expected received entry, got %s", history[0].Action)
	}
}

func TestCreateOrderRejectsDuplicateTracking(t *testing.T) {
	svc, _ := setupOrderService(t)
	createTestOrder(t, svc, "TRK-1002")

	_, err := svc.Create(context.Background(), domain.CreateOrderRequest{TrackingNumber: "TRK-1002"})
	if !errors.Is(err, domain.ErrDuplicateTracking) {
		t.Fatalf("expected duplicate tracking, got %v", err)
	}
}

func TestFullRepairLifecycle(t *testing.T) {
	svc, _ := setupOrderService(t)
	order := createTestOrder(t, svc, "TRK-1003")

	order = advanceOrder(t, svc, order.ID,
		domain.ActionStartMaintenance,
		domain.ActionCompleteMaintenance,
	)
	if order.Status != domain.StatusCompleted {
		t.Fatalf("expected completed, got %s", order.Status)
	}
	if order.MaintenanceStartedAt == nil || order.CompletedAt == nil {
		t.Fatal("expected stage timestamps to be set")
	}

	cod := 150.0
	order, err := svc.Apply(context.Background(), order.ID, domain.ActionSendOrder, domain.ActionPayload{
		NewTrackingNumber: "TRK-1003-R",
		NewCODAmount:      &cod,
	}, "tester")
	if err != nil {
		t.Fatalf("send order: %v", err)
	}
	if order.Status != domain.StatusSending {
		t.Fatalf("expected sending, got %s", order.Status)
	}
	if order.NewTrackingNumber != "TRK-1003-R" {
		t.Fatalf("expected follow-up tracking set, got %q", order.NewTrackingNumber)
	}
	if order.NewCODAmount == nil || *order.NewCODAmount != 150 {
		t.Fatalf("expected new cod 150, got %v", order.NewCODAmount)
	}
}

func TestRefundOrReplaceThenNoRestart(t *testing.T) {
	svc, _ := setupOrderService(t)
	order := createTestOrder(t, svc, "TRK-1004")
	advanceOrder(t, svc, order.ID, domain.ActionStartMaintenance, domain.ActionFailMaintenance)

	updated, err := svc.Apply(context.Background(), order.ID, domain.ActionRefundOrReplace, domain.ActionPayload{}, "tester")
	if err != nil {
		t.Fatalf("refund or replace: %v", err)
	}
	if updated.Status != domain.StatusCompleted {
		t.Fatalf("expected completed, got %s", updated.Status)
	}
	if !updated.IsRefundOrReplace {
		t.Fatal("expected refund-or-replace flag set")
	}

	_, err = svc.Apply(context.Background(), order.ID, domain.ActionStartMaintenance, domain.ActionPayload{}, "tester")
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected transition error, got %v", err)
	}
}

func TestRejectedTransitionHasNoSideEffects(t *testing.T) {
	svc, db := setupOrderService(t)
	order := createTestOrder(t, svc, "TRK-1005")
	advanceOrder(t, svc, order.ID,
		domain.ActionStartMaintenance,
		domain.ActionCompleteMaintenance,
		domain.ActionSendOrder,
	)

	_, err := svc.Apply(context.Background(), order.ID, domain.ActionStartMaintenance, domain.ActionPayload{}, "tester")
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected transition error, got %v", err)
	}
	var transitionErr *domain.TransitionError
	if !errors.As(err, &transitionErr) {
		t.Fatalf("expected typed transition error, got %v", err)
	}

	var reloaded domain.Order
	if err := db.First(&reloaded, "id = ?", order.ID).Error; err != nil {
		t.Fatalf("reload order: %v", err)
	}
	if reloaded.Status != domain.StatusSending {
		t.Fatalf("expected status unchanged, got %s", reloaded.Status)
	}

	var historyCount int64
	if err := db.Model(&domain.MaintenanceHistoryEntry{}).Where("order_id = ?", order.ID).Count(&historyCount).Error; err != nil {
		t.Fatalf("count history: %v", err)
	}
	// received + 3 successful actions, nothing for the rejected one.
	if historyCount != 4 {
		t.Fatalf("expected 4 history entries, got %d", historyCount)
	}
}

func TestReturnActionsRequireCondition(t *testing.T) {
	svc, _ := setupOrderService(t)
	order := createTestOrder(t, svc, "TRK-1006")

	_, err := svc.Apply(context.Background(), order.ID, domain.ActionReturnOrder, domain.ActionPayload{}, "tester")
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	condition := domain.ReturnConditionDamaged
	updated, err := svc.Apply(context.Background(), order.ID, domain.ActionReturnOrder, domain.ActionPayload{
		ReturnCondition: &condition,
	}, "tester")
	if err != nil {
		t.Fatalf("return order: %v", err)
	}
	if updated.Status != domain.StatusReturned {
		t.Fatalf("expected returned, got %s", updated.Status)
	}
	if updated.ReturnCondition == nil || *updated.ReturnCondition != domain.ReturnConditionDamaged {
		t.Fatalf("expected damaged classification, got %v", updated.ReturnCondition)
	}
}

func TestReturnConditionUnsetUntilReturned(t *testing.T) {
	svc, _ := setupOrderService(t)
	order := createTestOrder(t, svc, "TRK-1007")
	order = advanceOrder(t, svc, order.ID, domain.ActionStartMaintenance)

	if order.ReturnCondition != nil {
		t.Fatalf("expected no return condition before return, got %v", order.ReturnCondition)
	}

	condition := domain.ReturnConditionValid
	_, err := svc.Apply(context.Background(), order.ID, domain.ActionSetReturnCondition, domain.ActionPayload{
		ReturnCondition: &condition,
	}, "tester")
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected transition error outside returned, got %v", err)
	}
}

func TestSetReturnConditionKeepsStatus(t *testing.T) {
	svc, _ := setupOrderService(t)
	order := createTestOrder(t, svc, "TRK-1008")

	condition := domain.ReturnConditionValid
	advance, err := svc.Apply(context.Background(), order.ID, domain.ActionMoveToReturns, domain.ActionPayload{
		ReturnCondition: &condition,
	}, "tester")
	if err != nil {
		t.Fatalf("move to returns: %v", err)
	}

	damaged := domain.ReturnConditionDamaged
	updated, err := svc.Apply(context.Background(), advance.ID, domain.ActionSetReturnCondition, domain.ActionPayload{
		ReturnCondition: &damaged,
	}, "tester")
	if err != nil {
		t.Fatalf("set return condition: %v", err)
	}
	if updated.Status != domain.StatusReturned {
		t.Fatalf("expected status to stay returned, got %s", updated.Status)
	}
	if updated.ReturnCondition == nil || *updated.ReturnCondition != domain.ReturnConditionDamaged {
		t.Fatalf("expected reclassified damaged, got %v", updated.ReturnCondition)
	}
}

func TestListReturnedTreatsUnclassifiedAsValid(t *testing.T) {
	svc, db := setupOrderService(t)
	first := createTestOrder(t, svc, "TRK-1009")
	second := createTestOrder(t, svc, "TRK-1010")

	valid := domain.ReturnConditionValid
	damaged := domain.ReturnConditionDamaged
	if _, err := svc.Apply(context.Background(), first.ID, domain.ActionMoveToReturns, domain.ActionPayload{ReturnCondition: &valid}, "t"); err != nil {
		t.Fatalf("return first: %v", err)
	}
	if _, err := svc.Apply(context.Background(), second.ID, domain.ActionMoveToReturns, domain.ActionPayload{ReturnCondition: &damaged}, "t"); err != nil {
		t.Fatalf("return second: %v", err)
	}
	// Simulate a legacy row returned before classification existed.
	if err := db.Model(&domain.Order{}).Where("id = ?", first.ID).Update("return_condition", nil).Error; err != nil {
		t.Fatalf("clear condition: %v", err)
	}

	orders, total, err := svc.ListByStatus(context.Background(), domain.ListRequest{
		Status:          domain.StatusReturned,
		ReturnCondition: &valid,
	})
	if err != nil {
		t.Fatalf("list returned: %v", err)
	}
	if total != 1 || len(orders) != 1 {
		t.Fatalf("expected 1 valid return, got total=%d len=%d", total, len(orders))
	}
	if orders[0].ID != first.ID {
		t.Fatalf("expected unclassified order listed as valid")
	}
}

func TestDeleteOrderAndHistory(t *testing.T) {
	svc, db := setupOrderService(t)
	order := createTestOrder(t, svc, "TRK-1011")
	advanceOrder(t, svc, order.ID, domain.ActionStartMaintenance)

	if err := svc.DeleteOrderAndHistory(context.Background(), order.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	var orderCount, historyCount int64
	if err := db.Model(&domain.Order{}).Where("id = ?", order.ID).Count(&orderCount).Error; err != nil {
		t.Fatalf("count orders: %v", err)
	}
	if err := db.Model(&domain.MaintenanceHistoryEntry{}).Where("order_id = ?", order.ID).Count(&historyCount).Error; err != nil {
		t.Fatalf("count history: %v", err)
	}
	if orderCount != 0 || historyCount != 0 {
		t.Fatalf("expected order and history removed, got %d/%d", orderCount, historyCount)
	}

	if err := svc.DeleteOrderAndHistory(context.Background(), order.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}

func TestSummaryCountsByStatus(t *testing.T) {
	svc, _ := setupOrderService(t)
	createTestOrder(t, svc, "TRK-1012")
	busy := createTestOrder(t, svc, "TRK-1013")
	advanceOrder(t, svc, busy.ID, domain.ActionStartMaintenance)

	summary, err := svc.Summary(context.Background())
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.Total != 2 {
		t.Fatalf("expected 2 orders, got %d", summary.Total)
	}
	if summary.ByStatus[domain.StatusReceived] != 1 || summary.ByStatus[domain.StatusInMaintenance] != 1 {
		t.Fatalf("unexpected counts: %+v", summary.ByStatus)
	}
}
