package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	carrierdomain "github.com/kariemSeiam/Hvar-Hub/internal/carrier/domain"
	"github.com/kariemSeiam/Hvar-Hub/internal/clock"
	"github.com/kariemSeiam/Hvar-Hub/internal/config"
	invdomain "github.com/kariemSeiam/Hvar-Hub/internal/inventory/domain"
	invservice "github.com/kariemSeiam/Hvar-Hub/internal/inventory/service"
	orderdomain "github.com/kariemSeiam/Hvar-Hub/internal/order/domain"
	orderrepo "github.com/kariemSeiam/Hvar-Hub/internal/order/repository"
	orderservice "github.com/kariemSeiam/Hvar-Hub/internal/order/service"
	sadomain "github.com/kariemSeiam/Hvar-Hub/internal/serviceaction/domain"
	sarepo "github.com/kariemSeiam/Hvar-Hub/internal/serviceaction/repository"
	saservice "github.com/kariemSeiam/Hvar-Hub/internal/serviceaction/service"
	unifiedservice "github.com/kariemSeiam/Hvar-Hub/internal/unified/service"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type fakeGateway struct {
	shipments map[string]*carrierdomain.ShipmentRecord
}

func (g *fakeGateway) FetchShipment(ctx context.Context, tracking string) (*carrierdomain.ShipmentRecord, error) {
	if record, ok := g.shipments[tracking]; ok {
		return record, nil
	}
	return nil, carrierdomain.ErrShipmentNotFound
}

func (g *fakeGateway) SearchShipments(ctx context.Context, query carrierdomain.SearchQuery) ([]carrierdomain.ShipmentRecord, error) {
	return nil, nil
}

type serverFixture struct {
	engine   *gin.Engine
	server   *Server
	orderSvc orderdomain.Service
	gateway  *fakeGateway
}

func setupServer(t *testing.T, scanLimit int) *serverFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	err = db.AutoMigrate(
		&invdomain.Product{}, &invdomain.Part{}, &invdomain.StockMovement{},
		&orderdomain.Order{}, &orderdomain.MaintenanceHistoryEntry{},
		&sadomain.ServiceAction{}, &sadomain.ServiceActionItem{}, &sadomain.ServiceActionHistoryEntry{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	node, err := snowflake.NewNode(5)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	fixed := clock.Fixed{T: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	nop := zap.NewNop()

	inv := invservice.NewService(invservice.Params{DB: db, Log: nop, GenID: node, Clock: fixed})
	orderSvc := orderservice.NewService(orderservice.Params{DB: db, Log: nop, GenID: node, Clock: fixed, Repo: orderrepo.Provide()})
	actionSvc := saservice.NewService(saservice.Params{DB: db, Log: nop, GenID: node, Clock: fixed, Repo: sarepo.Provide(), InventorySvc: inv})
	gateway := &fakeGateway{shipments: map[string]*carrierdomain.ShipmentRecord{}}
	unifiedSvc := unifiedservice.NewService(unifiedservice.Params{DB: db, Log: nop, OrderSvc: orderSvc, ActionSvc: actionSvc, Carrier: gateway})

	cfg := config.Config{Environment: "test"}
	cfg.Server.ScanRateLimit = scanLimit

	srv := NewServer(Params{
		Config:       cfg,
		Log:          nop,
		OrderSvc:     orderSvc,
		InventorySvc: inv,
		ActionSvc:    actionSvc,
		UnifiedSvc:   unifiedSvc,
		Carrier:      gateway,
	})

	engine := gin.New()
	srv.RegisterRoutes(engine)

	return &serverFixture{engine: engine, server: srv, orderSvc: orderSvc, gateway: gateway}
}

func (f *serverFixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.engine.ServeHTTP(rec, req)
	return rec
}

func TestScanCreatesOrderFromCarrierData(t *testing.T) {
	f := setupServer(t, 100)
	f.gateway.shipments["SCAN-100"] = &carrierdomain.ShipmentRecord{
		TrackingNumber: "SCAN-100",
		CustomerName:   "أحمد فؤاد",
		CustomerPhone:  "+201012345678",
		CODAmount:      150,
	}

	rec := f.do(t, http.MethodPost, "/api/v1/scan", gin.H{"tracking_number": "SCAN-100", "actor": "tech"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Data struct {
			Classification string            `json:"classification"`
			Order          *orderdomain.Order `json:"order"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Data.Classification != "new_shipment" {
		t.Fatalf("expected new_shipment, got %s", resp.Data.Classification)
	}
	if resp.Data.Order == nil || resp.Data.Order.CustomerName != "أحمد فؤاد" {
		t.Fatalf("expected order seeded from carrier, got %+v", resp.Data.Order)
	}
}

func TestScanRateLimit(t *testing.T) {
	f := setupServer(t, 2)
	f.gateway.shipments["SCAN-200"] = &carrierdomain.ShipmentRecord{TrackingNumber: "SCAN-200"}

	for i := 0; i < 2; i++ {
		rec := f.do(t, http.MethodPost, "/api/v1/scan", gin.H{"tracking_number": "SCAN-200"})
		if rec.Code == http.StatusTooManyRequests {
			t.Fatalf("request %d unexpectedly limited", i)
		}
	}
	rec := f.do(t, http.MethodPost, "/api/v1/scan", gin.H{"tracking_number": "SCAN-200"})
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
}

func TestApplyActionInvalidTransitionMapsToConflict(t *testing.T) {
	f := setupServer(t, 100)
	order, err := f.orderSvc.Create(context.Background(), orderdomain.CreateOrderRequest{TrackingNumber: "ORD-300"})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	rec := f.do(t, http.MethodPost, fmt.Sprintf("/api/v1/orders/%d/actions", order.ID), gin.H{
		"action": "send_order",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for send from received, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestApplyActionValidationMapsToBadRequest(t *testing.T) {
	f := setupServer(t, 100)
	order, err := f.orderSvc.Create(context.Background(), orderdomain.CreateOrderRequest{TrackingNumber: "ORD-301"})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	// return_order requires a return condition in the payload
	rec := f.do(t, http.MethodPost, fmt.Sprintf("/api/v1/orders/%d/actions", order.ID), gin.H{
		"action": "return_order",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing condition, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestGetOrderNotFound(t *testing.T) {
	f := setupServer(t, 100)

	rec := f.do(t, http.MethodGet, "/api/v1/orders/123456789", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestOrderLifecycleOverHTTP(t *testing.T) {
	f := setupServer(t, 100)
	order, err := f.orderSvc.Create(context.Background(), orderdomain.CreateOrderRequest{TrackingNumber: "ORD-302"})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	steps := []gin.H{
		{"action": "start_maintenance"},
		{"action": "complete_maintenance"},
		{"action": "send_order", "payload": gin.H{"new_tracking_number": "ORD-302-F"}},
	}
	for _, step := range steps {
		rec := f.do(t, http.MethodPost, fmt.Sprintf("/api/v1/orders/%d/actions", order.ID), step)
		if rec.Code != http.StatusOK {
			t.Fatalf("step %v: expected 200, got %d: %s", step["action"], rec.Code, rec.Body.String())
		}
	}

	reloaded, err := f.orderSvc.GetByID(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("reload order: %v", err)
	}
	if reloaded.Status != orderdomain.StatusSending {
		t.Fatalf("expected sending, got %s", reloaded.Status)
	}

	rec := f.do(t, http.MethodGet, fmt.Sprintf("/api/v1/orders/%d/history", order.ID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("history: expected 200, got %d", rec.Code)
	}
}

func TestCreateProductDuplicateSKUMapsToConflict(t *testing.T) {
	f := setupServer(t, 100)

	body := gin.H{"sku": "WASH-01", "name_ar": "غسالة", "initial_stock": 3}
	if rec := f.do(t, http.MethodPost, "/api/v1/inventory/products", body); rec.Code != http.StatusOK {
		t.Fatalf("first create: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec := f.do(t, http.MethodPost, "/api/v1/inventory/products", body); rec.Code != http.StatusConflict {
		t.Fatalf("duplicate create: expected 409, got %d", rec.Code)
	}
}

func TestScanUnknownTrackingMapsToNotFound(t *testing.T) {
	f := setupServer(t, 100)

	rec := f.do(t, http.MethodPost, "/api/v1/scan", gin.H{"tracking_number": "NOPE-1"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 from carrier miss, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestCatalogUpdateAndGuardedDelete(t *testing.T) {
	f := setupServer(t, 100)

	rec := f.do(t, http.MethodPost, "/api/v1/inventory/products", gin.H{
		"sku": "FRIDGE-01", "name_ar": "ثلاجة", "initial_stock": 1,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("create: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var created struct {
		Data struct {
			ID snowflake.ID `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}

	path := fmt.Sprintf("/api/v1/inventory/products/%d", created.Data.ID)
	rec = f.do(t, http.MethodPatch, path, gin.H{"name_en": "Fridge", "alert_quantity": 5})
	if rec.Code != http.StatusOK {
		t.Fatalf("update: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	// A unit is still on hand, so the delete is refused.
	if rec := f.do(t, http.MethodDelete, path, nil); rec.Code != http.StatusConflict {
		t.Fatalf("delete with stock: expected 409, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = f.do(t, http.MethodPost, "/api/v1/inventory/movements", gin.H{
		"item_type": "product", "item_id": created.Data.ID,
		"quantity_change": -1, "condition": "valid", "movement_kind": "send",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("drain stock: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	if rec := f.do(t, http.MethodDelete, path, nil); rec.Code != http.StatusOK {
		t.Fatalf("delete drained: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}
