package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	carrierdomain "github.com/kariemSeiam/Hvar-Hub/internal/carrier/domain"
	"github.com/kariemSeiam/Hvar-Hub/internal/config"
	invdomain "github.com/kariemSeiam/Hvar-Hub/internal/inventory/domain"
	"github.com/kariemSeiam/Hvar-Hub/internal/observability/logger"
	"github.com/kariemSeiam/Hvar-Hub/internal/observability/metrics"
	orderdomain "github.com/kariemSeiam/Hvar-Hub/internal/order/domain"
	sadomain "github.com/kariemSeiam/Hvar-Hub/internal/serviceaction/domain"
	unifieddomain "github.com/kariemSeiam/Hvar-Hub/internal/unified/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Config       config.Config
	Log          *zap.Logger
	OrderSvc     orderdomain.Service
	InventorySvc invdomain.Service
	ActionSvc    sadomain.Service
	UnifiedSvc   unifieddomain.Service
	Carrier      carrierdomain.Gateway
	Metrics      *metrics.HTTPMetrics `optional:"true"`
}

// Server holds the HTTP handlers and their service dependencies.
type Server struct {
	cfg          config.Config
	log          *zap.Logger
	orderSvc     orderdomain.Service
	inventorySvc invdomain.Service
	actionSvc    sadomain.Service
	unifiedSvc   unifieddomain.Service
	carrier      carrierdomain.Gateway
	metrics      *metrics.HTTPMetrics
	scanLimiter  *rateLimiter
}

func NewServer(p Params) *Server {
	return &Server{
		cfg:          p.Config,
		log:          p.Log.Named("server"),
		orderSvc:     p.OrderSvc,
		inventorySvc: p.InventorySvc,
		actionSvc:    p.ActionSvc,
		unifiedSvc:   p.UnifiedSvc,
		carrier:      p.Carrier,
		metrics:      p.Metrics,
		scanLimiter:  newRateLimiter(p.Config.Server.ScanRateLimit, time.Minute),
	}
}

// Engine assembles the gin router with middleware and all routes.
func (s *Server) Engine() *gin.Engine {
	if s.cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(logger.GinMiddleware(s.log))
	engine.Use(metrics.GinMiddleware(s.metrics))

	s.RegisterRoutes(engine)
	return engine
}

func (s *Server) RegisterRoutes(engine *gin.Engine) {
	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := engine.Group("/api/v1")

	api.POST("/scan", s.Scan)
	api.POST("/scan/resolve", s.ResolveScan)

	orders := api.Group("/orders")
	orders.POST("", s.CreateOrder)
	orders.GET("", s.ListOrders)
	orders.GET("/summary", s.OrderSummary)
	orders.GET("/recent", s.RecentOrders)
	orders.GET("/tracking/:tracking", s.GetOrderByTracking)
	orders.GET("/:id", s.GetOrderByID)
	orders.GET("/:id/history", s.OrderHistory)
	orders.POST("/:id/actions", s.ApplyOrderAction)
	orders.DELETE("/:id", s.DeleteOrder)

	actions := api.Group("/service-actions")
	actions.POST("", s.CreateServiceAction)
	actions.GET("", s.ListServiceActions)
	actions.GET("/statistics", s.ServiceActionStatistics)
	actions.GET("/:id", s.GetServiceAction)
	actions.POST("/:id/confirm-send", s.ConfirmAndSend)
	actions.POST("/:id/confirm-return", s.ConfirmReturn)
	actions.POST("/:id/receive-replacement", s.ReceiveReplacementItems)
	actions.POST("/:id/receive-return", s.ReceiveReturnItems)
	actions.POST("/:id/refund", s.ProcessRefund)
	actions.POST("/:id/complete", s.CompleteServiceAction)
	actions.POST("/:id/fail", s.FailServiceAction)
	actions.POST("/:id/cancel", s.CancelServiceAction)

	inventory := api.Group("/inventory")
	inventory.POST("/products", s.CreateProduct)
	inventory.GET("/products", s.ListProducts)
	inventory.PATCH("/products/:id", s.UpdateProduct)
	inventory.DELETE("/products/:id", s.DeleteProduct)
	inventory.POST("/parts", s.CreatePart)
	inventory.GET("/parts", s.ListParts)
	inventory.PATCH("/parts/:id", s.UpdatePart)
	inventory.DELETE("/parts/:id", s.DeletePart)
	inventory.GET("/items/:type/:id", s.GetItem)
	inventory.GET("/items/:type/:id/movements", s.ListMovements)
	inventory.POST("/movements", s.ApplyMovement)
	inventory.GET("/overview", s.StockOverview)

	carrier := api.Group("/carrier")
	carrier.GET("/shipments/:tracking", s.FetchShipment)
	carrier.GET("/shipments", s.SearchShipments)
}

func runServer(lc fx.Lifecycle, s *Server) {
	srv := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			s.log.Info("http server starting", zap.String("addr", srv.Addr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					s.log.Error("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}

var Module = fx.Module("server",
	fx.Provide(NewServer),
	fx.Invoke(runServer),
)
