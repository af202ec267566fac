package service

import (
	"context"
	"errors"
	"strings"

	"github.com/kariemSeiam/Hvar-Hub/internal/auditcontext"
	carrierdomain "github.com/kariemSeiam/Hvar-Hub/internal/carrier/domain"
	orderdomain "github.com/kariemSeiam/Hvar-Hub/internal/order/domain"
	sadomain "github.com/kariemSeiam/Hvar-Hub/internal/serviceaction/domain"
	"github.com/kariemSeiam/Hvar-Hub/internal/unified/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	OrderSvc  orderdomain.Service
	ActionSvc sadomain.Service
	Carrier   carrierdomain.Gateway
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	orderSvc  orderdomain.Service
	actionSvc sadomain.Service
	carrier   carrierdomain.Gateway
}

func NewService(p Params) domain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("unified.service"),
		orderSvc:  p.OrderSvc,
		actionSvc: p.ActionSvc,
		carrier:   p.Carrier,
	}
}

func (s *Service) Integrate(ctx context.Context, followUpTracking, actor string) (*orderdomain.Order, error) {
	followUpTracking = strings.TrimSpace(followUpTracking)
	actor = auditcontext.Actor(ctx, actor)

	action, err := s.actionSvc.FindByFollowUpTracking(ctx, followUpTracking)
	if err != nil {
		return nil, err
	}

	// Idempotent replay: the second scan of the same follow-up tracking
	// returns the order created by the first one.
	if action.IsIntegrated {
		if action.IntegratedOrderID == nil {
			return nil, sadomain.ErrAlreadyIntegrated
		}
		return s.orderSvc.GetByID(ctx, *action.IntegratedOrderID)
	}
	if action.Status != sadomain.StatusPendingReceive {
		return nil, domain.ErrNotReady
	}

	var order *orderdomain.Order
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		order, err = s.orderSvc.CreateTx(ctx, tx, orderdomain.CreateOrderRequest{
			TrackingNumber:  followUpTracking,
			CustomerName:    action.CustomerName,
			CustomerPhone:   action.CustomerPhone,
			ServiceActionID: &action.ID,
			Notes:           "created from service action",
			Actor:           actor,
		})
		if err != nil {
			return err
		}
		return s.actionSvc.MarkIntegratedTx(ctx, tx, action.ID, order.ID, actor)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("service action integrated",
		zap.Int64("action_id", int64(action.ID)),
		zap.Int64("order_id", int64(order.ID)),
		zap.String("tracking", followUpTracking),
		zap.String("request_id", auditcontext.RequestIDFromContext(ctx)),
	)
	return order, nil
}

func (s *Service) ResolveIncomingScan(ctx context.Context, tracking string) (*domain.ScanResult, error) {
	tracking = strings.TrimSpace(tracking)

	if order, err := s.orderSvc.GetByTracking(ctx, tracking); err == nil {
		return &domain.ScanResult{Classification: domain.ScanExistingOrder, Order: order}, nil
	} else if !errors.Is(err, orderdomain.ErrNotFound) {
		return nil, err
	}

	if action, err := s.actionSvc.FindByFollowUpTracking(ctx, tracking); err == nil {
		classification := domain.ScanReadyForIntegration
		if action.Status != sadomain.StatusPendingReceive || action.IsIntegrated {
			classification = domain.ScanServiceActionNotReady
		}
		return &domain.ScanResult{Classification: classification, ServiceAction: action}, nil
	} else if !errors.Is(err, sadomain.ErrNotFound) {
		return nil, err
	}

	return &domain.ScanResult{Classification: domain.ScanNewShipment}, nil
}

func (s *Service) Scan(ctx context.Context, tracking, actor string) (*domain.ScanResult, error) {
	result, err := s.ResolveIncomingScan(ctx, tracking)
	if err != nil {
		return nil, err
	}

	switch result.Classification {
	case domain.ScanExistingOrder, domain.ScanServiceActionNotReady:
		return result, nil
	case domain.ScanReadyForIntegration:
		order, err := s.Integrate(ctx, tracking, actor)
		if err != nil {
			return nil, err
		}
		result.Order = order
		return result, nil
	}

	// Brand-new shipment: seed the order from carrier data.
	shipment, err := s.carrier.FetchShipment(ctx, tracking)
	if err != nil {
		return nil, err
	}
	order, err := s.orderSvc.Create(ctx, orderdomain.CreateOrderRequest{
		TrackingNumber:      strings.TrimSpace(tracking),
		CustomerName:        shipment.CustomerName,
		CustomerPhone:       shipment.CustomerPhone,
		CustomerSecondPhone: shipment.CustomerSecondPhone,
		CustomerAddress:     shipment.CustomerAddress,
		CODAmount:           shipment.CODAmount,
		PackageDescription:  shipment.PackageDescription,
		CarrierData:         datatypes.JSON(shipment.Raw),
		Actor:               actor,
	})
	if err != nil {
		return nil, err
	}
	result.Order = order
	return result, nil
}
