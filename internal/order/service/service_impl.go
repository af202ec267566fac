package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/kariemSeiam/Hvar-Hub/internal/auditcontext"
	"github.com/kariemSeiam/Hvar-Hub/internal/clock"
	"github.com/kariemSeiam/Hvar-Hub/internal/order/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
}

func NewService(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("order.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateOrderRequest) (*domain.Order, error) {
	var order *domain.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		order, err = s.CreateTx(ctx, tx, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *Service) CreateTx(ctx context.Context, tx *gorm.DB, req domain.CreateOrderRequest) (*domain.Order, error) {
	tracking := strings.TrimSpace(req.TrackingNumber)
	if len(tracking) < 3 || len(tracking) > 50 {
		return nil, &domain.ValidationError{Field: "tracking_number", Message: "must be between 3 and 50 characters"}
	}
	if req.CODAmount < 0 {
		return nil, &domain.ValidationError{Field: "cod_amount", Message: "must not be negative"}
	}

	if _, err := s.repo.FindByTracking(ctx, tx, tracking); err == nil {
		return nil, domain.ErrDuplicateTracking
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	now := s.clock.Now()
	actor := auditcontext.Actor(ctx, req.Actor)
	order := &domain.Order{
		ID:                  s.genID.Generate(),
		TrackingNumber:      tracking,
		Status:              domain.StatusReceived,
		CustomerName:        strings.TrimSpace(req.CustomerName),
		CustomerPhone:       strings.TrimSpace(req.CustomerPhone),
		CustomerSecondPhone: strings.TrimSpace(req.CustomerSecondPhone),
		CustomerAddress:     strings.TrimSpace(req.CustomerAddress),
		CODAmount:           req.CODAmount,
		PackageDescription:  req.PackageDescription,
		CarrierData:         req.CarrierData,
		ServiceActionID:     req.ServiceActionID,
		ReceivedAt:          &now,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := s.repo.Insert(ctx, tx, order); err != nil {
		return nil, err
	}

	payload := map[string]any{}
	if req.ServiceActionID != nil {
		payload["service_action_id"] = req.ServiceActionID.String()
	}
	entry := &domain.MaintenanceHistoryEntry{
		ID:         s.genID.Generate(),
		OrderID:    order.ID,
		Action:     domain.ActionReceived,
		FromStatus: domain.StatusReceived,
		ToStatus:   domain.StatusReceived,
		Notes:      req.Notes,
		Payload:    payload,
		Actor:      actor,
		CreatedAt:  now,
	}
	if err := s.repo.AppendHistory(ctx, tx, entry); err != nil {
		return nil, err
	}

	s.log.Info("order created",
		zap.String("tracking_number", order.TrackingNumber),
		zap.Int64("order_id", int64(order.ID)),
	)
	return order, nil
}

func (s *Service) Apply(ctx context.Context, orderID snowflake.ID, action domain.MaintenanceAction, payload domain.ActionPayload, actor string) (*domain.Order, error) {
	if !domain.KnownAction(action) || action == domain.ActionReceived {
		return nil, &domain.ValidationError{Field: "action", Message: fmt.Sprintf("unknown action %q", action)}
	}
	if err := payload.Validate(action); err != nil {
		return nil, err
	}
	actor = auditcontext.Actor(ctx, actor)

	var order *domain.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		order, err = s.repo.FindByIDForUpdate(ctx, tx, orderID)
		if err != nil {
			return err
		}

		target, err := domain.Transition(order.Status, action)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		fromStatus := order.Status
		s.applyEffects(order, action, payload, now)
		order.Status = target
		order.UpdatedAt = now

		if err := s.repo.Update(ctx, tx, order); err != nil {
			return err
		}

		entry := &domain.MaintenanceHistoryEntry{
			ID:         s.genID.Generate(),
			OrderID:    order.ID,
			Action:     action,
			FromStatus: fromStatus,
			ToStatus:   target,
			Notes:      payload.Notes,
			Payload:    payload.HistoryFields(),
			Actor:      actor,
			CreatedAt:  now,
		}
		return s.repo.AppendHistory(ctx, tx, entry)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("order action applied",
		zap.Int64("order_id", int64(order.ID)),
		zap.String("action", string(action)),
		zap.String("status", string(order.Status)),
	)
	return order, nil
}

// applyEffects stamps the stage timestamp and payload-carried fields for
// the action. Status itself is assigned by the caller.
func (s *Service) applyEffects(order *domain.Order, action domain.MaintenanceAction, payload domain.ActionPayload, now time.Time) {
	switch action {
	case domain.ActionStartMaintenance:
		order.MaintenanceStartedAt = &now
	case domain.ActionReschedule:
		order.RescheduledAt = &now
		order.MaintenanceStartedAt = &now
	case domain.ActionCompleteMaintenance:
		order.CompletedAt = &now
	case domain.ActionFailMaintenance:
		order.FailedAt = &now
	case domain.ActionSendOrder, domain.ActionConfirmSend:
		order.SentAt = &now
		if tracking := strings.TrimSpace(payload.NewTrackingNumber); tracking != "" {
			order.NewTrackingNumber = tracking
		}
		if payload.NewCODAmount != nil {
			order.NewCODAmount = payload.NewCODAmount
		}
	case domain.ActionReturnOrder, domain.ActionMoveToReturns:
		order.ReturnedAt = &now
		order.ReturnCondition = payload.ReturnCondition
	case domain.ActionRefundOrReplace:
		order.CompletedAt = &now
		order.IsRefundOrReplace = true
	case domain.ActionSetReturnCondition:
		order.ReturnCondition = payload.ReturnCondition
	}
}

func (s *Service) GetByID(ctx context.Context, orderID snowflake.ID) (*domain.Order, error) {
	return s.repo.FindByID(ctx, s.db, orderID)
}

func (s *Service) GetByTracking(ctx context.Context, tracking string) (*domain.Order, error) {
	return s.repo.FindByTracking(ctx, s.db, strings.TrimSpace(tracking))
}

func (s *Service) History(ctx context.Context, orderID snowflake.ID) ([]domain.MaintenanceHistoryEntry, error) {
	if _, err := s.repo.FindByID(ctx, s.db, orderID); err != nil {
		return nil, err
	}
	return s.repo.HistoryForOrder(ctx, s.db, orderID)
}

func (s *Service) ListByStatus(ctx context.Context, req domain.ListRequest) ([]domain.Order, int64, error) {
	switch req.Status {
	case domain.StatusReceived, domain.StatusInMaintenance, domain.StatusCompleted,
		domain.StatusFailed, domain.StatusSending, domain.StatusReturned:
	default:
		return nil, 0, &domain.ValidationError{Field: "status", Message: fmt.Sprintf("unknown status %q", req.Status)}
	}
	return s.repo.ListByStatus(ctx, s.db, req)
}

func (s *Service) Summary(ctx context.Context) (*domain.Summary, error) {
	counts, err := s.repo.CountByStatus(ctx, s.db)
	if err != nil {
		return nil, err
	}
	summary := &domain.Summary{ByStatus: counts}
	for _, count := range counts {
		summary.Total += count
	}
	return summary, nil
}

func (s *Service) RecentOrders(ctx context.Context, limit int) ([]domain.Order, error) {
	return s.repo.Recent(ctx, s.db, limit)
}

func (s *Service) DeleteOrderAndHistory(ctx context.Context, orderID snowflake.ID) error {
	if err := s.repo.DeleteOrderAndHistory(ctx, s.db, orderID); err != nil {
		return err
	}
	s.log.Warn("order deleted with history",
		zap.Int64("order_id", int64(orderID)),
		zap.String("actor", auditcontext.ActorFromContext(ctx)),
		zap.String("client_ip", auditcontext.IPAddressFromContext(ctx)),
	)
	return nil
}
