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
	invdomain "github.com/kariemSeiam/Hvar-Hub/internal/inventory/domain"
	"github.com/kariemSeiam/Hvar-Hub/internal/serviceaction/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	GenID        *snowflake.Node
	Clock        clock.Clock
	Repo         domain.Repository
	InventorySvc invdomain.Service
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	genID        *snowflake.Node
	clock        clock.Clock
	repo         domain.Repository
	inventorySvc invdomain.Service
}

func NewService(p Params) domain.Service {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("serviceaction.service"),
		genID:        p.GenID,
		clock:        p.Clock,
		repo:         p.Repo,
		inventorySvc: p.InventorySvc,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.ServiceAction, error) {
	if err := s.validateCreate(ctx, req); err != nil {
		return nil, err
	}
	now := s.clock.Now()
	actor := auditcontext.Actor(ctx, req.Actor)

	action := &domain.ServiceAction{
		ID:                     s.genID.Generate(),
		ActionKind:             req.Kind,
		Status:                 domain.StatusCreated,
		CustomerName:           strings.TrimSpace(req.CustomerName),
		CustomerPhone:          strings.TrimSpace(req.CustomerPhone),
		OriginalTrackingNumber: strings.TrimSpace(req.OriginalTrackingNumber),
		Notes:                  req.Notes,
		RefundAmount:           req.RefundAmount,
		CreatedAt:              now,
		UpdatedAt:              now,
	}

	items := make([]domain.ServiceActionItem, 0, len(req.Items))
	for _, line := range req.Items {
		items = append(items, domain.ServiceActionItem{
			ID:              s.genID.Generate(),
			ServiceActionID: action.ID,
			ItemType:        line.ItemType,
			ItemID:          line.ItemID,
			Quantity:        line.Quantity,
			CreatedAt:       now,
		})
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Insert(ctx, tx, action); err != nil {
			return err
		}
		if err := s.repo.InsertItems(ctx, tx, items); err != nil {
			return err
		}
		return s.appendHistory(ctx, tx, action, "create", domain.StatusCreated, domain.StatusCreated, req.Notes, nil, actor, now)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("service action created",
		zap.Int64("action_id", int64(action.ID)),
		zap.String("kind", string(action.ActionKind)),
	)
	return action, nil
}

func (s *Service) validateCreate(ctx context.Context, req domain.CreateRequest) error {
	switch req.Kind {
	case domain.KindPartReplace, domain.KindFullReplace, domain.KindReturnFromCustomer:
	default:
		return &domain.ValidationError{Field: "action_kind", Message: fmt.Sprintf("unknown kind %q", req.Kind)}
	}
	if tracking := strings.TrimSpace(req.OriginalTrackingNumber); len(tracking) < 3 || len(tracking) > 50 {
		return &domain.ValidationError{Field: "original_tracking_number", Message: "must be between 3 and 50 characters"}
	}
	if strings.TrimSpace(req.CustomerPhone) == "" {
		return &domain.ValidationError{Field: "customer_phone", Message: "is required"}
	}

	if req.Kind.IsReplace() {
		if len(req.Items) == 0 {
			return &domain.ValidationError{Field: "items", Message: "replace actions require at least one item"}
		}
	} else {
		if req.RefundAmount == nil || *req.RefundAmount <= 0 {
			return &domain.ValidationError{Field: "refund_amount", Message: "return actions require a positive refund amount"}
		}
	}

	for i, line := range req.Items {
		if line.Quantity <= 0 {
			return &domain.ValidationError{Field: fmt.Sprintf("items[%d].quantity", i), Message: "must be positive"}
		}
		ref := invdomain.ItemRef{Type: line.ItemType, ID: line.ItemID}
		if _, err := s.inventorySvc.GetItem(ctx, ref); err != nil {
			if errors.Is(err, invdomain.ErrItemNotFound) || errors.Is(err, invdomain.ErrInvalidItemType) {
				return &domain.ValidationError{Field: fmt.Sprintf("items[%d]", i), Message: "references an unknown inventory item"}
			}
			return err
		}
	}
	return nil
}

func (s *Service) ConfirmAndSend(ctx context.Context, actionID snowflake.ID, followUpTracking, actor string) (*domain.ServiceAction, error) {
	followUpTracking = strings.TrimSpace(followUpTracking)
	if len(followUpTracking) < 3 || len(followUpTracking) > 50 {
		return nil, &domain.ValidationError{Field: "follow_up_tracking", Message: "must be between 3 and 50 characters"}
	}
	actor = auditcontext.Actor(ctx, actor)

	var action *domain.ServiceAction
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		action, err = s.repo.FindByIDForUpdate(ctx, tx, actionID)
		if err != nil {
			return err
		}
		if !action.ActionKind.IsReplace() {
			return &domain.ValidationError{Field: "action_kind", Message: "confirm_and_send only applies to replace actions"}
		}
		if err := domain.TransitionTo(action.Status, domain.StatusConfirmed, "confirm_and_send"); err != nil {
			return err
		}
		if err := s.ensureFollowUpUnique(ctx, tx, followUpTracking, action.ID); err != nil {
			return err
		}

		items, err := s.repo.ItemsForAction(ctx, tx, action.ID)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return &domain.ValidationError{Field: "items", Message: "no items to send"}
		}

		now := s.clock.Now()
		movements := make([]invdomain.MovementRequest, 0, len(items))
		for _, item := range items {
			movements = append(movements, invdomain.MovementRequest{
				Item:            invdomain.ItemRef{Type: item.ItemType, ID: item.ItemID},
				QuantityChange:  -item.Quantity,
				Condition:       invdomain.ConditionValid,
				Kind:            invdomain.MovementSend,
				ServiceActionID: &action.ID,
				Notes:           fmt.Sprintf("send for %s", action.ActionKind),
				Actor:           actor,
			})
		}
		// All-or-nothing: any insufficient line aborts the whole send.
		if _, err := s.inventorySvc.ApplyManyTx(ctx, tx, movements); err != nil {
			return err
		}

		for i := range items {
			items[i].SentAt = &now
			if err := s.repo.UpdateItem(ctx, tx, &items[i]); err != nil {
				return err
			}
		}

		fromStatus := action.Status
		action.Status = domain.StatusConfirmed
		action.NewTrackingNumber = followUpTracking
		action.ConfirmedAt = &now
		action.SentAt = &now
		action.UpdatedAt = now
		if err := s.repo.Update(ctx, tx, action); err != nil {
			return err
		}

		payload := map[string]any{"follow_up_tracking": followUpTracking}
		return s.appendHistory(ctx, tx, action, "confirm_and_send", fromStatus, action.Status, "", payload, actor, now)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("service action confirmed and sent",
		zap.Int64("action_id", int64(action.ID)),
		zap.String("follow_up_tracking", followUpTracking),
	)
	return action, nil
}

func (s *Service) ConfirmReturn(ctx context.Context, actionID snowflake.ID, followUpTracking, actor string) (*domain.ServiceAction, error) {
	followUpTracking = strings.TrimSpace(followUpTracking)
	if len(followUpTracking) < 3 || len(followUpTracking) > 50 {
		return nil, &domain.ValidationError{Field: "follow_up_tracking", Message: "must be between 3 and 50 characters"}
	}
	actor = auditcontext.Actor(ctx, actor)

	var action *domain.ServiceAction
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		action, err = s.repo.FindByIDForUpdate(ctx, tx, actionID)
		if err != nil {
			return err
		}
		if action.ActionKind != domain.KindReturnFromCustomer {
			return &domain.ValidationError{Field: "action_kind", Message: "confirm_return only applies to return actions"}
		}
		if err := domain.TransitionTo(action.Status, domain.StatusConfirmed, "confirm_return"); err != nil {
			return err
		}
		if err := s.ensureFollowUpUnique(ctx, tx, followUpTracking, action.ID); err != nil {
			return err
		}

		// No stock movement yet; nothing has shipped back.
		now := s.clock.Now()
		fromStatus := action.Status
		action.Status = domain.StatusConfirmed
		action.NewTrackingNumber = followUpTracking
		action.ConfirmedAt = &now
		action.UpdatedAt = now
		if err := s.repo.Update(ctx, tx, action); err != nil {
			return err
		}

		payload := map[string]any{"follow_up_tracking": followUpTracking}
		return s.appendHistory(ctx, tx, action, "confirm_return", fromStatus, action.Status, "", payload, actor, now)
	})
	if err != nil {
		return nil, err
	}
	return action, nil
}

func (s *Service) ReceiveReplacementItems(ctx context.Context, actionID snowflake.ID, items []domain.ReceivedItem, actor string) (*domain.ServiceAction, error) {
	return s.receiveItems(ctx, actionID, items, actor, true)
}

func (s *Service) ReceiveReturnItems(ctx context.Context, actionID snowflake.ID, items []domain.ReceivedItem, actor string) (*domain.ServiceAction, error) {
	return s.receiveItems(ctx, actionID, items, actor, false)
}

func (s *Service) receiveItems(ctx context.Context, actionID snowflake.ID, items []domain.ReceivedItem, actor string, replace bool) (*domain.ServiceAction, error) {
	if len(items) == 0 {
		return nil, &domain.ValidationError{Field: "items", Message: "at least one received item is required"}
	}
	for i, item := range items {
		if item.Quantity <= 0 {
			return nil, &domain.ValidationError{Field: fmt.Sprintf("items[%d].quantity", i), Message: "must be positive"}
		}
		switch item.Condition {
		case invdomain.ConditionValid, invdomain.ConditionDamaged:
		default:
			return nil, &domain.ValidationError{Field: fmt.Sprintf("items[%d].condition", i), Message: "must be valid or damaged"}
		}
	}
	actor = auditcontext.Actor(ctx, actor)
	operation := "receive_return_items"
	if replace {
		operation = "receive_replacement_items"
	}

	var action *domain.ServiceAction
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		action, err = s.repo.FindByIDForUpdate(ctx, tx, actionID)
		if err != nil {
			return err
		}
		if replace != action.ActionKind.IsReplace() {
			return &domain.ValidationError{Field: "action_kind", Message: fmt.Sprintf("%s does not apply to %s", operation, action.ActionKind)}
		}
		if err := domain.TransitionTo(action.Status, domain.StatusPendingReceive, operation); err != nil {
			return err
		}

		now := s.clock.Now()
		planned, err := s.repo.ItemsForAction(ctx, tx, action.ID)
		if err != nil {
			return err
		}

		movements := make([]invdomain.MovementRequest, 0, len(items))
		for _, received := range items {
			condition := received.Condition
			movements = append(movements, invdomain.MovementRequest{
				Item:            invdomain.ItemRef{Type: received.ItemType, ID: received.ItemID},
				QuantityChange:  received.Quantity,
				Condition:       condition,
				Kind:            invdomain.MovementReceive,
				ServiceActionID: &action.ID,
				Notes:           fmt.Sprintf("receive for %s", action.ActionKind),
				Actor:           actor,
			})

			line := matchPlannedItem(planned, received)
			if line != nil {
				line.QuantityReceived += received.Quantity
				line.ConditionReceived = &condition
				line.ReceivedAt = &now
				if err := s.repo.UpdateItem(ctx, tx, line); err != nil {
					return err
				}
				continue
			}
			if replace {
				return &domain.ValidationError{Field: "items", Message: "received item was not part of the planned lines"}
			}
			// Returns may bring back items that were never planned.
			extra := []domain.ServiceActionItem{{
				ID:                s.genID.Generate(),
				ServiceActionID:   action.ID,
				ItemType:          received.ItemType,
				ItemID:            received.ItemID,
				Quantity:          received.Quantity,
				QuantityReceived:  received.Quantity,
				ConditionReceived: &condition,
				ReceivedAt:        &now,
				CreatedAt:         now,
			}}
			if err := s.repo.InsertItems(ctx, tx, extra); err != nil {
				return err
			}
		}

		if _, err := s.inventorySvc.ApplyManyTx(ctx, tx, movements); err != nil {
			return err
		}

		fromStatus := action.Status
		action.Status = domain.StatusPendingReceive
		action.ReceivedAt = &now
		action.UpdatedAt = now
		if err := s.repo.Update(ctx, tx, action); err != nil {
			return err
		}

		payload := map[string]any{"received_count": len(items)}
		return s.appendHistory(ctx, tx, action, operation, fromStatus, action.Status, "", payload, actor, now)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("service action items received",
		zap.Int64("action_id", int64(action.ID)),
		zap.Int("items", len(items)),
	)
	return action, nil
}

func matchPlannedItem(planned []domain.ServiceActionItem, received domain.ReceivedItem) *domain.ServiceActionItem {
	for i := range planned {
		if planned[i].ItemType == received.ItemType && planned[i].ItemID == received.ItemID {
			return &planned[i]
		}
	}
	return nil
}

func (s *Service) ProcessRefundAndComplete(ctx context.Context, actionID snowflake.ID, actor string) (*domain.ServiceAction, error) {
	actor = auditcontext.Actor(ctx, actor)

	var action *domain.ServiceAction
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		action, err = s.repo.FindByIDForUpdate(ctx, tx, actionID)
		if err != nil {
			return err
		}
		if action.ActionKind != domain.KindReturnFromCustomer {
			return &domain.ValidationError{Field: "action_kind", Message: "refund processing only applies to return actions"}
		}
		if action.RefundAmount == nil || *action.RefundAmount <= 0 {
			return &domain.ValidationError{Field: "refund_amount", Message: "no positive refund amount on file"}
		}
		if err := domain.TransitionTo(action.Status, domain.StatusCompleted, "process_refund_and_complete"); err != nil {
			return err
		}

		now := s.clock.Now()
		fromStatus := action.Status
		action.Status = domain.StatusCompleted
		action.RefundProcessedAt = &now
		action.CompletedAt = &now
		action.UpdatedAt = now
		if err := s.repo.Update(ctx, tx, action); err != nil {
			return err
		}

		payload := map[string]any{"refund_amount": *action.RefundAmount}
		return s.appendHistory(ctx, tx, action, "process_refund_and_complete", fromStatus, action.Status, "", payload, actor, now)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("refund processed",
		zap.Int64("action_id", int64(action.ID)),
		zap.Float64("refund_amount", *action.RefundAmount),
	)
	return action, nil
}

func (s *Service) Complete(ctx context.Context, actionID snowflake.ID, notes, actor string) (*domain.ServiceAction, error) {
	return s.closeAction(ctx, actionID, domain.StatusCompleted, "complete", notes, actor)
}

func (s *Service) Fail(ctx context.Context, actionID snowflake.ID, notes, actor string) (*domain.ServiceAction, error) {
	return s.closeAction(ctx, actionID, domain.StatusFailed, "fail", notes, actor)
}

func (s *Service) Cancel(ctx context.Context, actionID snowflake.ID, notes, actor string) (*domain.ServiceAction, error) {
	return s.closeAction(ctx, actionID, domain.StatusCancelled, "cancel", notes, actor)
}

func (s *Service) closeAction(ctx context.Context, actionID snowflake.ID, target domain.Status, operation, notes, actor string) (*domain.ServiceAction, error) {
	actor = auditcontext.Actor(ctx, actor)

	var action *domain.ServiceAction
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		action, err = s.repo.FindByIDForUpdate(ctx, tx, actionID)
		if err != nil {
			return err
		}
		if err := domain.TransitionTo(action.Status, target, operation); err != nil {
			return err
		}

		now := s.clock.Now()
		fromStatus := action.Status
		action.Status = target
		action.UpdatedAt = now
		switch target {
		case domain.StatusCompleted:
			action.CompletedAt = &now
		case domain.StatusFailed:
			action.FailedAt = &now
		case domain.StatusCancelled:
			action.CancelledAt = &now
		}
		if err := s.repo.Update(ctx, tx, action); err != nil {
			return err
		}
		return s.appendHistory(ctx, tx, action, operation, fromStatus, target, notes, nil, actor, now)
	})
	if err != nil {
		return nil, err
	}
	return action, nil
}

func (s *Service) GetWithHistory(ctx context.Context, actionID snowflake.ID) (*domain.Detail, error) {
	action, err := s.repo.FindByID(ctx, s.db, actionID)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.ItemsForAction(ctx, s.db, actionID)
	if err != nil {
		return nil, err
	}
	history, err := s.repo.HistoryForAction(ctx, s.db, actionID)
	if err != nil {
		return nil, err
	}
	return &domain.Detail{Action: *action, Items: items, History: history}, nil
}

func (s *Service) ListByStatus(ctx context.Context, status domain.Status, page, limit int) ([]domain.ServiceAction, int64, error) {
	switch status {
	case domain.StatusCreated, domain.StatusConfirmed, domain.StatusPendingReceive,
		domain.StatusCompleted, domain.StatusFailed, domain.StatusCancelled:
	default:
		return nil, 0, &domain.ValidationError{Field: "status", Message: fmt.Sprintf("unknown status %q", status)}
	}
	return s.repo.ListByStatus(ctx, s.db, status, page, limit)
}

func (s *Service) ListByCustomerPhone(ctx context.Context, phone string) ([]domain.ServiceAction, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, &domain.ValidationError{Field: "phone", Message: "is required"}
	}
	return s.repo.ListByCustomerPhone(ctx, s.db, phone)
}

func (s *Service) FindByFollowUpTracking(ctx context.Context, tracking string) (*domain.ServiceAction, error) {
	return s.repo.FindByFollowUpTracking(ctx, s.db, strings.TrimSpace(tracking))
}

func (s *Service) Statistics(ctx context.Context) (*domain.Statistics, error) {
	byStatus, byKind, err := s.repo.CountByStatusAndKind(ctx, s.db)
	if err != nil {
		return nil, err
	}
	integrated, err := s.repo.CountIntegrated(ctx, s.db)
	if err != nil {
		return nil, err
	}
	pendingRefunds, err := s.repo.CountPendingRefunds(ctx, s.db)
	if err != nil {
		return nil, err
	}

	stats := &domain.Statistics{
		ByStatus:       byStatus,
		ByKind:         byKind,
		Integrated:     integrated,
		PendingRefunds: pendingRefunds,
	}
	for _, count := range byStatus {
		stats.Total += count
	}
	return stats, nil
}

func (s *Service) MarkIntegratedTx(ctx context.Context, tx *gorm.DB, actionID, orderID snowflake.ID, actor string) error {
	action, err := s.repo.FindByIDForUpdate(ctx, tx, actionID)
	if err != nil {
		return err
	}
	if action.IsIntegrated {
		return domain.ErrAlreadyIntegrated
	}

	now := s.clock.Now()
	action.IsIntegrated = true
	action.IntegratedOrderID = &orderID
	action.IntegratedAt = &now
	action.UpdatedAt = now
	if err := s.repo.Update(ctx, tx, action); err != nil {
		return err
	}

	payload := map[string]any{"order_id": orderID.String()}
	return s.appendHistory(ctx, tx, action, "integrate", action.Status, action.Status, "", payload, actor, now)
}

func (s *Service) ensureFollowUpUnique(ctx context.Context, tx *gorm.DB, tracking string, selfID snowflake.ID) error {
	existing, err := s.repo.FindByFollowUpTracking(ctx, tx, tracking)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	}
	if existing.ID != selfID {
		return domain.ErrDuplicateTracking
	}
	return nil
}

func (s *Service) appendHistory(ctx context.Context, tx *gorm.DB, action *domain.ServiceAction, operation string, from, to domain.Status, notes string, payload map[string]any, actor string, now time.Time) error {
	entry := &domain.ServiceActionHistoryEntry{
		ID:              s.genID.Generate(),
		ServiceActionID: action.ID,
		Action:          operation,
		FromStatus:      from,
		ToStatus:        to,
		Notes:           notes,
		Payload:         payload,
		Actor:           actor,
		CreatedAt:       now,
	}
	return s.repo.AppendHistory(ctx, tx, entry)
}
