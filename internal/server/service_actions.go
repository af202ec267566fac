package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	invdomain "github.com/kariemSeiam/Hvar-Hub/internal/inventory/domain"
	sadomain "github.com/kariemSeiam/Hvar-Hub/internal/serviceaction/domain"
)

type serviceActionLine struct {
	ItemType string       `json:"item_type"`
	ItemID   snowflake.ID `json:"item_id"`
	Quantity int          `json:"quantity"`
}

type createServiceActionRequest struct {
	Kind                   string              `json:"action_kind"`
	CustomerName           string              `json:"customer_name"`
	CustomerPhone          string              `json:"customer_phone"`
	OriginalTrackingNumber string              `json:"original_tracking_number"`
	Notes                  string              `json:"notes"`
	RefundAmount           *float64            `json:"refund_amount"`
	Items                  []serviceActionLine `json:"items"`
	Actor                  string              `json:"actor"`
}

type confirmSendRequest struct {
	NewTrackingNumber string `json:"new_tracking_number"`
	Actor             string `json:"actor"`
}

type receivedItemLine struct {
	ItemType  string       `json:"item_type"`
	ItemID    snowflake.ID `json:"item_id"`
	Quantity  int          `json:"quantity"`
	Condition string       `json:"condition"`
}

type receiveItemsRequest struct {
	Items []receivedItemLine `json:"items"`
	Actor string             `json:"actor"`
}

type closeActionRequest struct {
	Notes string `json:"notes"`
	Actor string `json:"actor"`
}

func (s *Server) CreateServiceAction(c *gin.Context) {
	var req createServiceActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	lines := make([]sadomain.LineRequest, 0, len(req.Items))
	for _, item := range req.Items {
		lines = append(lines, sadomain.LineRequest{
			ItemType: invdomain.ItemType(strings.TrimSpace(item.ItemType)),
			ItemID:   item.ItemID,
			Quantity: item.Quantity,
		})
	}

	action, err := s.actionSvc.Create(c.Request.Context(), sadomain.CreateRequest{
		Kind:                   sadomain.ActionKind(strings.TrimSpace(req.Kind)),
		CustomerName:           strings.TrimSpace(req.CustomerName),
		CustomerPhone:          strings.TrimSpace(req.CustomerPhone),
		OriginalTrackingNumber: strings.TrimSpace(req.OriginalTrackingNumber),
		Notes:                  req.Notes,
		RefundAmount:           req.RefundAmount,
		Items:                  lines,
		Actor:                  strings.TrimSpace(req.Actor),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": action})
}

func (s *Server) ListServiceActions(c *gin.Context) {
	var query struct {
		Status string `form:"status"`
		Phone  string `form:"customer_phone"`
		Page   int    `form:"page"`
		Limit  int    `form:"limit"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	if phone := strings.TrimSpace(query.Phone); phone != "" {
		actions, err := s.actionSvc.ListByCustomerPhone(c.Request.Context(), phone)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": actions, "total": int64(len(actions))})
		return
	}

	actions, total, err := s.actionSvc.ListByStatus(c.Request.Context(),
		sadomain.Status(strings.TrimSpace(query.Status)), query.Page, query.Limit)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": actions, "total": total})
}

func (s *Server) ServiceActionStatistics(c *gin.Context) {
	stats, err := s.actionSvc.Statistics(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": stats})
}

func (s *Server) GetServiceAction(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	detail, err := s.actionSvc.GetWithHistory(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": detail})
}

func (s *Server) ConfirmAndSend(c *gin.Context) {
	s.confirmWithTracking(c, s.actionSvc.ConfirmAndSend)
}

func (s *Server) ConfirmReturn(c *gin.Context) {
	s.confirmWithTracking(c, s.actionSvc.ConfirmReturn)
}

func (s *Server) ReceiveReplacementItems(c *gin.Context) {
	s.receiveItems(c, s.actionSvc.ReceiveReplacementItems)
}

func (s *Server) ReceiveReturnItems(c *gin.Context) {
	s.receiveItems(c, s.actionSvc.ReceiveReturnItems)
}

func (s *Server) ProcessRefund(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req closeActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	action, err := s.actionSvc.ProcessRefundAndComplete(c.Request.Context(), id, strings.TrimSpace(req.Actor))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": action})
}

func (s *Server) CompleteServiceAction(c *gin.Context) {
	s.closeAction(c, s.actionSvc.Complete)
}

func (s *Server) FailServiceAction(c *gin.Context) {
	s.closeAction(c, s.actionSvc.Fail)
}

func (s *Server) CancelServiceAction(c *gin.Context) {
	s.closeAction(c, s.actionSvc.Cancel)
}

type trackingOp func(ctx context.Context, actionID snowflake.ID, followUpTracking, actor string) (*sadomain.ServiceAction, error)

func (s *Server) confirmWithTracking(c *gin.Context, op trackingOp) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req confirmSendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	action, err := op(c.Request.Context(), id, strings.TrimSpace(req.NewTrackingNumber), strings.TrimSpace(req.Actor))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": action})
}

type receiveOp func(ctx context.Context, actionID snowflake.ID, items []sadomain.ReceivedItem, actor string) (*sadomain.ServiceAction, error)

func (s *Server) receiveItems(c *gin.Context, op receiveOp) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req receiveItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	items := make([]sadomain.ReceivedItem, 0, len(req.Items))
	for _, line := range req.Items {
		items = append(items, sadomain.ReceivedItem{
			ItemType:  invdomain.ItemType(strings.TrimSpace(line.ItemType)),
			ItemID:    line.ItemID,
			Quantity:  line.Quantity,
			Condition: invdomain.ItemCondition(strings.TrimSpace(line.Condition)),
		})
	}

	action, err := op(c.Request.Context(), id, items, strings.TrimSpace(req.Actor))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": action})
}

type closeOp func(ctx context.Context, actionID snowflake.ID, notes, actor string) (*sadomain.ServiceAction, error)

func (s *Server) closeAction(c *gin.Context, op closeOp) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req closeActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	action, err := op(c.Request.Context(), id, req.Notes, strings.TrimSpace(req.Actor))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": action})
}
