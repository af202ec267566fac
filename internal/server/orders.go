package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	orderdomain "github.com/kariemSeiam/Hvar-Hub/internal/order/domain"
)

type createOrderRequest struct {
	TrackingNumber      string  `json:"tracking_number"`
	CustomerName        string  `json:"customer_name"`
	CustomerPhone       string  `json:"customer_phone"`
	CustomerSecondPhone string  `json:"customer_second_phone"`
	CustomerAddress     string  `json:"customer_address"`
	CODAmount           float64 `json:"cod_amount"`
	PackageDescription  string  `json:"package_description"`
	Notes               string  `json:"notes"`
	Actor               string  `json:"actor"`
}

type applyActionRequest struct {
	Action  orderdomain.MaintenanceAction `json:"action"`
	Payload orderdomain.ActionPayload     `json:"payload"`
	Actor   string                        `json:"actor"`
}

func (s *Server) CreateOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	order, err := s.orderSvc.Create(c.Request.Context(), orderdomain.CreateOrderRequest{
		TrackingNumber:      strings.TrimSpace(req.TrackingNumber),
		CustomerName:        strings.TrimSpace(req.CustomerName),
		CustomerPhone:       strings.TrimSpace(req.CustomerPhone),
		CustomerSecondPhone: strings.TrimSpace(req.CustomerSecondPhone),
		CustomerAddress:     strings.TrimSpace(req.CustomerAddress),
		CODAmount:           req.CODAmount,
		PackageDescription:  req.PackageDescription,
		Notes:               req.Notes,
		Actor:               strings.TrimSpace(req.Actor),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": order})
}

func (s *Server) ListOrders(c *gin.Context) {
	var query struct {
		Status          string `form:"status"`
		ReturnCondition string `form:"return_condition"`
		Page            int    `form:"page"`
		Limit           int    `form:"limit"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	req := orderdomain.ListRequest{
		Status: orderdomain.OrderStatus(strings.TrimSpace(query.Status)),
		Page:   query.Page,
		Limit:  query.Limit,
	}
	if cond := strings.TrimSpace(query.ReturnCondition); cond != "" {
		rc := orderdomain.ReturnCondition(cond)
		req.ReturnCondition = &rc
	}

	orders, total, err := s.orderSvc.ListByStatus(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": orders, "total": total})
}

func (s *Server) OrderSummary(c *gin.Context) {
	summary, err := s.orderSvc.Summary(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": summary})
}

func (s *Server) RecentOrders(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	orders, err := s.orderSvc.RecentOrders(c.Request.Context(), limit)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": orders})
}

func (s *Server) GetOrderByID(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	order, err := s.orderSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": order})
}

func (s *Server) GetOrderByTracking(c *gin.Context) {
	order, err := s.orderSvc.GetByTracking(c.Request.Context(), strings.TrimSpace(c.Param("tracking")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": order})
}

func (s *Server) OrderHistory(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	history, err := s.orderSvc.History(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": history})
}

func (s *Server) ApplyOrderAction(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req applyActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	order, err := s.orderSvc.Apply(c.Request.Context(), id, req.Action, req.Payload, strings.TrimSpace(req.Actor))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": order})
}

func (s *Server) DeleteOrder(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.orderSvc.DeleteOrderAndHistory(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"deleted": true}})
}

func parseID(raw string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil {
		return 0, newValidationError("id", "invalid_id", "must be a numeric id")
	}
	return id, nil
}
