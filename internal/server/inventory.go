package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	invdomain "github.com/kariemSeiam/Hvar-Hub/internal/inventory/domain"
)

type createProductRequest struct {
	SKU           string `json:"sku"`
	NameAr        string `json:"name_ar"`
	NameEn        string `json:"name_en"`
	Category      string `json:"category"`
	InitialStock  int    `json:"initial_stock"`
	AlertQuantity int    `json:"alert_quantity"`
	Actor         string `json:"actor"`
}

type createPartRequest struct {
	SKU           string        `json:"sku"`
	NameAr        string        `json:"name_ar"`
	NameEn        string        `json:"name_en"`
	PartType      string        `json:"part_type"`
	ProductID     *snowflake.ID `json:"product_id"`
	InitialStock  int           `json:"initial_stock"`
	AlertQuantity int           `json:"alert_quantity"`
	Actor         string        `json:"actor"`
}

type updateProductRequest struct {
	SKU           *string `json:"sku"`
	NameAr        *string `json:"name_ar"`
	NameEn        *string `json:"name_en"`
	Category      *string `json:"category"`
	AlertQuantity *int    `json:"alert_quantity"`
}

type updatePartRequest struct {
	SKU           *string       `json:"sku"`
	NameAr        *string       `json:"name_ar"`
	NameEn        *string       `json:"name_en"`
	PartType      *string       `json:"part_type"`
	ProductID     *snowflake.ID `json:"product_id"`
	AlertQuantity *int          `json:"alert_quantity"`
}

type applyMovementRequest struct {
	ItemType        string        `json:"item_type"`
	ItemID          snowflake.ID  `json:"item_id"`
	QuantityChange  int           `json:"quantity_change"`
	Condition       string        `json:"condition"`
	Kind            string        `json:"movement_kind"`
	OrderID         *snowflake.ID `json:"order_id"`
	ServiceActionID *snowflake.ID `json:"service_action_id"`
	Notes           string        `json:"notes"`
	Actor           string        `json:"actor"`
}

func (s *Server) CreateProduct(c *gin.Context) {
	var req createProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	product, err := s.inventorySvc.CreateProduct(c.Request.Context(), invdomain.CreateProductRequest{
		SKU:           strings.TrimSpace(req.SKU),
		NameAr:        strings.TrimSpace(req.NameAr),
		NameEn:        strings.TrimSpace(req.NameEn),
		Category:      strings.TrimSpace(req.Category),
		InitialStock:  req.InitialStock,
		AlertQuantity: req.AlertQuantity,
		Actor:         strings.TrimSpace(req.Actor),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": product})
}

func (s *Server) UpdateProduct(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req updateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	product, err := s.inventorySvc.UpdateProduct(c.Request.Context(), id, invdomain.UpdateProductRequest{
		SKU:           req.SKU,
		NameAr:        req.NameAr,
		NameEn:        req.NameEn,
		Category:      req.Category,
		AlertQuantity: req.AlertQuantity,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": product})
}

func (s *Server) DeleteProduct(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.inventorySvc.DeleteProduct(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"deleted": true}})
}

func (s *Server) ListProducts(c *gin.Context) {
	products, err := s.inventorySvc.ListProducts(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": products})
}

func (s *Server) CreatePart(c *gin.Context) {
	var req createPartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	part, err := s.inventorySvc.CreatePart(c.Request.Context(), invdomain.CreatePartRequest{
		SKU:           strings.TrimSpace(req.SKU),
		NameAr:        strings.TrimSpace(req.NameAr),
		NameEn:        strings.TrimSpace(req.NameEn),
		PartType:      strings.TrimSpace(req.PartType),
		ProductID:     req.ProductID,
		InitialStock:  req.InitialStock,
		AlertQuantity: req.AlertQuantity,
		Actor:         strings.TrimSpace(req.Actor),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": part})
}

func (s *Server) UpdatePart(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req updatePartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	part, err := s.inventorySvc.UpdatePart(c.Request.Context(), id, invdomain.UpdatePartRequest{
		SKU:           req.SKU,
		NameAr:        req.NameAr,
		NameEn:        req.NameEn,
		PartType:      req.PartType,
		ProductID:     req.ProductID,
		AlertQuantity: req.AlertQuantity,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": part})
}

func (s *Server) DeletePart(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.inventorySvc.DeletePart(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"deleted": true}})
}

func (s *Server) ListParts(c *gin.Context) {
	parts, err := s.inventorySvc.ListParts(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": parts})
}

func (s *Server) GetItem(c *gin.Context) {
	ref, err := parseItemRef(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	item, err := s.inventorySvc.GetItem(c.Request.Context(), ref)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": item})
}

func (s *Server) ListMovements(c *gin.Context) {
	ref, err := parseItemRef(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	movements, err := s.inventorySvc.ListMovements(c.Request.Context(), ref, limit)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": movements})
}

func (s *Server) ApplyMovement(c *gin.Context) {
	var req applyMovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	movement, err := s.inventorySvc.ApplyMovement(c.Request.Context(), invdomain.MovementRequest{
		Item: invdomain.ItemRef{
			Type: invdomain.ItemType(strings.TrimSpace(req.ItemType)),
			ID:   req.ItemID,
		},
		QuantityChange:  req.QuantityChange,
		Condition:       invdomain.ItemCondition(strings.TrimSpace(req.Condition)),
		Kind:            invdomain.MovementKind(strings.TrimSpace(req.Kind)),
		OrderID:         req.OrderID,
		ServiceActionID: req.ServiceActionID,
		Notes:           req.Notes,
		Actor:           strings.TrimSpace(req.Actor),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": movement})
}

func (s *Server) StockOverview(c *gin.Context) {
	overview, err := s.inventorySvc.StockOverview(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": overview})
}

func parseItemRef(c *gin.Context) (invdomain.ItemRef, error) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		return invdomain.ItemRef{}, err
	}
	return invdomain.ItemRef{
		Type: invdomain.ItemType(strings.TrimSpace(c.Param("type"))),
		ID:   id,
	}, nil
}
