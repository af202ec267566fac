package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	carrierdomain "github.com/kariemSeiam/Hvar-Hub/internal/carrier/domain"
)

// FetchShipment proxies a single tracking lookup so the intake UI can show
// shipment details before the unit is scanned in.
func (s *Server) FetchShipment(c *gin.Context) {
	tracking := strings.TrimSpace(c.Param("tracking"))
	if tracking == "" {
		AbortWithError(c, newValidationError("tracking", "missing_tracking", "is required"))
		return
	}

	shipment, err := s.carrier.FetchShipment(c.Request.Context(), tracking)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": shipment})
}

func (s *Server) SearchShipments(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	query := carrierdomain.SearchQuery{
		Phone:    strings.TrimSpace(c.Query("phone")),
		Name:     strings.TrimSpace(c.Query("name")),
		Tracking: strings.TrimSpace(c.Query("tracking")),
		Page:     page,
		Limit:    limit,
	}
	if query.Phone == "" && query.Name == "" && query.Tracking == "" {
		AbortWithError(c, newValidationError("query", "missing_filter", "at least one of phone, name or tracking is required"))
		return
	}

	shipments, err := s.carrier.SearchShipments(c.Request.Context(), query)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": shipments})
}
