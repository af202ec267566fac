package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/kariemSeiam/Hvar-Hub/internal/observability/logger"
	"go.uber.org/zap"
)

type scanRequest struct {
	TrackingNumber string `json:"tracking_number"`
	Actor          string `json:"actor"`
}

// Scan is the barcode intake endpoint. One call classifies the tracking
// number and performs whichever side effect applies: nothing for a known
// order, integration for a ready service action, order creation for a
// fresh carrier shipment.
func (s *Server) Scan(c *gin.Context) {
	if !s.scanLimiter.Allow(c.ClientIP()) {
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": gin.H{
			"code":    "rate_limited",
			"message": "too many scans, slow down",
		}})
		return
	}

	var req scanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	tracking := strings.TrimSpace(req.TrackingNumber)
	if tracking == "" {
		AbortWithError(c, newValidationError("tracking_number", "missing_tracking", "is required"))
		return
	}

	result, err := s.unifiedSvc.Scan(c.Request.Context(), tracking, strings.TrimSpace(req.Actor))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	logger.FromContext(c.Request.Context()).Info("shipment scanned",
		zap.String("tracking_number", tracking),
		zap.String("classification", string(result.Classification)),
	)
	c.JSON(http.StatusOK, gin.H{"data": result})
}

// ResolveScan classifies a tracking number without side effects. The
// intake UI uses it to preview what a scan would do.
func (s *Server) ResolveScan(c *gin.Context) {
	var req scanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	tracking := strings.TrimSpace(req.TrackingNumber)
	if tracking == "" {
		AbortWithError(c, newValidationError("tracking_number", "missing_tracking", "is required"))
		return
	}

	result, err := s.unifiedSvc.ResolveIncomingScan(c.Request.Context(), tracking)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}
