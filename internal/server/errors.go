package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	carrierdomain "github.com/kariemSeiam/Hvar-Hub/internal/carrier/domain"
	invdomain "github.com/kariemSeiam/Hvar-Hub/internal/inventory/domain"
	orderdomain "github.com/kariemSeiam/Hvar-Hub/internal/order/domain"
	sadomain "github.com/kariemSeiam/Hvar-Hub/internal/serviceaction/domain"
	unifieddomain "github.com/kariemSeiam/Hvar-Hub/internal/unified/domain"
)

type apiError struct {
	status  int
	code    string
	message string
}

func (e *apiError) Error() string { return e.message }

func invalidRequestError() *apiError {
	return &apiError{status: http.StatusBadRequest, code: "invalid_request", message: "invalid request body"}
}

func newValidationError(field, code, message string) *apiError {
	return &apiError{status: http.StatusBadRequest, code: code, message: field + ": " + message}
}

// AbortWithError translates domain errors to HTTP responses. Handlers pass
// every service error through here so status mapping lives in one place.
func AbortWithError(c *gin.Context, err error) {
	var apiErr *apiError
	if errors.As(err, &apiErr) {
		c.AbortWithStatusJSON(apiErr.status, gin.H{"error": gin.H{"code": apiErr.code, "message": apiErr.message}})
		return
	}

	status := http.StatusInternalServerError
	code := "internal_error"

	switch {
	case errors.Is(err, orderdomain.ErrValidation),
		errors.Is(err, sadomain.ErrValidation),
		errors.Is(err, invdomain.ErrInvalidItemType),
		errors.Is(err, invdomain.ErrInvalidCondition),
		errors.Is(err, invdomain.ErrInvalidMovement):
		status = http.StatusBadRequest
		code = "validation_failed"
	case errors.Is(err, orderdomain.ErrNotFound),
		errors.Is(err, sadomain.ErrNotFound),
		errors.Is(err, invdomain.ErrItemNotFound),
		errors.Is(err, carrierdomain.ErrShipmentNotFound):
		status = http.StatusNotFound
		code = "not_found"
	case errors.Is(err, orderdomain.ErrInvalidTransition),
		errors.Is(err, sadomain.ErrInvalidTransition),
		errors.Is(err, orderdomain.ErrDuplicateTracking),
		errors.Is(err, sadomain.ErrDuplicateTracking),
		errors.Is(err, sadomain.ErrAlreadyIntegrated),
		errors.Is(err, unifieddomain.ErrNotReady),
		errors.Is(err, invdomain.ErrDuplicateSKU),
		errors.Is(err, invdomain.ErrItemInUse):
		status = http.StatusConflict
		code = "conflict"
	case errors.Is(err, invdomain.ErrInsufficientStock):
		status = http.StatusUnprocessableEntity
		code = "insufficient_stock"
	case errors.Is(err, carrierdomain.ErrUnauthorized),
		errors.Is(err, carrierdomain.ErrUnavailable):
		status = http.StatusBadGateway
		code = "carrier_error"
	}

	c.AbortWithStatusJSON(status, gin.H{"error": gin.H{"code": code, "message": err.Error()}})
}
