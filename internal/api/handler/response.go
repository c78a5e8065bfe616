package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/user/model-router-go/internal/models"
)

// errorResponse sends a JSON error response with {detail: message} format.
func errorResponse(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"detail": message})
}

// routerErrorResponse maps a routing-core error kind onto an HTTP status.
func routerErrorResponse(c *gin.Context, err error) {
	var re *models.RouterError
	if !errors.As(err, &re) {
		errorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}
	status := http.StatusInternalServerError
	switch re.Kind {
	case models.KindNotFound:
		status = http.StatusNotFound
	case models.KindValidation, models.KindNoCandidate:
		status = http.StatusBadRequest
	case models.KindProvidersExhausted:
		status = http.StatusServiceUnavailable
	case models.KindRateLimited:
		status = http.StatusTooManyRequests
	}
	errorResponse(c, status, re.Message)
}
