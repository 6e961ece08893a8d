package api

import (
	"alcyxob/wellbeing-app/internal/service"
	"alcyxob/wellbeing-app/internal/validation"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// respondServiceError maps a service error to an HTTP status and JSON body.
func respondServiceError(c *gin.Context, op string, err error) {
	if fields, ok := validation.Fields(err); ok {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "fields": fields})
		return
	}

	switch {
	case errors.Is(err, service.ErrPermissionDenied),
		errors.Is(err, service.ErrRoleNotAssignable):
		abortWithError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrWeekNotFound),
		errors.Is(err, service.ErrChallengeNotFound),
		errors.Is(err, service.ErrResourceNotFound),
		errors.Is(err, service.ErrUserNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrWeekNumberTaken),
		errors.Is(err, service.ErrUserAlreadyExists):
		abortWithError(c, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrInvalidObjectKey):
		abortWithError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrStorageUnavailable):
		abortWithError(c, http.StatusServiceUnavailable, err.Error())
	default:
		log.Printf("ERROR: %s failed: %v", op, err)
		abortWithError(c, http.StatusInternalServerError, "An unexpected error occurred")
	}
}
