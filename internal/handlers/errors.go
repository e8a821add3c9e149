package handlers

import (
	"errors"
	"log"
	"net/http"

	"htech-admin/internal/repository"
	"htech-admin/internal/services"
	"htech-admin/utils"

	"github.com/gin-gonic/gin"
)

// mapServiceError maps service layer errors to HTTP responses
func mapServiceError(err error) (int, string, string) {
	switch {
	case errors.Is(err, services.ErrInvalidCredentials):
		return http.StatusBadRequest, "INVALID_CREDENTIALS", "invalid username or password"
	case errors.Is(err, services.ErrTokenExpired):
		return http.StatusUnauthorized, "TOKEN_EXPIRED", "credential expired"
	case errors.Is(err, services.ErrUnauthenticated), errors.Is(err, repository.ErrSessionConflict):
		return http.StatusUnauthorized, "UNAUTHENTICATED", "authentication required"
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden, "FORBIDDEN", "you do not have permission to perform this action"
	case errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest, "VALIDATION_ERROR", err.Error()
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND", "resource not found"
	case errors.Is(err, services.ErrAlreadyExists):
		return http.StatusConflict, "CONFLICT", "resource already exists"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error"
	}
}

func respondError(c *gin.Context, err error) {
	status, code, message := mapServiceError(err)
	if status >= http.StatusInternalServerError {
		log.Printf("%s %s failed: %v", c.Request.Method, c.FullPath(), err)
	}
	utils.SendError(c, status, code, message)
}

func abortWithError(c *gin.Context, err error) {
	status, code, message := mapServiceError(err)
	if status >= http.StatusInternalServerError {
		log.Printf("%s %s failed: %v", c.Request.Method, c.FullPath(), err)
	}
	utils.AbortWithError(c, status, code, message)
}

func respondBadRequest(c *gin.Context, err error) {
	log.Printf("Invalid request format on %s %s: %v", c.Request.Method, c.FullPath(), err)
	utils.SendError(c, http.StatusBadRequest, "INVALID_REQUEST_FORMAT", "Invalid request format")
}
