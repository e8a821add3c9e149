package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"htech-admin/internal/repository"
	"htech-admin/internal/services"

	"github.com/stretchr/testify/assert"
)

func TestMapServiceError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		code    string
		message string
	}{
		{"expired access", fmt.Errorf("access: %w", services.ErrTokenExpired), http.StatusUnauthorized, "TOKEN_EXPIRED", "credential expired"},
		{"expired refresh", fmt.Errorf("refresh: %w", services.ErrTokenExpired), http.StatusUnauthorized, "TOKEN_EXPIRED", "credential expired"},
		{"invalid token", services.ErrInvalidToken, http.StatusUnauthorized, "UNAUTHENTICATED", "authentication required"},
		{"rotation lost", repository.ErrSessionConflict, http.StatusUnauthorized, "UNAUTHENTICATED", "authentication required"},
		{"forbidden", services.ErrForbidden, http.StatusForbidden, "FORBIDDEN", "you do not have permission to perform this action"},
		{"not found", fmt.Errorf("get user: %w", services.ErrNotFound), http.StatusNotFound, "NOT_FOUND", "resource not found"},
		{"conflict", services.ErrAlreadyExists, http.StatusConflict, "CONFLICT", "resource already exists"},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, code, message := mapServiceError(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, code)
			assert.Equal(t, tt.message, message)
		})
	}
}
