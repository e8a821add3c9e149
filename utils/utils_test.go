package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePaginationParams(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		query      string
		wantLimit  int
		wantOffset int
	}{
		{query: "", wantLimit: 20, wantOffset: 0},
		{query: "limit=5&offset=10", wantLimit: 5, wantOffset: 10},
		{query: "limit=1000", wantLimit: 100, wantOffset: 0},
		{query: "limit=-1&offset=abc", wantLimit: 20, wantOffset: 0},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, "/users?"+tt.query, nil)

			limit, offset := ParsePaginationParams(c)
			assert.Equal(t, tt.wantLimit, limit)
			assert.Equal(t, tt.wantOffset, offset)
		})
	}
}

func TestSendErrorEnvelope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	SendError(c, http.StatusForbidden, "FORBIDDEN", "access denied")

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.False(t, body.Success)
	assert.Equal(t, "FORBIDDEN", body.Error.Code)
}
