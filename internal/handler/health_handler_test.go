package handler_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"contractlens/internal/handler"
)

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name      string
		providers []string
		ready     int
	}{
		{"configured", []string{"openrouter"}, http.StatusOK},
		{"no providers", nil, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := handler.NewHealthHandler(tt.providers)

			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request, _ = http.NewRequest(http.MethodGet, "/healthz", http.NoBody)
			h.Liveness(c)
			assert.Equal(t, http.StatusOK, w.Code)

			w = httptest.NewRecorder()
			c, _ = gin.CreateTestContext(w)
			c.Request, _ = http.NewRequest(http.MethodGet, "/readyz", http.NoBody)
			h.Readiness(c)
			assert.Equal(t, tt.ready, w.Code)
		})
	}
}
