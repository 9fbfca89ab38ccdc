package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthController_Status(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name     string
		db       Pinger
		code     int
		status   string
		database string
	}{
		{"healthy", pingerFunc(func(context.Context) error { return nil }), http.StatusOK, "healthy", "ok"},
		{"database down", pingerFunc(func(context.Context) error { return errors.New("locked") }), http.StatusServiceUnavailable, "unhealthy", "error: locked"},
		{"no database", nil, http.StatusOK, "healthy", "not configured"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := NewRouter(RouterConfig{Database: tt.db, Version: "1.2.3"})
			w := serve(router, http.MethodGet, "/health", "")
			assert.Equal(t, tt.code, w.Code)

			var resp HealthResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.status, resp.Status)
			assert.Equal(t, "1.2.3", resp.Version)
			assert.Equal(t, tt.database, resp.Checks["database"])
		})
	}
}

func TestHealthController_Ping(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := NewRouter(RouterConfig{})

	w := serve(router, http.MethodGet, "/ping", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"pong"}`, w.Body.String())
}
