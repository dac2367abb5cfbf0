package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/brrowapp/brrow-backend/internal/logging"
	"github.com/brrowapp/brrow-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestServiceError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		status   int
		code     string
		message  string
		loggedAt zapcore.Level
	}{
		{"not found", service.ErrNotFound, http.StatusNotFound, "not_found", "conversation not found", zapcore.InfoLevel},
		{"forbidden", service.ErrForbidden, http.StatusForbidden, "forbidden", "not allowed", zapcore.InfoLevel},
		{"invalid", fmt.Errorf("%w: body required", service.ErrInvalid), http.StatusBadRequest, "bad_request", "invalid request: body required", zapcore.InfoLevel},
		{"store failure", errors.New("dial tcp 10.0.0.3:3306: connection refused"), http.StatusInternalServerError, "internal_error", "internal error", zapcore.ErrorLevel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.DebugLevel)
			e := echo.New()
			e.Use(logging.RequestLogger(zap.New(core)))
			e.GET("/conversations/1", func(c echo.Context) error {
				return serviceError(c, tt.err, "conversation not found")
			})

			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/conversations/1", nil))

			require.Equal(t, tt.status, rec.Code)
			var body ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.code, body.Error.Code)
			assert.Equal(t, tt.message, body.Error.Message)

			require.Equal(t, 1, logs.Len())
			entry := logs.All()[0]
			assert.Equal(t, tt.loggedAt, entry.Level)
			if tt.status == http.StatusInternalServerError {
				assert.NotContains(t, rec.Body.String(), "connection refused")
				assert.Contains(t, entry.ContextMap()["error"], "connection refused")
				assert.EqualValues(t, http.StatusInternalServerError, entry.ContextMap()["status"])
			}
		})
	}
}
