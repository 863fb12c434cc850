package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/pscheid92/streamagenda/internal/platform/correlation"
	apperrors "github.com/pscheid92/streamagenda/internal/platform/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareWithStructuredError(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := ErrorHandlingMiddleware()(func(c echo.Context) error {
		return apperrors.ValidationError("invalid input")
	})

	err := handler(c)
	require.NoError(t, err)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp apperrors.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "invalid input", resp.Error)
	assert.Equal(t, apperrors.CodeValidation, resp.Code)
	assert.Equal(t, apperrors.TypeValidation, resp.Type)
}

func TestMiddlewareWithStandardError(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := ErrorHandlingMiddleware()(func(c echo.Context) error {
		return errors.New("standard error")
	})

	require.NoError(t, handler(c))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp apperrors.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "internal server error", resp.Error)
	assert.Equal(t, apperrors.TypeInternal, resp.Type)
}

func TestMiddlewareWithStorageError(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := ErrorHandlingMiddleware()(func(c echo.Context) error {
		return apperrors.StorageError("set", errors.New("connection reset"))
	})

	require.NoError(t, handler(c))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp apperrors.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "STORAGE_SET_ERROR", resp.Code)
	assert.True(t, resp.Retryable)
}

func TestMiddlewarePassesEchoHTTPError(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	httpErr := echo.NewHTTPError(http.StatusForbidden, "invalid csrf token")
	handler := ErrorHandlingMiddleware()(func(c echo.Context) error {
		return httpErr
	})

	err := handler(c)
	assert.Equal(t, httpErr, err)
}

func TestCorrelationMiddleware(t *testing.T) {
	e := echo.New()

	var seen string
	handler := correlationMiddleware(func(c echo.Context) error {
		seen, _ = correlation.ID(c.Request().Context())
		return c.NoContent(http.StatusOK)
	})

	t.Run("adopts inbound id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(correlation.Header, "abc-123")
		rec := httptest.NewRecorder()

		require.NoError(t, handler(e.NewContext(req, rec)))
		assert.Equal(t, "abc-123", seen)
		assert.Equal(t, "abc-123", rec.Header().Get(correlation.Header))
	})

	t.Run("replaces malformed id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(correlation.Header, "bad id\nwith newline")
		rec := httptest.NewRecorder()

		require.NoError(t, handler(e.NewContext(req, rec)))
		assert.NotEqual(t, "bad id\nwith newline", seen)
		assert.NotEmpty(t, seen)
		assert.Equal(t, seen, rec.Header().Get(correlation.Header))
	})
}

func TestWrapHTTPError(t *testing.T) {
	tests := []struct {
		name       string
		httpErr    *echo.HTTPError
		wantType   apperrors.ErrorType
		wantStatus int
	}{
		{"bad_request", echo.NewHTTPError(http.StatusBadRequest, "bad request"), apperrors.TypeValidation, http.StatusBadRequest},
		{"forbidden", echo.NewHTTPError(http.StatusForbidden, "invalid csrf token"), apperrors.TypeValidation, http.StatusBadRequest},
		{"not_found", echo.NewHTTPError(http.StatusNotFound, "not found"), apperrors.TypeNotFound, http.StatusNotFound},
		{"unauthorized", echo.NewHTTPError(http.StatusUnauthorized, "no"), apperrors.TypeUnauthorized, http.StatusUnauthorized},
		{"too_many", echo.NewHTTPError(http.StatusTooManyRequests, "slow"), apperrors.TypeRateLimited, http.StatusTooManyRequests},
		{"bad_gateway", echo.NewHTTPError(http.StatusBadGateway, "bad gateway"), apperrors.TypeExternal, http.StatusBadGateway},
		{"service_unavailable", echo.NewHTTPError(http.StatusServiceUnavailable, "unavailable"), apperrors.TypeStorage, http.StatusServiceUnavailable},
		{"internal_server_error", echo.NewHTTPError(http.StatusInternalServerError, "internal error"), apperrors.TypeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := WrapHTTPError(tt.httpErr)

			assert.Equal(t, tt.wantType, err.Type)
			assert.Equal(t, tt.wantStatus, err.HTTPStatus())
		})
	}
}

func TestWrapHTTPErrorWithInternalCause(t *testing.T) {
	cause := errors.New("underlying cause")
	httpErr := echo.NewHTTPError(http.StatusInternalServerError, "wrapped")
	httpErr.Internal = cause

	err := WrapHTTPError(httpErr)

	assert.Equal(t, apperrors.TypeInternal, err.Type)
	assert.Equal(t, cause, err.Cause)
}

func TestWrapHTTPErrorWithNonStringMessage(t *testing.T) {
	httpErr := echo.NewHTTPError(http.StatusBadRequest, 12345)

	err := WrapHTTPError(httpErr)

	assert.Equal(t, "internal server error", err.Message)
	assert.Equal(t, "HTTP_400", err.Code)
}
