package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runGuard(t *testing.T, mw echo.MiddlewareFunc, role string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if role != "" {
		c.Set("role", role)
	}

	handler := mw(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, handler(c))
	return rec
}

func TestAdminGuard(t *testing.T) {
	assert.Equal(t, http.StatusOK, runGuard(t, AdminGuard, "admin").Code)
	assert.Equal(t, http.StatusForbidden, runGuard(t, AdminGuard, "provider").Code)
	assert.Equal(t, http.StatusForbidden, runGuard(t, AdminGuard, "user").Code)
	assert.Equal(t, http.StatusForbidden, runGuard(t, AdminGuard, "").Code)
}

func TestProviderGuard(t *testing.T) {
	assert.Equal(t, http.StatusOK, runGuard(t, ProviderGuard, "provider").Code)
	assert.Equal(t, http.StatusOK, runGuard(t, ProviderGuard, "admin").Code)
	assert.Equal(t, http.StatusForbidden, runGuard(t, ProviderGuard, "user").Code)
	assert.Equal(t, http.StatusForbidden, runGuard(t, ProviderGuard, "").Code)
}

func TestRequireRoles(t *testing.T) {
	mw := RequireRoles("admin", "provider")
	assert.Equal(t, http.StatusOK, runGuard(t, mw, "admin").Code)
	assert.Equal(t, http.StatusOK, runGuard(t, mw, "provider").Code)
	assert.Equal(t, http.StatusForbidden, runGuard(t, mw, "user").Code)
	assert.Equal(t, http.StatusForbidden, runGuard(t, mw, "").Code)
}
