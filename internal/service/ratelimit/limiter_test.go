package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func TestAllowConsumesBurst(t *testing.T) {
	l := New()
	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow("client", 3, 0), "request %d should pass", i)
	}
	assert.False(t, l.Allow("client", 3, 0))
}

func TestAllowIsolatesKeys(t *testing.T) {
	l := New()
	assert.True(t, l.Allow("a", 1, 0))
	assert.False(t, l.Allow("a", 1, 0))
	assert.True(t, l.Allow("b", 1, 0))
}

func TestMiddlewareRejectsWith429(t *testing.T) {
	l := New()
	e := echo.New()
	e.GET("/x", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	}, Middleware(l, 1, 0))

	first := httptest.NewRecorder()
	e.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	e.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}
