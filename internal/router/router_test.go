package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/predator49/train-reservation/internal/config"
	"github.com/predator49/train-reservation/internal/handler"
	"github.com/predator49/train-reservation/internal/middleware"
)

type okPinger struct{}

func (okPinger) PingContext(context.Context) error { return nil }

func newTestServer() *echo.Echo {
	e := echo.New()
	v := middleware.NewVerifier("router-secret")
	RegisterRoutes(e, okPinger{})
	RegisterAuth(e, handler.NewAuthHandler(config.Config{}, nil, nil, v), v)
	RegisterSeats(e, handler.NewSeatHandler(nil), v, middleware.NewTokenBucket(config.RateLimitConfig{}, nil))
	return e
}

func TestRoutesRegistered(t *testing.T) {
	e := newTestServer()
	have := map[string]bool{}
	for _, r := range e.Routes() {
		have[r.Method+" "+r.Path] = true
	}
	for _, want := range []string{
		"GET /healthz",
		"GET /readyz",
		"POST /v1/auth/register",
		"POST /v1/auth/login",
		"POST /v1/auth/refresh",
		"POST /v1/auth/logout",
		"GET /v1/me",
		"GET /v1/seats",
		"GET /v1/seats/layout",
		"GET /v1/seats/allocate",
		"GET /v1/seats/mine",
		"POST /v1/seats/book",
		"POST /v1/seats/book/auto",
		"POST /v1/seats/cancel",
		"POST /v1/seats/reset",
	} {
		assert.True(t, have[want], "missing route %s", want)
	}
}

func TestSeatRoutesRequireToken(t *testing.T) {
	e := newTestServer()
	for _, r := range []struct{ method, path string }{
		{http.MethodGet, "/v1/seats"},
		{http.MethodPost, "/v1/seats/book"},
		{http.MethodPost, "/v1/seats/reset"},
		{http.MethodGet, "/v1/me"},
	} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(r.method, r.path, nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, r.path)
	}
}

func TestHealthIsPublic(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestServer().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
