package app

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRouterHealthz(t *testing.T) {
	router := NewRouter(RouterParams{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Config: &Config{AppEnv: "development"},
	})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRouterUnknownRoute(t *testing.T) {
	router := NewRouter(RouterParams{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Config: &Config{AppEnv: "development"},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/nothing", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}
