package httpserver

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storefront-labs/fulfillment/internal/service"
)

func newEchoContext(t *testing.T, method, target string, headers map[string]string) echo.Context {
	t.Helper()

	req := httptest.NewRequest(method, target, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return echo.New().NewContext(req, httptest.NewRecorder())
}

func TestGetID(t *testing.T) {
	t.Parallel()

	h := &OrderHTTP{}

	tests := []struct {
		name   string
		header string
		want   uint
		ok     bool
	}{
		{name: "valid", header: "7", want: 7, ok: true},
		{name: "missing", header: "", ok: false},
		{name: "garbage", header: "abc", ok: false},
		{name: "zero", header: "0", ok: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			headers := map[string]string{}
			if tt.header != "" {
				headers["X-User-ID"] = tt.header
			}
			c := newEchoContext(t, http.MethodGet, "/orders", headers)

			id, err := h.GetID(c)
			if !tt.ok {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, id)
		})
	}
}

func TestMapError_Taxonomy(t *testing.T) {
	t.Parallel()

	h := &OrderHTTP{}
	l := slog.New(slog.NewTextHandler(io.Discard, nil))
	c := newEchoContext(t, http.MethodGet, "/orders/1", nil)

	tests := []struct {
		err  error
		code int
	}{
		{fmt.Errorf("%w: quantity must be positive", service.ErrValidation), http.StatusBadRequest},
		{fmt.Errorf("%w: order 99", service.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: order is DELIVERED", service.ErrConflict), http.StatusConflict},
		{errors.New("pg connection reset"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		err := h.mapError(c, l, "test_error", tt.err)

		var httpErr *echo.HTTPError
		require.ErrorAs(t, err, &httpErr)
		assert.Equal(t, tt.code, httpErr.Code)
	}

	// downstream detail never reaches the client on a 500
	err := h.mapError(c, l, "test_error", errors.New("pg connection reset"))
	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, "internal error", httpErr.Message)
}

func TestUintParam(t *testing.T) {
	t.Parallel()

	c := newEchoContext(t, http.MethodGet, "/orders/12", nil)
	c.SetParamNames("id")
	c.SetParamValues("12")

	id, err := orderID(c)
	require.NoError(t, err)
	assert.Equal(t, uint(12), id)

	c.SetParamValues("0")
	_, err = orderID(c)
	assert.Error(t, err)

	c.SetParamValues("not-a-number")
	_, err = orderID(c)
	assert.Error(t, err)
}

func TestIntQuery(t *testing.T) {
	t.Parallel()

	c := newEchoContext(t, http.MethodGet, "/orders?limit=5&offset=-1&junk=x", nil)
	assert.Equal(t, 5, intQuery(c, "limit", 20))
	assert.Equal(t, 0, intQuery(c, "offset", 0))   // negative falls back
	assert.Equal(t, 20, intQuery(c, "missing", 20))
}

func TestRegister_HealthAndMetrics(t *testing.T) {
	t.Parallel()

	e := echo.New()
	Register(e, &Deps{
		OrderHandler: &OrderHTTP{},
		Metrics: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}),
	})

	for _, path := range []string{"/health/live", "/health/ready", "/metrics"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}
