package ops

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func get(t *testing.T, h http.Handler, path string) (int, string) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec.Code, rec.Body.String()
}

func TestHealthzFollowsReady(t *testing.T) {
	var ready atomic.Bool
	h := Router(prometheus.NewRegistry(), ready.Load)

	code, body := get(t, h, "/healthz")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "not connected\n", body)

	ready.Store(true)
	code, body = get(t, h, "/healthz")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok\n", body)
}

func TestHealthzWithoutReadyFunc(t *testing.T) {
	code, _ := get(t, Router(prometheus.NewRegistry(), nil), "/healthz")
	assert.Equal(t, http.StatusServiceUnavailable, code)
}

func TestMetricsServesRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "jasper_test_total", Help: "test"})
	reg.MustRegister(c)
	c.Add(3)

	code, body := get(t, Router(reg, nil), "/metrics")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "jasper_test_total 3")
}

func TestUnknownPath(t *testing.T) {
	code, _ := get(t, Router(prometheus.NewRegistry(), nil), "/nope")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestServerServeAndShutdown(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := NewServer(l.Addr().String(), Router(prometheus.NewRegistry(), func() bool { return true }), nil)
	done := make(chan error, 1)
	go func() { done <- srv.Serve(l) }()

	resp, err := http.Get("http://" + l.Addr().String() + "/healthz")
	require.NoError(t, err)
	b, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", strings.TrimSpace(string(b)))

	require.NoError(t, srv.Shutdown(context.Background()))
	assert.NoError(t, <-done)
}
