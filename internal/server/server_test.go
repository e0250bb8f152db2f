package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "gw-transfer-service/docs"
)

func setupServer() *Server {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewServer(Options{Port: "0"}, log)
}

func TestNewServer_AppliesDefaults(t *testing.T) {
	srv := setupServer()

	assert.Equal(t, ":0", srv.httpServer.Addr)
	assert.Equal(t, 30*time.Second, srv.httpServer.ReadTimeout)
	assert.Equal(t, 5*time.Second, srv.httpServer.ReadHeaderTimeout)
	assert.Equal(t, 120*time.Second, srv.httpServer.IdleTimeout)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	custom := NewServer(Options{Port: "9090", WriteTimeout: time.Second}, log)
	assert.Equal(t, ":9090", custom.httpServer.Addr)
	assert.Equal(t, time.Second, custom.httpServer.WriteTimeout)
}

func TestServer_SwaggerDoc(t *testing.T) {
	srv := setupServer()
	srv.RegisterSwagger()

	rec := httptest.NewRecorder()
	srv.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var doc struct {
		BasePath string                     `json:"basePath"`
		Paths    map[string]json.RawMessage `json:"paths"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, "/api/v1", doc.BasePath)
	assert.Contains(t, doc.Paths, "/transfers")
	assert.Contains(t, doc.Paths, "/accounts/{accountID}")
}

func TestServer_Healthz(t *testing.T) {
	srv := setupServer()
	var running atomic.Bool
	srv.RegisterHealth(running.Load)

	rec := httptest.NewRecorder()
	srv.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"unavailable","pipeline":"stopped"}`, rec.Body.String())

	running.Store(true)
	rec = httptest.NewRecorder()
	srv.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","pipeline":"running"}`, rec.Body.String())
}

func TestServer_ServeAndShutdown(t *testing.T) {
	srv := setupServer()
	srv.RegisterHealth(func() bool { return true })

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Serve(listener)
	}()

	resp, err := http.Get("http://" + listener.Addr().String() + "/healthz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))

	select {
	case err := <-serveErr:
		assert.True(t, errors.Is(err, http.ErrServerClosed))
	case <-time.After(time.Second):
		t.Fatal("server did not stop")
	}
}
