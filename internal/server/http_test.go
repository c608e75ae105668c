package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/starknow-arena/internal/config"
	"github.com/gokatarajesh/starknow-arena/internal/logging"
)

func testConfig() *config.App {
	return &config.App{
		HTTPAddr: "127.0.0.1:0",
		CORS: config.CORS{
			AllowedOrigins: []string{"https://starknow.example"},
			AllowedMethods: []string{"GET", "POST"},
			AllowedHeaders: []string{"Content-Type", "Authorization"},
			MaxAge:         600,
		},
	}
}

type echoRouter struct{}

func (echoRouter) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /v1/arena/echo", func(w http.ResponseWriter, r *http.Request) {
		_, ok := r.Context().Value(testKey{}).(string)
		if !ok {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusTeapot)
	})
}

type testKey struct{}

func TestHealthz(t *testing.T) {
	srv := NewHTTPServer(testConfig(), zerolog.Nop(), Options{})
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestPingReportsUpstreamFailure(t *testing.T) {
	srv := NewHTTPServer(testConfig(), zerolog.Nop(), Options{
		Dependencies: map[string]Pinger{
			"redis": PingFunc(func(context.Context) error { return errors.New("connection refused") }),
		},
	})
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/ping", nil))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "upstream_error", body["error"])
}

func TestPingHealthyDependencies(t *testing.T) {
	srv := NewHTTPServer(testConfig(), zerolog.Nop(), Options{
		Dependencies: map[string]Pinger{
			"postgres": PingFunc(func(context.Context) error { return nil }),
		},
	})
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/ping", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"pong":true}`, rec.Body.String())
}

func TestRoutersRunBehindAuthenticate(t *testing.T) {
	srv := NewHTTPServer(testConfig(), zerolog.Nop(), Options{
		Routers: []Router{echoRouter{}, nil},
		Authenticate: func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), testKey{}, "138")))
			})
		},
	})
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/arena/echo", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	srv := NewHTTPServer(testConfig(), zerolog.Nop(), Options{})

	req := httptest.NewRequest(http.MethodOptions, "/v1/arena/match", nil)
	req.Header.Set("Origin", "https://starknow.example")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://starknow.example", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET, POST", rec.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "600", rec.Header().Get("Access-Control-Max-Age"))

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestLoggerInContext(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	router := routerFunc(func(mux *http.ServeMux) {
		mux.HandleFunc("GET /v1/arena/ctx", func(w http.ResponseWriter, r *http.Request) {
			logging.FromContext(r.Context(), zerolog.Nop()).Info().Msg("inside handler")
			w.WriteHeader(http.StatusNoContent)
		})
	})
	srv := NewHTTPServer(testConfig(), logger, Options{Routers: []Router{router}})

	req := httptest.NewRequest(http.MethodGet, "/v1/arena/ctx", nil)
	req.Header.Set("X-Request-ID", "req-42")
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "req-42", rec.Header().Get("X-Request-ID"))
	assert.Contains(t, buf.String(), `"request_id":"req-42"`)
	assert.Contains(t, buf.String(), "inside handler")
}

type routerFunc func(mux *http.ServeMux)

func (f routerFunc) Routes(mux *http.ServeMux) { f(mux) }

func TestRelayUpgradeThroughMiddleware(t *testing.T) {
	upgrader := websocket.Upgrader{}
	relay := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		_ = conn.WriteMessage(websocket.TextMessage, msg)
	})
	srv := NewHTTPServer(testConfig(), zerolog.Nop(), Options{Relay: relay, RelayPath: "/ws/duel"})
	ts := httptest.NewServer(srv.Handler)
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws/duel", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"host","room":"123456"}`)))
	_, got, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"host","room":"123456"}`, string(got))
}
