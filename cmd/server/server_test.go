package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/thereayou/ephemeral-chat/internal/config"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	cfg := &config.Config{
		Port:          "0",
		SecretKey:     "test-secret",
		StoreDriver:   "memory",
		PurgeSchedule: "0 */2 * * *",
		GinMode:       "test",
	}
	require.NoError(t, cfg.Validate())

	s, err := NewServer(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Store.Close() })
	return s
}

func TestAPIEndpoints_Routes(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		method string
		path   string
		body   string
		want   int
	}{
		{http.MethodGet, "/health", "", http.StatusOK},
		{http.MethodGet, "/metrics", "", http.StatusOK},
		{http.MethodPost, "/api/room/create", `{"userId":"alice"}`, http.StatusCreated},
		{http.MethodPost, "/api/room/join", `{"roomId":"NOPE","userId":"bob"}`, http.StatusNotFound},
		{http.MethodGet, "/api/room/NOPE/messages", "", http.StatusNotFound},
		{http.MethodGet, "/api/room/NOPE/users", "", http.StatusNotFound},
		{http.MethodGet, "/ws", "", http.StatusBadRequest},
		{http.MethodGet, "/api/unknown", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()

			s.Router.ServeHTTP(rec, req)

			require.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestServer_CreateThenRead(t *testing.T) {
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	s.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/room/create", strings.NewReader(`{"userId":"alice"}`)))
	require.Equal(t, http.StatusCreated, rec.Code)

	var created struct {
		RoomID string `json:"roomId"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.Len(t, created.RoomID, 20)

	rec = httptest.NewRecorder()
	s.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/room/message",
		strings.NewReader(`{"roomId":"`+created.RoomID+`","userId":"alice","message":"hi"}`)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = httptest.NewRecorder()
	s.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/room/"+created.RoomID+"/messages", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"messages":[{"userId":"alice","message":"hi"}]}`, rec.Body.String())
}

func TestNewServer_RejectsUnknownDriver(t *testing.T) {
	cfg := &config.Config{SecretKey: "k", StoreDriver: "etcd", PurgeSchedule: "0 */2 * * *", GinMode: "test"}

	_, err := NewServer(context.Background(), cfg, zerolog.Nop())
	require.Error(t, err)
}
